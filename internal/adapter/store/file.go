package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"devboot/internal/domain"
)

// Entry names a pid file and the log that goes with it.
type Entry struct {
	Name    string
	PidPath string
	LogPath string
}

// PidFileStore discovers launched processes through their pid files.
type PidFileStore struct {
	entries []Entry
	readPid func(path string) (int, error)
	alive   func(pid int) bool
}

// NewPidFileStore creates a store over entries. readPid parses a pid file and
// alive probes a pid.
func NewPidFileStore(entries []Entry, readPid func(string) (int, error), alive func(int) bool) *PidFileStore {
	return &PidFileStore{entries: entries, readPid: readPid, alive: alive}
}

// ParseEntry accepts NAME=PIDPATH[:LOGPATH] or a bare pid path, whose name
// is derived from the file name.
func ParseEntry(spec string) Entry {
	name, rest, ok := strings.Cut(spec, "=")
	if !ok {
		rest = spec
		name = strings.TrimSuffix(filepath.Base(spec), ".pid")
	}
	pidPath, logPath, _ := strings.Cut(rest, ":")
	if logPath == "" {
		logPath = strings.TrimSuffix(pidPath, ".pid") + ".log"
	}
	return Entry{Name: name, PidPath: pidPath, LogPath: logPath}
}

// List returns one record per entry whose pid file exists.
func (s *PidFileStore) List() ([]domain.PidRecord, error) {
	var records []domain.PidRecord
	for _, e := range s.entries {
		pid, err := s.readPid(e.PidPath)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		rec := domain.PidRecord{Name: e.Name, PidPath: e.PidPath, LogPath: e.LogPath}
		if err == nil {
			rec.PID = pid
			rec.Alive = s.alive(pid)
		}
		records = append(records, rec)
	}
	return records, nil
}

// RemoveStale deletes pid files whose process is gone and returns how many
// were removed.
func (s *PidFileStore) RemoveStale() (int, error) {
	records, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, r := range records {
		if r.Alive {
			continue
		}
		if err := os.Remove(r.PidPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
