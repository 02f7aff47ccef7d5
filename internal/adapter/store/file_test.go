package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed")
	}
	return pid, nil
}

func TestParseEntry(t *testing.T) {
	assert.Equal(t, Entry{Name: "vscode-web", PidPath: "/tmp/vscode-web.pid", LogPath: "/tmp/vscode-web.log"},
		ParseEntry("/tmp/vscode-web.pid"))
	assert.Equal(t, Entry{Name: "ide", PidPath: "/run/x.pid", LogPath: "/var/log/x.log"},
		ParseEntry("ide=/run/x.pid:/var/log/x.log"))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	alivePid := filepath.Join(dir, "alive.pid")
	deadPid := filepath.Join(dir, "dead.pid")
	badPid := filepath.Join(dir, "bad.pid")
	require.NoError(t, os.WriteFile(alivePid, []byte("100"), 0o644))
	require.NoError(t, os.WriteFile(deadPid, []byte("200"), 0o644))
	require.NoError(t, os.WriteFile(badPid, []byte("x"), 0o644))

	s := NewPidFileStore([]Entry{
		ParseEntry(alivePid),
		ParseEntry(deadPid),
		ParseEntry(badPid),
		ParseEntry(filepath.Join(dir, "missing.pid")),
	}, readPid, func(pid int) bool { return pid == 100 })

	recs, err := s.List()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "alive", recs[0].Name)
	assert.True(t, recs[0].Alive)
	assert.Equal(t, 200, recs[1].PID)
	assert.False(t, recs[1].Alive)
	assert.Zero(t, recs[2].PID)
}

func TestRemoveStale(t *testing.T) {
	dir := t.TempDir()
	alivePid := filepath.Join(dir, "alive.pid")
	deadPid := filepath.Join(dir, "dead.pid")
	require.NoError(t, os.WriteFile(alivePid, []byte("100"), 0o644))
	require.NoError(t, os.WriteFile(deadPid, []byte("200"), 0o644))

	s := NewPidFileStore([]Entry{ParseEntry(alivePid), ParseEntry(deadPid)}, readPid,
		func(pid int) bool { return pid == 100 })
	n, err := s.RemoveStale()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, alivePid)
	assert.NoFileExists(t, deadPid)
}
