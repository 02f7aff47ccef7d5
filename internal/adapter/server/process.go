package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"devboot/internal/adapter/host"
	"devboot/internal/domain"
	derrors "devboot/internal/errors"
	"devboot/internal/logfields"
)

// ProcessLauncher starts detached background processes.
type ProcessLauncher struct {
	logger domain.Logger
}

// NewProcessLauncher creates a launcher.
func NewProcessLauncher(logger domain.Logger) *ProcessLauncher {
	return &ProcessLauncher{logger: logger}
}

// Launch starts cmd in its own session with stdout and stderr appended to a
// truncated logPath and stdin from /dev/null. The pid is on disk at pidPath
// before Launch returns; if it cannot be written the child is killed. The
// child is not tied to ctx and keeps running after the caller exits.
func (l *ProcessLauncher) Launch(ctx context.Context, cmd domain.Command, logPath, pidPath string) (domain.ProcessHandle, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProcessHandle{}, derrors.Launch(derrors.KindStartFailed, "launch cancelled", err)
	}
	if !host.IsExecutable(cmd.Path) {
		return domain.ProcessHandle{}, derrors.New(derrors.KindNotExecutable, fmt.Sprintf("%s is not an executable file", cmd.Path)).
			At(domain.StageLaunching).With("path", cmd.Path).Build()
	}
	if cmd.Dir != "" {
		if info, err := os.Stat(cmd.Dir); err != nil || !info.IsDir() {
			return domain.ProcessHandle{}, derrors.New(derrors.KindMissingDir, fmt.Sprintf("working directory %s does not exist", cmd.Dir)).
				At(domain.StageLaunching).With("path", cmd.Dir).Build()
		}
	}

	for _, p := range []string{logPath, pidPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return domain.ProcessHandle{}, derrors.Launch(derrors.KindStartFailed, "create directory for "+p, err)
		}
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return domain.ProcessHandle{}, derrors.Launch(derrors.KindStartFailed, "open log file", err)
	}
	defer logFile.Close()

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return domain.ProcessHandle{}, derrors.Launch(derrors.KindStartFailed, "open "+os.DevNull, err)
	}
	defer devNull.Close()

	// exec.Command rather than CommandContext: cancelling the run must not
	// kill a server that already started.
	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdin = devNull
	c.Stdout = logFile
	c.Stderr = logFile
	c.SysProcAttr = sysProcAttr()

	if err := c.Start(); err != nil {
		return domain.ProcessHandle{}, derrors.Launch(derrors.KindStartFailed, "start "+filepath.Base(cmd.Path), err)
	}
	pid := c.Process.Pid

	// Reap the child while we live so it never lingers as a zombie.
	exited := make(chan struct{})
	go func() {
		_ = c.Wait()
		close(exited)
	}()

	if err := WritePidFile(pidPath, pid); err != nil {
		_ = c.Process.Kill()
		<-exited
		return domain.ProcessHandle{}, derrors.Launch(derrors.KindStartFailed, "record pid", err)
	}

	l.logger.Info("process started", logfields.PID(pid), logfields.Path(cmd.Path), "log", logPath)
	return domain.ProcessHandle{PID: pid, LogPath: logPath, PidPath: pidPath, Exited: exited}, nil
}

// WritePidFile atomically writes pid as decimal text to path.
func WritePidFile(path string, pid int) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pid-*")
	if err != nil {
		return fmt.Errorf("create temp pid file: %w", err)
	}
	tmpPath := tmp.Name()
	_, werr := tmp.WriteString(strconv.Itoa(pid))
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmpPath, 0o644)
	}
	if werr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write pid file: %w", werr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename pid file: %w", err)
	}
	return nil
}

// ReadPidFile parses the pid stored at path.
func ReadPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s is malformed", path)
	}
	return pid, nil
}

// IsAlive reports whether a process with pid exists. A permission error still
// means the process is there.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
