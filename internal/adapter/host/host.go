package host

import (
	"context"
	"net"
	"os"
	"os/exec"
	"time"

	"devboot/internal/domain"
)

// DefaultProbeAddr is dialed to decide whether downloads can work.
const DefaultProbeAddr = "update.code.visualstudio.com:443"

// State answers HostState queries against the real machine.
type State struct {
	probeAddr    string
	probeTimeout time.Duration
	dial         func(ctx context.Context, network, addr string) (net.Conn, error)
	logger       domain.Logger
}

// New creates a State probing addr for reachability. An empty addr uses
// DefaultProbeAddr.
func New(addr string, timeout time.Duration, logger domain.Logger) *State {
	if addr == "" {
		addr = DefaultProbeAddr
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := &net.Dialer{}
	return &State{probeAddr: addr, probeTimeout: timeout, dial: d.DialContext, logger: logger}
}

// LookPath searches PATH for an executable named name.
func (s *State) LookPath(name string) (string, bool) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return p, true
}

// IsExecutable reports whether path is a regular file with an exec bit set.
func (s *State) IsExecutable(path string) bool {
	return IsExecutable(path)
}

// NetworkReachable dials the probe address once.
func (s *State) NetworkReachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()
	conn, err := s.dial(ctx, "tcp", s.probeAddr)
	if err != nil {
		s.logger.Info("network probe failed", "addr", s.probeAddr, "err", err)
		return false
	}
	_ = conn.Close()
	return true
}

// IsExecutable reports whether path is a regular file with an exec bit set.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
