package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Platform resolves architecture and home-relative paths.
type Platform struct {
	homeDir string
}

// New creates a Platform rooted at the current user's home directory.
func New() (*Platform, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Platform{homeDir: home}, nil
}

// NewWithHome creates a Platform rooted at home.
func NewWithHome(home string) *Platform {
	return &Platform{homeDir: home}
}

// HomeDir returns the home directory the platform was built with.
func (p *Platform) HomeDir() string {
	return p.homeDir
}

// DetectArch returns the Microsoft-style architecture string (x64, arm64).
func (p *Platform) DetectArch() (string, error) {
	return archFor(runtime.GOARCH)
}

func archFor(goarch string) (string, error) {
	switch goarch {
	case "amd64":
		return "x64", nil
	case "arm64":
		return "arm64", nil
	case "arm":
		return "armhf", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", goarch)
	}
}

// JetBrainsDistRoots returns the directories under which the JetBrains
// remote development backend unpacks IDE distributions.
func (p *Platform) JetBrainsDistRoots() []string {
	roots := []string{
		filepath.Join(p.homeDir, ".cache", "JetBrains", "RemoteDev", "dist"),
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		roots = append(roots, filepath.Join(xdg, "JetBrains", "RemoteDev", "dist"))
	}
	return roots
}

// Executable returns the absolute path of the running binary.
func (p *Platform) Executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
