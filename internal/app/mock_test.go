package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"devboot/internal/domain"
)

// mockHost answers HostState queries from maps and counts network probes.
type mockHost struct {
	onPath      map[string]string
	executables map[string]bool
	reachable   bool
	probes      int
}

func (m *mockHost) LookPath(name string) (string, bool) {
	p, ok := m.onPath[name]
	return p, ok
}

func (m *mockHost) IsExecutable(path string) bool { return m.executables[path] }

func (m *mockHost) NetworkReachable(context.Context) bool {
	m.probes++
	return m.reachable
}

// install marks path executable and, when name is set, puts it on PATH.
func (m *mockHost) install(name, path string) {
	if m.onPath == nil {
		m.onPath = map[string]string{}
	}
	if m.executables == nil {
		m.executables = map[string]bool{}
	}
	if name != "" {
		m.onPath[name] = path
	}
	m.executables[path] = true
}

// mockDownloader records calls and returns configured values.
type mockDownloader struct {
	downloadFn  func(ctx context.Context, ch domain.Channel, arch string) (string, error)
	calls       int
	lastChannel domain.Channel
	lastArch    string
}

func (m *mockDownloader) Download(ctx context.Context, ch domain.Channel, arch string) (string, error) {
	m.calls++
	m.lastChannel = ch
	m.lastArch = arch
	if m.downloadFn == nil {
		return "/tmp/cli.tar.gz", nil
	}
	return m.downloadFn(ctx, ch, arch)
}

// mockExtractor records calls and returns a configured error.
type mockExtractor struct {
	err      error
	calls    int
	lastDest string
}

func (m *mockExtractor) ExtractBinary(archive, binary, dest string) error {
	m.calls++
	m.lastDest = dest
	return m.err
}

type mockArch struct {
	arch string
	err  error
}

func (m mockArch) DetectArch() (string, error) { return m.arch, m.err }

// mockCommits resolves every input to a fixed hash.
type mockCommits struct {
	hash  string
	err   error
	calls int
}

func (m *mockCommits) Resolve(_ context.Context, input string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.hash, nil
}

// mockArtifacts records provisioning calls.
type mockArtifacts struct {
	settingsOutcome domain.WriteOutcome
	settingsErr     error
	manifestOutcome domain.ManifestOutcome
	manifestErr     error

	settingsCalls int
	settingsPath  string
	settings      domain.Settings
	manifestPath  string
	manifestIDs   []string
}

func (m *mockArtifacts) ProvisionSettings(path string, s domain.Settings) (domain.WriteOutcome, error) {
	m.settingsCalls++
	m.settingsPath = path
	m.settings = s
	if m.settingsOutcome == 0 {
		return domain.Created, m.settingsErr
	}
	return m.settingsOutcome, m.settingsErr
}

func (m *mockArtifacts) ProvisionManifest(path string, ids []string) (domain.ManifestOutcome, error) {
	m.manifestPath = path
	m.manifestIDs = ids
	if m.manifestOutcome == 0 {
		return domain.Written, m.manifestErr
	}
	return m.manifestOutcome, m.manifestErr
}

// mockRunner fails the names listed in fail and records every invocation.
type mockRunner struct {
	mu    sync.Mutex
	fail  map[string]error
	calls [][]string
}

func (m *mockRunner) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]string{binary}, args...))
	for name, err := range m.fail {
		for _, a := range args {
			if a == name {
				return []byte("error: " + name + " not found\n"), err
			}
		}
	}
	return []byte("ok\n"), nil
}

// mockLauncher records the Launch call and returns a configured error.
type mockLauncher struct {
	err     error
	pid     int
	calls   int
	lastCmd domain.Command
	lastLog string
	lastPid string
}

func (m *mockLauncher) Launch(_ context.Context, cmd domain.Command, logPath, pidPath string) (domain.ProcessHandle, error) {
	m.calls++
	m.lastCmd = cmd
	m.lastLog = logPath
	m.lastPid = pidPath
	if m.err != nil {
		return domain.ProcessHandle{}, m.err
	}
	pid := m.pid
	if pid == 0 {
		pid = 4242
	}
	return domain.ProcessHandle{PID: pid, LogPath: logPath, PidPath: pidPath}, nil
}

// mockTokenGen returns a fixed token.
type mockTokenGen struct {
	token string
	err   error
}

func (m *mockTokenGen) Generate() (string, error) {
	return m.token, m.err
}

// mockReporter captures milestone lines.
type mockReporter struct {
	mu    sync.Mutex
	lines []string
}

func (m *mockReporter) Printf(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, fmt.Sprintf(format, args...))
}

func (m *mockReporter) output() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.lines, "\n")
}

// mockLogger is a no-op logger that keeps messages.
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockLogger) Info(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockLogger) Error(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, "ERROR: "+msg)
}

// mockRecorder counts metric calls.
type mockRecorder struct {
	mu         sync.Mutex
	stages     []domain.Stage
	strategies []domain.StrategyKind
	installs   map[bool]int
	outcomes   []string
}

func (m *mockRecorder) ObserveStage(_ string, st domain.Stage, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, st)
}

func (m *mockRecorder) RecordStrategy(_ string, k domain.StrategyKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategies = append(m.strategies, k)
}

func (m *mockRecorder) RecordInstall(_ string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.installs == nil {
		m.installs = map[bool]int{}
	}
	m.installs[ok]++
}

func (m *mockRecorder) RecordOutcome(_ string, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, result)
}
