package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"devboot/internal/config"
	"devboot/internal/domain"
)

const testHash = "e54c774e0add60467559eb0d1e229c6452cf8447"

type fixture struct {
	host      *mockHost
	dl        *mockDownloader
	ex        *mockExtractor
	arch      mockArch
	commits   *mockCommits
	artifacts *mockArtifacts
	runner    *mockRunner
	launcher  *mockLauncher
	tokens    *mockTokenGen
	reporter  *mockReporter
	logger    *mockLogger
	recorder  *mockRecorder

	tokenFiles map[string]string
	self       string
	selfErr    error
}

func newFixture() *fixture {
	return &fixture{
		host:       &mockHost{reachable: true},
		dl:         &mockDownloader{},
		ex:         &mockExtractor{},
		arch:       mockArch{arch: "x64"},
		commits:    &mockCommits{hash: testHash},
		artifacts:  &mockArtifacts{},
		runner:     &mockRunner{},
		launcher:   &mockLauncher{},
		tokens:     &mockTokenGen{token: "test-token-123"},
		reporter:   &mockReporter{},
		logger:     &mockLogger{},
		recorder:   &mockRecorder{},
		tokenFiles: map[string]string{},
		self:       "/usr/local/bin/devboot",
	}
}

func (f *fixture) resolver() *StrategyResolver {
	return NewStrategyResolver(f.host, f.dl, f.ex, f.arch, f.reporter, f.logger)
}

func (f *fixture) service() *Service {
	return NewService(Deps{
		Resolver:  f.resolver(),
		Commits:   f.commits,
		Artifacts: f.artifacts,
		Installer: NewExtensionInstaller(f.runner, f.reporter, f.logger, time.Minute),
		Launcher:  f.launcher,
		Tokens:    f.tokens,
		WriteToken: func(path, token string) error {
			f.tokenFiles[path] = token
			return nil
		},
		Executable: func() (string, error) { return f.self, f.selfErr },
		Reporter:   f.reporter,
		Logger:     f.logger,
		Recorder:   f.recorder,
	})
}

// webConfig returns a valid vscode-web configuration after mutate.
func webConfig(t *testing.T, mutate func(v *config.Values)) domain.Configuration {
	t.Helper()
	v := config.Defaults(config.ModuleVSCodeWeb, "/home/coder")
	v.AcceptLicense = true
	if mutate != nil {
		mutate(&v)
	}
	cfg, err := v.Build()
	require.NoError(t, err)
	return cfg
}

func pluginConfig(t *testing.T, mutate func(v *config.Values)) domain.Configuration {
	t.Helper()
	v := config.Defaults(config.ModuleJetBrainsPlugins, "/home/coder")
	if mutate != nil {
		mutate(&v)
	}
	cfg, err := v.Build()
	require.NoError(t, err)
	return cfg
}
