package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"devboot/internal/config"
	"devboot/internal/domain"
	derrors "devboot/internal/errors"
	"devboot/internal/logfields"
	"devboot/internal/metrics"
)

// TokenFileName is written under the install prefix when a random connection
// token is requested.
const TokenFileName = "connection-token"

// Deps are the ports a Service is built from.
type Deps struct {
	Resolver   *StrategyResolver
	Commits    domain.CommitResolver
	Artifacts  domain.ArtifactProvisioner
	Installer  *ExtensionInstaller
	Launcher   domain.Launcher
	Tokens     domain.TokenGenerator
	WriteToken func(path, token string) error
	// Executable returns the path of this binary for the background
	// plugin installer.
	Executable func() (string, error)
	Reporter   domain.Reporter
	Logger     domain.Logger
	Recorder   domain.Recorder
}

// Service orchestrates the provisioning flows.
type Service struct {
	resolver   *StrategyResolver
	commits    domain.CommitResolver
	artifacts  domain.ArtifactProvisioner
	installer  *ExtensionInstaller
	launcher   domain.Launcher
	tokens     domain.TokenGenerator
	writeToken func(path, token string) error
	executable func() (string, error)
	reporter   domain.Reporter
	logger     domain.Logger
	recorder   domain.Recorder
}

// NewService creates the application service with all dependencies injected.
func NewService(d Deps) *Service {
	s := &Service{
		resolver:   d.Resolver,
		commits:    d.Commits,
		artifacts:  d.Artifacts,
		installer:  d.Installer,
		launcher:   d.Launcher,
		tokens:     d.Tokens,
		writeToken: d.WriteToken,
		executable: d.Executable,
		reporter:   d.Reporter,
		logger:     d.Logger,
		recorder:   d.Recorder,
	}
	if s.recorder == nil {
		s.recorder = metrics.NoopRecorder{}
	}
	return s
}

// VSCodeWeb provisions and starts the browser IDE server:
// validate, resolve a binary, write settings, install extensions, launch.
func (s *Service) VSCodeWeb(ctx context.Context, cfg domain.Configuration) error {
	r := s.begin(string(config.ModuleVSCodeWeb))

	r.enter(domain.StageValidating)
	if err := config.Validate(cfg); err != nil {
		return r.fail(err)
	}

	r.enter(domain.StageResolving)
	strategy, err := s.resolver.Resolve(ctx, cfg)
	if err != nil {
		return r.fail(err)
	}
	r.recorder.RecordStrategy(r.module, strategy.Kind())

	commitID := cfg.CommitID
	if strategy.Kind() != domain.StrategyFallback && config.NeedsCommitLookup(commitID) {
		resolved, err := s.commits.Resolve(ctx, commitID)
		if err != nil {
			return r.fail(derrors.Resolution(derrors.KindDownloadFailed, fmt.Sprintf("resolve commit id %q", commitID), err))
		}
		r.logger.Info("commit resolved", "input", commitID, "commit", resolved)
		commitID = resolved
	}
	if err := r.checkpoint(ctx); err != nil {
		return err
	}

	r.enter(domain.StageProvisioning)
	outcome, err := s.artifacts.ProvisionSettings(cfg.SettingsPath, cfg.Settings())
	if err != nil {
		return r.fail(err)
	}
	r.logger.Info("settings provisioned", logfields.Path(cfg.SettingsPath), logfields.Outcome(outcome.String()))
	switch outcome {
	case domain.Created:
		s.reporter.Printf("Created settings file at %s", cfg.SettingsPath)
	case domain.SkippedExisting:
		s.reporter.Printf("Settings file already exists at %s, leaving it unchanged", cfg.SettingsPath)
	}

	var token string
	if cfg.ConnectionToken == domain.TokenRandom {
		if token, err = s.tokens.Generate(); err != nil {
			return r.fail(err)
		}
		if err := s.writeToken(tokenPath(cfg), token); err != nil {
			return r.fail(derrors.IO("write connection token", err))
		}
	}
	if err := r.checkpoint(ctx); err != nil {
		return err
	}

	r.enter(domain.StageInstalling)
	results := s.installer.InstallAll(ctx, InstallPlan{
		Binary: strategy.Path(),
		Noun:   "extension",
		Args:   VSCodeInstallArgs(cfg.ExtensionsDir),
	}, cfg.Extensions())
	s.recordInstalls(r, results)
	if err := r.checkpoint(ctx); err != nil {
		return err
	}

	r.enter(domain.StageLaunching)
	var cmd domain.Command
	if strategy.Kind() == domain.StrategyFallback {
		cmd = codeServerCommand(strategy.Path(), cfg, token)
		s.reporter.Printf("Starting code-server on port %d", cfg.Port)
	} else {
		cmd = serveWebCommand(strategy.Path(), cfg, commitID)
		s.reporter.Printf("Starting VS Code Web on port %d", cfg.Port)
	}
	handle, err := s.launcher.Launch(ctx, cmd, cfg.LogPath, cfg.PidPath)
	if err != nil {
		return r.fail(err)
	}
	s.reporter.Printf("Server started (pid %d), logging to %s", handle.PID, handle.LogPath)
	r.logger.Info("server launched", logfields.PID(handle.PID), logfields.Strategy(strategy.Kind().String()))

	r.succeed()
	return nil
}

func tokenPath(cfg domain.Configuration) string {
	return filepath.Join(cfg.InstallPrefix, TokenFileName)
}

// serveWebCommand builds the VS Code CLI invocation.
func serveWebCommand(bin string, cfg domain.Configuration, commitID string) domain.Command {
	args := []string{
		"serve-web",
		"--port", strconv.Itoa(cfg.Port),
		"--host", cfg.Host,
		"--accept-server-license-terms",
	}
	if cfg.ConnectionToken == domain.TokenRandom {
		args = append(args, "--connection-token-file", tokenPath(cfg))
	} else {
		args = append(args, "--without-connection-token")
	}
	if cfg.TelemetryLevel != domain.TelemetryDefault && cfg.TelemetryLevel != "" {
		args = append(args, "--telemetry-level", string(cfg.TelemetryLevel))
	}
	if cfg.DisableTrust {
		args = append(args, "--disable-workspace-trust")
	}
	if cfg.ExtensionsDir != "" {
		args = append(args, "--extensions-dir", cfg.ExtensionsDir)
	}
	if cfg.ServerBasePath != "" {
		args = append(args, "--server-base-path", cfg.ServerBasePath)
	}
	if commitID != "" {
		args = append(args, "--commit-id", commitID)
	}
	return domain.Command{Path: bin, Args: args}
}

// codeServerCommand builds the offline fallback invocation.
func codeServerCommand(bin string, cfg domain.Configuration, token string) domain.Command {
	args := []string{"--bind-addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)}
	var env []string
	if token != "" {
		args = append(args, "--auth", "password")
		env = append(env, "PASSWORD="+token)
	} else {
		args = append(args, "--auth", "none")
	}
	if cfg.TelemetryLevel == domain.TelemetryOff {
		args = append(args, "--disable-telemetry")
	}
	if cfg.DisableTrust {
		args = append(args, "--disable-workspace-trust")
	}
	if cfg.ExtensionsDir != "" {
		args = append(args, "--extensions-dir", cfg.ExtensionsDir)
	}
	switch {
	case cfg.Workspace != "":
		args = append(args, cfg.Workspace)
	case cfg.Folder != "":
		args = append(args, cfg.Folder)
	}
	return domain.Command{Path: bin, Args: args, Env: env}
}

func (s *Service) recordInstalls(r *run, results []domain.InstallResult) {
	for _, res := range results {
		r.recorder.RecordInstall(r.module, res.OK())
	}
	if failed := Failures(results); failed > 0 {
		s.reporter.Printf("%d of %d installs failed, continuing", failed, len(results))
		r.logger.Error("installs failed", "failed", failed, "total", len(results))
	}
}

// JetBrainsPlugins writes the IDE plugin manifest and hands the actual plugin
// installation to a detached copy of this binary, because the IDE backend
// usually appears only after the workspace agent has finished booting.
func (s *Service) JetBrainsPlugins(ctx context.Context, cfg domain.Configuration) error {
	r := s.begin(string(config.ModuleJetBrainsPlugins))
	s.reporter.Printf("Setting up JetBrains plugins")

	ids := cfg.PluginIDs()
	if len(ids) == 0 {
		s.reporter.Printf("No plugins specified, nothing to do")
		r.recorder.RecordOutcome(r.module, metrics.OutcomeSuccess)
		return nil
	}

	r.enter(domain.StageValidating)
	if err := config.ValidatePlugins(cfg); err != nil {
		return r.fail(err)
	}

	r.enter(domain.StageResolving)
	self, err := s.executable()
	if err != nil {
		return r.fail(derrors.Launch(derrors.KindNotExecutable, "locate own executable", err))
	}
	strategy := domain.ExistingBinary(self)
	r.recorder.RecordStrategy(r.module, strategy.Kind())

	r.enter(domain.StageProvisioning)
	manifest := ManifestPath(cfg.Folder)
	outcome, err := s.artifacts.ProvisionManifest(manifest, ids)
	if err != nil {
		return r.fail(err)
	}
	r.logger.Info("manifest provisioned", logfields.Path(manifest), logfields.Outcome(outcome.String()))
	switch outcome {
	case domain.Written:
		s.reporter.Printf("Wrote %s", manifest)
	case domain.SkippedMissingDir:
		s.reporter.Printf("Project directory %s does not exist yet, skipping externalDependencies.xml", cfg.Folder)
	}
	if err := r.checkpoint(ctx); err != nil {
		return err
	}

	r.enter(domain.StageLaunching)
	cmd := pluginInstallerCommand(strategy.Path(), cfg, ids)
	handle, err := s.launcher.Launch(ctx, cmd, cfg.LogPath, cfg.PidPath)
	if err != nil {
		return r.fail(err)
	}
	s.reporter.Printf("Background installer running (pid %d), logging to %s", handle.PID, handle.LogPath)
	s.reporter.Printf("JetBrains plugin setup complete")

	r.succeed()
	return nil
}

// ManifestPath is the IDE's external dependency list for a project folder.
func ManifestPath(folder string) string {
	return filepath.Join(folder, ".idea", "externalDependencies.xml")
}

// PluginInstallerCommand is the hidden subcommand the background installer
// runs as.
const PluginInstallerCommand = "plugin-installer"

func pluginInstallerCommand(self string, cfg domain.Configuration, ids []string) domain.Command {
	args := []string{
		PluginInstallerCommand,
		"--folder", cfg.Folder,
		"--install-timeout", cfg.InstallTimeout.String(),
	}
	for _, id := range ids {
		args = append(args, "--plugin", id)
	}
	return domain.Command{Path: self, Args: args}
}

// PluginInstallOptions configure the background plugin installer.
type PluginInstallOptions struct {
	Project   string
	PluginIDs []string
	// Roots are searched for */bin/remote-dev-server.sh.
	Roots    []string
	Interval time.Duration
	Wait     time.Duration
}
