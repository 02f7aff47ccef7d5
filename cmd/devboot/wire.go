package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"devboot/internal/adapter/artifacts"
	"devboot/internal/adapter/commit"
	"devboot/internal/adapter/console"
	"devboot/internal/adapter/downloader"
	"devboot/internal/adapter/extractor"
	"devboot/internal/adapter/host"
	"devboot/internal/adapter/logger"
	"devboot/internal/adapter/platform"
	"devboot/internal/adapter/runner"
	"devboot/internal/adapter/server"
	"devboot/internal/adapter/token"
	"devboot/internal/app"
	"devboot/internal/config"
	"devboot/internal/domain"
	derrors "devboot/internal/errors"
	"devboot/internal/metrics"
)

// loadValues layers defaults, the YAML file, the .env file, DEVBOOT_*
// variables and finally the flags the user set.
func loadValues(module config.Module, home string, opts *globalOptions, flags *configFlags) (domain.Configuration, error) {
	v := config.Defaults(module, home)
	if opts.configPath != "" {
		f, err := config.LoadFile(opts.configPath)
		if err != nil {
			return domain.Configuration{}, configError(err)
		}
		if err := v.ApplyFile(f); err != nil {
			return domain.Configuration{}, configError(err)
		}
	}
	if opts.envFile != "" {
		if err := config.LoadEnvFile(opts.envFile); err != nil {
			return domain.Configuration{}, configError(err)
		}
	}
	if err := v.ApplyEnv(os.LookupEnv); err != nil {
		return domain.Configuration{}, configError(err)
	}
	if flags != nil {
		flags.apply(&v)
	}
	cfg, err := v.Build()
	if err != nil {
		return domain.Configuration{}, configError(err)
	}
	return cfg, nil
}

func configError(err error) error {
	if _, ok := derrors.As(err); ok {
		return err
	}
	return derrors.Wrap(err, derrors.KindInvalidValue, "load configuration").At(domain.StageValidating).Build()
}

// commitLookup detects the architecture only when a lookup is needed, so an
// unsupported machine can still run with an explicit hash.
type commitLookup struct {
	arch    app.ArchDetector
	channel domain.Channel
}

func (c commitLookup) Resolve(ctx context.Context, input string) (string, error) {
	arch, err := c.arch.DetectArch()
	if err != nil {
		return "", err
	}
	return commit.NewResolver(arch, c.channel).Resolve(ctx, input)
}

// environment is everything a command needs besides its configuration.
type environment struct {
	plat     *platform.Platform
	logger   domain.Logger
	reporter *console.Reporter
	recorder domain.Recorder
	// flush writes the metrics textfile when one was requested.
	flush func()
}

func newEnvironment(opts *globalOptions, stdout, stderr io.Writer) (*environment, error) {
	plat, err := platform.New()
	if err != nil {
		return nil, err
	}
	return &environment{
		plat:     plat,
		logger:   logger.New(stderr, opts.verbose),
		reporter: console.NewReporter(stdout),
		recorder: metrics.NoopRecorder{},
		flush:    func() {},
	}, nil
}

// withMetrics switches the environment to a Prometheus recorder flushed to
// path.
func (e *environment) withMetrics(path string) {
	if path == "" {
		return
	}
	rec := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	e.recorder = rec
	e.flush = func() {
		if err := rec.WriteTextfile(path); err != nil {
			e.logger.Error("write metrics failed", "path", path, "error", err)
		}
	}
}

func (e *environment) service(cfg domain.Configuration) *app.Service {
	hostState := host.New("", 0, e.logger)
	dl := downloader.NewHTTPDownloader(filepath.Join(cfg.InstallPrefix, "downloads"), e.logger)
	ex := extractor.NewTarExtractor(e.logger)

	return app.NewService(app.Deps{
		Resolver:   app.NewStrategyResolver(hostState, dl, ex, e.plat, e.reporter, e.logger),
		Commits:    commitLookup{arch: e.plat, channel: cfg.ReleaseChannel},
		Artifacts:  artifacts.NewProvisioner(e.logger),
		Installer:  app.NewExtensionInstaller(runner.NewExecRunner(), e.reporter, e.logger, cfg.InstallTimeout),
		Launcher:   server.NewProcessLauncher(e.logger),
		Tokens:     token.NewRandomGenerator(),
		WriteToken: token.WriteFile,
		Executable: e.plat.Executable,
		Reporter:   e.reporter,
		Logger:     e.logger,
		Recorder:   e.recorder,
	})
}
