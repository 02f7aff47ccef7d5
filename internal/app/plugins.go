package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"devboot/internal/adapter/host"
	"devboot/internal/domain"
	"devboot/internal/logfields"
)

const remoteDevScript = "remote-dev-server.sh"

// PluginInstaller is the detached worker started by JetBrainsPlugins. It waits
// for an IDE backend to be unpacked and installs every plugin into each one
// found. Individual install failures are reported but do not fail the run.
func (s *Service) PluginInstaller(ctx context.Context, opts PluginInstallOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Wait <= 0 {
		opts.Wait = 30 * time.Minute
	}
	lg := scoped(s.logger, logfields.Module("plugin-installer"))

	s.reporter.Printf("Waiting for a JetBrains IDE backend (up to %s)", opts.Wait)
	scripts, err := waitForBackends(ctx, opts, lg)
	if err != nil {
		return err
	}

	total, failed := 0, 0
	for _, script := range scripts {
		s.reporter.Printf("Installing plugins with %s", script)
		results := s.installer.InstallAll(ctx, InstallPlan{
			Binary: script,
			Noun:   "plugin",
			Args:   RemoteDevInstallArgs(opts.Project),
		}, opts.PluginIDs)
		for _, res := range results {
			s.recorder.RecordInstall("plugin-installer", res.OK())
		}
		total += len(results)
		failed += Failures(results)
	}
	s.reporter.Printf("Plugin installation finished: %d installed, %d failed", total-failed, failed)
	return nil
}

func waitForBackends(ctx context.Context, opts PluginInstallOptions, lg domain.Logger) ([]string, error) {
	deadline := time.NewTimer(opts.Wait)
	defer deadline.Stop()
	tick := time.NewTicker(opts.Interval)
	defer tick.Stop()

	for {
		if scripts := FindRemoteDevServers(opts.Roots); len(scripts) > 0 {
			return scripts, nil
		}
		lg.Info("no IDE backend yet", "roots", opts.Roots)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("no JetBrains IDE backend appeared within %s", opts.Wait)
		case <-tick.C:
		}
	}
}

// FindRemoteDevServers lists executable backend launchers under roots, in
// lexical order.
func FindRemoteDevServers(roots []string) []string {
	var found []string
	for _, root := range roots {
		matches, err := filepath.Glob(filepath.Join(root, "*", "bin", remoteDevScript))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if host.IsExecutable(m) {
				found = append(found, m)
			}
		}
	}
	return found
}
