package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devboot/internal/domain"
	"devboot/internal/logfields"
)

// InstallPlan describes how to install one kind of item with one binary.
type InstallPlan struct {
	Binary string
	// Noun is used in progress lines, e.g. "extension" or "plugin".
	Noun string
	Args func(name string) []string
}

// VSCodeInstallArgs builds `--install-extension NAME [--extensions-dir D]`,
// understood by both the VS Code CLI and code-server.
func VSCodeInstallArgs(extensionsDir string) func(string) []string {
	return func(name string) []string {
		args := []string{"--install-extension", name}
		if extensionsDir != "" {
			args = append(args, "--extensions-dir", extensionsDir)
		}
		return args
	}
}

// RemoteDevInstallArgs builds `installPlugins PROJECT NAME` for the JetBrains
// remote development backend.
func RemoteDevInstallArgs(project string) func(string) []string {
	return func(name string) []string {
		return []string{"installPlugins", project, name}
	}
}

// ExtensionInstaller installs items one at a time. A failed item never stops
// the items after it.
type ExtensionInstaller struct {
	runner   domain.ExtensionRunner
	reporter domain.Reporter
	logger   domain.Logger
	timeout  time.Duration
}

// NewExtensionInstaller creates an installer with a per-item timeout.
func NewExtensionInstaller(runner domain.ExtensionRunner, rp domain.Reporter, lg domain.Logger, timeout time.Duration) *ExtensionInstaller {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ExtensionInstaller{runner: runner, reporter: rp, logger: lg, timeout: timeout}
}

// InstallAll returns one result per name, in input order.
func (i *ExtensionInstaller) InstallAll(ctx context.Context, plan InstallPlan, names []string) []domain.InstallResult {
	noun := plan.Noun
	if noun == "" {
		noun = "extension"
	}
	if len(names) == 0 {
		i.reporter.Printf("No %ss to install", noun)
		return []domain.InstallResult{}
	}

	results := make([]domain.InstallResult, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			results = append(results, domain.InstallResult{Name: name, Cause: err})
			i.reporter.Printf("Failed to install %s %s: %v", noun, name, err)
			continue
		}
		i.reporter.Printf("Installing %s %s", noun, name)
		res := i.installOne(ctx, plan, name)
		if res.OK() {
			i.reporter.Printf("Installed %s %s", noun, name)
		} else {
			i.reporter.Printf("Failed to install %s %s: %v", noun, name, res.Cause)
			i.logger.Error("install failed", logfields.Extension(name), logfields.Error(res.Cause))
		}
		results = append(results, res)
	}
	return results
}

func (i *ExtensionInstaller) installOne(ctx context.Context, plan InstallPlan, name string) domain.InstallResult {
	ictx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()
	out, err := i.runner.Run(ictx, plan.Binary, plan.Args(name))
	i.logger.Info("install finished", logfields.Extension(name), logfields.DurationMS(time.Since(start).Milliseconds()))
	if err == nil {
		return domain.InstallResult{Name: name}
	}
	if errors.Is(ictx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", i.timeout, err)
	}
	if tail := lastLine(out); tail != "" {
		err = fmt.Errorf("%w (%s)", err, tail)
	}
	return domain.InstallResult{Name: name, Cause: err}
}

func lastLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		s = strings.TrimSpace(s[idx+1:])
	}
	return s
}

// Failures counts the failed results.
func Failures(results []domain.InstallResult) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
