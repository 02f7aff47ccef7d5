package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"devboot/internal/domain"
	derrors "devboot/internal/errors"
	"devboot/internal/logfields"
)

const (
	cliBinary        = "code"
	fallbackBinary   = "code-server"
	noOfflineMessage = "Offline mode enabled but no VS Code CLI, code-server, or cached VS Code Server found"
)

// ArchDetector reports the architecture string used in download URLs.
type ArchDetector interface {
	DetectArch() (string, error)
}

// CachedBinaryPath is where a downloaded CLI is kept under the install prefix.
func CachedBinaryPath(prefix string) string {
	return filepath.Join(prefix, "bin", cliBinary)
}

// StrategyResolver decides how a run obtains its server binary.
type StrategyResolver struct {
	host       domain.HostState
	downloader domain.Downloader
	extractor  domain.Extractor
	arch       ArchDetector
	reporter   domain.Reporter
	logger     domain.Logger
}

// NewStrategyResolver wires a resolver from its ports.
func NewStrategyResolver(
	host domain.HostState,
	dl domain.Downloader,
	ex domain.Extractor,
	arch ArchDetector,
	rp domain.Reporter,
	lg domain.Logger,
) *StrategyResolver {
	return &StrategyResolver{host: host, downloader: dl, extractor: ex, arch: arch, reporter: rp, logger: lg}
}

// candidate yields a strategy, reports not applicable with ok=false, or stops
// the search with an error.
type candidate struct {
	name string
	try  func(ctx context.Context) (s domain.ExecutionStrategy, ok bool, err error)
}

// Resolve walks the candidates for the run's mode in order and returns the
// first that applies. Cached and offline modes never touch the network.
func (r *StrategyResolver) Resolve(ctx context.Context, cfg domain.Configuration) (domain.ExecutionStrategy, error) {
	var (
		candidates []candidate
		exhausted  error
	)
	cached := CachedBinaryPath(cfg.InstallPrefix)

	switch {
	case cfg.Offline:
		candidates = []candidate{r.onPath(cliBinary, domain.ExistingBinary), r.cached(cached), r.onPath(fallbackBinary, domain.FallbackServer)}
		exhausted = derrors.Resolution(derrors.KindNoOfflineCandidate, noOfflineMessage, nil)
	case cfg.UseCached:
		candidates = []candidate{r.cached(cached)}
		exhausted = derrors.New(derrors.KindCacheMiss, fmt.Sprintf("Cached VS Code CLI not found at %s", cached)).
			At(domain.StageResolving).With("path", cached).Build()
	default:
		candidates = []candidate{r.onPath(cliBinary, domain.ExistingBinary), r.download(cfg)}
		exhausted = derrors.Resolution(derrors.KindDownloadFailed, "no VS Code CLI available", nil)
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return domain.ExecutionStrategy{}, err
		}
		s, ok, err := c.try(ctx)
		if err != nil {
			return domain.ExecutionStrategy{}, err
		}
		if !ok {
			r.logger.Info("strategy candidate not applicable", "candidate", c.name)
			continue
		}
		r.announce(s)
		r.logger.Info("strategy resolved", logfields.Strategy(s.Kind().String()), logfields.Path(s.Path()))
		return s, nil
	}
	return domain.ExecutionStrategy{}, exhausted
}

func (r *StrategyResolver) announce(s domain.ExecutionStrategy) {
	switch s.Kind() {
	case domain.StrategyExisting:
		r.reporter.Printf("Found VS Code CLI at %s", s.Path())
	case domain.StrategyCached:
		r.reporter.Printf("Using cached VS Code CLI at %s", s.Path())
	case domain.StrategyDownloaded:
		r.reporter.Printf("Downloaded VS Code CLI (%s) to %s", s.Channel(), s.Path())
	case domain.StrategyFallback:
		r.reporter.Printf("Using code-server at %s as offline fallback", s.Path())
	}
}

func (r *StrategyResolver) onPath(name string, build func(string) domain.ExecutionStrategy) candidate {
	return candidate{name: "path:" + name, try: func(context.Context) (domain.ExecutionStrategy, bool, error) {
		p, ok := r.host.LookPath(name)
		if !ok || !r.host.IsExecutable(p) {
			return domain.ExecutionStrategy{}, false, nil
		}
		return build(p), true, nil
	}}
}

func (r *StrategyResolver) cached(path string) candidate {
	return candidate{name: "cached", try: func(context.Context) (domain.ExecutionStrategy, bool, error) {
		if !r.host.IsExecutable(path) {
			return domain.ExecutionStrategy{}, false, nil
		}
		return domain.CachedBinary(path), true, nil
	}}
}

func (r *StrategyResolver) download(cfg domain.Configuration) candidate {
	return candidate{name: "download", try: func(ctx context.Context) (domain.ExecutionStrategy, bool, error) {
		if !r.host.NetworkReachable(ctx) {
			return domain.ExecutionStrategy{}, false, derrors.Resolution(derrors.KindDownloadFailed,
				"VS Code CLI not found on PATH and the download server is unreachable", nil)
		}
		arch, err := r.arch.DetectArch()
		if err != nil {
			return domain.ExecutionStrategy{}, false, derrors.Resolution(derrors.KindDownloadFailed, "detect architecture", err)
		}

		r.reporter.Printf("Downloading VS Code CLI (%s)...", cfg.ReleaseChannel)
		dctx, cancel := context.WithTimeout(ctx, cfg.DownloadTimeout)
		defer cancel()

		archive, err := r.downloader.Download(dctx, cfg.ReleaseChannel, arch)
		if err != nil {
			if errors.Is(dctx.Err(), context.DeadlineExceeded) {
				return domain.ExecutionStrategy{}, false, derrors.Wrap(err, derrors.KindDownloadTimeout,
					fmt.Sprintf("download of VS Code CLI timed out after %s", cfg.DownloadTimeout)).
					At(domain.StageResolving).Build()
			}
			return domain.ExecutionStrategy{}, false, derrors.Resolution(derrors.KindDownloadFailed, "download VS Code CLI", err)
		}
		defer os.Remove(archive)

		dest := CachedBinaryPath(cfg.InstallPrefix)
		if err := r.extractor.ExtractBinary(archive, cliBinary, dest); err != nil {
			return domain.ExecutionStrategy{}, false, derrors.Resolution(derrors.KindDownloadFailed, "extract VS Code CLI", err)
		}
		return domain.DownloadedBinary(dest, "latest", cfg.ReleaseChannel), true, nil
	}}
}
