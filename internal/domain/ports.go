package domain

import (
	"context"
	"time"
)

// HostState answers questions about the workspace host. Every query is cheap
// except NetworkReachable, which callers only ask when nothing local fits.
type HostState interface {
	LookPath(name string) (string, bool)
	IsExecutable(path string) bool
	NetworkReachable(ctx context.Context) bool
}

// Downloader fetches the CLI archive for a channel and architecture and
// returns the path of the downloaded archive.
type Downloader interface {
	Download(ctx context.Context, channel Channel, arch string) (archivePath string, err error)
}

// Extractor unpacks the named binary from an archive into destPath.
type Extractor interface {
	ExtractBinary(archivePath, binaryName, destPath string) error
}

// CommitResolver turns a version or "latest" into a full commit hash.
type CommitResolver interface {
	Resolve(ctx context.Context, input string) (string, error)
}

// ExtensionRunner runs a single install command and returns its combined
// output.
type ExtensionRunner interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Launcher starts a detached process with its output redirected to logPath
// and its pid recorded at pidPath.
type Launcher interface {
	Launch(ctx context.Context, cmd Command, logPath, pidPath string) (ProcessHandle, error)
}

// TokenGenerator creates cryptographically secure connection tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// Reporter prints the human-readable milestone lines that log scrapers and
// tests key on.
type Reporter interface {
	Printf(format string, args ...any)
}

// Logger provides structured logging.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Recorder collects run metrics.
type Recorder interface {
	ObserveStage(module string, stage Stage, d time.Duration)
	RecordStrategy(module string, kind StrategyKind)
	RecordInstall(module string, ok bool)
	RecordOutcome(module string, result string)
}

// ArtifactProvisioner writes the on-disk files a workspace needs before the
// server starts.
type ArtifactProvisioner interface {
	ProvisionSettings(path string, settings Settings) (WriteOutcome, error)
	ProvisionManifest(path string, ids []string) (ManifestOutcome, error)
}
