package domain

import (
	"fmt"
	"time"
)

// TelemetryLevel controls what the server reports upstream.
type TelemetryLevel string

const (
	TelemetryDefault TelemetryLevel = "default"
	TelemetryOff     TelemetryLevel = "off"
	TelemetryCrash   TelemetryLevel = "crash"
	TelemetryError   TelemetryLevel = "error"
	TelemetryAll     TelemetryLevel = "all"
)

// Channel is the release train the CLI is downloaded from.
type Channel string

const (
	ChannelStable   Channel = "stable"
	ChannelInsiders Channel = "insiders"
)

// TokenMode selects how the web server authenticates connections.
type TokenMode string

const (
	TokenNone   TokenMode = "none"
	TokenRandom TokenMode = "random"
)

// Configuration is the resolved input of a provisioning run. It is built once
// by the config layer and passed by value; slice and settings accessors hand
// out copies so no component can mutate another's view.
type Configuration struct {
	AcceptLicense   bool
	UseCached       bool
	Offline         bool
	Folder          string
	Workspace       string
	Port            int
	Host            string
	TelemetryLevel  TelemetryLevel
	DisableTrust    bool
	ReleaseChannel  Channel
	CommitID        string
	InstallPrefix   string
	ExtensionsDir   string
	ServerBasePath  string
	ConnectionToken TokenMode
	LogPath         string
	PidPath         string
	SettingsPath    string
	MetricsPath     string
	DownloadTimeout time.Duration
	InstallTimeout  time.Duration

	extensions []string
	pluginIDs  []string
	settings   Settings
}

// WithExtensions returns a copy of c carrying names as the extension list.
func (c Configuration) WithExtensions(names []string) Configuration {
	c.extensions = append([]string(nil), names...)
	return c
}

// WithPluginIDs returns a copy of c carrying ids as the plugin list.
func (c Configuration) WithPluginIDs(ids []string) Configuration {
	c.pluginIDs = append([]string(nil), ids...)
	return c
}

// WithSettings returns a copy of c carrying s as the editor settings.
func (c Configuration) WithSettings(s Settings) Configuration {
	c.settings = s.clone()
	return c
}

// Extensions returns the ordered extension identifiers.
func (c Configuration) Extensions() []string { return append([]string(nil), c.extensions...) }

// PluginIDs returns the ordered IDE plugin identifiers.
func (c Configuration) PluginIDs() []string { return append([]string(nil), c.pluginIDs...) }

// Settings returns the editor settings.
func (c Configuration) Settings() Settings { return c.settings.clone() }

// Setting is a single settings entry; Value holds raw JSON.
type Setting struct {
	Key   string
	Value []byte
}

// Settings is an ordered set of editor settings. Order follows the input
// document so generated files are reproducible.
type Settings []Setting

func (s Settings) clone() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for i, e := range s {
		out[i] = Setting{Key: e.Key, Value: append([]byte(nil), e.Value...)}
	}
	return out
}

// StrategyKind tags the ExecutionStrategy variant.
type StrategyKind int

const (
	StrategyExisting StrategyKind = iota + 1
	StrategyCached
	StrategyDownloaded
	StrategyFallback
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyExisting:
		return "existing"
	case StrategyCached:
		return "cached"
	case StrategyDownloaded:
		return "downloaded"
	case StrategyFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// ExecutionStrategy is how the run obtains the server binary. Values are only
// produced by the constructors below and never change afterwards.
type ExecutionStrategy struct {
	kind    StrategyKind
	path    string
	version string
	channel Channel
}

// ExistingBinary uses a binary already on PATH.
func ExistingBinary(path string) ExecutionStrategy {
	return ExecutionStrategy{kind: StrategyExisting, path: path}
}

// CachedBinary uses a binary left under the install prefix by an earlier run.
func CachedBinary(path string) ExecutionStrategy {
	return ExecutionStrategy{kind: StrategyCached, path: path}
}

// DownloadedBinary uses a binary fetched during this run.
func DownloadedBinary(path, version string, channel Channel) ExecutionStrategy {
	return ExecutionStrategy{kind: StrategyDownloaded, path: path, version: version, channel: channel}
}

// FallbackServer uses the alternate code-server binary.
func FallbackServer(path string) ExecutionStrategy {
	return ExecutionStrategy{kind: StrategyFallback, path: path}
}

func (s ExecutionStrategy) Kind() StrategyKind { return s.kind }
func (s ExecutionStrategy) Path() string       { return s.path }
func (s ExecutionStrategy) Version() string    { return s.version }
func (s ExecutionStrategy) Channel() Channel   { return s.channel }

// IsZero reports whether no strategy has been chosen.
func (s ExecutionStrategy) IsZero() bool { return s.kind == 0 }

func (s ExecutionStrategy) String() string {
	if s.kind == StrategyDownloaded {
		return fmt.Sprintf("%s(%s, %s@%s)", s.kind, s.path, s.channel, s.version)
	}
	return fmt.Sprintf("%s(%s)", s.kind, s.path)
}

// WriteOutcome reports what ProvisionSettings did.
type WriteOutcome int

const (
	Created WriteOutcome = iota + 1
	SkippedExisting
)

func (o WriteOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case SkippedExisting:
		return "skipped_existing"
	default:
		return "unknown"
	}
}

// ManifestOutcome reports what ProvisionManifest did.
type ManifestOutcome int

const (
	Written ManifestOutcome = iota + 1
	SkippedMissingDir
	NothingToDo
)

func (o ManifestOutcome) String() string {
	switch o {
	case Written:
		return "written"
	case SkippedMissingDir:
		return "skipped_missing_dir"
	case NothingToDo:
		return "nothing_to_do"
	default:
		return "unknown"
	}
}

// InstallResult records one extension or plugin install attempt.
type InstallResult struct {
	Name  string
	Cause error
}

// OK reports whether the install succeeded.
func (r InstallResult) OK() bool { return r.Cause == nil }

// Stage is a step of the provisioning state machine.
type Stage string

const (
	StageValidating   Stage = "validating"
	StageResolving    Stage = "resolving"
	StageProvisioning Stage = "provisioning"
	StageInstalling   Stage = "installing"
	StageLaunching    Stage = "launching"
	StageStarted      Stage = "started"
)

// Command describes a process for the supervisor to start.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// ProcessHandle describes a launched, detached process.
type ProcessHandle struct {
	PID     int
	LogPath string
	PidPath string
	// Exited is closed once the child has been reaped. It only fires while
	// the launching process is still alive.
	Exited <-chan struct{}
}

// PidRecord is a pid file discovered on disk, used by status reporting.
type PidRecord struct {
	Name    string
	PidPath string
	LogPath string
	PID     int
	Alive   bool
}
