package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyRunID     = "run_id"
	KeyModule    = "module"
	KeyStage     = "stage"
	KeyStrategy  = "strategy"
	KeyPath      = "path"
	KeyPID       = "pid"
	KeyExtension = "extension"
	KeyOutcome   = "outcome"
	KeyDuration  = "duration_ms"
	KeyError     = "error"
)

func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Module(name string) slog.Attr    { return slog.String(KeyModule, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Strategy(s string) slog.Attr     { return slog.String(KeyStrategy, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func PID(pid int) slog.Attr           { return slog.Int(KeyPID, pid) }
func Extension(name string) slog.Attr { return slog.String(KeyExtension, name) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms int64) slog.Attr   { return slog.Int64(KeyDuration, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
