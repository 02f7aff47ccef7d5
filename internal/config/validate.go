package config

import (
	"fmt"
	"regexp"
	"strings"

	"devboot/internal/domain"
	derrors "devboot/internal/errors"
)

var (
	commitHashRe = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
	versionRe    = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	// Some callers pin an abbreviated or otherwise opaque commit; the server
	// validates it, so only reject values that could break argument parsing.
	opaqueCommitRe = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._-]*$`)
)

// Validate checks the invariants of a web-server run in a fixed order and
// returns the first violation. It has no side effects.
func Validate(cfg domain.Configuration) error {
	if cfg.Folder != "" && cfg.Workspace != "" {
		return derrors.Config(derrors.KindFolderWorkspaceConflict, "Set only one of `workspace` or `folder`")
	}
	if cfg.Offline && cfg.UseCached {
		return derrors.Config(derrors.KindOfflineCachedConflict, "Offline and Use Cached can not be used together")
	}
	if cfg.Offline && len(cfg.Extensions()) > 0 {
		return derrors.Config(derrors.KindOfflineExtensions, "Offline mode does not allow extensions to be installed")
	}
	if !cfg.AcceptLicense {
		return derrors.Config(derrors.KindLicenseNotAccepted, "The VS Code Server license must be accepted (set accept_license=true)")
	}
	return validateValues(cfg)
}

// ValidatePlugins checks the invariants of a plugin-manifest run.
func ValidatePlugins(cfg domain.Configuration) error {
	if strings.TrimSpace(cfg.Folder) == "" {
		return invalid("folder is required to write the plugin manifest")
	}
	if cfg.PidPath == "" || cfg.LogPath == "" {
		return invalid("pid and log paths are required")
	}
	return nil
}

func validateValues(cfg domain.Configuration) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return invalid(fmt.Sprintf("port %d is outside 1-65535", cfg.Port))
	}
	switch cfg.TelemetryLevel {
	case domain.TelemetryDefault, domain.TelemetryOff, domain.TelemetryCrash, domain.TelemetryError, domain.TelemetryAll:
	default:
		return invalid(fmt.Sprintf("telemetry level %q is not one of default, off, crash, error, all", cfg.TelemetryLevel))
	}
	switch cfg.ReleaseChannel {
	case domain.ChannelStable, domain.ChannelInsiders:
	default:
		return invalid(fmt.Sprintf("release channel %q is not one of stable, insiders", cfg.ReleaseChannel))
	}
	switch cfg.ConnectionToken {
	case domain.TokenNone, domain.TokenRandom:
	default:
		return invalid(fmt.Sprintf("connection token mode %q is not one of none, random", cfg.ConnectionToken))
	}
	if cfg.InstallPrefix == "" {
		return invalid("install prefix must not be empty")
	}
	if cfg.LogPath == "" || cfg.PidPath == "" {
		return invalid("log and pid paths must not be empty")
	}
	if cfg.DownloadTimeout <= 0 {
		return invalid("download timeout must be positive")
	}
	if id := cfg.CommitID; id != "" {
		if !opaqueCommitRe.MatchString(id) {
			return invalid(fmt.Sprintf("commit id %q is malformed", id))
		}
		if (cfg.Offline || cfg.UseCached) && NeedsCommitLookup(id) {
			return invalid(fmt.Sprintf("commit id %q needs the update service and cannot be combined with offline or use_cached", id))
		}
	}
	return nil
}

// NeedsCommitLookup reports whether id must be resolved to a hash over the
// network before use.
func NeedsCommitLookup(id string) bool {
	id = strings.TrimSpace(id)
	if commitHashRe.MatchString(id) {
		return false
	}
	return strings.EqualFold(id, "latest") || versionRe.MatchString(id)
}

func invalid(msg string) error {
	return derrors.Config(derrors.KindInvalidValue, msg)
}
