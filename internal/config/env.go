package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "DEVBOOT_"

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set in the environment are left alone.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays DEVBOOT_* variables. lookup is usually os.LookupEnv.
func (v *Values) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(name string) (string, bool) {
		return lookup(EnvPrefix + name)
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"ACCEPT_LICENSE", &v.AcceptLicense},
		{"USE_CACHED", &v.UseCached},
		{"OFFLINE", &v.Offline},
		{"DISABLE_TRUST", &v.DisableTrust},
	}
	for _, b := range bools {
		raw, ok := env(b.name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		val, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, b.name, err)
		}
		*b.dst = val
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"FOLDER", &v.Folder},
		{"WORKSPACE", &v.Workspace},
		{"HOST", &v.Host},
		{"TELEMETRY_LEVEL", &v.TelemetryLevel},
		{"RELEASE_CHANNEL", &v.ReleaseChannel},
		{"COMMIT_ID", &v.CommitID},
		{"INSTALL_PREFIX", &v.InstallPrefix},
		{"EXTENSIONS_DIR", &v.ExtensionsDir},
		{"SERVER_BASE_PATH", &v.ServerBasePath},
		{"CONNECTION_TOKEN", &v.ConnectionToken},
		{"LOG_PATH", &v.LogPath},
		{"PID_PATH", &v.PidPath},
		{"SETTINGS_PATH", &v.SettingsPath},
		{"METRICS_PATH", &v.MetricsPath},
	}
	for _, s := range strs {
		if raw, ok := env(s.name); ok {
			*s.dst = raw
		}
	}

	if raw, ok := env("SETTINGS"); ok {
		v.Settings = raw
		v.settingsParsed = nil
	}
	if raw, ok := env("EXTENSIONS"); ok {
		v.Extensions = SplitList(raw)
	}
	if raw, ok := env("PLUGINS"); ok {
		v.Plugins = SplitList(raw)
	}
	if raw, ok := env("PORT"); ok && strings.TrimSpace(raw) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		v.Port = port
	}
	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"DOWNLOAD_TIMEOUT", &v.DownloadTimeout},
		{"INSTALL_TIMEOUT", &v.InstallTimeout},
	}
	for _, d := range durations {
		raw, ok := env(d.name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		val, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, d.name, err)
		}
		*d.dst = val
	}
	return nil
}

// SplitList splits a comma or whitespace separated list, dropping empties.
func SplitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	return compact(fields)
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
