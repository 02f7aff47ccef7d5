// Package config assembles and validates the Configuration a provisioning run
// consumes. Values are layered: defaults, an optional YAML file, an optional
// .env file, DEVBOOT_* environment variables, then explicitly set flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"devboot/internal/domain"
)

// Module names a provisioning flow.
type Module string

const (
	ModuleVSCodeWeb        Module = "vscode-web"
	ModuleJetBrainsPlugins Module = "jetbrains-plugins"
)

const (
	DefaultPort            = 13338
	DefaultHost            = "127.0.0.1"
	DefaultInstallPrefix   = "/tmp/vscode-web"
	DefaultDownloadTimeout = 5 * time.Minute
	DefaultInstallTimeout  = 5 * time.Minute
)

// Values is the mutable form of a Configuration while layers are applied.
type Values struct {
	AcceptLicense   bool
	UseCached       bool
	Offline         bool
	Folder          string
	Workspace       string
	Extensions      []string
	Port            int
	Host            string
	TelemetryLevel  string
	DisableTrust    bool
	ReleaseChannel  string
	CommitID        string
	Settings        string
	InstallPrefix   string
	ExtensionsDir   string
	ServerBasePath  string
	ConnectionToken string
	Plugins         []string
	LogPath         string
	PidPath         string
	SettingsPath    string
	MetricsPath     string
	DownloadTimeout time.Duration
	InstallTimeout  time.Duration

	// settingsParsed is set when the YAML file carried settings as a mapping.
	settingsParsed domain.Settings
}

// Defaults returns the baseline values for module. home is used for the
// editor settings location.
func Defaults(module Module, home string) Values {
	v := Values{
		Port:            DefaultPort,
		Host:            DefaultHost,
		TelemetryLevel:  string(domain.TelemetryDefault),
		ReleaseChannel:  string(domain.ChannelStable),
		InstallPrefix:   DefaultInstallPrefix,
		ConnectionToken: string(domain.TokenNone),
		DownloadTimeout: DefaultDownloadTimeout,
		InstallTimeout:  DefaultInstallTimeout,
	}
	if home != "" {
		v.SettingsPath = filepath.Join(home, ".vscode-server", "data", "Machine", "settings.json")
	}
	switch module {
	case ModuleJetBrainsPlugins:
		v.LogPath = "/tmp/jetbrains-plugin-installer.log"
		v.PidPath = "/tmp/jetbrains-plugin-installer.pid"
	default:
		v.LogPath = "/tmp/vscode-web.log"
		v.PidPath = "/tmp/vscode-web.pid"
	}
	return v
}

// File is the YAML configuration document. Pointer fields distinguish
// "absent" from the zero value so the file only overrides what it names.
type File struct {
	AcceptLicense   *bool     `yaml:"accept_license"`
	UseCached       *bool     `yaml:"use_cached"`
	Offline         *bool     `yaml:"offline"`
	Folder          *string   `yaml:"folder"`
	Workspace       *string   `yaml:"workspace"`
	Extensions      []string  `yaml:"extensions"`
	Port            *int      `yaml:"port"`
	Host            *string   `yaml:"host"`
	TelemetryLevel  *string   `yaml:"telemetry_level"`
	DisableTrust    *bool     `yaml:"disable_trust"`
	ReleaseChannel  *string   `yaml:"release_channel"`
	CommitID        *string   `yaml:"commit_id"`
	Settings        yaml.Node `yaml:"settings"`
	InstallPrefix   *string   `yaml:"install_prefix"`
	ExtensionsDir   *string   `yaml:"extensions_dir"`
	ServerBasePath  *string   `yaml:"server_base_path"`
	ConnectionToken *string   `yaml:"connection_token"`
	Plugins         []string  `yaml:"plugins"`
	LogPath         *string   `yaml:"log_path"`
	PidPath         *string   `yaml:"pid_path"`
	SettingsPath    *string   `yaml:"settings_path"`
	MetricsPath     *string   `yaml:"metrics_path"`
	DownloadTimeout *string   `yaml:"download_timeout"`
	InstallTimeout  *string   `yaml:"install_timeout"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &f, nil
}

// ApplyFile overlays every field present in f.
func (v *Values) ApplyFile(f *File) error {
	if f == nil {
		return nil
	}
	setBool(&v.AcceptLicense, f.AcceptLicense)
	setBool(&v.UseCached, f.UseCached)
	setBool(&v.Offline, f.Offline)
	setString(&v.Folder, f.Folder)
	setString(&v.Workspace, f.Workspace)
	if f.Extensions != nil {
		v.Extensions = append([]string(nil), f.Extensions...)
	}
	if f.Port != nil {
		v.Port = *f.Port
	}
	setString(&v.Host, f.Host)
	setString(&v.TelemetryLevel, f.TelemetryLevel)
	setBool(&v.DisableTrust, f.DisableTrust)
	setString(&v.ReleaseChannel, f.ReleaseChannel)
	setString(&v.CommitID, f.CommitID)
	setString(&v.InstallPrefix, f.InstallPrefix)
	setString(&v.ExtensionsDir, f.ExtensionsDir)
	setString(&v.ServerBasePath, f.ServerBasePath)
	setString(&v.ConnectionToken, f.ConnectionToken)
	if f.Plugins != nil {
		v.Plugins = append([]string(nil), f.Plugins...)
	}
	setString(&v.LogPath, f.LogPath)
	setString(&v.PidPath, f.PidPath)
	setString(&v.SettingsPath, f.SettingsPath)
	setString(&v.MetricsPath, f.MetricsPath)
	if err := setDuration(&v.DownloadTimeout, f.DownloadTimeout); err != nil {
		return fmt.Errorf("download_timeout: %w", err)
	}
	if err := setDuration(&v.InstallTimeout, f.InstallTimeout); err != nil {
		return fmt.Errorf("install_timeout: %w", err)
	}

	switch f.Settings.Kind {
	case 0:
	case yaml.ScalarNode:
		v.Settings = f.Settings.Value
		v.settingsParsed = nil
	case yaml.MappingNode:
		s, err := settingsFromYAML(&f.Settings)
		if err != nil {
			return fmt.Errorf("settings: %w", err)
		}
		v.Settings = ""
		v.settingsParsed = s
	default:
		return fmt.Errorf("settings: expected a mapping or a JSON string")
	}
	return nil
}

// Build parses free-form fields and freezes the values into a Configuration.
// It does not validate invariants; see Validate.
func (v Values) Build() (domain.Configuration, error) {
	settings := v.settingsParsed
	if v.Settings != "" {
		var err error
		settings, err = ParseSettings(v.Settings)
		if err != nil {
			return domain.Configuration{}, err
		}
	}

	cfg := domain.Configuration{
		AcceptLicense:   v.AcceptLicense,
		UseCached:       v.UseCached,
		Offline:         v.Offline,
		Folder:          v.Folder,
		Workspace:       v.Workspace,
		Port:            v.Port,
		Host:            v.Host,
		TelemetryLevel:  domain.TelemetryLevel(v.TelemetryLevel),
		DisableTrust:    v.DisableTrust,
		ReleaseChannel:  domain.Channel(v.ReleaseChannel),
		CommitID:        v.CommitID,
		InstallPrefix:   v.InstallPrefix,
		ExtensionsDir:   v.ExtensionsDir,
		ServerBasePath:  v.ServerBasePath,
		ConnectionToken: domain.TokenMode(v.ConnectionToken),
		LogPath:         v.LogPath,
		PidPath:         v.PidPath,
		SettingsPath:    v.SettingsPath,
		MetricsPath:     v.MetricsPath,
		DownloadTimeout: v.DownloadTimeout,
		InstallTimeout:  v.InstallTimeout,
	}
	return cfg.
		WithExtensions(compact(v.Extensions)).
		WithPluginIDs(compact(v.Plugins)).
		WithSettings(settings), nil
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
