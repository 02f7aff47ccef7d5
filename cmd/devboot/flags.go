package main

import (
	"time"

	"github.com/spf13/pflag"

	"devboot/internal/config"
)

// configFlag copies one flag's parsed value into the layered Values.
type configFlag struct {
	name string
	copy func(dst, src *config.Values)
}

// configFlags binds flags to a scratch Values and applies only the flags the
// user actually set, so they override file and environment layers without
// resetting them to flag defaults.
type configFlags struct {
	fs     *pflag.FlagSet
	vals   config.Values
	fields []configFlag
}

func newConfigFlags(fs *pflag.FlagSet) *configFlags {
	return &configFlags{fs: fs}
}

func (c *configFlags) boolVar(name, usage string, field func(*config.Values) *bool) {
	c.fs.BoolVar(field(&c.vals), name, false, usage)
	c.fields = append(c.fields, configFlag{name, func(dst, src *config.Values) { *field(dst) = *field(src) }})
}

func (c *configFlags) stringVar(name, usage string, field func(*config.Values) *string) {
	c.fs.StringVar(field(&c.vals), name, "", usage)
	c.fields = append(c.fields, configFlag{name, func(dst, src *config.Values) { *field(dst) = *field(src) }})
}

func (c *configFlags) intVar(name, usage string, field func(*config.Values) *int) {
	c.fs.IntVar(field(&c.vals), name, 0, usage)
	c.fields = append(c.fields, configFlag{name, func(dst, src *config.Values) { *field(dst) = *field(src) }})
}

func (c *configFlags) durationVar(name, usage string, field func(*config.Values) *time.Duration) {
	c.fs.DurationVar(field(&c.vals), name, 0, usage)
	c.fields = append(c.fields, configFlag{name, func(dst, src *config.Values) { *field(dst) = *field(src) }})
}

func (c *configFlags) listVar(name, usage string, field func(*config.Values) *[]string) {
	c.fs.StringSliceVar(field(&c.vals), name, nil, usage)
	c.fields = append(c.fields, configFlag{name, func(dst, src *config.Values) {
		*field(dst) = append([]string(nil), *field(src)...)
	}})
}

// apply copies every changed flag into dst.
func (c *configFlags) apply(dst *config.Values) {
	for _, f := range c.fields {
		if c.fs.Changed(f.name) {
			f.copy(dst, &c.vals)
		}
	}
}

func bindWebFlags(fs *pflag.FlagSet) *configFlags {
	c := newConfigFlags(fs)
	c.boolVar("accept-license", "accept the VS Code Server license terms", func(v *config.Values) *bool { return &v.AcceptLicense })
	c.boolVar("use-cached", "only use a VS Code CLI cached under the install prefix", func(v *config.Values) *bool { return &v.UseCached })
	c.boolVar("offline", "never touch the network", func(v *config.Values) *bool { return &v.Offline })
	c.stringVar("folder", "folder to open", func(v *config.Values) *string { return &v.Folder })
	c.stringVar("workspace", ".code-workspace file to open", func(v *config.Values) *string { return &v.Workspace })
	c.listVar("extensions", "extension identifiers to install", func(v *config.Values) *[]string { return &v.Extensions })
	c.intVar("port", "port to listen on", func(v *config.Values) *int { return &v.Port })
	c.stringVar("host", "address to bind", func(v *config.Values) *string { return &v.Host })
	c.stringVar("telemetry-level", "default, off, crash, error or all", func(v *config.Values) *string { return &v.TelemetryLevel })
	c.boolVar("disable-trust", "disable workspace trust", func(v *config.Values) *bool { return &v.DisableTrust })
	c.stringVar("release-channel", "stable or insiders", func(v *config.Values) *string { return &v.ReleaseChannel })
	c.stringVar("commit-id", "commit hash, X.Y.Z version or \"latest\"", func(v *config.Values) *string { return &v.CommitID })
	c.stringVar("settings", "machine settings as a JSON object", func(v *config.Values) *string { return &v.Settings })
	c.stringVar("install-prefix", "directory for the cached VS Code CLI", func(v *config.Values) *string { return &v.InstallPrefix })
	c.stringVar("extensions-dir", "extensions directory", func(v *config.Values) *string { return &v.ExtensionsDir })
	c.stringVar("server-base-path", "base path the server is reverse-proxied under", func(v *config.Values) *string { return &v.ServerBasePath })
	c.stringVar("connection-token", "none or random", func(v *config.Values) *string { return &v.ConnectionToken })
	c.stringVar("log-path", "server log file", func(v *config.Values) *string { return &v.LogPath })
	c.stringVar("pid-path", "server pid file", func(v *config.Values) *string { return &v.PidPath })
	c.stringVar("settings-path", "machine settings file", func(v *config.Values) *string { return &v.SettingsPath })
	c.stringVar("metrics-path", "write Prometheus metrics to this textfile", func(v *config.Values) *string { return &v.MetricsPath })
	c.durationVar("download-timeout", "limit for downloading the VS Code CLI", func(v *config.Values) *time.Duration { return &v.DownloadTimeout })
	c.durationVar("install-timeout", "limit for each extension install", func(v *config.Values) *time.Duration { return &v.InstallTimeout })
	return c
}

func bindPluginFlags(fs *pflag.FlagSet) *configFlags {
	c := newConfigFlags(fs)
	c.stringVar("folder", "project folder that receives .idea/externalDependencies.xml", func(v *config.Values) *string { return &v.Folder })
	c.listVar("plugins", "JetBrains plugin identifiers", func(v *config.Values) *[]string { return &v.Plugins })
	c.stringVar("log-path", "background installer log file", func(v *config.Values) *string { return &v.LogPath })
	c.stringVar("pid-path", "background installer pid file", func(v *config.Values) *string { return &v.PidPath })
	c.stringVar("metrics-path", "write Prometheus metrics to this textfile", func(v *config.Values) *string { return &v.MetricsPath })
	c.durationVar("install-timeout", "limit for each plugin install", func(v *config.Values) *time.Duration { return &v.InstallTimeout })
	return c
}
