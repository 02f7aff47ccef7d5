package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"devboot/internal/adapter/server"
	"devboot/internal/adapter/store"
	"devboot/internal/app"
	"devboot/internal/config"
	"devboot/internal/domain"
)

func newVSCodeWebCommand(opts *globalOptions) *cobra.Command {
	var flags *configFlags
	cmd := &cobra.Command{
		Use:   "vscode-web",
		Short: "Start VS Code Web in the background",
		Long: `Resolve a VS Code CLI (PATH, cache, download, or code-server when offline),
write machine settings if none exist, install extensions and start the server
detached from this process. The server pid and log paths are printed once it
is running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newEnvironment(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, err := loadValues(config.ModuleVSCodeWeb, env.plat.HomeDir(), opts, flags)
			if err != nil {
				return err
			}
			env.withMetrics(cfg.MetricsPath)
			defer env.flush()
			return env.service(cfg).VSCodeWeb(cmd.Context(), cfg)
		},
	}
	flags = bindWebFlags(cmd.Flags())
	return cmd
}

func newJetBrainsPluginsCommand(opts *globalOptions) *cobra.Command {
	var flags *configFlags
	cmd := &cobra.Command{
		Use:   "jetbrains-plugins",
		Short: "Pre-configure and install JetBrains IDE plugins",
		Long: `Write the project's .idea/externalDependencies.xml so the IDE suggests the
plugins, then start a background installer that waits for a JetBrains remote
development backend and installs each plugin into it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newEnvironment(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, err := loadValues(config.ModuleJetBrainsPlugins, env.plat.HomeDir(), opts, flags)
			if err != nil {
				return err
			}
			env.withMetrics(cfg.MetricsPath)
			defer env.flush()
			return env.service(cfg).JetBrainsPlugins(cmd.Context(), cfg)
		},
	}
	flags = bindPluginFlags(cmd.Flags())
	return cmd
}

func newPluginInstallerCommand(opts *globalOptions) *cobra.Command {
	var (
		folder   string
		plugins  []string
		timeout  time.Duration
		wait     time.Duration
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:    app.PluginInstallerCommand,
		Short:  "Wait for a JetBrains backend and install plugins into it",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newEnvironment(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, err := loadValues(config.ModuleJetBrainsPlugins, env.plat.HomeDir(), opts, nil)
			if err != nil {
				return err
			}
			cfg.InstallTimeout = timeout
			return env.service(cfg).PluginInstaller(cmd.Context(), app.PluginInstallOptions{
				Project:   folder,
				PluginIDs: plugins,
				Roots:     env.plat.JetBrainsDistRoots(),
				Interval:  interval,
				Wait:      wait,
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&folder, "folder", "", "project folder passed to installPlugins")
	f.StringArrayVar(&plugins, "plugin", nil, "plugin identifier (repeatable)")
	f.DurationVar(&timeout, "install-timeout", config.DefaultInstallTimeout, "limit for each plugin install")
	f.DurationVar(&wait, "wait", 30*time.Minute, "how long to wait for a backend")
	f.DurationVar(&interval, "interval", 5*time.Second, "poll interval while waiting")
	return cmd
}

// defaultPidFiles are the pid files written by the two modules with their
// default paths.
var defaultPidFiles = []string{
	"vscode-web=/tmp/vscode-web.pid:/tmp/vscode-web.log",
	"jetbrains-plugin-installer=/tmp/jetbrains-plugin-installer.pid:/tmp/jetbrains-plugin-installer.log",
}

func newStatusCommand() *cobra.Command {
	var (
		pidFiles []string
		clean    bool
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show processes started by earlier runs",
		Long: `List the pid files written by vscode-web and jetbrains-plugins and whether
their processes are still running. With --clean, pid files of processes that
are gone are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := make([]store.Entry, 0, len(pidFiles))
			for _, spec := range pidFiles {
				entries = append(entries, store.ParseEntry(spec))
			}
			st := store.NewPidFileStore(entries, server.ReadPidFile, server.IsAlive)
			out := cmd.OutOrStdout()

			if clean {
				n, err := st.RemoveStale()
				if err != nil {
					return fmt.Errorf("remove stale pid files: %w", err)
				}
				fmt.Fprintf(out, "Removed %d stale pid file(s)\n", n)
				return nil
			}

			records, err := st.List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No processes found.")
				return nil
			}
			printRecords(out, records)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&pidFiles, "pid-file", defaultPidFiles, "NAME=PIDPATH[:LOGPATH] or a pid path (repeatable)")
	cmd.Flags().BoolVar(&clean, "clean", false, "remove pid files of processes that are gone")
	return cmd
}

func printRecords(out io.Writer, records []domain.PidRecord) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPID\tSTATUS\tLOG")
	for _, r := range records {
		status := "dead"
		switch {
		case r.PID == 0:
			status = "unreadable"
		case r.Alive:
			status = "alive"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.Name, r.PID, status, r.LogPath)
	}
	w.Flush()
}
