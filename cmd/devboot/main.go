package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	derrors "devboot/internal/errors"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	envFile    string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit status. Fatal errors are
// reported as a single ERROR line on stdout next to the milestone lines.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stdout, "ERROR: %v\n", err)
		return derrors.ExitCode(err)
	}
	return derrors.ExitOK
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "devboot",
		Short: "Provision browser IDE servers and IDE plugins inside a workspace",
		Long: `devboot prepares a development workspace at startup.

  devboot vscode-web          resolve a VS Code CLI, write settings, install
                              extensions and start VS Code Web in the background
  devboot jetbrains-plugins   write .idea/externalDependencies.xml and install
                              plugins once a JetBrains backend appears
  devboot status              show the processes started by earlier runs

Options are read from defaults, then --config (YAML), then --env-file, then
DEVBOOT_* environment variables, then explicitly set flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&opts.envFile, "env-file", "", ".env file with DEVBOOT_* variables")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newVSCodeWebCommand(opts),
		newJetBrainsPluginsCommand(opts),
		newPluginInstallerCommand(opts),
		newStatusCommand(),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the devboot version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "devboot %s\n", version)
		},
	}
}
