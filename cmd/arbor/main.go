// Command arbor renders, serves and exports the bundled demo applications.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/arbor/internal/config"
	"github.com/vango-dev/arbor/internal/demo"
	"github.com/vango-dev/arbor/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬─┐┌┐ ┌─┐┬─┐
  ├─┤├┬┘├┴┐│ │├┬┘
  ┴ ┴┴└─└─┘└─┘┴└─
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "arbor",
		Short: "Incremental UI reconciliation for Go",
		Long: `Arbor mounts component trees onto host backends and keeps them
current with a resumable, interruptible reconciler.

The arbor command drives the bundled demo applications on each host:

  • render  server-side HTML on the memory host
  • serve   live sessions streamed over WebSocket
  • tui     an interactive terminal view
  • export  rendered pages uploaded to S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default: arbor.json or arbor.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		renderCmd(g),
		serveCmd(g),
		tuiCmd(g),
		exportCmd(g),
		demosCmd(),
		versionCmd(),
	)
	return rootCmd
}

// load reads the configuration and applies the persistent flag overrides.
func (g *globals) load() (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.LoadOptional(".")
	}
	if err != nil {
		return nil, nil, err
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return cfg, cfg.Logger(os.Stderr), nil
}

// app resolves the demo named by args, falling back to the configured one.
func app(cfg *config.Config, args []string) (demo.App, error) {
	name := cfg.Demo
	if len(args) > 0 {
		name = args[0]
	}
	return demo.Lookup(name)
}
