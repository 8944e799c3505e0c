package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var version = "dev"

// cli carries the state shared by every command: the viper instance flags
// are bound to and the process logger.
type cli struct {
	v        *viper.Viper
	logger   *slog.Logger
	logLevel *slog.LevelVar
}

func newCLI(logger *slog.Logger, logLevel *slog.LevelVar) *cli {
	v := viper.New()
	v.SetEnvPrefix("MARQUEE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return &cli{v: v, logger: logger, logLevel: logLevel}
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "marquee",
		Short: "Live countdown and hero display for LEKKI Entertainment",
		Long: `marquee serves the LEKKI Entertainment site: the event catalog, the photo
gallery, a live "Next Up" countdown to the next event and a rotating hero
display.

The display runs in one process (marquee serve) and is controlled from the
web page, the terminal UI or the CLI over a local control socket.`,
		SilenceUsage: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .marquee/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Event log path")
	rootCmd.PersistentFlags().String(FlagSocketPath, "", "Unix socket path for display control")
	rootCmd.PersistentFlags().String(FlagCatalog, "", "Event catalog YAML (default: built-in catalog)")

	// Bind all flags to viper
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = c.v.BindPFlag(f.Name, f)
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "marquee %s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(c.serveCmd())
	rootCmd.AddCommand(c.showCmd())
	rootCmd.AddCommand(c.eventsCmd())
	rootCmd.AddCommand(c.eventCmd())
	rootCmd.AddCommand(c.galleryCmd())
	rootCmd.AddCommand(c.countdownCmd())
	rootCmd.AddCommand(c.statusCmd())
	rootCmd.AddCommand(c.heroCmd())
	rootCmd.AddCommand(c.stopCmd())
	rootCmd.AddCommand(c.logCmd())
	rootCmd.AddCommand(c.initCmd())

	return rootCmd
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := newJSONLogger(os.Stderr, logLevel)

	if err := newRootCmd(newCLI(logger, logLevel)).ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
