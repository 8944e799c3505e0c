package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lekki-ent/marquee/internal/config"
	"github.com/lekki-ent/marquee/internal/daemon"
)

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagLogFile    = "log-file"
	FlagSocketPath = "socket-path"
	FlagCatalog    = "catalog-file"

	// Serve command flags
	FlagDaemon        = "daemon"
	FlagTUI           = "tui"
	FlagAddr          = "addr"
	FlagInterval      = "interval"
	FlagReducedMotion = "reduced-motion"

	// Countdown command flags
	FlagTarget = "target"

	// Catalog command flags
	FlagUpcoming = "upcoming"
	FlagPast     = "past"
	FlagLimit    = "limit"

	// Stop and init command flags
	FlagForce   = "force"
	FlagDryRun  = "dry-run"
	FlagMinimal = "minimal"
	FlagGlobal  = "global"

	// Log command flags
	FlagFollow = "follow"
	FlagCount  = "count"

	// Output format flags
	FlagJSON = "json"
)

// loadConfig layers config files, environment and flags, then resolves the
// runtime paths against the project root. It returns the root as well.
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	if c.v.GetBool(FlagVerbose) {
		c.logLevel.Set(slog.LevelDebug)
		c.logger.Debug("verbose logging enabled")
	}

	cfg, err := config.LoadConfig(c.v)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	// Apply CLI flag overrides (only if explicitly set)
	flags := cmd.Flags()
	if flags.Changed(FlagLogFile) {
		cfg.Paths.Log = c.v.GetString(FlagLogFile)
	}
	if flags.Changed(FlagSocketPath) {
		cfg.Paths.Socket = c.v.GetString(FlagSocketPath)
	}
	if flags.Changed(FlagCatalog) {
		cfg.Catalog.Path = c.v.GetString(FlagCatalog)
	}
	if flags.Lookup(FlagAddr) != nil && flags.Changed(FlagAddr) {
		cfg.Server.Addr, _ = flags.GetString(FlagAddr)
	}
	if flags.Lookup(FlagInterval) != nil && flags.Changed(FlagInterval) {
		cfg.Hero.Interval, _ = flags.GetDuration(FlagInterval)
	}
	if flags.Lookup(FlagReducedMotion) != nil && flags.Changed(FlagReducedMotion) {
		cfg.Hero.ReducedMotion, _ = flags.GetBool(FlagReducedMotion)
	}
	if flags.Lookup(FlagTarget) != nil && flags.Changed(FlagTarget) {
		cfg.Countdown.Target, _ = flags.GetString(FlagTarget)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}

	projectRoot := daemon.FindProjectRoot("")
	cfg.Paths, err = daemon.ResolvePaths(cfg.Paths, projectRoot)
	if err != nil {
		return nil, "", fmt.Errorf("resolve paths: %w", err)
	}
	// A catalog named in a config file is relative to the project; one given
	// on the command line is relative to the working directory.
	if p := cfg.Catalog.Path; p != "" && !filepath.IsAbs(p) && !flags.Changed(FlagCatalog) {
		cfg.Catalog.Path = filepath.Join(projectRoot, p)
	}
	return cfg, projectRoot, nil
}
