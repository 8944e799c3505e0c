package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lekki-ent/marquee/internal/catalog"
	"github.com/lekki-ent/marquee/internal/clock"
	"github.com/lekki-ent/marquee/internal/config"
	"github.com/lekki-ent/marquee/internal/daemon"
	"github.com/lekki-ent/marquee/internal/display"
	"github.com/lekki-ent/marquee/internal/events"
	"github.com/lekki-ent/marquee/internal/server"
	"github.com/lekki-ent/marquee/internal/shutdown"
	"github.com/lekki-ent/marquee/internal/tick"
	"github.com/lekki-ent/marquee/internal/tui"
)

const tuiEventBuffer = 500

// displayMode selects which surfaces a display process runs.
type displayMode struct {
	daemon bool // detach into the background
	tui    bool // terminal UI in the foreground
	web    bool // HTTP server plus control socket
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site and run the live display",
		Long: `Serve the site over HTTP and run the live display.

The process owns the countdown and hero engines. Pages, the JSON API and
the websocket feed read from them, and the control socket accepts commands
from marquee status, hero and stop.

Use --daemon to run in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			daemonMode, _ := cmd.Flags().GetBool(FlagDaemon)

			// Determine TUI mode: explicit flag > auto-detect from TTY
			tuiEnabled, _ := cmd.Flags().GetBool(FlagTUI)
			if !cmd.Flags().Changed(FlagTUI) && !daemonMode {
				tuiEnabled = term.IsTerminal(int(os.Stdout.Fd()))
			}

			if tuiEnabled && daemonMode {
				return fmt.Errorf("--tui and --daemon flags are incompatible")
			}
			return c.runDisplay(cmd, displayMode{daemon: daemonMode, tui: tuiEnabled, web: true})
		},
	}

	cmd.Flags().Bool(FlagDaemon, false, "Run as a background daemon")
	cmd.Flags().Bool(FlagTUI, false, "Show the terminal UI (default: on when stdout is a terminal)")
	cmd.Flags().String(FlagAddr, "", "HTTP listen address (default: server.addr)")
	addHeroFlags(cmd)
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Run the display in the terminal without serving the site",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDisplay(cmd, displayMode{tui: true})
		},
	}
	addHeroFlags(cmd)
	cmd.Flags().String(FlagTarget, "", "Countdown target, ISO-8601 with offset (default: next event)")
	return cmd
}

func addHeroFlags(cmd *cobra.Command) {
	cmd.Flags().Duration(FlagInterval, 0, "Hero rotation interval (default: hero.interval)")
	cmd.Flags().Bool(FlagReducedMotion, false, "Disable automatic hero rotation")
}

func (c *cli) runDisplay(cmd *cobra.Command, mode displayMode) error {
	cfg, projectRoot, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	if mode.daemon {
		client := daemon.NewClient(cfg.Paths.Socket)
		if client.IsRunning() {
			return fmt.Errorf("marquee already running (socket: %s)", cfg.Paths.Socket)
		}

		shouldExit, _, err := daemon.Daemonize(cfg.Paths.Socket, cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("daemonize: %w", err)
		}
		if shouldExit {
			return nil
		}
	}

	if mode.web {
		pidFile := daemon.NewPIDFile(cfg.Paths.PID)
		pidFile.CleanupStale(cfg.Paths.Socket)
		if err := pidFile.Acquire(); err != nil {
			return err
		}
		defer pidFile.Release()
	}

	logger := c.logger
	if mode.tui {
		tuiLog, err := SetupTUILogger(filepath.Dir(cfg.Paths.Log), c.logLevel, cfg.LogRotation)
		if err != nil {
			return err
		}
		defer func() { _ = tuiLog.Close() }()
		logger = tuiLog.Logger
		slog.SetDefault(logger)
	}

	logger.Info("marquee starting",
		"version", version,
		"addr", cfg.Server.Addr,
		"log_file", cfg.Paths.Log,
		"catalog", cfg.Catalog.Path,
		"daemon_mode", mode.daemon,
	)

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	router := events.NewRouter(events.DefaultBufferSize)
	router.SetLogger(logger)

	logSink := events.NewLogSink(cfg.Paths.Log, rotationFor(cfg.LogRotation))
	if err := logSink.Start(cmd.Context(), router.Subscribe()); err != nil {
		router.Close()
		return fmt.Errorf("start log sink: %w", err)
	}
	defer func() { _ = logSink.Stop() }()

	var tuiEvents <-chan events.Event
	if mode.tui {
		tuiEvents = router.SubscribeBuffered(tuiEventBuffer)
	}

	sched := tick.NewScheduler(clock.System, logger)
	go func() { _ = sched.Run(context.Background()) }()

	board, err := display.New(cfg, cat, sched,
		display.WithRouter(router),
		display.WithLogger(logger),
	)
	if err != nil {
		sched.Close()
		router.Close()
		return fmt.Errorf("build display: %w", err)
	}
	if cdErr := board.CountdownErr(); cdErr != nil {
		logger.Warn("countdown unavailable", "error", cdErr)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	closeDisplay := func(context.Context) error {
		board.Close("shutdown")
		sched.Close()
		router.Close()
		return nil
	}

	var (
		srv *server.Server
		dmn *daemon.Daemon
	)
	if mode.web {
		srv = server.New(cfg.Server.Addr, board, cat,
			server.WithLogger(logger),
			server.WithPushInterval(cfg.Server.PushInterval),
			server.WithGalleryLimits(cfg.Gallery.WallLimit, cfg.Gallery.HighlightLimit),
		)
		dmn = daemon.New(cfg, board, logger,
			daemon.WithHTTPAddr(cfg.Server.Addr),
			daemon.WithClientCount(srv.Clients),
			daemon.WithStopFunc(cancel),
		)

		infoPath := daemon.InfoPath(projectRoot)
		info := &daemon.Info{
			SocketPath: cfg.Paths.Socket,
			PIDPath:    cfg.Paths.PID,
			LogPath:    cfg.Paths.Log,
			HTTPAddr:   cfg.Server.Addr,
			StartTime:  time.Now(),
			PID:        os.Getpid(),
		}
		if err := daemon.WriteInfo(infoPath, info); err != nil {
			logger.Warn("failed to write daemon info", "error", err)
		}
		defer func() { _ = daemon.RemoveInfo(infoPath) }()
	}

	var tuiApp *tui.TUI
	if mode.tui {
		tuiApp = tui.New(board, tuiEvents,
			tui.WithOnQuit(cancel),
			tui.WithOutput(cmd.OutOrStdout()),
		)
	}

	runner := func(runCtx context.Context) error {
		errCh := make(chan error, 2)
		if srv != nil {
			go func() { errCh <- srv.Run() }()
		}
		if dmn != nil {
			go func() {
				if err := dmn.Start(runCtx); err != nil {
					errCh <- fmt.Errorf("control socket: %w", err)
				}
			}()
		}

		if tuiApp != nil {
			go func() {
				if err := <-errCh; err != nil {
					logger.Error("service failed", "error", err)
					cancel()
				}
			}()
			return tuiApp.Run()
		}

		select {
		case err := <-errCh:
			return err
		case <-runCtx.Done():
			return nil
		}
	}

	var stopServer shutdown.Func
	if srv != nil {
		stopServer = srv.Shutdown
	}
	stopAll := shutdown.Sequence(stopServer, closeDisplay)

	err = shutdown.RunWithGracefulShutdown(ctx, logger, cfg.Server.ShutdownTimeout, runner, stopAll)

	// The runner may have returned on its own (TUI quit, listen failure).
	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cleanupCancel()
	if stopErr := stopAll(cleanupCtx); stopErr != nil && !errors.Is(stopErr, context.DeadlineExceeded) {
		logger.Warn("cleanup failed", "error", stopErr)
	}
	if dmn != nil {
		_ = dmn.Stop()
	}

	return err
}

func rotationFor(cfg config.LogRotationConfig) events.Rotation {
	return events.Rotation{
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}
