package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekki-ent/marquee/internal/catalog"
	"github.com/lekki-ent/marquee/internal/clock"
	"github.com/lekki-ent/marquee/internal/display"
	"github.com/lekki-ent/marquee/internal/tick"
	"github.com/lekki-ent/marquee/internal/tui"
)

func (c *cli) countdownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "countdown",
		Short: "Print the time left until the next event",
		Long: `Print the time left until the countdown target.

The target is --target, countdown.target from config, or the start of the
next upcoming catalog event. With --follow a line is printed every tick
until the target is reached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			cat, err := catalog.Open(cfg.Catalog.Path)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			// Only the countdown card is printed; keep the hero still.
			cfg.Hero.ReducedMotion = true

			sched := tick.NewScheduler(clock.System, c.logger)
			runDone := make(chan struct{})
			go func() {
				defer close(runDone)
				_ = sched.Run(cmd.Context())
			}()
			defer func() {
				sched.Close()
				<-runDone
			}()

			board, err := display.New(cfg, cat, sched, display.WithLogger(c.logger))
			if err != nil {
				return fmt.Errorf("build display: %w", err)
			}
			defer board.Close("countdown finished")

			out := cmd.OutOrStdout()
			cv := board.Current().Countdown
			fmt.Fprintln(out, countdownLine(cv))

			follow, _ := cmd.Flags().GetBool(FlagFollow)
			if !follow || !cv.Available || cv.Live {
				return nil
			}

			done := make(chan struct{})
			var once sync.Once
			sub, err := sched.Every(cfg.Countdown.Tick, func(now time.Time) {
				cv := board.Snapshot(now).Countdown
				fmt.Fprintln(out, countdownLine(cv))
				if cv.Live || !cv.Available {
					once.Do(func() { close(done) })
				}
			})
			if err != nil {
				return err
			}
			defer sub.Cancel()

			select {
			case <-done:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
	cmd.Flags().String(FlagTarget, "", "Countdown target, ISO-8601 with offset (default: next event)")
	cmd.Flags().Bool(FlagFollow, false, "Keep printing until the target is reached")
	return cmd
}

// countdownLine renders the "Next Up" card as one line of text.
func countdownLine(cv display.CountdownView) string {
	if !cv.Available {
		return cv.Message
	}
	label := "Next Up"
	if cv.Title != "" {
		label += ": " + cv.Title
	}
	if cv.Live {
		return label + " | " + cv.Message
	}
	return label + " | " + tui.Clock(cv.State)
}
