package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lekki-ent/marquee/internal/daemon"
)

// daemonClient connects to the running display. An explicit --socket-path
// wins, then daemon.json, then the configured socket.
func (c *cli) daemonClient(cmd *cobra.Command) (*daemon.Client, error) {
	if cmd.Flags().Changed(FlagSocketPath) {
		return daemon.NewClient(c.v.GetString(FlagSocketPath)), nil
	}
	if info, err := daemon.FindInfo(""); err == nil {
		return daemon.NewClient(info.SocketPath), nil
	}
	cfg, _, err := c.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return daemon.NewClient(cfg.Paths.Socket), nil
}

func (c *cli) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running display's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.daemonClient(cmd)
			if err != nil {
				return err
			}
			status, err := client.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool(FlagJSON); asJSON {
				return printJSON(out, status)
			}

			fmt.Fprintf(out, "Status: %s\n", status.Status)
			fmt.Fprintf(out, "PID: %d\n", status.PID)
			fmt.Fprintf(out, "Uptime: %s\n", status.Uptime)
			fmt.Fprintf(out, "Started: %s\n", status.StartTime)
			if status.HTTPAddr != "" {
				fmt.Fprintf(out, "Site: http://%s/\n", status.HTTPAddr)
			}
			fmt.Fprintf(out, "Live clients: %d\n", status.Clients)
			fmt.Fprintf(out, "Countdown: %s\n", countdownLine(status.Display.Countdown))
			if h := status.Display.Hero; h.Available {
				mode := "manual"
				if h.Automatic {
					mode = "automatic"
				}
				fmt.Fprintf(out, "Hero: slide %d/%d (%s) %s\n", h.Index+1, h.Total, mode, h.Slide.Alt)
			} else {
				fmt.Fprintf(out, "Hero: no slides\n")
			}
			return nil
		},
	}
	cmd.Flags().Bool(FlagJSON, false, "Output status as JSON")
	return cmd
}

func (c *cli) heroCmd() *cobra.Command {
	heroCmd := &cobra.Command{
		Use:   "hero",
		Short: "Navigate the running hero display",
	}

	nextCmd := &cobra.Command{
		Use:   "next",
		Short: "Advance to the next slide",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.daemonClient(cmd)
			if err != nil {
				return err
			}
			resp, err := client.HeroNext()
			if err != nil {
				return err
			}
			printHero(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	prevCmd := &cobra.Command{
		Use:   "prev",
		Short: "Go back one slide",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.daemonClient(cmd)
			if err != nil {
				return err
			}
			resp, err := client.HeroPrev()
			if err != nil {
				return err
			}
			printHero(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	jumpCmd := &cobra.Command{
		Use:   "jump <n>",
		Short: "Show slide n (1-based; out-of-range values wrap)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid slide number %q", args[0])
			}
			client, err := c.daemonClient(cmd)
			if err != nil {
				return err
			}
			resp, err := client.HeroJump(n - 1)
			if err != nil {
				return err
			}
			printHero(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	heroCmd.AddCommand(nextCmd, prevCmd, jumpCmd)
	return heroCmd
}

func printHero(w io.Writer, resp *daemon.HeroResponse) {
	fmt.Fprintf(w, "Hero: slide %d/%d %s\n", resp.Index+1, resp.Hero.Total, resp.Hero.Slide.Alt)
}

func (c *cli) stopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running display",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.daemonClient(cmd)
			if err != nil {
				return err
			}

			force, _ := cmd.Flags().GetBool(FlagForce)
			if err := client.Stop(force); err != nil {
				return err
			}

			if force {
				fmt.Fprintln(cmd.OutOrStdout(), "Stop requested - display stopping immediately")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Stop requested - display will shut down gracefully")
			}
			return nil
		},
	}
	cmd.Flags().Bool(FlagForce, false, "Stop without the grace delay")
	return cmd
}

// logPath finds the event log: daemon.json first, then config.
func (c *cli) logPath(cmd *cobra.Command) (string, error) {
	if !cmd.Flags().Changed(FlagLogFile) {
		if info, err := daemon.FindInfo(""); err == nil && info.LogPath != "" {
			return info.LogPath, nil
		}
	}
	cfg, _, err := c.loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.Paths.Log, nil
}
