package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekki-ent/marquee/internal/catalog"
)

func (c *cli) openCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	cfg, _, err := c.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return cat, nil
}

func (c *cli) eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List catalog events",
		RunE: func(cmd *cobra.Command, args []string) error {
			upcomingOnly, _ := cmd.Flags().GetBool(FlagUpcoming)
			pastOnly, _ := cmd.Flags().GetBool(FlagPast)
			if upcomingOnly && pastOnly {
				return fmt.Errorf("--upcoming and --past flags are incompatible")
			}

			cat, err := c.openCatalog(cmd)
			if err != nil {
				return err
			}
			now := time.Now()
			out := cmd.OutOrStdout()

			if asJSON, _ := cmd.Flags().GetBool(FlagJSON); asJSON {
				list := cat.All()
				switch {
				case upcomingOnly:
					list = cat.Upcoming(now)
				case pastOnly:
					list = cat.Past(now)
				}
				if list == nil {
					list = []catalog.Event{}
				}
				return printJSON(out, list)
			}

			if !pastOnly {
				printEventSection(out, "Upcoming Events", cat.Upcoming(now), "Stay tuned — new dates dropping soon.")
			}
			if !upcomingOnly {
				if !pastOnly {
					fmt.Fprintln(out)
				}
				printEventSection(out, "Past Events", cat.Past(now), "We’re just getting started.")
			}
			return nil
		},
	}
	cmd.Flags().Bool(FlagUpcoming, false, "Only upcoming events")
	cmd.Flags().Bool(FlagPast, false, "Only past events")
	cmd.Flags().Bool(FlagJSON, false, "Output events as JSON")
	return cmd
}

func (c *cli) eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event <slug>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.openCatalog(cmd)
			if err != nil {
				return err
			}
			e, err := cat.Find(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool(FlagJSON); asJSON {
				return printJSON(out, e)
			}

			fmt.Fprintf(out, "%s\n", e.Title)
			fmt.Fprintf(out, "Date: %s\n", catalog.FormatDate(e.Date))
			if e.StartsAt != "" {
				fmt.Fprintf(out, "Starts: %s\n", e.StartsAt)
			}
			fmt.Fprintf(out, "Venue: %s, %s\n", e.Venue, e.City)
			if e.TicketURL != "" {
				fmt.Fprintf(out, "Tickets: %s\n", e.TicketURL)
			}
			fmt.Fprintf(out, "Page: %s\n", e.Href())
			if e.Description != "" {
				fmt.Fprintf(out, "\n%s\n", e.Description)
			}
			if len(e.Photos) > 0 {
				fmt.Fprintf(out, "\nPhotos:\n")
				for i, p := range e.Photos {
					fmt.Fprintf(out, "  %s  %s\n", p.Src, e.PhotoAlt(i))
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool(FlagJSON, false, "Output the event as JSON")
	return cmd
}

func (c *cli) galleryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "List gallery photos across all events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.openCatalog(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt(FlagLimit)
			photos := cat.Highlights(limit)

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool(FlagJSON); asJSON {
				if photos == nil {
					photos = []catalog.Photo{}
				}
				return printJSON(out, photos)
			}
			if len(photos) == 0 {
				fmt.Fprintln(out, "Photos coming soon.")
				return nil
			}
			for _, p := range photos {
				fmt.Fprintf(out, "%s  %s\n", p.Src, p.Alt)
			}
			return nil
		},
	}
	cmd.Flags().Int(FlagLimit, 0, "Maximum photos to list (0 = all)")
	cmd.Flags().Bool(FlagJSON, false, "Output photos as JSON")
	return cmd
}

func printEventSection(w io.Writer, heading string, list []catalog.Event, empty string) {
	fmt.Fprintf(w, "%s\n", heading)
	if len(list) == 0 {
		fmt.Fprintf(w, "  %s\n", empty)
		return
	}
	for _, e := range list {
		fmt.Fprintf(w, "  %-14s %-32s %s, %s  %s\n",
			catalog.FormatDate(e.Date), e.Title, e.Venue, e.City, e.Href())
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
