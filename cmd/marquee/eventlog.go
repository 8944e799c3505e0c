package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekki-ent/marquee/internal/events"
)

const followPollInterval = 100 * time.Millisecond

func (c *cli) logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "View recent display events",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.logPath(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if follow, _ := cmd.Flags().GetBool(FlagFollow); follow {
				return tailFollow(cmd.Context(), out, path)
			}
			count, _ := cmd.Flags().GetInt(FlagCount)
			return tailLast(out, path, count)
		},
	}
	cmd.Flags().BoolP(FlagFollow, "f", false, "Follow event stream (like tail -f)")
	cmd.Flags().IntP(FlagCount, "n", 20, "Number of recent events to show")
	return cmd
}

// tailLast prints the last n lines of the event log.
func tailLast(w io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(w, "No events yet (log file does not exist)")
			return nil
		}
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	if len(lines) == 0 {
		fmt.Fprintln(w, "No events yet")
		return nil
	}

	start := 0
	if n > 0 && len(lines) > n {
		start = len(lines) - n
	}
	for _, line := range lines[start:] {
		printEventLine(w, line)
	}
	return nil
}

// waitForFile polls until path exists and returns it opened.
func waitForFile(ctx context.Context, path string) (*os.File, error) {
	ticker := time.NewTicker(5 * followPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			file, err := os.Open(path)
			if err == nil {
				return file, nil
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open file: %w", err)
			}
		}
	}
}

// tailFollow prints lines appended to the event log until ctx is done.
func tailFollow(ctx context.Context, w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("open log file: %w", err)
		}
		fmt.Fprintln(w, "Waiting for log file to be created...")
		file, err = waitForFile(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	fmt.Fprintln(w, "Following events (Ctrl+C to stop)...")
	reader := bufio.NewReader(file)
	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		chunk, err := reader.ReadString('\n')
		partial += chunk
		if err != nil {
			if err != io.EOF {
				return fmt.Errorf("read log: %w", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(followPollInterval):
			}
			continue
		}
		printEventLine(w, strings.TrimSuffix(partial, "\n"))
		partial = ""
	}
}

// logEntry holds the union of fields the display events write.
type logEntry struct {
	Type      events.EventType  `json:"type"`
	Timestamp string            `json:"timestamp"`
	Source    string            `json:"source"`
	Title     string            `json:"countdown_title"`
	Target    string            `json:"target"`
	Slides    int               `json:"slides"`
	Fallback  bool              `json:"fallback"`
	Reason    string            `json:"reason"`
	To        int               `json:"to"`
	Total     int               `json:"total"`
	Cause     events.SlideCause `json:"cause"`
	Command   string            `json:"command"`
	Index     *int              `json:"index"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Severity  string            `json:"severity"`
}

// printEventLine prints one log line as "[15:04:05] type: detail". Lines
// that are not JSON are printed unchanged.
func printEventLine(w io.Writer, line string) {
	var e logEntry
	if err := json.Unmarshal([]byte(line), &e); err != nil || e.Type == "" {
		fmt.Fprintln(w, line)
		return
	}

	timestamp := e.Timestamp
	if t, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
		timestamp = t.Format("15:04:05")
	}

	var detail string
	switch e.Type {
	case events.EventDisplayStart:
		if e.Fallback {
			detail = fmt.Sprintf("slides=%d schedule unavailable", e.Slides)
		} else {
			detail = fmt.Sprintf("slides=%d target=%s", e.Slides, e.Target)
		}
	case events.EventDisplayStop:
		detail = e.Reason
	case events.EventCountdownReached:
		detail = fmt.Sprintf("target=%s", e.Target)
	case events.EventSlideChanged:
		detail = fmt.Sprintf("slide=%d/%d cause=%s", e.To+1, e.Total, e.Cause)
	case events.EventControl:
		detail = e.Command
		if e.Index != nil {
			detail = fmt.Sprintf("%s index=%d", detail, *e.Index)
		}
		if e.Error != "" {
			detail = fmt.Sprintf("%s failed: %s", detail, e.Error)
		}
	case events.EventError:
		detail = e.Message
		if e.Severity != "" {
			detail = fmt.Sprintf("%s (%s)", detail, e.Severity)
		}
	default:
		detail = e.Message
	}

	if detail != "" {
		fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, e.Type, detail)
	} else {
		fmt.Fprintf(w, "[%s] %s\n", timestamp, e.Type)
	}
}
