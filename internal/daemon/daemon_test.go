package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lekki-ent/marquee/internal/config"
	"github.com/lekki-ent/marquee/internal/display"
	"github.com/lekki-ent/marquee/internal/rotation"
	"github.com/lekki-ent/marquee/internal/testutil"
)

// fakeBoard is a three-slide board.
type fakeBoard struct {
	mu    sync.Mutex
	index int
	total int
	err   error
}

func (b *fakeBoard) Current() display.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return display.Snapshot{
		Countdown: display.CountdownView{Available: true, Title: "Next Night"},
		Hero: display.HeroView{
			Available: b.total > 0,
			Index:     b.index,
			Total:     b.total,
			Slide:     rotation.Slide{Image: "/images/1.jpg", Alt: "Event photo"},
		},
	}
}

func (b *fakeBoard) move(to func(i, n int) int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	b.index = to(b.index, b.total)
	return b.index, nil
}

func (b *fakeBoard) Next() (int, error) { return b.move(func(i, n int) int { return (i + 1) % n }) }
func (b *fakeBoard) Prev() (int, error) { return b.move(func(i, n int) int { return (i - 1 + n) % n }) }
func (b *fakeBoard) JumpTo(k int) (int, error) {
	return b.move(func(_, n int) int { return ((k % n) + n) % n })
}

// shortSocketPath returns a socket path under the system temp dir, short
// enough for the 104/108 byte sun_path limit.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "mq")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	_ = f.Close()
	_ = os.Remove(path)
	t.Cleanup(func() { _ = os.Remove(path) })
	return path
}

// startDaemon runs a daemon until the test ends.
func startDaemon(t *testing.T, board Board, opts ...Option) (*Daemon, *Client) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.Socket = shortSocketPath(t)

	d := New(cfg, board, nil, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("daemon did not stop")
		}
	})

	if err := waitForSocketReady(cfg.Paths.Socket, 2*time.Second); err != nil {
		t.Fatalf("socket not ready: %v", err)
	}
	return d, NewClient(cfg.Paths.Socket)
}

func TestDaemon_StartStop(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Socket = shortSocketPath(t)
	d := New(cfg, &fakeBoard{total: 3}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()

	if err := waitForSocketReady(cfg.Paths.Socket, 2*time.Second); err != nil {
		t.Fatalf("socket not ready: %v", err)
	}
	if !d.Running() {
		t.Error("daemon should be running after Start")
	}
	if d.StartTime().IsZero() {
		t.Error("start time should be set")
	}
	if err := d.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	if d.Running() {
		t.Error("daemon should not be running after cancel")
	}
	if testutil.FileExists(t, cfg.Paths.Socket) {
		t.Error("socket should be removed on stop")
	}
	if err := d.Stop(); err != nil {
		t.Errorf("second Stop returned %v", err)
	}
}

func TestDaemon_StartCreatesSocketDir(t *testing.T) {
	// Keep the path short: a nested dir under /tmp.
	dir, err := os.MkdirTemp("", "mq")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	cfg := config.Default()
	cfg.Paths.Socket = dir + "/run/m.sock"
	d := New(cfg, &fakeBoard{total: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Start(ctx) }()

	if err := waitForSocketReady(cfg.Paths.Socket, 2*time.Second); err != nil {
		t.Fatalf("socket not ready: %v", err)
	}
	info, err := os.Stat(cfg.Paths.Socket)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != socketPermissions {
		t.Errorf("expected socket mode %o, got %o", socketPermissions, perm)
	}
}

func TestDaemon_Status(t *testing.T) {
	board := &fakeBoard{total: 3, index: 1}
	_, client := startDaemon(t, board,
		WithHTTPAddr("127.0.0.1:8080"),
		WithClientCount(func() int { return 4 }),
	)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Status != "running" {
		t.Errorf("expected running, got %q", status.Status)
	}
	if status.PID != os.Getpid() {
		t.Errorf("expected pid %d, got %d", os.Getpid(), status.PID)
	}
	if status.HTTPAddr != "127.0.0.1:8080" || status.Clients != 4 {
		t.Errorf("unexpected addr/clients: %q %d", status.HTTPAddr, status.Clients)
	}
	if status.Display.Countdown.Title != "Next Night" || status.Display.Hero.Index != 1 {
		t.Errorf("unexpected display %+v", status.Display)
	}
	if _, err := time.Parse(time.RFC3339, status.StartTime); err != nil {
		t.Errorf("start time not RFC 3339: %v", err)
	}
}

func TestDaemon_HeroNavigation(t *testing.T) {
	board := &fakeBoard{total: 3}
	_, client := startDaemon(t, board)

	steps := []struct {
		name string
		call func() (*HeroResponse, error)
		want int
	}{
		{"next", client.HeroNext, 1},
		{"next again", client.HeroNext, 2},
		{"next wraps", client.HeroNext, 0},
		{"prev wraps", client.HeroPrev, 2},
		{"jump", func() (*HeroResponse, error) { return client.HeroJump(1) }, 1},
		{"jump wraps", func() (*HeroResponse, error) { return client.HeroJump(-1) }, 2},
		{"jump zero", func() (*HeroResponse, error) { return client.HeroJump(0) }, 0},
	}
	for _, st := range steps {
		resp, err := st.call()
		if err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		if resp.Index != st.want || resp.Hero.Index != st.want {
			t.Errorf("%s: expected index %d, got %d/%d", st.name, st.want, resp.Index, resp.Hero.Index)
		}
	}
}

func TestDaemon_HeroErrors(t *testing.T) {
	board := &fakeBoard{total: 3, err: display.ErrNoHero}
	_, client := startDaemon(t, board)

	_, err := client.HeroNext()
	if err == nil || !strings.Contains(err.Error(), display.ErrNoHero.Error()) {
		t.Errorf("expected no-hero error, got %v", err)
	}
}

func TestDaemon_NoBoard(t *testing.T) {
	_, client := startDaemon(t, nil)

	if _, err := client.Status(); err == nil || !strings.Contains(err.Error(), "no display available") {
		t.Errorf("expected no display error, got %v", err)
	}
	if _, err := client.HeroPrev(); err == nil {
		t.Error("expected error without a board")
	}
}

// rawCall sends a raw line and decodes the response.
func rawCall(t *testing.T, sockPath, line string) Response {
	t.Helper()
	conn, err := net.DialTimeout("unix", sockPath, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestDaemon_ProtocolErrors(t *testing.T) {
	d, _ := startDaemon(t, &fakeBoard{total: 3})

	tests := []struct {
		name string
		line string
		want string
	}{
		{"malformed", `{"method":`, "decode error"},
		{"unknown method", `{"method":"pause","id":7}`, "unknown method: pause"},
		{"jump without index", `{"method":"hero.jump"}`, "requires an index"},
		{"jump bad params", `{"method":"hero.jump","params":{"index":"two"}}`, "invalid params"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := rawCall(t, d.SocketPath(), tt.line)
			if !strings.Contains(resp.Error, tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, resp.Error)
			}
		})
	}

	resp := rawCall(t, d.SocketPath(), `{"method":"status","id":42}`)
	if resp.ID != 42 {
		t.Errorf("expected echoed id 42, got %d", resp.ID)
	}
}

func TestDaemon_Stop(t *testing.T) {
	stopped := make(chan struct{})
	d, client := startDaemon(t, &fakeBoard{total: 3}, WithStopFunc(func() { close(stopped) }))

	if err := client.Stop(true); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop callback not invoked")
	}
	testutil.Eventually(t, 2*time.Second, func() bool { return !d.Running() }, "daemon stopped")
	if client.IsRunning() {
		t.Error("socket should be closed after stop")
	}
}
