// Package daemon exposes a running display to other marquee commands over a
// Unix socket.
package daemon

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/lekki-ent/marquee/internal/config"
	"github.com/lekki-ent/marquee/internal/display"
)

// Board is the display the daemon reports on and navigates.
type Board interface {
	Current() display.Snapshot
	Next() (int, error)
	Prev() (int, error)
	JumpTo(i int) (int, error)
}

// Daemon serves control requests for one display board.
type Daemon struct {
	board    Board
	sockPath string
	logger   *slog.Logger

	httpAddr string
	clients  func() int
	onStop   func()

	startTime time.Time
	listener  net.Listener
	running   bool
	mu        sync.RWMutex
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithHTTPAddr records the web address reported by status.
func WithHTTPAddr(addr string) Option {
	return func(d *Daemon) { d.httpAddr = addr }
}

// WithClientCount reports connected display clients in status.
func WithClientCount(fn func() int) Option {
	return func(d *Daemon) { d.clients = fn }
}

// WithStopFunc is called when a client asks the daemon to stop. It should
// cancel whatever context the process is serving under.
func WithStopFunc(fn func()) Option {
	return func(d *Daemon) { d.onStop = fn }
}

// New creates a Daemon listening on cfg.Paths.Socket.
func New(cfg *config.Config, board Board, logger *slog.Logger, opts ...Option) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{
		board:    board,
		sockPath: cfg.Paths.Socket,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Running returns whether the daemon is currently running.
func (d *Daemon) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// StartTime returns when the daemon was started.
func (d *Daemon) StartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startTime
}

// SocketPath returns the Unix socket path.
func (d *Daemon) SocketPath() string {
	return d.sockPath
}
