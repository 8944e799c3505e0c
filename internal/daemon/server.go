package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	// maxMessageSize caps one request at 64KB.
	maxMessageSize = 64 * 1024
	readTimeout    = 10 * time.Second
	// socketPermissions keep the socket private to the owning user.
	socketPermissions = 0600
)

// ErrAlreadyRunning is returned by Start on a daemon that is serving.
var ErrAlreadyRunning = errors.New("control socket already running")

// Start listens on the Unix socket and serves requests until ctx is
// cancelled, then removes the socket.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(d.sockPath), 0755); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	// A socket left by a crashed run would make Listen fail.
	_ = os.Remove(d.sockPath)

	listener, err := net.Listen("unix", d.sockPath)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(d.sockPath, socketPermissions); err != nil {
		_ = listener.Close()
		return fmt.Errorf("set socket permissions: %w", err)
	}

	d.mu.Lock()
	d.listener = listener
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	d.logger.Info("control socket listening", "socket", d.sockPath)

	go d.serve(ctx, listener)

	<-ctx.Done()
	return d.Stop()
}

// Stop closes the listener and removes the socket. Safe to call twice.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}
	d.running = false

	var err error
	if d.listener != nil {
		if cerr := d.listener.Close(); cerr != nil {
			err = fmt.Errorf("close listener: %w", cerr)
		}
		d.listener = nil
	}
	_ = os.Remove(d.sockPath)

	d.logger.Info("control socket closed")
	return err
}

func (d *Daemon) serve(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || !d.Running() || errors.Is(err, net.ErrClosed) {
				return
			}
			d.logger.Error("accept error", "error", err)
			continue
		}
		go d.handleConnection(ctx, conn)
	}
}

// handleConnection answers a single request per connection.
func (d *Daemon) handleConnection(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		d.logger.Error("set read deadline error", "error", err)
		return
	}

	dec := json.NewDecoder(io.LimitReader(conn, maxMessageSize))
	enc := json.NewEncoder(conn)

	var req Request
	if err := dec.Decode(&req); err != nil {
		_ = enc.Encode(Response{Error: fmt.Sprintf("decode error: %v", err)})
		return
	}

	d.logger.Debug("control request", "method", req.Method, "id", req.ID)
	resp := d.handleRequest(ctx, &req)
	resp.ID = req.ID
	if err := enc.Encode(resp); err != nil {
		d.logger.Debug("write response failed", "method", req.Method, "error", err)
	}
}
