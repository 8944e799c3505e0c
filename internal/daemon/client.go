package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// DefaultClientTimeout bounds one request round trip.
const DefaultClientTimeout = 5 * time.Second

// ErrNotRunning is returned when no daemon is listening on the socket.
var ErrNotRunning = errors.New("marquee is not running")

// Client talks to a running daemon over its Unix socket.
type Client struct {
	sockPath string
	timeout  time.Duration
}

// NewClient creates a client for the socket at sockPath.
func NewClient(sockPath string) *Client {
	return &Client{
		sockPath: sockPath,
		timeout:  DefaultClientTimeout,
	}
}

// SetTimeout sets the timeout for client operations.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// call sends one request and decodes the result into out (when non-nil).
func (c *Client) call(method string, params any, out any) error {
	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return c.wrapConnError(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	if err := json.NewEncoder(conn).Encode(Request{Method: method, Params: params}); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return errors.New("daemon request timed out")
		}
		return fmt.Errorf("read response: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("%s: %s", method, resp.Error)
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// wrapConnError maps dial failures to ErrNotRunning where possible.
func (c *Client) wrapConnError(err error) error {
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		switch sysErr {
		case syscall.ENOENT:
			return fmt.Errorf("%w (socket not found)", ErrNotRunning)
		case syscall.ECONNREFUSED:
			return fmt.Errorf("%w (connection refused)", ErrNotRunning)
		}
	}
	if os.IsNotExist(err) {
		return fmt.Errorf("%w (socket not found)", ErrNotRunning)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return errors.New("daemon request timed out")
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

// Status returns the daemon's uptime and display snapshot.
func (c *Client) Status() (*StatusResponse, error) {
	var status StatusResponse
	if err := c.call(MethodStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// HeroNext advances the hero one slide.
func (c *Client) HeroNext() (*HeroResponse, error) {
	return c.hero(MethodHeroNext, nil)
}

// HeroPrev moves the hero back one slide.
func (c *Client) HeroPrev() (*HeroResponse, error) {
	return c.hero(MethodHeroPrev, nil)
}

// HeroJump shows slide index (zero-based, wrapped by the display).
func (c *Client) HeroJump(index int) (*HeroResponse, error) {
	return c.hero(MethodHeroJump, JumpParams{Index: index})
}

func (c *Client) hero(method string, params any) (*HeroResponse, error) {
	var resp HeroResponse
	if err := c.call(method, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon to shut down. force shortens the grace delay.
func (c *Client) Stop(force bool) error {
	return c.call(MethodStop, StopParams{Force: force}, nil)
}

// IsRunning checks if the daemon is accepting connections.
func (c *Client) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
