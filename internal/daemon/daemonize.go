package daemon

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	// daemonEnvVar marks the re-executed background child.
	daemonEnvVar = "MARQUEE_DAEMONIZED"

	socketWaitTimeout   = 3 * time.Second
	socketCheckInterval = 50 * time.Millisecond
)

// Daemonize re-executes the current command in a new session with
// MARQUEE_DAEMONIZED=1.
//
// In the parent it waits for socketPath to accept connections, reports the
// child's PID on out and returns shouldExit=true. In the child it returns
// shouldExit=false so the caller carries on serving.
func Daemonize(socketPath string, out io.Writer) (shouldExit bool, pid int, err error) {
	if IsDaemonized() {
		return false, os.Getpid(), nil
	}

	executable, err := os.Executable()
	if err != nil {
		return false, 0, fmt.Errorf("get executable path: %w", err)
	}

	cmd := exec.Command(executable, os.Args[1:]...)
	cmd.Env = append(os.Environ(), daemonEnvVar+"=1")
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return false, 0, fmt.Errorf("start daemon: %w", err)
	}
	childPID := cmd.Process.Pid
	_ = cmd.Process.Release()

	if err := waitForSocketReady(socketPath, socketWaitTimeout); err != nil {
		fmt.Fprintf(out, "Started marquee (pid %d), control socket not yet available\n", childPID)
	} else {
		fmt.Fprintf(out, "Started marquee (pid %d)\n", childPID)
	}
	return true, childPID, nil
}

// IsDaemonized reports whether this process is the background child.
func IsDaemonized() bool {
	return os.Getenv(daemonEnvVar) == "1"
}

// waitForSocketReady polls until the socket accepts a connection.
func waitForSocketReady(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("unix", socketPath, socketCheckInterval)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(socketCheckInterval)
	}
	return fmt.Errorf("socket not available after %v", timeout)
}
