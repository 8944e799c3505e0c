package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrLocked is returned when another marquee process holds the PID file.
var ErrLocked = errors.New("marquee already running (pid file locked)")

// PIDFile is an flock-guarded PID file. Holding the lock is what makes a
// process the project's single serving instance.
type PIDFile struct {
	path string
	file *os.File
}

// NewPIDFile creates a PIDFile for path. Nothing is touched on disk.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the PID file path.
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire locks the file and records the current PID. The lock is held
// until Release.
func (p *PIDFile) Acquire() error {
	if p.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create pid directory: %w", err)
	}

	file, err := os.OpenFile(p.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open pid file: %w", err)
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return ErrLocked
		}
		return fmt.Errorf("lock pid file: %w", err)
	}

	if err := writePID(file); err != nil {
		release(file)
		return err
	}
	p.file = file
	return nil
}

func writePID(file *os.File) error {
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncate pid file: %w", err)
	}
	if _, err := file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		return fmt.Errorf("write pid: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync pid file: %w", err)
	}
	return nil
}

// Read returns the recorded PID, or 0 when the file is missing or garbled.
func (p *PIDFile) Read() int {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid < 0 {
		return 0
	}
	return pid
}

// Release unlocks and deletes the file.
func (p *PIDFile) Release() {
	if p.file != nil {
		release(p.file)
		p.file = nil
	}
	_ = os.Remove(p.path)
}

func release(file *os.File) {
	_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	_ = file.Close()
}

// Alive reports whether the recorded process still exists.
func (p *PIDFile) Alive() bool {
	return processAlive(p.Read())
}

// processAlive probes pid with signal 0.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// CleanupStale removes the PID file and leftover sockets of a process that
// died without cleaning up. It does nothing while that process is alive.
func (p *PIDFile) CleanupStale(socketPaths ...string) bool {
	if p.Alive() {
		return false
	}
	_ = os.Remove(p.path)
	for _, s := range socketPaths {
		if s != "" {
			_ = os.Remove(s)
		}
	}
	return true
}
