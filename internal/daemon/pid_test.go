package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestPIDFile_AcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "marquee.pid")
	p := NewPIDFile(path)

	if err := p.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if got := p.Read(); got != os.Getpid() {
		t.Errorf("expected pid %d, got %d", os.Getpid(), got)
	}
	if !p.Alive() {
		t.Error("own process should be alive")
	}
	if err := p.Acquire(); err != nil {
		t.Errorf("re-acquiring a held lock should be a no-op, got %v", err)
	}

	p.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("pid file should be removed on release")
	}
	p.Release()
}

func TestPIDFile_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marquee.pid")
	first := NewPIDFile(path)
	if err := first.Acquire(); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	second := NewPIDFile(path)
	if err := second.Acquire(); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
}

func TestPIDFile_Read(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"valid", "123\n", 123},
		{"spaces", "  77  ", 77},
		{"garbage", "abc", 0},
		{"negative", "-5", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".pid")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if got := NewPIDFile(path).Read(); got != tt.want {
				t.Errorf("Read() = %d, want %d", got, tt.want)
			}
		})
	}

	if got := NewPIDFile(filepath.Join(dir, "missing.pid")).Read(); got != 0 {
		t.Errorf("missing file should read 0, got %d", got)
	}
}

func TestProcessAlive(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Error("own pid should be alive")
	}
	for _, pid := range []int{0, -1} {
		if processAlive(pid) {
			t.Errorf("pid %d should not be alive", pid)
		}
	}
}

func TestPIDFile_CleanupStale(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "marquee.pid")
	sockPath := filepath.Join(dir, "marquee.sock")

	// PID well above any default pid_max.
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(1<<30)), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sockPath, nil, 0600); err != nil {
		t.Fatal(err)
	}

	if !NewPIDFile(pidPath).CleanupStale(sockPath, "") {
		t.Fatal("expected stale files to be cleaned")
	}
	for _, p := range []string{pidPath, sockPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", p)
		}
	}
}

func TestPIDFile_CleanupStaleKeepsLiveProcess(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "marquee.pid")
	p := NewPIDFile(pidPath)
	if err := p.Acquire(); err != nil {
		t.Fatal(err)
	}
	defer p.Release()

	if NewPIDFile(pidPath).CleanupStale() {
		t.Error("live process files must not be cleaned")
	}
	if _, err := os.Stat(pidPath); err != nil {
		t.Errorf("pid file should remain: %v", err)
	}
}
