package daemon

import (
	"net"
	"os"
	"testing"
	"time"
)

func TestIsDaemonized(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"1", true},
		{"true", false},
	}
	for _, tt := range tests {
		t.Run("value="+tt.value, func(t *testing.T) {
			t.Setenv(daemonEnvVar, tt.value)
			if got := IsDaemonized(); got != tt.want {
				t.Errorf("IsDaemonized() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaemonize_ChildContinues(t *testing.T) {
	t.Setenv(daemonEnvVar, "1")
	shouldExit, pid, err := Daemonize("/nonexistent.sock", os.Stdout)
	if err != nil {
		t.Fatalf("Daemonize failed: %v", err)
	}
	if shouldExit {
		t.Error("child should keep running")
	}
	if pid != os.Getpid() {
		t.Errorf("expected own pid, got %d", pid)
	}
}

func TestWaitForSocketReady(t *testing.T) {
	sockPath := shortSocketPath(t)
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	if err := waitForSocketReady(sockPath, time.Second); err != nil {
		t.Errorf("waitForSocketReady() error: %v", err)
	}
}

func TestWaitForSocketReady_Timeout(t *testing.T) {
	sockPath := shortSocketPath(t)

	start := time.Now()
	err := waitForSocketReady(sockPath, 150*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("returned after %v, before the timeout", elapsed)
	}
}
