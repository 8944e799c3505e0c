package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lekki-ent/marquee/internal/config"
	"github.com/lekki-ent/marquee/internal/testutil"
)

func TestSetupTUILogger(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		level    slog.Level
		log      func(l *slog.Logger)
		want     []string
		notWant  []string
	}{
		{
			name:  "json lines in the debug log",
			level: slog.LevelInfo,
			log:   func(l *slog.Logger) { l.Info("slide changed", "slide", 2) },
			want:  []string{`"msg":"slide changed"`, `"slide":2`},
		},
		{
			name:     "keeps earlier sessions",
			existing: "previous session\n",
			level:    slog.LevelInfo,
			log:      func(l *slog.Logger) { l.Info("display started") },
			want:     []string{"previous session", "display started"},
		},
		{
			name:    "drops records below the level",
			level:   slog.LevelWarn,
			log:     func(l *slog.Logger) { l.Info("tick"); l.Warn("countdown unavailable") },
			want:    []string{"countdown unavailable"},
			notWant: []string{`"msg":"tick"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.existing != "" {
				testutil.WriteFile(t, dir, debugLogName, tt.existing)
			}

			result, err := SetupTUILogger(dir, tt.level, config.Default().LogRotation)
			if err != nil {
				t.Fatalf("SetupTUILogger: %v", err)
			}
			if result.FilePath != filepath.Join(dir, debugLogName) {
				t.Errorf("FilePath = %q", result.FilePath)
			}
			tt.log(result.Logger)
			if err := result.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			content, err := os.ReadFile(result.FilePath)
			if err != nil {
				t.Fatalf("read log: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(content), w) {
					t.Errorf("log missing %q:\n%s", w, content)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(string(content), w) {
					t.Errorf("log should not contain %q:\n%s", w, content)
				}
			}
		})
	}
}

func TestSetupTUILogger_RotationSettings(t *testing.T) {
	rot := config.LogRotationConfig{MaxSizeMB: 5, MaxBackups: 2, MaxAgeDays: 1, Compress: false}

	result, err := SetupTUILogger(t.TempDir(), slog.LevelInfo, rot)
	if err != nil {
		t.Fatalf("SetupTUILogger: %v", err)
	}
	defer func() { _ = result.Close() }()

	lj, ok := result.LogFile.(*lumberjack.Logger)
	if !ok {
		t.Fatalf("LogFile is %T, want *lumberjack.Logger", result.LogFile)
	}
	if lj.MaxSize != 5 || lj.MaxBackups != 2 || lj.MaxAge != 1 || lj.Compress {
		t.Errorf("rotation = %+v", lj)
	}
}

func TestNewJSONLogger_FollowsLevelVar(t *testing.T) {
	var buf bytes.Buffer
	level := &slog.LevelVar{}
	logger := newJSONLogger(&buf, level)

	logger.Debug("before verbose")
	level.Set(slog.LevelDebug)
	logger.Debug("after verbose", "command", "serve")

	out := buf.String()
	if strings.Contains(out, "before verbose") {
		t.Errorf("debug record logged at info level: %s", out)
	}
	if !strings.Contains(out, `"command":"serve"`) {
		t.Errorf("debug record missing after level change: %s", out)
	}
}
