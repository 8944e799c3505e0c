package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lekki-ent/marquee/internal/config"
)

// Info is written to daemon.json so CLI commands run from any directory of
// the project can find the socket.
type Info struct {
	SocketPath string    `json:"socket_path"`
	PIDPath    string    `json:"pid_path"`
	LogPath    string    `json:"log_path"`
	HTTPAddr   string    `json:"http_addr,omitempty"`
	StartTime  time.Time `json:"start_time"`
	PID        int       `json:"pid"`
}

const infoFile = "daemon.json"

// projectMarkers are directories that indicate the project root.
var projectMarkers = []string{".git", config.ProjectConfigDir}

// ResolvePaths makes relative paths absolute against basePath, or the
// working directory when basePath is empty.
func ResolvePaths(paths config.PathsConfig, basePath string) (config.PathsConfig, error) {
	if basePath == "" {
		var err error
		basePath, err = os.Getwd()
		if err != nil {
			return paths, fmt.Errorf("get working directory: %w", err)
		}
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(basePath, p)
	}

	return config.PathsConfig{
		Log:    resolve(paths.Log),
		Socket: resolve(paths.Socket),
		PID:    resolve(paths.PID),
	}, nil
}

// FindProjectRoot walks up from startDir to the nearest directory holding
// a project marker. Without one it returns startDir made absolute.
func FindProjectRoot(startDir string) string {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return "."
		}
	}

	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return startDir
	}

	for dir := absDir; ; {
		for _, marker := range projectMarkers {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir
		}
		dir = parent
	}
}

// InfoPath returns the daemon.json location under projectRoot.
func InfoPath(projectRoot string) string {
	return filepath.Join(projectRoot, config.ProjectConfigDir, infoFile)
}

// FindInfo reads daemon.json from the project containing startDir.
func FindInfo(startDir string) (*Info, error) {
	path := InfoPath(FindProjectRoot(startDir))
	info, err := ReadInfo(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("daemon info not found (checked %s)", path)
		}
		return nil, err
	}
	return info, nil
}

// WriteInfo writes info to path, creating the directory as needed.
func WriteInfo(path string, info *Info) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal daemon info: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write daemon info: %w", err)
	}
	return nil
}

// ReadInfo reads daemon.json from path.
func ReadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read daemon info: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal daemon info: %w", err)
	}
	return &info, nil
}

// RemoveInfo deletes daemon.json. A missing file is not an error.
func RemoveInfo(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove daemon info: %w", err)
	}
	return nil
}
