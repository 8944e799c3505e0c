// Package initcmd scaffolds a marquee project: a commented config file, an
// editable copy of the event catalog and a .gitignore block for the files
// marquee serve writes at runtime.
package initcmd

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lekki-ent/marquee/internal/catalog"
	"github.com/lekki-ent/marquee/internal/config"
)

//go:embed templates/*
var templateFS embed.FS

// Options configures the init command behavior.
type Options struct {
	DryRun  bool
	Force   bool // Overwrite changed files, keeping a timestamped backup
	Minimal bool // Config file only
	Global  bool // Write the global config instead of the project files
	Writer  io.Writer
	Now     func() time.Time // Backup timestamps; defaults to time.Now
}

// InstallFile is one file to be installed, relative to the target directory.
type InstallFile struct {
	Path     string
	Content  string
	IsAppend bool // Maintain a managed block instead of owning the file
}

// Result contains the outcome of the init operation.
type Result struct {
	TargetDir   string
	Created     []string
	Appended    []string
	Skipped     []string
	Unchanged   []string
	Overwritten []string
	Backups     []string
}

// FileStatus is the state of an owned file on disk.
type FileStatus struct {
	Path      string
	Exists    bool
	Unchanged bool
	Diff      string
}

// projectCatalogPath is where the editable catalog copy goes.
var projectCatalogPath = filepath.Join(config.ProjectConfigDir, "events.yaml")

// BuildFileList returns the files to install for opts.
func BuildFileList(opts Options) ([]InstallFile, error) {
	if opts.Global {
		content, err := renderConfig("")
		if err != nil {
			return nil, err
		}
		return []InstallFile{
			{Path: filepath.Join(config.GlobalConfigDir, config.GlobalConfigFile), Content: content},
		}, nil
	}

	catalogPath := projectCatalogPath
	if opts.Minimal {
		catalogPath = ""
	}
	content, err := renderConfig(catalogPath)
	if err != nil {
		return nil, err
	}

	files := []InstallFile{
		{Path: filepath.Join(config.ProjectConfigDir, config.ProjectConfigFile), Content: content},
	}
	if !opts.Minimal {
		files = append(files, InstallFile{Path: projectCatalogPath, Content: string(catalog.EmbeddedSource())})
	}
	files = append(files, InstallFile{
		Path:     ".gitignore",
		Content:  strings.TrimRight(mustReadTemplate("gitignore.txt"), "\n"),
		IsAppend: true,
	})
	return files, nil
}

// Run executes the init command with the given options.
func Run(opts Options) (*Result, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	targetDir, err := getTargetDir(opts.Global)
	if err != nil {
		return nil, err
	}

	files, err := BuildFileList(opts)
	if err != nil {
		return nil, err
	}

	statuses := checkFileStatuses(targetDir, files)

	if opts.DryRun {
		return showDryRun(opts.Writer, targetDir, files, statuses)
	}

	for _, s := range statuses {
		if s.Exists && !s.Unchanged && !opts.Force {
			return showChanges(opts.Writer, targetDir, statuses)
		}
	}

	return installFiles(opts, targetDir, files, statuses)
}

// getTargetDir is the project root (the working directory) or the XDG
// config home for --global.
func getTargetDir(global bool) (string, error) {
	if global {
		return config.ConfigHome()
	}
	return ".", nil
}

// checkFileStatuses compares each owned file against what is on disk.
func checkFileStatuses(targetDir string, files []InstallFile) []FileStatus {
	var statuses []FileStatus
	for _, f := range files {
		if f.IsAppend {
			continue
		}

		status := FileStatus{Path: f.Path}
		existing, err := os.ReadFile(filepath.Join(targetDir, f.Path))
		if err == nil {
			status.Exists = true
			if string(existing) == f.Content {
				status.Unchanged = true
			} else {
				status.Diff = UnifiedDiff("existing", "new", string(existing), f.Content)
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func showDryRun(w io.Writer, targetDir string, files []InstallFile, statuses []FileStatus) (*Result, error) {
	_, _ = fmt.Fprintln(w, "DRY RUN - No changes will be made")
	_, _ = fmt.Fprintln(w)

	result := &Result{TargetDir: targetDir}
	statusMap := statusByPath(statuses)

	for _, f := range files {
		path := filepath.Join(targetDir, f.Path)

		if f.IsAppend {
			existing := readOptional(path)
			switch {
			case managedSectionMatches(existing, f.Content):
				_, _ = fmt.Fprintf(w, "Already up to date: %s\n", path)
				result.Unchanged = append(result.Unchanged, f.Path)
			case hasManagedSection(existing):
				_, _ = fmt.Fprintf(w, "Would update managed section: %s\n", path)
				result.Appended = append(result.Appended, f.Path)
			case existing != "":
				_, _ = fmt.Fprintf(w, "Would append to: %s\n", path)
				result.Appended = append(result.Appended, f.Path)
			default:
				_, _ = fmt.Fprintf(w, "Would create: %s\n", path)
				result.Created = append(result.Created, f.Path)
			}
			continue
		}

		status := statusMap[f.Path]
		switch {
		case status.Exists && status.Unchanged:
			_, _ = fmt.Fprintf(w, "Already up to date: %s\n", path)
			result.Unchanged = append(result.Unchanged, f.Path)
		case status.Exists:
			_, _ = fmt.Fprintf(w, "Would overwrite (has changes): %s\n", path)
			_, _ = fmt.Fprintln(w, status.Diff)
			result.Skipped = append(result.Skipped, f.Path)
		default:
			_, _ = fmt.Fprintf(w, "Would create: %s\n", path)
			result.Created = append(result.Created, f.Path)
		}
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Run without --dry-run to apply changes.")
	return result, nil
}

// showChanges prints the diffs that block a non-forced install.
func showChanges(w io.Writer, targetDir string, statuses []FileStatus) (*Result, error) {
	result := &Result{TargetDir: targetDir}

	_, _ = fmt.Fprintln(w, "The following files have changes:")
	_, _ = fmt.Fprintln(w)
	for _, s := range statuses {
		if !s.Exists {
			continue
		}
		if s.Unchanged {
			result.Unchanged = append(result.Unchanged, s.Path)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s:\n", filepath.Join(targetDir, s.Path))
		_, _ = fmt.Fprintln(w, s.Diff)
		result.Skipped = append(result.Skipped, s.Path)
	}

	_, _ = fmt.Fprintln(w, "Use --force to overwrite changed files (a backup is kept).")
	return result, fmt.Errorf("files have changes (use --force to overwrite)")
}

func installFiles(opts Options, targetDir string, files []InstallFile, statuses []FileStatus) (*Result, error) {
	w := opts.Writer
	result := &Result{TargetDir: targetDir}
	statusMap := statusByPath(statuses)
	changed := false

	for _, f := range files {
		path := filepath.Join(targetDir, f.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return result, fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
		}

		if f.IsAppend {
			existing := readOptional(path)
			if managedSectionMatches(existing, f.Content) {
				_, _ = fmt.Fprintf(w, "Already up to date: %s\n", path)
				result.Unchanged = append(result.Unchanged, f.Path)
				continue
			}
			if err := os.WriteFile(path, []byte(handleManagedSection(existing, f.Content)+"\n"), 0644); err != nil {
				return result, fmt.Errorf("write %s: %w", path, err)
			}
			switch {
			case hasManagedSection(existing):
				_, _ = fmt.Fprintf(w, "Updated: %s\n", path)
			case existing != "":
				_, _ = fmt.Fprintf(w, "Appended: %s\n", path)
			default:
				_, _ = fmt.Fprintf(w, "Created: %s\n", path)
			}
			result.Appended = append(result.Appended, f.Path)
			changed = true
			continue
		}

		status := statusMap[f.Path]
		if status.Exists && status.Unchanged {
			_, _ = fmt.Fprintf(w, "Already up to date: %s\n", path)
			result.Unchanged = append(result.Unchanged, f.Path)
			continue
		}
		if status.Exists {
			backup := fmt.Sprintf("%s.bak-%s", path, opts.Now().Format("20060102-150405"))
			if err := os.Rename(path, backup); err != nil {
				return result, fmt.Errorf("back up %s: %w", path, err)
			}
			result.Backups = append(result.Backups, backup)
		}
		if err := os.WriteFile(path, []byte(f.Content), 0644); err != nil {
			return result, fmt.Errorf("write %s: %w", path, err)
		}
		if status.Exists {
			_, _ = fmt.Fprintf(w, "Overwritten: %s (backup: %s)\n", path, filepath.Base(result.Backups[len(result.Backups)-1]))
			result.Overwritten = append(result.Overwritten, f.Path)
		} else {
			_, _ = fmt.Fprintf(w, "Created: %s\n", path)
			result.Created = append(result.Created, f.Path)
		}
		changed = true
	}

	_, _ = fmt.Fprintln(w)
	if !changed {
		_, _ = fmt.Fprintln(w, "marquee configuration is already up to date.")
		return result, nil
	}
	_, _ = fmt.Fprintln(w, "marquee configuration initialized.")
	if !opts.Global {
		_, _ = fmt.Fprintln(w, "Run 'marquee serve' to start the site and live display.")
	}
	return result, nil
}

const (
	managedSectionBegin = "# <marquee-managed>"
	managedSectionEnd   = "# </marquee-managed>"
)

// handleManagedSection replaces the managed block in existingContent, or
// appends newSection when there is none.
func handleManagedSection(existingContent, newSection string) string {
	beginIdx := strings.Index(existingContent, managedSectionBegin)
	endIdx := strings.Index(existingContent, managedSectionEnd)

	if beginIdx >= 0 && endIdx > beginIdx {
		before := strings.TrimRight(existingContent[:beginIdx], "\n")
		after := strings.TrimLeft(existingContent[endIdx+len(managedSectionEnd):], "\n")

		parts := []string{}
		if before != "" {
			parts = append(parts, before)
		}
		parts = append(parts, newSection)
		if after = strings.TrimRight(after, "\n"); after != "" {
			parts = append(parts, after)
		}
		return strings.Join(parts, "\n\n")
	}

	if existingContent != "" {
		return strings.TrimRight(existingContent, "\n") + "\n\n" + newSection
	}
	return newSection
}

func hasManagedSection(content string) bool {
	return strings.Contains(content, managedSectionBegin) && strings.Contains(content, managedSectionEnd)
}

// managedSectionMatches reports whether content already carries section.
func managedSectionMatches(content, section string) bool {
	if !hasManagedSection(content) {
		return false
	}
	beginIdx := strings.Index(content, managedSectionBegin)
	endIdx := strings.Index(content, managedSectionEnd)
	if endIdx < beginIdx {
		return false
	}
	current := content[beginIdx : endIdx+len(managedSectionEnd)]
	return strings.TrimSpace(current) == strings.TrimSpace(section)
}

// renderConfig fills the config template with the built-in defaults so the
// scaffold always documents the values marquee actually uses.
func renderConfig(catalogPath string) (string, error) {
	return replaceMarkers(mustReadTemplate("config.yaml"), templateValues(config.Default(), catalogPath))
}

func templateValues(cfg *config.Config, catalogPath string) map[string]string {
	return map[string]string{
		"COUNTDOWN_TICK":          cfg.Countdown.Tick.String(),
		"HERO_TITLE":              cfg.Hero.Title,
		"HERO_SUBTITLE":           cfg.Hero.Subtitle,
		"HERO_INTERVAL":           cfg.Hero.Interval.String(),
		"HERO_MAX_SLIDES":         strconv.Itoa(cfg.Hero.MaxSlides),
		"CATALOG_PATH":            catalogPath,
		"GALLERY_WALL_LIMIT":      strconv.Itoa(cfg.Gallery.WallLimit),
		"GALLERY_HIGHLIGHT_LIMIT": strconv.Itoa(cfg.Gallery.HighlightLimit),
		"SERVER_ADDR":             cfg.Server.Addr,
		"SERVER_PUSH_INTERVAL":    cfg.Server.PushInterval.String(),
		"SERVER_SHUTDOWN_TIMEOUT": cfg.Server.ShutdownTimeout.String(),
		"PATHS_LOG":               cfg.Paths.Log,
		"PATHS_SOCKET":            cfg.Paths.Socket,
		"PATHS_PID":               cfg.Paths.PID,
		"ROTATION_MAX_SIZE_MB":    strconv.Itoa(cfg.LogRotation.MaxSizeMB),
		"ROTATION_MAX_BACKUPS":    strconv.Itoa(cfg.LogRotation.MaxBackups),
		"ROTATION_MAX_AGE_DAYS":   strconv.Itoa(cfg.LogRotation.MaxAgeDays),
		"ROTATION_COMPRESS":       strconv.FormatBool(cfg.LogRotation.Compress),
	}
}

var markerRegex = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// replaceMarkers substitutes {{ NAME }} placeholders from values. Unknown
// markers are an error.
func replaceMarkers(content string, values map[string]string) (string, error) {
	var missing []string
	result := markerRegex.ReplaceAllStringFunc(content, func(match string) string {
		name := markerRegex.FindStringSubmatch(match)[1]
		if v, ok := values[name]; ok {
			return v
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved markers: %v", missing)
	}
	return result, nil
}

func mustReadTemplate(name string) string {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		panic("failed to read embedded template: " + err.Error())
	}
	return string(data)
}

func statusByPath(statuses []FileStatus) map[string]FileStatus {
	m := make(map[string]FileStatus, len(statuses))
	for _, s := range statuses {
		m[s.Path] = s
	}
	return m
}

func readOptional(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
