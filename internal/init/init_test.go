package initcmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/lekki-ent/marquee/internal/catalog"
	"github.com/lekki-ent/marquee/internal/config"
	"github.com/lekki-ent/marquee/internal/testutil"
)

var fixedNow = func() time.Time { return testutil.Epoch }

// inProject runs the test from an empty project directory with an isolated
// XDG config home.
func inProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Chdir(dir)
	return dir
}

func TestBuildFileList(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantPaths []string
	}{
		{
			name:      "project",
			opts:      Options{},
			wantPaths: []string{".marquee/config.yaml", ".marquee/events.yaml", ".gitignore"},
		},
		{
			name:      "minimal",
			opts:      Options{Minimal: true},
			wantPaths: []string{".marquee/config.yaml", ".gitignore"},
		},
		{
			name:      "global",
			opts:      Options{Global: true},
			wantPaths: []string{"marquee/config.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := BuildFileList(tt.opts)
			if err != nil {
				t.Fatalf("BuildFileList: %v", err)
			}
			if len(files) != len(tt.wantPaths) {
				t.Fatalf("got %d files, want %d", len(files), len(tt.wantPaths))
			}
			for i, f := range files {
				if f.Path != filepath.FromSlash(tt.wantPaths[i]) {
					t.Errorf("files[%d].Path = %q, want %q", i, f.Path, tt.wantPaths[i])
				}
				if f.IsAppend != (f.Path == ".gitignore") {
					t.Errorf("files[%d].IsAppend = %v", i, f.IsAppend)
				}
				if strings.Contains(f.Content, "{{") {
					t.Errorf("%s has unresolved markers", f.Path)
				}
			}
		})
	}
}

func TestBuildFileList_CatalogPath(t *testing.T) {
	files, err := BuildFileList(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(files[0].Content, `path: ".marquee/events.yaml"`) {
		t.Error("project config should point at the scaffolded catalog")
	}
	if files[1].Content != string(catalog.EmbeddedSource()) {
		t.Error("scaffolded catalog should match the built-in catalog")
	}

	minimal, err := BuildFileList(Options{Minimal: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(minimal[0].Content, `path: ""`) {
		t.Error("minimal config should use the built-in catalog")
	}
}

func TestRun_DryRun(t *testing.T) {
	dir := inProject(t)

	var buf bytes.Buffer
	result, err := Run(Options{DryRun: true, Writer: &buf})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Created) != 3 {
		t.Errorf("Created = %v, want 3 entries", result.Created)
	}
	if !strings.Contains(buf.String(), "DRY RUN") {
		t.Error("dry run banner missing")
	}
	if testutil.FileExists(t, filepath.Join(dir, ".marquee", "config.yaml")) {
		t.Error("dry run must not write files")
	}
}

func TestRun_Install(t *testing.T) {
	dir := inProject(t)

	var buf bytes.Buffer
	result, err := Run(Options{Writer: &buf, Now: fixedNow})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Created) != 2 || len(result.Appended) != 1 {
		t.Errorf("Created = %v, Appended = %v", result.Created, result.Appended)
	}

	for _, p := range []string{".marquee/config.yaml", ".marquee/events.yaml", ".gitignore"} {
		if !testutil.FileExists(t, filepath.Join(dir, p)) {
			t.Errorf("%s not created", p)
		}
	}
	gitignore := testutil.ReadFile(t, filepath.Join(dir, ".gitignore"))
	if !strings.Contains(gitignore, "# <marquee-managed>") || !strings.Contains(gitignore, ".marquee/*.sock") {
		t.Errorf(".gitignore = %q", gitignore)
	}
	if !strings.Contains(buf.String(), "marquee serve") {
		t.Error("completion message should mention marquee serve")
	}
}

func TestRun_Idempotent(t *testing.T) {
	inProject(t)

	if _, err := Run(Options{Writer: &bytes.Buffer{}, Now: fixedNow}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	var buf bytes.Buffer
	result, err := Run(Options{Writer: &buf, Now: fixedNow})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(result.Unchanged) != 3 {
		t.Errorf("Unchanged = %v, want all 3 files", result.Unchanged)
	}
	if len(result.Created)+len(result.Appended)+len(result.Overwritten) != 0 {
		t.Errorf("second run changed files: %+v", result)
	}
	if !strings.Contains(buf.String(), "already up to date") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRun_ChangedFileRequiresForce(t *testing.T) {
	dir := inProject(t)
	testutil.WriteFile(t, filepath.Join(dir, ".marquee"), "config.yaml", "hero:\n  title: Mine\n")

	var buf bytes.Buffer
	result, err := Run(Options{Writer: &buf, Now: fixedNow})
	if err == nil {
		t.Fatal("expected an error for a changed file")
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Errorf("error = %v", err)
	}
	if len(result.Skipped) != 1 {
		t.Errorf("Skipped = %v", result.Skipped)
	}
	if !strings.Contains(buf.String(), "-  title: Mine") {
		t.Errorf("diff not shown: %q", buf.String())
	}
	if got := testutil.ReadFile(t, filepath.Join(dir, ".marquee", "config.yaml")); got != "hero:\n  title: Mine\n" {
		t.Error("changed file must be left alone without --force")
	}
}

func TestRun_ForceKeepsBackup(t *testing.T) {
	dir := inProject(t)
	testutil.WriteFile(t, filepath.Join(dir, ".marquee"), "config.yaml", "hero:\n  title: Mine\n")

	result, err := Run(Options{Force: true, Writer: &bytes.Buffer{}, Now: fixedNow})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Overwritten) != 1 || len(result.Backups) != 1 {
		t.Fatalf("Overwritten = %v, Backups = %v", result.Overwritten, result.Backups)
	}

	wantBackup := filepath.Join(".", ".marquee", "config.yaml.bak-20251004-120000")
	if result.Backups[0] != wantBackup {
		t.Errorf("backup = %q, want %q", result.Backups[0], wantBackup)
	}
	if got := testutil.ReadFile(t, filepath.Join(dir, wantBackup)); got != "hero:\n  title: Mine\n" {
		t.Errorf("backup content = %q", got)
	}
	if got := testutil.ReadFile(t, filepath.Join(dir, ".marquee", "config.yaml")); strings.Contains(got, "Mine") {
		t.Error("config was not overwritten")
	}
}

func TestRun_Global(t *testing.T) {
	dir := inProject(t)

	result, err := Run(Options{Global: true, Writer: &bytes.Buffer{}, Now: fixedNow})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.TargetDir != filepath.Join(dir, "xdg") {
		t.Errorf("TargetDir = %q", result.TargetDir)
	}
	if !testutil.FileExists(t, filepath.Join(dir, "xdg", "marquee", "config.yaml")) {
		t.Error("global config not written")
	}
	if testutil.FileExists(t, filepath.Join(dir, ".gitignore")) {
		t.Error("global install must not touch the project .gitignore")
	}
}

func TestScaffoldedConfigLoads(t *testing.T) {
	inProject(t)

	if _, err := Run(Options{Minimal: true, Writer: &bytes.Buffer{}, Now: fixedNow}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	cfg, err := config.LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	def := config.Default()
	if cfg.Hero.Title != def.Hero.Title || cfg.Hero.Subtitle != def.Hero.Subtitle {
		t.Errorf("hero copy = %q / %q", cfg.Hero.Title, cfg.Hero.Subtitle)
	}
	if cfg.Hero.Interval != def.Hero.Interval || cfg.Countdown.Tick != def.Countdown.Tick {
		t.Errorf("durations = %s / %s", cfg.Hero.Interval, cfg.Countdown.Tick)
	}
	if cfg.Server != def.Server || cfg.Paths != def.Paths || cfg.LogRotation != def.LogRotation {
		t.Errorf("scaffold drifted from defaults: %+v", cfg)
	}
	if cfg.Catalog.Path != "" {
		t.Errorf("Catalog.Path = %q, want built-in", cfg.Catalog.Path)
	}
}

func TestScaffoldedCatalogParses(t *testing.T) {
	dir := inProject(t)

	if _, err := Run(Options{Writer: &bytes.Buffer{}, Now: fixedNow}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	cat, err := catalog.LoadFile(filepath.Join(dir, ".marquee", "events.yaml"))
	if err != nil {
		t.Fatalf("catalog.LoadFile: %v", err)
	}
	if cat.Len() == 0 {
		t.Error("scaffolded catalog has no events")
	}
}

func TestRun_GitignoreAppend(t *testing.T) {
	dir := inProject(t)
	testutil.WriteFile(t, dir, ".gitignore", "node_modules/\n")

	if _, err := Run(Options{Minimal: true, Writer: &bytes.Buffer{}, Now: fixedNow}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := testutil.ReadFile(t, filepath.Join(dir, ".gitignore"))
	if !strings.HasPrefix(got, "node_modules/\n\n# <marquee-managed>") {
		t.Errorf(".gitignore = %q", got)
	}
	if strings.Count(got, "# <marquee-managed>") != 1 {
		t.Error("managed block duplicated")
	}
}

func TestHandleManagedSection(t *testing.T) {
	section := "# <marquee-managed>\nnew\n# </marquee-managed>"

	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{
			name:     "empty file",
			existing: "",
			want:     section,
		},
		{
			name:     "append",
			existing: "dist/\n",
			want:     "dist/\n\n" + section,
		},
		{
			name:     "replace in place",
			existing: "dist/\n\n# <marquee-managed>\nold\n# </marquee-managed>\n\ncoverage/\n",
			want:     "dist/\n\n" + section + "\n\ncoverage/",
		},
		{
			name:     "replace only block",
			existing: "# <marquee-managed>\nold\n# </marquee-managed>\n",
			want:     section,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handleManagedSection(tt.existing, section); got != tt.want {
				t.Errorf("handleManagedSection() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplaceMarkers(t *testing.T) {
	got, err := replaceMarkers("a: {{ A }}\nb: {{B}}\n", map[string]string{"A": "1", "B": "two"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "a: 1\nb: two\n" {
		t.Errorf("replaceMarkers() = %q", got)
	}

	if _, err := replaceMarkers("{{ MISSING }}", nil); err == nil {
		t.Error("expected an error for an unknown marker")
	}
}
