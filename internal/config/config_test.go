package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
}

func isolate(t *testing.T) (home, workspace string) {
	t.Helper()
	home = t.TempDir()
	workspace = t.TempDir()
	chdir(t, workspace)
	t.Setenv("HOME", home)
	t.Setenv("DOCMAN_CONFIG_DIR", "")
	t.Setenv("DOCMAN_DB", "")
	t.Setenv("DOCMAN_DATA_DIR", "")
	return home, workspace
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DBPath != "" || cfg.DataDir != "" {
		t.Fatalf("expected empty paths, got %q %q", cfg.DBPath, cfg.DataDir)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Export.DPI != 300 {
		t.Fatalf("expected export dpi 300, got %d", cfg.Export.DPI)
	}
	if cfg.ScanTickInterval() != 100*time.Millisecond {
		t.Fatalf("expected 100ms tick, got %s", cfg.ScanTickInterval())
	}
	if cfg.ScanTimeout() != 5*time.Minute {
		t.Fatalf("expected 5m scan timeout, got %s", cfg.ScanTimeout())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docman.toml")
	if err := os.WriteFile(path, []byte(`data_dir = "/srv/pages"
log_level = "warn"

[codec]
raster_width = 1240

[scan]
command = "scanimage --output-file={output}"
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/srv/pages" {
		t.Fatalf("expected data_dir, got %q", cfg.DataDir)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected log_level 'warn', got %q", cfg.LogLevel)
	}
	if cfg.Codec.RasterWidth != 1240 || cfg.Codec.RasterHeight != DefaultRasterHeight {
		t.Fatalf("unexpected codec config: %+v", cfg.Codec)
	}
	if cfg.Scan.Command != "scanimage --output-file={output}" {
		t.Fatalf("unexpected scan command %q", cfg.Scan.Command)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFile("/nonexistent/path/.docman.toml", &cfg); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatal("defaults should be preserved")
	}
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docman.toml")
	if err := os.WriteFile(path, []byte("data_dir = \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := Default()
	if err := loadFile(path, &cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestIsAllowedKey(t *testing.T) {
	for _, key := range AllowedKeys() {
		if !IsAllowedKey(key) {
			t.Fatalf("expected %q to be allowed", key)
		}
	}
	if IsAllowedKey("api_url") {
		t.Fatal("expected 'api_url' to not be allowed")
	}
}

func TestGetKey(t *testing.T) {
	cfg := Default()
	cfg.DBPath = "/tmp/test.db"
	cfg.DataDir = "/tmp/data"
	cfg.Scan.Command = "scan {output}"

	cases := map[string]string{
		"db_path":               "/tmp/test.db",
		"data_dir":              "/tmp/data",
		"log_level":             DefaultLogLevel,
		"log_file":              "",
		"codec.raster_width":    "2480",
		"export.dpi":            "300",
		"scan.command":          "scan {output}",
		"scan.tick_interval_ms": "100",
	}
	for key, want := range cases {
		got, err := cfg.Get(key)
		if err != nil || got != want {
			t.Fatalf("%s: expected %q, got %q (err: %v)", key, want, got, err)
		}
	}
	if _, err := cfg.Get("nope"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestSetKeyCreatesAndUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".docman.toml")
	if err := SetKey(path, "data_dir", "/srv/old"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := SetKey(path, "log_level", "error"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := SetKey(path, "data_dir", "/srv/new"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/srv/new" {
		t.Fatalf("expected '/srv/new', got %q", cfg.DataDir)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected preserved log_level 'error', got %q", cfg.LogLevel)
	}
}

func TestSetNestedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docman.toml")
	if err := SetKey(path, "export.dpi", "150"); err != nil {
		t.Fatalf("set nested key: %v", err)
	}
	if err := SetKey(path, "scan.timeout_seconds", "30"); err != nil {
		t.Fatalf("set nested key: %v", err)
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Export.DPI != 150 {
		t.Fatalf("expected dpi 150, got %d", cfg.Export.DPI)
	}
	if cfg.ScanTimeout() != 30*time.Second {
		t.Fatalf("expected 30s, got %s", cfg.ScanTimeout())
	}
}

func TestSetKeyRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.toml")
	if err := SetKey(path, "invalid_key", "value"); err == nil {
		t.Fatal("expected error for invalid key")
	}
	if err := SetKey(path, "export.dpi", "-3"); err == nil {
		t.Fatal("expected error for negative dpi")
	}
	if err := SetKey(path, "codec.raster_width", "wide"); err == nil {
		t.Fatal("expected error for non-numeric width")
	}
}

func TestConfigDirOverridePaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCMAN_CONFIG_DIR", dir)

	globalPath, err := GlobalPath()
	if err != nil {
		t.Fatalf("global path: %v", err)
	}
	projectPath, err := ProjectPath()
	if err != nil {
		t.Fatalf("project path: %v", err)
	}
	want := filepath.Join(dir, ".docman.toml")
	if globalPath != want || projectPath != want {
		t.Fatalf("unexpected paths: %s %s", globalPath, projectPath)
	}
}

func TestLoadDefaultsToWorkingDirectory(t *testing.T) {
	_, workspace := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != filepath.Join(workspace, DefaultDBFileName) {
		t.Fatalf("expected workspace db path, got %q", cfg.DBPath)
	}
	if cfg.DataDir != filepath.Join(workspace, DefaultDataDir) {
		t.Fatalf("expected workspace data dir, got %q", cfg.DataDir)
	}
	if cfg.ProjectConfigPath != "" {
		t.Fatalf("expected no project config, got %q", cfg.ProjectConfigPath)
	}
}

func TestLoadProjectConfigOverridesGlobal(t *testing.T) {
	home, workspace := isolate(t)
	if err := os.WriteFile(filepath.Join(home, ".docman.toml"), []byte("data_dir = \"/home-data\"\nlog_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}
	projectPath := filepath.Join(workspace, ".docman.toml")
	if err := os.WriteFile(projectPath, []byte("data_dir = \"/project-data\"\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/project-data" {
		t.Fatalf("expected project data dir, got %q", cfg.DataDir)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected global log level to survive, got %q", cfg.LogLevel)
	}
	if cfg.ProjectConfigPath != projectPath {
		t.Fatalf("expected project config path %q, got %q", projectPath, cfg.ProjectConfigPath)
	}
}

func TestLoadConfigDirOverride(t *testing.T) {
	_, workspace := isolate(t)
	if err := os.WriteFile(filepath.Join(workspace, ".docman.toml"), []byte("data_dir = \"/ignored\"\n"), 0o644); err != nil {
		t.Fatalf("write workspace config: %v", err)
	}
	configDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(configDir, ".docman.toml"), []byte("data_dir = \"/override\"\n"), 0o644); err != nil {
		t.Fatalf("write override config: %v", err)
	}
	t.Setenv("DOCMAN_CONFIG_DIR", configDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/override" {
		t.Fatalf("expected config-dir data dir, got %q", cfg.DataDir)
	}
}

func TestEnvOverrides(t *testing.T) {
	home, _ := isolate(t)
	if err := os.WriteFile(filepath.Join(home, ".docman.toml"), []byte("db_path = \"/file.db\"\ndata_dir = \"/file-data\"\n"), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}
	t.Setenv("DOCMAN_DB", "/tmp/override.db")
	t.Setenv("DOCMAN_DATA_DIR", "/tmp/override-data")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Fatalf("expected env override for DB path, got %q", cfg.DBPath)
	}
	if cfg.DataDir != "/tmp/override-data" {
		t.Fatalf("expected env override for data dir, got %q", cfg.DataDir)
	}
}

func TestLoadRepairsNonPositiveValues(t *testing.T) {
	home, _ := isolate(t)
	if err := os.WriteFile(filepath.Join(home, ".docman.toml"), []byte("log_level = \"\"\n[export]\ndpi = 0\n[scan]\ntick_interval_ms = -5\n"), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Export.DPI != DefaultExportDPI {
		t.Fatalf("expected default dpi, got %d", cfg.Export.DPI)
	}
	if cfg.Scan.TickIntervalMS != DefaultScanTickInterval {
		t.Fatalf("expected default tick, got %d", cfg.Scan.TickIntervalMS)
	}
}
