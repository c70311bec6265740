package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDBFileName = "data.db"
	DefaultDataDir    = "data"
	DefaultLogLevel   = "info"

	DefaultRasterWidth      = 2480
	DefaultRasterHeight     = 3508
	DefaultExportDPI        = 300
	DefaultScanTickInterval = 100
	DefaultScanTimeout      = 300

	configFileName  = ".docman.toml"
	configDirEnvKey = "DOCMAN_CONFIG_DIR"
)

// CodecConfig controls PDF rasterization during ingestion.
type CodecConfig struct {
	RasterWidth  int `toml:"raster_width"`
	RasterHeight int `toml:"raster_height"`
}

// ExportConfig controls PDF export.
type ExportConfig struct {
	DPI int `toml:"dpi"`
}

// ScanConfig controls the external scanner command.
type ScanConfig struct {
	Command        string `toml:"command"`
	TickIntervalMS int    `toml:"tick_interval_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Config defines runtime configuration for docman.
type Config struct {
	DBPath            string       `toml:"db_path"`
	DataDir           string       `toml:"data_dir"`
	LogLevel          string       `toml:"log_level"`
	LogFile           string       `toml:"log_file"`
	Codec             CodecConfig  `toml:"codec"`
	Export            ExportConfig `toml:"export"`
	Scan              ScanConfig   `toml:"scan"`
	ProjectConfigPath string       `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Codec: CodecConfig{
			RasterWidth:  DefaultRasterWidth,
			RasterHeight: DefaultRasterHeight,
		},
		Export: ExportConfig{DPI: DefaultExportDPI},
		Scan: ScanConfig{
			TickIntervalMS: DefaultScanTickInterval,
			TimeoutSeconds: DefaultScanTimeout,
		},
	}
}

// ScanTickInterval returns the scan progress interval as a duration.
func (c *Config) ScanTickInterval() time.Duration {
	return time.Duration(c.Scan.TickIntervalMS) * time.Millisecond
}

// ScanTimeout returns the scan timeout as a duration.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Scan.TimeoutSeconds) * time.Second
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

var allowedKeys = []string{
	"db_path",
	"data_dir",
	"log_level",
	"log_file",
	"codec.raster_width",
	"codec.raster_height",
	"export.dpi",
	"scan.command",
	"scan.tick_interval_ms",
	"scan.timeout_seconds",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "data_dir":
		return c.DataDir, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	case "codec.raster_width":
		return strconv.Itoa(c.Codec.RasterWidth), nil
	case "codec.raster_height":
		return strconv.Itoa(c.Codec.RasterHeight), nil
	case "export.dpi":
		return strconv.Itoa(c.Export.DPI), nil
	case "scan.command":
		return c.Scan.Command, nil
	case "scan.tick_interval_ms":
		return strconv.Itoa(c.Scan.TickIntervalMS), nil
	case "scan.timeout_seconds":
		return strconv.Itoa(c.Scan.TimeoutSeconds), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads the global then the project config file and applies env
// overrides. DOCMAN_CONFIG_DIR replaces both files with one.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}
		if cwd, err := os.Getwd(); err == nil {
			projectPath := filepath.Join(cwd, configFileName)
			loaded, err := loadFileIfExists(projectPath, &cfg)
			if err != nil {
				return nil, err
			}
			if loaded {
				cfg.ProjectConfigPath = projectPath
			}
		}
	}

	if dbPath := os.Getenv("DOCMAN_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if dataDir := os.Getenv("DOCMAN_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	if cwd, err := os.Getwd(); err == nil {
		if cfg.DBPath == "" {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
		if cfg.DataDir == "" {
			cfg.DataDir = filepath.Join(cwd, DefaultDataDir)
		}
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "codec.raster_width", "codec.raster_height", "export.dpi",
		"scan.tick_interval_ms", "scan.timeout_seconds":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return int64(parsed), nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeDefaults() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Codec.RasterWidth <= 0 {
		c.Codec.RasterWidth = DefaultRasterWidth
	}
	if c.Codec.RasterHeight <= 0 {
		c.Codec.RasterHeight = DefaultRasterHeight
	}
	if c.Export.DPI <= 0 {
		c.Export.DPI = DefaultExportDPI
	}
	if c.Scan.TickIntervalMS <= 0 {
		c.Scan.TickIntervalMS = DefaultScanTickInterval
	}
	if c.Scan.TimeoutSeconds <= 0 {
		c.Scan.TimeoutSeconds = DefaultScanTimeout
	}
}
