// internal/config/config.go
//
// This package handles configuration and the .blockout directory structure.
// Every project that uses blockout gets a .blockout/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// BlockoutDir is the name of the directory we create in each project
	BlockoutDir = ".blockout"

	defaultLibrary  = "assets/nodes.yaml"
	defaultDocument = "state/scene.json"
)

const defaultProjectConfigYAML = `# blockout project configuration
version: 1

# Settings copied onto managed modifiers when they are first created.
modifiers:
  subd_levels: 2
  constrained_fillet:
    segments: 12
  weighted_fillet:
    width: 0.5
    segments: 10
  panel:
    thickness: 0.02
  edge_chamfer:
    angle: 30
    width: 0.01
    segments: 2

# Node-group library used when (re)importing BP_* groups.
assets:
  library: assets/nodes.yaml

logging:
  level: info
  format: console

# HTTP bridge a host application posts document notifications to.
bridge:
  enabled: true
  host: 127.0.0.1
  port: 8765
`

// ConstrainedFilletConfig configures the constrained fillet bevel.
type ConstrainedFilletConfig struct {
	Segments int `yaml:"segments"`
}

// WeightedFilletConfig configures the weighted fillet bevel.
type WeightedFilletConfig struct {
	Width    float64 `yaml:"width"`
	Segments int     `yaml:"segments"`
}

// PanelConfig configures the panel solidify.
type PanelConfig struct {
	Thickness float64 `yaml:"thickness"`
}

// EdgeChamferConfig configures edge detection and the chamfer bevel.
type EdgeChamferConfig struct {
	Angle    float64 `yaml:"angle"`
	Width    float64 `yaml:"width"`
	Segments int     `yaml:"segments"`
}

// ModifierConfig groups per-category modifier settings.
type ModifierConfig struct {
	SubDLevels        int                     `yaml:"subd_levels"`
	ConstrainedFillet ConstrainedFilletConfig `yaml:"constrained_fillet"`
	WeightedFillet    WeightedFilletConfig    `yaml:"weighted_fillet"`
	Panel             PanelConfig             `yaml:"panel"`
	EdgeChamfer       EdgeChamferConfig       `yaml:"edge_chamfer"`
}

// AssetConfig locates the node-group library.
type AssetConfig struct {
	Library string `yaml:"library"`
}

// LoggingConfig controls the structured log file.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BridgeConfig holds event bridge preferences. Enabled is a pointer so an
// omitted key keeps the default.
type BridgeConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// ProjectConfig models .blockout/config.yaml.
type ProjectConfig struct {
	Version   int            `yaml:"version"`
	Modifiers ModifierConfig `yaml:"modifiers"`
	Assets    AssetConfig    `yaml:"assets"`
	Logging   LoggingConfig  `yaml:"logging"`
	Bridge    BridgeConfig   `yaml:"bridge"`
}

// Config holds the runtime configuration for blockout.
type Config struct {
	// ProjectDir is the directory blockout runs against
	ProjectDir string

	// BlockoutProjectDir is ProjectDir/.blockout
	BlockoutProjectDir string

	Project ProjectConfig
}

// InitDir creates the .blockout directory structure in the given project
// directory and writes a default config.yaml when none exists.
//
// Structure created:
// .blockout/
// ├── config.yaml
// ├── assets/   <- node-group library
// ├── logs/     <- blockout.log and journal.log
// └── state/    <- persisted scene document
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, BlockoutDir)
	dirs := []string{
		filepath.Join(root, "assets"),
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig loads the project's configuration, falling back to defaults
// when config.yaml is missing.
func NewConfig(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", projectDir, err)
	}
	cfg := Default(abs)
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with built-in defaults and no file I/O.
func Default(projectDir string) *Config {
	cfg := &Config{
		ProjectDir:         projectDir,
		BlockoutProjectDir: filepath.Join(projectDir, BlockoutDir),
		Project:            defaultProjectConfig(),
	}
	cfg.Project.normalize(cfg.BlockoutProjectDir)
	return cfg
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.BlockoutProjectDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.BlockoutProjectDir, "state")
}

// DocumentPath returns the default scene document location.
func (c *Config) DocumentPath() string {
	return filepath.Join(c.BlockoutProjectDir, defaultDocument)
}

// JournalPath returns the user-facing report journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// LibraryPath returns the resolved node-group library path.
func (c *Config) LibraryPath() string {
	return c.Project.Assets.Library
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.BlockoutProjectDir, "config.yaml")
}

// Save validates and writes the project config back to disk.
func (c *Config) Save() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.BlockoutProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.BlockoutProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure blockout dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.BlockoutProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Modifiers: ModifierConfig{
			SubDLevels:        2,
			ConstrainedFillet: ConstrainedFilletConfig{Segments: 12},
			WeightedFillet:    WeightedFilletConfig{Width: 0.5, Segments: 10},
			Panel:             PanelConfig{Thickness: 0.02},
			EdgeChamfer:       EdgeChamferConfig{Angle: 30, Width: 0.01, Segments: 2},
		},
		Assets:  AssetConfig{Library: defaultLibrary},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Modifiers.ConstrainedFillet.Segments == 0 {
		pc.Modifiers.ConstrainedFillet.Segments = 12
	}
	if pc.Modifiers.WeightedFillet.Segments == 0 {
		pc.Modifiers.WeightedFillet.Segments = 10
	}
	if pc.Modifiers.EdgeChamfer.Segments == 0 {
		pc.Modifiers.EdgeChamfer.Segments = 2
	}
	if strings.TrimSpace(pc.Assets.Library) == "" {
		pc.Assets.Library = defaultLibrary
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Assets.Library = resolvePath(base, pc.Assets.Library)
	pc.Logging.Level = strings.ToLower(strings.TrimSpace(pc.Logging.Level))
	if pc.Logging.Level == "" {
		pc.Logging.Level = "info"
	}
	pc.Logging.Format = strings.ToLower(strings.TrimSpace(pc.Logging.Format))
	if pc.Logging.Format == "" {
		pc.Logging.Format = "console"
	}
	pc.Bridge.Host = strings.TrimSpace(pc.Bridge.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	m := pc.Modifiers
	if m.SubDLevels < 0 || m.SubDLevels > 6 {
		return fmt.Errorf("modifiers.subd_levels must be between 0 and 6")
	}
	if m.ConstrainedFillet.Segments < 1 {
		return fmt.Errorf("modifiers.constrained_fillet.segments must be >= 1")
	}
	if m.WeightedFillet.Segments < 1 {
		return fmt.Errorf("modifiers.weighted_fillet.segments must be >= 1")
	}
	if m.WeightedFillet.Width < 0 {
		return fmt.Errorf("modifiers.weighted_fillet.width must be >= 0")
	}
	if m.Panel.Thickness < 0 {
		return fmt.Errorf("modifiers.panel.thickness must be >= 0")
	}
	if m.EdgeChamfer.Segments < 1 {
		return fmt.Errorf("modifiers.edge_chamfer.segments must be >= 1")
	}
	if m.EdgeChamfer.Width < 0 {
		return fmt.Errorf("modifiers.edge_chamfer.width must be >= 0")
	}
	if m.EdgeChamfer.Angle < 0 || m.EdgeChamfer.Angle > 180 {
		return fmt.Errorf("modifiers.edge_chamfer.angle must be between 0 and 180")
	}
	switch pc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error")
	}
	switch pc.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be 'console' or 'json'")
	}
	if pc.Bridge.Port < 0 || pc.Bridge.Port > 65535 {
		return fmt.Errorf("bridge.port must be between 0 and 65535")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}
