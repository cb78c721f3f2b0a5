package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Project.Modifiers.ConstrainedFillet.Segments != 12 {
		t.Fatalf("expected constrained segments 12, got %d", c.Project.Modifiers.ConstrainedFillet.Segments)
	}
	want := filepath.Join(c.BlockoutProjectDir, "assets", "nodes.yaml")
	if c.LibraryPath() != want {
		t.Fatalf("library path = %s, want %s", c.LibraryPath(), want)
	}
}

func TestInitDirWritesParsableDefaults(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	for _, sub := range []string{"assets", "logs", "state"} {
		if info, err := os.Stat(filepath.Join(projectDir, BlockoutDir, sub)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory", sub)
		}
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.Project.Modifiers.EdgeChamfer.Angle != 30 || c.Project.Modifiers.WeightedFillet.Width != 0.5 {
		t.Fatalf("unexpected modifier defaults: %+v", c.Project.Modifiers)
	}
	if c.Project.Bridge.Enabled == nil || !*c.Project.Bridge.Enabled || c.Project.Bridge.Port != 8765 {
		t.Fatalf("unexpected bridge config: %+v", c.Project.Bridge)
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	blockoutDir := filepath.Join(projectDir, BlockoutDir)
	if err := os.MkdirAll(blockoutDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
modifiers:
  weighted_fillet:
    width: 0.25
  edge_chamfer:
    angle: 45
assets:
  library: /opt/blockout/nodes.yaml
logging:
  level: DEBUG
  format: json
`)
	if err := os.WriteFile(filepath.Join(blockoutDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	m := c.Project.Modifiers
	if m.WeightedFillet.Width != 0.25 || m.WeightedFillet.Segments != 10 {
		t.Fatalf("weighted fillet = %+v", m.WeightedFillet)
	}
	if m.EdgeChamfer.Angle != 45 || m.EdgeChamfer.Segments != 2 {
		t.Fatalf("edge chamfer = %+v", m.EdgeChamfer)
	}
	if c.LibraryPath() != "/opt/blockout/nodes.yaml" {
		t.Fatalf("library = %s", c.LibraryPath())
	}
	if c.Project.Logging.Level != "debug" || c.Project.Logging.Format != "json" {
		t.Fatalf("logging = %+v", c.Project.Logging)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	blockoutDir := filepath.Join(projectDir, BlockoutDir)
	if err := os.MkdirAll(blockoutDir, 0755); err != nil {
		t.Fatal(err)
	}
	invalid := "version: 1\nmodifiers:\n  edge_chamfer:\n    angle: 270\n"
	if err := os.WriteFile(filepath.Join(blockoutDir, "config.yaml"), []byte(invalid), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewConfig(projectDir); err == nil || !strings.Contains(err.Error(), "angle") {
		t.Fatalf("expected angle validation error, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	projectDir := t.TempDir()
	c := Default(projectDir)
	c.Project.Modifiers.SubDLevels = 3
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if reloaded.Project.Modifiers.SubDLevels != 3 {
		t.Fatalf("subd levels = %d", reloaded.Project.Modifiers.SubDLevels)
	}
}
