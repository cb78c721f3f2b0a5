package assets

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_nodes.yaml
var defaultLibrary []byte

// Input socket types.
const (
	InputFloat  = "float"
	InputInt    = "int"
	InputBool   = "bool"
	InputString = "string"
)

// InputDefinition declares one node-group input socket and its default.
type InputDefinition struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default any    `yaml:"default"`
}

// GroupDefinition is one node group in the library.
type GroupDefinition struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Inputs      []InputDefinition `yaml:"inputs,omitempty"`
}

// Library is the bundled node-group asset file.
type Library struct {
	Version int               `yaml:"version"`
	Groups  []GroupDefinition `yaml:"groups"`
}

// Group finds a group definition by exact name.
func (l Library) Group(name string) (GroupDefinition, bool) {
	for _, group := range l.Groups {
		if group.Name == name {
			return group, true
		}
	}
	return GroupDefinition{}, false
}

// Names lists the groups in file order.
func (l Library) Names() []string {
	out := make([]string, len(l.Groups))
	for i, group := range l.Groups {
		out[i] = group.Name
	}
	return out
}

// Defaults returns the input defaults keyed by socket name.
func (g GroupDefinition) Defaults() map[string]any {
	out := make(map[string]any, len(g.Inputs))
	for _, input := range g.Inputs {
		out[input.Name] = input.Default
	}
	return out
}

// Validate checks names and default value types.
func (l *Library) Validate() error {
	if len(l.Groups) == 0 {
		return fmt.Errorf("assets: library declares no groups")
	}
	seen := make(map[string]struct{}, len(l.Groups))
	var errs []error
	for gi := range l.Groups {
		group := &l.Groups[gi]
		group.Name = strings.TrimSpace(group.Name)
		if group.Name == "" {
			errs = append(errs, fmt.Errorf("assets: group %d has no name", gi))
			continue
		}
		if _, dup := seen[group.Name]; dup {
			errs = append(errs, fmt.Errorf("assets: duplicate group %q", group.Name))
		}
		seen[group.Name] = struct{}{}
		for ii := range group.Inputs {
			if err := normalizeInput(&group.Inputs[ii]); err != nil {
				errs = append(errs, fmt.Errorf("assets: group %s: %w", group.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func normalizeInput(input *InputDefinition) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	if input.Name == "" {
		return fmt.Errorf("input name is required")
	}
	switch input.Type {
	case InputFloat:
		switch v := input.Default.(type) {
		case nil:
			input.Default = 0.0
		case int:
			input.Default = float64(v)
		case float64:
		default:
			return fmt.Errorf("input %s: default %v is not a float", input.Name, input.Default)
		}
	case InputInt:
		switch input.Default.(type) {
		case nil:
			input.Default = 0
		case int:
		default:
			return fmt.Errorf("input %s: default %v is not an int", input.Name, input.Default)
		}
	case InputBool:
		switch input.Default.(type) {
		case nil:
			input.Default = false
		case bool:
		default:
			return fmt.Errorf("input %s: default %v is not a bool", input.Name, input.Default)
		}
	case InputString:
		switch input.Default.(type) {
		case nil:
			input.Default = ""
		case string:
		default:
			return fmt.Errorf("input %s: default %v is not a string", input.Name, input.Default)
		}
	default:
		return fmt.Errorf("input %s: unknown type %q", input.Name, input.Type)
	}
	return nil
}

// ParseLibraryYAML decodes and validates a library payload.
func ParseLibraryYAML(data []byte) (Library, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Library{}, fmt.Errorf("assets: library payload is empty")
	}
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return Library{}, fmt.Errorf("assets: decode library: %w", err)
	}
	if err := lib.Validate(); err != nil {
		return Library{}, err
	}
	return lib, nil
}

// LoadLibraryFile reads a YAML library from disk.
func LoadLibraryFile(path string) (Library, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Library{}, fmt.Errorf("assets: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Library{}, fmt.Errorf("assets: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Library{}, fmt.Errorf("assets: read %s: %w", path, err)
	}
	lib, err := ParseLibraryYAML(data)
	if err != nil {
		return Library{}, fmt.Errorf("assets: %s: %w", path, err)
	}
	return lib, nil
}

// DefaultLibrary returns the library compiled into the binary.
func DefaultLibrary() (Library, error) {
	return ParseLibraryYAML(defaultLibrary)
}

// WriteDefaultLibrary writes the bundled library to path unless a file is
// already there. It reports whether it wrote.
func WriteDefaultLibrary(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("assets: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, defaultLibrary, 0o644); err != nil {
		return false, fmt.Errorf("assets: write %s: %w", path, err)
	}
	return true, nil
}
