// Package stack keeps blockout's managed modifiers on an object: it creates
// them idempotently from typed specs, keeps user-added modifiers evaluating
// ahead of them, and toggles their visibility.
package stack

import (
	"fmt"
	"sort"

	"github.com/kingrea/blockout/internal/assets"
	"github.com/kingrea/blockout/internal/document"
)

const (
	// SortPrefix keeps managed modifiers clustered when a host sorts by name.
	SortPrefix = " "
	// Namespace marks a managed modifier's display name.
	Namespace = "BP_"
)

// QualifiedName returns the display name of a managed role.
func QualifiedName(role string) string {
	return SortPrefix + Namespace + role
}

// GroupName returns the node-group name a node-backed role binds to.
func GroupName(role string) string {
	return Namespace + role
}

// Spec declares one managed modifier.
type Spec struct {
	Role     string
	Kind     document.ModifierKind
	Settings document.Settings
	// Inputs holds dynamic values with no typed field, chiefly node sockets.
	Inputs map[string]any
}

// AssetResolver returns a node group present in the document, importing it
// when missing.
type AssetResolver interface {
	Ensure(doc *document.Document, name string) (*document.NodeGroup, error)
}

// Logger receives non-fatal setup warnings.
type Logger interface {
	Warnf(format string, args ...any)
}

// Metrics observes stack changes.
type Metrics interface {
	ModifierCreated(kind string)
	ModifiersReordered(n int)
}

// Manager creates managed modifiers.
type Manager struct {
	assets  AssetResolver
	logger  Logger
	metrics Metrics
}

// NewManager builds a manager. Any collaborator may be nil.
func NewManager(resolver AssetResolver, logger Logger, metrics Metrics) *Manager {
	return &Manager{assets: resolver, logger: logger, metrics: metrics}
}

// Find returns the managed modifier with role, or nil.
func Find(obj *document.Object, role string) *document.Modifier {
	for _, mod := range obj.Modifiers {
		if mod.Owned && mod.Role == role {
			return mod
		}
	}
	return nil
}

// Owned lists managed modifiers in stack order.
func Owned(obj *document.Object) []*document.Modifier {
	var out []*document.Modifier
	for _, mod := range obj.Modifiers {
		if mod.Owned {
			out = append(out, mod)
		}
	}
	return out
}

// FirstOwnedIndex returns the stack position of the first managed modifier,
// or -1.
func FirstOwnedIndex(obj *document.Object) int {
	for i, mod := range obj.Modifiers {
		if mod.Owned {
			return i
		}
	}
	return -1
}

// Ensure returns the managed modifier for spec.Role, creating and
// configuring it when absent. An existing modifier is returned untouched.
func (m *Manager) Ensure(doc *document.Document, obj *document.Object, spec Spec) (*document.Modifier, bool, error) {
	if spec.Role == "" {
		return nil, false, fmt.Errorf("stack: role is required")
	}
	if existing := Find(obj, spec.Role); existing != nil {
		return existing, false, nil
	}
	if spec.Settings != nil && spec.Settings.ModifierKind() != spec.Kind {
		return nil, false, fmt.Errorf("stack: %s settings for %s role %s", spec.Settings.ModifierKind(), spec.Kind, spec.Role)
	}

	var group *document.NodeGroup
	if spec.Kind == document.ModifierNodes {
		var err error
		group, err = m.resolveGroup(doc, spec)
		if err != nil {
			return nil, false, err
		}
	}

	mod := obj.AddModifier(QualifiedName(spec.Role), spec.Kind)
	mod.Owned = true
	mod.Role = spec.Role
	mod.ShowExpanded = false
	mod.ShowInEditMode = true
	mod.ShowViewport = true
	mod.ShowRender = true
	if err := mod.Configure(spec.Settings); err != nil {
		obj.RemoveModifier(mod.Key)
		return nil, false, err
	}
	if group != nil {
		bindGroup(mod, group)
	}
	m.applyInputs(mod, group, spec.Inputs)
	if m.metrics != nil {
		m.metrics.ModifierCreated(string(spec.Kind))
	}
	return mod, true, nil
}

func (m *Manager) resolveGroup(doc *document.Document, spec Spec) (*document.NodeGroup, error) {
	name := GroupName(spec.Role)
	if settings, ok := spec.Settings.(document.NodesSettings); ok && settings.Group != "" {
		name = settings.Group
	}
	if group := doc.NodeGroup(name); group != nil {
		return group, nil
	}
	if m.assets == nil {
		return nil, fmt.Errorf("%w: %s (no importer)", assets.ErrAssetUnavailable, name)
	}
	return m.assets.Ensure(doc, name)
}

func bindGroup(mod *document.Modifier, group *document.NodeGroup) {
	if mod.Nodes == nil {
		mod.Nodes = &document.NodesSettings{}
	}
	mod.Nodes.Group = group.Name
	mod.Nodes.GroupKey = group.Key
	if mod.Nodes.Inputs == nil {
		mod.Nodes.Inputs = map[string]any{}
	}
	for socket, value := range group.Inputs {
		if _, set := mod.Nodes.Inputs[socket]; !set {
			mod.Nodes.Inputs[socket] = value
		}
	}
}

// applyInputs writes each input to its typed field or declared node
// socket. Anything else lands in the generic property bag; no single key
// aborts the rest.
func (m *Manager) applyInputs(mod *document.Modifier, group *document.NodeGroup, inputs map[string]any) {
	keys := make([]string, 0, len(inputs))
	for key := range inputs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := inputs[key]
		if group != nil {
			if _, declared := group.Inputs[key]; declared {
				mod.Nodes.Inputs[key] = value
				continue
			}
		}
		if err := mod.SetProperty(key, value); err != nil {
			m.warnf("modifier %s: %s not set (%v); stored as custom property", mod.Name, key, err)
			mod.SetProp(key, value)
		}
	}
}

func (m *Manager) warnf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Warnf(format, args...)
	}
}
