package document

import (
	"fmt"

	"github.com/google/uuid"
)

// ObjectType distinguishes mesh objects from helper empties.
type ObjectType string

const (
	ObjectMesh  ObjectType = "MESH"
	ObjectEmpty ObjectType = "EMPTY"
)

// Vec3 is an object-space location.
type Vec3 [3]float64

// Object is a named scene entity with an optional mesh and modifier stack.
type Object struct {
	Name      string      `json:"name"`
	Type      ObjectType  `json:"type"`
	Parent    string      `json:"parent,omitempty"`
	Location  Vec3        `json:"location"`
	Selected  bool        `json:"selected,omitempty"`
	Mesh      *Mesh       `json:"mesh,omitempty"`
	Modifiers []*Modifier `json:"modifiers,omitempty"`
}

// IsMesh reports whether the object carries mesh data.
func (o *Object) IsMesh() bool {
	return o != nil && o.Type == ObjectMesh && o.Mesh != nil
}

// Modifier returns the modifier with the exact name.
func (o *Object) Modifier(name string) *Modifier {
	for _, mod := range o.Modifiers {
		if mod.Name == name {
			return mod
		}
	}
	return nil
}

// ModifierIndex returns the stack position of the modifier with key, or -1.
func (o *Object) ModifierIndex(key uuid.UUID) int {
	for i, mod := range o.Modifiers {
		if mod.Key == key {
			return i
		}
	}
	return -1
}

// ModifierKeys lists the stack's keys in evaluation order.
func (o *Object) ModifierKeys() []uuid.UUID {
	keys := make([]uuid.UUID, len(o.Modifiers))
	for i, mod := range o.Modifiers {
		keys[i] = mod.Key
	}
	return keys
}

// AddModifier appends a modifier with host defaults. A clashing name gets a
// numeric suffix, as the host does.
func (o *Object) AddModifier(name string, kind ModifierKind) *Modifier {
	mod := newModifier(o.uniqueModifierName(name), kind)
	o.Modifiers = append(o.Modifiers, mod)
	return mod
}

// RenameModifier renames a modifier, suffixing on clash.
func (o *Object) RenameModifier(mod *Modifier, name string) {
	if mod.Name == name {
		return
	}
	mod.Name = ""
	mod.Name = o.uniqueModifierName(name)
}

// MoveModifierUp swaps the modifier with its predecessor.
func (o *Object) MoveModifierUp(key uuid.UUID) error {
	idx := o.ModifierIndex(key)
	if idx < 0 {
		return fmt.Errorf("document: modifier %s not on %s", key, o.Name)
	}
	if idx == 0 {
		return nil
	}
	o.Modifiers[idx-1], o.Modifiers[idx] = o.Modifiers[idx], o.Modifiers[idx-1]
	return nil
}

// RemoveModifier drops the modifier with key from the stack.
func (o *Object) RemoveModifier(key uuid.UUID) bool {
	idx := o.ModifierIndex(key)
	if idx < 0 {
		return false
	}
	o.Modifiers = append(o.Modifiers[:idx], o.Modifiers[idx+1:]...)
	return true
}

func (o *Object) uniqueModifierName(name string) string {
	if o.Modifier(name) == nil {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", name, i)
		if o.Modifier(candidate) == nil {
			return candidate
		}
	}
}
