package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ModifierKind identifies the modifier type.
type ModifierKind string

const (
	ModifierBevel          ModifierKind = "BEVEL"
	ModifierWeld           ModifierKind = "WELD"
	ModifierSolidify       ModifierKind = "SOLIDIFY"
	ModifierWeightedNormal ModifierKind = "WEIGHTED_NORMAL"
	ModifierNodes          ModifierKind = "NODES"
	ModifierMirror         ModifierKind = "MIRROR"
	ModifierShrinkwrap     ModifierKind = "SHRINKWRAP"
	ModifierSubsurf        ModifierKind = "SUBSURF"
	ModifierGeneric        ModifierKind = "GENERIC"
)

// ErrUnknownProperty is returned by SetProperty when the key is not a field
// of the modifier kind.
var ErrUnknownProperty = errors.New("document: unknown modifier property")

// BevelSettings mirrors the host bevel modifier fields we drive.
type BevelSettings struct {
	Width            float64 `json:"width"`
	Segments         int     `json:"segments"`
	Profile          float64 `json:"profile"`
	OffsetType       string  `json:"offset_type"`
	LimitMethod      string  `json:"limit_method"`
	Affect           string  `json:"affect"`
	ClampOverlap     bool    `json:"use_clamp_overlap"`
	LoopSlide        bool    `json:"loop_slide"`
	MiterOuter       string  `json:"miter_outer"`
	MiterInner       string  `json:"miter_inner"`
	FaceStrengthMode string  `json:"face_strength_mode"`
	EdgeWeight       string  `json:"edge_weight"`
	VertexGroup      string  `json:"vertex_group,omitempty"`
}

// DefaultBevelSettings returns the host defaults for a fresh bevel modifier.
func DefaultBevelSettings() BevelSettings {
	return BevelSettings{
		Width:            0.1,
		Segments:         1,
		Profile:          0.5,
		OffsetType:       "OFFSET",
		LimitMethod:      "ANGLE",
		Affect:           "EDGES",
		ClampOverlap:     true,
		MiterOuter:       "MITER_SHARP",
		MiterInner:       "MITER_SHARP",
		FaceStrengthMode: "FSTR_NONE",
		EdgeWeight:       "bevel_weight_edge",
	}
}

// WeldSettings mirrors the weld modifier.
type WeldSettings struct {
	Mode           string  `json:"mode"`
	MergeThreshold float64 `json:"merge_threshold"`
}

// SolidifySettings mirrors the solidify modifier.
type SolidifySettings struct {
	Thickness      float64 `json:"thickness"`
	Offset         float64 `json:"offset"`
	RimOnly        bool    `json:"use_rim_only"`
	EvenOffset     bool    `json:"use_even_offset"`
	QualityNormals bool    `json:"use_quality_normals"`
}

// WeightedNormalSettings mirrors the weighted normal modifier.
type WeightedNormalSettings struct {
	Weight        int     `json:"weight"`
	Thresh        float64 `json:"thresh"`
	FaceInfluence bool    `json:"use_face_influence"`
	KeepSharp     bool    `json:"keep_sharp"`
}

// NodesSettings binds a geometry-node group and its socket inputs.
type NodesSettings struct {
	Group    string         `json:"group"`
	GroupKey uuid.UUID      `json:"group_key"`
	Inputs   map[string]any `json:"inputs,omitempty"`
}

// MirrorSettings mirrors the mirror modifier.
type MirrorSettings struct {
	Axis         [3]bool `json:"use_axis"`
	Bisect       [3]bool `json:"use_bisect_axis"`
	BisectFlip   [3]bool `json:"use_bisect_flip_axis"`
	Clip         bool    `json:"use_clip"`
	MirrorObject string  `json:"mirror_object,omitempty"`
}

// ShrinkwrapSettings mirrors the shrinkwrap modifier.
type ShrinkwrapSettings struct {
	WrapMethod string  `json:"wrap_method"`
	WrapMode   string  `json:"wrap_mode"`
	Offset     float64 `json:"offset"`
	Target     string  `json:"target,omitempty"`
}

// SubsurfSettings mirrors the subdivision surface modifier.
type SubsurfSettings struct {
	Levels int `json:"levels"`
}

// Modifier is one stage of an object's modifier stack. Key is the host
// identity; Owned and Role tag modifiers managed by blockout.
type Modifier struct {
	Key            uuid.UUID    `json:"key"`
	Name           string       `json:"name"`
	Kind           ModifierKind `json:"kind"`
	Owned          bool         `json:"owned,omitempty"`
	Role           string       `json:"role,omitempty"`
	ShowExpanded   bool         `json:"show_expanded"`
	ShowInEditMode bool         `json:"show_in_editmode"`
	ShowViewport   bool         `json:"show_viewport"`
	ShowRender     bool         `json:"show_render"`

	Bevel          *BevelSettings          `json:"bevel,omitempty"`
	Weld           *WeldSettings           `json:"weld,omitempty"`
	Solidify       *SolidifySettings       `json:"solidify,omitempty"`
	WeightedNormal *WeightedNormalSettings `json:"weighted_normal,omitempty"`
	Nodes          *NodesSettings          `json:"nodes,omitempty"`
	Mirror         *MirrorSettings         `json:"mirror,omitempty"`
	Shrinkwrap     *ShrinkwrapSettings     `json:"shrinkwrap,omitempty"`
	Subsurf        *SubsurfSettings        `json:"subsurf,omitempty"`

	// Props is the generic keyed property bag for values the typed
	// settings have no field for.
	Props map[string]any `json:"props,omitempty"`
}

func newModifier(name string, kind ModifierKind) *Modifier {
	mod := &Modifier{
		Key:            uuid.New(),
		Name:           name,
		Kind:           kind,
		ShowExpanded:   true,
		ShowInEditMode: true,
		ShowViewport:   true,
		ShowRender:     true,
	}
	switch kind {
	case ModifierBevel:
		settings := DefaultBevelSettings()
		mod.Bevel = &settings
	case ModifierWeld:
		mod.Weld = &WeldSettings{Mode: "ALL", MergeThreshold: 0.001}
	case ModifierSolidify:
		mod.Solidify = &SolidifySettings{Thickness: 0.01, Offset: -1}
	case ModifierWeightedNormal:
		mod.WeightedNormal = &WeightedNormalSettings{Weight: 50, Thresh: 0.01}
	case ModifierNodes:
		mod.Nodes = &NodesSettings{}
	case ModifierMirror:
		mod.Mirror = &MirrorSettings{Axis: [3]bool{true, false, false}}
	case ModifierShrinkwrap:
		mod.Shrinkwrap = &ShrinkwrapSettings{WrapMethod: "NEAREST_SURFACEPOINT", WrapMode: "ON_SURFACE"}
	case ModifierSubsurf:
		mod.Subsurf = &SubsurfSettings{Levels: 1}
	}
	return mod
}

// SetProperty assigns a host property by key, the way a scripting layer
// would. Unknown keys return ErrUnknownProperty; mistyped values return a
// descriptive error.
func (m *Modifier) SetProperty(key string, value any) error {
	key = strings.TrimSpace(key)
	switch key {
	case "show_expanded":
		return assignBool(&m.ShowExpanded, key, value)
	case "show_in_editmode":
		return assignBool(&m.ShowInEditMode, key, value)
	case "show_viewport":
		return assignBool(&m.ShowViewport, key, value)
	case "show_render":
		return assignBool(&m.ShowRender, key, value)
	}
	switch {
	case m.Bevel != nil:
		return m.Bevel.set(key, value)
	case m.Weld != nil:
		return m.Weld.set(key, value)
	case m.Solidify != nil:
		return m.Solidify.set(key, value)
	case m.WeightedNormal != nil:
		return m.WeightedNormal.set(key, value)
	case m.Mirror != nil:
		return m.Mirror.set(key, value)
	case m.Shrinkwrap != nil:
		return m.Shrinkwrap.set(key, value)
	case m.Subsurf != nil:
		if key == "levels" {
			return assignInt(&m.Subsurf.Levels, key, value)
		}
	}
	return fmt.Errorf("%w: %s on %s", ErrUnknownProperty, key, m.Kind)
}

// Settings is the typed configuration of one modifier kind.
type Settings interface {
	ModifierKind() ModifierKind
	applyTo(m *Modifier)
}

func (s BevelSettings) ModifierKind() ModifierKind          { return ModifierBevel }
func (s WeldSettings) ModifierKind() ModifierKind           { return ModifierWeld }
func (s SolidifySettings) ModifierKind() ModifierKind       { return ModifierSolidify }
func (s WeightedNormalSettings) ModifierKind() ModifierKind { return ModifierWeightedNormal }
func (s NodesSettings) ModifierKind() ModifierKind          { return ModifierNodes }
func (s MirrorSettings) ModifierKind() ModifierKind         { return ModifierMirror }
func (s ShrinkwrapSettings) ModifierKind() ModifierKind     { return ModifierShrinkwrap }
func (s SubsurfSettings) ModifierKind() ModifierKind        { return ModifierSubsurf }

func (s BevelSettings) applyTo(m *Modifier)          { m.Bevel = &s }
func (s WeldSettings) applyTo(m *Modifier)           { m.Weld = &s }
func (s SolidifySettings) applyTo(m *Modifier)       { m.Solidify = &s }
func (s WeightedNormalSettings) applyTo(m *Modifier) { m.WeightedNormal = &s }
func (s MirrorSettings) applyTo(m *Modifier)         { m.Mirror = &s }
func (s ShrinkwrapSettings) applyTo(m *Modifier)     { m.Shrinkwrap = &s }
func (s SubsurfSettings) applyTo(m *Modifier)        { m.Subsurf = &s }

func (s NodesSettings) applyTo(m *Modifier) {
	inputs := make(map[string]any, len(s.Inputs))
	for k, v := range s.Inputs {
		inputs[k] = v
	}
	s.Inputs = inputs
	m.Nodes = &s
}

// Configure replaces the modifier's typed settings. The settings kind must
// match the modifier kind.
func (m *Modifier) Configure(s Settings) error {
	if s == nil {
		return nil
	}
	if s.ModifierKind() != m.Kind {
		return fmt.Errorf("document: %s settings on %s modifier %q", s.ModifierKind(), m.Kind, m.Name)
	}
	s.applyTo(m)
	return nil
}

// SetProp writes into the generic keyed property bag.
func (m *Modifier) SetProp(key string, value any) {
	if m.Props == nil {
		m.Props = map[string]any{}
	}
	m.Props[key] = value
}

func (s *BevelSettings) set(key string, value any) error {
	switch key {
	case "width":
		return assignFloat(&s.Width, key, value)
	case "segments":
		return assignInt(&s.Segments, key, value)
	case "profile":
		return assignFloat(&s.Profile, key, value)
	case "offset_type":
		return assignString(&s.OffsetType, key, value)
	case "limit_method":
		return assignString(&s.LimitMethod, key, value)
	case "affect":
		return assignString(&s.Affect, key, value)
	case "use_clamp_overlap":
		return assignBool(&s.ClampOverlap, key, value)
	case "loop_slide":
		return assignBool(&s.LoopSlide, key, value)
	case "miter_outer":
		return assignString(&s.MiterOuter, key, value)
	case "miter_inner":
		return assignString(&s.MiterInner, key, value)
	case "face_strength_mode":
		return assignString(&s.FaceStrengthMode, key, value)
	case "edge_weight":
		return assignString(&s.EdgeWeight, key, value)
	case "vertex_group":
		return assignString(&s.VertexGroup, key, value)
	}
	return fmt.Errorf("%w: %s on %s", ErrUnknownProperty, key, ModifierBevel)
}

func (s *WeldSettings) set(key string, value any) error {
	switch key {
	case "mode":
		return assignString(&s.Mode, key, value)
	case "merge_threshold":
		return assignFloat(&s.MergeThreshold, key, value)
	}
	return fmt.Errorf("%w: %s on %s", ErrUnknownProperty, key, ModifierWeld)
}

func (s *SolidifySettings) set(key string, value any) error {
	switch key {
	case "thickness":
		return assignFloat(&s.Thickness, key, value)
	case "offset":
		return assignFloat(&s.Offset, key, value)
	case "use_rim_only":
		return assignBool(&s.RimOnly, key, value)
	case "use_even_offset":
		return assignBool(&s.EvenOffset, key, value)
	case "use_quality_normals":
		return assignBool(&s.QualityNormals, key, value)
	}
	return fmt.Errorf("%w: %s on %s", ErrUnknownProperty, key, ModifierSolidify)
}

func (s *WeightedNormalSettings) set(key string, value any) error {
	switch key {
	case "weight":
		return assignInt(&s.Weight, key, value)
	case "thresh":
		return assignFloat(&s.Thresh, key, value)
	case "use_face_influence":
		return assignBool(&s.FaceInfluence, key, value)
	case "keep_sharp":
		return assignBool(&s.KeepSharp, key, value)
	}
	return fmt.Errorf("%w: %s on %s", ErrUnknownProperty, key, ModifierWeightedNormal)
}

func (s *MirrorSettings) set(key string, value any) error {
	switch key {
	case "use_clip":
		return assignBool(&s.Clip, key, value)
	case "mirror_object":
		return assignString(&s.MirrorObject, key, value)
	}
	return fmt.Errorf("%w: %s on %s", ErrUnknownProperty, key, ModifierMirror)
}

func (s *ShrinkwrapSettings) set(key string, value any) error {
	switch key {
	case "wrap_method":
		return assignString(&s.WrapMethod, key, value)
	case "wrap_mode":
		return assignString(&s.WrapMode, key, value)
	case "offset":
		return assignFloat(&s.Offset, key, value)
	case "target":
		return assignString(&s.Target, key, value)
	}
	return fmt.Errorf("%w: %s on %s", ErrUnknownProperty, key, ModifierShrinkwrap)
}

func assignBool(dst *bool, key string, value any) error {
	v, ok := value.(bool)
	if !ok {
		return fmt.Errorf("document: %s expects bool, got %T", key, value)
	}
	*dst = v
	return nil
}

func assignString(dst *string, key string, value any) error {
	v, ok := value.(string)
	if !ok {
		return fmt.Errorf("document: %s expects string, got %T", key, value)
	}
	*dst = v
	return nil
}

func assignFloat(dst *float64, key string, value any) error {
	switch v := value.(type) {
	case float64:
		*dst = v
	case float32:
		*dst = float64(v)
	case int:
		*dst = float64(v)
	case int64:
		*dst = float64(v)
	default:
		return fmt.Errorf("document: %s expects number, got %T", key, value)
	}
	return nil
}

func assignInt(dst *int, key string, value any) error {
	switch v := value.(type) {
	case int:
		*dst = v
	case int64:
		*dst = int(v)
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("document: %s expects integer, got %v", key, v)
		}
		*dst = int(v)
	default:
		return fmt.Errorf("document: %s expects integer, got %T", key, value)
	}
	return nil
}
