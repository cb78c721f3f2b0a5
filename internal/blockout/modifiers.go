package blockout

import (
	"errors"
	"fmt"
	"math"

	"github.com/kingrea/blockout/internal/assets"
	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/config"
	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/selection"
	"github.com/kingrea/blockout/internal/stack"
)

// Options selects the modifier categories AddModifiers installs.
// Simplified skips the constrained, weighted, shrinkwrap and auto-UV
// categories.
type Options struct {
	Simplified        bool `json:"simplified"`
	SubD              bool `json:"subd"`
	ConstrainedFillet bool `json:"constrained_fillet"`
	WeightedFillet    bool `json:"weighted_fillet"`
	Panel             bool `json:"panel"`
	Chamfer           bool `json:"chamfer"`
	AutoUV            bool `json:"auto_uv"`
	Shrinkwrap        bool `json:"shrinkwrap"`
}

// DefaultOptions enables every category except shrinkwrap.
func DefaultOptions() Options {
	return Options{
		SubD:              true,
		ConstrainedFillet: true,
		WeightedFillet:    true,
		Panel:             true,
		Chamfer:           true,
		AutoUV:            true,
	}
}

// Managed modifier roles.
const (
	RoleSubD            = "SubD"
	RoleConstrained     = "Bevel_Constrained"
	RoleWeld            = "Weld"
	RoleWeighted        = "Bevel_Weighted"
	RoleShrinkwrap      = "Shrinkwrap"
	RolePanelSplit      = "PanelSplit"
	RolePanelize        = "Panelize"
	RoleAutoUV          = "AutoUV"
	RoleEdgeDetect      = "EdgeDetect"
	RoleEdgeChamfer     = "EdgeChamfer"
	RoleWeightedNormals = "WeightedNormals"
	RoleSmartMirror     = "SmartMirror"
)

// category is one group of managed modifiers installed together.
type category struct {
	name       string
	simplified bool // still installed in a simplified stack
	enabled    func(Options) bool
	specs      func(config.ModifierConfig) []stack.Spec
}

// categories lists every category in installation order.
var categories = []category{
	{
		name:       "subd",
		simplified: true,
		enabled:    func(o Options) bool { return o.SubD },
		specs: func(c config.ModifierConfig) []stack.Spec {
			return []stack.Spec{{
				Role:   RoleSubD,
				Kind:   document.ModifierNodes,
				Inputs: map[string]any{"Level": c.SubDLevels},
			}}
		},
	},
	{
		name:    "constrained_fillet",
		enabled: func(o Options) bool { return o.ConstrainedFillet },
		specs: func(c config.ModifierConfig) []stack.Spec {
			bevel := document.DefaultBevelSettings()
			bevel.Width = 100
			bevel.Segments = c.ConstrainedFillet.Segments
			bevel.OffsetType = "PERCENT"
			bevel.LimitMethod = "WEIGHT"
			bevel.ClampOverlap = false
			bevel.LoopSlide = true
			bevel.MiterOuter = "MITER_ARC"
			bevel.FaceStrengthMode = "FSTR_ALL"
			bevel.EdgeWeight = attribute.FilletConstrained
			return []stack.Spec{
				{Role: RoleConstrained, Kind: document.ModifierBevel, Settings: bevel},
				{Role: RoleWeld, Kind: document.ModifierWeld, Settings: document.WeldSettings{Mode: "CONNECTED", MergeThreshold: 0.001}},
			}
		},
	},
	{
		name:    "weighted_fillet",
		enabled: func(o Options) bool { return o.WeightedFillet },
		specs: func(c config.ModifierConfig) []stack.Spec {
			bevel := document.DefaultBevelSettings()
			bevel.OffsetType = "OFFSET"
			bevel.Segments = c.WeightedFillet.Segments
			bevel.Width = c.WeightedFillet.Width
			bevel.LimitMethod = "WEIGHT"
			bevel.ClampOverlap = false
			bevel.LoopSlide = true
			bevel.MiterOuter = "MITER_ARC"
			bevel.EdgeWeight = attribute.FilletWeighted
			return []stack.Spec{{Role: RoleWeighted, Kind: document.ModifierBevel, Settings: bevel}}
		},
	},
	{
		name:    "shrinkwrap",
		enabled: func(o Options) bool { return o.Shrinkwrap },
		specs: func(config.ModifierConfig) []stack.Spec {
			return []stack.Spec{{
				Role:     RoleShrinkwrap,
				Kind:     document.ModifierShrinkwrap,
				Settings: document.ShrinkwrapSettings{WrapMethod: "PROJECT", WrapMode: "OUTSIDE_SURFACE"},
			}}
		},
	},
	{
		name:       "panel",
		simplified: true,
		enabled:    func(o Options) bool { return o.Panel },
		specs: func(c config.ModifierConfig) []stack.Spec {
			return []stack.Spec{
				{Role: RolePanelSplit, Kind: document.ModifierNodes},
				{Role: RolePanelize, Kind: document.ModifierSolidify, Settings: document.SolidifySettings{
					Thickness:      c.Panel.Thickness,
					Offset:         -1,
					RimOnly:        true,
					EvenOffset:     true,
					QualityNormals: true,
				}},
			}
		},
	},
	{
		name:    "auto_uv",
		enabled: func(o Options) bool { return o.AutoUV },
		specs: func(config.ModifierConfig) []stack.Spec {
			return []stack.Spec{{Role: RoleAutoUV, Kind: document.ModifierNodes}}
		},
	},
	{
		name:       "chamfer",
		simplified: true,
		enabled:    func(o Options) bool { return o.Chamfer },
		specs: func(c config.ModifierConfig) []stack.Spec {
			bevel := document.DefaultBevelSettings()
			bevel.LimitMethod = "WEIGHT"
			bevel.OffsetType = "WIDTH"
			bevel.ClampOverlap = false
			bevel.LoopSlide = false
			bevel.MiterOuter = "MITER_ARC"
			bevel.FaceStrengthMode = "FSTR_ALL"
			bevel.Width = c.EdgeChamfer.Width
			bevel.Segments = c.EdgeChamfer.Segments
			bevel.EdgeWeight = attribute.ChamferWeight
			return []stack.Spec{
				{
					Role:   RoleEdgeDetect,
					Kind:   document.ModifierNodes,
					Inputs: map[string]any{"Angle threshold": c.EdgeChamfer.Angle * math.Pi / 180},
				},
				{Role: RoleEdgeChamfer, Kind: document.ModifierBevel, Settings: bevel},
				{Role: RoleWeightedNormals, Kind: document.ModifierWeightedNormal, Settings: document.WeightedNormalSettings{
					Weight:        100,
					Thresh:        10,
					FaceInfluence: true,
					KeepSharp:     true,
				}},
			}
		},
	},
}

// AddResult counts what AddModifiers changed.
type AddResult struct {
	Objects int
	Created int
	Failed  []string
}

// AddModifiers installs the enabled categories on every resolved mesh. The
// attribute schema is ensured and node assets reimported first. A failing
// category is reported and skipped; the others still run.
func (s *Session) AddModifiers(opts Options) (res AddResult, err error) {
	doc, done, err := s.begin("add_modifiers")
	if err != nil {
		return res, err
	}
	defer done(&err)

	objects := s.resolveObjects(doc)
	if len(objects) == 0 {
		return res, nil
	}
	var errs []error
	for _, obj := range objects {
		err := selection.WithMode(doc, document.ModeObject, func() error {
			_, err := attribute.EnsureSchema(obj.Mesh)
			return err
		})
		if err != nil {
			errs = append(errs, s.fail("add modifiers", fmt.Errorf("%s: %w", obj.Name, err)))
			continue
		}
		for _, failure := range s.importer.ReimportAll(doc, assets.DefaultGroups) {
			s.warn("%v", failure)
		}
		res.Objects++
		for _, cat := range categories {
			if !cat.enabled(opts) || (opts.Simplified && !cat.simplified) {
				continue
			}
			created, err := s.ensureCategory(doc, obj, cat)
			res.Created += created
			if err != nil {
				res.Failed = append(res.Failed, cat.name)
				s.warn("%s: %s skipped: %v", obj.Name, cat.name, err)
			}
		}
	}
	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	s.info("Added %d modifiers to %s", res.Created, describe(objects))
	return res, nil
}

// ensureCategory ensures each spec of cat in order, stopping at the first
// failure.
func (s *Session) ensureCategory(doc *document.Document, obj *document.Object, cat category) (int, error) {
	created := 0
	for _, spec := range cat.specs(s.settings) {
		_, isNew, err := s.stack.Ensure(doc, obj, spec)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

// ToggleModifierVisibility shows every managed modifier on the resolved
// meshes when fewer than half are visible, and hides them otherwise.
func (s *Session) ToggleModifierVisibility() (res stack.VisibilityResult, err error) {
	doc, done, err := s.begin("toggle_visibility")
	if err != nil {
		return res, err
	}
	defer done(&err)

	objects := s.resolveObjects(doc)
	if len(objects) == 0 {
		return res, nil
	}
	res = stack.ToggleVisibility(objects)
	if res.Total == 0 {
		s.info("No BP modifiers on %s", describe(objects))
		return res, nil
	}
	s.info("Toggled visibility for BP modifiers")
	return res, nil
}

// MirrorOptions configures SmartMirror. ByRoot mirrors across the topmost
// ancestor; otherwise the nearest empty ancestor is used.
type MirrorOptions struct {
	ByRoot bool `json:"by_root"`
	X      bool `json:"x"`
	Y      bool `json:"y"`
	Z      bool `json:"z"`
}

// SmartMirror installs or reconfigures the managed mirror modifier on each
// resolved mesh. Each axis is bisected on the side facing away from the
// mirror ancestor.
func (s *Session) SmartMirror(opts MirrorOptions) (err error) {
	doc, done, err := s.begin("smart_mirror")
	if err != nil {
		return err
	}
	defer done(&err)

	objects := s.resolveObjects(doc)
	var errs []error
	for _, obj := range objects {
		anchor := mirrorAnchor(doc, obj, opts.ByRoot)
		var flip [3]bool
		for axis := range flip {
			flip[axis] = obj.Location[axis]-anchor.Location[axis] < 0
		}
		target := anchor.Name
		if anchor == obj {
			target = ""
		}
		mod, _, err := s.stack.Ensure(doc, obj, stack.Spec{
			Role: RoleSmartMirror,
			Kind: document.ModifierMirror,
			Settings: document.MirrorSettings{
				Bisect: [3]bool{true, true, true},
				Clip:   true,
			},
		})
		if err != nil {
			errs = append(errs, s.fail("smart mirror", fmt.Errorf("%s: %w", obj.Name, err)))
			continue
		}
		mod.Mirror.Axis = [3]bool{opts.X, opts.Y, opts.Z}
		mod.Mirror.BisectFlip = flip
		mod.Mirror.MirrorObject = target
	}
	if len(objects) > 0 && len(errs) == 0 {
		s.info("Mirrored %s", describe(objects))
	}
	return errors.Join(errs...)
}

// mirrorAnchor walks obj's parent chain to the root, or to the nearest
// empty when byRoot is false. An unparented object anchors to itself.
func mirrorAnchor(doc *document.Document, obj *document.Object, byRoot bool) *document.Object {
	anchor := obj
	for hops := 0; anchor.Parent != "" && hops < len(doc.Objects); hops++ {
		parent := doc.Object(anchor.Parent)
		if parent == nil || parent == obj {
			break
		}
		anchor = parent
		if !byRoot && anchor.Type == document.ObjectEmpty {
			break
		}
	}
	return anchor
}
