// Package attribute is the single source of truth for blockout's per-edge
// and per-vertex semantic flags. It owns the attribute schema and the only
// sanctioned read/write path into a mesh's attribute layers.
package attribute

import (
	"errors"
	"fmt"

	"github.com/kingrea/blockout/internal/document"
)

var (
	// ErrAttributeMissing means the layer was read before EnsureSchema.
	ErrAttributeMissing = errors.New("attribute: missing")
	// ErrSizeMismatch means a layer is out of step with its mesh domain.
	ErrSizeMismatch = errors.New("attribute: size mismatch")
	// ErrUnknownAttribute means the name is not part of the schema.
	ErrUnknownAttribute = errors.New("attribute: unknown")
)

// Semantic edge flags and the native layers that mirror them.
const (
	PanelEdge         = "panel_edge"
	ChamferWeight     = "chamfer_weight"
	FilletConstrained = "fillet_constrained"
	FilletWeighted    = "fillet_weighted"
	SharpEdge         = "sharp_edge"
	UVSeam            = "uv_seam"
	FreestyleEdge     = "freestyle_edge"
	CreaseEdge        = "crease_edge"
	CreaseVerts       = "crease_verts"
	UVMap             = "UVMap"
	Color             = "Color"
)

// Spec describes one required layer.
type Spec struct {
	Name   string
	Domain document.Domain
	Kind   document.Kind
}

// IsFloat reports whether the layer stores a weight rather than a flag.
func (s Spec) IsFloat() bool {
	return s.Kind == document.KindFloat
}

var schema = []Spec{
	{Name: UVMap, Domain: document.DomainCorner, Kind: document.KindFloat2},
	{Name: SharpEdge, Domain: document.DomainEdge, Kind: document.KindBoolean},
	{Name: UVSeam, Domain: document.DomainEdge, Kind: document.KindBoolean},
	{Name: FreestyleEdge, Domain: document.DomainEdge, Kind: document.KindBoolean},
	{Name: ChamferWeight, Domain: document.DomainEdge, Kind: document.KindFloat},
	{Name: CreaseEdge, Domain: document.DomainEdge, Kind: document.KindFloat},
	{Name: CreaseVerts, Domain: document.DomainPoint, Kind: document.KindFloat},
	{Name: FilletWeighted, Domain: document.DomainEdge, Kind: document.KindFloat},
	{Name: FilletConstrained, Domain: document.DomainEdge, Kind: document.KindBoolean},
	{Name: PanelEdge, Domain: document.DomainEdge, Kind: document.KindBoolean},
}

var edgeFlags = []string{PanelEdge, ChamferWeight, FilletConstrained, FilletWeighted, SharpEdge}

// Schema returns the required layers in creation order. The vertex color
// layer is handled separately because it is repaired rather than created
// by name.
func Schema() []Spec {
	out := make([]Spec, len(schema))
	copy(out, schema)
	return out
}

// Lookup returns the schema entry for name.
func Lookup(name string) (Spec, bool) {
	for _, spec := range schema {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

// Require is Lookup that fails with ErrUnknownAttribute.
func Require(name string) (Spec, error) {
	spec, ok := Lookup(name)
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return spec, nil
}

// EdgeFlags lists the user-facing semantic edge attributes.
func EdgeFlags() []string {
	out := make([]string, len(edgeFlags))
	copy(out, edgeFlags)
	return out
}

// IsEdgeFlag reports whether name is a user-facing semantic edge attribute.
func IsEdgeFlag(name string) bool {
	for _, flag := range edgeFlags {
		if flag == name {
			return true
		}
	}
	return false
}

// Flagged is the shared truthiness rule: any non-zero value counts.
func Flagged(value float64) bool {
	return value != 0
}

// EnsureSchema creates every missing layer without touching existing ones
// and repairs UV and color layer naming. It returns the names it created.
func EnsureSchema(mesh *document.Mesh) ([]string, error) {
	if mesh == nil {
		return nil, fmt.Errorf("attribute: nil mesh")
	}
	if uvs := mesh.LayersIn(document.DomainCorner, document.KindFloat2); len(uvs) == 1 && uvs[0].Name != UVMap {
		if err := mesh.RenameLayer(uvs[0].Name, UVMap); err != nil {
			return nil, err
		}
	}
	var created []string
	for _, spec := range schema {
		if mesh.Layer(spec.Name) != nil {
			continue
		}
		if _, err := mesh.AddLayer(spec.Name, spec.Domain, spec.Kind); err != nil {
			return created, err
		}
		created = append(created, spec.Name)
	}
	made, err := ensureColor(mesh)
	if err != nil {
		return created, err
	}
	if made {
		created = append(created, Color)
	}
	return created, nil
}

func ensureColor(mesh *document.Mesh) (bool, error) {
	var colors []*document.Layer
	for _, layer := range mesh.Layers {
		if layer.Kind == document.KindFloatColor {
			colors = append(colors, layer)
		}
	}
	switch len(colors) {
	case 0:
		_, err := mesh.AddLayer(Color, document.DomainPoint, document.KindFloatColor)
		return err == nil, err
	case 1:
		if colors[0].Name != Color {
			if err := mesh.RenameLayer(colors[0].Name, Color); err != nil {
				return false, err
			}
		}
	}
	for _, layer := range colors {
		if layer.Domain != document.DomainPoint {
			if err := mesh.ConvertLayer(layer.Name, document.DomainPoint, document.KindFloatColor); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// Read returns the values of a scalar layer at the given element indices.
func Read(mesh *document.Mesh, name string, indices []int) ([]float64, error) {
	layer, err := scalarLayer(mesh, name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(layer.Values) {
			return nil, fmt.Errorf("attribute: %s index %d out of range", name, idx)
		}
		out[i] = layer.Values[idx]
	}
	return out, nil
}

// Write stores value at every index. Booleans are stored as exactly 0 or 1.
func Write(mesh *document.Mesh, name string, indices []int, value float64) error {
	layer, err := scalarLayer(mesh, name)
	if err != nil {
		return err
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(layer.Values) {
			return fmt.Errorf("attribute: %s index %d out of range", name, idx)
		}
	}
	if layer.Kind == document.KindBoolean {
		value = boolValue(Flagged(value))
	}
	for _, idx := range indices {
		layer.Values[idx] = value
	}
	return nil
}

// Mean averages a scalar layer over indices. An empty index set is an error.
func Mean(mesh *document.Mesh, name string, indices []int) (float64, error) {
	if len(indices) == 0 {
		return 0, fmt.Errorf("attribute: mean of %s over empty selection", name)
	}
	values, err := Read(mesh, name, indices)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// CountFlagged counts indices whose value is non-zero.
func CountFlagged(mesh *document.Mesh, name string, indices []int) (int, error) {
	values, err := Read(mesh, name, indices)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range values {
		if Flagged(v) {
			n++
		}
	}
	return n, nil
}

// Present reports whether the named layer exists.
func Present(mesh *document.Mesh, name string) bool {
	return mesh != nil && mesh.Layer(name) != nil
}

// Layer returns the validated scalar layer backing name.
func Layer(mesh *document.Mesh, name string) (*document.Layer, error) {
	return scalarLayer(mesh, name)
}

func scalarLayer(mesh *document.Mesh, name string) (*document.Layer, error) {
	if mesh == nil {
		return nil, fmt.Errorf("attribute: nil mesh")
	}
	layer := mesh.Layer(name)
	if layer == nil {
		return nil, fmt.Errorf("%w: %s", ErrAttributeMissing, name)
	}
	if layer.Kind.Components() != 1 {
		return nil, fmt.Errorf("attribute: %s is not a scalar layer (%s)", name, layer.Kind)
	}
	want := mesh.DomainSize(layer.Domain)
	if got := layer.Len(); got != want || len(layer.Values)%layer.Kind.Components() != 0 {
		return nil, fmt.Errorf("%w: %s has %d values for %d %s elements", ErrSizeMismatch, name, got, want, layer.Domain)
	}
	return layer, nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
