package document

import "fmt"

// Domain names the element set an attribute layer is indexed by.
type Domain string

const (
	DomainEdge   Domain = "EDGE"
	DomainPoint  Domain = "POINT"
	DomainCorner Domain = "CORNER"
)

// Kind names the value type stored per element.
type Kind string

const (
	KindBoolean    Kind = "BOOLEAN"
	KindFloat      Kind = "FLOAT"
	KindFloat2     Kind = "FLOAT2"
	KindFloatColor Kind = "FLOAT_COLOR"
)

// Components reports how many floats make up one element of the kind.
func (k Kind) Components() int {
	switch k {
	case KindFloat2:
		return 2
	case KindFloatColor:
		return 4
	default:
		return 1
	}
}

// Edge joins two vertices. Select mirrors the host's per-edge selection flag.
type Edge struct {
	V1     int  `json:"v1"`
	V2     int  `json:"v2"`
	Select bool `json:"select,omitempty"`
}

// Face is a polygon described by the edges bounding it.
type Face struct {
	Edges  []int `json:"edges"`
	Select bool  `json:"select,omitempty"`
}

// Layer is one named attribute array. Values is flat: element i occupies
// Values[i*c : (i+1)*c] where c is Kind.Components().
type Layer struct {
	Name   string    `json:"name"`
	Domain Domain    `json:"domain"`
	Kind   Kind      `json:"kind"`
	Values []float64 `json:"values"`
}

// Len returns the number of elements stored in the layer.
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Values) / l.Kind.Components()
}

// Mesh holds topology plus attribute layers.
type Mesh struct {
	Vertices int      `json:"vertices"`
	Edges    []Edge   `json:"edges"`
	Faces    []Face   `json:"faces,omitempty"`
	Layers   []*Layer `json:"layers,omitempty"`
}

// CornerCount is the number of face corners (sum of face sizes).
func (m *Mesh) CornerCount() int {
	total := 0
	for _, face := range m.Faces {
		total += len(face.Edges)
	}
	return total
}

// DomainSize returns the element count for a domain.
func (m *Mesh) DomainSize(d Domain) int {
	switch d {
	case DomainEdge:
		return len(m.Edges)
	case DomainPoint:
		return m.Vertices
	case DomainCorner:
		return m.CornerCount()
	default:
		return 0
	}
}

// Layer looks up an attribute layer by exact name.
func (m *Mesh) Layer(name string) *Layer {
	for _, layer := range m.Layers {
		if layer.Name == name {
			return layer
		}
	}
	return nil
}

// LayersIn returns the layers stored on a domain with the given kind, in
// creation order.
func (m *Mesh) LayersIn(d Domain, k Kind) []*Layer {
	var out []*Layer
	for _, layer := range m.Layers {
		if layer.Domain == d && layer.Kind == k {
			out = append(out, layer)
		}
	}
	return out
}

// AddLayer creates a zero-filled layer sized to its domain.
func (m *Mesh) AddLayer(name string, d Domain, k Kind) (*Layer, error) {
	if name == "" {
		return nil, fmt.Errorf("document: layer name is required")
	}
	if m.Layer(name) != nil {
		return nil, fmt.Errorf("document: layer %q already exists", name)
	}
	layer := &Layer{
		Name:   name,
		Domain: d,
		Kind:   k,
		Values: make([]float64, m.DomainSize(d)*k.Components()),
	}
	m.Layers = append(m.Layers, layer)
	return layer, nil
}

// ConvertLayer retypes a layer in place, resetting its values.
func (m *Mesh) ConvertLayer(name string, d Domain, k Kind) error {
	layer := m.Layer(name)
	if layer == nil {
		return fmt.Errorf("document: layer %q not found", name)
	}
	layer.Domain = d
	layer.Kind = k
	layer.Values = make([]float64, m.DomainSize(d)*k.Components())
	return nil
}

// RenameLayer changes a layer name, refusing to shadow another layer.
func (m *Mesh) RenameLayer(from, to string) error {
	layer := m.Layer(from)
	if layer == nil {
		return fmt.Errorf("document: layer %q not found", from)
	}
	if from == to {
		return nil
	}
	if m.Layer(to) != nil {
		return fmt.Errorf("document: layer %q already exists", to)
	}
	layer.Name = to
	return nil
}

// SelectedEdges returns the indices of selected edges in ascending order.
func (m *Mesh) SelectedEdges() []int {
	var out []int
	for i, edge := range m.Edges {
		if edge.Select {
			out = append(out, i)
		}
	}
	return out
}

// SelectEdges replaces the edge selection with the given indices.
func (m *Mesh) SelectEdges(indices ...int) error {
	for _, idx := range indices {
		if idx < 0 || idx >= len(m.Edges) {
			return fmt.Errorf("document: edge %d out of range (edges=%d)", idx, len(m.Edges))
		}
	}
	m.DeselectAllEdges()
	for _, idx := range indices {
		m.Edges[idx].Select = true
	}
	return nil
}

// SetEdgeSelect flags a single edge.
func (m *Mesh) SetEdgeSelect(idx int, selected bool) {
	if idx < 0 || idx >= len(m.Edges) {
		return
	}
	m.Edges[idx].Select = selected
}

// DeselectAllEdges clears the edge selection.
func (m *Mesh) DeselectAllEdges() {
	for i := range m.Edges {
		m.Edges[i].Select = false
	}
}

// SelectedFaces returns the indices of selected faces.
func (m *Mesh) SelectedFaces() []int {
	var out []int
	for i, face := range m.Faces {
		if face.Select {
			out = append(out, i)
		}
	}
	return out
}

// RegionToLoop replaces the edge selection with the boundary of the face
// selection: edges used by exactly one selected face.
func (m *Mesh) RegionToLoop() {
	uses := make(map[int]int)
	for _, face := range m.Faces {
		if !face.Select {
			continue
		}
		for _, e := range face.Edges {
			uses[e]++
		}
	}
	m.DeselectAllEdges()
	for e, n := range uses {
		if n == 1 && e >= 0 && e < len(m.Edges) {
			m.Edges[e].Select = true
		}
	}
	for i := range m.Faces {
		m.Faces[i].Select = false
	}
}
