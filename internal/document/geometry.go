package document

import (
	"fmt"
	"time"
)

// OpKind names a destructive mesh operation.
type OpKind string

const (
	OpBevel     OpKind = "bevel"
	OpEdgeSplit OpKind = "edge_split"
)

// BevelRequest carries the parameters of a destructive bevel.
type BevelRequest struct {
	Offset       float64 `json:"offset"`
	OffsetPct    float64 `json:"offset_pct,omitempty"`
	OffsetType   string  `json:"offset_type"`
	Segments     int     `json:"segments"`
	Profile      float64 `json:"profile"`
	Affect       string  `json:"affect"`
	MiterInner   string  `json:"miter_inner"`
	MiterOuter   string  `json:"miter_outer"`
	ClampOverlap bool    `json:"clamp_overlap"`
	LoopSlide    bool    `json:"loop_slide"`
}

// Operation is one entry of the document's destructive-operation log.
type Operation struct {
	Kind      OpKind        `json:"kind"`
	Object    string        `json:"object"`
	Edges     []int         `json:"edges"`
	Automerge bool          `json:"automerge"`
	Bevel     *BevelRequest `json:"bevel,omitempty"`
	At        time.Time     `json:"at"`
}

// Geometry performs destructive edits on the selected edges of an object in
// edit mode.
type Geometry interface {
	Bevel(doc *Document, obj *Object, req BevelRequest) error
	EdgeSplit(doc *Document, obj *Object) error
}

// Recorder is the reference Geometry: it validates preconditions and logs
// the request in Document.OpLog instead of rebuilding topology.
type Recorder struct {
	Clock func() time.Time
}

// Bevel implements Geometry.
func (r Recorder) Bevel(doc *Document, obj *Object, req BevelRequest) error {
	edges, err := r.precheck(doc, obj)
	if err != nil {
		return err
	}
	if req.Segments < 1 {
		return fmt.Errorf("document: bevel segments must be >= 1, got %d", req.Segments)
	}
	reqCopy := req
	doc.OpLog = append(doc.OpLog, Operation{
		Kind:      OpBevel,
		Object:    obj.Name,
		Edges:     edges,
		Automerge: doc.Tools.Automerge,
		Bevel:     &reqCopy,
		At:        r.now(),
	})
	return nil
}

// EdgeSplit implements Geometry.
func (r Recorder) EdgeSplit(doc *Document, obj *Object) error {
	edges, err := r.precheck(doc, obj)
	if err != nil {
		return err
	}
	doc.OpLog = append(doc.OpLog, Operation{
		Kind:      OpEdgeSplit,
		Object:    obj.Name,
		Edges:     edges,
		Automerge: doc.Tools.Automerge,
		At:        r.now(),
	})
	return nil
}

func (r Recorder) precheck(doc *Document, obj *Object) ([]int, error) {
	if doc.Mode != ModeEdit {
		return nil, fmt.Errorf("document: mesh operators require edit mode")
	}
	if !obj.IsMesh() {
		return nil, fmt.Errorf("document: %s is not a mesh", obj.Name)
	}
	return obj.Mesh.SelectedEdges(), nil
}

func (r Recorder) now() time.Time {
	if r.Clock != nil {
		return r.Clock().UTC()
	}
	return time.Now().UTC()
}
