package stack

import (
	"github.com/google/uuid"

	"github.com/kingrea/blockout/internal/document"
)

// Reconciler keeps user modifiers evaluating before the managed cluster.
// It remembers the modifier keys it last saw per object and only moves
// modifiers that appeared since then.
type Reconciler struct {
	snapshots map[string]map[uuid.UUID]struct{}
	metrics   Metrics
}

// NewReconciler returns a reconciler with no snapshots.
func NewReconciler(metrics Metrics) *Reconciler {
	return &Reconciler{snapshots: map[string]map[uuid.UUID]struct{}{}, metrics: metrics}
}

// Prime records obj's current stack as the baseline without moving anything.
func (r *Reconciler) Prime(obj *document.Object) {
	r.snapshots[obj.Name] = keySet(obj.ModifierKeys())
}

// Forget drops the snapshot for an object.
func (r *Reconciler) Forget(name string) {
	delete(r.snapshots, name)
}

// Observe promotes every modifier that is new since the last snapshot and
// not managed until it sits immediately before the first managed modifier.
// The first observation of an object only records the baseline. It returns
// the number of modifiers relocated.
func (r *Reconciler) Observe(obj *document.Object) int {
	if obj == nil {
		return 0
	}
	previous, seen := r.snapshots[obj.Name]
	if !seen {
		r.Prime(obj)
		return 0
	}
	moved := 0
	for _, key := range obj.ModifierKeys() {
		if _, known := previous[key]; known {
			continue
		}
		if promote(obj, key) {
			moved++
		}
	}
	r.Prime(obj)
	if moved > 0 && r.metrics != nil {
		r.metrics.ModifiersReordered(moved)
	}
	return moved
}

func promote(obj *document.Object, key uuid.UUID) bool {
	idx := obj.ModifierIndex(key)
	if idx < 0 || obj.Modifiers[idx].Owned {
		return false
	}
	moved := false
	for {
		first := FirstOwnedIndex(obj)
		idx = obj.ModifierIndex(key)
		if first < 0 || idx < first {
			return moved
		}
		if err := obj.MoveModifierUp(key); err != nil {
			return moved
		}
		moved = true
	}
}

func keySet(keys []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}
