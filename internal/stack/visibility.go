package stack

import "github.com/kingrea/blockout/internal/document"

// VisibilityResult describes a ToggleVisibility call.
type VisibilityResult struct {
	Total   int
	Visible int
	Shown   bool
}

// ToggleVisibility counts managed modifiers shown in the viewport across
// objects. Fewer than half visible shows them all; otherwise all are
// hidden. With no managed modifiers nothing changes.
func ToggleVisibility(objects []*document.Object) VisibilityResult {
	var res VisibilityResult
	for _, obj := range objects {
		for _, mod := range Owned(obj) {
			res.Total++
			if mod.ShowViewport {
				res.Visible++
			}
		}
	}
	if res.Total == 0 {
		return res
	}
	res.Shown = float64(res.Visible)/float64(res.Total) < 0.5
	for _, obj := range objects {
		for _, mod := range Owned(obj) {
			mod.ShowViewport = res.Shown
		}
	}
	return res
}
