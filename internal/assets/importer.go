// Package assets keeps the document's node groups in step with the bundled
// node-group library. Reimport is a file merge: the old group is parked
// under a temporary name, the library copy is loaded, references move to
// it and the parked group is dropped.
package assets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/blockout/internal/document"
)

// ErrAssetUnavailable means the library could not be read or lacks the group.
var ErrAssetUnavailable = errors.New("assets: node group unavailable")

// TempSuffix is appended to a group parked during reimport.
const TempSuffix = "_temp_"

// DefaultGroups are the node groups the managed stack binds to.
var DefaultGroups = []string{"BP_SubD", "BP_PanelSplit", "BP_AutoUV", "BP_EdgeDetect", "BP_SplineFillet"}

// Metrics observes import outcomes.
type Metrics interface {
	AssetImport(group, status string)
}

// Importer loads node groups from a library file. An empty path uses the
// library compiled into the binary.
type Importer struct {
	path    string
	metrics Metrics
}

// NewImporter returns an importer reading path.
func NewImporter(path string, metrics Metrics) *Importer {
	return &Importer{path: strings.TrimSpace(path), metrics: metrics}
}

// Path returns the library file, or "" for the bundled one.
func (i *Importer) Path() string {
	return i.path
}

// Library loads the configured library.
func (i *Importer) Library() (Library, error) {
	if i.path == "" {
		return DefaultLibrary()
	}
	return LoadLibraryFile(i.path)
}

// Ensure returns the named group, importing it when the document lacks it.
func (i *Importer) Ensure(doc *document.Document, name string) (*document.NodeGroup, error) {
	if group := doc.NodeGroup(name); group != nil {
		return group, nil
	}
	return i.Reimport(doc, name)
}

// Reimport replaces the named group with a fresh copy from the library and
// remaps every modifier that used the old one. It runs in object mode and
// restores edit mode afterwards. On failure the old group keeps its name.
func (i *Importer) Reimport(doc *document.Document, name string) (group *document.NodeGroup, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("assets: group name is required")
	}
	if doc.Mode == document.ModeEdit {
		if err := doc.SetMode(document.ModeObject); err != nil {
			return nil, err
		}
		defer func() {
			if restoreErr := doc.SetMode(document.ModeEdit); restoreErr != nil {
				err = errors.Join(err, restoreErr)
			}
		}()
	}

	old := doc.NodeGroup(name)
	if old != nil {
		old.Name = name + TempSuffix
	}
	restore := func() {
		if old != nil {
			old.Name = name
		}
	}

	lib, err := i.Library()
	if err != nil {
		restore()
		i.record(name, "failed")
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetUnavailable, name, err)
	}
	def, ok := lib.Group(name)
	if !ok {
		restore()
		i.record(name, "missing")
		return nil, fmt.Errorf("%w: %s not found in library", ErrAssetUnavailable, name)
	}

	fresh := doc.AddNodeGroup(&document.NodeGroup{
		Name:        def.Name,
		Description: def.Description,
		Source:      i.sourceLabel(),
		Inputs:      def.Defaults(),
	})
	if old != nil {
		doc.RemapNodeGroup(old, fresh)
		doc.RemoveNodeGroup(old.Key)
	}
	i.record(name, "ok")
	return fresh, nil
}

// ReimportAll reimports each group best-effort and returns one error per
// failure; a failure never stops the remaining groups.
func (i *Importer) ReimportAll(doc *document.Document, names []string) []error {
	var failures []error
	for _, name := range names {
		if _, err := i.Reimport(doc, name); err != nil {
			failures = append(failures, err)
		}
	}
	return failures
}

func (i *Importer) sourceLabel() string {
	if i.path == "" {
		return "bundled"
	}
	return i.path
}

func (i *Importer) record(group, status string) {
	if i.metrics != nil {
		i.metrics.AssetImport(group, status)
	}
}
