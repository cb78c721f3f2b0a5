package selection

import (
	"errors"

	"github.com/kingrea/blockout/internal/document"
)

// ModeScope remembers the mode a caller was in so it can be restored after
// a temporary switch.
type ModeScope struct {
	doc   *document.Document
	prior document.Mode
}

// Enter switches doc to mode and returns a scope holding the prior mode.
func Enter(doc *document.Document, mode document.Mode) (*ModeScope, error) {
	scope := &ModeScope{doc: doc, prior: doc.Mode}
	if err := doc.SetMode(mode); err != nil {
		return nil, err
	}
	return scope, nil
}

// Prior is the mode the scope will restore.
func (s *ModeScope) Prior() document.Mode {
	return s.prior
}

// Restore switches back to the prior mode.
func (s *ModeScope) Restore() error {
	return s.doc.SetMode(s.prior)
}

// WithMode runs fn in mode and restores the caller's mode afterwards,
// whether or not fn fails.
func WithMode(doc *document.Document, mode document.Mode, fn func() error) error {
	scope, err := Enter(doc, mode)
	if err != nil {
		return err
	}
	runErr := fn()
	if restoreErr := scope.Restore(); restoreErr != nil {
		return errors.Join(runErr, restoreErr)
	}
	return runErr
}
