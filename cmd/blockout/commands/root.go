package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kingrea/blockout/internal/assets"
	"github.com/kingrea/blockout/internal/blockout"
	"github.com/kingrea/blockout/internal/config"
	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/logbook"
	"github.com/kingrea/blockout/internal/logging"
	"github.com/kingrea/blockout/internal/metrics"
)

// env carries the flags and the collaborators a command opens.
type env struct {
	projectDir string
	docPath    string

	cfg     *config.Config
	logger  *logging.Logger
	journal *logbook.Logbook
	metrics *metrics.Recorder
	repo    *document.Repository
	session *blockout.Session
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree. Each call gets its own flag state.
func NewRootCommand() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:          "blockout",
		Short:        "Hard-surface blockout: managed modifier stacks and semantic edge flags",
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
	}
	root.PersistentFlags().StringVar(&e.projectDir, "project", ".", "project directory holding .blockout/")
	root.PersistentFlags().StringVar(&e.docPath, "doc", "", "scene document (default .blockout/state/scene.json)")

	root.AddCommand(
		initCmd(e),
		statusCmd(e),
		modeCmd(e),
		selectCmd(e),
		addModifiersCmd(e),
		visibilityCmd(e),
		edgeCmd(e),
		sliderCmd(e),
		mirrorCmd(e),
		modifierCmd(e),
		serveCmd(e),
		tuiCmd(e),
	)
	return root
}

// loadConfig reads .blockout/config.yaml and opens the loggers.
func (e *env) loadConfig() error {
	if e.cfg != nil {
		return nil
	}
	cfg, err := config.NewConfig(e.projectDir)
	if err != nil {
		return err
	}
	logger, err := logging.FromConfig(cfg)
	if err != nil {
		return err
	}
	journal, err := logbook.New(cfg.JournalPath())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	e.cfg = cfg
	e.logger = logger
	e.journal = journal
	e.metrics = metrics.New()
	path := e.docPath
	if path == "" {
		path = cfg.DocumentPath()
	}
	e.repo = document.NewRepository(path)
	return nil
}

// open loads the document and binds a session to it.
func (e *env) open() (*blockout.Session, error) {
	if e.session != nil {
		return e.session, nil
	}
	if err := e.loadConfig(); err != nil {
		return nil, err
	}
	doc, err := e.repo.Load()
	if errors.Is(err, document.ErrDocumentNotFound) {
		return nil, fmt.Errorf("no document at %s; run `blockout init` first", e.repo.Path())
	}
	if err != nil {
		return nil, err
	}
	library := e.cfg.LibraryPath()
	if _, err := os.Stat(library); err != nil {
		e.logger.Warnf("library %s unavailable, using the bundled one", library)
		library = ""
	}
	e.session = blockout.New(blockout.Deps{
		Config:   e.cfg,
		Reporter: e.journal,
		Logger:   e.logger,
		Metrics:  e.metrics,
		Importer: assets.NewImporter(library, e.metrics),
	})
	e.session.Open(doc)
	return e.session, nil
}

// run opens the session, runs fn, lets the observer react and saves. fn's
// message is printed on success.
func (e *env) run(cmd *cobra.Command, fn func(s *blockout.Session) (string, error)) error {
	s, err := e.open()
	if err != nil {
		return err
	}
	msg, err := fn(s)
	if err != nil {
		return err
	}
	if err := s.OnDocumentChanged(); err != nil {
		return err
	}
	if err := s.Save(e.repo); err != nil {
		return fmt.Errorf("save %s: %w", e.repo.Path(), err)
	}
	if msg != "" {
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	}
	return nil
}

func (e *env) close() error {
	if e.logger == nil {
		return nil
	}
	return e.logger.Close()
}

func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
