package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kingrea/blockout/internal/assets"
	"github.com/kingrea/blockout/internal/config"
	"github.com/kingrea/blockout/internal/document"
)

func initCmd(e *env) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create .blockout/ with a config, the node library and a sample scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitDir(e.projectDir); err != nil {
				return err
			}
			if err := e.loadConfig(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			wrote, err := assets.WriteDefaultLibrary(e.cfg.LibraryPath())
			if err != nil {
				return err
			}
			if wrote {
				printf(out, "Wrote %s\n", relPath(e.cfg.ProjectDir, e.cfg.LibraryPath()))
			}
			_, err = e.repo.Load()
			switch {
			case err == nil && !force:
				printf(out, "Kept %s\n", relPath(e.cfg.ProjectDir, e.repo.Path()))
				return nil
			case err != nil && !errors.Is(err, document.ErrDocumentNotFound) && !force:
				return err
			}
			if err := e.repo.Save(document.NewSample()); err != nil {
				return err
			}
			e.journal.Info("Initialized sample scene")
			printf(out, "Wrote %s\n", relPath(e.cfg.ProjectDir, e.repo.Path()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing scene document")
	return cmd
}
