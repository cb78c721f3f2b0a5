package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/blockout/internal/blockout"
	"github.com/kingrea/blockout/internal/eventbridge"
	"github.com/kingrea/blockout/internal/tui"
)

// bridgeProcessor routes one event through the session's subscriptions,
// runs the observer after anything that is not itself a change notice, and
// saves the document.
func bridgeProcessor(e *env, s *blockout.Session, router *eventbridge.Router) eventbridge.EventProcessor {
	return eventbridge.EventProcessorFunc(func(event eventbridge.Event) error {
		if err := router.HandleEvent(event); err != nil {
			return err
		}
		if event.Type != eventbridge.TypeDocumentChanged {
			if err := s.OnDocumentChanged(); err != nil {
				return err
			}
		}
		return s.Save(e.repo)
	})
}

func serveCmd(e *env) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP event bridge a host application posts notifications to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			settings := eventbridge.SettingsFromConfig(e.cfg)
			settings.Enabled = true
			if host != "" {
				settings.Host = host
			}
			if port != 0 {
				settings.Port = port
			}

			router := eventbridge.NewRouter(eventbridge.RouterWithLogger(e.logger))
			unsubscribe := s.Subscribe(router)
			defer unsubscribe()

			server := eventbridge.NewServer(settings,
				eventbridge.WithProcessor(bridgeProcessor(e, s, router)),
				eventbridge.WithScene(s.BridgeScene),
				eventbridge.WithLogger(e.logger),
				eventbridge.WithMetrics(e.metrics.Handler()),
			)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := server.Start(ctx); err != nil {
				return err
			}
			e.journal.Info("Bridge listening on %s", server.BaseURL())
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (ctrl+c to stop)\n", server.BaseURL())

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "override the bridge host")
	cmd.Flags().IntVar(&port, "port", 0, "override the bridge port")
	return cmd
}

func tuiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Edit the scene interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			if err := s.OnDocumentChanged(); err != nil {
				return err
			}
			app := tui.NewApp(s, tui.WithRepository(e.repo), tui.WithLogbook(e.journal))
			// tea.WithAltScreen uses the alternate screen buffer, like vim.
			_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
			return err
		},
	}
}
