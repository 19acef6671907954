package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/n0roo/filiere-kit/internal/server"
	"github.com/n0roo/filiere-kit/internal/server/events"
	"github.com/n0roo/filiere-kit/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Lancer l'API HTTP du dashboard",
	Long: `Lance l'API JSON du dashboard et le flux d'événements (SSE).

Routes:
  GET   /api/document             document complet
  PUT   /api/document             remplacement du document
  GET   /api/filieres             liste (?etat=, ?referent=)
  GET   /api/filieres/{clé}       fiche
  PATCH /api/filieres/{clé}       modification partielle
  POST  /api/filieres/{clé}/events  ajout d'un événement récent
  GET   /api/stats                statistiques
  GET   /api/export.csv           tableau CSV
  GET   /api/events               flux SSE
  GET   /healthz                  état du serveur

Avec le backend file et file.watch activé, les modifications externes du
fichier invalident le cache et sont diffusées sur le flux.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port (défaut: server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	srv := server.NewServer(server.Config{
		Port:    port,
		Backend: string(b.kind),
		Rules:   editRules(cfg),
	}, b.repo, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})

	if fb, ok := b.blob.(*store.FileBlob); ok && cfg.File.Watch {
		g.Go(func() error {
			return watchFile(ctx, fb, b.client, srv.Hub())
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

// watchFile invalidates the cache and notifies stream clients whenever the
// data file changes on disk
func watchFile(ctx context.Context, fb *store.FileBlob, client *store.Client, hub *events.SSEServer) error {
	logger.Info("watching data file", zap.String("path", fb.Path()))
	return fb.Watch(ctx, func() {
		client.Invalidate()
		hub.Broadcast(events.NewEvent(events.EventDocumentChanged, map[string]string{"path": fb.Path()}))
		logger.Debug("data file changed", zap.String("path", fb.Path()))
	})
}
