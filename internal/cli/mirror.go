package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/config"
	"github.com/n0roo/filiere-kit/internal/store"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copier le document vers un autre backend",
	Long: `Charge le document du backend configuré (migré au schéma courant) et
l'écrit tel quel dans un autre backend: copie de travail locale, sauvegarde
ou préparation d'un changement de backend.

Exemples:
  filiere mirror --to file
  filiere mirror --to file --path ./sauvegarde.json
  filiere mirror --to sqlite --engine duckdb`,
	Args: cobra.NoArgs,
	RunE: runMirror,
}

var (
	mirrorTo     string
	mirrorPath   string
	mirrorEngine string
)

func init() {
	rootCmd.AddCommand(mirrorCmd)
	mirrorCmd.Flags().StringVar(&mirrorTo, "to", "", "backend cible: gist, file, sqlite")
	mirrorCmd.Flags().StringVar(&mirrorPath, "path", "", "chemin cible (file ou sqlite)")
	mirrorCmd.Flags().StringVar(&mirrorEngine, "engine", "", "moteur sqlite: sqlite ou duckdb")
	mirrorCmd.MarkFlagRequired("to")
}

// mirrorTarget returns a copy of c pointing at the mirror destination
func mirrorTarget(c *config.Config, to config.Backend, path, engine string) (*config.Config, error) {
	target := *c
	switch to {
	case config.BackendFile:
		if path != "" {
			target.File.Path = config.ExpandHome(path)
		}
	case config.BackendSQLite:
		if path != "" {
			target.SQLite.Path = config.ExpandHome(path)
		}
		if engine != "" {
			target.SQLite.Engine = engine
		}
	case config.BackendGist:
	default:
		return nil, fmt.Errorf("backend cible inconnu %q (gist, file, sqlite)", to)
	}
	target.Store.Backend = to
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return &target, nil
}

func runMirror(cmd *cobra.Command, args []string) error {
	to := config.Backend(mirrorTo)
	if to == cfg.Store.Backend && mirrorPath == "" {
		return errors.New("la cible est le backend configuré, précisez --path ou un autre --to")
	}

	target, err := mirrorTarget(cfg, to, mirrorPath, mirrorEngine)
	if err != nil {
		return err
	}

	src, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	doc, err := src.repo.Load(cmd.Context())
	if err != nil {
		return err
	}

	blob, closeFn, err := openBlob(target, to, logger)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	dst := store.NewClient(blob, store.WithCacheTTL(0), store.WithLogger(logger))
	if err := dst.SaveDocument(cmd.Context(), doc); err != nil {
		return fmt.Errorf("écriture vers %s impossible: %w", to, err)
	}

	logger.Info("document mirrored",
		zap.String("from", string(src.kind)),
		zap.String("to", string(to)),
		zap.Int("filieres", len(doc.Filieres)))

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
			"from":     src.kind,
			"to":       to,
			"filieres": len(doc.Filieres),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d filière(s) copiée(s) de %s vers %s\n", len(doc.Filieres), src.kind, to)
	return nil
}
