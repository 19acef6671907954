package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/config"
	"github.com/n0roo/filiere-kit/internal/logging"
)

var (
	cfgPath string
	verbose bool
	jsonOut bool

	// Set by the root command before any subcommand runs
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "filiere",
	Short: "Suivi de l'adoption de l'IA par filière",
	Long: `filiere - tableau de bord de l'adoption de l'IA générative par filière

Les données sont un document JSON unique stocké dans un Gist GitHub
(ou dans un fichier local, ou une base SQLite/DuckDB).

Fonctions principales:
  - Consultation: liste, fiche, statistiques, export
  - Édition: champs, événements récents, fiche complète dans $EDITOR
  - Dashboard: API HTTP (serve) et interface terminal (tui)`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "fichier de configuration (défaut: ~/.filiere/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "sortie détaillée (logs debug)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "sortie JSON")
}

// setup loads the configuration and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(GetConfigPath())
	if err != nil {
		return err
	}
	loaded.ApplyEnv(nil)
	cfg = loaded

	opts := logging.Options{
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
		Verbose: verbose,
	}
	// The terminal UI owns the screen
	if cmd.Name() == "tui" {
		if err := os.MkdirAll(config.GlobalDir(), 0755); err != nil {
			return fmt.Errorf("création du répertoire impossible: %w", err)
		}
		opts.OutputPaths = []string{filepath.Join(config.GlobalDir(), "filiere.log")}
	}

	l, err := logging.New(opts)
	if err != nil {
		return err
	}
	logger = l
	logger.Debug("configuration loaded",
		zap.String("path", GetConfigPath()),
		zap.String("backend", string(cfg.Store.Backend)))
	return nil
}

// GetConfigPath returns the configuration file path
func GetConfigPath() string {
	if cfgPath != "" {
		return config.ExpandHome(cfgPath)
	}
	return config.DefaultConfigPath()
}

// IsVerbose returns verbose flag
func IsVerbose() bool {
	return verbose
}

// IsJSON returns json output flag
func IsJSON() bool {
	return jsonOut
}
