package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/n0roo/filiere-kit/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Gérer la configuration",
	Long: `Gère la configuration de filiere.

Fichier: ~/.filiere/config.yaml (ou --config)

Les variables d'environnement prennent le pas sur le fichier:
  FILIERE_GIST_ID, FILIERE_GIST_FILE, FILIERE_GIST_TOKEN (ou GITHUB_TOKEN),
  FILIERE_BACKEND, FILIERE_DATA_FILE, FILIERE_LOG_LEVEL, FILIERE_PORT,
  FILIERE_DB_TYPE (sqlite ou duckdb)

Exemples:
  filiere config init --gist-id 0123abcd
  filiere config show`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Afficher la configuration effective (jeton masqué)",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Créer le fichier de configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Afficher le chemin du fichier de configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), GetConfigPath())
	},
}

var (
	configForce   bool
	configBackend string
	configGistID  string
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "écraser la configuration existante")
	configInitCmd.Flags().StringVar(&configBackend, "backend", string(config.BackendGist), "backend: gist, file, sqlite")
	configInitCmd.Flags().StringVar(&configGistID, "gist-id", "", "identifiant du gist")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	redacted := cfg.Redacted()
	out := cmd.OutOrStdout()

	if jsonOut {
		return writeJSON(out, map[string]interface{}{
			"path":   GetConfigPath(),
			"exists": config.Exists(GetConfigPath()),
			"config": redacted,
		})
	}

	data, err := yaml.Marshal(redacted)
	if err != nil {
		return fmt.Errorf("sérialisation de la configuration impossible: %w", err)
	}

	if !config.Exists(GetConfigPath()) {
		fmt.Fprintf(out, "# %s absent, valeurs par défaut et environnement\n", GetConfigPath())
	} else {
		fmt.Fprintf(out, "# %s\n", GetConfigPath())
	}
	_, err = out.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := GetConfigPath()
	if config.Exists(path) && !configForce {
		return fmt.Errorf("le fichier de configuration existe déjà: %s\nutilisez --force pour l'écraser", path)
	}

	// Built from defaults only: the token stays in the environment.
	c := config.DefaultConfig()
	c.Store.Backend = config.Backend(configBackend)
	c.Gist.ID = configGistID

	switch c.Store.Backend {
	case config.BackendGist, config.BackendFile, config.BackendSQLite:
	default:
		return fmt.Errorf("backend inconnu %q (gist, file, sqlite)", configBackend)
	}

	if err := config.Save(path, c); err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
			"status": "created",
			"path":   path,
			"config": c.Redacted(),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✅ Configuration créée")
	fmt.Fprintf(out, "   Fichier: %s\n", path)
	fmt.Fprintf(out, "   Backend: %s\n", c.Store.Backend)
	if c.Store.Backend == config.BackendGist {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "💡 Jeton GitHub: export %s=... (scope gist)\n", config.EnvGistToken)
		if c.Gist.ID == "" {
			fmt.Fprintf(out, "💡 Gist: --gist-id ou export %s=...\n", config.EnvGistID)
		}
		fmt.Fprintln(out, "   Puis: filiere check")
	}
	return nil
}
