package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/db"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Base locale (backend sqlite)",
	Long:  `Gère la base locale utilisée par le backend sqlite.`,
}

var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lister les documents stockés",
	Args:  cobra.NoArgs,
	RunE:  runDBList,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "to-duckdb",
	Short: "Migrer la base SQLite vers DuckDB",
	Long: `Copie tous les documents de la base SQLite vers une base DuckDB.

Un fichier DuckDB existant est conservé en .backup.

Exemples:
  filiere db to-duckdb
  filiere db to-duckdb --source ~/.filiere/filiere.db`,
	Args: cobra.NoArgs,
	RunE: runDBMigrate,
}

var (
	dbMigrateSource string
	dbMigrateForce  bool
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbMigrateCmd)

	dbMigrateCmd.Flags().StringVar(&dbMigrateSource, "source", "", "fichier SQLite (défaut: sqlite.path)")
	dbMigrateCmd.Flags().BoolVar(&dbMigrateForce, "force", false, "remplacer un fichier DuckDB existant")
}

func runDBList(cmd *cobra.Command, args []string) error {
	database, err := openDatabase(cfg.SQLite.Path, cfg.SQLite.Engine)
	if err != nil {
		return err
	}
	defer database.Close()

	infos, err := database.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if infos == nil {
			infos = []db.DocumentInfo{}
		}
		return writeJSON(out, infos)
	}

	fmt.Fprintf(out, "Base: %s\n", database.Path())
	if len(infos) == 0 {
		fmt.Fprintln(out, "Aucun document.")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(out, "  %-30s %8d octets  %s\n", info.Name, info.Size, info.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	sqlitePath := dbMigrateSource
	if sqlitePath == "" {
		sqlitePath = cfg.SQLite.Path
	}

	if _, err := os.Stat(sqlitePath); os.IsNotExist(err) {
		return fmt.Errorf("fichier SQLite introuvable: %s", sqlitePath)
	}

	duckdbPath := db.GetDuckDBPath(sqlitePath)
	if _, err := os.Stat(duckdbPath); err == nil && !dbMigrateForce {
		return fmt.Errorf("le fichier DuckDB existe déjà: %s\nutilisez --force pour le remplacer", duckdbPath)
	}

	result, err := db.MigrateSQLiteToDuckDB(cmd.Context(), sqlitePath, duckdbPath)
	if err != nil {
		return fmt.Errorf("migration échouée: %w", err)
	}

	logger.Info("database migrated",
		zap.String("source", sqlitePath),
		zap.String("target", duckdbPath),
		zap.Int("documents", result.DocumentsCopied))

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✅ Migration terminée")
	fmt.Fprintf(out, "   Source: %s\n", sqlitePath)
	fmt.Fprintf(out, "   Cible:  %s\n", duckdbPath)
	fmt.Fprintf(out, "   Documents copiés: %d\n", result.DocumentsCopied)
	if len(result.Errors) > 0 {
		fmt.Fprintln(out, "\n⚠️  Avertissements:")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "   - %s\n", e)
		}
	}
	fmt.Fprintf(out, "\n💡 Pour utiliser DuckDB: export %s=duckdb (ou sqlite.engine: duckdb)\n", db.EnvDBType)
	return nil
}
