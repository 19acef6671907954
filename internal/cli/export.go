package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/export"
	"github.com/n0roo/filiere-kit/internal/filiere"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exporter le tableau ou un instantané",
	Long: `Exporte les filières.

Formats:
  csv   tableau du dashboard (une ligne par filière)
  yaml  instantané complet avec manifeste (date, machine, empreinte)
  json  même instantané en JSON

Exemples:
  filiere export --format csv -o filieres.csv
  filiere export --format yaml --etat prompts_deployes`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var (
	exportFormat string
	exportOutput string
	exportFilter filiere.Filter
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "format: csv, yaml, json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "fichier de sortie (défaut: sortie standard)")
	addFilterFlags(exportCmd, &exportFilter)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	doc, err := b.repo.Load(cmd.Context())
	if err != nil {
		return err
	}
	entries := filiere.Select(doc, exportFilter)

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		file, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("création du fichier d'export impossible: %w", err)
		}
		defer file.Close()
		w = file
	}

	if err := export.Write(w, format, doc, entries, string(b.kind), time.Now()); err != nil {
		return fmt.Errorf("export impossible: %w", err)
	}

	logger.Info("export written",
		zap.String("format", string(format)),
		zap.Int("filieres", len(entries)),
		zap.String("output", exportOutput))

	if exportOutput != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✅ %d filière(s) exportée(s) vers %s\n", len(entries), exportOutput)
	}
	return nil
}
