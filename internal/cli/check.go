package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/n0roo/filiere-kit/internal/config"
	"github.com/n0roo/filiere-kit/internal/gist"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Vérifier l'accès au document",
	Long: `Vérifie la configuration et l'accès au backend: pour un gist, le jeton,
la présence du fichier de données et sa lisibilité; pour les backends
locaux, le chargement du document.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkReport is the outcome of the access check
type checkReport struct {
	Backend  config.Backend `json:"backend"`
	Gist     *gist.Info     `json:"gist,omitempty"`
	Filieres int            `json:"filieres"`
	Etats    int            `json:"etats"`
	OK       bool           `json:"ok"`
	Error    string         `json:"error,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	report := runChecks(cmd.Context(), b)

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}
	if !report.OK {
		return fmt.Errorf("vérification échouée: %s", report.Error)
	}
	return nil
}

func runChecks(ctx context.Context, b *backend) *checkReport {
	report := &checkReport{Backend: b.kind}

	if g, ok := b.blob.(*gist.Blob); ok {
		info, err := g.Check(ctx)
		if err != nil {
			report.Error = err.Error()
			return report
		}
		report.Gist = info
		if !info.HasDocument {
			report.Error = fmt.Sprintf("fichier %s absent du gist", cfg.Gist.Filename)
			return report
		}
	}

	doc, err := b.repo.Load(ctx)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Filieres = len(doc.Filieres)
	report.Etats = len(doc.EtatsAvancement)
	report.OK = true
	return report
}

func printReport(w io.Writer, r *checkReport) {
	fmt.Fprintf(w, "Backend: %s\n", r.Backend)
	if r.Gist != nil {
		fmt.Fprintf(w, "Gist:    %s\n", r.Gist.ID)
		if r.Gist.Description != "" {
			fmt.Fprintf(w, "         %s\n", r.Gist.Description)
		}
		fmt.Fprintf(w, "Public:  %v\n", r.Gist.Public)
		fmt.Fprintf(w, "Modifié: %s\n", r.Gist.UpdatedAt.Format("2006-01-02 15:04"))
		for _, name := range r.Gist.Files {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}
	if r.OK {
		fmt.Fprintf(w, "✅ Document lisible: %d filière(s), %d état(s)\n", r.Filieres, r.Etats)
		return
	}
	fmt.Fprintf(w, "❌ %s\n", r.Error)
}
