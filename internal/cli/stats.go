package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/n0roo/filiere-kit/internal/filiere"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Statistiques globales",
	Long: `Affiche les chiffres clés: collaborateurs sensibilisés, FOPP, accès aux
outils et répartition par état. Les filtres --etat et --referent
restreignent le périmètre.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var statsFilter filiere.Filter

func init() {
	rootCmd.AddCommand(statsCmd)
	addFilterFlags(statsCmd, &statsFilter)
}

func runStats(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	doc, err := b.repo.Load(cmd.Context())
	if err != nil {
		return err
	}

	stats := filiere.Compute(doc, filiere.Select(doc, statsFilter))

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), struct {
			filiere.Stats
			TauxSensibilisation float64 `json:"taux_sensibilisation"`
		}{stats, stats.TauxSensibilisation()})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
	return nil
}
