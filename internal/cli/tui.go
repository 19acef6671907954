package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/n0roo/filiere-kit/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Lancer le dashboard dans le terminal",
	Long: `Lance le dashboard terminal: cartes par état, tableau et statistiques.

Touches: [1-3] onglets, [e] filtre état, [p] filtre référent,
[r] actualiser, [q] quitter. Les logs sont écrits dans ~/.filiere/filiere.log.`,
	Args: cobra.NoArgs,
	RunE: runTui,
}

var tuiRefresh time.Duration

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().DurationVar(&tuiRefresh, "refresh", tui.DefaultRefresh, "intervalle d'actualisation (0 pour désactiver)")
}

func runTui(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	return tui.Run(b.repo, "Filières IA", tuiRefresh)
}
