package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/n0roo/filiere-kit/internal/filiere"
)

var showCmd = &cobra.Command{
	Use:   "show <clé>",
	Short: "Afficher la fiche d'une filière",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	doc, err := b.repo.Load(cmd.Context())
	if err != nil {
		return err
	}

	key := args[0]
	f, err := filiere.Lookup(doc, key)
	if err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), filiere.Entry{Key: key, Filiere: f})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderFiliere(doc, key, f))
	return nil
}
