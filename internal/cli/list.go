package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/n0roo/filiere-kit/internal/filiere"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Lister les filières",
	Long: `Liste les filières, triées par clé.

Exemples:
  filiere list
  filiere list --etat prompts_deployes
  filiere list --referent "Alice Martin" --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listFilter filiere.Filter

func init() {
	rootCmd.AddCommand(listCmd)
	addFilterFlags(listCmd, &listFilter)
}

// addFilterFlags registers --etat and --referent
func addFilterFlags(cmd *cobra.Command, f *filiere.Filter) {
	cmd.Flags().StringVar(&f.Etat, "etat", "", "filtrer par clé d'état")
	cmd.Flags().StringVar(&f.Referent, "referent", "", "filtrer par référent métier")
}

func runList(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	doc, err := b.repo.Load(cmd.Context())
	if err != nil {
		return err
	}

	entries := filiere.Select(doc, listFilter)
	out := cmd.OutOrStdout()

	if jsonOut {
		if entries == nil {
			entries = []filiere.Entry{}
		}
		return writeJSON(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "Aucune filière.")
		return nil
	}
	fmt.Fprintln(out, renderList(doc, entries))
	fmt.Fprintf(out, "%d filière(s)\n", len(entries))
	return nil
}
