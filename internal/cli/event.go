package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/filiere"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Événements récents d'une filière",
}

var eventAddCmd = &cobra.Command{
	Use:   "add <clé>",
	Short: "Ajouter un événement récent",
	Long: `Ajoute un événement en tête de la liste des événements récents.

Exemples:
  filiere event add it --titre COSUI --description "Premier comité de suivi"
  filiere event add rh --date 2025-03-01 --titre Atelier --description "Idéation"`,
	Args: cobra.ExactArgs(1),
	RunE: runEventAdd,
}

var eventListCmd = &cobra.Command{
	Use:   "list <clé>",
	Short: "Lister les événements récents",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventList,
}

var (
	eventDate        string
	eventTitre       string
	eventDescription string
)

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventAddCmd)
	eventCmd.AddCommand(eventListCmd)

	eventAddCmd.Flags().StringVar(&eventDate, "date", "", "date AAAA-MM-JJ (défaut: aujourd'hui)")
	eventAddCmd.Flags().StringVarP(&eventTitre, "titre", "t", "", "titre (obligatoire)")
	eventAddCmd.Flags().StringVarP(&eventDescription, "description", "d", "", "description (obligatoire)")
}

func runEventAdd(cmd *cobra.Command, args []string) error {
	key := args[0]

	ev, err := filiere.NewEvent(time.Now(), eventDate, eventTitre, eventDescription)
	if err != nil {
		return err
	}

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	_, err = b.repo.Update(cmd.Context(), func(doc *document.Document) error {
		f, err := filiere.Lookup(doc, key)
		if err != nil {
			return err
		}
		filiere.AddEvent(f, ev)
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("event added", zap.String("filiere", key), zap.String("date", ev.Date))

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), ev)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Événement ajouté à %s: %s %s\n", key, ev.Date, ev.Titre)
	return nil
}

func runEventList(cmd *cobra.Command, args []string) error {
	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	doc, err := b.repo.Load(cmd.Context())
	if err != nil {
		return err
	}
	f, err := filiere.Lookup(doc, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return writeJSON(out, f.EvenementsRecents)
	}
	if len(f.EvenementsRecents) == 0 {
		fmt.Fprintln(out, "Aucun événement.")
		return nil
	}
	for _, ev := range f.EvenementsRecents {
		fmt.Fprintf(out, "%s  %s\n", ev.Date, ev.Titre)
		if ev.Description != "" {
			fmt.Fprintf(out, "            %s\n", ev.Description)
		}
	}
	return nil
}
