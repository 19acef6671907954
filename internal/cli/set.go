package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/filiere"
)

var setCmd = &cobra.Command{
	Use:   "set <clé> [champ=valeur...]",
	Short: "Modifier des champs d'une filière",
	Long: `Modifie un ou plusieurs champs scalaires d'une filière puis enregistre
le document complet.

Champs modifiables:
  nom, icon, referent_metier, etat_avancement, niveau_autonomie,
  description, point_attention, nombre_referents_delegues,
  nombre_collaborateurs_sensibilises, nombre_collaborateurs_total,
  fopp_count, acces.laposte_gpt, acces.copilot_licences

Exemples:
  filiere set it fopp_count=4
  filiere set rh --field etat_avancement=tests_realises --field acces.copilot_licences=12`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

var setFields []string

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().StringArrayVarP(&setFields, "field", "f", nil, "affectation champ=valeur (répétable)")
}

// parsePatch merges every assignment into one patch
func parsePatch(assignments []string) (filiere.Patch, error) {
	if len(assignments) == 0 {
		return filiere.Patch{}, errors.New("aucune modification, attendu champ=valeur")
	}
	var patch filiere.Patch
	for _, a := range assignments {
		p, err := filiere.ParseAssignment(a)
		if err != nil {
			return filiere.Patch{}, err
		}
		patch = patch.Merge(p)
	}
	return patch, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	assignments := append(append([]string{}, args[1:]...), setFields...)

	patch, err := parsePatch(assignments)
	if err != nil {
		return err
	}

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	var edited *document.Filiere
	doc, err := b.repo.Update(cmd.Context(), func(doc *document.Document) error {
		f, err := filiere.Lookup(doc, key)
		if err != nil {
			return err
		}
		edited = f.Clone()
		patch.Apply(edited)
		if err := filiere.ValidateEdit(doc, f, edited, editRules(cfg)); err != nil {
			return err
		}
		doc.Filieres[key] = edited
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("filiere updated", zap.String("filiere", key), zap.Strings("assignments", assignments))

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), filiere.Entry{Key: key, Filiere: edited})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %s mise à jour (%d champ(s))\n", key, len(assignments))
	fmt.Fprintln(cmd.OutOrStdout(), renderFiliere(doc, key, edited))
	return nil
}
