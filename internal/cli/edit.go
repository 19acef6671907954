package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/filiere"
	"github.com/n0roo/filiere-kit/internal/form"
)

var editCmd = &cobra.Command{
	Use:   "edit <clé>",
	Short: "Éditer la fiche complète d'une filière",
	Long: `Ouvre la fiche de la filière dans $EDITOR (YAML), puis enregistre les
modifications.

Les usages phares s'écrivent un par ligne, les événements récents sous la
forme "date;titre;description" un par ligne. Les lignes d'événement
incomplètes sont ignorées.

Exemples:
  filiere edit it
  filiere edit it --print > it.yaml
  filiere edit it --from it.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editFrom   string
	editPrint  bool
	editEditor string
)

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVar(&editFrom, "from", "", "lire la fiche depuis un fichier au lieu d'ouvrir l'éditeur")
	editCmd.Flags().BoolVar(&editPrint, "print", false, "afficher la fiche sans la modifier")
	editCmd.Flags().StringVar(&editEditor, "editor", "", "éditeur (défaut: $VISUAL, $EDITOR, vi)")
}

func runEdit(cmd *cobra.Command, args []string) error {
	key := args[0]

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	doc, err := b.repo.Load(cmd.Context())
	if err != nil {
		return err
	}
	f, err := filiere.Lookup(doc, key)
	if err != nil {
		return err
	}

	original, err := form.MarshalSheet(form.NewSheet(f))
	if err != nil {
		return err
	}
	if editPrint {
		_, err := cmd.OutOrStdout().Write(original)
		return err
	}

	var edited []byte
	if editFrom != "" {
		edited, err = os.ReadFile(editFrom)
		if err != nil {
			return fmt.Errorf("lecture de la fiche impossible: %w", err)
		}
	} else {
		edited, err = editInEditor(cmd, key, original)
		if err != nil {
			return err
		}
	}

	if bytes.Equal(bytes.TrimSpace(edited), bytes.TrimSpace(original)) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aucune modification.")
		return nil
	}

	sheet, err := form.UnmarshalSheet(edited)
	if err != nil {
		return err
	}
	patch := sheet.Patch()

	var updated *document.Filiere
	doc, err = b.repo.Update(cmd.Context(), func(doc *document.Document) error {
		current, err := filiere.Lookup(doc, key)
		if err != nil {
			return err
		}
		updated = current.Clone()
		patch.Apply(updated)
		if err := filiere.ValidateEdit(doc, current, updated, editRules(cfg)); err != nil {
			return err
		}
		doc.Filieres[key] = updated
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("filiere edited", zap.String("filiere", key))

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), filiere.Entry{Key: key, Filiere: updated})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %s enregistrée\n", key)
	fmt.Fprintln(cmd.OutOrStdout(), renderFiliere(doc, key, updated))
	return nil
}

// editorCommand returns the editor command line
func editorCommand() []string {
	for _, candidate := range []string{editEditor, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if fields := strings.Fields(candidate); len(fields) > 0 {
			return fields
		}
	}
	return []string{"vi"}
}

// editInEditor writes content to a temp file, runs the editor on it and
// returns the saved content
func editInEditor(cmd *cobra.Command, key string, content []byte) ([]byte, error) {
	tmp, err := os.CreateTemp("", "filiere-"+key+"-*.yaml")
	if err != nil {
		return nil, fmt.Errorf("création du fichier temporaire impossible: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("écriture du fichier temporaire impossible: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	argv := append(editorCommand(), path)
	editor := exec.CommandContext(cmd.Context(), argv[0], argv[1:]...)
	editor.Stdin = os.Stdin
	editor.Stdout = os.Stdout
	editor.Stderr = os.Stderr

	logger.Debug("running editor", zap.Strings("argv", argv))
	if err := editor.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("l'éditeur a échoué (code %d), modifications abandonnées", exitErr.ExitCode())
		}
		return nil, fmt.Errorf("lancement de l'éditeur impossible: %w", err)
	}

	return os.ReadFile(path)
}
