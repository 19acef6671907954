package cli

import (
	"github.com/spf13/cobra"

	"github.com/n0roo/filiere-kit/internal/config"
	"github.com/n0roo/filiere-kit/internal/document"
	"github.com/n0roo/filiere-kit/internal/filiere"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Générer le script de complétion du shell",
	Long: `Génère le script de complétion pour le shell indiqué.

Bash:
  # Session courante uniquement
  $ source <(filiere completion bash)

  # Permanent (Linux)
  $ filiere completion bash > /etc/bash_completion.d/filiere

  # Permanent (macOS avec Homebrew)
  $ filiere completion bash > $(brew --prefix)/etc/bash_completion.d/filiere

Zsh:
  # Session courante uniquement
  $ source <(filiere completion zsh)

  # Permanent
  $ filiere completion zsh > "${fpath[1]}/_filiere"

  # Ou avec Oh My Zsh
  $ filiere completion zsh > ~/.oh-my-zsh/completions/_filiere

Fish:
  $ filiere completion fish | source

  # Permanent
  $ filiere completion fish > ~/.config/fish/completions/filiere.fish

PowerShell:
  PS> filiere completion powershell | Out-String | Invoke-Expression

  # Permanent
  PS> filiere completion powershell > filiere.ps1
  # puis ajouter ". filiere.ps1" à $PROFILE
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)

	registerCompletions()
}

// registerCompletions adds dynamic completions for filière keys and states
func registerCompletions() {
	for _, cmd := range []*cobra.Command{showCmd, setCmd, editCmd, eventAddCmd, eventListCmd} {
		cmd.ValidArgsFunction = completeFiliereKeys
	}
	for _, cmd := range []*cobra.Command{listCmd, statsCmd, exportCmd} {
		cmd.RegisterFlagCompletionFunc("etat", completeStateKeys)
		cmd.RegisterFlagCompletionFunc("referent", completeReferents)
	}

	exportCmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{"csv", "yaml", "json"}, cobra.ShellCompDirectiveNoFileComp))
	mirrorCmd.RegisterFlagCompletionFunc("to", cobra.FixedCompletions(
		[]string{"gist", "file", "sqlite"}, cobra.ShellCompDirectiveNoFileComp))
	mirrorCmd.RegisterFlagCompletionFunc("engine", cobra.FixedCompletions(
		[]string{"sqlite", "duckdb"}, cobra.ShellCompDirectiveNoFileComp))
}

// completionDocument loads the document for shell completion
func completionDocument(cmd *cobra.Command) (*document.Document, error) {
	if cfg == nil {
		loaded, err := config.Load(GetConfigPath())
		if err != nil {
			return nil, err
		}
		loaded.ApplyEnv(nil)
		cfg = loaded
	}

	b, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	return b.repo.Load(cmd.Context())
}

// completeFiliereKeys provides filière key completion
func completeFiliereKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	doc, err := completionDocument(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var completions []string
	for _, key := range doc.Keys() {
		completions = append(completions, key+"\t"+doc.Filieres[key].Nom)
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeStateKeys provides état key completion
func completeStateKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	doc, err := completionDocument(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var completions []string
	for _, key := range filiere.StateOrder(doc) {
		completions = append(completions, key+"\t"+filiere.StateLabel(doc, key))
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeReferents provides référent completion
func completeReferents(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	doc, err := completionDocument(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return filiere.Referents(doc), cobra.ShellCompDirectiveNoFileComp
}
