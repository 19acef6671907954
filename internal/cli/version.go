package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X"
var (
	Version = "0.1.0"
	Commit  = "none"
	Date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Afficher la version",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.Version = Version
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
		"go":      runtime.Version(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}

	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), info)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "filiere %s\n", Version)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Commit:    %s\n", Commit)
	fmt.Fprintf(out, "  Built:     %s\n", Date)
	fmt.Fprintf(out, "  Go:        %s\n", runtime.Version())
	fmt.Fprintf(out, "  OS/Arch:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}
