package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the roomop application.
var rootCmd = &cobra.Command{
	Use:   "roomop",
	Short: "Reconcile collaboration rooms against a declared spec",
	Long: `roomop is a reconciliation operator for collaboration rooms. It watches a
declarative room spec, continuously compares it against the live state of
the room service, and applies the guarded changes needed to converge:
joining and kicking entities, seeding and deleting artifacts, and aligning
room policies.`,
	// Errors are reported by the failing command; repeating usage on top of
	// them only buries the message.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. It is called from the
// main package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "roomop version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
