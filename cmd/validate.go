package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"roomop/internal/spec"
)

var validateCmd = &cobra.Command{
	Use:   "validate <spec-file>",
	Short: "Validate a room spec file without applying it",
	Long: `Parses and validates a room spec YAML file, printing every error and
warning. The command exits non-zero when the spec would be rejected by the
operator.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := spec.Load(args[0])
	if err != nil {
		return err
	}

	result := spec.Validate(s)
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", e)
	}

	if !result.IsValid() {
		return fmt.Errorf("spec %s is invalid (%d errors)", args[0], len(result.Errors))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "spec %s is valid (version %d, room %s)\n",
		args[0], s.Metadata.Version, s.Spec.RoomID)
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
