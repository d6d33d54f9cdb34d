package main

import (
	"fmt"

	"github.com/openrelief/surveyflow/internal/validator"
	"github.com/openrelief/surveyflow/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check the survey definition for consistency",
	Long: `Reports duplicate ids, transitions to missing forms, conditions on unknown
questions and malformed questions. Forms no transition can reach are listed as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, path string) error {
	def, err := file.NewLoader(path).Load(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if problems := validator.Validate(def); len(problems) > 0 {
		fmt.Fprintf(out, "Validation failed with %d problems:\n", len(problems))
		for _, p := range problems {
			fmt.Fprintf(out, "- %s\n", p)
		}
		return fmt.Errorf("%s is not a valid survey", path)
	}

	for _, id := range validator.Unreachable(def) {
		fmt.Fprintf(out, "warning: form %q is unreachable\n", id)
	}

	if catalogPath, _ := cmd.Flags().GetString("catalog"); catalogPath != "" {
		resources, err := file.LoadCatalog(catalogPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Catalog has %d resources.\n", len(resources))
	}

	fmt.Fprintln(out, "Survey is valid! ✅")
	return nil
}
