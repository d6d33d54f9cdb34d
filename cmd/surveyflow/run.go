package main

import (
	"github.com/openrelief/surveyflow/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run the survey interactively in the terminal",
	Long: `Presents each form, reads answers by option number or id, and prints the matching
resources when the survey completes. Type 'back' to return to the previous form.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, _ := cmd.Flags().GetString("catalog")
		debug, _ := cmd.Flags().GetBool("debug")
		sessionID, _ := cmd.Flags().GetString("session")
		plain, _ := cmd.Flags().GetBool("plain")

		return cli.Execute(cli.RunOptions{
			Path:        args[0],
			CatalogPath: catalog,
			SessionID:   sessionID,
			Debug:       debug,
			Plain:       plain,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("session", "s", "", "Session ID (generated when empty)")
	runCmd.Flags().Bool("plain", false, "Disable markdown rendering")
}
