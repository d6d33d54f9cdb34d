package main

import (
	"fmt"

	"github.com/openrelief/surveyflow"
	"github.com/openrelief/surveyflow/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the survey graph as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the forms and their transitions.
With --history the visited forms are highlighted and the last one is marked current.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := surveyflow.New(args[0])
		if err != nil {
			return err
		}

		history, _ := cmd.Flags().GetStringSlice("history")
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(engine.Definition(), graph.OverlayFromHistory(history)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("history", nil, "Session history to overlay, oldest first (e.g. start,food)")
}
