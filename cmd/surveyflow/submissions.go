package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/spf13/cobra"
)

var submissionsCmd = &cobra.Command{
	Use:     "submissions",
	Aliases: []string{"sub"},
	Short:   "Manage stored survey submissions",
	Long: `List, inspect and remove completed submissions in the configured store
(SURVEYFLOW_SQLITE_PATH, SURVEYFLOW_REDIS_ADDR, or in-memory).`,
}

var submissionsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the sessions that have a submission",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		ids, err := backend.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing submissions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No submissions found.")
			return nil
		}

		fmt.Fprintf(out, "Submissions (%s):\n", backend.Name)
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var submissionsInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print a submission as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		sub, err := backend.Store.Load(cmd.Context(), args[0])
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			return fmt.Errorf("no submission for session '%s'", args[0])
		}
		if err != nil {
			return fmt.Errorf("error loading submission '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(sub, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling submission: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var submissionsRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more submissions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		out := cmd.OutOrStdout()
		var errs []error
		for _, id := range args {
			if err := backend.Store.Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(out, "Removed submission '%s'\n", id)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(submissionsCmd)
	submissionsCmd.AddCommand(submissionsLsCmd)
	submissionsCmd.AddCommand(submissionsInspectCmd)
	submissionsCmd.AddCommand(submissionsRmCmd)
}
