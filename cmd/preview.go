package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <pr-number>",
		Short: "Render the description of an existing release pull request",
		Long: `Reconcile an existing release pull request and print the title and body
that create would write, without changing anything on GitHub.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid pull request number: %s", args[0])
			}
			output, _ := cmd.Flags().GetString("output")
			if err := checkOutputFormat(output); err != nil {
				return err
			}

			pipeline, client, err := setup(cmd)
			if err != nil {
				return err
			}

			pr, err := client.GetPullRequest(cmd.Context(), number)
			if err != nil {
				return err
			}

			result, err := pipeline.Preview(cmd.Context(), pr)
			if err != nil {
				return err
			}

			s := newSummary(result)
			s.Body = result.Message.Body
			return writeSummary(cmd.OutOrStdout(), output, s)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
	return cmd
}
