package cmd

import (
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create or update the release pull request",
		Long: `Create the release branch and pull request for the next version and
write the merged pull requests it contains into its description.

Running create again after the pull request was opened reuses it. The release
branch is never reused: if the branch for the next version already exists the
command fails, and the branch must be removed or a release published first.

Example:
  release-pr create -r owner/repo --base production --head master`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			output, _ := cmd.Flags().GetString("output")
			if err := checkOutputFormat(output); err != nil {
				return err
			}

			pipeline, _, err := setup(cmd)
			if err != nil {
				return err
			}

			if dryRun {
				result, err := pipeline.Plan(cmd.Context())
				if err != nil {
					return err
				}
				s := newSummary(result)
				s.DryRun = true
				return writeSummary(cmd.OutOrStdout(), output, s)
			}

			result, err := pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), output, newSummary(result))
		},
	}

	cmd.Flags().Bool("dry-run", false, "Only resolve the next version and release branch")
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
	return cmd
}
