package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNextVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-version",
		Short: "Print the next release version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}

			version, err := client.NextReleaseVersion(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
