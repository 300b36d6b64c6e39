package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"costs/internal/cli"
)

func newClearCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.Confirm(yes, "clearing all expenses"); err != nil {
				return err
			}

			ctx := cmd.Context()
			res, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer a.closeBackend(ctx, res)

			if err := res.Service.Clear(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "All expenses cleared.")
			return err
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the irreversible deletion")

	return cmd
}
