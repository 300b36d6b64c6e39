package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"costs/internal/core"
)

func newAddCommand(a *app) *cobra.Command {
	var sum, category, description, date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Example: `  costs add --sum 12.50 --category food --description "lunch"
  costs add --sum 900 --category housing --description rent --date 2024-12-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := parseExpense(sum, category, description, date)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			res, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer a.closeBackend(ctx, res)

			rec, err := res.Service.Record(ctx, e)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded expense #%d: %s %s %q on %s\n",
				rec.ID, rec.Category, core.FormatSum(rec.Sum), rec.Description, rec.Date)
			return err
		},
	}

	cmd.Flags().StringVar(&sum, "sum", "", "amount spent, e.g. 12.50 (required)")
	_ = cmd.MarkFlagRequired("sum")
	cmd.Flags().StringVar(&category, "category", string(core.Food), fmt.Sprintf("one of %v", core.Categories()))
	cmd.Flags().StringVar(&description, "description", "", "what the money was spent on (required)")
	_ = cmd.MarkFlagRequired("description")
	cmd.Flags().StringVar(&date, "date", "", "day of the expense as YYYY-MM-DD (default today)")

	return cmd
}

// parseExpense turns flag values into an expense. Empty date is left for the
// service to default.
func parseExpense(sum, category, description, date string) (core.Expense, error) {
	var e core.Expense

	s, err := core.ParseSum(sum)
	if err != nil {
		return e, &core.ValidationError{Field: "Sum", Err: err}
	}
	c, err := core.ParseCategory(category)
	if err != nil {
		return e, &core.ValidationError{Field: "Category", Err: err}
	}
	e = core.Expense{Sum: s, Category: c, Description: description}

	if date != "" {
		d, err := core.ParseDate(date)
		if err != nil {
			return e, &core.ValidationError{Field: "Date", Err: err}
		}
		e.Date = d
	}
	return e, nil
}
