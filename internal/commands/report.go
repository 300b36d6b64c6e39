package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"costs/internal/core"
	"costs/internal/report"
)

// periodFlags are the --year and --month flags shared by report and export.
type periodFlags struct {
	year  string
	month string
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.year, "year", "", "report year (default current year)")
	cmd.Flags().StringVar(&p.month, "month", "", "report month 1-12 (default current month)")
}

// resolve fills unset flags from the current date.
func (p *periodFlags) resolve(a *app) (year, month string) {
	now := a.now()
	year, month = p.year, p.month
	if year == "" {
		year = strconv.Itoa(now.Year())
	}
	if month == "" {
		month = strconv.Itoa(int(now.Month()))
	}
	return year, month
}

func newReportCommand(a *app) *cobra.Command {
	var period periodFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the expenses, total and top category of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month := period.resolve(a)
			if _, err := report.ParsePeriod(year, month); err != nil {
				return err
			}

			ctx := cmd.Context()
			res, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer a.closeBackend(ctx, res)

			summary, err := res.Service.Report(ctx, year, month)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), summary)
		},
	}
	period.register(cmd)

	return cmd
}

func writeSummary(out io.Writer, s report.Summary) error {
	fmt.Fprintf(out, "Report for %s\n", s.Period)
	if s.Fallback {
		fmt.Fprintf(out, "No expenses in %s; showing all expenses.\n", s.Period)
	}
	fmt.Fprintln(out)

	if len(s.Records) > 0 {
		if err := writeRecords(out, s.Records); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Total: %s\n", core.FormatSum(s.Total))
	if s.TopCategory != "" {
		fmt.Fprintf(out, "Top category: %s (%s)\n", s.TopCategory, core.FormatSum(s.TopSum))
	} else {
		fmt.Fprintln(out, "Top category: none")
	}

	for _, c := range s.ByCategory {
		fmt.Fprintf(out, "  %-10s %s\n", c.Category, core.FormatSum(c.Amount))
	}
	return nil
}
