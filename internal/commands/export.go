package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"costs/internal/export"
	applog "costs/internal/log"
	"costs/internal/report"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		period  periodFlags
		formats []string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a month report as CSV or to Google Sheets",
		Example: `  costs export --year 2024 --month 12 --output december.csv
  costs export --format csv --format sheets`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month := period.resolve(a)
			if _, err := report.ParsePeriod(year, month); err != nil {
				return err
			}

			ctx := cmd.Context()
			exporters, closeAll, err := a.buildExporters(cmd, formats, output)
			if err != nil {
				return err
			}
			defer closeAll()

			res, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer a.closeBackend(ctx, res)

			summary, err := res.Service.Report(ctx, year, month)
			if err != nil {
				return err
			}

			if err := export.All(ctx, summary, exporters...); err != nil {
				return fmt.Errorf("export report: %w", err)
			}

			a.logger.WithComponent(applog.ComponentExport).InfoContext(ctx, "Report exported",
				applog.FieldOperation, applog.OpExport,
				applog.FieldPeriod, summary.Period.String(),
				applog.FieldFormat, formats,
				applog.FieldCount, len(summary.Records))
			return nil
		},
	}

	period.register(cmd)
	cmd.Flags().StringSliceVar(&formats, "format", []string{"csv"}, "export targets: csv, sheets")
	cmd.Flags().StringVar(&output, "output", "-", "CSV destination file, - for stdout")

	return cmd
}

func (a *app) buildExporters(cmd *cobra.Command, formats []string, output string) ([]export.Exporter, func(), error) {
	var (
		exporters []export.Exporter
		closers   []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	seen := map[string]bool{}
	for _, format := range formats {
		if seen[format] {
			continue
		}
		seen[format] = true

		switch format {
		case "csv":
			var w io.Writer = cmd.OutOrStdout()
			if output != "-" && output != "" {
				f, err := os.Create(output)
				if err != nil {
					closeAll()
					return nil, nil, fmt.Errorf("create %s: %w", output, err)
				}
				closers = append(closers, f)
				w = f
			}
			exporters = append(exporters, export.NewCSVWriter(w))

		case "sheets":
			if !a.cfg.SheetsEnabled() {
				closeAll()
				return nil, nil, errors.New("sheets export needs GOOGLE_SPREADSHEET_ID and service account credentials")
			}
			creds, err := export.LoadCredentials(a.cfg.GoogleServiceAccountJSON, a.cfg.GoogleServiceAccountFile)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			svc, err := export.NewSheetsService(cmd.Context(), creds)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			exporters = append(exporters, export.NewSheetsWriter(svc, a.cfg.GoogleSpreadsheetID, a.cfg.GoogleSheetName))

		default:
			closeAll()
			return nil, nil, fmt.Errorf("unknown export format %q: must be csv or sheets", format)
		}
	}

	return exporters, closeAll, nil
}
