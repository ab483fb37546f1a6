package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cityfire/quotation-engine/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [quotation-id]",
	Short: "Export a quotation as an xlsx workbook",
	Long: `Export a saved quotation as a formatted spreadsheet with the company
letterhead. Without an id, lists saved quotations to pick from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if len(args) == 0 {
			quotations, err := app.repos.Quotations.List(ctx)
			if err != nil {
				return fmt.Errorf("list quotations: %w", err)
			}
			if len(quotations) == 0 {
				warn("no saved quotations")
				return nil
			}
			rows := make([][]string, 0, len(quotations))
			for _, q := range quotations {
				rows = append(rows, []string{
					q.ID.String(),
					q.ClientName,
					q.QuotationDate.Format("02-01-2006"),
					strconv.FormatFloat(q.Total, 'f', 2, 64),
				})
			}
			table([]string{"ID", "Client", "Date", "Total"}, rows)
			return nil
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid quotation id: %w", err)
		}
		q, err := app.repos.Quotations.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load quotation: %w", err)
		}

		out := exportOutput
		if out == "" {
			out = fmt.Sprintf("quotation-%s.xlsx", q.QuotationDate.Format("2006-01-02"))
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()

		exporter := export.NewExcelExporter(app.cfg.Company)
		if err := exporter.Export(q, f); err != nil {
			return fmt.Errorf("export quotation: %w", err)
		}

		success("wrote %s", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file path")
}
