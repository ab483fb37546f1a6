package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/cityfire/quotation-engine/internal/storage"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the product catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		products, err := app.repos.Products.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		if len(products) == 0 {
			warn("catalog is empty")
			return nil
		}

		rows := make([][]string, 0, len(products))
		for _, p := range products {
			rows = append(rows, []string{
				p.ID.String()[:8],
				p.Name,
				string(p.Category),
				p.Unit,
				strconv.FormatFloat(p.Rate, 'f', 2, 64),
			})
		}
		table([]string{"ID", "Name", "Category", "Unit", "Rate"}, rows)
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import products from a spreadsheet",
	Long: `Import catalog products from an xlsx file. The first sheet must have a
header row followed by one product per row: Name, Category, Unit, Rate.
Unknown categories fall back to "general".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		f, err := excelize.OpenFile(args[0])
		if err != nil {
			return fmt.Errorf("open spreadsheet: %w", err)
		}
		defer f.Close()

		sheet := f.GetSheetName(0)
		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) < 2 {
			return fmt.Errorf("sheet %q has no data rows", sheet)
		}

		bar := newProgressBar(int64(len(rows)-1), "importing products")
		imported, skipped := 0, 0
		for _, row := range rows[1:] {
			bar.Add(1)
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				skipped++
				continue
			}

			product := &storage.Product{Name: strings.TrimSpace(row[0])}
			if len(row) > 1 {
				category := storage.Category(strings.ToLower(strings.TrimSpace(row[1])))
				if storage.ValidCategory(category) {
					product.Category = category
				}
			}
			if len(row) > 2 {
				product.Unit = strings.TrimSpace(row[2])
			}
			if len(row) > 3 {
				if rate, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64); err == nil && rate >= 0 {
					product.Rate = rate
				}
			}

			if err := app.repos.Products.Create(cmd.Context(), product); err != nil {
				return fmt.Errorf("import %q: %w", product.Name, err)
			}
			imported++
		}
		bar.Finish()

		success("imported %d products (%d rows skipped)", imported, skipped)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogImportCmd)
}
