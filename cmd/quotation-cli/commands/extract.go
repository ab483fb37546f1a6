package commands

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cityfire/quotation-engine/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract <document>",
	Short: "Extract line items from a quotation image or PDF",
	Long: `Send a quotation document to the extraction oracle, reconcile the
extracted line items against the catalog, and print the result. Items the
catalog does not know are added to it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(args[0]))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		oracle, err := app.oracle(ctx)
		if err != nil {
			return err
		}
		defer oracle.Close()

		extractor := extract.NewDocumentExtractor(oracle, app.oracleConfig(), app.logger)

		s := newSpinner("extracting document...")
		s.Start()
		doc, err := extractor.Extract(ctx, extract.Document{MIMEType: mimeType, Data: data})
		s.Stop()
		if err != nil {
			fail("extraction failed: %v", err)
			return err
		}

		items, err := app.reconciler().Reconcile(ctx, doc.Items)
		if err != nil {
			return fmt.Errorf("reconcile items: %w", err)
		}

		if doc.ClientName != "" {
			fmt.Printf("Client: %s\n", doc.ClientName)
		}
		if doc.QuotationDate != "" {
			fmt.Printf("Date:   %s\n", doc.QuotationDate)
		}
		fmt.Println()

		rows := make([][]string, 0, len(items))
		newProducts := 0
		for _, item := range items {
			if item.Header {
				rows = append(rows, []string{"", item.Name, "", "", ""})
				continue
			}
			marker := ""
			if item.NewProduct {
				marker = " (new)"
				newProducts++
			}
			rows = append(rows, []string{
				strconv.FormatFloat(item.Quantity, 'f', -1, 64),
				item.Name + marker,
				item.Unit,
				strconv.FormatFloat(item.Rate, 'f', 2, 64),
				strconv.FormatFloat(item.Amount, 'f', 2, 64),
			})
		}
		table([]string{"Qty", "Description", "Unit", "Rate", "Amount"}, rows)

		success("extracted %d items", len(items))
		if newProducts > 0 {
			warn("%d items were not in the catalog and have been added", newProducts)
		}
		return nil
	},
}
