// Package export renders quotations as spreadsheet workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cityfire/quotation-engine/internal/config"
	"github.com/cityfire/quotation-engine/internal/storage"
)

const sheetName = "Quotation"

var columnWidths = map[string]float64{
	"A": 6,  // S.N.
	"B": 52, // Description
	"C": 10, // Unit
	"D": 12, // Rate
	"E": 8,  // Qty
	"F": 14, // Amount
}

// ExcelExporter writes quotations into formatted xlsx workbooks with the
// company letterhead, an item table, totals and bank details.
type ExcelExporter struct {
	company config.CompanyConfig
}

// NewExcelExporter creates an exporter using the given letterhead details.
func NewExcelExporter(company config.CompanyConfig) *ExcelExporter {
	return &ExcelExporter{company: company}
}

// Export renders the quotation and writes the workbook to w.
func (e *ExcelExporter) Export(q *storage.Quotation, w io.Writer) error {
	f, err := e.build(q)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (e *ExcelExporter) build(q *storage.Quotation) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)

	for col, width := range columnWidths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	headStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    boxBorder(),
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: boxBorder()})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: boxBorder(),
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	row := 1
	row = e.writeLetterhead(f, row, titleStyle)

	f.SetCellValue(sheetName, cell("A", row), "To,")
	row++
	f.SetCellValue(sheetName, cell("A", row), q.ClientName)
	f.SetCellStyle(sheetName, cell("A", row), cell("A", row), boldStyle)
	row++
	if q.ClientAddress != "" {
		f.SetCellValue(sheetName, cell("A", row), q.ClientAddress)
		row++
	}
	f.SetCellValue(sheetName, cell("E", row), "Date:")
	f.SetCellValue(sheetName, cell("F", row), q.QuotationDate.Format("02-01-2006"))
	row += 2

	// Item table header.
	headers := []struct{ col, label string }{
		{"A", "S.N."}, {"B", "Description"}, {"C", "Unit"},
		{"D", "Rate"}, {"E", "Qty"}, {"F", "Amount"},
	}
	for _, h := range headers {
		f.SetCellValue(sheetName, cell(h.col, row), h.label)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell("F", row), headStyle)
	row++

	serial := 0
	for _, item := range q.Items {
		f.SetCellStyle(sheetName, cell("A", row), cell("F", row), cellStyle)
		if item.IsHeader() {
			// Section rows carry only a label; rate and amount stay blank.
			f.MergeCell(sheetName, cell("B", row), cell("F", row))
			f.SetCellValue(sheetName, cell("B", row), item.Name)
			f.SetCellStyle(sheetName, cell("A", row), cell("F", row), sectionStyle)
			row++
			continue
		}
		serial++
		f.SetCellValue(sheetName, cell("A", row), serial)
		f.SetCellValue(sheetName, cell("B", row), item.Name)
		f.SetCellValue(sheetName, cell("C", row), item.Unit)
		f.SetCellValue(sheetName, cell("D", row), item.Rate)
		f.SetCellValue(sheetName, cell("E", row), item.Quantity)
		f.SetCellValue(sheetName, cell("F", row), item.Amount)
		row++
	}
	row++

	row = e.writeTotals(f, q, row, boldStyle)

	if q.Notes != "" {
		f.SetCellValue(sheetName, cell("A", row), "Notes:")
		f.SetCellStyle(sheetName, cell("A", row), cell("A", row), boldStyle)
		row++
		f.SetCellValue(sheetName, cell("A", row), q.Notes)
		row += 2
	}

	e.writeBankDetails(f, row, boldStyle)
	return f, nil
}

func (e *ExcelExporter) writeLetterhead(f *excelize.File, row, titleStyle int) int {
	f.MergeCell(sheetName, cell("A", row), cell("F", row))
	f.SetCellValue(sheetName, cell("A", row), e.company.Name)
	f.SetCellStyle(sheetName, cell("A", row), cell("F", row), titleStyle)
	row++

	for _, line := range []string{
		e.company.Tagline,
		e.company.Services,
		e.company.Address,
		contactLine(e.company),
		e.company.Certification,
	} {
		if line == "" {
			continue
		}
		f.MergeCell(sheetName, cell("A", row), cell("F", row))
		f.SetCellValue(sheetName, cell("A", row), line)
		row++
	}
	return row + 1
}

func (e *ExcelExporter) writeTotals(f *excelize.File, q *storage.Quotation, row, boldStyle int) int {
	lines := []struct {
		label string
		value float64
		show  bool
	}{
		{"Subtotal", q.Subtotal, true},
		{"Discount", q.Discount, q.Discount > 0},
		{"GST", q.GST, q.GST > 0},
		{"Grand Total", q.Total, true},
	}
	for _, line := range lines {
		if !line.show {
			continue
		}
		f.SetCellValue(sheetName, cell("E", row), line.label)
		f.SetCellValue(sheetName, cell("F", row), line.value)
		if line.label == "Grand Total" {
			f.SetCellStyle(sheetName, cell("E", row), cell("F", row), boldStyle)
		}
		row++
	}
	return row + 1
}

func (e *ExcelExporter) writeBankDetails(f *excelize.File, row, boldStyle int) {
	if e.company.BankName == "" {
		return
	}
	f.SetCellValue(sheetName, cell("A", row), "Bank Details:")
	f.SetCellStyle(sheetName, cell("A", row), cell("A", row), boldStyle)
	row++

	details := []string{
		"Bank: " + e.company.BankName,
		"Branch: " + e.company.BankBranch,
		"A/C No: " + e.company.AccountNumber,
		"IFSC: " + e.company.IFSCCode,
	}
	for _, d := range details {
		f.SetCellValue(sheetName, cell("A", row), d)
		row++
	}
}

func contactLine(c config.CompanyConfig) string {
	var parts []string
	if c.Phone != "" {
		parts = append(parts, "Ph: "+c.Phone)
	}
	if c.Email != "" {
		parts = append(parts, c.Email)
	}
	if c.Website != "" {
		parts = append(parts, c.Website)
	}
	if c.GSTNumber != "" {
		parts = append(parts, "GSTIN: "+c.GSTNumber)
	}
	return strings.Join(parts, " | ")
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func boxBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}
