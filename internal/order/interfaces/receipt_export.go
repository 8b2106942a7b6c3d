package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	order "haulstream/internal/order/domain"
)

// BuildReceiptPDF renders a minimal PDF receipt for an order.
func BuildReceiptPDF(o *order.Order, g *order.OrderGroup, items []order.LineItem) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Order Receipt")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Order: %s", o.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Service Period: %s to %s", o.StartDate.Format("2006-01-02"), o.EndDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", o.Status))
	pdf.Ln(5)
	if g != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Waste Type: %s", g.WasteType))
		pdf.Ln(5)
	}
	if !o.SubmittedOn.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Submitted: %s", o.SubmittedOn.Format(time.RFC3339)))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Rate", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Quantity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i := range items {
		li := &items[i]
		pdf.CellFormat(70, 6, li.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", li.Rate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", li.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", li.CustomerPrice()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total: %.2f", order.CustomerPrice(items)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReceiptXLSX renders a minimal XLSX receipt for an order.
func BuildReceiptXLSX(o *order.Order, g *order.OrderGroup, items []order.LineItem) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	itemsSheet := "line_items"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(itemsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Order Receipt")
	_ = f.SetCellValue(summarySheet, "A3", "Order")
	_ = f.SetCellValue(summarySheet, "B3", o.ID)
	_ = f.SetCellValue(summarySheet, "A4", "Start")
	_ = f.SetCellValue(summarySheet, "B4", o.StartDate.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A5", "End")
	_ = f.SetCellValue(summarySheet, "B5", o.EndDate.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A6", "Status")
	_ = f.SetCellValue(summarySheet, "B6", string(o.Status))
	if g != nil {
		_ = f.SetCellValue(summarySheet, "A7", "Waste Type")
		_ = f.SetCellValue(summarySheet, "B7", g.WasteType)
	}
	_ = f.SetCellValue(summarySheet, "A8", "Customer Total")
	_ = f.SetCellValue(summarySheet, "B8", order.CustomerPrice(items))
	_ = f.SetCellValue(summarySheet, "A9", "Seller Total")
	_ = f.SetCellValue(summarySheet, "B9", order.SellerPrice(items))

	_ = f.SetCellValue(itemsSheet, "A1", "Description")
	_ = f.SetCellValue(itemsSheet, "B1", "Type")
	_ = f.SetCellValue(itemsSheet, "C1", "Rate")
	_ = f.SetCellValue(itemsSheet, "D1", "Quantity")
	_ = f.SetCellValue(itemsSheet, "E1", "Amount")
	for i := range items {
		li := &items[i]
		row := i + 2
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), li.Description)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), string(li.Type))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), li.Rate)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), li.Quantity)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", row), li.CustomerPrice())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
