// Package export renders the inventory sheet as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	inventorySheet = "Inventory"
	dateLayout     = "2006-01-02"
)

var inventoryHeader = []string{"Name", "Category", "Price", "Stock", "Status", "Last Updated"}

func inventoryRow(p models.Product) []string {
	return []string{
		p.Name,
		p.Category,
		strconv.FormatFloat(p.Price, 'f', 2, 64),
		strconv.Itoa(p.Stock),
		p.StockStatus().Label(),
		p.UpdatedAt.Format(dateLayout),
	}
}

// Filename is the download name for an export made on the given day.
func Filename(day string, format string) string {
	return fmt.Sprintf("inventory-%s.%s", day, format)
}

func InventoryCSV(w io.Writer, products []models.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(inventoryHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, p := range products {
		if err := cw.Write(inventoryRow(p)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func InventoryXLSX(w io.Writer, products []models.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", inventorySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(inventoryHeader))
	for i, h := range inventoryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(inventorySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(inventorySheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		// Numbers stay numeric so the sheet can be summed.
		row := []interface{}{
			p.Name,
			p.Category,
			p.Price,
			p.Stock,
			p.StockStatus().Label(),
			p.UpdatedAt.Format(dateLayout),
		}
		if err := f.SetSheetRow(inventorySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
