package shopping

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the list as a spreadsheet: one row per line item, a
// category column, optional items under an "optional" pseudo-category.
func ExportXLSX(list *List, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := []interface{}{"category", "item", "quantity", "unit"}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rowNum := 2
	writeRow := func(category string, item Item) error {
		cellAddr, _ := excelize.CoordinatesToCellName(1, rowNum)
		row := []interface{}{category, item.Name, item.Quantity, item.Unit}
		if err := sw.SetRow(cellAddr, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowNum, err)
		}
		rowNum++
		return nil
	}

	for _, category := range list.Categories {
		for _, item := range list.Items[category] {
			if err := writeRow(category, item); err != nil {
				return err
			}
		}
	}
	for _, item := range list.OptionalItems {
		if err := writeRow("optional", item); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
