package engine

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXEncoder writes rows into a single-sheet workbook with excelize.
type XLSXEncoder struct{}

func NewXLSXEncoder() *XLSXEncoder {
	return &XLSXEncoder{}
}

func (XLSXEncoder) EncodeSheet(name string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if name == "" {
		name = "Sheet1"
	}
	if name != "Sheet1" {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
