package ingest

import (
	"fmt"
	"io"
	"log"

	"github.com/xuri/excelize/v2"
)

const (
	maxSheetRows = 6000
	maxSheetCols = 120
)

// Workbook is the raw cell grid of every sheet, in workbook order.
type Workbook struct {
	Sheets []Sheet
}

// Sheet is one worksheet's name and cell grid.
type Sheet struct {
	Name string
	Rows [][]string
}

// ReadWorkbook loads every sheet of an xlsx file as text cells. Grids
// are capped defensively since published sheets sometimes carry
// formatting that inflates the used range far past the data.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			log.Printf("[Ingest] skipping sheet %s: %v", name, err)
			continue
		}
		if len(rows) > maxSheetRows {
			rows = rows[:maxSheetRows]
		}
		for i, row := range rows {
			if len(row) > maxSheetCols {
				rows[i] = row[:maxSheetCols]
			}
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}
	return wb, nil
}
