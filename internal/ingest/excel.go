package ingest

import (
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// readXLSX loads all used rows of the first sheet of an .xlsx workbook.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	trimCells(rows)
	return rows, nil
}

// readXLS loads all used rows of the first sheet of a legacy .xls
// workbook.
func readXLS(path string) ([][]string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("workbook has no sheets")}
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		// FirstCol can be > 0 for indented sheets; pad so cell position
		// still lines up with the spreadsheet column index.
		for c := 0; c < row.FirstCol(); c++ {
			cells = append(cells, "")
		}
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	trimCells(rows)
	return rows, nil
}

func trimCells(rows [][]string) {
	for _, row := range rows {
		for i, cell := range row {
			row[i] = strings.TrimSpace(cell)
		}
	}
}
