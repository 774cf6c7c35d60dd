package export

import "fmt"

// Dataset is a flat table such as the lesson list of a timetable.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// Validate checks that every row has one value per header.
func (d Dataset) Validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}

// Grid is a weekly timetable sheet: one column per day and one row per slot.
// A cell may span several lines, separated by "\n".
type Grid struct {
	Title    string
	Subtitle string
	Corner   string
	Columns  []string
	Rows     []GridRow
}

// GridRow is a single slot line of the sheet.
type GridRow struct {
	Label string
	Cells []string
}

// Validate checks that every row carries one cell per column.
func (g Grid) Validate() error {
	if len(g.Columns) == 0 {
		return fmt.Errorf("grid requires at least one column")
	}
	for _, row := range g.Rows {
		if len(row.Cells) != len(g.Columns) {
			return fmt.Errorf("grid row %q has %d cells, want %d", row.Label, len(row.Cells), len(g.Columns))
		}
	}
	return nil
}

// Flatten turns the grid into a dataset with the slot label as the first column.
func (g Grid) Flatten() Dataset {
	headers := append([]string{g.Corner}, g.Columns...)
	rows := make([][]string, 0, len(g.Rows))
	for _, row := range g.Rows {
		rows = append(rows, append([]string{row.Label}, row.Cells...))
	}
	return Dataset{Headers: headers, Rows: rows}
}
