package spreadsheets

import (
	"strconv"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/element"
)

// Cell is gs:cell. Text is the displayed value; InputValue is what was
// typed, possibly a formula.
type Cell struct {
	element.OpenContent
	XMLName      element.Name `gdata:"gs:cell"`
	Row          string       `gdata:"row,attr"`
	Col          string       `gdata:"col,attr"`
	InputValue   string       `gdata:"inputValue,attr"`
	NumericValue string       `gdata:"numericValue,attr"`
	Text         string       `gdata:",chardata"`
}

// Position returns the parsed row and column.
func (c *Cell) Position() (row, col int) {
	row, _ = strconv.Atoi(c.Row)
	col, _ = strconv.Atoi(c.Col)

	return row, col
}

// CellEntry is one cell of a worksheet.
type CellEntry struct {
	atom.Entry
	Cell *Cell `gdata:"gs:cell"`
}

// NewCellEntry returns an entry that sets the cell at row, col to input.
func NewCellEntry(row, col int, input string) *CellEntry {
	return &CellEntry{Cell: &Cell{
		Row:        strconv.Itoa(row),
		Col:        strconv.Itoa(col),
		InputValue: input,
	}}
}

// CellFeed is a worksheet's cells.
type CellFeed struct {
	atom.FeedHead
	RowCount *atom.Value  `gdata:"gs:rowCount"`
	ColCount *atom.Value  `gdata:"gs:colCount"`
	Entries  []*CellEntry `gdata:"atom:entry"`
}

// AtomEntries implements atom.EntryLister.
func (f *CellFeed) AtomEntries() []*atom.Entry {
	return atom.Entries(f.Entries)
}
