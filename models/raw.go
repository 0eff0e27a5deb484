package models

// RawTable holds unprocessed cells straight from a source, before any
// parsing. Every row has len(Header) cells.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
}

// RawOf rebuilds the raw form of a table, so a filtered view can be written
// back out with the exact cells it was read from.
func RawOf(t Table) RawTable {
	rows := make([][]string, len(t.Records))
	for i, r := range t.Records {
		rows[i] = r.Fields
	}
	return RawTable{Header: t.Columns, Rows: rows}
}
