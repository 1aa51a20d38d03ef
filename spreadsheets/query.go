package spreadsheets

import "github.com/adamwoolhether/gdata/query"

// CellQuery narrows a cell feed to a range.
type CellQuery struct {
	*query.Query
}

// NewCellQuery returns a query against a cell feed.
func NewCellQuery(feed string) *CellQuery {
	return &CellQuery{Query: query.New(feed)}
}

func (q *CellQuery) MinRow(n int) *CellQuery { q.SetInt("min-row", n); return q }
func (q *CellQuery) MaxRow(n int) *CellQuery { q.SetInt("max-row", n); return q }
func (q *CellQuery) MinCol(n int) *CellQuery { q.SetInt("min-col", n); return q }
func (q *CellQuery) MaxCol(n int) *CellQuery { q.SetInt("max-col", n); return q }

// Range selects cells in A1 notation, e.g. "A1:B3".
func (q *CellQuery) Range(r string) *CellQuery { q.Set("range", r); return q }

// ReturnEmpty includes cells with no content.
func (q *CellQuery) ReturnEmpty(b bool) *CellQuery { q.SetBool("return-empty", b); return q }

// ListQuery filters and orders a list feed.
type ListQuery struct {
	*query.Query
}

// NewListQuery returns a query against a list feed.
func NewListQuery(feed string) *ListQuery {
	return &ListQuery{Query: query.New(feed)}
}

// Structured sets a row filter such as "hours > 5".
func (q *ListQuery) Structured(sq string) *ListQuery { q.Set("sq", sq); return q }

// OrderByColumn sorts rows by a column.
func (q *ListQuery) OrderByColumn(col string) *ListQuery {
	q.Set(query.ParamOrderBy, "column:"+col)
	return q
}

func (q *ListQuery) Reverse(b bool) *ListQuery { q.SetBool("reverse", b); return q }
