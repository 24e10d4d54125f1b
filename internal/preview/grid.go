// Package preview derives a paged, sortable and filterable grid from
// backend records. The source data is never modified.
package preview

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/JonMunkholm/datacleanser/internal/api"
)

// PageSize is the number of rows per grid page.
const PageSize = 10

// Table is an immutable set of rows with named columns.
type Table struct {
	columns []string
	rows    [][]string
}

// FromRecords uses the key order of the first record as the column set.
// Later records are read by those keys; extra keys are ignored.
func FromRecords(records []api.Record) *Table {
	t := &Table{}
	if len(records) == 0 {
		return t
	}
	t.columns = records[0].Keys()
	t.rows = make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(t.columns))
		for j, col := range t.columns {
			if v, ok := rec.Get(col); ok {
				row[j] = FormatCell(v)
			}
		}
		t.rows[i] = row
	}
	return t
}

// FromRows builds a table from positional rows. Columns are named by index
// ("0", "1", ...) after the width of the first row.
func FromRows(rows [][]any) *Table {
	t := &Table{}
	if len(rows) == 0 {
		return t
	}
	t.columns = make([]string, len(rows[0]))
	for i := range t.columns {
		t.columns[i] = strconv.Itoa(i)
	}
	t.rows = make([][]string, len(rows))
	for i, src := range rows {
		row := make([]string, len(t.columns))
		for j := range row {
			if j < len(src) {
				row[j] = FormatCell(src[j])
			}
		}
		t.rows[i] = row
	}
	return t
}

// Columns returns the column names in display order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Page is one rendered slice of a Table.
type Page struct {
	Columns    []string
	Rows       [][]string
	Query      Query
	Page       int // 1-based, clamped to [1, TotalPages]
	TotalPages int
	Total      int // rows before filtering
	Matched    int // rows after filtering
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// View filters, sorts and pages the table.
func (t *Table) View(q Query) Page {
	idx := t.filter(q.Filters)
	t.sort(idx, q.Sort, q.Desc)

	totalPages := (len(idx) + PageSize - 1) / PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	q.Page = page

	start := (page - 1) * PageSize
	end := min(start+PageSize, len(idx))

	rows := make([][]string, 0, end-start)
	for _, i := range idx[start:end] {
		rows = append(rows, append([]string(nil), t.rows[i]...))
	}

	return Page{
		Columns:    t.Columns(),
		Rows:       rows,
		Query:      q,
		Page:       page,
		TotalPages: totalPages,
		Total:      len(t.rows),
		Matched:    len(idx),
	}
}

func (t *Table) column(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// filter returns the indices of rows whose cells contain every filter value,
// case-insensitively. Filters on unknown columns are ignored.
func (t *Table) filter(filters map[string]string) []int {
	type cond struct {
		col  int
		want string
	}
	var conds []cond
	for name, v := range filters {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if col := t.column(name); col >= 0 {
			conds = append(conds, cond{col, strings.ToLower(v)})
		}
	}

	idx := make([]int, 0, len(t.rows))
rows:
	for i, row := range t.rows {
		for _, c := range conds {
			if !strings.Contains(strings.ToLower(row[c.col]), c.want) {
				continue rows
			}
		}
		idx = append(idx, i)
	}
	return idx
}

func (t *Table) sort(idx []int, by string, desc bool) {
	col := t.column(by)
	if col < 0 {
		return
	}
	sort.SliceStable(idx, func(a, b int) bool {
		x, y := t.rows[idx[a]][col], t.rows[idx[b]][col]
		if desc {
			x, y = y, x
		}
		return less(x, y)
	})
}

// less orders numerically when both cells are numbers, otherwise by text.
func less(x, y string) bool {
	fx, errX := strconv.ParseFloat(x, 64)
	fy, errY := strconv.ParseFloat(y, 64)
	if errX == nil && errY == nil {
		return fx < fy
	}
	return strings.ToLower(x) < strings.ToLower(y)
}

// FormatCell renders a decoded JSON value as grid text.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
