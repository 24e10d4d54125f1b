package preview

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Query selects a page of a Table.
type Query struct {
	Sort    string
	Desc    bool
	Filters map[string]string
	Page    int
}

// ParseQuery reads sort, dir, page and filter[<column>] parameters.
func ParseQuery(v url.Values) Query {
	q := Query{
		Sort: v.Get("sort"),
		Desc: strings.EqualFold(v.Get("dir"), "desc"),
	}
	q.Page, _ = strconv.Atoi(v.Get("page"))

	for key, vals := range v {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") || len(vals) == 0 {
			continue
		}
		col := key[len("filter[") : len(key)-1]
		if col == "" || vals[0] == "" {
			continue
		}
		if q.Filters == nil {
			q.Filters = make(map[string]string)
		}
		q.Filters[col] = vals[0]
	}
	return q
}

// Values encodes the query back into URL parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
		if q.Desc {
			v.Set("dir", "desc")
		} else {
			v.Set("dir", "asc")
		}
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	cols := make([]string, 0, len(q.Filters))
	for c := range q.Filters {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	for _, c := range cols {
		v.Set("filter["+c+"]", q.Filters[c])
	}
	return v
}

// SortedBy returns the query that sorts by col, toggling direction when col
// is already the sort column. Sorting returns to the first page.
func (q Query) SortedBy(col string) Query {
	next := q
	next.Desc = q.Sort == col && !q.Desc
	next.Sort = col
	next.Page = 1
	return next
}

// AtPage returns the query for page n.
func (q Query) AtPage(n int) Query {
	next := q
	next.Page = n
	return next
}
