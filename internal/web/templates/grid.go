package templates

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datacleanser/internal/preview"
)

// GridView is one page of a data grid and where to fetch other pages.
type GridView struct {
	Title     string
	Source    string // preview or cleaned
	SessionID string
	Page      preview.Page
}

func (g GridView) id() string { return templ.EscapeString("grid-" + g.Source) }

// URL is the fragment URL for q.
func (g GridView) URL(q preview.Query) string {
	v := q.Values()
	v.Set("session_id", g.SessionID)
	return "/partials/grid/" + url.PathEscape(g.Source) + "?" + v.Encode()
}

// Grid renders a sortable, filterable, paged table. htmx swaps the whole
// grid on every interaction.
func Grid(g GridView) templ.Component {
	return component(func(h *html) {
		p := g.Page
		target := `hx-target="#` + g.id() + `" hx-swap="outerHTML"`

		h.raw(`<section id="`, g.id(), `" class="card"><h2>`)
		h.text(g.Title)
		h.raw(`</h2>`)

		if len(p.Columns) == 0 {
			h.raw(`<p class="muted">No data to display</p></section>`)
			return
		}

		h.raw(`<form hx-get="/partials/grid/`, url.PathEscape(g.Source), `" hx-trigger="input changed delay:400ms, submit" `, target, `>`,
			`<input type="hidden" name="session_id" value="`)
		h.text(g.SessionID)
		h.raw(`">`)
		if p.Query.Sort != "" {
			dir := "asc"
			if p.Query.Desc {
				dir = "desc"
			}
			h.raw(`<input type="hidden" name="sort" value="`)
			h.text(p.Query.Sort)
			h.raw(`"><input type="hidden" name="dir" value="`, dir, `">`)
		}

		h.raw(`<table><thead><tr>`)
		for _, col := range p.Columns {
			h.raw(`<th><a href="#" hx-get="`)
			h.text(g.URL(p.Query.SortedBy(col)))
			h.raw(`" `, target, `>`)
			h.text(col)
			if p.Query.Sort == col {
				if p.Query.Desc {
					h.raw(` ▼`)
				} else {
					h.raw(` ▲`)
				}
			}
			h.raw(`</a></th>`)
		}
		h.raw(`</tr><tr>`)
		for _, col := range p.Columns {
			h.raw(`<th><input type="search" placeholder="Filter" aria-label="Filter `)
			h.text(col)
			h.raw(`" name="`)
			h.text("filter[" + col + "]")
			h.raw(`" value="`)
			h.text(p.Query.Filters[col])
			h.raw(`"></th>`)
		}
		h.raw(`</tr></thead><tbody>`)

		if len(p.Rows) == 0 {
			h.raw(`<tr><td colspan="`, strconv.Itoa(len(p.Columns)), `" class="muted">No matching rows</td></tr>`)
		}
		for _, row := range p.Rows {
			h.raw(`<tr>`)
			for _, cell := range row {
				h.raw(`<td>`)
				h.text(cell)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></form>`)

		h.raw(`<p class="muted">`)
		h.text(summary(p))
		h.raw(`</p><nav>`)
		if p.HasPrev() {
			h.raw(`<button class="btn" hx-get="`)
			h.text(g.URL(p.Query.AtPage(p.Page - 1)))
			h.raw(`" `, target, `>Previous</button> `)
		}
		if p.HasNext() {
			h.raw(`<button class="btn" hx-get="`)
			h.text(g.URL(p.Query.AtPage(p.Page + 1)))
			h.raw(`" `, target, `>Next</button>`)
		}
		h.raw(`</nav></section>`)
	})
}

func summary(p preview.Page) string {
	s := "Page " + strconv.Itoa(p.Page) + " of " + strconv.Itoa(p.TotalPages) + " · "
	if p.Matched != p.Total {
		return s + strconv.Itoa(p.Matched) + " of " + strconv.Itoa(p.Total) + " rows match"
	}
	return s + strconv.Itoa(p.Total) + " rows"
}
