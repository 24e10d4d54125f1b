package templates

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/datacleanser/internal/api"
)

func queryEscape(s string) string { return url.QueryEscape(s) }

// ResultPage is the result page shell. Cleaning starts when the panel
// loads; feature suggestions load independently.
func ResultPage(sessionID string) templ.Component {
	return component(func(h *html) {
		q := queryEscape(sessionID)
		h.raw(`<h1>Cleaning results</h1>`,
			`<div id="result" class="card" hx-get="/partials/result?session_id=`)
		h.text(q)
		h.raw(`" hx-trigger="load" hx-swap="outerHTML"><p class="muted">Processing data...</p></div>`,
			`<div id="features" class="card" hx-get="/partials/features?session_id=`)
		h.text(q)
		h.raw(`" hx-trigger="load" hx-swap="outerHTML"><p class="muted">Loading feature suggestions...</p></div>`)
	})
}

// ResultView is what the result panel shows.
type ResultView struct {
	SessionID string
	Summary   api.CleanSummary
	Logs      []api.AuditLog
	Cleaned   GridView
}

// ResultPanel renders the cleaning summary, the audit trail and the
// cleaned data.
func ResultPanel(v ResultView) templ.Component {
	return component(func(h *html) {
		h.raw(`<div id="result"><div class="card"><h2>Summary</h2><dl>`,
			`<dt>Rows processed</dt><dd>`)
		h.text(humanize.Comma(int64(v.Summary.RowsProcessed)))
		h.raw(`</dd><dt>Rows cleaned</dt><dd>`)
		h.text(humanize.Comma(int64(v.Summary.RowsCleaned)))
		h.raw(`</dd></dl>`)

		if len(v.Summary.Transformations) > 0 {
			h.raw(`<h3>Transformations</h3><ul>`)
			for _, t := range v.Summary.Transformations {
				h.raw(`<li><strong>`)
				h.text(t.Column)
				h.raw(`</strong>: `)
				h.text(t.Action)
				if t.Details != "" {
					h.raw(` <span class="muted">`)
					h.text(t.Details.String())
					h.raw(`</span>`)
				}
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
		}
		h.raw(`<p><a class="btn" href="/download?session_id=`)
		h.text(queryEscape(v.SessionID))
		h.raw(`">Download cleaned data</a></p></div>`)

		h.child(AuditTrail(v.Logs))
		h.child(Grid(v.Cleaned))
		h.raw(`</div>`)
	})
}

// AuditTrail lists recorded operations, oldest first as the backend sent them.
func AuditTrail(logs []api.AuditLog) templ.Component {
	return component(func(h *html) {
		h.raw(`<section class="card"><h2>Audit log</h2>`)
		if len(logs) == 0 {
			h.raw(`<p class="muted">No operations recorded</p></section>`)
			return
		}
		h.raw(`<table><thead><tr><th>Time</th><th>Action</th><th>Details</th></tr></thead><tbody>`)
		for _, l := range logs {
			h.raw(`<tr><td>`)
			if t, ok := l.Time(); ok {
				h.text(t.Format("2006-01-02 15:04:05"))
			} else {
				h.text(l.Timestamp)
			}
			h.raw(`</td><td>`)
			h.text(l.Action)
			h.raw(`</td><td>`)
			h.text(l.Details.String())
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table></section>`)
	})
}

// FeaturesPanel lists feature-engineering suggestions.
func FeaturesPanel(suggestions []api.FeatureSuggestion) templ.Component {
	return component(func(h *html) {
		h.raw(`<div id="features" class="card"><h2>Feature suggestions</h2>`)
		if len(suggestions) == 0 {
			h.raw(`<p class="muted">No suggestions for this dataset</p></div>`)
			return
		}
		h.raw(`<ul>`)
		for _, s := range suggestions {
			h.raw(`<li><strong>`)
			h.text(s.Target())
			h.raw(`</strong>`)
			if s.Type != "" {
				h.raw(` <span class="muted">`)
				h.text(s.Type)
				h.raw(`</span>`)
			}
			text := s.Suggestion
			if text == "" {
				text = s.Reason
			}
			if text != "" {
				h.raw(`: `)
				h.text(text)
			}
			if s.Confidence > 0 {
				h.raw(` <span class="muted">(`, strconv.Itoa(int(s.Confidence*100+0.5)), `% confidence)</span>`)
			}
			h.raw(`</li>`)
		}
		h.raw(`</ul></div>`)
	})
}

// FeaturesError replaces the suggestions panel when they cannot be loaded.
func FeaturesError(message, code string) templ.Component {
	return component(func(h *html) {
		h.raw(`<div id="features" class="card"><h2>Feature suggestions</h2>`)
		h.child(ErrorAlert(message, "", code))
		h.raw(`</div>`)
	})
}
