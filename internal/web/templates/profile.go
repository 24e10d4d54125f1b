package templates

import (
	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/datacleanser/internal/core"
)

// ProfileView is what the profile panel shows.
type ProfileView struct {
	SessionID string
	Rows      int
	Columns   int
	Cards     []core.StatCard
	Preview   GridView
	Cached    bool // true while the authoritative profile is still loading
}

// ProfilePage is the profile page shell. The panel is replaced by the
// authoritative fragment as soon as the page loads.
func ProfilePage(sessionID string, cached *ProfileView) templ.Component {
	return component(func(h *html) {
		h.raw(`<h1>Data profile</h1>`)
		if cached != nil {
			h.child(ProfilePanel(*cached))
			return
		}
		h.raw(`<div id="profile" class="card" hx-get="/partials/profile?session_id=`)
		h.text(queryEscape(sessionID))
		h.raw(`" hx-trigger="load" hx-swap="outerHTML"><p class="muted">Loading profile...</p></div>`)
	})
}

// ProfilePanel renders one card per column plus the data preview.
func ProfilePanel(v ProfileView) templ.Component {
	return component(func(h *html) {
		h.raw(`<div id="profile"`)
		if v.Cached {
			h.raw(` hx-get="/partials/profile?session_id=`)
			h.text(queryEscape(v.SessionID))
			h.raw(`" hx-trigger="load" hx-swap="outerHTML"`)
		}
		h.raw(`><div class="card"><strong>`)
		h.text(humanize.Comma(int64(v.Rows)))
		h.raw(`</strong> rows · <strong>`)
		h.text(humanize.Comma(int64(v.Columns)))
		h.raw(`</strong> columns`)
		if v.Cached {
			h.raw(` <span class="muted">(refreshing...)</span>`)
		}
		h.raw(` <a class="btn" style="float:right" href="`)
		h.text(core.ResultURL(v.SessionID))
		h.raw(`">Clean data</a></div>`)

		h.raw(`<div class="cards">`)
		for _, c := range v.Cards {
			h.child(StatCard(c))
		}
		h.raw(`</div>`)
		h.child(Grid(v.Preview))
		h.raw(`</div>`)
	})
}

// StatCard renders one column statistic.
func StatCard(c core.StatCard) templ.Component {
	return component(func(h *html) {
		h.raw(`<article class="card stat-card" data-kind="`)
		h.text(string(c.Kind))
		h.raw(`"><h3>`)
		h.text(c.Column)
		h.raw(`</h3><dl>`)
		for _, f := range c.Fields {
			h.raw(`<dt>`)
			h.text(f.Label)
			h.raw(`</dt><dd>`)
			h.text(f.Value)
			h.raw(`</dd>`)
		}
		h.raw(`</dl></article>`)
	})
}
