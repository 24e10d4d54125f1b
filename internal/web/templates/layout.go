package templates

import "github.com/a-h/templ"

// HTMXSrc is the htmx build the pages load.
const HTMXSrc = "https://unpkg.com/htmx.org@2.0.4"

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1f2933}
header{display:flex;justify-content:space-between;align-items:center;padding:.75rem 1.5rem;background:#1f2933;color:#fff}
header a{color:#fff}
main{max-width:72rem;margin:1.5rem auto;padding:0 1.5rem}
.card{background:#fff;border-radius:.5rem;box-shadow:0 1px 3px rgba(0,0,0,.1);padding:1rem;margin-bottom:1rem}
.cards{display:grid;grid-template-columns:repeat(auto-fill,minmax(16rem,1fr));gap:1rem}
.error{border-left:4px solid #d64545;background:#fde8e8;padding:.75rem 1rem;border-radius:.25rem}
.notice{border-left:4px solid #2f80ed;background:#e8f1fd;padding:.75rem 1rem;border-radius:.25rem}
.btn{display:inline-block;padding:.5rem 1rem;border-radius:.25rem;background:#2f80ed;color:#fff;text-decoration:none;border:0;cursor:pointer}
.muted{color:#616e7c;font-size:.875rem}
table{border-collapse:collapse;width:100%}
th,td{border-bottom:1px solid #e4e7eb;padding:.4rem .6rem;text-align:left;font-size:.875rem}
dl{display:grid;grid-template-columns:auto 1fr;gap:.25rem .75rem;margin:0}
dt{color:#616e7c}
progress{width:100%}
#dropzone{border:2px dashed #9aa5b1;border-radius:.5rem;padding:2rem;text-align:center}
#dropzone.active{border-color:#2f80ed;background:#e8f1fd}
`

// Layout wraps body in the page chrome. email is empty for signed-out pages.
func Layout(title, email string, body templ.Component) templ.Component {
	return component(func(h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`)
		h.text(title)
		h.raw(` · Data Cleanser</title><script src="`, HTMXSrc, `"></script><style>`, styles, `</style></head><body>`)

		h.raw(`<header><a href="/"><strong>Data Cleanser</strong></a>`)
		if email != "" {
			h.raw(`<form method="post" action="/logout"><span class="muted">`)
			h.text(email)
			h.raw(`</span> <button class="btn" type="submit">Sign out</button></form>`)
		}
		h.raw(`</header><main>`)
		h.child(body)
		h.raw(`</main></body></html>`)
	})
}
