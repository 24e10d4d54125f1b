package templates

import "github.com/a-h/templ"

// ErrorAlert is the inline error box used by htmx error responses.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="error" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(`<div>`)
			h.text(action)
			h.raw(`</div>`)
		}
		if code != "" {
			h.raw(`<div class="muted">Code: `)
			h.text(code)
			h.raw(`</div>`)
		}
		h.raw(`</div>`)
	})
}

// RetryPanel shows a failed load with a way back to the upload page.
func RetryPanel(id, message, code string) templ.Component {
	return component(func(h *html) {
		h.raw(`<div id="`)
		h.text(id)
		h.raw(`" class="card">`)
		h.child(ErrorAlert(message, "", code))
		h.raw(`<p><a class="btn" href="/upload">Try again</a></p></div>`)
	})
}
