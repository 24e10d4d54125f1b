package templates

import "github.com/a-h/templ"

// EntryForm is the state of the sign-in page.
type EntryForm struct {
	Email  string
	Error  string
	Notice string
}

// Entry is the sign-in / sign-up page.
func Entry(f EntryForm) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="card" style="max-width:28rem;margin:3rem auto"><h1>Sign in</h1>`,
			`<p class="muted">Upload a CSV or Excel file, review its profile and download a cleaned copy.</p>`)
		if f.Error != "" {
			h.child(ErrorAlert(f.Error, "", ""))
		}
		if f.Notice != "" {
			h.raw(`<div class="notice">`)
			h.text(f.Notice)
			h.raw(`</div>`)
		}
		h.raw(`<form method="post" action="/login">`,
			`<p><label>Email<br><input type="email" name="email" required autocomplete="email" value="`)
		h.text(f.Email)
		h.raw(`"></label></p>`,
			`<p><label>Password<br><input type="password" name="password" required minlength="6" autocomplete="current-password"></label></p>`,
			`<p><button class="btn" type="submit">Sign in</button> `,
			`<button class="btn" type="submit" formaction="/signup">Create account</button></p>`,
			`</form></div>`)
	})
}
