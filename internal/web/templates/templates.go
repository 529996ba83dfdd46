// Package templates holds the HTMX fragments the API returns when a request
// carries HX-Request. Components are plain templ.ComponentFunc values.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissible error box with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		if code != "" {
			fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ImportResult renders the outcome of a CSV import: a success line, or a
// table of row errors when the batch was rejected.
func ImportResult(res core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		if len(res.Errors) == 0 {
			fmt.Fprintf(&b, `<div class="import-result import-ok">Imported %d buyers.</div>`, res.Inserted)
			_, err := io.WriteString(w, b.String())
			return err
		}

		b.WriteString(`<div class="import-result import-failed">`)
		fmt.Fprintf(&b, `<p>Nothing was imported. %d rows are valid, %d need fixing.</p>`,
			res.ValidCount, len(res.Errors))
		b.WriteString(`<table class="row-errors"><thead><tr><th>Row</th><th>Problem</th></tr></thead><tbody>`)
		for _, re := range res.Errors {
			fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td></tr>`, re.Row, templ.EscapeString(re.Message))
		}
		b.WriteString(`</tbody></table></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
