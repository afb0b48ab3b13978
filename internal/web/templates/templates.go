// Package templates renders the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/transitdir/internal/core"
)

// ErrorAlert renders a dismissible error box with the user-facing message,
// the suggested action and the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		fmt.Fprintf(&b, `<span class="alert-code">%s</span>`, templ.EscapeString(code))
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// NearbyList renders ranked stops as a table.
func NearbyList(results []core.NearbyStop) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<table class="nearby"><thead><tr><th>Id</th><th>Name</th><th>Distance</th></tr></thead><tbody>`)
		for _, r := range results {
			fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td></tr>`,
				r.StopID, templ.EscapeString(r.Name), core.FormatDistance(r.DistanceKm))
		}
		b.WriteString(`</tbody></table>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ImportSummary renders the accepted and rejected ids of one batch.
func ImportSummary(res *core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		heading := "Added"
		if res.Mode != core.ModeInsert.String() {
			heading = "Updated"
		}

		var b strings.Builder
		fmt.Fprintf(&b, `<div class="import-summary" data-import-id="%s">`, templ.EscapeString(res.ImportID))
		writeIDList(&b, heading, "valid", res.Valid)
		writeIDList(&b, "Invalid", "invalid", res.Invalid)
		if res.Interrupted != "" {
			fmt.Fprintf(&b, `<p class="alert alert-warning">Import stopped early: %s</p>`, templ.EscapeString(res.Interrupted))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeIDList(b *strings.Builder, heading, class string, ids []string) {
	fmt.Fprintf(b, `<h3>%s (%d)</h3><ul class="%s">`, heading, len(ids), class)
	for _, id := range ids {
		fmt.Fprintf(b, `<li>%s</li>`, templ.EscapeString(id))
	}
	b.WriteString(`</ul>`)
}

// RecordList renders records one per line, as in the plain text listing.
func RecordList(recs []core.Record) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<ul class="records">`)
		for _, line := range strings.Split(strings.TrimSuffix(core.Describe(recs), "\n"), "\n") {
			if line == "" {
				continue
			}
			fmt.Fprintf(&b, `<li>%s</li>`, templ.EscapeString(line))
		}
		b.WriteString(`</ul>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
