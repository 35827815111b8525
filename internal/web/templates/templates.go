// Package templates holds the HTML fragments served by the web package.
//
// Components are written directly against the templ runtime so the package
// builds without a generate step.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// write renders a sequence of already-escaped fragments, stopping at the
// first error.
func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

func esc(s string) string { return templ.EscapeString(s) }

// ErrorAlert renders a user-facing error with its action and code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<div class="alert" role="alert"><strong>`, esc(message), `</strong>`); err != nil {
			return err
		}
		if action != "" {
			if err := write(w, `<p>`, esc(action), `</p>`); err != nil {
				return err
			}
		}
		return write(w, `<small>Code: `, esc(code), `</small></div>`)
	})
}

// DiffRow is one differing field on the compare page.
type DiffRow struct {
	Row    int
	Field  string
	ValueA string
	ValueB string
}

// CompareReport is the data behind the compare page.
type CompareReport struct {
	FileA, FileB string
	RunID        string
	RowsA, RowsB int
	Compared     int
	Skipped      int
	Warnings     []string
	Diffs        []DiffRow // possibly truncated
	Total        int       // diffs before truncation
}

const style = `<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #ccc;padding:.25rem .5rem;text-align:left;vertical-align:top;white-space:pre-wrap}
th{background:#f3f3f3}
.warn{color:#8a5300}
.alert{border:1px solid #c33;background:#fee;padding:.75rem}
</style>`

// Page renders the full HTML document.
func (c CompareReport) Page() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := fmt.Sprintf("Compare %s and %s", c.FileA, c.FileB)
		if err := write(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`, esc(title), `</title>`, style,
			`</head><body><h1>`, esc(title), `</h1>`,
		); err != nil {
			return err
		}
		if err := c.summary().Render(ctx, w); err != nil {
			return err
		}
		if err := c.table().Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</body></html>`)
	})
}

func (c CompareReport) summary() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<p>Run <code>`, esc(c.RunID), `</code>: `,
			fmt.Sprintf("%d rows in A, %d rows in B, %d positions compared, %d skipped, %d differences.",
				c.RowsA, c.RowsB, c.Compared, c.Skipped, c.Total),
			`</p>`,
		); err != nil {
			return err
		}
		for _, warning := range c.Warnings {
			if err := write(w, `<p class="warn">`, esc(warning), `</p>`); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c CompareReport) table() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if c.Total == 0 {
			return write(w, `<p>The files match.</p>`)
		}
		if err := write(w, `<table><thead><tr><th>Row</th><th>Field</th><th>A</th><th>B</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, d := range c.Diffs {
			if err := write(w,
				`<tr><td>`, fmt.Sprint(d.Row),
				`</td><td>`, esc(d.Field),
				`</td><td>`, esc(d.ValueA),
				`</td><td>`, esc(d.ValueB),
				`</td></tr>`,
			); err != nil {
				return err
			}
		}
		if err := write(w, `</tbody></table>`); err != nil {
			return err
		}
		if more := c.Total - len(c.Diffs); more > 0 {
			return write(w, fmt.Sprintf(`<p>%d more differences not shown; request a report file from the API to see all of them.</p>`, more))
		}
		return nil
	})
}
