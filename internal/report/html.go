package report

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/fakeprinter/internal/stats"
)

// Page describes one rendered report page.
type Page struct {
	Title   string
	RunID   string
	Mode    string
	Summary stats.Summary
}

// HTML returns a component rendering p as a standalone page.
func HTML(p Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		s := p.Summary

		ew.print(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		ew.text(p.Title)
		ew.print(`</title></head><body><main class="report">`)
		ew.print(`<h1>`)
		ew.text(p.Title)
		ew.print(`</h1>`)

		ew.print(`<dl class="run">`)
		if p.RunID != "" {
			item(ew, "Run", p.RunID)
		}
		if p.Mode != "" {
			item(ew, "Mode", p.Mode)
		}
		item(ew, "Layers printed", strconv.Itoa(s.Successes))
		item(ew, "Errors", strconv.Itoa(s.Errors))
		ew.print(`</dl>`)

		if s.Successes == 0 {
			ew.print(`<p class="warning">No layers were successfully printed.</p>`)
		} else {
			ew.print(`<h2>Print Speed</h2><dl class="speed">`)
			item(ew, "Min", fmt.Sprintf("%d mm/s", s.MinSpeed))
			item(ew, "Max", fmt.Sprintf("%d mm/s", s.MaxSpeed))
			item(ew, "Avg", fmt.Sprintf("%.2f mm/s", s.AvgSpeed))
			ew.print(`</dl>`)

			ew.print(`<h2>Time</h2><dl class="time">`)
			item(ew, "Total", fmt.Sprintf("%.2f minutes", s.TotalMinutes()))
			if s.TimedLayers > 0 {
				item(ew, "Min layer", fmt.Sprintf("%d sec", s.MinLayerSeconds))
				item(ew, "Max layer", fmt.Sprintf("%d sec", s.MaxLayerSeconds))
			}
			ew.print(`</dl>`)

			table(ew, "Material Usage", "Material", s.Materials)
		}

		if len(s.ErrorCategories) > 0 {
			table(ew, "Error Breakdown", "Category", s.ErrorCategories)
			table(ew, "Error Distribution", "Reason", s.ErrorReasons)
		}

		if len(s.Speeds) > 0 {
			speeds := make([]stats.Bucket[string], len(s.Speeds))
			for i, sp := range s.Speeds {
				speeds[i] = stats.Bucket[string]{Key: fmt.Sprintf("%d mm/s", sp.Key), Count: sp.Count}
			}
			table(ew, "Print Speed Distribution", "Speed", speeds)
		}

		ew.print(`</main></body></html>`)
		return ew.err
	})
}

func item(ew *errWriter, term, desc string) {
	ew.print(`<dt>`)
	ew.text(term)
	ew.print(`</dt><dd>`)
	ew.text(desc)
	ew.print(`</dd>`)
}

func table(ew *errWriter, title, keyHeading string, buckets []stats.Bucket[string]) {
	ew.print(`<h2>`)
	ew.text(title)
	ew.print(`</h2><table><thead><tr><th>`)
	ew.text(keyHeading)
	ew.print(`</th><th>Count</th><th></th></tr></thead><tbody>`)
	for _, b := range buckets {
		ew.print(`<tr><td>`)
		ew.text(b.Key)
		ew.print(`</td><td>`)
		ew.text(strconv.Itoa(b.Count))
		ew.print(`</td><td class="bar">`)
		ew.text(Bar(b.Count))
		ew.print(`</td></tr>`)
	}
	ew.print(`</tbody></table>`)
}

// errWriter keeps the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (ew *errWriter) text(s string) {
	ew.print(templ.EscapeString(s))
}
