// Package report renders a run summary for people: a plain text report for
// the console and log, and an HTML page for the monitor and the output folder.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/fakeprinter/internal/stats"
)

const (
	header = "=== Fake Print Summary ==="
	footer = "=== End of Fake Print Summary ==="
)

// WriteText writes the text report for s to w.
func WriteText(w io.Writer, s stats.Summary) error {
	var b strings.Builder

	b.WriteString(header + "\n")
	fmt.Fprintf(&b, "Total layers processed: %d\n", s.Successes)
	fmt.Fprintf(&b, "Total errors encountered: %d\n", s.Errors)

	if s.Successes == 0 {
		b.WriteString("No layers were successfully printed.\n")
	} else {
		b.WriteString("\nMaterial Usage:\n")
		for _, m := range s.Materials {
			fmt.Fprintf(&b, "  - %s: %d layers\n", m.Key, m.Count)
		}

		b.WriteString("\nPrint Speed Analysis:\n")
		fmt.Fprintf(&b, "  - Min Speed: %d mm/s\n", s.MinSpeed)
		fmt.Fprintf(&b, "  - Max Speed: %d mm/s\n", s.MaxSpeed)
		fmt.Fprintf(&b, "  - Avg Speed: %.2f mm/s\n", s.AvgSpeed)

		b.WriteString("\nTime Statistics:\n")
		fmt.Fprintf(&b, "  - Total print time: %.2f minutes\n", s.TotalMinutes())
		if s.TimedLayers > 0 {
			fmt.Fprintf(&b, "  - Min layer time: %d sec\n", s.MinLayerSeconds)
			fmt.Fprintf(&b, "  - Max layer time: %d sec\n", s.MaxLayerSeconds)
		}
	}

	if len(s.ErrorCategories) > 0 {
		b.WriteString("\nError Breakdown:\n")
		for _, c := range s.ErrorCategories {
			fmt.Fprintf(&b, "  - %s: %d occurrences\n", c.Key, c.Count)
		}

		b.WriteString("\nError Distribution:\n")
		for _, r := range s.ErrorReasons {
			fmt.Fprintf(&b, "  %-15s | %s (%d)\n", r.Key, Bar(r.Count), r.Count)
		}
	}

	if len(s.Speeds) > 0 {
		b.WriteString("\nPrint Speed Distribution:\n")
		for _, sp := range s.Speeds {
			fmt.Fprintf(&b, "  %3d mm/s | %s (%d layers)\n", sp.Key, Bar(sp.Count), sp.Count)
		}
	}

	b.WriteString("\n" + footer + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Bar returns n hash marks.
func Bar(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("#", n)
}
