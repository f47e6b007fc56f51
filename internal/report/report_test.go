package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/JonMunkholm/fakeprinter/internal/layer"
	"github.com/JonMunkholm/fakeprinter/internal/stats"
)

func sampleSummary(t *testing.T) stats.Summary {
	t.Helper()
	a := stats.New()
	for _, l := range []layer.Layer{
		{LayerNumber: 1, MaterialType: "PLA", PrintSpeed: 50, LayerTime: "1min_0sec"},
		{LayerNumber: 2, MaterialType: "PLA", PrintSpeed: 50, LayerTime: "2min_0sec"},
		{LayerNumber: 3, MaterialType: "ABS", PrintSpeed: 30, LayerTime: "0min_30sec"},
	} {
		if err := a.RecordSuccess(l); err != nil {
			t.Fatalf("RecordSuccess() error = %v", err)
		}
	}
	a.RecordFailure("validation", "JAM")
	a.RecordFailure("validation", "JAM")
	return a.Summary()
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleSummary(t)); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()

	want := []string{
		"=== Fake Print Summary ===",
		"Total layers processed: 3",
		"Total errors encountered: 2",
		"  - PLA: 2 layers",
		"  - ABS: 1 layers",
		"  - Min Speed: 30 mm/s",
		"  - Max Speed: 50 mm/s",
		"  - Avg Speed: 43.33 mm/s",
		"  - Total print time: 3.50 minutes",
		"  - Min layer time: 30 sec",
		"  - Max layer time: 120 sec",
		"  - validation: 2 occurrences",
		"  JAM             | ## (2)",
		"   50 mm/s | ## (2 layers)",
		"   30 mm/s | # (1 layers)",
		"=== End of Fake Print Summary ===",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("report missing %q\n%s", w, out)
		}
	}

	if strings.Index(out, "PLA") > strings.Index(out, "ABS") {
		t.Errorf("materials not in first-seen order:\n%s", out)
	}
}

func TestWriteText_NoSuccesses(t *testing.T) {
	a := stats.New()
	a.RecordFailure("shape", "record has 10 columns, expected at least 18")

	var buf bytes.Buffer
	if err := WriteText(&buf, a.Summary()); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "No layers were successfully printed.") {
		t.Errorf("missing empty-run warning:\n%s", out)
	}
	if strings.Contains(out, "Print Speed Analysis") {
		t.Errorf("speed analysis rendered for empty run:\n%s", out)
	}
	if !strings.Contains(out, "  - shape: 1 occurrences") {
		t.Errorf("error breakdown missing:\n%s", out)
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{-1, ""},
		{1, "#"},
		{4, "####"},
	}
	for _, tt := range tests {
		if got := Bar(tt.n); got != tt.want {
			t.Errorf("Bar(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestHTML(t *testing.T) {
	s := sampleSummary(t)
	var buf bytes.Buffer
	page := Page{Title: "benchy <v2>", RunID: "run-1", Mode: "automatic", Summary: s}
	if err := HTML(page).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("output does not start with a doctype: %.40q", out)
	}
	if !strings.Contains(out, "benchy &lt;v2&gt;") {
		t.Errorf("title not escaped:\n%s", out)
	}
	if strings.Contains(out, "<v2>") {
		t.Errorf("raw title leaked into output")
	}
	for _, w := range []string{"<td>PLA</td><td>2</td>", "<td>JAM</td><td>2</td>", "<td>50 mm/s</td>", "43.33 mm/s"} {
		if !strings.Contains(out, w) {
			t.Errorf("html missing %q", w)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

var errWrite = errors.New("write failed")

func TestHTML_WriteError(t *testing.T) {
	err := HTML(Page{Title: "x"}).Render(context.Background(), failingWriter{})
	if !errors.Is(err, errWrite) {
		t.Errorf("Render() error = %v, want %v", err, errWrite)
	}
}

func TestLog_WritesSummaryAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	Log(context.Background(), log, sampleSummary(t))

	var lines []string
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var rec struct {
			Level string `json:"level"`
			Msg   string `json:"msg"`
			Line  string `json:"line"`
		}
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("decode log record: %v", err)
		}
		if rec.Level != "DEBUG" || rec.Msg != "summary" {
			t.Errorf("record = %+v, want DEBUG summary", rec)
		}
		lines = append(lines, rec.Line)
	}

	if len(lines) == 0 || lines[0] != "=== Fake Print Summary ===" {
		t.Fatalf("first line = %q, want the report header", lines)
	}
	if got := lines[len(lines)-1]; got != "=== End of Fake Print Summary ===" {
		t.Errorf("last line = %q, want the report footer", got)
	}
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			t.Error("blank line logged")
		}
	}
}

func TestLog_DroppedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	Log(context.Background(), log, sampleSummary(t))

	if buf.Len() != 0 {
		t.Errorf("info-level handler received %q", buf.String())
	}
}
