package csv

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func readAll(t *testing.T, input string) []Record {
	t.Helper()
	r := NewReader(strings.NewReader(input))
	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, rec)
	}
}

func TestSplitRecord(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"empty line", "", []string{""}},
		{"trailing comma", "a,b,", []string{"a", "b", ""}},
		{"leading comma", ",a", []string{"", "a"}},
		{"quoted comma", `a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"escaped quote", `"a""b"`, []string{`a"b`}},
		{"escaped quote mid field", `x,"say ""hi""",y`, []string{"x", `say "hi"`, "y"}},
		{"embedded newline", "\"line1\nline2\",z", []string{"line1\nline2", "z"}},
		{"quote mid field opens region", `ab"c,d"e,f`, []string{"abc,de", "f"}},
		{"empty quoted field", `"",x`, []string{"", "x"}},
		{"unterminated quote", `a,"b,c`, []string{"a", "b,c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitRecord(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitRecord(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitRecord_FieldCountWithoutQuotes(t *testing.T) {
	lines := []string{
		"x",
		"a,b",
		",,,",
		"SUCCESS,1,0.2,PLA,210,50,Good,20,Grid,2,45,50,5mm,0.05,60,5min_12sec,fl_1.png,http://x/1.png",
	}
	for _, line := range lines {
		got := len(SplitRecord(line))
		want := 1 + strings.Count(line, ",")
		if got != want {
			t.Errorf("len(SplitRecord(%q)) = %d, want %d", line, got, want)
		}
	}
}

func TestReader_BalancedLinesAreNotExtended(t *testing.T) {
	input := "a,\"b\",c\n\"x\"\"y\",z\nlast"
	recs := readAll(t, input)

	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	want := [][]string{{"a", "b", "c"}, {`x"y`, "z"}, {"last"}}
	for i, rec := range recs {
		if !reflect.DeepEqual(rec.Fields, want[i]) {
			t.Errorf("record %d = %q, want %q", i, rec.Fields, want[i])
		}
		if rec.Line != i+1 {
			t.Errorf("record %d Line = %d, want %d", i, rec.Line, i+1)
		}
	}
}

func TestReader_OddQuotesSpanLines(t *testing.T) {
	input := "1,\"multi\nline\nnote\",end\n2,next\n"
	recs := readAll(t, input)

	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if got, want := recs[0].Fields, []string{"1", "multi\nline\nnote", "end"}; !reflect.DeepEqual(got, want) {
		t.Errorf("first record = %q, want %q", got, want)
	}
	if recs[0].Line != 1 {
		t.Errorf("first record Line = %d, want 1", recs[0].Line)
	}
	if recs[1].Line != 4 {
		t.Errorf("second record Line = %d, want 4", recs[1].Line)
	}
}

func TestReader_OpenRecordAtEOFIsReturned(t *testing.T) {
	recs := readAll(t, "ok\n\"never closed,x\nmore")
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if got, want := recs[1].Fields, []string{"never closed,x\nmore"}; !reflect.DeepEqual(got, want) {
		t.Errorf("partial record = %q, want %q", got, want)
	}
}

func TestReader_CRLFAndBlankLines(t *testing.T) {
	recs := readAll(t, "a,b\r\n\r\nc\r\n")
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if got := recs[0].Fields; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("first = %q", got)
	}
	if got := recs[1].Fields; !reflect.DeepEqual(got, []string{""}) {
		t.Errorf("blank line = %q, want one empty field", got)
	}
}

func TestReader_EmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{`"a"`, true},
		{`"a`, false},
		{`a""b`, true},
		{`"""`, false},
	}
	for _, tt := range tests {
		if got := Balanced(tt.in); got != tt.want {
			t.Errorf("Balanced(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
