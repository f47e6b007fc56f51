package csv

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Record is one logical record of the plan.
type Record struct {
	Line   int      // 1-based physical line where the record starts
	Fields []string // never empty; a blank line yields one empty field
}

// Reader assembles logical records from physical lines.
type Reader struct {
	br   *bufio.Reader
	line int
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF once the stream is exhausted.
//
// Physical lines are appended, separated by "\n", while the record holds an
// odd number of double quotes. If the stream ends while a record is still
// open the partial record is returned as is.
func (r *Reader) Next() (Record, error) {
	text, err := r.readLine()
	if err != nil {
		return Record{}, err
	}
	start := r.line

	quotes := strings.Count(text, `"`)
	for quotes%2 != 0 {
		next, err := r.readLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Record{}, err
		}
		text += "\n" + next
		quotes += strings.Count(next, `"`)
	}

	return Record{Line: start, Fields: SplitRecord(text)}, nil
}

// Line returns the number of physical lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// readLine reads one physical line without its terminator. A final line
// without a trailing newline is still returned; io.EOF is only reported when
// nothing is left.
func (r *Reader) readLine() (string, error) {
	s, err := r.br.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) || s == "" {
			return "", err
		}
	}
	r.line++
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}

// Balanced reports whether text holds an even number of double quotes, the
// condition under which the Reader considers a record complete.
func Balanced(text string) bool {
	return strings.Count(text, `"`)%2 == 0
}

type splitState int

const (
	unquoted splitState = iota
	quoted
)

// SplitRecord splits the text of one complete record into fields.
//
// Outside quotes a comma ends the field and a double quote opens a quoted
// region without emitting anything. Inside quotes a doubled quote emits one
// literal quote and a single quote closes the region. The final field is
// always emitted, so the result has at least one element.
func SplitRecord(text string) []string {
	var (
		fields []string
		field  strings.Builder
		state  = unquoted
	)

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch state {
		case unquoted:
			switch c {
			case ',':
				fields = append(fields, field.String())
				field.Reset()
			case '"':
				state = quoted
			default:
				field.WriteByte(c)
			}
		case quoted:
			if c != '"' {
				field.WriteByte(c)
				continue
			}
			if i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			state = unquoted
		}
	}

	return append(fields, field.String())
}
