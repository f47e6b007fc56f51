package layer

// decode.go maps a raw record onto a Layer.
//
// Columns are positional. Each one is converted by its entry in the columns
// table, walked in order; the first conversion that fails aborts the record
// and later columns are never attempted. String columns are copied verbatim.

import (
	"fmt"
	"strconv"
	"strings"
)

// ShapeError reports a record with too few fields to be a layer.
type ShapeError struct {
	Got  int
	Want int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("record has %d columns, expected at least %d", e.Got, e.Want)
}

// FieldError reports a column whose value could not be converted.
type FieldError struct {
	Column int    // 0-based column index
	Name   string // attribute name, e.g. "printSpeed"
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("column %d (%s): invalid value %q: %v", e.Column, e.Name, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

type column struct {
	name string
	set  func(l *Layer, raw string) error
}

// columns is indexed by source column position.
var columns = [ColumnCount]column{
	{"layerError", text(func(l *Layer) *string { return &l.LayerError })},
	{"layerNumber", integer(func(l *Layer) *int { return &l.LayerNumber })},
	{"layerHeight", float(func(l *Layer) *float64 { return &l.LayerHeight })},
	{"materialType", text(func(l *Layer) *string { return &l.MaterialType })},
	{"extrusionTemperature", integer(func(l *Layer) *int { return &l.ExtrusionTemperature })},
	{"printSpeed", integer(func(l *Layer) *int { return &l.PrintSpeed })},
	{"layerAdhesionQuality", text(func(l *Layer) *string { return &l.LayerAdhesionQuality })},
	{"infillDensity", integer(func(l *Layer) *int { return &l.InfillDensity })},
	{"infillPattern", text(func(l *Layer) *string { return &l.InfillPattern })},
	{"shellThickness", integer(func(l *Layer) *int { return &l.ShellThickness })},
	{"overhangAngle", integer(func(l *Layer) *int { return &l.OverhangAngle })},
	{"coolingFanSpeed", integer(func(l *Layer) *int { return &l.CoolingFanSpeed })},
	{"retractionSettings", text(func(l *Layer) *string { return &l.RetractionSettings })},
	{"zOffsetAdjustment", float(func(l *Layer) *float64 { return &l.ZOffsetAdjustment })},
	{"printBedTemperature", integer(func(l *Layer) *int { return &l.PrintBedTemperature })},
	{"layerTime", text(func(l *Layer) *string { return &l.LayerTime })},
	{"fileName", text(func(l *Layer) *string { return &l.FileName })},
	{"imageUrl", text(func(l *Layer) *string { return &l.ImageURL })},
}

// ColumnName returns the attribute name of column i, or "" when out of range.
func ColumnName(i int) string {
	if i < 0 || i >= len(columns) {
		return ""
	}
	return columns[i].name
}

// Decode converts the fields of one record into a Layer.
//
// It returns a *ShapeError if fields has fewer than ColumnCount entries and a
// *FieldError for the first column that fails to convert. Numeric columns
// take their leading numeric prefix after leading whitespace and fail only
// when there is none or it is out of range. Extra trailing fields are ignored.
func Decode(fields []string) (Layer, error) {
	if len(fields) < ColumnCount {
		return Layer{}, &ShapeError{Got: len(fields), Want: ColumnCount}
	}

	var l Layer
	for i, col := range columns {
		if err := col.set(&l, fields[i]); err != nil {
			return Layer{}, &FieldError{Column: i, Name: col.name, Value: fields[i], Err: err}
		}
	}
	return l, nil
}

func text(field func(*Layer) *string) func(*Layer, string) error {
	return func(l *Layer, raw string) error {
		*field(l) = raw
		return nil
	}
}

func integer(field func(*Layer) *int) func(*Layer, string) error {
	return func(l *Layer, raw string) error {
		prefix := intPrefix(strings.TrimLeft(raw, asciiSpace))
		if prefix == "" {
			return strconv.ErrSyntax
		}
		v, err := strconv.Atoi(prefix)
		if err != nil {
			return errorCause(err)
		}
		*field(l) = v
		return nil
	}
}

func float(field func(*Layer) *float64) func(*Layer, string) error {
	return func(l *Layer, raw string) error {
		prefix := floatPrefix(strings.TrimLeft(raw, asciiSpace))
		if prefix == "" {
			return strconv.ErrSyntax
		}
		v, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return errorCause(err)
		}
		*field(l) = v
		return nil
	}
}

const asciiSpace = " \t\n\v\f\r"

// intPrefix returns the longest leading run of s that reads as a decimal
// integer with an optional sign, or "" if s does not start with one.
// "210C" yields "210" and "50.5" yields "50".
func intPrefix(s string) string {
	i := sign(s)
	n := digits(s[i:])
	if n == 0 {
		return ""
	}
	return s[:i+n]
}

// floatPrefix is intPrefix for decimal floats: an optional sign, digits with
// at most one decimal point, and an exponent only when digits follow it.
// "0.2mm" yields "0.2". Words such as NaN or Inf are not numbers here.
func floatPrefix(s string) string {
	i := sign(s)
	mant := digits(s[i:])
	i += mant
	if i < len(s) && s[i] == '.' {
		frac := digits(s[i+1:])
		if mant+frac == 0 {
			return ""
		}
		i += 1 + frac
		mant += frac
	}
	if mant == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		j += sign(s[j:])
		if n := digits(s[j:]); n > 0 {
			i = j + n
		}
	}
	return s[:i]
}

func sign(s string) int {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		return 1
	}
	return 0
}

func digits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// errorCause drops strconv's echo of the input, which FieldError already carries.
func errorCause(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}
