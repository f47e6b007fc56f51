// Package stats accumulates the counters of one print run and derives the
// final summary from them.
//
// An Aggregator belongs to a single run. It is mutated once per processed or
// failed record and is not safe for concurrent use; observers that need a
// view from another goroutine should take a Summary, which is a copy.
package stats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fakeprinter/internal/layer"
)

// ErrLayerTime is wrapped by ParseLayerTime failures.
var ErrLayerTime = errors.New("unrecognized layer time")

// Aggregator holds the running statistics of one run.
type Aggregator struct {
	successes int
	errors    int

	categories Histogram[string]
	reasons    Histogram[string]
	materials  Histogram[string]
	speeds     Histogram[int]

	speedMin, speedMax, speedTotal int

	timed   int
	timeMin int
	timeMax int
	timeSum int

	processed []int
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// RecordSuccess counts a materialized layer. The returned error reports a
// layer time that could not be parsed; the layer is still counted but adds
// nothing to the duration aggregates.
func (a *Aggregator) RecordSuccess(l layer.Layer) error {
	a.successes++
	a.processed = append(a.processed, l.LayerNumber)
	a.materials.Add(l.MaterialType)
	a.speeds.Add(l.PrintSpeed)

	if a.successes == 1 || l.PrintSpeed < a.speedMin {
		a.speedMin = l.PrintSpeed
	}
	if a.successes == 1 || l.PrintSpeed > a.speedMax {
		a.speedMax = l.PrintSpeed
	}
	a.speedTotal += l.PrintSpeed

	secs, err := ParseLayerTime(l.LayerTime)
	if err != nil {
		return err
	}
	a.timed++
	if a.timed == 1 || secs < a.timeMin {
		a.timeMin = secs
	}
	if a.timed == 1 || secs > a.timeMax {
		a.timeMax = secs
	}
	a.timeSum += secs
	return nil
}

// RecordFailure counts one error under category with a short reason.
func (a *Aggregator) RecordFailure(category, reason string) {
	a.errors++
	a.categories.Add(category)
	if reason != "" {
		a.reasons.Add(reason)
	}
}

// Successes returns the number of materialized layers so far.
func (a *Aggregator) Successes() int { return a.successes }

// Errors returns the number of errors so far.
func (a *Aggregator) Errors() int { return a.errors }

// Summary is the read-only report of a run.
type Summary struct {
	Successes int `json:"successes"`
	Errors    int `json:"errors"`

	ProcessedLayers []int            `json:"processedLayers"`
	Materials       []Bucket[string] `json:"materials"`
	Speeds          []Bucket[int]    `json:"speeds"`

	MinSpeed int     `json:"minSpeed"`
	MaxSpeed int     `json:"maxSpeed"`
	AvgSpeed float64 `json:"avgSpeed"`

	TimedLayers     int `json:"timedLayers"`
	MinLayerSeconds int `json:"minLayerSeconds"`
	MaxLayerSeconds int `json:"maxLayerSeconds"`
	TotalSeconds    int `json:"totalSeconds"`

	ErrorCategories []Bucket[string] `json:"errorCategories"`
	ErrorReasons    []Bucket[string] `json:"errorReasons"`
}

// Summary derives the report from the current counters without changing them.
func (a *Aggregator) Summary() Summary {
	s := Summary{
		Successes:       a.successes,
		Errors:          a.errors,
		ProcessedLayers: append([]int(nil), a.processed...),
		Materials:       a.materials.Buckets(),
		Speeds:          a.speeds.Buckets(),
		ErrorCategories: a.categories.Buckets(),
		ErrorReasons:    a.reasons.Buckets(),
		TimedLayers:     a.timed,
		MinLayerSeconds: a.timeMin,
		MaxLayerSeconds: a.timeMax,
		TotalSeconds:    a.timeSum,
	}
	if a.successes > 0 {
		s.MinSpeed = a.speedMin
		s.MaxSpeed = a.speedMax
		s.AvgSpeed = float64(a.speedTotal) / float64(a.successes)
	}
	return s
}

// TotalMinutes returns the summed layer time in minutes.
func (s Summary) TotalMinutes() float64 {
	return float64(s.TotalSeconds) / 60
}

// ParseLayerTime converts a "<min>min_<sec>sec" string to seconds. Either
// part may be missing ("12sec", "5min"), but at least one must be present.
func ParseLayerTime(s string) (int, error) {
	minIdx := strings.Index(s, "min")
	secIdx := strings.Index(s, "sec")
	if minIdx < 0 && secIdx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrLayerTime, s)
	}

	total := 0
	rest := s
	if minIdx >= 0 {
		m, err := strconv.Atoi(strings.TrimSpace(s[:minIdx]))
		if err != nil {
			return 0, fmt.Errorf("%w: minutes in %q", ErrLayerTime, s)
		}
		total += m * 60
		rest = strings.TrimPrefix(s[minIdx+len("min"):], "_")
	}

	if secIdx >= 0 {
		end := strings.Index(rest, "sec")
		if end < 0 {
			return 0, fmt.Errorf("%w: seconds in %q", ErrLayerTime, s)
		}
		sec, err := strconv.Atoi(strings.TrimSpace(rest[:end]))
		if err != nil {
			return 0, fmt.Errorf("%w: seconds in %q", ErrLayerTime, s)
		}
		total += sec
	}

	return total, nil
}
