// Package engine drives a print run: it pulls plan records one at a time,
// decodes and validates them, optionally waits for the operator, and
// materializes accepted layers while keeping the run statistics.
//
// The engine is a small state machine:
//
//	Idle -> Running -> {Paused, Terminating} -> Done
//
// Paused is entered only in supervised mode, while an operator answer is
// outstanding. Every wait polls the cancellation flag, so a shutdown request
// reaches Terminating within one poll interval even if nobody answers.
package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fakeprinter/internal/csv"
	"github.com/JonMunkholm/fakeprinter/internal/layer"
	"github.com/JonMunkholm/fakeprinter/internal/stats"
)

// Mode selects how a run progresses.
type Mode string

const (
	ModeAutomatic  Mode = "automatic"
	ModeSupervised Mode = "supervised"
)

// ParseMode accepts "automatic" or "supervised", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAutomatic, ModeSupervised:
		return m, nil
	}
	return "", fmt.Errorf("invalid mode %q: must be %q or %q", s, ModeSupervised, ModeAutomatic)
}

// State is the engine's position in a run.
type State string

const (
	StateIdle        State = "idle"
	StateRunning     State = "running"
	StatePaused      State = "paused"
	StateTerminating State = "terminating"
	StateDone        State = "done"
)

// DefaultPollInterval is how often waits check for cancellation.
const DefaultPollInterval = 100 * time.Millisecond

// RecordStream yields plan records in order and io.EOF at the end.
// *csv.Reader satisfies it.
type RecordStream interface {
	Next() (csv.Record, error)
}

// ByteCounter is implemented by streams that know how far through their
// input they are.
type ByteCounter interface {
	BytesRead() int64
	BytesTotal() int64
}

// SliceStream is a RecordStream over in-memory rows.
type SliceStream struct {
	records []csv.Record
	next    int
}

// Rows returns a SliceStream whose records are rows, numbered from line 1.
func Rows(rows ...[]string) *SliceStream {
	s := &SliceStream{records: make([]csv.Record, len(rows))}
	for i, r := range rows {
		s.records[i] = csv.Record{Line: i + 1, Fields: r}
	}
	return s
}

func (s *SliceStream) Next() (csv.Record, error) {
	if s.next >= len(s.records) {
		return csv.Record{}, io.EOF
	}
	rec := s.records[s.next]
	s.next++
	return rec, nil
}

// Canceller reports whether the run should stop.
type Canceller interface {
	CancellationRequested() bool
}

// Flag is a Canceller set once from any goroutine, typically a signal handler.
type Flag struct {
	v atomic.Bool
}

// Request raises the flag.
func (f *Flag) Request() { f.v.Store(true) }

func (f *Flag) CancellationRequested() bool { return f.v.Load() }

// Decision is the operator's answer to a rejected layer.
type Decision int

const (
	Ignore Decision = iota
	End
)

func (d Decision) String() string {
	if d == End {
		return "end"
	}
	return "ignore"
}

// Operator answers supervised-mode prompts. Implementations return
// ErrCancelled when they stop waiting because cancellation was requested.
type Operator interface {
	AskIgnoreOrEnd(ctx context.Context, layerNumber int, reason string) (Decision, error)
	AwaitAck(ctx context.Context, layerNumber int) error
}

// Materializer writes an accepted layer to its destination.
type Materializer interface {
	Materialize(ctx context.Context, l layer.Layer) error
}

// Progress is a snapshot of a run, published after every transition.
type Progress struct {
	RunID      string    `json:"runId"`
	Name       string    `json:"name"`
	Mode       Mode      `json:"mode"`
	State      State     `json:"state"`
	Row        int       `json:"row"`
	Layer      int       `json:"layer"`
	Successes  int       `json:"successes"`
	Errors     int       `json:"errors"`
	BytesRead  int64     `json:"bytesRead"`
	BytesTotal int64     `json:"bytesTotal"`
	Prompt     string    `json:"prompt,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Percent returns how far through the input the run is, 0-100, or 0 when
// the total is unknown.
func (p Progress) Percent() int {
	if p.BytesTotal > 0 {
		return int((p.BytesRead * 100) / p.BytesTotal)
	}
	return 0
}

// Observer is called synchronously with each Progress snapshot.
type Observer func(Progress)

// Result is the outcome of a run. It is returned even when setup fails.
type Result struct {
	RunID      uuid.UUID
	Name       string
	Mode       Mode
	Summary    stats.Summary
	Rows       int
	Terminated bool

	// Reason is why the run terminated early: ErrEnded, ErrCancelled or a
	// read error. Nil when the plan was exhausted.
	Reason   error
	SetupErr error

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall time of the run.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
