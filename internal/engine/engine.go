package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fakeprinter/internal/csv"
	"github.com/JonMunkholm/fakeprinter/internal/layer"
	"github.com/JonMunkholm/fakeprinter/internal/logging"
	"github.com/JonMunkholm/fakeprinter/internal/materialize"
	"github.com/JonMunkholm/fakeprinter/internal/stats"
)

// Options configures a run.
type Options struct {
	Name       string
	Mode       Mode
	OutputRoot string // created before the first record; usually <dest>/<name>
	SkipHeader bool   // treat the first record as a header
	RunID      uuid.UUID
	Observer   Observer
}

// Engine runs print plans. An Engine may be reused for several runs, one at
// a time.
type Engine struct {
	opts   Options
	mat    Materializer
	op     Operator
	cancel Canceller
}

// New returns an Engine. op may be nil in automatic mode and c may be nil if
// the run is only cancelled through its context.
func New(opts Options, m Materializer, op Operator, c Canceller) *Engine {
	return &Engine{opts: opts, mat: m, op: op, cancel: c}
}

// Run processes stream to completion, operator end, or cancellation. It
// always returns a Result; a failed setup is reported in Result.SetupErr.
func (e *Engine) Run(ctx context.Context, stream RecordStream) Result {
	id := e.opts.RunID
	if id == uuid.Nil {
		id = uuid.New()
	}
	ctx = logging.WithRunID(ctx, id.String())

	r := &run{
		e:      e,
		ctx:    ctx,
		log:    logging.FromContext(ctx),
		stats:  stats.New(),
		stream: stream,
		progress: Progress{
			RunID: id.String(),
			Name:  e.opts.Name,
			Mode:  e.opts.Mode,
		},
	}
	res := Result{
		RunID:     id,
		Name:      e.opts.Name,
		Mode:      e.opts.Mode,
		StartedAt: time.Now(),
	}

	r.set(StateIdle)

	if err := e.setup(); err != nil {
		r.log.Error("Error preparing output directory. Exiting.",
			"code", CategorySetup.Code,
			"error", err,
		)
		res.SetupErr = err
		res.Summary = r.stats.Summary()
		res.FinishedAt = time.Now()
		r.progress.Reason = err.Error()
		r.set(StateDone)
		return res
	}

	r.log.Info("print started",
		"name", e.opts.Name,
		"mode", e.opts.Mode,
		"output", e.opts.OutputRoot,
	)
	r.set(StateRunning)

	if reason := r.loop(); reason != nil {
		res.Terminated = true
		res.Reason = reason
		r.progress.Reason = reason.Error()
		r.set(StateTerminating)
	}

	res.Rows = r.progress.Row
	res.Summary = r.stats.Summary()
	res.FinishedAt = time.Now()
	r.set(StateDone)

	r.log.Info("print finished",
		"successes", res.Summary.Successes,
		"errors", res.Summary.Errors,
		"rows", res.Rows,
		"terminated", res.Terminated,
		"duration_ms", res.Duration().Milliseconds(),
	)
	return res
}

func (e *Engine) setup() error {
	if _, err := ParseMode(string(e.opts.Mode)); err != nil {
		return &SetupError{Op: "mode", Err: err}
	}
	if e.mat == nil {
		return &SetupError{Op: "materializer", Err: errors.New("no materializer configured")}
	}
	if e.opts.Mode == ModeSupervised && e.op == nil {
		return &SetupError{Op: "operator", Err: errors.New("supervised mode requires an operator")}
	}
	if e.opts.OutputRoot == "" {
		return &SetupError{Op: "create output root", Err: errors.New("empty path")}
	}
	if err := os.MkdirAll(e.opts.OutputRoot, 0o755); err != nil {
		return &SetupError{Op: "create output root", Path: e.opts.OutputRoot, Err: err}
	}
	return nil
}

// run is the state of a single Run call.
type run struct {
	e        *Engine
	ctx      context.Context
	log      *slog.Logger
	stats    *stats.Aggregator
	stream   RecordStream
	progress Progress
}

// loop processes records until the stream ends (nil) or the run must
// terminate (the reason).
func (r *run) loop() error {
	for {
		if r.cancelled() {
			r.log.Info("Shutdown requested. Exiting print job.")
			return ErrCancelled
		}

		rec, err := r.stream.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			r.log.Error("read plan", "row", r.progress.Row+1, "error", err)
			return fmt.Errorf("read plan: %w", err)
		}

		r.progress.Row++
		r.progress.Layer = 0
		if r.progress.Row == 1 && r.e.opts.SkipHeader {
			r.log.Debug("skipping header", "line", rec.Line)
			continue
		}

		if err := r.process(rec); err != nil {
			return err
		}
		r.publish()
	}
}

// process handles one record. Per-record failures are counted and logged
// here; only a reason to terminate is returned.
func (r *run) process(rec csv.Record) error {
	log := r.log.With("row", r.progress.Row, "line", rec.Line)

	l, err := layer.Decode(rec.Fields)
	if err != nil {
		r.fail(log, err)
		return nil
	}
	log = log.With("layer", l.LayerNumber)
	r.progress.Layer = l.LayerNumber

	supervised := r.e.opts.Mode == ModeSupervised

	if err := layer.Validate(l); err != nil {
		r.fail(log, err)
		if !supervised {
			log.Warn("Continuing automatically.")
		} else {
			reason := err.Error()
			var d Decision
			if err := r.pause(reason, func() (err error) {
				d, err = r.e.op.AskIgnoreOrEnd(r.ctx, l.LayerNumber, reason)
				return err
			}); err != nil {
				return err
			}
			if d == End {
				log.Info("Ending FakePrint.")
				return ErrEnded
			}
			log.Info("Ignoring error and continuing.")
		}
	}

	if supervised {
		prompt := fmt.Sprintf("Press <return> to print layer %d", l.LayerNumber)
		if err := r.pause(prompt, func() error {
			return r.e.op.AwaitAck(r.ctx, l.LayerNumber)
		}); err != nil {
			return err
		}
	}

	if err := r.e.mat.Materialize(r.ctx, l); err != nil {
		r.fail(log, err)
		return nil
	}

	if err := r.stats.RecordSuccess(l); err != nil {
		log.Warn("Error parsing time for layer", "layer_time", l.LayerTime, "error", err)
	}
	log.Info("layer printed")
	return nil
}

// pause waits for the operator in StatePaused. It returns ErrCancelled if
// cancellation was requested while waiting.
func (r *run) pause(prompt string, wait func() error) error {
	r.progress.Prompt = prompt
	r.set(StatePaused)

	err := wait()
	r.progress.Prompt = ""

	switch {
	case errors.Is(err, ErrCancelled) || r.cancelled():
		r.log.Warn("Shutdown requested. Exiting supervised mode.")
		return ErrCancelled
	case err != nil:
		r.log.Error("operator input", "error", err)
		return fmt.Errorf("operator input: %w", err)
	}

	r.set(StateRunning)
	return nil
}

func (r *run) fail(log *slog.Logger, err error) {
	cat := Classify(err)
	r.stats.RecordFailure(cat.Label, Reason(err))

	attrs := []any{"code", cat.Code, "category", cat.Label, "error", err}
	var fe *layer.FieldError
	if errors.As(err, &fe) {
		attrs = append(attrs, "column", fe.Column, "field", fe.Name)
	}
	var fetchErr *materialize.FetchError
	if errors.As(err, &fetchErr) {
		attrs = append(attrs, "url", fetchErr.URL)
	}
	log.Error("record failed", attrs...)
}

func (r *run) cancelled() bool {
	if r.ctx.Err() != nil {
		return true
	}
	return r.e.cancel != nil && r.e.cancel.CancellationRequested()
}

func (r *run) set(s State) {
	r.progress.State = s
	r.publish()
}

func (r *run) publish() {
	if r.e.opts.Observer == nil {
		return
	}
	r.progress.Successes = r.stats.Successes()
	r.progress.Errors = r.stats.Errors()
	if bc, ok := r.stream.(ByteCounter); ok {
		r.progress.BytesRead = bc.BytesRead()
		r.progress.BytesTotal = bc.BytesTotal()
	}
	r.progress.UpdatedAt = time.Now()
	r.e.opts.Observer(r.progress)
}
