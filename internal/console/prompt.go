package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/fakeprinter/internal/engine"
)

// Prompter asks the operator questions on out and reads answers from in.
// It implements engine.Operator.
type Prompter struct {
	in     *LineReader
	out    io.Writer
	cancel engine.Canceller
	poll   time.Duration
}

// NewPrompter returns a Prompter that checks c every poll while waiting. A
// non-positive poll selects engine.DefaultPollInterval.
func NewPrompter(in *LineReader, out io.Writer, c engine.Canceller, poll time.Duration) *Prompter {
	if poll <= 0 {
		poll = engine.DefaultPollInterval
	}
	return &Prompter{in: in, out: out, cancel: c, poll: poll}
}

// AskIgnoreOrEnd shows reason and waits for an answer. "e" or "E" ends the
// print; any other line, or end of input, ignores the problem.
func (p *Prompter) AskIgnoreOrEnd(ctx context.Context, layerNumber int, reason string) (engine.Decision, error) {
	fmt.Fprintf(p.out, "Error in layer %d: %s\n", layerNumber, reason)
	fmt.Fprint(p.out, "Type 'i' to ignore or 'e' to end the FakePrint: ")

	line, err := p.readLine(ctx)
	if err != nil {
		return engine.Ignore, err
	}
	if strings.TrimSpace(line) == "e" || strings.TrimSpace(line) == "E" {
		return engine.End, nil
	}
	return engine.Ignore, nil
}

// AwaitAck waits for any line before layerNumber is printed.
func (p *Prompter) AwaitAck(ctx context.Context, layerNumber int) error {
	fmt.Fprintf(p.out, "Press <return> to print layer %d...", layerNumber)
	_, err := p.readLine(ctx)
	return err
}

// readLine waits for the next line. End of input yields "" and no error.
// It returns engine.ErrCancelled within one poll interval of the
// cancellation flag being raised.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if p.cancel.CancellationRequested() {
		return "", engine.ErrCancelled
	}

	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-p.in.Lines():
			if !ok {
				fmt.Fprintln(p.out)
				return "", nil
			}
			return line, nil
		case <-ticker.C:
			if p.cancel.CancellationRequested() {
				fmt.Fprintln(p.out)
				return "", engine.ErrCancelled
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
