// Package console reads operator answers from a line-oriented input while
// staying responsive to cancellation.
//
// A LineReader owns one goroutine that reads the input and offers each line
// on an unbuffered channel. Callers select on that channel alongside a poll
// ticker, so they can give up on an answer without waiting for the read to
// return. The goroutine exits at end of input or, once Close has been called,
// at the next line it would have delivered.
package console

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
)

// LineReader delivers input lines on a channel.
type LineReader struct {
	lines chan string
	done  chan struct{}
	once  sync.Once
	err   error
}

// NewLineReader starts reading r.
func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{
		lines: make(chan string),
		done:  make(chan struct{}),
	}
	go lr.pump(r)
	return lr
}

func (lr *LineReader) pump(r io.Reader) {
	defer close(lr.lines)

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" || err == nil {
			select {
			case lr.lines <- strings.TrimRight(line, "\r\n"):
			case <-lr.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				lr.err = err
			}
			return
		}
	}
}

// Lines returns the channel of input lines. It is closed at end of input.
func (lr *LineReader) Lines() <-chan string { return lr.lines }

// Err returns the read error that ended input, if any. Only meaningful after
// Lines has been closed.
func (lr *LineReader) Err() error { return lr.err }

// Close stops delivery. A read already blocked in the underlying reader is
// not interrupted.
func (lr *LineReader) Close() {
	lr.once.Do(func() { close(lr.done) })
}
