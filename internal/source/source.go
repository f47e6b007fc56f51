// Package source opens the print plan a run reads from, downloading it first
// when it is not present locally.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/fakeprinter/internal/csv"
)

// ErrMissing is returned when the plan file does not exist and no download
// URL is configured.
var ErrMissing = errors.New("plan file not found")

// Fetcher downloads a URL into a local file.
type Fetcher interface {
	FetchToPath(ctx context.Context, url, dest string) error
}

// Ensure makes sure path exists, downloading it from url when it does not.
// It reports whether a download happened.
func Ensure(ctx context.Context, path, url string, f Fetcher) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat plan: %w", err)
	}
	if url == "" || f == nil {
		return false, fmt.Errorf("%w: %s", ErrMissing, path)
	}

	slog.Info("CSV data file not found locally. Attempting to download...", "path", path, "url", url)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create plan directory: %w", err)
		}
	}
	if err := f.FetchToPath(ctx, url, path); err != nil {
		return false, fmt.Errorf("download plan: %w", err)
	}
	return true, nil
}

// Plan is an open plan file. It yields records through Next and reports
// how much of the file has been consumed.
type Plan struct {
	Path string

	file    *os.File
	counter *csv.CountingReader
	reader  *csv.Reader
}

// Open opens the plan at path for reading.
func Open(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	counter := csv.WrapForStreaming(f, size)
	return &Plan{
		Path:    path,
		file:    f,
		counter: counter,
		reader:  csv.NewReader(counter),
	}, nil
}

// Next returns the next record or io.EOF.
func (p *Plan) Next() (csv.Record, error) {
	return p.reader.Next()
}

// BytesRead returns the number of bytes consumed from the file so far.
func (p *Plan) BytesRead() int64 { return p.counter.BytesRead }

// BytesTotal returns the file size, or 0 if it could not be determined.
func (p *Plan) BytesTotal() int64 { return p.counter.Total }

// Close closes the file.
func (p *Plan) Close() error {
	return p.file.Close()
}
