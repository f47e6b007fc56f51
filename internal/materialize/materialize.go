// Package materialize turns an accepted layer into files under a print's
// output root: a metadata document in layers/ and the layer image in images/.
package materialize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/fakeprinter/internal/layer"
)

// Directory names under the output root.
const (
	LayersDir = "layers"
	ImagesDir = "images"
)

// Fetcher downloads a URL into a local file.
type Fetcher interface {
	FetchToPath(ctx context.Context, url, dest string) error
}

// IOError reports a local filesystem failure. No fetch is attempted after one.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FetchError reports a failed image transfer. The metadata document written
// before it is left in place.
type FetchError struct {
	URL  string
	Path string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s -> %s: %v", e.URL, e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Materializer writes layers below a fixed root.
type Materializer struct {
	root    string
	fetcher Fetcher
}

// New returns a Materializer rooted at root.
func New(root string, f Fetcher) *Materializer {
	return &Materializer{root: root, fetcher: f}
}

// Root returns the output root.
func (m *Materializer) Root() string { return m.root }

// DocumentPath returns where the metadata document of l is written.
func (m *Materializer) DocumentPath(l layer.Layer) string {
	return filepath.Join(m.root, LayersDir, l.DocumentName())
}

// ImagePath returns where the image of l is written.
func (m *Materializer) ImagePath(l layer.Layer) string {
	return filepath.Join(m.root, ImagesDir, l.FileName)
}

// Materialize writes the metadata document of l and fetches its image.
//
// The document is written before the image file name is checked, so a layer
// with an unusable name still leaves its document behind. Errors are *IOError
// for directory, write or name failures and *FetchError for the transfer.
func (m *Materializer) Materialize(ctx context.Context, l layer.Layer) error {
	for _, dir := range []string{LayersDir, ImagesDir} {
		p := filepath.Join(m.root, dir)
		if err := os.MkdirAll(p, 0o755); err != nil {
			return &IOError{Op: "mkdir", Path: p, Err: err}
		}
	}

	docPath := m.DocumentPath(l)
	doc, err := l.MarshalDocument()
	if err != nil {
		return &IOError{Op: "encode", Path: docPath, Err: err}
	}
	if err := os.WriteFile(docPath, doc, 0o644); err != nil {
		return &IOError{Op: "write", Path: docPath, Err: err}
	}

	imagePath := m.ImagePath(l)
	if err := checkFileName(l.FileName); err != nil {
		return &IOError{Op: "check file name", Path: imagePath, Err: err}
	}
	if err := m.fetcher.FetchToPath(ctx, l.ImageURL, imagePath); err != nil {
		return &FetchError{URL: strings.TrimSpace(l.ImageURL), Path: imagePath, Err: err}
	}
	return nil
}

// checkFileName accepts only a bare file name, so a layer cannot write
// outside images/.
func checkFileName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty file name")
	case name == "." || name == "..":
		return fmt.Errorf("invalid file name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("file name %q contains a path separator", name)
	}
	return nil
}
