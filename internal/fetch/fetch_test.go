package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFetchToPath(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "layer.png")
	if err := os.WriteFile(dest, []byte("old content that is longer"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(time.Second, "")
	if err := c.FetchToPath(context.Background(), "  "+srv.URL+"/img.png\n", dest); err != nil {
		t.Fatalf("FetchToPath() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "png-bytes" {
		t.Errorf("file content = %q, want %q", got, "png-bytes")
	}
	if gotAgent != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotAgent, DefaultUserAgent)
	}
}

func TestFetchToPath_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/real", http.StatusFound)
	})
	mux.HandleFunc("/real", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("target"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	if err := New(time.Second, "test").FetchToPath(context.Background(), srv.URL+"/short", dest); err != nil {
		t.Fatalf("FetchToPath() error = %v", err)
	}
	got, _ := os.ReadFile(dest)
	if string(got) != "target" {
		t.Errorf("file content = %q, want %q", got, "target")
	}
}

func TestFetchToPath_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "missing.png")
	err := New(time.Second, "").FetchToPath(context.Background(), srv.URL, dest)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("FetchToPath() error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusNotFound {
		t.Errorf("Code = %d, want %d", se.Code, http.StatusNotFound)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("dest exists after error status: %v", err)
	}
}

func TestFetchToPath_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := New(50*time.Millisecond, "").FetchToPath(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x"))
	if err == nil {
		t.Fatal("FetchToPath() error = nil, want timeout")
	}
}

func TestFetchToPath_EmptyURL(t *testing.T) {
	err := New(0, "").FetchToPath(context.Background(), "   ", filepath.Join(t.TempDir(), "x"))
	if !errors.Is(err, ErrEmptyURL) {
		t.Errorf("FetchToPath() error = %v, want ErrEmptyURL", err)
	}
}

func TestFetchToPath_BadDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "no", "such", "dir", "x")
	if err := New(time.Second, "").FetchToPath(context.Background(), srv.URL, dest); err == nil {
		t.Error("FetchToPath() error = nil, want create error")
	}
}
