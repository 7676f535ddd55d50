package runner

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDownloadWithProgress(t *testing.T) {
	t.Parallel()
	payload := bytes.Repeat([]byte("x"), 256*1024)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "262144")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(ts.Close)

	dest := filepath.Join(t.TempDir(), "nested", "file.bin")
	var pcts []int
	if err := Download(context.Background(), ts.URL, dest, func(pct int) { pcts = append(pcts, pct) }); err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if len(got) != len(payload) {
		t.Fatalf("downloaded %d bytes, want %d", len(got), len(payload))
	}
	if len(pcts) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(pcts); i++ {
		if pcts[i] < pcts[i-1] {
			t.Fatalf("progress went backwards: %v", pcts)
		}
	}
	if last := pcts[len(pcts)-1]; last > 99 {
		t.Fatalf("in-flight progress exceeded 99: %d", last)
	}
}

func TestDownloadBadStatus(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(ts.Close)

	dest := filepath.Join(t.TempDir(), "file.bin")
	if err := Download(context.Background(), ts.URL, dest, nil); err == nil {
		t.Fatal("expected error for 404")
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}
}

func TestExtractZip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "update.zip")
	writeZip(t, src, map[string]string{
		"readme.txt":      "hello",
		"sub/nested.txt":  "deep",
		"sub/another.txt": "more",
	})

	dest := filepath.Join(dir, "out")
	if err := ExtractZip(src, dest); err != nil {
		t.Fatalf("ExtractZip: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dest, "sub", "nested.txt"))
	if err != nil {
		t.Fatalf("read extracted: %v", err)
	}
	if string(got) != "deep" {
		t.Fatalf("content = %q", got)
	}
}

func TestExtractZipOverwritesExisting(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "update.zip")
	writeZip(t, src, map[string]string{"config.txt": "new"})

	dest := filepath.Join(dir, "out")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "config.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ExtractZip(src, dest); err != nil {
		t.Fatalf("ExtractZip: %v", err)
	}
	got, _ := os.ReadFile(filepath.Join(dest, "config.txt"))
	if string(got) != "new" {
		t.Fatalf("content = %q, want new", got)
	}
}

func TestExtractZipRejectsTraversal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.zip")
	writeZip(t, src, map[string]string{"../escape.txt": "evil"})

	err := ExtractZip(src, filepath.Join(dir, "out"))
	if err == nil || !strings.Contains(err.Error(), "escapes") {
		t.Fatalf("err = %v, want traversal rejection", err)
	}
}
