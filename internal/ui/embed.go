// Package ui serves the embedded dashboard.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFS embed.FS

// Handler serves the embedded dashboard files. Unknown paths fall back to
// index.html.
func Handler() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fsPath := r.URL.Path
		if len(fsPath) > 0 && fsPath[0] == '/' {
			fsPath = fsPath[1:]
		}
		if fsPath == "" {
			fsPath = "index.html"
		}
		f, err := sub.Open(fsPath)
		if err != nil {
			http.ServeFileFS(w, r, sub, "index.html")
			return
		}
		_ = f.Close()
		fileServer.ServeHTTP(w, r)
	})
}
