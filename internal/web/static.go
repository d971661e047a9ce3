package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
)

//go:embed static/*
var staticContent embed.FS

// staticHandler serves the stylesheet and other assets.
//
// When dir is non-empty and exists, assets are served from disk (no
// recompile while editing CSS); otherwise the embedded copy is used.
// Directory listings are never served.
func staticHandler(dir string) http.Handler {
	var fileSystem http.FileSystem

	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			fileSystem = http.Dir(dir)
		}
	}

	if fileSystem == nil {
		sub, err := fs.Sub(staticContent, "static")
		if err != nil {
			panic(fmt.Sprintf("web: failed to load embedded static assets: %v", err))
		}
		fileSystem = http.FS(sub)
	}

	fileServer := http.FileServer(fileSystem)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	})
}
