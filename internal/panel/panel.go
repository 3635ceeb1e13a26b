// Package panel serves the hub dashboard as embedded assets.
//
// The dashboard is a small static page that polls the JSON API. It is
// embedded into the binary with go:embed, so a deployed hub has no
// runtime file dependencies; a filesystem directory can be supplied
// instead during development.
package panel

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
)

//go:embed web/*
var content embed.FS

// Handler returns an http.Handler serving the dashboard.
//
// When dir names an existing directory, assets are served from the
// filesystem (dev mode, no recompile to see edits). Otherwise the
// embedded copy is used. Panics if the embedded assets are missing,
// which is a build error.
func Handler(dir string) http.Handler {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return noCache(http.FileServer(http.Dir(dir)))
		}
	}

	webFS, err := fs.Sub(content, "web")
	if err != nil {
		panic(fmt.Sprintf("panel: failed to load embedded assets: %v", err))
	}
	return noCache(http.FileServer(http.FS(webFS)))
}

// noCache disables caching of dashboard assets; the page itself is
// tiny and edits should show up on refresh.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")
		next.ServeHTTP(w, r)
	})
}
