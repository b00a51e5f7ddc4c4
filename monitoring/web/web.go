// Package web holds the status page of the monitor.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

//go:embed dist/*
var dist embed.FS

// DevEnv names the environment variable that makes the monitor serve the
// page from disk while it is being edited. "1" or "true" serves the dist
// directory of this package; any other non-false value is the directory to
// serve.
const DevEnv = "AUTOSPLIT_MONITOR_DEV"

// Handler serves the status page. Responses are never cached, so a page
// edited in development mode shows up on reload.
func Handler() http.Handler {
	files := http.FileServer(Assets())

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}

// Assets returns the files of the status page.
func Assets() http.FileSystem {
	if dir := devDir(os.Getenv(DevEnv)); dir != "" {
		log.Printf("monitor: serving the status page from %s", dir)
		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

func devDir(value string) string {
	switch strings.ToLower(value) {
	case "", "0", "false":
		return ""
	case "1", "true":
		_, file, _, ok := runtime.Caller(0)
		if !ok {
			return ""
		}

		return filepath.Join(filepath.Dir(file), "dist")
	}

	return value
}
