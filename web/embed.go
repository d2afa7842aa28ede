// Package web embeds the dashboard for serving from the Go binary.
//
// The web/static/ directory holds a self-contained single-page
// dashboard (no build step) and is embedded at compile-time using
// go:embed.
//
// Usage in the API server:
//
//	import "github.com/curvewatch/curvewatch/web"
//	fs := web.DistFS()  // returns io/fs.FS rooted at static/
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed all:static
var dist embed.FS

// DistFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func DistFS() fs.FS {
	sub, err := fs.Sub(dist, "static")
	if err != nil {
		log.Fatalf("web.DistFS: %v", err)
	}
	return sub
}
