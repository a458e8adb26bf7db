// Package web embeds the demo page served at the root path.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

// Static returns the embedded static assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The static directory is embedded at build time; fs.Sub only
		// fails if it is missing entirely.
		panic(err)
	}
	return sub
}
