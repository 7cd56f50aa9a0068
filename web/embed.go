// Package web holds the dashboard's page templates and browser assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static/*
var assets embed.FS

// TemplatesFS is rooted at the templates directory.
var TemplatesFS = mustSub("templates")

// StaticFS is rooted at the static directory and served under /static/.
var StaticFS = mustSub("static")

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(assets, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
