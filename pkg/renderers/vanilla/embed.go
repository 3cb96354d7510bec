package vanilla

import (
	"embed"
	"io/fs"
)

// Files served next to rendered forms, see AssetsFS.
const (
	StylesheetName = "shexform-vanilla.css"
	LiveScriptName = "shexform-live.js"
)

// stylesheetAssetKey is looked up through the theme's AssetURL; a theme
// that resolves it replaces the inlined default stylesheet.
const stylesheetAssetKey = "vanilla.stylesheet"

var (
	//go:embed templates/*.tmpl templates/components/*.tmpl
	bundle embed.FS

	//go:embed assets/*
	assets embed.FS
)

// TemplatesFS holds the page and component templates, rooted so names read
// "templates/form.tmpl".
func TemplatesFS() fs.FS { return bundle }

// AssetsFS holds the stylesheet and the live-editing script at its root.
func AssetsFS() fs.FS {
	sub, _ := fs.Sub(assets, "assets")
	return sub
}

func defaultStylesheet() string { return asset(StylesheetName) }
func liveScript() string        { return asset(LiveScriptName) }

// asset returns an embedded file's text. Every name is embedded, so a miss
// yields "".
func asset(name string) string {
	data, _ := fs.ReadFile(assets, "assets/"+name)
	return string(data)
}
