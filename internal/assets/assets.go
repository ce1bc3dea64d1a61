// Package assets embeds the HTML served by the web front end.
package assets

import "embed"

// Templates holds templates/*.html.
//
//go:embed templates/*.html
var Templates embed.FS
