// Package assets holds the files compiled into the binary: the default story
// script and the image revealed at the finale.
package assets

import "embed"

//go:embed story.yaml valentine.png
var FS embed.FS

const (
	StoryFile = "story.yaml"
	ImageFile = "valentine.png"
)
