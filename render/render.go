// Package render turns job results into HTML fragments or terminal text.
package render

import "github.com/ZaguanLabs/polyglot"

// Renderer is an alias to the main package interface.
type Renderer = polyglot.Renderer

// Translation is an alias to the main package type.
type Translation = polyglot.Translation

// BlockedTags contains elements removed from untrusted analysis HTML,
// content included.
var BlockedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"iframe":   true,
	"frame":    true,
	"object":   true,
	"embed":    true,
	"link":     true,
	"meta":     true,
	"base":     true,
	"form":     true,
	"noscript": true,
	"template": true,
}

// urlAttrs are attributes whose value is a URL.
var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
	"poster":     true,
}
