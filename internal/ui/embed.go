// Package ui embeds the built frontend so the binary ships self-contained.
package ui

import "embed"

// DistFS holds the built SPA assets.
//
//go:embed dist
var DistFS embed.FS
