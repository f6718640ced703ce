package walker

import (
	"path/filepath"
	"slices"
	"strings"
)

var (
	markdownExtensions = []string{".md", ".markdown", ".mdown", ".mkd"}
	assetExtensions    = []string{
		// Images
		".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp", ".ico",
		// Audio
		".mp3", ".ogg", ".wav", ".m4a", ".flac",
		// Video
		".mp4", ".webm", ".ogv",
		// Fonts
		".ttf", ".otf", ".woff", ".woff2",
		// Documents and styles
		".pdf", ".css",
	}
)

func isMarkdownFile(name string) bool {
	return slices.Contains(markdownExtensions, strings.ToLower(filepath.Ext(name)))
}

func isAsset(name string) bool {
	return slices.Contains(assetExtensions, strings.ToLower(filepath.Ext(name)))
}
