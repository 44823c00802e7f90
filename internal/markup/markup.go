// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markup cleans user supplied text and renders timeline captions.
package markup

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	// plainText strips every tag. Used on form input before it is stored.
	plainText = bluemonday.StrictPolicy()

	// captionHTML allows the safe subset of HTML that markdown produces.
	captionHTML = bluemonday.UGCPolicy()

	md = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
)

// StripTags removes all HTML from s and trims surrounding whitespace.
// Entities are decoded before sanitizing so that encoded markup such as
// "&lt;script&gt;" is removed like a literal tag, and decoded again
// afterwards so that "AC/DC & friends" is stored as typed. The pass
// repeats until the text is stable to catch nested encodings.
func StripTags(s string) string {
	for range maxStripPasses {
		next := html.UnescapeString(plainText.Sanitize(html.UnescapeString(s)))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	// Still changing: keep the sanitizer's escaped output.
	return strings.TrimSpace(plainText.Sanitize(html.UnescapeString(s)))
}

// maxStripPasses bounds StripTags on pathological nesting.
const maxStripPasses = 5

// RenderCaption converts a markdown caption to sanitized HTML.
// Raw HTML inside the caption is dropped by goldmark's default renderer
// and bluemonday removes anything unsafe that remains.
func RenderCaption(caption string) string {
	if strings.TrimSpace(caption) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(caption), &buf); err != nil {
		return captionHTML.Sanitize(html.EscapeString(caption))
	}
	return strings.TrimSpace(captionHTML.Sanitize(buf.String()))
}
