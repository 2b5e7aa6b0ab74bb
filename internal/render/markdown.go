package render

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
	ugc      = bluemonday.UGCPolicy()
	strict   = bluemonday.StrictPolicy()
)

// Markdown renders src to sanitised HTML. Invalid input renders as
// escaped text.
func Markdown(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return strict.Sanitize(src)
	}
	return ugc.Sanitize(buf.String())
}

// PlainText strips every tag from s.
func PlainText(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
