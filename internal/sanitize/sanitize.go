// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sanitize cleans operator-supplied rich text before it is stored
// or served, and renders Markdown post bodies to HTML using goldmark.
package sanitize

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"corpsite/internal/models"
)

var (
	richPolicy  = newRichPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// codeStyle is the chroma style of highlighted code blocks. Highlighting
// emits classes only; CodeCSS serves the matching stylesheet.
const codeStyle = "monokai"

// md renders Markdown. Raw HTML is passed through and removed afterwards by
// the rich-text policy, so embedded markup follows the same rules as HTML
// bodies.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle(codeStyle),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id").Matching(bluemonday.SpaceSeparatedTokens).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("target").Matching(bluemonday.Paragraph).OnElements("a")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	// Highlighted code blocks.
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("pre", "code", "span")
	return p
}

// HTML removes scripts, event handlers and unknown markup from rich text.
func HTML(s string) string {
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// Text strips every tag, leaving plain text.
func Text(s string) string {
	return strings.TrimSpace(plainPolicy.Sanitize(s))
}

// Markdown converts Markdown source into sanitized HTML.
func Markdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return HTML(buf.String()), nil
}

// Body returns the HTML to serve for a post body in the given format.
func Body(body string, format models.BodyFormat) (string, error) {
	if format == models.BodyFormatMarkdown {
		return Markdown(body)
	}
	return HTML(body), nil
}

// Input cleans a body before it is stored. HTML is sanitized; Markdown
// source is stored as written and sanitized when rendered.
func Input(body string, format models.BodyFormat) string {
	if format == models.BodyFormatMarkdown {
		return body
	}
	return HTML(body)
}

// CodeCSS returns the stylesheet for highlighted code blocks.
var CodeCSS = sync.OnceValues(func() (string, error) {
	var buf bytes.Buffer
	f := chromahtml.New(chromahtml.WithClasses(true))
	if err := f.WriteCSS(&buf, styles.Get(codeStyle)); err != nil {
		return "", fmt.Errorf("render code css: %w", err)
	}
	return buf.String(), nil
})
