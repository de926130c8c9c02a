// Package markdown converts between markdown source and its rendered
// HTML form. Rendering goes through goldmark; the reverse direction
// goes through html-to-markdown and is lossy: converting back is not
// guaranteed to reproduce the original byte for byte, only an
// equivalent document.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/adrg/frontmatter"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Meta is the frontmatter subset surfaced in previews.
type Meta struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

var renderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true),
			),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// ToHTML renders markdown source to HTML.
func ToHTML(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderer.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// FromHTML converts rendered HTML back to markdown source. The result
// is semantically equivalent but may differ in formatting from the
// markdown the HTML was rendered from.
func FromHTML(rendered []byte) ([]byte, error) {
	out, err := htmltomarkdown.ConvertString(string(rendered))
	if err != nil {
		return nil, fmt.Errorf("failed to convert html to markdown: %w", err)
	}
	return []byte(out), nil
}

// ExtractMeta parses YAML frontmatter from markdown source. It returns
// the metadata and the body without the frontmatter block. Documents
// without frontmatter come back with a zero Meta and the full source
// as body.
func ExtractMeta(source []byte) (Meta, []byte, error) {
	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return meta, body, nil
}

// Title picks a display title for a markdown document: frontmatter
// title first, then the first level-one heading, then empty.
func Title(source []byte) string {
	meta, body, err := ExtractMeta(source)
	if err != nil {
		body = source
	}
	if meta.Title != "" {
		return meta.Title
	}

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
	}
	return ""
}
