package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	source := []byte("# Heading\n\nSome *emphasis* and a [link](https://example.com).\n")

	out, err := ToHTML(source)
	if err != nil {
		t.Fatalf("ToHTML failed: %v", err)
	}

	rendered := string(out)
	if !strings.Contains(rendered, "<h1 id=\"heading\">Heading</h1>") {
		t.Errorf("missing heading with auto ID, got:\n%s", rendered)
	}
	if !strings.Contains(rendered, "<em>emphasis</em>") {
		t.Errorf("missing emphasis, got:\n%s", rendered)
	}
	if !strings.Contains(rendered, `href="https://example.com"`) {
		t.Errorf("missing link, got:\n%s", rendered)
	}
}

func TestToHTMLRendersTables(t *testing.T) {
	source := []byte("| a | b |\n|---|---|\n| 1 | 2 |\n")

	out, err := ToHTML(source)
	if err != nil {
		t.Fatalf("ToHTML failed: %v", err)
	}
	if !strings.Contains(string(out), "<table>") {
		t.Errorf("GFM table not rendered, got:\n%s", out)
	}
}

func TestToHTMLHighlightsCode(t *testing.T) {
	source := []byte("```go\nfunc main() {}\n```\n")

	out, err := ToHTML(source)
	if err != nil {
		t.Fatalf("ToHTML failed: %v", err)
	}
	// chroma with classes enabled wraps code in span elements
	if !strings.Contains(string(out), "<pre") || !strings.Contains(string(out), "span") {
		t.Errorf("code block not highlighted, got:\n%s", out)
	}
}

func TestRoundTripConverges(t *testing.T) {
	source := []byte("# Title\n\nA paragraph with **bold** text.\n\n- one\n- two\n")

	rendered, err := ToHTML(source)
	if err != nil {
		t.Fatalf("ToHTML failed: %v", err)
	}

	back, err := FromHTML(rendered)
	if err != nil {
		t.Fatalf("FromHTML failed: %v", err)
	}

	// The reverse conversion is lossy, so require a fixed point rather
	// than byte equality: rendering the recovered markdown and
	// converting back once more must be stable.
	rendered2, err := ToHTML(back)
	if err != nil {
		t.Fatalf("ToHTML of recovered markdown failed: %v", err)
	}
	back2, err := FromHTML(rendered2)
	if err != nil {
		t.Fatalf("second FromHTML failed: %v", err)
	}

	if string(back) != string(back2) {
		t.Errorf("round trip did not converge:\nfirst:\n%s\nsecond:\n%s", back, back2)
	}

	for _, want := range []string{"Title", "**bold**", "one", "two"} {
		if !strings.Contains(string(back), want) {
			t.Errorf("recovered markdown missing %q:\n%s", want, back)
		}
	}
}

func TestExtractMeta(t *testing.T) {
	source := []byte(`---
title: Guide
description: How to use it
tags: [docs, intro]
---

Body text.
`)

	meta, body, err := ExtractMeta(source)
	if err != nil {
		t.Fatalf("ExtractMeta failed: %v", err)
	}
	if meta.Title != "Guide" {
		t.Errorf("Title = %q, want %q", meta.Title, "Guide")
	}
	if meta.Description != "How to use it" {
		t.Errorf("Description = %q, want %q", meta.Description, "How to use it")
	}
	if len(meta.Tags) != 2 || meta.Tags[0] != "docs" {
		t.Errorf("Tags = %v, want [docs intro]", meta.Tags)
	}
	if strings.Contains(string(body), "---") {
		t.Errorf("body still contains frontmatter delimiters:\n%s", body)
	}
	if !strings.Contains(string(body), "Body text.") {
		t.Errorf("body missing content:\n%s", body)
	}
}

func TestExtractMetaWithoutFrontmatter(t *testing.T) {
	source := []byte("# Just markdown\n")

	meta, body, err := ExtractMeta(source)
	if err != nil {
		t.Fatalf("ExtractMeta failed: %v", err)
	}
	if meta.Title != "" {
		t.Errorf("expected zero Meta, got %+v", meta)
	}
	if string(body) != string(source) {
		t.Errorf("body = %q, want original source", body)
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "frontmatter title wins",
			source: "---\ntitle: From Matter\n---\n# From Heading\n",
			want:   "From Matter",
		},
		{
			name:   "falls back to first heading",
			source: "intro line\n\n# The Heading\n",
			want:   "The Heading",
		},
		{
			name:   "no title at all",
			source: "plain paragraph\n",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title([]byte(tt.source)); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}
