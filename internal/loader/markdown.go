package loader

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

// MarkdownLoader renders Markdown to HTML with goldmark, then parses the
// result. ATX and setext headings become h1-h6.
type MarkdownLoader struct{}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func (l *MarkdownLoader) Load(r io.Reader, filename string) (*html.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	doc, body := newDocument(stem(filename))
	nodes, err := html.ParseFragment(&buf, body)
	if err != nil {
		return nil, fmt.Errorf("parse rendered markdown: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return doc, nil
}
