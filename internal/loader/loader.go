package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Loader converts raw document bytes into an HTML tree ready for
// segmentation.
type Loader interface {
	Load(r io.Reader, filename string) (*html.Node, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	case ".pdf":
		return &PDFLoader{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Title returns the document's <title> text, falling back to the filename
// without its extension.
func Title(doc *html.Node, filename string) string {
	if doc != nil {
		if t := strings.TrimSpace(goquery.NewDocumentFromNode(doc).Find("title").First().Text()); t != "" {
			return t
		}
	}
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// Body returns the <body> element of doc, or doc itself when there is none.
func Body(doc *html.Node) *html.Node {
	if nodes := goquery.NewDocumentFromNode(doc).Find("body").Nodes; len(nodes) > 0 {
		return nodes[0]
	}
	return doc
}

// newDocument returns an empty HTML document and its body.
func newDocument(title string) (*html.Node, *html.Node) {
	doc, _ := html.Parse(strings.NewReader(""))
	if title != "" {
		if head := goquery.NewDocumentFromNode(doc).Find("head").Nodes; len(head) > 0 {
			appendElement(head[0], "title", title)
		}
	}
	return doc, Body(doc)
}

// appendElement adds <tag>text</tag> as the last child of parent.
func appendElement(parent *html.Node, tag, text string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	parent.AppendChild(n)
	return n
}

// stem strips the extension from filename.
func stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
