package outline

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// headingSelector matches every heading element in document order.
const headingSelector = "h1, h2, h3, h4, h5, h6"

// Heading is a heading element of the host tree. The tree owns the node;
// Heading only records what was observed when it was collected.
type Heading struct {
	Node  *html.Node
	Rank  int    // 1-6
	Text  string // trimmed text content
	Index int    // position among the document's headings
}

// Item is the per-heading record computed during one run.
type Item struct {
	Rank                int    `json:"rank"`
	Text                string `json:"text"`
	Slug                string `json:"slug"`
	ExcludedFromSection bool   `json:"excluded_from_section,omitempty"`
	ExcludedFromToc     bool   `json:"excluded_from_toc,omitempty"`
	Valid               bool   `json:"valid"`
}

// Collect returns every heading under root in document order.
func Collect(root *html.Node) []Heading {
	if root == nil {
		return nil
	}
	nodes := goquery.NewDocumentFromNode(root).Find(headingSelector).Nodes
	headings := make([]Heading, 0, len(nodes))
	for i, n := range nodes {
		headings = append(headings, Heading{
			Node:  n,
			Rank:  Rank(n),
			Text:  TextContent(n),
			Index: i,
		})
	}
	return headings
}

// IDs returns the value of every id attribute under root.
func IDs(root *html.Node) []string {
	if root == nil {
		return nil
	}
	var ids []string
	goquery.NewDocumentFromNode(root).Find("[id]").Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, s.AttrOr("id", ""))
	})
	return ids
}

// Rank returns the heading level of n, or 0 when n is not a heading element.
func Rank(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
	return RankOf(n.Data)
}

// RankOf maps a tag name to its heading level.
func RankOf(tag string) int {
	switch strings.ToLower(tag) {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// HasClass reports whether n carries class name in its class attribute.
func HasClass(n *html.Node, name string) bool {
	if name == "" {
		return false
	}
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
