package section

import (
	"github.com/dgallion1/docsegment/internal/outline"
	"golang.org/x/net/html"
)

// CollectRegion returns the element siblings that follow heading and belong
// to it: everything up to, not including, the next heading of the same tag
// or of a more significant rank. Sub-headings stay inside the region. Text
// and comment nodes are never part of a region.
func CollectRegion(heading *html.Node) []*html.Node {
	rank := outline.Rank(heading)
	var region []*html.Node
	for n := heading.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.DocumentNode {
			break
		}
		if n.Type != html.ElementNode {
			continue
		}
		if r := outline.Rank(n); r > 0 && (n.Data == heading.Data || r < rank) {
			break
		}
		region = append(region, n)
	}
	return region
}
