package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockText renders a selection's text with newlines between block-level
// elements, close enough to the browser's innerText for line-based matching.
// goquery's own Text() concatenates everything, which would glue the rank
// line onto the sale lines.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		writeNodeText(&b, node)
	}
	return b.String()
}

func writeNodeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
		if n.Data == "br" || isBlockElement(n.Data) {
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNodeText(b, c)
		}
		if isBlockElement(n.Data) {
			b.WriteString("\n")
		}
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNodeText(b, c)
		}
	}
}

func isBlockElement(tag string) bool {
	switch tag {
	case "div", "p", "li", "ul", "ol", "table", "tr", "section", "article",
		"header", "footer", "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}
