package htmlutil

import (
	"bytes"
	"strings"

	"dividend-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node as-is.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func collectTextNodes(node *html.Node, out *[]string) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		text := strings.TrimSpace(node.Data)
		if text != "" {
			*out = append(*out, text)
		}
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if node.Data == "script" || node.Data == "style" {
			return
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectTextNodes(child, out)
	}
}

// FlattenText returns the text of every node in the selection with the text
// nodes separated by a single space, so "<td>Aug 15, 2023</td><td>0.24</td>"
// becomes "Aug 15, 2023 0.24" instead of "Aug 15, 20230.24".
func FlattenText(sel *goquery.Selection) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectTextNodes(n, &parts)
	}
	return textutil.CollapseWhitespace(strings.Join(parts, " "))
}
