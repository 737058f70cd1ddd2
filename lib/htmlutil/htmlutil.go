package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node.
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

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// TrimmedText is the text of every node in the selection with surrounding whitespace removed.
// An empty selection yields "".
func TrimmedText(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	return strings.TrimSpace(sel.Text())
}

// CleanText is TrimmedText with non printable characters removed and inner runs of whitespace collapsed.
func CleanText(sel *goquery.Selection) string {
	text := removeNonPrintable(TrimmedText(sel))
	return innerWhitespace.ReplaceAllString(text, " ")
}

// Strategy locates a node relative to a root selection. Locate returns an empty selection
// (or nil) when the node it looks for is not there.
type Strategy struct {
	Name   string
	Locate func(root *goquery.Selection) *goquery.Selection
}

// SelectorStrategy is a Strategy that picks the first descendant matching a css selector.
func SelectorStrategy(selector string) Strategy {
	return Strategy{
		Name: selector,
		Locate: func(root *goquery.Selection) *goquery.Selection {
			return root.Find(selector).First()
		},
	}
}

// FirstMatch tries each strategy in order and returns the selection of the first one that found
// something, along with that strategy's name.
func FirstMatch(root *goquery.Selection, strategies []Strategy) (*goquery.Selection, string, bool) {
	if root == nil || root.Length() == 0 {
		return nil, "", false
	}
	for _, s := range strategies {
		sel := s.Locate(root)
		if sel != nil && sel.Length() > 0 {
			return sel, s.Name, true
		}
	}
	return nil, "", false
}
