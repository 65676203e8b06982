package htmlutil

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node, like the DOM's textContent.
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

// CleanText drops non-printable runes, trims the string and collapses runs of whitespace
// (including &nbsp;) into a single space.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

type Anchor struct {
	// Name is the cleaned text of the anchor.
	Name string
	// Text is the text exactly as served.
	Text string
	Href string
}

// GetAnchors returns the text and raw href of every node in sel, nodes without an href
// are skipped.
func GetAnchors(sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	sel.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		text := GetText(a.Get(0))
		anchors = append(anchors, Anchor{Name: CleanText(text), Text: text, Href: href})
	})
	return anchors
}

// NthTable returns the n-th (1-based) table selected by `table:nth-of-type(n)`, the
// selection is empty when the page has no such table.
func NthTable(doc *goquery.Document, n int) *goquery.Selection {
	return doc.Find(fmt.Sprintf("table:nth-of-type(%d)", n)).First()
}

// TableRows returns the rows that belong to table itself, rows of nested tables are
// excluded.
func TableRows(table *goquery.Selection) *goquery.Selection {
	return table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(table)
	})
}

// Cells returns the direct td children of a row.
func Cells(tr *goquery.Selection) *goquery.Selection {
	return tr.ChildrenFiltered("td")
}

// Title returns the trimmed document title.
func Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}
