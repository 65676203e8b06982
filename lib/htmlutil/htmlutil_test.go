package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestCleanText(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "  YES ", expect: "YES"},
		{input: "\tA\n\n  B", expect: "A B"},
		{input: "  ", expect: ""},
		{input: "x\u0007y", expect: "xy"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, CleanText(test.input))
	}
}

func TestNthTableAndRows(t *testing.T) {
	doc := parse(t, `<html><head><title> BOCA </title></head><body>
<table><tr><td>top</td></tr></table>
<table><tr><td>menu</td></tr></table>
<table>
	<tr><td>header</td></tr>
	<tr><td>row 1</td><td><table><tr><td>nested</td></tr></table></td></tr>
</table>
</body></html>`)

	require.Equal(t, "BOCA", Title(doc))

	table := NthTable(doc, 3)
	require.Equal(t, 1, table.Length())

	rows := TableRows(table)
	require.Equal(t, 2, rows.Length())
	require.Equal(t, "header", rows.First().Text())
	require.Equal(t, 2, Cells(rows.Eq(1)).Length())

	require.Equal(t, 0, NthTable(doc, 4).Length())
}

func TestGetAnchors(t *testing.T) {
	doc := parse(t, `<div><a href="../a.pdf"> A
	file </a><a>no href</a><a href="/b">B</a></div>`)
	anchors := GetAnchors(doc.Find("a"))
	require.Equal(t, []Anchor{
		{Name: "A file", Text: " A\n\tfile ", Href: "../a.pdf"},
		{Name: "B", Text: "B", Href: "/b"},
	}, anchors)
}
