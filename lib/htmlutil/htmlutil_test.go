package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t testing.TB, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestFlattenText(t *testing.T) {
	table := []struct {
		markup string
		expect string
	}{
		{
			markup: `<table><tr><td>Aug 15, 2023</td><td colspan="6"><strong>0.24</strong> <span>Dividend</span></td></tr></table>`,
			expect: "Aug 15, 2023 0.24 Dividend",
		},
		{
			markup: "<table><tr><td>\n  Jun 10,\n 2024 </td><td>10:1 <!-- split --> Stock Splits</td></tr></table>",
			expect: "Jun 10, 2024 10:1 Stock Splits",
		},
		{
			markup: `<table><tr><td>Aug 1, 2023</td><td><script>var x = 1;</script>1.00</td></tr></table>`,
			expect: "Aug 1, 2023 1.00",
		},
		{
			markup: `<table><tr><td></td></tr></table>`,
			expect: "",
		},
	}

	for _, test := range table {
		doc := parse(t, test.markup)
		require.Equal(t, test.expect, FlattenText(doc.Find("tr").First()))
	}
}

func TestGetText(t *testing.T) {
	doc := parse(t, `<h1>Apple Inc. <span>(AAPL)</span></h1>`)
	require.Equal(t, "Apple Inc. (AAPL)", GetText(doc.Find("h1").Nodes[0]))
}
