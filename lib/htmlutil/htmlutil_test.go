package htmlutil

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

const page = `<html><body>
	<h1>  Product
		Title </h1>
	<ul><li>one</li><li>  </li><li>two</li></ul>
	<a href="/docs">Docs</a>
	<a href="https://other.example/x#section">Other</a>
	<a href="/docs">Docs again</a>
	<a href="#top">Top</a>
	<a>No href</a>
</body></html>`

func TestSelectText(t *testing.T) {
	testCases := []struct {
		selector string
		expected []string
	}{
		{selector: "h1", expected: []string{"Product Title"}},
		{selector: "li", expected: []string{"one", "two"}},
		{selector: "table", expected: nil},
	}

	for _, test := range testCases {
		out, err := SelectText(context.Background(), page, test.selector)
		require.NoError(t, err)
		require.Equal(t, test.expected, out, test.selector)
	}
}

func TestGetAnchors(t *testing.T) {
	base, err := url.Parse("https://example.com/shop/item")
	require.NoError(t, err)

	anchors, err := GetAnchors(context.Background(), page, base)
	require.NoError(t, err)
	require.Equal(t, []Anchor{
		{Name: "Docs", Href: "https://example.com/docs"},
		{Name: "Other", Href: "https://other.example/x"},
	}, anchors)
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b c", CleanText("  a\u0000 \n\t b   c "))
}
