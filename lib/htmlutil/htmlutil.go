// Package htmlutil extracts text and links from scraped html.
package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"scrapeless-go/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = telemetry.Tracer("scrapeless.lib.htmlutil")

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
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText drops non printable characters and collapses whitespace.
func CleanText(s string) string {
	cleaned := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			cleaned.WriteRune(c)
		}
	}
	text := strings.TrimSpace(cleaned.String())
	return innerWhitespace.ReplaceAllString(text, " ")
}

// SelectText returns the cleaned text of every element matching `selector`,
// empty elements are skipped.
func SelectText(ctx context.Context, document, selector string) ([]string, error) {
	_, span := tracer.Start(ctx, "SelectText")
	defer span.End()
	span.SetAttributes(attribute.String("selector", selector))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := CleanText(GetText(s.Get(0)))
		if text != "" {
			out = append(out, text)
		}
	})
	span.SetAttributes(attribute.Int("matches", len(out)))
	return out, nil
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors returns the anchors of a document with their hrefs resolved
// against `base`. Anchors without an href, with an unparsable href or that
// repeat an earlier href are skipped.
func GetAnchors(ctx context.Context, document string, base *url.URL) ([]Anchor, error) {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	seen := map[string]bool{}
	anchors := []Anchor{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			return
		}
		if base != nil {
			link = base.ResolveReference(link)
		}
		link.Fragment = ""

		linkStr := link.String()
		if seen[linkStr] {
			return
		}
		seen[linkStr] = true

		name := CleanText(GetText(s.Get(0)))
		anchors = append(anchors, Anchor{Name: name, Href: linkStr})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", linkStr),
		))
	})

	return anchors, nil
}
