package pagedriver

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// goqueryElement adapts a goquery selection to the Element interface. Both
// drivers snapshot the rendered DOM into a goquery document, so node queries
// behave identically regardless of how the page was fetched.
type goqueryElement struct {
	sel *goquery.Selection
}

func (e goqueryElement) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e goqueryElement) Attr(name string) string {
	val, _ := e.sel.Attr(name)
	return strings.TrimSpace(val)
}

func (e goqueryElement) First(selector string) (Element, bool) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return goqueryElement{sel: found}, true
}

func elementsFromDocument(doc *goquery.Document, selector string) []Element {
	var out []Element
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, goqueryElement{sel: sel})
	})
	return out
}
