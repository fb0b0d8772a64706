package markup

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Doc is a mutable HTML fragment. It wraps a parsed document so that the
// feed builder can absolutize references, inject elements and re-render
// without re-parsing between steps.
type Doc struct {
	doc *goquery.Document
}

// Absolutize parses an HTML fragment and rewrites every relative href and
// src against the item URL. Absolute, protocol-relative, fragment-only and
// mailto references are left untouched.
func Absolutize(fragment string, itemUrl string) (*Doc, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("error parsing html fragment: %w", err)
	}

	base, err := url.Parse(itemUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", itemUrl, err)
	}

	rewrite := func(sel *goquery.Selection, attr string) {
		sel.Each(func(i int, s *goquery.Selection) {
			ref, _ := s.Attr(attr)
			if resolved, ok := resolveRef(base, ref); ok {
				s.SetAttr(attr, resolved)
			}
		})
	}

	rewrite(doc.Find("a[href]"), "href")
	rewrite(doc.Find("img[src]"), "src")

	return &Doc{doc: doc}, nil
}

// resolveRef resolves ref against base and reports whether the attribute
// should be rewritten at all.
func resolveRef(base *url.URL, ref string) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return "", false
	}
	parsed, err := url.Parse(ref)
	if err != nil || parsed.IsAbs() {
		return "", false
	}
	return base.ResolveReference(parsed).String(), true
}

// InjectImage inserts an img element before the first paragraph of the
// fragment, or as the first child when the fragment has no paragraph.
func (d *Doc) InjectImage(src string, alt string) {
	img := fmt.Sprintf(`<img src="%s" alt="%s"/>`, html.EscapeString(src), html.EscapeString(alt))

	firstParagraph := d.doc.Find("p").First()
	if firstParagraph.Length() > 0 {
		firstParagraph.BeforeHtml(img)
		return
	}
	d.doc.Find("body").PrependHtml(img)
}

// HTML renders the fragment back to its markup text
func (d *Doc) HTML() (string, error) {
	out, err := d.doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("error rendering html fragment: %w", err)
	}
	return out, nil
}

// TruncateWords cuts an HTML fragment down to at most limit words while
// keeping the markup well formed. Truncation happens at text-node
// boundaries only, so a tag is never split and every opened element is
// closed in the output.
func TruncateWords(fragment string, limit int) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		// Parse errors are exotic with the html5 parser; fall back to a
		// plain word cut rather than emitting broken markup.
		words := strings.Fields(fragment)
		if len(words) > limit {
			words = words[:limit]
		}
		return strings.Join(words, " ")
	}

	body := findNode(doc, "body")
	if body == nil {
		return ""
	}

	remaining := limit
	truncate(body, &remaining)

	var buf bytes.Buffer
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		html.Render(&buf, child)
	}
	return buf.String()
}

// truncate walks the tree in document order, spending the word budget on
// text nodes and dropping everything after it runs out.
func truncate(node *html.Node, remaining *int) {
	for child := node.FirstChild; child != nil; {
		next := child.NextSibling

		if *remaining <= 0 {
			node.RemoveChild(child)
			child = next
			continue
		}

		if child.Type == html.TextNode {
			words := strings.Fields(child.Data)
			if len(words) > *remaining {
				child.Data = strings.Join(words[:*remaining], " ")
				*remaining = 0
			} else {
				*remaining -= len(words)
			}
		} else {
			truncate(child, remaining)
		}

		child = next
	}
}

func findNode(node *html.Node, name string) *html.Node {
	if node.Type == html.ElementNode && node.Data == name {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findNode(child, name); found != nil {
			return found
		}
	}
	return nil
}
