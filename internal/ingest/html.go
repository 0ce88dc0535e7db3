package ingest

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/ndrozdov/anchora/internal/model"
)

// FromHTML walks an HTML document and emits its block-level structure as
// an ordered anchor stream: h1-h6 become headings, tables and lists become
// single anchors, p becomes a paragraph. Script, style and noscript
// subtrees are skipped. Section paths follow the heading trail
// ("1", "1/1.1", ...).
func FromHTML(r io.Reader, docVersionID string) ([]model.Anchor, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var anchors []model.Anchor
	trail := newHeadingTrail()

	emit := func(ct model.ContentType, text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		ordinal := len(anchors)
		anchors = append(anchors, model.Anchor{
			AnchorID:     fmt.Sprintf("a%04d", ordinal),
			DocVersionID: docVersionID,
			SectionPath:  trail.path(),
			ContentType:  ct,
			Ordinal:      ordinal,
			TextRaw:      text,
		})
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6":
				level := int(n.Data[1] - '0')
				trail.push(level)
				emit(model.ContentHeading, innerText(n))
				return
			case "table":
				emit(model.ContentTable, innerText(n))
				return
			case "ul", "ol":
				emit(model.ContentList, innerText(n))
				return
			case "p":
				emit(model.ContentParagraph, innerText(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return anchors, nil
}

// innerText collects the visible text under a node, whitespace-collapsed
func innerText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// headingTrail numbers headings hierarchically to derive section paths
type headingTrail struct {
	counters []int // counters[i] is the running number at depth i
}

func newHeadingTrail() *headingTrail {
	return &headingTrail{}
}

// push advances the counter at the given heading level (1-based) and
// truncates deeper levels
func (t *headingTrail) push(level int) {
	for len(t.counters) < level {
		t.counters = append(t.counters, 0)
	}
	t.counters = t.counters[:level]
	t.counters[level-1]++
}

// path renders the current trail as "1/1.2/1.2.3"
func (t *headingTrail) path() string {
	if len(t.counters) == 0 {
		return ""
	}
	var parts []string
	var dotted []string
	for _, c := range t.counters {
		if c == 0 {
			c = 1
		}
		dotted = append(dotted, fmt.Sprintf("%d", c))
		parts = append(parts, strings.Join(dotted, "."))
	}
	return strings.Join(parts, "/")
}
