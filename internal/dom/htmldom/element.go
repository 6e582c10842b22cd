package htmldom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/gosight/gosight/tracker/internal/dom"
)

// Element wraps a parsed element node. Wrappers are cached per node, so two
// lookups of the same node compare equal.
type Element struct {
	n   *html.Node
	win *Window
}

func (e *Element) TagName() string { return strings.ToLower(e.n.Data) }

func (e *Element) ID() string { return e.attr("id") }

func (e *Element) ClassName() string { return e.attr("class") }

func (e *Element) Classes() []string { return strings.Fields(e.attr("class")) }

func (e *Element) Attribute(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) Attributes() map[string]string {
	if len(e.n.Attr) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.n.Attr))
	for _, a := range e.n.Attr {
		out[a.Key] = a.Val
	}
	return out
}

func (e *Element) TextContent() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.n)
	return b.String()
}

func (e *Element) Value() string {
	e.win.mu.Lock()
	v, ok := e.win.values[e.n]
	e.win.mu.Unlock()
	if ok {
		return v
	}
	switch e.TagName() {
	case "textarea":
		return e.TextContent()
	case "select":
		for _, opt := range e.QuerySelectorAll("option") {
			if _, selected := opt.Attribute("selected"); selected {
				return opt.Value()
			}
		}
		if opts := e.QuerySelectorAll("option"); len(opts) > 0 {
			return opts[0].Value()
		}
		return ""
	}
	return e.attr("value")
}

func (e *Element) Checked() bool {
	_, ok := e.Attribute("checked")
	return ok
}

func (e *Element) Parent() dom.Element {
	for p := e.n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return e.win.wrap(p)
		}
	}
	return nil
}

func (e *Element) Children() []dom.Element {
	var out []dom.Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.win.wrap(c))
		}
	}
	return out
}

func (e *Element) Matches(selector string) bool {
	sel, ok := e.win.compile(selector)
	if !ok {
		return false
	}
	return sel.Match(e.n)
}

// QuerySelectorAll returns matching descendants, excluding e itself.
func (e *Element) QuerySelectorAll(selector string) []dom.Element {
	sel, ok := e.win.compile(selector)
	if !ok {
		return nil
	}
	var out []dom.Element
	for _, n := range sel.MatchAll(e.n) {
		if n == e.n {
			continue
		}
		out = append(out, e.win.wrap(n))
	}
	return out
}

func (e *Element) Rect() dom.Rect {
	e.win.mu.Lock()
	defer e.win.mu.Unlock()
	return e.win.rects[e.n]
}

func (e *Element) attr(name string) string {
	v, _ := e.Attribute(name)
	return v
}

func (e *Element) setAttr(name, value string) {
	for i, a := range e.n.Attr {
		if a.Key == name {
			e.n.Attr[i].Val = value
			return
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
}
