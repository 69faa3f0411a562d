// Package dom gives capture code a headless element model: pages are parsed
// with golang.org/x/net/html and elements are described and matched the way
// a browser-side collector would do it.
package dom

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"leadfunnel/internal/core/normalize"
)

// TextLimit bounds Descriptor.Text in runes
const TextLimit = 50

// maxClasses is how many classes make it into a generated selector
const maxClasses = 3

// Descriptor identifies an element without holding on to it
type Descriptor struct {
	Selector string   `json:"selector"`
	Tag      string   `json:"tag"`
	ID       string   `json:"id,omitempty"`
	Classes  []string `json:"classes,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// Parse reads an HTML document
func Parse(r io.Reader) (*html.Node, error) { return html.Parse(r) }

// ParseString parses an HTML document held in memory
func ParseString(s string) (*html.Node, error) { return html.Parse(strings.NewReader(s)) }

// IsElement reports whether n is an element node
func IsElement(n *html.Node) bool { return n != nil && n.Type == html.ElementNode }

// Attr returns the value of key on n
func Attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

// HasAttr reports whether n carries key
func HasAttr(n *html.Node, key string) bool {
	_, ok := lookupAttr(n, key)
	return ok
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Classes returns the class tokens of n in document order
func Classes(n *html.Node) []string { return strings.Fields(Attr(n, "class")) }

// Text returns the whitespace-collapsed text content of n, script and style excluded
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			if c.DataAtom == atom.Script || c.DataAtom == atom.Style {
				return
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return normalize.Collapse(b.String())
}

// Describe builds the descriptor for n. The selector is #id when an id is
// present, tag.c1.c2.c3 when classes are, and tag:nth-child(k) otherwise.
func Describe(n *html.Node) Descriptor {
	if !IsElement(n) {
		return Descriptor{}
	}
	d := Descriptor{
		Tag:  n.Data,
		ID:   Attr(n, "id"),
		Text: normalize.Truncate(Text(n), TextLimit),
	}
	if cls := Classes(n); len(cls) > 0 {
		d.Classes = cls
	}

	switch {
	case d.ID != "":
		d.Selector = "#" + d.ID
	case len(d.Classes) > 0:
		cls := d.Classes
		if len(cls) > maxClasses {
			cls = cls[:maxClasses]
		}
		d.Selector = d.Tag + "." + strings.Join(cls, ".")
	default:
		d.Selector = d.Tag + ":nth-child(" + strconv.Itoa(ChildIndex(n)) + ")"
	}
	return d
}

// ChildIndex is the 1-based position of n among its element siblings
func ChildIndex(n *html.Node) int {
	k := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			k++
		}
	}
	return k
}

// FindByID returns the first element under root with the given id
func FindByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if IsElement(n) && Attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Walk visits root and its descendants depth first until fn returns false
func Walk(root *html.Node, fn func(*html.Node) bool) {
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if !fn(n) {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	if root != nil {
		walk(root)
	}
}

// FieldCount counts the form controls inside form
func FieldCount(form *html.Node) int {
	n := 0
	Walk(form, func(c *html.Node) bool {
		if c != form && IsElement(c) {
			switch c.DataAtom {
			case atom.Input, atom.Select, atom.Textarea:
				n++
			}
		}
		return true
	})
	return n
}

// Form returns the nearest form ancestor of n, n included
func Form(n *html.Node) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if IsElement(c) && c.DataAtom == atom.Form {
			return c
		}
	}
	return nil
}
