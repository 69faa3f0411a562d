package dom

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Supported selector grammar
//   - tag, *
//   - #id
//   - .class (repeatable)
//   - [attr], [attr=val], [attr="val"]
//   - compounds joined by whitespace (descendant)
//   - lists joined by commas

type attrCond struct {
	key, val string
	hasVal   bool
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrCond
}

// Selector is a compiled selector list
type Selector struct {
	src  string
	alts  [][]compound
}

// String returns the source text
func (s Selector) String() string { return s.src }

// Empty reports whether the selector matches nothing
func (s Selector) Empty() bool { return len(s.alts) == 0 }

// MustCompile is Compile that panics
func MustCompile(list string) Selector {
	s, err := Compile(list)
	if err != nil {
		panic(err)
	}
	return s
}

// Compile parses a comma-separated selector list
func Compile(list string) (Selector, error) {
	sel := Selector{src: list}
	for _, part := range splitOutside(list, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var chain []compound
		for _, tok := range splitSpaces(part) {
			c, err := parseCompound(tok)
			if err != nil {
				return Selector{}, fmt.Errorf("dom: selector %q: %w", part, err)
			}
			chain = append(chain, c)
		}
		sel.alts = append(sel.alts, chain)
	}
	return sel, nil
}

// splitOutside splits on sep when not inside brackets or quotes
func splitOutside(s string, sep byte) []string {
	var out []string
	depth, quote, start := 0, byte(0), 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == sep && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func splitSpaces(s string) []string {
	var out []string
	for _, f := range splitOutside(strings.Join(strings.Fields(s), " "), ' ') {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseCompound(tok string) (compound, error) {
	var c compound
	i := 0
	readName := func() string {
		j := i
		for j < len(tok) && isNameByte(tok[j]) {
			j++
		}
		name := tok[i:j]
		i = j
		return name
	}

	if i < len(tok) && tok[i] == '*' {
		i++
	} else if i < len(tok) && isNameByte(tok[i]) {
		c.tag = strings.ToLower(readName())
	}

	for i < len(tok) {
		switch tok[i] {
		case '#':
			i++
			if c.id = readName(); c.id == "" {
				return c, fmt.Errorf("empty id")
			}
		case '.':
			i++
			cls := readName()
			if cls == "" {
				return c, fmt.Errorf("empty class")
			}
			c.classes = append(c.classes, cls)
		case '[':
			end := strings.IndexByte(tok[i:], ']')
			if end < 0 {
				return c, fmt.Errorf("unterminated attribute")
			}
			body := strings.TrimSpace(tok[i+1 : i+end])
			i += end + 1
			if body == "" {
				return c, fmt.Errorf("empty attribute")
			}
			var a attrCond
			if k, v, ok := strings.Cut(body, "="); ok {
				a = attrCond{key: strings.TrimSpace(k), val: strings.Trim(strings.TrimSpace(v), `"'`), hasVal: true}
			} else {
				a = attrCond{key: body}
			}
			c.attrs = append(c.attrs, a)
		default:
			return c, fmt.Errorf("unexpected %q", tok[i])
		}
	}
	return c, nil
}

func isNameByte(b byte) bool {
	return b == '-' || b == '_' || b >= 0x80 ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func (c compound) match(n *html.Node) bool {
	if !IsElement(n) {
		return false
	}
	if c.tag != "" && n.Data != c.tag {
		return false
	}
	if c.id != "" && Attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := Classes(n)
		for _, want := range c.classes {
			if !slices.Contains(have, want) {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		v, ok := lookupAttr(n, a.key)
		if !ok || (a.hasVal && v != a.val) {
			return false
		}
	}
	return true
}

func matchChain(chain []compound, n *html.Node) bool {
	last := len(chain) - 1
	if !chain[last].match(n) {
		return false
	}
	k := last - 1
	for p := n.Parent; p != nil && k >= 0; p = p.Parent {
		if chain[k].match(p) {
			k--
		}
	}
	return k < 0
}

// Match reports whether n matches any selector in the list. Malformed
// nodes count as not matching.
func (s Selector) Match(n *html.Node) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	for _, chain := range s.alts {
		if matchChain(chain, n) {
			return true
		}
	}
	return false
}

// Closest returns n or its nearest ancestor that matches
func (s Selector) Closest(n *html.Node) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if s.Match(c) {
			return c
		}
	}
	return nil
}

// First returns the first matching element under root in document order
func (s Selector) First(root *html.Node) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if s.Match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// All returns every matching element under root in document order
func (s Selector) All(root *html.Node) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if s.Match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}
