package caption

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Selector is a parsed CSS selector restricted to the subset needed for
// structural signatures:
//   - tag: "span"
//   - .class: ".ytp-caption-segment"
//   - #id: "#movie_player"
//   - tag.class, tag#id
//   - [attr], [attr=val], tag[attr=val]
//   - descendant combinators separated by spaces
type Selector struct {
	raw   string
	parts []simpleSelector
}

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
	hasVal  bool
}

// ParseSelector parses sel. Combinators other than descendant (">", "+",
// "~") and pseudo-classes are rejected.
func ParseSelector(sel string) (Selector, error) {
	fields := strings.Fields(sel)
	if len(fields) == 0 {
		return Selector{}, fmt.Errorf("caption: empty selector")
	}
	s := Selector{raw: strings.Join(fields, " ")}
	for _, f := range fields {
		if strings.ContainsAny(f, ">+~:") {
			return Selector{}, fmt.Errorf("caption: unsupported selector %q", sel)
		}
		part := parseSimpleSelector(f)
		if part.empty() {
			return Selector{}, fmt.Errorf("caption: invalid selector part %q in %q", f, sel)
		}
		s.parts = append(s.parts, part)
	}
	return s, nil
}

// MustParseSelector is ParseSelector for package-level defaults.
func MustParseSelector(sel string) Selector {
	s, err := ParseSelector(sel)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the selector in CSS form, suitable for querySelectorAll.
func (s Selector) String() string { return s.raw }

// IsZero reports whether s was never parsed.
func (s Selector) IsZero() bool { return len(s.parts) == 0 }

// MatchAll returns every element under root matching s, in document order.
// A node matching through more than one ancestor chain appears once.
func (s Selector) MatchAll(root *html.Node) []*html.Node {
	if s.IsZero() || root == nil {
		return nil
	}
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if s.matches(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// matches checks the last part against n and the preceding parts against
// n's ancestors, right to left.
func (s Selector) matches(n *html.Node) bool {
	last := len(s.parts) - 1
	if !s.parts[last].match(n) {
		return false
	}
	i := last - 1
	for p := n.Parent; p != nil && i >= 0; p = p.Parent {
		if s.parts[i].match(p) {
			i--
		}
	}
	return i < 0
}

// parseSimpleSelector parses "tag.class", "#id", "tag[attr=val]", etc.
func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if eqIdx := strings.IndexByte(attrPart, '='); eqIdx >= 0 {
			s.attrKey = attrPart[:eqIdx]
			s.attrVal = strings.Trim(attrPart[eqIdx+1:], `"'`)
			s.hasVal = true
		} else {
			s.attrKey = attrPart
		}
	}

	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
		if dot := strings.IndexByte(s.id, '.'); dot >= 0 {
			s.classes = splitClasses(s.id[dot+1:])
			s.id = s.id[:dot]
		}
	}

	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		s.classes = append(s.classes, splitClasses(sel[idx+1:])...)
		sel = sel[:idx]
	}

	s.tag = strings.ToLower(sel)
	return s
}

func splitClasses(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ".") {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s simpleSelector) empty() bool {
	return s.tag == "" && s.id == "" && len(s.classes) == 0 && s.attrKey == ""
}

func (s simpleSelector) match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && s.tag != "*" && n.Data != s.tag {
		return false
	}
	if s.id != "" && getAttr(n, "id") != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(getAttr(n, "class"))
		for _, want := range s.classes {
			if !contains(have, want) {
				return false
			}
		}
	}
	if s.attrKey != "" {
		val, ok := lookupAttr(n, s.attrKey)
		if !ok || (s.hasVal && val != s.attrVal) {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
