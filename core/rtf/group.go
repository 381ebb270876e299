package rtf

import (
	"fmt"
	"strings"
	"unicode"
)

// GroupKind tags the specialised scopes.
type GroupKind int

const (
	KindPlain GroupKind = iota
	KindFontTable
	KindColorTable
)

func (k GroupKind) String() string {
	switch k {
	case KindFontTable:
		return "fonttbl"
	case KindColorTable:
		return "colortbl"
	}
	return "plain"
}

// Group is a brace-delimited scope. Attribute lookups walk the parent
// chain up to the Document, which holds the defaults. A child never owns its
// parent; a parent owns the content re-homed into it.
type Group struct {
	Kind GroupKind
	// Type is the first control word seen in the group.
	Type string

	parent    *Group
	doc       *Document
	content   []Node
	style     Style
	charset   Charset
	ignorable bool

	fonts  map[int]*Font
	colors []*Color

	fontTable  *fontTable
	colorTable *colorTable
}

func newGroup(parent *Group) *Group {
	return &Group{
		parent: parent,
		doc:    parent.doc,
		style:  Style{},
	}
}

// Parent returns the enclosing scope, nil for the Document.
func (g *Group) Parent() *Group {
	return g.parent
}

// Content returns the nodes held directly by the scope.
func (g *Group) Content() []Node {
	return g.content
}

// Charset resolves the active charset.
func (g *Group) Charset() Charset {
	for s := g; s != nil; s = s.parent {
		if s.charset != "" {
			return s.charset
		}
	}
	return CharsetANSI
}

// Ignorable reports whether this scope or any ancestor is ignorable.
func (g *Group) Ignorable() bool {
	for s := g; s != nil; s = s.parent {
		if s.ignorable {
			return true
		}
	}
	return false
}

// LocalStyle returns the overrides set directly on this scope.
func (g *Group) LocalStyle() Style {
	return g.style
}

// GetStyle returns the fully resolved style: Document defaults with each
// scope's overrides applied from the outside in.
func (g *Group) GetStyle() Style {
	var chain []*Group
	for s := g; s != nil; s = s.parent {
		chain = append(chain, s)
	}
	out := Style{}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].style {
			out[k] = v
		}
	}
	return out
}

// Get resolves a single attribute.
func (g *Group) Get(a Attr) (any, bool) {
	for s := g; s != nil; s = s.parent {
		if v, ok := s.style[a]; ok {
			return v, true
		}
	}
	return nil, false
}

// GetFont resolves a font table index.
func (g *Group) GetFont(index int) (*Font, bool) {
	for s := g; s != nil; s = s.parent {
		if f, ok := s.fonts[index]; ok {
			return f, true
		}
	}
	return nil, false
}

// GetColor resolves a color table index.
func (g *Group) GetColor(index int) (*Color, bool) {
	for s := g; s != nil; s = s.parent {
		if index >= 0 && index < len(s.colors) {
			return s.colors[index], true
		}
	}
	return nil, false
}

func (g *Group) hasFonts() bool {
	for s := g; s != nil; s = s.parent {
		if len(s.fonts) > 0 {
			return true
		}
	}
	return false
}

func (g *Group) hasColors() bool {
	for s := g; s != nil; s = s.parent {
		if len(s.colors) > 0 {
			return true
		}
	}
	return false
}

// ResetStyle clears the local overrides. Ancestors are untouched.
func (g *Group) ResetStyle() {
	g.style = Style{}
}

// AddContent appends a node to the scope. A span without a snapshot takes
// the current resolved style; a paragraph claims the trailing spans already
// present and unifies their styles. Table scopes collect rows instead.
func (g *Group) AddContent(n Node) error {
	switch g.Kind {
	case KindFontTable:
		if s, ok := n.(*Span); ok {
			g.fontTable.addText(s.Value)
		}
		return nil
	case KindColorTable:
		if s, ok := n.(*Span); ok {
			return g.colorTable.addText(s.Value)
		}
		return nil
	}

	switch n := n.(type) {
	case *Span:
		if n.resolved == nil {
			n.resolved = g.GetStyle()
		}
		g.resolveRefs(n.resolved)
		n.Style = n.resolved
		g.content = append(g.content, n)
	case *Paragraph:
		g.addParagraph(n)
	}
	return nil
}

func (g *Group) addParagraph(p *Paragraph) {
	if p.base == nil {
		p.base = g.GetStyle()
	}
	g.resolveRefs(p.base)

	i := len(g.content)
	for i > 0 {
		if _, ok := g.content[i-1].(*Paragraph); ok {
			break
		}
		i--
	}
	if i < len(g.content) {
		lead := make([]*Span, 0, len(g.content)-i+len(p.Spans))
		for _, n := range g.content[i:] {
			lead = append(lead, n.(*Span))
		}
		p.Spans = append(lead, p.Spans...)
		g.content = g.content[:i]
	}
	for _, s := range p.Spans {
		g.resolveRefs(s.resolved)
	}
	p.unify()
	g.content = append(g.content, p)
}

// resolveRefs replaces font and color indices in style with table entries
// visible from this scope. Indices that miss a non-empty table are reported.
func (g *Group) resolveRefs(style Style) {
	if idx, ok := style[AttrFont].(int); ok {
		if f, found := g.GetFont(idx); found {
			style[AttrFont] = f
		} else if g.hasFonts() {
			g.doc.missingRef(fmt.Sprintf("font index %d is not in the font table", idx))
		}
	}
	for _, a := range []Attr{AttrForeground, AttrBackground} {
		idx, ok := style[a].(int)
		if !ok {
			continue
		}
		if c, found := g.GetColor(idx); found {
			style[a] = c
		} else if g.hasColors() {
			g.doc.missingRef(fmt.Sprintf("color index %d is not in the color table", idx))
		}
	}
}

func (g *Group) makeFontTable() {
	g.Kind = KindFontTable
	g.fontTable = &fontTable{fonts: map[int]*Font{}}
}

func (g *Group) makeColorTable() {
	g.Kind = KindColorTable
	g.colorTable = &colorTable{}
}

// tableScope returns the table a font or color word in g applies to: g
// itself, or its parent when g is a plain entry group such as {\f0 Arial;}.
func (g *Group) tableScope() *Group {
	if g.Kind != KindPlain {
		return g
	}
	if g.parent != nil && g.parent.Kind != KindPlain && !g.ignorable {
		return g.parent
	}
	return nil
}

// fontTable accumulates Font entries. Each ';' terminates one row.
type fontTable struct {
	fonts   map[int]*Font
	current *Font
	rows    int
	closed  bool
}

func (t *fontTable) start(index int, charset Charset) {
	f := &Font{Charset: charset}
	t.fonts[index] = f
	t.current = f
	t.closed = false
}

func (t *fontTable) addText(text string) {
	for i, part := range strings.Split(text, ";") {
		if i > 0 {
			t.rows++
			t.closed = true
		}
		if t.current == nil || t.closed {
			continue
		}
		t.current.Name += part
	}
}

func (t *fontTable) finish() map[int]*Font {
	for _, f := range t.fonts {
		f.Name = strings.TrimSpace(f.Name)
	}
	return t.fonts
}

// colorTable accumulates Color triples. Only ';' and white space may appear
// as text; anything else cannot be attributed to a row.
type colorTable struct {
	colors           []*Color
	red, green, blue uint8
}

func (t *colorTable) addText(text string) error {
	for _, r := range text {
		switch {
		case r == ';':
			t.colors = append(t.colors, &Color{Red: t.red, Green: t.green, Blue: t.blue})
			t.red, t.green, t.blue = 0, 0, 0
		case unicode.IsSpace(r):
		default:
			return fmt.Errorf("color table entry %q does not end with ';'", text)
		}
	}
	return nil
}

func clampComponent(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
