package rtf

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Default page margins in twips.
const (
	DefaultMarginLeft   = 1800
	DefaultMarginRight  = 1800
	DefaultMarginTop    = 1440
	DefaultMarginBottom = 1440
)

// DiagnosticKind classifies a non-fatal problem.
type DiagnosticKind string

const (
	DiagLexical    DiagnosticKind = "lexical"
	DiagSemantic   DiagnosticKind = "semantic"
	DiagStructural DiagnosticKind = "structural"
)

// Diagnostic is one advisory message collected while decoding.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	Pos     Position       `json:"pos"`
}

func (d Diagnostic) String() string {
	if d.Pos.Line > 0 {
		return fmt.Sprintf("%s: %s at line %d:%d", d.Kind, d.Message, d.Pos.Line, d.Pos.Column)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Margins holds the page margins in twips.
type Margins struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// Metadata contains the document information fields.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Keywords string `json:"keywords,omitempty"`
	Comment  string `json:"comment,omitempty"`
	Operator string `json:"operator,omitempty"`
	Company  string `json:"company,omitempty"`
}

func (m *Metadata) field(name string) *string {
	switch name {
	case "title":
		return &m.Title
	case "author":
		return &m.Author
	case "subject":
		return &m.Subject
	case "keywords":
		return &m.Keywords
	case "doccomm", "comment":
		return &m.Comment
	case "operator":
		return &m.Operator
	case "company":
		return &m.Company
	}
	return nil
}

// Document is the root scope of a parsed file. Its style is the default
// style every lookup falls back to; its font and color tables are the ones
// installed at the top level.
type Document struct {
	Group

	Margins  Margins
	Metadata Metadata

	diagnostics []Diagnostic
	reported    map[string]bool
	pos         Position
	logger      *slog.Logger
}

// NewDocument returns an empty document with the format's defaults.
func NewDocument() *Document {
	doc := &Document{
		Margins: Margins{
			Left:   DefaultMarginLeft,
			Right:  DefaultMarginRight,
			Top:    DefaultMarginTop,
			Bottom: DefaultMarginBottom,
		},
		reported: map[string]bool{},
	}
	doc.Group = Group{
		doc:     doc,
		charset: CharsetANSI,
		style: Style{
			AttrFont:            0,
			AttrFontSize:        24,
			AttrBold:            false,
			AttrItalic:          false,
			AttrUnderline:       false,
			AttrStrikethrough:   false,
			AttrFirstLineIndent: 0,
			AttrIndent:          0,
			AttrAlign:           AlignLeft,
			AttrVerticalAlign:   VAlignNormal,
		},
	}
	return doc
}

// Root returns the document's own scope.
func (d *Document) Root() *Group {
	return &d.Group
}

// Style returns the document default style.
func (d *Document) Style() Style {
	return d.Group.style
}

// Fonts returns the top-level font table.
func (d *Document) Fonts() map[int]*Font {
	return d.Group.fonts
}

// Colors returns the top-level color table.
func (d *Document) Colors() []*Color {
	return d.Group.colors
}

// Paragraphs returns the top-level paragraphs in order.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, n := range d.content {
		if p, ok := n.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Diagnostics returns the collected messages in the order they occurred.
func (d *Document) Diagnostics() []Diagnostic {
	return d.diagnostics
}

func (d *Document) diagnose(kind DiagnosticKind, msg string) {
	diag := Diagnostic{Kind: kind, Message: msg, Pos: d.pos}
	d.diagnostics = append(d.diagnostics, diag)
	if d.logger != nil {
		d.logger.Debug("rtf_diagnostic",
			"kind", string(kind),
			"message", msg,
			"line", d.pos.Line,
			"column", d.pos.Column,
		)
	}
}

func (d *Document) semantic(msg string) {
	d.diagnose(DiagSemantic, msg)
}

// missingRef reports a dangling table reference once per document.
func (d *Document) missingRef(msg string) {
	if d.reported[msg] {
		return
	}
	d.reported[msg] = true
	d.semantic(msg)
}

// wrapTrailing gives spans left after the last paragraph mark a paragraph
// of their own.
func (d *Document) wrapTrailing() {
	if n := len(d.content); n == 0 {
		return
	} else if _, ok := d.content[n-1].(*Paragraph); ok {
		return
	}
	d.addParagraph(NewParagraph(d.GetStyle()))
}

// compact hoists every default attribute all top-level paragraphs agree on
// into the document style and removes it from the paragraphs.
func (d *Document) compact() {
	paras := d.Paragraphs()
	if len(paras) == 0 {
		return
	}
	for _, a := range d.style.Attrs() {
		v, ok := paras[0].Style[a]
		if !ok {
			continue
		}
		match := true
		for _, p := range paras[1:] {
			if w, ok := p.Style[a]; !ok || !sameValue(v, w) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		d.style[a] = v
		for _, p := range paras {
			delete(p.Style, a)
		}
	}
}

func (d *Document) MarshalJSON() ([]byte, error) {
	fonts := map[string]*Font{}
	for i, f := range d.fonts {
		fonts[fmt.Sprint(i)] = f
	}
	return json.Marshal(struct {
		Style       Style            `json:"style"`
		Charset     Charset          `json:"charset"`
		Margins     Margins          `json:"margins"`
		Metadata    Metadata         `json:"metadata"`
		Fonts       map[string]*Font `json:"fonts,omitempty"`
		Colors      []*Color         `json:"colors,omitempty"`
		Content     []Node           `json:"content"`
		Diagnostics []Diagnostic     `json:"diagnostics,omitempty"`
	}{d.style, d.Charset(), d.Margins, d.Metadata, fonts, d.colors, d.content, d.diagnostics})
}
