package rtf

import "encoding/json"

// Node is a content node held by a Group or Document: a *Span or a
// *Paragraph.
type Node interface {
	node()
}

// Span is a run of text with one resolved style.
//
// Style holds only the attributes that differ from the enclosing paragraph;
// Resolved returns the full snapshot taken when the span was created.
type Span struct {
	Value string
	Style Style

	resolved Style
}

// NewSpan returns a span with no style snapshot; the scope it is added to
// assigns one.
func NewSpan(value string) *Span {
	return &Span{Value: value}
}

func (*Span) node() {}

// Resolved returns the complete style of the span.
func (s *Span) Resolved() Style {
	return s.resolved
}

func (s *Span) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Value string `json:"value"`
		Style Style  `json:"style,omitempty"`
	}{"span", s.Value, s.Style})
}

// Paragraph closes a run of spans. Its Style is the seed style it was
// created with plus every attribute all of its spans agree on.
type Paragraph struct {
	Spans []*Span
	Style Style

	base Style
}

// NewParagraph returns a paragraph whose inherited style is seeded from seed.
// A nil seed lets the receiving scope supply its current style.
func NewParagraph(seed Style) *Paragraph {
	p := &Paragraph{}
	if seed != nil {
		p.base = seed.Clone()
		p.Style = p.base.Clone()
	}
	return p
}

func (*Paragraph) node() {}

// Text concatenates the values of all spans.
func (p *Paragraph) Text() string {
	n := 0
	for _, s := range p.Spans {
		n += len(s.Value)
	}
	buf := make([]byte, 0, n)
	for _, s := range p.Spans {
		buf = append(buf, s.Value...)
	}
	return string(buf)
}

func (p *Paragraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string  `json:"type"`
		Style Style   `json:"style,omitempty"`
		Spans []*Span `json:"spans"`
	}{"paragraph", p.Style, p.Spans})
}

// unify promotes every attribute the spans agree on to the paragraph and
// strips it from the spans. It is recomputed from the immutable span
// snapshots, so calling it again after spans were prepended is safe.
func (p *Paragraph) unify() {
	style := p.base.Clone()
	promoted := map[Attr]bool{}

	if len(p.Spans) > 0 {
		first := p.Spans[0].resolved
		for _, a := range first.Attrs() {
			v := first[a]
			match := true
			for _, s := range p.Spans[1:] {
				if w, ok := s.resolved[a]; !ok || !sameValue(v, w) {
					match = false
					break
				}
			}
			if match {
				style[a] = v
				promoted[a] = true
			}
		}
	}

	for _, s := range p.Spans {
		own := make(Style, len(s.resolved))
		for a, v := range s.resolved {
			if !promoted[a] {
				own[a] = v
			}
		}
		s.Style = own
	}
	p.Style = style
}
