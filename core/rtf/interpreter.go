package rtf

import (
	"fmt"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	apperrors "github.com/FocuswithJustin/rtftree/core/errors"
)

// FatalError halts interpretation. It carries the diagnostics collected up
// to the offending token.
type FatalError struct {
	*apperrors.ParseError
	Diagnostics []Diagnostic
}

// shadow holds the font, size and color tracked for one writing direction.
type shadow struct {
	font, size, color          int
	hasFont, hasSize, hasColor bool
}

// charState is the per-scope character state. It is saved on group start
// and restored on group end.
type charState struct {
	// overlay applies on top of the group style to every span produced:
	// bold, italic, caps, foreground and direction.
	overlay Style
	dir     Direction
	ltr     shadow
	rtl     shadow

	uc          int // fallback characters after \u
	lineSpacing int
	spacing     int // paragraph spacing multiplier
}

func newCharState() charState {
	return charState{overlay: Style{}, dir: DirLTR, uc: 1, spacing: 1}
}

func (s charState) clone() charState {
	c := s
	c.overlay = s.overlay.Clone()
	return c
}

func (s *charState) active() *shadow {
	if s.dir == DirRTL {
		return &s.rtl
	}
	return &s.ltr
}

func (s *charState) opposite() *shadow {
	if s.dir == DirRTL {
		return &s.ltr
	}
	return &s.rtl
}

// Interpreter consumes Tokens and builds a Document. It has a single
// writer and no internal locking.
type Interpreter struct {
	doc *Document
	cfg Config

	group  *Group
	stack  []*Group
	states []charState
	state  charState
	// body is the group opened by \rtf; document-level words and installed
	// tables apply to the Document while it is current.
	body *Group

	hex           []byte
	skip          int
	highSurrogate rune

	suppress  bool
	abandoned bool
	finalized bool
	err       error
}

// NewInterpreter returns an interpreter writing into doc.
func NewInterpreter(doc *Document, cfg Config) *Interpreter {
	doc.logger = cfg.logger()
	return &Interpreter{
		doc:   doc,
		cfg:   cfg,
		group: &doc.Group,
		state: newCharState(),
	}
}

// Document returns the document under construction.
func (in *Interpreter) Document() *Document {
	return in.doc
}

// Abandoned reports whether an unmatched field end cut the document short.
// Further tokens are accepted and ignored.
func (in *Interpreter) Abandoned() bool {
	return in.abandoned
}

// Depth returns the number of open groups.
func (in *Interpreter) Depth() int {
	return len(in.stack)
}

// Write interprets one token. A non-nil error is a *FatalError; every later
// call returns the same error.
func (in *Interpreter) Write(tok Token) error {
	if in.err != nil {
		return in.err
	}
	if in.finalized {
		return apperrors.Wrap(apperrors.ErrClosed, "write after finalize")
	}
	if in.abandoned {
		return nil
	}
	in.doc.pos = tok.Pos

	if err := in.dispatch(tok); err != nil {
		in.err = in.fatal(tok, err)
		return in.err
	}
	return nil
}

func (in *Interpreter) dispatch(tok Token) error {
	switch tok.Kind {
	case TokenText:
		if tok.Raw {
			return in.rawText(tok.Value)
		}
		if err := in.flushHex(); err != nil {
			return err
		}
		return in.text(tok.Value)
	case TokenHexChar:
		return in.hexChar(tok)
	}

	isUnicode := tok.Kind == TokenControlWord && tok.Value == "u"
	if !isUnicode {
		if err := in.flushSurrogate(); err != nil {
			return err
		}
	}
	if err := in.flushHex(); err != nil {
		return err
	}
	in.skip = 0

	switch tok.Kind {
	case TokenGroupStart:
		in.groupStart()
	case TokenGroupEnd:
		if len(in.stack) == 0 {
			// stray group end; nothing to close
			return nil
		}
		return in.closeGroup()
	case TokenIgnorable:
		if in.group != in.doc.Root() {
			in.group.ignorable = true
		}
	case TokenEndParagraph:
		if in.group.tableScope() != nil {
			return nil
		}
		return in.paragraphBreak(in.group.GetStyle())
	case TokenControlWord:
		return in.controlWord(tok)
	case TokenError:
		in.doc.diagnose(DiagLexical, tok.Value)
	}
	return nil
}

func (in *Interpreter) controlWord(tok Token) error {
	if in.group.Type == "" {
		in.group.Type = tok.Value
	}
	h, ok := controlWords[tok.Value]
	if !ok {
		if !in.group.Ignorable() {
			in.doc.semantic("unknown control word " + tok.String())
		}
		return nil
	}
	return h(in, tok)
}

// Finalize closes every open group and compacts the document style. It is
// called once, after the last token.
func (in *Interpreter) Finalize() error {
	if in.err != nil {
		return in.err
	}
	if in.finalized {
		return nil
	}
	in.finalized = true

	if err := in.flushSurrogate(); err != nil {
		in.err = in.fatal(Token{Pos: in.doc.pos}, err)
		return in.err
	}
	if err := in.flushHex(); err != nil {
		in.err = in.fatal(Token{Pos: in.doc.pos}, err)
		return in.err
	}
	// the body group is closed by the final brace in well-formed input
	if open := len(in.stack); open > 1 || (open == 1 && in.group != in.body) {
		in.doc.diagnose(DiagStructural, fmt.Sprintf("%d group(s) left open at end of input", open))
	}
	for len(in.stack) > 0 {
		if err := in.closeGroup(); err != nil {
			in.err = in.fatal(Token{Pos: in.doc.pos}, err)
			return in.err
		}
	}
	in.doc.wrapTrailing()
	in.doc.compact()
	return nil
}

func (in *Interpreter) fatal(tok Token, err error) error {
	pe := apperrors.NewParse("RTF", tok.Pos.Line, tok.Pos.Column, tok.Pos.Offset, err.Error())
	diags := make([]Diagnostic, len(in.doc.diagnostics))
	copy(diags, in.doc.diagnostics)
	in.cfg.logger().Debug("rtf_fatal", "error", pe.Error(), "diagnostics", len(diags))
	return &FatalError{ParseError: pe, Diagnostics: diags}
}

func (in *Interpreter) groupStart() {
	in.stack = append(in.stack, in.group)
	in.states = append(in.states, in.state.clone())
	in.group = newGroup(in.group)
}

// closeGroup pops the current group. Tables are installed on the new
// current scope, plain groups re-home their content into it and ignorable
// groups are dropped.
func (in *Interpreter) closeGroup() error {
	ending := in.group
	n := len(in.stack) - 1
	in.group, in.stack = in.stack[n], in.stack[:n]
	in.state, in.states = in.states[n], in.states[:n]
	if ending == in.body {
		in.body = nil
	}

	switch ending.Kind {
	case KindFontTable:
		in.docScope().fonts = ending.fontTable.finish()
		return nil
	case KindColorTable:
		in.docScope().colors = ending.colorTable.colors
		return nil
	}
	if ending.Ignorable() {
		return nil
	}
	for _, node := range ending.content {
		if err := in.group.AddContent(node); err != nil {
			return err
		}
	}
	return nil
}

// docScope is the scope document-level words apply to: the Document while
// the \rtf body group is current, otherwise the current group.
func (in *Interpreter) docScope() *Group {
	if in.group == in.body {
		return in.doc.Root()
	}
	return in.group
}

// flushOpenGroups moves the content of every open group outwards so that
// everything produced so far lands in the Document.
func (in *Interpreter) flushOpenGroups() error {
	inner := in.group
	for i := len(in.stack) - 1; i >= 0; i-- {
		outer := in.stack[i]
		if inner.Kind == KindPlain && outer.Kind == KindPlain {
			if !inner.Ignorable() {
				for _, node := range inner.content {
					if err := outer.AddContent(node); err != nil {
						return err
					}
				}
			}
			inner.content = nil
		}
		inner = outer
	}
	return nil
}

func (in *Interpreter) text(value string) error {
	if in.skip > 0 {
		value = in.skipFallback(value)
		if value == "" {
			return nil
		}
	}
	if err := in.flushSurrogate(); err != nil {
		return err
	}
	return in.addText(value)
}

// skipFallback drops the replacement characters that follow a \u escape.
func (in *Interpreter) skipFallback(value string) string {
	for in.skip > 0 && value != "" {
		_, size := utf8.DecodeRuneInString(value)
		value = value[size:]
		in.skip--
	}
	return value
}

// addText routes text to the table being built, or turns it into a span
// carrying the current style and the span overlay.
func (in *Interpreter) addText(value string) error {
	g := in.group
	if t := g.tableScope(); t != nil {
		return t.AddContent(NewSpan(value))
	}
	if g.parent != nil && g.parent.Type == "info" {
		if field := in.doc.Metadata.field(g.Type); field != nil {
			*field += value
		}
	}
	if in.suppress {
		return nil
	}
	span := &Span{Value: value, resolved: g.GetStyle().With(in.state.overlay)}
	return g.AddContent(span)
}

func (in *Interpreter) addNode(n Node) error {
	if in.suppress {
		return nil
	}
	return in.group.AddContent(n)
}

// paragraphBreak closes the current paragraph. A spacing multiplier above
// one adds that many empty paragraphs.
func (in *Interpreter) paragraphBreak(seed Style) error {
	if err := in.addNode(NewParagraph(seed)); err != nil {
		return err
	}
	if m := in.state.spacing; m > 1 {
		for i := 0; i < m; i++ {
			if err := in.addNode(NewParagraph(seed)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (in *Interpreter) hexChar(tok Token) error {
	if in.skip > 0 {
		in.skip--
		return nil
	}
	if err := in.flushSurrogate(); err != nil {
		return err
	}
	b, err := strconv.ParseUint(tok.Value, 16, 8)
	if err != nil {
		in.doc.diagnose(DiagLexical, "malformed hex literal "+strconv.Quote(tok.Value))
		return nil
	}
	in.hex = append(in.hex, byte(b))
	return nil
}

// rawText queues undecoded text bytes with the pending hex run so both
// decode under the same charset. Each byte counts as one \u fallback
// character.
func (in *Interpreter) rawText(value string) error {
	for i := 0; i < len(value); i++ {
		if in.skip > 0 {
			in.skip--
			continue
		}
		if err := in.flushSurrogate(); err != nil {
			return err
		}
		in.hex = append(in.hex, value[i])
	}
	return nil
}

// flushHex decodes the pending run of hex and raw bytes as one span so
// multi-byte sequences are never split.
func (in *Interpreter) flushHex() error {
	if len(in.hex) == 0 {
		return nil
	}
	data := in.hex
	in.hex = nil

	cs := in.group.Charset()
	fallback := in.cfg.fallback()
	text, substituted := decodeRun(data, cs, fallback)
	if substituted {
		if cs.IsDoubleByte() {
			in.doc.semantic(fmt.Sprintf("double-byte charset %s is not supported, decoded as %s", cs, fallback))
		} else {
			in.doc.semantic(fmt.Sprintf("charset %s is not supported, decoded as %s", cs, fallback))
		}
	}
	return in.addText(text)
}

// unicodeUnit emits one UTF-16 code unit. A high surrogate waits for its
// low half; an unpaired surrogate becomes U+FFFD.
func (in *Interpreter) unicodeUnit(unit rune) error {
	switch {
	case unit >= 0xD800 && unit < 0xDC00:
		if err := in.flushSurrogate(); err != nil {
			return err
		}
		in.highSurrogate = unit
		return nil
	case unit >= 0xDC00 && unit < 0xE000:
		if in.highSurrogate == 0 {
			return in.addText(string(utf8.RuneError))
		}
		r := utf16.DecodeRune(in.highSurrogate, unit)
		in.highSurrogate = 0
		return in.addText(string(r))
	}
	if err := in.flushSurrogate(); err != nil {
		return err
	}
	return in.addText(string(unit))
}

func (in *Interpreter) flushSurrogate() error {
	if in.highSurrogate == 0 {
		return nil
	}
	in.highSurrogate = 0
	return in.addText(string(utf8.RuneError))
}

// fieldStart starts suppressing content after moving everything produced so far
// into the Document.
func (in *Interpreter) fieldStart() error {
	if err := in.flushOpenGroups(); err != nil {
		return err
	}
	in.suppress = true
	return nil
}

// fieldEnd resumes normal accumulation. Without a matching start the rest
// of the document is abandoned.
func (in *Interpreter) fieldEnd() error {
	if in.suppress {
		in.suppress = false
		return nil
	}
	in.doc.diagnose(DiagStructural, "field end without field start, ignoring the rest of the document")
	if err := in.flushOpenGroups(); err != nil {
		return err
	}
	in.abandoned = true
	return nil
}
