package rtf

import (
	"strconv"
	"strings"
)

type lexState int

const (
	stateText lexState = iota
	stateEscape
	stateHexChar
	stateControlWord
	stateControlWordParam
)

// Tokenizer is a character-driven state machine that turns raw RTF bytes
// into Tokens. It keeps no look-ahead beyond the current byte, so input may
// be fed in arbitrary chunks.
//
// Bytes above 0x7F are not decoded here: they are emitted as raw Text
// tokens and decoded by the interpreter under the active charset, like hex
// escapes.
type Tokenizer struct {
	emit  func(Token)
	state lexState

	text      strings.Builder
	textStart Position
	textRaw   bool
	word      strings.Builder
	param     strings.Builder
	hex       []byte

	pos Position
}

// NewTokenizer returns a streaming tokenizer that passes every token to emit
// as soon as it is complete.
func NewTokenizer(emit func(Token)) *Tokenizer {
	return &Tokenizer{
		emit: emit,
		pos:  Position{Line: 1},
	}
}

// Feed processes a chunk of raw input.
func (t *Tokenizer) Feed(p []byte) {
	for _, c := range p {
		t.pos.Offset++
		t.pos.Column++
		t.dispatch(c)
		if c == '\n' {
			t.pos.Line++
			t.pos.Column = 0
		}
	}
}

// Write implements io.Writer so a Tokenizer can sit at the end of io.Copy.
func (t *Tokenizer) Write(p []byte) (int, error) {
	t.Feed(p)
	return len(p), nil
}

// Close flushes any pending text or half-read control word. The tokenizer
// must not be fed after Close.
func (t *Tokenizer) Close() {
	switch t.state {
	case stateControlWord, stateControlWordParam:
		t.emitControlWord()
	case stateHexChar:
		t.emitError("unterminated hex literal")
	case stateEscape:
		t.emitError("dangling escape at end of input")
	}
	t.state = stateText
	t.flushText()
}

// Position returns the position of the last consumed byte.
func (t *Tokenizer) Position() Position {
	return t.pos
}

// Tokenize converts a whole input in one pass. The result always ends with
// a group end: when the input does not, a synthetic \par and group end are
// appended so truncated documents still close their last paragraph.
func Tokenize(data []byte) []Token {
	tokens := make([]Token, 0, len(data)/4+2)
	tz := NewTokenizer(func(tok Token) {
		tokens = append(tokens, tok)
	})
	tz.Feed(data)
	tz.Close()

	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenGroupEnd {
		pos := tz.Position()
		tokens = append(tokens,
			ControlWord("par", pos),
			Token{Kind: TokenGroupEnd, Pos: pos},
		)
	}
	return tokens
}

func (t *Tokenizer) dispatch(c byte) {
	switch t.state {
	case stateText:
		t.parseText(c)
	case stateEscape:
		t.parseEscape(c)
	case stateHexChar:
		t.parseHexChar(c)
	case stateControlWord:
		t.parseControlWord(c)
	case stateControlWordParam:
		t.parseControlWordParam(c)
	}
}

func (t *Tokenizer) parseText(c byte) {
	switch c {
	case '\\':
		t.state = stateEscape
	case '{':
		t.emitSimple(TokenGroupStart)
	case '}':
		t.emitSimple(TokenGroupEnd)
	case '\n', '\r':
		// line breaks in the source carry no meaning
	default:
		if c >= 0x80 {
			t.appendRaw(c)
			return
		}
		t.appendText(rune(c))
	}
}

func (t *Tokenizer) parseEscape(c byte) {
	switch c {
	case '\\', '{', '}':
		t.appendText(rune(c))
		t.state = stateText
	default:
		t.parseControlSymbol(c)
	}
}

func (t *Tokenizer) parseControlSymbol(c byte) {
	t.state = stateText
	switch c {
	case '~':
		t.appendText('\u00a0') // non-breaking space
	case '-':
		t.appendText('\u00ad') // soft hyphen
	case '_':
		t.appendText('\u2011') // non-breaking hyphen
	case '*':
		t.emitSimple(TokenIgnorable)
	case '\'':
		t.state = stateHexChar
	case '|', ':':
		t.flushText()
		t.emit(ControlWord(string(c), t.pos))
	case '\n', '\r':
		t.emitSimple(TokenEndParagraph)
	default:
		t.state = stateControlWord
		t.parseControlWord(c)
	}
}

func (t *Tokenizer) parseHexChar(c byte) {
	if !isHexDigit(c) {
		t.hex = t.hex[:0]
		t.emitError("invalid character " + strconv.QuoteRune(rune(c)) + " in hex literal")
		t.state = stateText
		return
	}
	t.hex = append(t.hex, c)
	if len(t.hex) == 2 {
		t.flushText()
		t.emit(Token{Kind: TokenHexChar, Value: string(t.hex), Pos: t.pos})
		t.hex = t.hex[:0]
		t.state = stateText
	}
}

func (t *Tokenizer) parseControlWord(c byte) {
	switch {
	case isLetter(c):
		t.word.WriteByte(c)
	case c == '-' || isDigit(c):
		t.param.WriteByte(c)
		t.state = stateControlWordParam
	case c == ' ':
		t.emitControlWord()
		t.state = stateText
	default:
		t.emitControlWord()
		t.state = stateText
		t.parseText(c)
	}
}

func (t *Tokenizer) parseControlWordParam(c byte) {
	switch {
	case isDigit(c):
		t.param.WriteByte(c)
	case c == ' ':
		t.emitControlWord()
		t.state = stateText
	default:
		t.emitControlWord()
		t.state = stateText
		t.parseText(c)
	}
}

func (t *Tokenizer) appendText(r rune) {
	if t.textRaw {
		t.flushText()
	}
	if t.text.Len() == 0 {
		t.textStart = t.pos
	}
	t.text.WriteRune(r)
}

// appendRaw collects an undecoded high byte. Raw and decoded text never
// share a token.
func (t *Tokenizer) appendRaw(c byte) {
	if !t.textRaw {
		t.flushText()
	}
	if t.text.Len() == 0 {
		t.textStart = t.pos
	}
	t.textRaw = true
	t.text.WriteByte(c)
}

func (t *Tokenizer) flushText() {
	if t.text.Len() == 0 {
		t.textRaw = false
		return
	}
	tok := Text(t.text.String(), t.textStart)
	tok.Raw = t.textRaw
	t.text.Reset()
	t.textRaw = false
	t.emit(tok)
}

func (t *Tokenizer) emitSimple(kind TokenKind) {
	t.flushText()
	t.emit(Token{Kind: kind, Pos: t.pos})
}

func (t *Tokenizer) emitError(msg string) {
	t.flushText()
	t.emit(Token{Kind: TokenError, Value: msg, Pos: t.pos})
}

func (t *Tokenizer) emitControlWord() {
	t.flushText()
	word, param := t.word.String(), t.param.String()
	t.word.Reset()
	t.param.Reset()

	if word == "" {
		t.emitError("empty control word")
		return
	}
	if param == "" {
		t.emit(ControlWord(word, t.pos))
		return
	}
	n, err := strconv.Atoi(param)
	if err != nil {
		t.emitError("invalid parameter " + strconv.Quote(param) + " for control word " + word)
		return
	}
	t.emit(ControlWordParam(word, n, t.pos))
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
