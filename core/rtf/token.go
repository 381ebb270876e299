package rtf

import (
	"fmt"
	"strconv"
)

// TokenKind identifies the variant of a Token.
type TokenKind int

const (
	TokenText         TokenKind = iota // literal text run
	TokenControlWord                   // \name or \nameN
	TokenGroupStart                    // {
	TokenGroupEnd                      // }
	TokenHexChar                       // \'hh
	TokenIgnorable                     // \*
	TokenEndParagraph                  // backslash followed by CR or LF
	TokenError                         // lexical error
)

var tokenNames = map[TokenKind]string{
	TokenText:         "text",
	TokenControlWord:  "control-word",
	TokenGroupStart:   "group-start",
	TokenGroupEnd:     "group-end",
	TokenHexChar:      "hexchar",
	TokenIgnorable:    "ignorable",
	TokenEndParagraph: "end-paragraph",
	TokenError:        "error",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "unknown"
}

// Position locates a token in the raw input. Offset counts bytes consumed
// so far; Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexical unit produced by the Tokenizer.
//
// Value holds the text for TokenText, the control word name for
// TokenControlWord, the two hex digits for TokenHexChar and the message for
// TokenError. A Raw text token holds undecoded bytes above 0x7F.
type Token struct {
	Kind     TokenKind
	Value    string
	Param    int
	HasParam bool
	Raw      bool
	Pos      Position
}

func (t Token) String() string {
	switch t.Kind {
	case TokenText:
		if t.Raw {
			return "raw(" + strconv.Quote(t.Value) + ")"
		}
		return "text(" + strconv.Quote(t.Value) + ")"
	case TokenControlWord:
		if t.HasParam {
			return `\` + t.Value + strconv.Itoa(t.Param)
		}
		return `\` + t.Value
	case TokenHexChar:
		return `\'` + t.Value
	case TokenError:
		return "error(" + t.Value + ")"
	}
	return t.Kind.String()
}

// Text builds a text token.
func Text(value string, pos Position) Token {
	return Token{Kind: TokenText, Value: value, Pos: pos}
}

// ControlWord builds a control word token without a parameter.
func ControlWord(name string, pos Position) Token {
	return Token{Kind: TokenControlWord, Value: name, Pos: pos}
}

// ControlWordParam builds a control word token carrying an integer parameter.
func ControlWordParam(name string, param int, pos Position) Token {
	return Token{Kind: TokenControlWord, Value: name, Param: param, HasParam: true, Pos: pos}
}
