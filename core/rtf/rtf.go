// Package rtf decodes Rich Text Format into a document tree.
//
// Decoding runs in two stages. A Tokenizer turns raw bytes into Tokens and an
// Interpreter applies them to a stack of Groups, producing a Document of
// Paragraphs and Spans with resolved styles, fonts and colors. Problems that
// do not stop decoding are collected as Diagnostics on the Document; only a
// malformed color table is fatal.
//
// Parse handles a complete input. Decoder and ParseReader accept the input in
// chunks of any size and produce the same tree.
package rtf

import (
	"context"
	"io"

	apperrors "github.com/FocuswithJustin/rtftree/core/errors"
)

// DefaultChunkSize is the read size used by ParseReader when none is given.
const DefaultChunkSize = 32 * 1024

// Parse decodes a complete RTF input with the default configuration.
func Parse(data []byte) (*Document, error) {
	return ParseWithConfig(data, DefaultConfig())
}

// ParseWithConfig decodes a complete RTF input. On a fatal error the
// returned document is nil and the error is a *FatalError.
func ParseWithConfig(data []byte, cfg Config) (*Document, error) {
	doc := NewDocument()
	in := NewInterpreter(doc, cfg)
	for _, tok := range Tokenize(data) {
		if err := in.Write(tok); err != nil {
			return nil, err
		}
		if in.Abandoned() {
			break
		}
	}
	if err := in.Finalize(); err != nil {
		return nil, err
	}
	cfg.logger().Debug("rtf_parsed",
		"bytes", len(data),
		"paragraphs", len(doc.Paragraphs()),
		"diagnostics", len(doc.Diagnostics()),
	)
	return doc, nil
}

// Decoder is the incremental form of Parse. Bytes written to it are
// tokenized and interpreted immediately; Close completes the document.
type Decoder struct {
	tz     *Tokenizer
	in     *Interpreter
	last   TokenKind
	seen   bool
	err    error
	closed bool
}

// NewDecoder returns a decoder writing into a fresh Document.
func NewDecoder(cfg Config) *Decoder {
	d := &Decoder{in: NewInterpreter(NewDocument(), cfg)}
	d.tz = NewTokenizer(d.emit)
	return d
}

func (d *Decoder) emit(tok Token) {
	d.last, d.seen = tok.Kind, true
	if d.err != nil {
		return
	}
	d.err = d.in.Write(tok)
}

// Write feeds a chunk of input. It returns the fatal error, if any, that
// stopped interpretation.
func (d *Decoder) Write(p []byte) (int, error) {
	if d.closed {
		return 0, apperrors.Wrap(apperrors.ErrClosed, "write to closed decoder")
	}
	if d.err != nil {
		return 0, d.err
	}
	d.tz.Feed(p)
	if d.err != nil {
		return len(p), d.err
	}
	return len(p), nil
}

// Abandoned reports whether the rest of the input is being ignored.
func (d *Decoder) Abandoned() bool {
	return d.in.Abandoned()
}

// Close flushes the tokenizer, closes the last paragraph of truncated input
// and finalizes the document.
func (d *Decoder) Close() (*Document, error) {
	if d.closed {
		return nil, apperrors.Wrap(apperrors.ErrClosed, "decoder already closed")
	}
	d.closed = true
	d.tz.Close()
	if !d.seen || d.last != TokenGroupEnd {
		pos := d.tz.Position()
		d.emit(ControlWord("par", pos))
		d.emit(Token{Kind: TokenGroupEnd, Pos: pos})
	}
	if d.err != nil {
		return nil, d.err
	}
	if err := d.in.Finalize(); err != nil {
		return nil, err
	}
	return d.in.Document(), nil
}

// ParseReader decodes r in chunks of chunkSize bytes. Cancellation is
// checked between chunks.
func ParseReader(ctx context.Context, r io.Reader, cfg Config, chunkSize int) (*Document, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	d := NewDecoder(cfg)
	buf := make([]byte, chunkSize)
	for !d.Abandoned() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := d.Write(buf[:n]); werr != nil {
				return nil, werr
			}
		}
		if apperrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewIO("read", "rtf input", err)
		}
	}
	return d.Close()
}
