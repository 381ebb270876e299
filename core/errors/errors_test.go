package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with position",
			err:      NewParse("color table", 3, 14, 52, "entry must end with ';'"),
			wantMsg:  "failed to parse color table at line 3, col 14: entry must end with ';'",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without position",
			err:      &ParseError{Format: "RTF", Message: "truncated"},
			wantMsg:  "failed to parse RTF: truncated",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.wantMsg)
			assert.ErrorIs(t, tt.err, tt.wantBase)
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlying := fmt.Errorf("boom")
		err := &ParseError{Format: "RTF", Message: "x", Err: underlying}
		assert.Same(t, underlying, err.Unwrap())
		assert.NotErrorIs(t, err, ErrInvalidInput)
	})
}

func TestUnsupportedError(t *testing.T) {
	tests := []struct {
		name    string
		err     *UnsupportedError
		wantMsg string
	}{
		{"with reason", NewUnsupported("codepage 737", "no decoding table"), "unsupported codepage 737: no decoding table"},
		{"without reason", NewUnsupported("charset", ""), "unsupported charset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.wantMsg)
			assert.ErrorIs(t, tt.err, ErrUnsupported)
		})
	}
}

func TestIOError(t *testing.T) {
	underlying := fmt.Errorf("no such file")

	err := NewIO("open", "doc.rtf", underlying)
	assert.EqualError(t, err, "failed to open doc.rtf: no such file")
	assert.ErrorIs(t, err, underlying)

	noPath := NewIO("read", "", underlying)
	assert.EqualError(t, noPath, "failed to read: no such file")
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ctx"))
	assert.NoError(t, Wrapf(nil, "ctx %d", 1))

	base := NewParse("RTF", 1, 2, 3, "bad")
	wrapped := Wrapf(base, "decoding %s", "a.rtf")
	assert.EqualError(t, wrapped, "decoding a.rtf: failed to parse RTF at line 1, col 2: bad")

	var pe *ParseError
	require.True(t, As(wrapped, &pe))
	assert.Equal(t, 3, pe.Offset)
	assert.True(t, Is(Wrap(base, "outer"), ErrInvalidInput))
}
