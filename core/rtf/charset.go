package rtf

import (
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Charset names the byte-to-character mapping used to decode hex runs and
// raw high bytes in text.
type Charset string

const (
	CharsetANSI     Charset = "ANSI"
	CharsetMacRoman Charset = "MacRoman"
	CharsetCP437    Charset = "CP437"
	CharsetCP850    Charset = "CP850"
	CharsetCP1252   Charset = "CP1252"

	CharsetShiftJIS Charset = "SHIFT_JIS"
	CharsetCP936    Charset = "CP936"
	CharsetCP949    Charset = "CP949"
	CharsetBig5     Charset = "BIG5"
	CharsetJohab    Charset = "JOHAB"
)

// singleByte maps every charset the decoder can handle to its table.
var singleByte = map[Charset]encoding.Encoding{
	CharsetANSI:     charmap.Windows1252,
	CharsetMacRoman: charmap.Macintosh,
	CharsetCP437:    charmap.CodePage437,
	CharsetCP850:    charmap.CodePage850,
	"CP852":         charmap.CodePage852,
	"CP855":         charmap.CodePage855,
	"CP858":         charmap.CodePage858,
	"CP860":         charmap.CodePage860,
	"CP862":         charmap.CodePage862,
	"CP863":         charmap.CodePage863,
	"CP865":         charmap.CodePage865,
	"CP866":         charmap.CodePage866,
	"CP874":         charmap.Windows874,
	"CP1250":        charmap.Windows1250,
	"CP1251":        charmap.Windows1251,
	CharsetCP1252:   charmap.Windows1252,
	"CP1253":        charmap.Windows1253,
	"CP1254":        charmap.Windows1254,
	"CP1255":        charmap.Windows1255,
	"CP1256":        charmap.Windows1256,
	"CP1257":        charmap.Windows1257,
	"CP1258":        charmap.Windows1258,
	"KOI8R":         charmap.KOI8R,
	"ISO8859_1":     charmap.ISO8859_1,
}

// doubleByte charsets are recognised but not decoded; runs under them fall
// back to a single-byte table.
var doubleByte = map[Charset]bool{
	CharsetShiftJIS: true,
	CharsetCP936:    true,
	CharsetCP949:    true,
	CharsetBig5:     true,
	CharsetJohab:    true,
}

var doubleByteCodepages = map[int]Charset{
	932:  CharsetShiftJIS,
	936:  CharsetCP936,
	949:  CharsetCP949,
	950:  CharsetBig5,
	1361: CharsetJohab,
}

// fontCharsets maps \fcharset codes to charsets. Codes 0 (ANSI) and 1
// (default) are absent: they inherit the charset of the enclosing scope.
var fontCharsets = map[int]Charset{
	77:  CharsetMacRoman,
	128: CharsetShiftJIS,
	129: CharsetCP949,
	130: CharsetJohab,
	134: CharsetCP936,
	136: CharsetBig5,
	161: "CP1253", // greek
	162: "CP1254", // turkish
	163: "CP1258", // vietnamese
	177: "CP1255", // hebrew
	178: "CP1256", // arabic
	186: "CP1257", // baltic
	204: "CP1251", // russian
	222: "CP874",  // thai
	238: "CP1250", // eastern european
	254: CharsetCP437,
	255: CharsetCP850,
}

// IsDoubleByte reports whether cs is a recognised multi-byte charset.
func (cs Charset) IsDoubleByte() bool {
	return doubleByte[cs]
}

// Supported reports whether hex runs under cs can be decoded directly.
func (cs Charset) Supported() bool {
	_, ok := singleByte[cs]
	return ok
}

// CodepageCharset resolves an \ansicpg parameter. ok is false when the
// codepage is neither decodable nor a known double-byte codepage.
func CodepageCharset(codepage int) (cs Charset, ok bool) {
	if codepage == 1252 {
		return CharsetANSI, true
	}
	if cs, ok := doubleByteCodepages[codepage]; ok {
		return cs, true
	}
	cs = Charset("CP" + strconv.Itoa(codepage))
	return cs, cs.Supported()
}

// FontCharset resolves an \fcharset code. inherited is returned for the
// ANSI and default codes.
func FontCharset(code int, inherited Charset) (Charset, bool) {
	if code == 0 || code == 1 {
		return inherited, true
	}
	cs, ok := fontCharsets[code]
	return cs, ok
}

// decodeRun decodes raw bytes under cs, using fallback when cs cannot be
// decoded. substituted reports whether the fallback was used.
func decodeRun(data []byte, cs, fallback Charset) (text string, substituted bool) {
	enc, ok := singleByte[cs]
	if !ok {
		substituted = true
		enc, ok = singleByte[fallback]
		if !ok {
			enc = charmap.Windows1252
		}
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// charmap decoders replace undecodable bytes rather than fail
		return string(data), substituted
	}
	return string(out), substituted
}
