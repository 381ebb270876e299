package rtf

import "fmt"

type handler func(*Interpreter, Token) error

// controlWords maps every recognised control word to its handler. Words
// missing from the table are reported as unknown unless the current scope
// is ignorable.
var controlWords = map[string]handler{
	// document
	"rtf":     (*Interpreter).ctrlRTF,
	"ansi":    charsetWord(CharsetANSI),
	"mac":     charsetWord(CharsetMacRoman),
	"pc":      charsetWord(CharsetCP437),
	"pca":     charsetWord(CharsetCP850),
	"ansicpg": (*Interpreter).ctrlCodepage,
	"deff":    (*Interpreter).ctrlDefaultFont,
	"deflang": (*Interpreter).ctrlDefaultLanguage,
	"margl":   margin(func(m *Margins, v int) { m.Left = v }),
	"margr":   margin(func(m *Margins, v int) { m.Right = v }),
	"margt":   margin(func(m *Margins, v int) { m.Top = v }),
	"margb":   margin(func(m *Margins, v int) { m.Bottom = v }),
	"ltrdoc":  docDirection(DirLTR),
	"rtldoc":  docDirection(DirRTL),

	// font table and font selection
	"fonttbl":  (*Interpreter).ctrlFontTable,
	"f":        (*Interpreter).ctrlFont,
	"af":       (*Interpreter).ctrlAssociatedFont,
	"fs":       (*Interpreter).ctrlFontSize,
	"afs":      (*Interpreter).ctrlAssociatedFontSize,
	"fnil":     fontFamily("nil"),
	"froman":   fontFamily("roman"),
	"fswiss":   fontFamily("swiss"),
	"fmodern":  fontFamily("modern"),
	"fscript":  fontFamily("script"),
	"fdecor":   fontFamily("decor"),
	"ftech":    fontFamily("tech"),
	"fbidi":    fontFamily("bidi"),
	"fcharset": (*Interpreter).ctrlFontCharset,
	"fprq":     (*Interpreter).ctrlFontPitch,

	// color table and color selection
	"colortbl":  (*Interpreter).ctrlColorTable,
	"red":       colorComponent(func(t *colorTable, v uint8) { t.red = v }),
	"green":     colorComponent(func(t *colorTable, v uint8) { t.green = v }),
	"blue":      colorComponent(func(t *colorTable, v uint8) { t.blue = v }),
	"cf":        (*Interpreter).ctrlForeground,
	"cb":        (*Interpreter).ctrlBackground,
	"chcbpat":   (*Interpreter).ctrlBackground,
	"highlight": (*Interpreter).ctrlBackground,

	// character formatting
	"b":          spanToggle(AttrBold),
	"i":          spanToggle(AttrItalic),
	"caps":       spanToggle(AttrCaps),
	"scaps":      groupToggle(AttrSmallCaps),
	"v":          groupToggle(AttrHidden),
	"ul":         groupToggle(AttrUnderline),
	"uld":        groupToggle(AttrUnderline),
	"uldb":       groupToggle(AttrUnderline),
	"uldash":     groupToggle(AttrUnderline),
	"ulw":        groupToggle(AttrUnderline),
	"ulnone":     groupValue(AttrUnderline, false),
	"strike":     groupToggle(AttrStrikethrough),
	"striked":    groupToggle(AttrStrikethrough),
	"super":      groupValue(AttrVerticalAlign, VAlignSuper),
	"sub":        groupValue(AttrVerticalAlign, VAlignSub),
	"nosupersub": groupValue(AttrVerticalAlign, VAlignNormal),
	"plain":      (*Interpreter).ctrlPlain,
	"lang":       groupParam(AttrLanguage, 1),
	"langnp":     groupParam(AttrLanguage, 1),

	// direction
	"ltrch":   (*Interpreter).ctrlLTRChar,
	"rtlch":   (*Interpreter).ctrlRTLChar,
	"ltrpar":  groupValue(AttrDirection, DirLTR),
	"rtlpar":  groupValue(AttrDirection, DirRTL),
	"ltrsect": ignore,
	"rtlsect": ignore,

	// paragraphs
	"par":    (*Interpreter).ctrlPar,
	"pard":   (*Interpreter).ctrlPard,
	"line":   special("\n"),
	"tab":    special("\t"),
	"ql":     groupValue(AttrAlign, AlignLeft),
	"qc":     groupValue(AttrAlign, AlignCenter),
	"qr":     groupValue(AttrAlign, AlignRight),
	"qj":     groupValue(AttrAlign, AlignJustify),
	"qd":     groupValue(AttrAlign, AlignJustify),
	"fi":     groupParam(AttrFirstLineIndent, 1),
	"cufi":   groupParam(AttrFirstLineIndent, 100),
	"li":     groupParam(AttrIndent, 1),
	"lin":    groupParam(AttrIndent, 1),
	"culi":   groupParam(AttrIndent, 100),
	"ri":     groupParam(AttrRightIndent, 1),
	"rin":    groupParam(AttrRightIndent, 1),
	"curi":   groupParam(AttrRightIndent, 100),
	"sb":     groupParam(AttrSpaceBefore, 1),
	"sa":     groupParam(AttrSpaceAfter, 1),
	"sl":     (*Interpreter).ctrlLineSpacing,
	"slmult": (*Interpreter).ctrlLineSpacingMultiple,

	// special characters
	"lquote":    special("\u2018"),
	"rquote":    special("\u2019"),
	"ldblquote": special("\u201c"),
	"rdblquote": special("\u201d"),
	"bullet":    special("\u2022"),
	"endash":    special("\u2013"),
	"emdash":    special("\u2014"),
	"enspace":   special("\u2002"),
	"emspace":   special("\u2003"),
	"qmspace":   special("\u2005"),
	"zwj":       special("\u200d"),
	"zwnj":      special("\u200c"),
	"ltrmark":   special("\u200e"),
	"rtlmark":   special("\u200f"),

	// unicode
	"u":  (*Interpreter).ctrlUnicode,
	"uc": (*Interpreter).ctrlUnicodeSkip,

	// fields
	"txfieldstart": (*Interpreter).ctrlFieldStart,
	"txfieldend":   (*Interpreter).ctrlFieldEnd,
	"field":        ignore,
	"fldrslt":      ignore,
	"fldinst":      destination,

	// destinations whose content is never document text
	"stylesheet":         destination,
	"info":               destination,
	"mmathPr":            destination,
	"listtable":          destination,
	"listoverridetable":  destination,
	"pict":               destination,
	"object":             destination,
	"header":             destination,
	"headerl":            destination,
	"headerr":            destination,
	"headerf":            destination,
	"footer":             destination,
	"footerl":            destination,
	"footerr":            destination,
	"footerf":            destination,
	"footnote":           destination,
	"themedata":          destination,
	"colorschememapping": destination,
	"latentstyles":       destination,
	"datastore":          destination,
	"rsidtbl":            destination,
	"xmlnstbl":           destination,
	"generator":          destination,
	"nonshppict":         destination,
	"pntext":             destination,
	"revtbl":             destination,

	// metadata fields inside \info
	"title":    ignore,
	"author":   ignore,
	"subject":  ignore,
	"keywords": ignore,
	"doccomm":  ignore,
	"comment":  ignore,
	"operator": ignore,
	"company":  ignore,

	// style sheet and list references
	"s":    unsupported("style sheet reference"),
	"cs":   unsupported("style sheet reference"),
	"ds":   unsupported("style sheet reference"),
	"ls":   unsupported("list reference"),
	"ilvl": unsupported("list level"),

	// layout, print and revision words with no effect on the tree
	"|":           ignore,
	":":           ignore,
	"paperw":      ignore,
	"paperh":      ignore,
	"widowctrl":   ignore,
	"widctlpar":   ignore,
	"nowidctlpar": ignore,
	"viewkind":    ignore,
	"viewscale":   ignore,
	"ftnbj":       ignore,
	"aenddoc":     ignore,
	"sectd":       ignore,
	"pgwsxn":      ignore,
	"pghsxn":      ignore,
	"deftab":      ignore,
	"hyphauto":    ignore,
	"sbknone":     ignore,
	"cols":        ignore,
	"tx":          ignore,
	"kerning":     ignore,
	"expnd":       ignore,
	"expndtw":     ignore,
	"nouicompat":  ignore,
	"jexpand":     ignore,
	"htmautsp":    ignore,
	"dbch":        ignore,
	"loch":        ignore,
	"hich":        ignore,
	"insrsid":     ignore,
	"charrsid":    ignore,
	"rsid":        ignore,
	"pararsid":    ignore,
	"sectrsid":    ignore,
	"itap":        ignore,
	"noproof":     ignore,
	"fromtext":    ignore,
	"fromhtml":    ignore,
	"langfe":      ignore,
	"deflangfe":   ignore,
	"splytwnine":  ignore,
	"ftnlytwnine": ignore,
	"cgrid":       ignore,
}

func paramOr(tok Token, def int) int {
	if tok.HasParam {
		return tok.Param
	}
	return def
}

func on(tok Token) bool {
	return !tok.HasParam || tok.Param != 0
}

func ignore(*Interpreter, Token) error {
	return nil
}

// destination marks the current group ignorable.
func destination(in *Interpreter, _ Token) error {
	if in.group != in.doc.Root() && in.group != in.body {
		in.group.ignorable = true
	}
	return nil
}

func unsupported(what string) handler {
	return func(in *Interpreter, tok Token) error {
		if !in.group.Ignorable() {
			in.doc.semantic(fmt.Sprintf("%s %s is not supported", what, tok))
		}
		return nil
	}
}

// special inserts a fixed character. Table entries ignore it.
func special(text string) handler {
	return func(in *Interpreter, _ Token) error {
		if in.group.tableScope() != nil {
			return nil
		}
		return in.addText(text)
	}
}

func groupToggle(a Attr) handler {
	return func(in *Interpreter, tok Token) error {
		in.group.style[a] = on(tok)
		return nil
	}
}

// spanToggle sets the attribute on the group and on the span overlay.
func spanToggle(a Attr) handler {
	return func(in *Interpreter, tok Token) error {
		v := on(tok)
		in.group.style[a] = v
		in.state.overlay[a] = v
		return nil
	}
}

func groupValue(a Attr, v any) handler {
	return func(in *Interpreter, _ Token) error {
		in.group.style[a] = v
		return nil
	}
}

func groupParam(a Attr, scale int) handler {
	return func(in *Interpreter, tok Token) error {
		in.group.style[a] = tok.Param * scale
		return nil
	}
}

func charsetWord(cs Charset) handler {
	return func(in *Interpreter, _ Token) error {
		in.docScope().charset = cs
		return nil
	}
}

func margin(set func(*Margins, int)) handler {
	return func(in *Interpreter, tok Token) error {
		set(&in.doc.Margins, tok.Param)
		return nil
	}
}

func docDirection(dir Direction) handler {
	return func(in *Interpreter, _ Token) error {
		in.doc.Root().style[AttrDirection] = dir
		return nil
	}
}

func fontFamily(family FontFamily) handler {
	return func(in *Interpreter, _ Token) error {
		if f := in.currentFont(); f != nil {
			f.Family = family
		}
		return nil
	}
}

func colorComponent(set func(*colorTable, uint8)) handler {
	return func(in *Interpreter, tok Token) error {
		if t := in.group.tableScope(); t != nil && t.Kind == KindColorTable {
			set(t.colorTable, clampComponent(tok.Param))
		}
		return nil
	}
}

// currentFont returns the font table entry being defined, if any.
func (in *Interpreter) currentFont() *Font {
	t := in.group.tableScope()
	if t == nil || t.Kind != KindFontTable {
		return nil
	}
	return t.fontTable.current
}

// ctrlRTF marks the outermost group as the document body.
func (in *Interpreter) ctrlRTF(Token) error {
	if in.body == nil && in.group.parent == in.doc.Root() && in.group.Type == "rtf" {
		in.body = in.group
	}
	return nil
}

func (in *Interpreter) ctrlCodepage(tok Token) error {
	cs, ok := CodepageCharset(tok.Param)
	if !ok {
		in.doc.semantic(fmt.Sprintf("codepage %d is not available", tok.Param))
		return nil
	}
	in.docScope().charset = cs
	return nil
}

func (in *Interpreter) ctrlDefaultFont(tok Token) error {
	in.doc.Root().style[AttrFont] = tok.Param
	return nil
}

func (in *Interpreter) ctrlDefaultLanguage(tok Token) error {
	in.doc.Root().style[AttrLanguage] = tok.Param
	return nil
}

func (in *Interpreter) ctrlFontTable(Token) error {
	if in.group != in.doc.Root() {
		in.group.makeFontTable()
	}
	return nil
}

func (in *Interpreter) ctrlColorTable(Token) error {
	if in.group != in.doc.Root() {
		in.group.makeColorTable()
	}
	return nil
}

// ctrlFont either starts a font table entry or selects a font for the
// active direction. Selecting a font also selects its charset.
func (in *Interpreter) ctrlFont(tok Token) error {
	if t := in.group.tableScope(); t != nil {
		if t.Kind == KindFontTable {
			t.fontTable.start(tok.Param, in.group.Charset())
		}
		return nil
	}
	sh := in.state.active()
	sh.font, sh.hasFont = tok.Param, true
	in.group.style[AttrFont] = tok.Param
	if f, ok := in.group.GetFont(tok.Param); ok && f.Charset != "" {
		in.group.charset = f.Charset
	}
	return nil
}

func (in *Interpreter) ctrlAssociatedFont(tok Token) error {
	if in.group.tableScope() != nil {
		return nil
	}
	sh := in.state.opposite()
	sh.font, sh.hasFont = tok.Param, true
	return nil
}

func (in *Interpreter) ctrlFontSize(tok Token) error {
	size := paramOr(tok, 24)
	sh := in.state.active()
	sh.size, sh.hasSize = size, true
	in.group.style[AttrFontSize] = size
	return nil
}

func (in *Interpreter) ctrlAssociatedFontSize(tok Token) error {
	sh := in.state.opposite()
	sh.size, sh.hasSize = paramOr(tok, 24), true
	return nil
}

func (in *Interpreter) ctrlFontCharset(tok Token) error {
	f := in.currentFont()
	if f == nil {
		return nil
	}
	cs, ok := FontCharset(tok.Param, in.group.Charset())
	if !ok {
		in.doc.semantic(fmt.Sprintf("unsupported charset code %d", tok.Param))
		return nil
	}
	f.Charset = cs
	return nil
}

func (in *Interpreter) ctrlFontPitch(tok Token) error {
	if f := in.currentFont(); f != nil {
		f.Pitch = tok.Param
	}
	return nil
}

// ctrlForeground records the color on the span overlay; it is resolved
// against the color table when the next span is created.
func (in *Interpreter) ctrlForeground(tok Token) error {
	sh := in.state.active()
	sh.color, sh.hasColor = tok.Param, true
	in.state.overlay[AttrForeground] = tok.Param
	return nil
}

func (in *Interpreter) ctrlBackground(tok Token) error {
	in.group.style[AttrBackground] = tok.Param
	return nil
}

func (in *Interpreter) ctrlPlain(Token) error {
	s := in.group.style
	if size, ok := in.doc.Root().style[AttrFontSize]; ok {
		s[AttrFontSize] = size
	}
	s[AttrBold] = false
	s[AttrItalic] = false
	s[AttrUnderline] = false
	s[AttrStrikethrough] = false
	s[AttrVerticalAlign] = VAlignNormal
	delete(s, AttrCaps)
	delete(s, AttrSmallCaps)
	delete(s, AttrHidden)

	overlay := Style{AttrBold: false, AttrItalic: false}
	if dir, ok := in.state.overlay[AttrDirection]; ok {
		overlay[AttrDirection] = dir
	}
	in.state.overlay = overlay
	return nil
}

func (in *Interpreter) ctrlLTRChar(Token) error {
	in.switchDirection(DirLTR)
	return nil
}

func (in *Interpreter) ctrlRTLChar(Token) error {
	in.switchDirection(DirRTL)
	return nil
}

// switchDirection selects the shadow values tracked for dir and applies
// them to the active style.
func (in *Interpreter) switchDirection(dir Direction) {
	in.state.dir = dir
	in.state.overlay[AttrDirection] = dir
	sh := in.state.active()
	if sh.hasFont {
		in.group.style[AttrFont] = sh.font
	}
	if sh.hasSize {
		in.group.style[AttrFontSize] = sh.size
	}
	if sh.hasColor {
		in.state.overlay[AttrForeground] = sh.color
	}
}

// ctrlPar ends a paragraph; the next one inherits from the Document.
func (in *Interpreter) ctrlPar(Token) error {
	if in.group.tableScope() != nil {
		return nil
	}
	return in.paragraphBreak(in.doc.GetStyle())
}

func (in *Interpreter) ctrlPard(Token) error {
	if in.group != in.doc.Root() {
		in.group.ResetStyle()
	}
	in.state.lineSpacing = 0
	in.state.spacing = 1
	return nil
}

func (in *Interpreter) ctrlLineSpacing(tok Token) error {
	in.state.lineSpacing = tok.Param
	in.group.style[AttrLineSpacing] = tok.Param
	return nil
}

// maxSpacingMultiple caps the spacing multiplier, which is the number of
// empty paragraphs added after each paragraph mark.
const maxSpacingMultiple = 3

// ctrlLineSpacingMultiple turns \sl into a multiplier of single spacing
// (240 twips) when its parameter is 1.
func (in *Interpreter) ctrlLineSpacingMultiple(tok Token) error {
	in.state.spacing = 1
	if tok.Param != 1 || in.state.lineSpacing <= 240 {
		return nil
	}
	m := in.state.lineSpacing / 240
	if m > maxSpacingMultiple {
		in.doc.semantic(fmt.Sprintf("line spacing multiple %d exceeds %d, clamped", m, maxSpacingMultiple))
		m = maxSpacingMultiple
	}
	in.state.spacing = m
	return nil
}

func (in *Interpreter) ctrlUnicode(tok Token) error {
	if !tok.HasParam {
		return nil
	}
	// the parameter is a signed 16-bit code unit
	err := in.unicodeUnit(rune(uint16(tok.Param)))
	if in.cfg.SkipUnicodeFallback {
		in.skip = in.state.uc
	}
	return err
}

func (in *Interpreter) ctrlUnicodeSkip(tok Token) error {
	in.state.uc = max(paramOr(tok, 1), 0)
	return nil
}

func (in *Interpreter) ctrlFieldStart(Token) error {
	return in.fieldStart()
}

func (in *Interpreter) ctrlFieldEnd(Token) error {
	return in.fieldEnd()
}
