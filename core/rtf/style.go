package rtf

import (
	"fmt"
	"sort"
)

// Attr identifies one formatting attribute in a Style.
type Attr int

const (
	AttrBold Attr = iota
	AttrItalic
	AttrUnderline
	AttrStrikethrough
	AttrCaps
	AttrSmallCaps
	AttrHidden
	AttrAlign
	AttrVerticalAlign
	AttrDirection
	AttrIndent
	AttrFirstLineIndent
	AttrRightIndent
	AttrFont
	AttrForeground
	AttrBackground
	AttrFontSize
	AttrLanguage
	AttrSpaceBefore
	AttrSpaceAfter
	AttrLineSpacing
)

var attrNames = map[Attr]string{
	AttrBold:            "bold",
	AttrItalic:          "italic",
	AttrUnderline:       "underline",
	AttrStrikethrough:   "strikethrough",
	AttrCaps:            "caps",
	AttrSmallCaps:       "smallCaps",
	AttrHidden:          "hidden",
	AttrAlign:           "align",
	AttrVerticalAlign:   "valign",
	AttrDirection:       "dir",
	AttrIndent:          "indent",
	AttrFirstLineIndent: "firstLineIndent",
	AttrRightIndent:     "rightIndent",
	AttrFont:            "font",
	AttrForeground:      "foreground",
	AttrBackground:      "background",
	AttrFontSize:        "fontSize",
	AttrLanguage:        "language",
	AttrSpaceBefore:     "spaceBefore",
	AttrSpaceAfter:      "spaceAfter",
	AttrLineSpacing:     "lineSpacing",
}

func (a Attr) String() string {
	if name, ok := attrNames[a]; ok {
		return name
	}
	return fmt.Sprintf("attr(%d)", int(a))
}

// MarshalText lets Style serialise as a JSON object keyed by attribute name.
func (a Attr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Alignment is the horizontal paragraph alignment.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// VerticalAlign places a run relative to the baseline.
type VerticalAlign string

const (
	VAlignNormal VerticalAlign = "normal"
	VAlignSuper  VerticalAlign = "super"
	VAlignSub    VerticalAlign = "sub"
)

// Direction is the writing direction of a run or paragraph.
type Direction string

const (
	DirLTR Direction = "ltr"
	DirRTL Direction = "rtl"
)

// FontFamily is the generic family declared in the font table.
type FontFamily string

// Font is one font table entry.
type Font struct {
	Family  FontFamily `json:"family"`
	Charset Charset    `json:"charset"`
	Name    string     `json:"name"`
	Pitch   int        `json:"pitch"`
}

// Color is one color table entry.
type Color struct {
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
}

// Hex formats the color as RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.Red, c.Green, c.Blue)
}

// Style is an open attribute map. An attribute missing from the map is
// unset, which is distinct from being set to its zero value.
//
// Font, foreground and background hold an int table index until the owning
// scope resolves them to *Font or *Color.
type Style map[Attr]any

// Clone returns a shallow copy.
func (s Style) Clone() Style {
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a copy of s with every attribute of o applied on top.
func (s Style) With(o Style) Style {
	out := s.Clone()
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Has reports whether the attribute is set.
func (s Style) Has(a Attr) bool {
	_, ok := s[a]
	return ok
}

// Attrs returns the set attributes in declaration order.
func (s Style) Attrs() []Attr {
	out := make([]Attr, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bool returns a boolean attribute.
func (s Style) Bool(a Attr) (v, ok bool) {
	v, ok = s[a].(bool)
	return v, ok
}

// Int returns an integer attribute such as a size or indent.
func (s Style) Int(a Attr) (int, bool) {
	v, ok := s[a].(int)
	return v, ok
}

// Align returns the paragraph alignment.
func (s Style) Align() (Alignment, bool) {
	v, ok := s[AttrAlign].(Alignment)
	return v, ok
}

// VerticalAlign returns the vertical alignment.
func (s Style) VerticalAlign() (VerticalAlign, bool) {
	v, ok := s[AttrVerticalAlign].(VerticalAlign)
	return v, ok
}

// Direction returns the writing direction.
func (s Style) Direction() (Direction, bool) {
	v, ok := s[AttrDirection].(Direction)
	return v, ok
}

// Font returns the resolved font. It is false while the attribute is unset
// or still an unresolved index.
func (s Style) Font() (*Font, bool) {
	v, ok := s[AttrFont].(*Font)
	return v, ok
}

// Foreground returns the resolved text color.
func (s Style) Foreground() (*Color, bool) {
	v, ok := s[AttrForeground].(*Color)
	return v, ok
}

// Background returns the resolved background color.
func (s Style) Background() (*Color, bool) {
	v, ok := s[AttrBackground].(*Color)
	return v, ok
}

// sameValue compares attribute values. Resolved fonts and colors compare by
// content so entries from equal tables unify.
func sameValue(a, b any) bool {
	switch x := a.(type) {
	case *Font:
		y, ok := b.(*Font)
		return ok && (x == y || (x != nil && y != nil && *x == *y))
	case *Color:
		y, ok := b.(*Color)
		return ok && (x == y || (x != nil && y != nil && *x == *y))
	}
	return a == b
}
