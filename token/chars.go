package token

import "unicode"

// ASCII lookup tables for fast character classification. Characters at or
// above 128 fall back to the unicode package: the language accepts any
// letter as an identifier character.
var (
	asciiSpace      [128]bool // space, tab, carriage return, form feed
	asciiIdentStart [128]bool // a-z, A-Z, _
	asciiIdentPart  [128]bool // a-z, A-Z, 0-9, _
	asciiDigit      [128]bool
	asciiHexDigit   [128]bool
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		asciiSpace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v'
		letter := ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
		asciiDigit[i] = '0' <= ch && ch <= '9'
		asciiIdentStart[i] = letter || ch == '_'
		asciiIdentPart[i] = letter || asciiDigit[i] || ch == '_'
		asciiHexDigit[i] = asciiDigit[i] || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
	}
}

// IsSpace reports whether r is horizontal whitespace. Newlines are
// significant to the grammar and are never treated as plain whitespace.
func IsSpace(r rune) bool {
	if r < 128 {
		return asciiSpace[r]
	}
	return r != '\n' && unicode.IsSpace(r)
}

// IsIdentStart reports whether r can begin an identifier.
func IsIdentStart(r rune) bool {
	if r < 128 {
		return asciiIdentStart[r]
	}
	return unicode.IsLetter(r)
}

// IsIdentPart reports whether r can appear inside an identifier.
func IsIdentPart(r rune) bool {
	if r < 128 {
		return asciiIdentPart[r]
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsDigit reports whether r is a decimal digit.
func IsDigit(r rune) bool {
	return r < 128 && asciiDigit[r]
}

// IsHexDigit reports whether r is a hexadecimal digit.
func IsHexDigit(r rune) bool {
	return r < 128 && asciiHexDigit[r]
}

// hotkeyModifiers are the single-character prefixes of a key combination.
var hotkeyModifiers = map[byte]bool{
	'#': true, '!': true, '^': true, '+': true,
	'<': true, '>': true, '*': true, '~': true, '$': true,
}

// IsHotkeyModifier reports whether ch is a hotkey modifier prefix.
func IsHotkeyModifier(ch byte) bool { return hotkeyModifiers[ch] }
