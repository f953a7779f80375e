package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/token"
)

// Line-start constructs: hotkeys, hotstrings, labels, and directives. All of
// them are recognized by matching the untokenized line remainder; none are
// legal in mid-line position.

// scanHotkey matches a key-combination trigger ending in "::" at line start:
// optional modifier prefixes, a key name, an optional "& key" combination,
// and an optional up/down suffix. Returns nil when the line is not a hotkey.
func (l *Lexer) scanHotkey(start int) *token.Token {
	lineEnd := l.lineEndOf(start)
	line := l.input[start:lineEnd]
	sep := strings.Index(line, "::")
	if sep <= 0 {
		return nil
	}
	trigger := line[:sep]
	if !validHotkeyTrigger(trigger) {
		return nil
	}
	end := start + sep + 2
	tok := l.emit(token.Hotkey, start, end, strings.TrimSpace(trigger))
	tok.Hint = token.SemLabel
	return tok
}

// validHotkeyTrigger checks the key-combination grammar. It deliberately
// accepts any word as a key name; key-name validation against the full key
// list is a diagnostic concern of the configuration layer.
func validHotkeyTrigger(trigger string) bool {
	s := strings.TrimRight(trigger, " \t")
	if s == "" {
		return false
	}
	i := 0
	for i < len(s) && token.IsHotkeyModifier(s[i]) {
		i++
	}
	rest := s[i:]
	if rest == "" {
		// All modifiers and no key: "^!::" binds the last modifier as the
		// key itself only when exactly one character remains consumed.
		return i == 1
	}
	// Optional "key & key" combination.
	if amp := strings.Index(rest, " & "); amp > 0 {
		if !validKeyName(strings.TrimSpace(rest[:amp])) {
			return false
		}
		rest = strings.TrimSpace(rest[amp+3:])
	}
	// Optional trailing up/down suffix.
	if idx := strings.LastIndexByte(rest, ' '); idx > 0 {
		suffix := strings.ToLower(strings.TrimSpace(rest[idx+1:]))
		if suffix == "up" || suffix == "down" {
			rest = strings.TrimSpace(rest[:idx])
		}
	}
	return validKeyName(rest)
}

func validKeyName(name string) bool {
	if name == "" {
		return false
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return r != ':' && r != '\t' && r != ' '
	}
	for _, r := range name {
		if !token.IsIdentPart(r) {
			return false
		}
	}
	return true
}

// scanHotstring matches ":options:trigger::" at line start. The replacement
// payload after "::" is not part of this token: the parser reads it as a raw
// Text payload, or as code when the options include X.
func (l *Lexer) scanHotstring(start int) *token.Token {
	lineEnd := l.lineEndOf(start)
	line := l.input[start:lineEnd]
	if len(line) < 2 || line[0] != ':' {
		return nil
	}
	optEnd := strings.IndexByte(line[1:], ':')
	if optEnd < 0 {
		return nil
	}
	opts := line[1 : 1+optEnd]
	if !validHotstringOptions(opts) {
		return nil
	}
	rest := line[1+optEnd+1:]
	sep := strings.Index(rest, "::")
	if sep < 0 {
		l.diags.Errorf(diag.CodeInvalidHotkey,
			token.Range{Start: start, End: lineEnd},
			"hotstring is missing the '::' trigger terminator")
		return l.emit(token.Unknown, start, lineEnd, line)
	}
	if sep == 0 {
		l.diags.Errorf(diag.CodeInvalidHotkey,
			token.Range{Start: start, End: start + 1 + optEnd + 2},
			"hotstring has an empty trigger")
	}
	end := start + 1 + optEnd + 1 + sep + 2
	tok := l.emit(token.HotkeyLine, start, end, rest[:sep])
	tok.Hint = token.SemLabel
	return tok
}

func validHotstringOptions(opts string) bool {
	for i := 0; i < len(opts); i++ {
		ch := opts[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '*' || ch == '?' || ch == '%' || ch == '-':
		case isSpaceByte(ch):
		default:
			return false
		}
	}
	return true
}

// scanLabel matches "name:" at line start, where only whitespace or a
// comment may follow on the line. Anything else is an expression containing
// a ternary branch, not a label.
func (l *Lexer) scanLabel(start int) *token.Token {
	end := start
	for end < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[end:])
		if !token.IsIdentPart(r) {
			break
		}
		end += size
	}
	if end == start || end >= len(l.input) || l.input[end] != ':' {
		return nil
	}
	// "::" here means a one-character hotkey already rejected by the hotkey
	// grammar; treat it as not-a-label as well.
	if end+1 < len(l.input) && l.input[end+1] == ':' {
		return nil
	}
	lineEnd := l.lineEndOf(start)
	for i := end + 1; i < lineEnd; i++ {
		ch := l.input[i]
		if isSpaceByte(ch) {
			continue
		}
		if ch == ';' {
			break
		}
		return nil
	}
	name := l.input[start:end]
	tok := l.emit(token.Label, start, end+1, name)
	tok.Hint = token.SemLabel
	return tok
}

// scanDirective matches "#name" at line start. The argument text is read
// separately by the parser through RestOfLine; the core records only raw
// text and offsets, leaving filesystem resolution to the include layer.
func (l *Lexer) scanDirective(start int) *token.Token {
	end := start + 1
	for end < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[end:])
		if !token.IsIdentPart(r) {
			break
		}
		end += size
	}
	if end == start+1 {
		l.diags.Errorf(diag.CodeDirective,
			token.Range{Start: start, End: start + 1},
			"expected a directive name after '#'")
		return l.emit(token.Unknown, start, start+1, "#")
	}
	tok := l.emit(token.Directive, start, end, l.input[start:end])
	tok.Hint = token.SemKeyword
	return tok
}
