package lexer

import (
	"strings"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/token"
)

// String scanning. Strings are quoted with " or ', escaped with a backtick,
// and normally terminate at the physical end of line. A string left open at
// end of line may continue through a continuation section beginning on the
// next line; the fragments concatenate into one logical token whose
// sub-ranges are preserved for the formatter.

func (l *Lexer) scanString(start int) *token.Token {
	quote := l.input[start]
	i := start + 1
	fragStart := start
	var fragments []token.Range
	var sb strings.Builder

	for i < len(l.input) {
		ch := l.input[i]
		switch ch {
		case '`':
			// Escape: the next character is literal, including quotes.
			if i+1 < len(l.input) && l.input[i+1] != '\n' {
				sb.WriteByte(unescape(l.input[i+1]))
				i += 2
				continue
			}
			i++
		case quote:
			fragments = append(fragments, token.Range{Start: fragStart, End: i + 1})
			tok := l.emit(token.String, start, i+1, sb.String())
			tok.Fragments = fragments
			return tok
		case '\n':
			fragments = append(fragments, token.Range{Start: fragStart, End: i})
			sectEnd, body, ok := l.stringContinuation(i + 1)
			if !ok {
				l.diags.Errorf(diag.CodeUnterminatedString,
					token.Range{Start: start, End: i}, "unterminated string")
				tok := l.emit(token.String, start, i, sb.String())
				tok.Fragments = fragments
				return tok
			}
			sb.WriteString(body.text)
			fragments = append(fragments, body.ranges...)
			i = sectEnd
			fragStart = i
		default:
			sb.WriteByte(ch)
			i++
		}
	}
	// End of input inside the string: report it and implicitly close at
	// document end.
	fragments = append(fragments, token.Range{Start: fragStart, End: len(l.input)})
	l.diags.Errorf(diag.CodeUnterminatedString,
		token.Range{Start: start, End: len(l.input)}, "unterminated string")
	tok := l.emit(token.String, start, len(l.input), sb.String())
	tok.Fragments = fragments
	return tok
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'v':
		return '\v'
	case '0':
		return 0
	default:
		return ch
	}
}

// continuationOptions are the parsed options of a continuation header line.
type continuationOptions struct {
	join     string
	hasJoin  bool
	ltrim    bool
	rtrim0   bool
	comments bool
	percent  bool // % is literal inside the section
	accent   bool // ` is literal inside the section
}

// continuationHeader decides whether the line beginning with "(" at offset
// opens a continuation section: the remainder of the line must contain no
// ")" and consist only of recognized option words.
func (l *Lexer) continuationHeader(offset int) (continuationOptions, bool) {
	var opts continuationOptions
	if offset >= len(l.input) || l.input[offset] != '(' {
		return opts, false
	}
	rest := l.input[offset+1 : l.lineEndOf(offset)]
	if strings.ContainsRune(rest, ')') {
		return opts, false
	}
	for _, field := range strings.Fields(rest) {
		lower := strings.ToLower(field)
		switch {
		case strings.HasPrefix(lower, "join"):
			opts.hasJoin = true
			opts.join = field[len("join"):]
		case lower == "ltrim":
			opts.ltrim = true
		case lower == "rtrim0":
			opts.rtrim0 = true
		case lower == "comments" || lower == "comment" || lower == "com" || lower == "c":
			opts.comments = true
		case lower == "%":
			opts.percent = true
		case lower == "`":
			opts.accent = true
		case lower == "ltrim0":
			// Explicitly disables the default left trim; nothing to record.
		default:
			return continuationOptions{}, false
		}
	}
	return opts, true
}

// sectionBody is the result of consuming a continuation section: the joined
// text and the per-line source ranges.
type sectionBody struct {
	text   string
	ranges []token.Range
}

// stringContinuation consumes a continuation section that extends an open
// string across physical lines. lineStart must point at the first character
// of the line following the open string fragment. Returns the offset just
// past the closing ")" and the joined body.
func (l *Lexer) stringContinuation(lineStart int) (int, sectionBody, bool) {
	probe := lineStart
	for probe < len(l.input) && isSpaceByte(l.input[probe]) {
		probe++
	}
	opts, ok := l.continuationHeader(probe)
	if !ok {
		return 0, sectionBody{}, false
	}
	end, body, ok := l.sectionLines(probe, opts)
	if !ok {
		return 0, sectionBody{}, false
	}
	return end, body, true
}

// sectionLines consumes the verbatim lines of a continuation section whose
// "(" is at open. It stops at a line whose first non-blank character is ")"
// and returns the offset just past that ")". The join text is spliced
// between physical lines; a Join option replaces the default "\n".
//
// Consuming a section re-enters the scanner for the join mini-tokenization,
// so the explicit depth counter guards against degenerate nesting.
func (l *Lexer) sectionLines(open int, opts continuationOptions) (int, sectionBody, bool) {
	if l.depth >= l.maxDepth {
		l.diags.Errorf(diag.CodeUnterminated,
			token.Range{Start: open, End: open + 1},
			"continuation sections nested too deeply")
		return 0, sectionBody{}, false
	}
	l.depth++
	defer func() { l.depth-- }()

	join := "\n"
	if opts.hasJoin {
		join = l.joinText(opts.join, open)
	}

	var body sectionBody
	var sb strings.Builder
	lineStart := l.lineEndOf(open) + 1
	first := true
	for lineStart <= len(l.input) {
		if lineStart >= len(l.input) {
			l.diags.Errorf(diag.CodeUnterminated,
				token.Range{Start: open, End: len(l.input)},
				"unterminated continuation section")
			body.text = sb.String()
			return len(l.input), body, true
		}
		lineEnd := l.lineEndOf(lineStart)
		i := lineStart
		for i < lineEnd && isSpaceByte(l.input[i]) {
			i++
		}
		if i < lineEnd && l.input[i] == ')' {
			// The ")" belongs to the section, which is carried whole by the
			// surrounding token; no separate delimiter token is recorded.
			l.folds = append(l.folds, token.FoldingRange{
				Range: token.Range{Start: open, End: i + 1},
				Kind:  token.FoldContinuation,
			})
			body.text = sb.String()
			return i + 1, body, true
		}
		text := l.input[lineStart:lineEnd]
		segStart := lineStart
		if opts.ltrim {
			trimmed := strings.TrimLeft(text, " \t")
			segStart += len(text) - len(trimmed)
			text = trimmed
		}
		if !opts.rtrim0 {
			text = strings.TrimRight(text, " \t\r")
		}
		if opts.comments {
			if idx := strings.Index(text, ";"); idx >= 0 &&
				(idx == 0 || isSpaceByte(text[idx-1])) {
				text = strings.TrimRight(text[:idx], " \t")
			}
		}
		if !first {
			sb.WriteString(join)
		}
		sb.WriteString(text)
		body.ranges = append(body.ranges, token.Range{Start: segStart, End: segStart + len(text)})
		first = false
		lineStart = lineEnd + 1
	}
	body.text = sb.String()
	return len(l.input), body, true
}

// joinText resolves the Join option text, running the escape
// mini-tokenization over it ("`n" and friends become their characters).
func (l *Lexer) joinText(raw string, at int) string {
	if len(raw) > 15 {
		l.diags.Warnf(diag.CodeUnterminated,
			token.Range{Start: at, End: at + 1},
			"continuation Join string is limited to 15 characters")
		raw = raw[:15]
	}
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '`' && i+1 < len(raw) {
			sb.WriteByte(unescape(raw[i+1]))
			i++
			continue
		}
		sb.WriteByte(raw[i])
	}
	return sb.String()
}

// scanContinuationSection handles a continuation section in statement
// position (continuing the previous line's expression). The whole section
// becomes one Text token carrying the joined body.
func (l *Lexer) scanContinuationSection(start int, opts continuationOptions) *token.Token {
	end, body, ok := l.sectionLines(start, opts)
	if !ok {
		return l.scanOperator(start)
	}
	tok := l.emit(token.Text, start, end, body.text)
	tok.TopOfLine = token.ContinuationLine
	tok.Fragments = body.ranges
	return tok
}
