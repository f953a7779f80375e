package lexer

import (
	"strings"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/token"
)

// Comment scanning. Line comments at a true line start are additionally
// scanned for structural markers: ;@region / ;@endregion fold markers and
// documentation tags, which emit folding ranges as a side effect.

func (l *Lexer) scanLineComment(start int, atLineStart bool) *token.Token {
	end := l.lineEndOf(start)
	text := l.input[start:end]
	if atLineStart {
		l.scanCommentMarkers(start, text)
		l.trackDocRun(start, end)
	}
	return l.emit(token.Comment, start, end, text)
}

// trackDocRun groups consecutive line-start comments (documentation blocks,
// ";;" headers) into one foldable range.
func (l *Lexer) trackDocRun(start, end int) {
	line := l.lineIndexOf(start)
	if l.docRunStart >= 0 && line == l.docRunLine+1 {
		l.docRunEnd = end
		l.docRunLine = line
		return
	}
	l.flushDocRun()
	l.docRunStart = start
	l.docRunEnd = end
	l.docRunLine = line
}

// flushDocRun emits the pending comment-run fold, if it spans several lines.
func (l *Lexer) flushDocRun() {
	if l.docRunStart < 0 {
		return
	}
	if l.lineIndexOf(l.docRunEnd-1) > l.lineIndexOf(l.docRunStart) {
		l.folds = append(l.folds, token.FoldingRange{
			Range: token.Range{Start: l.docRunStart, End: l.docRunEnd},
			Kind:  token.FoldComment,
		})
	}
	l.docRunStart = -1
}

func (l *Lexer) scanCommentMarkers(start int, text string) {
	body := strings.TrimSpace(strings.TrimLeft(text, ";"))
	lower := strings.ToLower(body)
	switch {
	case strings.HasPrefix(lower, "@region"):
		l.regionStack = append(l.regionStack, start)
	case strings.HasPrefix(lower, "@endregion"):
		if n := len(l.regionStack); n > 0 {
			open := l.regionStack[n-1]
			l.regionStack = l.regionStack[:n-1]
			l.folds = append(l.folds, token.FoldingRange{
				Range: token.Range{Start: open, End: start + len(text)},
				Kind:  token.FoldRegion,
			})
		}
	}
}

func (l *Lexer) scanBlockComment(start int) *token.Token {
	idx := strings.Index(l.input[start+2:], "*/")
	var end int
	if idx < 0 {
		// Unterminated: report it and implicitly close at document end.
		end = len(l.input)
		l.diags.Errorf(diag.CodeUnterminated,
			token.Range{Start: start, End: end}, "unterminated block comment")
	} else {
		end = start + 2 + idx + 2
	}
	if l.lineIndexOf(end-1) > l.lineIndexOf(start) {
		l.folds = append(l.folds, token.FoldingRange{
			Range: token.Range{Start: start, End: end},
			Kind:  token.FoldComment,
		})
	}
	return l.emit(token.BlockComment, start, end, l.input[start:end])
}
