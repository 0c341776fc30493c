// Package chardiff finds the changed region between two versions of one line.
//
// Compute strips the longest common prefix and then the longest common suffix of what
// remains, so each side gets at most one span. A line edited in two separate places is
// highlighted from the first edit through the last, including the unchanged text
// between them.
package chardiff

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Span is a byte range within a single line.
type Span struct {
	Offset int
	Length int
}

func (s Span) End() int { return s.Offset + s.Length }

func (s Span) Empty() bool { return s.Length == 0 }

// Compute returns the changed span of oldLine and of newLine. A side whose changed
// region is empty gets the zero Span. Offsets never split a UTF-8 sequence.
func Compute(oldLine, newLine string) (oldSpan, newSpan Span) {
	if oldLine == newLine {
		return Span{}, Span{}
	}
	var prefix, suffix int
	if utf8.ValidString(oldLine) && utf8.ValidString(newLine) {
		// Equal runes encode to equal bytes, so rune counts convert on either side.
		dmp := diffmatchpatch.New()
		prefix = runeBytes(oldLine, dmp.DiffCommonPrefix(oldLine, newLine))
		oldTail, newTail := oldLine[prefix:], newLine[prefix:]
		suffix = lastRuneBytes(oldTail, dmp.DiffCommonSuffix(oldTail, newTail))
	} else {
		prefix = commonPrefix(oldLine, newLine)
		suffix = commonSuffix(oldLine[prefix:], newLine[prefix:])
	}

	if n := len(oldLine) - prefix - suffix; n > 0 {
		oldSpan = Span{Offset: prefix, Length: n}
	}
	if n := len(newLine) - prefix - suffix; n > 0 {
		newSpan = Span{Offset: prefix, Length: n}
	}
	return oldSpan, newSpan
}

// runeBytes returns the byte length of the first n runes of s.
func runeBytes(s string, n int) int {
	off := 0
	for i := 0; i < n && off < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[off:])
		off += size
	}
	return off
}

// lastRuneBytes returns the byte length of the last n runes of s.
func lastRuneBytes(s string, n int) int {
	end := len(s)
	for i := 0; i < n && end > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(s[:end])
		end -= size
	}
	return len(s) - end
}

// commonPrefix is the byte length of the leading runes a and b share. Runes are
// compared by their bytes, so distinct invalid bytes never match.
func commonPrefix(a, b string) int {
	off := 0
	for off < len(a) && off < len(b) {
		_, na := utf8.DecodeRuneInString(a[off:])
		_, nb := utf8.DecodeRuneInString(b[off:])
		if na != nb || a[off:off+na] != b[off:off+nb] {
			break
		}
		off += na
	}
	return off
}

// commonSuffix is the byte length of the trailing runes a and b share.
func commonSuffix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) {
		_, na := utf8.DecodeLastRuneInString(a[:len(a)-n])
		_, nb := utf8.DecodeLastRuneInString(b[:len(b)-n])
		if na != nb || a[len(a)-n-na:len(a)-n] != b[len(b)-n-nb:len(b)-n] {
			break
		}
		n += na
	}
	return n
}
