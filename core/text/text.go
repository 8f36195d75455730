// Package text holds the string primitives shared by all checkers.
// All positions are rune indices.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Invisible and display characters.
const (
	ZeroWidthSpace     = '\u200B'
	ZeroWidthNonJoiner = '\u200C'
	ZeroWidthJoiner    = '\u200D'
	WordJoiner         = '\u2060'
	NoBreakSpace       = '\u00A0'
	NarrowNoBreakSpace = '\u202F'
	Ellipsis           = "…"
)

// IsWhitespace reports whether s is non-empty and consists only of white
// space and zero-width spaces.
func IsWhitespace(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsSpace(r) && r != ZeroWidthSpace && r != '\uFEFF' {
			return false
		}
	}
	return true
}

// CountOccurrences counts non-overlapping occurrences of sub in s.
// An empty sub counts as RuneCount(s)+1.
func CountOccurrences(s, sub string) int {
	return strings.Count(s, sub)
}

// CountOverlapping counts occurrences of sub in s, allowing overlaps.
func CountOverlapping(s, sub string) int {
	if sub == "" {
		return utf8.RuneCountInString(s) + 1
	}
	n := 0
	for i := 0; i <= len(s)-len(sub); {
		j := strings.Index(s[i:], sub)
		if j < 0 {
			break
		}
		n++
		_, size := utf8.DecodeRuneInString(s[i+j:])
		i += j + size
	}
	return n
}

// Index returns the rune index of the first occurrence of sub in s, or -1.
func Index(s, sub string) int {
	i := strings.Index(s, sub)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}

// IndexFrom returns the rune index of the first occurrence of sub in s at or
// after rune index from, or -1.
func IndexFrom(s, sub string, from int) int {
	runes := []rune(s)
	if from < 0 {
		from = 0
	}
	if from > len(runes) {
		return -1
	}
	i := Index(string(runes[from:]), sub)
	if i < 0 {
		return -1
	}
	return from + i
}

// LastIndex returns the rune index of the last occurrence of sub in s, or -1.
func LastIndex(s, sub string) int {
	i := strings.LastIndex(s, sub)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Substring returns runes [start,end) of s with JavaScript-style clamping.
func Substring(s string, start, end int) string {
	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

// RuneAt returns the rune at index i, or 0 when out of range.
func RuneAt(s string, i int) rune {
	if i < 0 {
		return 0
	}
	for j, r := range []rune(s) {
		if j == i {
			return r
		}
	}
	return 0
}

// Window centers excerpts of a configured length around a position.
type Window struct {
	Length   int
	Half     int
	HalfPlus int
}

// NewWindow builds a window for an excerpt length.
func NewWindow(length int) Window {
	return Window{Length: length, Half: length / 2, HalfPlus: (length + 1) / 2}
}

// Around returns the excerpt centered at rune index idx, with each replacer
// applied to the excerpt body. Ellipses mark truncation.
func (w Window) Around(s string, idx int, replacers ...func(string) string) string {
	n := RuneLen(s)
	body := Substring(s, idx-w.Half, idx+w.HalfPlus)
	for _, f := range replacers {
		body = f(body)
	}
	var b strings.Builder
	if idx > w.Half {
		b.WriteString(Ellipsis)
	}
	b.WriteString(body)
	if idx+w.HalfPlus < n {
		b.WriteString(Ellipsis)
	}
	return b.String()
}

// Head returns the first Length runes, with a trailing ellipsis if truncated.
func (w Window) Head(s string, replacers ...func(string) string) string {
	body := Substring(s, 0, w.Length)
	for _, f := range replacers {
		body = f(body)
	}
	if RuneLen(s) > w.Length {
		body += Ellipsis
	}
	return body
}

// Tail returns the last Length runes, with a leading ellipsis if truncated.
func (w Window) Tail(s string, replacers ...func(string) string) string {
	n := RuneLen(s)
	body := Substring(s, n-w.Length, n)
	for _, f := range replacers {
		body = f(body)
	}
	if n > w.Length {
		body = Ellipsis + body
	}
	return body
}

// ShowSpaces replaces spaces with a visible glyph.
func ShowSpaces(s string) string { return strings.ReplaceAll(s, " ", "␣") }

// ShowZeroWidthSpaces replaces U+200B with a visible glyph.
func ShowZeroWidthSpaces(s string) string { return strings.ReplaceAll(s, "\u200B", "‼") }

// ShowNoBreakSpaces replaces U+00A0 with a visible glyph.
func ShowNoBreakSpaces(s string) string { return strings.ReplaceAll(s, "\u00A0", "⍽") }

// ShowNewlines renders newlines as their escaped form.
func ShowNewlines(s string) string { return strings.ReplaceAll(s, "\n", `\n`) }

// ContainsAny reports whether s contains any of subs.
func ContainsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// HasAnyPrefix reports whether s starts with any of prefixes.
func HasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// TrimStartWhitespace trims leading white space like JavaScript trimStart.
func TrimStartWhitespace(s string) string {
	return strings.TrimLeftFunc(s, isJSSpace)
}

// TrimEndWhitespace trims trailing white space like JavaScript trimEnd.
func TrimEndWhitespace(s string) string {
	return strings.TrimRightFunc(s, isJSSpace)
}

// TrimWhitespace trims both ends like JavaScript trim.
func TrimWhitespace(s string) string {
	return strings.TrimFunc(s, isJSSpace)
}

func isJSSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
