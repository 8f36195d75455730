package usfm

import (
	"regexp"
	"strings"
)

var (
	zalnEnd   = regexp.MustCompile(`\\zaln-e\\\*`)
	kEnd      = regexp.MustCompile(`\\k-e\\\*`)
	zalnStart = regexp.MustCompile(`\\zaln-s.+?\\\*`)
	kStart    = regexp.MustCompile(`\\k-s.+?\\\*`)
	footnote  = regexp.MustCompile(`\\f (.+?)\\f\*`)
	altVerse  = regexp.MustCompile(`\\va (.+?)\\va\*`)
	spaces    = regexp.MustCompile(` {2,}`)
)

// Book is a verse-structured view of a USFM file.
type Book struct {
	// Headers holds the lines before the first \c, keyed by marker.
	Headers []Header `json:"headers"`
	// Chapters maps chapter number to verse number to raw verse USFM.
	Chapters map[string]map[string]string `json:"chapters"`
}

// Header is one line of book introduction.
type Header struct {
	Marker  string `json:"tag"`
	Content string `json:"content"`
}

// Parse splits USFM text into headers and verses. Verse content keeps
// its USFM markup; use PlainText to strip it. ok is false when the text
// has no headers or no chapters.
func Parse(text string) (book *Book, ok bool) {
	book = &Book{Chapters: make(map[string]map[string]string)}
	C, V := "", ""
	var verse strings.Builder
	flush := func() {
		if C != "" && V != "" {
			book.Chapters[C][V] = strings.TrimSpace(verse.String())
		}
		verse.Reset()
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		if line == "" {
			continue
		}
		marker, rest := splitMarker(line)
		switch {
		case marker == "c":
			flush()
			C, V = strings.TrimSpace(rest), ""
			if _, exists := book.Chapters[C]; !exists {
				book.Chapters[C] = make(map[string]string)
			}
		case marker == "v" && C != "":
			flush()
			V, rest = splitFirstWord(rest)
			verse.WriteString(rest)
		case C == "":
			book.Headers = append(book.Headers, Header{Marker: marker, Content: rest})
		case V != "":
			verse.WriteString(" ")
			verse.WriteString(line)
		}
	}
	flush()
	return book, len(book.Headers) > 0 && len(book.Chapters) > 0
}

func splitMarker(line string) (marker, rest string) {
	if !strings.HasPrefix(line, `\`) {
		return "", line
	}
	marker = line[1:]
	if idx := strings.IndexByte(marker, ' '); idx >= 0 {
		return marker[:idx], marker[idx+1:]
	}
	return marker, ""
}

func splitFirstWord(s string) (first, rest string) {
	s = strings.TrimLeft(s, " ")
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}

// VerseText returns the plain original-language text of C:V from an
// aligned USFM book, or "" when the verse is absent. Word attributes,
// alignment milestones, footnotes and alternate verse numbers are removed.
func VerseText(usfmText, C, V string) string {
	usfmText = kEnd.ReplaceAllString(usfmText, "")
	usfmText = kStart.ReplaceAllString(usfmText, "")

	var b strings.Builder
	foundChapter, foundVerse := false, false
	for _, line := range strings.Split(usfmText, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !foundChapter {
			foundChapter = line == `\c `+C
			continue
		}
		if !foundVerse && strings.HasPrefix(line, `\v `+V) {
			after := line[3+len(V):]
			if after != "" && after[0] != ' ' {
				continue
			}
			foundVerse = true
			line = after
		} else if foundVerse && (strings.HasPrefix(line, `\v `) || strings.HasPrefix(line, `\c `)) {
			break
		}
		if foundVerse {
			if !strings.HasPrefix(line, `\f `) {
				b.WriteString(" ")
			}
			b.WriteString(line)
		}
	}
	return cleanVerse(b.String())
}

func cleanVerse(verse string) string {
	verse = strings.ReplaceAll(verse, `\p`, "")
	verse = strings.ReplaceAll(strings.TrimSpace(verse), "  ", " ")
	verse = zalnEnd.ReplaceAllString(verse, "")
	verse = zalnStart.ReplaceAllString(verse, "")

	for start := strings.Index(verse, `\w `); start >= 0; start = strings.Index(verse, `\w `) {
		end := strings.Index(verse[start:], `\w*`)
		if end < 0 {
			verse = verse[:start] + verse[start+3:]
			continue
		}
		field := verse[start+3 : start+end]
		if bar := strings.IndexByte(field, '|'); bar >= 0 {
			field = field[:bar]
		}
		verse = verse[:start] + field + verse[start+end+3:]
	}

	verse = footnote.ReplaceAllString(verse, "")
	verse = altVerse.ReplaceAllString(verse, "")
	verse = spaces.ReplaceAllString(verse, " ")
	return strings.TrimSpace(verse)
}
