// Package books provides book, chapter and verse metadata for the
// 66-book canon plus the OBS story set.
package books

import (
	"fmt"
	"strings"
)

// Testament is OT or NT.
type Testament string

const (
	OT Testament = "old"
	NT Testament = "new"
)

// OBS dimensions.
const (
	NumOBSStories = 50
	MaxOBSFrames  = 99
)

// Book describes one canonical book.
type Book struct {
	ID        string // USFM book code, e.g. "GEN"
	Name      string // English name
	Number    int    // USFM file number (MAT is 41)
	Testament Testament
	Chapters  []int // verse count for each chapter
}

var extraBooks = []string{"FRT", "BAK"}

var byID = func() map[string]*Book {
	m := make(map[string]*Book, len(bibleBooks))
	for i := range bibleBooks {
		m[bibleBooks[i].ID] = &bibleBooks[i]
	}
	return m
}()

var byName = func() map[string]*Book {
	m := make(map[string]*Book, len(bibleBooks))
	for i := range bibleBooks {
		m[bibleBooks[i].Name] = &bibleBooks[i]
	}
	return m
}()

// Lookup finds a book by its code, ignoring case.
func Lookup(bookID string) (Book, bool) {
	b, ok := byID[strings.ToUpper(bookID)]
	if !ok {
		return Book{}, false
	}
	return *b, true
}

// All returns the canonical books in order.
func All() []Book {
	return append([]Book(nil), bibleBooks...)
}

// IsValid reports whether bookID is a canonical book or extra matter code.
func IsValid(bookID string) bool {
	_, ok := byID[strings.ToUpper(bookID)]
	return ok || IsExtra(bookID)
}

// IsOptionalValid is like IsValid but also accepts an empty code.
func IsOptionalValid(bookID string) bool {
	return bookID == "" || IsValid(bookID)
}

// IsExtra reports front or back matter codes.
func IsExtra(bookID string) bool {
	for _, e := range extraBooks {
		if e == bookID {
			return true
		}
	}
	return false
}

// ChaptersInBook returns the chapter count.
func ChaptersInBook(bookID string) (int, bool) {
	b, ok := Lookup(bookID)
	if !ok {
		return 0, false
	}
	return len(b.Chapters), true
}

// VersesInChapter returns the verse count for a 1-based chapter.
func VersesInChapter(bookID string, chapter int) (int, bool) {
	b, ok := Lookup(bookID)
	if !ok || chapter < 1 || chapter > len(b.Chapters) {
		return 0, false
	}
	return b.Chapters[chapter-1], true
}

// TestamentOf returns the testament of a book.
func TestamentOf(bookID string) (Testament, bool) {
	b, ok := Lookup(bookID)
	if !ok {
		return "", false
	}
	return b.Testament, true
}

// UsfmNumberName returns the numbered file stem, e.g. "01-GEN".
func UsfmNumberName(bookID string) (string, bool) {
	b, ok := Lookup(bookID)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%02d-%s", b.Number, b.ID), true
}

// IsOneChapterBook reports books with a single chapter.
func IsOneChapterBook(bookID string) bool {
	n, ok := ChaptersInBook(bookID)
	return ok && n == 1
}

// IsGoodEnglishBookName reports whether name is the English name of a book.
func IsGoodEnglishBookName(name string) bool {
	_, ok := byName[name]
	return ok
}

type bcv struct {
	book string
	c, v   int
}

// Verses that are legitimately absent from many modern translations.
var oftenMissing = map[bcv]bool{
	{"NEH", 7, 68}: true,
	{"MAT", 16, 3}: true, {"MAT", 17, 21}: true, {"MAT", 18, 11}: true, {"MAT", 23, 14}: true,
	{"MRK", 7, 16}: true, {"MRK", 9, 44}: true, {"MRK", 9, 46}: true, {"MRK", 11, 26}: true, {"MRK", 15, 28}: true,
	{"MRK", 16, 9}: true, {"MRK", 16, 10}: true, {"MRK", 16, 11}: true, {"MRK", 16, 12}: true,
	{"MRK", 16, 13}: true, {"MRK", 16, 14}: true, {"MRK", 16, 15}: true, {"MRK", 16, 16}: true,
	{"MRK", 16, 17}: true, {"MRK", 16, 18}: true, {"MRK", 16, 19}: true, {"MRK", 16, 20}: true,
	{"LUK", 17, 36}: true, {"LUK", 22, 43}: true, {"LUK", 22, 44}: true, {"LUK", 23, 17}: true,
	{"JHN", 5, 3}: true, {"JHN", 5, 4}: true, {"JHN", 7, 53}: true, {"JHN", 8, 1}: true,
	{"ACT", 8, 37}: true, {"ACT", 15, 34}: true, {"ACT", 24, 6}: true, {"ACT", 24, 7}: true,
	{"ACT", 24, 8}: true, {"ACT", 28, 29}: true,
	{"ROM", 16, 24}: true, {"2CO", 13, 14}: true,
	{"1JN", 5, 7}: true, {"1JN", 5, 8}: true,
}

// IsOftenMissing reports verses commonly omitted for manuscript reasons.
func IsOftenMissing(bookID string, chapter, verse int) bool {
	return oftenMissing[bcv{strings.ToUpper(bookID), chapter, verse}]
}
