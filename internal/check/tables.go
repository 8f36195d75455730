package check

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/tcvalidate/core/books"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
)

// RowFunc is the signature shared by the data-row checkers.
type RowFunc func(ctx context.Context, lang, repo, line, bookID, C, V, location string, opts Options) *notice.Result

// tableShape binds a TSV layout to its row checker.
type tableShape struct {
	name    string
	header  string
	columns int
	row     RowFunc
	// split returns the book, chapter, verse and ID columns of a row.
	// Tables without a book column return an empty book.
	split func(fields []string) (B, C, V, rowID string)
	bookColumn bool
	// verseRanges accepts "V1-V2" verse tokens.
	verseRanges bool
}

func splitReference(fields []string) (B, C, V, rowID string) {
	C, V, _ = strings.Cut(fields[0], ":")
	if len(fields) > 1 {
		rowID = fields[1]
	}
	return "", C, V, rowID
}

func splitBookColumns(fields []string) (B, C, V, rowID string) {
	get := func(n int, missing string) string {
		if n < len(fields) {
			return fields[n]
		}
		return missing
	}
	return get(0, ""), get(1, "?"), get(2, "?"), get(3, "????")
}

var (
	notesTSV7Table     = tableShape{name: "NotesTSV7Table", header: NotesTSV7Header, columns: 7, row: NotesTSV7Row, split: splitReference}
	notesTSV9Table     = tableShape{name: "NotesTSV9Table", header: NotesTSV9Header, columns: 9, row: NotesTSV9Row, split: splitBookColumns, bookColumn: true}
	questionsTSV7Table = tableShape{name: "QuestionsTSV7Table", header: QuestionsTSV7Header, columns: 7, row: QuestionsTSV7Row, split: splitReference, verseRanges: true}
	twlTSV6Table       = tableShape{name: "TWLTSV6Table", header: TWLTSV6Header, columns: 6, row: TWLTSV6Row, split: splitReference}
)

// NotesTSV7Table checks a whole 7-column notes table.
func NotesTSV7Table(ctx context.Context, lang, repo, bookID, filename, table, location string, opts Options) *notice.Result {
	return checkTable(ctx, notesTSV7Table, lang, repo, bookID, filename, table, location, opts)
}

// NotesTSV9Table checks a whole 9-column notes table.
func NotesTSV9Table(ctx context.Context, lang, repo, bookID, filename, table, location string, opts Options) *notice.Result {
	return checkTable(ctx, notesTSV9Table, lang, repo, bookID, filename, table, location, opts)
}

// QuestionsTSV7Table checks a whole 7-column questions table.
func QuestionsTSV7Table(ctx context.Context, lang, repo, bookID, filename, table, location string, opts Options) *notice.Result {
	return checkTable(ctx, questionsTSV7Table, lang, repo, bookID, filename, table, location, opts)
}

// TWLTSV6Table checks a whole 6-column word links table.
func TWLTSV6Table(ctx context.Context, lang, repo, bookID, filename, table, location string, opts Options) *notice.Result {
	return checkTable(ctx, twlTSV6Table, lang, repo, bookID, filename, table, location, opts)
}

// tableCheck holds the state carried from row to row.
type tableCheck struct {
	shape            tableShape
	bookID, filename string
	repo             string
	opts             Options
	loc              string
	res              *notice.Result

	numChapters int
	goodBook    bool

	lastB, lastC, lastV string
	versesInChapter     int
	knownVerses         bool
	idsInVerse          []string
}

func (t *tableCheck) add(n notice.Notice) {
	if !t.opts.wants(n.Priority) {
		return
	}
	if n.Location == "" {
		n.Location = t.loc
	}
	n.BookID = t.bookID
	n.Filename = t.filename
	n.RepoCode = t.repo
	t.res.Add(n)
}

// checkTable runs the row checker over every data line and enforces the
// cross-row ordering and ID uniqueness rules. Rows are checked in order;
// each row is passed its own chapter and verse as the expected values.
func checkTable(ctx context.Context, shape tableShape, lang, repo, bookID, filename, table, location string, opts Options) *notice.Result {
	t := &tableCheck{
		shape: shape, bookID: bookID, filename: filename, repo: repo,
		opts: opts,
		loc:  spaced(location),
		res:  notice.NewResult(),
	}
	switch {
	case bookID == "OBS":
		t.numChapters, t.goodBook = numOBSStories, true
	default:
		if n, ok := books.ChaptersInBook(bookID); ok {
			t.numChapters, t.goodBook = n, true
		} else if !books.IsValid(bookID) {
			t.add(notice.Notice{Priority: 747, Message: "Bad function call: should be given a valid book abbreviation",
				Excerpt: bookID, Location: fmt.Sprintf(" (not '%s')%s", bookID, t.loc)})
		}
	}

	lines := strings.Split(table, "\n")
	for n, line := range lines {
		lineNumber := n + 1
		if n == 0 {
			if line == shape.header {
				t.res.AddSuccess("Checked TSV header" + t.loc)
			} else {
				t.add(notice.Notice{Priority: 988, Message: "Bad TSV header",
					Details: fmt.Sprintf("expected '%s'", shape.header), Excerpt: line, LineNumber: 1})
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			// Cancellation stops the walk. A partial result is still returned.
			break
		}
		fields := strings.Split(line, "\t")
		if len(fields) != shape.columns {
			// A short final line is the usual trailing newline.
			if n != len(lines)-1 {
				_, C, V, rowID := shape.split(fields)
				t.add(notice.Notice{Priority: 983, Message: fmt.Sprintf("Wrong number of tabbed fields (expected %d)", shape.columns),
					Excerpt: "Found " + plural(len(fields), "field"), C: C, V: V, RowID: rowID, LineNumber: lineNumber})
			}
			continue
		}
		t.row(ctx, lang, line, lineNumber, fields)
	}

	opts.filter(t.res)
	if opts.DisableAllLinkFetching && opts.wants(20) {
		t.add(notice.Notice{Priority: 20, Message: "Note that 'disableAllLinkFetchingFlag' was set so link targets were not checked"})
	}
	dataLines := len(lines) - 1
	t.res.AddSuccess(fmt.Sprintf("Checked all %s%s.", plural(dataLines, "data line"), t.loc))
	summarize(t.res, shape.name)
	return t.res
}

func (t *tableCheck) row(ctx context.Context, lang, line string, lineNumber int, fields []string) {
	B, C, V, rowID := t.shape.split(fields)
	rowRes := t.shape.row(ctx, lang, t.repo, line, t.bookID, C, V, t.loc, t.opts)
	for _, n := range rowRes.NoticeList {
		if n.Priority == 931 { // reported below as 932
			continue
		}
		n.LineNumber = lineNumber
		t.add(n)
	}
	t.res.MergeChecked(rowRes)

	if B != t.lastB || C != t.lastC || V != t.lastV {
		t.idsInVerse = t.idsInVerse[:0]
	}
	at := func(n notice.Notice) notice.Notice {
		n.C, n.V, n.RowID, n.LineNumber = C, V, rowID, lineNumber
		return n
	}

	if t.shape.bookColumn {
		if B == "" {
			t.add(at(notice.Notice{Priority: 744, Message: "Missing book identifier"}))
		} else if B != t.bookID {
			t.add(at(notice.Notice{Priority: 745, Message: fmt.Sprintf("Wrong '%s' book identifier (expected '%s')", B, t.bookID)}))
		}
	}

	t.chapterOrder(C, V, at)
	t.verseOrder(C, V, at)

	if rowID == "" {
		n := at(notice.Notice{Priority: 932, Message: "Missing row ID", FieldName: "ID"})
		n.RowID = ""
		t.add(n)
	} else {
		if slices.Contains(t.idsInVerse, rowID) {
			t.add(at(notice.Notice{Priority: 831, Message: fmt.Sprintf("Duplicate '%s' ID", rowID), FieldName: "ID"}))
		}
		t.idsInVerse = append(t.idsInVerse, rowID)
	}
	t.lastB, t.lastC, t.lastV = B, C, V
}

func (t *tableCheck) chapterOrder(C, V string, at func(notice.Notice) notice.Notice) {
	switch {
	case C == "":
		t.add(at(notice.Notice{Priority: 739, Message: "Missing chapter number",
			Location: fmt.Sprintf(" after %s:%s%s", t.lastC, V, t.loc)}))
	case C == "front":
	case !digits(C):
		t.add(at(notice.Notice{Priority: 734, Message: "Bad chapter number"}))
	default:
		c, _ := strconv.Atoi(C)
		if C != t.lastC {
			if t.bookID == "OBS" {
				t.versesInChapter, t.knownVerses = maxOBSFrames, true
			} else {
				t.versesInChapter, t.knownVerses = books.VersesInChapter(t.bookID, c)
			}
		}
		if c == 0 {
			t.add(at(notice.Notice{Priority: 551, Message: "Invalid zero chapter number", Excerpt: C}))
		}
		if t.goodBook && c > t.numChapters {
			t.add(at(notice.Notice{Priority: 737, Message: "Invalid large chapter number", Excerpt: C}))
		}
		if digits(t.lastC) {
			last, _ := strconv.Atoi(t.lastC)
			details := fmt.Sprintf("'%s' after '%s'", C, t.lastC)
			if c < last {
				t.add(at(notice.Notice{Priority: 736, Message: "Receding chapter number", Details: details}))
			} else if c > last+1 {
				t.add(at(notice.Notice{Priority: 735, Message: "Advancing chapter number", Details: details}))
			}
		}
	}
}

// verseStart returns the number that orders V: the verse itself, or the
// first verse of a range where ranges are allowed.
func (t *tableCheck) verseStart(V string) (int, bool) {
	if t.shape.verseRanges {
		if first, last, ok := strings.Cut(V, "-"); ok && digits(first) && digits(last) {
			n, _ := strconv.Atoi(first)
			return n, true
		}
	}
	if !digits(V) {
		return 0, false
	}
	n, _ := strconv.Atoi(V)
	return n, true
}

func (t *tableCheck) verseOrder(C, V string, at func(notice.Notice) notice.Notice) {
	if V == "" {
		t.add(at(notice.Notice{Priority: 790, Message: "Missing verse number",
			Location: fmt.Sprintf(" after %s:%s%s", C, t.lastV, t.loc)}))
		return
	}
	if V == "intro" {
		return
	}
	v, ok := t.verseStart(V)
	if !ok {
		t.add(at(notice.Notice{Priority: 738, Message: "Bad verse number"}))
		return
	}
	details := "for chapter " + C
	if v == 0 && t.bookID != "PSA" {
		t.add(at(notice.Notice{Priority: 552, Message: "Invalid zero verse number", Details: details, Excerpt: V}))
	}
	if t.knownVerses && v > t.versesInChapter {
		t.add(at(notice.Notice{Priority: 734, Message: "Invalid large verse number", Details: details, Excerpt: V}))
	}
	if last, ok := t.verseStart(t.lastV); ok && C == t.lastC && v < last {
		t.add(at(notice.Notice{Priority: 733, Message: "Receding verse number",
			Details: fmt.Sprintf("'%s' after '%s' for chapter %s", V, t.lastV, C), Excerpt: V}))
	}
}
