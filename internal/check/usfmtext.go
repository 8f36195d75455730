package check

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/tcvalidate/core/books"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/core/text"
	"github.com/FocuswithJustin/tcvalidate/internal/usfm"
)

// specialMarker stands in for lines of original-language texts that
// legitimately do not start with a backslash.
const specialMarker = "SPECIAL"

// strongAttribute matches the Strong's number of a \w word in the
// original-language texts, but not the x-strong of alignments.
var strongAttribute = regexp.MustCompile(`(?:^|[\s|])strong="([^"]*)"`)

// usfmCheck walks a USFM book line by line.
type usfmCheck struct {
	ctx                context.Context
	lang, repo, bookID string
	win                text.Window
	opts               Options
	loc                string
	res                *notice.Result

	C, V       string
	lineNumber int
}

func (u *usfmCheck) add(n notice.Notice) {
	if !u.opts.wants(n.Priority) {
		return
	}
	if n.Location == "" {
		n.Location = u.loc
	}
	n.BookID = u.bookID
	if n.LineNumber == 0 && u.lineNumber > 0 {
		n.LineNumber = u.lineNumber
		n.C, n.V = u.C, u.V
	}
	u.res.Add(n)
}

// USFMText checks a USFM book: marker placement and content, chapter and
// verse sequencing, the text of every line, character marker balance, and
// the grammar and verse-structure capabilities.
func USFMText(ctx context.Context, lang, repo, bookID, filename, body, location string, opts Options) *notice.Result {
	loc := spaced(location)
	if filename != "" {
		loc = " in " + filename + loc
	}
	u := &usfmCheck{ctx: ctx, lang: lang, repo: repo, bookID: bookID, win: opts.window(), opts: opts, loc: loc, res: notice.NewResult()}
	if _, ok := books.ChaptersInBook(bookID); !ok {
		u.add(notice.Notice{Priority: 900, Message: "Bad function call: should be given a valid book abbreviation",
			Excerpt: bookID, Location: fmt.Sprintf(" (not '%s')%s", bookID, loc)})
	}

	// Lines of the Greek original may carry bare text.
	bareTextAllowed := strings.Contains(strings.ToLower(repo+location), "ugnt")
	lines := strings.Split(body, "\n")
	lastC, lastV := "", ""
	lastIntC, lastIntV := 0, 0
	lastMarker, lastRest := "", ""
	u.C, u.V = "0", "0"
	for i, line := range lines {
		if ctx.Err() != nil {
			break
		}
		u.lineNumber = i + 1
		if u.C == "0" {
			u.V = strconv.Itoa(u.lineNumber)
		}
		if line == "" {
			continue
		}
		if strings.Contains(line, "\r") {
			u.add(notice.Notice{Priority: 703, Message: "Unexpected carriageReturn character"})
		}

		var marker, rest string
		if line[0] == '\\' {
			marker, rest, _ = strings.Cut(line[1:], " ")
		} else if bareTextAllowed {
			marker, rest = specialMarker, line
		} else {
			u.add(notice.Notice{Priority: 980, Message: "Expected line to start with backslash",
				CharacterIndex: notice.At(0), Excerpt: string([]rune(line)[0])})
			// Treated as a remark so that its text is not checked again.
			marker, rest = "rem", line
		}

		switch marker {
		case "c":
			u.C, u.V = rest, "0"
			c, err := strconv.Atoi(rest)
			if err != nil {
				u.add(notice.Notice{Priority: 724, Message: "Unable to convert chapter number to integer",
					CharacterIndex: notice.At(3), Excerpt: text.Substring(rest, 0, 5)})
				c = -999
			}
			if rest == lastC || (c > 0 && c != lastIntC+1) {
				u.add(notice.Notice{Priority: 764, Message: "Chapter number didn't increment correctly",
					CharacterIndex: notice.At(3), Excerpt: fmt.Sprintf("%s (%s → %s)", text.Substring(rest, 0, 5), or(lastC, "0"), rest)})
			}
			lastC, lastV = rest, "0"
			lastIntC, lastIntV = c, 0
		case "v":
			u.V, _, _ = strings.Cut(rest, " ")
			if u.V == "" {
				u.V = "?"
			}
			lastV, lastIntV = u.verse(rest, lastV, lastIntV)
		}

		switch {
		case marker == "id" && !strings.HasPrefix(rest, bookID):
			u.add(notice.Notice{Priority: 987, Message: "Expected \\id line to start with book code",
				CharacterIndex: notice.At(4), Excerpt: text.Substring(rest, 0, max(4, u.win.Length))})
		case marker == "toc2" && lastMarker != "toc1":
			u.add(notice.Notice{Priority: 87, Message: "Expected \\toc2 line to follow \\toc1",
				CharacterIndex: notice.At(1), Excerpt: fmt.Sprintf("(not '%s')", lastMarker)})
		case marker == "toc3" && lastMarker != "toc2":
			u.add(notice.Notice{Priority: 87, Message: "Expected \\toc3 line to follow \\toc2",
				CharacterIndex: notice.At(1), Excerpt: fmt.Sprintf("(not '%s')", lastMarker)})
		case (usfm.IsParagraph(marker) || marker == "s5" || marker == `ts\*`) && usfm.IsParagraph(lastMarker) && lastRest == "":
			u.add(notice.Notice{Priority: 399, Message: "Useless paragraph marker",
				CharacterIndex: notice.At(1), Excerpt: fmt.Sprintf("('%s' before '%s')", lastMarker, marker)})
		}
		u.lineContents(marker, rest)
		lastMarker, lastRest = marker, rest
	}
	u.lineNumber = 0

	u.fileContents(filename, body, location)
	opts.filter(u.res)
	u.res.AddSuccess(fmt.Sprintf("Checked all %s%s", plural(len(lines), "line"), loc))
	summarize(u.res, "USFM text check")
	return u.res
}

// verse checks the sequencing of a \v marker and returns the new last
// verse.
func (u *usfmCheck) verse(rest, lastV string, lastIntV int) (string, int) {
	excerpt := text.Substring(rest, 0, max(9, u.win.Length))
	first, second, bridge := strings.Cut(u.V, "-")
	if !bridge {
		v, err := strconv.Atoi(u.V)
		if err != nil {
			u.add(notice.Notice{Priority: 723, Message: "Unable to convert verse number to integer",
				CharacterIndex: notice.At(3), Excerpt: text.Substring(rest, 0, 5)})
			v = -999
		}
		if u.V == lastV || (v > 0 && v != lastIntV+1) {
			u.add(notice.Notice{Priority: 763, Message: "Verse number didn't increment correctly",
				CharacterIndex: notice.At(3), Excerpt: fmt.Sprintf("%s (%s → %s)", text.Substring(rest, 0, 5), or(lastV, "0"), u.V)})
		}
		return u.V, v
	}
	v1, err1 := strconv.Atoi(first)
	v2, err2 := strconv.Atoi(second)
	if err1 != nil || err2 != nil {
		u.add(notice.Notice{Priority: 762, Message: "Unable to convert verse bridge numbers to integers",
			CharacterIndex: notice.At(3), Excerpt: excerpt})
		v1, v2 = -999, -998
	}
	if v2 <= v1 {
		u.add(notice.Notice{Priority: 769, Message: "Verse bridge numbers not in ascending order",
			CharacterIndex: notice.At(3), Excerpt: fmt.Sprintf("%s (%s → %s)", excerpt, first, second)})
	} else if first == lastV || (v1 > 0 && v1 != lastIntV+1) {
		u.add(notice.Notice{Priority: 765, Message: "Bridged verse numbers didn't increment correctly",
			CharacterIndex: notice.At(3), Excerpt: fmt.Sprintf("%s (%s → %s)", excerpt, lastV, first)})
	}
	return second, v2
}

// lineContents applies the marker rule table to one line.
func (u *usfmCheck) lineContents(marker, rest string) {
	after := fmt.Sprintf(" after \\%s marker%s", marker, u.loc)
	rule, known := usfm.Lookup(marker)
	switch {
	case marker == specialMarker:
	case !known || !rule.LineStart && !rule.NoContent:
		priority := 811
		if marker == "s5" {
			priority = 611
		}
		u.add(notice.Notice{Priority: priority, Message: fmt.Sprintf("Unexpected '\\%s' marker at start of line", marker),
			CharacterIndex: notice.At(1)})
	case rest != "" && rule.NoContent:
		if text.IsWhitespace(rest) {
			u.add(notice.Notice{Priority: 301, Message: fmt.Sprintf("Unexpected whitespace '%s'", rest),
				CharacterIndex: notice.At(1), Location: after})
		} else {
			u.add(notice.Notice{Priority: 401, Message: fmt.Sprintf("Unexpected content '%s'", rest), Location: after})
		}
	case rest == "" && rule.Compulsory:
		u.add(notice.Notice{Priority: 711, Message: "Expected compulsory content",
			CharacterIndex: notice.At(len(marker)), Location: after})
	}
	if rest != "" {
		u.lineInternals(marker, rest)
	}
}

func (u *usfmCheck) lineInternals(marker, rest string) {
	if _, err := strconv.Atoi(strings.TrimSpace(rest)); marker == "c" && err != nil {
		u.add(notice.Notice{Priority: 822, Message: "Expected \\c field to contain an integer",
			CharacterIndex: notice.At(3), Excerpt: `\c ` + rest})
	}
	if marker == "v" {
		v, _, _ := strings.Cut(rest, " ")
		if _, err := strconv.Atoi(v); err != nil && !strings.Contains(v, "-") {
			u.add(notice.Notice{Priority: 822, Message: "Expected \\v field to contain an integer",
				CharacterIndex: notice.At(3), Excerpt: `\v ` + rest})
		}
	}
	allowLinks := (marker == "w" || marker == "k-s" || marker == specialMarker) && strings.Contains(rest, "x-tw")
	field := TextField(Field{LanguageCode: u.lang, RepoCode: u.repo, Type: FieldUSFMLine, Name: `\` + marker,
		Text: rest, AllowLinks: allowLinks, Location: " field" + u.loc}, u.opts)
	for _, n := range field.NoticeList {
		// Quotes and brackets often open in one verse and close in another.
		if strings.HasPrefix(n.Message, "Mismatched () characters") || strings.HasPrefix(n.Message, "Mismatched [] characters") {
			continue
		}
		if strings.HasPrefix(n.Message, "Unexpected doubled , characters") && strings.Contains(rest, "x-morph") {
			continue
		}
		n.LineNumber, n.C, n.V = u.lineNumber, u.C, u.V
		u.add(n)
	}
	if u.repo == "UHB" || u.repo == "UGNT" {
		for _, m := range strongAttribute.FindAllStringSubmatch(rest, -1) {
			strongs := StrongsField(u.ctx, u.lang, u.repo, "strong", m[1], u.bookID, u.C, u.V, u.loc, u.opts)
			for _, n := range strongs.NoticeList {
				n.LineNumber = u.lineNumber
				u.add(n)
			}
			u.res.MergeChecked(strongs)
		}
	}
}

// fileContents runs the whole-file checks after the line walk.
func (u *usfmCheck) fileContents(filename, body, location string) {
	for _, pair := range usfm.CharacterPairs {
		left, right := text.CountOccurrences(body, pair[0]), text.CountOccurrences(body, pair[1])
		if left != right {
			u.add(notice.Notice{Priority: 873, Message: fmt.Sprintf("Mismatched %s%s fields", pair[0], pair[1]),
				Excerpt: fmt.Sprintf("(left=%d, right=%d)", left, right)})
		}
	}

	plain := TextfileContents(u.lang, u.repo, FieldUSFM, filename, body, location, u.opts)
	for _, n := range plain.NoticeList {
		u.add(n)
	}

	g := u.opts.grammar().Validate(usfm.Strict, body)
	if !g.Valid {
		n := notice.Notice{Priority: 944, Message: "USFM3 Grammar Check doesn't pass"}
		if e := g.Error; e != nil {
			n.Details = e.Message
			n.LineNumber = e.LineNumber
			n.CharacterIndex = notice.At(e.CharacterIndex)
			n.Excerpt = e.Excerpt
		}
		u.add(n)
	}
	for _, w := range g.Warnings {
		// Empty lines are allowed and trailing spaces are reported above.
		if strings.HasPrefix(w, "Empty lines present") || strings.HasPrefix(w, "Trailing spaces present at line end") {
			continue
		}
		u.add(notice.Notice{Priority: 50, Message: "USFMGrammar found: " + strings.TrimSpace(w)})
	}

	if _, ok := usfm.Parse(body); !ok {
		u.add(notice.Notice{Priority: 943, Message: "USFM3 toJSON Check doesn't pass"})
	}
}
