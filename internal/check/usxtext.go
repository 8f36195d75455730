package check

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/tcvalidate/core/books"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/core/xml"
	"github.com/FocuswithJustin/tcvalidate/internal/usfm"
)

// Chapter and verse starts in document order. USX 3 end milestones carry
// eid and no number.
const usxMilestones = "//*[self::chapter or self::verse][@number]"

// USXText checks a USX book: well-formedness, the usx root and book code,
// chapter and verse sequencing, and deprecated styles.
func USXText(lang, repo, bookID, filename, body, location string, opts Options) *notice.Result {
	res := notice.NewResult()
	loc := spaced(location)
	if filename != "" {
		loc = " in " + filename + loc
	}
	add := func(n notice.Notice) {
		if !opts.wants(n.Priority) {
			return
		}
		if n.Location == "" {
			n.Location = loc
		}
		n.BookID = bookID
		res.Add(n)
	}
	if bookID != "" && !books.IsValid(bookID) {
		add(notice.Notice{Priority: 900, Message: "Bad function call: should be given a valid book abbreviation",
			Excerpt: bookID, Location: fmt.Sprintf(" (not '%s')%s", bookID, loc)})
	}
	finish := func() *notice.Result {
		opts.filter(res)
		summarize(res, "USX text check")
		return res
	}

	if serr := xml.WellFormed([]byte(body)); serr != nil {
		add(notice.Notice{Priority: 911, Message: "XML is not well-formed", Details: serr.Message,
			LineNumber: serr.Line, CharacterIndex: notice.At(max(serr.Column-1, 0))})
		return finish()
	}
	doc, err := xml.Parse([]byte(body))
	if err != nil {
		add(notice.Notice{Priority: 911, Message: "XML is not well-formed", Details: err.Error()})
		return finish()
	}
	if root := doc.Root(); root == nil || root.Name() != "usx" {
		name := ""
		if root != nil {
			name = root.Name()
		}
		add(notice.Notice{Priority: 910, Message: "Expected usx root element", Excerpt: name})
		return finish()
	}

	book, _ := doc.First("/usx/book")
	switch {
	case book == nil:
		add(notice.Notice{Priority: 987, Message: "Expected book element with code", Details: "expected '" + bookID + "'"})
	case bookID != "" && !strings.EqualFold(book.Attr("code"), bookID):
		add(notice.Notice{Priority: 987, Message: "Expected book code to match", Excerpt: book.Attr("code"),
			Details: "expected '" + bookID + "'"})
	}

	usxSequence(doc, bookID, add)
	usxStyles(doc, add)

	fields := TextfileContents(lang, repo, FieldUSX, filename, body, location, opts)
	for _, n := range fields.NoticeList {
		n.BookID = bookID
		res.Add(n)
	}

	res.AddSuccess("Checked USX structure" + loc)
	return finish()
}

// usxSequence checks that chapters rise by one and verses rise by one
// within each chapter, allowing bridges.
func usxSequence(doc *xml.Document, bookID string, add func(notice.Notice)) {
	nodes, err := doc.Select(usxMilestones)
	if err != nil {
		return
	}
	C, lastC, lastV := "0", 0, 0
	for _, n := range nodes {
		number := n.Attr("number")
		if n.Name() == "chapter" {
			c, err := strconv.Atoi(number)
			if err != nil {
				add(notice.Notice{Priority: 724, Message: "Unable to convert chapter number to integer", Excerpt: number})
				continue
			}
			if c != lastC+1 {
				add(notice.Notice{Priority: 764, Message: "Chapter number didn't increment correctly",
					Excerpt: fmt.Sprintf("(%d → %d)", lastC, c), C: number})
			}
			C, lastC, lastV = number, c, 0
			continue
		}

		first, last, bridge := strings.Cut(number, "-")
		v1, err1 := strconv.Atoi(first)
		v2 := v1
		var err2 error
		if bridge {
			v2, err2 = strconv.Atoi(last)
		}
		if err1 != nil || err2 != nil {
			add(notice.Notice{Priority: 723, Message: "Unable to convert verse number to integer", Excerpt: number, C: C})
			continue
		}
		if v1 != lastV+1 && !(v1 == 0 && lastV == 0 && bookID == "PSA") {
			add(notice.Notice{Priority: 763, Message: "Verse number didn't increment correctly",
				Excerpt: fmt.Sprintf("(%d → %s)", lastV, number), C: C, V: number})
		}
		if bridge && v2 <= v1 {
			add(notice.Notice{Priority: 769, Message: "Verse bridge numbers not in ascending order", Excerpt: number, C: C, V: number})
		}
		lastV = v2
	}
}

// usxStyles reports para and char styles that use deprecated markers.
func usxStyles(doc *xml.Document, add func(notice.Notice)) {
	nodes, err := doc.Select("//para[@style] | //char[@style]")
	if err != nil {
		return
	}
	seen := map[string]bool{}
	for _, n := range nodes {
		style := n.Attr("style")
		if seen[style] {
			continue
		}
		seen[style] = true
		if rule, ok := usfm.Lookup(style); ok && rule.Deprecated {
			add(notice.Notice{Priority: 811, Message: fmt.Sprintf("Unexpected deprecated '%s' style on %s element", style, n.Name())})
		}
	}
}
