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
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
	"github.com/FocuswithJustin/tcvalidate/internal/usfm"
)

const (
	wordStartChars = ` ־*[("'“‘—`
	wordEndChars   = ` ׃־.,:;?!–—)…`
)

// Invisible characters trimmed from quote segment ends before locating
// them. A zero-width joiner is deliberately not in this set.
const quoteTrimChars = " \u2060\u200C"

// quoteDivider returns the divider between discontiguous quote segments
// and the divider that is wrong for this repo.
func quoteDivider(repo string) (divider, wrong string) {
	if repo == "TN" {
		return "…", "&"
	}
	return " & ", "…"
}

type quoteCheck struct {
	lang, repo        string
	bookID, C, V      string
	quote, occurrence string
	divider           string
	win               text.Window
	opts              Options
	loc               string
	res               *notice.Result
	verse             string
}

func (q *quoteCheck) add(n notice.Notice) {
	if q.opts.wants(n.Priority) {
		if n.Location == "" {
			n.Location = q.loc
		}
		q.res.Add(n)
	}
}

// OriginalLanguageQuote locates quote inside the original-language text of
// bookID C:V and reports segments that are missing, out of order, not on
// word boundaries, or fewer than the requested occurrence. An occurrence of
// "-1" selects the last occurrence and "0" skips resolution.
func OriginalLanguageQuote(ctx context.Context, lang, repo, fieldName, quote, occurrence, bookID, C, V, location string, opts Options) *notice.Result {
	q := &quoteCheck{
		lang: lang, repo: repo, bookID: bookID, C: C, V: V,
		quote: quote, occurrence: occurrence,
		win:  opts.window(),
		opts: opts,
		loc:  spaced(location),
		res:  notice.NewResult(),
	}
	divider, wrong := quoteDivider(repo)
	q.divider = divider

	if i := text.Index(quote, wrong); i >= 0 {
		q.add(notice.Notice{Priority: 918, Message: "Seems like the wrong divider for discontiguous quote segments",
			Details: "expected ◗" + divider + "◖", CharacterIndex: notice.At(i), Excerpt: q.win.Around(quote, i)})
	}
	if divider == "…" {
		if i := text.Index(quote, "..."); i >= 0 {
			q.add(notice.Notice{Priority: 159, Message: "Should use proper ellipse character (not periods)",
				CharacterIndex: notice.At(i), Excerpt: q.win.Around(quote, i)})
		}
	}

	var segments []string
	switch {
	case strings.Contains(quote, divider):
		segments = strings.Split(quote, divider)
		i := text.Index(quote, " "+divider)
		if i < 0 {
			i = text.Index(quote, divider+" ")
		}
		if i >= 0 {
			q.add(notice.Notice{Priority: 158, Message: "Unexpected space(s) beside divider " + divider,
				CharacterIndex: notice.At(i), Excerpt: q.win.Around(quote, i)})
		}
	case divider == "…" && strings.Contains(quote, "..."):
		segments = strings.Split(quote, "...")
		i := text.Index(quote, " ...")
		if i < 0 {
			i = text.Index(quote, "... ")
		}
		if i >= 0 {
			q.add(notice.Notice{Priority: 156, Message: "Unexpected space(s) beside ellipse characters",
				CharacterIndex: notice.At(i), Excerpt: q.win.Around(quote, i)})
		}
	}

	occ, err := strconv.Atoi(occurrence)
	if err != nil {
		// Bad occurrence values are reported by the row checker.
		occ = 1
	}
	if occ == 0 {
		return q.res
	}

	q.verse = opts.OriginalLanguageVerseText
	if q.verse == "" {
		if !opts.fetching() {
			return q.res
		}
		q.verse = q.originalPassage(ctx)
		if q.verse == "" {
			msg := "Unable to load original language verse text"
			if bookID == "OBS" {
				msg = "Unable to load OBS story text"
			}
			q.add(notice.Notice{Priority: 851, Message: msg})
			return q.res
		}
	}

	if segments == nil {
		q.single(occ)
		return q.res
	}
	if occ != 1 {
		q.add(notice.Notice{Priority: 50, Message: "Is this quote/occurrence correct???",
			Details: fmt.Sprintf("Occurrence=%d", occ), Excerpt: quote})
	}
	if len(segments) < 2 {
		q.add(notice.Notice{Priority: 815, Message: "Divider without surrounding snippet"})
		return q.res
	}
	at := -1
	for i, seg := range segments {
		part := partName(i, len(segments))
		target := strings.Trim(seg, quoteTrimChars)
		if target == "" {
			q.add(notice.Notice{Priority: 815, Message: "Divider without surrounding snippet"})
			continue
		}
		if at = text.IndexFrom(q.verse, target, at+1); at < 0 {
			if strings.Contains(q.verse, target) {
				q.add(notice.Notice{Priority: 914,
					Message: "Unable to find original language quote portion in the right place in the verse text",
					Details: "verse text ◗" + q.verse + "◖", Excerpt: fmt.Sprintf("(%s quote portion) '%s'", part, seg)})
			} else {
				q.notFound(seg, part)
			}
			continue
		}
		q.found(target, part, occurrenceSlice(q.verse, target, occ))
	}
	return q.res
}

func (q *quoteCheck) single(occ int) {
	target := strings.Trim(q.quote, quoteTrimChars)
	if target == "" || !strings.Contains(q.verse, target) {
		q.notFound(q.quote, "")
		return
	}
	count := strings.Count(q.verse, target)
	if occ > count {
		found := "no"
		if count > 0 {
			found = fmt.Sprintf("only %d", count)
		}
		noun := "occurrences"
		if count == 1 {
			noun = "occurrence"
		}
		q.add(notice.Notice{Priority: 917, Message: "Unable to find duplicate original language quote in verse text",
			Details: fmt.Sprintf("occurrence=%s but %s %s found, passage ◗%s◖", q.occurrence, found, noun, q.verse),
			Excerpt: q.shortened(q.quote)})
		return
	}
	q.found(target, "", occurrenceSlice(q.verse, target, occ))
}

// occurrenceSlice returns the verse text from the end of the previous
// occurrence of seg to the start of the next one, so word boundary checks
// look at the requested occurrence.
func occurrenceSlice(verse, seg string, occ int) string {
	bits := strings.Split(verse, seg)
	if occ < 0 {
		occ = len(bits) - 1
	}
	if occ < 1 || occ >= len(bits) {
		return verse
	}
	return bits[occ-1] + seg + bits[occ]
}

func partName(i, n int) string {
	switch {
	case n == 1:
		return ""
	case i == 0:
		return "beginning"
	case i == n-1:
		return "end"
	case n > 3:
		return fmt.Sprintf("middle%d", i)
	default:
		return "middle"
	}
}

func (q *quoteCheck) occurrenceSuffix() string {
	if q.occurrence == "" {
		return ""
	}
	return " occurrence=" + q.occurrence
}

// found checks that a located segment starts and ends on word boundaries.
func (q *quoteCheck) found(seg, part, partial string) {
	details := "verse text ◗" + q.verse + "◖"
	if part != "" {
		details = fmt.Sprintf("%s part of quote = \"%s\" -- %s", part, seg, details)
	}
	before, after, ok := strings.Cut(partial, seg)
	if !ok {
		return
	}
	multiword := strings.Contains(seg, " ")
	room := q.win.Length - 3
	segRunes := []rune(seg)

	if before != "" && seg[0] != ' ' {
		prev := []rune(before)[len([]rune(before))-1]
		if !strings.ContainsRune(wordStartChars, prev) && (multiword || !strings.Contains(partial, " "+seg)) {
			var desc string
			switch prev {
			case text.WordJoiner:
				desc = "WordJoiner"
			case text.ZeroWidthJoiner:
				desc = "ZeroWidth-WordJoiner"
			default:
				desc = fmt.Sprintf("%c=D%d/H%x", prev, prev, prev)
			}
			excerpt := "(" + desc + ")" + text.Substring(seg, 0, room)
			if len(segRunes) > room {
				excerpt += text.Ellipsis
			}
			priority := 389
			if multiword || !strings.Contains(q.verse, " "+seg) {
				priority = 909
			}
			q.add(notice.Notice{Priority: priority, Message: "Seems original language quote might not start at the beginning of a word",
				Details: details, CharacterIndex: notice.At(0), Excerpt: excerpt + q.occurrenceSuffix()})
		}
	}

	if after != "" && !strings.HasSuffix(seg, " ") {
		next := []rune(after)[0]
		following := regexp.MustCompile(regexp.QuoteMeta(seg) + "[" + regexp.QuoteMeta(wordEndChars) + "]")
		if !strings.ContainsRune(wordEndChars, next) && (multiword || !following.MatchString(partial)) {
			var excerpt string
			if len(segRunes) > room {
				excerpt = text.Ellipsis
			}
			excerpt += text.Substring(seg, len(segRunes)-room, len(segRunes))
			excerpt += fmt.Sprintf("(%c=D%d/H%x)", next, next, next)
			priority := 388
			if multiword || !following.MatchString(q.verse) {
				priority = 908
			}
			q.add(notice.Notice{Priority: priority, Message: "Seems original language quote might not finish at the end of a word",
				Details: details, CharacterIndex: notice.At(len(segRunes)), Excerpt: excerpt + q.occurrenceSuffix()})
		}
	}
}

// notFound reports a segment missing from the verse, naming any
// suspicious character at either end.
func (q *quoteCheck) notFound(seg, part string) {
	excerpt := ""
	if part != "" {
		excerpt = fmt.Sprintf("(%s quote portion) '%s'", part, seg)
	}
	nbsp := ""
	if strings.Contains(seg, "\u00A0") {
		nbsp = "quote which contains No-Break Space shown as '⍽'"
		seg = text.ShowNoBreakSpaces(seg)
	}
	withNBSP := func(d string) string {
		if nbsp != "" {
			return d + " " + nbsp
		}
		return d
	}

	var details string
	atStart := true
	runes := []rune(seg)
	switch {
	case len(runes) == 0:
		details = "verse text ◗" + q.verse + "◖"
	case runes[0] == ' ':
		details = "quote which starts with a space"
	case runes[len(runes)-1] == ' ':
		details, atStart = "quote which ends with a space", false
	case runes[0] == text.WordJoiner:
		details = "quote which starts with 'word joiner'"
	case runes[len(runes)-1] == text.WordJoiner:
		details, atStart = "quote which ends with 'word joiner'", false
	case runes[0] == text.ZeroWidthSpace:
		details = "quote which starts with 'zero-width space'"
	case runes[len(runes)-1] == text.ZeroWidthSpace:
		details, atStart = "quote which ends with 'zero-width space'", false
	case runes[0] == text.ZeroWidthJoiner:
		details = "quote which starts with 'zero-width joiner'"
	case runes[len(runes)-1] == text.ZeroWidthJoiner:
		details, atStart = "quote which ends with 'zero-width joiner'", false
	default:
		if excerpt == "" {
			excerpt = q.shortened(seg)
		}
		details = nbsp
		if details == "" {
			details = "verse text ◗" + q.verse + "◖"
		}
		q.add(notice.Notice{Priority: 916, Message: "Unable to find original language quote in verse text",
			Details: details, Excerpt: excerpt})
		return
	}
	if excerpt == "" {
		if atStart {
			excerpt = q.win.Head(seg)
		} else {
			excerpt = q.win.Tail(seg)
		}
	}
	q.add(notice.Notice{Priority: 916, Message: "Unable to find original language quote in verse text",
		Details: withNBSP(details), Excerpt: excerpt})
}

// shortened keeps both ends of a long quote.
func (q *quoteCheck) shortened(s string) string {
	n := text.RuneLen(s)
	if n <= q.win.Length {
		return s
	}
	out := text.Substring(s, 0, q.win.Half)
	if n > 2*q.win.Half {
		out += text.Ellipsis
	}
	return out + text.Substring(s, n-q.win.Half, n)
}

// originalPassage fetches the original-language verse, or the OBS frame
// text. Fetch failures are reported as notices and yield "".
func (q *quoteCheck) originalPassage(ctx context.Context) string {
	username := q.opts.OriginalLanguageRepoUsername
	if username == "" {
		username = defaultUsername(q.lang)
	}
	branch := q.opts.OriginalLanguageRepoBranch
	if branch == "" {
		branch = fetch.DefaultBranch
	}

	if q.bookID == "OBS" {
		repoName := q.lang + "_obs"
		path := fmt.Sprintf("content/%s.md", twoDigits(q.C))
		story, ok := q.load(ctx, username, repoName, path, branch)
		if !ok {
			return ""
		}
		return obsFrame(story, q.C, q.V)
	}

	testament, ok := books.TestamentOf(q.bookID)
	stem, stemOK := books.UsfmNumberName(q.bookID)
	if !ok || !stemOK {
		return ""
	}
	repoName := "el-x-koine_ugnt"
	if testament == books.OT {
		repoName = "hbo_uhb"
	}
	content, ok := q.load(ctx, username, repoName, stem+".usfm", branch)
	if !ok {
		return ""
	}
	return usfm.VerseText(content, q.C, q.V)
}

func (q *quoteCheck) load(ctx context.Context, username, repoName, path, branch string) (string, bool) {
	content, err := q.opts.Fetcher.GetFile(ctx, fetch.Request{Username: username, Repository: repoName, Path: path, Branch: branch})
	if err != nil {
		logging.FetchFailed(ctx, username, repoName, path, branch, err)
		q.add(notice.Notice{Priority: 601, Message: "Unable to load",
			Details:  fmt.Sprintf("username=%s error=%v", username, err),
			Filename: path, Extra: repoName})
		return "", false
	}
	return content, true
}

// obsFrame extracts the text of one story frame. Frames are introduced by
// an image line naming "-CC-VV." and run until the next image.
func obsFrame(story, C, V string) string {
	search := fmt.Sprintf("-%s-%s.", twoDigits(C), twoDigits(V))
	inFrame := V == "intro"
	var b strings.Builder
	for _, line := range strings.Split(story, "\n") {
		if line == "" {
			continue
		}
		if strings.Index(line, search) > 0 {
			inFrame = true
			continue
		}
		if inFrame {
			if strings.Index(line, "[OBS Image]") > 0 {
				break
			}
			b.WriteString(line)
		}
	}
	return b.String()
}

func twoDigits(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// defaultUsername picks the organisation that publishes a language's
// resources.
func defaultUsername(lang string) string {
	if lang == "en" {
		return "unfoldingWord"
	}
	return "Door43-Catalog"
}
