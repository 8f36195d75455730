package check

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/tcvalidate/core/books"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/core/rclink"
	"github.com/FocuswithJustin/tcvalidate/core/text"
)

// Canonical header lines of the supported TSV shapes.
const (
	NotesTSV7Header     = "Reference\tID\tTags\tSupportReference\tQuote\tOccurrence\tNote"
	NotesTSV9Header     = "Book\tChapter\tVerse\tID\tSupportReference\tOrigQuote\tOccurrence\tGLQuote\tOccurrenceNote"
	QuestionsTSV7Header = "Reference\tID\tTags\tQuote\tOccurrence\tQuestion\tResponse"
	TWLTSV6Header       = "Reference\tID\tTags\tOrigWords\tOccurrence\tTWLink"
)

const (
	lcAlphabet             = "abcdefghijklmnopqrstuvwxyz"
	lcAlphabetDigits       = lcAlphabet + "0123456789"
	lcAlphabetDigitsHyphen = lcAlphabetDigits + "-"

	zwsp = string(text.ZeroWidthSpace)
)

// taNoteLinkRe finds double-bracketed TA links inside note text.
var taNoteLinkRe = regexp.MustCompile(`\[\[rc://[^ /]+?/ta/man/[^ /]+?/([^ \]]+?)\]\]`)

// Article prefixes of the "Just-In-Time Training" TA articles, plus the one
// article allowed by name.
var jitPrefixes = []string{"figs-", "grammar-", "translate-", "writing-"}

const jitArticle = "guidelines-sonofgodprinciples"

// rowCheck carries the shared state of one data-row check. Every notice
// gets the caller's bookID and expected C:V regardless of what the row
// itself says.
type rowCheck struct {
	ctx            context.Context
	lang, repo     string
	bookID         string
	givenC, givenV string
	rowID          string

	numChapters int
	goodBook    bool

	win  text.Window
	opts Options
	loc  string
	res  *notice.Result
}

func newRowCheck(ctx context.Context, lang, repo, bookID, C, V, location string, opts Options) *rowCheck {
	return &rowCheck{
		ctx: ctx, lang: lang, repo: repo, bookID: bookID,
		givenC: C, givenV: V,
		win:  opts.window(),
		opts: opts,
		loc:  spaced(location),
		res:  notice.NewResult(),
	}
}

func (r *rowCheck) add(n notice.Notice) {
	if !r.opts.wants(n.Priority) {
		return
	}
	if n.Location == "" {
		n.Location = r.loc
	}
	if n.RowID == "" {
		n.RowID = r.rowID
	}
	n.BookID, n.C, n.V = r.bookID, r.givenC, r.givenV
	r.res.Add(n)
}

// merge re-tags the notices of a sub-check with the row ID and field name.
// Notices about linked or loaded resources keep their Extra attribute.
func (r *rowCheck) merge(sub *notice.Result, fieldName string, keep func(notice.Notice) bool) {
	for _, n := range sub.NoticeList {
		if keep != nil && !keep(n) {
			continue
		}
		n.RowID = r.rowID
		n.FieldName = fieldName
		r.add(n)
	}
	r.res.MergeChecked(sub)
}

// book looks up the chapter count; OBS counts as a book of 50 stories.
func (r *rowCheck) book(caller string) {
	if r.bookID == "OBS" {
		r.numChapters, r.goodBook = numOBSStories, true
		return
	}
	n, ok := books.ChaptersInBook(r.bookID)
	if !ok {
		r.add(notice.Notice{Priority: 979, Message: "Invalid book identifier passed to " + caller,
			Location: fmt.Sprintf(" '%s' in first parameter", r.bookID)})
		return
	}
	r.numChapters, r.goodBook = n, true
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// chapter checks a chapter token and returns the verse count of the
// chapter when it could be determined.
func (r *rowCheck) chapter(fieldName, C, V string) (verses int, ok bool) {
	if C == "" {
		r.add(notice.Notice{Priority: 820, Message: "Missing chapter number", FieldName: fieldName, Excerpt: "?:" + V})
		return 0, false
	}
	if C != r.givenC {
		r.add(notice.Notice{Priority: 976, Message: "Wrong chapter number",
			Details: fmt.Sprintf("expected '%s'", r.givenC), FieldName: fieldName, Excerpt: C})
	}
	if C == "front" {
		return 0, false
	}
	if !digits(C) {
		r.add(notice.Notice{Priority: 821, Message: "Bad chapter number", FieldName: fieldName, Excerpt: C})
		return 0, false
	}
	n, _ := strconv.Atoi(C)
	switch {
	case n == 0:
		r.add(notice.Notice{Priority: 824, Message: "Invalid zero chapter number", FieldName: fieldName, Excerpt: C})
	case r.goodBook && n > r.numChapters:
		r.add(notice.Notice{Priority: 823, Message: "Invalid large chapter number", FieldName: fieldName, Excerpt: C})
	case r.bookID == "OBS":
		return maxOBSFrames, true
	default:
		if v, found := books.VersesInChapter(r.bookID, n); found {
			return v, true
		}
		if !r.goodBook {
			r.add(notice.Notice{Priority: 822, Message: "Unable to check chapter number", FieldName: fieldName, Excerpt: C})
		}
	}
	return 0, false
}

// verse checks a single verse token. Ranges are only accepted where
// allowRange is set.
func (r *rowCheck) verse(fieldName, C, V string, verses int, goodChapter, allowRange bool) {
	if V == "" {
		r.add(notice.Notice{Priority: 810, Message: "Missing verse number", FieldName: fieldName,
			Location: fmt.Sprintf(" after %s:?%s", C, r.loc)})
		return
	}
	if allowRange && strings.Contains(V, "-") {
		r.verseRange(fieldName, C, V, verses, goodChapter)
		return
	}
	if V != r.givenV {
		r.add(notice.Notice{Priority: 975, Message: "Wrong verse number",
			Details: fmt.Sprintf("expected '%s'", r.givenV), FieldName: fieldName, Excerpt: V})
	}
	if r.bookID == "OBS" || V == "intro" {
		return
	}
	if !digits(V) {
		r.add(notice.Notice{Priority: 811, Message: "Bad verse number", FieldName: fieldName, Excerpt: V})
		return
	}
	n, _ := strconv.Atoi(V)
	r.verseNumber(fieldName, C, V, n, n, verses, goodChapter)
}

// verseNumber checks the verse span first-last against the chapter size.
func (r *rowCheck) verseNumber(fieldName, C, V string, first, last, verses int, goodChapter bool) {
	switch {
	case first == 0 && r.bookID != "PSA": // Psalm superscriptions are verse zero
		r.add(notice.Notice{Priority: 814, Message: "Invalid zero verse number", FieldName: fieldName, Excerpt: V})
	case !goodChapter:
		r.add(notice.Notice{Priority: 812, Message: "Unable to check verse number", FieldName: fieldName})
	case last > verses:
		r.add(notice.Notice{Priority: 813, Message: "Invalid large verse number",
			Details: fmt.Sprintf("%s chapter %s only has %d verses", r.bookID, C, verses), FieldName: fieldName, Excerpt: V})
	}
}

func (r *rowCheck) verseRange(fieldName, C, V string, verses int, goodChapter bool) {
	if strings.Count(V, "-") > 1 {
		r.add(notice.Notice{Priority: 808, Message: "Bad verse range", Details: "Too many hyphens", FieldName: fieldName, Excerpt: V})
	}
	parts := strings.Split(V, "-")
	if !digits(parts[0]) || !digits(parts[1]) {
		r.add(notice.Notice{Priority: 808, Message: "Bad verse range", Details: "Should be digits", FieldName: fieldName, Excerpt: V})
		return
	}
	v1, _ := strconv.Atoi(parts[0])
	v2, _ := strconv.Atoi(parts[1])
	given, err := strconv.Atoi(r.givenV)
	switch {
	case err == nil && (given < v1 || given > v2):
		r.add(notice.Notice{Priority: 975, Message: "Wrong verse number",
			Details: fmt.Sprintf("expected '%s' to be inside range", r.givenV), FieldName: fieldName, Excerpt: V})
	case v1 >= v2:
		r.add(notice.Notice{Priority: 808, Message: "Bad verse range", Details: "Second digits should be greater", FieldName: fieldName, Excerpt: V})
	default:
		r.verseNumber(fieldName, C, V, v1, v2, verses, goodChapter)
	}
}

// reference splits a C:V reference column and checks both halves.
func (r *rowCheck) reference(reference string, allowRange bool) (C, V string) {
	C, V, found := strings.Cut(reference, ":")
	if !found && allowRange {
		r.add(notice.Notice{Priority: 901, Message: "Unexpected reference field", Details: "expected C:V",
			FieldName: "Reference", Excerpt: reference})
	}
	verses, ok := r.chapter("Reference", C, V)
	r.verse("Reference", C, V, verses, ok, allowRange)
	return C, V
}

// id checks the four-character row ID and returns a suggested replacement.
func (r *rowCheck) id(rowID string) string {
	if rowID == "" {
		r.add(notice.Notice{Priority: 931, Message: "Missing row ID field", FieldName: "ID"})
		return ""
	}
	runes := []rune(rowID)
	if len(runes) != 4 {
		r.add(notice.Notice{Priority: 778, Message: "Row ID should be exactly 4 characters",
			Details: fmt.Sprintf("not %d", len(runes)), FieldName: "ID", Excerpt: rowID})
		return suggestedID(rowID)
	}
	in := func(set string, i int) bool { return strings.ContainsRune(set, runes[i]) }
	switch {
	case !in(lcAlphabet, 0):
		r.add(notice.Notice{Priority: 176, Message: "Row ID should start with a lowercase letter",
			CharacterIndex: notice.At(0), FieldName: "ID", Excerpt: rowID})
	case !in(lcAlphabetDigits, 3):
		r.add(notice.Notice{Priority: 175, Message: "Row ID should end with a lowercase letter or digit",
			CharacterIndex: notice.At(3), FieldName: "ID", Excerpt: rowID})
	case !in(lcAlphabetDigitsHyphen, 1):
		r.add(notice.Notice{Priority: 174, Message: "Row ID characters should only be lowercase letters, digits, or hypen",
			CharacterIndex: notice.At(1), FieldName: "ID", Excerpt: rowID})
	case !in(lcAlphabetDigitsHyphen, 2):
		r.add(notice.Notice{Priority: 173, Message: "Row ID characters should only be lowercase letters, digits, or hypen",
			CharacterIndex: notice.At(2), FieldName: "ID", Excerpt: rowID})
	default:
		return ""
	}
	return suggestedID(rowID)
}

// suggestedID reshapes rowID into a lowercase letter followed by three
// lowercase letters or digits. Other characters map onto lcAlphabetDigits
// and short IDs are padded at random.
func suggestedID(rowID string) string {
	b := make([]byte, 0, 4)
	for _, c := range strings.ToLower(rowID) {
		if len(b) == 4 {
			break
		}
		if c < utf8.RuneSelf && strings.IndexByte(lcAlphabetDigits, byte(c)) >= 0 {
			b = append(b, byte(c))
			continue
		}
		b = append(b, lcAlphabetDigits[int(c)%len(lcAlphabetDigits)])
	}
	for len(b) < 4 {
		b = append(b, lcAlphabetDigits[rand.IntN(len(lcAlphabetDigits))])
	}
	if strings.IndexByte(lcAlphabet, b[0]) < 0 {
		b[0] = lcAlphabet[int(b[0])%len(lcAlphabet)]
	}
	return string(b)
}

// tags reports every tag not in allowed. Notes and questions have no
// tags defined yet.
func (r *rowCheck) tags(tags string, allowed ...string) {
	if tags == "" {
		return
	}
	for _, tag := range strings.Split(tags, "; ") {
		switch {
		case len(allowed) == 0:
			r.add(notice.Notice{Priority: 746, Message: "Unexpected tag", Details: tag, FieldName: "Tags", Excerpt: tags})
		case !slices.Contains(allowed, tag):
			r.add(notice.Notice{Priority: 740, Message: "Unrecognized tag",
				Details: fmt.Sprintf("found '%s' but expected '%s'", tag, strings.Join(allowed, "' or '")),
				FieldName: "Tags", Excerpt: tags})
		}
	}
}

func (r *rowCheck) textField(fieldName, value string, allowLinks bool) string {
	fieldType := FieldRaw
	if fieldName == "Note" {
		fieldType = FieldMarkdown
	}
	res := TextField(Field{LanguageCode: r.lang, RepoCode: r.repo, Type: fieldType, Name: fieldName,
		Text: value, AllowLinks: allowLinks, Location: r.loc}, r.opts)
	r.merge(res, fieldName, nil)
	return res.Suggestion
}

func (r *rowCheck) zeroWidthSpaces(fieldName, value string) {
	if n := text.CountOccurrences(value, zwsp); n > 0 {
		r.add(notice.Notice{Priority: 374, Message: "Field contains zero-width space(s)",
			Details: plural(n, "occurrence") + " found", FieldName: fieldName,
			CharacterIndex: notice.At(text.Index(value, zwsp))})
	}
}

// supportReference checks the SupportReference column. With fullLink the
// column holds a whole rc://*/ta/man/translate/ link.
func (r *rowCheck) supportReference(ref, note, noteName string, checkTA, fullLink bool) string {
	if ref == "" {
		return ""
	}
	var suggestion string
	if text.IsWhitespace(ref) {
		r.add(notice.Notice{Priority: 373, Message: "Field is only whitespace", FieldName: "SupportReference"})
	} else if checkTA {
		article := ref
		if fullLink {
			article = strings.Replace(ref, rclink.TATranslatePrefix, "", 1)
		}
		if !text.HasAnyPrefix(article, jitPrefixes...) && article != jitArticle {
			r.add(notice.Notice{Priority: 788, Message: "Only 'Just-In-Time Training' TA articles allowed here",
				FieldName: "SupportReference", Excerpt: ref})
		}
		suggestion = r.textField("SupportReference", ref, true)
		if !r.opts.DisableAllLinkFetching {
			taOpts := r.opts
			taOpts.TARepoLanguageCode = r.lang
			taOpts.ExpectFullLink = fullLink
			r.merge(SupportReferenceInTA(r.ctx, "SupportReference", ref, r.loc, taOpts), "SupportReference", nil)
		}
		if !strings.Contains(note, ref) {
			r.add(notice.Notice{Priority: 787, Message: "Link to TA should also be in " + noteName,
				FieldName: "SupportReference", Excerpt: ref})
		}
	}
	r.zeroWidthSpaces("SupportReference", ref)
	return suggestion
}

// quote checks an original-language quote column and resolves it against
// the source text when an occurrence is given.
func (r *rowCheck) quote(fieldName, quote, occurrence string, required bool) string {
	if quote == "" {
		if required {
			r.add(notice.Notice{Priority: 919, Message: "Missing " + fieldName + " field", FieldName: fieldName})
		}
		return ""
	}
	suggestion := r.textField(fieldName, quote, false)
	if occurrence == "" {
		r.add(notice.Notice{Priority: 750, Message: "Missing occurrence field when we have an original quote", FieldName: "Occurrence"})
		return suggestion
	}
	res := OriginalLanguageQuote(r.ctx, r.lang, r.repo, fieldName, quote, occurrence,
		r.bookID, r.givenC, r.givenV, r.loc, r.opts)
	r.merge(res, fieldName, nil)
	return suggestion
}

// occurrence checks the Occurrence column against its quote.
func (r *rowCheck) occurrence(occurrence, quote string) string {
	switch {
	case occurrence == "":
		if quote != "" {
			r.add(notice.Notice{Priority: 791, Message: "Missing occurrence field", FieldName: "Occurrence"})
			return "1"
		}
	case occurrence == "0":
		if quote != "" {
			r.add(notice.Notice{Priority: 751, Message: "Invalid zero occurrence field when we have an original quote",
				FieldName: "Occurrence", Excerpt: occurrence})
			return "1"
		}
	case occurrence == "-1":
	case len(occurrence) != 1 || !strings.Contains("12345678", occurrence):
		r.add(notice.Notice{Priority: 792, Message: "Invalid occurrence field", FieldName: "Occurrence", Excerpt: occurrence})
		return "1"
	}
	return ""
}

// markdownNotice reports whether a markdown notice applies inside a TSV
// note. Ellipsis spacing is normal in notes.
func markdownNotice(n notice.Notice) bool {
	return n.Priority != 178 && n.Priority != 179 && !strings.HasPrefix(n.Message, "Unexpected … character after space")
}

// markdownColumn describes a markdown-bearing column.
type markdownColumn struct {
	name string
	// lineBreak is how the column encodes a newline.
	lineBreak string
	// flagBreaks reports HTML <br> line breaks.
	flagBreaks bool
	required   bool
}

// markdown checks a markdown column. It returns the suggested column text
// and the decoded markdown, which is empty when it was not checked.
func (r *rowCheck) markdown(col markdownColumn, value string) (suggestion, body string) {
	if value == "" {
		if col.required {
			r.add(notice.Notice{Priority: 274, Message: "Missing " + col.name + " field", FieldName: col.name})
		}
		return "", ""
	}
	if col.flagBreaks && strings.Contains(value, "<br>") {
		r.add(notice.Notice{Priority: 674, Message: "Field contains HTML <br> field(s)",
			Details: plural(strings.Count(value, "<br>"), "occurrence") + ` found—should be '\n' instead`, FieldName: col.name})
	}
	r.zeroWidthSpaces(col.name, value)
	if text.IsWhitespace(value) {
		r.add(notice.Notice{Priority: 373, Message: "Field is only whitespace", FieldName: col.name})
		return "", ""
	}
	body = value
	if col.lineBreak != "" {
		body = strings.ReplaceAll(value, col.lineBreak, "\n")
	}
	res := MarkdownText(r.ctx, r.lang, r.repo, col.name, body, r.loc, r.opts)
	r.merge(res, col.name, markdownNotice)
	if res.Suggestion != "" {
		suggestion = res.Suggestion
		if col.lineBreak != "" {
			suggestion = strings.ReplaceAll(suggestion, "\n", col.lineBreak)
		}
	}
	return suggestion, body
}

// noteTALinks cross-checks TA links inside a note against the
// SupportReference column. matchWhole compares the whole link rather than
// just the article name.
func (r *rowCheck) noteTALinks(noteName, body, ref, V string, matchWhole bool) {
	var articles []string
	foundSR := false
	for _, m := range taNoteLinkRe.FindAllStringSubmatch(body, -1) {
		articles = append(articles, m[1])
		target := m[1]
		if matchWhole {
			target = m[0][2 : len(m[0])-2]
		}
		if target == ref {
			foundSR = true
		}
	}
	if len(articles) == 0 || V == "intro" {
		return
	}
	details := "empty SR field"
	if ref != "" {
		details = fmt.Sprintf("SR='%s'", ref)
	}
	excerpt := articles[0]
	if len(articles) > 1 {
		details += fmt.Sprintf("—found %d TA links", len(articles))
		b, _ := json.Marshal(articles)
		excerpt = string(b)
	}
	switch {
	case !foundSR:
		r.add(notice.Notice{Priority: 789, Message: "Should have a SupportReference when " + noteName + " has a TA link",
			Details: details, FieldName: noteName, Excerpt: excerpt})
	case len(articles) > 1:
		r.add(notice.Notice{Priority: 786, Message: "Shouldn’t have multiple TA links in " + noteName,
			Details: details, FieldName: noteName, Excerpt: excerpt})
	}
}

// twLink checks the TWLink column of a word-links row.
func (r *rowCheck) twLink(link string) {
	if link == "" {
		r.add(notice.Notice{Priority: 799, Message: "Missing TWLink field", FieldName: "TWLink"})
		return
	}
	r.zeroWidthSpaces("TWLink", link)
	if text.IsWhitespace(link) {
		r.add(notice.Notice{Priority: 796, Message: "Field is only whitespace", FieldName: "TWLink"})
		return
	}
	if !strings.HasPrefix(link, rclink.TWPrefix) {
		r.add(notice.Notice{Priority: 798, Message: "Field doesn’t contain expected TW link",
			Details: fmt.Sprintf("should start with '%s'", rclink.TWPrefix), FieldName: "TWLink"})
		return
	}
	category, _, _ := strings.Cut(link[len(rclink.TWPrefix):], "/")
	if category != "kt" && category != "names" && category != "other" {
		at := len(rclink.TWPrefix)
		r.add(notice.Notice{Priority: 797, Message: "Field doesn’t contain proper TW link",
			Details: "should be 'kt', 'names', or 'other'", FieldName: "TWLink",
			CharacterIndex: notice.At(at), Excerpt: r.win.Around(link, at)})
		return
	}
	linkOpts := r.opts
	linkOpts.DefaultLanguageCode = linkLanguage(r.lang)
	links := NotesLinksToOutside(r.ctx, r.lang, r.repo, r.bookID, r.givenC, r.givenV, "TWLink", link, r.loc, linkOpts)
	r.merge(links, "TWLink", nil)
}

// fieldCount reports a row with the wrong number of columns.
func (r *rowCheck) fieldCount(fields []string, want, idColumn int) {
	if idColumn < len(fields) {
		r.rowID = fields[idColumn]
	}
	r.add(notice.Notice{Priority: 984, Message: fmt.Sprintf("Found wrong number of TSV fields (expected %d)", want),
		Details: "Found " + plural(len(fields), "field")})
}

// finish exposes the reassembled row when it differs from the input.
func (r *rowCheck) finish(line string, fields []string) *notice.Result {
	if s := strings.Join(fields, "\t"); s != line {
		r.res.Suggestion = s
	}
	return r.res
}

func or(suggestion, original string) string {
	if suggestion != "" {
		return suggestion
	}
	return original
}

// NotesTSV7Row checks one row of a 7-column translation notes table:
// Reference, ID, Tags, SupportReference, Quote, Occurrence and Note.
// C and V are the chapter and verse the caller expects the row to carry.
func NotesTSV7Row(ctx context.Context, lang, repo, line, bookID, C, V, location string, opts Options) *notice.Result {
	r := newRowCheck(ctx, lang, repo, bookID, C, V, location, opts)
	if line == NotesTSV7Header {
		return r.res
	}
	fields := strings.Split(line, "\t")
	if len(fields) != 7 {
		r.fieldCount(fields, 7, 1)
		return r.res
	}
	r.book("NotesTSV7Row")
	reference, rowID, tags, ref, quote, occurrence, note := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]
	r.rowID = rowID
	_, rowV := r.reference(reference, false)
	idSuggestion := r.id(rowID)
	r.tags(tags)
	tn2 := repo == "TN2"
	refSuggestion := r.supportReference(ref, note, "Note", tn2, true)
	quoteSuggestion := r.quote("Quote", quote, occurrence, tn2 && rowV != "intro" && occurrence != "0")
	occSuggestion := r.occurrence(occurrence, quote)
	noteSuggestion, body := r.markdown(markdownColumn{name: "Note", lineBreak: `\n`, flagBreaks: true, required: tn2}, note)
	if body != "" {
		r.noteTALinks("Note", body, ref, rowV, true)
	}
	return r.finish(line, []string{reference, or(idSuggestion, rowID), tags, or(refSuggestion, ref),
		or(quoteSuggestion, quote), or(occSuggestion, occurrence), or(noteSuggestion, note)})
}

// NotesTSV9Row checks one row of a 9-column translation notes table with
// separate Book, Chapter and Verse columns.
func NotesTSV9Row(ctx context.Context, lang, repo, line, bookID, C, V, location string, opts Options) *notice.Result {
	r := newRowCheck(ctx, lang, repo, bookID, C, V, location, opts)
	if line == NotesTSV9Header {
		return r.res
	}
	fields := strings.Split(line, "\t")
	if len(fields) != 9 {
		r.fieldCount(fields, 9, 3)
		return r.res
	}
	r.book("NotesTSV9Row")
	B, rowC, rowV, rowID := fields[0], fields[1], fields[2], fields[3]
	ref, quote, occurrence, glQuote, note := fields[4], fields[5], fields[6], fields[7], fields[8]
	r.rowID = rowID

	if B == "" {
		r.add(notice.Notice{Priority: 977, Message: "Missing book identifier", FieldName: "Book"})
	} else if B != bookID {
		r.add(notice.Notice{Priority: 978, Message: "Wrong book identifier",
			Details: fmt.Sprintf("expected '%s'", bookID), FieldName: "Book", Excerpt: B})
	}
	verses, ok := r.chapter("Chapter", rowC, rowV)
	r.verse("Verse", rowC, rowV, verses, ok, false)

	idSuggestion := r.id(rowID)
	refSuggestion := r.supportReference(ref, note, "OccurrenceNote", true, false)
	quoteSuggestion := r.quote("OrigQuote", quote, occurrence, rowV != "intro" && occurrence != "0")
	occSuggestion := r.occurrence(occurrence, quote)

	var glSuggestion string
	if glQuote != "" {
		r.zeroWidthSpaces("GLQuote", glQuote)
		if text.IsWhitespace(glQuote) {
			r.add(notice.Notice{Priority: 373, Message: "Field is only whitespace", FieldName: "GLQuote"})
		} else if rowV != "intro" {
			glSuggestion = r.textField("GLQuote", glQuote, false)
		}
	}

	noteSuggestion, body := r.markdown(markdownColumn{name: "OccurrenceNote", lineBreak: "<br>", required: true}, note)
	if body != "" {
		r.noteTALinks("OccurrenceNote", body, ref, rowV, false)
	}
	return r.finish(line, []string{B, rowC, rowV, or(idSuggestion, rowID), or(refSuggestion, ref),
		or(quoteSuggestion, quote), or(occSuggestion, occurrence), or(glSuggestion, glQuote), or(noteSuggestion, note)})
}

// QuestionsTSV7Row checks one row of a 7-column translation questions
// table. Its Reference column may hold a verse range.
func QuestionsTSV7Row(ctx context.Context, lang, repo, line, bookID, C, V, location string, opts Options) *notice.Result {
	r := newRowCheck(ctx, lang, repo, bookID, C, V, location, opts)
	if line == QuestionsTSV7Header {
		return r.res
	}
	fields := strings.Split(line, "\t")
	if len(fields) != 7 {
		r.fieldCount(fields, 7, 1)
		return r.res
	}
	r.book("QuestionsTSV7Row")
	reference, rowID, tags, quote, occurrence, question, response := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]
	r.rowID = rowID
	_, rowV := r.reference(reference, true)
	idSuggestion := r.id(rowID)
	r.tags(tags)
	quoteSuggestion := r.quote("Quote", quote, occurrence, bookID == "OBS" && rowV != "intro" && occurrence != "0")
	occSuggestion := r.occurrence(occurrence, quote)
	tq2 := repo == "TQ2"
	questionSuggestion, _ := r.markdown(markdownColumn{name: "Question", flagBreaks: true, required: tq2}, question)
	responseSuggestion, _ := r.markdown(markdownColumn{name: "Response", flagBreaks: true, required: tq2}, response)
	return r.finish(line, []string{reference, or(idSuggestion, rowID), tags, or(quoteSuggestion, quote),
		or(occSuggestion, occurrence), or(questionSuggestion, question), or(responseSuggestion, response)})
}

// TWLTSV6Row checks one row of a 6-column translation words links table.
func TWLTSV6Row(ctx context.Context, lang, repo, line, bookID, C, V, location string, opts Options) *notice.Result {
	r := newRowCheck(ctx, lang, repo, bookID, C, V, location, opts)
	if line == TWLTSV6Header {
		return r.res
	}
	fields := strings.Split(line, "\t")
	if len(fields) != 6 {
		r.fieldCount(fields, 6, 1)
		return r.res
	}
	r.book("TWLTSV6Row")
	reference, rowID, tags, origWords, occurrence, link := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5]
	r.rowID = rowID
	_, rowV := r.reference(reference, false)
	idSuggestion := r.id(rowID)
	r.tags(tags, "keyterm", "name")
	quoteSuggestion := r.quote("OrigWords", origWords, occurrence, rowV != "intro" && occurrence != "0")
	occSuggestion := r.occurrence(occurrence, origWords)
	r.twLink(link)
	return r.finish(line, []string{reference, or(idSuggestion, rowID), tags, or(quoteSuggestion, origWords),
		or(occSuggestion, occurrence), link})
}
