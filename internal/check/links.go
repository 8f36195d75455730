package check

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/tcvalidate/core/books"
	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/core/rclink"
	"github.com/FocuswithJustin/tcvalidate/core/text"
	"github.com/FocuswithJustin/tcvalidate/internal/cache"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
)

const (
	numOBSStories = 50
	maxOBSFrames  = 99
)

// bookNamePart captures an optional "1 "/"2 "/"3 " prefix and an optional
// book name before a chapter:verse pair.
const bookNamePart = `((?:1 |2 |3 )?)((?:[\w ]+? )?)`

var (
	missingFolderSlashRe = regexp.MustCompile(`\d]\(\.\.\d`)

	generalLink1Re = regexp.MustCompile(`\[[^\]]+?\]\([^\)]+?\)`)
	generalLink2Re = regexp.MustCompile(`\[\[[^\]]+?\]\]`)

	taDoubleBracketedRe = regexp.MustCompile(`\[\[rc://([^ /]+?)/ta/man/([^ /]+?)/([^ \]]+?)\]\]`)
	taFullDisplayRe     = regexp.MustCompile(`\[([^\]]+?)\]\(rc://([^ /]+?)/ta/man/([^ /]+?)/([^ \]]+?)\)`)
	taRelative1Re       = regexp.MustCompile(`\[([^\]]+?)\]\(\.{2}/([^ /\]]+?)/01\.md\)`)
	taRelative2Re       = regexp.MustCompile(`\[([^\]]+?)\]\(\.{2}/\.{2}/([^ /\]]+?)/([^ /\]]+?)/01\.md\)`)

	twDoubleBracketedRe = regexp.MustCompile(`\[\[rc://([^ /]+?)/tw/dict/bible/([^ /]+?)/([^ /\]]+?)\]\]`)
	twlRawRe            = regexp.MustCompile(`rc://([^ /]+?)/tw/dict/bible/([^ /]+?)/(.+)`)
	twInternalRe        = regexp.MustCompile(`\[([-,\w ()]+?)\]\(\.{2}/([a-z]{2,5})/([-A-Za-z12]{2,20})\.md\)`)

	otherBookAbsoluteRe   = regexp.MustCompile(`\[` + bookNamePart + `(\d{1,3}):(\d{1,3})\]\(([123a-z]{3})/(\d{1,3})/(\d{1,3})\.md\)`)
	otherBookRelativeRe   = regexp.MustCompile(`\[` + bookNamePart + `(\d{1,3}):(\d{1,3})\]\((?:\.{2}/)?\.{2}/([123a-z]{3})/(\d{1,3})/(\d{1,3})\.md\)`)
	thisBookRelativeRe    = regexp.MustCompile(`\[` + bookNamePart + `(\d{1,3}):(\d{1,3})\]\(\.{2}/(\d{1,3})/(\d{1,3})\.md\)`)
	rangeToOtherBookRe    = regexp.MustCompile(`\[` + bookNamePart + `(\d{1,3}):(\d{1,3})[–-](\d{1,3})\]\((?:\.{2})/([123a-z]{3})/(\d{1,3})/(\d{1,3})\.md\)`)
	rangeToThisBookRe     = regexp.MustCompile(`\[` + bookNamePart + `(\d{1,3}):(\d{1,3})[–-](\d{1,3})\]\((\.{2})/(\d{1,3})/(\d{1,3})\.md\)`)
	rangeToThisChapterRe  = regexp.MustCompile(`\[` + bookNamePart + `(\d{1,3}):(\d{1,3})[–-](\d{1,3})\]\(\./(\d{1,3})\.md\)`)
	thisChapterRelativeRe = regexp.MustCompile(`\[` + bookNamePart + `(?:(\d{1,3}):)?(\d{1,3})\]\(\./(\d{1,3})\.md\)`)
	verseToThisChapterRe  = regexp.MustCompile(`\[(?:verse )?(\d{1,3})\]\(\.{2}/(\d{1,3})/(\d{1,3})\.md\)`)
	versesToThisChapterRe = regexp.MustCompile(`\[(?:verses )?(\d{1,3})[–-](\d{1,3})\]\(\.{2}/(\d{1,3})/(\d{1,3})\.md\)`)

	tnHelpCVRe = regexp.MustCompile(`\[` + bookNamePart + `(\d{1,3}):(\d{1,3})(?:[–-]\d{1,3})?\]\(rc://([^ /]+?)/tn/help/([123a-z]{3})/(\d{1,3})/(\d{1,3})\)`)
	tnHelpCRe  = regexp.MustCompile(`\[` + bookNamePart + `(\d{1,3})\]\(rc://([^ /]+?)/tn/help/([123a-z]{3})/(\d{1,3})/(\d{1,3})\)`)
	tnNoteRe   = regexp.MustCompile(`\[` + bookNamePart + `(\d{1,3}):(\d{1,3})\]\((\.{2})/(\d{1,3})/(\d{1,3})/([a-z][a-z0-9][a-z0-9][a-z0-9])\)`)

	webLinkRe     = regexp.MustCompile(`\[([^\]]+?)\]\((https?://[^\)]+?)\)`)
	simpleImageRe = regexp.MustCompile(`!\[([^\]]*?)\]\(([^ "\)]+?)\)`)
	titledImageRe = regexp.MustCompile(`!\[([^\]]*?)\]\(([^ \)]+?) "([^"\)]+?)"\)`)
	obsLinkRe     = regexp.MustCompile(`\[(\d?\d):(\d?\d)\]\((\d\d)/(\d\d)\)`)
)

// linkKind names a family of chapter/verse links in messages and picks
// its priorities.
type linkKind struct {
	noun          string // in "numbers don’t match" messages
	rangeNoun     string // in "bad number" messages
	verseMismatch int
	badChapter    int
	badVerse      int
}

var (
	bibleLink  = linkKind{noun: "Bible link", rangeNoun: "Bible link", verseMismatch: 742, badChapter: 655, badVerse: 653}
	tnHelpLink = linkKind{noun: "TN link", rangeNoun: "TN help link", verseMismatch: 742, badChapter: 655, badVerse: 653}
	tnNoteLink = linkKind{noun: "TN link", rangeNoun: "TN link", verseMismatch: 752, badChapter: 656, badVerse: 654}
)

type linkCheck struct {
	ctx         context.Context
	lang, repo  string
	bookID      string
	fieldName   string
	field       string
	defaultLang string
	givenC      int
	haveCV      bool

	taUser, taBranch string
	twUser, twBranch string

	win       text.Window
	opts      Options
	loc       string
	res       *notice.Result
	processed []string
}

func newLinkCheck(ctx context.Context, lang, repo, bookID, fieldName, field, location string, opts Options) *linkCheck {
	l := &linkCheck{
		ctx: ctx, lang: lang, repo: repo, bookID: bookID,
		fieldName: fieldName, field: field,
		defaultLang: opts.DefaultLanguageCode,
		win:         opts.window(),
		opts:        opts,
		loc:         spaced(location),
		res:         notice.NewResult(),
	}
	if l.defaultLang == "" {
		l.defaultLang = linkLanguage(lang)
	}
	if l.defaultLang == "" {
		l.defaultLang = "en"
	}
	l.taUser, l.taBranch = opts.TARepoUsername, opts.TARepoBranch
	if l.taUser == "" {
		l.taUser = defaultUsername(l.defaultLang)
	}
	if l.taBranch == "" {
		l.taBranch = fetch.DefaultBranch
	}
	l.twUser, l.twBranch = opts.TWRepoUsername, opts.TWRepoBranch
	if l.twUser == "" {
		l.twUser = defaultUsername(l.defaultLang)
	}
	if l.twBranch == "" {
		l.twBranch = fetch.DefaultBranch
	}
	return l
}

func (l *linkCheck) add(n notice.Notice) {
	if !l.opts.wants(n.Priority) {
		return
	}
	if n.Location == "" {
		n.Location = l.loc
	}
	if l.bookID != "" {
		n.BookID = l.bookID
	}
	n.FieldName = l.fieldName
	l.res.Add(n)
}

// each calls fn for every match of re with the submatches and the rune
// index of the match.
func (l *linkCheck) each(re *regexp.Regexp, fn func(m []string, at int)) {
	for _, idx := range re.FindAllStringSubmatchIndex(l.field, -1) {
		m := make([]string, len(idx)/2)
		for i := range m {
			if idx[2*i] >= 0 {
				m[i] = l.field[idx[2*i]:idx[2*i+1]]
			}
		}
		fn(m, utf8.RuneCountInString(l.field[:idx[0]]))
	}
}

// eachLink is each for link families that count as recognized links.
func (l *linkCheck) eachLink(re *regexp.Regexp, fn func(m []string, at int)) {
	l.each(re, func(m []string, at int) {
		l.processed = append(l.processed, m[0])
		fn(m, at)
	})
}

// NotesLinksToOutside checks every link embedded in a notes field or
// markdown line: Translation Academy and Translation Words articles,
// Translation Notes help links, Bible cross-references, OBS frames, images
// and web pages. bookID, C and V may be empty when the text is not tied to
// a verse.
func NotesLinksToOutside(ctx context.Context, lang, repo, bookID, C, V, fieldName, field, location string, opts Options) *notice.Result {
	l := newLinkCheck(ctx, lang, repo, bookID, fieldName, field, location, opts)
	if C != "" && V != "" {
		l.haveCV = true
		if C != "front" {
			c, err := strconv.Atoi(C)
			l.givenC, l.haveCV = c, err == nil
		}
	}

	switch fieldName {
	case "x-tw", "TWLink", "SupportReference":
		l.surroundingWhitespace()
	}
	l.each(missingFolderSlashRe, func(_ []string, at int) {
		i := at + 4
		l.add(notice.Notice{Priority: 753, Message: "Link target is missing a forward slash",
			CharacterIndex: notice.At(i), Excerpt: l.win.Around(field, i)})
	})
	l.images()

	single := generalLink1Re.FindAllString(field, -1)
	double := generalLink2Re.FindAllString(field, -1)

	l.eachLink(twInternalRe, func(m []string, _ int) {
		l.article(articleLink{resource: "TW", lang: l.defaultLang, link: m[0],
			path:     "bible/" + m[2] + "/" + strings.TrimSpace(m[3]) + ".md",
			treeOnly: opts.DisableLinkedTWArticlesCheck && repo != "TW"})
	})
	l.eachLink(taFullDisplayRe, func(m []string, at int) {
		l.wildcard(m[2], at+utf8.RuneCountInString("["+m[1]+"](rc://"))
		path := m[3] + "/" + m[4] + "/01.md"
		l.article(articleLink{resource: "TA", lang: l.linkLang(m[2]), link: m[0], path: path,
			treeOnly: opts.DisableLinkedTAArticlesCheck, recurse: true})
	})
	if repo == "TA" || strings.HasPrefix(fieldName, "TA ") {
		l.taRelative()
	}
	l.eachLink(taDoubleBracketedRe, func(m []string, at int) {
		l.wildcard(m[1], at+7)
		path := m[2] + "/" + m[3] + "/01.md"
		l.article(articleLink{resource: "TA", lang: l.linkLang(m[1]), link: m[0], path: path,
			treeOnly: opts.DisableLinkedTAArticlesCheck, recurse: true})
	})
	twRe := twDoubleBracketedRe
	if fieldName == "TWLink" {
		twRe = twlRawRe
	}
	l.eachLink(twRe, func(m []string, _ int) {
		filename := strings.TrimSpace(m[3]) + ".md"
		l.article(articleLink{resource: "TW", lang: l.linkLang(m[1]), link: m[0],
			path: "bible/" + m[2] + "/" + filename, name: filename,
			treeOnly: opts.DisableLinkedTWArticlesCheck, recurse: true})
	})

	l.tnHelpLinks()
	l.bibleLinks()
	l.tnNoteLinks()
	if strings.HasPrefix(repo, "OBS-") {
		l.obsLinks()
	}
	l.webLinks()

	l.leftovers(single, 648, "Unusual [ ]( ) link(s)—not a recognized Bible, OBS, or TA, TN, or TW link")
	l.leftovers(double, 649, "Unusual [[ ]] link(s)—not a recognized TA or TW link")
	l.brackets()
	return l.res
}

func (l *linkCheck) surroundingWhitespace() {
	f := l.field
	switch {
	case text.TrimStartWhitespace(f) != f:
		l.add(notice.Notice{Priority: 784, Message: "Unexpected leading whitespace in link field",
			CharacterIndex: notice.At(0), Excerpt: l.win.Head(f, text.ShowSpaces)})
	case text.TrimEndWhitespace(f) != f:
		l.add(notice.Notice{Priority: 785, Message: "Unexpected trailing whitespace in link field",
			CharacterIndex: notice.At(text.RuneLen(f) - 1), Excerpt: l.win.Tail(f, text.ShowSpaces)})
	}
}

func (l *linkCheck) linkLang(found string) string {
	if found == "" || found == "*" {
		return l.defaultLang
	}
	return found
}

// wildcard reports rc:// links that name a language instead of "*".
func (l *linkCheck) wildcard(found string, at int) {
	switch {
	case found != "*":
		l.add(notice.Notice{Priority: 450, Message: "Resource container link should have '*' language code",
			Details: "not ‘" + found + "’", CharacterIndex: notice.At(at), Excerpt: l.win.Around(l.field, at)})
	case l.repo == "TN":
		l.add(notice.Notice{Priority: 950, Message: "tC cannot yet process '*' language code",
			CharacterIndex: notice.At(at), Excerpt: l.win.Around(l.field, at)})
	}
}

func (l *linkCheck) images() {
	l.each(simpleImageRe, func(m []string, _ int) {
		l.image(m[0], m[1], m[2], "", false)
	})
	l.each(titledImageRe, func(m []string, _ int) {
		l.image(m[0], m[1], m[2], m[3], true)
	})
}

func (l *linkCheck) image(total, alt, target, title string, titled bool) {
	// The general [ ]( ) scan sees images without their "!".
	l.processed = append(l.processed, strings.TrimPrefix(total, "!"))
	if alt == "" {
		l.add(notice.Notice{Priority: 199, Message: "Markdown image link has no alternative text", Excerpt: total})
	}
	if titled && title == "" {
		l.add(notice.Notice{Priority: 348, Message: "Markdown image link has no title text", Excerpt: total})
	}
	if !strings.HasPrefix(target, "https://") {
		l.add(notice.Notice{Priority: 749, Message: "Markdown image link seems faulty", Excerpt: target})
		return
	}
	if !l.webFetching() {
		return
	}
	content, err := l.opts.Web.GetURL(l.ctx, target)
	if err != nil || len(content) <= 10 {
		l.add(notice.Notice{Priority: 748, Message: "Error fetching markdown image link", Excerpt: target})
	}
}

func (l *linkCheck) webFetching() bool {
	return !l.opts.DisableAllLinkFetching && l.opts.Web != nil
}

func (l *linkCheck) taRelative() {
	section := "translate"
	for _, s := range []string{"checking", "process", "intro"} {
		if strings.HasPrefix(l.fieldName, s+"/") {
			section = s
		}
	}
	treeOnly := l.opts.DisableLinkedTAArticlesCheck && l.repo != "TA"
	l.eachLink(taRelative1Re, func(m []string, _ int) {
		l.article(articleLink{resource: "TA", lang: l.defaultLang, link: m[0],
			path: section + "/" + m[2] + "/01.md", treeOnly: treeOnly})
	})
	l.eachLink(taRelative2Re, func(m []string, _ int) {
		l.article(articleLink{resource: "TA", lang: l.defaultLang, link: m[0],
			path: m[2] + "/" + m[3] + "/01.md", treeOnly: treeOnly})
	})
}

// articleLink is one linked TA or TW article to resolve.
type articleLink struct {
	resource string // "TA" or "TW"
	lang     string
	path     string
	link     string
	treeOnly bool
	// recurse checks the loaded article as markdown.
	recurse bool
	// name is given to the recursive check; it defaults to path.
	name string
}

type articlePriorities struct{ missing, failed, empty int }

var articleNotices = map[string]articlePriorities{
	"TA": {missing: 886, failed: 885, empty: 884},
	"TW": {missing: 883, failed: 882, empty: 881},
}

func (l *linkCheck) article(a articleLink) {
	user, branch := l.taUser, l.taBranch
	if a.resource == "TW" {
		user, branch = l.twUser, l.twBranch
	}
	req := fetch.Request{Username: user, Repository: a.lang + "_" + strings.ToLower(a.resource), Path: a.path, Branch: branch}
	content, outcome, err := resolveLink(l.ctx, l.opts, req, a.treeOnly)
	p := articleNotices[a.resource]
	details := strings.Join([]string{req.Username, req.Repository, req.Branch, req.Path}, " ")
	switch outcome {
	case linkMissing:
		msg := "Unable to find/load linked " + a.resource + " article"
		if a.treeOnly {
			msg = "Unable to find linked " + a.resource + " article"
		}
		l.add(notice.Notice{Priority: p.missing, Message: msg, Details: details, Excerpt: a.link})
	case linkFailed:
		l.add(notice.Notice{Priority: p.failed, Message: "Error loading " + a.resource + " article",
			Details: details, Excerpt: a.link, Location: fmt.Sprintf("%s %s: %v", l.loc, a.path, err)})
	case linkLoaded:
		if utf8.RuneCountInString(content) < 10 {
			l.add(notice.Notice{Priority: p.empty, Message: "Linked " + a.resource + " article seems empty",
				Details: details, Excerpt: a.link})
		} else if a.recurse {
			l.linkedArticle(a, req, content)
		}
	}
}

// linkedArticle checks a loaded article and passes its notices through
// tagged with where they came from.
func (l *linkCheck) linkedArticle(a articleLink, req fetch.Request, content string) {
	name := a.name
	if name == "" {
		name = a.path
	}
	sub := MarkdownFileContents(l.ctx, a.lang, a.resource, name, content, l.loc, l.opts)
	for _, n := range sub.NoticeList {
		if n.RepoCode == "" {
			n.RepoCode = a.resource
		}
		n.Username = req.Username
		n.RepoName = req.Repository
		n.Filename = req.Path
		n.Location = " linked to" + l.loc
		n.Extra = a.resource
		l.res.Add(n)
	}
	l.res.CheckedFileCount++
	l.res.AddFilename(name)
	l.res.CheckedFilesizes += len(content)
	l.res.AddFilenameExtension("md")
	l.res.AddRepoName(req.Repository)
}

type linkOutcome int

const (
	linkSkipped linkOutcome = iota // fetching disabled or already checked
	linkFound                      // present in the repository tree
	linkLoaded
	linkMissing
	linkFailed
)

// resolveLink looks up one linked file, consulting and then marking the
// "already checked" set. treeOnly checks the repository listing instead of
// loading the content.
func resolveLink(ctx context.Context, opts Options, req fetch.Request, treeOnly bool) (string, linkOutcome, error) {
	if !opts.fetching() {
		return "", linkSkipped, nil
	}
	key := cache.Key(req)
	checked := opts.checked()
	if checked.Has(key) {
		logging.LinkChecked(ctx, req.String(), true)
		return "", linkSkipped, nil
	}
	// Marked before resolving so linked articles that link back are not
	// checked again.
	checked.Mark(key)
	logging.LinkChecked(ctx, req.String(), false)

	if treeOnly {
		files, err := opts.Fetcher.ListFiles(ctx, fetch.Request{Username: req.Username, Repository: req.Repository,
			Path: req.Path, Branch: req.Branch})
		if err != nil {
			logging.FetchFailed(ctx, req.Username, req.Repository, req.Path, req.Branch, err)
		}
		if slices.Contains(files, req.Path) {
			return "", linkFound, nil
		}
		return "", linkMissing, nil
	}

	content, err := opts.Fetcher.GetFile(ctx, req)
	switch {
	case errors.IsNotFound(err):
		return "", linkMissing, nil
	case err != nil:
		logging.FetchFailed(ctx, req.Username, req.Repository, req.Path, req.Branch, err)
		return "", linkFailed, err
	case content == "":
		return "", linkMissing, nil
	}
	return content, linkLoaded, nil
}

func number(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// bookName checks an English book name written in front of a reference.
func (l *linkCheck) bookName(n, b, total, what string) {
	name := strings.TrimSpace(n + b)
	if name == "" || l.defaultLang != "en" || books.IsGoodEnglishBookName(name) {
		return
	}
	if name == "Song of Solomon" {
		l.add(notice.Notice{Priority: 43, Message: "Unexpected Bible book name in " + what,
			Details: "expected 'Song of Songs' in " + total, Excerpt: name})
		return
	}
	l.add(notice.Notice{Priority: 143, Message: "Unknown Bible book name in " + what, Details: total, Excerpt: name})
}

func (l *linkCheck) matchChapter(total string, k linkKind, c1 string, c2 int) {
	if number(c1) != c2 {
		l.add(notice.Notice{Priority: 743, Message: "Chapter numbers of markdown " + k.noun + " don’t match",
			Details: fmt.Sprintf("%s vs %d", c1, c2), Excerpt: total})
	}
}

func (l *linkCheck) matchVerse(total string, k linkKind, v1 string, v2 int) {
	if number(v1) != v2 {
		l.add(notice.Notice{Priority: k.verseMismatch, Message: "Verse numbers of markdown " + k.noun + " don’t match",
			Details: fmt.Sprintf("%s vs %d", v1, v2), Excerpt: total})
	}
}

func (l *linkCheck) verseOrder(total, first, last string) {
	if number(last) <= number(first) {
		l.add(notice.Notice{Priority: 741, Message: "Verse numbers of markdown Bible link range out of order",
			Details: first + " to " + last, Excerpt: total})
	}
}

// inRange checks a link target's chapter, and its verse when checkVerse
// is set, against the versification of code.
func (l *linkCheck) inRange(total, code string, k linkKind, c, v int, checkVerse bool) {
	if code == "" {
		return
	}
	chapters, _ := books.ChaptersInBook(code)
	if c < 1 || c > chapters {
		l.add(notice.Notice{Priority: k.badChapter, Message: "Bad chapter number in markdown " + k.rangeNoun,
			Details: fmt.Sprintf("%s %d vs %d chapters", code, c, chapters), Excerpt: total})
		return
	}
	if !checkVerse {
		return
	}
	verses, _ := books.VersesInChapter(code, c)
	if v < 1 || v > verses {
		l.add(notice.Notice{Priority: k.badVerse, Message: "Bad verse number in markdown " + k.rangeNoun,
			Details: fmt.Sprintf("%s %d:%d vs %d verses", code, c, v, verses), Excerpt: total})
	}
}

func (l *linkCheck) obsStory(total string, story, frame int, checkFrame bool) {
	if story < 1 || story > numOBSStories {
		l.add(notice.Notice{Priority: 655, Message: "Bad story number in markdown OBS help link",
			Details: fmt.Sprintf("obs %d vs %d chapters", story, numOBSStories), Excerpt: total})
	} else if checkFrame && (frame < 1 || frame > maxOBSFrames) {
		l.add(notice.Notice{Priority: 653, Message: "Bad frame number in markdown OBS help link",
			Details: fmt.Sprintf("obs %d:%d vs %d verses", story, frame, maxOBSFrames), Excerpt: total})
	}
}

func (l *linkCheck) rcLanguage(found string) {
	if found != "*" && found != l.lang {
		l.add(notice.Notice{Priority: 669, Message: "Unexpected language code in link",
			Details: "resource language code is ‘" + l.lang + "’", Excerpt: found})
	}
}

func (l *linkCheck) tnHelpLinks() {
	l.eachLink(tnHelpCVRe, func(m []string, _ int) {
		total := m[0]
		l.rcLanguage(m[5])
		l.bookName(m[1], m[2], total, "TN RC link")
		code, c, v := m[6], number(m[7]), number(m[8])
		l.matchChapter(total, tnHelpLink, m[3], c)
		l.matchVerse(total, tnHelpLink, m[4], v)
		if code == "obs" {
			l.obsStory(total, c, v, true)
			return
		}
		l.inRange(total, code, tnHelpLink, c, v, true)
	})
	l.eachLink(tnHelpCRe, func(m []string, _ int) {
		total := m[0]
		l.rcLanguage(m[4])
		l.bookName(m[1], m[2], total, "TN RC link")
		code, c, v := m[5], number(m[6]), number(m[7])
		l.matchChapter(total, tnHelpLink, m[3], c)
		if v != 1 {
			l.add(notice.Notice{Priority: 729, Message: "Expected verse one for whole chapter link",
				Details: fmt.Sprintf("not verse %d", v), Excerpt: total})
		}
		if code == "obs" {
			l.obsStory(total, c, v, false)
			return
		}
		l.inRange(total, code, tnHelpLink, c, v, false)
	})
}

func (l *linkCheck) bibleLinks() {
	l.eachLink(thisChapterRelativeRe, func(m []string, _ int) {
		total := m[0]
		l.bookName(m[1], m[2], total, "Bible link")
		v := number(m[5])
		if m[3] == "" {
			if l.bookID == "" || !books.IsOneChapterBook(l.bookID) {
				l.add(notice.Notice{Priority: 555, Message: "Possible missing chapter number in markdown Bible link", Excerpt: total})
			}
		} else if l.haveCV {
			l.matchChapter(total, bibleLink, m[3], l.givenC)
		}
		l.matchVerse(total, bibleLink, m[4], v)
		if l.haveCV {
			l.inRange(total, l.bookID, bibleLink, l.givenC, v, true)
		}
	})
	l.eachLink(verseToThisChapterRe, func(m []string, _ int) {
		total := m[0]
		if number(m[1]) != number(m[3]) {
			l.add(notice.Notice{Priority: 742, Message: "Verse numbers of markdown Bible link don’t match",
				Details: m[1] + " vs " + m[3], Excerpt: total})
		}
		l.inRange(total, l.bookID, bibleLink, number(m[2]), number(m[3]), true)
	})
	l.eachLink(versesToThisChapterRe, func(m []string, _ int) {
		total := m[0]
		if number(m[1]) != number(m[4]) {
			l.add(notice.Notice{Priority: 742, Message: "Verse numbers of markdown Bible link don’t match",
				Details: m[1] + " vs " + m[4], Excerpt: total})
		}
		l.verseOrder(total, m[1], m[2])
		l.inRange(total, l.bookID, bibleLink, number(m[3]), number(m[4]), true)
	})
	l.eachLink(thisBookRelativeRe, func(m []string, _ int) {
		total := m[0]
		l.bookName(m[1], m[2], total, "relative Bible link")
		c, v := number(m[5]), number(m[6])
		l.matchChapter(total, bibleLink, m[3], c)
		l.matchVerse(total, bibleLink, m[4], v)
		l.inRange(total, l.bookID, bibleLink, c, v, true)
	})
	for _, re := range []*regexp.Regexp{rangeToOtherBookRe, rangeToThisBookRe} {
		l.eachLink(re, func(m []string, _ int) {
			total := m[0]
			l.bookName(m[1], m[2], total, "Bible link")
			code := m[6]
			if code == ".." {
				code = l.bookID
			}
			c, v := number(m[7]), number(m[8])
			l.matchChapter(total, bibleLink, m[3], c)
			l.matchVerse(total, bibleLink, m[4], v)
			l.verseOrder(total, m[4], m[5])
			l.inRange(total, code, bibleLink, c, v, true)
		})
	}
	l.eachLink(rangeToThisChapterRe, func(m []string, _ int) {
		total := m[0]
		l.bookName(m[1], m[2], total, "Bible link")
		v := number(m[6])
		l.matchVerse(total, bibleLink, m[4], v)
		l.verseOrder(total, m[4], m[5])
		if l.bookID == "" || !l.haveCV {
			return
		}
		verses, _ := books.VersesInChapter(l.bookID, l.givenC)
		if v < 1 || v > verses {
			l.add(notice.Notice{Priority: 653, Message: "Bad verse number in markdown Bible link",
				Details: fmt.Sprintf("%s %d:%d vs %d verses", l.bookID, l.givenC, v, verses), Excerpt: total})
		}
	})
	for _, re := range []*regexp.Regexp{otherBookAbsoluteRe, otherBookRelativeRe} {
		l.eachLink(re, func(m []string, _ int) {
			total := m[0]
			l.bookName(m[1], m[2], total, "Bible link")
			c, v := number(m[6]), number(m[7])
			l.matchChapter(total, bibleLink, m[3], c)
			l.matchVerse(total, bibleLink, m[4], v)
			l.inRange(total, m[5], bibleLink, c, v, true)
		})
	}
}

func (l *linkCheck) tnNoteLinks() {
	l.eachLink(tnNoteRe, func(m []string, _ int) {
		total := m[0]
		if name := strings.TrimSpace(m[1] + m[2]); name != "" && l.defaultLang == "en" && !books.IsGoodEnglishBookName(name) {
			l.add(notice.Notice{Priority: 144, Message: "Unknown Bible book name in TN link", Details: total, Excerpt: name})
		}
		c, v := number(m[6]), number(m[7])
		l.matchChapter(total, tnNoteLink, m[3], c)
		l.matchVerse(total, tnNoteLink, m[4], v)
		l.inRange(total, l.bookID, tnNoteLink, c, v, true)
	})
}

func (l *linkCheck) obsLinks() {
	l.eachLink(obsLinkRe, func(m []string, _ int) {
		storyA, frameA := number(m[1]), number(m[2])
		storyB, frameB := number(m[3]), number(m[4])
		switch {
		case storyA != storyB || frameA != frameB:
			l.add(notice.Notice{Priority: 731, Message: "OBS link has internal mismatch",
				Details: fmt.Sprintf("%s:%s should equal %s/%s", m[1], m[2], m[3], m[4]), Excerpt: m[0]})
		case storyB < 1 || storyB > numOBSStories || frameB < 1 || frameB > maxOBSFrames:
			l.add(notice.Notice{Priority: 730, Message: "OBS link has out-of-range values",
				Details: fmt.Sprintf("%d stories, max of %d frames", numOBSStories, maxOBSFrames),
				Excerpt: m[1] + "/" + m[2]})
		}
	})
}

func (l *linkCheck) webLinks() {
	l.eachLink(webLinkRe, func(m []string, _ int) {
		total, uri := m[0], m[2]
		if strings.HasPrefix(uri, "http:") {
			l.add(notice.Notice{Priority: 152, Message: "Should http link be https", Excerpt: total})
		}
		if !l.webFetching() {
			return
		}
		key := cache.Key{Username: uri}
		if l.opts.checked().Has(key) {
			return
		}
		l.opts.checked().Mark(key)

		_, host, _ := strings.Cut(uri, "://")
		host, _, _ = strings.Cut(strings.ToLower(host), "/")
		ours := strings.HasSuffix(host, "door43.org") || strings.HasSuffix(host, "unfoldingword.org") || strings.HasSuffix(host, "ufw.io")
		priority := func(uw, other int) int {
			if ours {
				return uw
			}
			return other
		}

		content, err := l.opts.Web.GetURL(l.ctx, uri)
		switch {
		case errors.IsNotFound(err):
			l.add(notice.Notice{Priority: priority(782, 182), Message: "Error loading link",
				Details: "please double-check link—there may be no problem", Excerpt: total})
		case err != nil:
			// Other transport failures say nothing about the link itself.
			logging.FetchFailed(l.ctx, "", uri, "", "", err)
		case utf8.RuneCountInString(content) < 10:
			l.add(notice.Notice{Priority: priority(781, 181), Message: "Linked web page seems empty", Excerpt: total})
		}
	})
}

// leftovers reports links of a general shape that no family recognized.
func (l *linkCheck) leftovers(found []string, priority int, message string) {
	var left []string
	for _, f := range found {
		if !slices.Contains(l.processed, f) {
			left = append(left, f)
		}
	}
	if len(left) == 0 {
		return
	}
	var list string
	if len(left) == 1 {
		list = `"` + left[0] + `"`
	} else {
		quoted := make([]string, len(left))
		for i, s := range left {
			quoted[i] = strconv.Quote(s)
		}
		list = "[" + strings.Join(quoted, ",") + "]"
	}
	l.add(notice.Notice{Priority: priority, Message: message, Details: "need to carefully check " + list})
}

func (l *linkCheck) brackets() {
	f := l.field
	left, right := text.CountOccurrences(f, "[["), text.CountOccurrences(f, "]]")
	if left != right {
		l.add(notice.Notice{Priority: 845, Message: "Mismatched [[ ]] link characters",
			Details: fmt.Sprintf("left=%d, right=%d", left, right)})
	} else if left = text.CountOccurrences(f, "[[rc://"); left != right {
		l.add(notice.Notice{Priority: 844, Message: "Mismatched [[rc:// ]] link characters",
			Details: fmt.Sprintf("left=%d, right=%d", left, right)})
	}
	left = text.CountOccurrences(f, "[")
	middle := text.CountOccurrences(f, "](")
	right = text.CountOccurrences(f, ")")
	if left < middle || right < middle {
		l.add(notice.Notice{Priority: 843, Message: "Mismatched [ ]( ) link characters",
			Details: fmt.Sprintf("left=%d, middle=%d, right=%d", left, middle, right)})
	}
}

// LinkTarget checks a field that holds exactly one rc:// link, such as
// TWLink, and resolves its target.
func LinkTarget(ctx context.Context, fieldName, link, location string, opts Options) *notice.Result {
	l := newLinkCheck(ctx, opts.DefaultLanguageCode, "", "", fieldName, link, location, opts)
	l.surroundingWhitespace()
	trimmed := strings.TrimSpace(link)
	if trimmed == "" {
		l.add(notice.Notice{Priority: 438, Message: "Blank field / missing link (expected 1 link)"})
		return l.res
	}
	parsed, err := rclink.Parse(trimmed)
	if err != nil {
		details := "should start with 'rc://'"
		if strings.HasPrefix(trimmed, "rc://") {
			details = err.Error()
		}
		l.add(notice.Notice{Priority: 798, Message: "Field doesn’t contain expected link", Details: details, Excerpt: trimmed})
		return l.res
	}
	if !parsed.IsWildcard() {
		l.add(notice.Notice{Priority: 450, Message: "Resource container link should have '*' language code",
			Details: "not ‘" + parsed.Language + "’", CharacterIndex: notice.At(5), Excerpt: l.win.Around(trimmed, 5)})
	}
	lang := l.linkLang(parsed.Language)
	switch {
	case parsed.IsTA():
		l.article(articleLink{resource: "TA", lang: lang, link: trimmed, path: parsed.TAFilepath(),
			treeOnly: opts.DisableLinkedTAArticlesCheck, recurse: true})
	case parsed.IsTW():
		path := parsed.TWFilepath()
		l.article(articleLink{resource: "TW", lang: lang, link: trimmed, path: path,
			name:     path[strings.LastIndex(path, "/")+1:],
			treeOnly: opts.DisableLinkedTWArticlesCheck, recurse: true})
	case parsed.IsTNHelp():
		code, c, v := parsed.Path[0], number(parsed.Path[1]), number(parsed.Path[2])
		if code == "obs" {
			l.obsStory(trimmed, c, v, true)
		} else {
			l.inRange(trimmed, code, tnHelpLink, c, v, true)
		}
	default:
		l.add(notice.Notice{Priority: 648, Message: "Unusual rc:// link—not a recognized TA, TN, or TW link", Excerpt: trimmed})
	}
	return l.res
}

// SupportReferenceInTA checks that ref names an existing Translation
// Academy article. With Options.ExpectFullLink, ref must be a full
// rc://*/ta/man/translate/ link; otherwise it is a bare article name in
// Options.TARepoSectionName.
func SupportReferenceInTA(ctx context.Context, fieldName, ref, location string, opts Options) *notice.Result {
	res := notice.NewResult()
	loc := " in " + fieldName + spaced(location)
	add := func(n notice.Notice) {
		if opts.wants(n.Priority) {
			if n.Location == "" {
				n.Location = loc
			}
			res.Add(n)
		}
	}

	lang := opts.TARepoLanguageCode
	if lang == "" {
		lang = "en"
	}
	section := opts.TARepoSectionName
	if section == "" {
		section = "translate"
	}
	article := ref
	if opts.ExpectFullLink {
		if !strings.HasPrefix(ref, rclink.TATranslatePrefix) {
			add(notice.Notice{Priority: 879, Message: "Expected a full TA link",
				Details: "should start with '" + rclink.TATranslatePrefix + "'", Excerpt: ref})
			return res
		}
		article = strings.TrimPrefix(ref, rclink.TATranslatePrefix)
		section = "translate"
	}

	username := opts.TARepoUsername
	if username == "" {
		username = defaultUsername(lang)
	}
	branch := opts.TARepoBranch
	if branch == "" {
		branch = fetch.DefaultBranch
	}
	path := section + "/" + article + "/01.md"
	req := fetch.Request{Username: username, Repository: lang + "_ta", Path: path, Branch: branch}
	content, outcome, err := resolveLink(ctx, opts, req, opts.DisableLinkedTAArticlesCheck)
	switch outcome {
	case linkFailed:
		add(notice.Notice{Priority: 886, Message: "Error loading TA link", Excerpt: ref,
			Location: fmt.Sprintf("%s %s: %v", loc, path, err)})
	case linkMissing:
		add(notice.Notice{Priority: 887, Message: "Unable to find TA link", Excerpt: ref, Location: loc + " " + path})
	case linkLoaded:
		if utf8.RuneCountInString(content) < 10 {
			add(notice.Notice{Priority: 885, Message: "Linked TA article seems empty", Excerpt: ref, Location: loc + " " + path})
		}
	}
	return res
}
