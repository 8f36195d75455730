package check

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/tcvalidate/core/books"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
)

// Headings every lexicon entry carries.
var lexiconHeadings = []string{"## Word data", "## Etymology", "## Senses"}

// IsLexiconEntry reports whether filename is an entry of the UHAL (H0001.md)
// or UGL (G00010/01.md) lexicon.
func IsLexiconEntry(repoCode, filename string) bool {
	base := filename
	if i := strings.LastIndexByte(filename, '/'); i >= 0 {
		base = filename[i+1:]
	}
	switch repoCode {
	case "UHAL":
		return len(base) == 8 && base[0] == 'H' && strings.HasSuffix(base, ".md")
	case "UGL":
		return base == "01.md"
	}
	return false
}

// LexiconFileContents checks one lexicon entry: the lemma heading on the
// first line, the status comment on the third, the compulsory second-level
// headings, and then the whole file as markdown.
func LexiconFileContents(ctx context.Context, lang, repo, filename, body, location string, opts Options) *notice.Result {
	loc := spaced(location)
	res := notice.NewResult()
	add := func(n notice.Notice) {
		if !opts.wants(n.Priority) {
			return
		}
		if n.Location == "" {
			n.Location = loc
		}
		n.Filename = filename
		res.Add(n)
	}

	lines := strings.Split(body, "\n")
	line := func(i int) string {
		if i < len(lines) {
			return lines[i]
		}
		return ""
	}
	if first := line(0); !strings.HasPrefix(first, "# ") || utf8.RuneCountInString(first) < 4 {
		add(notice.Notice{Priority: 630, Message: "Expected lexicon lemma on first line", Excerpt: first})
	}
	if third := line(2); !strings.HasPrefix(third, "<!-- Status: ") {
		add(notice.Notice{Priority: 330, Message: "Expected lexicon entry status on third line", Excerpt: third})
	}
	for _, heading := range lexiconHeadings {
		found := false
		for _, l := range lines {
			if strings.HasPrefix(l, heading) {
				found = true
				break
			}
		}
		if !found {
			add(notice.Notice{Priority: 620, Message: "Missing compulsory lexicon heading", Details: heading})
		}
	}

	md := MarkdownFileContents(ctx, lang, repo, filename, body, location, opts)
	for _, n := range md.NoticeList {
		add(n)
	}
	res.MergeChecked(md)
	res.AddSuccess("Checked lexicon file: " + filename)
	summarize(res, "lexicon file check")
	return res
}

// lexiconPrefixes are the Hebrew prefix particles written before a
// Strong's number, as in "b:H7225".
var lexiconPrefixes = []string{"b:", "c:", "d:", "i:", "k:", "l:", "m:", "s:"}

// StrongsField checks a Strong's number such as H0430 or G24550 and,
// unless lexicon fetching is disabled, that the lexicon has an entry for
// it. With DisableLinkedLexiconEntriesCheck the entry is only looked up in
// the repository tree; otherwise it is loaded and checked as well.
func StrongsField(ctx context.Context, lang, repo, fieldName, field, bookID, C, V, location string, opts Options) *notice.Result {
	loc := spaced(location)
	res := notice.NewResult()
	add := func(n notice.Notice) {
		if !opts.wants(n.Priority) {
			return
		}
		if n.Location == "" {
			n.Location = loc
		}
		if n.Excerpt == "" {
			n.Excerpt = field
		}
		n.FieldName, n.RepoCode = fieldName, repo
		n.BookID = bookID
		if C != "" && V != "" {
			n.C, n.V = C, V
		}
		res.Add(n)
	}

	if field == "" {
		add(notice.Notice{Priority: 842, Message: "No text in Strongs field"})
		return res
	}
	testament, ok := books.TestamentOf(bookID)
	if !ok {
		testament = books.OT
		if field[0] == 'G' {
			testament = books.NT
		}
	}

	strongs := field
	switch testament {
	case books.OT:
		for trimmed := true; trimmed; {
			trimmed = false
			for _, p := range lexiconPrefixes {
				if strings.HasPrefix(strongs, p) {
					strongs, trimmed = strongs[len(p):], true
				}
			}
		}
		for len(strongs) > 1 && strings.ContainsRune("abcdef", rune(strongs[len(strongs)-1])) {
			strongs = strongs[:len(strongs)-1]
		}
		switch {
		case strongs == "b" || strongs == "i" || strongs == "k" || strongs == "l" || strongs == "m":
			// Bare prefix particles have no lexicon entry.
			return res
		case strongs == "" || strongs[0] != 'H':
			add(notice.Notice{Priority: 841, Message: "Strongs field must start with 'H'"})
			return res
		case len(strongs) != 5:
			add(notice.Notice{Priority: 818, Message: "Strongs field has wrong number of digits", Details: "expected five digits"})
			return res
		}
	case books.NT:
		switch {
		case strongs[0] != 'G':
			add(notice.Notice{Priority: 841, Message: "Strongs field must start with 'G'"})
			return res
		case len(strongs) != 6:
			add(notice.Notice{Priority: 818, Message: "Strongs field has wrong number of digits", Details: "expected six digits"})
			return res
		}
	}

	if opts.DisableLexiconLinkFetching {
		return res
	}
	lexLang := linkLanguage(lang)
	username := opts.OriginalLanguageRepoUsername
	if username == "" {
		username = defaultUsername(lexLang)
	}
	branch := opts.OriginalLanguageRepoBranch
	if branch == "" {
		branch = fetch.DefaultBranch
	}
	lexiconCode, extra := "UHAL", "HALx"
	req := fetch.Request{Username: username, Repository: lexLang + "_uhal", Path: "content/" + strongs + ".md", Branch: branch}
	if strongs[0] == 'G' {
		lexiconCode, extra = "UGL", "GkLx"
		req = fetch.Request{Username: username, Repository: lexLang + "_ugl", Path: "content/" + strongs + "/01.md", Branch: branch}
	}
	treeOnly := opts.DisableLinkedLexiconEntriesCheck
	content, outcome, err := resolveLink(ctx, opts, req, treeOnly)
	where := strings.Join([]string{req.Username, req.Repository, req.Branch, req.Path}, " ")
	switch outcome {
	case linkMissing:
		msg := "Unable to find/load lexicon entry"
		if treeOnly {
			msg = "Unable to find lexicon entry"
		}
		add(notice.Notice{Priority: 850, Message: msg, Details: lexiconCode, Username: req.Username, Excerpt: where})
	case linkFailed:
		add(notice.Notice{Priority: 850, Message: "Unable to find/load lexicon entry",
			Details: fmt.Sprintf("%s error=%v", lexiconCode, err), Username: req.Username, Excerpt: where})
	case linkLoaded:
		if utf8.RuneCountInString(content) < 10 {
			add(notice.Notice{Priority: 878, Message: "Lexicon entry seems empty", Details: where})
			return res
		}
		entry := LexiconFileContents(ctx, lang, lexiconCode, req.Path, content, location, opts)
		for _, n := range entry.NoticeList {
			n.Username, n.RepoName, n.Branch = req.Username, req.Repository, req.Branch
			n.RepoCode, n.Extra = lexiconCode, extra
			n.BookID = bookID
			n.C, n.V = C, V
			if n.FieldName == "" {
				n.FieldName = fieldName + " " + field
			}
			res.Add(n)
		}
		res.MergeChecked(entry)
		res.CheckedFileCount++
		res.AddFilename(req.Path)
		res.CheckedFilesizes += len(content)
		res.AddFilenameExtension("md")
		res.AddRepoName(req.Repository)
	}
	return res
}
