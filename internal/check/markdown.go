package check

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/core/text"
)

var (
	headerMarks  = regexp.MustCompile(`^#+|#+$`)
	leadingSpace = regexp.MustCompile(`^ +`)
	blockQuote   = regexp.MustCompile(`^>+ *`)
)

// Emphasis runs that must pair up, longest first.
var emphasisRuns = []string{"___", "***", "__", "**"}

// MarkdownText checks markdown line by line: blank lines around headers,
// header level jumps, indentation nesting, embedded links and the text of
// every line. It returns a Suggestion with per-line cleanups applied.
// The text need not be a whole file; name may be a field name.
func MarkdownText(ctx context.Context, lang, repo, name, body, location string, opts Options) *notice.Result {
	res := notice.NewResult()
	loc := spaced(location)
	noteField := name == "Note" || name == "OccurrenceNote"
	add := func(n notice.Notice) {
		if opts.wants(n.Priority) {
			n.Location = loc
			res.Add(n)
		}
	}
	// Structural notices inside a note field say which note line they mean.
	addLine := func(n notice.Notice) {
		if noteField {
			n.Details = fmt.Sprintf("markdown line %d", n.LineNumber)
		}
		add(n)
	}

	lines := strings.Split(body, "\n")
	suggested := make([]string, 0, len(lines))
	headerLevel := 0
	var indents []int
	notifiedBlank := false
	for i, line := range lines {
		num := i + 1
		var prev string
		if i > 0 {
			prev = lines[i-1]
		}
		next, hasNext := "", i+1 < len(lines)
		if hasNext {
			next = lines[i+1]
		}

		if strings.HasPrefix(line, "#") {
			if num > 1 && prev != "" {
				addLine(notice.Notice{Priority: 252, Message: "Markdown headers should be preceded by a blank line", LineNumber: num})
			}
			if !hasNext || next != "" {
				addLine(notice.Notice{Priority: 251, Message: "Markdown headers should be followed by a blank line", LineNumber: num})
			}
		}

		if line == "" {
			suggested = append(suggested, "")
			if num > 1 && prev == "" && hasNext && next == "" && !notifiedBlank {
				addLine(notice.Notice{Priority: 250, Message: "Multiple blank lines are not expected in markdown", LineNumber: num})
				notifiedBlank = true
			}
			continue
		}

		level := len(line) - len(strings.TrimLeft(line, "#"))
		// Translation Academy subsections skip levels.
		if level > headerLevel+1 && !strings.HasPrefix(name, "TA ") {
			addLine(notice.Notice{Priority: 172, Message: "Header levels should only increment by one",
				LineNumber: num, CharacterIndex: notice.At(0)})
		}
		if level > 0 {
			headerLevel = level
			indents = indents[:0]
		}
		spaces := len(line) - len(strings.TrimLeft(line, " "))
		previous := 0
		if len(indents) > 0 {
			previous = indents[len(indents)-1]
		}
		switch {
		case spaces > previous || (spaces == 0 && len(indents) == 0):
			indents = append(indents, spaces)
		case spaces < previous:
			if len(indents) > 1 && indents[len(indents)-2] == spaces {
				indents = indents[:len(indents)-1]
				break
			}
			found := false
			for z := len(indents) - 1; z >= 0; z-- {
				if indents[z] == spaces {
					indents = indents[:z+1]
					found = true
					break
				}
			}
			if !found {
				addLine(notice.Notice{Priority: 282, Message: "Nesting of header levels seems confused",
					Details:    fmt.Sprintf("recent indent levels=%v but now %d", indents, spaces),
					LineNumber: num, CharacterIndex: notice.At(0)})
			}
		}

		suggested = append(suggested, markdownLine(ctx, res, add, lang, repo, name, num, line, location, opts))
	}

	for _, run := range emphasisRuns {
		count := strings.Count(body, run)
		if count%2 == 0 {
			continue
		}
		win := opts.window()
		i := text.Index(body, run) + win.Half
		excerpt := text.Substring(body, i-win.Half, i+win.HalfPlus)
		if i+win.HalfPlus < text.RuneLen(body) {
			excerpt += text.Ellipsis
		}
		add(notice.Notice{Priority: 378, Message: fmt.Sprintf("Possible mismatched '%s' markdown formatting pairs", run),
			Details: plural(count, "total occurrence"), CharacterIndex: notice.At(i - win.Half), Excerpt: excerpt})
		break
	}

	if s := strings.Join(suggested, "\n"); s != body {
		res.Suggestion = s
	}
	opts.filter(res)
	res.AddSuccess(fmt.Sprintf("Checked all %s%s.", plural(len(lines), "line"), loc))
	summarize(res, "markdown text check")
	return res
}

// markdownLine checks one non-blank line and returns its suggested
// replacement.
func markdownLine(ctx context.Context, res *notice.Result, add func(notice.Notice),
	lang, repo, name string, num int, line, location string, opts Options) string {
	if strings.Contains(line, "[") {
		linkName := name
		if name == "README.md" || name == "LICENSE.md" {
			linkName = strings.TrimSuffix(name, ".md")
		}
		linkOpts := opts
		linkOpts.DefaultLanguageCode = linkLanguage(lang)
		links := NotesLinksToOutside(ctx, lang, repo, "", "", "", linkName, line, location, linkOpts)
		for _, n := range links.NoticeList {
			if n.Extra != "" {
				// Notices from linked articles keep their own positions.
				res.Add(n)
				continue
			}
			n.LineNumber = num
			add(n)
		}
		res.MergeChecked(links)
	}

	body := headerMarks.ReplaceAllString(line, "")
	body = leadingSpace.ReplaceAllString(body, "")
	for strings.HasPrefix(body, ">") {
		body = blockQuote.ReplaceAllString(body, "")
	}
	suggestion := line
	// Table rows are not checked as text.
	if body != "" && line[0] != '|' {
		field := TextField(Field{LanguageCode: lang, RepoCode: repo, Type: FieldMarkdown, Name: name,
			Text: body, AllowLinks: true, Location: location}, opts)
		for _, n := range field.NoticeList {
			n.LineNumber = num
			add(n)
		}
		// A suggestion only applies when the line was checked unmodified.
		if body == line && field.Suggestion != "" {
			suggestion = field.Suggestion
		}
	}
	return suggestion
}

// MarkdownFileContents checks a markdown file both as markdown and as
// whole-file plain text, tagging notices with the file name.
func MarkdownFileContents(ctx context.Context, lang, repo, filename, body, location string, opts Options) *notice.Result {
	res := notice.NewResult()
	md := MarkdownText(ctx, lang, repo, filename, body, location, opts)
	plain := TextfileContents(lang, repo, FieldMarkdown, filename, body, location, opts)
	for _, part := range []*notice.Result{md, plain} {
		for _, n := range part.NoticeList {
			n.Filename = filename
			res.Add(n)
		}
	}
	res.MergeChecked(md)
	res.AddSuccess("Checked markdown file: " + filename)
	summarize(res, "markdown file check")
	return res
}

// linkLanguage maps original-language codes to the language whose
// resources carry their links.
func linkLanguage(lang string) string {
	if lang == "hbo" || lang == "el-x-koine" {
		return "en"
	}
	return lang
}
