package check

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/core/text"
)

type openMark struct {
	char rune
	line int
	col  int
}

// PlainText checks a whole text: empty content, merge markers, leading
// and trailing blank lines, nesting of paired punctuation across lines and
// whole-text pair counts. Lines of "text" and "raw" content are also run
// through TextField; other types check their own lines.
func PlainText(lang, repo string, textType FieldType, name, body, location string, opts Options) *notice.Result {
	res := notice.NewResult()
	loc := spaced(location)
	win := opts.window()
	add := func(n notice.Notice) {
		if opts.wants(n.Priority) {
			n.Location = loc
			res.Add(n)
		}
	}

	if body == "" || text.IsWhitespace(body) {
		add(notice.Notice{Priority: 638, Message: "Only found whitespace"})
		return res
	}

	for _, m := range []struct {
		marker   string
		priority int
	}{{"<<<<<<<", 993}, {"=======", 992}, {">>>>>>>>", 991}} {
		if i := text.Index(body, m.marker); i >= 0 {
			add(notice.Notice{Priority: m.priority, Message: "Unresolved GIT conflict",
				CharacterIndex: notice.At(i), Excerpt: win.Around(body, i+win.Half, text.ShowSpaces)})
			break
		}
	}

	n := text.RuneLen(body)
	tail := func() string { return win.Tail(body, text.ShowSpaces, text.ShowNewlines) }
	if strings.HasPrefix(body, "\n") {
		add(notice.Notice{Priority: 539, Message: "File starts with empty line",
			CharacterIndex: notice.At(0), Excerpt: tail()})
	}
	switch {
	case !strings.HasSuffix(body, "\n") && !strings.HasSuffix(name, "title.md"):
		add(notice.Notice{Priority: 538, Message: "File ends without newline character",
			CharacterIndex: notice.At(n - 1), Excerpt: tail()})
	case strings.HasSuffix(body, "\n\n"):
		add(notice.Notice{Priority: 138, Message: "File ends with additional blank line(s)",
			CharacterIndex: notice.At(n - 2), Excerpt: tail()})
	}

	lines := strings.Split(body, "\n")
	var open []openMark
	for num, line := range lines {
		num++
		if line == "" {
			continue
		}
		if textType == FieldText || textType == FieldRaw {
			// Trimmed so a leading space is not also reported as doubled spaces.
			if trimmed := text.TrimStartWhitespace(line); trimmed != "" {
				field := TextField(Field{LanguageCode: lang, RepoCode: repo, Type: textType,
					Text: trimmed, AllowLinks: true, Location: location}, opts)
				for _, nt := range field.NoticeList {
					nt.LineNumber = num
					res.Add(nt)
				}
			}
		}
		for col, r := range []rune(line) {
			switch {
			case text.IsOpener(r):
				open = append(open, openMark{char: r, line: num, col: col})
			case text.IsCloser(r):
				// A closing single quote doubles as an apostrophe.
				if r == '’' {
					if len(open) > 0 && open[len(open)-1].char == '‘' {
						open = open[:len(open)-1]
					}
					continue
				}
				if len(open) == 0 {
					if textType != FieldMarkdown || r != '>' {
						add(notice.Notice{Priority: 774,
							Message:    fmt.Sprintf("Unexpected %c closing character (no matching opener)", r),
							LineNumber: num, CharacterIndex: notice.At(col),
							Excerpt: win.Around(line, col, text.ShowSpaces)})
					}
					continue
				}
				last := open[len(open)-1]
				if last.char == text.OpenerFor(r) {
					open = open[:len(open)-1]
					continue
				}
				// Markdown uses leading > characters for block quotes.
				if textType != FieldMarkdown || r != '>' || col > 4 {
					add(notice.Notice{Priority: 777,
						Message:    fmt.Sprintf("Bad punctuation nesting: %c closing character doesn’t match", r),
						Details:    fmt.Sprintf("'%c' opened on line %d character %d", last.char, last.line, last.col+1),
						LineNumber: num, CharacterIndex: notice.At(col),
						Excerpt: win.Around(line, col, text.ShowSpaces)})
				}
			}
		}
	}
	if len(open) > 0 {
		last := open[len(open)-1]
		nt := notice.Notice{Priority: 768,
			Message:    fmt.Sprintf("At end of text with unclosed %c opening character", last.char),
			LineNumber: last.line, CharacterIndex: notice.At(last.col),
			Excerpt: win.Around(lines[last.line-1], last.col, text.ShowSpaces)}
		if len(open) > 1 {
			nt.Details = fmt.Sprintf("%d unclosed sets", len(open))
		}
		add(nt)
	}

	for _, pair := range text.OpenClosePairs {
		left, right := text.CountOccurrences(body, pair.Open), text.CountOccurrences(body, pair.Close)
		if left == right || (pair.Close == "’" && left <= right) || (textType == FieldMarkdown && pair.Close == ">") {
			continue
		}
		priority := 462
		if pair.Open == "“" {
			priority = 162
		}
		add(notice.Notice{Priority: priority, Message: fmt.Sprintf("Mismatched %s%s characters", pair.Open, pair.Close),
			Details: fmt.Sprintf("left=%d, right=%d", left, right)})
	}

	opts.filter(res)
	res.AddSuccess(fmt.Sprintf("Checked all %s%s.", plural(len(lines), "line"), loc))
	summarize(res, "plain text check")
	return res
}

// TextfileContents checks a whole file as plain text of the given type and
// tags every notice with the file name.
func TextfileContents(lang, repo string, fileType FieldType, filename, body, location string, opts Options) *notice.Result {
	if body == "" {
		return notice.NewResult()
	}
	res := PlainText(lang, repo, fileType, filename, body, location, opts)
	for i := range res.NoticeList {
		res.NoticeList[i].Filename = filename
	}
	return res
}

func summarize(res *notice.Result, what string) {
	if len(res.NoticeList) == 0 {
		res.AddSuccess("No errors or warnings found by " + what)
		return
	}
	res.AddSuccess(fmt.Sprintf("%s finished with %s", what, plural(len(res.NoticeList), "notice")))
}
