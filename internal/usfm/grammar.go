package usfm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Strictness selects how unbalanced character markup is treated.
type Strictness string

const (
	Strict  Strictness = "strict"
	Relaxed Strictness = "relaxed"
)

// GrammarError locates the first structural failure. LineNumber is
// 1-based and counts blank lines; CharacterIndex is 0-based within the line.
type GrammarError struct {
	Message        string
	LineNumber     int
	CharacterIndex int
	Excerpt        string
}

// GrammarResult is the outcome of a grammar validation.
type GrammarResult struct {
	Valid    bool
	Error    *GrammarError
	Warnings []string
}

// Grammar validates the structure of a USFM file.
type Grammar interface {
	Validate(strictness Strictness, text string) GrammarResult
}

// Validator is the built-in structural validator. It checks the book
// header, chapter and verse markers, character marker nesting and
// milestone pairing. It is not a full USFM grammar.
type Validator struct{}

var usfmLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "MilestoneEnd", Pattern: `\\\*`},
	{Name: "Marker", Pattern: `\\\+?[A-Za-z][A-Za-z0-9-]*\*?`},
	{Name: "Newline", Pattern: `\n`},
	{Name: "Text", Pattern: `[^\\\n]+`},
	{Name: "Stray", Pattern: `\\`},
})

var (
	bookCodePattern = regexp.MustCompile(`^[A-Z0-9]{3}\b`)
	chapterPattern  = regexp.MustCompile(`^\d{1,3}$`)
	versePattern    = regexp.MustCompile(`^\d{1,3}(-\d{1,3})?$`)
)

// characterMarkers close with "\name*".
var characterMarkers = func() map[string]bool {
	m := map[string]bool{}
	for _, pair := range CharacterPairs {
		m[strings.TrimSuffix(pair[0][1:], " ")] = true
	}
	return m
}()

type openMarker struct {
	name string
	line int
}

// Validate implements Grammar.
func (Validator) Validate(strictness Strictness, text string) GrammarResult {
	var res GrammarResult
	fail := func(line, col int, excerpt, format string, args ...any) GrammarResult {
		res.Error = &GrammarError{
			Message:        fmt.Sprintf(format, args...),
			LineNumber:     line,
			CharacterIndex: col,
			Excerpt:        excerpt,
		}
		return res
	}

	lines := strings.Split(text, "\n")
	emptyLines, trailing := 0, 0
	for _, line := range lines[:max(len(lines)-1, 0)] {
		switch {
		case strings.TrimSpace(line) == "":
			emptyLines++
		case strings.HasSuffix(line, " "):
			trailing++
		}
	}
	if emptyLines > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Empty lines present (%d)", emptyLines))
	}
	if trailing > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Trailing spaces present at line end (%d)", trailing))
	}

	lex, err := usfmLexer.Lex("", strings.NewReader(text))
	if err != nil {
		return fail(1, 0, "", "cannot tokenize: %v", err)
	}
	symbols := usfmLexer.Symbols()

	var (
		seenID, seenChapter bool
		expectNumber        string
		stack               []openMarker
		milestones          = map[string]int{}
		inMilestone         bool
		pendingClose        string
	)
	for {
		tok, err := lex.Next()
		if err != nil {
			return fail(0, 0, "", "cannot tokenize: %v", err)
		}
		if tok.EOF() {
			break
		}
		line, col := tok.Pos.Line, tok.Pos.Column-1
		excerpt := tok.Value
		if len(excerpt) > 20 {
			excerpt = excerpt[:20]
		}

		switch tok.Type {
		case symbols["Newline"]:
			if expectNumber != "" {
				return fail(line, col, excerpt, `\%s marker without a number`, expectNumber)
			}
			continue
		case symbols["Stray"]:
			return fail(line, col, excerpt, "backslash not followed by a marker")
		case symbols["MilestoneEnd"]:
			if !inMilestone && pendingClose == "" {
				return fail(line, col, excerpt, `unexpected \* outside a milestone`)
			}
			inMilestone, pendingClose = false, ""
			continue
		case symbols["Text"]:
			if inMilestone {
				continue
			}
			if expectNumber != "" {
				num, _ := splitFirstWord(tok.Value)
				pattern := versePattern
				if expectNumber == "c" {
					pattern = chapterPattern
				}
				if !pattern.MatchString(num) {
					return fail(line, col, excerpt, `\%s marker should be followed by a number, not %q`, expectNumber, num)
				}
				expectNumber = ""
			}
			if !seenID {
				return fail(line, col, excerpt, `text before the \id marker`)
			}
			continue
		}

		// Marker token.
		name := strings.TrimPrefix(tok.Value[1:], "+")
		if !seenID {
			if name != "id" {
				return fail(line, col, excerpt, `expected \id as the first marker, found \%s`, name)
			}
			seenID = true
			next, err := lex.Peek()
			if err != nil || !bookCodePattern.MatchString(strings.TrimLeft(next.Value, " ")) {
				return fail(line, col, excerpt, `\id marker should be followed by a book code`)
			}
			continue
		}
		if expectNumber != "" {
			return fail(line, col, excerpt, `\%s marker should be followed by a number`, expectNumber)
		}

		switch {
		case strings.HasSuffix(name, "-s"):
			milestones[strings.TrimSuffix(name, "-s")]++
			inMilestone = true
		case strings.HasSuffix(name, "-e"):
			base := strings.TrimSuffix(name, "-e")
			if milestones[base] == 0 {
				return fail(line, col, excerpt, `\%s closes no open \%s-s milestone`, name, base)
			}
			milestones[base]--
			pendingClose = name
		case strings.HasSuffix(name, "*"):
			base := strings.TrimSuffix(name, "*")
			found := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == base {
					found = i
					break
				}
			}
			if found < 0 {
				return fail(line, col, excerpt, `\%s closes no open \%s marker`, name, base)
			}
			if found != len(stack)-1 && strictness == Strict {
				return fail(line, col, excerpt, `\%s closes \%s before \%s*`, name, base, stack[len(stack)-1].name)
			}
			stack = stack[:found]
		case name == "ts":
			pendingClose = name
		case name == "c", name == "v":
			if name == "v" && !seenChapter {
				return fail(line, col, excerpt, `\v marker before the first \c marker`)
			}
			if name == "c" {
				seenChapter = true
			}
			if err := unclosed(stack, strictness); err != "" {
				if strictness == Strict {
					return fail(line, col, excerpt, "%s", err)
				}
				res.Warnings = append(res.Warnings, err)
			}
			stack = stack[:0]
			expectNumber = name
		case characterMarkers[name]:
			stack = append(stack, openMarker{name: name, line: line})
		default:
			if _, known := Lookup(name); !known && !isNoteInternal(name) && !isKnownOther(name) {
				res.Warnings = append(res.Warnings, fmt.Sprintf(`Unknown marker \%s at line %d`, name, line))
			}
		}
	}

	if !seenID {
		return fail(1, 0, "", `missing \id marker`)
	}
	if !seenChapter {
		return fail(len(lines), 0, "", `no \c chapter markers found`)
	}
	if err := unclosed(stack, strictness); err != "" {
		if strictness == Strict {
			return fail(len(lines), 0, "", "%s", err)
		}
		res.Warnings = append(res.Warnings, err)
	}
	for base, n := range milestones {
		if n != 0 {
			return fail(len(lines), 0, "", `%d \%s-s milestone(s) never closed`, n, base)
		}
	}
	res.Valid = true
	return res
}

func unclosed(stack []openMarker, _ Strictness) string {
	if len(stack) == 0 {
		return ""
	}
	top := stack[len(stack)-1]
	return fmt.Sprintf(`\%s opened at line %d is not closed`, top.name, top.line)
}

func isNoteInternal(name string) bool {
	switch name {
	case "fr", "ft", "fq", "fqa", "fk", "fl", "fw", "fp", "fv", "fe",
		"xo", "xk", "xq", "xt", "xta", "xop", "xot", "xnt", "xdc":
		return true
	}
	return false
}

func isKnownOther(name string) bool {
	switch name {
	case "b", "nb", "pc", "pm", "pmo", "pmc", "pmr", "mi", "cl", "cp", "cd",
		"ip", "is", "is1", "is2", "imt", "imt1", "imt2", "io", "io1", "io2", "iot", "ie",
		"mr", "ms", "ms1", "ms2", "mte", "qa", "qc", "qr", "qm", "qm1", "qm2", "sr", "sd":
		return true
	}
	return false
}
