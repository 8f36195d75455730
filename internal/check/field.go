package check

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/core/text"
)

// FieldType classifies the content of a field. Several rules relax for
// markdown, USFM or YAML content.
type FieldType string

const (
	FieldRaw      FieldType = "raw"
	FieldText     FieldType = "text"
	FieldMarkdown FieldType = "markdown"
	FieldUSFM     FieldType = "USFM"
	FieldUSFMLine FieldType = "USFM line"
	FieldYAML     FieldType = "YAML"
	FieldLink     FieldType = "link"
	FieldTSV      FieldType = "TSV"
	FieldUSX      FieldType = "USX"
)

func (t FieldType) is(prefix FieldType) bool {
	return strings.HasPrefix(string(t), string(prefix))
}

// Field is one logical piece of text handed to TextField.
type Field struct {
	LanguageCode string
	RepoCode     string
	Type         FieldType
	Name         string
	Text         string
	// AllowLinks disables the unexpected-link check and relaxes the
	// doubled-character check for characters that occur in links.
	AllowLinks bool
	Location   string
}

// Punctuation alphabets for the doubled, after-space, before-space and
// end-of-line checks.
const (
	doubledPunctuation     = `({}<>⟨⟩:،、‒–—―…!‹›«»‐?‘’“”';⁄·&@•^†‡°¡¿※№÷×ºª%‰+−=‱¶′″‴§|‖¦©℗®℠™¤₳฿₵¢₡₢$₫₯֏₠€ƒ₣₲₴₭₺₾ℳ₥₦₧₱₰£៛₽₹₨₪৳₸₮₩¥`
	afterSpacePunctuation  = `)}>⟩:,،、‒–—―!.›»‐-?’”;/⁄·@•^†‡°¡¿※#№÷×ºª%‰‱¶′″‴§‖¦℗®℠™¤₳฿₵¢₡₢₫₯֏₠ƒ₣₲₴₭₺₾ℳ₥₦₧₰£៛₽₹₨₪৳₸₮₩¥`
	beforeSpacePunctuation = `({<⟨،、‒–—―‹«‐‘“/⁄·@\•^†‡°¡¿※№×ºª‰‱¶′″‴§|‖¦℗℠™¤₳฿₵¢₡₢$₫₯֏₠€ƒ₣₲₴₭₺₾ℳ₥₦₧₱₰£៛₽₹₨₪৳₸₮₩¥`
	endOfLinePunctuation   = `([{<⟨،、‒–—―‹«‐‘“/⁄·@©\•^†‡°¡¿※№×ºª‰‱¶′″‴§|‖¦℗℠™¤₳฿₵¢₡₢$₫₯֏₠€ƒ₣₲₴₭₺₾ℳ₥₦₧₱₰£៛₽₹₨₪৳₸₮₩¥`
)

var lineBreaks = []string{`\n`, "<br>", "<br/>", "<br />"}

// xMorphFieldNames are USFM markers whose attributes legitimately contain
// commas and colons.
var xMorphFieldNames = []string{`\w`, `\zaln-s`, `\v`, `\p`, `\q`, `\q1`, `\SPECIAL`, `\NONE`, `\f`}

type fieldCheck struct {
	Field
	runes []rune
	win   text.Window
	opts  Options
	loc   string
	res   *notice.Result
}

// TextField runs the basic punctuation and spacing checks over one field.
// It is a pure function of its inputs. When its cleanups would change the
// text the result carries a Suggestion.
func TextField(f Field, opts Options) *notice.Result {
	res := notice.NewResult()
	if f.Text == "" {
		return res
	}
	c := &fieldCheck{
		Field: f,
		runes: []rune(f.Text),
		win:   opts.window(),
		opts:  opts,
		loc:   spaced(f.Location),
		res:   res,
	}
	suggestion := c.run()
	if suggestion != f.Text {
		res.Suggestion = suggestion
	}
	return res
}

func (c *fieldCheck) add(n notice.Notice) {
	if !c.opts.wants(n.Priority) {
		return
	}
	n.Location = c.loc
	if c.Name != "" && !strings.HasSuffix(c.Name, " line") {
		n.FieldName = c.Name
	}
	c.res.Add(n)
}

// at returns a character index unless the field is processed USFM text,
// where positions mean nothing.
func (c *fieldCheck) at(i int) *int {
	if (c.Type == FieldRaw || c.Type == FieldText) && strings.HasPrefix(c.Name, `from \`) {
		return nil
	}
	return notice.At(i)
}

func (c *fieldCheck) around(i int, replacers ...func(string) string) string {
	return c.win.Around(c.Text, i, replacers...)
}

func (c *fieldCheck) first() rune { return c.runes[0] }

func (c *fieldCheck) last() rune { return c.runes[len(c.runes)-1] }

func (c *fieldCheck) run() string {
	s := c.Text
	n := len(c.runes)
	suggestion := text.TrimWhitespace(s)

	if i := text.Index(s, "\u200B"); i >= 0 {
		count := text.CountOccurrences(s, "\u200B")
		c.add(notice.Notice{Priority: 895, Message: "Field contains zero-width space(s)",
			Details: plural(count, "occurrence") + " found", CharacterIndex: notice.At(i),
			Excerpt: c.around(i, text.ShowZeroWidthSpaces)})
		suggestion = strings.ReplaceAll(suggestion, "\u200B", "")
	}

	if text.IsWhitespace(s) {
		c.add(notice.Notice{Priority: 638, Message: "Only found whitespace"})
		return suggestion
	}

	for _, m := range []struct {
		marker   string
		priority int
	}{{"<<<<<<<", 993}, {"=======", 992}, {">>>>>>>>", 991}} {
		if i := text.Index(s, m.marker); i >= 0 {
			// The excerpt leans towards what follows the marker.
			c.add(notice.Notice{Priority: m.priority, Message: "Unresolved GIT conflict",
				CharacterIndex: notice.At(i), Excerpt: c.around(i+c.win.Half, text.ShowSpaces)})
			break
		}
	}

	switch c.first() {
	case ' ':
		msg, priority := "Unexpected leading space", 109
		if n > 1 && c.runes[1] == ' ' {
			msg, priority = "Unexpected leading spaces", 110
		}
		c.add(notice.Notice{Priority: priority, Message: msg, CharacterIndex: notice.At(0),
			Excerpt: c.win.Head(s, text.ShowSpaces)})
	case text.WordJoiner:
		c.add(notice.Notice{Priority: 770, Message: "Unexpected leading word-joiner (u2060) character",
			CharacterIndex: notice.At(0), Excerpt: c.win.Head(s, showRune(text.WordJoiner))})
		suggestion = strings.TrimPrefix(suggestion, string(text.WordJoiner))
	case text.ZeroWidthJoiner:
		c.add(notice.Notice{Priority: 771, Message: "Unexpected leading zero-width joiner (u200D) character",
			CharacterIndex: notice.At(0), Excerpt: c.win.Head(s, showRune(text.ZeroWidthJoiner))})
		suggestion = strings.TrimPrefix(suggestion, string(text.ZeroWidthJoiner))
	}
	if i := text.Index(s, "<br> "); i >= 0 {
		c.add(notice.Notice{Priority: 64, Message: "Unexpected leading space(s) after break",
			CharacterIndex: notice.At(i), Excerpt: c.around(i, text.ShowSpaces)})
	}
	if i := text.Index(s, `\n `); i >= 0 {
		c.add(notice.Notice{Priority: 63, Message: "Unexpected leading space(s) after line break",
			CharacterIndex: notice.At(i), Excerpt: c.around(i, text.ShowSpaces)})
	}

	switch c.last() {
	case text.WordJoiner:
		c.add(notice.Notice{Priority: 772, Message: "Unexpected trailing word-joiner (u2060) character",
			CharacterIndex: notice.At(n - 1), Excerpt: c.win.Tail(s, showRune(text.WordJoiner))})
		suggestion = strings.TrimSuffix(suggestion, string(text.WordJoiner))
	case text.ZeroWidthJoiner:
		c.add(notice.Notice{Priority: 773, Message: "Unexpected trailing zero-width joiner (u200D) character",
			CharacterIndex: notice.At(n - 1), Excerpt: c.win.Tail(s, showRune(text.ZeroWidthJoiner))})
		suggestion = strings.TrimSuffix(suggestion, string(text.ZeroWidthJoiner))
	}

	lower := strings.ToLower(s)
	onlyBreak := slices.Contains(lineBreaks, lower)
	if !onlyBreak && text.HasAnyPrefix(lower, lineBreaks...) {
		c.add(notice.Notice{Priority: 107, Message: "Unexpected leading line break",
			CharacterIndex: notice.At(0), Excerpt: c.win.Head(s)})
		suggestion = trimBreaks(suggestion, strings.HasPrefix, func(s string, k int) string { return s[k:] })
	}

	if c.last() == ' ' && (!c.Type.is(FieldMarkdown) || n < 3 || c.runes[n-2] != ' ' || c.runes[n-3] == ' ') {
		c.add(notice.Notice{Priority: 95, Message: "Unexpected trailing space(s)",
			CharacterIndex: c.at(n - 1), Excerpt: c.win.Tail(s, text.ShowSpaces)})
	}
	if i := text.Index(s, " <br"); i >= 0 {
		c.add(notice.Notice{Priority: 94, Message: "Unexpected trailing space(s) before break",
			CharacterIndex: notice.At(i), Excerpt: c.around(i, text.ShowSpaces)})
	}
	if i := text.Index(s, ` \n`); i >= 0 {
		c.add(notice.Notice{Priority: 93, Message: "Unexpected trailing space(s) before line break",
			CharacterIndex: notice.At(i), Excerpt: c.around(i, text.ShowSpaces)})
	}
	hasSuffix := func(s, suffix string) bool { return strings.HasSuffix(strings.ToLower(s), suffix) }
	if !onlyBreak && slices.ContainsFunc(lineBreaks, func(b string) bool { return hasSuffix(lower, b) }) {
		c.add(notice.Notice{Priority: 104, Message: "Unexpected trailing line break",
			CharacterIndex: notice.At(n - 1), Excerpt: c.win.Tail(s)})
		suggestion = trimBreaks(suggestion, hasSuffix, func(s string, k int) string { return s[:len(s)-k] })
	}

	if i := text.Index(s, "  "); i >= 0 && (!c.Type.is(FieldMarkdown) || i != n-2) {
		count := text.CountOccurrences(s, "  ")
		nt := notice.Notice{Priority: 124, Message: "Unexpected double spaces",
			CharacterIndex: c.at(i), Excerpt: c.around(i, text.ShowSpaces)}
		if count > 1 {
			nt.Priority, nt.Message = 224, "Multiple unexpected double spaces"
			nt.Details = fmt.Sprintf("%d occurrences—only first is displayed", count)
		}
		c.add(nt)
	}
	if i := text.Index(s, "\n"); i >= 0 {
		c.add(notice.Notice{Priority: 583, Message: "Unexpected newLine character",
			CharacterIndex: notice.At(i), Excerpt: c.around(i)})
		suggestion = strings.ReplaceAll(suggestion, "\n", " ")
	}
	if i := text.Index(s, "\r"); i >= 0 {
		c.add(notice.Notice{Priority: 582, Message: "Unexpected carriageReturn character",
			CharacterIndex: notice.At(i), Excerpt: c.around(i)})
		suggestion = strings.ReplaceAll(suggestion, "\r", " ")
	}
	if i := text.Index(s, "\u00A0"); i >= 0 {
		var prev, next rune
		if i > 0 {
			prev = c.runes[i-1]
		}
		if i < n-1 {
			next = c.runes[i+1]
		}
		// French punctuation puts no-break spaces inside guillemets.
		if prev != '«' && prev != '‹' && next != '»' && next != '›' {
			c.add(notice.Notice{Priority: 581, Message: "Unexpected non-break space (u00A0) character",
				CharacterIndex: notice.At(i), Excerpt: c.around(i, text.ShowNoBreakSpaces)})
			suggestion = strings.ReplaceAll(suggestion, "\u00A0", " ")
		}
	}
	if i := text.Index(s, "\u202F"); i >= 0 {
		c.add(notice.Notice{Priority: 580, Message: "Unexpected narrow non-break space (u202F) character",
			CharacterIndex: c.at(i), Excerpt: c.around(i, showRune(text.NarrowNoBreakSpace))})
		suggestion = strings.ReplaceAll(suggestion, "\u202F", " ")
	}
	if c.Name == "OrigQuote" || c.Name == "Quote" {
		if i := text.Index(s, " …"); i >= 0 {
			c.add(notice.Notice{Priority: 179, Message: "Unexpected space before ellipse character",
				CharacterIndex: notice.At(i), Excerpt: c.around(i)})
			suggestion = strings.ReplaceAll(suggestion, " …", "…")
		}
		if i := text.Index(s, "… "); i >= 0 {
			c.add(notice.Notice{Priority: 178, Message: "Unexpected space after ellipse character",
				CharacterIndex: notice.At(i), Excerpt: c.around(i)})
			suggestion = strings.ReplaceAll(suggestion, "… ", "…")
		}
	}
	suggestion = strings.ReplaceAll(suggestion, "  ", " ")

	c.punctuation()
	if c.Type.is(FieldUSFM) {
		suggestion = strings.ReplaceAll(suggestion, "| ", "|")
	}
	c.combinations()
	c.pairs()

	if !c.AllowLinks {
		i := -1
		for _, marker := range []string{"://", "http", "ftp", ".org", ".com", ".info", ".bible"} {
			if i = text.Index(s, marker); i >= 0 {
				break
			}
		}
		if i >= 0 {
			c.add(notice.Notice{Priority: 765, Message: "Unexpected link",
				CharacterIndex: notice.At(i), Excerpt: c.around(i)})
		}
	}
	return suggestion
}

// punctuation runs the doubled, space-adjacent and end-of-line checks.
func (c *fieldCheck) punctuation() {
	s := c.Text
	n := len(c.runes)
	markdown, usfmField, yamlField := c.Type.is(FieldMarkdown), c.Type.is(FieldUSFM), c.Type.is(FieldYAML)

	doubled := doubledPunctuation
	if !c.AllowLinks {
		doubled += "/[].)"
	}
	if !markdown {
		doubled += "_*#~"
	}
	if !usfmField || !strings.Contains(s, "x-morph") {
		doubled += `,"`
	}
	if !yamlField || !strings.HasPrefix(s, "--") {
		doubled += "-"
	}
	for _, p := range doubled {
		if i := text.Index(s, string([]rune{p, p})); i >= 0 {
			c.add(notice.Notice{Priority: 177, Message: fmt.Sprintf("Unexpected doubled %c characters", p),
				CharacterIndex: c.at(i), Excerpt: c.around(i)})
		}
	}

	afterSpace := afterSpacePunctuation
	if !markdown {
		afterSpace += "_*~"
	}
	if !usfmField || (!strings.Contains(s, "x-lemma") && !strings.Contains(s, "x-tw")) {
		afterSpace += "|"
	}
	if !yamlField {
		afterSpace += `'"`
	}
	for _, p := range afterSpace {
		if i := text.Index(s, " "+string(p)); i >= 0 {
			next := text.RuneAt(s, i+1)
			// Negative numbers are fine.
			if p != '-' || !strings.ContainsRune("1234567890", next) {
				nt := notice.Notice{Priority: 191, Message: fmt.Sprintf("Unexpected %c character after space", p),
					CharacterIndex: c.at(i), Excerpt: c.around(i)}
				if ((p == '—' || p == '/') && markdown) ||
					// Some languages allow words to start with an apostrophe.
					(p == '’' && !slices.Contains([]string{"en", "hbo", "el-x-koine"}, c.LanguageCode)) {
					nt.Priority = 71
				}
				c.add(nt)
			}
		}
		if (p != '-' || !(yamlField || markdown)) && (p != '!' || !markdown) && c.first() == p {
			c.add(notice.Notice{Priority: 195, Message: fmt.Sprintf("Unexpected %c character at start of line", p),
				CharacterIndex: notice.At(0), Excerpt: c.around(0)})
		}
	}

	beforeSpace := beforeSpacePunctuation
	if !markdown {
		beforeSpace += "_~"
	}
	if !markdown && !usfmField {
		beforeSpace += "*"
	}
	if !yamlField {
		beforeSpace += "["
	}
	for _, p := range beforeSpace {
		if i := text.Index(s, string(p)+" "); i >= 0 {
			priority := 192
			if (p == '—' || p == '/') && markdown {
				priority = 72
			}
			c.add(notice.Notice{Priority: priority, Message: fmt.Sprintf("Unexpected space after %c character", p),
				CharacterIndex: c.at(i), Excerpt: c.around(i)})
		}
	}

	endOfLine := endOfLinePunctuation
	if !markdown {
		endOfLine += "_~"
	}
	if !markdown && !usfmField {
		endOfLine += "*"
	}
	for _, p := range endOfLine {
		if p != '—' && c.last() == p {
			c.add(notice.Notice{Priority: 193, Message: fmt.Sprintf("Unexpected %c character at end of line", p),
				CharacterIndex: c.at(n - 1), Excerpt: c.around(n - 1)})
		}
	}
}

// combinations runs the bad-combination, bad-regex and leading-zero checks.
func (c *fieldCheck) combinations() {
	s := c.Text
	for _, combo := range text.BadCharacterCombinations {
		if i := text.Index(s, combo); i >= 0 {
			c.add(notice.Notice{Priority: 849, Message: fmt.Sprintf("Unexpected '%s' character combination", combo),
				CharacterIndex: notice.At(i), Excerpt: c.around(i)})
		}
	}

	if c.opts.wants(329) {
		for _, bad := range text.BadCharacterRegexes {
			loc := bad.Regex.FindStringIndex(s)
			if loc == nil {
				continue
			}
			i := utf8.RuneCountInString(s[:loc[0]])
			if c.knownCombination(s[loc[0]:]) {
				continue
			}
			c.add(notice.Notice{Priority: 329, Message: "Unexpected bad character combination",
				Details: bad.Details, CharacterIndex: notice.At(i), Excerpt: c.around(i)})
		}
	}

	for _, combo := range text.LeadingZeroCombinations {
		i := text.Index(s, combo)
		if i < 0 {
			continue
		}
		after := text.RuneLen(combo)
		if text.RuneAt(s, i+after) == '.' {
			continue
		}
		// “0” is fine, as is "sort: 0" in manifests.
		if text.RuneAt(s, i+1) != '”' && (c.Type != FieldYAML || !strings.Contains(s, "sort:")) {
			c.add(notice.Notice{Priority: 92, Message: "Unexpected leading zero",
				CharacterIndex: notice.At(i), Excerpt: c.around(i)})
		}
	}
}

// knownCombination reports whether a bad-regex match starting at rest is a
// recognized legitimate case.
func (c *fieldCheck) knownCombination(rest string) bool {
	s := c.Text
	lower := strings.ToLower(s)
	bad, _ := utf8.DecodeRuneInString(rest)
	next := rest[utf8.RuneLen(bad):]
	nextChar, _ := utf8.DecodeRuneInString(next)
	badTwo := text.Substring(rest, 0, 2)
	switch {
	case strings.HasPrefix(next, "<br>") && (c.RepoCode == "TN" || c.RepoCode == "TA"):
	case strings.HasPrefix(next, `\n`) && (c.RepoCode == "TN2" || c.RepoCode == "SN"):
	case nextChar == '\\' && c.Type == FieldUSFMLine:
	case nextChar == '}' && c.RepoCode == "ST":
	case nextChar == '…' && c.Name == "OrigQuote":
	case strings.HasPrefix(next, "\u00A0»") || strings.HasPrefix(next, "\u00A0›"):
	case strings.HasPrefix(next, "<sup>") && c.Type == FieldMarkdown && c.RepoCode == "TA":
	case (strings.HasPrefix(c.Name, "README") || strings.HasSuffix(c.Name, ".md line") || strings.HasSuffix(c.Name, "Note line")) &&
		(nextChar == '*' || badTwo == "!["):
	case text.HasAnyPrefix(rest, ".md", ".usfm", ".tsv", ".yaml", ".org"):
	case bad == '.' && (strings.Contains(s, "http") || strings.Contains(s, "rc:") || strings.HasSuffix(c.Name, "manifest line")):
	case badTwo == ":H" && c.RepoCode == "UHB":
	case badTwo == ".g" && strings.Contains(lower, "e.g."), badTwo == ".e" && strings.Contains(lower, "i.e."):
	case bad == '.' && strings.Contains(s, "etc."):
	case badTwo == ".m" && (strings.Contains(lower, "a.m.") || strings.Contains(lower, "p.m.")):
	case badTwo == ".C" && strings.Contains(s, "B.C."), badTwo == ".D" && strings.Contains(s, "A.D."):
	case badTwo == "?v" && strings.HasSuffix(c.Name, "manifest line"):
	case bad == '?' && strings.Contains(s, "http"):
	case slices.Contains(xMorphFieldNames, c.Name) && (bad == ',' || bad == ':'):
	default:
		return false
	}
	return true
}

// Openers that may legitimately close on a later line.
const multiLineOpeners = "([{“‘«"

// pairs checks the balance and placement of paired punctuation.
func (c *fieldCheck) pairs() {
	s := c.Text
	markdown, yamlField := c.Type.is(FieldMarkdown), c.Type.is(FieldYAML)
	for _, pair := range text.OpenClosePairs {
		if (c.Type.is(FieldUSFM) || strings.HasPrefix(c.Name, `from \`) || (c.Type == FieldMarkdown && c.Name == "")) &&
			strings.Contains(multiLineOpeners, pair.Open) {
			continue
		}
		// In markdown > marks a block quote and also closes HTML tags.
		if markdown && pair.Open == "<" {
			continue
		}
		left, right := text.CountOccurrences(s, pair.Open), text.CountOccurrences(s, pair.Close)
		// A closing single quote doubles as an apostrophe.
		if left != right && (pair.Close != "’" || left > right) {
			priority := 563
			if pair.Open == "“" {
				priority = 163
			}
			c.add(notice.Notice{Priority: priority, Message: fmt.Sprintf("Mismatched %s%s characters", pair.Open, pair.Close),
				Details: fmt.Sprintf("left=%d, right=%d", left, right)})
		}

		for _, m := range misplacedRegex(pair.Open).FindAllStringSubmatch(s, -1) {
			following := m[2]
			if markdown && m[1] == "_" {
				continue
			}
			if yamlField && pair.Open == "{" {
				continue
			}
			if c.LanguageCode == "en" && following == "s" && strings.Contains(s, "(s)") {
				continue
			}
			if pair.Open == "(" && following == "s" {
				c.add(notice.Notice{Priority: 17, Message: "Possible misplaced ( character", Excerpt: m[0]})
				continue
			}
			c.add(notice.Notice{Priority: 717, Message: fmt.Sprintf("Misplaced %s character", pair.Open), Excerpt: m[0]})
		}
		if pair.Close == "’" {
			continue
		}
		for _, m := range misplacedRegex(pair.Close).FindAllStringSubmatch(s, -1) {
			if markdown && m[2] == "_" {
				continue
			}
			if yamlField && pair.Close == "}" {
				continue
			}
			c.add(notice.Notice{Priority: 716, Message: fmt.Sprintf("Misplaced %s character", pair.Close), Excerpt: m[0]})
		}
	}
}

var misplacedCache = map[string]*regexp.Regexp{}

func init() {
	for _, pair := range text.OpenClosePairs {
		for _, p := range []string{pair.Open, pair.Close} {
			misplacedCache[p] = regexp.MustCompile(`(\w)` + regexp.QuoteMeta(p) + `(\w)`)
		}
	}
}

// misplacedRegex matches punctuation sandwiched between word characters.
func misplacedRegex(p string) *regexp.Regexp {
	return misplacedCache[p]
}

func showRune(r rune) func(string) string {
	return func(s string) string { return strings.ReplaceAll(s, string(r), "‼") }
}

func trimBreaks(s string, has func(s, b string) bool, cut func(s string, k int) string) string {
	for {
		trimmed := false
		for _, b := range lineBreaks {
			for has(strings.ToLower(s), b) {
				s = cut(s, len(b))
				trimmed = true
			}
		}
		if !trimmed {
			return s
		}
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
