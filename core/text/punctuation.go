package text

import "regexp"

// Paired punctuation, index-aligned.
var (
	PairedOpeners = []rune("[({<⟨“‘«‹《〈⸢⸤")
	PairedClosers = []rune("])}>⟩”’»›》〉⸣⸥")
)

// Pair is an opening and closing marker.
type Pair struct {
	Open, Close string
}

// OpenClosePairs are counted for balance in field and whole-text checks.
var OpenClosePairs = []Pair{
	{"[", "]"}, {"(", ")"}, {"{", "}"},
	{"“", "”"}, {"‘", "’"},
	{"<", ">"}, {"⟨", "⟩"},
	{"«", "»"}, {"‹", "›"},
	{"《", "》"}, {"〈", "〉"},
	{"⸢", "⸣"}, {"⸤", "⸥"},
	{"**_", "_**"},
}

// BadCharacterCombinations are literal sequences that are always suspect.
var BadCharacterCombinations = []string{`\[\[`, `\]\]`, "] (http", "] (."}

// LeadingZeroCombinations precede a number that should not start with zero.
var LeadingZeroCombinations = []string{" 0", ":0", "<br>0", "“0", "‘0"}

// BadCharacterRegex describes a suspect pattern and names it for details.
type BadCharacterRegex struct {
	Details string
	Regex   *regexp.Regexp
}

// BadCharacterRegexes are searched in field text.
var BadCharacterRegexes = []BadCharacterRegex{
	{"punctuation followed by letter", regexp.MustCompile(`[.,:;!?]\p{L}`)},
	{"digit, space, digit", regexp.MustCompile(`\d, \d`)},
	{"space before digit group", regexp.MustCompile(` \d{3}\b`)},
	{"four digits without separator", regexp.MustCompile(`\b\d{4}\b`)},
	{"five or more digits without separator", regexp.MustCompile(`\d{5,}`)},
}

// OpenerFor returns the opener matching closer, or 0.
func OpenerFor(closer rune) rune {
	for i, c := range PairedClosers {
		if c == closer {
			return PairedOpeners[i]
		}
	}
	return 0
}

// IsOpener reports whether r is a paired opener.
func IsOpener(r rune) bool {
	for _, o := range PairedOpeners {
		if o == r {
			return true
		}
	}
	return false
}

// IsCloser reports whether r is a paired closer.
func IsCloser(r rune) bool {
	return OpenerFor(r) != 0
}
