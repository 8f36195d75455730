// Package usfm holds the USFM knowledge the checkers need: the marker
// rule table, verse text extraction and a lightweight grammar validator.
package usfm

// Class groups markers by where they may appear.
type Class int

const (
	ClassUnknown Class = iota
	ClassIntro
	ClassChapterVerse
	ClassHeading
	ClassParagraph
	ClassNote
	ClassSpecial
	ClassMilestone
	ClassDeprecated
	ClassCharacter
)

// Rule describes how a marker may be used at the start of a line.
type Rule struct {
	Class Class
	// LineStart markers may begin a line.
	LineStart bool
	// NoContent markers must not be followed by text.
	NoContent bool
	// Compulsory markers must be followed by text.
	Compulsory bool
	// Deprecated markers are from older USFM versions.
	Deprecated bool
}

var markerRules = map[string]Rule{}

func register(class Class, r Rule, markers ...string) {
	r.Class = class
	for _, m := range markers {
		markerRules[m] = r
	}
}

func init() {
	register(ClassIntro, Rule{LineStart: true, Compulsory: true},
		"id", "usfm", "ide", "h", "toc1", "toc2", "toc3", "mt", "mt1", "mt2")
	register(ClassChapterVerse, Rule{LineStart: true, Compulsory: true}, "c", "v")
	register(ClassHeading, Rule{LineStart: true, Compulsory: true},
		"s", "s1", "s2", "s3", "s4", "r", "d", "rem", "sp", "qs")
	register(ClassParagraph, Rule{LineStart: true},
		"p", "q", "q1", "q2", "q3", "q4", "m",
		"pi", "pi1", "pi2", "pi3", "pi4", "li", "li1", "li2", "li3", "li4")
	register(ClassNote, Rule{LineStart: true, Compulsory: true}, "f", "x")
	register(ClassSpecial, Rule{LineStart: true, Compulsory: true}, "w", "zaln-s", "k-s")
	register(ClassMilestone, Rule{LineStart: true, NoContent: true}, `ts-s`, `ts-e`, `ts\*`, `k-e\*`)
	register(ClassParagraph, Rule{LineStart: false, NoContent: true}, "b")
	register(ClassDeprecated, Rule{Deprecated: true},
		"h1", "h2", "h3", "h4", "pr", "ph", "ph1", "ph2", "ph3", "ph4", "addpn", "pro", "fdc", "xdc")
}

// Lookup returns the rule for a marker name without its backslash.
func Lookup(marker string) (Rule, bool) {
	r, ok := markerRules[marker]
	return r, ok
}

// IsParagraph reports paragraph-type markers.
func IsParagraph(marker string) bool {
	r, ok := markerRules[marker]
	return ok && r.Class == ClassParagraph && r.LineStart
}

// CharacterPairs lists the character-level markers that must open and
// close an equal number of times in a file.
var CharacterPairs = [][2]string{
	{`\add `, `\add*`}, {`\addpn `, `\addpn*`},
	{`\bd `, `\bd*`}, {`\bdit `, `\bdit*`},
	{`\bk `, `\bk*`},
	{`\dc `, `\dc*`},
	{`\em `, `\em*`},
	{`\fig `, `\fig*`},
	{`\it `, `\it*`},
	{`\k `, `\k*`},
	{`\nd `, `\nd*`}, {`\ndx `, `\ndx*`},
	{`\no `, `\no*`},
	{`\ord `, `\ord*`},
	{`\pn `, `\pn*`},
	{`\pro `, `\pro*`},
	{`\qt `, `\qt*`},
	{`\sc `, `\sc*`},
	{`\sig `, `\sig*`},
	{`\sls `, `\sls*`},
	{`\tl `, `\tl*`},
	{`\w `, `\w*`},
	{`\wg `, `\wg*`}, {`\wh `, `\wh*`},
	{`\wj `, `\wj*`},
	{`\ca `, `\ca*`}, {`\va `, `\va*`},
	{`\f `, `\f*`}, {`\x `, `\x*`},
}
