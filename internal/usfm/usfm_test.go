package usfm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const book = "\\id JUD Unlocked Literal Bible\n" +
	"\\h Jude\n" +
	"\\c 1\n" +
	"\\p\n" +
	"\\v 1 Jude, a \\add servant\\add* of Jesus Christ.\n" +
	"\\v 2 May mercy\n" +
	"\\q be multiplied.\n"

func TestLookup(t *testing.T) {
	rule, ok := Lookup("v")
	require.True(t, ok)
	assert.True(t, rule.LineStart)
	assert.True(t, rule.Compulsory)

	rule, ok = Lookup("b")
	require.True(t, ok)
	assert.True(t, rule.NoContent)
	assert.False(t, rule.LineStart)

	rule, ok = Lookup("pr")
	require.True(t, ok)
	assert.True(t, rule.Deprecated)

	_, ok = Lookup("nope")
	assert.False(t, ok)

	assert.True(t, IsParagraph("q1"))
	assert.False(t, IsParagraph("b"))
	assert.False(t, IsParagraph("s1"))
}

func TestParse(t *testing.T) {
	b, ok := Parse(book)
	require.True(t, ok)
	assert.Equal(t, []Header{{Marker: "id", Content: "JUD Unlocked Literal Bible"}, {Marker: "h", Content: "Jude"}}, b.Headers)
	assert.Equal(t, `Jude, a \add servant\add* of Jesus Christ.`, b.Chapters["1"]["1"])
	assert.Equal(t, `May mercy \q be multiplied.`, b.Chapters["1"]["2"])

	_, ok = Parse("\\id JUD\n\\h Jude\n")
	assert.False(t, ok)
}

func TestVerseText(t *testing.T) {
	aligned := "\\c 1\n" +
		"\\p\n" +
		"\\v 1 \\zaln-s |x-strong=\"G24550\"\\*\\w Ἰούδας|x-occurrence=\"1\"\\w*\\zaln-e\\* \\w Ἰησοῦ|lemma=\"Ἰησοῦς\"\\w*\n" +
		"\\w Χριστοῦ|lemma=\"Χριστός\"\\w*\\f + \\ft a note\\f*\n" +
		"\\v 10 \\w δέκα|lemma=\"δέκα\"\\w*\n" +
		"\\c 2\n" +
		"\\v 1 \\w ἄλλος|lemma=\"ἄλλος\"\\w*\n"

	tests := []struct {
		C, V string
		want string
	}{
		{C: "1", V: "1", want: "Ἰούδας Ἰησοῦ Χριστοῦ"},
		{C: "1", V: "10", want: "δέκα"},
		{C: "2", V: "1", want: "ἄλλος"},
		{C: "1", V: "5", want: ""},
		{C: "3", V: "1", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.C+":"+tt.V, func(t *testing.T) {
			assert.Equal(t, tt.want, VerseText(aligned, tt.C, tt.V))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		valid   bool
		message string
		line    int
	}{
		{name: "valid", text: book, valid: true},
		{
			name:  "milestones",
			text:  "\\id JUD\n\\c 1\n\\v 1 \\zaln-s |x-occurrence=\"1\"\\*\\w Ἰούδας|x\\w*\\zaln-e\\*\n",
			valid: true,
		},
		{name: "missing id", text: "\\c 1\n\\v 1 Text\n", message: `expected \id as the first marker, found \c`, line: 1},
		{name: "id without code", text: "\\id\n\\c 1\n", message: `\id marker should be followed by a book code`, line: 1},
		{name: "text before id", text: "Text\n\\id JUD\n", message: `text before the \id marker`, line: 1},
		{name: "verse before chapter", text: "\\id JUD\n\\v 1 Text\n", message: `\v marker before the first \c marker`, line: 2},
		{name: "chapter without number", text: "\\id JUD\n\\c\n\\v 1 Text\n", message: `\c marker without a number`, line: 2},
		{name: "bad verse number", text: "\\id JUD\n\\c 1\n\\v x Text\n", message: `\v marker should be followed by a number, not "x"`, line: 3},
		{name: "stray backslash", text: "\\id JUD\n\\c 1\n\\v 1 a \\ b\n", message: "backslash not followed by a marker", line: 3},
		{name: "unopened close", text: "\\id JUD\n\\c 1\n\\v 1 a\\add*\n", message: `\add* closes no open \add marker`, line: 3},
		{name: "unclosed at end", text: "\\id JUD\n\\c 1\n\\v 1 \\add a\n", message: `\add opened at line 3 is not closed`, line: 4},
		{name: "no chapters", text: "\\id JUD\n\\h Jude\n", message: `no \c chapter markers found`, line: 3},
		{name: "open milestone", text: "\\id JUD\n\\c 1\n\\v 1 \\zaln-s |x\\*a\n", message: `1 \zaln-s milestone(s) never closed`, line: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validator{}.Validate(Strict, tt.text)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.Nil(t, res.Error)
				return
			}
			require.NotNil(t, res.Error)
			assert.Equal(t, tt.message, res.Error.Message)
			assert.Equal(t, tt.line, res.Error.LineNumber)
		})
	}
}

func TestValidateRelaxedNesting(t *testing.T) {
	text := "\\id JUD\n\\c 1\n\\v 1 \\add a \\nd b\\add* c\n\\v 2 \\add d\n\\v 3 e\n"

	strict := Validator{}.Validate(Strict, text)
	require.False(t, strict.Valid)
	assert.Equal(t, `\add* closes \add before \nd*`, strict.Error.Message)

	relaxed := Validator{}.Validate(Relaxed, text)
	assert.True(t, relaxed.Valid)
	assert.Contains(t, relaxed.Warnings, `\add opened at line 4 is not closed`)
}

func TestValidateWarnings(t *testing.T) {
	res := Validator{}.Validate(Strict, "\\id JUD\n\n\\c 1 \n\\zzz odd\n\\v 1 Text\n")
	assert.True(t, res.Valid)
	assert.Contains(t, res.Warnings, "Empty lines present (1)")
	assert.Contains(t, res.Warnings, "Trailing spaces present at line end (1)")
	assert.Contains(t, res.Warnings, `Unknown marker \zzz at line 4`)
}
