package check

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginalLanguageQuote(t *testing.T) {
	tests := []struct {
		name       string
		repo       string
		quote      string
		occurrence string
		want       []int
	}{
		{name: "found", quote: "δοῦλος", occurrence: "1"},
		{name: "last occurrence", quote: "Ἰησοῦ", occurrence: "-1"},
		{name: "partial word", quote: "Χριστ", occurrence: "1", want: []int{908}},
		{name: "missing", quote: "Παῦλος", occurrence: "1", want: []int{916}},
		{name: "occurrence too high", quote: "Ἰησοῦ", occurrence: "2", want: []int{917}},
		{name: "zero occurrence skips lookup", quote: "Παῦλος", occurrence: "0"},
		{name: "ellipsis in notes", repo: "TN", quote: "Ἰούδας…δοῦλος", occurrence: "1"},
		{name: "periods in notes", repo: "TN", quote: "Ἰούδας...δοῦλος", occurrence: "1", want: []int{159}},
		{name: "ampersand in notes", repo: "TN", quote: "Ἰούδας & δοῦλος", occurrence: "1", want: []int{918}},
		{name: "ellipsis in notes2", repo: "TN2", quote: "Ἰούδας … δοῦλος", occurrence: "1", want: []int{918}},
		{name: "ampersand in notes2", repo: "TN2", quote: "Ἰούδας & δοῦλος", occurrence: "1"},
		{name: "segments out of order", repo: "TN2", quote: "δοῦλος & Ἰούδας", occurrence: "1", want: []int{914}},
		{name: "leading word joiner trimmed", quote: "\u2060δοῦλος", occurrence: "1"},
		{name: "trailing word joiner trimmed", quote: "δοῦλος\u2060", occurrence: "1"},
		{name: "leading non-joiner trimmed", quote: "\u200Cδοῦλος", occurrence: "1"},
		{name: "trailing non-joiner trimmed", quote: "δοῦλος\u200C", occurrence: "1"},
		{name: "leading space trimmed", quote: " δοῦλος", occurrence: "1"},
		{name: "trailing space trimmed", quote: "δοῦλος ", occurrence: "1"},
		{name: "leading zero-width joiner kept", quote: "\u200Dδοῦλος", occurrence: "1", want: []int{916}},
		{name: "trailing zero-width joiner kept", quote: "δοῦλος\u200D", occurrence: "1", want: []int{916}},
		{name: "trimmed segments", quote: "Ἰούδας\u2060 & \u200Cδοῦλος", occurrence: "1"},
		{name: "space beside ellipsis", repo: "TN", quote: "Ἰούδας …δοῦλος", occurrence: "1", want: []int{158}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.repo
			if repo == "" {
				repo = "TN2"
			}
			opts := offline()
			opts.OriginalLanguageVerseText = judeVerse
			res := OriginalLanguageQuote(context.Background(), "en", repo, "Quote", tt.quote, tt.occurrence, "JUD", "1", "1", "", opts)
			if tt.want == nil {
				assert.Empty(t, res.NoticeList)
				return
			}
			assertHas(t, res, tt.want...)
		})
	}
}

func TestOriginalLanguageQuoteOffline(t *testing.T) {
	res := OriginalLanguageQuote(context.Background(), "en", "TN2", "Quote", "Παῦλος", "1", "JUD", "1", "1", "", offline())
	assert.Empty(t, res.NoticeList)
}

func TestOriginalLanguageQuoteFetchesVerse(t *testing.T) {
	// Without a matching book the passage cannot be loaded.
	res := OriginalLanguageQuote(context.Background(), "en", "TN2", "Quote", "Ἰούδας", "1", "JUD", "1", "1", "", online(nil))
	assertHas(t, res, 851)
}

func TestOriginalLanguageQuoteLoadsBook(t *testing.T) {
	ugnt := "\\id JUD\n\\c 1\n\\p\n\\v 1 \\w Ἰούδας|lemma=\"Ἰούδας\"\\w* \\w Ἰησοῦ|lemma=\"Ἰησοῦς\"\\w* \\w Χριστοῦ|lemma=\"Χριστός\"\\w*\n\\v 2 \\w ἔλεος|lemma=\"ἔλεος\"\\w*\n"
	opts := online(map[string]string{"unfoldingWord/el-x-koine_ugnt/66-JUD.usfm": ugnt})
	res := OriginalLanguageQuote(context.Background(), "en", "TN2", "Quote", "Ἰησοῦ Χριστοῦ", "1", "JUD", "1", "1", "", opts)
	assert.Empty(t, res.NoticeList)

	res = OriginalLanguageQuote(context.Background(), "en", "TN2", "Quote", "ἔλεος", "1", "JUD", "1", "1", "", opts)
	assertHas(t, res, 916)
}
