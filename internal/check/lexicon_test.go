package check

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/tcvalidate/internal/cache"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
)

const hebrewEntry = "# אֱלֹהִים\n\n<!-- Status: Draft -->\n\n## Word data\n\n* Strongs: H0430\n\n## Etymology\n\n* Root: H0433\n\n## Senses\n\n### Sense 1.0:\n\nGod.\n"

const unreviewedEntry = "# אֱלֹהִים\n\n## Word data\n\n* Strongs: H0430\n\n## Etymology\n\n* Root: H0433\n\n## Senses\n\nGod.\n"

func TestIsLexiconEntry(t *testing.T) {
	tests := []struct {
		repo, filename string
		want           bool
	}{
		{"UHAL", "content/H0430.md", true},
		{"UHAL", "H0430.md", true},
		{"UHAL", "content/README.md", false},
		{"UGL", "content/G24550/01.md", true},
		{"UGL", "content/G24550/02.md", false},
		{"TA", "translate/figs-metaphor/01.md", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLexiconEntry(tt.repo, tt.filename), "%s %s", tt.repo, tt.filename)
	}
}

func TestLexiconFileContents(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  []int
		clean []int
	}{
		{name: "complete", body: hebrewEntry, clean: []int{630, 330, 620}},
		{name: "no lemma", body: "Elohim\n\n<!-- Status: Draft -->\n\n## Word data\n\n## Etymology\n\n## Senses\n", want: []int{630}, clean: []int{330, 620}},
		{name: "short lemma", body: "# א\n\n<!-- Status: Draft -->\n\n## Word data\n\n## Etymology\n\n## Senses\n", want: []int{630}},
		{name: "no status", body: unreviewedEntry, want: []int{330}, clean: []int{630, 620}},
		{name: "no senses", body: "# אֱלֹהִים\n\n<!-- Status: Draft -->\n\n## Word data\n\n## Etymology\n", want: []int{620}, clean: []int{630, 330}},
		{name: "one line", body: "# אֱלֹהִים", want: []int{330, 620}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := LexiconFileContents(context.Background(), "en", "UHAL", "content/H0430.md", tt.body, "in en_uhal", offline())
			assertHas(t, res, tt.want...)
			assertLacks(t, res, tt.clean...)
			for _, n := range res.NoticeList {
				assert.Equal(t, "content/H0430.md", n.Filename)
			}
		})
	}
}

func TestLexiconFileContentsMissingHeadings(t *testing.T) {
	res := LexiconFileContents(context.Background(), "en", "UGL", "content/G24550/01.md", "# Ἰούδας\n\n<!-- Status: Draft -->\n", "", offline())
	var details []string
	for _, n := range res.NoticeList {
		if n.Priority == 620 {
			details = append(details, n.Details)
		}
	}
	assert.Equal(t, []string{"## Word data", "## Etymology", "## Senses"}, details)
}

func TestStrongsField(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		bookID string
		want   int
	}{
		{name: "hebrew", field: "H0430", bookID: "GEN"},
		{name: "hebrew prefix", field: "b:H7225", bookID: "GEN"},
		{name: "hebrew prefixes", field: "c:d:H0776", bookID: "GEN"},
		{name: "hebrew suffix", field: "H0430a", bookID: "GEN"},
		{name: "bare particle", field: "b", bookID: "GEN"},
		{name: "greek", field: "G24550", bookID: "JUD"},
		{name: "empty", field: "", bookID: "JUD", want: 842},
		{name: "hebrew short", field: "H430", bookID: "GEN", want: 818},
		{name: "hebrew letter", field: "G24550", bookID: "GEN", want: 841},
		{name: "greek short", field: "G2455", bookID: "JUD", want: 818},
		{name: "greek letter", field: "H0430", bookID: "JUD", want: 841},
		{name: "no book", field: "G24550"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := StrongsField(context.Background(), "hbo", "UHB", "strong", tt.field, tt.bookID, "1", "1", "", offline())
			if tt.want == 0 {
				assert.Empty(t, res.NoticeList)
				return
			}
			n, ok := find(res, tt.want)
			require.True(t, ok, "notices: %v", res.NoticeList)
			assert.Equal(t, "strong", n.FieldName)
			assert.Equal(t, "UHB", n.RepoCode)
			assert.Equal(t, tt.field, n.Excerpt)
		})
	}
}

func TestStrongsFieldChecksEntry(t *testing.T) {
	opts := online(map[string]string{"unfoldingWord/en_uhal/content/H0430.md": unreviewedEntry})
	res := StrongsField(context.Background(), "hbo", "UHB", "strong", "H0430", "GEN", "1", "1", "in hbo_uhb", opts)
	n, ok := find(res, 330)
	require.True(t, ok, "notices: %v", res.NoticeList)
	assert.Equal(t, "HALx", n.Extra)
	assert.Equal(t, "UHAL", n.RepoCode)
	assert.Equal(t, "en_uhal", n.RepoName)
	assert.Equal(t, "content/H0430.md", n.Filename)
	assert.Equal(t, "GEN", n.BookID)
	assert.Equal(t, 1, res.CheckedFileCount)
	assert.Contains(t, res.CheckedRepoNames, "en_uhal")

	res = StrongsField(context.Background(), "hbo", "UHB", "strong", "H0430", "GEN", "1", "2", "in hbo_uhb", opts)
	assert.Empty(t, res.NoticeList, "an entry is only checked once")
}

func TestStrongsFieldGreekEntry(t *testing.T) {
	opts := online(map[string]string{"unfoldingWord/en_ugl/content/G24550/01.md": "# Ἰούδας\n\n<!-- Status: Draft -->\n"})
	res := StrongsField(context.Background(), "el-x-koine", "UGNT", "strong", "G24550", "JUD", "1", "1", "", opts)
	n, ok := find(res, 620)
	require.True(t, ok, "notices: %v", res.NoticeList)
	assert.Equal(t, "GkLx", n.Extra)
	assert.Equal(t, "content/G24550/01.md", n.Filename)
}

func TestStrongsFieldMissingEntry(t *testing.T) {
	res := StrongsField(context.Background(), "hbo", "UHB", "strong", "H0430", "GEN", "1", "1", "", online(map[string]string{}))
	n, ok := find(res, 850)
	require.True(t, ok, "notices: %v", res.NoticeList)
	assert.Equal(t, "Unable to find/load lexicon entry", n.Message)
	assert.Equal(t, "UHAL", n.Details)
	assert.Equal(t, "unfoldingWord", n.Username)
}

func TestStrongsFieldEmptyEntry(t *testing.T) {
	opts := online(map[string]string{"unfoldingWord/en_uhal/content/H0430.md": "# א"})
	res := StrongsField(context.Background(), "hbo", "UHB", "strong", "H0430", "GEN", "1", "1", "", opts)
	assert.Equal(t, []int{878}, res.Priorities())
}

func TestStrongsFieldTreeOnly(t *testing.T) {
	opts := online(map[string]string{"unfoldingWord/en_uhal/content/H0430.md": unreviewedEntry})
	opts.DisableLinkedLexiconEntriesCheck = true
	res := StrongsField(context.Background(), "hbo", "UHB", "strong", "H0430", "GEN", "1", "1", "", opts)
	assert.Empty(t, res.NoticeList, "the entry is found but not checked")
	assert.Zero(t, res.CheckedFileCount)

	res = StrongsField(context.Background(), "hbo", "UHB", "strong", "H0433", "GEN", "1", "1", "", opts)
	n, ok := find(res, 850)
	require.True(t, ok, "notices: %v", res.NoticeList)
	assert.Equal(t, "Unable to find lexicon entry", n.Message)
}

func TestStrongsFieldFetchingDisabled(t *testing.T) {
	m := fetch.NewMap(nil)
	opts := Options{SuppressNoticeDisabling: true, Fetcher: m, Checked: cache.NewChecked(0), DisableLexiconLinkFetching: true}
	res := StrongsField(context.Background(), "hbo", "UHB", "strong", "H0430", "GEN", "1", "1", "", opts)
	assert.Empty(t, res.NoticeList)
	assert.Zero(t, m.Calls())

	opts = Options{SuppressNoticeDisabling: true, Fetcher: m, Checked: cache.NewChecked(0), DisableAllLinkFetching: true}
	StrongsField(context.Background(), "hbo", "UHB", "strong", "H0430", "GEN", "1", "1", "", opts)
	assert.Zero(t, m.Calls())
}

func TestUSFMTextStrongsNumbers(t *testing.T) {
	body := "\\id GEN\n\\c 1\n\\p\n\\v 1 \\w בְּ/רֵאשִׁ֖ית|lemma=\"רֵאשִׁית\" strong=\"b:H7225\" x-morph=\"He,R:Ncfsa\"\\w* \\w אֱלֹהִ֑ים|lemma=\"אֱלֹהִים\" strong=\"H430\" x-morph=\"He,Ncmpa\"\\w*\n"
	res := USFMText(context.Background(), "hbo", "UHB", "GEN", "01-GEN.usfm", body, "", offline())
	n, ok := find(res, 818)
	require.True(t, ok, "notices: %v", res.NoticeList)
	assert.Equal(t, "H430", n.Excerpt)
	assert.Equal(t, 4, n.LineNumber)
	assert.Equal(t, "1", n.C)
	assert.Equal(t, "1", n.V)

	// Translations carry x-strong on their alignments, which is not checked.
	res = USFMText(context.Background(), "en", "LT", "GEN", "01-GEN.usfm", body, "", offline())
	assertLacks(t, res, 818)
}
