package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/cache"
	"github.com/FocuswithJustin/tcvalidate/internal/check"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
)

func offline() check.Options {
	return check.Options{DisableAllLinkFetching: true, SuppressNoticeDisabling: true, Checked: cache.NewChecked(0)}
}

// fixtures returns offline options that can still list and load repo files.
func fixtures(files map[string]string) check.Options {
	opts := offline()
	opts.Fetcher = fetch.NewMap(files)
	return opts
}

func successContaining(res *notice.Result, s string) bool {
	for _, msg := range res.SuccessList {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func find(res *notice.Result, priority int) (notice.Notice, bool) {
	for _, n := range res.NoticeList {
		if n.Priority == priority {
			return n, true
		}
	}
	return notice.Notice{}, false
}

const judUSFM = "\\id JUD\n\\usfm 3.0\n\\h Jude\n\\toc1 Jude\n\\toc2 Jude\n\\toc3 Jud\n\\mt Jude\n\\c 1\n\\p\n\\v 1 Jude, a servant.\n"

const lexiconEntry = "# אֱלֹהִים\n\n<!-- Status: Draft -->\n\n## Word data\n\n* Strongs: H0430\n\n## Etymology\n\n* Root: H0433\n\n## Senses\n\n### Sense 1.0:\n\nGod.\n"

func TestFileContentsRouting(t *testing.T) {
	tests := []struct {
		name     string
		repoCode string
		path     string
		content  string
		checker  string
	}{
		{name: "nine column notes", repoCode: "TN", path: "en_tn_66-JUD.tsv", content: check.NotesTSV9Header + "\n", checker: "NotesTSV9Table"},
		{name: "seven column notes", repoCode: "TN2", path: "tn_JUD.tsv", content: check.NotesTSV7Header + "\n", checker: "NotesTSV7Table"},
		{name: "study notes", repoCode: "SN", path: "sn_JUD.tsv", content: check.NotesTSV7Header + "\n", checker: "NotesTSV7Table"},
		{name: "questions", repoCode: "TQ", path: "tq_JUD.tsv", content: check.QuestionsTSV7Header + "\n", checker: "QuestionsTSV7Table"},
		{name: "word links", repoCode: "TWL", path: "twl_JUD.tsv", content: check.TWLTSV6Header + "\n", checker: "TWLTSV6Table"},
		{name: "usfm", repoCode: "LT", path: "66-JUD.usfm", content: judUSFM, checker: "USFM text check"},
		{name: "sfm", repoCode: "LT", path: "66JUDENULT.SFM", content: judUSFM, checker: "USFM text check"},
		{name: "usx", repoCode: "LT", path: "JUD.usx", content: `<usx version="3.0"><book code="JUD" style="id"/></usx>`, checker: "USX text check"},
		{name: "markdown", repoCode: "TA", path: "translate/figs-metaphor/01.md", content: "# Metaphor\n\nText.\n", checker: "markdown file check"},
		{name: "hebrew lexicon", repoCode: "UHAL", path: "content/H0430.md", content: lexiconEntry, checker: "lexicon file check"},
		{name: "greek lexicon", repoCode: "UGL", path: "content/G24550/01.md", content: lexiconEntry, checker: "lexicon file check"},
		{name: "lexicon front matter", repoCode: "UGL", path: "README.md", content: "# Lexicon\n\nText.\n", checker: "markdown file check"},
		{name: "text", repoCode: "LT", path: "notes.txt", content: "Some text.\n", checker: "plain text check"},
		{name: "manifest", repoCode: "LT", path: "manifest.yaml", content: "dublin_core:\n  identifier: ult\n", checker: "checkManifestText"},
		{name: "yaml", repoCode: "TA", path: "translate/toc.yaml", content: "title: Translate\n", checker: "YAML text check"},
		{name: "licence", repoCode: "LT", path: "LICENSE", content: "# License\n\nCC BY-SA 4.0\n", checker: "markdown file check"},
		{name: "unknown", repoCode: "LT", path: "media.json", content: "{}\n", checker: "plain text check"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FileContents(context.Background(), "unfoldingWord", "en", tt.repoCode, "en_x", "master", tt.path, tt.content, "", offline())
			assert.True(t, successContaining(res, tt.checker), "successes: %v", res.SuccessList)
		})
	}
}

func TestFileContentsUnrecognizedExtension(t *testing.T) {
	res := FileContents(context.Background(), "unfoldingWord", "en", "LT", "en_ult", "master", "LICENSE", "# License\n\nText.\n", "in en_ult", offline())
	require.NotEmpty(t, res.NoticeList)
	assert.Equal(t, 982, res.NoticeList[0].Priority)
	assert.Equal(t, " in en_ult", res.NoticeList[0].Location)

	res = FileContents(context.Background(), "unfoldingWord", "en", "LT", "en_ult", "master", "media.json", "{}\n", "", offline())
	require.NotEmpty(t, res.NoticeList)
	assert.Equal(t, 995, res.NoticeList[0].Priority)
	assert.Equal(t, "media.json", res.NoticeList[0].Filename)
}

func TestFileContentsNormalization(t *testing.T) {
	decomposed := "Cafe\u0301 text.\n"
	tests := []struct {
		repoCode string
		want     int
	}{
		{repoCode: "LT", want: 270},
		{repoCode: "UHB", want: 170},
		{repoCode: "UGNT", want: 870},
	}
	for _, tt := range tests {
		t.Run(tt.repoCode, func(t *testing.T) {
			res := FileContents(context.Background(), "unfoldingWord", "en", tt.repoCode, "", "", "a.txt", decomposed, "", offline())
			n, ok := find(res, tt.want)
			require.True(t, ok, "notices: %v", res.NoticeList)
			assert.Equal(t, "File is not Unicode normalized", n.Message)
		})
	}

	res := FileContents(context.Background(), "unfoldingWord", "en", "LT", "", "", "a.txt", "Caf\u00e9 text.\n", "", offline())
	_, ok := find(res, 270)
	assert.False(t, ok)
}

func TestFileContentsTagsAndCounts(t *testing.T) {
	body := "Some  text.\n"
	res := FileContents(context.Background(), "unfoldingWord", "en", "LT", "en_ult", "master", "docs/notes.txt", body, "", offline())
	require.NotEmpty(t, res.NoticeList)
	for _, n := range res.NoticeList {
		assert.Equal(t, "docs/notes.txt", n.Filename)
	}
	want := notice.Result{
		CheckedFileCount:          1,
		CheckedFilenames:          []string{"docs/notes.txt"},
		CheckedFilenameExtensions: []string{"txt"},
		CheckedFilesizes:          len(body),
	}
	got := notice.Result{
		CheckedFileCount:          res.CheckedFileCount,
		CheckedFilenames:          res.CheckedFilenames,
		CheckedFilenameExtensions: res.CheckedFilenameExtensions,
		CheckedFilesizes:          res.CheckedFilesizes,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FileContents() checked aggregates mismatch (-want +got):\n%s", diff)
	}
}
