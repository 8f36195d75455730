package check

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tnManifest = `dublin_core:
  conformsto: rc0.2
  contributor:
    - Jane Doe
  creator: unfoldingWord
  description: Notes for translators
  format: text/tsv
  identifier: tn
  issued: '2021-02-19'
  language:
    direction: ltr
    identifier: en
    title: English
  modified: '2021-02-19'
  publisher: unfoldingWord
  relation:
    - en/ult
    - hbo/uhb?v=2.1.16
    - el-x-koine/ugnt?v=0.16
  rights: CC BY-SA 4.0
  source:
    - identifier: tn
      language: en
      version: '45'
  subject: TSV Translation Notes
  title: unfoldingWord Translation Notes
  type: help
  version: '45'
checking:
  checking_entity:
    - unfoldingWord
  checking_level: '3'
projects:
  - title: Jude
    versification: ufw
    identifier: jud
    sort: 65
    path: ./en_tn_66-JUD.tsv
    categories:
      - bible-nt
`

func tnRepo(manifest string) map[string]string {
	return map[string]string{
		"unfoldingWord/en_tn/manifest.yaml":    manifest,
		"unfoldingWord/en_tn/LICENSE.md":       "# License\n",
		"unfoldingWord/en_tn/en_tn_66-JUD.tsv": "Book\tChapter\tVerse\tID\tSupportReference\tOrigQuote\tOccurrence\tGLQuote\tOccurrenceNote\n",
	}
}

func checkManifest(t *testing.T, manifest string, opts Options) []int {
	t.Helper()
	res := ManifestText(context.Background(), "en", "TN", "unfoldingWord", "en_tn", "master", manifest, "", opts)
	for _, n := range res.NoticeList {
		assert.Equal(t, "en_tn", n.RepoName)
	}
	return res.Priorities()
}

func TestManifestValid(t *testing.T) {
	got := checkManifest(t, tnManifest, online(tnRepo(tnManifest)))
	for _, p := range []int{916, 928, 929, 148, 933, 934, 985, 939, 938, 937, 936, 832, 930, 817, 816} {
		assert.NotContains(t, got, p)
	}
}

func TestManifestProblems(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(string) string
		files   func(map[string]string)
		want    []int
		offline bool
	}{
		{
			name: "wrong language",
			edit: func(s string) string { return strings.Replace(s, "identifier: en\n", "identifier: fr\n", 1) },
			want: []int{933},
		},
		{
			name: "schema enum",
			edit: func(s string) string { return strings.Replace(s, "type: help", "type: helps", 1) },
			want: []int{985},
		},
		{
			name: "missing checking",
			edit: func(s string) string {
				s, _, _ = strings.Cut(s, "checking:\n")
				return s + "projects: []\n"
			},
			want: []int{148, 985},
		},
		{
			name: "project key missing",
			edit: func(s string) string { return strings.Replace(s, "    sort: 65\n", "", 1) },
			want: []int{939},
		},
		{
			name:  "project file missing",
			files: func(f map[string]string) { delete(f, "unfoldingWord/en_tn/en_tn_66-JUD.tsv") },
			want:  []int{938},
		},
		{
			name:  "project file empty",
			files: func(f map[string]string) { f["unfoldingWord/en_tn/en_tn_66-JUD.tsv"] = "x\n" },
			want:  []int{937},
		},
		{
			name:  "unlisted file",
			files: func(f map[string]string) { f["unfoldingWord/en_tn/en_tn_57-TIT.tsv"] = "Book\n" },
			want:  []int{832},
		},
		{
			name: "missing relation",
			edit: func(s string) string { return strings.Replace(s, "    - el-x-koine/ugnt?v=0.16\n", "", 1) },
			want: []int{816},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := tnManifest
			if tt.edit != nil {
				manifest = tt.edit(manifest)
			}
			files := tnRepo(manifest)
			if tt.files != nil {
				tt.files(files)
			}
			got := checkManifest(t, manifest, online(files))
			for _, p := range tt.want {
				assert.Contains(t, got, p)
			}
		})
	}
}

func TestManifestOfflineSkipsFetching(t *testing.T) {
	files := tnRepo(tnManifest)
	delete(files, "unfoldingWord/en_tn/en_tn_66-JUD.tsv")
	got := checkManifest(t, tnManifest, offline())
	assert.NotContains(t, got, 938)
	assert.NotContains(t, got, 832)
}

func TestManifestBadYAML(t *testing.T) {
	res := ManifestText(context.Background(), "en", "TN", "unfoldingWord", "en_tn", "master", "dublin_core: [\n", "", offline())
	assertHas(t, res, 916)
	assertLacks(t, res, 928)
	require.NotEmpty(t, res.SuccessList)
	assert.Contains(t, res.SuccessList[len(res.SuccessList)-1], "checkManifestText v"+ManifestValidatorVersion)
}

func TestManifestOriginalLanguage(t *testing.T) {
	manifest := strings.Replace(tnManifest, "identifier: en\n", "identifier: hbo\n", 1)
	res := ManifestText(context.Background(), "en", "UHB", "unfoldingWord", "hbo_uhb", "master", manifest, "", offline())
	assertLacks(t, res, 933)
}
