package notice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesRequiredFields(t *testing.T) {
	_, err := New(0, "Bad", " in line 1")
	assert.Error(t, err)
	_, err = New(500, "  ", "")
	assert.Error(t, err)
	n, err := New(638, "Only found whitespace", " in test")
	require.NoError(t, err)
	assert.Equal(t, 638, n.Priority)
}

func TestCharacterIndexZeroIsKept(t *testing.T) {
	n := Notice{Priority: 109, Message: "Unexpected leading space", CharacterIndex: At(0), Location: ""}
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"characterIndex":0`)
	assert.NotContains(t, string(data), `"details"`)

	n.CharacterIndex = nil
	data, err = json.Marshal(n)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "characterIndex")
}

func TestResultMergeChecked(t *testing.T) {
	r := NewResult()
	r.AddRepoName("en_tn")
	other := NewResult()
	other.CheckedFileCount = 2
	other.CheckedFilesizes = 300
	other.AddFilename("01.md")
	other.AddFilenameExtension("md")
	other.AddFilenameExtension("md")
	other.AddRepoName("en_ta")
	other.AddRepoName("en_tn")

	r.MergeChecked(other)
	assert.Equal(t, 2, r.CheckedFileCount)
	assert.Equal(t, 300, r.CheckedFilesizes)
	assert.Equal(t, []string{"md"}, r.CheckedFilenameExtensions)
	assert.Equal(t, []string{"en_tn", "en_ta"}, r.CheckedRepoNames)
	assert.Empty(t, r.NoticeList)
}

func TestResultFilter(t *testing.T) {
	r := NewResult()
	r.Add(Notice{Priority: 100, Message: "a"}, Notice{Priority: 900, Message: "b"}, Notice{Priority: 200, Message: "c"})
	r.Filter(func(n Notice) bool { return n.Priority < 500 })
	assert.Equal(t, []int{100, 200}, r.Priorities())
}
