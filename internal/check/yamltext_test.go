package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLText(t *testing.T) {
	res, data := yamlText("en", "TN", "settings", "name: Jude\nbooks:\n  - jud\n", "", offline())
	assert.Empty(t, res.NoticeList)
	require.NotNil(t, data)
	assert.Equal(t, "Jude", data["name"])
	assert.Contains(t, res.SuccessList, "Checked all 4 lines in settings.")
}

func TestYAMLTextParseFailure(t *testing.T) {
	res, data := yamlText("en", "TN", "settings", "name: Jude\n  bad: [\n", "", offline())
	assert.Nil(t, data)
	n, ok := find(res, 916)
	require.True(t, ok, "notices: %v", res.NoticeList)
	assert.Contains(t, n.Message, "yaml:")
	assert.Equal(t, " in settings", n.Location)
}

func TestYAMLTextLineChecks(t *testing.T) {
	res := YAMLText("en", "TN", "", "title: Jude  Notes\n", "in test", offline())
	n, ok := find(res, 124)
	require.True(t, ok, "notices: %v", res.NoticeList)
	assert.Equal(t, 1, n.LineNumber)
	assert.Equal(t, " in test", n.Location)
}

func TestYAMLTextFilters(t *testing.T) {
	// Quotes after spaces and the document marker are normal YAML.
	res := YAMLText("en", "TN", "", "---\ntitle: 'Jude'\n", "", offline())
	assertLacks(t, res, 191, 177)
}
