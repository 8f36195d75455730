package rclink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTA(t *testing.T) {
	l, err := Parse("rc://*/ta/man/translate/figs-metaphor")
	require.NoError(t, err)
	assert.True(t, l.IsWildcard())
	assert.True(t, l.IsTA())
	assert.Equal(t, "translate/figs-metaphor/01.md", l.TAFilepath())
	assert.Equal(t, "en_ta", l.RepoName("en"))
}

func TestParseTW(t *testing.T) {
	l, err := Parse("rc://en/tw/dict/bible/kt/god")
	require.NoError(t, err)
	assert.False(t, l.IsWildcard())
	assert.True(t, l.IsTW())
	assert.Equal(t, "bible/kt/god.md", l.TWFilepath())
	assert.Equal(t, "en_tw", l.RepoName("fr"))
}

func TestParseTNHelp(t *testing.T) {
	l, err := Parse("rc://*/tn/help/gen/01/02")
	require.NoError(t, err)
	assert.True(t, l.IsTNHelp())
	assert.Equal(t, []string{"gen", "01", "02"}, l.Path)
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "http://example.com", "rc://", "rc://*/ta", "rc:/*/ta/man/x/y"} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}
