package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, SourceDoor43, cfg.Source)
	assert.Equal(t, 10, cfg.Checking.ExcerptLength)
}

func TestLoadPrecedence(t *testing.T) {
	yamlPath := write(t, "tcvalidate.yaml", `checking:
  excerptLength: 15
  cutoffPriorityLevel: 100
  taRepoUsername: FromYAML
cacheSize: 64
httpTimeout: 5s
logLevel: warn
`)
	envPath := write(t, ".env", "TCV_CUTOFF_PRIORITY_LEVEL=200\nTCV_TA_REPO_USERNAME=FromDotEnv\nTCV_LOG_FORMAT=json\n")
	t.Setenv("TCV_TA_REPO_USERNAME", "FromEnv")
	t.Setenv("TCV_DISABLE_ALL_LINK_FETCHING", "true")

	cfg, err := Load(yamlPath, envPath)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Checking.ExcerptLength)
	assert.Equal(t, 200, cfg.Checking.CutoffPriorityLevel)
	assert.Equal(t, "FromEnv", cfg.Checking.TARepoUsername)
	assert.True(t, cfg.Checking.DisableAllLinkFetching)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr), "err = %v", err)

	_, err = Load(write(t, "bad.yaml", "checking: [\n"), "")
	var parseErr *errors.ParseError
	assert.True(t, errors.As(err, &parseErr), "err = %v", err)

	t.Setenv("TCV_EXCERPT_LENGTH", "long")
	_, err = Load("", "")
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr), "err = %v", err)
	assert.Equal(t, "TCV_EXCERPT_LENGTH", valErr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(c *Config)
		field string
	}{
		{name: "unknown source", edit: func(c *Config) { c.Source = "ftp" }, field: "source"},
		{name: "dir without root", edit: func(c *Config) { c.Source = SourceDir }, field: "sourceRoot"},
		{name: "object store without bucket", edit: func(c *Config) { c.Source = SourceObjectStore }, field: "objectStore"},
		{name: "negative excerpt", edit: func(c *Config) { c.Checking.ExcerptLength = -1 }, field: "excerptLength"},
		{name: "cutoff too high", edit: func(c *Config) { c.Checking.CutoffPriorityLevel = 1000 }, field: "cutoffPriorityLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(&cfg)
			var valErr *errors.ValidationError
			require.True(t, errors.As(cfg.Validate(), &valErr))
			assert.Equal(t, tt.field, valErr.Field)
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Checking.CutoffPriorityLevel = 300
	cfg.Checking.TWRepoBranch = "release"
	opts := cfg.Options()
	assert.Equal(t, 300, opts.CutoffPriorityLevel)
	assert.Equal(t, "release", opts.TWRepoBranch)
	assert.Nil(t, opts.Fetcher)
}

func TestRuntime(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "unfoldingWord", "en_ult"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "unfoldingWord", "en_ult", "README.md"), []byte("# ULT\n"), 0o644))

	cfg := Default()
	cfg.Source = SourceDir
	cfg.SourceRoot = root
	cfg.CacheDir = t.TempDir()
	cfg.RulesFile = write(t, "rules.yaml", "rules:\n  - priority: 124\n")

	rt, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, rt.Close())
	})

	opts := rt.Options()
	require.NotNil(t, opts.Fetcher)
	content, err := opts.Fetcher.GetFile(context.Background(), fetch.Request{Username: "unfoldingWord", Repository: "en_ult", Path: "README.md"})
	require.NoError(t, err)
	assert.Equal(t, "# ULT\n", content)
	assert.Equal(t, 1, rt.Rules.Len())

	n, err := rt.ClearCaches(context.Background())
	require.NoError(t, err)
	assert.Positive(t, n)
}
