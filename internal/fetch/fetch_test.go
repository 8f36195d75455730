package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/archive"
	"github.com/FocuswithJustin/tcvalidate/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

var taFiles = map[string]string{
	"translate/figs-metaphor/01.md":    "# Metaphor\n\nA metaphor is a figure of speech.\n",
	"translate/figs-metaphor/title.md": "Metaphor\n",
	"manifest.yaml":                    "dublin_core:\n  identifier: ta\n",
}

func TestRequestDefaults(t *testing.T) {
	req := Request{Username: "unfoldingWord", Repository: "en_ta", Path: "/a.md"}.WithDefaults()
	assert.Equal(t, "master", req.Branch)
	assert.Equal(t, "a.md", req.Path)
	assert.Equal(t, "unfoldingWord/en_ta/a.md@master", req.String())
}

func TestDir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	files := map[string]string{}
	for k, v := range taFiles {
		files["unfoldingWord/en_ta/"+k] = v
	}
	files["unfoldingWord/en_ta/.git/HEAD"] = "ref"
	writeTree(t, root, files)

	d := NewDir(root)
	content, err := d.GetFile(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Path: "translate/figs-metaphor/01.md"})
	require.NoError(t, err)
	assert.Contains(t, content, "figure of speech")

	_, err = d.GetFile(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Path: "translate/figs-nothing/01.md"})
	assert.True(t, errors.IsNotFound(err))
	var fe *errors.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "master", fe.Branch)

	_, err = d.GetFile(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Path: "../../../etc/passwd"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, err = d.ListFiles(ctx, Request{Username: "..", Repository: "etc"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	paths, err := d.ListFiles(ctx, Request{Username: "unfoldingWord", Repository: "en_ta"})
	require.NoError(t, err)
	assert.Equal(t, []string{"manifest.yaml", "translate/figs-metaphor/01.md", "translate/figs-metaphor/title.md"}, paths)

	paths, err = d.ListFiles(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Path: "translate/"})
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	_, err = d.ListFiles(ctx, Request{Username: "unfoldingWord", Repository: "en_zz"})
	assert.True(t, errors.IsNotFound(err))
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	writeTree(t, src, taFiles)
	root := t.TempDir()
	require.NoError(t, archive.Pack(src, filepath.Join(root, "unfoldingWord", "en_ta-master.tar.xz"), "en_ta"))

	a := NewArchive(root)
	content, err := a.GetFile(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Path: "translate/figs-metaphor/title.md"})
	require.NoError(t, err)
	assert.Equal(t, "Metaphor\n", content)

	_, err = a.GetFile(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Path: "missing.md"})
	assert.True(t, errors.IsNotFound(err))

	_, err = a.GetFile(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Branch: "v80", Path: "manifest.yaml"})
	assert.True(t, errors.IsNotFound(err), "other branch has no snapshot")

	_, err = a.GetFile(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Branch: "../../x", Path: "manifest.yaml"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	paths, err := a.ListFiles(ctx, Request{Username: "unfoldingWord", Repository: "en_ta"})
	require.NoError(t, err)
	assert.Len(t, paths, 3)
	assert.Equal(t, 1, a.Forget())
}

func TestMap(t *testing.T) {
	ctx := context.Background()
	m := NewMap(map[string]string{"unfoldingWord/en_tw/bible/kt/god.md": "# God\n"})
	m.Set("unfoldingWord", "en_tw", "bible/kt/love.md", "# Love\n")

	content, err := m.GetFile(ctx, Request{Username: "unfoldingWord", Repository: "en_tw", Path: "bible/kt/god.md", Branch: "main"})
	require.NoError(t, err)
	assert.Equal(t, "# God\n", content)

	paths, err := m.ListFiles(ctx, Request{Username: "unfoldingWord", Repository: "en_tw", Path: "bible/kt/l"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bible/kt/love.md"}, paths)

	_, err = m.GetURL(ctx, "https://example.org/none")
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 3, m.Calls())
}

func TestDoor43(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	writeTree(t, src, taFiles)
	zipPath := filepath.Join(t.TempDir(), "master.zip")
	require.NoError(t, archive.Pack(src, zipPath, "en_ta"))
	zipData, err := os.ReadFile(zipPath)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/unfoldingWord/en_ta/raw/branch/master/translate/figs-metaphor/01.md":
			_, _ = w.Write([]byte(taFiles["translate/figs-metaphor/01.md"]))
		case "/unfoldingWord/en_ta/archive/master.zip":
			_, _ = w.Write(zipData)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := NewDoor43(srv.URL+"/", 0)
	content, err := d.GetFile(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Path: "translate/figs-metaphor/01.md"})
	require.NoError(t, err)
	assert.Contains(t, content, "Metaphor")

	_, err = d.GetFile(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Path: "translate/figs-other/01.md"})
	assert.True(t, errors.IsNotFound(err))

	paths, err := d.ListFiles(ctx, Request{Username: "unfoldingWord", Repository: "en_ta", Path: "translate/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"translate/figs-metaphor/01.md", "translate/figs-metaphor/title.md"}, paths)

	_, err = d.GetURL(ctx, srv.URL+"/broken")
	require.Error(t, err)
	assert.False(t, errors.IsNotFound(err))
	srv.Client().CloseIdleConnections()
	d.Client.CloseIdleConnections()
}

func TestCachingDeduplicates(t *testing.T) {
	ctx := context.Background()
	m := NewMap(map[string]string{"unfoldingWord/en_ta/translate/figs-metaphor/01.md": "# Metaphor\n"})
	c, err := NewCaching(m, 16, nil)
	require.NoError(t, err)
	req := Request{Username: "unfoldingWord", Repository: "en_ta", Path: "translate/figs-metaphor/01.md"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content, err := c.GetFile(ctx, req)
			assert.NoError(t, err)
			assert.Equal(t, "# Metaphor\n", content)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, m.Calls())

	missing := Request{Username: "unfoldingWord", Repository: "en_ta", Path: "translate/figs-none/01.md"}
	for i := 0; i < 3; i++ {
		_, err := c.GetFile(ctx, missing)
		assert.True(t, errors.IsNotFound(err))
	}
	assert.Equal(t, 2, m.Calls(), "not-found results are cached")

	_, err = c.ListFiles(ctx, Request{Username: "unfoldingWord", Repository: "en_ta"})
	require.NoError(t, err)
	_, err = c.ListFiles(ctx, Request{Username: "unfoldingWord", Repository: "en_ta"})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Calls())

	stats := c.Stats()
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 1, stats.Lists)

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, _ = c.GetFile(ctx, req)
	assert.Equal(t, 4, m.Calls())
}

func TestCachingPersistentStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"), 0)
	require.NoError(t, err)
	defer st.Close()

	m := NewMap(map[string]string{"unfoldingWord/hbo_uhb/01-GEN.usfm": "\\id GEN\n"})
	req := Request{Username: "unfoldingWord", Repository: "hbo_uhb", Path: "01-GEN.usfm"}

	first, err := NewCaching(m, 4, st)
	require.NoError(t, err)
	_, err = first.GetFile(ctx, req)
	require.NoError(t, err)

	// A fresh in-memory layer is served from the store.
	second, err := NewCaching(m, 4, st)
	require.NoError(t, err)
	content, err := second.GetFile(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "\\id GEN\n", content)
	assert.Equal(t, 1, m.Calls())
	assert.Equal(t, int64(1), second.Stats().Hits)
}

func TestCachingGetURL(t *testing.T) {
	ctx := context.Background()
	m := NewMap(map[string]string{"https://unfoldingword.org/": "<html>home page</html>"})
	c, err := NewCaching(m, 0, nil)
	require.NoError(t, err)
	content, err := c.GetURL(ctx, "https://unfoldingword.org/")
	require.NoError(t, err)
	assert.Contains(t, content, "home")

	plain, err := NewCaching(NewDir(t.TempDir()), 0, nil)
	require.NoError(t, err)
	_, err = plain.GetURL(ctx, "https://unfoldingword.org/")
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}
