package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	w, err := newWatcher([]string{dir}, false, 50*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() {
		w.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	checked := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.run(ctx, func(p string) {
			checked <- p
		})
	}()

	notes := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("png"), 0o644))
	for _, s := range []string{"# One\n", "# Two\n", "# Three\n"} {
		require.NoError(t, os.WriteFile(notes, []byte(s), 0o644))
	}

	select {
	case p := <-checked:
		assert.Equal(t, notes, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no check after writing notes.md")
	}
	select {
	case p := <-checked:
		t.Fatalf("unexpected second check of %s", p)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherNamedFiles(t *testing.T) {
	dir := t.TempDir()
	named := writeFile(t, dir, "66-JUD.usfm", "\\id JUD\n")
	writeFile(t, dir, "67-REV.usfm", "\\id REV\n")

	w, err := newWatcher([]string{named}, false, time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() {
		w.Close()
	})

	assert.Equal(t, []string{named}, w.named())
	assert.True(t, w.wanted(named))
	assert.False(t, w.wanted(filepath.Join(dir, "67-REV.usfm")))
}

func TestWatcherRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "content/01/01.md", "# One\n")
	writeFile(t, dir, ".git/HEAD", "ref\n")

	w, err := newWatcher([]string{dir}, true, time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() {
		w.Close()
	})

	assert.True(t, w.wanted(filepath.Join(dir, "content", "01", "02.md")))
	assert.False(t, w.wanted(filepath.Join(dir, ".git", "config.yaml")))
	assert.False(t, w.wanted(filepath.Join(dir, "content", "01", "02.png")))
}

func TestWatcherSettled(t *testing.T) {
	w := &watcher{debounce: time.Second, pending: make(map[string]time.Time)}
	now := time.Now()
	w.pending["b.md"] = now.Add(-2 * time.Second)
	w.pending["a.md"] = now.Add(-time.Second)
	w.pending["c.md"] = now

	assert.Equal(t, []string{"a.md", "b.md"}, w.settled(now))
	assert.Len(t, w.pending, 1)
}
