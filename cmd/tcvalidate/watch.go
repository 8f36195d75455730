package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/dispatch"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
)

// WatchCmd re-checks files as they are saved.
type WatchCmd struct {
	Paths     []string      `arg:"" help:"Files or directories to watch" type:"existingpath"`
	Recursive bool          `short:"r" help:"Also watch subdirectories"`
	Debounce  time.Duration `help:"Wait this long after the last change before checking" default:"300ms"`
	Username  string        `help:"Owner of the resources the files belong to" default:"unfoldingWord"`
	Lang      string        `help:"Language code" default:"en"`
	RepoCode  string        `name:"repo-code" help:"Repo code (default: guessed from each file name)"`
}

func (c *WatchCmd) Run(g *app) error {
	rt, err := g.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	w, err := newWatcher(c.Paths, c.Recursive, c.Debounce)
	if err != nil {
		return err
	}
	defer w.Close()

	opts := rt.Options()
	checkFile := func(p string) {
		data, err := os.ReadFile(p)
		if err != nil {
			logging.WarnContext(g.ctx, "cannot read changed file", "path", p, "error", err)
			return
		}
		code := c.RepoCode
		if code == "" {
			code = guessRepoCode(p)
		}
		// Links seen in an earlier run must be checked again.
		rt.Checked.Clear()
		res := dispatch.FileContents(g.ctx, c.Username, c.Lang, code, "", "", displayPath(p), string(data), "", opts)
		g.out.Write([]byte("== " + p + "\n"))
		if err := render(g.out, g.Output, res, opts.CutoffPriorityLevel); err != nil {
			logging.WarnContext(g.ctx, "cannot write result", "error", err)
		}
	}

	for _, p := range w.named() {
		checkFile(p)
	}
	logging.InfoContext(g.ctx, "watching for changes", "paths", len(c.Paths), "recursive", c.Recursive)
	return w.run(g.ctx, checkFile)
}

// checkable lists the extensions the dispatcher has a dedicated checker for.
var checkable = []string{".usfm", ".sfm", ".tsv", ".md", ".txt", ".yaml", ".yml", ".usx", ".xml"}

type watcher struct {
	fs        *fsnotify.Watcher
	files     map[string]bool // named on the command line
	dirs      map[string]bool // every checkable file inside is wanted
	recursive bool
	debounce  time.Duration
	pending   map[string]time.Time
}

func newWatcher(paths []string, recursive bool, debounce time.Duration) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	w := &watcher{
		fs:        fsw,
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		recursive: recursive,
		debounce:  debounce,
		pending:   make(map[string]time.Time),
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, errors.NewIO("resolve", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			w.Close()
			return nil, errors.NewIO("stat", p, err)
		}
		if !info.IsDir() {
			// Editors often save by renaming, so the parent is watched.
			w.files[abs] = true
			err = fsw.Add(filepath.Dir(abs))
		} else {
			err = w.addDir(abs)
		}
		if err != nil {
			w.Close()
			return nil, errors.NewIO("watch", p, err)
		}
	}
	return w, nil
}

func (w *watcher) addDir(dir string) error {
	if !w.recursive {
		w.dirs[dir] = true
		return w.fs.Add(dir)
	}
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		w.dirs[p] = true
		return w.fs.Add(p)
	})
}

// Close stops the underlying watcher.
func (w *watcher) Close() error {
	return w.fs.Close()
}

// named returns the files given explicitly, sorted.
func (w *watcher) named() []string {
	names := make([]string, 0, len(w.files))
	for p := range w.files {
		names = append(names, p)
	}
	slices.Sort(names)
	return names
}

func (w *watcher) wanted(name string) bool {
	if w.files[name] {
		return true
	}
	return w.dirs[filepath.Dir(name)] && slices.Contains(checkable, strings.ToLower(filepath.Ext(name)))
}

// run calls check for each wanted file once its changes have settled,
// until ctx is done.
func (w *watcher) run(ctx context.Context, check func(path string)) error {
	tick := max(w.debounce/4, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logging.WarnContext(ctx, "file watcher error", "error", err)

		case now := <-ticker.C:
			for _, p := range w.settled(now) {
				check(p)
			}
		}
	}
}

func (w *watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if event.Has(fsnotify.Create) && w.recursive && w.dirs[filepath.Dir(event.Name)] {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addDir(event.Name); err != nil {
				logging.Warn("cannot watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}
	if w.wanted(event.Name) {
		w.pending[event.Name] = time.Now()
	}
}

// settled removes and returns the pending paths untouched for the
// debounce window, sorted.
func (w *watcher) settled(now time.Time) []string {
	var ready []string
	for p, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, p)
			delete(w.pending, p)
		}
	}
	slices.Sort(ready)
	return ready
}
