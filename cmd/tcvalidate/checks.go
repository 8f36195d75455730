package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/check"
	"github.com/FocuswithJustin/tcvalidate/internal/dispatch"
)

// maxParallelReads bounds concurrent file reads; checking itself is
// sequential.
const maxParallelReads = 8

// FileCmd checks local files.
type FileCmd struct {
	Paths    []string `arg:"" help:"Files to check" type:"existingfile"`
	Username string   `help:"Owner of the resources the files belong to" default:"unfoldingWord"`
	Lang     string   `help:"Language code" default:"en"`
	RepoCode string   `name:"repo-code" help:"Repo code such as LT, TN, TN2, TQ or TWL (default: guessed from the file name)"`
	RepoName string   `name:"repo-name" help:"Repository name, used by manifest checks"`
	Branch   string   `help:"Branch, used by manifest checks" default:"master"`
}

func (c *FileCmd) Run(g *app) error {
	rt, err := g.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	contents, err := readAll(g.ctx, c.Paths)
	if err != nil {
		return err
	}

	opts := rt.Options()
	total := notice.NewResult()
	start := time.Now()
	for i, p := range c.Paths {
		code := c.RepoCode
		if code == "" {
			code = guessRepoCode(p)
		}
		res := dispatch.FileContents(g.ctx, c.Username, c.Lang, code, c.RepoName, c.Branch, displayPath(p), contents[i], "", opts)
		total.MergeChecked(res)
	}
	total.ElapsedSeconds = time.Since(start).Seconds()
	return g.report(total, opts.CutoffPriorityLevel)
}

// readAll reads paths concurrently, keeping their order.
func readAll(ctx context.Context, paths []string) ([]string, error) {
	contents := make([]string, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelReads)
	for i, p := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return errors.NewIO("read", p, err)
			}
			contents[i] = string(data)
			return nil
		})
	}
	return contents, eg.Wait()
}

// displayPath is the name notices are tagged with: relative paths keep
// their folders (markdown checks use them), absolute ones are shortened.
func displayPath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Base(p)
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// guessRepoCode derives the repo code from Door43 file naming.
func guessRepoCode(p string) string {
	base := strings.ToLower(filepath.Base(p))
	switch {
	case strings.HasPrefix(base, "twl_"):
		return "TWL"
	case strings.HasPrefix(base, "tn_"):
		return "TN2"
	case strings.HasPrefix(base, "tq_"):
		return "TQ"
	case strings.HasPrefix(base, "sn_"):
		return "SN"
	case strings.HasPrefix(base, "sq_"):
		return "SQ"
	case strings.Contains(base, "_tn_"):
		return "TN"
	}
	switch path.Ext(base) {
	case ".usfm", ".sfm", ".usx":
		return "LT"
	}
	return ""
}

// bookFromFilename returns the upper-cased last three letters of the
// file name stem, as in tn_JUD.tsv or en_tn_66-JUD.tsv.
func bookFromFilename(p string) string {
	base := filepath.Base(p)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if len(stem) < 3 {
		return strings.ToUpper(stem)
	}
	return strings.ToUpper(stem[len(stem)-3:])
}

type tableChecker func(ctx context.Context, lang, repo, bookID, filename, table, location string, opts check.Options) *notice.Result

var tableCheckers = map[string]tableChecker{
	"TN7":  check.NotesTSV7Table,
	"TN9":  check.NotesTSV9Table,
	"TQ7":  check.QuestionsTSV7Table,
	"TWL6": check.TWLTSV6Table,
}

type rowChecker func(ctx context.Context, lang, repo, line, bookID, C, V, location string, opts check.Options) *notice.Result

var rowCheckers = map[string]rowChecker{
	"TN7":  check.NotesTSV7Row,
	"TN9":  check.NotesTSV9Row,
	"TQ7":  check.QuestionsTSV7Row,
	"TWL6": check.TWLTSV6Row,
}

// TableCmd checks one TSV table with an explicit layout.
type TableCmd struct {
	Path     string `arg:"" help:"TSV file" type:"existingfile"`
	Format   string `required:"" help:"Table layout" enum:"TN7,TN9,TQ7,TWL6"`
	Book     string `help:"Book ID (default: from the file name)"`
	Lang     string `help:"Language code" default:"en"`
	RepoCode string `name:"repo-code" help:"Repo code" default:""`
}

func (c *TableCmd) Run(g *app) error {
	rt, err := g.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return errors.NewIO("read", c.Path, err)
	}
	bookID := strings.ToUpper(c.Book)
	if bookID == "" {
		bookID = bookFromFilename(c.Path)
	}
	opts := rt.Options()
	res := tableCheckers[c.Format](g.ctx, c.Lang, c.RepoCode, bookID, displayPath(c.Path), string(data), "", opts)
	return g.report(res, opts.CutoffPriorityLevel)
}

// RowCmd checks one TSV row.
type RowCmd struct {
	Line     string `arg:"" help:"Row to check; a literal \\t separates fields when the row has no tabs"`
	Format   string `required:"" help:"Row layout" enum:"TN7,TN9,TQ7,TWL6"`
	Book     string `required:"" help:"Book ID"`
	C        string `help:"Expected chapter"`
	V        string `help:"Expected verse"`
	Lang     string `help:"Language code" default:"en"`
	RepoCode string `name:"repo-code" help:"Repo code"`
}

func (c *RowCmd) Run(g *app) error {
	rt, err := g.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	line := c.Line
	if !strings.Contains(line, "\t") {
		line = strings.ReplaceAll(line, `\t`, "\t")
	}
	opts := rt.Options()
	res := rowCheckers[c.Format](g.ctx, c.Lang, c.RepoCode, line, strings.ToUpper(c.Book), c.C, c.V, "", opts)
	return g.report(res, opts.CutoffPriorityLevel)
}

// RepoCmd checks every file of a repository.
type RepoCmd struct {
	Repo     string `arg:"" help:"Repository as USER/REPO"`
	Branch   string `help:"Branch" default:"master"`
	Progress bool   `help:"Print progress to stderr"`
}

func (c *RepoCmd) Run(g *app) error {
	username, repoName, ok := strings.Cut(c.Repo, "/")
	if !ok || username == "" || repoName == "" {
		return errors.NewValidation("repo", fmt.Sprintf("expected USER/REPO, got %q", c.Repo))
	}
	rt, err := g.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	var progress dispatch.Progress
	if c.Progress {
		progress = progressTo(g.err)
	}
	opts := rt.Options()
	res := dispatch.Repo(g.ctx, username, repoName, c.Branch, "", opts, progress)
	return g.report(res, opts.CutoffPriorityLevel)
}

// BookPackageCmd checks one book across all of its resource repositories.
type BookPackageCmd struct {
	Username string `arg:"" help:"Owner of the resource repositories"`
	Lang     string `arg:"" help:"Language code"`
	Book     string `arg:"" help:"Book ID, or OBS"`
	DataSet  string `name:"data-set" help:"Repositories to include (DEFAULT, OLD, NEW or BOTH)" default:"DEFAULT"`
	Manifest bool   `help:"Also check each repository's manifest.yaml"`
	Readme   bool   `help:"Also check each repository's README.md"`
	License  bool   `help:"Also check each repository's LICENSE.md"`
	Progress bool   `help:"Print progress to stderr"`
}

func (c *BookPackageCmd) Run(g *app) error {
	ds, err := dispatch.ParseDataSet(c.DataSet)
	if err != nil {
		return err
	}
	rt, err := g.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	var progress dispatch.Progress
	if c.Progress {
		progress = progressTo(g.err)
	}
	opts := dispatch.PackageOptions{
		Options:       rt.Options(),
		DataSet:       ds,
		CheckManifest: c.Manifest,
		CheckReadme:   c.Readme,
		CheckLicense:  c.License,
	}
	res := dispatch.BookPackage(g.ctx, c.Username, c.Lang, c.Book, opts, progress)
	return g.report(res, opts.CutoffPriorityLevel)
}

func progressTo(w io.Writer) dispatch.Progress {
	return func(e dispatch.Event) {
		fmt.Fprintf(w, "[%d/%d] %s: %s\n", e.Done, e.Total, e.Target, e.Message)
	}
}
