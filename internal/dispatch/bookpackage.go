package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/tcvalidate/core/books"
	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/check"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
)

// DataSet selects which generation of resource formats a book package
// check covers.
type DataSet string

const (
	DataSetDefault DataSet = "DEFAULT"
	DataSetOld     DataSet = "OLD"  // markdown questions and OBS notes
	DataSetNew     DataSet = "NEW"  // TSV only
	DataSetBoth    DataSet = "BOTH" // both notes formats
)

// ParseDataSet accepts a data set name in any case; empty means DEFAULT.
func ParseDataSet(s string) (DataSet, error) {
	switch ds := DataSet(strings.ToUpper(s)); ds {
	case "":
		return DataSetDefault, nil
	case DataSetDefault, DataSetOld, DataSetNew, DataSetBoth:
		return ds, nil
	}
	return "", errors.NewValidation("dataSet", fmt.Sprintf("unknown data set %q", s))
}

const (
	manifestFilename = "manifest.yaml"
	newFormatBranch  = "newFormat"
	catalogUsername  = "Door43-Catalog"
	uwUsername       = "unfoldingWord"
)

// PackageOptions extends the checking options with the book-package
// specific switches.
type PackageOptions struct {
	check.Options

	DataSet       DataSet
	CheckManifest bool
	CheckReadme   bool
	CheckLicense  bool

	// Now is used for the LICENSE copyright year check.
	Now func() time.Time
}

func (o PackageOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// RepoCodes returns the repo codes checked for a book package.
func RepoCodes(lang, bookID string, ds DataSet) []string {
	if bookID == "OBS" {
		if ds == DataSetOld {
			return []string{"OBS", "OBS-TN1", "OBS-TQ1", "OBS-SN1", "OBS-SQ1"}
		}
		return []string{"OBS", "OBS-TWL", "OBS-TN", "OBS-TQ", "OBS-SN", "OBS-SQ"}
	}
	orig := "UGNT"
	if t, _ := books.TestamentOf(bookID); t == books.OT {
		orig = "UHB"
	}
	if lang != "en" {
		if ds == DataSetOld {
			return []string{orig, "LT", "ST", "TN", "TQ1"}
		}
		return []string{orig, "LT", "ST", "TN", "TQ"}
	}
	switch ds {
	case DataSetOld:
		return []string{orig, "TWL", "LT", "ST", "TN", "TQ1"}
	case DataSetNew:
		return []string{orig, "TWL", "LT", "ST", "TN2", "TQ", "SN", "SQ"}
	case DataSetBoth:
		return []string{orig, "TWL", "LT", "ST", "TN2", "TN", "TQ", "SN", "SQ"}
	}
	return []string{orig, "TWL", "LT", "ST", "TN", "TQ", "SN", "SQ"}
}

// FormRepoName returns the Door43 repository name for a repo code, such as
// "en_ult" for LT or "hbo_uhb" for UHB.
func FormRepoName(lang, repoCode string) string {
	code := strings.TrimRight(repoCode, "12")
	switch code {
	case "LT":
		code = "GLT"
		if lang == "en" {
			code = "ULT"
		}
	case "ST":
		code = "GST"
		if lang == "en" {
			code = "UST"
		}
	case "UHB":
		lang = "hbo"
	case "UGNT":
		lang = "el-x-koine"
	}
	return lang + "_" + strings.ToLower(code)
}

// packageCheck carries the state of one BookPackage run.
type packageCheck struct {
	ctx      context.Context
	username string
	lang     string
	bookID   string
	opts     PackageOptions
	res      *notice.Result
}

// BookPackage checks one book across the repos of its book package: the
// original-language text, the literal and simplified translations, the
// notes, questions and word links. bookID may be "OBS".
func BookPackage(ctx context.Context, username, lang, bookID string, opts PackageOptions, progress Progress) *notice.Result {
	start := time.Now()
	bookID = strings.ToUpper(bookID)
	if opts.DataSet == "" {
		opts.DataSet = DataSetDefault
	}
	if opts.OriginalLanguageRepoUsername == "" {
		opts.OriginalLanguageRepoUsername = username
	}
	if opts.TARepoUsername == "" {
		opts.TARepoUsername = username
	}
	if opts.TWRepoUsername == "" {
		opts.TWRepoUsername = username
	}

	pc := &packageCheck{ctx: ctx, username: username, lang: lang, bookID: bookID, opts: opts, res: notice.NewResult()}
	target := fmt.Sprintf("%s/%s/%s", username, lang, bookID)
	logging.CheckStarted(ctx, "book-package", target, "data_set", string(opts.DataSet))

	generalLocation := ""
	if bookID == "OBS" {
		generalLocation = fmt.Sprintf(" in %s OBS from %s %s branch", lang, username, fetch.DefaultBranch)
	} else if n, _ := books.ChaptersInBook(bookID); n <= 10 {
		generalLocation = fmt.Sprintf(" in %s %s book package from %s %s branch", lang, bookID, username, fetch.DefaultBranch)
	}

	numberName := bookID
	if bookID != "OBS" {
		if !books.IsValid(bookID) {
			pc.add(notice.Notice{Priority: 902, Message: "Bad function call: should be given a valid book abbreviation",
				Excerpt: bookID, Location: fmt.Sprintf(" (not '%s')%s", bookID, generalLocation)})
			return pc.res
		}
		if nn, ok := books.UsfmNumberName(bookID); ok {
			numberName = nn
		}
	}

	codes := RepoCodes(lang, bookID, opts.DataSet)
	checkedManifests := map[string]bool{}
	for i, code := range codes {
		if ctx.Err() != nil {
			break
		}
		user, adjusted, branch := username, code, fetch.DefaultBranch
		switch {
		case strings.HasSuffix(adjusted, "1"):
			adjusted = strings.TrimSuffix(adjusted, "1")
		case strings.HasSuffix(adjusted, "2"):
			adjusted = strings.TrimSuffix(adjusted, "2")
			branch = newFormatBranch
			generalLocation = strings.Replace(generalLocation, fetch.DefaultBranch, newFormatBranch, 1)
		}
		repoName := FormRepoName(lang, adjusted)
		repoLocation := " in " + code + generalLocation
		adjusted = strings.TrimPrefix(adjusted, "OBS-")
		if (adjusted == "UHB" || adjusted == "UGNT") && user != catalogUsername && user != uwUsername {
			logging.DebugContext(ctx, "switching original-language username", "repo_code", adjusted, "from", user, "to", catalogUsername)
			user = catalogUsername
		}
		progress.report(Event{Kind: "book-package", Target: target,
			Message: fmt.Sprintf("Checking %s %s %s in %s", user, lang, bookID, code), Done: i, Total: len(codes)})

		switch {
		case code == "OBS":
			repoRes := Repo(ctx, user, lang+"_obs", fetch.DefaultBranch, generalLocation, opts.Options, nil)
			pc.res.Merge(repoRes)
			pc.res.AddRepoName(repoName)
			pc.res.AddSuccess(fmt.Sprintf("Checked %s OBS repo from %s", lang, user))
		case code == "TQ1" || (strings.HasPrefix(code, "OBS-") && strings.HasSuffix(code, "1")):
			pc.markdownBook(user, code, repoName)
		default:
			filename := pc.bookFilename(user, code, adjusted, repoName, numberName)
			pc.bookFile(user, code, repoName, branch, filename, repoLocation, generalLocation)
		}

		if !opts.DisableAllLinkFetching && !checkedManifests[repoName] {
			checkedManifests[repoName] = true
			if opts.CheckManifest {
				if n := pc.manifest(user, code, repoName, branch, generalLocation); n > 0 {
					pc.counted(manifestFilename, n)
					pc.res.AddSuccess(fmt.Sprintf("Checked %s%s manifest file", pc.otherUser(user), repoName))
				}
			}
			if opts.CheckReadme {
				if n := pc.markdown(user, code, repoName, branch, "README.md", generalLocation); n > 0 {
					pc.counted("README.md", n)
					pc.res.AddSuccess(fmt.Sprintf("Checked %s%s README file", pc.otherUser(user), repoName))
				}
			}
			if opts.CheckLicense {
				if n := pc.markdown(user, code, repoName, branch, "LICENSE.md", generalLocation); n > 0 {
					pc.counted("LICENSE.md", n)
					pc.res.AddSuccess(fmt.Sprintf("Checked %s%s LICENSE file", pc.otherUser(user), repoName))
				}
			}
		}
	}
	progress.report(Event{Kind: "book-package", Target: target, Message: "Finished", Done: len(codes), Total: len(codes)})

	elapsed := time.Since(start)
	pc.res.ElapsedSeconds = elapsed.Seconds()
	logging.CheckFinished(ctx, "book-package", target, len(pc.res.NoticeList), pc.res.CheckedFileCount, elapsed)
	return pc.res
}

// add tags a notice with the book and username of this package.
func (pc *packageCheck) add(n notice.Notice) {
	n.BookID = pc.bookID
	n.Username = pc.username
	pc.res.Add(n)
}

func (pc *packageCheck) otherUser(user string) string {
	if user != pc.username {
		return user + " "
	}
	return ""
}

func (pc *packageCheck) counted(filename string, size int) {
	pc.res.CheckedFileCount++
	pc.res.AddFilename(filename)
	pc.res.AddFilenameExtension(extension(filename))
	pc.res.CheckedFilesizes += size
}

func (pc *packageCheck) fetcher() fetch.Fetcher {
	return pc.opts.Fetcher
}

func (pc *packageCheck) get(user, repoName, filePath, branch string) (string, error) {
	f := pc.fetcher()
	if f == nil {
		return "", fmt.Errorf("no fetcher configured")
	}
	content, err := f.GetFile(pc.ctx, fetch.Request{Username: user, Repository: repoName, Path: filePath, Branch: branch})
	if err != nil {
		logging.FetchFailed(pc.ctx, user, repoName, filePath, branch, err)
	}
	return content, err
}

// repoExists asks the fetcher for any file of the repository.
func (pc *packageCheck) repoExists(user, repoName string) bool {
	f := pc.fetcher()
	if f == nil {
		return false
	}
	_, err := f.ListFiles(pc.ctx, fetch.Request{Username: user, Repository: repoName})
	return err == nil
}

func (pc *packageCheck) missingRepo(user, code, repoName, details, location string) {
	pc.res.Add(notice.Notice{Priority: 997, Message: "Repository doesn’t exist", Details: details,
		Username: user, RepoCode: code, RepoName: repoName, Location: location, Extra: code})
}

// bookFilename forms the name of the single file a repo holds for the book.
func (pc *packageCheck) bookFilename(user, code, adjusted, repoName, numberName string) string {
	switch {
	case code == "UHB" || code == "UGNT" || code == "LT" || code == "ST":
		return numberName + ".usfm"
	case adjusted == "TWL" || strings.HasSuffix(code, "TN2") || strings.HasSuffix(code, "TQ") ||
		adjusted == "SN" || adjusted == "SQ" || code == "OBS-TN":
		return strings.ToLower(adjusted) + "_" + pc.bookID + ".tsv"
	}
	if name, ok := pc.filenameFromManifest(user, repoName); ok {
		return name
	}
	return fmt.Sprintf("%s_tn_%s.tsv", pc.lang, numberName)
}

type manifestProjects struct {
	Projects []struct {
		Identifier string `yaml:"identifier"`
		Path       string `yaml:"path"`
	} `yaml:"projects"`
}

// filenameFromManifest looks the book up in the repo's manifest projects.
func (pc *packageCheck) filenameFromManifest(user, repoName string) (string, bool) {
	body, err := pc.get(user, repoName, manifestFilename, fetch.DefaultBranch)
	if err != nil {
		return "", false
	}
	var m manifestProjects
	if err := yaml.Unmarshal([]byte(body), &m); err != nil {
		return "", false
	}
	want := strings.ToLower(pc.bookID)
	for _, p := range m.Projects {
		if strings.ToLower(p.Identifier) == want && p.Path != "" {
			return strings.TrimPrefix(p.Path, "./"), true
		}
	}
	return "", false
}

// bookFile fetches and checks the single book file of a repo.
func (pc *packageCheck) bookFile(user, code, repoName, branch, filename, repoLocation, generalLocation string) {
	content, err := pc.get(user, repoName, filename, branch)
	if err != nil {
		if !pc.repoExists(user, repoName) {
			pc.missingRepo(user, code, repoName, "", repoLocation)
			return
		}
		priority := 996
		if code == "SN" || code == "SQ" {
			priority = 196
		}
		pc.add(notice.Notice{Priority: priority, Message: "Unable to load book package file", Details: "error=" + err.Error(),
			RepoCode: code, RepoName: repoName, Filename: filename, Location: repoLocation, Extra: code})
		return
	}
	pc.res.AddFilename(filename)
	pc.res.CheckedFilesizes += len(content)
	pc.res.AddRepoName(repoName)

	fileRes := FileContents(pc.ctx, user, pc.lang, code, repoName, branch, filename, content, generalLocation, pc.opts.Options)
	pc.absorb(fileRes, code, repoName, branch, filename)
	pc.res.CheckedFileCount++
	pc.res.AddFilenameExtension(extension(filename))
	pc.res.AddSuccess(fmt.Sprintf("Checked %s%s file: %s", pc.otherUser(user), strings.ToUpper(code), filename))
}

// absorb folds a file result into the package result. Notices about
// linked articles already carry Extra and are copied unchanged.
func (pc *packageCheck) absorb(fileRes *notice.Result, code, repoName, branch, filename string) {
	for _, n := range fileRes.NoticeList {
		if n.Extra != "" {
			pc.res.Add(n)
			continue
		}
		n.RepoCode = code
		n.RepoName = repoName
		n.Branch = branch
		n.Filename = filename
		n.Extra = code
		pc.add(n)
	}
	// FileContents counts the file itself; only linked articles are added here.
	linked := fileRes.CheckedFileCount - 1
	if linked > 0 {
		pc.res.CheckedFileCount += linked
		pc.res.AddSuccess(fmt.Sprintf("Checked %d linked TA/TW articles", linked))
	}
	for _, name := range fileRes.CheckedRepoNames {
		pc.res.AddRepoName(name)
	}
	for _, ext := range fileRes.CheckedFilenameExtensions {
		pc.res.AddFilenameExtension(ext)
	}
}

// markdownBook checks the markdown files of a repo that still keeps one
// file per verse under "{book}/CC/VV.md" (or "content/" for OBS).
func (pc *packageCheck) markdownBook(user, code, repoName string) {
	location := fmt.Sprintf(" in %s (%s)", user, fetch.DefaultBranch)
	folder := strings.ToLower(pc.bookID) + "/"
	if pc.bookID == "OBS" {
		folder = "content/"
	}
	details := "folder=" + folder

	var paths []string
	var err error
	if f := pc.fetcher(); f != nil {
		paths, err = f.ListFiles(pc.ctx, fetch.Request{Username: user, Repository: repoName, Path: folder})
	}
	if err != nil || len(paths) == 0 {
		if !pc.repoExists(user, repoName) {
			pc.missingRepo(user, code, repoName, details, location)
			return
		}
		pc.add(notice.Notice{Priority: 996, Message: "Unable to load file", Details: details,
			RepoCode: code, RepoName: repoName, Location: location, Extra: code})
		return
	}

	count := 0
	for _, p := range paths {
		if pc.ctx.Err() != nil {
			break
		}
		if !strings.HasSuffix(p, ".md") {
			continue
		}
		C, V := chapterVerseFromPath(p)
		content, err := pc.get(user, repoName, p, fetch.DefaultBranch)
		if err != nil {
			pc.add(notice.Notice{Priority: 996, Message: "Unable to load file", Details: "error=" + err.Error(),
				C: C, V: V, RepoCode: code, RepoName: repoName, Filename: p, Location: location + " " + p, Extra: code})
			continue
		}
		fileRes := FileContents(pc.ctx, user, pc.lang, code, repoName, fetch.DefaultBranch, p, content, location, pc.opts.Options)
		for _, n := range fileRes.NoticeList {
			n.C, n.V = C, V
			n.RepoCode = code
			n.RepoName = repoName
			n.Extra = code
			pc.add(n)
		}
		pc.res.AddFilename(p)
		pc.res.CheckedFilesizes += len(content)
		pc.res.CheckedFileCount++
		pc.res.AddFilenameExtension("md")
		count++
	}
	pc.res.AddRepoName(repoName)
	pc.res.AddSuccess(fmt.Sprintf("Checked %d %s file%s", count, strings.ToUpper(code), pluralS(count)))
}

// chapterVerseFromPath takes "jud/01/03.md" to ("1", "3").
func chapterVerseFromPath(p string) (string, string) {
	parts := strings.Split(strings.TrimSuffix(p, ".md"), "/")
	if len(parts) < 2 {
		return "", ""
	}
	return trimZeros(parts[len(parts)-2]), trimZeros(parts[len(parts)-1])
}

func trimZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" && s != "" {
		return "0"
	}
	return t
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// manifest checks a repo's manifest.yaml and returns its size.
func (pc *packageCheck) manifest(user, code, repoName, branch, location string) int {
	content, err := pc.get(user, repoName, manifestFilename, branch)
	if err != nil {
		if !pc.repoExists(user, repoName) {
			pc.missingRepo(user, code, repoName, "", location)
			return 0
		}
		pc.add(notice.Notice{Priority: 996, Message: "Unable to load file", Details: "error=" + err.Error(),
			RepoName: repoName, Filename: manifestFilename, Location: location, Extra: code})
		return 0
	}
	if content == "" {
		pc.res.Add(notice.Notice{Priority: 956, Message: "Got empty manifest file", RepoName: repoName,
			Filename: manifestFilename, Location: location, Extra: code + " MANIFEST"})
		return 0
	}
	mres := check.ManifestText(pc.ctx, pc.lang, code, user, repoName, branch, content, location, pc.opts.Options)
	for _, n := range mres.NoticeList {
		n.Username = user
		n.RepoCode = code
		n.RepoName = repoName
		n.Filename = manifestFilename
		n.Extra = code + " MANIFEST"
		pc.res.Add(n)
	}
	return len(content)
}

// markdown checks README.md or LICENSE.md and returns its size. A licence
// should mention the current or the previous year.
func (pc *packageCheck) markdown(user, code, repoName, branch, filename, location string) int {
	content, err := pc.get(user, repoName, filename, branch)
	if err != nil {
		if !pc.repoExists(user, repoName) {
			pc.missingRepo(user, code, repoName, "", location)
			return 0
		}
		pc.add(notice.Notice{Priority: 996, Message: "Unable to load file", Details: "error=" + err.Error(),
			RepoName: repoName, Filename: filename, Location: location, Extra: code})
		return 0
	}
	if content == "" {
		pc.res.Add(notice.Notice{Priority: 956, Message: "Got empty markdown file", RepoName: repoName,
			Filename: filename, Location: location, Extra: code})
		return 0
	}
	mres := check.MarkdownFileContents(pc.ctx, pc.lang, code, filename, content, location, pc.opts.Options)
	for _, n := range mres.NoticeList {
		n.Username = user
		n.RepoCode = code
		n.RepoName = repoName
		n.Filename = filename
		n.Extra = code
		pc.res.Add(n)
	}
	if filename == "LICENSE.md" {
		year := pc.opts.now().Year()
		this, last := fmt.Sprint(year), fmt.Sprint(year-1)
		if !strings.Contains(content, this) && !strings.Contains(content, last) {
			pc.res.Add(notice.Notice{Priority: 256, Message: "Possibly missing current copyright year",
				Details: fmt.Sprintf("possibly expecting '%s'", this), Username: user, RepoName: repoName,
				Filename: filename, Location: location, Extra: code})
		}
	}
	return len(content)
}
