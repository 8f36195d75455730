package dispatch

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/check"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
)

// Repo checks every file of a repository branch. Files that cannot be
// loaded give a 996 notice and the check carries on with the next one.
func Repo(ctx context.Context, username, repoName, branch, location string, opts check.Options, progress Progress) *notice.Result {
	start := time.Now()
	if branch == "" {
		branch = fetch.DefaultBranch
	}
	target := username + "/" + repoName
	loc := fmt.Sprintf(" in %s %s%s", username, repoName, spacedLocation(location))
	res := notice.NewResult()
	logging.CheckStarted(ctx, "repo", target, "branch", branch)

	lang, repoCode := splitRepoName(repoName)

	if opts.Fetcher == nil {
		res.Add(notice.Notice{Priority: 996, Message: "Unable to load repository", Details: "no fetcher configured",
			RepoName: repoName, Username: username, Location: loc})
		return res
	}
	progress.report(Event{Kind: "repo", Target: target, Message: "Listing repository files"})
	paths, err := opts.Fetcher.ListFiles(ctx, fetch.Request{Username: username, Repository: repoName, Branch: branch})
	if err != nil {
		logging.FetchFailed(ctx, username, repoName, "", branch, err)
		res.Add(repoListNotice(err, username, repoCode, repoName, loc))
		return res
	}

	for i, filePath := range paths {
		if ctx.Err() != nil {
			break
		}
		progress.report(Event{Kind: "repo", Target: target, Message: "Checking " + filePath, Done: i, Total: len(paths)})

		name := path.Base(filePath)
		ext := extension(name)
		fileCode := strings.TrimSuffix(name, path.Ext(name))
		bookID := ""
		if ext == "usfm" || ext == "tsv" {
			bookID = strings.ToUpper(lastThree(fileCode))
			fileCode = bookID
		}

		content, err := opts.Fetcher.GetFile(ctx, fetch.Request{Username: username, Repository: repoName, Path: filePath, Branch: branch})
		if err != nil {
			logging.FetchFailed(ctx, username, repoName, filePath, branch, err)
			res.Add(notice.Notice{Priority: 996, Message: "Failed to load", Details: err.Error(), BookID: bookID,
				Filename: filePath, Location: loc + " " + filePath, RepoCode: repoCode, Extra: fileCode})
			continue
		}
		if content == "" {
			continue
		}

		fileRes := FileContents(ctx, username, lang, repoCode, repoName, branch, filePath, content, loc, opts)
		for _, n := range fileRes.NoticeList {
			if n.Extra == "" {
				n.Extra = fileCode
			}
			if n.RepoName == "" {
				n.RepoName = repoName
			}
			res.Add(n)
		}
		res.MergeChecked(fileRes)
		if ext != "md" {
			res.AddSuccess(fmt.Sprintf("Checked %s file: %s", strings.ToUpper(fileCode), name))
		}
	}

	names := make([]string, 0, len(res.CheckedFilenames))
	for _, f := range res.CheckedFilenames {
		names = append(names, path.Base(f))
	}
	if !slices.Contains(names, "LICENSE.md") {
		res.Add(notice.Notice{Priority: 946, Message: "Missing LICENSE.md", RepoName: repoName, Location: loc, Extra: "LICENSE"})
	}
	if !slices.Contains(names, "manifest.yaml") {
		res.Add(notice.Notice{Priority: 947, Message: "Missing manifest.yaml", RepoName: repoName, Location: loc, Extra: "MANIFEST"})
	}
	res.AddRepoName(target)
	res.AddSuccess(fmt.Sprintf("Checked %s repo: %s", username, repoName))
	progress.report(Event{Kind: "repo", Target: target, Message: "Finished", Done: len(paths), Total: len(paths)})

	elapsed := time.Since(start)
	res.ElapsedSeconds = elapsed.Seconds()
	logging.CheckFinished(ctx, "repo", target, len(res.NoticeList), res.CheckedFileCount, elapsed)
	return res
}

func repoListNotice(err error, username, repoCode, repoName, loc string) notice.Notice {
	if errors.IsNotFound(err) {
		return notice.Notice{Priority: 997, Message: "Repository doesn’t exist", Username: username,
			RepoCode: repoCode, RepoName: repoName, Location: loc, Extra: repoCode}
	}
	return notice.Notice{Priority: 996, Message: "Unable to load repository", Details: "error=" + err.Error(),
		Username: username, RepoCode: repoCode, RepoName: repoName, Location: loc, Extra: repoCode}
}

// splitRepoName turns "en_ult" into ("en", "LT") and "en_obs-tn" into
// ("en", "OBS-TN").
func splitRepoName(repoName string) (lang, repoCode string) {
	i := strings.LastIndex(repoName, "_")
	if i < 0 {
		return "", strings.ToUpper(repoName)
	}
	lang, code := repoName[:i], strings.ToUpper(repoName[i+1:])
	switch code {
	case "ULT", "GLT":
		code = "LT"
	case "UST", "GST":
		code = "ST"
	}
	return lang, code
}

func spacedLocation(location string) string {
	if location != "" && location[0] != ' ' {
		return " " + location
	}
	return location
}
