// Package dispatch routes files to the right checker and orchestrates
// whole-repository and book-package checks on top of the fetch capability.
package dispatch

import (
	"context"
	"path"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/check"
)

// FileContents checks one file, choosing the checker from the file name
// and the repo code. Every notice without a file name is tagged with
// filePath, and the result counts one checked file.
func FileContents(ctx context.Context, username, lang, repoCode, repoName, branch, filePath, content, location string, opts check.Options) *notice.Result {
	start := time.Now()
	loc := location
	if loc != "" && loc[0] != ' ' {
		loc = " " + loc
	}

	textLang := lang
	switch repoCode {
	case "UHB":
		textLang = "hbo"
	case "UGNT":
		textLang = "el-x-koine"
	}
	if opts.TARepoUsername == "" {
		opts.TARepoUsername = username
	}
	if opts.TWRepoUsername == "" {
		opts.TWRepoUsername = username
	}

	name := path.Base(filePath)
	lower := strings.ToLower(name)
	var res *notice.Result

	switch {
	case strings.HasSuffix(lower, ".tsv"):
		res = tsvFile(ctx, lang, repoCode, filePath, content, loc, opts)
	case strings.HasSuffix(lower, ".usfm"):
		stem := filePath[:len(filePath)-len(".usfm")]
		var bookID string
		if strings.HasSuffix(stem, "_book") && len(stem) >= 8 {
			bookID = strings.ToUpper(stem[len(stem)-8 : len(stem)-5])
		} else {
			bookID = lastThree(stem)
		}
		res = check.USFMText(ctx, textLang, repoCode, bookID, filePath, content, loc, opts)
	case strings.HasSuffix(lower, ".sfm"):
		stem := name[:len(name)-len(".sfm")]
		var bookID string
		if len(stem) >= 5 {
			bookID = strings.ToUpper(stem[2:5])
		}
		res = check.USFMText(ctx, textLang, repoCode, bookID, filePath, content, loc, opts)
	case strings.HasSuffix(lower, ".usx"), strings.HasSuffix(lower, ".xml"):
		stem := name[:len(name)-len(path.Ext(name))]
		res = check.USXText(textLang, repoCode, strings.ToUpper(lastThree(stem)), filePath, content, loc, opts)
	case strings.HasSuffix(lower, ".md") && check.IsLexiconEntry(repoCode, filePath):
		res = check.LexiconFileContents(ctx, lang, repoCode, filePath, content, loc, opts)
	case strings.HasSuffix(lower, ".md"):
		res = check.MarkdownFileContents(ctx, lang, repoCode, filePath, content, loc, opts)
	case strings.HasSuffix(lower, ".txt"):
		res = check.PlainText(lang, repoCode, check.FieldText, filePath, content, loc, opts)
	case lower == "manifest.yaml":
		res = check.ManifestText(ctx, lang, repoCode, username, repoName, branch, content, loc, opts)
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		res = check.YAMLText(lang, repoCode, filePath, content, loc, opts)
	case strings.HasPrefix(lower, "license"):
		res = check.MarkdownFileContents(ctx, lang, repoCode, filePath, content, loc, opts)
		res.NoticeList = append([]notice.Notice{{
			Priority: 982, Message: "File extension is not recognized, so treated as markdown.",
			Filename: filePath, Location: loc,
		}}, res.NoticeList...)
	default:
		res = check.PlainText(lang, repoCode, check.FieldRaw, filePath, content, loc, opts)
		res.NoticeList = append([]notice.Notice{{
			Priority: 995, Message: "File extension is not recognized, so treated as plain text.",
			Filename: filePath, Location: loc,
		}}, res.NoticeList...)
	}

	if !norm.NFC.IsNormalString(content) {
		priority := 270
		switch repoCode {
		case "UHB":
			priority = 170
		case "UGNT":
			priority = 870
		}
		res.Add(notice.Notice{Priority: priority, Message: "File is not Unicode normalized", Filename: filePath, Location: location})
	}

	for i := range res.NoticeList {
		if res.NoticeList[i].Filename == "" {
			res.NoticeList[i].Filename = filePath
		}
	}
	res.CheckedFileCount++
	res.AddFilename(filePath)
	res.AddFilenameExtension(extension(name))
	res.CheckedFilesizes += len(content)
	res.ElapsedSeconds = time.Since(start).Seconds()
	return res
}

// tsvFile picks the table checker. Files named like "en_tn_66-JUD.tsv" are
// 9-column notes; the other shapes follow the repo code.
func tsvFile(ctx context.Context, lang, repoCode, filePath, content, loc string, opts check.Options) *notice.Result {
	stem := path.Base(filePath)
	stem = stem[:len(stem)-len(".tsv")]
	if strings.HasPrefix(stem, lang+"_") || strings.HasPrefix(stem, "en_") {
		return check.NotesTSV9Table(ctx, lang, repoCode, lastThree(stem), filePath, content, loc, opts)
	}
	bookID := strings.ToUpper(lastThree(stem))
	switch repoCode {
	case "TWL", "OBS-TWL":
		return check.TWLTSV6Table(ctx, lang, repoCode, bookID, filePath, content, loc, opts)
	case "TN2", "OBS-TN", "OBS-TN2", "SN", "OBS-SN":
		return check.NotesTSV7Table(ctx, lang, repoCode, bookID, filePath, content, loc, opts)
	case "TQ", "TQ2", "OBS-TQ", "OBS-TQ2", "SQ", "OBS-SQ":
		return check.QuestionsTSV7Table(ctx, lang, repoCode, bookID, filePath, content, loc, opts)
	}
	res := check.PlainText(lang, repoCode, check.FieldRaw, filePath, content, loc, opts)
	res.NoticeList = append([]notice.Notice{{
		Priority: 995, Message: "File extension is not recognized, so treated as plain text.",
		Details: "no TSV table shape for repo code " + repoCode, Filename: filePath, Location: loc,
	}}, res.NoticeList...)
	return res
}

func lastThree(s string) string {
	if len(s) <= 3 {
		return s
	}
	return s[len(s)-3:]
}

func extension(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return ""
	}
	return ext[1:]
}
