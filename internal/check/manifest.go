package check

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/FocuswithJustin/tcvalidate/core/books"
	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
)

// ManifestValidatorVersion is reported in the manifest check's summary line.
const ManifestValidatorVersion = "0.4.6"

// rcSchemaJSON is the Resource Container 0.2 manifest schema.
//
//go:embed rc.schema.json
var rcSchemaJSON string

const rcSchemaURL = "https://resource-container.readthedocs.io/schema/rc.schema.json"

var rcSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString(rcSchemaURL, rcSchemaJSON)
})

// Folders that manifests list as project paths without them being files.
var manifestFolderPaths = []string{"./content", "./bible", "./intro", "./process", "./translate", "./checking"}

// languageForRepo returns the manifest language a repo must declare.
func languageForRepo(lang, repoCode string) string {
	switch repoCode {
	case "UHB":
		return "hbo"
	case "UGNT":
		return "el-x-koine"
	}
	return lang
}

// ManifestText checks a manifest.yaml: its YAML text, the required
// sections, the declared language, the RC schema, the listed project files
// and, for notes and word links repos, the original-language relations.
func ManifestText(ctx context.Context, lang, repoCode, username, repoName, branch, body, location string, opts Options) *notice.Result {
	loc := spaced(location)
	res := notice.NewResult()
	add := func(n notice.Notice) {
		if !opts.wants(n.Priority) {
			return
		}
		if n.Location == "" {
			n.Location = loc
		}
		if repoName != "" {
			n.RepoName = repoName
		}
		res.Add(n)
	}

	yres, data := yamlText("en", repoCode, repoName, body, loc, opts)
	for _, n := range yres.NoticeList {
		add(n)
	}
	res.SuccessList = append(res.SuccessList, yres.SuccessList...)

	if data != nil {
		m := manifestCheck{ctx: ctx, lang: lang, repoCode: repoCode, username: username, repoName: repoName,
			branch: branch, opts: opts, add: add}
		m.run(data)
	}

	opts.filter(res)
	if n := len(res.NoticeList); n > 0 {
		res.AddSuccess(fmt.Sprintf("checkManifestText v%s finished with %s", ManifestValidatorVersion, plural(n, "notice")))
	} else {
		res.AddSuccess("No errors or warnings found by checkManifestText v" + ManifestValidatorVersion)
	}
	return res
}

type manifestCheck struct {
	ctx                                        context.Context
	lang, repoCode, username, repoName, branch string
	opts                                       Options
	add                                        func(notice.Notice)

	paths            []string
	otBooks, ntBooks bool
}

func (m *manifestCheck) run(data map[string]any) {
	for _, k := range []struct {
		key      string
		priority int
	}{{"dublin_core", 928}, {"projects", 929}, {"checking", 148}} {
		if _, ok := data[k.key]; !ok {
			m.add(notice.Notice{Priority: k.priority, Message: fmt.Sprintf("'%s' key is missing", k.key)})
		}
	}

	dc, _ := data["dublin_core"].(map[string]any)
	language, _ := dc["language"].(map[string]any)
	if id, ok := language["identifier"].(string); ok {
		if want := languageForRepo(m.lang, m.repoCode); id != want {
			m.add(notice.Notice{Priority: 933, Message: "Manifest' language' 'identifier' doesn't match",
				Details: fmt.Sprintf("expected '%s' but manifest has '%s'", want, id)})
		}
	} else {
		m.add(notice.Notice{Priority: 934, Message: "'language' key or 'idenfier' subkey is missing"})
	}

	m.schema(data)

	projects, _ := data["projects"].([]any)
	for _, p := range projects {
		project, _ := p.(map[string]any)
		m.project(project)
	}
	m.unlistedFiles()

	if m.repoCode == "TWL" || m.repoCode == "TN" || m.repoCode == "TN2" {
		m.relations(dc)
	}
}

// schema validates data against the RC schema and reports every leaf
// failure.
func (m *manifestCheck) schema(data map[string]any) {
	sch, err := rcSchema()
	if err != nil {
		logging.Error("manifest schema failed to compile", "error", err)
		return
	}
	// The validator wants JSON-shaped values.
	raw, err := json.Marshal(data)
	if err != nil {
		m.add(notice.Notice{Priority: 985, Message: "Field does not match schema type", Details: err.Error()})
		return
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return
	}
	var verr *jsonschema.ValidationError
	if err := sch.Validate(doc); errors.As(err, &verr) {
		for _, leaf := range leafCauses(verr) {
			m.add(notice.Notice{Priority: 985, Message: "Field does not match schema " + path.Base(leaf.KeywordLocation),
				Details: leaf.Message, FieldName: leaf.InstanceLocation})
		}
	}
}

func leafCauses(e *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return []*jsonschema.ValidationError{e}
	}
	var out []*jsonschema.ValidationError
	for _, c := range e.Causes {
		out = append(out, leafCauses(c)...)
	}
	return out
}

func (m *manifestCheck) project(project map[string]any) {
	for _, key := range []string{"identifier", "path", "sort"} {
		if _, ok := project[key]; !ok {
			excerpt, _ := json.Marshal(project)
			m.add(notice.Notice{Priority: 939, Message: "Key is missing for project", Details: key, Excerpt: string(excerpt)})
		}
	}
	if id, ok := project["identifier"].(string); ok {
		switch t, _ := books.TestamentOf(id); t {
		case books.OT:
			m.otBooks = true
		case books.NT:
			m.ntBooks = true
		}
	}

	projectPath, _ := project["path"].(string)
	m.paths = append(m.paths, projectPath)
	if m.repoName == "" || projectPath == "" || slices.Contains(manifestFolderPaths, projectPath) || !m.opts.fetching() {
		return
	}
	// Book folders, as in TQ repos.
	if id, ok := strings.CutPrefix(projectPath, "./"); ok && id == strings.ToLower(id) && books.IsValid(id) {
		return
	}
	content, err := m.opts.Fetcher.GetFile(m.ctx, fetch.Request{Username: m.username, Repository: m.repoName,
		Path: projectPath, Branch: m.branch})
	switch {
	case errors.IsNotFound(err) || err == nil && content == "":
		m.add(notice.Notice{Priority: 938, Message: "Unable to find project file mentioned in manifest", Excerpt: projectPath})
	case err != nil:
		logging.FetchFailed(m.ctx, m.username, m.repoName, projectPath, m.branch, err)
		m.add(notice.Notice{Priority: 936, Message: "Error loading manifest project link", Details: err.Error(), Excerpt: projectPath})
	case len([]rune(content)) < 10:
		m.add(notice.Notice{Priority: 937, Message: "Linked project file seems empty", Excerpt: projectPath})
	}
}

// unlistedFiles reports content files in the repo that no project lists.
// A project may list just the top-level folder of its files.
func (m *manifestCheck) unlistedFiles() {
	if m.repoName == "" || !m.opts.fetching() {
		return
	}
	files, err := m.opts.Fetcher.ListFiles(m.ctx, fetch.Request{Username: m.username, Repository: m.repoName, Branch: m.branch})
	if err != nil {
		logging.FetchFailed(m.ctx, m.username, m.repoName, "", m.branch, err)
		return
	}
	for _, f := range files {
		content := strings.HasSuffix(f, ".tsv") || strings.HasSuffix(f, ".usfm") ||
			strings.HasSuffix(f, ".md") && f != "LICENSE.md" && f != "README.md"
		if !content {
			continue
		}
		top, _, _ := strings.Cut(f, "/")
		if !slices.Contains(m.paths, f) && !slices.Contains(m.paths, "./"+top) {
			m.add(notice.Notice{Priority: 832, Message: "Seems filename is missing from the manifest project list", Excerpt: f})
		}
	}
}

func (m *manifestCheck) relations(dc map[string]any) {
	list, ok := dc["relation"].([]any)
	if !ok {
		m.add(notice.Notice{Priority: 930, Message: "'relation' key is missing"})
	}
	var relations []string
	uhb, ugnt := false, false
	for _, r := range list {
		s, _ := r.(string)
		relations = append(relations, s)
		uhb = uhb || strings.HasPrefix(s, "hbo/uhb")
		ugnt = ugnt || strings.HasPrefix(s, "el-x-koine/ugnt")
	}
	details, _ := json.Marshal(relations)
	if m.otBooks && !uhb {
		m.add(notice.Notice{Priority: 817, Message: "UHB 'relation' is missing", Details: string(details)})
	}
	if m.ntBooks && !ugnt {
		m.add(notice.Notice{Priority: 816, Message: "UGNT 'relation' is missing", Details: string(details)})
	}
}
