package check

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/tcvalidate/core/notice"
)

var yamlErrorLine = regexp.MustCompile(`line (\d+)`)

// YAMLText checks that text parses as YAML and runs the field checks over
// every line.
func YAMLText(lang, repo, name, body, location string, opts Options) *notice.Result {
	res, _ := yamlText(lang, repo, name, body, location, opts)
	return res
}

// yamlText is YAMLText that also returns the parsed document, which is nil
// when parsing failed.
func yamlText(lang, repo, name, body, location string, opts Options) (*notice.Result, map[string]any) {
	res := notice.NewResult()
	loc := spaced(location)
	if name != "" {
		loc = " in " + name + loc
	}
	add := func(n notice.Notice) {
		if opts.wants(n.Priority) {
			if n.Location == "" {
				n.Location = loc
			}
			res.Add(n)
		}
	}

	var data map[string]any
	if err := yaml.Unmarshal([]byte(body), &data); err != nil {
		n := notice.Notice{Priority: 916, Message: err.Error()}
		if m := yamlErrorLine.FindStringSubmatch(err.Error()); m != nil {
			n.LineNumber, _ = strconv.Atoi(m[1])
		}
		add(n)
		data = nil
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		content := strings.TrimLeft(line, " ")
		content = strings.TrimPrefix(content, "-")
		content = strings.TrimLeft(content, " ")
		if content == "" {
			continue
		}
		allowLinks := strings.HasPrefix(content, "url:") || strings.HasPrefix(content, "chapter_url:")
		field := TextField(Field{LanguageCode: lang, RepoCode: repo, Type: FieldYAML,
			Text: content, AllowLinks: allowLinks, Location: loc}, opts)
		for _, n := range field.NoticeList {
			if !yamlLineNotice(n, content) {
				continue
			}
			n.LineNumber = i + 1
			add(n)
		}
	}

	opts.filter(res)
	res.AddSuccess(fmt.Sprintf("Checked all %s%s.", plural(len(lines), "line"), loc))
	summarize(res, "YAML text check")
	return res, data
}

// yamlLineNotice drops field notices that YAML syntax makes meaningless.
func yamlLineNotice(n notice.Notice, content string) bool {
	switch {
	case n.Priority == 191:
		return false
	case n.Message == "Unexpected ' character after space", n.Message == "Unexpected space after [ character":
		return false
	case n.Message == "Unexpected doubled - characters":
		return content == "---"
	}
	return true
}
