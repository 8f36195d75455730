// Package disabled implements the notice-disabling rules engine.
//
// Rules are data: a YAML document listing partial notices. A notice is
// disabled when it matches any rule. Deployments add exceptions by
// supplying their own rules file instead of changing code.
package disabled

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rule is a partial notice. Unset attributes are ignored when matching.
type Rule struct {
	Priority   *int   `yaml:"priority,omitempty" json:"priority,omitempty"`
	Message    string `yaml:"message,omitempty" json:"message,omitempty"`
	Details    string `yaml:"details,omitempty" json:"details,omitempty"`
	BookID     string `yaml:"bookID,omitempty" json:"bookID,omitempty"`
	C          string `yaml:"C,omitempty" json:"C,omitempty"`
	V          string `yaml:"V,omitempty" json:"V,omitempty"`
	RowID      string `yaml:"rowID,omitempty" json:"rowID,omitempty"`
	FieldName  string `yaml:"fieldName,omitempty" json:"fieldName,omitempty"`
	LineNumber *int   `yaml:"lineNumber,omitempty" json:"lineNumber,omitempty"`
	Excerpt    string `yaml:"excerpt,omitempty" json:"excerpt,omitempty"`
	Location   string `yaml:"location,omitempty" json:"location,omitempty"`
	Filename   string `yaml:"filename,omitempty" json:"filename,omitempty"`
	RepoCode   string `yaml:"repoCode,omitempty" json:"repoCode,omitempty"`
	RepoName   string `yaml:"repoName,omitempty" json:"repoName,omitempty"`
	Username   string `yaml:"username,omitempty" json:"username,omitempty"`
	Extra      string `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Rules is an ordered rule table.
type Rules struct {
	list []Rule
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// Default returns the embedded rule table. It is parsed once and shared;
// Rules are read-only after construction.
func Default() *Rules {
	return defaultRules()
}

var defaultRules = sync.OnceValue(func() *Rules {
	r, err := Parse(defaultRulesYAML, "rules.yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded rules.yaml: %v", err))
	}
	return r
})

// None returns an empty rule table that disables nothing.
func None() *Rules {
	return &Rules{}
}

// New builds a rule table from rules, keeping their order.
func New(rules ...Rule) *Rules {
	return &Rules{list: append([]Rule(nil), rules...)}
}

// Load reads a YAML rules file.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a YAML rules document. Rules with no attributes are
// rejected since they would disable every notice.
func Parse(data []byte, path string) (*Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &errors.ParseError{Format: "rules", Path: path, Message: err.Error(), Err: err}
	}
	for i, r := range f.Rules {
		if r.empty() {
			return nil, errors.NewParse("rules", path, fmt.Sprintf("rule %d sets no attributes", i+1))
		}
	}
	return &Rules{list: f.Rules}, nil
}

// Len returns the number of rules.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.list)
}

// List returns a copy of the rules in declaration order.
func (r *Rules) List() []Rule {
	if r == nil {
		return nil
	}
	return append([]Rule(nil), r.list...)
}

// IsDisabled reports whether n matches any rule.
func (r *Rules) IsDisabled(n notice.Notice) bool {
	if r == nil {
		return false
	}
	for i := range r.list {
		if r.list[i].Matches(n) {
			return true
		}
	}
	return false
}

// Filter returns the notices that no rule disables, preserving order.
func (r *Rules) Filter(list []notice.Notice) []notice.Notice {
	if r.Len() == 0 {
		return list
	}
	kept := make([]notice.Notice, 0, len(list))
	for _, n := range list {
		if !r.IsDisabled(n) {
			kept = append(kept, n)
		}
	}
	return kept
}

// Matches reports whether every attribute set on the rule is present on
// n with a matching value.
func (rule Rule) Matches(n notice.Notice) bool {
	if rule.Priority != nil && *rule.Priority != n.Priority {
		return false
	}
	if rule.LineNumber != nil && (n.LineNumber == 0 || *rule.LineNumber != n.LineNumber) {
		return false
	}
	exact := [][2]string{
		{rule.Message, n.Message},
		{rule.BookID, n.BookID},
		{rule.C, n.C},
		{rule.V, n.V},
		{rule.RowID, n.RowID},
		{rule.FieldName, n.FieldName},
		{rule.Location, n.Location},
		{rule.Filename, n.Filename},
		{rule.RepoCode, n.RepoCode},
		{rule.RepoName, n.RepoName},
		{rule.Username, n.Username},
		{rule.Extra, n.Extra},
	}
	for _, pair := range exact {
		if pair[0] != "" && pair[0] != pair[1] {
			return false
		}
	}
	if rule.Details != "" && (n.Details == "" || !strings.Contains(n.Details, rule.Details)) {
		return false
	}
	if rule.Excerpt != "" && (n.Excerpt == "" || !strings.Contains(n.Excerpt, rule.Excerpt)) {
		return false
	}
	return true
}

func (rule Rule) empty() bool {
	return rule.Priority == nil && rule.LineNumber == nil &&
		rule.Message == "" && rule.Details == "" && rule.BookID == "" &&
		rule.C == "" && rule.V == "" && rule.RowID == "" && rule.FieldName == "" &&
		rule.Excerpt == "" && rule.Location == "" && rule.Filename == "" &&
		rule.RepoCode == "" && rule.RepoName == "" && rule.Username == "" && rule.Extra == ""
}
