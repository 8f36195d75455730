// Package rclink parses resource container links such as
// rc://*/ta/man/translate/figs-metaphor and rc://*/tw/dict/bible/kt/god.
package rclink

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Prefixes of the link kinds that have dedicated checks.
const (
	TAPrefix = "rc://*/ta/man/"
	TWPrefix = "rc://*/tw/dict/bible/"
	// TATranslatePrefix is required on SupportReference fields of 7-column notes.
	TATranslatePrefix = "rc://*/ta/man/translate/"
)

// Link is a parsed rc:// link.
type Link struct {
	Language string   // "*" or a language code
	Resource string   // e.g. "ta", "tw", "tn", "obs"
	Kind     string   // e.g. "man", "dict", "help"
	Path     []string // remaining segments
	Raw      string
}

//nolint:govet // participle grammar tags are not standard struct tags
type linkGrammar struct {
	Language string   `Scheme @( Star | Segment )`
	Resource string   `Slash @Segment`
	Kind     string   `Slash @Segment`
	Path     []string `( Slash @Segment )*`
}

var linkLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Scheme", Pattern: `rc://`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Slash", Pattern: `/`},
	{Name: "Segment", Pattern: `[^/\s\[\]()*]+`},
})

var linkParser = participle.MustBuild[linkGrammar](
	participle.Lexer(linkLexer),
)

// Parse parses a single rc:// link.
func Parse(s string) (*Link, error) {
	if !strings.HasPrefix(s, "rc://") {
		return nil, fmt.Errorf("not a resource container link: %q", s)
	}
	parsed, err := linkParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid resource container link %q: %w", s, err)
	}
	return &Link{
		Language: parsed.Language,
		Resource: parsed.Resource,
		Kind:     parsed.Kind,
		Path:     parsed.Path,
		Raw:      s,
	}, nil
}

// IsWildcard reports whether the language segment is "*".
func (l *Link) IsWildcard() bool {
	return l.Language == "*"
}

// IsTA reports a Translation Academy article link.
func (l *Link) IsTA() bool {
	return l.Resource == "ta" && l.Kind == "man" && len(l.Path) == 2
}

// IsTW reports a Translation Words article link.
func (l *Link) IsTW() bool {
	return l.Resource == "tw" && l.Kind == "dict" && len(l.Path) == 3 && l.Path[0] == "bible"
}

// IsTNHelp reports a Translation Notes help link (rc://*/tn/help/gen/01/02).
func (l *Link) IsTNHelp() bool {
	return l.Resource == "tn" && l.Kind == "help" && len(l.Path) == 3
}

// TAFilepath returns the article path inside a TA repo, e.g.
// "translate/figs-metaphor/01.md".
func (l *Link) TAFilepath() string {
	if !l.IsTA() {
		return ""
	}
	return l.Path[0] + "/" + l.Path[1] + "/01.md"
}

// TWFilepath returns the article path inside a TW repo, e.g. "bible/kt/god.md".
func (l *Link) TWFilepath() string {
	if !l.IsTW() {
		return ""
	}
	return "bible/" + l.Path[1] + "/" + strings.TrimSpace(l.Path[2]) + ".md"
}

// RepoName returns the repository holding the target, using defaultLanguage
// for wildcard links.
func (l *Link) RepoName(defaultLanguage string) string {
	lang := l.Language
	if lang == "" || lang == "*" {
		lang = defaultLanguage
	}
	return lang + "_" + l.Resource
}

// String returns the original link.
func (l *Link) String() string {
	if l.Raw != "" {
		return l.Raw
	}
	return "rc://" + l.Language + "/" + l.Resource + "/" + l.Kind + "/" + strings.Join(l.Path, "/")
}
