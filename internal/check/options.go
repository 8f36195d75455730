// Package check implements the content checkers. Every checker returns a
// *notice.Result and never a Go error: fetch failures, parse failures and
// malformed input all degrade to notices.
package check

import (
	"github.com/FocuswithJustin/tcvalidate/core/disabled"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/core/text"
	"github.com/FocuswithJustin/tcvalidate/internal/cache"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
	"github.com/FocuswithJustin/tcvalidate/internal/usfm"
)

// DefaultExcerptLength is the excerpt window used when Options leaves it unset.
const DefaultExcerptLength = 10

// Options are the recognized checking options. The zero value checks with
// defaults and no fetching capability, which behaves like
// DisableAllLinkFetching.
type Options struct {
	ExcerptLength       int
	CutoffPriorityLevel int

	DisableAllLinkFetching           bool
	DisableLinkedTAArticlesCheck     bool
	DisableLinkedTWArticlesCheck     bool
	DisableLexiconLinkFetching       bool
	DisableLinkedLexiconEntriesCheck bool
	SuppressNoticeDisabling          bool

	TARepoUsername     string
	TARepoBranch       string
	TARepoLanguageCode string
	TARepoSectionName  string
	TWRepoUsername     string
	TWRepoBranch       string

	OriginalLanguageRepoUsername string
	OriginalLanguageRepoBranch   string
	// OriginalLanguageVerseText, when set, is used instead of fetching
	// the original-language verse.
	OriginalLanguageVerseText string
	// DefaultLanguageCode replaces "*" in rc:// links when resolving them.
	DefaultLanguageCode string
	// ExpectFullLink makes SupportReferenceInTA require a full
	// rc://*/ta/man/translate/ link rather than a bare article name.
	ExpectFullLink bool

	Fetcher fetch.Fetcher
	Web     fetch.WebFetcher
	Checked *cache.Checked
	Rules   *disabled.Rules
	Grammar usfm.Grammar
}

var defaultChecked = cache.NewChecked(0)

// DefaultChecked returns the process-wide "already checked" set used when
// Options.Checked is nil.
func DefaultChecked() *cache.Checked {
	return defaultChecked
}

func (o Options) window() text.Window {
	n := o.ExcerptLength
	if n <= 0 {
		n = DefaultExcerptLength
	}
	return text.NewWindow(n)
}

func (o Options) wants(priority int) bool {
	return o.CutoffPriorityLevel < priority
}

// fetching reports whether linked content may be fetched at all.
func (o Options) fetching() bool {
	return !o.DisableAllLinkFetching && o.Fetcher != nil
}

func (o Options) checked() *cache.Checked {
	if o.Checked != nil {
		return o.Checked
	}
	return defaultChecked
}

func (o Options) rules() *disabled.Rules {
	if o.Rules != nil {
		return o.Rules
	}
	return disabled.Default()
}

func (o Options) grammar() usfm.Grammar {
	if o.Grammar != nil {
		return o.Grammar
	}
	return usfm.Validator{}
}

// filter applies the notice-disabling rules unless suppressed.
func (o Options) filter(r *notice.Result) {
	if o.SuppressNoticeDisabling {
		return
	}
	r.NoticeList = o.rules().Filter(r.NoticeList)
}

// spaced returns loc with a leading space, as locations are appended to
// descriptive phrases.
func spaced(loc string) string {
	if loc != "" && loc[0] != ' ' {
		return " " + loc
	}
	return loc
}
