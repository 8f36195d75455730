package notice

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"sort"
	"strings"
)

// SortOrder selects the ordering of processed notices.
type SortOrder string

const (
	AsFound    SortOrder = "AsFound"
	ByPriority SortOrder = "ByPriority"
	ByRandom   SortOrder = "ByRandom"
)

// Default processing thresholds.
const (
	DefaultMaximumSimilarMessages = 3
	DefaultErrorPriorityLevel     = 700
	DefaultSeverePriorityLevel    = 800
	DefaultMediumPriorityLevel    = 600
)

// ProcessOptions controls legacy notice processing. A zero
// MaximumSimilarMessages disables suppression of similar notices.
type ProcessOptions struct {
	MaximumSimilarMessages int
	CutoffPriorityLevel    int
	IgnorePriorities       []int
	SortBy                 SortOrder
	ErrorPriorityLevel     int
	SeverePriorityLevel    int
	MediumPriorityLevel    int
	CheckType              string
}

// DefaultProcessOptions returns the standard processing thresholds.
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{
		MaximumSimilarMessages: DefaultMaximumSimilarMessages,
		SortBy:                 AsFound,
		ErrorPriorityLevel:     DefaultErrorPriorityLevel,
		SeverePriorityLevel:    DefaultSeverePriorityLevel,
		MediumPriorityLevel:    DefaultMediumPriorityLevel,
	}
}

// Processed is the display-oriented form of a Result.
type Processed struct {
	SuccessList []string `json:"successList"`

	ErrorList   []Notice `json:"errorList,omitempty"`
	WarningList []Notice `json:"warningList,omitempty"`
	SevereList  []Notice `json:"severeList,omitempty"`
	MediumList  []Notice `json:"mediumList,omitempty"`
	LowList     []Notice `json:"lowList,omitempty"`

	NumIgnoredNotices     int `json:"numIgnoredNotices"`
	NumSuppressedErrors   int `json:"numSuppressedErrors,omitempty"`
	NumSuppressedWarnings int `json:"numSuppressedWarnings,omitempty"`
	NumSevereSuppressed   int `json:"numSevereSuppressed,omitempty"`
	NumMediumSuppressed   int `json:"numMediumSuppressed,omitempty"`
	NumLowSuppressed      int `json:"numLowSuppressed,omitempty"`

	CheckedFileCount int      `json:"checkedFileCount,omitempty"`
	CheckedFilenames []string `json:"checkedFilenames,omitempty"`
	CheckedRepoNames []string `json:"checkedRepoNames,omitempty"`
	ElapsedSeconds   float64  `json:"elapsedSeconds,omitempty"`
}

var (
	bibleSuccessRegex = regexp.MustCompile(`\d\d-(\w\w\w)\.usfm`)
	notesSuccessRegex = regexp.MustCompile(`\d\d-(\w\w\w)\.tsv`)
)

// processCommon applies ignore, cutoff and sorting, condenses long
// success lists and returns the remaining notices.
func processCommon(r *Result, opts ProcessOptions) ([]Notice, *Processed) {
	p := &Processed{
		CheckedFileCount: r.CheckedFileCount,
		CheckedFilenames: r.CheckedFilenames,
		CheckedRepoNames: r.CheckedRepoNames,
		ElapsedSeconds:   r.ElapsedSeconds,
	}
	p.SuccessList = condenseSuccesses(r.SuccessList)
	if len(p.CheckedFilenames) > 10 {
		p.CheckedFilenames = unique(p.CheckedFilenames)
	}

	notices := make([]Notice, 0, len(r.NoticeList)+1)
	notices = append(notices, r.NoticeList...)
	for _, n := range r.NoticeList {
		if strings.Contains(n.Message, `\s5`) {
			notices = append(notices, Notice{
				Priority: 701,
				BookID:   n.BookID,
				Message:  `\s5 fields should be coded as \ts\* milestones`,
				Location: " in " + opts.CheckType,
				Extra:    n.Extra,
			})
			break
		}
	}

	remaining := notices[:0:0]
	for _, n := range notices {
		switch {
		case containsInt(opts.IgnorePriorities, n.Priority):
			p.NumIgnoredNotices++
		case opts.CutoffPriorityLevel > 0 && n.Priority < opts.CutoffPriorityLevel:
			p.NumSuppressedWarnings++
		default:
			remaining = append(remaining, n)
		}
	}

	switch opts.SortBy {
	case ByPriority:
		sort.SliceStable(remaining, func(i, j int) bool { return remaining[i].Priority > remaining[j].Priority })
	case ByRandom:
		rand.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })
	}

	// Notices from linked resources carry their origin in Extra; fold it
	// into the message for display.
	for i, n := range remaining {
		if n.Extra != "" {
			remaining[i].Message = n.Extra + " " + n.Message
			remaining[i].Extra = ""
		}
	}
	return remaining, p
}

func condenseSuccesses(list []string) []string {
	if len(list) < 5 {
		return append([]string{}, list...)
	}
	var out, bookList, notesList []string
	for _, msg := range list {
		if m := bibleSuccessRegex.FindStringSubmatch(msg); m != nil && strings.HasPrefix(msg, "Checked "+m[1]+" file") {
			bookList = append(bookList, m[1])
		} else if m := notesSuccessRegex.FindStringSubmatch(msg); m != nil && strings.HasPrefix(msg, "Checked "+m[1]+" file") {
			notesList = append(notesList, m[1])
		} else {
			out = append(out, msg)
		}
	}
	if len(bookList) > 0 {
		out = append([]string{fmt.Sprintf("Checked %d USFM Bible files: %s", len(bookList), strings.Join(bookList, ", "))}, out...)
	} else if len(notesList) > 0 {
		out = append([]string{fmt.Sprintf("Checked %d TSV notes files: %s", len(notesList), strings.Join(notesList, ", "))}, out...)
	}
	return out
}

// similarCounter tracks how many times a priority and message pair was seen.
type similarCounter struct {
	limit  int
	totals map[string]int
	seen   map[string]int
}

func newSimilarCounter(limit int, notices []Notice) *similarCounter {
	c := &similarCounter{limit: limit, totals: map[string]int{}, seen: map[string]int{}}
	for _, n := range notices {
		c.totals[similarKey(n)]++
	}
	return c
}

func similarKey(n Notice) string {
	return fmt.Sprintf("%d%s", n.Priority, n.Message)
}

// next reports whether the notice should be kept, and when it is the first
// one over the limit, returns the suppression marker to show instead.
func (c *similarCounter) next(n Notice, noun string) (keep bool, marker *Notice) {
	key := similarKey(n)
	c.seen[key]++
	if c.limit <= 0 || c.seen[key] <= c.limit {
		return true, nil
	}
	if c.seen[key] == c.limit+1 {
		suppressed := c.totals[key] - c.limit
		plural := "S"
		if suppressed == 1 {
			plural = ""
		}
		return false, &Notice{
			Priority: -1,
			Message:  n.Message,
			Location: fmt.Sprintf(" ◄ %d MORE SIMILAR %s%s SUPPRESSED", suppressed, noun, plural),
		}
	}
	return false, nil
}

// ToErrorsWarnings splits notices at ErrorPriorityLevel.
func ToErrorsWarnings(r *Result, opts ProcessOptions) *Processed {
	if opts.ErrorPriorityLevel == 0 {
		opts.ErrorPriorityLevel = DefaultErrorPriorityLevel
	}
	remaining, p := processCommon(r, opts)
	p.ErrorList, p.WarningList = []Notice{}, []Notice{}
	counter := newSimilarCounter(opts.MaximumSimilarMessages, remaining)
	for _, n := range remaining {
		isError := n.Priority >= opts.ErrorPriorityLevel
		noun := "WARNING"
		if isError {
			noun = "ERROR"
		}
		keep, marker := counter.next(n, noun)
		if !keep {
			if isError {
				p.NumSuppressedErrors++
			} else {
				p.NumSuppressedWarnings++
			}
		}
		if marker != nil {
			n = *marker
		} else if !keep {
			continue
		}
		if isError {
			p.ErrorList = append(p.ErrorList, n)
		} else {
			p.WarningList = append(p.WarningList, n)
		}
	}
	return p
}

// ToSevereMediumLow splits notices into three bands.
func ToSevereMediumLow(r *Result, opts ProcessOptions) *Processed {
	if opts.SeverePriorityLevel == 0 {
		opts.SeverePriorityLevel = DefaultSeverePriorityLevel
	}
	if opts.MediumPriorityLevel == 0 {
		opts.MediumPriorityLevel = DefaultMediumPriorityLevel
	}
	remaining, p := processCommon(r, opts)
	p.SevereList, p.MediumList, p.LowList = []Notice{}, []Notice{}, []Notice{}
	counter := newSimilarCounter(opts.MaximumSimilarMessages, remaining)
	for _, n := range remaining {
		var list *[]Notice
		var suppressed *int
		noun := "ERROR"
		switch {
		case n.Priority >= opts.SeverePriorityLevel:
			list, suppressed = &p.SevereList, &p.NumSevereSuppressed
		case n.Priority >= opts.MediumPriorityLevel:
			list, suppressed = &p.MediumList, &p.NumMediumSuppressed
		default:
			list, suppressed = &p.LowList, &p.NumLowSuppressed
			noun = "WARNING"
		}
		keep, marker := counter.next(n, noun)
		if !keep {
			*suppressed++
		}
		if marker != nil {
			*list = append(*list, *marker)
		} else if keep {
			*list = append(*list, n)
		}
	}
	return p
}

// ToSingleList keeps one list, sorted by priority unless told otherwise.
func ToSingleList(r *Result, opts ProcessOptions) *Processed {
	if opts.SortBy == "" {
		opts.SortBy = ByPriority
	}
	remaining, p := processCommon(r, opts)
	p.WarningList = []Notice{}
	counter := newSimilarCounter(opts.MaximumSimilarMessages, remaining)
	for _, n := range remaining {
		keep, marker := counter.next(n, "WARNING")
		if !keep {
			p.NumSuppressedWarnings++
		}
		if marker != nil {
			marker.Priority = n.Priority
			p.WarningList = append(p.WarningList, *marker)
		} else if keep {
			p.WarningList = append(p.WarningList, n)
		}
	}
	return p
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func unique(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
