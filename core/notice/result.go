package notice

import "slices"

// Result is the stable result shape produced by every check.
type Result struct {
	SuccessList []string `json:"successList"`
	NoticeList  []Notice `json:"noticeList"`

	CheckedFileCount          int      `json:"checkedFileCount,omitempty"`
	CheckedFilenames          []string `json:"checkedFilenames,omitempty"`
	CheckedFilenameExtensions []string `json:"checkedFilenameExtensions,omitempty"`
	CheckedFilesizes          int      `json:"checkedFilesizes,omitempty"`
	CheckedRepoNames          []string `json:"checkedRepoNames,omitempty"`
	ElapsedSeconds            float64  `json:"elapsedSeconds,omitempty"`

	// Suggestion is an advisory corrected field or row, set only when it
	// differs from the checked input.
	Suggestion string `json:"suggestion,omitempty"`
}

// NewResult returns an empty result with non-nil lists.
func NewResult() *Result {
	return &Result{SuccessList: []string{}, NoticeList: []Notice{}}
}

// Add appends notices.
func (r *Result) Add(notices ...Notice) {
	r.NoticeList = append(r.NoticeList, notices...)
}

// AddSuccess appends a success message.
func (r *Result) AddSuccess(msg string) {
	r.SuccessList = append(r.SuccessList, msg)
}

// Len returns the number of notices.
func (r *Result) Len() int {
	return len(r.NoticeList)
}

// Filter keeps only the notices for which keep returns true.
func (r *Result) Filter(keep func(Notice) bool) {
	kept := r.NoticeList[:0]
	for _, n := range r.NoticeList {
		if keep(n) {
			kept = append(kept, n)
		}
	}
	r.NoticeList = kept
}

// AddFilename records a checked file name.
func (r *Result) AddFilename(name string) {
	r.CheckedFilenames = append(r.CheckedFilenames, name)
}

// AddFilenameExtension records a checked extension once.
func (r *Result) AddFilenameExtension(ext string) {
	if ext != "" && !slices.Contains(r.CheckedFilenameExtensions, ext) {
		r.CheckedFilenameExtensions = append(r.CheckedFilenameExtensions, ext)
	}
}

// AddRepoName records a checked repository name once.
func (r *Result) AddRepoName(name string) {
	if name != "" && !slices.Contains(r.CheckedRepoNames, name) {
		r.CheckedRepoNames = append(r.CheckedRepoNames, name)
	}
}

// MergeChecked folds the checked* aggregates of other into r.
// Notices and successes are not copied.
func (r *Result) MergeChecked(other *Result) {
	if other == nil {
		return
	}
	r.CheckedFileCount += other.CheckedFileCount
	r.CheckedFilenames = append(r.CheckedFilenames, other.CheckedFilenames...)
	r.CheckedFilesizes += other.CheckedFilesizes
	for _, ext := range other.CheckedFilenameExtensions {
		r.AddFilenameExtension(ext)
	}
	for _, name := range other.CheckedRepoNames {
		r.AddRepoName(name)
	}
}

// Merge folds notices, successes and checked aggregates of other into r.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.NoticeList = append(r.NoticeList, other.NoticeList...)
	r.SuccessList = append(r.SuccessList, other.SuccessList...)
	r.MergeChecked(other)
}

// Priorities returns the priorities of all notices, in order.
func (r *Result) Priorities() []int {
	out := make([]int, len(r.NoticeList))
	for i, n := range r.NoticeList {
		out[i] = n.Priority
	}
	return out
}
