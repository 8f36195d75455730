package check

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/cache"
	"github.com/FocuswithJustin/tcvalidate/internal/fetch"
)

// offline checks without fetching and without the disabled-notice table.
func offline() Options {
	return Options{DisableAllLinkFetching: true, SuppressNoticeDisabling: true, Checked: cache.NewChecked(0)}
}

// online checks against fixture files.
func online(files map[string]string) Options {
	return Options{SuppressNoticeDisabling: true, Fetcher: fetch.NewMap(files), Checked: cache.NewChecked(0)}
}

func assertHas(t *testing.T, res *notice.Result, priorities ...int) {
	t.Helper()
	got := res.Priorities()
	for _, p := range priorities {
		assert.Contains(t, got, p, "notices: %v", res.NoticeList)
	}
}

func assertLacks(t *testing.T, res *notice.Result, priorities ...int) {
	t.Helper()
	got := res.Priorities()
	for _, p := range priorities {
		assert.NotContains(t, got, p, "notices: %v", res.NoticeList)
	}
}

func find(res *notice.Result, priority int) (notice.Notice, bool) {
	i := slices.IndexFunc(res.NoticeList, func(n notice.Notice) bool { return n.Priority == priority })
	if i < 0 {
		return notice.Notice{}, false
	}
	return res.NoticeList[i], true
}
