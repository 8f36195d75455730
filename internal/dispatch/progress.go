package dispatch

// Event reports orchestration progress.
type Event struct {
	Kind    string `json:"kind"` // "repo" or "book-package"
	Target  string `json:"target"`
	Message string `json:"message"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
}

// Progress receives orchestration events. A nil Progress is valid.
type Progress func(Event)

func (p Progress) report(e Event) {
	if p != nil {
		p(e)
	}
}
