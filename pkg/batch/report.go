package batch

import (
	"time"
)

// Status is the outcome of one plan item.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome is what happened to one item.
type Outcome struct {
	RunID    string
	Item     Item
	Status   Status
	Files    []string
	Err      error
	Duration time.Duration
	Time     time.Time
}

// Failure identifies an item that failed or was skipped.
type Failure struct {
	Index  int    `json:"index"`
	Stem   string `json:"stem"`
	Coords string `json:"coords"`
	Status Status `json:"status"`
	Error  string `json:"error"`
}

// Report summarizes a run.
type Report struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Artifacts int           `json:"artifacts"`
	Failures  []Failure     `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Done returns the number of items processed so far.
func (r *Report) Done() int {
	return r.Succeeded + r.Failed + r.Skipped
}

func (r *Report) add(o Outcome) {
	switch o.Status {
	case StatusSucceeded:
		r.Succeeded++
		r.Artifacts += len(o.Files)
		return
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
	msg := ""
	if o.Err != nil {
		msg = o.Err.Error()
	}
	r.Failures = append(r.Failures, Failure{
		Index:  o.Item.Index,
		Stem:   o.Item.Stem,
		Coords: o.Item.String(),
		Status: o.Status,
		Error:  msg,
	})
}

// Progress is reported after every item.
type Progress struct {
	RunID   string
	Done    int
	Total   int
	Outcome Outcome
}
