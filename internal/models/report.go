package models

import "time"

// OutcomeStatus is the terminal state of one URL
type OutcomeStatus string

const (
	OutcomeOK     OutcomeStatus = "ok"
	OutcomeFailed OutcomeStatus = "failed"
)

// URLOutcome is either a populated classification or a typed failure
type URLOutcome struct {
	Index    int             `json:"index"`
	URL      string          `json:"url"`
	Status   OutcomeStatus   `json:"status"`
	Reason   FailureReason   `json:"reason,omitempty"`
	Error    string          `json:"error,omitempty"`
	Degraded []FailureReason `json:"degraded,omitempty"`
	Score    float64         `json:"score"`
	Verdict  Verdict         `json:"verdict,omitempty"`
	Genre    string          `json:"genre,omitempty"`
	Origin   SiteOrigin      `json:"origin,omitempty"`

	// Rule matcher judgment
	MatchMode MatchMode `json:"match_mode,omitempty"`
	Match     string    `json:"match,omitempty"`

	Duration time.Duration `json:"duration"`
}

// BatchReport collects the outcomes of one run
type BatchReport struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at" badgerhold:"index"`
	FinishedAt time.Time     `json:"finished_at"`
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Outcomes   []*URLOutcome `json:"outcomes"`
}

// Add appends an outcome and updates the counters
func (r *BatchReport) Add(o *URLOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Status == OutcomeOK {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

// VerdictCounts tallies successful outcomes per verdict
func (r *BatchReport) VerdictCounts() map[Verdict]int {
	counts := make(map[Verdict]int)
	for _, o := range r.Outcomes {
		if o.Status == OutcomeOK {
			counts[o.Verdict]++
		}
	}
	return counts
}
