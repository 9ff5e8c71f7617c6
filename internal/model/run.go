package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records a single pipeline execution for the history store.
type Run struct {
	ID         string     `json:"id"`
	Vertical   string     `json:"vertical"`
	Region     string     `json:"region"`
	MaxResults int        `json:"max_results"`
	Status     RunStatus  `json:"status"`
	Result     *RunResult `json:"result,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	LeadsDiscovered  int            `json:"leads_discovered"`
	DuplicatesMerged int            `json:"duplicates_merged"`
	LeadsExported    int            `json:"leads_exported"`
	TierCounts       map[string]int `json:"tier_counts,omitempty"`
	ExportPath       string         `json:"export_path,omitempty"`
	ReportPath       string         `json:"report_path,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// QuotaState is the persisted usage record for one provider.
type QuotaState struct {
	Provider  string `json:"provider"`
	Counter   int    `json:"counter"`
	Window    string `json:"window"` // "daily" or "monthly"
	LastReset string `json:"last_reset"`
	Limit     int    `json:"limit"`
}
