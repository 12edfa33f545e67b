package domain

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// ScrapeRun records one scraping pass over a listing endpoint. LastCursor
// is the most recent next-page URL, kept so an aborted run can be resumed
// without re-fetching every earlier page.
type ScrapeRun struct {
	ID              uuid.UUID  `json:"id"`
	AssetType       AssetType  `json:"asset_type"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at"`
	Status          RunStatus  `json:"status"`
	LastCursor      string     `json:"last_cursor"`
	PagesFetched    int        `json:"pages_fetched"`
	EntriesIngested int        `json:"entries_ingested"`
	EntriesSkipped  int        `json:"entries_skipped"`
	Error           string     `json:"error,omitempty"`
}
