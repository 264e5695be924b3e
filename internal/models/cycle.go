package models

import "time"

// CycleSummary aggregates the outcome of one batch cycle.
type CycleSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	ActiveSettings  int `json:"active_settings"`
	OnboardedUsers  int `json:"onboarded_users"`
	CloneCandidates int `json:"clone_candidates"`
	ClonesSucceeded int `json:"clones_succeeded"`
	ClonesCollided  int `json:"clones_collided"`
	ClonesFailed    int `json:"clones_failed"`
	RecordsAppended int `json:"records_appended"`
	EventsEmitted   int `json:"events_emitted"`
}
