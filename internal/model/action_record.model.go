package model

import "time"

type ActionOutcome string

const (
	OutcomeSucceeded ActionOutcome = "succeeded"
	OutcomeFailed    ActionOutcome = "failed"
	OutcomeRejected  ActionOutcome = "rejected"
)

// ActionRecord is one journal entry for an operator action.
type ActionRecord struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"session_id"`
	Action     string        `json:"action"`
	CampaignID *int64        `json:"campaign_id,omitempty"`
	CustomerID *int64        `json:"customer_id,omitempty"`
	Outcome    ActionOutcome `json:"outcome"`
	Detail     string        `json:"detail,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ActionRecordFilter controls journal List queries.
type ActionRecordFilter struct {
	CampaignID *int64
	Action     string
	Limit      int // default 50
	Offset     int
}
