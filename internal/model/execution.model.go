package model

import "time"

type Execution struct {
	ID         int64      `json:"id"`
	CampaignID int64      `json:"campaign_id"`
	StepID     int64      `json:"step_id"`
	CustomerID int64      `json:"customer_id"`
	Channel    Channel    `json:"channel"`
	Status     string     `json:"status"`
	MessageID  string     `json:"message_id,omitempty"`
	Note       string     `json:"note,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// ExecutionFilter controls executions list queries. Nil/empty fields are not
// applied; the set fields are combined with AND.
type ExecutionFilter struct {
	StepID     *int64
	CustomerID *int64
	Status     string
}

func (f ExecutionFilter) Matches(e *Execution) bool {
	if f.StepID != nil && e.StepID != *f.StepID {
		return false
	}
	if f.CustomerID != nil && e.CustomerID != *f.CustomerID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}

type ExecutionListResponse struct {
	Executions []*Execution `json:"executions"`
}
