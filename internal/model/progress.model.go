package model

import "time"

// CustomerProgress is a read projection of one customer's position in one
// campaign. It is only ever changed through pause and resume.
type CustomerProgress struct {
	CustomerID        int64      `json:"customer_id"`
	Name              string     `json:"name"`
	Email             string     `json:"email,omitempty"`
	WhatsApp          string     `json:"whatsapp,omitempty"`
	Mobile            string     `json:"mobile,omitempty"`
	LastStepID        *int64     `json:"last_step_id,omitempty"`
	LastStepOrder     *int       `json:"last_step_order,omitempty"`
	LastChannel       Channel    `json:"last_channel,omitempty"`
	LastMessageStatus string     `json:"last_message_status,omitempty"`
	LastMessageAt     *time.Time `json:"last_message_at,omitempty"`
	Paused            bool       `json:"paused"`
}

type CustomerAction string

const (
	CustomerActionPause  CustomerAction = "pause"
	CustomerActionResume CustomerAction = "resume"
)

func (p *CustomerProgress) NextAction() CustomerAction {
	if p.Paused {
		return CustomerActionResume
	}
	return CustomerActionPause
}

type ProgressResponse struct {
	CampaignID int64               `json:"campaign_id"`
	Customers  []*CustomerProgress `json:"customers"`
}
