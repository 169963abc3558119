package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Channel is the delivery channel of a campaign or step.
type Channel string

const (
	ChannelMixed    Channel = "MIXED"
	ChannelEmail    Channel = "EMAIL"
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelSMS      Channel = "SMS"
)

var Channels = []Channel{ChannelMixed, ChannelEmail, ChannelWhatsApp, ChannelSMS}

func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Channels {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

func (c *Channel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = Channel(strings.ToUpper(s))
	return nil
}

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusScheduled CampaignStatus = "SCHEDULED"
	CampaignStatusRunning   CampaignStatus = "RUNNING"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusStopped   CampaignStatus = "STOPPED"
)

var CampaignStatuses = []CampaignStatus{
	CampaignStatusDraft,
	CampaignStatusScheduled,
	CampaignStatusRunning,
	CampaignStatusCompleted,
	CampaignStatusStopped,
}

// ParseStatus accepts an empty string as "no status filter".
func ParseStatus(s string) (CampaignStatus, error) {
	st := CampaignStatus(strings.ToUpper(strings.TrimSpace(s)))
	if st == "" {
		return "", nil
	}
	for _, known := range CampaignStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown campaign status %q", s)
}

func (s *CampaignStatus) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = CampaignStatus(strings.ToUpper(v))
	return nil
}

type Campaign struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	Channel        Channel          `json:"channel"`
	Status         CampaignStatus   `json:"status"`
	CreatedBy      string           `json:"created_by"`
	RunImmediately bool             `json:"run_immediately"`
	ScheduleTime   *time.Time       `json:"schedule_time"`
	CustomerIDs    []int64          `json:"customer_ids"`
	FilterRules    *KVMap           `json:"filter_rules"`
	TotalCustomers int64            `json:"total_customers"`
	SuccessCount   int64            `json:"success_count"`
	DeliveredCount int64            `json:"delivered_count"`
	ChannelCounts  map[string]int64 `json:"channel_counts,omitempty"`
	CreatedAt      *time.Time       `json:"created_at,omitempty"`
	UpdatedAt      *time.Time       `json:"updated_at,omitempty"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignStatusCompleted || c.Status == CampaignStatusStopped
}

func (c *Campaign) CanStart() bool {
	return c.Status == CampaignStatusDraft || c.Status == CampaignStatusScheduled
}

func (c *Campaign) CanStop() bool {
	return c.Status == CampaignStatusRunning
}

func (c *Campaign) CanEdit() bool {
	return c.Status == CampaignStatusDraft || c.Status == CampaignStatusScheduled
}

// CanDelete allows every status except RUNNING; a running campaign has to be
// stopped first.
func (c *Campaign) CanDelete() bool {
	return c.Status != CampaignStatusRunning
}

// CampaignAction is an operator action offered on a campaign row.
type CampaignAction string

const (
	ActionEdit       CampaignAction = "edit"
	ActionStart      CampaignAction = "start"
	ActionStop       CampaignAction = "stop"
	ActionDelete     CampaignAction = "delete"
	ActionSteps      CampaignAction = "steps"
	ActionExecutions CampaignAction = "executions"
	ActionCustomers  CampaignAction = "customers"
)

// AvailableActions lists what the row offers in its current status.
// Navigation actions are always present.
func (c *Campaign) AvailableActions() []CampaignAction {
	actions := make([]CampaignAction, 0, 7)
	if c.CanEdit() {
		actions = append(actions, ActionEdit)
	}
	if c.CanStart() {
		actions = append(actions, ActionStart)
	}
	if c.CanStop() {
		actions = append(actions, ActionStop)
	}
	if c.CanDelete() {
		actions = append(actions, ActionDelete)
	}
	return append(actions, ActionSteps, ActionExecutions, ActionCustomers)
}

// Allows reports whether action is currently offered.
func (c *Campaign) Allows(action CampaignAction) bool {
	for _, a := range c.AvailableActions() {
		if a == action {
			return true
		}
	}
	return false
}

// CampaignFilter is the server-side part of the campaign list filter.
type CampaignFilter struct {
	Status CampaignStatus
}

type CampaignListResponse struct {
	Campaigns []*Campaign `json:"campaigns"`
}
