// Package session keeps the operator's console context: the active campaign,
// the visible tab and what is typed into each view's filter fields.
package session

import (
	"context"
	"time"
)

type Tab string

const (
	TabCampaigns  Tab = "campaigns"
	TabSteps      Tab = "steps"
	TabExecutions Tab = "executions"
	TabCustomers  Tab = "customers"
)

func ParseTab(s string) (Tab, bool) {
	switch t := Tab(s); t {
	case TabCampaigns, TabSteps, TabExecutions, TabCustomers:
		return t, true
	}
	return "", false
}

// CampaignScoped reports whether the tab lists rows of a single campaign.
func (t Tab) CampaignScoped() bool {
	return t == TabSteps || t == TabExecutions || t == TabCustomers
}

type CampaignView struct {
	Status   string `json:"status"`
	Keyword  string `json:"keyword"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type StepsView struct {
	CampaignField string `json:"campaign_field"`
}

type ExecutionsView struct {
	CampaignField string `json:"campaign_field"`
	StepField     string `json:"step_field"`
	CustomerField string `json:"customer_field"`
	StatusField   string `json:"status_field"`
}

type CustomersView struct {
	CampaignField string `json:"campaign_field"`
}

// Context is the one piece of shared scope state. ActiveCampaignID changes
// only through a campaign selection or a successful campaign-scoped load.
type Context struct {
	ID               string         `json:"id"`
	ActiveCampaignID int64          `json:"active_campaign_id"`
	ActiveTab        Tab            `json:"active_tab"`
	Campaigns        CampaignView   `json:"campaigns"`
	Steps            StepsView      `json:"steps"`
	Executions       ExecutionsView `json:"executions"`
	Customers        CustomersView  `json:"customers"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func New(id string) *Context {
	return &Context{ID: id, ActiveTab: TabCampaigns, Campaigns: CampaignView{Page: 1}}
}

func (c *Context) Clone() *Context {
	cp := *c
	return &cp
}

// SeedCampaignField writes id into the campaign field of tab.
func (c *Context) SeedCampaignField(tab Tab, field string) {
	switch tab {
	case TabSteps:
		c.Steps.CampaignField = field
	case TabExecutions:
		c.Executions.CampaignField = field
	case TabCustomers:
		c.Customers.CampaignField = field
	}
}

func (c *Context) CampaignField(tab Tab) string {
	switch tab {
	case TabSteps:
		return c.Steps.CampaignField
	case TabExecutions:
		return c.Executions.CampaignField
	case TabCustomers:
		return c.Customers.CampaignField
	}
	return ""
}

// Store persists contexts between console restarts.
type Store interface {
	// Load returns a fresh context when id is unknown.
	Load(ctx context.Context, id string) (*Context, error)
	Save(ctx context.Context, c *Context) error
}
