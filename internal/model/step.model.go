package model

import "time"

type Step struct {
	ID               int64      `json:"id"`
	CampaignID       int64      `json:"campaign_id"`
	OrderNo          int        `json:"order_no"`
	Channel          Channel    `json:"channel"`
	DelayDays        int        `json:"delay_days"`
	FilterRules      *KVMap     `json:"filter_rules,omitempty"`
	TemplateID       *int64     `json:"template_id,omitempty"`
	Subject          string     `json:"subject,omitempty"`
	Body             string     `json:"body,omitempty"`
	ContentSID       string     `json:"content_sid,omitempty"`
	ContentVariables *KVMap     `json:"content_variables,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// ContentSource describes where a step's message content comes from.
type ContentSource string

const (
	ContentNone     ContentSource = "none"
	ContentTemplate ContentSource = "template"
	ContentInline   ContentSource = "inline"
	ContentExternal ContentSource = "external"
	ContentMixed    ContentSource = "mixed"
)

// ContentSource is informational; the server expects exactly one source but
// the console does not reject mixed steps.
func (s *Step) ContentSource() ContentSource {
	var found []ContentSource
	if s.TemplateID != nil {
		found = append(found, ContentTemplate)
	}
	if s.Subject != "" || s.Body != "" {
		found = append(found, ContentInline)
	}
	if s.ContentSID != "" {
		found = append(found, ContentExternal)
	}
	switch len(found) {
	case 0:
		return ContentNone
	case 1:
		return found[0]
	default:
		return ContentMixed
	}
}

type StepListResponse struct {
	Steps []*Step `json:"steps"`
}
