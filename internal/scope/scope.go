// Package scope resolves which campaign a campaign-scoped view works on and
// composes the list filters and client-side paging of the console views.
package scope

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nimasrn/campaign-console/internal/cache"
	"github.com/nimasrn/campaign-console/internal/model"
)

// ErrNoCampaignScope is returned when neither an explicit id, the view's
// campaign field nor the last active campaign yields an id. Steps,
// executions and customer progress cannot be listed without one.
var ErrNoCampaignScope = errors.New("select a campaign first")

// ResolveCampaignID applies the fallback order explicit, field, lastActive.
// Zero means "not given" for explicit and lastActive.
func ResolveCampaignID(explicit int64, field string, lastActive int64) (int64, error) {
	if explicit > 0 {
		return explicit, nil
	}
	if id, err := ParseOptionalID("campaign_id", field); err != nil {
		return 0, err
	} else if id != nil {
		return *id, nil
	}
	if lastActive > 0 {
		return lastActive, nil
	}
	return 0, ErrNoCampaignScope
}

// ParseOptionalID parses a positive integer from a filter field. Blank text
// is "no value".
func ParseOptionalID(field, text string) (*int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return nil, model.NewValidationError(field, "must be a positive integer, got %q", text)
	}
	return &id, nil
}

// ParseExecutionFilter builds the AND-combined execution filter from the
// view's three text fields.
func ParseExecutionFilter(stepID, customerID, status string) (model.ExecutionFilter, error) {
	var f model.ExecutionFilter
	var err error
	if f.StepID, err = ParseOptionalID("step_id", stepID); err != nil {
		return f, err
	}
	if f.CustomerID, err = ParseOptionalID("customer_id", customerID); err != nil {
		return f, err
	}
	f.Status = strings.TrimSpace(status)
	return f, nil
}

// FilterCampaigns is the client-side keyword tier of the campaign filter: a
// case-insensitive substring match on name, creator or id. It never reloads.
func FilterCampaigns(items []*model.Campaign, keyword string) []*model.Campaign {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return items
	}
	out := make([]*model.Campaign, 0, len(items))
	for _, c := range items {
		if strings.Contains(strings.ToLower(c.Name), keyword) ||
			strings.Contains(strings.ToLower(c.CreatedBy), keyword) ||
			strings.Contains(strconv.FormatInt(c.ID, 10), keyword) {
			out = append(out, c)
		}
	}
	return out
}

/* --------------------------------- scopes --------------------------------- */

func CampaignListScope(status model.CampaignStatus) cache.Scope {
	if status == "" {
		return "status=*"
	}
	return cache.Scope("status=" + string(status))
}

func CampaignScope(campaignID int64) cache.Scope {
	return cache.Scope(fmt.Sprintf("campaign=%d", campaignID))
}

// CampaignOf returns the campaign a campaign or execution scope belongs to.
func CampaignOf(sc cache.Scope) (int64, bool) {
	rest, ok := strings.CutPrefix(string(sc), "campaign=")
	if !ok {
		return 0, false
	}
	rest, _, _ = strings.Cut(rest, "&")
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ExecutionScope includes the filter, so a reload with different filters
// supersedes an in-flight load with the old ones.
func ExecutionScope(campaignID int64, f model.ExecutionFilter) cache.Scope {
	var b strings.Builder
	b.WriteString(string(CampaignScope(campaignID)))
	if f.StepID != nil {
		fmt.Fprintf(&b, "&step=%d", *f.StepID)
	}
	if f.CustomerID != nil {
		fmt.Fprintf(&b, "&customer=%d", *f.CustomerID)
	}
	if f.Status != "" {
		b.WriteString("&status=" + f.Status)
	}
	return cache.Scope(b.String())
}
