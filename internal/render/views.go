package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/services"
	"github.com/nimasrn/campaign-console/internal/wizard"
)

const timeLayout = "2006-01-02 15:04"

func Campaigns(p services.CampaignPage) string {
	if p.Error != "" {
		return Error(p.Error)
	}
	status := p.Status
	if status == "" {
		status = "all"
	}
	title := fmt.Sprintf("Campaigns  status=%s", status)
	if p.Keyword != "" {
		title += fmt.Sprintf("  keyword=%q", p.Keyword)
	}
	t := NewTable(title, "ID", "NAME", "CHANNEL", "STATUS", "CUSTOMERS", "SENT", "DELIVERED", "ACTIONS")
	for _, c := range p.Page.Items {
		t.AddRow(
			id(c.ID), c.Name, string(c.Channel), string(c.Status),
			count(c.TotalCustomers), count(c.SuccessCount), count(c.DeliveredCount),
			actions(c.AvailableActions()),
		)
	}
	return t.String() + mutedStyle.Render(fmt.Sprintf("page %d/%d  total %d", p.Page.Page, p.Page.Pages, p.Page.Total)) + "\n"
}

func Campaign(c *model.Campaign) string {
	lines := []string{
		"name:      " + c.Name,
		"channel:   " + string(c.Channel),
		"status:    " + string(c.Status),
		"created:   " + c.CreatedBy,
		"customers: " + count(c.TotalCustomers),
		"schedule:  " + when(c.ScheduleTime),
		"actions:   " + actions(c.AvailableActions()),
	}
	if c.FilterRules != nil && c.FilterRules.Len() > 0 {
		lines = append(lines, "filters:   "+strings.Join(c.FilterRules.Keys(), ", "))
	}
	return Panel(fmt.Sprintf("Campaign #%d", c.ID), lines...)
}

func Steps(campaignID int64, steps []*model.Step) string {
	t := NewTable(fmt.Sprintf("Steps  campaign=%d", campaignID), "ID", "ORDER", "CHANNEL", "DELAY", "CONTENT", "SUBJECT")
	for _, s := range steps {
		t.AddRow(id(s.ID), strconv.Itoa(s.OrderNo), string(s.Channel), fmt.Sprintf("%dd", s.DelayDays), string(s.ContentSource()), s.Subject)
	}
	return t.String()
}

func Executions(campaignID int64, executions []*model.Execution) string {
	t := NewTable(fmt.Sprintf("Executions  campaign=%d", campaignID), "ID", "STEP", "CUSTOMER", "CHANNEL", "STATUS", "MESSAGE", "UPDATED")
	for _, e := range executions {
		t.AddRow(id(e.ID), id(e.StepID), id(e.CustomerID), string(e.Channel), e.Status, e.MessageID, when(e.UpdatedAt))
	}
	return t.String()
}

func Progress(campaignID int64, rows []*model.CustomerProgress) string {
	t := NewTable(fmt.Sprintf("Customers  campaign=%d", campaignID), "ID", "NAME", "LAST STEP", "CHANNEL", "STATUS", "AT", "STATE")
	for _, p := range rows {
		step := "-"
		if p.LastStepOrder != nil {
			step = strconv.Itoa(*p.LastStepOrder)
		}
		state := "active"
		if p.Paused {
			state = "paused"
		}
		t.AddRow(id(p.CustomerID), p.Name, step, string(p.LastChannel), p.LastMessageStatus, when(p.LastMessageAt), state)
	}
	return t.String()
}

func Notices(items []services.Notice) string {
	var sb strings.Builder
	for _, n := range items {
		switch n.Level {
		case services.NoticeError:
			sb.WriteString(Error(n.Text))
		case services.NoticeSuccess:
			sb.WriteString(Success(n.Text))
		default:
			sb.WriteString(n.Text)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func Journal(records []*model.ActionRecord) string {
	t := NewTable("Journal", "AT", "ACTION", "CAMPAIGN", "CUSTOMER", "OUTCOME", "DETAIL")
	for _, r := range records {
		t.AddRow(r.CreatedAt.Format(timeLayout), r.Action, optID(r.CampaignID), optID(r.CustomerID), string(r.Outcome), r.Detail)
	}
	return t.String()
}

// Wizard shows the current screen and the whole form; the review screen is
// the only one that can be submitted.
func Wizard(st wizard.State) string {
	title := "New campaign"
	if st.CampaignID != 0 {
		title = fmt.Sprintf("Edit campaign #%d", st.CampaignID)
	}
	f := st.Form
	lines := []string{
		mutedStyle.Render(fmt.Sprintf("screen %d/%d: %s", st.Screen+1, st.Screens, st.ScreenName)),
		"name:            " + f.Name,
		"channel:         " + f.Channel,
		"created by:      " + f.CreatedBy,
		"customer ids:    " + f.CustomerIDs,
		"filter rules:    " + f.FilterRules,
		"run immediately: " + strconv.FormatBool(f.RunImmediately),
		"schedule time:   " + f.ScheduleTime,
	}
	if st.IsFinal {
		lines = append(lines, Success("ready to submit"))
	}
	return Panel(title, lines...)
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func optID(v *int64) string {
	if v == nil {
		return "-"
	}
	return id(*v)
}

func count(v int64) string {
	return strconv.FormatInt(v, 10)
}

func when(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func actions(a []model.CampaignAction) string {
	out := make([]string, len(a))
	for i := range a {
		out[i] = string(a[i])
	}
	return strings.Join(out, " ")
}
