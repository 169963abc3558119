package wizard

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/nimasrn/campaign-console/internal/model"
)

// Form is the draft campaign as typed by the operator. Everything that is
// free text on screen stays text here and is parsed only by Build.
type Form struct {
	Name           string `json:"name"`
	Channel        string `json:"channel"`
	CreatedBy      string `json:"created_by"`
	CustomerIDs    string `json:"customer_ids"`
	FilterRules    string `json:"filter_rules"`
	RunImmediately bool   `json:"run_immediately"`
	ScheduleTime   string `json:"schedule_time"`
}

// FormFromCampaign prefills a form for editing c.
func FormFromCampaign(c *model.Campaign) Form {
	f := Form{
		Name:           c.Name,
		Channel:        string(c.Channel),
		CreatedBy:      c.CreatedBy,
		CustomerIDs:    FormatIDs(c.CustomerIDs),
		RunImmediately: c.RunImmediately,
	}
	if c.FilterRules.Len() > 0 {
		if b, err := c.FilterRules.MarshalJSON(); err == nil {
			f.FilterRules = string(b)
		}
	}
	if c.ScheduleTime != nil && !c.RunImmediately {
		f.ScheduleTime = c.ScheduleTime.Format(time.RFC3339)
	}
	return f
}

var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseSchedule accepts RFC3339 or a minute-precision local time. Times
// without an offset are read in loc.
func ParseSchedule(text string, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, model.NewValidationError("schedule_time", "invalid timestamp %q, use YYYY-MM-DD HH:MM or RFC3339", text)
}

// ParseIDs reads customer ids separated by commas, whitespace or newlines.
// Duplicates are dropped, first occurrence wins.
func ParseIDs(field, text string) ([]int64, error) {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	ids := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, model.NewValidationError(field, "%q is not a positive integer", p)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func FormatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func parseChannel(text string) (model.Channel, error) {
	if strings.TrimSpace(text) == "" {
		return "", model.NewValidationError("channel", "channel is required")
	}
	ch, err := model.ParseChannel(text)
	if err != nil {
		return "", model.NewValidationError("channel", "must be one of MIXED, EMAIL, WHATSAPP, SMS")
	}
	return ch, nil
}

// scheduleField returns the schedule to send: nil when running immediately
// or left blank, otherwise a time that must lie after now.
func scheduleField(f Form, now time.Time) (*time.Time, error) {
	if f.RunImmediately || strings.TrimSpace(f.ScheduleTime) == "" {
		return nil, nil
	}
	t, err := ParseSchedule(f.ScheduleTime, now.Location())
	if err != nil {
		return nil, err
	}
	if !t.After(now) {
		return nil, model.NewValidationError("schedule_time", "must be in the future")
	}
	t = t.UTC()
	return &t, nil
}
