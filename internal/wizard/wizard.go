// Package wizard is the linear multi-screen flow that assembles a campaign
// before it is created or updated.
package wizard

import (
	"errors"
	"strings"
	"time"

	"github.com/nimasrn/campaign-console/internal/model"
)

type Screen int

const (
	ScreenBasics Screen = iota
	ScreenAudience
	ScreenSchedule
	ScreenReview
)

const NumScreens = 4

var screenNames = [NumScreens]string{"basics", "audience", "schedule", "review"}

func (s Screen) String() string {
	if s < 0 || int(s) >= NumScreens {
		return "unknown"
	}
	return screenNames[s]
}

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

var (
	ErrNotOnReviewScreen = errors.New("finish the remaining screens before submitting")
	ErrNotEditable       = errors.New("only DRAFT or SCHEDULED campaigns can be edited")
	ErrNoChanges         = errors.New("nothing to update")
)

// Wizard is not safe for concurrent use; the console serialises access.
type Wizard struct {
	mode       Mode
	campaignID int64
	screen     Screen
	form       Form
	original   Form
}

func NewCreate() *Wizard {
	w := &Wizard{mode: ModeCreate}
	w.Reset()
	return w
}

// NewEdit opens the wizard prefilled with c. Only fields that differ from
// the prefill are sent on submit.
func NewEdit(c *model.Campaign) (*Wizard, error) {
	if !c.CanEdit() {
		return nil, ErrNotEditable
	}
	f := FormFromCampaign(c)
	return &Wizard{mode: ModeEdit, campaignID: c.ID, form: f, original: f}, nil
}

func (w *Wizard) Mode() Mode        { return w.mode }
func (w *Wizard) CampaignID() int64 { return w.campaignID }
func (w *Wizard) Screen() Screen    { return w.screen }
func (w *Wizard) Form() Form        { return w.form }
func (w *Wizard) IsFinal() bool     { return w.screen == NumScreens-1 }

func (w *Wizard) SetForm(f Form) {
	w.form = f
}

func (w *Wizard) Next() Screen {
	if w.screen < NumScreens-1 {
		w.screen++
	}
	return w.screen
}

func (w *Wizard) Prev() Screen {
	if w.screen > 0 {
		w.screen--
	}
	return w.screen
}

// Reset returns to the first screen with an empty create form.
func (w *Wizard) Reset() {
	w.mode = ModeCreate
	w.campaignID = 0
	w.screen = ScreenBasics
	w.form = Form{Channel: string(model.ChannelMixed)}
	w.original = Form{}
}

// Ready reports whether the flow may be submitted from where it is.
func (w *Wizard) Ready() error {
	if !w.IsFinal() {
		return ErrNotOnReviewScreen
	}
	return nil
}

// Build validates the form and returns the request payload. Validation
// fails fast on the first bad field and nothing is sent on failure.
func (w *Wizard) Build(now time.Time) (model.CampaignPayload, error) {
	if w.mode == ModeEdit {
		return buildEdit(w.original, w.form, now)
	}
	return buildCreate(w.form, now)
}

// buildCreate sends every field, empty ones included: the server has no
// record to merge against.
func buildCreate(f Form, now time.Time) (model.CampaignPayload, error) {
	var p model.CampaignPayload
	name, err := requireName(f.Name, true)
	if err != nil {
		return p, err
	}
	channel, err := parseChannel(f.Channel)
	if err != nil {
		return p, err
	}
	ids, err := ParseIDs("customer_ids", f.CustomerIDs)
	if err != nil {
		return p, err
	}
	rules, err := model.ParseKVMap("filter_rules", f.FilterRules)
	if err != nil {
		return p, err
	}
	schedule, err := scheduleField(f, now)
	if err != nil {
		return p, err
	}

	p.Name = model.Some(name)
	p.Channel = model.Some(channel)
	p.CreatedBy = model.Some(strings.TrimSpace(f.CreatedBy))
	p.CustomerIDs = model.Some(ids)
	p.FilterRules = model.Some(rules)
	p.RunImmediately = model.Some(f.RunImmediately)
	p.ScheduleTime = model.Some(schedule)
	return p, nil
}

// buildEdit sends only what changed against the prefill. Clearing a field
// is a change and is sent as null or [].
func buildEdit(orig, f Form, now time.Time) (model.CampaignPayload, error) {
	var p model.CampaignPayload

	if changed(orig.Name, f.Name) {
		name, err := requireName(f.Name, true)
		if err != nil {
			return p, err
		}
		p.Name = model.Some(name)
	}
	if changed(orig.Channel, f.Channel) {
		channel, err := parseChannel(f.Channel)
		if err != nil {
			return p, err
		}
		p.Channel = model.Some(channel)
	}
	if changed(orig.CreatedBy, f.CreatedBy) {
		p.CreatedBy = model.Some(strings.TrimSpace(f.CreatedBy))
	}
	if changed(orig.CustomerIDs, f.CustomerIDs) {
		ids, err := ParseIDs("customer_ids", f.CustomerIDs)
		if err != nil {
			return p, err
		}
		p.CustomerIDs = model.Some(ids)
	}
	if changed(orig.FilterRules, f.FilterRules) {
		rules, err := model.ParseKVMap("filter_rules", f.FilterRules)
		if err != nil {
			return p, err
		}
		p.FilterRules = model.Some(rules)
	}

	// run mode and schedule travel together so the pair stays consistent
	runChanged := orig.RunImmediately != f.RunImmediately
	scheduleChanged := changed(orig.ScheduleTime, f.ScheduleTime)
	if runChanged || (scheduleChanged && !f.RunImmediately) {
		schedule, err := scheduleField(f, now)
		if err != nil {
			return p, err
		}
		p.RunImmediately = model.Some(f.RunImmediately)
		p.ScheduleTime = model.Some(schedule)
	}

	if p.IsEmpty() {
		return p, ErrNoChanges
	}
	return p, nil
}

func requireName(name string, required bool) (string, error) {
	name = strings.TrimSpace(name)
	if required && name == "" {
		return "", model.NewValidationError("name", "name is required")
	}
	return name, nil
}

func changed(before, after string) bool {
	return strings.TrimSpace(before) != strings.TrimSpace(after)
}

// State is the wizard as shown to the front end.
type State struct {
	Mode       Mode   `json:"mode"`
	CampaignID int64  `json:"campaign_id,omitempty"`
	Screen     int    `json:"screen"`
	ScreenName string `json:"screen_name"`
	Screens    int    `json:"screens"`
	IsFinal    bool   `json:"is_final"`
	Form       Form   `json:"form"`
}

func (w *Wizard) State() State {
	return State{
		Mode:       w.mode,
		CampaignID: w.campaignID,
		Screen:     int(w.screen),
		ScreenName: w.screen.String(),
		Screens:    NumScreens,
		IsFinal:    w.IsFinal(),
		Form:       w.form,
	}
}
