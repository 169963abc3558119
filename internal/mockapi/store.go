// Package mockapi is an in-memory stand-in for the remote campaign API, used
// for local development and end-to-end tests of the console.
package mockapi

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nimasrn/campaign-console/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// detailError carries the text served in the "detail" field.
type detailError struct {
	kind   error
	detail string
}

func (e *detailError) Error() string { return e.detail }
func (e *detailError) Unwrap() error { return e.kind }

func notFound(format string, args ...any) error {
	return &detailError{kind: ErrNotFound, detail: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &detailError{kind: ErrConflict, detail: fmt.Sprintf(format, args...)}
}

// Store holds the campaign data. Every method returns copies so callers can
// never mutate stored rows.
type Store struct {
	mu         sync.Mutex
	seq        int64
	campaigns  map[int64]*model.Campaign
	steps      map[int64]*model.Step
	executions map[int64]*model.Execution
	progress   map[int64]map[int64]*model.CustomerProgress
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		campaigns:  make(map[int64]*model.Campaign),
		steps:      make(map[int64]*model.Step),
		executions: make(map[int64]*model.Execution),
		progress:   make(map[int64]map[int64]*model.CustomerProgress),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func clone[T any](v *T) *T {
	cp := *v
	return &cp
}

func (s *Store) stamp() *time.Time {
	t := s.now()
	return &t
}

/* --------------------------------- campaigns -------------------------------- */

func (s *Store) ListCampaigns(status model.CampaignStatus) []*model.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		if status == "" || c.Status == status {
			out = append(out, clone(c))
		}
	}
	slices.SortFunc(out, func(a, b *model.Campaign) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

// CreateCampaign stores a new campaign. It starts RUNNING when run
// immediately, SCHEDULED with a schedule time and DRAFT otherwise. Every
// listed customer gets a progress row.
func (s *Store) CreateCampaign(p model.CampaignPayload) *model.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &model.Campaign{ID: s.nextID(), Channel: model.ChannelMixed, Status: model.CampaignStatusDraft, CreatedAt: s.stamp()}
	applyCampaign(c, p)
	switch {
	case c.RunImmediately:
		c.Status = model.CampaignStatusRunning
		c.StartedAt = s.stamp()
	case c.ScheduleTime != nil:
		c.Status = model.CampaignStatusScheduled
	}
	c.UpdatedAt = c.CreatedAt
	s.campaigns[c.ID] = c
	s.syncAudience(c)
	return clone(c)
}

func (s *Store) UpdateCampaign(id int64, p model.CampaignPayload) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil, notFound("Campaign %d not found", id)
	}
	if !c.CanEdit() {
		return nil, conflict("Campaign %d is %s and can no longer be edited", id, c.Status)
	}
	applyCampaign(c, p)
	if c.Status == model.CampaignStatusDraft && c.ScheduleTime != nil && !c.RunImmediately {
		c.Status = model.CampaignStatusScheduled
	}
	if c.Status == model.CampaignStatusScheduled && c.ScheduleTime == nil {
		c.Status = model.CampaignStatusDraft
	}
	c.UpdatedAt = s.stamp()
	s.syncAudience(c)
	return clone(c), nil
}

func applyCampaign(c *model.Campaign, p model.CampaignPayload) {
	if p.Name.Set {
		c.Name = p.Name.Value
	}
	if p.Channel.Set {
		c.Channel = p.Channel.Value
	}
	if p.CreatedBy.Set {
		c.CreatedBy = p.CreatedBy.Value
	}
	if p.CustomerIDs.Set {
		c.CustomerIDs = slices.Clone(p.CustomerIDs.Value)
	}
	if p.FilterRules.Set {
		c.FilterRules = p.FilterRules.Value
	}
	if p.RunImmediately.Set {
		c.RunImmediately = p.RunImmediately.Value
	}
	if p.ScheduleTime.Set {
		c.ScheduleTime = p.ScheduleTime.Value
	}
}

// syncAudience adds progress rows for new customers of c.
func (s *Store) syncAudience(c *model.Campaign) {
	rows, ok := s.progress[c.ID]
	if !ok {
		rows = make(map[int64]*model.CustomerProgress)
		s.progress[c.ID] = rows
	}
	for _, id := range c.CustomerIDs {
		if _, ok := rows[id]; !ok {
			rows[id] = &model.CustomerProgress{CustomerID: id, Name: fmt.Sprintf("Customer %d", id)}
		}
	}
	c.TotalCustomers = int64(len(rows))
}

func (s *Store) StartCampaign(id int64) (*model.Campaign, error) {
	return s.transition(id, func(c *model.Campaign) error {
		if !c.CanStart() {
			return conflict("Campaign %d is %s and cannot be started", id, c.Status)
		}
		c.Status = model.CampaignStatusRunning
		c.StartedAt = s.stamp()
		return nil
	})
}

func (s *Store) StopCampaign(id int64) (*model.Campaign, error) {
	return s.transition(id, func(c *model.Campaign) error {
		if !c.CanStop() {
			return conflict("Campaign %d is %s and cannot be stopped", id, c.Status)
		}
		c.Status = model.CampaignStatusStopped
		c.CompletedAt = s.stamp()
		return nil
	})
}

// CompleteCampaign finishes a running campaign.
func (s *Store) CompleteCampaign(id int64) (*model.Campaign, error) {
	return s.transition(id, func(c *model.Campaign) error {
		if c.Status != model.CampaignStatusRunning {
			return conflict("Campaign %d is %s and cannot be completed", id, c.Status)
		}
		c.Status = model.CampaignStatusCompleted
		c.CompletedAt = s.stamp()
		return nil
	})
}

func (s *Store) transition(id int64, fn func(c *model.Campaign) error) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, notFound("Campaign %d not found", id)
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.stamp()
	return clone(c), nil
}

func (s *Store) DeleteCampaign(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return notFound("Campaign %d not found", id)
	}
	if !c.CanDelete() {
		return conflict("Campaign %d is running, stop it first", id)
	}
	delete(s.campaigns, id)
	delete(s.progress, id)
	for sid, st := range s.steps {
		if st.CampaignID == id {
			delete(s.steps, sid)
		}
	}
	for eid, e := range s.executions {
		if e.CampaignID == id {
			delete(s.executions, eid)
		}
	}
	return nil
}

func (s *Store) campaign(id int64) (*model.Campaign, error) {
	c, ok := s.campaigns[id]
	if !ok {
		return nil, notFound("Campaign %d not found", id)
	}
	return c, nil
}

/* ----------------------------------- steps ---------------------------------- */

func (s *Store) ListSteps(campaignID int64) ([]*model.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.campaign(campaignID); err != nil {
		return nil, err
	}
	out := make([]*model.Step, 0)
	for _, st := range s.steps {
		if st.CampaignID == campaignID {
			out = append(out, clone(st))
		}
	}
	slices.SortFunc(out, func(a, b *model.Step) int { return cmp.Compare(a.OrderNo, b.OrderNo) })
	return out, nil
}

func (s *Store) CreateStep(campaignID int64, p model.StepPayload) (*model.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.campaign(campaignID); err != nil {
		return nil, err
	}
	st := &model.Step{CampaignID: campaignID, Channel: model.ChannelMixed}
	applyStep(st, p)
	if err := s.checkOrder(st); err != nil {
		return nil, err
	}
	st.ID = s.nextID()
	st.CreatedAt = s.stamp()
	st.UpdatedAt = st.CreatedAt
	s.steps[st.ID] = st
	return clone(st), nil
}

func (s *Store) UpdateStep(stepID int64, p model.StepPayload) (*model.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.steps[stepID]
	if !ok {
		return nil, notFound("Step %d not found", stepID)
	}
	next := clone(st)
	applyStep(next, p)
	if err := s.checkOrder(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.stamp()
	s.steps[stepID] = next
	return clone(next), nil
}

func (s *Store) checkOrder(st *model.Step) error {
	for _, other := range s.steps {
		if other.ID != st.ID && other.CampaignID == st.CampaignID && other.OrderNo == st.OrderNo {
			return conflict("order_no %d already exists in campaign %d", st.OrderNo, st.CampaignID)
		}
	}
	return nil
}

func applyStep(st *model.Step, p model.StepPayload) {
	if p.OrderNo.Set {
		st.OrderNo = p.OrderNo.Value
	}
	if p.Channel.Set {
		st.Channel = p.Channel.Value
	}
	if p.DelayDays.Set {
		st.DelayDays = p.DelayDays.Value
	}
	if p.FilterRules.Set {
		st.FilterRules = p.FilterRules.Value
	}
	if p.TemplateID.Set {
		st.TemplateID = p.TemplateID.Value
	}
	if p.Subject.Set {
		st.Subject = p.Subject.Value
	}
	if p.Body.Set {
		st.Body = p.Body.Value
	}
	if p.ContentSID.Set {
		st.ContentSID = p.ContentSID.Value
	}
	if p.ContentVariables.Set {
		st.ContentVariables = p.ContentVariables.Value
	}
}

func (s *Store) DeleteStep(stepID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[stepID]; !ok {
		return notFound("Step %d not found", stepID)
	}
	delete(s.steps, stepID)
	return nil
}

/* -------------------------------- executions -------------------------------- */

func (s *Store) ListExecutions(campaignID int64, f model.ExecutionFilter) ([]*model.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.campaign(campaignID); err != nil {
		return nil, err
	}
	out := make([]*model.Execution, 0)
	for _, e := range s.executions {
		if e.CampaignID == campaignID && f.Matches(e) {
			out = append(out, clone(e))
		}
	}
	slices.SortFunc(out, func(a, b *model.Execution) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// CreateExecution records a send of step to a customer and updates that
// customer's progress row.
func (s *Store) CreateExecution(campaignID int64, p model.ExecutionPayload) (*model.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.campaign(campaignID); err != nil {
		return nil, err
	}
	st, ok := s.steps[p.StepID.Value]
	if !ok || st.CampaignID != campaignID {
		return nil, notFound("Step %d not found in campaign %d", p.StepID.Value, campaignID)
	}

	e := &model.Execution{
		ID:         s.nextID(),
		CampaignID: campaignID,
		StepID:     st.ID,
		CustomerID: p.CustomerID.Value,
		Channel:    st.Channel,
		Status:     "PENDING",
		CreatedAt:  s.stamp(),
	}
	applyExecution(e, p)
	e.UpdatedAt = e.CreatedAt
	s.executions[e.ID] = e
	s.track(e, st)
	return clone(e), nil
}

func (s *Store) UpdateExecution(executionID int64, p model.ExecutionPayload) (*model.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.executions[executionID]
	if !ok {
		return nil, notFound("Execution %d not found", executionID)
	}
	applyExecution(e, p)
	e.UpdatedAt = s.stamp()
	if st, ok := s.steps[e.StepID]; ok {
		s.track(e, st)
	}
	return clone(e), nil
}

func applyExecution(e *model.Execution, p model.ExecutionPayload) {
	if p.StepID.Set {
		e.StepID = p.StepID.Value
	}
	if p.CustomerID.Set {
		e.CustomerID = p.CustomerID.Value
	}
	if p.Channel.Set {
		e.Channel = p.Channel.Value
	}
	if p.Status.Set {
		e.Status = p.Status.Value
	}
	if p.MessageID.Set {
		e.MessageID = p.MessageID.Value
	}
	if p.Note.Set {
		e.Note = p.Note.Value
	}
}

func (s *Store) track(e *model.Execution, st *model.Step) {
	rows, ok := s.progress[e.CampaignID]
	if !ok {
		rows = make(map[int64]*model.CustomerProgress)
		s.progress[e.CampaignID] = rows
	}
	row, ok := rows[e.CustomerID]
	if !ok {
		row = &model.CustomerProgress{CustomerID: e.CustomerID, Name: fmt.Sprintf("Customer %d", e.CustomerID)}
		rows[e.CustomerID] = row
	}
	stepID, order := st.ID, st.OrderNo
	row.LastStepID = &stepID
	row.LastStepOrder = &order
	row.LastChannel = e.Channel
	row.LastMessageStatus = e.Status
	row.LastMessageAt = e.UpdatedAt
}

func (s *Store) DeleteExecution(executionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.executions[executionID]; !ok {
		return notFound("Execution %d not found", executionID)
	}
	delete(s.executions, executionID)
	return nil
}

/* --------------------------------- progress --------------------------------- */

func (s *Store) Progress(campaignID int64) ([]*model.CustomerProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.campaign(campaignID); err != nil {
		return nil, err
	}
	out := make([]*model.CustomerProgress, 0, len(s.progress[campaignID]))
	for _, p := range s.progress[campaignID] {
		out = append(out, clone(p))
	}
	slices.SortFunc(out, func(a, b *model.CustomerProgress) int { return cmp.Compare(a.CustomerID, b.CustomerID) })
	return out, nil
}

func (s *Store) SetPaused(campaignID, customerID int64, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.campaign(campaignID); err != nil {
		return err
	}
	row, ok := s.progress[campaignID][customerID]
	if !ok {
		return notFound("Customer %d is not part of campaign %d", customerID, campaignID)
	}
	if row.Paused == paused {
		state := "running"
		if paused {
			state = "paused"
		}
		return conflict("Customer %d is already %s", customerID, state)
	}
	row.Paused = paused
	return nil
}
