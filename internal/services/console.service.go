package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nimasrn/campaign-console/internal/cache"
	"github.com/nimasrn/campaign-console/internal/gateway"
	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/scope"
	"github.com/nimasrn/campaign-console/internal/session"
	"github.com/nimasrn/campaign-console/internal/wizard"
	"github.com/nimasrn/campaign-console/pkg/logger"
)

// CampaignAPI is the remote campaign API as seen by the console.
type CampaignAPI interface {
	ListCampaigns(ctx context.Context, filter model.CampaignFilter) ([]*model.Campaign, error)
	CreateCampaign(ctx context.Context, payload model.CampaignPayload) (*model.Campaign, error)
	UpdateCampaign(ctx context.Context, id int64, payload model.CampaignPayload) (*model.Campaign, error)
	StartCampaign(ctx context.Context, id int64) (*model.Campaign, error)
	StopCampaign(ctx context.Context, id int64) (*model.Campaign, error)
	DeleteCampaign(ctx context.Context, id int64) (string, error)

	ListSteps(ctx context.Context, campaignID int64) ([]*model.Step, error)
	CreateStep(ctx context.Context, campaignID int64, payload model.StepPayload) (*model.Step, error)
	UpdateStep(ctx context.Context, stepID int64, payload model.StepPayload) (*model.Step, error)
	DeleteStep(ctx context.Context, stepID int64) error

	ListExecutions(ctx context.Context, campaignID int64, filter model.ExecutionFilter) ([]*model.Execution, error)
	CreateExecution(ctx context.Context, campaignID int64, payload model.ExecutionPayload) (*model.Execution, error)
	UpdateExecution(ctx context.Context, executionID int64, payload model.ExecutionPayload) (*model.Execution, error)
	DeleteExecution(ctx context.Context, executionID int64) error

	CustomerProgress(ctx context.Context, campaignID int64) ([]*model.CustomerProgress, error)
	PauseCustomer(ctx context.Context, campaignID, customerID int64) error
	ResumeCustomer(ctx context.Context, campaignID, customerID int64) error
}

type ConsoleConfig struct {
	SessionID string
	Journal   Journal
	Guard     ActionGuard
	Now       func() time.Time
}

// ConsoleService owns the console state: the four entity caches, the
// session context and the wizard. It is safe for concurrent use.
type ConsoleService struct {
	api      CampaignAPI
	sessions session.Store
	journal  Journal
	guard    ActionGuard
	notices  *Notices
	now      func() time.Time

	campaigns  *cache.Cache[*model.Campaign]
	steps      *cache.Cache[*model.Step]
	executions *cache.Cache[*model.Execution]
	progress   *cache.Cache[*model.CustomerProgress]

	mu   sync.Mutex
	sess *session.Context

	wizMu  sync.Mutex
	wizard *wizard.Wizard
}

func NewConsoleService(api CampaignAPI, sessions session.Store, config ConsoleConfig) *ConsoleService {
	if config.SessionID == "" {
		config.SessionID = "default"
	}
	if config.Journal == nil {
		config.Journal = noopJournal{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &ConsoleService{
		api:        api,
		sessions:   sessions,
		journal:    config.Journal,
		guard:      config.Guard,
		notices:    NewNotices(50),
		now:        config.Now,
		campaigns:  cache.New[*model.Campaign]("campaigns"),
		steps:      cache.New[*model.Step]("steps"),
		executions: cache.New[*model.Execution]("executions"),
		progress:   cache.New[*model.CustomerProgress]("customers"),
		sess:       session.New(config.SessionID),
	}
}

// Open restores the persisted session context.
func (s *ConsoleService) Open(ctx context.Context) error {
	s.mu.Lock()
	id := s.sess.ID
	s.mu.Unlock()

	restored, err := s.sessions.Load(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sess = restored
	s.mu.Unlock()
	logger.Info("console session opened", "session_id", id, "active_campaign_id", restored.ActiveCampaignID, "tab", restored.ActiveTab)
	return nil
}

func (s *ConsoleService) Session() session.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.sess
}

func (s *ConsoleService) Notices() []Notice {
	return s.notices.Drain()
}

func (s *ConsoleService) Journal(ctx context.Context, f model.ActionRecordFilter) ([]*model.ActionRecord, int64, error) {
	return s.journal.List(ctx, f)
}

// persist saves a copy of the session. Failures are logged only.
func (s *ConsoleService) persist(ctx context.Context) {
	s.mu.Lock()
	snapshot := s.sess.Clone()
	s.mu.Unlock()
	if err := s.sessions.Save(ctx, snapshot); err != nil {
		logger.Warn("failed to persist console session", "session_id", snapshot.ID, "error", err)
	}
}

/* -------------------------------- campaigns -------------------------------- */

// CampaignQuery changes the campaign view. Nil fields keep their current
// value; a zero Page keeps the current page.
type CampaignQuery struct {
	Status   *string
	Keyword  *string
	Page     int
	PageSize int
	Refresh  bool
}

type CampaignPage struct {
	Status   string                      `json:"status"`
	Keyword  string                      `json:"keyword"`
	Error    string                      `json:"error,omitempty"`
	Kind     string                      `json:"kind,omitempty"`
	LoadedAt time.Time                   `json:"loaded_at"`
	Page     scope.Page[*model.Campaign] `json:"page"`
}

// ListCampaigns applies the two filter tiers. A status change reloads from
// the server; a keyword change filters the loaded rows. Changing either
// resets the page to 1.
func (s *ConsoleService) ListCampaigns(ctx context.Context, q CampaignQuery) (CampaignPage, error) {
	s.mu.Lock()
	view := s.sess.Campaigns
	s.mu.Unlock()

	status := view.Status
	if q.Status != nil {
		st, err := model.ParseStatus(*q.Status)
		if err != nil {
			return CampaignPage{}, model.NewValidationError("status", "%v", err)
		}
		status = string(st)
	}
	keyword := view.Keyword
	if q.Keyword != nil {
		keyword = *q.Keyword
	}

	page := view.Page
	if q.Page > 0 {
		page = q.Page
	}
	if status != view.Status || keyword != view.Keyword {
		page = 1
	}
	pageSize := view.PageSize
	if q.PageSize > 0 {
		pageSize = q.PageSize
	}

	listScope := scope.CampaignListScope(model.CampaignStatus(status))
	snap := s.campaigns.Snapshot()
	var loadErr error
	if q.Refresh || !snap.Loaded || snap.Scope != listScope {
		snap, loadErr = s.loadCampaigns(ctx, model.CampaignStatus(status))
	}

	s.mu.Lock()
	s.sess.Campaigns = session.CampaignView{Status: status, Keyword: keyword, Page: page, PageSize: pageSize}
	s.sess.ActiveTab = session.TabCampaigns
	s.mu.Unlock()
	s.persist(ctx)

	out := CampaignPage{
		Status:   status,
		Keyword:  keyword,
		LoadedAt: snap.LoadedAt,
		Page:     scope.Paginate(scope.FilterCampaigns(snap.Items, keyword), page, pageSize),
	}
	if snap.Err != nil {
		out.Error = snap.ErrText()
		out.Kind = ErrorKind(snap.Err)
	}
	return out, loadErr
}

func (s *ConsoleService) loadCampaigns(ctx context.Context, status model.CampaignStatus) (cache.Snapshot[*model.Campaign], error) {
	return cache.Load(ctx, s.campaigns, scope.CampaignListScope(status), func(ctx context.Context) ([]*model.Campaign, error) {
		return s.api.ListCampaigns(ctx, model.CampaignFilter{Status: status})
	})
}

// ReloadCampaigns refetches the campaign list with the current status filter.
func (s *ConsoleService) ReloadCampaigns(ctx context.Context) error {
	s.mu.Lock()
	status := s.sess.Campaigns.Status
	s.mu.Unlock()
	_, err := s.loadCampaigns(ctx, model.CampaignStatus(status))
	if err != nil {
		logger.Warn("campaign reload failed", "error", err)
	}
	return err
}

func (s *ConsoleService) CampaignsSnapshot() cache.Snapshot[*model.Campaign] {
	return s.campaigns.Snapshot()
}

func (s *ConsoleService) cachedCampaign(id int64) (*model.Campaign, bool) {
	return s.campaigns.Find(func(c *model.Campaign) bool { return c.ID == id })
}

// AvailableActions lists what the loaded row for id offers.
func (s *ConsoleService) AvailableActions(id int64) ([]model.CampaignAction, error) {
	c, ok := s.cachedCampaign(id)
	if !ok {
		return nil, ErrCampaignNotLoaded
	}
	return c.AvailableActions(), nil
}

/* ------------------------------ scope switch ------------------------------ */

// Select makes campaignID the active campaign and shows tab for it. The
// scope switch and the retarget of the tab's cache happen under one lock, so
// rows of the previous campaign are never visible under the new tab.
func (s *ConsoleService) Select(ctx context.Context, campaignID int64, tab session.Tab) error {
	if campaignID <= 0 {
		return model.NewValidationError("campaign_id", "must be a positive integer")
	}
	if !tab.CampaignScoped() {
		return model.NewValidationError("view", "must be steps, executions or customers")
	}

	field := strconv.FormatInt(campaignID, 10)

	s.mu.Lock()
	s.sess.ActiveCampaignID = campaignID
	s.sess.SeedCampaignField(tab, field)
	if tab == session.TabExecutions {
		s.sess.Executions = session.ExecutionsView{CampaignField: field}
	}
	s.sess.ActiveTab = tab
	var load func(context.Context) error
	switch tab {
	case session.TabSteps:
		ticket := s.steps.Begin(scope.CampaignScope(campaignID))
		load = func(ctx context.Context) error { return s.fetchSteps(ctx, ticket, campaignID) }
	case session.TabExecutions:
		ticket := s.executions.Begin(scope.ExecutionScope(campaignID, model.ExecutionFilter{}))
		load = func(ctx context.Context) error {
			return s.fetchExecutions(ctx, ticket, campaignID, model.ExecutionFilter{})
		}
	case session.TabCustomers:
		ticket := s.progress.Begin(scope.CampaignScope(campaignID))
		load = func(ctx context.Context) error { return s.fetchProgress(ctx, ticket, campaignID) }
	}
	s.mu.Unlock()

	err := load(ctx)
	s.persist(ctx)
	return err
}

// resolve picks the campaign for a campaign-scoped view. A typed field is
// kept only once it parses.
func (s *ConsoleService) resolve(explicit int64, tab session.Tab, field *string) (int64, error) {
	if field != nil {
		if _, err := scope.ParseOptionalID("campaign_id", *field); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if field != nil {
		s.sess.SeedCampaignField(tab, *field)
	}
	return scope.ResolveCampaignID(explicit, s.sess.CampaignField(tab), s.sess.ActiveCampaignID)
}

// markLoaded records a successful campaign-scoped load as the active scope.
func (s *ConsoleService) markLoaded(campaignID int64, tab session.Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.ActiveCampaignID = campaignID
	s.sess.ActiveTab = tab
}

/* ---------------------------------- steps ---------------------------------- */

// ListSteps loads the steps of the campaign resolved from field, falling
// back to the active campaign.
func (s *ConsoleService) ListSteps(ctx context.Context, field *string) (cache.Snapshot[*model.Step], error) {
	id, err := s.resolve(0, session.TabSteps, field)
	if err != nil {
		return s.steps.Snapshot(), err
	}
	err = s.LoadSteps(ctx, id)
	s.persist(ctx)
	return s.steps.Snapshot(), err
}

func (s *ConsoleService) LoadSteps(ctx context.Context, campaignID int64) error {
	ticket := s.steps.Begin(scope.CampaignScope(campaignID))
	return s.fetchSteps(ctx, ticket, campaignID)
}

func (s *ConsoleService) fetchSteps(ctx context.Context, t cache.Ticket, campaignID int64) error {
	items, err := s.api.ListSteps(ctx, campaignID)
	if err != nil {
		s.steps.Fail(t, err)
		return err
	}
	if s.steps.Commit(t, items) {
		s.markLoaded(campaignID, session.TabSteps)
	}
	return nil
}

func (s *ConsoleService) StepsSnapshot() cache.Snapshot[*model.Step] {
	return s.steps.Snapshot()
}

/* -------------------------------- executions -------------------------------- */

// ExecutionQuery carries the execution view's text fields. Nil keeps the
// current value.
type ExecutionQuery struct {
	CampaignField *string
	StepField     *string
	CustomerField *string
	StatusField   *string
}

func (s *ConsoleService) ListExecutions(ctx context.Context, q ExecutionQuery) (cache.Snapshot[*model.Execution], error) {
	s.mu.Lock()
	view := s.sess.Executions
	s.mu.Unlock()

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&view.StepField, q.StepField)
	set(&view.CustomerField, q.CustomerField)
	set(&view.StatusField, q.StatusField)

	filter, err := scope.ParseExecutionFilter(view.StepField, view.CustomerField, view.StatusField)
	if err != nil {
		return s.executions.Snapshot(), err
	}
	id, err := s.resolve(0, session.TabExecutions, q.CampaignField)
	if err != nil {
		return s.executions.Snapshot(), err
	}

	s.mu.Lock()
	view.CampaignField = s.sess.Executions.CampaignField
	s.sess.Executions = view
	s.mu.Unlock()

	err = s.LoadExecutions(ctx, id, filter)
	s.persist(ctx)
	return s.executions.Snapshot(), err
}

func (s *ConsoleService) LoadExecutions(ctx context.Context, campaignID int64, filter model.ExecutionFilter) error {
	ticket := s.executions.Begin(scope.ExecutionScope(campaignID, filter))
	return s.fetchExecutions(ctx, ticket, campaignID, filter)
}

func (s *ConsoleService) fetchExecutions(ctx context.Context, t cache.Ticket, campaignID int64, filter model.ExecutionFilter) error {
	items, err := s.api.ListExecutions(ctx, campaignID, filter)
	if err != nil {
		s.executions.Fail(t, err)
		return err
	}
	// keep only rows that satisfy every filter even if the server ignored one
	kept := make([]*model.Execution, 0, len(items))
	for _, e := range items {
		if (e.CampaignID == 0 || e.CampaignID == campaignID) && filter.Matches(e) {
			kept = append(kept, e)
		}
	}
	if s.executions.Commit(t, kept) {
		s.markLoaded(campaignID, session.TabExecutions)
	}
	return nil
}

func (s *ConsoleService) reloadExecutions(ctx context.Context, campaignID int64) {
	s.mu.Lock()
	view := s.sess.Executions
	s.mu.Unlock()
	filter, err := scope.ParseExecutionFilter(view.StepField, view.CustomerField, view.StatusField)
	if err != nil {
		filter = model.ExecutionFilter{}
	}
	if err := s.LoadExecutions(ctx, campaignID, filter); err != nil {
		logger.Warn("execution reload failed", "campaign_id", campaignID, "error", err)
	}
}

func (s *ConsoleService) ExecutionsSnapshot() cache.Snapshot[*model.Execution] {
	return s.executions.Snapshot()
}

/* --------------------------------- progress --------------------------------- */

func (s *ConsoleService) ListProgress(ctx context.Context, field *string) (cache.Snapshot[*model.CustomerProgress], error) {
	id, err := s.resolve(0, session.TabCustomers, field)
	if err != nil {
		return s.progress.Snapshot(), err
	}
	err = s.LoadProgress(ctx, id)
	s.persist(ctx)
	return s.progress.Snapshot(), err
}

func (s *ConsoleService) LoadProgress(ctx context.Context, campaignID int64) error {
	ticket := s.progress.Begin(scope.CampaignScope(campaignID))
	return s.fetchProgress(ctx, ticket, campaignID)
}

func (s *ConsoleService) fetchProgress(ctx context.Context, t cache.Ticket, campaignID int64) error {
	items, err := s.api.CustomerProgress(ctx, campaignID)
	if err != nil {
		s.progress.Fail(t, err)
		return err
	}
	if s.progress.Commit(t, items) {
		s.markLoaded(campaignID, session.TabCustomers)
	}
	return nil
}

func (s *ConsoleService) ProgressSnapshot() cache.Snapshot[*model.CustomerProgress] {
	return s.progress.Snapshot()
}

/* ---------------------------------- helpers --------------------------------- */

// fail reports a failed action: a notice, a journal row and the metric.
// Caches are left as they are.
func (s *ConsoleService) fail(action string, campaignID, customerID *int64, err error) error {
	kind := ErrorKind(err)
	text := fmt.Sprintf("%s failed: %s", action, err.Error())
	if errors.Is(err, gateway.ErrUnauthorized) {
		text = gateway.ErrUnauthorized.Error()
	}
	s.notices.Push(NoticeError, kind, text)

	outcome := model.OutcomeFailed
	if kind == KindValidation || kind == KindConflict {
		outcome = model.OutcomeRejected
	}
	s.record(action, campaignID, customerID, outcome, err.Error())
	return err
}

func (s *ConsoleService) succeed(action string, campaignID, customerID *int64, text string) {
	s.notices.Push(NoticeSuccess, "", text)
	s.record(action, campaignID, customerID, model.OutcomeSucceeded, text)
}

func (s *ConsoleService) record(action string, campaignID, customerID *int64, outcome model.ActionOutcome, detail string) {
	observeAction(action, outcome)
	s.mu.Lock()
	sessionID := s.sess.ID
	s.mu.Unlock()
	s.journal.Record(model.ActionRecord{
		SessionID:  sessionID,
		Action:     action,
		CampaignID: campaignID,
		CustomerID: customerID,
		Outcome:    outcome,
		Detail:     detail,
		CreatedAt:  s.now().UTC(),
	})
}

func ptr[T any](v T) *T {
	return &v
}
