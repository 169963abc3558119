package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nimasrn/campaign-console/internal/gateway"
	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/scope"
	"github.com/nimasrn/campaign-console/internal/session"
	"github.com/nimasrn/campaign-console/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCampaignAPI struct {
	mock.Mock
}

func (m *MockCampaignAPI) ListCampaigns(ctx context.Context, f model.CampaignFilter) ([]*model.Campaign, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Campaign), args.Error(1)
}

func (m *MockCampaignAPI) CreateCampaign(ctx context.Context, p model.CampaignPayload) (*model.Campaign, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockCampaignAPI) UpdateCampaign(ctx context.Context, id int64, p model.CampaignPayload) (*model.Campaign, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockCampaignAPI) StartCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockCampaignAPI) StopCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockCampaignAPI) DeleteCampaign(ctx context.Context, id int64) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockCampaignAPI) ListSteps(ctx context.Context, campaignID int64) ([]*model.Step, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Step), args.Error(1)
}

func (m *MockCampaignAPI) CreateStep(ctx context.Context, campaignID int64, p model.StepPayload) (*model.Step, error) {
	args := m.Called(ctx, campaignID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Step), args.Error(1)
}

func (m *MockCampaignAPI) UpdateStep(ctx context.Context, stepID int64, p model.StepPayload) (*model.Step, error) {
	args := m.Called(ctx, stepID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Step), args.Error(1)
}

func (m *MockCampaignAPI) DeleteStep(ctx context.Context, stepID int64) error {
	return m.Called(ctx, stepID).Error(0)
}

func (m *MockCampaignAPI) ListExecutions(ctx context.Context, campaignID int64, f model.ExecutionFilter) ([]*model.Execution, error) {
	args := m.Called(ctx, campaignID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Execution), args.Error(1)
}

func (m *MockCampaignAPI) CreateExecution(ctx context.Context, campaignID int64, p model.ExecutionPayload) (*model.Execution, error) {
	args := m.Called(ctx, campaignID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Execution), args.Error(1)
}

func (m *MockCampaignAPI) UpdateExecution(ctx context.Context, executionID int64, p model.ExecutionPayload) (*model.Execution, error) {
	args := m.Called(ctx, executionID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Execution), args.Error(1)
}

func (m *MockCampaignAPI) DeleteExecution(ctx context.Context, executionID int64) error {
	return m.Called(ctx, executionID).Error(0)
}

func (m *MockCampaignAPI) CustomerProgress(ctx context.Context, campaignID int64) ([]*model.CustomerProgress, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CustomerProgress), args.Error(1)
}

func (m *MockCampaignAPI) PauseCustomer(ctx context.Context, campaignID, customerID int64) error {
	return m.Called(ctx, campaignID, customerID).Error(0)
}

func (m *MockCampaignAPI) ResumeCustomer(ctx context.Context, campaignID, customerID int64) error {
	return m.Called(ctx, campaignID, customerID).Error(0)
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestConsole(t *testing.T, api *MockCampaignAPI) *ConsoleService {
	t.Helper()
	s := NewConsoleService(api, session.NewMemoryStore(), ConsoleConfig{
		SessionID: "test",
		Now:       func() time.Time { return testNow },
	})
	require.NoError(t, s.Open(context.Background()))
	return s
}

func campaigns() []*model.Campaign {
	return []*model.Campaign{
		{ID: 1, Name: "Spring launch", Status: model.CampaignStatusDraft, CreatedBy: "alice", Channel: model.ChannelEmail},
		{ID: 2, Name: "Summer sale", Status: model.CampaignStatusRunning, CreatedBy: "bob", Channel: model.ChannelSMS},
		{ID: 3, Name: "Winback", Status: model.CampaignStatusCompleted, CreatedBy: "alice", Channel: model.ChannelMixed},
	}
}

func loadCampaigns(t *testing.T, s *ConsoleService, api *MockCampaignAPI) {
	t.Helper()
	api.On("ListCampaigns", mock.Anything, model.CampaignFilter{}).Return(campaigns(), nil)
	_, err := s.ListCampaigns(context.Background(), CampaignQuery{})
	require.NoError(t, err)
}

func lastNotice(t *testing.T, s *ConsoleService) Notice {
	t.Helper()
	notices := s.Notices()
	require.NotEmpty(t, notices)
	return notices[len(notices)-1]
}

func TestConsole_KeywordFilterDoesNotReload(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	loadCampaigns(t, s, api)

	kw := "ALICE"
	page, err := s.ListCampaigns(context.Background(), CampaignQuery{Keyword: &kw})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page.Total)
	assert.Equal(t, 1, page.Page.Page)

	api.AssertNumberOfCalls(t, "ListCampaigns", 1)
}

func TestConsole_StatusFilterReloadsAndResetsPage(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	loadCampaigns(t, s, api)

	_, err := s.ListCampaigns(context.Background(), CampaignQuery{Page: 3})
	require.NoError(t, err)

	running := []*model.Campaign{campaigns()[1]}
	api.On("ListCampaigns", mock.Anything, model.CampaignFilter{Status: model.CampaignStatusRunning}).Return(running, nil)

	status := "running"
	page, err := s.ListCampaigns(context.Background(), CampaignQuery{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", page.Status)
	assert.Equal(t, 1, page.Page.Page)
	assert.Equal(t, 1, page.Page.Total)
	assert.Equal(t, 1, s.Session().Campaigns.Page)
	api.AssertNumberOfCalls(t, "ListCampaigns", 2)
}

func TestConsole_InvalidStatusIsValidation(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	status := "paused"
	_, err := s.ListCampaigns(context.Background(), CampaignQuery{Status: &status})
	assert.Equal(t, KindValidation, ErrorKind(err))
	api.AssertNotCalled(t, "ListCampaigns", mock.Anything, mock.Anything)
}

func TestConsole_FailedCampaignLoadShowsErrorOnly(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	loadCampaigns(t, s, api)

	boom := &gateway.APIError{Op: "load campaigns", StatusCode: 500, Detail: "failed to load campaigns"}
	api.ExpectedCalls = nil
	api.On("ListCampaigns", mock.Anything, model.CampaignFilter{}).Return(nil, boom)

	page, err := s.ListCampaigns(context.Background(), CampaignQuery{Refresh: true})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, page.Page.Items)
	assert.Equal(t, "failed to load campaigns", page.Error)
	assert.Equal(t, KindHTTP, page.Kind)
}

func TestConsole_CampaignScopedListNeedsScope(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	_, err := s.ListSteps(context.Background(), nil)
	assert.ErrorIs(t, err, scope.ErrNoCampaignScope)
	assert.Equal(t, KindScope, ErrorKind(err))

	_, err = s.ListProgress(context.Background(), nil)
	assert.ErrorIs(t, err, scope.ErrNoCampaignScope)
	api.AssertNotCalled(t, "ListSteps", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "CustomerProgress", mock.Anything, mock.Anything)
}

func TestConsole_SelectSeedsScopeAndLoads(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	steps := []*model.Step{{ID: 10, CampaignID: 7, OrderNo: 1}}
	api.On("ListSteps", mock.Anything, int64(7)).Return(steps, nil)

	require.NoError(t, s.Select(context.Background(), 7, session.TabSteps))

	sess := s.Session()
	assert.Equal(t, int64(7), sess.ActiveCampaignID)
	assert.Equal(t, session.TabSteps, sess.ActiveTab)
	assert.Equal(t, "7", sess.Steps.CampaignField)

	snap := s.StepsSnapshot()
	assert.Equal(t, scope.CampaignScope(7), snap.Scope)
	assert.Equal(t, steps, snap.Items)

	// the last active campaign is the fallback for the other views
	api.On("CustomerProgress", mock.Anything, int64(7)).Return([]*model.CustomerProgress{}, nil)
	_, err := s.ListProgress(context.Background(), nil)
	require.NoError(t, err)
	api.AssertCalled(t, "CustomerProgress", mock.Anything, int64(7))
}

func TestConsole_SelectExecutionsClearsSecondaryFilters(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	api.On("ListExecutions", mock.Anything, int64(4), mock.Anything).Return([]*model.Execution{}, nil)
	step, status := "3", "SENT"
	_, err := s.ListExecutions(context.Background(), ExecutionQuery{CampaignField: ptr("4"), StepField: &step, StatusField: &status})
	require.NoError(t, err)

	api.On("ListExecutions", mock.Anything, int64(9), model.ExecutionFilter{}).Return([]*model.Execution{}, nil)
	require.NoError(t, s.Select(context.Background(), 9, session.TabExecutions))

	view := s.Session().Executions
	assert.Equal(t, "9", view.CampaignField)
	assert.Empty(t, view.StepField)
	assert.Empty(t, view.StatusField)
}

func TestConsole_ExecutionFiltersAreAndCombined(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	step := int64(3)
	want := model.ExecutionFilter{StepID: &step, Status: "SENT"}
	rows := []*model.Execution{
		{ID: 1, CampaignID: 5, StepID: 3, Status: "SENT"},
		{ID: 2, CampaignID: 5, StepID: 4, Status: "SENT"},
	}
	api.On("ListExecutions", mock.Anything, int64(5), want).Return(rows, nil)

	snap, err := s.ListExecutions(context.Background(), ExecutionQuery{
		CampaignField: ptr("5"),
		StepField:     ptr(" 3 "),
		StatusField:   ptr("SENT"),
	})
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(1), snap.Items[0].ID)
}

func TestConsole_BadFieldIsValidation(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	_, err := s.ListExecutions(context.Background(), ExecutionQuery{CampaignField: ptr("1"), CustomerField: ptr("abc")})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "customer_id", verr.Field)
}

func TestConsole_InvalidCampaignFieldIsNotStored(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	api.On("ListSteps", mock.Anything, int64(1)).Return([]*model.Step{}, nil)
	require.NoError(t, s.Select(context.Background(), 1, session.TabSteps))

	_, err := s.ListSteps(context.Background(), ptr("abc"))
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "campaign_id", verr.Field)
	assert.Equal(t, "1", s.Session().Steps.CampaignField)

	payload := model.StepPayload{OrderNo: model.Some(1), Channel: model.Some(model.ChannelMixed)}
	api.On("CreateStep", mock.Anything, int64(1), payload).Return(&model.Step{ID: 2, CampaignID: 1, OrderNo: 1}, nil)
	_, err = s.CreateStep(context.Background(), 0, model.StepPayload{OrderNo: model.Some(1)})
	require.NoError(t, err)
}

func TestConsole_FailedLoadKeepsActiveCampaign(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	api.On("ListSteps", mock.Anything, int64(1)).Return([]*model.Step{}, nil)
	require.NoError(t, s.Select(context.Background(), 1, session.TabSteps))

	api.On("ListSteps", mock.Anything, int64(2)).Return(nil, errors.New("failed to load steps"))
	snap, err := s.ListSteps(context.Background(), ptr("2"))
	require.Error(t, err)
	assert.Empty(t, snap.Items)
	assert.Equal(t, "failed to load steps", snap.ErrText())
	assert.Equal(t, int64(1), s.Session().ActiveCampaignID)
}

func TestConsole_StartRejectsIllegalTransition(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	loadCampaigns(t, s, api)

	err := s.StartCampaign(context.Background(), 2)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, KindConflict, ErrorKind(err))
	api.AssertNotCalled(t, "StartCampaign", mock.Anything, mock.Anything)

	n := lastNotice(t, s)
	assert.Equal(t, NoticeError, n.Level)
}

func TestConsole_StopRejectsDraftAndStopped(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	rows := append(campaigns(), &model.Campaign{ID: 4, Name: "Autumn", Status: model.CampaignStatusStopped})
	api.On("ListCampaigns", mock.Anything, model.CampaignFilter{}).Return(rows, nil)
	_, err := s.ListCampaigns(context.Background(), CampaignQuery{})
	require.NoError(t, err)
	before := s.CampaignsSnapshot()

	for _, id := range []int64{1, 4} {
		err := s.StopCampaign(context.Background(), id)
		assert.ErrorIs(t, err, ErrIllegalTransition)
		assert.Equal(t, KindConflict, ErrorKind(err))
		n := lastNotice(t, s)
		assert.Equal(t, NoticeError, n.Level)
		assert.Contains(t, n.Text, "stop")
	}

	api.AssertNotCalled(t, "StopCampaign", mock.Anything, mock.Anything)
	api.AssertNumberOfCalls(t, "ListCampaigns", 1)
	assert.Equal(t, before, s.CampaignsSnapshot())
}

func TestConsole_StartSuccessReloadsCampaigns(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	loadCampaigns(t, s, api)

	api.On("StartCampaign", mock.Anything, int64(1)).Return(&model.Campaign{ID: 1, Status: model.CampaignStatusRunning}, nil)
	require.NoError(t, s.StartCampaign(context.Background(), 1))

	api.AssertNumberOfCalls(t, "ListCampaigns", 2)
	n := lastNotice(t, s)
	assert.Equal(t, NoticeSuccess, n.Level)
	assert.Contains(t, n.Text, "started")
}

func TestConsole_FailedActionLeavesCacheUntouched(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	loadCampaigns(t, s, api)
	before := s.CampaignsSnapshot()

	api.On("StopCampaign", mock.Anything, int64(2)).
		Return(nil, &gateway.APIError{Op: "stop campaign", StatusCode: 409, Detail: "campaign already stopped"})

	err := s.StopCampaign(context.Background(), 2)
	assert.Equal(t, KindConflict, ErrorKind(err))
	assert.Equal(t, before, s.CampaignsSnapshot())
	api.AssertNumberOfCalls(t, "ListCampaigns", 1)
	assert.Contains(t, lastNotice(t, s).Text, "campaign already stopped")
}

func TestConsole_UnauthorizedNotice(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	api.On("StartCampaign", mock.Anything, int64(5)).Return(nil, &gateway.APIError{Op: "start campaign", StatusCode: 401})

	err := s.StartCampaign(context.Background(), 5)
	assert.ErrorIs(t, err, gateway.ErrUnauthorized)
	n := lastNotice(t, s)
	assert.Equal(t, KindUnauthorized, n.Kind)
	assert.Equal(t, gateway.ErrUnauthorized.Error(), n.Text)
}

func TestConsole_DeleteNeedsConfirmation(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	loadCampaigns(t, s, api)

	err := s.DeleteCampaign(context.Background(), 1, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	api.AssertNotCalled(t, "DeleteCampaign", mock.Anything, mock.Anything)

	err = s.DeleteCampaign(context.Background(), 2, true)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestConsole_DeleteActiveCampaignClearsScope(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	loadCampaigns(t, s, api)

	api.On("ListSteps", mock.Anything, int64(1)).Return([]*model.Step{{ID: 1, CampaignID: 1, OrderNo: 1}}, nil)
	require.NoError(t, s.Select(context.Background(), 1, session.TabSteps))

	api.On("DeleteCampaign", mock.Anything, int64(1)).Return("Campaign deleted", nil)
	require.NoError(t, s.DeleteCampaign(context.Background(), 1, true))

	sess := s.Session()
	assert.Zero(t, sess.ActiveCampaignID)
	assert.Empty(t, sess.Steps.CampaignField)
	assert.Equal(t, session.TabCampaigns, sess.ActiveTab)
	assert.Empty(t, s.StepsSnapshot().Items)
	assert.Equal(t, "Campaign deleted", lastNotice(t, s).Text)
}

func TestConsole_PauseReloadsProgress(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	api.On("CustomerProgress", mock.Anything, int64(3)).Return([]*model.CustomerProgress{{CustomerID: 8}}, nil).Once()
	_, err := s.ListProgress(context.Background(), ptr("3"))
	require.NoError(t, err)

	api.On("PauseCustomer", mock.Anything, int64(3), int64(8)).Return(nil)
	api.On("CustomerProgress", mock.Anything, int64(3)).Return([]*model.CustomerProgress{{CustomerID: 8, Paused: true}}, nil).Once()

	require.NoError(t, s.PauseCustomer(context.Background(), 0, 8))
	snap := s.ProgressSnapshot()
	require.Len(t, snap.Items, 1)
	assert.True(t, snap.Items[0].Paused)
	assert.Equal(t, model.CustomerActionResume, snap.Items[0].NextAction())
}

func TestConsole_CreateStepRejectsDuplicateOrder(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	api.On("ListSteps", mock.Anything, int64(1)).Return([]*model.Step{{ID: 11, CampaignID: 1, OrderNo: 1}}, nil)
	require.NoError(t, s.Select(context.Background(), 1, session.TabSteps))

	_, err := s.CreateStep(context.Background(), 0, model.StepPayload{OrderNo: model.Some(1)})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "order_no", verr.Field)

	_, err = s.CreateStep(context.Background(), 0, model.StepPayload{OrderNo: model.Some(2), DelayDays: model.Some(-1)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "delay_days", verr.Field)
	api.AssertNotCalled(t, "CreateStep", mock.Anything, mock.Anything, mock.Anything)
}

func TestConsole_CreateStepReloadsSteps(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	api.On("ListSteps", mock.Anything, int64(1)).Return([]*model.Step{}, nil)
	require.NoError(t, s.Select(context.Background(), 1, session.TabSteps))

	payload := model.StepPayload{OrderNo: model.Some(1), Channel: model.Some(model.ChannelMixed), DelayDays: model.Some(0)}
	api.On("CreateStep", mock.Anything, int64(1), payload).Return(&model.Step{ID: 20, CampaignID: 1, OrderNo: 1}, nil)

	step, err := s.CreateStep(context.Background(), 0, model.StepPayload{OrderNo: model.Some(1), DelayDays: model.Some(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(20), step.ID)
	api.AssertNumberOfCalls(t, "ListSteps", 2)
}

func TestConsole_UpdateStepRejectsDuplicateOrder(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	api.On("ListSteps", mock.Anything, int64(1)).Return([]*model.Step{
		{ID: 11, CampaignID: 1, OrderNo: 1},
		{ID: 12, CampaignID: 1, OrderNo: 2},
	}, nil)
	require.NoError(t, s.Select(context.Background(), 1, session.TabSteps))

	_, err := s.UpdateStep(context.Background(), 12, model.StepPayload{OrderNo: model.Some(1)})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "order_no", verr.Field)
	api.AssertNotCalled(t, "UpdateStep", mock.Anything, mock.Anything, mock.Anything)

	// keeping its own order number is not a clash
	same := model.StepPayload{OrderNo: model.Some(1), DelayDays: model.Some(2)}
	api.On("UpdateStep", mock.Anything, int64(11), same).Return(&model.Step{ID: 11, CampaignID: 1, OrderNo: 1, DelayDays: 2}, nil)
	_, err = s.UpdateStep(context.Background(), 11, same)
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "ListSteps", 2)
}

func TestConsole_UpdateUnloadedStepDefersToServer(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	api.On("ListSteps", mock.Anything, int64(5)).Return([]*model.Step{{ID: 1, CampaignID: 5, OrderNo: 1}}, nil)
	require.NoError(t, s.Select(context.Background(), 5, session.TabSteps))

	payload := model.StepPayload{OrderNo: model.Some(1)}
	api.On("UpdateStep", mock.Anything, int64(99), payload).Return(&model.Step{ID: 99, CampaignID: 7, OrderNo: 1}, nil)

	step, err := s.UpdateStep(context.Background(), 99, payload)
	require.NoError(t, err)
	assert.Equal(t, int64(7), step.CampaignID)

	// the steps view still shows campaign 5 and is not reloaded for 7
	api.AssertNumberOfCalls(t, "ListSteps", 1)
	api.AssertNotCalled(t, "ListSteps", mock.Anything, int64(7))
	assert.Equal(t, scope.CampaignScope(5), s.StepsSnapshot().Scope)
	assert.Equal(t, int64(5), s.Session().ActiveCampaignID)
	assert.Equal(t, NoticeSuccess, lastNotice(t, s).Level)
}

func TestConsole_UpdateExecutionReloadsOwningCampaign(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	api.On("ListExecutions", mock.Anything, int64(5), model.ExecutionFilter{}).
		Return([]*model.Execution{{ID: 1, CampaignID: 5, StepID: 2, CustomerID: 8}}, nil)
	require.NoError(t, s.Select(context.Background(), 5, session.TabExecutions))

	payload := model.ExecutionPayload{Status: model.Some("SENT")}
	api.On("UpdateExecution", mock.Anything, int64(300), payload).Return(&model.Execution{ID: 300, CampaignID: 5}, nil)
	api.On("UpdateExecution", mock.Anything, int64(400), payload).Return(&model.Execution{ID: 400, CampaignID: 9}, nil)

	_, err := s.UpdateExecution(context.Background(), 300, payload)
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "ListExecutions", 2)

	_, err = s.UpdateExecution(context.Background(), 400, payload)
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "ListExecutions", 2)
	api.AssertNotCalled(t, "ListExecutions", mock.Anything, int64(9), mock.Anything)
}

func TestConsole_WizardSubmitFromEarlyScreen(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	_, err := s.OpenWizard(0)
	require.NoError(t, err)
	_, err = s.UpdateWizardForm(wizard.Form{Name: "Launch", Channel: "EMAIL", RunImmediately: true})
	require.NoError(t, err)

	_, err = s.SubmitWizard(context.Background())
	assert.ErrorIs(t, err, wizard.ErrNotOnReviewScreen)

	state, err := s.WizardState()
	require.NoError(t, err)
	assert.Equal(t, int(wizard.ScreenBasics), state.Screen)
	api.AssertNotCalled(t, "CreateCampaign", mock.Anything, mock.Anything)
}

func TestConsole_WizardCreateClosesOnSuccess(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	loadCampaigns(t, s, api)

	_, err := s.OpenWizard(0)
	require.NoError(t, err)
	_, err = s.UpdateWizardForm(wizard.Form{Name: "Launch", Channel: "email", RunImmediately: true})
	require.NoError(t, err)
	for i := 0; i < wizard.NumScreens; i++ {
		_, err = s.WizardNext()
		require.NoError(t, err)
	}

	api.On("CreateCampaign", mock.Anything, mock.MatchedBy(func(p model.CampaignPayload) bool {
		return p.Name.Value == "Launch" && p.Channel.Value == model.ChannelEmail &&
			p.CustomerIDs.Set && p.ScheduleTime.Set && p.ScheduleTime.Value == nil
	})).Return(&model.Campaign{ID: 9, Name: "Launch"}, nil)

	c, err := s.SubmitWizard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.ID)

	_, err = s.WizardState()
	assert.ErrorIs(t, err, ErrWizardNotOpen)
	api.AssertNumberOfCalls(t, "ListCampaigns", 2)
}

func TestConsole_WizardFailureStaysOpen(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)

	_, err := s.OpenWizard(0)
	require.NoError(t, err)
	_, err = s.UpdateWizardForm(wizard.Form{Name: "Launch", Channel: "SMS", RunImmediately: true})
	require.NoError(t, err)
	for i := 0; i < wizard.NumScreens-1; i++ {
		_, _ = s.WizardNext()
	}

	api.On("CreateCampaign", mock.Anything, mock.Anything).
		Return(nil, &gateway.APIError{Op: "create campaign", StatusCode: 422, Detail: "name: already taken"})

	_, err = s.SubmitWizard(context.Background())
	require.Error(t, err)

	state, err := s.WizardState()
	require.NoError(t, err)
	assert.True(t, state.IsFinal)
	assert.Equal(t, "Launch", state.Form.Name)
}

func TestConsole_WizardEditWithoutChanges(t *testing.T) {
	api := new(MockCampaignAPI)
	s := newTestConsole(t, api)
	loadCampaigns(t, s, api)

	_, err := s.OpenWizard(3)
	assert.ErrorIs(t, err, wizard.ErrNotEditable)
	_, err = s.OpenWizard(99)
	assert.ErrorIs(t, err, ErrCampaignNotLoaded)

	state, err := s.OpenWizard(1)
	require.NoError(t, err)
	assert.Equal(t, wizard.ModeEdit, state.Mode)
	assert.Equal(t, "Spring launch", state.Form.Name)
	for i := 0; i < wizard.NumScreens-1; i++ {
		_, _ = s.WizardNext()
	}

	_, err = s.SubmitWizard(context.Background())
	assert.ErrorIs(t, err, wizard.ErrNoChanges)
	api.AssertNotCalled(t, "UpdateCampaign", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, NoticeInfo, lastNotice(t, s).Level)
}

func TestConsole_SessionSurvivesReopen(t *testing.T) {
	api := new(MockCampaignAPI)
	store := session.NewMemoryStore()
	s := NewConsoleService(api, store, ConsoleConfig{SessionID: "op"})
	require.NoError(t, s.Open(context.Background()))

	api.On("ListSteps", mock.Anything, int64(12)).Return([]*model.Step{}, nil)
	require.NoError(t, s.Select(context.Background(), 12, session.TabSteps))

	again := NewConsoleService(api, store, ConsoleConfig{SessionID: "op"})
	require.NoError(t, again.Open(context.Background()))
	assert.Equal(t, int64(12), again.Session().ActiveCampaignID)
	assert.Equal(t, session.TabSteps, again.Session().ActiveTab)
}
