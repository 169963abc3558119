package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/campaign-console/internal/gateway"
	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/scope"
	"github.com/nimasrn/campaign-console/internal/session"
	"github.com/nimasrn/campaign-console/internal/wizard"
	"github.com/nimasrn/campaign-console/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{model.NewValidationError("name", "name is required"), KindValidation},
		{ErrConfirmationRequired, KindValidation},
		{wizard.ErrNotOnReviewScreen, KindValidation},
		{&gateway.APIError{StatusCode: 401}, KindUnauthorized},
		{fmt.Errorf("load steps: %w", scope.ErrNoCampaignScope), KindScope},
		{ErrCampaignNotLoaded, KindScope},
		{ErrActionInFlight, KindConflict},
		{&gateway.APIError{StatusCode: 409, Detail: "already running"}, KindConflict},
		{&gateway.APIError{StatusCode: 500, Detail: "failed to load campaigns"}, KindHTTP},
		{errors.New("dial tcp: connection refused"), KindHTTP},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, ErrorKind(tc.err), tc.err.Error())
	}
}

func TestNotices_BoundedAndDrained(t *testing.T) {
	n := NewNotices(2)
	n.Push(NoticeInfo, "", "one")
	n.Push(NoticeError, KindHTTP, "two")
	n.Push(NoticeSuccess, "", "three")

	got := n.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Text)
	assert.Equal(t, "three", got[1].Text)
	assert.Equal(t, uint64(3), got[1].ID)
	assert.Empty(t, n.Drain())
}

func newTestGuard(t *testing.T) (*RedisActionGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(t.Name(), "console:", &redis.Options{Addrs: []string{mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return NewRedisActionGuard(adapter, DefaultActionGuardConfig()), mr
}

func TestRedisActionGuard_RejectsSecondHolder(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "campaign:1:start")
	require.NoError(t, err)
	assert.True(t, mr.Exists("console:action-lock:campaign:1:start"))

	_, err = guard.Acquire(ctx, "campaign:1:start")
	assert.ErrorIs(t, err, ErrActionInFlight)

	release()
	assert.False(t, mr.Exists("console:action-lock:campaign:1:start"))

	release, err = guard.Acquire(ctx, "campaign:1:start")
	require.NoError(t, err)
	release()
}

func TestRedisActionGuard_LockExpires(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()

	_, err := guard.Acquire(ctx, "campaign:2:stop")
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)
	release, err := guard.Acquire(ctx, "campaign:2:stop")
	require.NoError(t, err)
	release()
}

type blockingAPI struct {
	*MockCampaignAPI
	entered chan struct{}
	proceed chan struct{}
}

func (b *blockingAPI) StartCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	close(b.entered)
	<-b.proceed
	return b.MockCampaignAPI.StartCampaign(ctx, id)
}

func TestConsole_GuardRejectsConcurrentAction(t *testing.T) {
	guard, _ := newTestGuard(t)
	api := &blockingAPI{MockCampaignAPI: new(MockCampaignAPI), entered: make(chan struct{}), proceed: make(chan struct{})}
	api.On("StartCampaign", mock.Anything, int64(4)).Return(&model.Campaign{ID: 4, Status: model.CampaignStatusRunning}, nil)
	api.On("ListCampaigns", mock.Anything, model.CampaignFilter{}).Return([]*model.Campaign{}, nil)

	s := NewConsoleService(api, session.NewMemoryStore(), ConsoleConfig{Guard: guard})

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = s.StartCampaign(context.Background(), 4)
	}()

	<-api.entered
	err := s.StartCampaign(context.Background(), 4)
	assert.ErrorIs(t, err, ErrActionInFlight)

	close(api.proceed)
	wg.Wait()
	require.NoError(t, firstErr)
	api.AssertNumberOfCalls(t, "StartCampaign", 1)
}

type memoryRecords struct {
	mu      sync.Mutex
	records []*model.ActionRecord
}

func (m *memoryRecords) Create(_ context.Context, rec *model.ActionRecord) (*model.ActionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memoryRecords) List(_ context.Context, f model.ActionRecordFilter) ([]*model.ActionRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ActionRecord
	for _, r := range m.records {
		if f.Action == "" || r.Action == f.Action {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func TestJournalService_FlushesOnClose(t *testing.T) {
	repo := &memoryRecords{}
	j := NewJournalService(repo, 16, 2)
	j.Start(context.Background())

	for i := 0; i < 5; i++ {
		j.Record(model.ActionRecord{Action: "start_campaign", Outcome: model.OutcomeSucceeded})
	}
	j.Close()

	got, total, err := j.List(context.Background(), model.ActionRecordFilter{Action: "start_campaign"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestConsole_ActionsAreJournaled(t *testing.T) {
	repo := &memoryRecords{}
	j := NewJournalService(repo, 16, 1)
	j.Start(context.Background())

	api := new(MockCampaignAPI)
	s := NewConsoleService(api, session.NewMemoryStore(), ConsoleConfig{SessionID: "op", Journal: j})
	api.On("ListCampaigns", mock.Anything, model.CampaignFilter{}).Return([]*model.Campaign{}, nil)
	api.On("StopCampaign", mock.Anything, int64(6)).Return(&model.Campaign{ID: 6, Status: model.CampaignStatusStopped}, nil)

	require.NoError(t, s.StopCampaign(context.Background(), 6))
	assert.ErrorIs(t, s.DeleteCampaign(context.Background(), 6, false), ErrConfirmationRequired)
	j.Close()

	stops, _, err := s.Journal(context.Background(), model.ActionRecordFilter{Action: actionStopCampaign})
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, model.OutcomeSucceeded, stops[0].Outcome)
	assert.Equal(t, "op", stops[0].SessionID)
	assert.Equal(t, int64(6), *stops[0].CampaignID)

	deletes, _, err := s.Journal(context.Background(), model.ActionRecordFilter{Action: actionDeleteCampaign})
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.Equal(t, model.OutcomeRejected, deletes[0].Outcome)
}
