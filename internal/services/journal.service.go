package services

import (
	"context"
	"time"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/nimasrn/campaign-console/pkg/prom"
	"github.com/nimasrn/campaign-console/pkg/worker"
)

type ActionRecordRepository interface {
	Create(ctx context.Context, rec *model.ActionRecord) (*model.ActionRecord, error)
	List(ctx context.Context, f model.ActionRecordFilter) ([]*model.ActionRecord, int64, error)
}

// Journal records operator actions off the request path. Records that do not
// fit in the buffer are dropped and counted.
type Journal interface {
	Record(rec model.ActionRecord)
	List(ctx context.Context, f model.ActionRecordFilter) ([]*model.ActionRecord, int64, error)
}

type JournalService struct {
	repo    ActionRecordRepository
	workers *worker.WorkerManager[model.ActionRecord]
}

func NewJournalService(repo ActionRecordRepository, bufferSize, workers int) *JournalService {
	s := &JournalService{
		repo:    repo,
		workers: worker.NewWorkerManager[model.ActionRecord](bufferSize, workers),
	}
	s.workers.SetWorker(s.write)
	return s
}

func (s *JournalService) Start(ctx context.Context) {
	s.workers.Start(ctx)
}

// Close flushes the buffered records.
func (s *JournalService) Close() {
	s.workers.Exit()
}

func (s *JournalService) Record(rec model.ActionRecord) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if !s.workers.TryEnqueue(rec) {
		prom.IncJournalDropped()
		logger.Warn("journal buffer full, dropping record", "action", rec.Action, "outcome", rec.Outcome)
	}
}

func (s *JournalService) write(ctx context.Context, _ int, rec model.ActionRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.repo.Create(ctx, &rec); err != nil {
		logger.Error("failed to write journal record", "action", rec.Action, "error", err)
	}
}

func (s *JournalService) List(ctx context.Context, f model.ActionRecordFilter) ([]*model.ActionRecord, int64, error) {
	return s.repo.List(ctx, f)
}

type noopJournal struct{}

func (noopJournal) Record(model.ActionRecord) {}

func (noopJournal) List(context.Context, model.ActionRecordFilter) ([]*model.ActionRecord, int64, error) {
	return []*model.ActionRecord{}, 0, nil
}
