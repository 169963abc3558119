package repository

import (
	"context"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/pkg/pg"
)

type ActionRecordRepository struct {
	*pg.DB
}

func NewActionRecordRepository(db *pg.DB) *ActionRecordRepository {
	return &ActionRecordRepository{db}
}

func (r *ActionRecordRepository) Create(ctx context.Context, rec *model.ActionRecord) (*model.ActionRecord, error) {
	entity := toActionRecordEntity(rec)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toActionRecordModel(entity), nil
}

// List returns the newest records first together with the total number of
// matching rows.
func (r *ActionRecordRepository) List(ctx context.Context, f model.ActionRecordFilter) ([]*model.ActionRecord, int64, error) {
	q := r.Read(ctx).Model(&ActionRecordEntity{})
	if f.CampaignID != nil {
		q = q.Where("campaign_id = ?", *f.CampaignID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := max(f.Offset, 0)

	var entities []*ActionRecordEntity
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*model.ActionRecord, 0, len(entities))
	for _, e := range entities {
		out = append(out, toActionRecordModel(e))
	}
	return out, total, nil
}
