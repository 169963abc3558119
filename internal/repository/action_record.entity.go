package repository

import (
	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/pkg/pg"
)

type ActionRecordEntity struct {
	pg.Model
	SessionID  string `gorm:"type:varchar(128);not null"`
	Action     string `gorm:"type:varchar(64);not null"`
	CampaignID *int64
	CustomerID *int64
	Outcome    string `gorm:"type:varchar(16);not null"`
	Detail     string `gorm:"type:text;not null;default:''"`
}

func (ActionRecordEntity) TableName() string {
	return "action_record"
}

func toActionRecordEntity(r *model.ActionRecord) *ActionRecordEntity {
	e := &ActionRecordEntity{
		SessionID:  r.SessionID,
		Action:     r.Action,
		CampaignID: r.CampaignID,
		CustomerID: r.CustomerID,
		Outcome:    string(r.Outcome),
		Detail:     r.Detail,
	}
	e.ID = r.ID
	e.CreatedAt = r.CreatedAt
	return e
}

func toActionRecordModel(e *ActionRecordEntity) *model.ActionRecord {
	return &model.ActionRecord{
		ID:         e.ID,
		SessionID:  e.SessionID,
		Action:     e.Action,
		CampaignID: e.CampaignID,
		CustomerID: e.CustomerID,
		Outcome:    model.ActionOutcome(e.Outcome),
		Detail:     e.Detail,
		CreatedAt:  e.CreatedAt,
	}
}
