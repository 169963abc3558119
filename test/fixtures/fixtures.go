package fixtures

import (
	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/wizard"
)

func NewCampaignForm(name, channel, customerIDs string) wizard.Form {
	return wizard.Form{
		Name:        name,
		Channel:     channel,
		CreatedBy:   "ops",
		CustomerIDs: customerIDs,
		FilterRules: `{"tier":"gold"}`,
	}
}

func NewCampaignPayload(name string, customerIDs ...int64) model.CampaignPayload {
	return model.CampaignPayload{
		Name:        model.Some(name),
		Channel:     model.Some(model.ChannelMixed),
		CreatedBy:   model.Some("ops"),
		CustomerIDs: model.Some(customerIDs),
	}
}

func NewStepPayload(order int, channel model.Channel) model.StepPayload {
	return model.StepPayload{
		OrderNo:   model.Some(order),
		Channel:   model.Some(channel),
		DelayDays: model.Some(0),
		Subject:   model.Some("Hello"),
		Body:      model.Some("Welcome aboard"),
	}
}

func NewExecutionPayload(stepID, customerID int64, status string) model.ExecutionPayload {
	return model.ExecutionPayload{
		StepID:     model.Some(stepID),
		CustomerID: model.Some(customerID),
		Status:     model.Some(status),
	}
}
