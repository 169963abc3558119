package services

import (
	"context"
	"fmt"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/scope"
	"github.com/nimasrn/campaign-console/internal/session"
	"github.com/nimasrn/campaign-console/pkg/logger"
)

/* ---------------------------------- steps ---------------------------------- */

// CreateStep adds a step to the campaign resolved from campaignID, the steps
// view field or the active campaign.
func (s *ConsoleService) CreateStep(ctx context.Context, campaignID int64, p model.StepPayload) (*model.Step, error) {
	id, err := s.resolve(campaignID, session.TabSteps, nil)
	if err != nil {
		return nil, s.fail(actionCreateStep, nil, nil, err)
	}
	cid := ptr(id)
	if !p.OrderNo.Set {
		return nil, s.fail(actionCreateStep, cid, nil, model.NewValidationError("order_no", "is required"))
	}
	if !p.Channel.Set {
		p.Channel = model.Some(model.ChannelMixed)
	}
	if err := s.validateStep(id, 0, p); err != nil {
		return nil, s.fail(actionCreateStep, cid, nil, err)
	}

	step, err := s.api.CreateStep(ctx, id, p)
	if err != nil {
		return nil, s.fail(actionCreateStep, cid, nil, err)
	}
	s.succeed(actionCreateStep, cid, nil, fmt.Sprintf("step %d created in campaign %d", step.ID, id))
	s.reloadSteps(ctx, id)
	return step, nil
}

// UpdateStep edits a step. The order_no check runs only when the step is in
// the loaded list; otherwise the server decides.
func (s *ConsoleService) UpdateStep(ctx context.Context, stepID int64, p model.StepPayload) (*model.Step, error) {
	id, err := s.stepCampaign(stepID)
	if err != nil {
		return nil, s.fail(actionUpdateStep, nil, nil, err)
	}
	cid := optionalID(id)
	if err := s.validateStep(id, stepID, p); err != nil {
		return nil, s.fail(actionUpdateStep, cid, nil, err)
	}

	step, err := s.api.UpdateStep(ctx, stepID, p)
	if err != nil {
		return nil, s.fail(actionUpdateStep, cid, nil, err)
	}
	if step.CampaignID > 0 {
		id = step.CampaignID
	}
	s.succeed(actionUpdateStep, optionalID(id), nil, fmt.Sprintf("step %d updated", stepID))
	s.refreshSteps(ctx, id)
	return step, nil
}

func (s *ConsoleService) DeleteStep(ctx context.Context, stepID int64) error {
	id, err := s.stepCampaign(stepID)
	if err != nil {
		return s.fail(actionDeleteStep, nil, nil, err)
	}
	cid := optionalID(id)
	if err := s.api.DeleteStep(ctx, stepID); err != nil {
		return s.fail(actionDeleteStep, cid, nil, err)
	}
	s.succeed(actionDeleteStep, cid, nil, fmt.Sprintf("step %d deleted", stepID))
	s.refreshSteps(ctx, id)
	return nil
}

// stepCampaign returns the owning campaign of a loaded step, or zero when
// the step is not in the loaded list.
func (s *ConsoleService) stepCampaign(stepID int64) (int64, error) {
	if stepID <= 0 {
		return 0, model.NewValidationError("step_id", "must be a positive integer")
	}
	if step, ok := s.steps.Find(func(st *model.Step) bool { return st.ID == stepID }); ok {
		return step.CampaignID, nil
	}
	return 0, nil
}

// validateStep checks the fields present in p. Order numbers are compared
// against the loaded steps of the same campaign, skipping selfID. A zero
// campaignID skips that comparison.
func (s *ConsoleService) validateStep(campaignID, selfID int64, p model.StepPayload) error {
	if p.OrderNo.Set {
		if p.OrderNo.Value <= 0 {
			return model.NewValidationError("order_no", "must be a positive integer")
		}
		snap := s.steps.Snapshot()
		if campaignID > 0 && snap.Scope == scope.CampaignScope(campaignID) {
			for _, st := range snap.Items {
				if st.ID != selfID && st.OrderNo == p.OrderNo.Value {
					return model.NewValidationError("order_no", "%d is already used by step %d", p.OrderNo.Value, st.ID)
				}
			}
		}
	}
	if p.DelayDays.Set && p.DelayDays.Value < 0 {
		return model.NewValidationError("delay_days", "must not be negative")
	}
	if p.Channel.Set {
		if _, err := model.ParseChannel(string(p.Channel.Value)); err != nil {
			return model.NewValidationError("channel", "%v", err)
		}
	}
	return nil
}

func (s *ConsoleService) reloadSteps(ctx context.Context, campaignID int64) {
	if err := s.LoadSteps(ctx, campaignID); err != nil {
		logger.Warn("step reload failed", "campaign_id", campaignID, "error", err)
	}
}

// refreshSteps reloads the steps view if it shows campaignID.
func (s *ConsoleService) refreshSteps(ctx context.Context, campaignID int64) {
	if shown, ok := scope.CampaignOf(s.steps.Target()); ok && campaignID > 0 && shown == campaignID {
		s.reloadSteps(ctx, campaignID)
	}
}

/* -------------------------------- executions -------------------------------- */

func (s *ConsoleService) CreateExecution(ctx context.Context, campaignID int64, p model.ExecutionPayload) (*model.Execution, error) {
	id, err := s.resolve(campaignID, session.TabExecutions, nil)
	if err != nil {
		return nil, s.fail(actionCreateExec, nil, nil, err)
	}
	cid := ptr(id)
	if !p.StepID.Set || p.StepID.Value <= 0 {
		return nil, s.fail(actionCreateExec, cid, nil, model.NewValidationError("step_id", "must be a positive integer"))
	}
	if !p.CustomerID.Set || p.CustomerID.Value <= 0 {
		return nil, s.fail(actionCreateExec, cid, nil, model.NewValidationError("customer_id", "must be a positive integer"))
	}
	custID := ptr(p.CustomerID.Value)
	if err := validateExecution(p); err != nil {
		return nil, s.fail(actionCreateExec, cid, custID, err)
	}

	exec, err := s.api.CreateExecution(ctx, id, p)
	if err != nil {
		return nil, s.fail(actionCreateExec, cid, custID, err)
	}
	s.succeed(actionCreateExec, cid, custID, fmt.Sprintf("execution %d created in campaign %d", exec.ID, id))
	s.reloadExecutions(ctx, id)
	return exec, nil
}

func (s *ConsoleService) UpdateExecution(ctx context.Context, executionID int64, p model.ExecutionPayload) (*model.Execution, error) {
	id, err := s.executionCampaign(executionID)
	if err != nil {
		return nil, s.fail(actionUpdateExec, nil, nil, err)
	}
	cid := optionalID(id)
	if p.StepID.Set && p.StepID.Value <= 0 {
		return nil, s.fail(actionUpdateExec, cid, nil, model.NewValidationError("step_id", "must be a positive integer"))
	}
	if p.CustomerID.Set && p.CustomerID.Value <= 0 {
		return nil, s.fail(actionUpdateExec, cid, nil, model.NewValidationError("customer_id", "must be a positive integer"))
	}
	if err := validateExecution(p); err != nil {
		return nil, s.fail(actionUpdateExec, cid, nil, err)
	}

	exec, err := s.api.UpdateExecution(ctx, executionID, p)
	if err != nil {
		return nil, s.fail(actionUpdateExec, cid, nil, err)
	}
	if exec.CampaignID > 0 {
		id = exec.CampaignID
	}
	s.succeed(actionUpdateExec, optionalID(id), nil, fmt.Sprintf("execution %d updated", executionID))
	s.refreshExecutions(ctx, id)
	return exec, nil
}

func (s *ConsoleService) DeleteExecution(ctx context.Context, executionID int64) error {
	id, err := s.executionCampaign(executionID)
	if err != nil {
		return s.fail(actionDeleteExec, nil, nil, err)
	}
	cid := optionalID(id)
	if err := s.api.DeleteExecution(ctx, executionID); err != nil {
		return s.fail(actionDeleteExec, cid, nil, err)
	}
	s.succeed(actionDeleteExec, cid, nil, fmt.Sprintf("execution %d deleted", executionID))
	s.refreshExecutions(ctx, id)
	return nil
}

// executionCampaign returns the owning campaign of a loaded execution, or
// zero when it is not in the loaded list.
func (s *ConsoleService) executionCampaign(executionID int64) (int64, error) {
	if executionID <= 0 {
		return 0, model.NewValidationError("execution_id", "must be a positive integer")
	}
	if e, ok := s.executions.Find(func(e *model.Execution) bool { return e.ID == executionID }); ok {
		return e.CampaignID, nil
	}
	return 0, nil
}

// refreshExecutions reloads the executions view if it shows campaignID.
func (s *ConsoleService) refreshExecutions(ctx context.Context, campaignID int64) {
	if shown, ok := scope.CampaignOf(s.executions.Target()); ok && campaignID > 0 && shown == campaignID {
		s.reloadExecutions(ctx, campaignID)
	}
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func validateExecution(p model.ExecutionPayload) error {
	if p.Channel.Set {
		if _, err := model.ParseChannel(string(p.Channel.Value)); err != nil {
			return model.NewValidationError("channel", "%v", err)
		}
	}
	return nil
}
