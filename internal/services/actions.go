package services

import (
	"context"
	"fmt"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/session"
	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/nimasrn/campaign-console/pkg/prom"
)

const (
	actionStartCampaign  = "start_campaign"
	actionStopCampaign   = "stop_campaign"
	actionDeleteCampaign = "delete_campaign"
	actionCreateCampaign = "create_campaign"
	actionUpdateCampaign = "update_campaign"
	actionPauseCustomer  = "pause_customer"
	actionResumeCustomer = "resume_customer"
	actionCreateStep     = "create_step"
	actionUpdateStep     = "update_step"
	actionDeleteStep     = "delete_step"
	actionCreateExec     = "create_execution"
	actionUpdateExec     = "update_execution"
	actionDeleteExec     = "delete_execution"
)

func observeAction(action string, outcome model.ActionOutcome) {
	prom.IncAction(action, string(outcome))
}

// acquire takes the in-flight lock for key. Without a guard it is a no-op.
func (s *ConsoleService) acquire(ctx context.Context, key string) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}
	return s.guard.Acquire(ctx, key)
}

// lifecycle runs a start, stop or delete. A loaded row is checked for
// legality first; an id that is not loaded is sent and the server decides.
func (s *ConsoleService) lifecycle(ctx context.Context, action string, id int64, allowed model.CampaignAction, call func(ctx context.Context) (string, error)) error {
	cid := ptr(id)
	if id <= 0 {
		return s.fail(action, nil, nil, model.NewValidationError("campaign_id", "must be a positive integer"))
	}
	if c, ok := s.cachedCampaign(id); ok && !c.Allows(allowed) {
		return s.fail(action, cid, nil, fmt.Errorf("%w: %s is %s", ErrIllegalTransition, allowed, c.Status))
	}

	release, err := s.acquire(ctx, fmt.Sprintf("campaign:%d:%s", id, allowed))
	if err != nil {
		return s.fail(action, cid, nil, err)
	}
	defer release()

	text, err := call(ctx)
	if err != nil {
		logger.Warn("campaign action failed", "action", action, "campaign_id", id, "error", err)
		return s.fail(action, cid, nil, err)
	}
	logger.Info("campaign action succeeded", "action", action, "campaign_id", id)
	s.succeed(action, cid, nil, text)
	_ = s.ReloadCampaigns(ctx)
	return nil
}

func (s *ConsoleService) StartCampaign(ctx context.Context, id int64) error {
	return s.lifecycle(ctx, actionStartCampaign, id, model.ActionStart, func(ctx context.Context) (string, error) {
		c, err := s.api.StartCampaign(ctx, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("campaign %d started (%s)", id, statusOf(c)), nil
	})
}

func (s *ConsoleService) StopCampaign(ctx context.Context, id int64) error {
	return s.lifecycle(ctx, actionStopCampaign, id, model.ActionStop, func(ctx context.Context) (string, error) {
		c, err := s.api.StopCampaign(ctx, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("campaign %d stopped (%s)", id, statusOf(c)), nil
	})
}

// DeleteCampaign requires an explicit confirmation. Deleting the active
// campaign clears the console scope.
func (s *ConsoleService) DeleteCampaign(ctx context.Context, id int64, confirm bool) error {
	if !confirm {
		return s.fail(actionDeleteCampaign, ptr(id), nil, ErrConfirmationRequired)
	}
	err := s.lifecycle(ctx, actionDeleteCampaign, id, model.ActionDelete, func(ctx context.Context) (string, error) {
		detail, err := s.api.DeleteCampaign(ctx, id)
		if err != nil {
			return "", err
		}
		if detail == "" {
			detail = fmt.Sprintf("campaign %d deleted", id)
		}
		return detail, nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	cleared := s.sess.ActiveCampaignID == id
	if cleared {
		field := fmt.Sprint(id)
		s.sess.ActiveCampaignID = 0
		for _, tab := range []session.Tab{session.TabSteps, session.TabExecutions, session.TabCustomers} {
			if s.sess.CampaignField(tab) == field {
				s.sess.SeedCampaignField(tab, "")
			}
		}
		if s.sess.ActiveTab.CampaignScoped() {
			s.sess.ActiveTab = session.TabCampaigns
		}
	}
	s.mu.Unlock()
	if cleared {
		s.steps.Retarget("")
		s.executions.Retarget("")
		s.progress.Retarget("")
		s.persist(ctx)
	}
	return nil
}

func statusOf(c *model.Campaign) model.CampaignStatus {
	if c == nil {
		return "unknown"
	}
	return c.Status
}

/* --------------------------------- customers -------------------------------- */

// PauseCustomer pauses one customer. A zero campaignID resolves to the
// customers view's campaign.
func (s *ConsoleService) PauseCustomer(ctx context.Context, campaignID, customerID int64) error {
	return s.customerAction(ctx, actionPauseCustomer, campaignID, customerID, s.api.PauseCustomer)
}

func (s *ConsoleService) ResumeCustomer(ctx context.Context, campaignID, customerID int64) error {
	return s.customerAction(ctx, actionResumeCustomer, campaignID, customerID, s.api.ResumeCustomer)
}

func (s *ConsoleService) customerAction(ctx context.Context, action string, campaignID, customerID int64, call func(ctx context.Context, campaignID, customerID int64) error) error {
	custID := ptr(customerID)
	if customerID <= 0 {
		return s.fail(action, nil, custID, model.NewValidationError("customer_id", "must be a positive integer"))
	}
	id, err := s.resolve(campaignID, session.TabCustomers, nil)
	if err != nil {
		return s.fail(action, nil, custID, err)
	}
	cid := ptr(id)

	release, err := s.acquire(ctx, fmt.Sprintf("campaign:%d:customer:%d", id, customerID))
	if err != nil {
		return s.fail(action, cid, custID, err)
	}
	defer release()

	if err := call(ctx, id, customerID); err != nil {
		logger.Warn("customer action failed", "action", action, "campaign_id", id, "customer_id", customerID, "error", err)
		return s.fail(action, cid, custID, err)
	}

	verb := "paused"
	if action == actionResumeCustomer {
		verb = "resumed"
	}
	s.succeed(action, cid, custID, fmt.Sprintf("customer %d %s in campaign %d", customerID, verb, id))
	if err := s.LoadProgress(ctx, id); err != nil {
		logger.Warn("progress reload failed", "campaign_id", id, "error", err)
	}
	return nil
}
