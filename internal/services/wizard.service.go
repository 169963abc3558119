package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/wizard"
	"github.com/nimasrn/campaign-console/pkg/logger"
)

// OpenWizard opens the campaign wizard. A zero campaignID starts a new
// campaign; otherwise the loaded row is prefilled for editing. An open
// wizard is replaced.
func (s *ConsoleService) OpenWizard(campaignID int64) (wizard.State, error) {
	var w *wizard.Wizard
	if campaignID == 0 {
		w = wizard.NewCreate()
	} else {
		c, ok := s.cachedCampaign(campaignID)
		if !ok {
			return wizard.State{}, ErrCampaignNotLoaded
		}
		var err error
		if w, err = wizard.NewEdit(c); err != nil {
			return wizard.State{}, err
		}
	}

	s.wizMu.Lock()
	defer s.wizMu.Unlock()
	s.wizard = w
	return w.State(), nil
}

// withWizard runs fn on the open wizard.
func (s *ConsoleService) withWizard(fn func(w *wizard.Wizard)) (wizard.State, error) {
	s.wizMu.Lock()
	defer s.wizMu.Unlock()
	if s.wizard == nil {
		return wizard.State{}, ErrWizardNotOpen
	}
	fn(s.wizard)
	return s.wizard.State(), nil
}

func (s *ConsoleService) WizardState() (wizard.State, error) {
	return s.withWizard(func(*wizard.Wizard) {})
}

func (s *ConsoleService) UpdateWizardForm(f wizard.Form) (wizard.State, error) {
	return s.withWizard(func(w *wizard.Wizard) { w.SetForm(f) })
}

func (s *ConsoleService) WizardNext() (wizard.State, error) {
	return s.withWizard(func(w *wizard.Wizard) { w.Next() })
}

func (s *ConsoleService) WizardPrev() (wizard.State, error) {
	return s.withWizard(func(w *wizard.Wizard) { w.Prev() })
}

func (s *ConsoleService) CloseWizard() {
	s.wizMu.Lock()
	defer s.wizMu.Unlock()
	s.wizard = nil
}

// SubmitWizard validates the form and sends it. On failure the wizard stays
// open on its screen; on success it is reset, closed and campaigns reload.
func (s *ConsoleService) SubmitWizard(ctx context.Context) (*model.Campaign, error) {
	s.wizMu.Lock()
	defer s.wizMu.Unlock()
	if s.wizard == nil {
		return nil, ErrWizardNotOpen
	}
	w := s.wizard

	action := actionCreateCampaign
	var cid *int64
	if w.Mode() == wizard.ModeEdit {
		action = actionUpdateCampaign
		cid = ptr(w.CampaignID())
	}

	if err := w.Ready(); err != nil {
		return nil, s.fail(action, cid, nil, err)
	}
	payload, err := w.Build(s.now())
	if errors.Is(err, wizard.ErrNoChanges) {
		s.notices.Push(NoticeInfo, KindValidation, "no changes to save")
		w.Reset()
		s.wizard = nil
		return nil, err
	}
	if err != nil {
		return nil, s.fail(action, cid, nil, err)
	}

	var c *model.Campaign
	if w.Mode() == wizard.ModeEdit {
		c, err = s.api.UpdateCampaign(ctx, w.CampaignID(), payload)
	} else {
		c, err = s.api.CreateCampaign(ctx, payload)
	}
	if err != nil {
		logger.Warn("campaign submit failed", "mode", w.Mode(), "campaign_id", w.CampaignID(), "error", err)
		return nil, s.fail(action, cid, nil, err)
	}

	text := "campaign created"
	if c != nil {
		cid = ptr(c.ID)
		text = fmt.Sprintf("campaign %d %q saved", c.ID, c.Name)
	}
	s.succeed(action, cid, nil, text)
	w.Reset()
	s.wizard = nil
	_ = s.ReloadCampaigns(ctx)
	return c, nil
}
