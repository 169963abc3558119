package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/wizard"
	xhttp "github.com/nimasrn/campaign-console/pkg/http"
)

type WizardService interface {
	OpenWizard(campaignID int64) (wizard.State, error)
	WizardState() (wizard.State, error)
	UpdateWizardForm(f wizard.Form) (wizard.State, error)
	WizardNext() (wizard.State, error)
	WizardPrev() (wizard.State, error)
	SubmitWizard(ctx context.Context) (*model.Campaign, error)
	CloseWizard()
}

func registerWizardRoutes(e *router.Group, h *ConsoleHandler) {
	e.POST("/wizard", h.OpenWizard)
	e.GET("/wizard", h.WizardState)
	e.DELETE("/wizard", h.CloseWizard)
	e.PUT("/wizard/form", h.UpdateWizardForm)
	e.POST("/wizard/next", h.WizardNext)
	e.POST("/wizard/prev", h.WizardPrev)
	e.POST("/wizard/submit", h.SubmitWizard)
}

func writeState(ctx *xhttp.RequestCtx, state wizard.State, err error) {
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, state)
}

// OpenWizard opens the create flow, or the edit flow with ?campaign_id=.
func (h *ConsoleHandler) OpenWizard(ctx *xhttp.RequestCtx) {
	id, err := queryID(ctx, "campaign_id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	state, err := h.svc.OpenWizard(id)
	writeState(ctx, state, err)
}

func (h *ConsoleHandler) WizardState(ctx *xhttp.RequestCtx) {
	state, err := h.svc.WizardState()
	writeState(ctx, state, err)
}

func (h *ConsoleHandler) UpdateWizardForm(ctx *xhttp.RequestCtx) {
	var f wizard.Form
	if err := readJSON(ctx, &f); err != nil {
		writeError(ctx, err)
		return
	}
	state, err := h.svc.UpdateWizardForm(f)
	writeState(ctx, state, err)
}

func (h *ConsoleHandler) WizardNext(ctx *xhttp.RequestCtx) {
	state, err := h.svc.WizardNext()
	writeState(ctx, state, err)
}

func (h *ConsoleHandler) WizardPrev(ctx *xhttp.RequestCtx) {
	state, err := h.svc.WizardPrev()
	writeState(ctx, state, err)
}

func (h *ConsoleHandler) SubmitWizard(ctx *xhttp.RequestCtx) {
	c, err := h.svc.SubmitWizard(ctx)
	if errors.Is(err, wizard.ErrNoChanges) {
		writeJSON(ctx, xhttp.StatusOK, map[string]any{"campaign": nil, "changed": false})
		return
	}
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]any{"campaign": c, "changed": true})
}

func (h *ConsoleHandler) CloseWizard(ctx *xhttp.RequestCtx) {
	h.svc.CloseWizard()
	ctx.SetStatusCode(xhttp.StatusNoContent)
}
