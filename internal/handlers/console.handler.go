package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/campaign-console/internal/cache"
	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/services"
	"github.com/nimasrn/campaign-console/internal/session"
	xhttp "github.com/nimasrn/campaign-console/pkg/http"
)

type ConsoleService interface {
	Session() session.Context
	Notices() []services.Notice
	Journal(ctx context.Context, f model.ActionRecordFilter) ([]*model.ActionRecord, int64, error)

	ListCampaigns(ctx context.Context, q services.CampaignQuery) (services.CampaignPage, error)
	AvailableActions(id int64) ([]model.CampaignAction, error)
	Select(ctx context.Context, campaignID int64, tab session.Tab) error
	StartCampaign(ctx context.Context, id int64) error
	StopCampaign(ctx context.Context, id int64) error
	DeleteCampaign(ctx context.Context, id int64, confirm bool) error

	ListSteps(ctx context.Context, field *string) (cache.Snapshot[*model.Step], error)
	StepsSnapshot() cache.Snapshot[*model.Step]
	CreateStep(ctx context.Context, campaignID int64, p model.StepPayload) (*model.Step, error)
	UpdateStep(ctx context.Context, stepID int64, p model.StepPayload) (*model.Step, error)
	DeleteStep(ctx context.Context, stepID int64) error

	ListExecutions(ctx context.Context, q services.ExecutionQuery) (cache.Snapshot[*model.Execution], error)
	ExecutionsSnapshot() cache.Snapshot[*model.Execution]
	CreateExecution(ctx context.Context, campaignID int64, p model.ExecutionPayload) (*model.Execution, error)
	UpdateExecution(ctx context.Context, executionID int64, p model.ExecutionPayload) (*model.Execution, error)
	DeleteExecution(ctx context.Context, executionID int64) error

	ListProgress(ctx context.Context, field *string) (cache.Snapshot[*model.CustomerProgress], error)
	ProgressSnapshot() cache.Snapshot[*model.CustomerProgress]
	PauseCustomer(ctx context.Context, campaignID, customerID int64) error
	ResumeCustomer(ctx context.Context, campaignID, customerID int64) error

	WizardService
}

type ConsoleHandler struct {
	svc ConsoleService
}

func NewConsoleHandler(svc ConsoleService) *ConsoleHandler {
	return &ConsoleHandler{svc: svc}
}

func RegisterConsoleRoutes(e *router.Group, h *ConsoleHandler) {
	e.GET("/campaigns", h.ListCampaigns)
	e.POST("/campaigns/{id}/select", h.SelectCampaign)
	e.POST("/campaigns/{id}/start", h.StartCampaign)
	e.POST("/campaigns/{id}/stop", h.StopCampaign)
	e.DELETE("/campaigns/{id}", h.DeleteCampaign)
	e.GET("/campaigns/{id}/actions", h.CampaignActions)

	e.GET("/steps", h.ListSteps)
	e.POST("/steps", h.CreateStep)
	e.PATCH("/steps/{id}", h.UpdateStep)
	e.DELETE("/steps/{id}", h.DeleteStep)

	e.GET("/executions", h.ListExecutions)
	e.POST("/executions", h.CreateExecution)
	e.PATCH("/executions/{id}", h.UpdateExecution)
	e.DELETE("/executions/{id}", h.DeleteExecution)

	e.GET("/customers", h.ListCustomers)
	e.POST("/customers/{customerId}/pause", h.PauseCustomer)
	e.POST("/customers/{customerId}/resume", h.ResumeCustomer)

	e.GET("/notices", h.Notices)
	e.GET("/journal", h.Journal)
	e.GET("/session", h.Session)

	registerWizardRoutes(e, h)
}

type actionResponse struct {
	CampaignID int64  `json:"campaign_id"`
	CustomerID int64  `json:"customer_id,omitempty"`
	Action     string `json:"action"`
	OK         bool   `json:"ok"`
}

/* -------------------------------- campaigns --------------------------------- */

func (h *ConsoleHandler) ListCampaigns(ctx *xhttp.RequestCtx) {
	page, err := queryInt(ctx, "page")
	if err != nil {
		writeError(ctx, err)
		return
	}
	size, err := queryInt(ctx, "page_size")
	if err != nil {
		writeError(ctx, err)
		return
	}
	q := services.CampaignQuery{
		Status:   queryPtr(ctx, "status"),
		Keyword:  queryPtr(ctx, "q"),
		Page:     page,
		PageSize: size,
		Refresh:  ctx.QueryArgs().GetBool("refresh"),
	}

	out, err := h.svc.ListCampaigns(ctx, q)
	if err != nil && out.Error == "" {
		// rejected before any load
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, out)
}

func (h *ConsoleHandler) SelectCampaign(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	view := query(ctx, "view")
	if view == "" {
		view = string(session.TabSteps)
	}
	tab, ok := session.ParseTab(view)
	if !ok || !tab.CampaignScoped() {
		writeError(ctx, model.NewValidationError("view", "must be steps, executions or customers, got %q", view))
		return
	}

	// a failed load is reported in the list body, the selection still holds
	_ = h.svc.Select(ctx, id, tab)
	switch tab {
	case session.TabSteps:
		writeJSON(ctx, xhttp.StatusOK, toList(h.svc.StepsSnapshot()))
	case session.TabExecutions:
		writeJSON(ctx, xhttp.StatusOK, toList(h.svc.ExecutionsSnapshot()))
	default:
		writeJSON(ctx, xhttp.StatusOK, toList(h.svc.ProgressSnapshot()))
	}
}

func (h *ConsoleHandler) StartCampaign(ctx *xhttp.RequestCtx) {
	h.campaignAction(ctx, "start", h.svc.StartCampaign)
}

func (h *ConsoleHandler) StopCampaign(ctx *xhttp.RequestCtx) {
	h.campaignAction(ctx, "stop", h.svc.StopCampaign)
}

func (h *ConsoleHandler) DeleteCampaign(ctx *xhttp.RequestCtx) {
	confirm := ctx.QueryArgs().GetBool("confirm")
	h.campaignAction(ctx, "delete", func(c context.Context, id int64) error {
		return h.svc.DeleteCampaign(c, id, confirm)
	})
}

func (h *ConsoleHandler) campaignAction(ctx *xhttp.RequestCtx, action string, fn func(context.Context, int64) error) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := fn(ctx, id); err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, actionResponse{CampaignID: id, Action: action, OK: true})
}

func (h *ConsoleHandler) CampaignActions(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	actions, err := h.svc.AvailableActions(id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]any{"campaign_id": id, "actions": actions})
}

/* ---------------------------------- steps ----------------------------------- */

func (h *ConsoleHandler) ListSteps(ctx *xhttp.RequestCtx) {
	snap, err := h.svc.ListSteps(ctx, queryPtr(ctx, "campaign_id"))
	if err != nil && snap.Err == nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, toList(snap))
}

func (h *ConsoleHandler) CreateStep(ctx *xhttp.RequestCtx) {
	campaignID, err := queryID(ctx, "campaign_id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	var p model.StepPayload
	if err := readJSON(ctx, &p); err != nil {
		writeError(ctx, err)
		return
	}
	step, err := h.svc.CreateStep(ctx, campaignID, p)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, step)
}

func (h *ConsoleHandler) UpdateStep(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	var p model.StepPayload
	if err := readJSON(ctx, &p); err != nil {
		writeError(ctx, err)
		return
	}
	step, err := h.svc.UpdateStep(ctx, id, p)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, step)
}

func (h *ConsoleHandler) DeleteStep(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := h.svc.DeleteStep(ctx, id); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

/* -------------------------------- executions -------------------------------- */

func (h *ConsoleHandler) ListExecutions(ctx *xhttp.RequestCtx) {
	snap, err := h.svc.ListExecutions(ctx, services.ExecutionQuery{
		CampaignField: queryPtr(ctx, "campaign_id"),
		StepField:     queryPtr(ctx, "step_id"),
		CustomerField: queryPtr(ctx, "customer_id"),
		StatusField:   queryPtr(ctx, "status"),
	})
	if err != nil && snap.Err == nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, toList(snap))
}

func (h *ConsoleHandler) CreateExecution(ctx *xhttp.RequestCtx) {
	campaignID, err := queryID(ctx, "campaign_id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	var p model.ExecutionPayload
	if err := readJSON(ctx, &p); err != nil {
		writeError(ctx, err)
		return
	}
	exec, err := h.svc.CreateExecution(ctx, campaignID, p)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, exec)
}

func (h *ConsoleHandler) UpdateExecution(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	var p model.ExecutionPayload
	if err := readJSON(ctx, &p); err != nil {
		writeError(ctx, err)
		return
	}
	exec, err := h.svc.UpdateExecution(ctx, id, p)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, exec)
}

func (h *ConsoleHandler) DeleteExecution(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := h.svc.DeleteExecution(ctx, id); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

/* --------------------------------- customers -------------------------------- */

func (h *ConsoleHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	snap, err := h.svc.ListProgress(ctx, queryPtr(ctx, "campaign_id"))
	if err != nil && snap.Err == nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, toList(snap))
}

func (h *ConsoleHandler) PauseCustomer(ctx *xhttp.RequestCtx) {
	h.customerAction(ctx, "pause", h.svc.PauseCustomer)
}

func (h *ConsoleHandler) ResumeCustomer(ctx *xhttp.RequestCtx) {
	h.customerAction(ctx, "resume", h.svc.ResumeCustomer)
}

func (h *ConsoleHandler) customerAction(ctx *xhttp.RequestCtx, action string, fn func(context.Context, int64, int64) error) {
	customerID, err := pathID(ctx, "customerId")
	if err != nil {
		writeError(ctx, err)
		return
	}
	campaignID, err := queryID(ctx, "campaign_id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := fn(ctx, campaignID, customerID); err != nil {
		writeError(ctx, err)
		return
	}
	if campaignID == 0 {
		campaignID = h.svc.Session().ActiveCampaignID
	}
	writeJSON(ctx, xhttp.StatusOK, actionResponse{CampaignID: campaignID, CustomerID: customerID, Action: action, OK: true})
}

/* ----------------------------------- misc ----------------------------------- */

func (h *ConsoleHandler) Notices(ctx *xhttp.RequestCtx) {
	writeJSON(ctx, xhttp.StatusOK, map[string]any{"notices": h.svc.Notices()})
}

type journalResponse struct {
	Items []*model.ActionRecord `json:"items"`
	Total int64                 `json:"total"`
}

func (h *ConsoleHandler) Journal(ctx *xhttp.RequestCtx) {
	var f model.ActionRecordFilter
	campaignID, err := queryID(ctx, "campaign_id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	if campaignID > 0 {
		f.CampaignID = &campaignID
	}
	f.Action = query(ctx, "action")
	if f.Limit, err = queryInt(ctx, "limit"); err != nil {
		writeError(ctx, err)
		return
	}
	if f.Offset, err = queryInt(ctx, "offset"); err != nil {
		writeError(ctx, err)
		return
	}

	items, total, err := h.svc.Journal(ctx, f)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if items == nil {
		items = []*model.ActionRecord{}
	}
	writeJSON(ctx, xhttp.StatusOK, journalResponse{Items: items, Total: total})
}

func (h *ConsoleHandler) Session(ctx *xhttp.RequestCtx) {
	writeJSON(ctx, xhttp.StatusOK, h.svc.Session())
}
