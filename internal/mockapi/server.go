package mockapi

import (
	"crypto/subtle"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/rs/zerolog"
)

type Config struct {
	// Token and APIKey are the accepted credentials. With both empty the
	// API is open.
	Token  string
	APIKey string

	// every request sleeps a random duration in [MinDelay, MaxDelay)
	MinDelay time.Duration
	MaxDelay time.Duration

	Logger zerolog.Logger
}

type Handler struct {
	store  *Store
	config Config
	log    zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewHandler(store *Store, config Config) *Handler {
	return &Handler{
		store:  store,
		config: config,
		log:    config.Logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetupRouter configures all routes of the campaign API.
func SetupRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger(), h.delay())

	router.GET("/health", h.HealthCheck)

	api := router.Group("/", h.authenticate())
	{
		api.GET("/campaigns", h.ListCampaigns)
		api.POST("/campaigns", h.CreateCampaign)
		api.PATCH("/campaigns/:id", h.UpdateCampaign)
		api.DELETE("/campaigns/:id", h.DeleteCampaign)
		api.POST("/campaigns/:id/start", h.StartCampaign)
		api.POST("/campaigns/:id/stop", h.StopCampaign)

		api.GET("/campaigns/:id/steps", h.ListSteps)
		api.POST("/campaigns/:id/steps", h.CreateStep)
		api.PATCH("/steps/:id", h.UpdateStep)
		api.DELETE("/steps/:id", h.DeleteStep)

		api.GET("/campaigns/:id/executions", h.ListExecutions)
		api.POST("/campaigns/:id/executions", h.CreateExecution)
		api.PATCH("/executions/:id", h.UpdateExecution)
		api.DELETE("/executions/:id", h.DeleteExecution)

		api.GET("/campaigns/:id/customers/progress", h.CustomerProgress)
		api.POST("/campaigns/:id/customers/:customer_id/pause", h.PauseCustomer)
		api.POST("/campaigns/:id/customers/:customer_id/resume", h.ResumeCustomer)
	}
	return router
}

/* -------------------------------- middleware -------------------------------- */

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetHeader("X-Request-Id")).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request processed")
	}
}

func (h *Handler) delay() gin.HandlerFunc {
	return func(c *gin.Context) {
		if d := h.randomDelay(); d > 0 {
			time.Sleep(d)
		}
		c.Next()
	}
}

func (h *Handler) randomDelay() time.Duration {
	delta := h.config.MaxDelay - h.config.MinDelay
	if delta <= 0 {
		return h.config.MinDelay
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config.MinDelay + time.Duration(h.rng.Int63n(int64(delta)))
}

func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.config.Token == "" && h.config.APIKey == "" {
			c.Next()
			return
		}
		if bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok && h.config.Token != "" && equal(bearer, h.config.Token) {
			c.Next()
			return
		}
		if key := c.GetHeader("X-API-Key"); key != "" && h.config.APIKey != "" && equal(key, h.config.APIKey) {
			c.Next()
			return
		}
		h.log.Warn().Str("path", c.Request.URL.Path).Msg("Rejected request without valid credential")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

/* ---------------------------------- helpers --------------------------------- */

type fieldError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// invalid answers 422 with a detail list naming the offending field.
func invalid(c *gin.Context, field, msg string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []fieldError{{Loc: []string{"body", field}, Msg: msg}}})
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	}
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []fieldError{{Loc: []string{"path", name}, Msg: "value is not a valid integer"}}})
		return 0, false
	}
	return id, true
}

func optionalQueryID(c *gin.Context, name string) (*int64, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []fieldError{{Loc: []string{"query", name}, Msg: "value is not a valid integer"}}})
		return nil, false
	}
	return &id, true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			invalid(c, verr.Field, verr.Message)
			return false
		}
		invalid(c, "body", err.Error())
		return false
	}
	return true
}

/* --------------------------------- handlers --------------------------------- */

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

func (h *Handler) ListCampaigns(c *gin.Context) {
	status, err := model.ParseStatus(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []fieldError{{Loc: []string{"query", "status"}, Msg: err.Error()}}})
		return
	}
	c.JSON(http.StatusOK, model.CampaignListResponse{Campaigns: h.store.ListCampaigns(status)})
}

func (h *Handler) CreateCampaign(c *gin.Context) {
	var p model.CampaignPayload
	if !bind(c, &p) {
		return
	}
	if strings.TrimSpace(p.Name.Value) == "" {
		invalid(c, "name", "field required")
		return
	}
	if p.Channel.Set {
		if _, err := model.ParseChannel(string(p.Channel.Value)); err != nil {
			invalid(c, "channel", err.Error())
			return
		}
	}
	created := h.store.CreateCampaign(p)
	h.log.Info().Int64("campaign_id", created.ID).Str("status", string(created.Status)).Msg("Campaign created")
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateCampaign(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p model.CampaignPayload
	if !bind(c, &p) {
		return
	}
	if p.Name.Set && strings.TrimSpace(p.Name.Value) == "" {
		invalid(c, "name", "must not be empty")
		return
	}
	updated, err := h.store.UpdateCampaign(id, p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteCampaign(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteCampaign(id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Campaign deleted"})
}

func (h *Handler) StartCampaign(c *gin.Context) {
	h.transition(c, h.store.StartCampaign)
}

func (h *Handler) StopCampaign(c *gin.Context) {
	h.transition(c, h.store.StopCampaign)
}

func (h *Handler) transition(c *gin.Context, fn func(int64) (*model.Campaign, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	campaign, err := fn(id)
	if err != nil {
		fail(c, err)
		return
	}
	h.log.Info().Int64("campaign_id", id).Str("status", string(campaign.Status)).Msg("Campaign status changed")
	c.JSON(http.StatusOK, campaign)
}

func (h *Handler) ListSteps(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	steps, err := h.store.ListSteps(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StepListResponse{Steps: steps})
}

func validStep(c *gin.Context, p model.StepPayload) bool {
	if p.OrderNo.Set && p.OrderNo.Value <= 0 {
		invalid(c, "order_no", "ensure this value is greater than 0")
		return false
	}
	if p.DelayDays.Set && p.DelayDays.Value < 0 {
		invalid(c, "delay_days", "ensure this value is greater than or equal to 0")
		return false
	}
	return true
}

func (h *Handler) CreateStep(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p model.StepPayload
	if !bind(c, &p) {
		return
	}
	if !p.OrderNo.Set {
		invalid(c, "order_no", "field required")
		return
	}
	if !validStep(c, p) {
		return
	}
	step, err := h.store.CreateStep(id, p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, step)
}

func (h *Handler) UpdateStep(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p model.StepPayload
	if !bind(c, &p) || !validStep(c, p) {
		return
	}
	step, err := h.store.UpdateStep(id, p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

func (h *Handler) DeleteStep(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteStep(id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Step deleted"})
}

func (h *Handler) ListExecutions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var f model.ExecutionFilter
	if f.StepID, ok = optionalQueryID(c, "step_id"); !ok {
		return
	}
	if f.CustomerID, ok = optionalQueryID(c, "customer_id"); !ok {
		return
	}
	f.Status = c.Query("status")

	executions, err := h.store.ListExecutions(id, f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ExecutionListResponse{Executions: executions})
}

func (h *Handler) CreateExecution(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p model.ExecutionPayload
	if !bind(c, &p) {
		return
	}
	if !p.StepID.Set {
		invalid(c, "step_id", "field required")
		return
	}
	if !p.CustomerID.Set {
		invalid(c, "customer_id", "field required")
		return
	}
	execution, err := h.store.CreateExecution(id, p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, execution)
}

func (h *Handler) UpdateExecution(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p model.ExecutionPayload
	if !bind(c, &p) {
		return
	}
	execution, err := h.store.UpdateExecution(id, p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, execution)
}

func (h *Handler) DeleteExecution(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteExecution(id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Execution deleted"})
}

func (h *Handler) CustomerProgress(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rows, err := h.store.Progress(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ProgressResponse{CampaignID: id, Customers: rows})
}

func (h *Handler) PauseCustomer(c *gin.Context) {
	h.setPaused(c, true)
}

func (h *Handler) ResumeCustomer(c *gin.Context) {
	h.setPaused(c, false)
}

func (h *Handler) setPaused(c *gin.Context, paused bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	customerID, ok := paramID(c, "customer_id")
	if !ok {
		return
	}
	if err := h.store.SetPaused(id, customerID, paused); err != nil {
		fail(c, err)
		return
	}
	state := "resumed"
	if paused {
		state = "paused"
	}
	h.log.Info().Int64("campaign_id", id).Int64("customer_id", customerID).Str("state", state).Msg("Customer updated")
	c.JSON(http.StatusOK, gin.H{"detail": "Customer " + state})
}
