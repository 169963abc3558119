package gateway

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/valyala/fasthttp"
)

type deleteResponse struct {
	Detail string `json:"detail"`
}

func (c *Client) ListCampaigns(ctx context.Context, filter model.CampaignFilter) ([]*model.Campaign, error) {
	var query *fasthttp.Args
	if filter.Status != "" {
		query = &fasthttp.Args{}
		query.Set("status", string(filter.Status))
	}
	var resp model.CampaignListResponse
	if err := c.do(ctx, "load campaigns", fasthttp.MethodGet, "/campaigns", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Campaigns, nil
}

func (c *Client) CreateCampaign(ctx context.Context, payload model.CampaignPayload) (*model.Campaign, error) {
	var out model.Campaign
	if err := c.do(ctx, "create campaign", fasthttp.MethodPost, "/campaigns", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCampaign(ctx context.Context, id int64, payload model.CampaignPayload) (*model.Campaign, error) {
	var out model.Campaign
	if err := c.do(ctx, "update campaign", fasthttp.MethodPatch, fmt.Sprintf("/campaigns/%d", id), nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	return c.transition(ctx, "start campaign", id, "start")
}

func (c *Client) StopCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	return c.transition(ctx, "stop campaign", id, "stop")
}

func (c *Client) transition(ctx context.Context, op string, id int64, verb string) (*model.Campaign, error) {
	var out model.Campaign
	if err := c.do(ctx, op, fasthttp.MethodPost, fmt.Sprintf("/campaigns/%d/%s", id, verb), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCampaign returns the server's confirmation text.
func (c *Client) DeleteCampaign(ctx context.Context, id int64) (string, error) {
	var out deleteResponse
	if err := c.do(ctx, "delete campaign", fasthttp.MethodDelete, fmt.Sprintf("/campaigns/%d", id), nil, nil, &out); err != nil {
		return "", err
	}
	if out.Detail == "" {
		out.Detail = fmt.Sprintf("campaign %d deleted", id)
	}
	return out.Detail, nil
}

func (c *Client) ListSteps(ctx context.Context, campaignID int64) ([]*model.Step, error) {
	var resp model.StepListResponse
	if err := c.do(ctx, "load steps", fasthttp.MethodGet, fmt.Sprintf("/campaigns/%d/steps", campaignID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Steps, nil
}

func (c *Client) CreateStep(ctx context.Context, campaignID int64, payload model.StepPayload) (*model.Step, error) {
	var out model.Step
	if err := c.do(ctx, "create step", fasthttp.MethodPost, fmt.Sprintf("/campaigns/%d/steps", campaignID), nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStep(ctx context.Context, stepID int64, payload model.StepPayload) (*model.Step, error) {
	var out model.Step
	if err := c.do(ctx, "update step", fasthttp.MethodPatch, fmt.Sprintf("/steps/%d", stepID), nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteStep(ctx context.Context, stepID int64) error {
	return c.do(ctx, "delete step", fasthttp.MethodDelete, fmt.Sprintf("/steps/%d", stepID), nil, nil, nil)
}

func (c *Client) ListExecutions(ctx context.Context, campaignID int64, filter model.ExecutionFilter) ([]*model.Execution, error) {
	query := &fasthttp.Args{}
	if filter.StepID != nil {
		query.Set("step_id", strconv.FormatInt(*filter.StepID, 10))
	}
	if filter.CustomerID != nil {
		query.Set("customer_id", strconv.FormatInt(*filter.CustomerID, 10))
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	var resp model.ExecutionListResponse
	if err := c.do(ctx, "load executions", fasthttp.MethodGet, fmt.Sprintf("/campaigns/%d/executions", campaignID), query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Executions, nil
}

func (c *Client) CreateExecution(ctx context.Context, campaignID int64, payload model.ExecutionPayload) (*model.Execution, error) {
	var out model.Execution
	if err := c.do(ctx, "create execution", fasthttp.MethodPost, fmt.Sprintf("/campaigns/%d/executions", campaignID), nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateExecution(ctx context.Context, executionID int64, payload model.ExecutionPayload) (*model.Execution, error) {
	var out model.Execution
	if err := c.do(ctx, "update execution", fasthttp.MethodPatch, fmt.Sprintf("/executions/%d", executionID), nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteExecution(ctx context.Context, executionID int64) error {
	return c.do(ctx, "delete execution", fasthttp.MethodDelete, fmt.Sprintf("/executions/%d", executionID), nil, nil, nil)
}

func (c *Client) CustomerProgress(ctx context.Context, campaignID int64) ([]*model.CustomerProgress, error) {
	var resp model.ProgressResponse
	if err := c.do(ctx, "load customer progress", fasthttp.MethodGet, fmt.Sprintf("/campaigns/%d/customers/progress", campaignID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Customers, nil
}

func (c *Client) PauseCustomer(ctx context.Context, campaignID, customerID int64) error {
	return c.do(ctx, "pause customer", fasthttp.MethodPost, fmt.Sprintf("/campaigns/%d/customers/%d/pause", campaignID, customerID), nil, nil, nil)
}

func (c *Client) ResumeCustomer(ctx context.Context, campaignID, customerID int64) error {
	return c.do(ctx, "resume customer", fasthttp.MethodPost, fmt.Sprintf("/campaigns/%d/customers/%d/resume", campaignID, customerID), nil, nil, nil)
}
