package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/nimasrn/campaign-console/internal/cache"
	"github.com/nimasrn/campaign-console/internal/gateway"
	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/services"
	xhttp "github.com/nimasrn/campaign-console/pkg/http"
	"github.com/nimasrn/campaign-console/pkg/logger"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// listResponse is a cache snapshot as served to the front end. A failed
// load carries Error and no items.
type listResponse[T any] struct {
	Scope    cache.Scope `json:"scope"`
	Items    []T         `json:"items"`
	Loaded   bool        `json:"loaded"`
	LoadedAt string      `json:"loaded_at,omitempty"`
	Error    string      `json:"error,omitempty"`
	Kind     string      `json:"kind,omitempty"`
}

func toList[T any](snap cache.Snapshot[T]) listResponse[T] {
	out := listResponse[T]{Scope: snap.Scope, Items: snap.Items, Loaded: snap.Loaded}
	if out.Items == nil {
		out.Items = []T{}
	}
	if !snap.LoadedAt.IsZero() {
		out.LoadedAt = snap.LoadedAt.UTC().Format(time.RFC3339)
	}
	if snap.Err != nil {
		out.Error = snap.ErrText()
		out.Kind = services.ErrorKind(snap.Err)
	}
	return out
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return model.NewValidationError("body", "request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return model.NewValidationError("body", "invalid JSON: %v", err)
	}
	return nil
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response", "path", string(ctx.Path()), "error", err)
		ctx.Error(xhttp.StatusText(xhttp.StatusInternalServerError), xhttp.StatusInternalServerError)
		return
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

// writeError renders err as {"error", "kind"} with a status derived from
// its kind.
func writeError(ctx *xhttp.RequestCtx, err error) {
	kind := services.ErrorKind(err)
	writeJSON(ctx, statusFor(kind, err), errorResponse{Error: err.Error(), Kind: kind})
}

func statusFor(kind string, err error) int {
	switch kind {
	case services.KindValidation, services.KindScope:
		return xhttp.StatusBadRequest
	case services.KindUnauthorized:
		return xhttp.StatusUnauthorized
	case services.KindConflict:
		return xhttp.StatusConflict
	}
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return apiErr.StatusCode
	}
	return xhttp.StatusBadGateway
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

// queryPtr distinguishes an absent parameter from an empty one.
func queryPtr(ctx *xhttp.RequestCtx, key string) *string {
	if !ctx.QueryArgs().Has(key) {
		return nil
	}
	v := query(ctx, key)
	return &v
}

func queryInt(ctx *xhttp.RequestCtx, key string) (int, error) {
	v := query(ctx, key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, model.NewValidationError(key, "must be a non-negative integer, got %q", v)
	}
	return n, nil
}

// queryID reads an optional positive id; absent is zero.
func queryID(ctx *xhttp.RequestCtx, key string) (int64, error) {
	v := query(ctx, key)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError(key, "must be a positive integer, got %q", v)
	}
	return id, nil
}

func pathID(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError(name, "must be a positive integer, got %q", v)
	}
	return id, nil
}
