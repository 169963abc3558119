package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized is matched by every 401 response. Its text is what the
// operator sees, since the credential rather than the operation is at fault.
var ErrUnauthorized = errors.New("credential missing or invalid")

// APIError is a failed call to the campaign API: either a non-2xx response or
// a transport failure (StatusCode 0).
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 401 {
		return ErrUnauthorized.Error()
	}
	return e.Detail
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == 401 {
		return ErrUnauthorized
	}
	return e.Err
}

// IsConflict reports a 409, which the API uses for illegal transitions and
// duplicate step order numbers.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == 409
}

func fallbackDetail(op string) string {
	return "failed to " + op
}

// parseDetail extracts the human readable "detail" field of an error body.
// A list of validation entries is flattened to their "msg" texts.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var entries []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(envelope.Detail, &entries); err == nil && len(entries) > 0 {
		msgs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Msg == "" {
				continue
			}
			if len(e.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", e.Loc[len(e.Loc)-1], e.Msg))
				continue
			}
			msgs = append(msgs, e.Msg)
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	if string(envelope.Detail) == "null" {
		return ""
	}
	return string(envelope.Detail)
}

func newAPIError(op string, status int, body []byte) *APIError {
	detail := parseDetail(body)
	if detail == "" {
		detail = fallbackDetail(op)
	}
	return &APIError{Op: op, StatusCode: status, Detail: detail}
}

func newTransportError(op string, err error) *APIError {
	return &APIError{Op: op, Detail: fmt.Sprintf("%s: %v", fallbackDetail(op), err), Err: err}
}
