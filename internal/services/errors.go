package services

import (
	"errors"

	"github.com/nimasrn/campaign-console/internal/gateway"
	"github.com/nimasrn/campaign-console/internal/model"
	"github.com/nimasrn/campaign-console/internal/scope"
	"github.com/nimasrn/campaign-console/internal/wizard"
)

var (
	ErrIllegalTransition    = errors.New("action is not allowed in the campaign's current status")
	ErrConfirmationRequired = errors.New("deleting a campaign must be confirmed")
	ErrActionInFlight       = errors.New("the same action is already in progress")
	ErrCampaignNotLoaded    = errors.New("campaign is not in the loaded list, reload campaigns first")
	ErrWizardNotOpen        = errors.New("the campaign wizard is not open")
)

const (
	KindValidation   = "validation"
	KindHTTP         = "http"
	KindUnauthorized = "unauthorized"
	KindScope        = "scope"
	KindConflict     = "conflict"
)

// ErrorKind classifies err for the front end.
func ErrorKind(err error) string {
	var verr *model.ValidationError
	var apiErr *gateway.APIError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, ErrConfirmationRequired),
		errors.Is(err, ErrWizardNotOpen),
		errors.Is(err, wizard.ErrNotOnReviewScreen),
		errors.Is(err, wizard.ErrNotEditable),
		errors.Is(err, wizard.ErrNoChanges):
		return KindValidation
	case errors.Is(err, gateway.ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, scope.ErrNoCampaignScope), errors.Is(err, ErrCampaignNotLoaded):
		return KindScope
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrActionInFlight):
		return KindConflict
	case errors.As(err, &apiErr) && apiErr.IsConflict():
		return KindConflict
	}
	return KindHTTP
}
