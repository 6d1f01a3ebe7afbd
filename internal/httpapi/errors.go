package httpapi

import (
	"errors"
	"net/http"

	"garageleadly/internal/audit"
	"garageleadly/internal/billing"
	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/internal/pricing"
	"garageleadly/internal/reporting"
	"garageleadly/internal/routing"
	"garageleadly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, leads.ErrNotFound),
		errors.Is(err, contractors.ErrNotFound),
		errors.Is(err, contractors.ErrCampaignNotFound),
		errors.Is(err, billing.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, leads.ErrInvalidArgument),
		errors.Is(err, contractors.ErrInvalidArgument),
		errors.Is(err, billing.ErrInvalidArgument),
		errors.Is(err, billing.ErrInvalidSignature),
		errors.Is(err, pricing.ErrInvalidPricingReq),
		errors.Is(err, reporting.ErrInvalidRequest),
		errors.Is(err, audit.ErrInvalidEvent):
		return http.StatusBadRequest
	case errors.Is(err, routing.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, leads.ErrInvalidTransition),
		errors.Is(err, leads.ErrConflict),
		errors.Is(err, routing.ErrCapacityExceeded),
		errors.Is(err, routing.ErrAssignmentConflict),
		errors.Is(err, routing.ErrContractorInactive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts with the mapped status. Internal errors are logged and not echoed.
func writeError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(code, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
