package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"garageleadly/internal/audit"
	"garageleadly/internal/auth"
	"garageleadly/internal/billing"
	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/internal/reporting"
	"garageleadly/internal/routing"
	"garageleadly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Leads       *leads.Service
	Contractors *contractors.Service
	Assigner    *routing.Assigner
	Reports     *reporting.Service
	Audit       *audit.Service
	// Billing is nil when no payment processor is configured.
	Billing *billing.Service
	// Notifier resends the assignment notification for a lead.
	Notifier routing.Dispatcher
	// Ping reports whether backing stores are reachable.
	Ping func(ctx context.Context) error
}

const maxWebhookBody = 64 << 10

// --- Public ---

func (h Handlers) Healthz(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			logger.FromGin(c).Warn("health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SubmitLead stores a lead from the public form and routes it right away.
// A routing failure leaves the lead in the operator queue; the submission still succeeds.
func (h Handlers) SubmitLead(c *gin.Context) {
	var req leads.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	ctx := c.Request.Context()
	l, err := h.Leads.Submit(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}

	status := l.Status
	if h.Assigner != nil {
		out, err := h.Assigner.AutoAssign(ctx, l.ID)
		if err != nil {
			logger.FromGin(c).Error("auto assignment failed", "lead_id", l.ID, "err", err)
		} else {
			status = out.Lead.Status
		}
	}
	c.JSON(http.StatusCreated, gin.H{"id": l.ID, "status": status})
}

func (h Handlers) StripeWebhook(c *gin.Context) {
	if h.Billing == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "billing not configured"})
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "unreadable body")
		return
	}
	if err := h.Billing.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// --- helpers ---

func actorFrom(c *gin.Context) routing.Actor {
	id := auth.IdentityFrom(c.Request.Context())
	return routing.Actor{UserID: id.UserID, Role: id.Role, IP: c.ClientIP()}
}

// contractorID is set by rbac.RequireContractor on every contractor route.
func contractorID(c *gin.Context) (string, bool) {
	id, err := auth.ContractorID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "contractor_id required"})
		return "", false
	}
	return id, true
}

func queryLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		badRequest(c, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "invalid json")
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid json")
		return false
	}
	return true
}
