package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"garageleadly/internal/audit"
	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/internal/reporting"
	"garageleadly/internal/routing"
	"garageleadly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// --- Admin: leads ---

func (h Handlers) Overview(c *gin.Context) {
	o, err := h.Reports.Overview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h Handlers) UnassignedLeads(c *gin.Context) {
	limit, ok := queryLimit(c, 100)
	if !ok {
		return
	}
	out, err := h.Leads.Unassigned(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": out})
}

type forceAssignRequest struct {
	ContractorID string `json:"contractor_id"`
	AllowOverCap bool   `json:"allow_over_cap"`
	Reason       string `json:"reason"`
}

// ForceAssign gives a lead to a chosen contractor. Only super_admin may go over the cap.
func (h Handlers) ForceAssign(c *gin.Context) {
	var req forceAssignRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.ContractorID) == "" {
		badRequest(c, "contractor_id required")
		return
	}
	out, err := h.Assigner.ForceAssign(c.Request.Context(), routing.ForceAssignRequest{
		LeadID:       c.Param("id"),
		ContractorID: req.ContractorID,
		AllowOverCap: req.AllowOverCap,
		Reason:       req.Reason,
		Actor:        actorFrom(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type unassignRequest struct {
	Reason string `json:"reason"`
}

func (h Handlers) Unassign(c *gin.Context) {
	var req unassignRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	l, err := h.Assigner.Unassign(c.Request.Context(), c.Param("id"), req.Reason, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// Reprocess runs auto-assignment again for a lead left in the queue.
func (h Handlers) Reprocess(c *gin.Context) {
	out, err := h.Assigner.AutoAssign(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ResendNotification queues the assignment notification again.
func (h Handlers) ResendNotification(c *gin.Context) {
	ctx := c.Request.Context()
	l, err := h.Leads.Get(ctx, "", c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if l.ContractorID == "" {
		writeError(c, fmt.Errorf("%w: lead is not assigned", leads.ErrInvalidTransition))
		return
	}
	if h.Notifier == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "notifications not configured"})
		return
	}
	if err := h.Notifier.DispatchLeadAssigned(ctx, l.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"lead_id": l.ID, "status": "queued"})
}

func (h Handlers) LeadHistory(c *gin.Context) {
	limit, ok := queryLimit(c, 50)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Leads.Get(ctx, "", c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	events, err := h.Audit.LeadHistory(ctx, c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// --- Admin: contractors ---

type rosterEntry struct {
	contractors.Contractor
	Today reporting.Usage `json:"today"`
}

func (h Handlers) ListContractors(c *gin.Context) {
	ctx := c.Request.Context()
	all, err := h.Contractors.List(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	usage, err := h.Reports.RosterUsage(ctx, all)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]rosterEntry, 0, len(all))
	for _, ct := range all {
		out = append(out, rosterEntry{Contractor: ct, Today: usage[ct.ID]})
	}
	c.JSON(http.StatusOK, gin.H{"contractors": out})
}

func (h Handlers) CreateContractor(c *gin.Context) {
	var req contractors.CreateRequest
	if !bindJSON(c, &req) {
		return
	}
	ct, err := h.Contractors.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ct)
}

func (h Handlers) UpdateTerritory(c *gin.Context) {
	var req contractors.TerritoryUpdate
	if !bindJSON(c, &req) {
		return
	}
	ct, err := h.Contractors.UpdateTerritory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logStaff(c, audit.EventTypeTerritoryUpdated, ct.ID,
		fmt.Sprintf("counties=%s job_types=%s cap=%d", strings.Join(ct.Counties, ","), strings.Join(ct.JobTypes, ","), ct.DailyLeadCap))
	c.JSON(http.StatusOK, ct)
}

func (h Handlers) DeactivateContractor(c *gin.Context) {
	h.setContractorStatus(c, contractors.StatusInactive)
}

func (h Handlers) ActivateContractor(c *gin.Context) {
	h.setContractorStatus(c, contractors.StatusActive)
}

// Deactivation only stops future routing; leads already assigned stay put.
func (h Handlers) setContractorStatus(c *gin.Context, st contractors.Status) {
	ct, err := h.Contractors.SetStatus(c.Request.Context(), c.Param("id"), st)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logStaff(c, audit.EventTypeContractorStatus, ct.ID, "status="+string(st))
	c.JSON(http.StatusOK, ct)
}

// logStaff is best-effort; the change already happened.
func (h Handlers) logStaff(c *gin.Context, t audit.EventType, contractorID, msg string) {
	if h.Audit == nil {
		return
	}
	a := actorFrom(c)
	if err := h.Audit.LogStaffAction(c.Request.Context(), t, a.UserID, a.Role, a.IP, contractorID, msg); err != nil {
		logger.FromGin(c).Error("audit append failed", "type", t, "contractor_id", contractorID, "err", err)
	}
}
