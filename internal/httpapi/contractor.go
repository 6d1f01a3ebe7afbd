package httpapi

import (
	"net/http"

	"garageleadly/internal/auth"
	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"

	"github.com/gin-gonic/gin"
)

// --- Contractor ---

func (h Handlers) Me(c *gin.Context) {
	cid, ok := contractorID(c)
	if !ok {
		return
	}
	id := auth.IdentityFrom(c.Request.Context())
	profile, err := h.Contractors.Get(c.Request.Context(), cid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "role": id.Role, "contractor": profile})
}

func (h Handlers) ListLeads(c *gin.Context) {
	cid, ok := contractorID(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c, 100)
	if !ok {
		return
	}
	out, err := h.Leads.List(c.Request.Context(), leads.Filter{
		ContractorID: cid,
		Status:       leads.Status(c.Query("status")),
		Limit:        limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": out})
}

func (h Handlers) UpdateLeadStatus(c *gin.Context) {
	cid, ok := contractorID(c)
	if !ok {
		return
	}
	var req leads.OutcomeUpdate
	if !bindJSON(c, &req) {
		return
	}
	l, err := h.Leads.UpdateOutcome(c.Request.Context(), cid, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h Handlers) Dashboard(c *gin.Context) {
	cid, ok := contractorID(c)
	if !ok {
		return
	}
	d, err := h.Reports.Dashboard(c.Request.Context(), cid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h Handlers) ListTransactions(c *gin.Context) {
	cid, ok := contractorID(c)
	if !ok {
		return
	}
	if h.Billing == nil {
		c.JSON(http.StatusOK, gin.H{"transactions": []any{}})
		return
	}
	limit, ok := queryLimit(c, 50)
	if !ok {
		return
	}
	out, err := h.Billing.Transactions(c.Request.Context(), cid, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

// --- Campaigns ---

type campaignView struct {
	contractors.Campaign
	LeadsToday int `json:"leads_today"`
}

func (h Handlers) ListCampaigns(c *gin.Context) {
	cid, ok := contractorID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	camps, err := h.Contractors.ListCampaigns(ctx, cid)
	if err != nil {
		writeError(c, err)
		return
	}
	usage, err := h.Reports.Campaigns(ctx, cid)
	if err != nil {
		writeError(c, err)
		return
	}
	today := make(map[string]int, len(usage))
	for _, u := range usage {
		today[u.CampaignID] = u.LeadsToday
	}
	out := make([]campaignView, 0, len(camps))
	for _, cp := range camps {
		out = append(out, campaignView{Campaign: cp, LeadsToday: today[cp.ID]})
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": out})
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	cid, ok := contractorID(c)
	if !ok {
		return
	}
	var req contractors.CampaignRequest
	if !bindJSON(c, &req) {
		return
	}
	cp, err := h.Contractors.CreateCampaign(c.Request.Context(), cid, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaignView{Campaign: cp})
}

func (h Handlers) UpdateCampaign(c *gin.Context) {
	cid, ok := contractorID(c)
	if !ok {
		return
	}
	var req contractors.CampaignRequest
	if !bindJSON(c, &req) {
		return
	}
	cp, err := h.Contractors.UpdateCampaign(c.Request.Context(), cid, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

func (h Handlers) DeleteCampaign(c *gin.Context) {
	cid, ok := contractorID(c)
	if !ok {
		return
	}
	if err := h.Contractors.DeleteCampaign(c.Request.Context(), cid, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
