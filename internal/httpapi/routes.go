package httpapi

import (
	"net/http"

	"garageleadly/internal/metrics"
	"garageleadly/internal/rbac"

	"github.com/gin-gonic/gin"
)

type RouteOptions struct {
	// Auth verifies the bearer token and puts the identity on the request context.
	Auth gin.HandlerFunc
	// Intake limits public lead submissions per client IP.
	Intake         *IPRateLimiter
	AllowedOrigins []string
}

// Register wires HTTP routes to handlers.
// Keep this free of business logic. Handlers delegate to internal modules.
func Register(r *gin.Engine, h Handlers, opt RouteOptions) {
	r.Use(Metrics(), ClientIP())

	// public
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.POST("/webhooks/stripe", h.StripeWebhook)

	public := r.Group("/v1/public")
	public.Use(IntakeCORS(opt.AllowedOrigins))
	if opt.Intake != nil {
		public.Use(opt.Intake.Middleware())
	}
	{
		public.POST("/leads", h.SubmitLead)
		public.OPTIONS("/leads", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}

	v1 := r.Group("/v1")
	v1.Use(opt.Auth)

	// CONTRACTOR routes
	me := v1.Group("")
	me.Use(rbac.RequireContractor())
	{
		me.GET("/me", h.Me)
		me.GET("/leads", h.ListLeads)
		me.PATCH("/leads/:id/status", h.UpdateLeadStatus)
		me.GET("/dashboard", h.Dashboard)
		me.GET("/billing/transactions", h.ListTransactions)

		me.GET("/campaigns", h.ListCampaigns)
		me.POST("/campaigns", h.CreateCampaign)
		me.PUT("/campaigns/:id", h.UpdateCampaign)
		me.DELETE("/campaigns/:id", h.DeleteCampaign)
	}

	// ADMIN routes. super_admin passes every role check.
	admin := v1.Group("/admin")
	admin.Use(rbac.RequireAnyRole(rbac.RoleOperator))
	{
		admin.GET("/overview", h.Overview)

		admin.GET("/leads/unassigned", h.UnassignedLeads)
		admin.POST("/leads/:id/assign", h.ForceAssign)
		admin.POST("/leads/:id/unassign", h.Unassign)
		admin.POST("/leads/:id/reprocess", h.Reprocess)
		admin.POST("/leads/:id/notify", h.ResendNotification)
		admin.GET("/leads/:id/history", h.LeadHistory)

		admin.GET("/contractors", h.ListContractors)
		admin.POST("/contractors", h.CreateContractor)
		admin.PUT("/contractors/:id/territory", h.UpdateTerritory)
		admin.POST("/contractors/:id/deactivate", h.DeactivateContractor)
		admin.POST("/contractors/:id/activate", h.ActivateContractor)
	}
}
