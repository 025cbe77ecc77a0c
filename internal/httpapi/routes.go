package httpapi

import (
	"call-analytics/internal/auth"
	"call-analytics/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches the full HTTP surface to the engine. Auth resolves
// identity; rbac middleware gates the privileged groups.
func RegisterRoutes(r *gin.Engine, h *Handlers, authMgr *auth.Manager) {
	r.GET("/healthz", h.Healthz)
	r.POST("/api/auth/register", h.Register)

	api := r.Group("/api")
	api.Use(auth.RequireAccessToken(authMgr))

	api.POST("/poll", h.Poll)
	api.POST("/analytics", h.Analytics)
	api.POST("/call-logs", h.CallLogs)
	api.POST("/call-logs/export/csv", h.ExportCSV)
	api.POST("/call-logs/export/excel", h.ExportExcel)
	api.POST("/monitor", h.Monitor)

	admin := api.Group("/admin")
	admin.Use(rbac.RequireCapability(rbac.Role.CanManageUsers))
	admin.GET("/users", h.ListUsers)
	admin.PUT("/users/:id/role", h.UpdateUserRole)
	admin.DELETE("/users/:id", h.DeleteUser)

	agencies := api.Group("/agencies")
	agencies.Use(rbac.RequireCapability(rbac.Role.CanManageAgency))
	agencies.POST("", h.CreateAgency)
	agencies.POST("/:id/members", h.AddAgencyMember)
	agencies.GET("/:id/members", h.ListAgencyMembers)
	agencies.DELETE("/:id", h.DeleteAgency)

	billing := api.Group("/billing")
	billing.Use(rbac.RequireCapability(rbac.Role.CanManageBilling))
	billing.POST("/customers", h.CreateBillingCustomer)
	billing.POST("/charges", h.ChargeCustomer)
	billing.POST("/invoices", h.CreateInvoice)
}
