package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"call-analytics/internal/analytics"
	"call-analytics/internal/auth"
	"call-analytics/internal/billing"
	"call-analytics/internal/calls"
	"call-analytics/internal/export"
	"call-analytics/internal/ingestion"
	"call-analytics/internal/monitoring"
	"call-analytics/internal/rbac"
	"call-analytics/internal/tenants"

	"github.com/gin-gonic/gin"
)

// Handlers is the HTTP surface over the domain services. Handlers stay thin:
// bind, authorize, delegate, map errors.
type Handlers struct {
	auth       *auth.Manager
	tenants    *tenants.Service
	ingestion  *ingestion.Service
	analytics  *analytics.Service
	monitoring *monitoring.Service
	billing    *billing.Service
	clock      func() time.Time
	health     func(ctx context.Context) error
}

func NewHandlers(
	authMgr *auth.Manager,
	tenantSvc *tenants.Service,
	ingestSvc *ingestion.Service,
	analyticsSvc *analytics.Service,
	monitorSvc *monitoring.Service,
	billingSvc *billing.Service,
) *Handlers {
	return &Handlers{
		auth:       authMgr,
		tenants:    tenantSvc,
		ingestion:  ingestSvc,
		analytics:  analyticsSvc,
		monitoring: monitorSvc,
		billing:    billingSvc,
		clock:      time.Now,
	}
}

// SetHealthCheck registers a dependency check run by the health endpoint.
func (h *Handlers) SetHealthCheck(fn func(ctx context.Context) error) {
	h.health = fn
}

func (h *Handlers) Healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name"`
}

// Register creates (or returns) the tenant for an email and issues an access
// token for it.
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	t, err := h.tenants.Register(c.Request.Context(), req.Email, req.FullName)
	if err != nil {
		h.writeError(c, err)
		return
	}
	token, err := h.auth.Issue(h.clock(), t.ID, t.Email, t.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": t})
}

type emailRequest struct {
	Email string `json:"email"`
}

// Poll triggers an ingestion run for the target tenant.
func (h *Handlers) Poll(c *gin.Context) {
	t, ok := h.resolveTarget(c)
	if !ok {
		return
	}
	res, err := h.ingestion.Ingest(c.Request.Context(), t.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Analytics returns the aggregate report for the target tenant.
func (h *Handlers) Analytics(c *gin.Context) {
	t, ok := h.resolveTarget(c)
	if !ok {
		return
	}
	report, err := h.analytics.Report(c.Request.Context(), t.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// filterFromQuery reads the call-log filter from query params: startDate,
// endDate, type, endedReason, sortBy, sortOrder. Dates accept RFC3339 or a
// bare YYYY-MM-DD.
func filterFromQuery(c *gin.Context) (calls.Filter, error) {
	reason := c.Query("endedReason")
	if reason == "" {
		reason = c.Query("endedreason")
	}
	f := calls.Filter{
		Type:        calls.CallType(c.Query("type")),
		EndedReason: reason,
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder"),
	}
	if v := c.Query("startDate"); v != "" {
		t, err := parseFilterDate(v)
		if err != nil {
			return f, fmt.Errorf("startDate: %w", err)
		}
		f.StartDate = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parseFilterDate(v)
		if err != nil {
			return f, fmt.Errorf("endDate: %w", err)
		}
		f.EndDate = &t
	}
	return f, nil
}

func parseFilterDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("must be RFC3339 or YYYY-MM-DD")
}

// CallLogs returns the filtered call log for the target tenant.
func (h *Handlers) CallLogs(c *gin.Context) {
	t, f, ok := h.bindCallLogs(c)
	if !ok {
		return
	}
	rows, err := h.analytics.ListCalls(c.Request.Context(), t.ID, f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows, "count": len(rows)})
}

// ExportCSV streams the filtered call log as a CSV attachment.
func (h *Handlers) ExportCSV(c *gin.Context) {
	t, f, ok := h.bindCallLogs(c)
	if !ok {
		return
	}
	rows, err := h.analytics.ListCalls(c.Request.Context(), t.ID, f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="call-logs.csv"`)
	if err := export.WriteCSV(c.Writer, rows); err != nil {
		// Headers are gone; all we can do is abort the stream.
		_ = c.Error(err)
	}
}

// ExportExcel streams the filtered call log as an xlsx attachment.
func (h *Handlers) ExportExcel(c *gin.Context) {
	t, f, ok := h.bindCallLogs(c)
	if !ok {
		return
	}
	rows, err := h.analytics.ListCalls(c.Request.Context(), t.ID, f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="call-logs.xlsx"`)
	if err := export.WriteExcel(c.Writer, rows); err != nil {
		_ = c.Error(err)
	}
}

// Monitor evaluates usage and budget thresholds for the target tenant.
func (h *Handlers) Monitor(c *gin.Context) {
	t, ok := h.resolveTarget(c)
	if !ok {
		return
	}
	if err := h.monitoring.CheckByEmail(c.Request.Context(), t.Email); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "checked"})
}

// Admin user management.

func (h *Handlers) ListUsers(c *gin.Context) {
	list, err := h.tenants.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "count": len(list)})
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handlers) UpdateUserRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}
	actorID, actorRole := h.actor(c)
	err := h.tenants.UpdateRole(c.Request.Context(), actorID, actorRole, c.Param("id"), req.Role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handlers) DeleteUser(c *gin.Context) {
	actorID, actorRole := h.actor(c)
	if err := h.tenants.Delete(c.Request.Context(), actorID, actorRole, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Agencies.

type createAgencyRequest struct {
	Name    string `json:"name" binding:"required"`
	OwnerID string `json:"owner_id" binding:"required"`
}

func (h *Handlers) CreateAgency(c *gin.Context) {
	var req createAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and owner_id are required"})
		return
	}
	actorID, actorRole := h.actor(c)
	a, err := h.tenants.CreateAgency(c.Request.Context(), actorID, actorRole, req.Name, req.OwnerID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

type addMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handlers) AddAgencyMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	actorID, actorRole := h.actor(c)
	err := h.tenants.AddAgencyMember(c.Request.Context(), actorID, actorRole, c.Param("id"), req.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

func (h *Handlers) ListAgencyMembers(c *gin.Context) {
	members, err := h.tenants.ListAgencyMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}

func (h *Handlers) DeleteAgency(c *gin.Context) {
	actorID, actorRole := h.actor(c)
	if err := h.tenants.DeleteAgency(c.Request.Context(), actorID, actorRole, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Billing.

type createCustomerRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Name            string `json:"name"`
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
}

func (h *Handlers) CreateBillingCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and payment_method_id are required"})
		return
	}
	actorID, actorRole := h.actor(c)
	id, err := h.billing.CreateCustomer(c.Request.Context(), actorID, actorRole, req.Email, req.Name, req.PaymentMethodID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer_id": id})
}

type chargeRequest struct {
	CustomerID  string `json:"customer_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

func (h *Handlers) ChargeCustomer(c *gin.Context) {
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id and amount_cents are required"})
		return
	}
	actorID, actorRole := h.actor(c)
	id, err := h.billing.Charge(c.Request.Context(), actorID, actorRole, req.CustomerID, req.AmountCents, req.Currency, req.Description)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_intent_id": id})
}

func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id and amount_cents are required"})
		return
	}
	actorID, actorRole := h.actor(c)
	id, err := h.billing.CreateInvoice(c.Request.Context(), actorID, actorRole, req.CustomerID, req.AmountCents, req.Currency, req.Description)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice_id": id})
}

// Helpers.

func (h *Handlers) actor(c *gin.Context) (id, role string) {
	return c.GetString("user_id"), c.GetString("role")
}

// resolveTarget loads the tenant a request operates on. A request without an
// email (or with the caller's own email) targets the caller; any other email
// requires admin capability.
func (h *Handlers) resolveTarget(c *gin.Context) (tenants.Tenant, bool) {
	var req emailRequest
	// Body is optional; an empty body means self.
	_ = c.ShouldBindJSON(&req)
	return h.targetByEmail(c, req.Email)
}

// bindCallLogs resolves the target tenant from the optional body email and
// the filter from the query string.
func (h *Handlers) bindCallLogs(c *gin.Context) (tenants.Tenant, calls.Filter, bool) {
	f, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return tenants.Tenant{}, calls.Filter{}, false
	}
	var req emailRequest
	_ = c.ShouldBindJSON(&req)
	t, ok := h.targetByEmail(c, req.Email)
	return t, f, ok
}

func (h *Handlers) targetByEmail(c *gin.Context, email string) (tenants.Tenant, bool) {
	callerEmail := c.GetString("email")
	if email == "" {
		email = callerEmail
	}
	if email != callerEmail {
		role, err := rbac.Parse(c.GetString("role"))
		if err != nil || !(role.IsSuperAdmin() || role.CanTriggerMonitor()) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return tenants.Tenant{}, false
		}
	}
	t, err := h.tenants.GetByEmail(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err)
		return tenants.Tenant{}, false
	}
	return t, true
}

// writeError maps domain errors onto HTTP statuses. Internal details never
// reach the response body.
func (h *Handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tenants.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, tenants.ErrInvalidArgument), errors.Is(err, billing.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, calls.ErrNoCredential):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no source credential configured"})
	case errors.Is(err, calls.ErrIngestRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "ingestion already running"})
	case errors.Is(err, calls.ErrUpstreamAuth):
		c.JSON(http.StatusBadGateway, gin.H{"error": "source rejected credential"})
	case errors.Is(err, calls.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "source unavailable"})
	case errors.Is(err, billing.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "billing not configured"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
