package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"call-analytics/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveWithRole(t *testing.T, role string, mw gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", "u@example.com", role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, mw, func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	if code := serveWithRole(t, string(RoleSuperAdmin), RequireAnyRole(RoleAdmin)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DeniesUnlistedRole(t *testing.T) {
	if code := serveWithRole(t, string(RoleUser), RequireAnyRole(RoleAdmin)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_DeniesUnknownRole(t *testing.T) {
	if code := serveWithRole(t, "made-up-role", RequireAnyRole(RoleAdmin)); code != 403 {
		t.Fatalf("expected 403 for unknown role, got %d", code)
	}
}

func TestRequireCapability_AdminManagesUsers(t *testing.T) {
	if code := serveWithRole(t, string(RoleAdmin), RequireCapability(Role.CanManageUsers)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := serveWithRole(t, string(RoleUser), RequireCapability(Role.CanManageUsers)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireCapability_AgencyOwner(t *testing.T) {
	if code := serveWithRole(t, string(RoleAgencyOwner), RequireCapability(Role.CanManageAgency)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := serveWithRole(t, string(RoleAgencyOwner), RequireCapability(Role.CanManageUsers)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestParse_RejectsUnknown(t *testing.T) {
	if _, err := Parse("owner"); err == nil {
		t.Fatalf("expected error for legacy role string")
	}
	if r, err := Parse("agency_owner"); err != nil || r != RoleAgencyOwner {
		t.Fatalf("expected agency_owner, got %v err=%v", r, err)
	}
}
