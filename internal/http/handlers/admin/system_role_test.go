package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coinvo/funnel-api/internal/authz"
	"github.com/coinvo/funnel-api/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSystemRoleHandlerTest(t *testing.T) *Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	return New(&provider.Container{AuthzService: svc})
}

func newRoleTestContext(t *testing.T, method, role, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, "/api/v1/admin/system-roles", reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if role != "" {
		c.Params = gin.Params{{Key: "role", Value: role}}
	}
	return c, w
}

func decodeRoleResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response failed: %v, body=%s", err, w.Body.String())
	}
	return payload
}

func TestGetSystemRolesListsBuiltins(t *testing.T) {
	h := setupSystemRoleHandlerTest(t)

	c, w := newRoleTestContext(t, http.MethodGet, "", "")
	h.GetSystemRoles(c)

	payload := decodeRoleResponse(t, w)
	if payload["status_code"].(float64) != 0 {
		t.Fatalf("expected success, got %s", w.Body.String())
	}
	items, ok := payload["data"].([]interface{})
	if !ok {
		t.Fatalf("expected role list, got %v", payload["data"])
	}

	found := map[string]bool{}
	for _, raw := range items {
		item := raw.(map[string]interface{})
		role := item["role"].(string)
		found[role] = true
		if (role == "role:admin" || role == "role:superuser") && item["builtin"] != true {
			t.Fatalf("expected %s marked builtin", role)
		}
	}
	if !found["role:admin"] || !found["role:superuser"] {
		t.Fatalf("expected builtin roles in listing, got %v", found)
	}
}

func TestSystemRolePolicyLifecycle(t *testing.T) {
	h := setupSystemRoleHandlerTest(t)

	// 授予自定义角色策略并绑定管理员
	c, w := newRoleTestContext(t, http.MethodPost, "analyst", `{"object":"/admin/affiliates","action":"GET"}`)
	h.CreateSystemRolePolicy(c)
	if payload := decodeRoleResponse(t, w); payload["status_code"].(float64) != 0 {
		t.Fatalf("grant policy failed: %s", w.Body.String())
	}
	if err := h.AuthzService.SetAdminRoles(9, []string{"analyst"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}
	allow, err := h.AuthzService.EnforceAdmin(9, "/api/v1/admin/affiliates", "GET")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected granted policy to allow access")
	}

	// 撤销策略后不再放行
	c, w = newRoleTestContext(t, http.MethodDelete, "analyst", `{"object":"/admin/affiliates","action":"GET"}`)
	h.DeleteSystemRolePolicy(c)
	if payload := decodeRoleResponse(t, w); payload["status_code"].(float64) != 0 {
		t.Fatalf("revoke policy failed: %s", w.Body.String())
	}
	allow, err = h.AuthzService.EnforceAdmin(9, "/api/v1/admin/affiliates", "GET")
	if err != nil {
		t.Fatalf("enforce after revoke failed: %v", err)
	}
	if allow {
		t.Fatalf("expected revoked policy to deny access")
	}

	// 删除角色后角色列表不再包含
	c, w = newRoleTestContext(t, http.MethodDelete, "analyst", "")
	h.DeleteSystemRole(c)
	if payload := decodeRoleResponse(t, w); payload["status_code"].(float64) != 0 {
		t.Fatalf("delete role failed: %s", w.Body.String())
	}
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	for _, role := range roles {
		if role == "role:analyst" {
			t.Fatalf("expected analyst role removed, got %v", roles)
		}
	}
}

func TestSystemRoleBuiltinGuards(t *testing.T) {
	h := setupSystemRoleHandlerTest(t)

	c, w := newRoleTestContext(t, http.MethodPost, "admin", `{"object":"/admin/system-users","action":"*"}`)
	h.CreateSystemRolePolicy(c)
	if payload := decodeRoleResponse(t, w); payload["status_code"].(float64) == 0 {
		t.Fatalf("expected builtin role grant rejected, got %s", w.Body.String())
	}

	c, w = newRoleTestContext(t, http.MethodDelete, "superuser", "")
	h.DeleteSystemRole(c)
	if payload := decodeRoleResponse(t, w); payload["status_code"].(float64) == 0 {
		t.Fatalf("expected builtin role delete rejected, got %s", w.Body.String())
	}

	// 预置角色策略保持不变
	policies, err := h.AuthzService.GetRolePolicies("admin")
	if err != nil {
		t.Fatalf("get builtin policies failed: %v", err)
	}
	if len(policies) == 0 {
		t.Fatalf("expected builtin admin policies intact")
	}
}
