package team

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, RoleMember, r.DefaultRole())
	assert.True(t, r.Valid(RoleAdmin))
	assert.True(t, r.Valid(RoleMember))
	assert.False(t, r.Valid(Role("owner")))

	name, err := r.DisplayName(RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Administrator", name)

	_, err = r.DisplayName(Role("owner"))
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestDefaultRegistry_Tabs(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []string{"profile", "teams", "security", "subscription"}, r.Tabs(ScopePersonal))
	assert.Equal(t, []string{"owner", "membership"}, r.Tabs(ScopeTeam))
	assert.Nil(t, r.Tabs(TabScope("billing")))
}

func TestNewRegistry_DefaultRoleMustExist(t *testing.T) {
	_, err := NewRegistry(
		[]RoleDef{{Key: RoleAdmin, Name: "Administrator"}},
		RoleMember,
		nil,
	)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRegistry_TabsReturnsCopy(t *testing.T) {
	r := DefaultRegistry()
	tabs := r.Tabs(ScopeTeam)
	tabs[0] = "mutated"
	assert.Equal(t, "owner", r.Tabs(ScopeTeam)[0])
}

func TestHandler_ListRoles(t *testing.T) {
	h := NewHandler(DefaultRegistry())

	w := httptest.NewRecorder()
	_, router := gin.CreateTestContext(w)
	h.RegisterRoutes(router.Group("/"))
	req := httptest.NewRequest("GET", "/roles", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Roles       []RoleDef `json:"roles"`
		DefaultRole Role      `json:"defaultRole"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Roles, 2)
	assert.Equal(t, RoleAdmin, resp.Roles[0].Key)
	assert.Equal(t, RoleMember, resp.DefaultRole)
}

func TestHandler_ListTabs(t *testing.T) {
	h := NewHandler(DefaultRegistry())

	w := httptest.NewRecorder()
	_, router := gin.CreateTestContext(w)
	h.RegisterRoutes(router.Group("/"))
	req := httptest.NewRequest("GET", "/settings/tabs/team", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "membership")
}

func TestHandler_ListTabs_BadScope(t *testing.T) {
	h := NewHandler(DefaultRegistry())

	w := httptest.NewRecorder()
	_, router := gin.CreateTestContext(w)
	h.RegisterRoutes(router.Group("/"))
	req := httptest.NewRequest("GET", "/settings/tabs/global", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
