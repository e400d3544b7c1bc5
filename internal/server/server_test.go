package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/billflow/internal/billing"
	"github.com/mbd888/billflow/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockGateway implements billing.Gateway for testing
type mockGateway struct {
	subscribeErr error
}

func (m *mockGateway) CreateCustomer(context.Context, billing.CustomerParams) (string, error) {
	return "cus_test", nil
}

func (m *mockGateway) Subscribe(_ context.Context, p billing.SubscribeParams) (*billing.GatewaySubscription, error) {
	if m.subscribeErr != nil {
		return nil, &billing.GatewayError{Op: "subscribe", Err: m.subscribeErr}
	}
	gs := &billing.GatewaySubscription{ID: "gwsub_test", Status: "active"}
	if p.TrialDays > 0 {
		gs.Status = "trialing"
		gs.TrialEndsAt = time.Now().Add(time.Duration(p.TrialDays) * 24 * time.Hour)
	}
	return gs, nil
}

func (m *mockGateway) Swap(_ context.Context, p billing.SwapParams) (*billing.GatewaySubscription, error) {
	return &billing.GatewaySubscription{ID: p.SubscriptionID, Status: "active"}, nil
}

func (m *mockGateway) Cancel(context.Context, string) error {
	return nil
}

func (m *mockGateway) InvoiceAndPay(context.Context, billing.InvoiceParams) error {
	return nil
}

// testConfig returns a minimal config for testing
func testConfig(vat bool) *config.Config {
	return &config.Config{
		Port:           "8080",
		Env:            "test",
		LogLevel:       "error",
		StripeKey:      "sk_test_x",
		GatewayTimeout: 5 * time.Second,
		VATHandling:    vat,
		DefaultCountry: "DE",
	}
}

func newTestServer(t *testing.T, vat bool) *Server {
	t.Helper()
	srv, err := New(testConfig(vat), WithGateway(&mockGateway{}))
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func registerAccount(t *testing.T, srv *Server, email string) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/v1/accounts", map[string]any{
		"name":                 "Jane Doe",
		"email":                email,
		"password":             "secret1",
		"passwordConfirmation": "secret1",
		"terms":                true,
		"street":               "Main St 1",
		"city":                 "Berlin",
		"postalCode":           "10115",
		"country":              "DE",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Account struct {
			ID string `json:"id"`
		} `json:"account"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Account.ID
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, false)

	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegistration(t *testing.T) {
	srv := newTestServer(t, true)

	id := registerAccount(t, srv, "jane@example.com")
	assert.NotEmpty(t, id)

	// Duplicate email is rejected with a field error.
	w := doJSON(t, srv, http.MethodPost, "/v1/accounts", map[string]any{
		"name":                 "Jane Again",
		"email":                "jane@example.com",
		"password":             "secret1",
		"passwordConfirmation": "secret1",
		"terms":                true,
		"street":               "Main St 1",
		"city":                 "Berlin",
		"postalCode":           "10115",
		"country":              "DE",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "email")
}

func TestRegistration_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, true)

	w := doJSON(t, srv, http.MethodPost, "/v1/accounts", map[string]any{
		"name":  "Jane Doe",
		"email": "not-an-email",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Error)

	fields := map[string]bool{}
	for _, f := range resp.Fields {
		fields[f.Field] = true
	}
	// Address fields are enforced because VAT handling is on.
	for _, field := range []string{"email", "password", "terms", "street", "city", "postalCode", "country"} {
		assert.True(t, fields[field], "expected error for %s", field)
	}
}

func TestPlansEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	w := doJSON(t, srv, http.MethodGet, "/v1/plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "basic")
	assert.Contains(t, w.Body.String(), "pro")

	w = doJSON(t, srv, http.MethodGet, "/v1/plans/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRolesAndTabs(t *testing.T) {
	srv := newTestServer(t, false)

	w := doJSON(t, srv, http.MethodGet, "/v1/roles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Administrator")

	w = doJSON(t, srv, http.MethodGet, "/v1/settings/tabs/personal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "subscription")

	w = doJSON(t, srv, http.MethodGet, "/v1/settings/tabs/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	srv := newTestServer(t, true)
	id := registerAccount(t, srv, "jane@example.com")

	// No subscription yet.
	w := doJSON(t, srv, http.MethodGet, "/v1/accounts/"+id+"/subscription", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Create.
	w = doJSON(t, srv, http.MethodPost, "/v1/accounts/"+id+"/subscription", map[string]any{
		"planId":    "basic",
		"cardToken": "tok_visa",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"taxPercent":19`)

	// Creating again conflicts.
	w = doJSON(t, srv, http.MethodPost, "/v1/accounts/"+id+"/subscription", map[string]any{
		"planId": "pro",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Swap.
	w = doJSON(t, srv, http.MethodPut, "/v1/accounts/"+id+"/subscription", map[string]any{
		"planId": "pro",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"planId":"pro"`)

	// Cancel.
	w = doJSON(t, srv, http.MethodDelete, "/v1/accounts/"+id+"/subscription", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"canceled"`)

	// Cancel again: nothing active.
	w = doJSON(t, srv, http.MethodDelete, "/v1/accounts/"+id+"/subscription", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscription_InvalidPlan(t *testing.T) {
	srv := newTestServer(t, true)
	id := registerAccount(t, srv, "jane@example.com")

	w := doJSON(t, srv, http.MethodPost, "/v1/accounts/"+id+"/subscription", map[string]any{
		"planId": "enterprise",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscription_GatewayError(t *testing.T) {
	srv, err := New(testConfig(true), WithGateway(&mockGateway{subscribeErr: context.DeadlineExceeded}))
	require.NoError(t, err)
	id := registerAccount(t, srv, "jane@example.com")

	w := doJSON(t, srv, http.MethodPost, "/v1/accounts/"+id+"/subscription", map[string]any{
		"planId": "basic",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSubscription_AccountNotFound(t *testing.T) {
	srv := newTestServer(t, false)

	w := doJSON(t, srv, http.MethodPost, "/v1/accounts/acc_missing/subscription", map[string]any{
		"planId": "basic",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
