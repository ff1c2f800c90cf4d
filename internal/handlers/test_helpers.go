package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rosterline/rosterauth/internal/auth"
	"github.com/rosterline/rosterauth/internal/models"
	"github.com/rosterline/rosterauth/internal/services"
	pkghttp "github.com/rosterline/rosterauth/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds claims for accountID to the request context
func WithAuthContext(req *http.Request, accountID string, role models.Role) *http.Request {
	claims := &models.TokenClaims{
		AccountID: accountID,
		Email:     accountID + "@roster.test",
		Role:      role,
	}
	claims.ID = "jti-" + accountID
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// FindCookie returns the named Set-Cookie from the recorder, or nil
func FindCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// MockSessionService implements SessionServiceInterface for testing
type MockSessionService struct {
	LoginFunc   func(ctx context.Context, req services.LoginRequest) (*services.LoginResponse, error)
	RefreshFunc func(ctx context.Context, claims *models.TokenClaims) (*services.SessionResponse, error)
	LogoutFunc  func(ctx context.Context, claims *models.TokenClaims) error
}

func (m *MockSessionService) Login(ctx context.Context, req services.LoginRequest) (*services.LoginResponse, error) {
	if m.LoginFunc == nil {
		return &services.LoginResponse{Result: models.AccountNotFound()}, nil
	}
	return m.LoginFunc(ctx, req)
}

func (m *MockSessionService) Refresh(ctx context.Context, claims *models.TokenClaims) (*services.SessionResponse, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshFunc(ctx, claims)
}

func (m *MockSessionService) Logout(ctx context.Context, claims *models.TokenClaims) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, claims)
}

// MockTokenValidator implements TokenValidator for testing
type MockTokenValidator struct {
	ValidateTokenFunc func(tokenString string) (*models.TokenClaims, error)
}

func (m *MockTokenValidator) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	if m.ValidateTokenFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.ValidateTokenFunc(tokenString)
}

// MockAccountService implements AccountServiceInterface for testing
type MockAccountService struct {
	ListAccountsFunc  func(ctx context.Context, role string) ([]*services.AccountResponse, error)
	GetAccountFunc    func(ctx context.Context, id string) (*services.AccountDetails, error)
	UnlockAccountFunc func(ctx context.Context, actorID, id string) (*models.LockoutState, error)
	ListAuthLogsFunc  func(ctx context.Context, id string, limit int) ([]*models.AuthLogEntry, error)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, role string) ([]*services.AccountResponse, error) {
	if m.ListAccountsFunc == nil {
		return []*services.AccountResponse{}, nil
	}
	return m.ListAccountsFunc(ctx, role)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id string) (*services.AccountDetails, error) {
	if m.GetAccountFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetAccountFunc(ctx, id)
}

func (m *MockAccountService) UnlockAccount(ctx context.Context, actorID, id string) (*models.LockoutState, error) {
	if m.UnlockAccountFunc == nil {
		return &models.LockoutState{AccountID: id}, nil
	}
	return m.UnlockAccountFunc(ctx, actorID, id)
}

func (m *MockAccountService) ListAuthLogs(ctx context.Context, id string, limit int) ([]*models.AuthLogEntry, error) {
	if m.ListAuthLogsFunc == nil {
		return []*models.AuthLogEntry{}, nil
	}
	return m.ListAuthLogsFunc(ctx, id, limit)
}
