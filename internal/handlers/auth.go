package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rosterline/rosterauth/internal/auth"
	"github.com/rosterline/rosterauth/internal/models"
	"github.com/rosterline/rosterauth/internal/services"
	pkghttp "github.com/rosterline/rosterauth/pkg/http"
)

// SessionServiceInterface is implemented by services.SessionService.
type SessionServiceInterface interface {
	Login(ctx context.Context, req services.LoginRequest) (*services.LoginResponse, error)
	Refresh(ctx context.Context, claims *models.TokenClaims) (*services.SessionResponse, error)
	Logout(ctx context.Context, claims *models.TokenClaims) error
}

// TokenValidator parses an authToken without requiring it to be present.
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.TokenClaims, error)
}

type AuthHandler struct {
	service  SessionServiceInterface
	tokens   TokenValidator
	ipConfig *pkghttp.IPConfig
	cookies  auth.CookieConfig
	logger   *slog.Logger
}

func NewAuthHandler(service SessionServiceInterface, tokens TokenValidator, ipConfig *pkghttp.IPConfig, cookies auth.CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		tokens:   tokens,
		ipConfig: ipConfig,
		cookies:  cookies,
		logger:   logger,
	}
}

// LoginRequest is the body of POST /login. The password may be empty; it then never matches.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId" validate:"required,max=512"`
}

// LoginResponse is returned with status 200 for every decided outcome.
type LoginResponse struct {
	Message    string     `json:"message"`
	Outcome    string     `json:"outcome"`
	UnlockTime *time.Time `json:"unlock_time,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ProtectedResponse struct {
	Message string `json:"message"`
	*services.SessionResponse
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), services.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		DeviceID:  req.DeviceID,
	})
	if err != nil {
		if errors.Is(err, models.ErrStoreUnavailable) {
			h.logger.Error("login aborted: credential store unavailable", slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Login is temporarily unavailable")
			return
		}
		h.logger.Error("login failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	if resp.Result.Succeeded() {
		auth.SetAuthCookie(w, resp.Token, resp.ExpiresAt, h.cookies)
	}

	body := LoginResponse{
		Message: resp.Result.Message(),
		Outcome: resp.Result.Outcome.String(),
	}
	if resp.Result.UnlockTime != nil {
		unlock := resp.Result.UnlockTime.UTC()
		body.UnlockTime = &unlock
	}
	pkghttp.WriteJSON(w, http.StatusOK, body)
}

// Protected handles GET /protected: it confirms the session and re-issues the authToken.
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	session, err := h.service.Refresh(r.Context(), claims)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			auth.ClearAuthCookie(w, h.cookies)
			pkghttp.WriteUnauthorized(w, "Session is no longer valid")
			return
		}
		h.logger.Error("session refresh failed", slog.String("account_id", claims.AccountID), slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.SetAuthCookie(w, session.Token, session.ExpiresAt, h.cookies)
	pkghttp.WriteJSON(w, http.StatusOK, ProtectedResponse{
		Message:         "You are authenticated and token has been refreshed",
		SessionResponse: session,
	})
}

// Logout handles GET /logout. The cookie is always cleared; a valid token is also revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := auth.GetAuthCookie(r); err == nil && token != "" {
		if claims, err := h.tokens.ValidateToken(token); err == nil {
			if err := h.service.Logout(r.Context(), claims); err != nil {
				pkghttp.WriteInternalError(w, "Failed to log out")
				return
			}
		}
	}

	auth.ClearAuthCookie(w, h.cookies)
	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}
