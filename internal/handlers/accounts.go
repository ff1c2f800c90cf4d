package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rosterline/rosterauth/internal/auth"
	"github.com/rosterline/rosterauth/internal/models"
	"github.com/rosterline/rosterauth/internal/services"
	pkghttp "github.com/rosterline/rosterauth/pkg/http"
)

// AccountServiceInterface is implemented by services.AccountService.
type AccountServiceInterface interface {
	ListAccounts(ctx context.Context, role string) ([]*services.AccountResponse, error)
	GetAccount(ctx context.Context, id string) (*services.AccountDetails, error)
	UnlockAccount(ctx context.Context, actorID, id string) (*models.LockoutState, error)
	ListAuthLogs(ctx context.Context, id string, limit int) ([]*models.AuthLogEntry, error)
}

type AccountHandler struct {
	service AccountServiceInterface
}

func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

type accountPathParams struct {
	ID string `json:"id" validate:"required,uuid"`
}

type UnlockResponse struct {
	Message string               `json:"message"`
	Lockout *models.LockoutState `json:"lockout"`
}

// ListAccounts handles GET /accounts[?role=worker|admin|maintainer].
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, accounts)
}

// GetAccount handles GET /accounts/{id}.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	details, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, details)
}

// UnlockAccount handles POST /accounts/{id}/unlock.
func (h *AccountHandler) UnlockAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	actor := ""
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		actor = claims.AccountID
	}

	state, err := h.service.UnlockAccount(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, UnlockResponse{Message: "Account unlocked", Lockout: state})
}

// ListAuthLogs handles GET /accounts/{id}/auth-logs[?limit=n].
func (h *AccountHandler) ListAuthLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			pkghttp.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.service.ListAuthLogs(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, entries)
}

func accountID(w http.ResponseWriter, r *http.Request) (string, bool) {
	params := accountPathParams{ID: chi.URLParam(r, "id")}
	if err := ValidateRequest(params); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return "", false
	}
	return params.ID, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Account not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
