package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rosterline/rosterauth/internal/models"
	pkglogger "github.com/rosterline/rosterauth/pkg/logger"
)

// DefaultAuthLogLimit bounds auth log listings when the caller gives no limit.
const DefaultAuthLogLimit = 50

// MaxAuthLogLimit bounds auth log listings.
const MaxAuthLogLimit = 500

type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, role models.Role) ([]*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
}

type LockoutRepository interface {
	GetByAccountID(ctx context.Context, accountID string) (*models.LockoutState, error)
	Unlock(ctx context.Context, accountID string) (*models.LockoutState, error)
}

type AuthLogRepository interface {
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.AuthLogEntry, error)
}

type ScheduleGroupRepository interface {
	ListByAccount(ctx context.Context, accountID string) ([]*models.ScheduleGroup, error)
}

// AccountResponse is an account without its password hash.
type AccountResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      models.Role `json:"role"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

// AccountDetails is an account with its lockout row and schedule groups.
type AccountDetails struct {
	AccountResponse
	Lockout *models.LockoutState    `json:"lockout"`
	Groups  []*models.ScheduleGroup `json:"groups"`
}

// AccountService serves the administrative account views.
type AccountService struct {
	accounts    AccountRepository
	lockouts    LockoutRepository
	authLogs    AuthLogRepository
	groups      ScheduleGroupRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAccountService(
	accounts AccountRepository,
	lockouts LockoutRepository,
	authLogs AuthLogRepository,
	groups ScheduleGroupRepository,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AccountService {
	return &AccountService{
		accounts:    accounts,
		lockouts:    lockouts,
		authLogs:    authLogs,
		groups:      groups,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// ListAccounts returns all accounts, or those with the given role when role is non-empty.
func (s *AccountService) ListAccounts(ctx context.Context, role string) ([]*AccountResponse, error) {
	var filter models.Role
	if role != "" {
		parsed, err := models.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown role %q", models.ErrBadRequest, role)
		}
		filter = parsed
	}

	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list accounts", slog.String("role", role), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	out := make([]*AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, toAccountResponse(account))
	}
	return out, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id string) (*AccountDetails, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	details := &AccountDetails{AccountResponse: *toAccountResponse(account)}

	lockout, err := s.lockouts.GetByAccountID(ctx, account.ID)
	switch {
	case err == nil:
		details.Lockout = lockout
	case errors.Is(err, models.ErrNotFound):
		// no login attempt yet
	default:
		s.logger.Error("failed to get lockout state", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	details.Groups, err = s.groups.ListByAccount(ctx, account.ID)
	if err != nil {
		s.logger.Error("failed to list schedule groups", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return details, nil
}

// UnlockAccount clears the lockout of account id on behalf of actorID.
// An account that never attempted a login has nothing to unlock and returns a zeroed state.
func (s *AccountService) UnlockAccount(ctx context.Context, actorID, id string) (*models.LockoutState, error) {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account for unlock", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	state, err := s.lockouts.Unlock(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		state, err = &models.LockoutState{AccountID: id}, nil
	}
	if err != nil {
		s.logger.Error("failed to unlock account", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if s.auditLogger != nil {
		s.auditLogger.LogAccountAction(ctx, pkglogger.AuditEvent{
			EventType: "account_unlocked",
			AccountID: id,
			Metadata:  map[string]string{"actor_id": actorID},
		})
	}
	return state, nil
}

// ListAuthLogs returns the newest auth log entries of an account, newest first.
func (s *AccountService) ListAuthLogs(ctx context.Context, id string, limit int) ([]*models.AuthLogEntry, error) {
	if limit <= 0 {
		limit = DefaultAuthLogLimit
	}
	if limit > MaxAuthLogLimit {
		limit = MaxAuthLogLimit
	}

	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, models.ErrInternalServer
	}

	entries, err := s.authLogs.ListByAccount(ctx, id, limit)
	if err != nil {
		s.logger.Error("failed to list auth logs", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return entries, nil
}

func toAccountResponse(account *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:        account.ID,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Role:      account.Role,
		CreatedAt: account.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: account.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
