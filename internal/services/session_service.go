package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rosterline/rosterauth/internal/auth"
	"github.com/rosterline/rosterauth/internal/models"
)

// LoginAttempter is implemented by Authenticator.
type LoginAttempter interface {
	AttemptLogin(ctx context.Context, email, password, originAddress, deviceFingerprint string) (models.AuthResult, error)
}

// TokenIssuer signs access tokens for authenticated identities.
type TokenIssuer interface {
	GenerateAccessToken(identity *models.Identity) (string, time.Time, error)
}

// TokenRevocationRepository records revoked token ids until they expire.
type TokenRevocationRepository interface {
	RevokeToken(ctx context.Context, jti, accountID string, expiresAt time.Time, reason string) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// LoginRequest carries one login attempt from the transport layer.
type LoginRequest struct {
	Email     string
	Password  string
	IPAddress string
	DeviceID  string
}

// LoginResponse is the decided outcome plus, on success, the token to set in the authToken cookie.
type LoginResponse struct {
	Result    models.AuthResult
	Token     string
	ExpiresAt time.Time
}

// SessionResponse describes the caller behind a valid token.
type SessionResponse struct {
	Identity  *models.Identity        `json:"user"`
	Groups    []*models.ScheduleGroup `json:"groups"`
	Token     string                  `json:"-"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// SessionService turns authenticator decisions into authToken sessions.
type SessionService struct {
	authenticator LoginAttempter
	tokens        TokenIssuer
	revocations   TokenRevocationRepository
	accounts      AccountRepository
	groups        ScheduleGroupRepository
	timing        *auth.TimingDelay
	logger        *slog.Logger
}

func NewSessionService(
	authenticator LoginAttempter,
	tokens TokenIssuer,
	revocations TokenRevocationRepository,
	accounts AccountRepository,
	groups ScheduleGroupRepository,
	timing *auth.TimingDelay,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		authenticator: authenticator,
		tokens:        tokens,
		revocations:   revocations,
		accounts:      accounts,
		groups:        groups,
		timing:        timing,
		logger:        logger,
	}
}

// Login decides the attempt and issues a token when it succeeds.
// Failed attempts are padded so their latency does not reveal which check failed.
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	start := time.Now()

	result, err := s.authenticator.AttemptLogin(ctx, req.Email, req.Password, req.IPAddress, req.DeviceID)
	if s.timing != nil {
		s.timing.WaitFrom(start, err == nil && result.Succeeded())
	}
	if err != nil {
		return nil, err
	}

	resp := &LoginResponse{Result: result}
	if !result.Succeeded() {
		return resp, nil
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(result.Identity)
	if err != nil {
		s.logger.Error("failed to issue access token",
			slog.String("account_id", result.Identity.AccountID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp.Token = token
	resp.ExpiresAt = expiresAt
	return resp, nil
}

// Refresh reloads the caller's account and issues a fresh token for it.
func (s *SessionService) Refresh(ctx context.Context, claims *models.TokenClaims) (*SessionResponse, error) {
	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("session refresh for deleted account", slog.String("account_id", claims.AccountID))
			return nil, models.ErrUnauthorized
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	groups, err := s.groups.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("load schedule groups: %w", err)
	}

	identity := account.Identity()
	token, expiresAt, err := s.tokens.GenerateAccessToken(identity)
	if err != nil {
		s.logger.Error("failed to refresh access token", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &SessionResponse{
		Identity:  identity,
		Groups:    groups,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *SessionService) Logout(ctx context.Context, claims *models.TokenClaims) error {
	if claims.ExpiresAt == nil {
		return nil
	}

	if err := s.revocations.RevokeToken(ctx, claims.ID, claims.AccountID, claims.ExpiresAt.Time, "logout"); err != nil {
		s.logger.Error("failed to revoke token on logout",
			slog.String("account_id", claims.AccountID),
			slog.Any("error", err))
		return fmt.Errorf("revoke token: %w", err)
	}

	s.logger.Info("account logged out", slog.String("account_id", claims.AccountID))
	return nil
}
