package auth

import (
	"context"

	"github.com/rosterline/rosterauth/internal/models"
)

// MockRevocationChecker implements TokenRevocationChecker for testing
type MockRevocationChecker struct {
	IsTokenRevokedFunc func(ctx context.Context, jti string) (bool, error)
}

func (m *MockRevocationChecker) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if m.IsTokenRevokedFunc != nil {
		return m.IsTokenRevokedFunc(ctx, jti)
	}
	return false, nil
}

// MockAccountFetcher implements AccountFetcher for testing
type MockAccountFetcher struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.Account, error)
}

func (m *MockAccountFetcher) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}
