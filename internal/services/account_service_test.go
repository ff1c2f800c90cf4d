package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rosterline/rosterauth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccountService(accounts AccountRepository, lockouts LockoutRepository, logs AuthLogRepository, groups ScheduleGroupRepository) *AccountService {
	return NewAccountService(accounts, lockouts, logs, groups, discardLogger(), nil)
}

func existingAccount(id string) *MockAccountRepository {
	return &MockAccountRepository{
		GetByIDFunc: func(ctx context.Context, got string) (*models.Account, error) {
			if got != id {
				return nil, models.ErrNotFound
			}
			return &models.Account{
				ID:        id,
				Email:     testEmail,
				FirstName: "Sam",
				LastName:  "Rivera",
				Role:      models.RoleWorker,
				CreatedAt: testNow,
				UpdatedAt: testNow,
			}, nil
		},
	}
}

func TestAccountService_ListAccounts(t *testing.T) {
	var gotRole models.Role
	accounts := &MockAccountRepository{
		ListFunc: func(ctx context.Context, role models.Role) ([]*models.Account, error) {
			gotRole = role
			return []*models.Account{{ID: "a1", Email: testEmail, PasswordHash: "secret-hash", Role: models.RoleWorker}}, nil
		},
	}

	svc := newTestAccountService(accounts, &MockLockoutRepository{}, &MockAuthLogRepository{}, &MockScheduleGroupRepository{})
	list, err := svc.ListAccounts(context.Background(), "worker")

	require.NoError(t, err)
	assert.Equal(t, models.RoleWorker, gotRole)
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].ID)
}

func TestAccountService_ListAccountsRejectsUnknownRole(t *testing.T) {
	svc := newTestAccountService(&MockAccountRepository{}, &MockLockoutRepository{}, &MockAuthLogRepository{}, &MockScheduleGroupRepository{})

	_, err := svc.ListAccounts(context.Background(), "superuser")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestAccountService_GetAccount(t *testing.T) {
	unlock := testNow.Add(time.Minute)
	lockouts := &MockLockoutRepository{
		GetByAccountIDFunc: func(ctx context.Context, accountID string) (*models.LockoutState, error) {
			return &models.LockoutState{AccountID: accountID, FailedAttempts: 5, Locked: true, UnlockTime: &unlock}, nil
		},
	}
	groups := &MockScheduleGroupRepository{
		ListByAccountFunc: func(ctx context.Context, accountID string) ([]*models.ScheduleGroup, error) {
			return []*models.ScheduleGroup{{ID: "g1", Name: "Helpdesk"}}, nil
		},
	}

	svc := newTestAccountService(existingAccount("a1"), lockouts, &MockAuthLogRepository{}, groups)
	details, err := svc.GetAccount(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, "a1", details.ID)
	assert.Equal(t, "2026-03-02T09:00:00Z", details.CreatedAt)
	require.NotNil(t, details.Lockout)
	assert.True(t, details.Lockout.Locked)
	assert.Len(t, details.Groups, 1)
}

func TestAccountService_GetAccountWithoutLockoutRow(t *testing.T) {
	svc := newTestAccountService(existingAccount("a1"), &MockLockoutRepository{}, &MockAuthLogRepository{}, &MockScheduleGroupRepository{})

	details, err := svc.GetAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Nil(t, details.Lockout)
}

func TestAccountService_GetAccountNotFound(t *testing.T) {
	svc := newTestAccountService(existingAccount("a1"), &MockLockoutRepository{}, &MockAuthLogRepository{}, &MockScheduleGroupRepository{})

	_, err := svc.GetAccount(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAccountService_UnlockAccount(t *testing.T) {
	var unlocked string
	lockouts := &MockLockoutRepository{
		UnlockFunc: func(ctx context.Context, accountID string) (*models.LockoutState, error) {
			unlocked = accountID
			return &models.LockoutState{AccountID: accountID}, nil
		},
	}

	svc := newTestAccountService(existingAccount("a1"), lockouts, &MockAuthLogRepository{}, &MockScheduleGroupRepository{})
	state, err := svc.UnlockAccount(context.Background(), "admin-1", "a1")

	require.NoError(t, err)
	assert.Equal(t, "a1", unlocked)
	assert.Equal(t, 0, state.FailedAttempts)
	assert.False(t, state.Locked)
}

func TestAccountService_UnlockAccountWithoutLockoutRow(t *testing.T) {
	svc := newTestAccountService(existingAccount("a1"), &MockLockoutRepository{}, &MockAuthLogRepository{}, &MockScheduleGroupRepository{})

	state, err := svc.UnlockAccount(context.Background(), "admin-1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", state.AccountID)
	assert.False(t, state.Locked)
}

func TestAccountService_UnlockAccountStoreError(t *testing.T) {
	lockouts := &MockLockoutRepository{
		UnlockFunc: func(ctx context.Context, accountID string) (*models.LockoutState, error) {
			return nil, errors.New("connection reset")
		},
	}

	svc := newTestAccountService(existingAccount("a1"), lockouts, &MockAuthLogRepository{}, &MockScheduleGroupRepository{})
	_, err := svc.UnlockAccount(context.Background(), "admin-1", "a1")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAccountService_ListAuthLogsClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, DefaultAuthLogLimit},
		{"within range", 10, 10},
		{"clamped", 10000, MaxAuthLogLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			logs := &MockAuthLogRepository{
				ListByAccountFunc: func(ctx context.Context, accountID string, limit int) ([]*models.AuthLogEntry, error) {
					gotLimit = limit
					return []*models.AuthLogEntry{}, nil
				},
			}

			svc := newTestAccountService(existingAccount("a1"), &MockLockoutRepository{}, logs, &MockScheduleGroupRepository{})
			_, err := svc.ListAuthLogs(context.Background(), "a1", tt.limit)

			require.NoError(t, err)
			assert.Equal(t, tt.want, gotLimit)
		})
	}
}
