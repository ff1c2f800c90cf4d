package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rosterline/rosterauth/internal/models"
	"github.com/rosterline/rosterauth/internal/repositories"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.Account, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.Account, error)
	ListFunc       func(ctx context.Context, role models.Role) ([]*models.Account, error)
	CreateFunc     func(ctx context.Context, account *models.Account) (*models.Account, error)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) List(ctx context.Context, role models.Role) ([]*models.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, role)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, models.ErrInternalServer
}

// MockLockoutRepository implements LockoutRepository for testing
type MockLockoutRepository struct {
	GetByAccountIDFunc func(ctx context.Context, accountID string) (*models.LockoutState, error)
	UnlockFunc         func(ctx context.Context, accountID string) (*models.LockoutState, error)
}

func (m *MockLockoutRepository) GetByAccountID(ctx context.Context, accountID string) (*models.LockoutState, error) {
	if m.GetByAccountIDFunc != nil {
		return m.GetByAccountIDFunc(ctx, accountID)
	}
	return nil, models.ErrNotFound
}

func (m *MockLockoutRepository) Unlock(ctx context.Context, accountID string) (*models.LockoutState, error) {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, accountID)
	}
	return nil, models.ErrNotFound
}

// MockAuthLogRepository implements AuthLogRepository for testing
type MockAuthLogRepository struct {
	ListByAccountFunc func(ctx context.Context, accountID string, limit int) ([]*models.AuthLogEntry, error)
}

func (m *MockAuthLogRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.AuthLogEntry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit)
	}
	return []*models.AuthLogEntry{}, nil
}

// MockScheduleGroupRepository implements ScheduleGroupRepository for testing
type MockScheduleGroupRepository struct {
	ListByAccountFunc func(ctx context.Context, accountID string) ([]*models.ScheduleGroup, error)
}

func (m *MockScheduleGroupRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.ScheduleGroup, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID)
	}
	return []*models.ScheduleGroup{}, nil
}

// MockTokenRevocationRepository implements TokenRevocationRepository for testing
type MockTokenRevocationRepository struct {
	RevokeTokenFunc    func(ctx context.Context, jti, accountID string, expiresAt time.Time, reason string) error
	IsTokenRevokedFunc func(ctx context.Context, jti string) (bool, error)
}

func (m *MockTokenRevocationRepository) RevokeToken(ctx context.Context, jti, accountID string, expiresAt time.Time, reason string) error {
	if m.RevokeTokenFunc != nil {
		return m.RevokeTokenFunc(ctx, jti, accountID, expiresAt, reason)
	}
	return nil
}

func (m *MockTokenRevocationRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if m.IsTokenRevokedFunc != nil {
		return m.IsTokenRevokedFunc(ctx, jti)
	}
	return false, nil
}

// MockLoginAttempter implements LoginAttempter for testing
type MockLoginAttempter struct {
	AttemptLoginFunc func(ctx context.Context, email, password, originAddress, deviceFingerprint string) (models.AuthResult, error)
}

func (m *MockLoginAttempter) AttemptLogin(ctx context.Context, email, password, originAddress, deviceFingerprint string) (models.AuthResult, error) {
	if m.AttemptLoginFunc != nil {
		return m.AttemptLoginFunc(ctx, email, password, originAddress, deviceFingerprint)
	}
	return models.AccountNotFound(), nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	GenerateAccessTokenFunc func(identity *models.Identity) (string, time.Time, error)
}

func (m *MockTokenIssuer) GenerateAccessToken(identity *models.Identity) (string, time.Time, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(identity)
	}
	return "token-" + identity.AccountID, time.Now().Add(15 * time.Minute), nil
}

// FakeLoginStore is an in-memory LoginStore. WithLockout holds a per-account
// mutex for the whole callback and applies writes only when it returns nil,
// matching the row lock and rollback behaviour of the Postgres store.
type FakeLoginStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account // by email
	lockouts map[string]models.LockoutState
	authLogs []models.AuthLogEntry
	rowLocks map[string]*sync.Mutex

	// GetAccountErr and TxErr inject store failures.
	GetAccountErr error
	TxErr         error
	// FailAppendLog makes AppendAuthLog fail inside the transaction.
	FailAppendLog error
}

func NewFakeLoginStore(accounts ...*models.Account) *FakeLoginStore {
	s := &FakeLoginStore{
		accounts: make(map[string]*models.Account),
		lockouts: make(map[string]models.LockoutState),
		rowLocks: make(map[string]*sync.Mutex),
	}
	for _, a := range accounts {
		s.accounts[a.Email] = a
	}
	return s
}

func (s *FakeLoginStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	if s.GetAccountErr != nil {
		return nil, s.GetAccountErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return a, nil
}

func (s *FakeLoginStore) WithLockout(ctx context.Context, accountID string, fn func(repositories.LockoutTx) error) error {
	if s.TxErr != nil {
		return s.TxErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	row := s.rowLock(accountID)
	row.Lock()
	defer row.Unlock()

	s.mu.Lock()
	state, ok := s.lockouts[accountID]
	if !ok {
		state = models.LockoutState{AccountID: accountID}
	}
	s.mu.Unlock()

	tx := &fakeLockoutTx{state: state, failAppend: s.FailAppendLog}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockouts[accountID] = tx.state
	s.authLogs = append(s.authLogs, tx.logs...)
	return nil
}

// SetLockout seeds the lockout row of an account.
func (s *FakeLoginStore) SetLockout(state models.LockoutState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockouts[state.AccountID] = state
}

// Lockout returns the committed lockout row and whether it exists.
func (s *FakeLoginStore) Lockout(accountID string) (models.LockoutState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.lockouts[accountID]
	return state, ok
}

// AuthLogs returns a copy of the committed auth log entries.
func (s *FakeLoginStore) AuthLogs() []models.AuthLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuthLogEntry(nil), s.authLogs...)
}

func (s *FakeLoginStore) rowLock(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rowLocks[accountID]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[accountID] = m
	}
	return m
}

type fakeLockoutTx struct {
	state      models.LockoutState
	logs       []models.AuthLogEntry
	failAppend error
}

func (t *fakeLockoutTx) State() models.LockoutState {
	return t.state
}

func (t *fakeLockoutTx) Reset(ctx context.Context) error {
	t.state.FailedAttempts = 0
	t.state.Locked = false
	t.state.UnlockTime = nil
	return nil
}

func (t *fakeLockoutTx) RecordFailure(ctx context.Context, f models.LockoutFailure) (models.LockoutState, error) {
	ip := f.IPAddress
	at := f.At
	t.state.FailedAttempts++
	t.state.LastFailedIP = &ip
	t.state.LastFailedTime = &at
	t.state.Locked = t.state.FailedAttempts >= f.MaxAttempts
	if t.state.Locked {
		unlock := f.UnlockAt
		t.state.UnlockTime = &unlock
	}
	return t.state, nil
}

func (t *fakeLockoutTx) AppendAuthLog(ctx context.Context, entry *models.AuthLogEntry) error {
	if t.failAppend != nil {
		return t.failAppend
	}
	entry.ID = fmt.Sprintf("log-%d", len(t.logs)+1)
	t.logs = append(t.logs, *entry)
	return nil
}
