package authengine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/adminkit/authengine/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu      sync.Mutex
	byID    map[string]*Credential
	byEmail map[string]string

	getErr     error
	updateErr  error
	createErr  error
	consumeErr error

	recordFailedCalls int
	updateHashCalls   int
}

func newMockStore() *mockStore {
	return &mockStore{
		byID:    make(map[string]*Credential),
		byEmail: make(map[string]string),
	}
}

func (m *mockStore) add(cred Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cred
	m.byID[c.ID] = &c
	m.byEmail[c.Email] = c.ID
}

func (m *mockStore) credential(id string) Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

func (m *mockStore) GetByEmail(_ context.Context, email string) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return Credential{}, m.getErr
	}
	id, ok := m.byEmail[email]
	if !ok {
		return Credential{}, ErrUserNotFound
	}
	return *m.byID[id], nil
}

func (m *mockStore) GetByID(_ context.Context, id string) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return Credential{}, m.getErr
	}
	cred, ok := m.byID[id]
	if !ok {
		return Credential{}, ErrUserNotFound
	}
	return *cred, nil
}

func (m *mockStore) Create(_ context.Context, input CreateCredentialInput) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return Credential{}, m.createErr
	}
	if _, exists := m.byEmail[input.Email]; exists {
		return Credential{}, ErrAccountExists
	}
	cred := &Credential{
		ID:               fmt.Sprintf("u%d", len(m.byID)+1),
		Email:            input.Email,
		PasswordHash:     input.PasswordHash,
		Active:           true,
		Verified:         input.Verified,
		VerificationCode: input.VerificationCode,
		CreatedAt:        time.Now(),
	}
	m.byID[cred.ID] = cred
	m.byEmail[cred.Email] = cred.ID
	return *cred, nil
}

func (m *mockStore) UpdatePasswordHash(_ context.Context, id, hash string, changedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateHashCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	cred, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	cred.PasswordHash = hash
	cred.LastPasswordChangeAt = changedAt
	return nil
}

func (m *mockStore) RecordFailedAttempt(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordFailedCalls++
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	cred, ok := m.byID[id]
	if !ok {
		return 0, ErrUserNotFound
	}
	cred.FailedAttempts++
	return cred.FailedAttempts, nil
}

func (m *mockStore) ResetFailedAttempts(_ context.Context, id string) error {
	return m.update(id, func(c *Credential) { c.FailedAttempts = 0 })
}

func (m *mockStore) SetLock(_ context.Context, id string, locked bool, until *time.Time) error {
	return m.update(id, func(c *Credential) {
		c.Locked = locked
		c.LockedUntil = until
	})
}

func (m *mockStore) SetActive(_ context.Context, id string, active bool) error {
	return m.update(id, func(c *Credential) { c.Active = active })
}

func (m *mockStore) SetNeedsPasswordChange(_ context.Context, id string, needs bool) error {
	return m.update(id, func(c *Credential) { c.NeedsPasswordChange = needs })
}

func (m *mockStore) SetVerificationCode(_ context.Context, id, code string) error {
	return m.update(id, func(c *Credential) { c.VerificationCode = code })
}

func (m *mockStore) ConsumeVerificationCode(_ context.Context, id, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumeErr != nil {
		return false, m.consumeErr
	}
	cred, ok := m.byID[id]
	if !ok {
		return false, ErrUserNotFound
	}
	if cred.VerificationCode == "" || cred.VerificationCode != code {
		return false, nil
	}
	cred.VerificationCode = ""
	cred.Verified = true
	return true, nil
}

func (m *mockStore) SetResetCode(_ context.Context, id, code string, expiresAt time.Time) error {
	return m.update(id, func(c *Credential) {
		c.ResetCode = code
		c.ResetCodeExpiresAt = &expiresAt
	})
}

func (m *mockStore) ConsumeResetCode(_ context.Context, id, code string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumeErr != nil {
		return false, m.consumeErr
	}
	cred, ok := m.byID[id]
	if !ok {
		return false, ErrUserNotFound
	}
	if cred.ResetCode == "" || cred.ResetCode != code {
		return false, nil
	}
	if cred.ResetCodeExpiresAt == nil || !cred.ResetCodeExpiresAt.After(now) {
		return false, nil
	}
	cred.ResetCode = ""
	cred.ResetCodeExpiresAt = nil
	return true, nil
}

func (m *mockStore) update(id string, fn func(*Credential)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	cred, ok := m.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(cred)
	return nil
}

var _ CredentialStore = (*mockStore)(nil)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

// newTestConfig is DefaultConfig with a signing secret and Argon2 turned
// down to its minimum cost so hashing does not dominate test time.
func newTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEngine(t *testing.T, rdb *redis.Client, store CredentialStore, cfg Config) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func newTestHasher(t *testing.T) *password.Hasher {
	t.Helper()

	h, err := password.NewHasher(password.HashConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

// seedUser hashes pass and registers a verified, active credential.
func seedUser(t *testing.T, store *mockStore, id, email, pass string) {
	t.Helper()

	hash, err := newTestHasher(t).Hash(pass)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	store.add(Credential{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Verified:     true,
		CreatedAt:    time.Now(),
	})
}
