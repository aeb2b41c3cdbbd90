package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// MockUserRepository is an in-memory user.Repository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[int64]*user.User
	EmailIndex  map[string]*user.User
	NextID      int64
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:      make(map[int64]*user.User),
		EmailIndex: make(map[string]*user.User),
		NextID:     1,
	}
}

func copyUser(u *user.User) *user.User {
	c := *u
	return &c
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateError != nil {
		return m.CreateError
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := m.EmailIndex[u.Email]; exists {
		return errors.Conflict("Email já registado")
	}
	if u.Plan == "" {
		u.Plan = plan.Free
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.ID = m.NextID
	m.NextID++
	m.Users[u.ID] = copyUser(u)
	m.EmailIndex[u.Email] = m.Users[u.ID]
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return copyUser(u), nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.EmailIndex[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return copyUser(u), nil
}

func (m *MockUserRepository) GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if hash != "" && u.ResetTokenHash == hash && u.ResetTokenExpires != nil && u.ResetTokenExpires.After(now) {
			return copyUser(u), nil
		}
	}
	return nil, errors.NotFound("User")
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Users[u.ID]; !ok {
		return errors.NotFound("User")
	}
	u.UpdatedAt = time.Now().UTC()
	m.Users[u.ID] = copyUser(u)
	m.EmailIndex[u.Email] = m.Users[u.ID]
	return nil
}

func (m *MockUserRepository) UpdatePlan(ctx context.Context, id int64, planID string, expires *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[id]
	if !ok {
		return errors.NotFound("User")
	}
	u.Plan = planID
	u.SubscriptionExpires = expires
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[id]
	if !ok {
		return errors.NotFound("User")
	}
	delete(m.EmailIndex, u.Email)
	delete(m.Users, id)
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, filter user.Filter, limit, offset int) ([]*user.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var users []*user.User
	for id := int64(1); id < m.NextID; id++ {
		u, ok := m.Users[id]
		if !ok {
			continue
		}
		if filter.Plan != "" && u.Plan != filter.Plan {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if filter.IsAdmin != nil && u.IsAdmin != *filter.IsAdmin {
			continue
		}
		users = append(users, copyUser(u))
	}
	total := int64(len(users))
	if offset > len(users) {
		offset = len(users)
	}
	users = users[offset:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, total, nil
}

func (m *MockUserRepository) ListExpired(ctx context.Context, now time.Time) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var users []*user.User
	for id := int64(1); id < m.NextID; id++ {
		u, ok := m.Users[id]
		if ok && u.Plan != plan.Free && u.SubscriptionExpires != nil && u.SubscriptionExpires.Before(now) {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

func (m *MockUserRepository) DowngradeExpired(ctx context.Context, id int64, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[id]
	if !ok || u.Plan == plan.Free || u.SubscriptionExpires == nil || !u.SubscriptionExpires.Before(now) {
		return false, nil
	}
	u.Plan = plan.Free
	u.SubscriptionExpires = nil
	return true, nil
}

// MockCounter is a quota.Counter with fixed usage per user and feature
type MockCounter struct {
	mu    sync.Mutex
	Usage map[int64]map[plan.Feature]int
	Err   error
}

func NewMockCounter() *MockCounter {
	return &MockCounter{Usage: make(map[int64]map[plan.Feature]int)}
}

// Set records usage of f for userID
func (m *MockCounter) Set(userID int64, f plan.Feature, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Usage[userID] == nil {
		m.Usage[userID] = make(map[plan.Feature]int)
	}
	m.Usage[userID][f] = n
}

func (m *MockCounter) Count(ctx context.Context, userID int64, f plan.Feature) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Usage[userID][f], nil
}

// MockMailer records sent messages and can be told to fail
type MockMailer struct {
	mu   sync.Mutex
	Sent []email.Message
	Err  error
}

func (m *MockMailer) Send(ctx context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Count returns how many messages were delivered
func (m *MockMailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockConsultant answers every prompt with a fixed reply
type MockConsultant struct {
	Reply   string
	Err     error
	Prompts []string
	History [][]chat.Turn
}

func (m *MockConsultant) Consult(ctx context.Context, system string, history []chat.Turn, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	m.History = append(m.History, history)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply == "" {
		return "Resposta de teste", nil
	}
	return m.Reply, nil
}

func (m *MockConsultant) Name() string { return "mock" }

// MockStore is an in-memory object store
type MockStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	PutErr  error
}

func NewMockStore() *MockStore {
	return &MockStore{Objects: make(map[string][]byte)}
}

func (m *MockStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = data
	return nil
}

func (m *MockStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStore) Name() string { return "memory" }
