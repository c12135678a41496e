package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/growtools/backend/internal/domain"
)

// In-memory store fakes backing the service tests.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*domain.User)}
}

func (s *fakeUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) Exists(ctx context.Context, email string) (bool, error) {
	u, err := s.FindByEmail(ctx, email)
	return u != nil, err
}

func (s *fakeUserStore) ListAll(_ context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeUserStore) UpdateStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.Status = status
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

type fakeToolStore struct {
	mu    sync.Mutex
	tools map[string]*domain.Tool
}

func newFakeToolStore() *fakeToolStore {
	return &fakeToolStore{tools: make(map[string]*domain.Tool)}
}

func (s *fakeToolStore) Create(_ context.Context, t *domain.Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tools[t.ID] = &cp
	return nil
}

func (s *fakeToolStore) FindByID(_ context.Context, id string) (*domain.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tools[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *fakeToolStore) ListAll(_ context.Context) ([]*domain.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeToolStore) Update(_ context.Context, t *domain.Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tools[t.ID]; !ok {
		return errors.New("tool not found")
	}
	cp := *t
	s.tools[t.ID] = &cp
	return nil
}

func (s *fakeToolStore) SaveCookieBlob(_ context.Context, toolID, blob string, expiry *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tools[toolID]
	if !ok {
		return errors.New("tool not found")
	}
	now := time.Now()
	t.CookieBlob = blob
	t.CookieExpiry = expiry
	t.CookieUpdated = &now
	return nil
}

type fakeSubStore struct {
	mu   sync.Mutex
	subs map[string]*domain.ToolSubscription
}

func newFakeSubStore() *fakeSubStore {
	return &fakeSubStore{subs: make(map[string]*domain.ToolSubscription)}
}

func (s *fakeSubStore) Create(_ context.Context, sub *domain.ToolSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sub
	s.subs[sub.ID] = &cp
	return nil
}

func (s *fakeSubStore) FindByID(_ context.Context, id string) (*domain.ToolSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (s *fakeSubStore) FindByUserAndTool(_ context.Context, userID, toolID string) (*domain.ToolSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.ToolSubscription
	for _, sub := range s.subs {
		if sub.UserID != userID || sub.ToolID != toolID {
			continue
		}
		if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *fakeSubStore) ListByUser(_ context.Context, userID string) ([]*domain.ToolSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ToolSubscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeSubStore) UpdateStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return errors.New("subscription not found")
	}
	sub.Status = status
	sub.UpdatedAt = time.Now()
	return nil
}

func (s *fakeSubStore) UpdateActivation(_ context.Context, id, activation string, credentials *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return errors.New("subscription not found")
	}
	sub.ActivationStatus = activation
	if credentials != nil {
		sub.Credentials = credentials
	}
	if activation == domain.ActivationSuspended {
		now := time.Now()
		sub.SuspendedAt = &now
	}
	sub.UpdatedAt = time.Now()
	return nil
}

func (s *fakeSubStore) CountActiveByUser(_ context.Context, userID, excludeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.ID != excludeID &&
			sub.Status == domain.SubStatusActive && sub.ActivationStatus == domain.ActivationActive {
			count++
		}
	}
	return count, nil
}

func (s *fakeSubStore) ListExpired(_ context.Context, now time.Time) ([]*domain.ToolSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ToolSubscription
	for _, sub := range s.subs {
		if sub.Status == domain.SubStatusActive && sub.CurrentPeriodEnd.Before(now) {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakePoolStore struct {
	mu    sync.Mutex
	pools map[string]*domain.CredentialPool
}

func newFakePoolStore() *fakePoolStore {
	return &fakePoolStore{pools: make(map[string]*domain.CredentialPool)}
}

func (s *fakePoolStore) Create(_ context.Context, p *domain.CredentialPool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.pools[p.ID] = &cp
	return nil
}

// FindAvailable mirrors the repository query: least-loaded pool with
// headroom, stable tie-break on id.
func (s *fakePoolStore) FindAvailable(_ context.Context, toolID string) (*domain.CredentialPool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []*domain.CredentialPool
	for _, p := range s.pools {
		if p.ToolID == toolID && p.CurrentUsers < p.MaxUsers {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CurrentUsers != candidates[j].CurrentUsers {
			return candidates[i].CurrentUsers < candidates[j].CurrentUsers
		}
		return candidates[i].ID < candidates[j].ID
	})
	cp := *candidates[0]
	return &cp, nil
}

func (s *fakePoolStore) Increment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[id]
	if !ok {
		return errors.New("pool not found")
	}
	if p.CurrentUsers >= p.MaxUsers {
		return errors.New("pool is full")
	}
	p.CurrentUsers++
	return nil
}

func (s *fakePoolStore) Decrement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[id]
	if !ok {
		return errors.New("pool not found")
	}
	if p.CurrentUsers > 0 {
		p.CurrentUsers--
	}
	return nil
}

func (s *fakePoolStore) get(id string) *domain.CredentialPool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []*domain.AdminLog
}

func newFakeAuditStore() *fakeAuditStore {
	return &fakeAuditStore{}
}

func (s *fakeAuditStore) Append(_ context.Context, entry *domain.AdminLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *fakeAuditStore) ListRecent(_ context.Context, limit int) ([]*domain.AdminLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.AdminLog, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}
