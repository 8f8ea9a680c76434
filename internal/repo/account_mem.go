package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/blog-api/internal/core"
)

// AccountMem is an in-memory core.AccountStore. Emails are unique keys.
type AccountMem struct {
	mu      sync.RWMutex
	byEmail map[string]*core.Account
	byID    map[string]*core.Account
}

func NewAccountMem() *AccountMem {
	return &AccountMem{
		byEmail: map[string]*core.Account{},
		byID:    map[string]*core.Account{},
	}
}

func (r *AccountMem) Create(_ context.Context, a *core.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[a.Email]; ok {
		return core.ErrDuplicateEmail
	}
	now := time.Now().UTC()
	a.ID = uuid.NewString()
	a.CreatedAt, a.UpdatedAt = now, now

	cp := *a
	r.byEmail[a.Email] = &cp
	r.byID[a.ID] = &cp
	return nil
}

func (r *AccountMem) ByEmail(_ context.Context, email string) (*core.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byEmail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AccountMem) ByID(_ context.Context, id string) (*core.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// List returns up to limit accounts, oldest first.
func (r *AccountMem) List(_ context.Context, limit int) ([]core.Account, error) {
	r.mu.RLock()
	out := make([]core.Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, *a)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AccountMem) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}
