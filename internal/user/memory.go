package user

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by the memory backend and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
	seq   []string // insertion order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*User)}
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u := r.findEmail(email, ""); u != nil {
		c := *u
		return &c, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findEmail(u.Email, "") != nil {
		return ErrEmailAlreadyUsed
	}

	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	c := *u
	r.users[u.ID] = &c
	r.seq = append(r.seq, u.ID)
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*User, 0, len(r.seq))
	for _, id := range r.seq {
		c := *r.users[id]
		out = append(out, &c)
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if r.findEmail(u.Email, u.ID) != nil {
		return ErrEmailAlreadyUsed
	}
	stored.Name = u.Name
	stored.Email = u.Email
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	r.seq = slices.DeleteFunc(r.seq, func(s string) bool { return s == id })
	return nil
}

// findEmail returns the user holding email, ignoring exceptID. Callers hold mu.
func (r *MemoryRepository) findEmail(email, exceptID string) *User {
	for _, u := range r.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}
