package item

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps items and comments in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	items    map[string]*Item
	order    []string
	comments []*Comment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*Item)}
}

func (r *MemoryRepository) Create(_ context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it.ID = uuid.NewString()
	it.CreatedAt = time.Now().UTC()
	c := *it
	r.items[it.ID] = &c
	r.order = append(r.order, it.ID)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *it
	return &c, nil
}

func (r *MemoryRepository) Update(_ context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[it.ID]; !ok {
		return ErrNotFound
	}
	c := *it
	r.items[it.ID] = &c
	return nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]*Item, error) {
	return r.filter(func(it *Item) bool { return it.OwnerID == ownerID }), nil
}

func (r *MemoryRepository) SearchAvailable(_ context.Context, text string) ([]*Item, error) {
	needle := strings.ToLower(text)
	return r.filter(func(it *Item) bool {
		return it.Available &&
			(strings.Contains(strings.ToLower(it.Name), needle) ||
				strings.Contains(strings.ToLower(it.Description), needle))
	}), nil
}

func (r *MemoryRepository) filter(keep func(*Item) bool) []*Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Item, 0)
	for _, id := range r.order {
		if it := r.items[id]; keep(it) {
			c := *it
			out = append(out, &c)
		}
	}
	return out
}

func (r *MemoryRepository) AddComment(_ context.Context, c *Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	stored := *c
	r.comments = append(r.comments, &stored)
	return nil
}

func (r *MemoryRepository) ListComments(_ context.Context, itemID string) ([]*Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Comment, 0)
	for _, c := range r.comments {
		if c.ItemID == itemID {
			cp := *c
			out = append(out, &cp)
		}
	}
	// Appended in creation order; newest first means reversed.
	slices.Reverse(out)
	return out, nil
}

// DeleteByUser drops the user's items with all their comments, and every
// comment the user wrote elsewhere.
func (r *MemoryRepository) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = slices.DeleteFunc(r.order, func(id string) bool {
		if r.items[id].OwnerID != userID {
			return false
		}
		delete(r.items, id)
		return true
	})
	r.comments = slices.DeleteFunc(r.comments, func(c *Comment) bool {
		_, kept := r.items[c.ItemID]
		return !kept || c.AuthorID == userID
	})
	return nil
}
