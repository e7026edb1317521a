package booking

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps bookings in process memory. One mutex covers every
// booking so the overlap check and insert cannot interleave.
type MemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
	now      func() time.Time
	items    ItemDirectory
	users    NameLookup
}

// NameLookup returns the current display name of a user.
type NameLookup func(ctx context.Context, userID string) (string, error)

type MemoryOption func(*MemoryRepository)

// WithItemDirectory makes Create re-read the item under the booking lock and
// makes reads report the item's current name.
func WithItemDirectory(items ItemDirectory) MemoryOption {
	return func(r *MemoryRepository) { r.items = items }
}

// WithUserNames makes Create require a known booker and makes reads report the
// booker's current name.
func WithUserNames(lookup NameLookup) MemoryOption {
	return func(r *MemoryRepository) { r.users = lookup }
}

func NewMemoryRepository(opts ...MemoryOption) *MemoryRepository {
	r := &MemoryRepository{
		bookings: make(map[string]*Booking),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryRepository) Create(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.items != nil {
		ref, err := r.items.GetItem(ctx, b.ItemID)
		if err != nil {
			return err
		}
		if !ref.Available {
			return ErrItemUnavailable
		}
		b.ItemName = ref.Name
		b.ItemOwnerID = ref.OwnerID
	}
	if r.users != nil {
		name, err := r.users(ctx, b.BookerID)
		if err != nil {
			return err
		}
		b.BookerName = name
	}

	for _, existing := range r.bookings {
		if blocks(existing, b.ItemID, b.Start, b.End) {
			return ErrOverlap
		}
	}

	now := r.now()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now

	stored := *b
	r.bookings[b.ID] = &stored
	return nil
}

// DeleteByUser drops every booking the user made and every booking of an item
// the user owns.
func (r *MemoryRepository) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, b := range r.bookings {
		if b.BookerID == userID || b.ItemOwnerID == userID {
			delete(r.bookings, id)
		}
	}
	return nil
}

// resolve refreshes the joined names on a copy. A failed lookup keeps the name
// captured at creation.
func (r *MemoryRepository) resolve(ctx context.Context, b *Booking) {
	if b == nil {
		return
	}
	if r.items != nil {
		if ref, err := r.items.GetItem(ctx, b.ItemID); err == nil {
			b.ItemName = ref.Name
		}
	}
	if r.users != nil {
		if name, err := r.users(ctx, b.BookerID); err == nil {
			b.BookerName = name
		}
	}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	b, ok := r.bookings[id]
	out := clone(b)
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	r.resolve(ctx, out)
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, mutate func(b *Booking) error) (*Booking, error) {
	out, err := r.updateStatus(id, mutate)
	if err != nil {
		return nil, err
	}
	r.resolve(ctx, out)
	return out, nil
}

func (r *MemoryRepository) updateStatus(id string, mutate func(b *Booking) error) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}

	working := *stored
	if err := mutate(&working); err != nil {
		return nil, err
	}

	stored.Status = working.Status
	stored.UpdatedAt = r.now()
	return clone(stored), nil
}

func (r *MemoryRepository) List(ctx context.Context, filter Filter) ([]*Booking, error) {
	out := r.list(filter)
	for _, b := range out {
		r.resolve(ctx, b)
	}
	return out, nil
}

func (r *MemoryRepository) list(filter Filter) []*Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Booking, 0)
	for _, b := range r.bookings {
		if filter.BookerID != "" && b.BookerID != filter.BookerID {
			continue
		}
		if filter.OwnerID != "" && b.ItemOwnerID != filter.OwnerID {
			continue
		}
		if !filter.State.Matches(b, filter.Now) {
			continue
		}
		c := *b
		out = append(out, &c)
	}

	slices.SortFunc(out, func(a, b *Booking) int {
		if c := b.Start.Compare(a.Start); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func (r *MemoryRepository) HasApprovedOverlap(_ context.Context, itemID string, start, end time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.bookings {
		if blocks(b, itemID, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) HasFinishedApproved(_ context.Context, bookerID, itemID string, now time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.bookings {
		if b.BookerID == bookerID && b.ItemID == itemID &&
			b.Status == StatusApproved && b.End.Before(now) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) LastAndNextApproved(ctx context.Context, itemID string, now time.Time) (*Booking, *Booking, error) {
	last, next := r.lastAndNext(itemID, now)
	r.resolve(ctx, last)
	r.resolve(ctx, next)
	return last, next, nil
}

func (r *MemoryRepository) lastAndNext(itemID string, now time.Time) (*Booking, *Booking) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last, next *Booking
	for _, b := range r.bookings {
		if b.ItemID != itemID || b.Status != StatusApproved {
			continue
		}
		if !b.Start.After(now) {
			if last == nil || b.Start.After(last.Start) {
				last = b
			}
		} else if next == nil || b.Start.Before(next.Start) {
			next = b
		}
	}
	return clone(last), clone(next)
}

func clone(b *Booking) *Booking {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
