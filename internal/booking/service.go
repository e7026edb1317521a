package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/shareit-backend/internal/events"
)

// UserDirectory answers whether a user id is registered.
type UserDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ItemDirectory resolves items for booking. Unknown ids return ErrItemNotFound.
type ItemDirectory interface {
	GetItem(ctx context.Context, id string) (*ItemRef, error)
}

// Publisher receives booking lifecycle events.
type Publisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type CreateRequest struct {
	BookerID string
	ItemID   string
	Start    time.Time
	End      time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	SetApproval(ctx context.Context, ownerID, bookingID string, approved bool) (*Booking, error)
	Get(ctx context.Context, requesterID, bookingID string) (*Booking, error)
	ListByBooker(ctx context.Context, bookerID string, state State) ([]*Booking, error)
	ListByOwner(ctx context.Context, ownerID string, state State) ([]*Booking, error)
	CanComment(ctx context.Context, userID, itemID string) (bool, error)
	LastAndNext(ctx context.Context, itemID string) (last, next *Booking, err error)
}

type Option func(*service)

// WithClock replaces time.Now as the source of "now" for time-bucketed queries.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *service) { s.publisher = p }
}

type service struct {
	repo      Repository
	users     UserDirectory
	items     ItemDirectory
	publisher Publisher
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, users UserDirectory, items ItemDirectory, opts ...Option) Service {
	nop := zerolog.Nop()
	s := &service{
		repo:   repo,
		users:  users,
		items:  items,
		logger: &nop,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if !req.End.After(req.Start) {
		return nil, ErrInvalidTimeRange
	}

	if err := s.requireUser(ctx, req.BookerID); err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	// Booking your own item is reported as not found, not forbidden.
	if item.OwnerID == req.BookerID {
		return nil, ErrOwnItem
	}
	if !item.Available {
		return nil, ErrItemUnavailable
	}

	b := &Booking{
		ItemID:      item.ID,
		ItemName:    item.Name,
		ItemOwnerID: item.OwnerID,
		BookerID:    req.BookerID,
		Start:       req.Start,
		End:         req.End,
		Status:      StatusWaiting,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("booking_id", b.ID).
		Str("item_id", b.ItemID).
		Str("booker_id", b.BookerID).
		Time("start", b.Start).
		Time("end", b.End).
		Msg("booking created")
	s.publish(events.EventBookingCreated, b)

	return b, nil
}

func (s *service) SetApproval(ctx context.Context, ownerID, bookingID string, approved bool) (*Booking, error) {
	current, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.ItemOwnerID != ownerID {
		return nil, ErrNotItemOwner
	}

	b, err := s.repo.UpdateStatus(ctx, bookingID, func(b *Booking) error {
		next, err := Transition(b.Status, approved)
		if err != nil {
			return err
		}
		b.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("booking_id", b.ID).
		Str("owner_id", ownerID).
		Str("status", string(b.Status)).
		Msg("booking approval")

	eventType := events.EventBookingRejected
	if b.Status == StatusApproved {
		eventType = events.EventBookingApproved
	}
	s.publish(eventType, b)

	return b, nil
}

func (s *service) Get(ctx context.Context, requesterID, bookingID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	// Strangers cannot learn that the booking exists.
	if requesterID != b.BookerID && requesterID != b.ItemOwnerID {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) ListByBooker(ctx context.Context, bookerID string, state State) ([]*Booking, error) {
	if err := s.requireUser(ctx, bookerID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, Filter{BookerID: bookerID, State: state, Now: s.now()})
}

func (s *service) ListByOwner(ctx context.Context, ownerID string, state State) ([]*Booking, error) {
	if err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, Filter{OwnerID: ownerID, State: state, Now: s.now()})
}

func (s *service) CanComment(ctx context.Context, userID, itemID string) (bool, error) {
	return s.repo.HasFinishedApproved(ctx, userID, itemID, s.now())
}

func (s *service) LastAndNext(ctx context.Context, itemID string) (*Booking, *Booking, error) {
	return s.repo.LastAndNextApproved(ctx, itemID, s.now())
}

func (s *service) requireUser(ctx context.Context, id string) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func (s *service) publish(eventType string, b *Booking) {
	if s.publisher == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID: b.ID,
		ItemID:    b.ItemID,
		ItemName:  b.ItemName,
		OwnerID:   b.ItemOwnerID,
		BookerID:  b.BookerID,
		Status:    string(b.Status),
		Start:     b.Start,
		End:       b.End,
	}
	if err := s.publisher.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish booking event failed")
	}
}
