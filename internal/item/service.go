package item

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/shareit-backend/internal/booking"
	"github.com/nekogravitycat/shareit-backend/internal/events"
	"github.com/nekogravitycat/shareit-backend/internal/user"
)

// UserReader resolves users by id.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// BookingReader is the part of the booking service items depend on.
type BookingReader interface {
	CanComment(ctx context.Context, userID, itemID string) (bool, error)
	LastAndNext(ctx context.Context, itemID string) (last, next *booking.Booking, err error)
}

type Publisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type CreateRequest struct {
	OwnerID     string
	Name        string
	Description string
	Available   *bool
	RequestID   *string
}

// UpdateRequest is a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string
	Description *string
	Available   *bool
	RequestID   *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Item, error)
	Update(ctx context.Context, ownerID, itemID string, req UpdateRequest) (*Item, error)
	GetByID(ctx context.Context, itemID string) (*Details, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*OwnedItem, error)
	Search(ctx context.Context, text string) ([]*Item, error)
	AddComment(ctx context.Context, authorID, itemID, text string) (*Comment, error)
}

type service struct {
	repo      Repository
	users     UserReader
	bookings  BookingReader
	publisher Publisher
	logger    *zerolog.Logger
}

func NewService(repo Repository, users UserReader, bookings BookingReader, publisher Publisher, logger *zerolog.Logger) Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &service{
		repo:      repo,
		users:     users,
		bookings:  bookings,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Item, error) {
	if _, err := s.requireUser(ctx, req.OwnerID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, ErrEmptyDescription
	}
	if req.Available == nil {
		return nil, ErrAvailableRequired
	}

	it := &Item{
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Description: req.Description,
		Available:   *req.Available,
		RequestID:   req.RequestID,
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("item_id", it.ID).Str("owner_id", it.OwnerID).Msg("item created")
	return it, nil
}

func (s *service) Update(ctx context.Context, ownerID, itemID string, req UpdateRequest) (*Item, error) {
	if _, err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}

	it, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	// Non-owners are told the item does not exist for them.
	if it.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrEmptyName
		}
		it.Name = *req.Name
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, ErrEmptyDescription
		}
		it.Description = *req.Description
	}
	if req.Available != nil {
		it.Available = *req.Available
	}
	if req.RequestID != nil {
		it.RequestID = req.RequestID
	}

	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) GetByID(ctx context.Context, itemID string) (*Details, error) {
	it, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.ListComments(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &Details{Item: it, Comments: comments}, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID string) ([]*OwnedItem, error) {
	if _, err := s.requireUser(ctx, ownerID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]*OwnedItem, 0, len(items))
	for _, it := range items {
		last, next, err := s.bookings.LastAndNext(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &OwnedItem{Item: it, Last: last, Next: next})
	}
	return out, nil
}

func (s *service) Search(ctx context.Context, text string) ([]*Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []*Item{}, nil
	}
	return s.repo.SearchAvailable(ctx, text)
}

func (s *service) AddComment(ctx context.Context, authorID, itemID, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}

	author, err := s.requireUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, itemID); err != nil {
		return nil, err
	}

	ok, err := s.bookings.CanComment(ctx, authorID, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCommentNotPermitted
	}

	c := &Comment{
		ItemID:     itemID,
		AuthorID:   authorID,
		AuthorName: author.Name,
		Text:       text,
	}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		payload := events.CommentEventPayload{CommentID: c.ID, ItemID: itemID, AuthorID: authorID}
		if err := s.publisher.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Warn().Err(err).Msg("publish comment event failed")
		}
	}
	return c, nil
}

// requireUser loads a user that must exist for the operation to proceed.
func (s *service) requireUser(ctx context.Context, id string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrOwnerNotFound
	}
	return u, err
}
