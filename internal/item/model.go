package item

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/booking"
	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.NotFound("item not found")
	ErrOwnerNotFound       = apperror.NotFound("user not found")
	ErrNotOwner            = apperror.NotFound("only the owner can edit an item")
	ErrEmptyName           = apperror.Validation("name must not be blank")
	ErrEmptyDescription    = apperror.Validation("description must not be blank")
	ErrAvailableRequired   = apperror.Validation("available must be set")
	ErrEmptyComment        = apperror.Validation("comment text must not be blank")
	ErrCommentNotPermitted = apperror.Validation("only users who have completed an approved booking can comment")
)

// Item is something an owner offers for booking.
type Item struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Available   bool
	RequestID   *string
	CreatedAt   time.Time
}

// Comment is feedback left by a past booker.
type Comment struct {
	ID         string
	ItemID     string
	AuthorID   string
	AuthorName string
	Text       string
	CreatedAt  time.Time
}

// Details is an item with its comments, newest first.
type Details struct {
	Item     *Item
	Comments []*Comment
}

// OwnedItem is an owner's item with its neighbouring approved bookings.
type OwnedItem struct {
	Item *Item
	Last *booking.Booking
	Next *booking.Booking
}
