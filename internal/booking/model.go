package booking

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.NotFound("booking not found")
	ErrItemNotFound     = apperror.NotFound("item not found")
	ErrUserNotFound     = apperror.NotFound("user not found")
	ErrOwnItem          = apperror.NotFound("cannot book own item")
	ErrInvalidTimeRange = apperror.Validation("end must be after start")
	ErrItemUnavailable  = apperror.Validation("item is not available")
	ErrOverlap          = apperror.Validation("item is already booked for the requested period")
	ErrAlreadyApproved  = apperror.Validation("booking is already approved")
	ErrAlreadyRejected  = apperror.Validation("booking is already rejected")
	ErrNotItemOwner     = apperror.Forbidden("only the item owner can approve or reject a booking")
)

// Status is the lifecycle stage of a booking.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Booking is a reservation of an item by a booker for [Start, End).
// ItemName and BookerName are read from the current item and user on every load.
type Booking struct {
	ID          string
	ItemID      string
	ItemName    string
	ItemOwnerID string
	BookerID    string
	BookerName  string
	Start       time.Time
	End         time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemRef is the read-only view of an item needed to book it.
type ItemRef struct {
	ID        string
	OwnerID   string
	Name      string
	Available bool
}

// Filter selects bookings for list queries. Exactly one of BookerID or OwnerID is set.
type Filter struct {
	BookerID string
	OwnerID  string
	State    State
	Now      time.Time
}
