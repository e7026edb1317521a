package http

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/booking"
)

// ItemTag is the item summary embedded in a booking.
type ItemTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BookerTag is the booker summary embedded in a booking.
type BookerTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookingResponse struct {
	ID        string    `json:"id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
	Item      ItemTag   `json:"item"`
	Booker    BookerTag `json:"booker"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		Start:     b.Start,
		End:       b.End,
		Status:    string(b.Status),
		Item:      ItemTag{ID: b.ItemID, Name: b.ItemName},
		Booker:    BookerTag{ID: b.BookerID, Name: b.BookerName},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func NewBookingListResponse(bs []*booking.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bs))
	for i, b := range bs {
		out[i] = NewBookingResponse(b)
	}
	return out
}

// CreateBookingRequest is the body of POST /bookings. Times are RFC 3339.
type CreateBookingRequest struct {
	ItemID string    `json:"itemId" binding:"required,uuid"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
}

// ApprovalQuery binds ?approved=true|false.
type ApprovalQuery struct {
	Approved *bool `form:"approved" binding:"required"`
}
