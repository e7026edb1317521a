package http

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/booking"
	"github.com/nekogravitycat/shareit-backend/internal/item"
)

// BookingShort is the neighbouring-booking summary on an owner's item.
type BookingShort struct {
	ID       string    `json:"id"`
	BookerID string    `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type CommentResponse struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    time.Time `json:"created"`
}

type ItemResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Available   bool              `json:"available"`
	OwnerID     string            `json:"ownerId"`
	RequestID   *string           `json:"requestId"`
	LastBooking *BookingShort     `json:"lastBooking"`
	NextBooking *BookingShort     `json:"nextBooking"`
	Comments    []CommentResponse `json:"comments,omitempty"`
}

func NewItemResponse(it *item.Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Available:   it.Available,
		OwnerID:     it.OwnerID,
		RequestID:   it.RequestID,
	}
}

func NewDetailsResponse(d *item.Details) ItemResponse {
	resp := NewItemResponse(d.Item)
	resp.Comments = make([]CommentResponse, len(d.Comments))
	for i, c := range d.Comments {
		resp.Comments[i] = NewCommentResponse(c)
	}
	return resp
}

func NewOwnedItemResponse(o *item.OwnedItem) ItemResponse {
	resp := NewItemResponse(o.Item)
	resp.LastBooking = newBookingShort(o.Last)
	resp.NextBooking = newBookingShort(o.Next)
	return resp
}

func NewCommentResponse(c *item.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		Text:       c.Text,
		AuthorName: c.AuthorName,
		Created:    c.CreatedAt,
	}
}

func newBookingShort(b *booking.Booking) *BookingShort {
	if b == nil {
		return nil
	}
	return &BookingShort{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
}

// CreateItemRequest is the body of POST /items. Blank checks happen in the service.
type CreateItemRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Available   *bool   `json:"available"`
	RequestID   *string `json:"requestId" binding:"omitempty,uuid"`
}

// UpdateItemRequest is the body of PATCH /items/:id.
type UpdateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
	RequestID   *string `json:"requestId" binding:"omitempty,uuid"`
}

type SearchQuery struct {
	Text string `form:"text"`
}

type CreateCommentRequest struct {
	Text string `json:"text"`
}
