package booking

import "time"

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share an instant.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aEnd.After(bStart) && aStart.Before(bEnd)
}

// blocks reports whether an existing booking prevents a new one on [start, end).
// Only approved bookings block.
func blocks(existing *Booking, itemID string, start, end time.Time) bool {
	return existing.ItemID == itemID &&
		existing.Status == StatusApproved &&
		Overlaps(existing.Start, existing.End, start, end)
}
