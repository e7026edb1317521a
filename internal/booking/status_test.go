package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name     string
		current  Status
		approved bool
		want     Status
		wantErr  error
	}{
		{"approve waiting", StatusWaiting, true, StatusApproved, nil},
		{"reject waiting", StatusWaiting, false, StatusRejected, nil},
		{"approve twice", StatusApproved, true, StatusApproved, ErrAlreadyApproved},
		{"reject twice", StatusRejected, false, StatusRejected, ErrAlreadyRejected},
		{"reject approved", StatusApproved, false, StatusRejected, nil},
		{"approve rejected", StatusRejected, true, StatusApproved, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.current, tt.approved)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusWaiting.Valid())
	assert.True(t, StatusApproved.Valid())
	assert.True(t, StatusRejected.Valid())
	assert.False(t, Status("CANCELED").Valid())
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := func(n int) time.Time { return base.Add(time.Duration(n) * time.Hour) }

	tests := []struct {
		name       string
		aS, aE     time.Time
		bS, bE     time.Time
		overlapped bool
	}{
		{"identical", h(1), h(3), h(1), h(3), true},
		{"partial right", h(1), h(3), h(2), h(4), true},
		{"partial left", h(2), h(4), h(1), h(3), true},
		{"contained", h(1), h(5), h(2), h(3), true},
		{"touching end", h(1), h(3), h(3), h(5), false},
		{"touching start", h(3), h(5), h(1), h(3), false},
		{"disjoint", h(1), h(2), h(4), h(5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlapped, Overlaps(tt.aS, tt.aE, tt.bS, tt.bE))
		})
	}
}
