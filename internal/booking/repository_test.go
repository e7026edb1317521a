package booking

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/shareit-backend/internal/db"
)

// newTestPool connects to TEST_DB_DSN, applies the schema and empties the
// tables. The test is skipped when no database is configured.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, "TRUNCATE TABLE public.comments, public.bookings, public.items, public.users CASCADE")
	require.NoError(t, err)
	return pool
}

func insertUser(t *testing.T, pool *pgxpool.Pool, name string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO public.users (name, email) VALUES ($1, $2) RETURNING id`,
		name, name+"@shareit.test").Scan(&id)
	require.NoError(t, err)
	return id
}

func insertItem(t *testing.T, pool *pgxpool.Pool, ownerID, name string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO public.items (owner_id, name, description, available) VALUES ($1, $2, $3, true) RETURNING id`,
		ownerID, name, name).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestPgxRepository(t *testing.T) {
	pool := newTestPool(t)
	repo := NewPgxRepository(pool)
	ctx := context.Background()

	owner := insertUser(t, pool, "owner")
	booker := insertUser(t, pool, "booker")
	item := insertItem(t, pool, owner, "Drill")
	now := time.Now().UTC().Truncate(time.Second)

	var approvedID string

	t.Run("CreateAndGet", func(t *testing.T) {
		b := &Booking{ItemID: item, BookerID: booker, Start: now.Add(time.Hour), End: now.Add(3 * time.Hour), Status: StatusWaiting}
		require.NoError(t, repo.Create(ctx, b))
		assert.NotEmpty(t, b.ID)
		assert.Equal(t, "Drill", b.ItemName)
		assert.Equal(t, owner, b.ItemOwnerID)
		assert.Equal(t, "booker", b.BookerName)

		got, err := repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusWaiting, got.Status)
		assert.Equal(t, "booker", got.BookerName)
		assert.True(t, got.Start.Equal(b.Start))
		approvedID = b.ID
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		updated, err := repo.UpdateStatus(ctx, approvedID, func(b *Booking) error {
			next, err := Transition(b.Status, true)
			b.Status = next
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, updated.Status)

		_, err = repo.UpdateStatus(ctx, approvedID, func(b *Booking) error {
			_, err := Transition(b.Status, true)
			return err
		})
		assert.ErrorIs(t, err, ErrAlreadyApproved)

		_, err = repo.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", func(*Booking) error { return nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OverlapRejected", func(t *testing.T) {
		b := &Booking{ItemID: item, BookerID: booker, Start: now.Add(2 * time.Hour), End: now.Add(4 * time.Hour), Status: StatusWaiting}
		assert.ErrorIs(t, repo.Create(ctx, b), ErrOverlap)

		adjacent := &Booking{ItemID: item, BookerID: booker, Start: now.Add(3 * time.Hour), End: now.Add(4 * time.Hour), Status: StatusWaiting}
		assert.NoError(t, repo.Create(ctx, adjacent))
	})

	t.Run("UnknownItemAndBooker", func(t *testing.T) {
		b := &Booking{ItemID: "00000000-0000-0000-0000-000000000000", BookerID: booker, Start: now, End: now.Add(time.Hour), Status: StatusWaiting}
		assert.ErrorIs(t, repo.Create(ctx, b), ErrItemNotFound)

		b = &Booking{ItemID: item, BookerID: "00000000-0000-0000-0000-000000000000", Start: now.Add(-10 * time.Hour), End: now.Add(-9 * time.Hour), Status: StatusWaiting}
		assert.ErrorIs(t, repo.Create(ctx, b), ErrUserNotFound)
	})

	t.Run("ReadsCurrentNames", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE public.items SET name = 'Hammer Drill' WHERE id = $1`, item)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `UPDATE public.users SET name = 'Bea' WHERE id = $1`, booker)
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, approvedID)
		require.NoError(t, err)
		assert.Equal(t, "Hammer Drill", got.ItemName)
		assert.Equal(t, "Bea", got.BookerName)
	})

	t.Run("CreateRechecksAvailability", func(t *testing.T) {
		hidden := insertItem(t, pool, owner, "Ladder")
		_, err := pool.Exec(ctx, `UPDATE public.items SET available = false WHERE id = $1`, hidden)
		require.NoError(t, err)

		b := &Booking{ItemID: hidden, BookerID: booker, Start: now.Add(time.Hour), End: now.Add(2 * time.Hour), Status: StatusWaiting}
		assert.ErrorIs(t, repo.Create(ctx, b), ErrItemUnavailable)

		list, err := repo.List(ctx, Filter{OwnerID: owner, State: StateAll, Now: now})
		require.NoError(t, err)
		for _, got := range list {
			assert.NotEqual(t, hidden, got.ItemID)
		}
	})

	t.Run("List", func(t *testing.T) {
		past := &Booking{ItemID: item, BookerID: booker, Start: now.Add(-48 * time.Hour), End: now.Add(-24 * time.Hour), Status: StatusApproved}
		require.NoError(t, repo.Create(ctx, past))

		all, err := repo.List(ctx, Filter{BookerID: booker, State: StateAll, Now: now})
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].Start.After(all[i-1].Start), "ordered by start descending")
		}

		pastList, err := repo.List(ctx, Filter{OwnerID: owner, State: StatePast, Now: now})
		require.NoError(t, err)
		require.Len(t, pastList, 1)
		assert.Equal(t, past.ID, pastList[0].ID)

		waiting, err := repo.List(ctx, Filter{BookerID: booker, State: StateWaiting, Now: now})
		require.NoError(t, err)
		assert.Len(t, waiting, 1)

		none, err := repo.List(ctx, Filter{BookerID: owner, State: StateAll, Now: now})
		require.NoError(t, err)
		assert.Empty(t, none)

		ok, err := repo.HasFinishedApproved(ctx, booker, item, now)
		require.NoError(t, err)
		assert.True(t, ok)

		last, next, err := repo.LastAndNextApproved(ctx, item, now)
		require.NoError(t, err)
		require.NotNil(t, last)
		require.NotNil(t, next)
		assert.Equal(t, past.ID, last.ID)
		assert.Equal(t, approvedID, next.ID)
	})
}

func TestPgxRepositoryConcurrentApproved(t *testing.T) {
	pool := newTestPool(t)
	repo := NewPgxRepository(pool)
	ctx := context.Background()

	owner := insertUser(t, pool, "owner")
	booker := insertUser(t, pool, "booker")
	item := insertItem(t, pool, owner, "Ladder")
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := &Booking{ItemID: item, BookerID: booker, Start: start, End: start.Add(time.Hour), Status: StatusApproved}
			if err := repo.Create(ctx, b); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}
