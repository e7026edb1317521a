package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Create stores b as a new booking. The approved-overlap check and the insert
	// happen as one unit per item; a conflict returns ErrOverlap and stores nothing.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	// UpdateStatus loads the booking under a lock, lets mutate change its status
	// and persists the result. An error from mutate aborts without writing.
	UpdateStatus(ctx context.Context, id string, mutate func(b *Booking) error) (*Booking, error)
	// List returns bookings matching the filter ordered by start descending.
	List(ctx context.Context, filter Filter) ([]*Booking, error)

	HasApprovedOverlap(ctx context.Context, itemID string, start, end time.Time) (bool, error)
	// HasFinishedApproved reports whether bookerID holds an approved booking of
	// itemID that ended before now.
	HasFinishedApproved(ctx context.Context, bookerID, itemID string, now time.Time) (bool, error)
	// LastAndNextApproved returns the latest approved booking that started at or
	// before now and the earliest one starting after it. Either may be nil.
	LastAndNextApproved(ctx context.Context, itemID string, now time.Time) (last, next *Booking, err error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.item_id", "i.name", "i.owner_id", "b.booker_id", "u.name",
	"b.start_time", "b.end_time", "b.status", "b.created_at", "b.updated_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func selectBookings() squirrel.SelectBuilder {
	return psql.Select(bookingColumns...).
		From("public.bookings b").
		Join("public.items i ON b.item_id = i.id").
		Join("public.users u ON b.booker_id = u.id")
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.ItemID, &b.ItemName, &b.ItemOwnerID, &b.BookerID, &b.BookerName,
		&b.Start, &b.End, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin create booking tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize bookings of the same item on its row lock.
	// Availability is re-read under the lock so a concurrent withdrawal wins.
	lockSQL, lockArgs, err := psql.Select("name", "owner_id", "available").
		From("public.items").
		Where(squirrel.Eq{"id": b.ItemID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lock item query failed: %w", err)
	}
	var available bool
	if err := tx.QueryRow(ctx, lockSQL, lockArgs...).Scan(&b.ItemName, &b.ItemOwnerID, &available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("lock item failed: %w", err)
	}
	if !available {
		return ErrItemUnavailable
	}

	bookerSQL, bookerArgs, err := psql.Select("name").
		From("public.users").
		Where(squirrel.Eq{"id": b.BookerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build booker query failed: %w", err)
	}
	if err := tx.QueryRow(ctx, bookerSQL, bookerArgs...).Scan(&b.BookerName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get booker failed: %w", err)
	}

	overlap, err := hasApprovedOverlap(ctx, tx, b.ItemID, b.Start, b.End)
	if err != nil {
		return err
	}
	if overlap {
		return ErrOverlap
	}

	query, args, err := psql.Insert("public.bookings").
		Columns("item_id", "booker_id", "start_time", "end_time", "status").
		Values(b.ItemID, b.BookerID, b.Start, b.End, b.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.ForeignKeyViolation {
			return ErrUserNotFound
		}
		return fmt.Errorf("create booking failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, mutate func(b *Booking) error) (*Booking, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin update booking tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.id": id}).
		Suffix("FOR UPDATE OF b").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock booking query failed: %w", err)
	}

	b, err := scanBooking(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock booking failed: %w", err)
	}

	if err := mutate(b); err != nil {
		return nil, err
	}

	updateSQL, updateArgs, err := psql.Update("public.bookings").
		Set("status", b.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update booking query failed: %w", err)
	}
	if err := tx.QueryRow(ctx, updateSQL, updateArgs...).Scan(&b.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update booking failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, error) {
	query := selectBookings()

	if filter.BookerID != "" {
		query = query.Where(squirrel.Eq{"b.booker_id": filter.BookerID})
	}
	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"i.owner_id": filter.OwnerID})
	}

	switch filter.State {
	case StateCurrent:
		query = query.Where(squirrel.LtOrEq{"b.start_time": filter.Now}).
			Where(squirrel.GtOrEq{"b.end_time": filter.Now})
	case StatePast:
		query = query.Where(squirrel.Lt{"b.end_time": filter.Now})
	case StateFuture:
		query = query.Where(squirrel.Gt{"b.start_time": filter.Now})
	case StateWaiting:
		query = query.Where(squirrel.Eq{"b.status": StatusWaiting})
	case StateRejected:
		query = query.Where(squirrel.Eq{"b.status": StatusRejected})
	}

	sql, args, err := query.OrderBy("b.start_time DESC", "b.created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	bookings := make([]*Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *pgxRepository) HasApprovedOverlap(ctx context.Context, itemID string, start, end time.Time) (bool, error) {
	return hasApprovedOverlap(ctx, r.pool, itemID, start, end)
}

func hasApprovedOverlap(ctx context.Context, q querier, itemID string, start, end time.Time) (bool, error) {
	// Overlap: NOT (existing.end <= new.start OR existing.start >= new.end)
	subQuery := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.Eq{"status": StatusApproved}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start})

	return exists(ctx, q, subQuery)
}

func (r *pgxRepository) HasFinishedApproved(ctx context.Context, bookerID, itemID string, now time.Time) (bool, error) {
	subQuery := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"booker_id": bookerID}).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.Eq{"status": StatusApproved}).
		Where(squirrel.Lt{"end_time": now})

	return exists(ctx, r.pool, subQuery)
}

func exists(ctx context.Context, q querier, subQuery squirrel.SelectBuilder) (bool, error) {
	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query failed: %w", err)
	}

	var found bool
	if err := q.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&found); err != nil {
		return false, fmt.Errorf("exists query failed: %w", err)
	}
	return found, nil
}

func (r *pgxRepository) LastAndNextApproved(ctx context.Context, itemID string, now time.Time) (*Booking, *Booking, error) {
	base := selectBookings().
		Where(squirrel.Eq{"b.item_id": itemID}).
		Where(squirrel.Eq{"b.status": StatusApproved}).
		Limit(1)

	last, err := r.first(ctx, base.Where(squirrel.LtOrEq{"b.start_time": now}).OrderBy("b.start_time DESC"))
	if err != nil {
		return nil, nil, err
	}
	next, err := r.first(ctx, base.Where(squirrel.Gt{"b.start_time": now}).OrderBy("b.start_time ASC"))
	if err != nil {
		return nil, nil, err
	}
	return last, next, nil
}

// first returns the single row selected by query, or nil when there is none.
func (r *pgxRepository) first(ctx context.Context, query squirrel.SelectBuilder) (*Booking, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build booking lookup query failed: %w", err)
	}
	b, err := scanBooking(r.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("booking lookup failed: %w", err)
	}
	return b, nil
}
