package app

import (
	"context"
	"errors"

	"github.com/nekogravitycat/shareit-backend/internal/booking"
	"github.com/nekogravitycat/shareit-backend/internal/item"
	"github.com/nekogravitycat/shareit-backend/internal/user"
)

// memoryRepositories builds the in-process repositories with the same
// referential behavior the schema gives the postgres ones: joined names are
// read live and deleting a user cascades.
func memoryRepositories() (user.Repository, item.Repository, booking.Repository) {
	users := user.NewMemoryRepository()
	items := item.NewMemoryRepository()
	bookings := booking.NewMemoryRepository(
		booking.WithItemDirectory(itemDirectory{repo: items}),
		booking.WithUserNames(userNames(users)),
	)
	return &cascadingUsers{MemoryRepository: users, items: items, bookings: bookings}, items, bookings
}

// cascadingUsers removes a deleted user's bookings, items and comments,
// matching ON DELETE CASCADE.
type cascadingUsers struct {
	*user.MemoryRepository
	items    *item.MemoryRepository
	bookings *booking.MemoryRepository
}

func (r *cascadingUsers) Delete(ctx context.Context, id string) error {
	if err := r.MemoryRepository.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.bookings.DeleteByUser(ctx, id); err != nil {
		return err
	}
	return r.items.DeleteByUser(ctx, id)
}

func userNames(repo user.Repository) booking.NameLookup {
	return func(ctx context.Context, id string) (string, error) {
		u, err := repo.GetByID(ctx, id)
		if errors.Is(err, user.ErrNotFound) {
			return "", booking.ErrUserNotFound
		}
		if err != nil {
			return "", err
		}
		return u.Name, nil
	}
}
