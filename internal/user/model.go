package user

import (
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.NotFound("user not found")
	ErrEmailAlreadyUsed = apperror.Conflict("email already used")
	ErrNameRequired     = apperror.Validation("name must not be blank")
	ErrInvalidEmail     = apperror.Validation("invalid email")
)

// User is a registered participant: an item owner, a booker, or both.
type User struct {
	ID        string // UUID
	Name      string
	Email     string
	CreatedAt time.Time
}
