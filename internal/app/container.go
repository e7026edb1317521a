package app

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/shareit-backend/internal/api"
	"github.com/nekogravitycat/shareit-backend/internal/booking"
	"github.com/nekogravitycat/shareit-backend/internal/config"
	"github.com/nekogravitycat/shareit-backend/internal/db"
	"github.com/nekogravitycat/shareit-backend/internal/events"
	"github.com/nekogravitycat/shareit-backend/internal/item"
	"github.com/nekogravitycat/shareit-backend/internal/metrics"
	"github.com/nekogravitycat/shareit-backend/internal/ratelimit"
	"github.com/nekogravitycat/shareit-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	// Storage selects the repositories: config.StoragePostgres needs DBPool,
	// config.StorageMemory keeps everything in process.
	Storage string
	DBPool  *pgxpool.Pool
	Logger  *zerolog.Logger
	Limiter ratelimit.Limiter
	// Clock overrides time.Now for booking rules. Tests use it to pin "now".
	Clock func() time.Time
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	Bus            *events.EventBus
	UserService    user.Service
	ItemService    item.Service
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	metrics.Register()
	bus := newEventBus(logger)

	// Repositories
	var (
		userRepo    user.Repository
		itemRepo    item.Repository
		bookingRepo booking.Repository
		healthCheck func(ctx context.Context) error
	)
	if cfg.Storage == config.StorageMemory {
		userRepo, itemRepo, bookingRepo = memoryRepositories()
	} else {
		userRepo = user.NewPgxRepository(cfg.DBPool)
		itemRepo = item.NewPgxRepository(cfg.DBPool)
		bookingRepo = booking.NewPgxRepository(cfg.DBPool)
		healthCheck = func(ctx context.Context) error { return db.Ping(ctx, cfg.DBPool) }
	}

	// User Module
	userService := user.NewService(userRepo)

	// Booking Module
	bookingOpts := []booking.Option{
		booking.WithLogger(logger),
		booking.WithPublisher(bus),
	}
	if cfg.Clock != nil {
		bookingOpts = append(bookingOpts, booking.WithClock(cfg.Clock))
	}
	bookingService := booking.NewService(bookingRepo, userService, itemDirectory{repo: itemRepo}, bookingOpts...)

	// Item Module
	itemService := item.NewService(itemRepo, userService, bookingService, bus, logger)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		Logger:         logger,
		Limiter:        cfg.Limiter,
		HealthCheck:    healthCheck,
		UserService:    userService,
		ItemService:    itemService,
		BookingService: bookingService,
	})

	return &Container{
		Router:         router,
		Bus:            bus,
		UserService:    userService,
		ItemService:    itemService,
		BookingService: bookingService,
	}
}

// newEventBus builds the bus and subscribes the metrics and log recorders.
func newEventBus(logger *zerolog.Logger) *events.EventBus {
	bus := events.NewEventBus(func(e *events.Event, err error) {
		logger.Warn().Err(err).Str("event", e.Type).Msg("event handler failed")
	})

	bus.SubscribeAll(func(e *events.Event) error {
		metrics.IncEvent(e.Type)
		logger.Debug().Str("event", e.Type).RawJSON("payload", e.Payload).Msg("domain event")
		return nil
	})
	return bus
}

// itemDirectory exposes items to the booking module without the booking
// package importing item.
type itemDirectory struct {
	repo item.Repository
}

func (d itemDirectory) GetItem(ctx context.Context, id string) (*booking.ItemRef, error) {
	it, err := d.repo.GetByID(ctx, id)
	if errors.Is(err, item.ErrNotFound) {
		return nil, booking.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking.ItemRef{
		ID:        it.ID,
		OwnerID:   it.OwnerID,
		Name:      it.Name,
		Available: it.Available,
	}, nil
}
