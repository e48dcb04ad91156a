package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"farmmarket/internal/events"
	"farmmarket/internal/models"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
)

type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	ApproveFarmer(ctx context.Context, id string) error
	ListPendingFarmers(ctx context.Context) ([]models.User, error)
	CountPendingFarmers(ctx context.Context) (int, error)
}

type ProductStore interface {
	ListPublic(ctx context.Context) ([]models.ProductListing, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]models.Product, error)
	Create(ctx context.Context, p models.Product) (models.Product, error)
	UpdateOwned(ctx context.Context, id, farmerID string, patch models.ProductPatch) (models.Product, error)
	DeleteOwned(ctx context.Context, id, farmerID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// publish is fire-and-log: the audit trail must never fail a user request.
func publish(ctx context.Context, pub EventPublisher, log zerolog.Logger, event events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("type", string(event.Type)).Str("subject", event.SubjectID).Msg("publish event failed")
	}
}
