package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"farmmarket/internal/access"
	"farmmarket/internal/events"
	"farmmarket/internal/models"
	"farmmarket/internal/repository"
	"farmmarket/internal/security"
)

var requireAdmin = access.RequireRole(models.UserRoleAdmin)

// ApprovalService drives the farmer account state machine:
// pending -> approved, once, never back.
type ApprovalService struct {
	users  UserStore
	events EventPublisher
	log    zerolog.Logger
}

func NewApprovalService(users UserStore, events EventPublisher, log zerolog.Logger) *ApprovalService {
	return &ApprovalService{
		users:  users,
		events: events,
		log:    log,
	}
}

func (s *ApprovalService) ApproveFarmer(ctx context.Context, actor security.Claims, farmerID string) error {
	if err := requireAdmin.Check(actor); err != nil {
		return err
	}

	if err := s.users.ApproveFarmer(ctx, farmerID); err != nil {
		if errors.Is(err, repository.ErrFarmerNotPending) {
			return fmt.Errorf("%w: farmer not found or already approved", ErrNotFound)
		}
		return fmt.Errorf("approve farmer: %w", err)
	}

	publish(ctx, s.events, s.log, events.Event{
		Type:       events.FarmerApproved,
		SubjectID:  farmerID,
		ActorID:    actor.UserID,
		OccurredAt: time.Now(),
	})

	s.log.Info().Str("farmer_id", farmerID).Str("admin_id", actor.UserID).Msg("farmer approved")
	return nil
}

// ListPendingFarmers returns the approval queue, oldest registration first.
func (s *ApprovalService) ListPendingFarmers(ctx context.Context, actor security.Claims) ([]models.User, error) {
	if err := requireAdmin.Check(actor); err != nil {
		return nil, err
	}
	farmers, err := s.users.ListPendingFarmers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending farmers: %w", err)
	}
	return farmers, nil
}

func (s *ApprovalService) PendingBacklog(ctx context.Context) (int, error) {
	return s.users.CountPendingFarmers(ctx)
}
