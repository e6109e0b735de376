package winners

import (
	"context"

	"github.com/munchkineatter/DDrum/internal/models"
)

// Repository is the persistence collaborator for winner records.
// ListWinners returns insertion order; everything else is keyed by winner id.
type Repository interface {
	CreateWinner(ctx context.Context, winner models.Winner) error

	// GetWinner returns the winner or errs.NotFound.
	GetWinner(ctx context.Context, id string) (*models.Winner, error)

	// UpdateStatus sets the winner's status and returns the updated record.
	UpdateStatus(ctx context.Context, id string, status models.WinnerStatus) (*models.Winner, error)

	// DeleteWinner removes the record permanently.
	DeleteWinner(ctx context.Context, id string) error

	// ListWinners returns every winner regardless of status, in insertion
	// order. A record's CreatedAt does not affect its position.
	ListWinners(ctx context.Context) ([]models.Winner, error)

	// Clear removes all winner records.
	Clear(ctx context.Context) error
}
