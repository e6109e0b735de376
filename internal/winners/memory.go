package winners

import (
	"context"
	"sync"

	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/models"
)

// MemoryRepository keeps winner records in process memory in insertion order.
type MemoryRepository struct {
	mu      sync.RWMutex
	winners []models.Winner
}

// NewMemoryRepository creates an empty in-memory winner store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) CreateWinner(ctx context.Context, winner models.Winner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.winners = append(r.winners, winner)
	return nil
}

func (r *MemoryRepository) GetWinner(ctx context.Context, id string) (*models.Winner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.winners {
		if r.winners[i].ID == id {
			copied := r.winners[i]
			return &copied, nil
		}
	}
	return nil, errs.NotFound("winner", id)
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, status models.WinnerStatus) (*models.Winner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.winners {
		if r.winners[i].ID == id {
			r.winners[i].Status = status
			copied := r.winners[i]
			return &copied, nil
		}
	}
	return nil, errs.NotFound("winner", id)
}

func (r *MemoryRepository) DeleteWinner(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.winners {
		if r.winners[i].ID == id {
			r.winners = append(r.winners[:i], r.winners[i+1:]...)
			return nil
		}
	}
	return errs.NotFound("winner", id)
}

func (r *MemoryRepository) ListWinners(ctx context.Context) ([]models.Winner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Winner(nil), r.winners...), nil
}

func (r *MemoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.winners = nil
	return nil
}
