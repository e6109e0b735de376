package plans

import (
	"context"
	"sync"

	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/models"
)

// MemoryRepository keeps plans in process memory. It backs tests and the
// degraded mode where the event must keep running without a database.
type MemoryRepository struct {
	mu     sync.RWMutex
	plans  map[string]models.Plan
	active string
}

// NewMemoryRepository creates an empty in-memory plan store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{plans: make(map[string]models.Plan)}
}

func (r *MemoryRepository) SavePlan(ctx context.Context, plan models.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.Name] = clonePlan(plan)
	return nil
}

func (r *MemoryRepository) GetPlan(ctx context.Context, name string) (*models.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[name]
	if !ok {
		return nil, errs.NotFound("plan", name)
	}
	copied := clonePlan(plan)
	return &copied, nil
}

func (r *MemoryRepository) ListPlans(ctx context.Context) ([]models.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Plan, 0, len(r.plans))
	for _, plan := range r.plans {
		out = append(out, clonePlan(plan))
	}
	return out, nil
}

func (r *MemoryRepository) DeletePlan(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plans, name)
	return nil
}

func (r *MemoryRepository) SetActivePlan(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = name
	return nil
}

func (r *MemoryRepository) GetActivePlanName(ctx context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, nil
}

// clonePlan deep-copies the slices so callers never share backing arrays
// with the store.
func clonePlan(plan models.Plan) models.Plan {
	copied := plan
	copied.Prizes = append([]models.Prize(nil), plan.Prizes...)
	copied.Sessions = make([]models.Session, len(plan.Sessions))
	for i, s := range plan.Sessions {
		copied.Sessions[i] = s
		copied.Sessions[i].Prizes = append([]string(nil), s.Prizes...)
	}
	return copied
}
