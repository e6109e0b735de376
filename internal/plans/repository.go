package plans

import (
	"context"

	"github.com/munchkineatter/DDrum/internal/models"
)

// Repository is the persistence collaborator for plans and the active-plan
// pointer. Implementations are a black box that may fail with a storage
// error; the app surfaces that once and keeps serving in-memory state.
type Repository interface {
	// SavePlan upserts the plan by name.
	SavePlan(ctx context.Context, plan models.Plan) error

	// GetPlan returns the plan or errs.NotFound.
	GetPlan(ctx context.Context, name string) (*models.Plan, error)

	// ListPlans returns all plans, order not guaranteed.
	ListPlans(ctx context.Context) ([]models.Plan, error)

	// DeletePlan removes the plan. Deleting a missing plan is not an error.
	DeletePlan(ctx context.Context, name string) error

	// SetActivePlan moves the process-wide active-plan pointer. An empty
	// name clears it.
	SetActivePlan(ctx context.Context, name string) error

	// GetActivePlanName returns the pointer, empty when unset. It does not
	// dereference; the pointed-to plan may no longer exist.
	GetActivePlanName(ctx context.Context) (string, error)
}
