// Package prizes assigns prizes from a plan's pool to winners without
// double-allocation. Allocation order is pool insertion order: the first
// unassigned prize wins, deterministically.
package prizes

import (
	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/models"
)

// AllocateNext marks the first unassigned prize in the pool as assigned and
// returns it. The pool slice is mutated in place. When the pool is empty or
// fully assigned it returns errs.ErrPrizeUnavailable; it never panics.
func AllocateNext(pool []models.Prize) (*models.Prize, error) {
	for i := range pool {
		if !pool[i].Assigned {
			pool[i].Assigned = true
			prize := pool[i]
			return &prize, nil
		}
	}
	return nil, errs.ErrPrizeUnavailable
}

// AllocateNamed assigns the first unassigned prize whose name is in the
// allowed set. Sessions that reference a prize subset use this to draw only
// from their own prizes. An empty allowed set falls back to the whole pool.
func AllocateNamed(pool []models.Prize, allowed []string) (*models.Prize, error) {
	if len(allowed) == 0 {
		return AllocateNext(pool)
	}
	names := make(map[string]bool, len(allowed))
	for _, n := range allowed {
		names[n] = true
	}
	for i := range pool {
		if !pool[i].Assigned && names[pool[i].Name] {
			pool[i].Assigned = true
			prize := pool[i]
			return &prize, nil
		}
	}
	return nil, errs.ErrPrizeUnavailable
}

// Reset clears all assigned flags, used when re-running a session.
func Reset(pool []models.Prize) {
	for i := range pool {
		pool[i].Assigned = false
	}
}

// Remaining counts prizes still available for allocation.
func Remaining(pool []models.Prize) int {
	n := 0
	for i := range pool {
		if !pool[i].Assigned {
			n++
		}
	}
	return n
}
