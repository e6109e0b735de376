package prizes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/models"
)

func pool() []models.Prize {
	return []models.Prize{
		{Name: "Free Play $100", Value: "$100"},
		{Name: "Dinner for Two", Value: "$150"},
		{Name: "Free Play $500", Value: "$500"},
	}
}

func TestAllocateNextNeverRepeats(t *testing.T) {
	p := pool()

	seen := map[string]bool{}
	for i := 0; i < len(p); i++ {
		prize, err := AllocateNext(p)
		require.NoError(t, err)
		require.False(t, seen[prize.Name], "prize %q allocated twice", prize.Name)
		seen[prize.Name] = true
	}

	_, err := AllocateNext(p)
	require.ErrorIs(t, err, errs.ErrPrizeUnavailable)
}

func TestAllocateNextInsertionOrder(t *testing.T) {
	p := pool()

	first, err := AllocateNext(p)
	require.NoError(t, err)
	require.Equal(t, "Free Play $100", first.Name)

	second, err := AllocateNext(p)
	require.NoError(t, err)
	require.Equal(t, "Dinner for Two", second.Name)
}

func TestAllocateNextEmptyPool(t *testing.T) {
	_, err := AllocateNext(nil)
	require.ErrorIs(t, err, errs.ErrPrizeUnavailable)
}

func TestAllocateNamed(t *testing.T) {
	p := pool()

	prize, err := AllocateNamed(p, []string{"Free Play $500"})
	require.NoError(t, err)
	require.Equal(t, "Free Play $500", prize.Name)

	// Subset exhausted even though the pool is not.
	_, err = AllocateNamed(p, []string{"Free Play $500"})
	require.ErrorIs(t, err, errs.ErrPrizeUnavailable)
	require.Equal(t, 2, Remaining(p))

	// Empty subset falls back to the whole pool.
	prize, err = AllocateNamed(p, nil)
	require.NoError(t, err)
	require.Equal(t, "Free Play $100", prize.Name)
}

func TestReset(t *testing.T) {
	p := pool()
	for i := 0; i < len(p); i++ {
		_, err := AllocateNext(p)
		require.NoError(t, err)
	}
	require.Equal(t, 0, Remaining(p))

	Reset(p)
	require.Equal(t, len(p), Remaining(p))

	prize, err := AllocateNext(p)
	require.NoError(t, err)
	require.Equal(t, "Free Play $100", prize.Name)
}
