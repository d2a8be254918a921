package queries

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFreeSlotsHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("returns free ranges with totals", func(t *testing.T) {
		finder := new(mockFinder)
		finder.On("MemberFreeSlots", ctx, alice, monday).
			Return(domain.FreeSlotSet{rng(9, 0, 12, 0), rng(13, 0, 17, 0)}, nil)
		handler := NewGetFreeSlotsHandler(finder)

		result, err := handler.Handle(ctx, GetFreeSlotsQuery{MemberID: alice, Date: monday})

		require.NoError(t, err)
		require.Len(t, result.Free, 2)
		assert.Equal(t, 180, result.Free[0].DurationMin)
		assert.Equal(t, 420, result.TotalMin)
		finder.AssertExpectations(t)
	})

	t.Run("empty free time is not an error", func(t *testing.T) {
		finder := new(mockFinder)
		finder.On("MemberFreeSlots", ctx, alice, monday).Return(domain.FreeSlotSet{}, nil)

		result, err := NewGetFreeSlotsHandler(finder).Handle(ctx, GetFreeSlotsQuery{MemberID: alice, Date: monday})

		require.NoError(t, err)
		assert.Empty(t, result.Free)
		assert.Zero(t, result.TotalMin)
	})

	t.Run("requires a member", func(t *testing.T) {
		_, err := NewGetFreeSlotsHandler(new(mockFinder)).Handle(ctx, GetFreeSlotsQuery{Date: monday})
		assert.ErrorIs(t, err, ErrNoMembers)
	})
}
