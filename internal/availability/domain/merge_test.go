package domain_test

import (
	"testing"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/stretchr/testify/assert"
)

func TestMerge_SortsByEndThenStart(t *testing.T) {
	in := []domain.TimeRange{
		rng(14, 0, 15, 0),
		rng(9, 0, 12, 0),
		rng(11, 0, 12, 0),
		rng(8, 0, 9, 30),
	}

	got := domain.Merge(in)

	assert.Equal(t, []domain.TimeRange{
		rng(8, 0, 9, 30),
		rng(9, 0, 12, 0),
		rng(11, 0, 12, 0),
		rng(14, 0, 15, 0),
	}, got)
	assert.Equal(t, rng(14, 0, 15, 0), in[0], "input is left untouched")
}

func TestMerge_DropsExactDuplicates(t *testing.T) {
	got := domain.Merge([]domain.TimeRange{
		rng(10, 0, 11, 0),
		rng(10, 0, 11, 0),
	})

	assert.Equal(t, []domain.TimeRange{rng(10, 0, 11, 0)}, got)
}

func TestMerge_KeepsNearDuplicates(t *testing.T) {
	got := domain.Merge([]domain.TimeRange{
		rng(10, 0, 11, 0),
		rng(10, 1, 11, 0),
		rng(10, 0, 11, 0),
	})

	assert.Len(t, got, 2)
}

func TestMerge_Idempotent(t *testing.T) {
	in := []domain.TimeRange{
		rng(13, 0, 14, 0),
		rng(9, 0, 10, 0),
		rng(13, 0, 14, 0),
		rng(9, 30, 10, 0),
		rng(12, 0, 14, 0),
	}

	once := domain.Merge(in)
	twice := domain.Merge(once)

	assert.Equal(t, once, twice)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, domain.Merge(nil))
}

func TestDedup_OnlyComparesLastKept(t *testing.T) {
	sorted := []domain.TimeRange{rng(9, 0, 10, 0), rng(9, 0, 10, 0), rng(9, 0, 10, 0)}
	assert.Equal(t, []domain.TimeRange{rng(9, 0, 10, 0)}, domain.Dedup(sorted))
}
