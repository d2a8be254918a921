package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBounds(t *testing.T) {
	t.Run("utc", func(t *testing.T) {
		b := domain.DayBounds(monday.Add(15*time.Hour), time.UTC)
		assert.Equal(t, monday, b.Start)
		assert.Equal(t, monday.AddDate(0, 0, 1), b.End)
	})

	t.Run("zone east of utc", func(t *testing.T) {
		loc := time.FixedZone("IST", 5*3600+1800)
		b := domain.DayBounds(monday, loc)
		assert.Equal(t, time.Date(2025, 1, 5, 18, 30, 0, 0, time.UTC), b.Start)
		assert.Equal(t, time.Date(2025, 1, 6, 18, 30, 0, 0, time.UTC), b.End)
	})

	t.Run("dst transition day is 23 hours", func(t *testing.T) {
		loc, err := time.LoadLocation("Europe/Berlin")
		require.NoError(t, err)
		b := domain.DayBounds(time.Date(2025, 3, 30, 12, 0, 0, 0, loc), loc)
		assert.Equal(t, 23*time.Hour, b.Duration())
	})
}

func TestLocalDates(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	jan16 := jan15.AddDate(0, 0, 1)

	t.Run("evening slot west of utc stays on the local day", func(t *testing.T) {
		slot := domain.TimeRange{Start: time.Date(2024, 1, 16, 1, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC)}
		assert.Equal(t, []time.Time{jan15}, domain.LocalDates(slot, la))
		assert.Equal(t, []time.Time{jan16}, domain.LocalDates(slot, time.UTC))
	})

	t.Run("slot across local midnight covers both days", func(t *testing.T) {
		slot := domain.TimeRange{Start: time.Date(2024, 1, 16, 7, 30, 0, 0, time.UTC), End: time.Date(2024, 1, 16, 8, 30, 0, 0, time.UTC)}
		assert.Equal(t, []time.Time{jan15, jan16}, domain.LocalDates(slot, la))
	})

	t.Run("slot ending at local midnight stays on one day", func(t *testing.T) {
		slot := domain.TimeRange{Start: time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)}
		assert.Equal(t, []time.Time{jan15}, domain.LocalDates(slot, la))
	})
}

func TestWindowOn(t *testing.T) {
	w := domain.WeeklyWindow{Weekday: time.Monday, Start: domain.MustParseTimeOfDay("09:00"), End: domain.MustParseTimeOfDay("17:00")}

	r, ok := domain.WindowOn(monday, w, time.UTC)
	require.True(t, ok)
	assert.Equal(t, rng(9, 0, 17, 0), r)

	_, ok = domain.WindowOn(monday.AddDate(0, 0, 1), w, time.UTC)
	assert.False(t, ok, "tuesday has no monday window")

	loc := time.FixedZone("EST", -5*3600)
	r, ok = domain.WindowOn(monday, w, loc)
	require.True(t, ok)
	assert.Equal(t, rng(14, 0, 22, 0), r)
}

func TestWindowOn_IsPure(t *testing.T) {
	w := domain.WeeklyWindow{Weekday: time.Monday, Start: domain.MustParseTimeOfDay("09:00"), End: domain.MustParseTimeOfDay("10:00")}

	first, _ := domain.WindowOn(monday, w, time.UTC)
	_, _ = domain.WindowOn(monday.AddDate(0, 0, 7), w, time.UTC)
	again, _ := domain.WindowOn(monday, w, time.UTC)

	assert.Equal(t, first, again)
}

func TestToUTC(t *testing.T) {
	ts, err := domain.ToUTC("2025-01-06T10:00:00+02:00", "")
	require.NoError(t, err)
	assert.Equal(t, at(8, 0), ts)

	ts, err = domain.ToUTC("2025-01-06T10:00:00", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, at(15, 0), ts)

	ts, err = domain.ToUTC("2025-01-06T10:00:00.0000000", "UTC")
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), ts)

	_, err = domain.ToUTC("2025-01-06T10:00:00", "")
	assert.ErrorIs(t, err, domain.ErrMissingTimeZone)

	_, err = domain.ToUTC("2025-01-06T10:00:00", "Mars/Olympus")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := domain.ParseDate("2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, monday, d)

	_, err = domain.ParseDate("06/01/2025")
	assert.Error(t, err)
}
