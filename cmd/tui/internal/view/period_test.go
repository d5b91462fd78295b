package view_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/benefits/cmd/tui/internal/view"
)

func TestPeriod_Range(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		period    view.Period
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			period:    view.PeriodThisMonth,
			wantStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 3, 31, 23, 59, 59, 999999999, time.UTC),
		},
		{
			period:    view.PeriodLastMonth,
			wantStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 2, 28, 23, 59, 59, 999999999, time.UTC),
		},
		{
			period:    view.PeriodLast90Days,
			wantStart: time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 3, 15, 23, 59, 59, 999999999, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.period.String(), func(t *testing.T) {
			start, end := tt.period.Range(now)
			require.NotNil(t, start)
			require.NotNil(t, end)
			assert.Equal(t, tt.wantStart, *start)
			assert.Equal(t, tt.wantEnd, *end)
		})
	}
}

func TestPeriod_AllHasNoBounds(t *testing.T) {
	start, end := view.PeriodAll.Range(time.Now())
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestPeriod_NextWraps(t *testing.T) {
	p := view.PeriodAll
	for range 4 {
		p = p.Next()
	}

	assert.Equal(t, view.PeriodAll, p)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12.50 €", view.FormatAmount(1250))
}
