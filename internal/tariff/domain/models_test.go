package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSelectEffective(t *testing.T) {
	tariffs := []Tariff{
		{ID: 1, BasePrice: decimal.NewFromInt(40), EffectiveFrom: day(2023, 1, 1), Active: true},
		{ID: 2, BasePrice: decimal.NewFromInt(45), EffectiveFrom: day(2024, 1, 1), Active: true},
		{ID: 3, BasePrice: decimal.NewFromInt(47), EffectiveFrom: day(2024, 1, 1), Active: true},
		{ID: 4, BasePrice: decimal.NewFromInt(99), EffectiveFrom: day(2024, 3, 1), Active: false},
		{ID: 5, BasePrice: decimal.NewFromInt(60), EffectiveFrom: day(2024, 6, 1), Active: true},
	}

	cases := []struct {
		name   string
		asOf   time.Time
		wantID int64
		found  bool
	}{
		{"before any tariff", day(2022, 12, 31), 0, false},
		{"first tariff", day(2023, 6, 1), 1, true},
		{"tie on effective date takes highest id", day(2024, 1, 1), 3, true},
		{"inactive tariff ignored", day(2024, 4, 1), 3, true},
		{"effective on the same day", day(2024, 6, 1), 5, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SelectEffective(tariffs, tc.asOf)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.EqualValues(t, tc.wantID, got.ID)
			}
		})
	}
}
