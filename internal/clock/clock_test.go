package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateAndMonthStart(t *testing.T) {
	lima := time.FixedZone("PET", -5*3600)
	ts := time.Date(2024, 6, 15, 23, 30, 0, 0, lima)

	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Date(ts))
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), MonthStart(ts))
}

func TestFakeClockAdvance(t *testing.T) {
	c := NewFakeClock(time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC))
	c.Advance(48 * time.Hour)
	assert.Equal(t, 11, c.Now().Day())
}
