package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/homecare/billing-engine/billing"
	"github.com/homecare/billing-engine/calendar"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestFrench_DayClass(t *testing.T) {
	fr := calendar.French{}

	cases := []struct {
		name string
		date time.Time
		want billing.MajorationClass
	}{
		{"may first", day(2024, time.May, 1), billing.Premium100},
		{"christmas", day(2024, time.December, 25), billing.Premium100},
		{"new year", day(2024, time.January, 1), billing.Premium25},
		{"victory day", day(2024, time.May, 8), billing.Premium25},
		{"bastille day", day(2024, time.July, 14), billing.Premium25},
		{"assumption", day(2024, time.August, 15), billing.Premium25},
		{"all saints", day(2024, time.November, 1), billing.Premium25},
		{"armistice", day(2024, time.November, 11), billing.Premium25},
		{"ordinary sunday", day(2024, time.May, 12), billing.Premium25},
		{"ordinary tuesday", day(2024, time.May, 7), billing.Normal},
		{"christmas eve", day(2024, time.December, 24), billing.Normal},
		{"zero time", time.Time{}, billing.Normal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, fr.DayClass(tc.date))
		})
	}
}

func TestFrench_Precedence(t *testing.T) {
	fr := calendar.French{}

	// May 1, 2022 fell on a Sunday: full premium wins over the Sunday rule.
	assert.Equal(t, billing.Premium100, fr.DayClass(day(2022, time.May, 1)))

	// May 8, 2022 also fell on a Sunday: still Premium25, never stacked higher.
	assert.Equal(t, billing.Premium25, fr.DayClass(day(2022, time.May, 8)))
}

func TestForCountry_RegistryAndFallback(t *testing.T) {
	assert.IsType(t, calendar.French{}, calendar.ForCountry("FR"))
	assert.IsType(t, calendar.French{}, calendar.ForCountry("fr")) // case-insensitive

	fallback := calendar.ForCountry("ZZ")
	assert.IsType(t, calendar.Fallback{}, fallback)

	// Fallback has no holidays but keeps the Sunday rule.
	assert.Equal(t, billing.Normal, fallback.DayClass(day(2024, time.May, 1)))
	assert.Equal(t, billing.Premium25, fallback.DayClass(day(2024, time.May, 12)))
}
