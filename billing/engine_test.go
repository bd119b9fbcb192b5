package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homecare/billing-engine/billing"
	"github.com/homecare/billing-engine/calendar"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func paris(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	return loc
}

func local(loc *time.Location, year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, loc)
}

func frenchConfig(copay string) billing.Config {
	return billing.Config{
		Timezone:     "Europe/Paris",
		Calendar:     calendar.ForCountry("FR"),
		CopayPercent: dec(copay),
	}
}

func pair(loc *time.Location, caregiver string, start, end time.Time, training bool) []billing.AttendanceEvent {
	return []billing.AttendanceEvent{
		{ID: caregiver + "-in", CaregiverName: caregiver, Kind: billing.CheckIn, Timestamp: start, IsTraining: training},
		{ID: caregiver + "-out", CaregiverName: caregiver, Kind: billing.CheckOut, Timestamp: end},
	}
}

// =============================================================================
// WORKED EXAMPLES
// =============================================================================

func TestComputeBreakdown_MayFirstFullPremium(t *testing.T) {
	// GIVEN: caregiver A works 09:00-17:00 on May 1 (Premium100 all day)
	//   billingRate=15, conventionedRate=12, copay=20%
	// THEN: 8h Premium100, amount = 8 x 15 x 2.0 = 240
	//   payer = 8 x 12 x 0.8 = 76.80, beneficiary = 240 - 76.80 = 163.20
	loc := paris(t)
	events := pair(loc, "A",
		local(loc, 2024, time.May, 1, 9, 0),
		local(loc, 2024, time.May, 1, 17, 0), false)

	b, err := billing.ComputeBreakdown(events,
		billing.FlatSchedule(dec("15"), dec("12")),
		frenchConfig("20"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	require.Len(t, b.PerCaregiver, 1)
	cb := b.PerCaregiver[0]
	assert.True(t, cb.Classes[billing.Premium100].Minutes.Equal(dec("480")),
		"premium100 minutes: %s", cb.Classes[billing.Premium100].Minutes)
	assert.True(t, cb.Classes[billing.Normal].Minutes.IsZero())
	assert.True(t, cb.TotalAmount.Equal(dec("240")), "total: %s", cb.TotalAmount)

	assert.True(t, b.Totals.PreVAT.Equal(dec("240")))
	assert.True(t, b.Totals.PayerAmount.Equal(dec("76.8")), "payer: %s", b.Totals.PayerAmount)
	assert.True(t, b.Totals.BeneficiaryAmount.Equal(dec("163.2")), "beneficiary: %s", b.Totals.BeneficiaryAmount)

	// Default VAT 5.5%
	assert.True(t, b.Totals.VATAmount.Equal(dec("13.2")), "vat: %s", b.Totals.VATAmount)
	assert.True(t, b.Totals.TotalWithVAT.Equal(dec("253.2")))
}

func TestComputeBreakdown_WeekdayTimeOfDaySplit(t *testing.T) {
	// GIVEN: caregiver B works Tuesday 06:00-22:00, billingRate=10
	// THEN: 2h Premium25 + 12h Normal + 2h Premium25
	//   amount = 4 x 10 x 1.25 + 12 x 10 = 170
	loc := paris(t)
	events := pair(loc, "B",
		local(loc, 2024, time.May, 7, 6, 0),
		local(loc, 2024, time.May, 7, 22, 0), false)

	b, err := billing.ComputeBreakdown(events,
		billing.FlatSchedule(dec("10"), dec("10")),
		frenchConfig("0"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	require.Len(t, b.PerCaregiver, 1)
	cb := b.PerCaregiver[0]
	assert.True(t, cb.Classes[billing.Premium25].Minutes.Equal(dec("240")),
		"premium25 minutes: %s", cb.Classes[billing.Premium25].Minutes)
	assert.True(t, cb.Classes[billing.Normal].Minutes.Equal(dec("720")),
		"normal minutes: %s", cb.Classes[billing.Normal].Minutes)
	assert.True(t, cb.TotalAmount.Equal(dec("170")), "total: %s", cb.TotalAmount)
}

// =============================================================================
// TIME-OF-DAY SPLIT INVARIANTS
// =============================================================================

func TestSplitDay_NoMinuteLostOrDoubleCounted(t *testing.T) {
	loc := paris(t)
	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"inside window", local(loc, 2024, time.May, 7, 9, 0), local(loc, 2024, time.May, 7, 17, 30)},
		{"straddles morning", local(loc, 2024, time.May, 7, 7, 30), local(loc, 2024, time.May, 7, 8, 30)},
		{"straddles evening", local(loc, 2024, time.May, 7, 19, 45), local(loc, 2024, time.May, 7, 20, 15)},
		{"entirely early", local(loc, 2024, time.May, 7, 5, 0), local(loc, 2024, time.May, 7, 7, 0)},
		{"crosses midnight", local(loc, 2024, time.May, 7, 19, 0), local(loc, 2024, time.May, 8, 1, 0)},
		{"sub-minute", local(loc, 2024, time.May, 7, 7, 59), local(loc, 2024, time.May, 7, 8, 0).Add(30 * time.Second)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			split := billing.SplitDay(tc.start, tc.end, loc)
			total := decimal.NewFromInt(int64(tc.end.Sub(tc.start) / time.Second)).Div(decimal.NewFromInt(60))
			sum := split.Early.Add(split.Regular).Add(split.Evening)
			assert.True(t, sum.Equal(total), "early %s + regular %s + evening %s != %s",
				split.Early, split.Regular, split.Evening, total)
		})
	}
}

func TestComputeBreakdown_MidnightCrossingAnchorsToStartDate(t *testing.T) {
	// Tuesday 19:00 -> Wednesday 01:00: 1h Normal (19:00-20:00), then
	// everything after 20:00 on the start day is Premium25 through checkout.
	loc := paris(t)
	events := pair(loc, "C",
		local(loc, 2024, time.May, 7, 19, 0),
		local(loc, 2024, time.May, 8, 1, 0), false)

	b, err := billing.ComputeBreakdown(events,
		billing.FlatSchedule(dec("10"), dec("10")),
		frenchConfig("0"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	cb := b.PerCaregiver[0]
	assert.True(t, cb.Classes[billing.Normal].Minutes.Equal(dec("60")))
	assert.True(t, cb.Classes[billing.Premium25].Minutes.Equal(dec("300")))
}

// =============================================================================
// TRAINING, DISCREPANCIES, PERIOD FILTERING
// =============================================================================

func TestComputeBreakdown_TrainingExcludedFromBilling(t *testing.T) {
	loc := paris(t)
	events := pair(loc, "A",
		local(loc, 2024, time.May, 1, 9, 0), // even on a Premium100 day
		local(loc, 2024, time.May, 1, 12, 0), true)

	b, err := billing.ComputeBreakdown(events,
		billing.FlatSchedule(dec("15"), dec("12")),
		frenchConfig("20"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	require.Len(t, b.PerCaregiver, 1)
	cb := b.PerCaregiver[0]
	assert.True(t, cb.TotalAmount.IsZero())
	assert.True(t, cb.TotalMinutes.IsZero())
	assert.True(t, cb.TrainingMinutes.Equal(dec("180")))
	assert.True(t, b.Totals.PreVAT.IsZero())
	assert.True(t, b.Totals.PayerAmount.IsZero())
}

func TestComputeBreakdown_DiscrepanciesReportedNotBilled(t *testing.T) {
	loc := paris(t)
	events := []billing.AttendanceEvent{
		{ID: "lone-in", CaregiverName: "A", Kind: billing.CheckIn,
			Timestamp: local(loc, 2024, time.May, 7, 9, 0)},
		{ID: "lone-out", CaregiverName: "B", Kind: billing.CheckOut,
			Timestamp: local(loc, 2024, time.May, 7, 17, 0)},
	}

	b, err := billing.ComputeBreakdown(events,
		billing.FlatSchedule(dec("10"), dec("10")),
		frenchConfig("0"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	assert.True(t, b.Totals.PreVAT.IsZero())
	types := discrepancyTypes(b.Discrepancies)
	assert.Contains(t, types, billing.DiscrepancyOpenSession)
	assert.Contains(t, types, billing.DiscrepancyOrphanCheckout)
}

func TestComputeBreakdown_EventsOutsidePeriodIgnored(t *testing.T) {
	loc := paris(t)
	events := pair(loc, "A",
		local(loc, 2024, time.April, 30, 9, 0),
		local(loc, 2024, time.April, 30, 17, 0), false)

	b, err := billing.ComputeBreakdown(events,
		billing.FlatSchedule(dec("10"), dec("10")),
		frenchConfig("0"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	assert.Empty(t, b.PerCaregiver)
	assert.True(t, b.Totals.PreVAT.IsZero())
}

// =============================================================================
// RECONCILIATION INVARIANTS
// =============================================================================

func TestComputeBreakdown_TotalsReconcile(t *testing.T) {
	// Multiple caregivers, mixed days; exact decimal reconciliation.
	loc := paris(t)
	var events []billing.AttendanceEvent
	events = append(events, pair(loc, "Alice",
		local(loc, 2024, time.May, 1, 9, 0), local(loc, 2024, time.May, 1, 17, 0), false)...)
	events = append(events, pair(loc, "Bob",
		local(loc, 2024, time.May, 7, 6, 0), local(loc, 2024, time.May, 7, 22, 0), false)...)
	events = append(events, pair(loc, "Chloe",
		local(loc, 2024, time.May, 12, 10, 0), local(loc, 2024, time.May, 12, 14, 30), false)...) // Sunday

	b, err := billing.ComputeBreakdown(events,
		billing.FlatSchedule(dec("15.5"), dec("12.25")),
		frenchConfig("15"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, cb := range b.PerCaregiver {
		sum = sum.Add(cb.TotalAmount)
	}
	assert.True(t, sum.Equal(b.Totals.PreVAT),
		"sum(perCaregiver) %s != preVAT %s", sum, b.Totals.PreVAT)

	split := b.Totals.PayerAmount.Add(b.Totals.BeneficiaryAmount)
	assert.True(t, split.Equal(b.Totals.PreVAT),
		"payer %s + beneficiary %s != preVAT %s",
		b.Totals.PayerAmount, b.Totals.BeneficiaryAmount, b.Totals.PreVAT)

	assert.True(t, b.Totals.TotalWithVAT.Equal(b.Totals.PreVAT.Add(b.Totals.VATAmount)))
}

func TestComputeBreakdown_Idempotent(t *testing.T) {
	loc := paris(t)
	events := pair(loc, "A",
		local(loc, 2024, time.May, 7, 9, 0), local(loc, 2024, time.May, 7, 18, 0), false)
	schedule := billing.FlatSchedule(dec("10"), dec("9"))
	cfg := frenchConfig("10")
	period := billing.Month{Year: 2024, Month: time.May}

	b1, err := billing.ComputeBreakdown(events, schedule, cfg, period)
	require.NoError(t, err)
	b2, err := billing.ComputeBreakdown(events, schedule, cfg, period)
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
}

// =============================================================================
// RATE SCHEDULE AND ALLOWANCE
// =============================================================================

func TestComputeBreakdown_RateScheduleStepFunction(t *testing.T) {
	// Rate changes mid-month; each session bills at the entry in force
	// on its local start date.
	loc := paris(t)
	schedule := billing.RateSchedule{
		{EffectiveFrom: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			BillingRate: dec("10"), ConventionedRate: dec("10")},
		{EffectiveFrom: time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC),
			BillingRate: dec("20"), ConventionedRate: dec("20")},
	}

	var events []billing.AttendanceEvent
	events = append(events, pair(loc, "Alice",
		local(loc, 2024, time.May, 14, 9, 0), local(loc, 2024, time.May, 14, 10, 0), false)...)
	events = append(events, pair(loc, "Bob",
		local(loc, 2024, time.May, 15, 9, 0), local(loc, 2024, time.May, 15, 10, 0), false)...)

	b, err := billing.ComputeBreakdown(events, schedule, frenchConfig("0"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	require.Len(t, b.PerCaregiver, 2)
	assert.True(t, b.PerCaregiver[0].TotalAmount.Equal(dec("10")), "Alice: %s", b.PerCaregiver[0].TotalAmount)
	assert.True(t, b.PerCaregiver[1].TotalAmount.Equal(dec("20")), "Bob: %s", b.PerCaregiver[1].TotalAmount)
}

func TestComputeBreakdown_ConventionedRateAboveBillingRate(t *testing.T) {
	// Allowed degenerate case: the payer contribution uses the
	// conventioned rate, which can push the beneficiary share negative.
	// Reconciliation still holds.
	loc := paris(t)
	events := pair(loc, "A",
		local(loc, 2024, time.May, 7, 9, 0), local(loc, 2024, time.May, 7, 10, 0), false)

	b, err := billing.ComputeBreakdown(events,
		billing.FlatSchedule(dec("10"), dec("12")),
		frenchConfig("0"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	assert.True(t, b.Totals.PayerAmount.Add(b.Totals.BeneficiaryAmount).Equal(b.Totals.PreVAT))
}

func TestComputeBreakdown_AllowanceReport(t *testing.T) {
	loc := paris(t)
	allowance := dec("30")
	schedule := billing.RateSchedule{{
		BillingRate:      dec("15"),
		ConventionedRate: dec("12"),
		AllowanceHours:   &allowance,
	}}

	events := pair(loc, "A",
		local(loc, 2024, time.May, 7, 9, 0), local(loc, 2024, time.May, 7, 17, 0), false)

	b, err := billing.ComputeBreakdown(events, schedule, frenchConfig("20"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	require.NotNil(t, b.Allowance)
	a := b.Allowance
	assert.True(t, a.UsedHours.Equal(dec("8")))
	assert.True(t, a.RemainingHours.Equal(dec("22")))
	assert.True(t, a.UsedValue.Equal(dec("96")))
	assert.True(t, a.RemainingValue.Equal(dec("264")))
}

func TestComputeBreakdown_NoAllowanceConfigured(t *testing.T) {
	loc := paris(t)
	events := pair(loc, "A",
		local(loc, 2024, time.May, 7, 9, 0), local(loc, 2024, time.May, 7, 17, 0), false)

	b, err := billing.ComputeBreakdown(events,
		billing.FlatSchedule(dec("15"), dec("12")),
		frenchConfig("20"),
		billing.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)
	assert.Nil(t, b.Allowance)
}

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

func TestComputeBreakdown_ConfigurationErrors(t *testing.T) {
	loc := paris(t)
	events := pair(loc, "A",
		local(loc, 2024, time.May, 7, 9, 0), local(loc, 2024, time.May, 7, 17, 0), false)
	period := billing.Month{Year: 2024, Month: time.May}

	t.Run("empty schedule", func(t *testing.T) {
		_, err := billing.ComputeBreakdown(events, nil, frenchConfig("20"), period)
		assert.ErrorIs(t, err, billing.ErrNoSchedule)
	})

	t.Run("negative rate", func(t *testing.T) {
		_, err := billing.ComputeBreakdown(events,
			billing.FlatSchedule(dec("-1"), dec("10")), frenchConfig("20"), period)
		assert.ErrorIs(t, err, billing.ErrInvalidRate)
	})

	t.Run("copay out of range", func(t *testing.T) {
		_, err := billing.ComputeBreakdown(events,
			billing.FlatSchedule(dec("10"), dec("10")), frenchConfig("150"), period)
		assert.ErrorIs(t, err, billing.ErrInvalidCopay)
	})

	t.Run("bad timezone", func(t *testing.T) {
		cfg := frenchConfig("20")
		cfg.Timezone = "Mars/Olympus"
		_, err := billing.ComputeBreakdown(events,
			billing.FlatSchedule(dec("10"), dec("10")), cfg, period)
		assert.ErrorIs(t, err, billing.ErrInvalidTimezone)
	})

	t.Run("nil calendar", func(t *testing.T) {
		cfg := frenchConfig("20")
		cfg.Calendar = nil
		_, err := billing.ComputeBreakdown(events,
			billing.FlatSchedule(dec("10"), dec("10")), cfg, period)
		assert.ErrorIs(t, err, billing.ErrNilCalendar)
	})

	t.Run("negative vat", func(t *testing.T) {
		cfg := frenchConfig("20")
		vat := dec("-1")
		cfg.VATPercent = &vat
		_, err := billing.ComputeBreakdown(events,
			billing.FlatSchedule(dec("10"), dec("10")), cfg, period)
		assert.ErrorIs(t, err, billing.ErrInvalidVAT)
	})

	t.Run("bad period", func(t *testing.T) {
		_, err := billing.ComputeBreakdown(events,
			billing.FlatSchedule(dec("10"), dec("10")), frenchConfig("20"),
			billing.Month{Year: 2024, Month: 13})
		assert.ErrorIs(t, err, billing.ErrInvalidPeriod)
	})

	t.Run("vat override", func(t *testing.T) {
		cfg := frenchConfig("0")
		vat := dec("0")
		cfg.VATPercent = &vat
		b, err := billing.ComputeBreakdown(events,
			billing.FlatSchedule(dec("10"), dec("10")), cfg, period)
		require.NoError(t, err)
		assert.True(t, b.Totals.VATAmount.IsZero())
		assert.True(t, b.Totals.TotalWithVAT.Equal(b.Totals.PreVAT))
	})
}
