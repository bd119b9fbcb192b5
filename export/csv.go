/*
Package export renders billing breakdowns for download.

PURPOSE:
  Formats the engine's output as CSV. This package contains ZERO rate
  math: it renders exactly the numbers ComputeBreakdown produced, rounded
  to 2 decimals at this boundary, so the export always reconciles with
  the on-screen report to the cent.

SEE ALSO:
  - billing/engine.go: The single source of all amounts
*/
package export

import (
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"

	"github.com/homecare/billing-engine/billing"
)

// money formats an amount with display rounding.
func money(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// hours formats a minute total as fractional hours with display rounding.
func hours(minutes decimal.Decimal) string {
	return minutes.Div(decimal.NewFromInt(60)).Round(2).StringFixed(2)
}

// WriteCSV renders the breakdown for one reporting month.
//
// Layout: a per-caregiver section (hours and amounts per majoration
// class), a totals block including VAT and the payer/beneficiary split,
// the allowance report when present, and the discrepancy list.
func WriteCSV(w io.Writer, b *billing.Breakdown, period billing.Month) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"period", period.String()},
		{},
		{"caregiver", "normal_hours", "normal_amount",
			"premium25_hours", "premium25_amount",
			"premium100_hours", "premium100_amount",
			"total_hours", "total_amount", "training_hours"},
	}

	for _, cb := range b.PerCaregiver {
		normal := cb.Classes[billing.Normal]
		p25 := cb.Classes[billing.Premium25]
		p100 := cb.Classes[billing.Premium100]
		rows = append(rows, []string{
			cb.CaregiverName,
			hours(normal.Minutes), money(normal.Amount),
			hours(p25.Minutes), money(p25.Amount),
			hours(p100.Minutes), money(p100.Amount),
			hours(cb.TotalMinutes), money(cb.TotalAmount),
			hours(cb.TrainingMinutes),
		})
	}

	t := b.Totals
	rows = append(rows,
		[]string{},
		[]string{"total_pre_vat", money(t.PreVAT)},
		[]string{"vat", money(t.VATAmount)},
		[]string{"total_with_vat", money(t.TotalWithVAT)},
		[]string{"payer_amount", money(t.PayerAmount)},
		[]string{"beneficiary_amount", money(t.BeneficiaryAmount)},
	)

	if a := b.Allowance; a != nil {
		rows = append(rows,
			[]string{},
			[]string{"allowance_hours", a.AllowanceHours.Round(2).StringFixed(2)},
			[]string{"allowance_used_hours", a.UsedHours.Round(2).StringFixed(2)},
			[]string{"allowance_remaining_hours", a.RemainingHours.Round(2).StringFixed(2)},
			[]string{"allowance_used_value", money(a.UsedValue)},
			[]string{"allowance_remaining_value", money(a.RemainingValue)},
		)
	}

	if len(b.Discrepancies) > 0 {
		rows = append(rows, []string{}, []string{"discrepancy", "caregiver", "event_id", "at"})
		for _, d := range b.Discrepancies {
			rows = append(rows, []string{
				string(d.Type), d.CaregiverName, d.EventID, d.At.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
