/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the internal
  domain model. Money crosses this boundary as float64 rounded to
  2 decimals - the ONLY place amounts are rounded. Internally everything
  stays exact decimal so totals reconcile across surfaces.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - export/csv.go: The other rendering surface (same rounding policy)
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/homecare/billing-engine/attendance"
	"github.com/homecare/billing-engine/billing"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateBeneficiaryRequest creates or replaces a beneficiary config.
type CreateBeneficiaryRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Timezone     string   `json:"timezone"`
	Country      string   `json:"country"`
	CopayPercent float64  `json:"copay_percent"`
	VATPercent   *float64 `json:"vat_percent,omitempty"`
}

// CreateRateEntryRequest appends a rate schedule step.
type CreateRateEntryRequest struct {
	EffectiveFrom    string   `json:"effective_from"` // ISO date
	BillingRate      float64  `json:"billing_rate"`
	ConventionedRate float64  `json:"conventioned_rate"`
	AllowanceHours   *float64 `json:"allowance_hours,omitempty"`
}

// RecordEventRequest records a check-in or check-out.
type RecordEventRequest struct {
	CaregiverName string `json:"caregiver_name"`
	At            string `json:"at,omitempty"` // RFC3339; empty = now
	IsTraining    bool   `json:"is_training,omitempty"`
	Source        string `json:"source,omitempty"` // qr | nfc | manual
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// BeneficiaryDTO represents a beneficiary config.
type BeneficiaryDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Timezone     string   `json:"timezone"`
	Country      string   `json:"country"`
	CopayPercent float64  `json:"copay_percent"`
	VATPercent   *float64 `json:"vat_percent,omitempty"`
}

// EventDTO represents a recorded attendance event.
type EventDTO struct {
	ID            string `json:"id"`
	BeneficiaryID string `json:"beneficiary_id"`
	CaregiverName string `json:"caregiver_name"`
	Kind          string `json:"kind"`
	Timestamp     string `json:"timestamp"`
	IsTraining    bool   `json:"is_training"`
	Source        string `json:"source"`
	RecordedAt    string `json:"recorded_at"`
}

// ClassTotalsDTO is one majoration class bucket.
type ClassTotalsDTO struct {
	Hours  float64 `json:"hours"`
	Amount float64 `json:"amount"`
}

// CaregiverBreakdownDTO is one caregiver's aggregate for the period.
type CaregiverBreakdownDTO struct {
	CaregiverName string                    `json:"caregiver_name"`
	Classes       map[string]ClassTotalsDTO `json:"classes"`
	TotalHours    float64                   `json:"total_hours"`
	TotalAmount   float64                   `json:"total_amount"`
	TrainingHours float64                   `json:"training_hours"`
}

// TotalsDTO is the period summary.
type TotalsDTO struct {
	Classes           map[string]ClassTotalsDTO `json:"classes"`
	PreVAT            float64                   `json:"pre_vat"`
	VATAmount         float64                   `json:"vat_amount"`
	TotalWithVAT      float64                   `json:"total_with_vat"`
	PayerAmount       float64                   `json:"payer_amount"`
	BeneficiaryAmount float64                   `json:"beneficiary_amount"`
}

// AllowanceDTO is the informational APA allowance view.
type AllowanceDTO struct {
	AllowanceHours float64 `json:"allowance_hours"`
	UsedHours      float64 `json:"used_hours"`
	RemainingHours float64 `json:"remaining_hours"`
	UsedValue      float64 `json:"used_value"`
	RemainingValue float64 `json:"remaining_value"`
}

// DiscrepancyDTO is one reported anomaly.
type DiscrepancyDTO struct {
	Type          string `json:"type"`
	CaregiverName string `json:"caregiver_name"`
	EventID       string `json:"event_id"`
	At            string `json:"at"`
}

// BreakdownDTO is the full monthly report.
type BreakdownDTO struct {
	Period        string                  `json:"period"`
	PerCaregiver  []CaregiverBreakdownDTO `json:"per_caregiver"`
	Totals        TotalsDTO               `json:"totals"`
	Discrepancies []DiscrepancyDTO        `json:"discrepancies"`
	Allowance     *AllowanceDTO           `json:"allowance,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// round2 applies display rounding; the single money exit point for JSON.
func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func toHours(minutes decimal.Decimal) float64 {
	return round2(minutes.Div(decimal.NewFromInt(60)))
}

func toBeneficiaryDTO(cfg attendance.BeneficiaryConfig) BeneficiaryDTO {
	dto := BeneficiaryDTO{
		ID:           cfg.ID,
		Name:         cfg.Name,
		Timezone:     cfg.Timezone,
		Country:      cfg.Country,
		CopayPercent: round2(cfg.CopayPercent),
	}
	if cfg.VATPercent != nil {
		v := round2(*cfg.VATPercent)
		dto.VATPercent = &v
	}
	return dto
}

func toEventDTO(ev attendance.Event) EventDTO {
	return EventDTO{
		ID:            ev.ID,
		BeneficiaryID: ev.BeneficiaryID,
		CaregiverName: ev.CaregiverName,
		Kind:          string(ev.Kind),
		Timestamp:     ev.Timestamp.UTC().Format(time.RFC3339),
		IsTraining:    ev.IsTraining,
		Source:        string(ev.Source),
		RecordedAt:    ev.RecordedAt.UTC().Format(time.RFC3339),
	}
}

func toClassesDTO(classes map[billing.MajorationClass]billing.ClassTotals) map[string]ClassTotalsDTO {
	out := make(map[string]ClassTotalsDTO, len(classes))
	for class, ct := range classes {
		out[string(class)] = ClassTotalsDTO{
			Hours:  toHours(ct.Minutes),
			Amount: round2(ct.Amount),
		}
	}
	return out
}

func toBreakdownDTO(b *billing.Breakdown, period billing.Month) BreakdownDTO {
	dto := BreakdownDTO{
		Period:        period.String(),
		PerCaregiver:  make([]CaregiverBreakdownDTO, 0, len(b.PerCaregiver)),
		Discrepancies: make([]DiscrepancyDTO, 0, len(b.Discrepancies)),
	}

	for _, cb := range b.PerCaregiver {
		dto.PerCaregiver = append(dto.PerCaregiver, CaregiverBreakdownDTO{
			CaregiverName: cb.CaregiverName,
			Classes:       toClassesDTO(cb.Classes),
			TotalHours:    toHours(cb.TotalMinutes),
			TotalAmount:   round2(cb.TotalAmount),
			TrainingHours: toHours(cb.TrainingMinutes),
		})
	}

	t := b.Totals
	dto.Totals = TotalsDTO{
		Classes:           toClassesDTO(t.Classes),
		PreVAT:            round2(t.PreVAT),
		VATAmount:         round2(t.VATAmount),
		TotalWithVAT:      round2(t.TotalWithVAT),
		PayerAmount:       round2(t.PayerAmount),
		BeneficiaryAmount: round2(t.BeneficiaryAmount),
	}

	for _, d := range b.Discrepancies {
		dto.Discrepancies = append(dto.Discrepancies, DiscrepancyDTO{
			Type:          string(d.Type),
			CaregiverName: d.CaregiverName,
			EventID:       d.EventID,
			At:            d.At.UTC().Format(time.RFC3339),
		})
	}

	if a := b.Allowance; a != nil {
		dto.Allowance = &AllowanceDTO{
			AllowanceHours: round2(a.AllowanceHours),
			UsedHours:      round2(a.UsedHours),
			RemainingHours: round2(a.RemainingHours),
			UsedValue:      round2(a.UsedValue),
			RemainingValue: round2(a.RemainingValue),
		}
	}

	return dto
}
