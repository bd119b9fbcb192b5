/*
handlers.go - HTTP handler implementations

PURPOSE:
  Connects the HTTP surface to the attendance store and the billing
  engine. Handlers load raw data, call ComputeBreakdown, and format -
  no rate math lives here.

ERROR MAPPING:
  400 - malformed request body or query parameters
  404 - unknown beneficiary
  422 - valid request, invalid billing configuration
  500 - store failures

SEE ALSO:
  - server.go: Route definitions
  - billing/engine.go: The calculation behind the breakdown endpoints
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/homecare/billing-engine/attendance"
	"github.com/homecare/billing-engine/billing"
	"github.com/homecare/billing-engine/calendar"
	"github.com/homecare/billing-engine/export"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	Store    attendance.Store
	Recorder *attendance.Recorder
}

func NewHandler(store attendance.Store) *Handler {
	return &Handler{
		Store:    store,
		Recorder: attendance.NewRecorder(store),
	}
}

// =============================================================================
// BENEFICIARIES
// =============================================================================

func (h *Handler) CreateBeneficiary(w http.ResponseWriter, r *http.Request) {
	var req CreateBeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}

	cfg := attendance.BeneficiaryConfig{
		ID:           req.ID,
		Name:         req.Name,
		Timezone:     req.Timezone,
		Country:      req.Country,
		CopayPercent: decimal.NewFromFloat(req.CopayPercent),
	}
	if req.VATPercent != nil {
		v := decimal.NewFromFloat(*req.VATPercent)
		cfg.VATPercent = &v
	}

	if err := h.Store.SaveBeneficiary(r.Context(), cfg); err != nil {
		if billing.IsConfigError(err) || errors.Is(err, attendance.ErrMissingBeneficiaryID) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_config", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "store_error", err)
		return
	}

	writeJSON(w, http.StatusCreated, toBeneficiaryDTO(cfg))
}

func (h *Handler) GetBeneficiary(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.loadBeneficiary(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBeneficiaryDTO(cfg))
}

// =============================================================================
// RATE SCHEDULE
// =============================================================================

func (h *Handler) CreateRateEntry(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.loadBeneficiary(w, r)
	if !ok {
		return
	}

	var req CreateRateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", err)
		return
	}

	entry := billing.RateEntry{
		EffectiveFrom:    effectiveFrom,
		BillingRate:      decimal.NewFromFloat(req.BillingRate),
		ConventionedRate: decimal.NewFromFloat(req.ConventionedRate),
	}
	if req.AllowanceHours != nil {
		a := decimal.NewFromFloat(*req.AllowanceHours)
		entry.AllowanceHours = &a
	}

	if err := (billing.RateSchedule{entry}).Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_rate", err)
		return
	}

	if err := h.Store.SaveRateEntry(r.Context(), cfg.ID, entry); err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// =============================================================================
// EVENTS
// =============================================================================

func (h *Handler) RecordCheckIn(w http.ResponseWriter, r *http.Request) {
	h.recordEvent(w, r, h.Recorder.CheckIn)
}

func (h *Handler) RecordCheckOut(w http.ResponseWriter, r *http.Request) {
	h.recordEvent(w, r, h.Recorder.CheckOut)
}

func (h *Handler) recordEvent(w http.ResponseWriter, r *http.Request,
	record func(ctx context.Context, req attendance.CheckInRequest) (attendance.Event, error)) {

	var req RecordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}

	var at time.Time
	if req.At != "" {
		var err error
		at, err = time.Parse(time.RFC3339, req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_timestamp", err)
			return
		}
	}

	ev, err := record(r.Context(), attendance.CheckInRequest{
		BeneficiaryID: chi.URLParam(r, "id"),
		CaregiverName: req.CaregiverName,
		At:            at,
		IsTraining:    req.IsTraining,
		Source:        attendance.EventSource(req.Source),
	})
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrBeneficiaryNotFound):
			writeError(w, http.StatusNotFound, "beneficiary_not_found", err)
		case errors.Is(err, attendance.ErrMissingCaregiverName):
			writeError(w, http.StatusBadRequest, "missing_caregiver", err)
		default:
			writeError(w, http.StatusInternalServerError, "store_error", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.loadBeneficiary(w, r)
	if !ok {
		return
	}

	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_range", err)
		return
	}

	events, err := h.Store.EventsInRange(r.Context(), cfg.ID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err)
		return
	}

	dtos := make([]EventDTO, len(events))
	for i, ev := range events {
		dtos[i] = toEventDTO(ev)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BREAKDOWN
// =============================================================================

func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	b, period, ok := h.computeBreakdown(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(b, period))
}

func (h *Handler) GetBreakdownCSV(w http.ResponseWriter, r *http.Request) {
	b, period, ok := h.computeBreakdown(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=breakdown-%s.csv", period.String()))
	if err := export.WriteCSV(w, b, period); err != nil {
		// Headers are gone; nothing left to do but note it in the body.
		fmt.Fprintf(w, "export error: %v", err)
	}
}

// computeBreakdown loads everything the engine needs and runs it once.
func (h *Handler) computeBreakdown(w http.ResponseWriter, r *http.Request) (*billing.Breakdown, billing.Month, bool) {
	cfg, ok := h.loadBeneficiary(w, r)
	if !ok {
		return nil, billing.Month{}, false
	}

	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_period", err)
		return nil, billing.Month{}, false
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_config", err)
		return nil, billing.Month{}, false
	}

	from, to := period.Bounds(loc)
	events, err := h.Store.EventsInRange(r.Context(), cfg.ID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err)
		return nil, billing.Month{}, false
	}

	schedule, err := h.Store.RateSchedule(r.Context(), cfg.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err)
		return nil, billing.Month{}, false
	}

	breakdown, err := billing.ComputeBreakdown(
		attendance.ToBillingEvents(events),
		schedule,
		billing.Config{
			Timezone:     cfg.Timezone,
			Calendar:     calendar.ForCountry(cfg.Country),
			CopayPercent: cfg.CopayPercent,
			VATPercent:   cfg.VATPercent,
		},
		period,
	)
	if err != nil {
		if billing.IsConfigError(err) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_config", err)
		} else {
			writeError(w, http.StatusInternalServerError, "engine_error", err)
		}
		return nil, billing.Month{}, false
	}

	return breakdown, period, true
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadBeneficiary(w http.ResponseWriter, r *http.Request) (attendance.BeneficiaryConfig, bool) {
	cfg, err := h.Store.Beneficiary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, attendance.ErrBeneficiaryNotFound) {
			writeError(w, http.StatusNotFound, "beneficiary_not_found", err)
		} else {
			writeError(w, http.StatusInternalServerError, "store_error", err)
		}
		return attendance.BeneficiaryConfig{}, false
	}
	return cfg, true
}

func parsePeriod(r *http.Request) (billing.Month, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return billing.Month{}, fmt.Errorf("year: %w", err)
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return billing.Month{}, fmt.Errorf("month: %w", err)
	}
	period := billing.Month{Year: year, Month: time.Month(month)}
	return period, period.Validate()
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}
