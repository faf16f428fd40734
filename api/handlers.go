/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance and leave operations via REST. Handles HTTP
  request/response, JSON serialization, and delegates everything else to
  the service layer.

ENDPOINTS:
  Users:
    GET    /api/users                     List active users
    POST   /api/users                     Create user
    GET    /api/users/{id}                Get user
    PUT    /api/users/{id}                Update user

  Time tracking:
    POST   /api/users/{id}/clock          Live punch
    POST   /api/users/{id}/corrections    Back-dated punch (self or supervisor)
    PUT    /api/users/{id}/days/{date}    Replace all punches of one day
    POST   /api/users/{id}/bulk-entries   Fill a range with identical pairs

  Views:
    GET    /api/users/{id}/months/{year}/{month}  Month view
    GET    /api/users/{id}/summary        Current-month dashboard
    GET    /api/users/{id}/availability   Vacation days + overtime hours
    GET    /api/overview                  Supervisor overview, all users

  Leave:
    GET    /api/users/{id}/leave          List a user's requests
    POST   /api/users/{id}/leave          Book a request
    POST   /api/leave/{id}/cancel         Cancel own submitted request
    POST   /api/leave/{id}/decision       Approve or reject
    PUT    /api/leave/{id}                Supervisor rewrite while submitted
    GET    /api/leave/pending             All submitted requests

  Corrections and balances:
    POST   /api/users/{id}/break-credits        Restore break minutes
    GET    /api/users/{id}/adjustments          Newest manual adjustments
    POST   /api/users/{id}/adjustments          Book manual adjustment
    PUT    /api/users/{id}/overtime-account     Set stored balance to value
    GET    /api/users/{id}/sick-leaves          Sick leaves in a window
    POST   /api/users/{id}/sick-leaves          Record a sick range
    DELETE /api/users/{id}/sick-leaves/{date}   Remove one day (split/trim)

  Administration:
    GET/PUT /api/config                   System configuration
    GET/POST /api/holidays                Holiday list / create
    POST   /api/holidays/defaults         Seed fixed nationwide holidays
    DELETE /api/holidays/{id}             Remove holiday
    POST   /api/admin/rollover            Year-end vacation rollover
    GET    /api/admin/audits              Newest audit records

ERROR HANDLING:
  Service errors map onto HTTP status by category:
  - 400: validation (malformed dates, missing notes)
  - 403: authorization (window exceeded, tracking disabled)
  - 404: unknown user/request ids
  - 409: conflict (overlapping leave, decided twice)
  - 500: everything else

ACTOR IDENTITY:
  Authentication is an external collaborator. The acting user id arrives
  in the X-Actor-ID header; absent means the target user acts for
  themselves.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stechuhr/attendance-engine/engine"
	"github.com/stechuhr/attendance-engine/service"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *service.Service
	Log     zerolog.Logger
}

// NewHandler creates a handler over the given service.
func NewHandler(svc *service.Service, log zerolog.Logger) *Handler {
	return &Handler{Service: svc, Log: log}
}

// actorID resolves the acting user. Falls back to the target user id so
// self-service calls need no header.
func actorID(r *http.Request, fallback string) string {
	if id := r.Header.Get("X-Actor-ID"); id != "" {
		return id
	}
	return fallback
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns all active users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser creates an employee record.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req SaveUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.Service.CreateUser(r.Context(), engine.User{
		Name:                  req.Name,
		AnnualVacationDays:    req.AnnualVacationDays,
		CarryOverVacationDays: req.CarryOverVacationDays,
		OvertimeBalanceHours:  req.OvertimeBalanceHours,
		DailyWorkHours:        req.DailyWorkHours,
		TimeTrackingEnabled:   req.TimeTrackingEnabled,
		IsActive:              req.IsActive,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// UpdateUser rewrites an employee record.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req SaveUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.Service.UpdateUser(r.Context(), actorID(r, id), engine.User{
		ID:                    id,
		Name:                  req.Name,
		AnnualVacationDays:    req.AnnualVacationDays,
		CarryOverVacationDays: req.CarryOverVacationDays,
		OvertimeBalanceHours:  req.OvertimeBalanceHours,
		DailyWorkHours:        req.DailyWorkHours,
		TimeTrackingEnabled:   req.TimeTrackingEnabled,
		IsActive:              req.IsActive,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// =============================================================================
// TIME TRACKING HANDLERS
// =============================================================================

// Clock books a live punch for the user.
func (h *Handler) Clock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ClockRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.Service.RecordClock(r.Context(), id, req.Type, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// Correction books a back-dated punch. When the actor is the target user
// the self-correction window applies; otherwise the supervisor comment
// rule does.
func (h *Handler) Correction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := actorID(r, id)
	var req CorrectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	var entry engine.TimeEntry
	var err error
	if actor == id {
		entry, err = h.Service.RecordSelfCorrection(r.Context(), id, req.Type, req.OccurredAt, req.Comment)
	} else {
		entry, err = h.Service.RecordSupervisorCorrection(r.Context(), actor, id, req.Type, req.OccurredAt, req.Comment)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// OverrideDay replaces every punch of one day.
func (h *Handler) OverrideDay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	date := chi.URLParam(r, "date")
	actor := actorID(r, id)
	var req OverrideDayRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.Service.OverrideDay(r.Context(), actor, id, date, req.Note, req.Events, actor == id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// BulkEntry fills a date range with identical in/out pairs.
func (h *Handler) BulkEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req BulkEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.Service.BulkEntry(r.Context(), actorID(r, id), id,
		req.StartDate, req.EndDate, req.InTime, req.OutTime, req.Note)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// VIEW HANDLERS
// =============================================================================

// MonthView returns the per-day accounting of one month.
func (h *Handler) MonthView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	view, err := h.Service.GetMonthView(r.Context(), id, year, time.Month(month))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Summary returns the current-month dashboard.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.GetSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Availability returns remaining vacation days and the overtime balance.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	availability, err := h.Service.GetAvailability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

// Overview returns the supervisor table across all active users.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Service.SupervisorOverview(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// ListLeave returns a user's leave requests, newest first.
func (h *Handler) ListLeave(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.Service.ListLeave(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTOs(leaves))
}

// CreateLeave books a leave request for the user.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CreateLeaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	outcome, err := h.Service.CreateLeaveRequest(r.Context(), id, req.Kind, req.StartDate, req.EndDate, req.Note)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"request":               toLeaveDTO(outcome.Request),
		"warningOverdrawn":      outcome.WarningOverdrawn,
		"requestedVacationDays": outcome.RequestedVacationDays,
		"availableVacationDays": outcome.AvailableVacationDays,
	})
}

// CancelLeave cancels the caller's own submitted request.
func (h *Handler) CancelLeave(w http.ResponseWriter, r *http.Request) {
	leaveID := chi.URLParam(r, "id")
	actor := r.Header.Get("X-Actor-ID")
	if actor == "" {
		writeError(w, http.StatusBadRequest, "X-Actor-ID header required", nil)
		return
	}
	leave, err := h.Service.CancelLeave(r.Context(), actor, leaveID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(leave))
}

// DecideLeave approves or rejects a submitted request.
func (h *Handler) DecideLeave(w http.ResponseWriter, r *http.Request) {
	leaveID := chi.URLParam(r, "id")
	var req DecideLeaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	leave, err := h.Service.DecideLeaveRequest(r.Context(), actorID(r, "supervisor"), leaveID, req.Decision, req.Note)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(leave))
}

// UpdateLeave rewrites a submitted request's range and note.
func (h *Handler) UpdateLeave(w http.ResponseWriter, r *http.Request) {
	leaveID := chi.URLParam(r, "id")
	var req UpdateLeaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	leave, err := h.Service.SupervisorUpdateLeave(r.Context(), actorID(r, "supervisor"), leaveID,
		req.StartDate, req.EndDate, req.Note)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(leave))
}

// ListPendingLeave returns all submitted requests across users.
func (h *Handler) ListPendingLeave(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.Service.ListPendingLeave(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTOs(leaves))
}

// =============================================================================
// SICK LEAVE HANDLERS
// =============================================================================

// ListSickLeaves returns sick leaves intersecting ?from=..&to=.. (dates).
func (h *Handler) ListSickLeaves(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	from, err := engine.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date", err)
		return
	}
	to, err := engine.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date", err)
		return
	}
	leaves, err := h.Service.ListSickLeaves(r.Context(), id, from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]SickLeaveDTO, len(leaves))
	for i, l := range leaves {
		dtos[i] = toSickLeaveDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSickLeave records an inclusive sick range.
func (h *Handler) CreateSickLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req SickLeaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	leave, err := h.Service.RecordSickLeave(r.Context(), actorID(r, id), id, req.StartDate, req.EndDate, req.Note)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSickLeaveDTO(leave))
}

// RemoveSickLeaveDay removes a single day out of a recorded sick range.
func (h *Handler) RemoveSickLeaveDay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	date := chi.URLParam(r, "date")
	if err := h.Service.RemoveSickLeaveDay(r.Context(), actorID(r, id), id, date); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CORRECTION AND BALANCE HANDLERS
// =============================================================================

// CreateBreakCredit restores break minutes on one day.
func (h *Handler) CreateBreakCredit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req BreakCreditRequest
	if !h.decode(w, r, &req) {
		return
	}
	credit, err := h.Service.RecordBreakCredit(r.Context(), actorID(r, id), id, req.Date, req.Minutes, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBreakCreditDTO(credit))
}

// ListAdjustments returns the user's newest manual adjustments.
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	adjustments, err := h.Service.ListAdjustments(r.Context(), id, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]AdjustmentDTO, len(adjustments))
	for i, a := range adjustments {
		dtos[i] = toAdjustmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAdjustment books a signed manual overtime correction.
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req AdjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	adjustment, err := h.Service.RecordOvertimeAdjustment(r.Context(), actorID(r, id), id, req.Date, req.Hours, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdjustmentDTO(adjustment))
}

// SetOvertimeAccount resets the stored overtime balance to a target value.
func (h *Handler) SetOvertimeAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req SetOvertimeAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	delta, err := h.Service.SetOvertimeAccount(r.Context(), actorID(r, id), id, req.TargetHours, req.Note)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deltaHours": delta})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// GetConfig returns the system configuration.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Service.Config(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigDTO{
		DefaultDailyHours:     cfg.DefaultDailyHours,
		WorkingDays:           cfg.WorkingDays.Codes(),
		AutoBreakMinutes:      cfg.AutoBreakMinutes,
		AutoBreakAfterHours:   cfg.AutoBreakAfterHours,
		SelfCorrectionMaxDays: cfg.SelfCorrectionMaxDays,
		CompanyName:           cfg.CompanyName,
	})
}

// UpdateConfig replaces the system configuration.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigDTO
	if !h.decode(w, r, &req) {
		return
	}
	cfg := engine.Config{
		DefaultDailyHours:     req.DefaultDailyHours,
		AutoBreakMinutes:      req.AutoBreakMinutes,
		AutoBreakAfterHours:   req.AutoBreakAfterHours,
		SelfCorrectionMaxDays: req.SelfCorrectionMaxDays,
		CompanyName:           req.CompanyName,
	}
	if err := h.Service.UpdateConfig(r.Context(), actorID(r, "admin"), cfg, req.WorkingDays); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHolidays returns the holidays of ?year= (default: current year).
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		year = time.Now().UTC().Year()
	}
	holidays, err := h.Service.ListHolidays(r.Context(), year)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hd := range holidays {
		dtos[i] = toHolidayDTO(hd)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday records a public holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	holiday, err := h.Service.SaveHoliday(r.Context(), actorID(r, "admin"), req.Date, req.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// SeedDefaultHolidays inserts the fixed nationwide holidays for ?year=.
func (h *Handler) SeedDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		year = time.Now().UTC().Year()
	}
	holidays, err := h.Service.SeedDefaultHolidays(r.Context(), actorID(r, "admin"), year)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hd := range holidays {
		dtos[i] = toHolidayDTO(hd)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// DeleteHoliday removes a holiday by id.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteHoliday(r.Context(), actorID(r, "admin"), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TriggerRollover runs the year-end vacation rollover.
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	var req RolloverRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.Service.RunYearEndRollover(r.Context(), actorID(r, "admin"), req.Year)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListAudits returns the newest audit records.
func (h *Handler) ListAudits(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	audits, err := h.Service.RecentAudits(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audits)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// decode parses the JSON body into dst, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeServiceError maps the service error taxonomy onto HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case engine.IsAuthorization(err):
		writeError(w, http.StatusForbidden, err.Error(), nil)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		h.Log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
