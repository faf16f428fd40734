/*
dto.go - Data transfer objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND TIME:
  Hour and day balances travel as JSON strings produced by
  decimal.Decimal, never as floats. Dates are "YYYY-MM-DD", timestamps
  RFC3339.

VALIDATION:
  Validation is done in the service layer, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - service: The operations behind them
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stechuhr/attendance-engine/engine"
	"github.com/stechuhr/attendance-engine/service"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// UserDTO represents an employee in API responses.
type UserDTO struct {
	ID                    string           `json:"id"`
	Name                  string           `json:"name"`
	AnnualVacationDays    decimal.Decimal  `json:"annualVacationDays"`
	CarryOverVacationDays decimal.Decimal  `json:"carryOverVacationDays"`
	OvertimeBalanceHours  decimal.Decimal  `json:"overtimeBalanceHours"`
	DailyWorkHours        *decimal.Decimal `json:"dailyWorkHours,omitempty"`
	TimeTrackingEnabled   bool             `json:"timeTrackingEnabled"`
	IsActive              bool             `json:"isActive"`
}

// SaveUserRequest creates or updates an employee.
type SaveUserRequest struct {
	Name                  string           `json:"name"`
	AnnualVacationDays    decimal.Decimal  `json:"annualVacationDays"`
	CarryOverVacationDays decimal.Decimal  `json:"carryOverVacationDays"`
	OvertimeBalanceHours  decimal.Decimal  `json:"overtimeBalanceHours"`
	DailyWorkHours        *decimal.Decimal `json:"dailyWorkHours,omitempty"`
	TimeTrackingEnabled   bool             `json:"timeTrackingEnabled"`
	IsActive              bool             `json:"isActive"`
}

// ConfigDTO is the system configuration payload.
type ConfigDTO struct {
	DefaultDailyHours     decimal.Decimal `json:"defaultDailyHours"`
	WorkingDays           string          `json:"workingDays"` // "MON,TUE,..."
	AutoBreakMinutes      int64           `json:"autoBreakMinutes"`
	AutoBreakAfterHours   decimal.Decimal `json:"autoBreakAfterHours"`
	SelfCorrectionMaxDays int             `json:"selfCorrectionMaxDays"`
	CompanyName           string          `json:"companyName"`
}

// ClockRequest books a live punch.
type ClockRequest struct {
	Type   engine.EntryType `json:"type"`
	Reason string           `json:"reason"`
}

// CorrectionRequest books a back-dated punch. Actor and target user decide
// whether the self-correction window or the supervisor comment rule applies.
type CorrectionRequest struct {
	Type       engine.EntryType `json:"type"`
	OccurredAt time.Time        `json:"occurredAt"`
	Comment    string           `json:"comment"`
}

// OverrideDayRequest replaces all punches of one day.
type OverrideDayRequest struct {
	Note   string                  `json:"note"`
	Events []service.OverrideEvent `json:"events"`
}

// BulkEntryRequest fills a date range with identical in/out pairs.
type BulkEntryRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	InTime    string `json:"inTime"`
	OutTime   string `json:"outTime"`
	Note      string `json:"note"`
}

// EntryDTO represents a clock punch in API responses.
type EntryDTO struct {
	ID                 string `json:"id"`
	UserID             string `json:"userId"`
	Type               string `json:"type"`
	OccurredAt         string `json:"occurredAt"`
	Source             string `json:"source"`
	IsManualCorrection bool   `json:"isManualCorrection"`
	ReasonText         string `json:"reasonText,omitempty"`
	CorrectionComment  string `json:"correctionComment,omitempty"`
}

// LeaveRequestDTO represents a leave booking in API responses.
type LeaveRequestDTO struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Kind         string `json:"kind"`
	Status       string `json:"status"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Note         string `json:"note,omitempty"`
	DecisionNote string `json:"decisionNote,omitempty"`
	DecidedByID  string `json:"decidedById,omitempty"`
	DecidedAt    string `json:"decidedAt,omitempty"`
	RequestedAt  string `json:"requestedAt"`
}

// CreateLeaveRequest books a new leave request.
type CreateLeaveRequest struct {
	Kind      engine.LeaveKind `json:"kind"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	Note      string           `json:"note,omitempty"`
}

// DecideLeaveRequest resolves a submitted request.
type DecideLeaveRequest struct {
	Decision engine.LeaveStatus `json:"decision"` // APPROVED or REJECTED
	Note     string             `json:"note,omitempty"`
}

// UpdateLeaveRequest is the supervisor rewrite of a submitted request.
type UpdateLeaveRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Note      string `json:"note,omitempty"`
}

// SickLeaveRequest records an inclusive sick range.
type SickLeaveRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Note      string `json:"note,omitempty"`
}

// SickLeaveDTO represents a sick leave in API responses.
type SickLeaveDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Note      string `json:"note,omitempty"`
}

// BreakCreditRequest restores break minutes on one day.
type BreakCreditRequest struct {
	Date    string `json:"date"`
	Minutes int64  `json:"minutes"`
	Reason  string `json:"reason"`
}

// AdjustmentRequest books a signed manual overtime correction.
type AdjustmentRequest struct {
	Date   string          `json:"date"`
	Hours  decimal.Decimal `json:"hours"`
	Reason string          `json:"reason"`
}

// BreakCreditDTO represents a break credit in API responses.
type BreakCreditDTO struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Date    string `json:"date"`
	Minutes int64  `json:"minutes"`
	Reason  string `json:"reason"`
}

// AdjustmentDTO represents a manual overtime adjustment in API responses.
type AdjustmentDTO struct {
	ID     string          `json:"id"`
	UserID string          `json:"userId"`
	Date   string          `json:"date"`
	Hours  decimal.Decimal `json:"hours"`
	Reason string          `json:"reason"`
}

// SetOvertimeAccountRequest resets the stored overtime balance.
type SetOvertimeAccountRequest struct {
	TargetHours decimal.Decimal `json:"targetHours"`
	Note        string          `json:"note"`
}

// HolidayRequest records a public holiday.
type HolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

// RolloverRequest triggers the year-end vacation rollover.
type RolloverRequest struct {
	Year int `json:"year"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toUserDTO(u engine.User) UserDTO {
	return UserDTO{
		ID:                    u.ID,
		Name:                  u.Name,
		AnnualVacationDays:    u.AnnualVacationDays,
		CarryOverVacationDays: u.CarryOverVacationDays,
		OvertimeBalanceHours:  u.OvertimeBalanceHours,
		DailyWorkHours:        u.DailyWorkHours,
		TimeTrackingEnabled:   u.TimeTrackingEnabled,
		IsActive:              u.IsActive,
	}
}

func toEntryDTO(e engine.TimeEntry) EntryDTO {
	return EntryDTO{
		ID:                 e.ID,
		UserID:             e.UserID,
		Type:               string(e.Type),
		OccurredAt:         e.OccurredAt.Format(time.RFC3339),
		Source:             string(e.Source),
		IsManualCorrection: e.IsManualCorrection,
		ReasonText:         e.ReasonText,
		CorrectionComment:  e.CorrectionComment,
	}
}

func toLeaveDTO(r engine.LeaveRequest) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:           r.ID,
		UserID:       r.UserID,
		Kind:         string(r.Kind),
		Status:       string(r.Status),
		StartDate:    engine.DayKey(r.StartDate),
		EndDate:      engine.DayKey(r.EndDate),
		Note:         r.Note,
		DecisionNote: r.DecisionNote,
		DecidedByID:  r.DecidedByID,
		RequestedAt:  r.RequestedAt.Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		dto.DecidedAt = r.DecidedAt.Format(time.RFC3339)
	}
	return dto
}

func toLeaveDTOs(rs []engine.LeaveRequest) []LeaveRequestDTO {
	dtos := make([]LeaveRequestDTO, len(rs))
	for i, r := range rs {
		dtos[i] = toLeaveDTO(r)
	}
	return dtos
}

func toSickLeaveDTO(l engine.SickLeave) SickLeaveDTO {
	return SickLeaveDTO{
		ID:        l.ID,
		UserID:    l.UserID,
		StartDate: engine.DayKey(l.StartDate),
		EndDate:   engine.DayKey(l.EndDate),
		Note:      l.Note,
	}
}

func toHolidayDTO(h engine.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: engine.DayKey(h.Date), Name: h.Name}
}

func toBreakCreditDTO(c engine.BreakCredit) BreakCreditDTO {
	return BreakCreditDTO{
		ID:      c.ID,
		UserID:  c.UserID,
		Date:    engine.DayKey(c.Date),
		Minutes: c.Minutes,
		Reason:  c.Reason,
	}
}

func toAdjustmentDTO(a engine.OvertimeAdjustment) AdjustmentDTO {
	return AdjustmentDTO{
		ID:     a.ID,
		UserID: a.UserID,
		Date:   engine.DayKey(a.Date),
		Hours:  a.Hours,
		Reason: a.Reason,
	}
}
