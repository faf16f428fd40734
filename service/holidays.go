/*
holidays.go - Public holiday administration

Holidays remove days from the working-day sets of every user at once, so
each change is audited. A (date, name) pair exists at most once; saving a
duplicate is a no-op.
*/
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stechuhr/attendance-engine/engine"
)

// SaveHoliday records a public holiday.
func (s *Service) SaveHoliday(ctx context.Context, actorID, date, name string) (engine.Holiday, error) {
	day, err := engine.ParseDate(date)
	if err != nil {
		return engine.Holiday{}, err
	}
	if strings.TrimSpace(name) == "" {
		return engine.Holiday{}, &engine.ValidationError{Field: "name", Message: "name is mandatory"}
	}

	holiday := engine.Holiday{
		ID:   uuid.NewString(),
		Date: day,
		Name: strings.TrimSpace(name),
	}
	if err := s.store.SaveHoliday(ctx, holiday); err != nil {
		return engine.Holiday{}, err
	}
	s.audit(actorID, "HOLIDAY_SAVED", "Holiday", holiday.ID,
		map[string]string{"date": date, "name": holiday.Name})
	return holiday, nil
}

// DeleteHoliday removes a holiday by id.
func (s *Service) DeleteHoliday(ctx context.Context, actorID, holidayID string) error {
	if err := s.store.DeleteHoliday(ctx, holidayID); err != nil {
		return err
	}
	s.audit(actorID, "HOLIDAY_DELETED", "Holiday", holidayID, nil)
	return nil
}

// ListHolidays returns the holidays of one calendar year.
func (s *Service) ListHolidays(ctx context.Context, year int) ([]engine.Holiday, error) {
	if year < 2000 || year > 2100 {
		return nil, &engine.ValidationError{Field: "year", Message: "year out of range"}
	}
	return s.store.HolidaysInRange(ctx, engine.YearStart(year), engine.YearEnd(year))
}

// nationwide German holidays whose dates do not move.
var fixedHolidays = []struct {
	Month time.Month
	Day   int
	Name  string
}{
	{time.January, 1, "Neujahr"},
	{time.May, 1, "Tag der Arbeit"},
	{time.October, 3, "Tag der Deutschen Einheit"},
	{time.December, 25, "1. Weihnachtstag"},
	{time.December, 26, "2. Weihnachtstag"},
}

// SeedDefaultHolidays inserts the fixed-date nationwide holidays for one
// year. Already-present entries stay untouched.
func (s *Service) SeedDefaultHolidays(ctx context.Context, actorID string, year int) ([]engine.Holiday, error) {
	if year < 2000 || year > 2100 {
		return nil, &engine.ValidationError{Field: "year", Message: "year out of range"}
	}

	created := make([]engine.Holiday, 0, len(fixedHolidays))
	for _, f := range fixedHolidays {
		holiday := engine.Holiday{
			ID:   uuid.NewString(),
			Date: time.Date(year, f.Month, f.Day, 0, 0, 0, 0, time.UTC),
			Name: f.Name,
		}
		if err := s.store.SaveHoliday(ctx, holiday); err != nil {
			return nil, err
		}
		created = append(created, holiday)
	}
	s.audit(actorID, "HOLIDAYS_SEEDED", "Holiday", "", map[string]int{"year": year})
	return created, nil
}
