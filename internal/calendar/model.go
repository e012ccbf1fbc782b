package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxAppointments caps bookings per day when no override sets one.
const DefaultMaxAppointments = 8

// HourRange is a half-open [Start, End) window of bookable time, HH:MM.
type HourRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate checks both endpoints parse and the range is non-empty.
func (h HourRange) Validate() error {
	start, err := MinuteOfDay(h.Start)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHourRange, err)
	}
	end, err := MinuteOfDay(h.End)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHourRange, err)
	}
	if start >= end {
		return fmt.Errorf("%w: %s is not before %s", ErrInvalidHourRange, h.Start, h.End)
	}
	return nil
}

// Contains reports whether the HH:MM time falls within [Start, End).
func (h HourRange) Contains(hhmm string) bool {
	m, err := MinuteOfDay(hhmm)
	if err != nil {
		return false
	}
	start, err1 := MinuteOfDay(h.Start)
	end, err2 := MinuteOfDay(h.End)
	if err1 != nil || err2 != nil {
		return false
	}
	return m >= start && m < end
}

// MinuteOfDay converts an HH:MM string to minutes since midnight.
func MinuteOfDay(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("time %q is not HH:MM", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("time %q has invalid hour", hhmm)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q has invalid minute", hhmm)
	}
	return hour*60 + minute, nil
}

// Setting is a per-date override of the default booking policy.
// One row per date; admin writes upsert.
type Setting struct {
	Date            Date        `json:"date"`
	IsAvailable     bool        `json:"is_available"`
	Reason          string      `json:"reason"`
	Hours           []HourRange `json:"hours,omitempty"`
	MaxAppointments int         `json:"max_appointments"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// UpsertSettingRequest is the admin request to create or replace a setting.
type UpsertSettingRequest struct {
	Date            Date        `json:"date"`
	IsAvailable     bool        `json:"is_available"`
	Reason          string      `json:"reason"`
	Hours           []HourRange `json:"hours,omitempty"`
	MaxAppointments int         `json:"max_appointments"`
}

// Validate validates the upsert request. A zero MaxAppointments takes the
// default cap.
func (r *UpsertSettingRequest) Validate() error {
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if r.MaxAppointments < 0 {
		return ErrInvalidCap
	}
	if r.MaxAppointments == 0 {
		r.MaxAppointments = DefaultMaxAppointments
	}
	for _, h := range r.Hours {
		if err := h.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BulkUpsertRequest applies the same setting fields to several dates.
type BulkUpsertRequest struct {
	Dates           []Date      `json:"dates"`
	IsAvailable     bool        `json:"is_available"`
	Reason          string      `json:"reason"`
	Hours           []HourRange `json:"hours,omitempty"`
	MaxAppointments int         `json:"max_appointments"`
}

// Validate validates the bulk request.
func (r *BulkUpsertRequest) Validate() error {
	if len(r.Dates) == 0 {
		return ErrInvalidDate
	}
	for _, d := range r.Dates {
		if d.IsZero() {
			return ErrInvalidDate
		}
	}
	probe := UpsertSettingRequest{
		Date:            r.Dates[0],
		IsAvailable:     r.IsAvailable,
		Reason:          r.Reason,
		Hours:           r.Hours,
		MaxAppointments: r.MaxAppointments,
	}
	if err := probe.Validate(); err != nil {
		return err
	}
	r.MaxAppointments = probe.MaxAppointments
	return nil
}
