package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Resolution is the effective booking policy for one date.
type Resolution struct {
	Date            Date        `json:"date"`
	IsAvailable     bool        `json:"is_available"`
	Reason          string      `json:"reason"`
	Hours           []HourRange `json:"hours,omitempty"`
	MaxAppointments int         `json:"max_appointments"`
	HasOverride     bool        `json:"has_override"`
}

// Policy resolves per-date availability by layering admin overrides over the
// weekday default.
type Policy struct {
	repo Repository
}

// NewPolicy constructs a Policy over the settings repository.
func NewPolicy(repo Repository) *Policy {
	if repo == nil {
		panic("calendar: repository required")
	}
	return &Policy{repo: repo}
}

// Resolve returns the effective policy for date. A stored setting wins
// verbatim; otherwise weekdays are open with default cap and empty hours
// (empty hours means the global default slot list applies).
func (p *Policy) Resolve(ctx context.Context, date Date) (*Resolution, error) {
	setting, err := p.repo.Get(ctx, date)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			return nil, fmt.Errorf("calendar: resolve %s: %w", date, err)
		}
		return defaultResolution(date), nil
	}
	return &Resolution{
		Date:            setting.Date,
		IsAvailable:     setting.IsAvailable,
		Reason:          setting.Reason,
		Hours:           setting.Hours,
		MaxAppointments: setting.MaxAppointments,
		HasOverride:     true,
	}, nil
}

// ResolveRange resolves every date from start through end inclusive, in
// order. A single-day range (start == end) yields one entry.
func (p *Policy) ResolveRange(ctx context.Context, start, end Date) ([]*Resolution, error) {
	if start.IsZero() || end.IsZero() {
		return nil, ErrInvalidDate
	}
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	settings, err := p.repo.GetRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("calendar: resolve range %s..%s: %w", start, end, err)
	}
	byDate := make(map[Date]*Setting, len(settings))
	for _, s := range settings {
		byDate[s.Date] = s
	}

	var out []*Resolution
	for d := start; !d.After(end); d = d.AddDays(1) {
		if s, ok := byDate[d]; ok {
			out = append(out, &Resolution{
				Date:            s.Date,
				IsAvailable:     s.IsAvailable,
				Reason:          s.Reason,
				Hours:           s.Hours,
				MaxAppointments: s.MaxAppointments,
				HasOverride:     true,
			})
			continue
		}
		out = append(out, defaultResolution(d))
	}
	return out, nil
}

// SlotWithinHours reports whether an HH:MM time is bookable under the given
// custom hours. Empty hours defer to the global default slot list, so any
// time passes here.
func SlotWithinHours(hhmm string, hours []HourRange) bool {
	if len(hours) == 0 {
		return true
	}
	for _, h := range hours {
		if h.Contains(hhmm) {
			return true
		}
	}
	return false
}

func defaultResolution(date Date) *Resolution {
	weekday := date.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return &Resolution{
			Date:            date,
			IsAvailable:     false,
			Reason:          "Weekend",
			MaxAppointments: DefaultMaxAppointments,
		}
	}
	return &Resolution{
		Date:            date,
		IsAvailable:     true,
		Reason:          "Default weekday",
		MaxAppointments: DefaultMaxAppointments,
	}
}
