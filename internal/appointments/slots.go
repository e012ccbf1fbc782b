package appointments

import (
	"fmt"
	"sort"

	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
)

// slotsFromHours derives hourly slots from custom hour ranges: one slot per
// whole hour from each range start up to, not including, its end.
func slotsFromHours(hours []calendar.HourRange) []string {
	seen := make(map[int]struct{})
	var minutes []int
	for _, h := range hours {
		start, err := calendar.MinuteOfDay(h.Start)
		if err != nil {
			continue
		}
		end, err := calendar.MinuteOfDay(h.End)
		if err != nil {
			continue
		}
		for m := start; m < end; m += 60 {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				minutes = append(minutes, m)
			}
		}
	}
	sort.Ints(minutes)

	slots := make([]string, 0, len(minutes))
	for _, m := range minutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

// candidateSlots picks the bookable slot list for a resolution: derived from
// custom hours when present, the global default list otherwise.
func candidateSlots(res *calendar.Resolution) []string {
	if len(res.Hours) > 0 {
		return slotsFromHours(res.Hours)
	}
	return append([]string(nil), DefaultSlots...)
}

// subtractBooked removes booked times from candidates, preserving order.
func subtractBooked(candidates, booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	free := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := taken[c]; !ok {
			free = append(free, c)
		}
	}
	return free
}

// slotListed reports whether hhmm appears in slots.
func slotListed(hhmm string, slots []string) bool {
	for _, s := range slots {
		if s == hhmm {
			return true
		}
	}
	return false
}
