// Package slot expands availability windows into bookable slot start times.
package slot

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

// DefaultStep is the fixed booking granularity.
const DefaultStep = 30 * time.Minute

// Layout is the wall clock format slots are rendered in.
const Layout = "15:04"

// Derive yields slot starts from start (inclusive) in step increments. A slot is yielded only
// if it ends at or before end, so a trailing partial slot is dropped. The sequence is finite and
// can be ranged over any number of times.
func Derive(start, end time.Time, step time.Duration) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if step <= 0 {
			return
		}
		for t := start; !t.Add(step).After(end); t = t.Add(step) {
			if !yield(t) {
				return
			}
		}
	}
}

// Times derives the slots of an HH:MM window and renders them in Layout.
func Times(from, to string, step time.Duration) ([]string, error) {
	start, err := ParseClock(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(to)
	if err != nil {
		return nil, err
	}

	var out []string
	for t := range Derive(start, end, step) {
		out = append(out, t.Format(Layout))
	}
	return out, nil
}

// Subtract returns the entries of times that are not in booked, keeping order.
func Subtract(times, booked []string) []string {
	if len(booked) == 0 {
		return times
	}
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}

	out := make([]string, 0, len(times))
	for _, t := range times {
		if _, ok := taken[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// Merge combines the slots of several windows into one sorted list without duplicates.
func Merge(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ParseClock parses HH:MM (or HH:MM:SS) on the zero date.
func ParseClock(s string) (time.Time, error) {
	for _, layout := range []string{Layout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid clock time %q", s)
}

// NormalizeClock renders any accepted clock string as HH:MM.
func NormalizeClock(s string) (string, error) {
	t, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return t.Format(Layout), nil
}

// End returns the end of the slot starting at start.
func End(start string, step time.Duration) (string, error) {
	t, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	return t.Add(step).Format(Layout), nil
}
