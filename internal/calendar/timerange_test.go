package calendar

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func equalTimeRange(a, b TimeRange) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

func equalTimeRangeSlices(a, b []TimeRange) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalTimeRange(a[i], b[i]) {
			return false
		}
	}
	return true
}

func hourly(t *testing.T, day, fromHour, toHour int) []TimeRange {
	t.Helper()
	var out []TimeRange
	for h := fromHour; h < toHour; h++ {
		out = append(out, TimeRange{
			Start: mustTime(t, 2025, 1, day, h, 0),
			End:   mustTime(t, 2025, 1, day, h+1, 0),
		})
	}
	return out
}

//
// 1.1. Тесты для NewTimeRange / Overlaps
//

func TestNewTimeRange_RejectsEmptyAndInverted(t *testing.T) {
	start := mustTime(t, 2025, 1, 1, 10, 0)

	if _, err := NewTimeRange(start, start); err == nil {
		t.Fatalf("expected error for empty range")
	}
	if _, err := NewTimeRange(start, start.Add(-time.Hour)); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if _, err := NewTimeRange(time.Time{}, start); err == nil {
		t.Fatalf("expected error for zero start")
	}
	if _, err := NewTimeRange(start, start.Add(time.Hour)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	a := TimeRange{Start: mustTime(t, 2025, 1, 1, 10, 0), End: mustTime(t, 2025, 1, 1, 11, 0)}

	cases := []struct {
		name string
		b    TimeRange
		want bool
	}{
		{"touching end", TimeRange{Start: mustTime(t, 2025, 1, 1, 11, 0), End: mustTime(t, 2025, 1, 1, 12, 0)}, false},
		{"touching start", TimeRange{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 10, 0)}, false},
		{"inside", TimeRange{Start: mustTime(t, 2025, 1, 1, 10, 15), End: mustTime(t, 2025, 1, 1, 10, 45)}, true},
		{"covering", TimeRange{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 12, 0)}, true},
		{"partial", TimeRange{Start: mustTime(t, 2025, 1, 1, 10, 30), End: mustTime(t, 2025, 1, 1, 11, 30)}, true},
	}
	for _, tc := range cases {
		if got := Overlaps(a, tc.b); got != tc.want {
			t.Errorf("%s: Overlaps=%v, want %v", tc.name, got, tc.want)
		}
		if got := Overlaps(tc.b, a); got != tc.want {
			t.Errorf("%s (swapped): Overlaps=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHasOverlap_ReturnsConflicts(t *testing.T) {
	existing := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 10, 0)},
		{Start: mustTime(t, 2025, 1, 1, 10, 30), End: mustTime(t, 2025, 1, 1, 11, 0)},
		{Start: mustTime(t, 2025, 1, 1, 12, 0), End: mustTime(t, 2025, 1, 1, 13, 0)},
	}
	newRange := TimeRange{Start: mustTime(t, 2025, 1, 1, 10, 0), End: mustTime(t, 2025, 1, 1, 12, 0)}

	ok, conflicts := HasOverlap(newRange, existing)
	if !ok {
		t.Fatalf("expected overlap")
	}
	if len(conflicts) != 1 || !equalTimeRange(conflicts[0], existing[1]) {
		t.Fatalf("unexpected conflicts: %v", conflicts)
	}
}

//
// 1.2. Тесты для SplitToTimeSlots / FreeSlots
//

func TestSplitToTimeSlots_DropsTail(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 11, 30)}

	slots, err := SplitToTimeSlots(tr, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !equalTimeRangeSlices(slots, hourly(t, 1, 9, 11)) {
		t.Fatalf("unexpected slots: %v", slots)
	}
}

func TestSplitToTimeSlots_InvalidDuration(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 10, 0)}
	if _, err := SplitToTimeSlots(tr, 0); err == nil {
		t.Fatalf("expected error for zero slot duration")
	}
}

func TestSplitToTimeSlots_TilesWindowExactly(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 18, 0)}

	for _, step := range []time.Duration{15 * time.Minute, 30 * time.Minute, time.Hour, 90 * time.Minute} {
		slots, err := SplitToTimeSlots(tr, step)
		if err != nil {
			t.Fatalf("step %v: %v", step, err)
		}
		if len(slots) == 0 || !slots[0].Start.Equal(tr.Start) {
			t.Fatalf("step %v: first slot must start at window open", step)
		}
		for i, s := range slots {
			if s.Duration() != step {
				t.Fatalf("step %v: slot %d has width %v", step, i, s.Duration())
			}
			if s.End.After(tr.End) {
				t.Fatalf("step %v: slot %d exceeds close", step, i)
			}
			if i > 0 && !slots[i-1].End.Equal(s.Start) {
				t.Fatalf("step %v: gap or overlap before slot %d", step, i)
			}
		}
		if tr.End.Sub(slots[len(slots)-1].End) >= step {
			t.Fatalf("step %v: window not fully tiled", step)
		}
	}
}

func TestFreeSlots_SkipsBusy(t *testing.T) {
	window := TimeRange{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 13, 0)}
	busy := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 10, 0), End: mustTime(t, 2025, 1, 1, 11, 0)},
		// частичное пересечение тоже выбивает слот
		{Start: mustTime(t, 2025, 1, 1, 12, 30), End: mustTime(t, 2025, 1, 1, 12, 45)},
	}

	free, err := FreeSlots(window, time.Hour, busy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []TimeRange{
		{Start: mustTime(t, 2025, 1, 1, 9, 0), End: mustTime(t, 2025, 1, 1, 10, 0)},
		{Start: mustTime(t, 2025, 1, 1, 11, 0), End: mustTime(t, 2025, 1, 1, 12, 0)},
	}
	if !equalTimeRangeSlices(free, want) {
		t.Fatalf("unexpected free slots: %v", free)
	}
}

func TestFormatRange(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	tr := TimeRange{Start: mustTime(t, 2025, 1, 6, 0, 0), End: mustTime(t, 2025, 1, 6, 1, 0)}

	if got := FormatRange(tr, loc); got != "2025-01-06 (Mon) 09:00-10:00" {
		t.Fatalf("unexpected format: %q", got)
	}
}
