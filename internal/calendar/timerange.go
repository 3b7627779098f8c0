package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
)

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time `json:"startAt"`
	End   time.Time `json:"endAt"`
}

// NewTimeRange создаёт интервал и проверяет, что Start < End.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// UTC переводит обе границы в UTC. В хранилище интервалы лежат только так.
func (tr TimeRange) UTC() TimeRange {
	return TimeRange{Start: tr.Start.UTC(), End: tr.End.UTC()}
}

// Overlaps — пересечение полуоткрытых интервалов:
// a.Start < b.End && a.End > b.Start. Касание концами пересечением не считается.
func Overlaps(a, b TimeRange) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// HasOverlap проверяет, пересекается ли newRange с existing,
// и возвращает все конфликтующие интервалы.
func HasOverlap(newRange TimeRange, existing []TimeRange) (bool, []TimeRange) {
	var conflicts []TimeRange

	for _, tr := range existing {
		if Overlaps(newRange, tr) {
			conflicts = append(conflicts, tr)
		}
	}

	return len(conflicts) > 0, conflicts
}

// SplitToTimeSlots разбивает интервал на слоты фиксированной длительности,
// начиная с tr.Start. "Хвост" меньшей длительности, чем slotDuration, отбрасывается.
func SplitToTimeSlots(tr TimeRange, slotDuration time.Duration) ([]TimeRange, error) {
	if slotDuration <= 0 {
		return nil, ErrSlotDuration
	}
	if !tr.End.After(tr.Start) {
		return []TimeRange{}, nil
	}

	slots := make([]TimeRange, 0, int(tr.Duration()/slotDuration))
	for cur := tr.Start; ; cur = cur.Add(slotDuration) {
		slotEnd := cur.Add(slotDuration)
		if slotEnd.After(tr.End) {
			break
		}
		slots = append(slots, TimeRange{Start: cur, End: slotEnd})
	}

	return slots, nil
}

// FreeSlots режет окно на слоты и оставляет только те, что не пересекаются с busy.
// busy не нужно предварительно сливать: достаточно точечной проверки пересечения.
func FreeSlots(window TimeRange, slotDuration time.Duration, busy []TimeRange) ([]TimeRange, error) {
	all, err := SplitToTimeSlots(window, slotDuration)
	if err != nil {
		return nil, err
	}

	free := make([]TimeRange, 0, len(all))
	for _, s := range all {
		if conflict, _ := HasOverlap(s, busy); conflict {
			continue
		}
		free = append(free, s)
	}
	return free, nil
}

// FormatRange форматирует интервал в человекочитаемую строку в зоне loc,
// например "2025-01-06 (Mon) 09:00-10:00".
func FormatRange(tr TimeRange, loc *time.Location) string {
	start := tr.Start.In(loc)
	end := tr.End.In(loc)

	if DateOf(start, loc) != DateOf(end, loc) {
		return fmt.Sprintf("%s - %s", start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
	}
	return fmt.Sprintf("%s (%s) %s-%s",
		start.Format(dateLayout),
		start.Format("Mon"),
		start.Format("15:04"),
		end.Format("15:04"),
	)
}
