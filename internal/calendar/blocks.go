package calendar

import (
	"sort"
	"time"
)

// Block — несколько подряд идущих слотов, покрывающих нужную длительность.
type Block struct {
	Start time.Time   `json:"startAt"`
	End   time.Time   `json:"endAt"`
	Slots []TimeRange `json:"slots,omitempty"`
}

type slotKey struct {
	start, end int64
}

func keyOf(tr TimeRange) slotKey {
	return slotKey{start: tr.Start.UnixNano(), end: tr.End.UnixNano()}
}

// IntersectSlots возвращает слоты (по паре границ), которые есть в каждом списке.
// Порядок во входных списках не важен, результат отсортирован по началу.
func IntersectSlots(lists ...[]TimeRange) []TimeRange {
	if len(lists) == 0 {
		return []TimeRange{}
	}

	counts := make(map[slotKey]int, len(lists[0]))
	first := make(map[slotKey]TimeRange, len(lists[0]))

	for i, list := range lists {
		seen := make(map[slotKey]struct{}, len(list))
		for _, s := range list {
			k := keyOf(s)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if i == 0 {
				first[k] = s
			}
			counts[k]++
		}
	}

	out := make([]TimeRange, 0, len(first))
	for k, s := range first {
		if counts[k] == len(lists) {
			out = append(out, s)
		}
	}
	sortByStart(out)
	return out
}

// BuildBlocks собирает из отсортированных слотов окна по k = ceil(duration/granularity)
// соседних слотов без разрывов (конец слота равен началу следующего).
// Каждой допустимой стартовой позиции соответствует один блок.
func BuildBlocks(slots []TimeRange, granularity, duration time.Duration) ([]Block, error) {
	if granularity <= 0 || duration <= 0 {
		return nil, ErrSlotDuration
	}

	sorted := make([]TimeRange, len(slots))
	copy(sorted, slots)
	sortByStart(sorted)

	k := int((duration + granularity - 1) / granularity)

	blocks := make([]Block, 0, len(sorted))
	if k <= 1 {
		for _, s := range sorted {
			blocks = append(blocks, Block{Start: s.Start, End: s.End, Slots: []TimeRange{s}})
		}
		return blocks, nil
	}

	for i := 0; i+k <= len(sorted); i++ {
		run := sorted[i : i+k]
		if !contiguous(run) {
			continue
		}
		parts := make([]TimeRange, k)
		copy(parts, run)
		blocks = append(blocks, Block{Start: run[0].Start, End: run[k-1].End, Slots: parts})
	}
	return blocks, nil
}

func contiguous(run []TimeRange) bool {
	for j := 0; j+1 < len(run); j++ {
		if !run[j].End.Equal(run[j+1].Start) {
			return false
		}
	}
	return true
}

func sortByStart(s []TimeRange) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Start.Equal(s[j].Start) {
			return s[i].End.Before(s[j].End)
		}
		return s[i].Start.Before(s[j].Start)
	})
}
