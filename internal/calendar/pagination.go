package calendar

// Page — окно offset/limit поверх уже посчитанного списка.
type Page[T any] struct {
	Items   []T
	Offset  int
	Limit   int
	Total   int
	HasMore bool
}

// ClampLimit приводит limit к [1, max]; ноль и отрицательные значения дают def.
func ClampLimit(limit, def, max int) int {
	switch {
	case limit <= 0:
		return def
	case limit > max:
		return max
	default:
		return limit
	}
}

// Window вырезает из items окно [offset, offset+limit).
// Отрицательный offset считается нулём, limit <= 0 отдаёт всё с offset.
func Window[T any](items []T, offset, limit int) Page[T] {
	total := len(items)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}

	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	return Page[T]{
		Items:   items[offset:end],
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		HasMore: end < total,
	}
}
