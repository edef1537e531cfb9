package product

import "github.com/google/uuid"

// Renumber assigns dense display orders 0..n-1 in slice order.
func Renumber[T any](items []T, setOrder func(*T, int)) {
	for i := range items {
		setOrder(&items[i], i)
	}
}

// MoveItem relocates the item identified by fromID to the position currently
// held by toID, shifting the items between them, then renumbers densely.
// Self-drops and unresolved ids are no-ops; the return reports whether the
// slice changed.
func MoveItem[T any](items []T, fromID, toID uuid.UUID, idOf func(T) uuid.UUID, setOrder func(*T, int)) bool {
	if fromID == toID {
		return false
	}
	from, to := -1, -1
	for i := range items {
		switch idOf(items[i]) {
		case fromID:
			from = i
		case toID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return false
	}

	moved := items[from]
	if from < to {
		copy(items[from:to], items[from+1:to+1])
	} else {
		copy(items[to+1:from+1], items[to:from])
	}
	items[to] = moved

	Renumber(items, setOrder)
	return true
}
