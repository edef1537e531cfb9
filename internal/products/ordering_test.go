package product

import (
	"testing"

	"github.com/google/uuid"
)

type orderedThing struct {
	ID           uuid.UUID
	DisplayOrder int
}

func thingIDs(items []orderedThing) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func assertDenseOrder(t *testing.T, items []orderedThing) {
	t.Helper()
	for i, it := range items {
		if it.DisplayOrder != i {
			t.Fatalf("display order at index %d is %d, want %d", i, it.DisplayOrder, i)
		}
	}
}

func TestRenumber(t *testing.T) {
	items := []orderedThing{
		{ID: uuid.New(), DisplayOrder: 7},
		{ID: uuid.New(), DisplayOrder: 3},
		{ID: uuid.New(), DisplayOrder: 3},
	}
	Renumber(items, func(it *orderedThing, i int) { it.DisplayOrder = i })
	assertDenseOrder(t, items)
}

func TestMoveItem(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	build := func() []orderedThing {
		return []orderedThing{
			{ID: a, DisplayOrder: 0},
			{ID: b, DisplayOrder: 1},
			{ID: c, DisplayOrder: 2},
			{ID: d, DisplayOrder: 3},
		}
	}
	idOf := func(it orderedThing) uuid.UUID { return it.ID }
	setOrder := func(it *orderedThing, i int) { it.DisplayOrder = i }

	t.Run("moves down and renumbers densely", func(t *testing.T) {
		items := build()
		if !MoveItem(items, a, c, idOf, setOrder) {
			t.Fatal("expected a change")
		}
		want := []uuid.UUID{b, c, a, d}
		for i, id := range thingIDs(items) {
			if id != want[i] {
				t.Fatalf("position %d holds wrong item", i)
			}
		}
		assertDenseOrder(t, items)
	})

	t.Run("moves up and renumbers densely", func(t *testing.T) {
		items := build()
		if !MoveItem(items, d, b, idOf, setOrder) {
			t.Fatal("expected a change")
		}
		want := []uuid.UUID{a, d, b, c}
		for i, id := range thingIDs(items) {
			if id != want[i] {
				t.Fatalf("position %d holds wrong item", i)
			}
		}
		assertDenseOrder(t, items)
	})

	t.Run("self drop is a no-op", func(t *testing.T) {
		items := build()
		if MoveItem(items, b, b, idOf, setOrder) {
			t.Fatal("expected no change")
		}
	})

	t.Run("unresolved id is a no-op", func(t *testing.T) {
		items := build()
		if MoveItem(items, uuid.New(), c, idOf, setOrder) {
			t.Fatal("expected no change for unknown from id")
		}
		if MoveItem(items, a, uuid.New(), idOf, setOrder) {
			t.Fatal("expected no change for unknown to id")
		}
	})
}
