package product

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/pkg/enums"
)

func intPtr(v int) *int { return &v }

func TestNextSlabMin(t *testing.T) {
	t.Run("first slab starts at 1", func(t *testing.T) {
		if got := NextSlabMin(nil); got != 1 {
			t.Fatalf("got %d, want 1", got)
		}
	})

	t.Run("follows the previous maximum", func(t *testing.T) {
		slabs := []SlabInput{{MinQuantity: 1, MaxQuantity: intPtr(10)}}
		if got := NextSlabMin(slabs); got != 11 {
			t.Fatalf("got %d, want 11", got)
		}
	})

	t.Run("unbounded previous slab falls back to its minimum", func(t *testing.T) {
		slabs := []SlabInput{{MinQuantity: 5}}
		if got := NextSlabMin(slabs); got != 6 {
			t.Fatalf("got %d, want 6", got)
		}
	})
}

func TestAppendSlab(t *testing.T) {
	slabs := []SlabInput{{MinQuantity: 1, MaxQuantity: intPtr(10), DisplayOrder: 0}}
	slabs = AppendSlab(slabs)

	if len(slabs) != 2 {
		t.Fatalf("expected 2 slabs, got %d", len(slabs))
	}
	if slabs[1].MinQuantity != 11 {
		t.Fatalf("appended slab min is %d, want 11", slabs[1].MinQuantity)
	}
	for i, slab := range slabs {
		if slab.DisplayOrder != i {
			t.Fatalf("display order at %d is %d", i, slab.DisplayOrder)
		}
	}
}

func TestApplySlabDefaults(t *testing.T) {
	slabs := []SlabInput{
		{MinQuantity: 1, MaxQuantity: intPtr(10)},
		{},
	}
	ApplySlabDefaults(slabs)
	if slabs[1].MinQuantity != 11 {
		t.Fatalf("defaulted min is %d, want 11", slabs[1].MinQuantity)
	}
	if slabs[0].MinQuantity != 1 {
		t.Fatalf("existing min changed to %d", slabs[0].MinQuantity)
	}
}

func TestValidateSlab(t *testing.T) {
	valid := SlabInput{
		MinQuantity:   1,
		MaxQuantity:   intPtr(10),
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(5),
	}

	t.Run("valid slab has no errors", func(t *testing.T) {
		if errs := ValidateSlab(0, valid); len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
	})

	t.Run("unbounded maximum is accepted", func(t *testing.T) {
		slab := valid
		slab.MaxQuantity = nil
		if errs := ValidateSlab(0, slab); len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
	})

	t.Run("maximum below minimum is rejected", func(t *testing.T) {
		slab := valid
		slab.MinQuantity = 10
		slab.MaxQuantity = intPtr(5)
		errs := ValidateSlab(2, slab)
		if _, ok := errs["pricingSlab_2_maxQuantity"]; !ok {
			t.Fatalf("expected pricingSlab_2_maxQuantity error, got %v", errs)
		}
	})

	t.Run("missing discount type is keyed per slab", func(t *testing.T) {
		slab := valid
		slab.DiscountType = ""
		errs := ValidateSlab(0, slab)
		if _, ok := errs["pricingSlab_0_discountType"]; !ok {
			t.Fatalf("expected pricingSlab_0_discountType error, got %v", errs)
		}
	})

	t.Run("negative discount value is rejected", func(t *testing.T) {
		slab := valid
		slab.DiscountValue = decimal.NewFromInt(-1)
		errs := ValidateSlab(0, slab)
		if _, ok := errs["pricingSlab_0_discountValue"]; !ok {
			t.Fatalf("expected pricingSlab_0_discountValue error, got %v", errs)
		}
	})

	t.Run("minimum below 1 is rejected", func(t *testing.T) {
		slab := valid
		slab.MinQuantity = 0
		errs := ValidateSlab(0, slab)
		if _, ok := errs["pricingSlab_0_minQuantity"]; !ok {
			t.Fatalf("expected pricingSlab_0_minQuantity error, got %v", errs)
		}
	})
}

func TestEffectiveUnitPrice(t *testing.T) {
	base := decimal.NewFromInt(100)

	fixed := EffectiveUnitPrice(base, enums.DiscountTypeFixedAmount, decimal.NewFromInt(20))
	if !fixed.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("fixed discount price is %s, want 80", fixed)
	}

	pct := EffectiveUnitPrice(base, enums.DiscountTypePercentage, decimal.NewFromInt(10))
	if !pct.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("percentage discount price is %s, want 90", pct)
	}
}

func TestSlabForQuantity(t *testing.T) {
	slabs := []SlabInput{
		{MinQuantity: 1, MaxQuantity: intPtr(10), DiscountValue: decimal.NewFromInt(0)},
		{MinQuantity: 11, MaxQuantity: intPtr(50), DiscountValue: decimal.NewFromInt(5)},
		{MinQuantity: 51, DiscountValue: decimal.NewFromInt(10)},
	}

	if slab := SlabForQuantity(slabs, 25); slab == nil || !slab.DiscountValue.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("quantity 25 resolved to %+v", slab)
	}
	if slab := SlabForQuantity(slabs, 500); slab == nil || !slab.DiscountValue.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("quantity 500 should hit the unbounded slab, got %+v", slab)
	}
	if slab := SlabForQuantity(slabs[1:], 3); slab != nil {
		t.Fatalf("quantity below every band should resolve to nil, got %+v", slab)
	}
}
