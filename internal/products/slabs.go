package product

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/pkg/enums"
)

var oneHundred = decimal.NewFromInt(100)

// SlabInput carries one pricing slab of a draft submission.
type SlabInput struct {
	MinQuantity   int
	MaxQuantity   *int
	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
	DisplayOrder  int
}

// NextSlabMin returns the default minimum quantity for a slab appended after
// the existing ones: one above the last slab's maximum, one above its minimum
// when the last slab is unbounded, or 1 for the first slab.
func NextSlabMin(existing []SlabInput) int {
	if len(existing) == 0 {
		return 1
	}
	last := existing[len(existing)-1]
	if last.MaxQuantity != nil {
		return *last.MaxQuantity + 1
	}
	return last.MinQuantity + 1
}

// AppendSlab adds a fresh slab with the default quantity floor and renumbers.
func AppendSlab(existing []SlabInput) []SlabInput {
	slabs := append(existing, SlabInput{MinQuantity: NextSlabMin(existing)})
	Renumber(slabs, func(s *SlabInput, i int) { s.DisplayOrder = i })
	return slabs
}

// ApplySlabDefaults fills the quantity floor for slabs submitted without one,
// so an appended slab starts one above the band before it.
func ApplySlabDefaults(slabs []SlabInput) {
	for i := range slabs {
		if slabs[i].MinQuantity == 0 {
			slabs[i].MinQuantity = NextSlabMin(slabs[:i])
		}
	}
}

// ValidateSlab checks one slab's own range and discount fields. Errors are
// keyed pricingSlab_<idx>_<field>. Contiguity across slabs is not checked.
func ValidateSlab(idx int, slab SlabInput) map[string]string {
	errs := map[string]string{}
	if !slab.DiscountType.IsValid() {
		errs[slabFieldKey(idx, "discountType")] = "discount type is required"
	}
	if slab.DiscountValue.IsNegative() {
		errs[slabFieldKey(idx, "discountValue")] = "discount value cannot be negative"
	}
	if slab.MinQuantity < 1 {
		errs[slabFieldKey(idx, "minQuantity")] = "minimum quantity must be at least 1"
	}
	if slab.MaxQuantity != nil && *slab.MaxQuantity < slab.MinQuantity {
		errs[slabFieldKey(idx, "maxQuantity")] = "maximum quantity must be greater than or equal to minimum"
	}
	return errs
}

// ValidateSlabs sweeps every slab. An empty slice is valid; slabs are optional.
func ValidateSlabs(slabs []SlabInput) map[string]string {
	errs := map[string]string{}
	for i, slab := range slabs {
		for key, msg := range ValidateSlab(i, slab) {
			errs[key] = msg
		}
	}
	return errs
}

// SlabForQuantity returns the first slab whose band contains quantity, or nil.
func SlabForQuantity(slabs []SlabInput, quantity int) *SlabInput {
	for i := range slabs {
		if quantity < slabs[i].MinQuantity {
			continue
		}
		if slabs[i].MaxQuantity != nil && quantity > *slabs[i].MaxQuantity {
			continue
		}
		return &slabs[i]
	}
	return nil
}

// EffectiveUnitPrice applies the slab discount to the base per-meter price.
func EffectiveUnitPrice(base decimal.Decimal, discountType enums.DiscountType, discountValue decimal.Decimal) decimal.Decimal {
	switch discountType {
	case enums.DiscountTypeFixedAmount:
		return base.Sub(discountValue)
	case enums.DiscountTypePercentage:
		return base.Mul(oneHundred.Sub(discountValue)).Div(oneHundred)
	default:
		return base
	}
}

func slabFieldKey(idx int, field string) string {
	return fmt.Sprintf("pricingSlab_%d_%s", idx, field)
}
