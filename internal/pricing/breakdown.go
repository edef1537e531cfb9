package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/types"
)

// LineInput is everything the reconstructor needs about one cart/order line.
// Stored UnitPrice/TotalPrice come from the persisted row and are trusted as
// is; the price fields below them feed the derived path when they are absent.
type LineInput struct {
	Kind     enums.ProductKind
	Quantity decimal.Decimal

	UnitPrice  *decimal.Decimal
	TotalPrice *decimal.Decimal

	// DesignPrice is the per-meter print price; FabricPrice is the fabric
	// total across the whole quantity, as stored on DESIGNED lines.
	DesignPrice *decimal.Decimal
	FabricPrice *decimal.Decimal

	// BasePrice is the per-meter price for PLAIN and the flat unit price for
	// DIGITAL.
	BasePrice *decimal.Decimal

	Selections       []types.VariantSelection
	FabricVariantIDs []uuid.UUID
	PrintVariantIDs  []uuid.UUID
}

// Component is one itemized amount inside a side of the breakdown.
type Component struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Side is the fabric or print half of a DESIGNED breakdown: base price plus
// variant modifiers, all per meter.
type Side struct {
	BasePrice decimal.Decimal `json:"base_price"`
	Modifiers []Component     `json:"modifiers,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Breakdown is the decomposed display view of a priced line.
type Breakdown struct {
	Kind       string          `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Fabric     *Side           `json:"fabric,omitempty"`
	Print      *Side           `json:"print,omitempty"`
	Stored     bool            `json:"stored"`
}

// Reconstruct re-expands a line into its display components. Stored totals
// are never overridden; the arithmetic runs only when they are missing.
func Reconstruct(line LineInput) (*Breakdown, error) {
	if !line.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	breakdown := &Breakdown{
		Kind:     line.Kind.String(),
		Quantity: line.Quantity,
	}

	switch line.Kind {
	case enums.ProductKindDesigned:
		fabric, print := splitSelections(line)
		breakdown.Fabric = &fabric
		breakdown.Print = &print
		breakdown.UnitPrice = fabric.Subtotal.Add(print.Subtotal)
	case enums.ProductKindPlain:
		side := Side{}
		if line.BasePrice != nil {
			side.BasePrice = *line.BasePrice
		}
		side.Subtotal = side.BasePrice
		for _, sel := range line.Selections {
			side.Modifiers = append(side.Modifiers, selectionComponent(sel))
			side.Subtotal = side.Subtotal.Add(sel.PriceModifier)
		}
		breakdown.Fabric = &side
		breakdown.UnitPrice = side.Subtotal
	case enums.ProductKindDigital:
		if line.BasePrice != nil {
			breakdown.UnitPrice = *line.BasePrice
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}

	breakdown.TotalPrice = breakdown.UnitPrice.Mul(line.Quantity)

	if line.UnitPrice != nil {
		breakdown.UnitPrice = *line.UnitPrice
		breakdown.Stored = true
	}
	if line.TotalPrice != nil {
		breakdown.TotalPrice = *line.TotalPrice
		breakdown.Stored = true
	} else if line.UnitPrice != nil {
		breakdown.TotalPrice = line.UnitPrice.Mul(line.Quantity)
	}

	return breakdown, nil
}

// splitSelections attributes each variant selection to the fabric or print
// side by membership in the respective product's variant id set; unmatched
// selections fall back to print.
func splitSelections(line LineInput) (fabric Side, print Side) {
	if line.FabricPrice != nil {
		fabric.BasePrice = line.FabricPrice.Div(line.Quantity)
	}
	if line.DesignPrice != nil {
		print.BasePrice = *line.DesignPrice
	}
	fabric.Subtotal = fabric.BasePrice
	print.Subtotal = print.BasePrice

	fabricIDs := idSet(line.FabricVariantIDs)
	printIDs := idSet(line.PrintVariantIDs)

	for _, sel := range line.Selections {
		component := selectionComponent(sel)
		switch {
		case fabricIDs[sel.VariantID]:
			fabric.Modifiers = append(fabric.Modifiers, component)
			fabric.Subtotal = fabric.Subtotal.Add(sel.PriceModifier)
		case printIDs[sel.VariantID]:
			print.Modifiers = append(print.Modifiers, component)
			print.Subtotal = print.Subtotal.Add(sel.PriceModifier)
		default:
			print.Modifiers = append(print.Modifiers, component)
			print.Subtotal = print.Subtotal.Add(sel.PriceModifier)
		}
	}
	return fabric, print
}

func selectionComponent(sel types.VariantSelection) Component {
	label := sel.VariantName
	if sel.OptionValue != "" {
		label = sel.VariantName + ": " + sel.OptionValue
	}
	return Component{Label: label, Amount: sel.PriceModifier}
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
