package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/internal/pricing"
	product "github.com/floraweave/floraweave-backend/internal/products"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/types"
)

var oneHundred = decimal.NewFromInt(100)

// Service manages the single active cart per customer. All prices are
// computed here from the catalog; the stored snapshot is what checkout and
// the breakdown layer read back.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity decimal.Decimal) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

// AddItemInput configures one product line.
type AddItemInput struct {
	ProductID       uuid.UUID
	Quantity        decimal.Decimal
	FabricProductID *uuid.UUID
	Selections      []SelectionInput
}

// SelectionInput references a chosen option by ids; names and modifiers are
// snapshotted from the catalog at add time.
type SelectionInput struct {
	VariantID uuid.UUID
	OptionID  uuid.UUID
}

type cartStore interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	Save(ctx context.Context, cart *models.CartRecord) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type service struct {
	store    cartStore
	products productLoader
	logg     *logger.Logger
}

// NewService constructs a cart service instance.
func NewService(store cartStore, products productLoader, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, products: products, logg: logg}, nil
}

// GetCart returns the cart, or an empty one when nothing was added yet.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return &CartDTO{Items: []ItemDTO{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return s.toDTO(ctx, cart)
}

// AddItem prices the configured line against the catalog and appends it.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	prod, fabric, err := s.loadLineProducts(ctx, input.ProductID, input.FabricProductID)
	if err != nil {
		return nil, err
	}

	line, err := priceLine(prod, fabric, input.Quantity, input.Selections)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		if !IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
		}
		cart = &models.CartRecord{UserID: userID}
	}
	cart.Items = append(cart.Items, *line)

	if err := s.saveWithTotals(ctx, cart); err != nil {
		return nil, err
	}
	return s.toDTO(ctx, cart)
}

// UpdateItemQuantity reprices one line at the new quantity.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity decimal.Decimal) (*CartDTO, error) {
	if !quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return nil, notFoundOrInternal(err, "cart not found", "loading cart")
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	item := cart.Items[idx]
	prod, fabric, err := s.loadLineProducts(ctx, item.ProductID, item.FabricProductID)
	if err != nil {
		return nil, err
	}

	selections := make([]SelectionInput, len(item.VariantSelections))
	for i, sel := range item.VariantSelections {
		selections[i] = SelectionInput{VariantID: sel.VariantID, OptionID: sel.OptionID}
	}
	line, err := priceLine(prod, fabric, quantity, selections)
	if err != nil {
		return nil, err
	}
	line.ID = item.ID
	line.CartID = item.CartID
	line.CreatedAt = item.CreatedAt
	cart.Items[idx] = *line

	if err := s.saveWithTotals(ctx, cart); err != nil {
		return nil, err
	}
	return s.toDTO(ctx, cart)
}

// RemoveItem drops one line and recomputes totals.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return nil, notFoundOrInternal(err, "cart not found", "loading cart")
	}

	kept := cart.Items[:0]
	found := false
	for _, item := range cart.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	cart.Items = kept

	if err := s.saveWithTotals(ctx, cart); err != nil {
		return nil, err
	}
	return s.toDTO(ctx, cart)
}

// ClearCart removes everything.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

func (s *service) saveWithTotals(ctx context.Context, cart *models.CartRecord) error {
	recomputeTotals(cart)
	rates, err := s.lineRates(ctx, cart)
	if err != nil {
		return err
	}
	applyGST(cart, rates)
	if err := s.store.Save(ctx, cart); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart")
	}
	return nil
}

func (s *service) lineRates(ctx context.Context, cart *models.CartRecord) (map[uuid.UUID]*decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	rates := make(map[uuid.UUID]*decimal.Decimal, len(rows))
	for i := range rows {
		rates[rows[i].ID] = rows[i].GSTRate
	}
	return rates, nil
}

func (s *service) loadLineProducts(ctx context.Context, productID uuid.UUID, fabricID *uuid.UUID) (*models.Product, *models.Product, error) {
	ids := []uuid.UUID{productID}
	if fabricID != nil {
		ids = append(ids, *fabricID)
	}
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}

	var prod, fabric *models.Product
	for i := range rows {
		switch rows[i].ID {
		case productID:
			prod = &rows[i]
		}
		if fabricID != nil && rows[i].ID == *fabricID {
			fabric = &rows[i]
		}
	}
	if prod == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if prod.Status != enums.ProductStatusActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	if prod.Kind == enums.ProductKindDesigned {
		if fabric == nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "a fabric product is required for designed items")
		}
		if fabric.Kind != enums.ProductKindPlain {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "the selected fabric must be a plain product")
		}
		if fabric.Status != enums.ProductStatusActive {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "the selected fabric is not available")
		}
	} else {
		fabric = nil
	}
	return prod, fabric, nil
}

// priceLine computes the stored snapshot for one configured line. For
// DESIGNED lines DesignPrice holds the slab-effective per-meter print base
// and FabricPrice the fabric base across the whole quantity, matching what
// the breakdown layer re-expands.
func priceLine(prod, fabric *models.Product, quantity decimal.Decimal, selections []SelectionInput) (*models.CartItem, error) {
	item := &models.CartItem{
		ProductID:   prod.ID,
		ProductName: prod.Name,
		Kind:        prod.Kind,
		Quantity:    quantity,
	}

	resolved, err := resolveSelections(prod, fabric, selections)
	if err != nil {
		return nil, err
	}
	item.VariantSelections = resolved

	modifierSum := decimal.Zero
	for _, sel := range resolved {
		modifierSum = modifierSum.Add(sel.PriceModifier)
	}

	switch prod.Kind {
	case enums.ProductKindPlain:
		if prod.PricePerMeter == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "plain product has no price per meter")
		}
		item.UnitPrice = prod.PricePerMeter.Add(modifierSum)

	case enums.ProductKindDesigned:
		if prod.DesignPrice == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "designed product has no design price")
		}
		if fabric == nil || fabric.PricePerMeter == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fabric price unavailable")
		}
		designBase := effectiveDesignPrice(prod, quantity)
		fabricBase := *fabric.PricePerMeter
		item.UnitPrice = designBase.Add(fabricBase).Add(modifierSum)
		item.DesignPrice = &designBase
		fabricTotal := fabricBase.Mul(quantity)
		item.FabricPrice = &fabricTotal
		fabricID := fabric.ID
		item.FabricProductID = &fabricID

	case enums.ProductKindDigital:
		if !quantity.Equal(quantity.Truncate(0)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "digital items use whole quantities")
		}
		if prod.BasePrice == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "digital product has no price")
		}
		item.UnitPrice = prod.BasePrice.Add(modifierSum)

	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}

	item.TotalPrice = item.UnitPrice.Mul(quantity)
	return item, nil
}

// effectiveDesignPrice applies the slab matching the whole-meter quantity.
func effectiveDesignPrice(prod *models.Product, quantity decimal.Decimal) decimal.Decimal {
	base := *prod.DesignPrice
	meters := int(quantity.IntPart())
	if meters < 1 {
		meters = 1
	}
	slabs := make([]product.SlabInput, len(prod.PricingSlabs))
	for i, slab := range prod.PricingSlabs {
		slabs[i] = product.SlabInput{
			MinQuantity:   slab.MinQuantity,
			MaxQuantity:   slab.MaxQuantity,
			DiscountType:  slab.DiscountType,
			DiscountValue: slab.DiscountValue,
			DisplayOrder:  slab.DisplayOrder,
		}
	}
	if slab := product.SlabForQuantity(slabs, meters); slab != nil {
		return product.EffectiveUnitPrice(base, slab.DiscountType, slab.DiscountValue)
	}
	return base
}

func resolveSelections(prod, fabric *models.Product, selections []SelectionInput) (types.VariantSelections, error) {
	if len(selections) == 0 {
		return types.VariantSelections{}, nil
	}

	variants := append([]models.ProductVariant{}, prod.Variants...)
	if fabric != nil {
		variants = append(variants, fabric.Variants...)
	}

	resolved := make(types.VariantSelections, 0, len(selections))
	for _, sel := range selections {
		var match *types.VariantSelection
		for vi := range variants {
			if variants[vi].ID != sel.VariantID {
				continue
			}
			for oi := range variants[vi].Options {
				if variants[vi].Options[oi].ID != sel.OptionID {
					continue
				}
				match = &types.VariantSelection{
					VariantID:     variants[vi].ID,
					OptionID:      variants[vi].Options[oi].ID,
					VariantName:   variants[vi].Name,
					OptionValue:   variants[vi].Options[oi].Value,
					PriceModifier: variants[vi].Options[oi].PriceModifier,
				}
				break
			}
			break
		}
		if match == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant selection does not match the product")
		}
		resolved = append(resolved, *match)
	}
	return resolved, nil
}

func recomputeTotals(cart *models.CartRecord) {
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	cart.Subtotal = subtotal
	cart.GSTAmount = decimal.Zero
	cart.Total = subtotal
}

// applyGST folds per-line GST into the cart totals using the catalog rates.
func applyGST(cart *models.CartRecord, rates map[uuid.UUID]*decimal.Decimal) {
	gst := decimal.Zero
	for _, item := range cart.Items {
		if rate, ok := rates[item.ProductID]; ok && rate != nil {
			gst = gst.Add(item.TotalPrice.Mul(*rate).Div(oneHundred))
		}
	}
	cart.GSTAmount = gst.Round(2)
	cart.Total = cart.Subtotal.Add(cart.GSTAmount)
}

func (s *service) toDTO(ctx context.Context, cart *models.CartRecord) (*CartDTO, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items)*2)
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
		if item.FabricProductID != nil {
			ids = append(ids, *item.FabricProductID)
		}
	}
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	rates := make(map[uuid.UUID]*decimal.Decimal, len(rows))
	for id, prod := range byID {
		rates[id] = prod.GSTRate
	}
	recomputeTotals(cart)
	applyGST(cart, rates)

	dto := &CartDTO{
		ID:        cart.ID,
		Subtotal:  cart.Subtotal,
		GSTAmount: cart.GSTAmount,
		Total:     cart.Total,
		UpdatedAt: cart.UpdatedAt,
		Items:     make([]ItemDTO, len(cart.Items)),
	}
	for i, item := range cart.Items {
		breakdown := buildBreakdown(item, byID)
		dto.Items[i] = newItemDTO(item, breakdown)
	}
	return dto, nil
}

func buildBreakdown(item models.CartItem, byID map[uuid.UUID]*models.Product) *pricing.Breakdown {
	unit := item.UnitPrice
	total := item.TotalPrice
	line := pricing.LineInput{
		Kind:        item.Kind,
		Quantity:    item.Quantity,
		UnitPrice:   &unit,
		TotalPrice:  &total,
		DesignPrice: item.DesignPrice,
		FabricPrice: item.FabricPrice,
		Selections:  item.VariantSelections,
	}
	if prod, ok := byID[item.ProductID]; ok {
		switch item.Kind {
		case enums.ProductKindPlain:
			line.BasePrice = prod.PricePerMeter
		case enums.ProductKindDigital:
			line.BasePrice = prod.BasePrice
		case enums.ProductKindDesigned:
			line.PrintVariantIDs = variantIDs(prod)
		}
	}
	if item.FabricProductID != nil {
		if fabric, ok := byID[*item.FabricProductID]; ok {
			line.FabricVariantIDs = variantIDs(fabric)
		}
	}
	breakdown, err := pricing.Reconstruct(line)
	if err != nil {
		return nil
	}
	return breakdown
}

func variantIDs(prod *models.Product) []uuid.UUID {
	ids := make([]uuid.UUID, len(prod.Variants))
	for i, variant := range prod.Variants {
		ids[i] = variant.ID
	}
	return ids
}

func notFoundOrInternal(err error, notFoundMsg, internalMsg string) error {
	if IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, internalMsg)
}
