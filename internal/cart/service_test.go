package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

type fakeCartStore struct {
	carts map[uuid.UUID]*models.CartRecord
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[uuid.UUID]*models.CartRecord{}}
}

func (f *fakeCartStore) FindByUser(_ context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *cart
	clone.Items = append([]models.CartItem{}, cart.Items...)
	return &clone, nil
}

func (f *fakeCartStore) Save(_ context.Context, cart *models.CartRecord) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	for i := range cart.Items {
		if cart.Items[i].ID == uuid.Nil {
			cart.Items[i].ID = uuid.New()
		}
		cart.Items[i].CartID = cart.ID
	}
	clone := *cart
	clone.Items = append([]models.CartItem{}, cart.Items...)
	f.carts[cart.UserID] = &clone
	return nil
}

func (f *fakeCartStore) Clear(_ context.Context, userID uuid.UUID) error {
	delete(f.carts, userID)
	return nil
}

type fakeProductLoader struct {
	products map[uuid.UUID]models.Product
}

func (f *fakeProductLoader) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	seen := map[uuid.UUID]bool{}
	var rows []models.Product
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if prod, ok := f.products[id]; ok {
			rows = append(rows, prod)
		}
	}
	return rows, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T, products ...models.Product) (Service, *fakeCartStore) {
	t.Helper()
	store := newFakeCartStore()
	loader := &fakeProductLoader{products: map[uuid.UUID]models.Product{}}
	for _, prod := range products {
		loader.products[prod.ID] = prod
	}
	svc, err := NewService(store, loader, logger.New(logger.Options{ServiceName: "cart-test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func plainFabric(id uuid.UUID) models.Product {
	return models.Product{
		ID:            id,
		Name:          "Cotton Voile",
		Kind:          enums.ProductKindPlain,
		Status:        enums.ProductStatusActive,
		PricePerMeter: decPtr("100"),
		GSTRate:       decPtr("5"),
	}
}

func assertDecEqual(t *testing.T, label string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}

func TestAddItemPlain(t *testing.T) {
	fabricID := uuid.New()
	variantID := uuid.New()
	optionID := uuid.New()
	fabric := plainFabric(fabricID)
	fabric.Variants = []models.ProductVariant{{
		ID:   variantID,
		Name: "Width",
		Options: []models.VariantOption{
			{ID: optionID, Value: "60 inch", PriceModifier: dec("15")},
		},
	}}

	svc, _ := newTestService(t, fabric)
	userID := uuid.New()

	dto, err := svc.AddItem(context.Background(), userID, AddItemInput{
		ProductID:  fabricID,
		Quantity:   dec("4"),
		Selections: []SelectionInput{{VariantID: variantID, OptionID: optionID}},
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(dto.Items))
	}

	item := dto.Items[0]
	assertDecEqual(t, "unit price", item.UnitPrice, dec("115"))
	assertDecEqual(t, "total price", item.TotalPrice, dec("460"))
	assertDecEqual(t, "subtotal", dto.Subtotal, dec("460"))
	assertDecEqual(t, "gst", dto.GSTAmount, dec("23"))
	assertDecEqual(t, "total", dto.Total, dec("483"))
	if len(item.VariantSelections) != 1 || item.VariantSelections[0].OptionValue != "60 inch" {
		t.Fatalf("selection not snapshotted: %+v", item.VariantSelections)
	}
	if item.Breakdown == nil {
		t.Fatal("expected a breakdown")
	}
}

func TestAddItemDesigned(t *testing.T) {
	fabricID := uuid.New()
	printID := uuid.New()
	fabric := plainFabric(fabricID)
	printProd := models.Product{
		ID:          printID,
		Name:        "Marigold Print",
		Kind:        enums.ProductKindDesigned,
		Status:      enums.ProductStatusActive,
		DesignPrice: decPtr("50"),
		GSTRate:     decPtr("12"),
	}

	t.Run("prices design plus fabric", func(t *testing.T) {
		svc, store := newTestService(t, fabric, printProd)
		userID := uuid.New()

		dto, err := svc.AddItem(context.Background(), userID, AddItemInput{
			ProductID:       printID,
			Quantity:        dec("3"),
			FabricProductID: &fabricID,
		})
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}

		item := dto.Items[0]
		assertDecEqual(t, "unit price", item.UnitPrice, dec("150"))
		assertDecEqual(t, "total price", item.TotalPrice, dec("450"))
		if item.DesignPrice == nil || !item.DesignPrice.Equal(dec("50")) {
			t.Fatalf("design price = %v, want 50", item.DesignPrice)
		}
		if item.FabricPrice == nil || !item.FabricPrice.Equal(dec("300")) {
			t.Fatalf("fabric price = %v, want 300 across quantity", item.FabricPrice)
		}

		saved := store.carts[userID]
		if saved.Items[0].FabricProductID == nil || *saved.Items[0].FabricProductID != fabricID {
			t.Fatal("fabric product id not stored")
		}

		breakdown := item.Breakdown
		if breakdown == nil || breakdown.Fabric == nil || breakdown.Print == nil {
			t.Fatalf("breakdown incomplete: %+v", breakdown)
		}
		assertDecEqual(t, "fabric base", breakdown.Fabric.BasePrice, dec("100"))
		assertDecEqual(t, "print base", breakdown.Print.BasePrice, dec("50"))
	})

	t.Run("applies the matching slab to the design base", func(t *testing.T) {
		slabbed := printProd
		slabbed.PricingSlabs = []models.PricingSlab{
			{MinQuantity: 1, MaxQuantity: intPtr(5), DiscountType: enums.DiscountTypePercentage, DiscountValue: dec("0")},
			{MinQuantity: 6, DiscountType: enums.DiscountTypePercentage, DiscountValue: dec("20"), DisplayOrder: 1},
		}
		svc, _ := newTestService(t, fabric, slabbed)

		dto, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
			ProductID:       printID,
			Quantity:        dec("8"),
			FabricProductID: &fabricID,
		})
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}

		item := dto.Items[0]
		if item.DesignPrice == nil || !item.DesignPrice.Equal(dec("40")) {
			t.Fatalf("design price = %v, want slab-discounted 40", item.DesignPrice)
		}
		assertDecEqual(t, "unit price", item.UnitPrice, dec("140"))
		assertDecEqual(t, "total price", item.TotalPrice, dec("1120"))
	})

	t.Run("requires a fabric", func(t *testing.T) {
		svc, _ := newTestService(t, fabric, printProd)
		_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
			ProductID: printID,
			Quantity:  dec("1"),
		})
		if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects a non plain fabric", func(t *testing.T) {
		otherPrintID := uuid.New()
		otherPrint := printProd
		otherPrint.ID = otherPrintID
		svc, _ := newTestService(t, printProd, otherPrint)
		_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
			ProductID:       printID,
			Quantity:        dec("1"),
			FabricProductID: &otherPrintID,
		})
		if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestAddItemDigital(t *testing.T) {
	digitalID := uuid.New()
	digital := models.Product{
		ID:        digitalID,
		Name:      "Paisley Pattern File",
		Kind:      enums.ProductKindDigital,
		Status:    enums.ProductStatusActive,
		BasePrice: decPtr("299"),
	}

	t.Run("accepts whole quantities", func(t *testing.T) {
		svc, _ := newTestService(t, digital)
		dto, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
			ProductID: digitalID,
			Quantity:  dec("2"),
		})
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		assertDecEqual(t, "total price", dto.Items[0].TotalPrice, dec("598"))
	})

	t.Run("rejects fractional quantities", func(t *testing.T) {
		svc, _ := newTestService(t, digital)
		_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
			ProductID: digitalID,
			Quantity:  dec("1.5"),
		})
		if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestAddItemRejectsUnknownSelection(t *testing.T) {
	fabricID := uuid.New()
	fabric := plainFabric(fabricID)
	svc, _ := newTestService(t, fabric)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
		ProductID:  fabricID,
		Quantity:   dec("1"),
		Selections: []SelectionInput{{VariantID: uuid.New(), OptionID: uuid.New()}},
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	fabricID := uuid.New()
	fabric := plainFabric(fabricID)
	fabric.Status = enums.ProductStatusInactive
	svc, _ := newTestService(t, fabric)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{
		ProductID: fabricID,
		Quantity:  dec("1"),
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateItemQuantityReprices(t *testing.T) {
	fabricID := uuid.New()
	fabric := plainFabric(fabricID)
	svc, store := newTestService(t, fabric)
	userID := uuid.New()

	dto, err := svc.AddItem(context.Background(), userID, AddItemInput{ProductID: fabricID, Quantity: dec("2")})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	itemID := dto.Items[0].ID

	dto, err = svc.UpdateItemQuantity(context.Background(), userID, itemID, dec("5"))
	if err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	assertDecEqual(t, "quantity", dto.Items[0].Quantity, dec("5"))
	assertDecEqual(t, "total price", dto.Items[0].TotalPrice, dec("500"))
	if dto.Items[0].ID != itemID {
		t.Fatal("line identity changed on reprice")
	}
	if got := store.carts[userID].Items[0].TotalPrice; !got.Equal(dec("500")) {
		t.Fatalf("stored total = %s, want 500", got)
	}
}

func TestRemoveItem(t *testing.T) {
	fabricID := uuid.New()
	fabric := plainFabric(fabricID)
	svc, _ := newTestService(t, fabric)
	userID := uuid.New()

	dto, err := svc.AddItem(context.Background(), userID, AddItemInput{ProductID: fabricID, Quantity: dec("2")})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	dto, err = svc.RemoveItem(context.Background(), userID, dto.Items[0].ID)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(dto.Items))
	}
	assertDecEqual(t, "total", dto.Total, decimal.Zero)

	_, err = svc.RemoveItem(context.Background(), userID, uuid.New())
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetCartEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	dto, err := svc.GetCart(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(dto.Items))
	}
}

func TestClearCart(t *testing.T) {
	fabricID := uuid.New()
	fabric := plainFabric(fabricID)
	svc, store := newTestService(t, fabric)
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, AddItemInput{ProductID: fabricID, Quantity: dec("1")}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := svc.ClearCart(context.Background(), userID); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}
	if _, ok := store.carts[userID]; ok {
		t.Fatal("cart not cleared")
	}
}
