package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
)

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

func strPtr(s string) *string { return &s }

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	number, err := newOrderNumber(now)
	if err != nil {
		t.Fatalf("newOrderNumber: %v", err)
	}
	if matched := regexp.MustCompile(`^FW-20260314-[0-9A-F]{8}$`).MatchString(number); !matched {
		t.Fatalf("number %q does not match the expected shape", number)
	}

	other, err := newOrderNumber(now)
	if err != nil {
		t.Fatalf("newOrderNumber: %v", err)
	}
	if number == other {
		t.Fatal("expected distinct random suffixes")
	}
}

func TestBuildLines(t *testing.T) {
	fabricID := uuid.New()
	digitalID := uuid.New()
	items := []models.CartItem{
		{
			ProductID:   uuid.New(),
			ProductName: "Marigold Print",
			Kind:        enums.ProductKindDesigned,
			Quantity:    dec("3"),
			UnitPrice:   dec("150"),
			TotalPrice:  dec("450"),
			DesignPrice: decPtr("50"),
			FabricPrice: decPtr("300"),
			FabricProductID: &fabricID,
		},
		{
			ProductID:   digitalID,
			ProductName: "Paisley Pattern File",
			Kind:        enums.ProductKindDigital,
			Quantity:    dec("1"),
			UnitPrice:   dec("299"),
			TotalPrice:  dec("299"),
		},
	}
	keys := map[uuid.UUID]*string{digitalID: strPtr("digital/paisley.zip")}

	lines := buildLines(items, keys)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0].FabricProductID == nil || *lines[0].FabricProductID != fabricID {
		t.Fatal("fabric product id not carried over")
	}
	if lines[0].DigitalFileKey != nil {
		t.Fatal("physical line should not carry a file key")
	}
	if !lines[0].TotalPrice.Equal(dec("450")) {
		t.Fatalf("stored total = %s, want 450", lines[0].TotalPrice)
	}
	if lines[1].DigitalFileKey == nil || *lines[1].DigitalFileKey != "digital/paisley.zip" {
		t.Fatalf("digital file key = %v, want snapshot", lines[1].DigitalFileKey)
	}
}

func TestRequiresShipping(t *testing.T) {
	digital := models.CartItem{Kind: enums.ProductKindDigital}
	plain := models.CartItem{Kind: enums.ProductKindPlain}

	if requiresShipping([]models.CartItem{digital}) {
		t.Fatal("digital-only cart should not require shipping")
	}
	if !requiresShipping([]models.CartItem{digital, plain}) {
		t.Fatal("mixed cart should require shipping")
	}
}

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		name    string
		current enums.OrderStatus
		next    enums.OrderStatus
		wantErr bool
	}{
		{"pending to confirmed", enums.OrderStatusPending, enums.OrderStatusConfirmed, false},
		{"pending to cancelled", enums.OrderStatusPending, enums.OrderStatusCancelled, false},
		{"confirmed to shipped", enums.OrderStatusConfirmed, enums.OrderStatusShipped, false},
		{"shipped to delivered", enums.OrderStatusShipped, enums.OrderStatusDelivered, false},
		{"pending to delivered", enums.OrderStatusPending, enums.OrderStatusDelivered, true},
		{"delivered to cancelled", enums.OrderStatusDelivered, enums.OrderStatusCancelled, true},
		{"shipped to cancelled", enums.OrderStatusShipped, enums.OrderStatusCancelled, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateTransition(tc.current, tc.next)
			if tc.wantErr {
				if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeConflict {
					t.Fatalf("expected conflict error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewOrderDTOBreakdown(t *testing.T) {
	order := &models.Order{
		ID:            uuid.New(),
		Number:        "FW-20260314-AB12CD34",
		UserID:        uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Subtotal:      dec("450"),
		GSTAmount:     dec("54"),
		Total:         dec("504"),
		Lines: []models.OrderLine{{
			ID:          uuid.New(),
			ProductName: "Marigold Print",
			Kind:        enums.ProductKindDesigned,
			Quantity:    dec("3"),
			UnitPrice:   dec("150"),
			TotalPrice:  dec("450"),
			DesignPrice: decPtr("50"),
			FabricPrice: decPtr("300"),
			DigitalFileKey: strPtr("should-not-leak"),
		}},
	}

	dto := NewOrderDTO(order)
	line := dto.Lines[0]
	if !line.HasDigitalFile {
		t.Fatal("has_digital_file not set")
	}
	if line.Breakdown == nil || line.Breakdown.Fabric == nil || line.Breakdown.Print == nil {
		t.Fatalf("breakdown incomplete: %+v", line.Breakdown)
	}
	if !line.Breakdown.Stored {
		t.Fatal("stored totals should be marked authoritative")
	}
	if !line.Breakdown.Fabric.BasePrice.Equal(dec("100")) {
		t.Fatalf("fabric base = %s, want 100", line.Breakdown.Fabric.BasePrice)
	}
	if !line.Breakdown.Print.BasePrice.Equal(dec("50")) {
		t.Fatalf("print base = %s, want 50", line.Breakdown.Print.BasePrice)
	}
	if !line.Breakdown.TotalPrice.Equal(dec("450")) {
		t.Fatalf("breakdown total = %s, want stored 450", line.Breakdown.TotalPrice)
	}
}
