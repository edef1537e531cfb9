package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/outbox"
	"github.com/floraweave/floraweave-backend/pkg/pagination"
	"github.com/floraweave/floraweave-backend/pkg/types"
)

// Service turns carts into immutable orders and walks them through the
// fulfillment lifecycle.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	GetOrderForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, input ListInput) (*ListResultDTO, error)
	UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
	UpdatePaymentStatus(ctx context.Context, actorID, orderID uuid.UUID, next enums.PaymentStatus) (*OrderDTO, error)
	AuthorizeDownload(ctx context.Context, userID, productID uuid.UUID) (string, error)
}

// CheckoutInput carries the shipping address collected at checkout. Digital
// only carts may omit it.
type CheckoutInput struct {
	ShippingAddress *types.Address
}

// ListInput filters and paginates the order listing.
type ListInput struct {
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Limit         int
	Cursor        string
}

type cartReader interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type auditWriter interface {
	Record(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail *string) error
}

type outboxInserter interface {
	Insert(tx *gorm.DB, event models.OutboxEvent) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	carts    cartReader
	products productLoader
	audit    auditWriter
	outbox   outboxInserter
	logg     *logger.Logger
}

// NewService constructs an order service instance.
func NewService(repo *Repository, dbClient *db.Client, carts cartReader, products productLoader, audit auditWriter, outboxRepo outboxInserter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit writer required")
	}
	if outboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		carts:    carts,
		products: products,
		audit:    audit,
		outbox:   outboxRepo,
		logg:     logg,
	}, nil
}

// Checkout snapshots the cart into an order, clears the cart, and records the
// created event, all in one transaction. Line prices are copied as stored.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*OrderDTO, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	if requiresShipping(cart.Items) && input.ShippingAddress == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}

	fileKeys, err := s.digitalFileKeys(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	number, err := s.uniqueNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Number:          number,
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusUnpaid,
		Subtotal:        cart.Subtotal,
		GSTAmount:       cart.GSTAmount,
		Total:           cart.Total,
		ShippingAddress: input.ShippingAddress,
		Lines:           buildLines(cart.Items, fileKeys),
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}
		if err := repo.DeleteCartForUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
		}
		return s.appendOrderEvent(tx, enums.EventOrderCreated, order, userID)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "order_number", order.Number), "order created")
	dto := NewOrderDTO(order)
	return &dto, nil
}

// GetOrder loads any order; back-office use.
func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOrInternal(err, "order not found", "loading order")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

// GetOrderForUser loads an order only when it belongs to the customer.
func (s *service) GetOrderForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOrInternal(err, "order not found", "loading order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

// ListOrders returns one cursor page matching the filter.
func (s *service) ListOrders(ctx context.Context, input ListInput) (*ListResultDTO, error) {
	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}
	rows, err := s.repo.List(ctx, ListFilter{
		UserID:        input.UserID,
		Status:        input.Status,
		PaymentStatus: input.PaymentStatus,
	}, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &ListResultDTO{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	result.Orders = make([]OrderDTO, len(rows))
	for i := range rows {
		result.Orders[i] = NewOrderDTO(&rows[i])
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result, nil
}

// UpdateStatus moves the order along the fulfillment lifecycle, rejecting
// transitions the lifecycle does not allow.
func (s *service) UpdateStatus(ctx context.Context, actorID, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOrInternal(err, "order not found", "loading order")
	}
	if err := validateTransition(order.Status, next); err != nil {
		return nil, err
	}

	previous := order.Status
	order.Status = next

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order")
		}
		detail := fmt.Sprintf("%s -> %s", previous, next)
		if err := s.audit.Record(ctx, tx, actorID, "order.status_change", "order", order.ID, &detail); err != nil {
			return err
		}
		return s.appendOrderEvent(tx, enums.EventOrderStatusChanged, order, actorID)
	})
	if err != nil {
		return nil, err
	}

	dto := NewOrderDTO(order)
	return &dto, nil
}

// UpdatePaymentStatus records what the payment collaborator reported.
func (s *service) UpdatePaymentStatus(ctx context.Context, actorID, orderID uuid.UUID, next enums.PaymentStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOrInternal(err, "order not found", "loading order")
	}
	previous := order.PaymentStatus
	order.PaymentStatus = next

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order")
		}
		detail := fmt.Sprintf("%s -> %s", previous, next)
		return s.audit.Record(ctx, tx, actorID, "order.payment_change", "order", order.ID, &detail)
	})
	if err != nil {
		return nil, err
	}

	dto := NewOrderDTO(order)
	return &dto, nil
}

// AuthorizeDownload returns the stored file key when the customer has a paid
// order containing the digital product.
func (s *service) AuthorizeDownload(ctx context.Context, userID, productID uuid.UUID) (string, error) {
	line, err := s.repo.FindPaidLine(ctx, userID, productID)
	if err != nil {
		if IsNotFound(err) {
			return "", pkgerrors.New(pkgerrors.CodeForbidden, "no paid order contains this item")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking download authorization")
	}
	if line.DigitalFileKey == nil || *line.DigitalFileKey == "" {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "no downloadable file for this item")
	}
	return *line.DigitalFileKey, nil
}

func (s *service) appendOrderEvent(tx *gorm.DB, eventType enums.OutboxEventType, order *models.Order, actorID uuid.UUID) error {
	event, err := outbox.NewEvent(
		eventType,
		enums.AggregateOrder,
		order.ID,
		&actorID,
		map[string]any{
			"order_id": order.ID,
			"number":   order.Number,
			"status":   order.Status,
			"total":    order.Total,
		},
	)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building outbox event")
	}
	if err := s.outbox.Insert(tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting outbox event")
	}
	return nil
}

// digitalFileKeys resolves the current file key for every digital line so the
// order snapshot keeps serving downloads even if the product changes later.
func (s *service) digitalFileKeys(ctx context.Context, items []models.CartItem) (map[uuid.UUID]*string, error) {
	var ids []uuid.UUID
	for _, item := range items {
		if item.Kind == enums.ProductKindDigital {
			ids = append(ids, item.ProductID)
		}
	}
	keys := map[uuid.UUID]*string{}
	if len(ids) == 0 {
		return keys, nil
	}
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	for i := range rows {
		keys[rows[i].ID] = rows[i].DigitalFileKey
	}
	return keys, nil
}

func (s *service) uniqueNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		number, err := newOrderNumber(time.Now().UTC())
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating order number")
		}
		taken, err := s.repo.NumberExists(ctx, number)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking order number")
		}
		if !taken {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate order number")
}

// newOrderNumber builds a human-readable number: FW-<date>-<random suffix>.
func newOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("FW-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix))), nil
}

// buildLines copies cart items into immutable order lines.
func buildLines(items []models.CartItem, fileKeys map[uuid.UUID]*string) []models.OrderLine {
	lines := make([]models.OrderLine, len(items))
	for i, item := range items {
		lines[i] = models.OrderLine{
			ProductID:         item.ProductID,
			ProductName:       item.ProductName,
			Kind:              item.Kind,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			TotalPrice:        item.TotalPrice,
			DesignPrice:       item.DesignPrice,
			FabricPrice:       item.FabricPrice,
			FabricProductID:   item.FabricProductID,
			VariantSelections: item.VariantSelections,
			DigitalFileKey:    fileKeys[item.ProductID],
		}
	}
	return lines
}

// requiresShipping reports whether any line needs physical delivery.
func requiresShipping(items []models.CartItem) bool {
	for _, item := range items {
		if item.Kind != enums.ProductKindDigital {
			return true
		}
	}
	return false
}

func validateTransition(current, next enums.OrderStatus) error {
	if !current.CanTransitionTo(next) {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("cannot move order from %s to %s", current, next))
	}
	return nil
}

func notFoundOrInternal(err error, notFoundMsg, internalMsg string) error {
	if IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, internalMsg)
}
