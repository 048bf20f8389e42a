package remote

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/snackdash/snackdash-core/internal/gateway"
	"github.com/snackdash/snackdash-core/pkg/db/models"
	"github.com/snackdash/snackdash-core/pkg/enums"
	pkgerrors "github.com/snackdash/snackdash-core/pkg/errors"
	"github.com/snackdash/snackdash-core/pkg/logger"
)

// txRunner is the transaction surface the service needs from the db client.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// changePublisher fans "this cart changed" signals out to connected devices.
type changePublisher interface {
	PublishCartChanged(ctx context.Context, cartKey string) error
}

// ServiceParams groups dependencies for the authoritative cart service.
type ServiceParams struct {
	Repo      *Repository
	Tx        txRunner
	Publisher changePublisher
	Logger    *logger.Logger
}

// Service exposes the authoritative cart and order operations served to
// devices.
type Service interface {
	ListLines(ctx context.Context, cartKey string) ([]models.CartLine, error)
	UpsertLine(ctx context.Context, cartKey string, line gateway.LineDTO) (models.CartLine, error)
	SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (models.CartLine, error)
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	ClearCart(ctx context.Context, cartKey string) error
	CreateOrder(ctx context.Context, draft gateway.OrderDTO) (models.Order, error)
	AddOrderLines(ctx context.Context, orderID uuid.UUID, lines []gateway.OrderLineDTO) error
}

type service struct {
	repo      *Repository
	tx        txRunner
	publisher changePublisher
	logg      *logger.Logger
}

// NewService builds the cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "repository is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		publisher: params.Publisher,
		logg:      params.Logger,
	}, nil
}

// ListLines returns the full authoritative line list for a cart.
func (s *service) ListLines(ctx context.Context, cartKey string) ([]models.CartLine, error) {
	if cartKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart key is required")
	}
	lines, err := s.repo.ListLines(ctx, cartKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart lines")
	}
	return lines, nil
}

// UpsertLine creates the line described by the payload or, when a line with
// the same (item, options) identity already exists, sets its quantity to the
// requested absolute value. Retried creates therefore converge instead of
// duplicating.
func (s *service) UpsertLine(ctx context.Context, cartKey string, line gateway.LineDTO) (models.CartLine, error) {
	if cartKey == "" {
		return models.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "cart key is required")
	}
	if line.ItemRef == "" {
		return models.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "item ref is required")
	}
	if line.Quantity <= 0 {
		return models.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if line.RestaurantRef == "" {
		return models.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "restaurant ref is required")
	}

	optionsKey := line.Options.CanonicalKey()

	var result models.CartLine
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.CartRestaurant(ctx, cartKey)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve cart restaurant")
		}
		if current != "" && current != line.RestaurantRef {
			return pkgerrors.New(pkgerrors.CodeCrossRestaurant, "cart already holds items from another restaurant").
				WithDetails(map[string]any{"cart_restaurant": current, "requested_restaurant": line.RestaurantRef})
		}

		existing, err := repo.FindLineByIdentity(ctx, cartKey, line.ItemRef, optionsKey)
		switch {
		case err == nil:
			if _, err := repo.UpdateLineQuantity(ctx, existing.ID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update line quantity")
			}
			existing.Quantity = line.Quantity
			result = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.CartLine{
				CartKey:       cartKey,
				ItemRef:       line.ItemRef,
				RestaurantRef: line.RestaurantRef,
				UnitPrice:     line.UnitPrice,
				Quantity:      line.Quantity,
				Options:       line.Options.Clone(),
				OptionsKey:    optionsKey,
			}
			if err := repo.InsertLine(ctx, &row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert cart line")
			}
			result = row
			return nil
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find line by identity")
		}
	})
	if err != nil {
		return models.CartLine{}, err
	}

	s.notifyChanged(ctx, cartKey)
	return result, nil
}

// SetQuantity sets the absolute quantity of an existing line. Quantities at or
// below zero are rejected; removal is an explicit delete.
func (s *service) SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (models.CartLine, error) {
	if lineID == uuid.Nil {
		return models.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}
	if quantity <= 0 {
		return models.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	line, err := s.repo.FindLineByID(ctx, lineID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CartLine{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if err != nil {
		return models.CartLine{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}

	touched, err := s.repo.UpdateLineQuantity(ctx, lineID, quantity)
	if err != nil {
		return models.CartLine{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update line quantity")
	}
	if !touched {
		return models.CartLine{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	line.Quantity = quantity
	s.notifyChanged(ctx, line.CartKey)
	return line, nil
}

// DeleteLine removes a line. Deleting a line that no longer exists is
// NOT_FOUND so callers can tell an already-applied delete apart from a live
// one.
func (s *service) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	if lineID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}

	line, err := s.repo.FindLineByID(ctx, lineID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}

	deleted, err := s.repo.DeleteLine(ctx, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	s.notifyChanged(ctx, line.CartKey)
	return nil
}

// ClearCart removes every line of a cart. Clearing an already-empty cart is a
// success.
func (s *service) ClearCart(ctx context.Context, cartKey string) error {
	if cartKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart key is required")
	}
	if err := s.repo.DeleteCart(ctx, cartKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	s.notifyChanged(ctx, cartKey)
	return nil
}

// CreateOrder persists an order header in status created.
func (s *service) CreateOrder(ctx context.Context, draft gateway.OrderDTO) (models.Order, error) {
	if draft.CartKey == "" {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "cart key is required")
	}
	if draft.RestaurantRef == "" {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "restaurant ref is required")
	}
	if !draft.PaymentMethod.IsValid() {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"payment_method": string(draft.PaymentMethod)})
	}

	order := models.Order{
		CartKey:            draft.CartKey,
		RestaurantRef:      draft.RestaurantRef,
		Subtotal:           draft.Subtotal,
		DeliveryFee:        draft.DeliveryFee,
		Discount:           draft.Discount,
		Total:              draft.Total,
		PaymentMethod:      draft.PaymentMethod,
		DeliveryAddressRef: draft.DeliveryAddressRef,
		Status:             enums.OrderStatusCreated,
	}
	if err := s.repo.InsertOrder(ctx, &order); err != nil {
		return models.Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
	}
	return order, nil
}

// AddOrderLines persists the line snapshots of an order in one transaction.
func (s *service) AddOrderLines(ctx context.Context, orderID uuid.UUID, lines []gateway.OrderLineDTO) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one order line is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindOrderByID(ctx, orderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		rows := make([]models.OrderLine, 0, len(lines))
		for _, line := range lines {
			if line.ItemRef == "" || line.Quantity <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "order lines need an item ref and a positive quantity")
			}
			rows = append(rows, models.OrderLine{
				OrderID:   orderID,
				ItemRef:   line.ItemRef,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
				Options:   line.Options.Clone(),
			})
		}

		if err := repo.InsertOrderLines(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order lines")
		}
		return nil
	})
}

// notifyChanged publishes a change signal after a committed mutation. Delivery
// is best effort; devices converge on their next reload either way.
func (s *service) notifyChanged(ctx context.Context, cartKey string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCartChanged(ctx, cartKey); err != nil {
		s.logg.Warn(s.logg.WithCartKey(ctx, cartKey), "publishing cart change signal failed")
	}
}

// LineToDTO converts a persisted line into its wire shape.
func LineToDTO(line models.CartLine) gateway.LineDTO {
	return gateway.LineDTO{
		ID:            line.ID,
		ItemRef:       line.ItemRef,
		RestaurantRef: line.RestaurantRef,
		UnitPrice:     line.UnitPrice,
		Quantity:      line.Quantity,
		Options:       line.Options,
	}
}

// OrderToDTO converts a persisted order into its wire shape.
func OrderToDTO(order models.Order) gateway.OrderDTO {
	return gateway.OrderDTO{
		ID:                 order.ID,
		CartKey:            order.CartKey,
		RestaurantRef:      order.RestaurantRef,
		Status:             order.Status,
		Subtotal:           order.Subtotal,
		DeliveryFee:        order.DeliveryFee,
		Discount:           order.Discount,
		Total:              order.Total,
		PaymentMethod:      order.PaymentMethod,
		DeliveryAddressRef: order.DeliveryAddressRef,
	}
}
