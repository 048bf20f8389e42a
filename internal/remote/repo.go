package remote

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/snackdash/snackdash-core/internal/repo"
	"github.com/snackdash/snackdash-core/pkg/db/models"
)

// Repository encapsulates cart and order persistence for the authoritative
// store.
type Repository struct {
	repo.Base
}

// NewRepository constructs a repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// ListLines returns every line of a cart, oldest first.
func (r *Repository) ListLines(ctx context.Context, cartKey string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.DB(ctx).
		Where("cart_key = ?", cartKey).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).
		Error
	return lines, err
}

// FindLineByIdentity returns the line matching (cartKey, itemRef, optionsKey)
// or gorm.ErrRecordNotFound.
func (r *Repository) FindLineByIdentity(ctx context.Context, cartKey, itemRef, optionsKey string) (models.CartLine, error) {
	var line models.CartLine
	err := r.DB(ctx).
		Where("cart_key = ? AND item_ref = ? AND options_key = ?", cartKey, itemRef, optionsKey).
		First(&line).
		Error
	return line, err
}

// FindLineByID returns the line with the given id or gorm.ErrRecordNotFound.
func (r *Repository) FindLineByID(ctx context.Context, id uuid.UUID) (models.CartLine, error) {
	var line models.CartLine
	err := r.DB(ctx).First(&line, "id = ?", id).Error
	return line, err
}

// InsertLine persists a new cart line.
func (r *Repository) InsertLine(ctx context.Context, line *models.CartLine) error {
	return r.DB(ctx).Create(line).Error
}

// UpdateLineQuantity sets the absolute quantity of a line and reports whether
// a row was touched.
func (r *Repository) UpdateLineQuantity(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	result := r.DB(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	return result.RowsAffected > 0, result.Error
}

// DeleteLine removes a line by id and reports whether a row was deleted.
func (r *Repository) DeleteLine(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.DB(ctx).Delete(&models.CartLine{}, "id = ?", id)
	return result.RowsAffected > 0, result.Error
}

// DeleteCart removes every line of a cart.
func (r *Repository) DeleteCart(ctx context.Context, cartKey string) error {
	return r.DB(ctx).Delete(&models.CartLine{}, "cart_key = ?", cartKey).Error
}

// CartRestaurant returns the restaurant of the cart's existing lines, or ""
// when the cart is empty.
func (r *Repository) CartRestaurant(ctx context.Context, cartKey string) (string, error) {
	var line models.CartLine
	err := r.DB(ctx).
		Select("restaurant_ref").
		Where("cart_key = ?", cartKey).
		Limit(1).
		First(&line).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return line.RestaurantRef, nil
}

// InsertOrder persists an order header.
func (r *Repository) InsertOrder(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

// FindOrderByID returns the order with the given id or gorm.ErrRecordNotFound.
func (r *Repository) FindOrderByID(ctx context.Context, id uuid.UUID) (models.Order, error) {
	var order models.Order
	err := r.DB(ctx).First(&order, "id = ?", id).Error
	return order, err
}

// InsertOrderLines persists a batch of order line snapshots.
func (r *Repository) InsertOrderLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&lines).Error
}
