package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the gorm handle shared by the cart and order repositories.
// Concrete repositories embed it and build their queries off DB.
type Base struct {
	conn *gorm.DB
}

// NewBase wraps the provided gorm connection.
func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the connection scoped to ctx so cancellation and deadlines
// propagate into queries. A nil context yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}
