// Package store provides an interface for product storage operations.
package store

import (
	"context"

	"github.com/abgdnv/catalog/internal/store/db"
	"github.com/google/uuid"
)

// ProductStore is an interface for product storage operations.
type ProductStore interface {
	// FindAll returns every product, newest first.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]db.Product, error)

	// Create inserts a product and returns the stored row.
	Create(ctx context.Context, params db.CreateParams) (*db.Product, error)

	// Update applies the fields whose set flag is true and returns the resulting row.
	// With no flags set the row is returned unchanged.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, params db.UpdateParams) (*db.Product, error)

	// DeleteByID removes a product and reports whether a row was deleted.
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)
}
