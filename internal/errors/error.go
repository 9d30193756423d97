// Package errors provides sentinel errors shared by the catalog layers.
package errors

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")

	// ErrNotConfigured is returned by write and upload paths when the backing client was never constructed.
	ErrNotConfigured = errors.New("backing store not configured")
)
