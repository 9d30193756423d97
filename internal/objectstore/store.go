// Package objectstore defines the outbound contract to an object-storage service.
package objectstore

import (
	"context"
)

// CreateOutcome is the result of a bucket creation call.
type CreateOutcome int

const (
	CreateFailed CreateOutcome = iota
	Created
	AlreadyExists
)

func (o CreateOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExists:
		return "already_exists"
	default:
		return "failed"
	}
}

// Bucket describes an existing bucket.
type Bucket struct {
	Name string
}

// UploadInput describes a single object write.
type UploadInput struct {
	Bucket      string
	Path        string
	Body        []byte
	ContentType string
	// Upsert allows overwriting an existing object at Path. When false a collision fails the write.
	Upsert bool
}

// Store is the set of object-storage operations the catalog depends on.
type Store interface {
	// ListBuckets returns every bucket visible to the configured credentials.
	ListBuckets(ctx context.Context) ([]Bucket, error)

	// CreateBucket creates a bucket. A name collision is reported as AlreadyExists with a nil error.
	CreateBucket(ctx context.Context, name string, public bool) (CreateOutcome, error)

	// Upload writes one object and returns the stored path.
	Upload(ctx context.Context, in UploadInput) (string, error)

	// PublicURL derives the public address of a stored object. It performs no network call.
	PublicURL(bucket, path string) string
}
