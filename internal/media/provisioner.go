package media

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/abgdnv/catalog/internal/objectstore"
)

// Provisioner makes sure a bucket exists before objects are written into it.
type Provisioner struct {
	store  objectstore.Store
	logger *slog.Logger
}

// NewProvisioner creates a Provisioner backed by the given object store.
func NewProvisioner(store objectstore.Store, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		store:  store,
		logger: logger.With("component", "provisioner"),
	}
}

// EnsureBucket lists the buckets and creates name when it is missing.
// A create that races with another creator and reports AlreadyExists counts as success.
// Neither step is retried.
func (p *Provisioner) EnsureBucket(ctx context.Context, name string, public bool) error {
	buckets, err := p.store.ListBuckets(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to list buckets", "bucket", name, "error", err)
		return &ProvisionError{Op: OpList, Bucket: name, Err: err}
	}
	if slices.ContainsFunc(buckets, func(b objectstore.Bucket) bool { return b.Name == name }) {
		return nil
	}

	outcome, err := p.store.CreateBucket(ctx, name, public)
	switch outcome {
	case objectstore.Created:
		p.logger.InfoContext(ctx, "Bucket created", "bucket", name, "public", public)
		return nil
	case objectstore.AlreadyExists:
		p.logger.InfoContext(ctx, "Bucket was created concurrently", "bucket", name)
		return nil
	}
	if err == nil {
		err = errors.New("store reported a failed create")
	}
	p.logger.ErrorContext(ctx, "Failed to create bucket", "bucket", name, "error", err)
	return &ProvisionError{Op: OpCreate, Bucket: name, Err: err}
}
