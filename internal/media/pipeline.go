// Package media implements the image upload pipeline: bucket provisioning, path generation
// and retried object writes.
package media

import (
	"context"
	"log/slog"
	"time"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/objectstore"
	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/messaging/events"
)

// UploadRequest is a single file submitted for storage.
type UploadRequest struct {
	Body        []byte
	ContentType string
}

// StoredObject describes a successfully written object.
type StoredObject struct {
	Bucket    string `json:"bucket"`
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}

// Pipeline runs provisioning, path generation and the retried upload for one request at a time.
type Pipeline struct {
	store       objectstore.Store
	provisioner *Provisioner
	retrier     *Retrier
	paths       *PathGenerator
	bucket      string
	publisher   messaging.Publisher
	logger      *slog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPathGenerator replaces the default path generator.
func WithPathGenerator(g *PathGenerator) Option {
	return func(p *Pipeline) {
		p.paths = g
	}
}

// WithSleeper replaces the wait used between upload attempts.
func WithSleeper(s Sleeper) Option {
	return func(p *Pipeline) {
		if p.retrier != nil {
			p.retrier.sleep = s
		}
	}
}

// NewPipeline creates a Pipeline. A nil store leaves the pipeline unconfigured: every upload
// fails with ErrNotConfigured.
func NewPipeline(store objectstore.Store, cfg config.StorageConfig, publisher messaging.Publisher, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     store,
		paths:     NewPathGenerator(),
		bucket:    cfg.Bucket,
		publisher: publisher,
		logger:    logger.With("component", "media"),
	}
	if store != nil {
		p.provisioner = NewProvisioner(store, logger)
		p.retrier = NewRetrier(store, cfg.Retry, logger)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Configured reports whether an object store is available.
func (p *Pipeline) Configured() bool {
	return p.store != nil
}

// Upload stores the request body in the public bucket and returns its path and public URL.
func (p *Pipeline) Upload(ctx context.Context, req UploadRequest) (*StoredObject, error) {
	if p.store == nil {
		return nil, catalogerrors.ErrNotConfigured
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	if err := p.provisioner.EnsureBucket(ctx, p.bucket, true); err != nil {
		return nil, err
	}

	path := p.paths.Generate(contentType)
	stored, err := p.retrier.Upload(ctx, objectstore.UploadInput{
		Bucket:      p.bucket,
		Path:        path,
		Body:        req.Body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}

	obj := &StoredObject{
		Bucket:    p.bucket,
		Path:      stored,
		PublicURL: p.store.PublicURL(p.bucket, stored),
	}
	p.logger.InfoContext(ctx, "Object stored", "bucket", obj.Bucket, "path", obj.Path, "size", len(req.Body))

	event := events.MediaUploadedEvent{
		Bucket:      obj.Bucket,
		Path:        obj.Path,
		PublicURL:   obj.PublicURL,
		ContentType: contentType,
		Size:        int64(len(req.Body)),
		UploadedAt:  time.Now().UTC(),
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish MediaUploadedEvent", "path", obj.Path, "error", err)
	}
	return obj, nil
}
