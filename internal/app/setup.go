// Package app wires the catalog's backends, services and servers together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/media"
	"github.com/abgdnv/catalog/internal/objectstore"
	"github.com/abgdnv/catalog/internal/objectstore/s3"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/store"
	grpcImpl "github.com/abgdnv/catalog/internal/transport/grpc"
	"github.com/abgdnv/catalog/internal/transport/rest"
	"github.com/abgdnv/catalog/pkg/bootstrap"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/nats"
	"github.com/abgdnv/catalog/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	natsgo "github.com/nats-io/nats.go"
	"google.golang.org/grpc"
)

// Backends holds the outbound clients. A nil field means the backend is not configured.
type Backends struct {
	DB        *pgxpool.Pool
	Objects   objectstore.Store
	Publisher messaging.Publisher
	nc        *natsgo.Conn
}

// Close releases every open client.
func (b *Backends) Close() {
	if b.nc != nil {
		_ = b.nc.Drain()
	}
	if b.DB != nil {
		b.DB.Close()
	}
}

// OpenBackends creates the clients for every configured backend. Missing credentials are
// not an error: the service starts with that backend unconfigured.
func OpenBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{Publisher: messaging.NoopPublisher{}}

	if cfg.Database.Configured() {
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return nil, err
		}
		if err := bootstrap.PingDb(ctx, dbPool, cfg.Database.Timeout); err != nil {
			logger.WarnContext(ctx, "Database is not reachable yet, product reads will degrade", "error", err)
		} else {
			logger.InfoContext(ctx, "Successfully connected to the database!")
		}
		b.DB = dbPool
	} else {
		logger.WarnContext(ctx, "Database is not configured, running in degraded mode")
	}

	if cfg.Storage.Configured() {
		objects, err := s3.New(ctx, cfg.Storage)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to create object storage client: %w", err)
		}
		b.Objects = objects
	} else {
		logger.WarnContext(ctx, "Object storage is not configured, uploads are disabled")
	}

	if cfg.NATS.Enabled() {
		if err := b.openPublisher(ctx, cfg); err != nil {
			logger.WarnContext(ctx, "Event publishing disabled", "error", err)
		} else {
			logger.InfoContext(ctx, "Publishing events to NATS", "stream", cfg.NATS.Stream)
		}
	}
	return b, nil
}

func (b *Backends) openPublisher(ctx context.Context, cfg *config.Config) error {
	nc, err := nats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return err
	}
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.NATS.Timeout)
	defer cancel()
	if err := nats.EnsureStream(streamCtx, js, cfg.NATS.Stream, messaging.CatalogSubjects); err != nil {
		nc.Close()
		return err
	}
	b.nc = nc
	b.Publisher = nats.NewNatsPublisher(js)
	return nil
}

type Dependencies struct {
	ProductService service.ProductService
	Uploader       *media.Pipeline
	MaxUploadBytes int64
	Logger         *slog.Logger
}

func SetupDependencies(b *Backends, cfg *config.Config, logger *slog.Logger) *Dependencies {
	var repo store.ProductStore
	if b.DB != nil {
		repo = store.NewPgStore(b.DB)
	}
	publisher := b.Publisher
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}

	return &Dependencies{
		ProductService: service.NewService(repo, publisher, cfg.Catalog, logger),
		Uploader:       media.NewPipeline(b.Objects, cfg.Storage, publisher, logger),
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the routes and middleware of the catalog API.
// Used by tests to exercise the whole HTTP stack.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return server.Traced("catalog", mux)
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	catalogHandler := rest.NewHandler(deps.ProductService, deps.Uploader, deps.MaxUploadBytes, deps.Logger)
	catalogHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the catalog.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

// SetupGrpcServer initializes the gRPC server, which carries the health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	healthServer := grpcImpl.NewHealthServer(deps.ProductService, deps.Uploader)
	return server.NewGRPCServer(reflectionEnabled, healthServer.Register)
}
