// Package grpc exposes the catalog's readiness over the standard gRPC health protocol.
package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the catalog.
const ServiceName = "catalog"

// Backends reports which backing stores are configured.
type Backends interface {
	Configured() bool
}

// HealthServer wraps the grpc health server with catalog readiness.
type HealthServer struct {
	*health.Server
}

// NewHealthServer creates a HealthServer. The catalog is SERVING only when every backend is configured.
func NewHealthServer(backends ...Backends) *HealthServer {
	s := &HealthServer{Server: health.NewServer()}
	s.SetServingStatus(ServiceName, servingStatus(backends))
	return s
}

// Register adds the health service to a grpc server.
func (s *HealthServer) Register(gs *grpc.Server) {
	healthpb.RegisterHealthServer(gs, s.Server)
}

func servingStatus(backends []Backends) healthpb.HealthCheckResponse_ServingStatus {
	for _, b := range backends {
		if b == nil || !b.Configured() {
			return healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	return healthpb.HealthCheckResponse_SERVING
}
