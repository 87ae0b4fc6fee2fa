package grpcserver

import (
	gp "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// CheckoutService is the name probes ask about; "" covers the whole server.
const CheckoutService = "checkout.v1.Checkout"

// Health wraps a gRPC server exposing only the standard health service, for
// orchestrators that probe over gRPC.
type Health struct {
	Server *grpc.Server
	status *health.Server
}

func NewHealth() *Health {
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(gp.UnaryServerInterceptor),
		grpc.StreamInterceptor(gp.StreamServerInterceptor),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	gp.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(CheckoutService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Health{Server: srv, status: hs}
}

func (h *Health) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.status.SetServingStatus("", st)
	h.status.SetServingStatus(CheckoutService, st)
}

// Stop flips every service to NOT_SERVING and drains in-flight probes.
func (h *Health) Stop() {
	h.status.Shutdown()
	h.Server.GracefulStop()
}
