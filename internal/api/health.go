package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SignalService is the health service name that reports SERVING only while
// a fingertip signal is being measured. The empty service reports process
// liveness.
const SignalService = "vitals.Signal"

// Health tracks gRPC health from the runner's latest snapshot.
type Health struct {
	runner Runner
	server *health.Server
}

// NewHealth returns a health tracker with the process SERVING and the signal
// NOT_SERVING.
func NewHealth(runner Runner) *Health {
	h := &Health{runner: runner, server: health.NewServer()}
	h.server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.server.SetServingStatus(SignalService, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Server exposes the underlying health server.
func (h *Health) Server() *health.Server { return h.server }

// Update sets the signal status from the latest snapshot.
func (h *Health) Update() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if h.runner.Latest().FingerDetected {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus(SignalService, status)
}

// Watch calls Update every interval until ctx is done, then marks every
// service NOT_SERVING.
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.Update()
		case <-ctx.Done():
			h.server.Shutdown()
			return
		}
	}
}

// ServeGRPC serves the health service on addr until ctx is done.
func (h *Health) ServeGRPC(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, h.server)

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()
	log.Printf("gRPC health listening on %s", addr)
	if err := srv.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}
