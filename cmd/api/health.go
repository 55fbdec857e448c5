package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// healthServiceName is the service name reported alongside the overall ""
// status.
const healthServiceName = "marketplace.v1.API"

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Social Marketplace API",
		"version": apiVersion,
		"status":  "online",
	})
	return nil
}

// health reports 200 while MongoDB answers a ping and 503 otherwise.
func (s *Server) health(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		log.Printf("health: ping: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "unreachable"})
		return nil
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Database: "connected"})
	return nil
}

// healthService serves grpc.health.v1 for orchestrators, following the
// database's reachability.
type healthService struct {
	grpcServer *grpc.Server
	health     *health.Server
	db         pinger
	interval   time.Duration
}

func newHealthService(db pinger, interval time.Duration) *healthService {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &healthService{
		grpcServer: grpcServer,
		health:     healthServer,
		db:         db,
		interval:   interval,
	}
}

// pingOnce pings the database once and publishes the result.
func (h *healthService) pingOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := h.db.Ping(ctx); err != nil {
		log.Printf("health ping: %v", err)
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(healthServiceName, status)
}

// Serve runs the health server on lis until ctx is cancelled.
func (h *healthService) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		h.pingOnce(ctx)
		for {
			select {
			case <-ticker.C:
				h.pingOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("gRPC health server listening on %s", lis.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- h.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		h.health.Shutdown()
		h.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC health: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC health: %w", err)
	}
}
