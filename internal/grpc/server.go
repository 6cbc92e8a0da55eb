package grpc

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/santiagocoriap/quakescope/internal/observability"
	"github.com/santiagocoriap/quakescope/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type Server struct {
	alerts      repository.AlertRepository
	broadcaster *Broadcaster
	metrics     *observability.Metrics
	grpcServer  *grpc.Server
}

func NewServer(alerts repository.AlertRepository, broadcaster *Broadcaster, metrics *observability.Metrics) *Server {
	s := &Server{
		alerts:      alerts,
		broadcaster: broadcaster,
		metrics:     metrics,
		grpcServer:  grpc.NewServer(),
	}
	s.grpcServer.RegisterService(&AlertServiceDesc, s)
	return s
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	slog.Info("gRPC server listening", "addr", addr)
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) ListAlerts(ctx context.Context, req *ListAlertsRequest) (*ListAlertsResponse, error) {
	limit := int(req.Limit)
	if limit < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "limit must not be negative: %d", limit)
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	alerts, err := s.alerts.ListAlerts(ctx, limit)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list alerts: %v", err)
	}

	resp := &ListAlertsResponse{
		Alerts: make([]*Alert, len(alerts)),
	}
	for i := range alerts {
		resp.Alerts[i] = toWire(&alerts[i])
	}
	return resp, nil
}

// StreamAlerts sends every broadcast alert at or above the requested
// magnitude until the client leaves or the broadcaster closes.
func (s *Server) StreamAlerts(req *StreamAlertsRequest, stream AlertStream) error {
	id, ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(id)

	s.metrics.StreamSubscribers.Inc()
	defer s.metrics.StreamSubscribers.Dec()

	slog.Info("client subscribed to alert stream", "subscriber_id", id)

	for {
		select {
		case <-stream.Context().Done():
			slog.Info("client disconnected from alert stream", "subscriber_id", id)
			return nil
		case a, ok := <-ch:
			if !ok {
				return nil
			}
			if req.MinMagnitude != nil && a.Magnitude < *req.MinMagnitude {
				continue
			}

			if err := stream.Send(toWire(a)); err != nil {
				slog.Error("failed to send alert to stream", "error", err, "subscriber_id", id)
				return err
			}
		}
	}
}
