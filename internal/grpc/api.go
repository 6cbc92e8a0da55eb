package grpc

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/santiagocoriap/quakescope/internal/models"
)

// Messages travel as JSON under the "json" content subtype, so the service
// needs no generated protobuf code.
const codecName = "json"

const (
	serviceName        = "quakescope.alerts.v1.AlertService"
	listAlertsMethod   = "/" + serviceName + "/ListAlerts"
	streamAlertsMethod = "/" + serviceName + "/StreamAlerts"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

type Alert struct {
	ID           string  `json:"id"`
	EarthquakeID string  `json:"earthquake_id"`
	Magnitude    float64 `json:"magnitude"`
	Depth        float64 `json:"depth"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	DistanceKm   float64 `json:"distance_km"`
	Severity     string  `json:"severity"`
	CreatedAtMs  int64   `json:"created_at_ms"`
}

// CreatedAt returns the alert creation time in UTC.
func (a *Alert) CreatedAt() time.Time {
	return time.UnixMilli(a.CreatedAtMs).UTC()
}

type ListAlertsRequest struct {
	Limit int32 `json:"limit,omitempty"`
}

type ListAlertsResponse struct {
	Alerts []*Alert `json:"alerts"`
}

type StreamAlertsRequest struct {
	MinMagnitude *float64 `json:"min_magnitude,omitempty"`
}

func toWire(a *models.Alert) *Alert {
	return &Alert{
		ID:           a.ID,
		EarthquakeID: a.EarthquakeID,
		Magnitude:    a.Magnitude,
		Depth:        a.Depth,
		Latitude:     a.Latitude,
		Longitude:    a.Longitude,
		DistanceKm:   a.DistanceKm,
		Severity:     string(a.Severity),
		CreatedAtMs:  a.CreatedAt.UnixMilli(),
	}
}

// AlertServiceServer is the server side of the alert service.
type AlertServiceServer interface {
	ListAlerts(ctx context.Context, req *ListAlertsRequest) (*ListAlertsResponse, error)
	StreamAlerts(req *StreamAlertsRequest, stream AlertStream) error
}

// AlertStream is the server end of a StreamAlerts call.
type AlertStream interface {
	Send(a *Alert) error
	grpc.ServerStream
}

type alertStream struct {
	grpc.ServerStream
}

func (s *alertStream) Send(a *Alert) error {
	return s.ServerStream.SendMsg(a)
}

func listAlertsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListAlertsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AlertServiceServer).ListAlerts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: listAlertsMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).ListAlerts(ctx, req.(*ListAlertsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamAlertsHandler(srv any, stream grpc.ServerStream) error {
	in := new(StreamAlertsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(AlertServiceServer).StreamAlerts(in, &alertStream{stream})
}

var AlertServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AlertServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListAlerts",
			Handler:    listAlertsHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamAlerts",
			Handler:       streamAlertsHandler,
			ServerStreams: true,
		},
	},
}
