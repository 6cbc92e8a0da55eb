package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client calls the alert service of a running server.
type Client struct {
	conn *grpc.ClientConn
}

func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating client for %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) ListAlerts(ctx context.Context, limit int) ([]*Alert, error) {
	out := new(ListAlertsResponse)
	if err := c.conn.Invoke(ctx, listAlertsMethod, &ListAlertsRequest{Limit: int32(limit)}, out); err != nil {
		return nil, err
	}
	return out.Alerts, nil
}

// AlertReceiver is the client end of a StreamAlerts call.
type AlertReceiver struct {
	stream grpc.ClientStream
}

func (r *AlertReceiver) Recv() (*Alert, error) {
	a := new(Alert)
	if err := r.stream.RecvMsg(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (c *Client) StreamAlerts(ctx context.Context, req *StreamAlertsRequest) (*AlertReceiver, error) {
	stream, err := c.conn.NewStream(ctx, &AlertServiceDesc.Streams[0], streamAlertsMethod)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &AlertReceiver{stream: stream}, nil
}
