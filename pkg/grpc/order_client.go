package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/discovery"
	"github.com/example/freshgrocers/pkg/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// OrderClient is the remote OrderAPI used by the gateway when orders run in
// the separate order service.
type OrderClient struct {
	conn   *grpc.ClientConn
	logger *zap.Logger
}

var _ service.OrderAPI = (*OrderClient)(nil)

func NewOrderClient(conn *grpc.ClientConn, logger *zap.Logger) *OrderClient {
	return &OrderClient{conn: conn, logger: logger.Named("order-client")}
}

// ConnectOrderService resolves the order service through discovery when it is
// available and falls back to the configured address otherwise.
func ConnectOrderService(cfg *config.GatewayConfig, disc *discovery.ServiceDiscovery, logger *zap.Logger, opts ...grpc.DialOption) (*OrderClient, error) {
	target := cfg.OrderServiceAddr

	if disc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		instances, err := disc.Discover(ctx, cfg.OrderServiceName)
		if err == nil && len(instances) > 0 {
			target = instances[0].Address()
			logger.Info("Discovered order service", zap.String("address", target))
		} else {
			logger.Info("Using default address for order service", zap.String("address", target))
		}
	}

	logger.Info("Connecting to order service", zap.String("target", target))

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to order service: %w", err)
	}

	return NewOrderClient(conn, logger), nil
}

func (c *OrderClient) PlaceOrder(ctx context.Context, req *service.PlaceOrderRequest) (*service.OrderView, error) {
	out := new(service.OrderView)
	if err := c.invoke(ctx, placeOrderMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderClient) GetOrder(ctx context.Context, id string) (*service.OrderView, error) {
	out := new(service.OrderView)
	if err := c.invoke(ctx, getOrderMethod, &GetOrderRequest{ID: id}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderClient) ListOrders(ctx context.Context, q service.OrderQuery) ([]service.OrderView, error) {
	out := new(ListOrdersResponse)
	if err := c.invoke(ctx, listOrdersMethod, &q, out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *OrderClient) invoke(ctx context.Context, method string, in, out interface{}) error {
	err := c.conn.Invoke(ctx, method, in, out, grpc.ForceCodec(jsonCodec{}))
	if err != nil {
		return fromStatus(err)
	}
	return nil
}

func (c *OrderClient) Close() error {
	return c.conn.Close()
}

// remoteError keeps the server's message and matches the service sentinel.
type remoteError struct {
	msg  string
	kind error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return &service.ValidationError{Message: st.Message()}
	case codes.NotFound:
		return &remoteError{msg: st.Message(), kind: service.ErrNotFound}
	case codes.FailedPrecondition:
		return &remoteError{msg: st.Message(), kind: service.ErrConflict}
	default:
		return fmt.Errorf("order service: %w", err)
	}
}
