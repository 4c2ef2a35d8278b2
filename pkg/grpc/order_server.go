package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/example/freshgrocers/pkg/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

const (
	orderServiceName = "freshgrocers.order.OrderService"

	placeOrderMethod = "/" + orderServiceName + "/PlaceOrder"
	getOrderMethod   = "/" + orderServiceName + "/GetOrder"
	listOrdersMethod = "/" + orderServiceName + "/ListOrders"
)

type GetOrderRequest struct {
	ID string `json:"id"`
}

type ListOrdersResponse struct {
	Orders []service.OrderView `json:"orders"`
	Total  int                 `json:"total"`
}

type orderServiceServer interface {
	PlaceOrder(ctx context.Context, req *service.PlaceOrderRequest) (*service.OrderView, error)
	GetOrder(ctx context.Context, req *GetOrderRequest) (*service.OrderView, error)
	ListOrders(ctx context.Context, req *service.OrderQuery) (*ListOrdersResponse, error)
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: orderServiceName,
	HandlerType: (*orderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: placeOrderHandler},
		{MethodName: "GetOrder", Handler: getOrderHandler},
		{MethodName: "ListOrders", Handler: listOrdersHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "freshgrocers/order",
}

// OrderServer exposes an OrderAPI, normally the in-process OrderService,
// over gRPC.
type OrderServer struct {
	orders service.OrderAPI
	logger *zap.Logger
	srv    *grpc.Server
}

func NewOrderServer(orders service.OrderAPI, logger *zap.Logger) *OrderServer {
	s := &OrderServer{
		orders: orders,
		logger: logger.Named("order-server"),
	}
	s.srv = grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.UnaryInterceptor(s.logCalls),
	)
	s.srv.RegisterService(&orderServiceDesc, s)
	reflection.Register(s.srv)
	return s
}

// Start listens on addr and serves until Stop is called.
func (s *OrderServer) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.logger.Info("Order service started", zap.String("address", addr))

	return s.Serve(lis)
}

func (s *OrderServer) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

func (s *OrderServer) Stop() {
	s.srv.GracefulStop()
}

func (s *OrderServer) PlaceOrder(ctx context.Context, req *service.PlaceOrderRequest) (*service.OrderView, error) {
	view, err := s.orders.PlaceOrder(ctx, req)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return view, nil
}

func (s *OrderServer) GetOrder(ctx context.Context, req *GetOrderRequest) (*service.OrderView, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "order id is required")
	}
	view, err := s.orders.GetOrder(ctx, req.ID)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return view, nil
}

func (s *OrderServer) ListOrders(ctx context.Context, req *service.OrderQuery) (*ListOrdersResponse, error) {
	orders, err := s.orders.ListOrders(ctx, *req)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &ListOrdersResponse{Orders: orders, Total: len(orders)}, nil
}

func (s *OrderServer) toStatus(err error) error {
	switch {
	case service.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case service.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrForbidden):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		s.logger.Error("Order call failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *OrderServer) logCalls(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Info("gRPC call",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("latency", time.Since(start)))
	return resp, err
}

func placeOrderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(service.PlaceOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(orderServiceServer).PlaceOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: placeOrderMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(orderServiceServer).PlaceOrder(ctx, req.(*service.PlaceOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getOrderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(orderServiceServer).GetOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getOrderMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(orderServiceServer).GetOrder(ctx, req.(*GetOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listOrdersHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(service.OrderQuery)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(orderServiceServer).ListOrders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listOrdersMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(orderServiceServer).ListOrders(ctx, req.(*service.OrderQuery))
	}
	return interceptor(ctx, in, info, handler)
}
