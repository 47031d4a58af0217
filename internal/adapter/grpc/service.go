package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "dcaflow.v1.SimulationService"

// SimulationServiceServer is the server API of the simulation service
type SimulationServiceServer interface {
	RunSimulation(context.Context, *RunSimulationRequest) (*RunSimulationResponse, error)
	GetPrice(context.Context, *GetPriceRequest) (*GetPriceResponse, error)
	RefreshPrices(context.Context, *RefreshPricesRequest) (*RefreshPricesResponse, error)
	TopTickers(context.Context, *TopTickersRequest) (*TopTickersResponse, error)
}

// unaryHandler adapts a typed method to grpc.MethodDesc
func unaryHandler[Req any, Resp any](method string, call func(SimulationServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SimulationServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SimulationServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SimulationServiceDesc describes the simulation service for grpc.Server.RegisterService
var SimulationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RunSimulation",
			Handler:    unaryHandler("RunSimulation", SimulationServiceServer.RunSimulation),
		},
		{
			MethodName: "GetPrice",
			Handler:    unaryHandler("GetPrice", SimulationServiceServer.GetPrice),
		},
		{
			MethodName: "RefreshPrices",
			Handler:    unaryHandler("RefreshPrices", SimulationServiceServer.RefreshPrices),
		},
		{
			MethodName: "TopTickers",
			Handler:    unaryHandler("TopTickers", SimulationServiceServer.TopTickers),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dcaflow/v1/simulation.json",
}

// RegisterSimulationServiceServer registers srv on s
func RegisterSimulationServiceServer(s grpc.ServiceRegistrar, srv SimulationServiceServer) {
	s.RegisterService(&SimulationServiceDesc, srv)
}

// SimulationServiceClient calls the simulation service with the JSON codec
type SimulationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSimulationServiceClient creates a client over an established connection
func NewSimulationServiceClient(cc grpc.ClientConnInterface) *SimulationServiceClient {
	return &SimulationServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SimulationServiceClient) RunSimulation(ctx context.Context, in *RunSimulationRequest, opts ...grpc.CallOption) (*RunSimulationResponse, error) {
	return invoke[RunSimulationResponse](ctx, c.cc, "RunSimulation", in, opts)
}

func (c *SimulationServiceClient) GetPrice(ctx context.Context, in *GetPriceRequest, opts ...grpc.CallOption) (*GetPriceResponse, error) {
	return invoke[GetPriceResponse](ctx, c.cc, "GetPrice", in, opts)
}

func (c *SimulationServiceClient) RefreshPrices(ctx context.Context, in *RefreshPricesRequest, opts ...grpc.CallOption) (*RefreshPricesResponse, error) {
	return invoke[RefreshPricesResponse](ctx, c.cc, "RefreshPrices", in, opts)
}

func (c *SimulationServiceClient) TopTickers(ctx context.Context, in *TopTickersRequest, opts ...grpc.CallOption) (*TopTickersResponse, error) {
	return invoke[TopTickersResponse](ctx, c.cc, "TopTickers", in, opts)
}
