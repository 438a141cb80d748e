package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// FusionServiceName is the gRPC service exposed by fusion-grpc. Messages are
// google.protobuf.Struct documents carrying the same JSON bodies as the REST API.
const FusionServiceName = "fusion.v1.Fusion"

type FusionServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAnalytics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddDataPoint(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Import(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImportBulk(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var FusionServiceDesc = grpc.ServiceDesc{
	ServiceName: FusionServiceName,
	HandlerType: (*FusionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateSession", Handler: unaryHandler("CreateSession", FusionServer.CreateSession)},
		{MethodName: "GetAnalytics", Handler: unaryHandler("GetAnalytics", FusionServer.GetAnalytics)},
		{MethodName: "AddDataPoint", Handler: unaryHandler("AddDataPoint", FusionServer.AddDataPoint)},
		{MethodName: "Import", Handler: unaryHandler("Import", FusionServer.Import)},
		{MethodName: "ImportBulk", Handler: unaryHandler("ImportBulk", FusionServer.ImportBulk)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fusion/v1/fusion.proto",
}

func RegisterFusionServer(s grpc.ServiceRegistrar, srv FusionServer) {
	s.RegisterService(&FusionServiceDesc, srv)
}

type fusionMethod func(FusionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call fusionMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + FusionServiceName + "/" + name
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FusionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(FusionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FusionClient calls the Fusion service over an established connection.
type FusionClient struct {
	cc grpc.ClientConnInterface
}

func NewFusionClient(cc grpc.ClientConnInterface) *FusionClient {
	return &FusionClient{cc: cc}
}

// Call invokes method with a JSON-shaped request and returns the decoded response.
func (c *FusionClient) Call(ctx context.Context, method string, req map[string]interface{}, opts ...grpc.CallOption) (map[string]interface{}, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+FusionServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
