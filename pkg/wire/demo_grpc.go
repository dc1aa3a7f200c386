package wire

import (
	"context"

	"google.golang.org/grpc"
)

const (
	DemoServiceName = "grpcdemo.GRPCDemo"

	DemoSayHelloMethod         = "/grpcdemo.GRPCDemo/SayHello"
	DemoFlipVectorMethod       = "/grpcdemo.GRPCDemo/FlipVector"
	DemoAddVectorsMethod       = "/grpcdemo.GRPCDemo/AddVectors"
	DemoMultiplyVectorsMethod  = "/grpcdemo.GRPCDemo/MultiplyVectors"
	DemoAddMatricesMethod      = "/grpcdemo.GRPCDemo/AddMatrices"
	DemoMultiplyMatricesMethod = "/grpcdemo.GRPCDemo/MultiplyMatrices"
)

type (
	VectorServerStream = grpc.BidiStreamingServer[Vector, Vector]
	MatrixServerStream = grpc.BidiStreamingServer[Matrix, Matrix]
	VectorClientStream = grpc.BidiStreamingClient[Vector, Vector]
	MatrixClientStream = grpc.BidiStreamingClient[Matrix, Matrix]
)

// DemoServer serves the vector and matrix operations. Every stream carries
// transfer metadata in both directions.
type DemoServer interface {
	SayHello(context.Context, *HelloRequest) (*HelloReply, error)
	FlipVector(VectorServerStream) error
	AddVectors(VectorServerStream) error
	MultiplyVectors(VectorServerStream) error
	AddMatrices(MatrixServerStream) error
	MultiplyMatrices(MatrixServerStream) error
}

func RegisterDemoServer(s grpc.ServiceRegistrar, srv DemoServer) {
	s.RegisterService(&DemoServiceDesc, srv)
}

func demoSayHelloHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HelloRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DemoServer).SayHello(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: DemoSayHelloMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DemoServer).SayHello(ctx, req.(*HelloRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func vectorHandler(call func(DemoServer, VectorServerStream) error) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		return call(srv.(DemoServer), &grpc.GenericServerStream[Vector, Vector]{ServerStream: stream})
	}
}

func matrixHandler(call func(DemoServer, MatrixServerStream) error) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		return call(srv.(DemoServer), &grpc.GenericServerStream[Matrix, Matrix]{ServerStream: stream})
	}
}

var DemoServiceDesc = grpc.ServiceDesc{
	ServiceName: DemoServiceName,
	HandlerType: (*DemoServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SayHello",
			Handler:    demoSayHelloHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "FlipVector",
			Handler:       vectorHandler(DemoServer.FlipVector),
			ServerStreams: true,
			ClientStreams: true,
		},
		{
			StreamName:    "AddVectors",
			Handler:       vectorHandler(DemoServer.AddVectors),
			ServerStreams: true,
			ClientStreams: true,
		},
		{
			StreamName:    "MultiplyVectors",
			Handler:       vectorHandler(DemoServer.MultiplyVectors),
			ServerStreams: true,
			ClientStreams: true,
		},
		{
			StreamName:    "AddMatrices",
			Handler:       matrixHandler(DemoServer.AddMatrices),
			ServerStreams: true,
			ClientStreams: true,
		},
		{
			StreamName:    "MultiplyMatrices",
			Handler:       matrixHandler(DemoServer.MultiplyMatrices),
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "grpcdemo.proto",
}

type DemoClient interface {
	SayHello(ctx context.Context, in *HelloRequest, opts ...grpc.CallOption) (*HelloReply, error)
	FlipVector(ctx context.Context, opts ...grpc.CallOption) (VectorClientStream, error)
	AddVectors(ctx context.Context, opts ...grpc.CallOption) (VectorClientStream, error)
	MultiplyVectors(ctx context.Context, opts ...grpc.CallOption) (VectorClientStream, error)
	AddMatrices(ctx context.Context, opts ...grpc.CallOption) (MatrixClientStream, error)
	MultiplyMatrices(ctx context.Context, opts ...grpc.CallOption) (MatrixClientStream, error)
}

type demoClient struct {
	cc grpc.ClientConnInterface
}

func NewDemoClient(cc grpc.ClientConnInterface) DemoClient {
	return &demoClient{cc}
}

func (c *demoClient) SayHello(ctx context.Context, in *HelloRequest, opts ...grpc.CallOption) (*HelloReply, error) {
	out := new(HelloReply)
	if err := c.cc.Invoke(ctx, DemoSayHelloMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *demoClient) vectorStream(ctx context.Context, i int, method string, opts []grpc.CallOption) (VectorClientStream, error) {
	stream, err := c.cc.NewStream(ctx, &DemoServiceDesc.Streams[i], method, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[Vector, Vector]{ClientStream: stream}, nil
}

func (c *demoClient) matrixStream(ctx context.Context, i int, method string, opts []grpc.CallOption) (MatrixClientStream, error) {
	stream, err := c.cc.NewStream(ctx, &DemoServiceDesc.Streams[i], method, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[Matrix, Matrix]{ClientStream: stream}, nil
}

func (c *demoClient) FlipVector(ctx context.Context, opts ...grpc.CallOption) (VectorClientStream, error) {
	return c.vectorStream(ctx, 0, DemoFlipVectorMethod, opts)
}

func (c *demoClient) AddVectors(ctx context.Context, opts ...grpc.CallOption) (VectorClientStream, error) {
	return c.vectorStream(ctx, 1, DemoAddVectorsMethod, opts)
}

func (c *demoClient) MultiplyVectors(ctx context.Context, opts ...grpc.CallOption) (VectorClientStream, error) {
	return c.vectorStream(ctx, 2, DemoMultiplyVectorsMethod, opts)
}

func (c *demoClient) AddMatrices(ctx context.Context, opts ...grpc.CallOption) (MatrixClientStream, error) {
	return c.matrixStream(ctx, 3, DemoAddMatricesMethod, opts)
}

func (c *demoClient) MultiplyMatrices(ctx context.Context, opts ...grpc.CallOption) (MatrixClientStream, error) {
	return c.matrixStream(ctx, 4, DemoMultiplyMatricesMethod, opts)
}
