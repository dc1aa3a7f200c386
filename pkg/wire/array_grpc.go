package wire

import (
	"context"

	"google.golang.org/grpc"

	"github.com/sincaw/arraystream/pkg/codec"
)

// Initial metadata sent by GetArrayBinaryChunked before the first chunk.
const (
	ArraySizeKey     = "array-size"
	ArrayMessagesKey = "array-messages"
)

// ArrayServiceName returns the service serving arrays of T.
func ArrayServiceName[T codec.Scalar]() string {
	if codec.TypeOf[T]() == codec.Int32 {
		return "sendarray.Int32ArrayService"
	}
	return "sendarray.DoubleArrayService"
}

// ArrayMethod returns the full method name of method on the service of T.
func ArrayMethod[T codec.Scalar](method string) string {
	return "/" + ArrayServiceName[T]() + "/" + method
}

// ArrayServer stores arrays of T and serves them back with four retrieval strategies.
type ArrayServer[T codec.Scalar] interface {
	PostArray(context.Context, *Repeated[T]) (*ArrayID, error)
	DeleteArray(context.Context, *ArrayID) (*Empty, error)
	GetArray(context.Context, *ArrayID) (*Repeated[T], error)
	GetArrayStreaming(*ArrayID, grpc.ServerStreamingServer[Single[T]]) error
	GetArrayChunked(*StreamRequest, grpc.ServerStreamingServer[Repeated[T]]) error
	GetArrayBinaryChunked(*StreamRequest, grpc.ServerStreamingServer[BinaryChunk]) error
}

func RegisterArrayServer[T codec.Scalar](s grpc.ServiceRegistrar, srv ArrayServer[T]) {
	desc := ArrayServiceDesc[T]()
	s.RegisterService(&desc, srv)
}

func unaryHandler[T codec.Scalar, Req, Res any](method string, call func(ArrayServer[T], context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	full := ArrayMethod[T](method)
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ArrayServer[T]), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: full,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ArrayServer[T]), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func serverStreamHandler[T codec.Scalar, Req, Res any](call func(ArrayServer[T], *Req, grpc.ServerStreamingServer[Res]) error) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		in := new(Req)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return call(srv.(ArrayServer[T]), in, &grpc.GenericServerStream[Req, Res]{ServerStream: stream})
	}
}

// ArrayServiceDesc describes the array service of T.
func ArrayServiceDesc[T codec.Scalar]() grpc.ServiceDesc {
	return grpc.ServiceDesc{
		ServiceName: ArrayServiceName[T](),
		HandlerType: (*ArrayServer[T])(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "PostArray",
				Handler:    unaryHandler[T]("PostArray", ArrayServer[T].PostArray),
			},
			{
				MethodName: "DeleteArray",
				Handler:    unaryHandler[T]("DeleteArray", ArrayServer[T].DeleteArray),
			},
			{
				MethodName: "GetArray",
				Handler:    unaryHandler[T]("GetArray", ArrayServer[T].GetArray),
			},
		},
		Streams: []grpc.StreamDesc{
			{
				StreamName:    "GetArrayStreaming",
				Handler:       serverStreamHandler[T](ArrayServer[T].GetArrayStreaming),
				ServerStreams: true,
			},
			{
				StreamName:    "GetArrayChunked",
				Handler:       serverStreamHandler[T](ArrayServer[T].GetArrayChunked),
				ServerStreams: true,
			},
			{
				StreamName:    "GetArrayBinaryChunked",
				Handler:       serverStreamHandler[T](ArrayServer[T].GetArrayBinaryChunked),
				ServerStreams: true,
			},
		},
		Metadata: "send_array.proto",
	}
}

type ArrayClient[T codec.Scalar] interface {
	PostArray(ctx context.Context, in *Repeated[T], opts ...grpc.CallOption) (*ArrayID, error)
	DeleteArray(ctx context.Context, in *ArrayID, opts ...grpc.CallOption) (*Empty, error)
	GetArray(ctx context.Context, in *ArrayID, opts ...grpc.CallOption) (*Repeated[T], error)
	GetArrayStreaming(ctx context.Context, in *ArrayID, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Single[T]], error)
	GetArrayChunked(ctx context.Context, in *StreamRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Repeated[T]], error)
	GetArrayBinaryChunked(ctx context.Context, in *StreamRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[BinaryChunk], error)
}

type arrayClient[T codec.Scalar] struct {
	cc   grpc.ClientConnInterface
	desc grpc.ServiceDesc
}

func NewArrayClient[T codec.Scalar](cc grpc.ClientConnInterface) ArrayClient[T] {
	return &arrayClient[T]{cc: cc, desc: ArrayServiceDesc[T]()}
}

func (c *arrayClient[T]) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	return c.cc.Invoke(ctx, ArrayMethod[T](method), in, out, withCodec(opts)...)
}

func (c *arrayClient[T]) PostArray(ctx context.Context, in *Repeated[T], opts ...grpc.CallOption) (*ArrayID, error) {
	out := new(ArrayID)
	if err := c.invoke(ctx, "PostArray", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *arrayClient[T]) DeleteArray(ctx context.Context, in *ArrayID, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.invoke(ctx, "DeleteArray", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *arrayClient[T]) GetArray(ctx context.Context, in *ArrayID, opts ...grpc.CallOption) (*Repeated[T], error) {
	out := new(Repeated[T])
	if err := c.invoke(ctx, "GetArray", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func openServerStream[Req, Res any](ctx context.Context, cc grpc.ClientConnInterface, desc *grpc.StreamDesc, method string, in *Req, opts []grpc.CallOption) (grpc.ServerStreamingClient[Res], error) {
	stream, err := cc.NewStream(ctx, desc, method, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[Req, Res]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *arrayClient[T]) GetArrayStreaming(ctx context.Context, in *ArrayID, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Single[T]], error) {
	return openServerStream[ArrayID, Single[T]](ctx, c.cc, &c.desc.Streams[0], ArrayMethod[T]("GetArrayStreaming"), in, opts)
}

func (c *arrayClient[T]) GetArrayChunked(ctx context.Context, in *StreamRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Repeated[T]], error) {
	return openServerStream[StreamRequest, Repeated[T]](ctx, c.cc, &c.desc.Streams[1], ArrayMethod[T]("GetArrayChunked"), in, opts)
}

func (c *arrayClient[T]) GetArrayBinaryChunked(ctx context.Context, in *StreamRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[BinaryChunk], error) {
	return openServerStream[StreamRequest, BinaryChunk](ctx, c.cc, &c.desc.Streams[2], ArrayMethod[T]("GetArrayBinaryChunked"), in, opts)
}
