package rpc

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"github.com/sincaw/arraystream/cmd/arrayd/server/common"
	"github.com/sincaw/arraystream/cmd/arrayd/server/telemetry"
	"github.com/sincaw/arraystream/cmd/arrayd/server/utils"
	"github.com/sincaw/arraystream/pkg/store"
	"github.com/sincaw/arraystream/pkg/wire"
)

// Server hosts the demo and both array services on one grpc server.
type Server struct {
	ctx    context.Context
	grpc   *grpc.Server
	config *common.Config
	logger *utils.Log
}

// New grpc server over the namespaces of db
func New(ctx context.Context, db store.DB, config *common.Config, ins *telemetry.Instruments, logger *utils.Log) (*Server, error) {
	ints, err := db.Namespace(common.Int32Namespace)
	if err != nil {
		return nil, errors.Wrapf(err, "open namespace %s", common.Int32Namespace)
	}
	doubles, err := db.Namespace(common.DoubleNamespace)
	if err != nil {
		return nil, errors.Wrapf(err, "open namespace %s", common.DoubleNamespace)
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unaryInterceptor(ins)),
		grpc.ChainStreamInterceptor(streamInterceptor(ins)),
	}
	if n := config.GRPC.MaxMessageBytes; n > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(n), grpc.MaxSendMsgSize(n))
	}
	srv := grpc.NewServer(opts...)

	RegisterAll(srv, ints, doubles, config.Transfer.MaxChunkBytes, logger)
	return &Server{
		ctx:    ctx,
		grpc:   srv,
		config: config,
		logger: logger,
	}, nil
}

// RegisterAll registers the demo service and the int32 and double array services.
func RegisterAll(s grpc.ServiceRegistrar, ints, doubles store.Store, maxChunkBytes int, logger *utils.Log) {
	wire.RegisterDemoServer(s, NewDemo(maxChunkBytes, logger))
	wire.RegisterArrayServer[int32](s, NewArrays[int32](ints, logger))
	wire.RegisterArrayServer[float64](s, NewArrays[float64](doubles, logger))
}

// Serve grpc on the configured address
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", s.config.GRPC.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.config.GRPC.Addr)
	}
	return s.ServeListener(lis)
}

// ServeListener serves on lis until the server context is done.
func (s *Server) ServeListener(lis net.Listener) error {
	go func() {
		<-s.ctx.Done()
		s.logger.Infof("stopping grpc server on %s", lis.Addr())
		s.grpc.GracefulStop()
	}()
	s.logger.Infof("serving grpc on %s", lis.Addr())
	err := s.grpc.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}
