package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/sincaw/arraystream/cmd/arrayd/server/telemetry"
)

func unaryInterceptor(ins *telemetry.Instruments) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, call := ins.Start(ctx, info.FullMethod)
		resp, err := handler(ctx, req)
		call.End(err)
		return resp, err
	}
}

func streamInterceptor(ins *telemetry.Instruments) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, call := ins.Start(ss.Context(), info.FullMethod)
		err := handler(srv, &countingStream{ServerStream: ss, ctx: ctx, call: call})
		call.End(err)
		return err
	}
}

// countingStream counts every message passing through a server stream.
type countingStream struct {
	grpc.ServerStream
	ctx  context.Context
	call *telemetry.Call
}

func (s *countingStream) Context() context.Context {
	return s.ctx
}

func (s *countingStream) SendMsg(m any) error {
	err := s.ServerStream.SendMsg(m)
	if err == nil {
		s.call.Message("sent")
	}
	return err
}

func (s *countingStream) RecvMsg(m any) error {
	err := s.ServerStream.RecvMsg(m)
	if err == nil {
		s.call.Message("received")
	}
	return err
}
