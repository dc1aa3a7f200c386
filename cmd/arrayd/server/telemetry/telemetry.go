// Package telemetry sets up tracing and metrics for the array server and
// provides the instruments both transports record into.
package telemetry

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/sincaw/arraystream/cmd/arrayd/server/common"
)

const instrumentationName = "arraystream"

// Setup installs stdout exporters as the global providers when enabled.
// The returned function flushes and stops them.
func Setup(config common.TelemetryConfig, w io.Writer) (func(context.Context) error, error) {
	if !config.Stdout {
		return func(context.Context) error { return nil }, nil
	}

	traceExp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	metricExp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, err
	}

	interval := config.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(interval)),
	))
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// Instruments records requests of one transport.
type Instruments struct {
	system   string
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
	messages metric.Int64Counter
	elements metric.Int64Counter
}

// New creates the instruments of system ("grpc" or "http") from the global providers.
func New(system string) *Instruments {
	return NewWithProviders(system, otel.GetTracerProvider(), otel.GetMeterProvider())
}

func NewWithProviders(system string, tp trace.TracerProvider, mp metric.MeterProvider) *Instruments {
	meter := mp.Meter(instrumentationName)
	ins := &Instruments{system: system, tracer: tp.Tracer(instrumentationName)}
	ins.requests, _ = meter.Int64Counter("rpc.server.requests",
		metric.WithUnit("{request}"),
		metric.WithDescription("Number of requests"),
	)
	ins.duration, _ = meter.Float64Histogram("rpc.server.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of requests"),
	)
	ins.messages, _ = meter.Int64Counter("rpc.server.messages",
		metric.WithUnit("{message}"),
		metric.WithDescription("Number of streamed messages"),
	)
	ins.elements, _ = meter.Int64Counter("arraystream.elements",
		metric.WithUnit("{element}"),
		metric.WithDescription("Number of array elements transferred"),
	)
	return ins
}

// Call is one request in flight.
type Call struct {
	ins    *Instruments
	ctx    context.Context
	span   trace.Span
	method string
	start  time.Time
}

// Start opens a server span for method.
func (ins *Instruments) Start(ctx context.Context, method string) (context.Context, *Call) {
	ctx, span := ins.tracer.Start(ctx, ins.system+"/"+method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", ins.system),
			attribute.String("rpc.method", method),
		),
	)
	return ctx, &Call{ins: ins, ctx: ctx, span: span, method: method, start: time.Now()}
}

// Message counts one streamed message, direction is "sent" or "received".
func (c *Call) Message(direction string) {
	c.ins.messages.Add(c.ctx, 1, metric.WithAttributes(
		attribute.String("rpc.system", c.ins.system),
		attribute.String("rpc.method", c.method),
		attribute.String("direction", direction),
	))
}

// Elements counts n array elements moved by the call.
func (c *Call) Elements(n int) {
	c.ins.elements.Add(c.ctx, int64(n), metric.WithAttributes(
		attribute.String("rpc.method", c.method),
	))
}

// End records the outcome of the call.
func (c *Call) End(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("rpc.system", c.ins.system),
		attribute.String("rpc.method", c.method),
		attribute.String("status", status),
	)
	c.ins.requests.Add(c.ctx, 1, attrs)
	c.ins.duration.Record(c.ctx, time.Since(c.start).Seconds(), attrs)

	if err != nil {
		c.span.SetStatus(codes.Error, err.Error())
		c.span.RecordError(err)
	} else {
		c.span.SetStatus(codes.Ok, "")
	}
	c.span.End()
}
