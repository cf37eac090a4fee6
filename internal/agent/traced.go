package agent

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/vidbrain/internal/tracing"
)

// TracedService wraps a Service with one span per call.
type TracedService struct {
	next   Service
	tracer trace.Tracer
}

var _ Service = (*TracedService)(nil)

// WithTracing decorates svc. A nil tracer returns svc unchanged.
func WithTracing(svc Service, tracer trace.Tracer) Service {
	if tracer == nil {
		return svc
	}
	return &TracedService{next: svc, tracer: tracer}
}

func (s *TracedService) Upload(ctx context.Context, name string, r io.Reader) (UploadResult, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanUpload,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("video.filename", name)),
	)
	defer span.End()

	cr := &countingReader{r: r}
	span.AddEvent(tracing.EventRequestSent)
	result, err := s.next.Upload(ctx, name, cr)
	span.SetAttributes(attribute.Int64(tracing.AttrVideoSize, cr.n.Load()))
	if err != nil {
		recordError(span, err)
		return result, err
	}

	span.AddEvent(tracing.EventResponseReceived)
	span.SetAttributes(attribute.String(tracing.AttrVideoID, result.VideoID))
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (s *TracedService) Chat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanChat,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.AttrVideoID, req.VideoID),
			attribute.String(tracing.AttrThreadID, req.ThreadID),
			attribute.Int(tracing.AttrMessageLen, len(req.Message)),
		),
	)
	defer span.End()

	span.AddEvent(tracing.EventRequestSent)
	reply, err := s.next.Chat(ctx, req)
	if err != nil {
		recordError(span, err)
		return reply, err
	}

	span.AddEvent(tracing.EventResponseReceived)
	span.SetAttributes(attribute.Int(tracing.AttrReplyLen, len(reply.Response)))
	span.SetStatus(codes.Ok, "")
	return reply, nil
}

func (s *TracedService) Health(ctx context.Context) (HealthStatus, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanHealth, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	status, err := s.next.Health(ctx)
	if err != nil {
		recordError(span, err)
		return status, err
	}
	span.SetAttributes(attribute.String("health.status", status.Status))
	span.SetStatus(codes.Ok, "")
	return status, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var agentErr *Error
	if errors.As(err, &agentErr) {
		span.SetAttributes(attribute.String(tracing.AttrErrorKind, agentErr.Kind.String()))
		if agentErr.StatusCode != 0 {
			span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, agentErr.StatusCode))
		}
	}
}

// countingReader is read from the client's multipart goroutine.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
