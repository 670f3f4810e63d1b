package http

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/freekieb7/weblet/http"

var (
	attrStatus     = attribute.Key("http.response.status_code")
	attrMethod     = attribute.Key("http.request.method")
	attrRoute      = attribute.Key("http.route")
	attrPath       = attribute.Key("url.path")
	attrRequestID  = attribute.Key("weblet.request_id")
	attrErrorKind  = attribute.Key("error.type")
	attrCacheFound = attribute.Key("weblet.cache.hit")
)

type serverMetrics struct {
	connections       metric.Int64Counter
	activeConnections metric.Int64UpDownCounter
	requests          metric.Int64Counter
	requestDuration   metric.Float64Histogram
	requestErrors     metric.Int64Counter
	cacheLookups      metric.Int64Counter
}

func newServerMetrics(meter metric.Meter) (*serverMetrics, error) {
	var m serverMetrics
	var err error

	if m.connections, err = meter.Int64Counter("weblet.connections",
		metric.WithDescription("Accepted connections"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, err
	}

	if m.activeConnections, err = meter.Int64UpDownCounter("weblet.connections.active",
		metric.WithDescription("Connections currently owned by a worker"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, err
	}

	if m.requests, err = meter.Int64Counter("weblet.requests",
		metric.WithDescription("Responses written by status code"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}

	if m.requestDuration, err = meter.Float64Histogram("weblet.request.duration",
		metric.WithDescription("Time from parsed request to flushed response"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}

	if m.requestErrors, err = meter.Int64Counter("weblet.request.errors",
		metric.WithDescription("Requests dropped before a response was written"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}

	if m.cacheLookups, err = meter.Int64Counter("weblet.cache.lookups",
		metric.WithDescription("Cache lookups requested by handlers"),
		metric.WithUnit("{lookup}")); err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *serverMetrics) recordResponse(ctx context.Context, status Status, method Method, start time.Time) {
	attrs := metric.WithAttributes(
		attrStatus.Int(int(status)),
		attrMethod.String(method.String()),
	)
	m.requests.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}

func (m *serverMetrics) recordError(ctx context.Context, kind string) {
	m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrErrorKind.String(kind)))
}
