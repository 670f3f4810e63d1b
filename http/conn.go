package http

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// serveConn owns conn until the peer closes, a read fails, a request cannot
// be parsed or the connection stays idle for too long. Requests on one
// connection are handled strictly one after another.
func (st *settings) serveConn(conn net.Conn) {
	ctx := context.Background()
	st.metrics.activeConnections.Add(ctx, 1)
	defer st.metrics.activeConnections.Add(ctx, -1)
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	rr := newRequestReader(conn, st.config)
	bw := bufio.NewWriterSize(conn, st.config.WriteBufferSize)

	for {
		raw, err := rr.Next()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, ErrIdle):
				st.logger.Debug("closing connection", "remote", remote, "reason", err)
			case errors.Is(err, ErrBadRequest):
				st.logger.Warn("dropping connection", "remote", remote, "error", err)
				st.metrics.recordError(ctx, "bad_request")
			default:
				st.logger.Warn("reading request failed", "remote", remote, "error", err)
				st.metrics.recordError(ctx, "read")
			}
			return
		}

		start := time.Now()

		req, err := ParseRequest(raw)
		if err != nil {
			kind := "bad_request"
			if errors.Is(err, ErrURLParse) {
				kind = "url_parse"
			}
			st.logger.Warn("dropping connection", "remote", remote, "error", err)
			st.metrics.recordError(ctx, kind)
			return
		}

		req.ID = uuid.NewString()
		req.RemoteAddr = remote

		// A failed write is only logged; the next read notices a dead peer.
		st.handle(req, bw, start)
	}
}

func (st *settings) handle(req *Request, bw *bufio.Writer, start time.Time) {
	parent := st.propagator.Extract(context.Background(), propagation.MapCarrier(req.Headers))
	ctx, span := st.tracer.Start(parent, "weblet.request",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attrMethod.String(req.Method.String()),
			attrPath.String(req.Path),
			attrRequestID.String(req.ID),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	res := st.respond(req, span)
	span.SetAttributes(attrStatus.Int(int(res.Status)))

	if err := res.Write(bw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "writing response failed")
		st.logger.ErrorContext(ctx, "writing response failed",
			"remote", req.RemoteAddr,
			"request_id", req.ID,
			"path", req.Path,
			"error", err,
		)
		st.metrics.recordError(ctx, "write")
		return
	}

	if res.Status >= StatusInternalServerError {
		span.SetStatus(codes.Error, res.Status.Text())
	}
	st.metrics.recordResponse(ctx, res.Status, req.Method, start)
}

// respond turns whatever the matched handler returned into a response that
// can go on the wire.
func (st *settings) respond(req *Request, span trace.Span) *Response {
	ctx := req.Context()

	switch result := st.dispatch(req, span).(type) {
	case *Response:
		if result == nil {
			st.logger.ErrorContext(ctx, "handler returned a nil response", "request_id", req.ID, "path", req.Path)
			return InternalError()
		}
		if result.Status == StatusNone {
			st.logger.ErrorContext(ctx, "handler returned a response without status", "request_id", req.ID, "path", req.Path)
			return InternalError()
		}
		return result

	case CacheLookup:
		res, err := st.cache.Response(result.Key)
		st.metrics.cacheLookups.Add(ctx, 1, metric.WithAttributes(attrCacheFound.Bool(err == nil)))
		if err != nil {
			st.logger.WarnContext(ctx, "cache lookup failed", "request_id", req.ID, "key", result.Key, "error", err)
			return NotFound()
		}
		return res

	default:
		st.logger.ErrorContext(ctx, "handler returned no result", "request_id", req.ID, "path", req.Path)
		return InternalError()
	}
}

// dispatch runs the first route matching the path, or the fallback.
func (st *settings) dispatch(req *Request, span trace.Span) Result {
	handler, pattern, found := st.routes.match(req.Path)
	if !found {
		return st.fallback.ServeHTTP(req)
	}

	span.SetAttributes(attrRoute.String(pattern))
	return handler.ServeHTTP(req)
}
