package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/servicebay-dev/servicebay/pkg/token"
)

// Refresher performs one token refresh and returns the renewed pair.
// The returned pair must already be persisted when Refresh returns, so
// a replayed request observes the new credentials. The auth controller
// implements this with de-duplication of concurrent attempts.
type Refresher interface {
	Refresh(ctx context.Context) (token.Pair, error)
}

// Navigator is invoked when a failed call ends the session and the
// application should move to the login view.
type Navigator func(path string)

// loginPath is where the navigator is pointed after an unrecoverable
// authorization failure.
const loginPath = "/login"

// Transport is an http.RoundTripper that attaches bearer credentials
// and performs the one-shot refresh-and-retry described in the package
// comment. Wrap it in an http.Client and use that client for every
// authenticated API call.
type Transport struct {
	base      http.RoundTripper
	store     token.Store
	refresher Refresher
	navigate  Navigator
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

// Option configures a Transport.
type Option func(*Transport)

// WithBase sets the underlying RoundTripper. Default: http.DefaultTransport.
func WithBase(rt http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = rt
	}
}

// WithNavigator sets the redirect hook for session-ending failures.
func WithNavigator(nav Navigator) Option {
	return func(t *Transport) {
		t.navigate = nav
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation of requests, retries
// and refresh outcomes.
func WithMetrics(m *Metrics) Option {
	return func(t *Transport) {
		t.metrics = m
	}
}

// WithTracing enables an OpenTelemetry span per request using the
// global tracer provider.
func WithTracing(tracerName string) Option {
	return func(t *Transport) {
		if tracerName == "" {
			tracerName = "servicebay"
		}
		t.tracer = otel.Tracer(tracerName)
	}
}

// New creates a Transport reading credentials from store and recovering
// expired access tokens through refresher.
func New(store token.Store, refresher Refresher, opts ...Option) *Transport {
	t := &Transport{
		base:      http.DefaultTransport,
		store:     store,
		refresher: refresher,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var span trace.Span
	if t.tracer != nil {
		ctx, span = t.tracer.Start(ctx, "servicebay.client.request", trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
		))
		defer span.End()
	}

	out := req.Clone(ctx)
	if pair, ok, err := t.store.Load(); err == nil && ok {
		out.Header.Set("Authorization", "Bearer "+pair.Access)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(out)
	t.observe(req.Method, resp, err, time.Since(start))
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || isTokenEndpoint(req) {
		if span != nil {
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		}
		return resp, nil
	}

	return t.refreshAndRetry(ctx, req, resp, span)
}

// refreshAndRetry handles a 401 on a non-exempt request: one refresh,
// one replay. The original 401 response is returned unchanged whenever
// recovery is not possible.
func (t *Transport) refreshAndRetry(ctx context.Context, orig *http.Request, failed *http.Response, span trace.Span) (*http.Response, error) {
	pair, ok, err := t.store.Load()
	if err != nil || !ok || pair.Refresh == "" {
		// Nothing to refresh with: the session is over.
		t.logger.Debug("401 with no refresh token, clearing session", "path", orig.URL.Path)
		t.endSession()
		return failed, nil
	}

	retry, replayable := cloneForRetry(ctx, orig)
	if !replayable {
		// The request body was streamed and cannot be rebuilt, so the
		// replay contract cannot be honored. Hand the 401 back.
		t.logger.Debug("401 on non-replayable request", "path", orig.URL.Path)
		return failed, nil
	}

	if span != nil {
		span.AddEvent("token.refresh")
	}
	fresh, refreshErr := t.refresher.Refresh(ctx)
	if refreshErr != nil {
		if t.metrics != nil {
			t.metrics.refreshTotal.WithLabelValues("failure").Inc()
		}
		if span != nil {
			span.RecordError(refreshErr)
			span.SetStatus(codes.Error, "token refresh failed")
		}
		// The refresher already tore the session down; clearing again
		// is a no-op that keeps this path self-contained.
		t.endSession()
		drain(failed)
		return nil, refreshErr
	}
	if t.metrics != nil {
		t.metrics.refreshTotal.WithLabelValues("success").Inc()
		t.metrics.retriesTotal.Inc()
	}

	drain(failed)
	retry.Header.Set("Authorization", "Bearer "+fresh.Access)
	if span != nil {
		span.AddEvent("request.replay")
	}
	t.logger.Debug("replaying request with refreshed token", "method", orig.Method, "path", orig.URL.Path)

	start := time.Now()
	resp, err := t.base.RoundTrip(retry)
	t.observe(orig.Method, resp, err, time.Since(start))
	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		}
	}
	return resp, err
}

func (t *Transport) endSession() {
	if err := t.store.Clear(); err != nil {
		t.logger.Warn("failed to clear token store", "error", err)
	}
	if t.navigate != nil {
		t.navigate(loginPath)
	}
}

func (t *Transport) observe(method string, resp *http.Response, err error, elapsed time.Duration) {
	if t.metrics == nil {
		return
	}
	code := "error"
	if err == nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	t.metrics.requestsTotal.WithLabelValues(method, code).Inc()
	t.metrics.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// isTokenEndpoint reports whether the request targets token issuance or
// refresh. Those endpoints are unauthenticated by nature and exempt
// from the 401-retry contract.
func isTokenEndpoint(req *http.Request) bool {
	return strings.Contains(req.URL.Path, "/token/")
}

// cloneForRetry builds a second copy of a request, rebuilding the body
// through GetBody. Requests whose bodies cannot be rebuilt are not
// replayable.
func cloneForRetry(ctx context.Context, req *http.Request) (*http.Request, bool) {
	clone := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}

// drain discards an abandoned response body so the underlying
// connection can be reused.
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
}
