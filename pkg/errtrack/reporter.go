package errtrack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

const flushTimeout = 2 * time.Second

// Reporter forwards unexpected failures to Sentry. A nil Reporter is a no-op.
type Reporter struct {
	enabled bool
}

// Options tweaks the sentry client; BeforeSend is mainly useful for tests.
type Options struct {
	Environment string
	Release     string
	BeforeSend  func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event
}

// New initialises the global Sentry hub when a DSN is configured.
func New(cfg config.SentryConfig, opts Options) (*Reporter, error) {
	if !cfg.Enabled() {
		return &Reporter{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		BeforeSend:       opts.BeforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return &Reporter{enabled: true}, nil
}

// Enabled reports whether events leave the process.
func (r *Reporter) Enabled() bool {
	return r != nil && r.enabled
}

// Capture sends err using the request-scoped hub when one is attached to ctx.
func (r *Reporter) Capture(ctx context.Context, err error, tags map[string]string) {
	if !r.Enabled() || err == nil {
		return
	}
	hub := sentry.CurrentHub()
	if ctx != nil {
		if scoped := sentry.GetHubFromContext(ctx); scoped != nil {
			hub = scoped
		}
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// Middleware attaches a per-request hub and re-panics so the recoverer still renders a response.
func (r *Reporter) Middleware() func(http.Handler) http.Handler {
	if !r.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	handler := sentryhttp.New(sentryhttp.Options{
		Repanic:         true,
		WaitForDelivery: false,
	})
	return handler.Handle
}

// Flush blocks until buffered events are delivered or the timeout elapses.
func (r *Reporter) Flush() {
	if !r.Enabled() {
		return
	}
	sentry.Flush(flushTimeout)
}

// CaptureRequest reports err through the hub the middleware attached to ctx.
// Requests served without Sentry carry no hub and are skipped.
func CaptureRequest(ctx context.Context, err error, tags map[string]string) {
	if ctx == nil || err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}
