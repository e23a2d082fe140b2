package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/secrets"
)

const (
	// FailureStatus and FailureBody form the entry recorded for a hook that could not be reached
	FailureStatus = http.StatusInternalServerError
	FailureBody   = "error on connect"

	// TriggerHeader names the trigger on every outgoing request
	TriggerHeader = "X-Tenancy-Trigger"

	maxResponseBody = 1 << 20
)

var errNoCodec = errors.New("no encryption key configured")

// HookResponse is what one hook answered
type HookResponse struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
	Body   string `json:"body,omitempty"`
}

func failedResponse() HookResponse {
	return HookResponse{Status: FailureStatus, Body: FailureBody}
}

// Succeeded reports whether the hook answered with a non-error status
func (r HookResponse) Succeeded() bool {
	return r.URL != "" && r.Status < http.StatusBadRequest
}

// PropagationResponse carries the payload back to the caller with the hook answers.
// Propagations is nil when no hook is subscribed to the trigger.
type PropagationResponse[T any] struct {
	Payload      T              `json:"payload"`
	Propagations []HookResponse `json:"propagations,omitempty"`
}

// DispatcherConfig bounds a fan-out
type DispatcherConfig struct {
	// RequestTimeout bounds each hook call
	RequestTimeout time.Duration
	// Deadline bounds the whole dispatch; hooks still pending then are recorded as failures. Zero disables it.
	Deadline time.Duration
	// MaxConcurrency caps simultaneous calls; zero means one goroutine per hook
	MaxConcurrency int
}

// DefaultDispatcherConfig returns the defaults used by the server
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		RequestTimeout: 10 * time.Second,
	}
}

// Dispatcher propagates domain events to the hooks subscribed to them
type Dispatcher struct {
	hooks   Lister
	codec   *secrets.Codec
	client  *http.Client
	config  DispatcherConfig
	logger  *observability.Logger
	metrics *observability.Metrics
	log     *PropagationLog
}

// DispatcherOption customises a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithHTTPClient replaces the instrumented default client
func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(d *Dispatcher) { d.client = client }
}

// WithLogger sets the logger used for per-hook failures
func WithLogger(logger *observability.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMetrics enables propagation metrics
func WithMetrics(metrics *observability.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = metrics }
}

// WithPropagationLog records every call in log
func WithPropagationLog(log *PropagationLog) DispatcherOption {
	return func(d *Dispatcher) { d.log = log }
}

// NewDispatcher creates a dispatcher reading hooks from hooks and opening secrets with codec
func NewDispatcher(hooks Lister, codec *secrets.Codec, config DispatcherConfig, opts ...DispatcherOption) *Dispatcher {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultDispatcherConfig().RequestTimeout
	}
	d := &Dispatcher{
		hooks:  hooks,
		codec:  codec,
		config: config,
		logger: observability.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return d
}

// Dispatch sends payload to every active hook subscribed to trigger and waits for all of them.
// It never fails: listing errors mean no propagation, per-hook failures become entries.
func Dispatch[T any](ctx context.Context, d *Dispatcher, trigger Trigger, payload T) PropagationResponse[T] {
	return PropagationResponse[T]{
		Payload:      payload,
		Propagations: d.Propagate(ctx, trigger, payload),
	}
}

// Propagate is the untyped form of Dispatch; it returns nil when no hook matched
// or the trigger is unknown
func (d *Dispatcher) Propagate(ctx context.Context, trigger Trigger, payload interface{}) []HookResponse {
	ctx, span := observability.Tracer().Start(ctx, "webhooks.Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("webhook.trigger", trigger.String()))

	logger := observability.WithTraceContext(ctx, d.logger).WithField("trigger", trigger.String())
	if !trigger.Valid() {
		logger.Error("Refusing to dispatch unknown webhook trigger")
		span.SetStatus(codes.Error, "unknown trigger")
		return nil
	}

	hooks, err := d.hooks.ListByTrigger(ctx, trigger)
	if err != nil {
		logger.WithError(err).Error("Failed to list webhooks")
		span.RecordError(err)
		return nil
	}
	if len(hooks) == 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		// nothing can be sent; every hook gets a failure entry
		logger.WithError(err).Error("Failed to encode webhook payload")
		span.SetStatus(codes.Error, "payload encoding failed")
		out := make([]HookResponse, len(hooks))
		for i := range out {
			out[i] = failedResponse()
		}
		return out
	}

	if d.config.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Deadline)
		defer cancel()
	}

	start := time.Now()
	responses := make([]HookResponse, len(hooks))

	var g errgroup.Group
	if d.config.MaxConcurrency > 0 {
		g.SetLimit(d.config.MaxConcurrency)
	}
	for i, hook := range hooks {
		i, hook := i, hook
		g.Go(func() error {
			responses[i] = d.call(ctx, hook, trigger, body, logger)
			return nil
		})
	}
	_ = g.Wait()

	d.metrics.ObserveDispatch(trigger.String(), time.Since(start))
	span.SetAttributes(attribute.Int("webhook.count", len(hooks)))
	return responses
}

// call performs one hook request; every failure, including a panic, becomes a failure entry
func (d *Dispatcher) call(ctx context.Context, hook WebHook, trigger Trigger, body []byte, logger *observability.Logger) (resp HookResponse) {
	logger = logger.WithField("webhook_id", hook.ID.String())
	start := time.Now()

	record := func(r HookResponse, failure *DispatchError) {
		rec := PropagationRecord{
			HookID:    hook.ID,
			Trigger:   trigger,
			URL:       r.URL,
			Status:    r.Status,
			Succeeded: failure == nil && r.Succeeded(),
			Duration:  time.Since(start),
		}
		if failure != nil {
			rec.Error = failure.Error()
			logger.WithError(failure).Error("Webhook propagation failed")
		}
		d.log.Add(rec)
		d.metrics.RecordPropagation(trigger.String(), rec.Succeeded)
	}

	defer observability.RecoverPanicWithCallback(logger, "webhook propagation", func(err error) {
		resp = failedResponse()
		record(resp, &DispatchError{HookID: hook.ID, Stage: StagePanic, Err: err})
	})

	if err := ctx.Err(); err != nil {
		resp = failedResponse()
		record(resp, &DispatchError{HookID: hook.ID, Stage: StageConnect, Err: err})
		return resp
	}

	req, failure := d.buildRequest(ctx, hook, trigger, body)
	if failure != nil {
		resp = failedResponse()
		record(resp, failure)
		return resp
	}

	callCtx, cancel := context.WithTimeout(req.Context(), d.config.RequestTimeout)
	defer cancel()

	httpResp, err := d.client.Do(req.WithContext(callCtx))
	if err != nil {
		resp = failedResponse()
		record(resp, &DispatchError{HookID: hook.ID, Stage: StageConnect, Err: err})
		return resp
	}
	defer httpResp.Body.Close()

	text, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		// status arrived; an unreadable body is reported as empty
		text = nil
	}

	resp = HookResponse{
		URL:    reportedURL(httpResp.Request.URL),
		Status: httpResp.StatusCode,
		Body:   string(text),
	}
	record(resp, nil)
	return resp
}

func (d *Dispatcher) buildRequest(ctx context.Context, hook WebHook, trigger Trigger, body []byte) (*http.Request, *DispatchError) {
	req, err := http.NewRequestWithContext(ctx, trigger.Method(), hook.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &DispatchError{HookID: hook.ID, Stage: StageRequest, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TriggerHeader, trigger.String())

	if hook.Secret != nil {
		if d.codec == nil {
			return nil, &DispatchError{HookID: hook.ID, Stage: StageDecrypt, Err: errNoCodec}
		}
		secret, err := hook.Secret.Decrypt(d.codec)
		if err != nil {
			return nil, &DispatchError{HookID: hook.ID, Stage: StageDecrypt, Err: err}
		}
		secret.Apply(req)
	}
	return req, nil
}

// reportedURL keeps scheme, host, port and path; the query may hold a secret
func reportedURL(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}
