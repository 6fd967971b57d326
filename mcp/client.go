package mcp

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentmesh/gatekit/auth"
	"github.com/agentmesh/gatekit/errors"
	"github.com/agentmesh/gatekit/logger"
	"github.com/agentmesh/gatekit/observability"
	"github.com/agentmesh/gatekit/resilience"
	"github.com/agentmesh/gatekit/validation"
)

// serviceState is the per-service resilience state. Each service gets its
// own breaker, limiter, and bulkhead; misbehavior in one service never
// affects another.
type serviceState struct {
	def      ServiceDefinition
	breaker  *resilience.CircuitBreaker
	limiter  *resilience.RateLimiter
	bulkhead *resilience.Bulkhead
	policy   resilience.RetryPolicy
}

// Client dispatches requests to configured services through per-service
// auth, rate limiting, circuit breaking, and retry. It is safe for
// concurrent use. Service definitions are fixed at construction.
type Client struct {
	states  map[string]*serviceState
	invoker Invoker
	auth    *auth.Manager
	sink    EventSink
	metrics *observability.GatewayMetrics
	log     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithInvoker overrides the transport. The default is an HTTPInvoker on
// http.DefaultClient.
func WithInvoker(inv Invoker) Option {
	return func(c *Client) { c.invoker = inv }
}

// WithAuthManager overrides the auth manager, for custom token TTL or a
// test clock.
func WithAuthManager(m *auth.Manager) Option {
	return func(c *Client) { c.auth = m }
}

// WithEventSink installs a lifecycle event sink.
func WithEventSink(sink EventSink) Option {
	return func(c *Client) { c.sink = sink }
}

// WithMetrics installs gateway metrics instruments.
func WithMetrics(m *observability.GatewayMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger overrides the client logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a client over the given service definitions. Definitions are
// validated and defaulted up front; an invalid definition fails
// construction rather than the first request.
func New(services map[string]ServiceDefinition, opts ...Option) (*Client, error) {
	c := &Client{
		states:  make(map[string]*serviceState, len(services)),
		invoker: NewHTTPInvoker(nil),
		auth:    auth.NewManager(),
		sink:    NopSink{},
		log:     logger.NewDefault("mcp.client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	for name, def := range services {
		def.ApplyDefaults()
		if err := def.Validate(name); err != nil {
			return nil, err
		}
		c.states[name] = c.newServiceState(name, def)
	}
	return c, nil
}

func (c *Client) newServiceState(name string, def ServiceDefinition) *serviceState {
	bc := def.breakerConfig(name)
	bc.OnStateChange = func(service string, from, to resilience.State) {
		c.log.WithService(service).Warn("circuit breaker state change", logger.Fields(
			logger.FieldCircuitState, to.String(),
			"from", from.String(),
		))
		c.sink.CircuitStateChanged(service, from.String(), to.String())
		if c.metrics != nil {
			c.metrics.RecordCircuitTransition(context.Background(), service, from.String(), to.String())
		}
	}

	lc := def.limiterConfig(name)
	lc.OnLimit = func(service string) {
		c.sink.RateLimited(service)
		if c.metrics != nil {
			c.metrics.RecordRateLimited(context.Background(), service)
		}
	}

	st := &serviceState{
		def:     def,
		breaker: resilience.NewCircuitBreaker(bc),
		limiter: resilience.NewRateLimiter(lc),
		policy:  def.retryPolicy(),
	}
	if def.MaxConcurrent > 0 {
		st.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          name,
			MaxConcurrent: def.MaxConcurrent,
		})
	}
	return st
}

// Do executes one request through the full pipeline. The returned error is
// non-nil only for caller mistakes (blank service or operation, unknown
// service, unsupported auth type); every remote outcome, including
// admission refusals, comes back as a Response with Success false and a
// populated Error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	st, ok := c.states[req.Service]
	if !ok {
		return nil, errors.ServiceNotConfigured(req.Service)
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanGatewayRequest,
		trace.WithAttributes(
			attribute.String(observability.AttrService, req.Service),
			attribute.String(observability.AttrOperation, req.Operation),
			attribute.String(observability.AttrRequestID, req.ID),
			attribute.String(observability.AttrCorrelationID, req.Metadata.CorrelationID),
			attribute.String(observability.AttrAgentID, req.Metadata.AgentID),
		))
	defer span.End()
	if c.metrics != nil {
		c.metrics.RecordRequestStart(ctx)
	}

	resp, err := c.do(ctx, st, req, start)

	status := "error"
	retries := 0
	if err == nil {
		retries = resp.Metadata.RetryCount
		if resp.Success {
			status = "success"
		} else {
			status = string(resp.Error.Code)
		}
	}
	duration := time.Since(start)
	span.SetAttributes(
		attribute.String(observability.AttrStatus, status),
		attribute.Int(observability.AttrRetryCount, retries),
		attribute.Int64(observability.AttrDurationMs, duration.Milliseconds()),
	)
	if err != nil {
		observability.SetSpanError(ctx, err)
	} else if !resp.Success {
		observability.SetSpanError(ctx, resp.Error)
	}
	if c.metrics != nil {
		c.metrics.RecordRequestEnd(ctx, req.Service, req.Operation, status, retries, duration)
	}
	if err == nil {
		c.sink.RequestRecorded(req.Service, req.Operation, resp.Success, retries, duration)
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, st *serviceState, req *Request, start time.Time) (*Response, error) {
	log := c.log.WithService(req.Service).WithFields(logger.Fields(
		logger.FieldOperation, req.Operation,
		logger.FieldRequestID, req.ID,
	))

	// Admission gates run before any transport work. A refusal counts
	// neither as a breaker failure nor against the retry budget. A call
	// refused after breaker admission must hand its half-open trial slot
	// back, or a single rate-limited trial would wedge the breaker.
	if !st.breaker.Allow() {
		log.Warn("request refused, circuit open")
		return failureResponse(req, errors.CircuitOpen(req.Service), 0, time.Since(start)), nil
	}
	if !st.limiter.Allow() {
		st.breaker.ReleaseTrial()
		log.Warn("request refused, rate limited")
		return failureResponse(req, errors.RateLimited(req.Service), 0, time.Since(start)), nil
	}

	headers, err := c.auth.Headers(req.Service, st.def.Auth)
	if err != nil {
		st.breaker.ReleaseTrial()
		return nil, err
	}

	if st.bulkhead != nil {
		if err := st.bulkhead.Acquire(ctx); err != nil {
			st.breaker.ReleaseTrial()
			log.Warn("request refused, too many concurrent calls")
			appErr := errors.New(errors.ErrCodeMCP,
				fmt.Sprintf("Too many concurrent requests for service %s", req.Service))
			return failureResponse(req, appErr, 0, time.Since(start)), nil
		}
		defer st.bulkhead.Release()
	}

	data, attempts, attemptErr := c.attempt(ctx, st, req, headers, log)
	retries := attempts - 1
	if attemptErr == nil {
		st.breaker.RecordSuccess()
		log.Debug("request succeeded", logger.Fields(logger.FieldRetryCount, retries))
		return successResponse(req, data, retries, time.Since(start)), nil
	}

	// One terminal outcome per request, however many attempts it took.
	st.breaker.RecordFailure()
	appErr := normalizeTransportError(attemptErr)
	log.WithError(attemptErr).Error("request failed", logger.Fields(logger.FieldRetryCount, retries))
	return failureResponse(req, appErr, retries, time.Since(start)), nil
}

// attempt runs the retry loop and returns the result data, the number of
// attempts made, and the last error.
func (c *Client) attempt(ctx context.Context, st *serviceState, req *Request, headers map[string]string, log *logger.Logger) (any, int, error) {
	timeout := st.def.Timeout
	if req.Metadata.Timeout > 0 {
		timeout = req.Metadata.Timeout
	}

	var lastErr error
	for attempt := 1; attempt <= st.policy.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		data, err := c.invoker.Invoke(attemptCtx, st.def.Endpoint, req.Operation, headers, req.Parameters)
		cancel()
		if err == nil {
			return data, attempt, nil
		}
		lastErr = err
		if attempt == st.policy.MaxAttempts {
			return nil, attempt, lastErr
		}
		delay := st.policy.Delay(attempt)
		log.WithError(err).Warn("attempt failed, retrying", logger.Fields(
			logger.FieldAttempt, attempt,
			"delay", delay.String(),
		))
		if err := resilience.Sleep(ctx, delay); err != nil {
			// Caller gave up; stop retrying and surface the last failure.
			return nil, attempt, lastErr
		}
	}
	return nil, st.policy.MaxAttempts, lastErr
}

// validateRequest rejects requests that name no target. Everything else
// about a request is the backend's business.
func validateRequest(req *Request) error {
	v := validation.New()
	v.Required("service", req.Service)
	v.Required("operation", req.Operation)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// normalizeTransportError maps a transport failure to the client error
// contract.
func normalizeTransportError(err error) *errors.AppError {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	var te *TransportError
	if stderrors.As(err, &te) && te.Status > 0 {
		return errors.TransportFailure(te.Error(), err).WithDetails(map[string]any{
			"status":      te.Status,
			"status_text": te.StatusText,
			"data":        te.Data,
		})
	}
	// Timed-out and connection-level failures stay ErrCodeMCP like every
	// other transport failure; the cause classification lands in the
	// detail bag.
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.TransportFailure(err.Error(), err).
			WithDetail("classification", string(errors.ErrCodeTimeout))
	}
	if stderrors.As(err, &te) {
		// A TransportError without an HTTP status never got a response.
		return errors.TransportFailure(te.Error(), err).
			WithDetail("classification", string(errors.ErrCodeConnectionFailed))
	}
	return errors.TransportFailure(err.Error(), err)
}

// ServiceDefinition returns the definition for a service after defaulting.
func (c *Client) ServiceDefinition(service string) (ServiceDefinition, error) {
	st, ok := c.states[service]
	if !ok {
		return ServiceDefinition{}, errors.ServiceNotConfigured(service)
	}
	return st.def, nil
}

// Services lists the configured service names.
func (c *Client) Services() []string {
	names := make([]string, 0, len(c.states))
	for name := range c.states {
		names = append(names, name)
	}
	return names
}

// CircuitBreakerState reports the breaker snapshot for a service.
func (c *Client) CircuitBreakerState(service string) (resilience.Snapshot, bool) {
	st, ok := c.states[service]
	if !ok {
		return resilience.Snapshot{}, false
	}
	return st.breaker.Snapshot(), true
}

// RateLimitStatus reports the token bucket status for a service.
func (c *Client) RateLimitStatus(service string) (resilience.RateLimitStatus, bool) {
	st, ok := c.states[service]
	if !ok {
		return resilience.RateLimitStatus{}, false
	}
	return st.limiter.Status(), true
}

// ResetCircuitBreaker forces a service breaker back to closed.
func (c *Client) ResetCircuitBreaker(service string) bool {
	st, ok := c.states[service]
	if !ok {
		return false
	}
	st.breaker.Reset()
	return true
}

// Health reports gateway health from the per-service breaker states. An
// open breaker marks that backend degraded; the gateway itself stays up as
// long as it has services configured.
func (c *Client) Health(version string) observability.ServiceHealth {
	sh := observability.NewServiceHealth("gateway", version)
	if len(c.states) == 0 {
		sh.Status = observability.HealthStatusDown
		return *sh
	}
	for name, st := range c.states {
		snap := st.breaker.Snapshot()
		h := observability.Health{
			Name:   name,
			Status: observability.HealthStatusUp,
			Details: map[string]string{
				"circuit_state": snap.State.String(),
			},
		}
		if snap.State == resilience.StateOpen {
			h.Status = observability.HealthStatusDegraded
			h.Message = fmt.Sprintf("circuit breaker open for service %s", name)
		}
		sh.AddComponent(h)
	}
	return *sh
}

// HealthCheck reports whether the gateway can serve requests.
func (c *Client) HealthCheck(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}
	h := c.Health("")
	return h.Healthy()
}

// AuthHeaders resolves the outbound auth headers for a service without
// sending a request.
func (c *Client) AuthHeaders(service string) (map[string]string, error) {
	st, ok := c.states[service]
	if !ok {
		return nil, errors.ServiceNotConfigured(service)
	}
	return c.auth.Headers(service, st.def.Auth)
}

// ValidateAuthConfig reports the problems with an auth configuration.
func (c *Client) ValidateAuthConfig(cfg auth.Config) []string {
	return cfg.Validate()
}

// RefreshOAuth2Token refreshes the cached OAuth2 token for a service.
func (c *Client) RefreshOAuth2Token(service string) auth.RefreshResult {
	st, ok := c.states[service]
	if !ok {
		return auth.RefreshResult{Error: errors.ServiceNotConfigured(service)}
	}
	return c.auth.RefreshToken(service, st.def.Auth)
}

// TokenInfo reports the cached token state for a service.
func (c *Client) TokenInfo(service string) auth.TokenInfo {
	return c.auth.TokenInfo(service)
}

// ClearTokenCache drops cached tokens for the named services, or all
// services when none are named.
func (c *Client) ClearTokenCache(services ...string) {
	c.auth.ClearTokenCache(services...)
}
