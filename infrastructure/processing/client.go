// Package processing provides the HTTP client for the external document
// processing service: structure metadata loads and organize commits.
package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
	"github.com/felixgeelhaar/arrange-go/domain/telemetry"
	"github.com/felixgeelhaar/arrange-go/infrastructure/logging"
	"github.com/felixgeelhaar/arrange-go/infrastructure/observability"
	"github.com/felixgeelhaar/arrange-go/infrastructure/resilience"
)

const maxBodySize = 4 << 20

// Config configures the processing client.
type Config struct {
	// BaseURL is the service root.
	BaseURL string

	// Token is sent as a bearer token when set.
	Token string

	// ClientID is sent in the X-Client-ID header when set.
	ClientID string

	// UserAgent is the User-Agent header value.
	UserAgent string

	// Endpoints holds the per-kind paths; missing kinds use DefaultEndpoints.
	Endpoints map[session.Kind]Endpoints

	// Resilience configures bulkhead, breaker, retry and timeout.
	Resilience resilience.ExecutorConfig
}

// DefaultConfig returns a configuration for a local service.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8000",
		UserAgent:  "arrange-go/1.0",
		Resilience: resilience.DefaultExecutorConfig(),
	}
}

// Client implements structure.Loader and structure.Organizer over HTTP.
type Client struct {
	config    Config
	http      *http.Client
	tracer    telemetry.Tracer
	loads     *resilience.Executor[structure.Structure]
	organizes *resilience.Executor[structure.Output]
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTracer sets the tracer for service calls.
func WithTracer(t telemetry.Tracer) Option {
	return func(cl *Client) {
		if t != nil {
			cl.tracer = t
		}
	}
}

// New creates a processing client.
func New(config Config, opts ...Option) *Client {
	if config.UserAgent == "" {
		config.UserAgent = "arrange-go/1.0"
	}
	resCfg := config.Resilience
	resCfg.Apply(resilience.WithNonRetryable(structure.ErrRejected, structure.ErrInvalidStructure))

	c := &Client{
		config:    config,
		http:      &http.Client{},
		tracer:    observability.NewNoopTracer(),
		loads:     resilience.NewExecutor[structure.Structure](resCfg),
		organizes: resilience.NewExecutor[structure.Output](resCfg),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoints(kind session.Kind) Endpoints {
	if ep, ok := c.config.Endpoints[kind]; ok {
		return ep
	}
	return DefaultEndpoints(kind)
}

// Load implements structure.Loader. Loads are retried on transient failures.
func (c *Client) Load(ctx context.Context, doc session.Document) (structure.Structure, error) {
	if err := doc.Validate(); err != nil {
		return structure.Structure{}, err
	}
	cd, err := codecFor(doc.Kind)
	if err != nil {
		return structure.Structure{}, err
	}
	ep := c.endpoints(doc.Kind)
	target, err := ep.structureURL(c.config.BaseURL, doc.Ref)
	if err != nil {
		return structure.Structure{}, err
	}

	ctx, span := c.tracer.StartSpan(ctx, "processing.load",
		telemetry.WithSpanKind(telemetry.SpanKindClient),
		telemetry.WithAttributes(
			telemetry.String("document.ref", doc.Ref),
			telemetry.String("document.kind", string(doc.Kind)),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := c.loads.Execute(ctx, true, func(ctx context.Context) (structure.Structure, error) {
		body, err := c.do(ctx, http.MethodGet, target, nil)
		if err != nil {
			return structure.Structure{}, err
		}
		total, infos, err := cd.decodeStructure(body, ep)
		if err != nil {
			return structure.Structure{}, err
		}
		s := structure.Structure{Document: doc, TotalElements: total, Elements: infos}
		if err := s.Validate(); err != nil {
			return structure.Structure{}, err
		}
		return s, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(telemetry.StatusCodeError, err.Error())
		logging.Warn().
			Add(logging.Component("processing")).
			Add(logging.Operation("load")).
			Add(logging.Document(doc)).
			Add(logging.ErrorField(err)).
			Msg("structure load failed")
		return structure.Structure{}, err
	}

	span.SetAttributes(telemetry.Int("elements", result.TotalElements))
	span.SetStatus(telemetry.StatusCodeOK, "")
	logging.Debug().
		Add(logging.Component("processing")).
		Add(logging.Operation("load")).
		Add(logging.Document(doc)).
		Add(logging.Count(result.TotalElements)).
		Add(logging.Duration(time.Since(start))).
		Msg("structure loaded")
	return result, nil
}

// Organize implements structure.Organizer. Each call creates a new
// document on the service, so it is never retried.
func (c *Client) Organize(ctx context.Context, req structure.OrganizeRequest) (structure.Output, error) {
	if err := req.Validate(); err != nil {
		return structure.Output{}, err
	}
	cd, err := codecFor(req.Document.Kind)
	if err != nil {
		return structure.Output{}, err
	}
	ep := c.endpoints(req.Document.Kind)
	target, err := ep.organizeURL(c.config.BaseURL)
	if err != nil {
		return structure.Output{}, err
	}
	payload, err := json.Marshal(cd.encodeOrganize(req, ep))
	if err != nil {
		return structure.Output{}, fmt.Errorf("failed to serialize organize request: %w", err)
	}

	ctx, span := c.tracer.StartSpan(ctx, "processing.organize",
		telemetry.WithSpanKind(telemetry.SpanKindClient),
		telemetry.WithAttributes(
			telemetry.String("document.ref", req.Document.Ref),
			telemetry.String("document.kind", string(req.Document.Kind)),
			telemetry.Int("elements", len(req.Entries)),
		),
	)
	defer span.End()

	start := time.Now()
	out, err := c.organizes.Execute(ctx, false, func(ctx context.Context) (structure.Output, error) {
		body, err := c.do(ctx, http.MethodPost, target, payload)
		if err != nil {
			return structure.Output{}, err
		}
		return decodeOutput(body)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(telemetry.StatusCodeError, err.Error())
		logging.Warn().
			Add(logging.Component("processing")).
			Add(logging.Operation("organize")).
			Add(logging.Document(req.Document)).
			Add(logging.ErrorField(err)).
			Msg("organize failed")
		return structure.Output{}, err
	}

	span.SetAttributes(telemetry.String("output.id", out.ID))
	span.SetStatus(telemetry.StatusCodeOK, "")
	logging.Info().
		Add(logging.Component("processing")).
		Add(logging.Operation("organize")).
		Add(logging.Document(req.Document)).
		Add(logging.Count(len(req.Entries))).
		Add(logging.Str("output_id", out.ID)).
		Add(logging.Duration(time.Since(start))).
		Msg("document organized")
	return out, nil
}

// do sends one request. The request is built per attempt so a retried
// call never reuses a consumed body.
func (c *Client) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	if c.config.ClientID != "" {
		req.Header.Set("X-Client-ID", c.config.ClientID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeServiceError(resp.StatusCode, data)
	}
	return data, nil
}

var (
	_ structure.Loader    = (*Client)(nil)
	_ structure.Organizer = (*Client)(nil)
)
