// Package api is the HTTP transport for the registration backend.
//
// Every endpoint is exposed as a factory returning a Request whose Do
// performs exactly one HTTP call. Layers above treat Do as an opaque
// fetch or write function.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/tracing"
)

const maxErrorBody = 4 << 10

// Request is one prepared call.
type Request[T any] struct {
	Method string
	Path   string
	Do     func(ctx context.Context) (T, error)
}

// Error is a non-2xx response.
type Error struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client builds requests against one backend.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient validates cfg and returns a client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https, got %q", cfg.BaseURL)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	c := &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetHospitals lists hospitals.
func (c *Client) GetHospitals(params *PaginationParams) Request[HospitalsResponse] {
	q := url.Values{}
	if params != nil {
		setInt(q, "offset", params.Offset)
		setInt(q, "limit", params.Limit)
	}
	return newRequest[HospitalsResponse](c, http.MethodGet, "/hospitals/", q, nil)
}

// GetHospital fetches one hospital.
func (c *Client) GetHospital(id string) Request[Hospital] {
	return newRequest[Hospital](c, http.MethodGet, "/hospitals/"+url.PathEscape(id)+"/", nil, nil)
}

// GetPatients lists patients of one hospital.
func (c *Client) GetPatients(params PatientsParams) Request[PatientsResponse] {
	q := url.Values{}
	setString(q, "hospital_id", params.HospitalID)
	setInt(q, "offset", params.Offset)
	setInt(q, "limit", params.Limit)
	setString(q, "search_term", params.SearchTerm)
	setString(q, "ordering", params.Ordering)
	return newRequest[PatientsResponse](c, http.MethodGet, "/patients/", q, nil)
}

// GetPatient fetches one patient.
func (c *Client) GetPatient(id string) Request[Patient] {
	return newRequest[Patient](c, http.MethodGet, "/patients/"+url.PathEscape(id)+"/", nil, nil)
}

// RegisterPatient creates a patient.
func (c *Client) RegisterPatient(payload RegisterPatientPayload) Request[Patient] {
	return newRequest[Patient](c, http.MethodPost, "/patients/", nil, payload)
}

func setInt(q url.Values, name string, v *int) {
	if v != nil {
		q.Set(name, strconv.Itoa(*v))
	}
}

func setString(q url.Values, name string, v *string) {
	if v != nil {
		q.Set(name, *v)
	}
}

func newRequest[T any](c *Client, method, path string, query url.Values, body any) Request[T] {
	return Request[T]{
		Method: method,
		Path:   path,
		Do: func(ctx context.Context) (T, error) {
			var out T
			err := c.do(ctx, method, path, query, body, &out)
			return out, err
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (err error) {
	requestID := uuid.NewString()
	ctx, span := tracing.Start(ctx, tracing.SpanAPIRequest,
		attribute.String(tracing.AttrHTTPMethod, method),
		attribute.String(tracing.AttrHTTPPath, path),
		attribute.String(tracing.AttrRequestID, requestID),
	)
	defer func() { tracing.End(span, err) }()

	u := *c.baseURL
	u.Path += path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.ErrorErr(log.CatAPI, "request failed", err, "method", method, "path", path, "request_id", requestID)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode))
	log.Debug(log.CatAPI, "response", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
