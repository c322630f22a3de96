// Package transport is the outbound HTTP adapter. It attaches bearer
// credentials, performs the network call, and classifies every outcome
// into exactly one error kind. User-visible side effects (notification,
// forced session termination on 401) run through an injected Hooks
// dispatcher once per failed call, before the error reaches the caller.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lumenmarket/storefront-client/pkg/apierrors"
	"github.com/lumenmarket/storefront-client/pkg/logger"
	"github.com/lumenmarket/storefront-client/pkg/metrics"
	"github.com/lumenmarket/storefront-client/pkg/storage"
)

// Hooks receives the side effects the adapter owns. Callers must not
// duplicate notification for errors already dispatched here.
type Hooks interface {
	// Notify surfaces a user-visible message for a failed call.
	Notify(ctx context.Context, message string)
	// SessionExpired fires after a 401 response, before the error
	// returns to the caller.
	SessionExpired(ctx context.Context)
}

// NopHooks discards all side effects.
type NopHooks struct{}

func (NopHooks) Notify(context.Context, string) {}
func (NopHooks) SessionExpired(context.Context) {}

// Options configures the adapter.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Store   storage.Store
	Hooks   Hooks
	Logger  *logger.Logger
	Metrics *metrics.RequestMetrics
	// Dev exposes server error detail in 500 notifications.
	Dev bool
	// HTTPClient overrides the underlying client; tests only.
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	http    *http.Client
	store   storage.Store
	hooks   Hooks
	log     *logger.Logger
	metrics *metrics.RequestMetrics
	dev     bool
}

const defaultTimeout = 10 * time.Second

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base url required")
	}
	if opts.Store == nil {
		return nil, errors.New("storage required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		store:   opts.Store,
		hooks:   hooks,
		log:     opts.Logger,
		metrics: opts.Metrics,
		dev:     opts.Dev,
	}, nil
}

// Get issues a GET request. A nil out discards the payload.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE request, optionally with a JSON body (used by
// the batch cart endpoint).
func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	requestID := uuid.NewString()
	ctx = c.log.WithRequestID(ctx, requestID)

	target, err := c.buildURL(path, query)
	if err != nil {
		return c.fail(ctx, method, apierrors.Wrap(apierrors.KindRequest, err, "invalid request path"))
	}

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return c.fail(ctx, method, apierrors.Wrap(apierrors.KindRequest, err, "encode request body"))
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return c.fail(ctx, method, apierrors.Wrap(apierrors.KindRequest, err, "build request"))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveDuration(method, time.Since(start))
	if err != nil {
		return c.fail(ctx, method, apierrors.Wrap(apierrors.KindNetwork, err, "network connection failed, check the backend service"))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(ctx, method, apierrors.Wrap(apierrors.KindNetwork, err, "read response body"))
	}

	data, apiErr := classify(resp.StatusCode, raw, c.dev)
	if apiErr != nil {
		return c.fail(ctx, method, apiErr)
	}

	c.metrics.IncOutcome(method, "success")
	c.log.Debug(c.log.WithField(ctx, "status", resp.StatusCode), "request completed")

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return apierrors.Wrap(apierrors.KindRequest, err, "decode response payload")
		}
	}
	return nil
}

// fail dispatches the side effects for a classified error exactly once
// and hands the error back to the caller.
func (c *Client) fail(ctx context.Context, method string, apiErr *apierrors.Error) error {
	c.metrics.IncOutcome(method, string(apiErr.Kind()))
	c.log.Error(c.log.WithField(ctx, "kind", string(apiErr.Kind())), "request failed", apiErr)
	c.hooks.Notify(ctx, apiErr.Message())
	if apiErr.Status() == http.StatusUnauthorized {
		c.hooks.SessionExpired(ctx)
	}
	return apiErr
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	return target.String(), nil
}

func (c *Client) token(ctx context.Context) string {
	token, err := c.store.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.log.Warn(ctx, "reading access token: "+err.Error())
		}
		return ""
	}
	return token
}
