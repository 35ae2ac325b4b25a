// Package occ implements connector.Connector over the backend's REST API.
package occ

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fairyhunter13/product-configurator-simulator/internal/connector"
	"github.com/fairyhunter13/product-configurator-simulator/internal/model"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
	"github.com/fairyhunter13/product-configurator-simulator/internal/overview"
)

const configuratorType = "ccpconfigurator"

// Options tunes the client. Zero values pick defaults.
type Options struct {
	// Timeout bounds each call, on top of the caller's context.
	Timeout time.Duration
	// BreakerFailures is the number of consecutive transport or 5xx failures
	// that open the circuit.
	BreakerFailures int
	// BreakerOpen is how long the circuit stays open before probing.
	BreakerOpen time.Duration
	HTTPClient  *http.Client
}

// Client talks to the configurator REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[[]byte]
	overviews  *overview.Builder
}

var _ connector.Connector = (*Client)(nil)

// NewClient creates a client for baseURL. Overview documents are flattened
// with b.
func NewClient(baseURL string, b *overview.Builder, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BreakerFailures <= 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerOpen <= 0 {
		opts.BreakerOpen = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	failures := uint32(opts.BreakerFailures)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "occ",
		Timeout: opts.BreakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			obs.Logger.Warn("circuit_breaker_state", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		httpClient: hc,
		baseURL:    baseURL,
		timeout:    opts.Timeout,
		breaker:    cb,
		overviews:  b,
	}
}

// isSuccessful keeps client side failures (4xx, caller cancellation) from
// tripping the breaker.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var re *connector.RemoteError
	if errors.As(err, &re) && re.Status > 0 && re.Status < http.StatusInternalServerError {
		return true
	}
	return false
}

func (c *Client) CreateConfiguration(ctx context.Context, productCode string, owner model.Owner) (model.Configuration, error) {
	var resp Configuration
	path := fmt.Sprintf("/products/%s/configurators/%s", url.PathEscape(productCode), configuratorType)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return model.Configuration{}, fmt.Errorf("create configuration: %w", err)
	}
	return Normalize(resp, owner), nil
}

func (c *Client) ReadConfiguration(ctx context.Context, configID, groupID string, owner model.Owner) (model.Configuration, error) {
	var resp Configuration
	path := fmt.Sprintf("/%s/%s", configuratorType, url.PathEscape(configID))
	if groupID != "" {
		path += "?groupId=" + url.QueryEscape(groupID)
	}
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return model.Configuration{}, fmt.Errorf("read configuration: %w", err)
	}
	return Normalize(resp, owner), nil
}

func (c *Client) UpdateConfiguration(ctx context.Context, cfg model.Configuration) (model.Configuration, error) {
	var resp Configuration
	path := fmt.Sprintf("/%s/%s", configuratorType, url.PathEscape(cfg.ConfigID))
	if err := c.doRequest(ctx, http.MethodPatch, path, Serialize(cfg), &resp); err != nil {
		return model.Configuration{}, fmt.Errorf("update configuration: %w", err)
	}
	return Normalize(resp, cfg.Owner), nil
}

// ReadPriceSummary returns cfg with its price summary replaced.
func (c *Client) ReadPriceSummary(ctx context.Context, cfg model.Configuration) (model.Configuration, error) {
	var resp Prices
	path := fmt.Sprintf("/%s/%s/pricing", configuratorType, url.PathEscape(cfg.ConfigID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return model.Configuration{}, fmt.Errorf("read price summary: %w", err)
	}
	out := cfg.Clone()
	out.PriceSummary = resp.PriceSummary
	return out, nil
}

// GetConfigurationOverview returns the flattened overview once its labels
// are final.
func (c *Client) GetConfigurationOverview(ctx context.Context, configID string) (*overview.Result, error) {
	var resp overview.Source
	path := fmt.Sprintf("/%s/%s/configurationOverview", configuratorType, url.PathEscape(configID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get configuration overview: %w", err)
	}
	return c.overviews.Build(ctx, resp), nil
}

func (c *Client) AddToCart(ctx context.Context, p model.AddToCartParameters) (model.CartModification, error) {
	var resp CartModification
	path := fmt.Sprintf("/users/%s/carts/%s/entries/%s", url.PathEscape(p.UserID), url.PathEscape(p.CartID), configuratorType)
	body := AddToCartRequest{
		UserID:   p.UserID,
		CartID:   p.CartID,
		Product:  Product{Code: p.ProductCode},
		Quantity: p.Quantity,
		ConfigID: p.ConfigID,
	}
	if err := c.doRequest(ctx, http.MethodPost, path, body, &resp); err != nil {
		return model.CartModification{}, fmt.Errorf("add to cart: %w", err)
	}
	return normalizeCartModification(resp), nil
}

func (c *Client) UpdateConfigurationForCartEntry(ctx context.Context, p model.UpdateForCartEntryParameters) (model.CartModification, error) {
	var resp CartModification
	path := fmt.Sprintf("/users/%s/carts/%s/entries/%s/%s",
		url.PathEscape(p.UserID), url.PathEscape(p.CartID), url.PathEscape(p.CartEntryNumber), configuratorType)
	body := UpdateCartEntryRequest{
		UserID:        p.UserID,
		CartID:        p.CartID,
		EntryNumber:   p.CartEntryNumber,
		Configuration: Serialize(p.Configuration),
	}
	if err := c.doRequest(ctx, http.MethodPut, path, body, &resp); err != nil {
		return model.CartModification{}, fmt.Errorf("update cart entry: %w", err)
	}
	return normalizeCartModification(resp), nil
}

func (c *Client) ReadConfigurationForCartEntry(ctx context.Context, p model.ReadFromCartEntryParameters) (model.Configuration, error) {
	var resp Configuration
	path := fmt.Sprintf("/users/%s/carts/%s/entries/%s/%s",
		url.PathEscape(p.UserID), url.PathEscape(p.CartID), url.PathEscape(p.CartEntryNumber), configuratorType)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return model.Configuration{}, fmt.Errorf("read cart entry configuration: %w", err)
	}
	return Normalize(resp, p.Owner), nil
}

// doRequest performs one call through the circuit breaker and decodes the
// answer into result.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, body)
	})
	if err != nil {
		var re *connector.RemoteError
		if errors.As(err, &re) {
			return re
		}
		// open or half-open breaker rejected the call
		return &connector.RemoteError{Err: err}
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &connector.RemoteError{Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, &connector.RemoteError{Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, &connector.RemoteError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &connector.RemoteError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &connector.RemoteError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &connector.RemoteError{Status: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}
