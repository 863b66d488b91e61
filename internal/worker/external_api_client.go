package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Lutefd/exchange-symbols/internal/commons"
	"github.com/Lutefd/exchange-symbols/internal/logger"
	"github.com/Lutefd/exchange-symbols/internal/model"
)

type APILayerClient struct {
	apiKey  string
	url     string
	timeout time.Duration
	client  *http.Client
}

var _ SymbolsClient = (*APILayerClient)(nil)

type Option func(*APILayerClient)

func WithHTTPClient(client *http.Client) Option {
	return func(c *APILayerClient) {
		c.client = client
	}
}

func NewAPILayerClient(config commons.Config, opts ...Option) *APILayerClient {
	c := &APILayerClient{
		apiKey:  config.APIKey,
		url:     config.SymbolsURL(),
		timeout: config.RequestTimeout,
		client:  NewHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *APILayerClient) FetchSymbols(ctx context.Context) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(commons.APIKeyHeader, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrTransport, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Errorf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logger.Errorf("symbols request to %s failed with status code: %d", c.url, resp.StatusCode)
		return "", &model.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %w", model.ErrTransport, err)
	}

	return string(body), nil
}

// Close releases the pooled connections held by the underlying transport.
func (c *APILayerClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
