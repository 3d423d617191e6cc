package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/commsvc/call-routing-backend/pkg/logger"
)

// Provider reads secrets from a Dapr secret store through the sidecar HTTP
// API. Transient failures (sidecar not up yet, store warming) are retried
// with exponential backoff: 1s initial, doubling, capped at 30s per wait.
type Provider struct {
	baseURL    string
	store      string
	httpClient *http.Client
	maxElapsed time.Duration
}

// NewProvider creates a provider talking to the local Dapr sidecar.
func NewProvider(daprPort, storeName string) *Provider {
	return &Provider{
		baseURL:    "http://localhost:" + daprPort,
		store:      storeName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxElapsed: 2 * time.Minute,
	}
}

// NewProviderWithBaseURL is used by tests to point at a fake sidecar.
func NewProviderWithBaseURL(baseURL, storeName string) *Provider {
	p := NewProvider("0", storeName)
	p.baseURL = baseURL
	return p
}

func (p *Provider) newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = p.maxElapsed
	return backoff.WithContext(b, ctx)
}

// GetSecret fetches a single secret value by key.
func (p *Provider) GetSecret(ctx context.Context, key string) (string, error) {
	var value string
	op := func() error {
		logger.Infof("getting secret %s from secret store %s", key, p.store)
		u := fmt.Sprintf("%s/v1.0/secrets/%s/%s", p.baseURL, url.PathEscape(p.store), url.PathEscape(key))
		body, err := p.get(ctx, u)
		if err != nil {
			return err
		}
		var m map[string]string
		if err := json.Unmarshal(body, &m); err != nil {
			return fmt.Errorf("decode secret response: %w", err)
		}
		v, ok := m[key]
		if !ok {
			// a store answering without the key is not transient
			return backoff.Permanent(fmt.Errorf("secret %s not present in store %s", key, p.store))
		}
		value = v
		return nil
	}
	if err := backoff.Retry(op, p.newBackoff(ctx)); err != nil {
		return "", err
	}
	return value, nil
}

// GetBulkSecret fetches all secrets from the store. Used only for startup
// diagnostics; values are never logged.
func (p *Provider) GetBulkSecret(ctx context.Context) (map[string]map[string]string, error) {
	var result map[string]map[string]string
	op := func() error {
		u := fmt.Sprintf("%s/v1.0/secrets/%s/bulk", p.baseURL, url.PathEscape(p.store))
		body, err := p.get(ctx, u)
		if err != nil {
			return err
		}
		var m map[string]map[string]string
		if err := json.Unmarshal(body, &m); err != nil {
			return fmt.Errorf("decode bulk secret response: %w", err)
		}
		result = m
		return nil
	}
	if err := backoff.Retry(op, p.newBackoff(ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Provider) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("secret store returned %d: %s", resp.StatusCode, body)
	default:
		// 4xx means misconfiguration, retrying will not help
		return nil, backoff.Permanent(fmt.Errorf("secret store returned %d: %s", resp.StatusCode, body))
	}
}
