package acs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/commsvc/call-routing-backend/pkg/logger"
)

const identityAPIVersion = "2023-10-01"

// IssuedIdentity is the result of creating a platform identity with a
// scoped access token.
type IssuedIdentity struct {
	ID             string
	Token          string
	TokenExpiresAt time.Time
}

// IdentityClient talks to the platform identity REST API. There is no
// official Go SDK for this surface, so requests are built and HMAC-signed
// directly.
type IdentityClient struct {
	endpoint   string
	accessKey  []byte
	httpClient *http.Client
}

// NewIdentityClient builds a client from a parsed connection string.
func NewIdentityClient(cs *ConnectionString) *IdentityClient {
	return &IdentityClient{
		endpoint:   cs.Endpoint,
		accessKey:  cs.AccessKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type createIdentityRequest struct {
	CreateTokenWithScopes []string `json:"createTokenWithScopes"`
	ExpiresInMinutes      int      `json:"expiresInMinutes"`
}

type createIdentityResponse struct {
	Identity struct {
		ID string `json:"id"`
	} `json:"identity"`
	AccessToken struct {
		Token     string    `json:"token"`
		ExpiresOn time.Time `json:"expiresOn"`
	} `json:"accessToken"`
}

// CreateUserAndToken creates a new platform identity together with a
// VoIP-scoped access token valid for ttl.
func (c *IdentityClient) CreateUserAndToken(ctx context.Context, ttl time.Duration) (*IssuedIdentity, error) {
	payload, err := json.Marshal(createIdentityRequest{
		CreateTokenWithScopes: []string{"voip"},
		ExpiresInMinutes:      int(ttl.Minutes()),
	})
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/identities?api-version=%s", c.endpoint, identityAPIVersion)
	body, err := c.do(ctx, http.MethodPost, u, payload, http.StatusCreated)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	var resp createIdentityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if resp.Identity.ID == "" || resp.AccessToken.Token == "" {
		return nil, fmt.Errorf("identity response missing id or token")
	}
	logger.Infof("identity created: %s (token expires %s)", resp.Identity.ID, resp.AccessToken.ExpiresOn.Format(time.RFC3339))
	return &IssuedIdentity{
		ID:             resp.Identity.ID,
		Token:          resp.AccessToken.Token,
		TokenExpiresAt: resp.AccessToken.ExpiresOn,
	}, nil
}

// DeleteUser revokes a platform identity and all tokens issued for it.
func (c *IdentityClient) DeleteUser(ctx context.Context, communicationID string) error {
	u := fmt.Sprintf("%s/identities/%s?api-version=%s", c.endpoint, url.PathEscape(communicationID), identityAPIVersion)
	if _, err := c.do(ctx, http.MethodDelete, u, nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("delete identity %s: %w", communicationID, err)
	}
	return nil
}

func (c *IdentityClient) do(ctx context.Context, method, rawURL string, payload []byte, wantStatus int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	signRequest(req, payload, c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("platform returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
