package acs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestParseConnectionString(t *testing.T) {
	cs, err := ParseConnectionString("endpoint=https://demo.communication.azure.com/;accesskey=" + testKey())
	require.NoError(t, err)
	require.Equal(t, "https://demo.communication.azure.com", cs.Endpoint)
	require.Equal(t, []byte("0123456789abcdef0123456789abcdef"), cs.AccessKey)
}

func TestParseConnectionStringErrors(t *testing.T) {
	cases := []string{
		"",
		"endpoint=https://demo.communication.azure.com/",
		"accesskey=" + testKey(),
		"endpoint=https://x/;accesskey=!!!not-base64!!!",
		"garbage",
	}
	for _, c := range cases {
		if _, err := ParseConnectionString(c); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestSignRequestHeaders(t *testing.T) {
	body := []byte(`{"a":1}`)
	req, err := http.NewRequest(http.MethodPost, "https://demo.communication.azure.com/identities?api-version=2023-10-01", nil)
	require.NoError(t, err)

	signRequest(req, body, []byte("key-material"))

	require.NotEmpty(t, req.Header.Get("x-ms-date"))
	require.NotEmpty(t, req.Header.Get("x-ms-content-sha256"))
	auth := req.Header.Get("Authorization")
	require.True(t, strings.HasPrefix(auth, "HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature="))
	// signature must be valid base64
	sig := strings.TrimPrefix(auth, "HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature=")
	_, err = base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
}

func newTestIdentityServer(t *testing.T) (*httptest.Server, *ConnectionString) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("Authorization"), "request must be signed")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/identities":
			var req createIdentityRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, []string{"voip"}, req.CreateTokenWithScopes)
			require.Equal(t, 1440, req.ExpiresInMinutes)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"identity":{"id":"8:acs:abc-123"},"accessToken":{"token":"tok-1","expiresOn":"2030-01-02T03:04:05Z"}}`))
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/identities/"):
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	cs := &ConnectionString{Endpoint: srv.URL, AccessKey: []byte("0123456789abcdef")}
	return srv, cs
}

func TestIdentityClientCreateUserAndToken(t *testing.T) {
	srv, cs := newTestIdentityServer(t)
	defer srv.Close()

	client := NewIdentityClient(cs)
	issued, err := client.CreateUserAndToken(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, "8:acs:abc-123", issued.ID)
	require.Equal(t, "tok-1", issued.Token)
	require.Equal(t, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC), issued.TokenExpiresAt)
}

func TestIdentityClientDeleteUser(t *testing.T) {
	srv, cs := newTestIdentityServer(t)
	defer srv.Close()

	client := NewIdentityClient(cs)
	require.NoError(t, client.DeleteUser(context.Background(), "8:acs:abc-123"))
}

func TestCallAutomationRedirect(t *testing.T) {
	var got redirectCallRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/calling/callConnections:redirect", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewCallAutomationClient(&ConnectionString{Endpoint: srv.URL, AccessKey: []byte("0123456789abcdef")})
	err := client.RedirectCall(context.Background(), "ctx-token-xyz", "8:acs:target-1")
	require.NoError(t, err)
	require.Equal(t, "ctx-token-xyz", got.IncomingCallContext)
	require.Equal(t, "8:acs:target-1", got.Target.Identifier.RawID)
	require.NotNil(t, got.Target.Identifier.CommunicationUser)

	// phone number targets carry the phoneNumber shape instead
	err = client.RedirectCall(context.Background(), "ctx-token-xyz", "4:+15551234567")
	require.NoError(t, err)
	require.NotNil(t, got.Target.Identifier.PhoneNumber)
	require.Equal(t, "+15551234567", got.Target.Identifier.PhoneNumber.Value)
}

func TestLocalIssuer(t *testing.T) {
	iss := NewLocalIssuer("unit-test-secret")
	issued, err := iss.CreateUserAndToken(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(issued.ID, "8:acs:local-"))
	require.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), issued.TokenExpiresAt, time.Minute)

	// minted token must be a valid HS256 JWT carrying the identity
	tok, err := jwt.Parse(issued.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("unit-test-secret"), nil
	})
	require.NoError(t, err)
	sub, err := tok.Claims.GetSubject()
	require.NoError(t, err)
	require.Equal(t, issued.ID, sub)

	require.NoError(t, iss.DeleteUser(context.Background(), issued.ID))
}
