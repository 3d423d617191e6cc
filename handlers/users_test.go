package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"

	"github.com/commsvc/call-routing-backend/internal/acs"
	"github.com/commsvc/call-routing-backend/internal/registry"
)

type fakeIssuer struct {
	created   int
	deleted   []string
	createErr error
}

func (f *fakeIssuer) CreateUserAndToken(ctx context.Context, ttl time.Duration) (*acs.IssuedIdentity, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	return &acs.IssuedIdentity{
		ID:             fmt.Sprintf("8:acs:fake-%d", f.created),
		Token:          fmt.Sprintf("token-%d", f.created),
		TokenExpiresAt: time.Now().UTC().Add(ttl).Truncate(time.Second),
	}, nil
}

func (f *fakeIssuer) DeleteUser(ctx context.Context, communicationID string) error {
	f.deleted = append(f.deleted, communicationID)
	return nil
}

func newUserRouter(t *testing.T, lockTimeout time.Duration) (*gin.Engine, *fakeIssuer, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, registry.Bootstrap(path))
	issuer := &fakeIssuer{}
	store, err := registry.NewStore(path, lockTimeout, issuer)
	require.NoError(t, err)

	r := gin.New()
	NewUserHandler(store).Register(r.Group("/"))
	return r, issuer, path
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListUsersEmpty(t *testing.T) {
	r, _, _ := newUserRouter(t, time.Second)

	w := doGet(r, "/api/users")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestGetUserCreatesLazily(t *testing.T) {
	r, issuer, _ := newUserRouter(t, time.Second)

	w := doGet(r, "/api/users/alice@example.com")
	require.Equal(t, http.StatusOK, w.Code)

	var u registry.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	require.Equal(t, "alice@example.com", u.UPN)
	require.NotEmpty(t, u.CommunicationID)
	require.NotEmpty(t, u.LastToken)

	// second read returns the stored record, no second issuance
	w = doGet(r, "/api/users/alice@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, issuer.created)

	// list now holds exactly one record
	w = doGet(r, "/api/users")
	var all []registry.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
}

func TestDeleteUser(t *testing.T) {
	r, issuer, _ := newUserRouter(t, time.Second)

	doGet(r, "/api/users/alice@example.com")

	w := doGet(r, "/api/users/delete/alice@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	var u registry.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	require.Equal(t, "alice@example.com", u.UPN)
	require.Len(t, issuer.deleted, 1)

	w = doGet(r, "/api/users")
	require.JSONEq(t, "[]", w.Body.String())
}

func TestDeleteAbsentUserReturnsEmptyOK(t *testing.T) {
	r, _, _ := newUserRouter(t, time.Second)

	w := doGet(r, "/api/users/delete/ghost@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestCreateFailureMapsTo500WithEmptyArray(t *testing.T) {
	r, issuer, _ := newUserRouter(t, time.Second)
	issuer.createErr = errors.New("platform unavailable")

	w := doGet(r, "/api/users/alice@example.com")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestLockTimeoutMapsTo503(t *testing.T) {
	r, _, path := newUserRouter(t, 200*time.Millisecond)

	contender := flock.New(path + ".lock")
	require.NoError(t, contender.Lock())
	defer contender.Unlock()

	w := doGet(r, "/api/users/alice@example.com")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}
