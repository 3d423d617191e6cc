package acs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/commsvc/call-routing-backend/pkg/logger"
)

// LocalIssuer is a dev-mode identity issuer. It mints random communication
// identifiers and signs HS256 access tokens locally instead of calling the
// platform identity API. Never use this outside local development.
type LocalIssuer struct {
	secret []byte
}

func NewLocalIssuer(secret string) *LocalIssuer {
	return &LocalIssuer{secret: []byte(secret)}
}

// CreateUserAndToken mints a synthetic identity and a signed JWT valid for ttl.
func (l *LocalIssuer) CreateUserAndToken(ctx context.Context, ttl time.Duration) (*IssuedIdentity, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	id := "8:acs:local-" + hex.EncodeToString(b)
	expires := time.Now().UTC().Add(ttl)

	claims := jwt.MapClaims{
		"sub":   id,
		"scope": "voip",
		"iat":   time.Now().Unix(),
		"exp":   expires.Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err := jt.SignedString(l.secret)
	if err != nil {
		return nil, err
	}
	logger.Debugf("local issuer: minted identity %s", id)
	return &IssuedIdentity{ID: id, Token: token, TokenExpiresAt: expires}, nil
}

// DeleteUser is a no-op for locally minted identities.
func (l *LocalIssuer) DeleteUser(ctx context.Context, communicationID string) error {
	logger.Debugf("local issuer: dropping identity %s", communicationID)
	return nil
}
