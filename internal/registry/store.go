package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/commsvc/call-routing-backend/internal/acs"
	"github.com/commsvc/call-routing-backend/pkg/logger"
)

// tokenValidity is the fixed lifetime of every access token issued through
// the registry.
const tokenValidity = 24 * time.Hour

// lockRetryInterval is how often the file lock is re-attempted while waiting.
const lockRetryInterval = 100 * time.Millisecond

// Issuer creates and revokes platform identities. Satisfied by
// acs.IdentityClient and acs.LocalIssuer.
type Issuer interface {
	CreateUserAndToken(ctx context.Context, ttl time.Duration) (*acs.IssuedIdentity, error)
	DeleteUser(ctx context.Context, communicationID string) error
}

// Store is the file-backed user registry. The full record list lives in
// memory and is mirrored to a single JSON file; every mutation rewrites the
// file under an advisory file lock and then reloads it, keeping the file the
// source of truth even when another process mutates it between operations.
//
// In-process mutations are additionally serialized by a mutex; the file lock
// alone only covers the write critical section.
type Store struct {
	path        string
	fileLock    *flock.Flock
	lockTimeout time.Duration
	issuer      Issuer

	mu    sync.Mutex
	users []User
}

// NewStore loads the registry from path. A missing or corrupt file is an
// error: the caller decides whether to bootstrap an empty file first.
func NewStore(path string, lockTimeout time.Duration, issuer Issuer) (*Store, error) {
	s := &Store{
		path:        path,
		fileLock:    flock.New(path + ".lock"),
		lockTimeout: lockTimeout,
		issuer:      issuer,
	}
	users, err := s.readFile()
	if err != nil {
		return nil, fmt.Errorf("load user registry: %w", err)
	}
	s.users = users
	logger.Infof("user registry loaded: %d record(s) from %s", len(users), path)
	return s, nil
}

// GetAll returns a snapshot of the current records.
func (s *Store) GetAll() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, len(s.users))
	copy(out, s.users)
	return out
}

// Get returns the record for upn, or false when absent. Absence is not an
// error.
func (s *Store) Get(upn string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(upn)
}

// Create issues a new platform identity with a 24h VoIP token for upn,
// appends the record and durably persists the registry.
func (s *Store) Create(ctx context.Context, upn string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findLocked(upn); ok {
		return User{}, fmt.Errorf("%w: %s", ErrAlreadyExists, upn)
	}

	issued, err := s.issuer.CreateUserAndToken(ctx, tokenValidity)
	if err != nil {
		return User{}, fmt.Errorf("issue identity for %s: %w", upn, err)
	}
	user := User{
		UPN:              upn,
		CommunicationID:  issued.ID,
		LastToken:        issued.Token,
		LastTokenExpires: issued.TokenExpiresAt,
	}
	logger.Infof("adding user %s (id %s) to registry", upn, user.CommunicationID)

	next := append(s.snapshotLocked(), user)
	if err := s.persistAndReloadLocked(ctx, next); err != nil {
		return User{}, err
	}
	return user, nil
}

// Delete revokes the platform identity for upn and removes the record.
// Revocation runs first: if it fails the local record stays, so no record is
// ever orphaned locally while still alive on the platform.
func (s *Store) Delete(ctx context.Context, upn string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.findLocked(upn)
	if !ok {
		return User{}, fmt.Errorf("%w: %s", ErrNotFound, upn)
	}

	logger.Infof("deleting user %s, id: %s", upn, user.CommunicationID)
	if err := s.issuer.DeleteUser(ctx, user.CommunicationID); err != nil {
		return User{}, fmt.Errorf("revoke identity for %s: %w", upn, err)
	}

	next := make([]User, 0, len(s.users)-1)
	for _, u := range s.users {
		if u.UPN != upn {
			next = append(next, u)
		}
	}
	if err := s.persistAndReloadLocked(ctx, next); err != nil {
		return User{}, err
	}
	logger.Infof("user %s deleted", upn)
	return user, nil
}

// Reload re-reads the registry file into memory.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.readFile()
	if err != nil {
		return err
	}
	s.users = users
	return nil
}

func (s *Store) findLocked(upn string) (User, bool) {
	for _, u := range s.users {
		if u.UPN == upn {
			return u, true
		}
	}
	return User{}, false
}

func (s *Store) snapshotLocked() []User {
	out := make([]User, len(s.users))
	copy(out, s.users)
	return out
}

// persistAndReloadLocked writes users to disk under the advisory file lock
// and then reloads the file into memory as a consistency check. The
// in-memory list is only replaced from what was read back, so a failed write
// never leaves memory ahead of disk.
func (s *Store) persistAndReloadLocked(ctx context.Context, users []User) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	locked, err := s.fileLock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil && lockCtx.Err() == nil {
		return fmt.Errorf("registry file lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w (held past %s)", ErrLockTimeout, s.lockTimeout)
	}
	writeErr := s.writeFile(users)
	if err := s.fileLock.Unlock(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("release registry file lock: %w", err)
	}
	if writeErr != nil {
		return writeErr
	}

	reloaded, err := s.readFile()
	if err != nil {
		return fmt.Errorf("verify registry after write: %w", err)
	}
	s.users = reloaded
	return nil
}

// writeFile replaces the registry file atomically: write a sibling temp file,
// then rename over the target.
func (s *Store) writeFile(users []User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) readFile() ([]User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return users, nil
}

// Bootstrap writes an empty registry file if none exists yet. Called by the
// process entry point before constructing the store.
func Bootstrap(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	logger.Warnf("registry file %s missing, creating empty registry", path)
	return os.WriteFile(path, []byte("[]"), 0o644)
}
