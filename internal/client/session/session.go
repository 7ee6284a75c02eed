// Package session owns the client's credentials: the in-memory access
// token, the persisted rotating refresh credential, and the user record
// loaded at login. It is an explicit object passed to the transport and the
// sync channel; nothing here lives in package-level state, so independent
// sessions (tests included) never share tokens.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/api"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/repositories/credentials"
	"github.com/underflow1/ce-guests-front-sub000/internal/common"
	"github.com/underflow1/ce-guests-front-sub000/internal/logging"
)

// expirySkew is how close to the access token's exp claim a proactive
// refresh kicks in, so a token does not die mid-request.
const expirySkew = 30 * time.Second

// EventKind discriminates session events.
type EventKind int

const (
	// EventLoggedOut fires when the session becomes invalid: explicit
	// logout, or a refresh rejected by the backend. Consumers must drop to
	// the login screen.
	EventLoggedOut EventKind = iota
)

type Event struct {
	Kind   EventKind
	Reason string
}

// Session implements api.TokenSource.
type Session struct {
	auth  api.AuthClient
	creds credentials.Repository
	log   logging.Logger
	now   func() time.Time

	mu       sync.Mutex
	access   string
	user     *models.User
	inflight *refreshCall

	events chan Event
}

// refreshCall is one in-flight refresh attempt shared by every caller that
// arrives while it runs. The backend rotates the refresh credential on each
// use, so a duplicate concurrent refresh would invalidate the other
// caller's credential.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

func New(auth api.AuthClient, creds credentials.Repository, log logging.Logger) *Session {
	return &Session{
		auth:   auth,
		creds:  creds,
		log:    log,
		now:    time.Now,
		events: make(chan Event, 4),
	}
}

// Events delivers session lifecycle events. The channel is buffered and
// never closed; publishing never blocks.
func (s *Session) Events() <-chan Event { return s.events }

// User returns the account loaded at login, or nil when logged out.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Login authenticates, stores the token pair, persists the refresh
// credential, and returns the user record.
func (s *Session) Login(ctx context.Context, username, password string) (*models.User, error) {
	pair, user, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if err := s.creds.Set(ctx, common.RefreshTokenKey, []byte(pair.RefreshToken)); err != nil {
		return nil, fmt.Errorf("persisting refresh credential: %w", err)
	}

	s.mu.Lock()
	s.access = pair.AccessToken
	s.user = user
	s.mu.Unlock()

	return user, nil
}

// Resume restores a session from the persisted refresh credential.
// Returns ErrSessionExpired when no usable credential exists.
func (s *Session) Resume(ctx context.Context) error {
	_, err := s.Refresh(ctx)
	return err
}

// AccessToken returns a token believed valid, refreshing proactively when
// the current one is missing or about to expire.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	token := s.access
	s.mu.Unlock()

	if token != "" && !s.expiringSoon(token) {
		return token, nil
	}
	return s.Refresh(ctx)
}

// Refresh rotates the token pair. Single-flight: a re-entrant call joins
// the in-flight attempt instead of issuing a duplicate.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	s.inflight = call
	s.mu.Unlock()

	token, err := s.refresh(ctx)

	call.token, call.err = token, err
	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()
	close(call.done)

	return token, err
}

func (s *Session) refresh(ctx context.Context) (string, error) {
	stored, err := s.creds.Get(ctx, common.RefreshTokenKey)
	if err != nil {
		return "", fmt.Errorf("reading refresh credential: %w", err)
	}
	if len(stored) == 0 {
		return "", common.ErrSessionExpired
	}

	pair, err := s.auth.RefreshTokens(ctx, string(stored))
	if err != nil {
		if isAuthFailure(err) {
			s.invalidate(ctx, "refresh rejected")
		}
		return "", err
	}

	if err := s.creds.Set(ctx, common.RefreshTokenKey, []byte(pair.RefreshToken)); err != nil {
		return "", fmt.Errorf("persisting refresh credential: %w", err)
	}

	s.mu.Lock()
	s.access = pair.AccessToken
	s.mu.Unlock()

	return pair.AccessToken, nil
}

// Logout clears tokens and stored credentials and publishes the logout
// event.
func (s *Session) Logout(ctx context.Context) {
	s.invalidate(ctx, "logged out")
}

func (s *Session) invalidate(ctx context.Context, reason string) {
	s.mu.Lock()
	s.access = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.creds.Clear(ctx); err != nil {
		s.log.Warn(ctx, "clearing stored credentials", "error", err)
	}

	select {
	case s.events <- Event{Kind: EventLoggedOut, Reason: reason}:
	default:
	}
}

// expiringSoon inspects the JWT exp claim without verifying the signature;
// the backend verifies, the client only schedules. Tokens that do not parse
// are left to the 401-retry path.
func (s *Session) expiringSoon(token string) bool {
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return s.now().Add(expirySkew).After(claims.ExpiresAt.Time)
}

func isAuthFailure(err error) bool {
	return errors.Is(err, common.ErrSessionExpired) || errors.Is(err, common.ErrUnauthorized)
}
