// Package api speaks the guest-desk backend's REST contract. The Client
// interface is what the rest of the application depends on; HTTPClient is
// the concrete transport.
package api

import (
	"context"
	"time"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
)

// EntryDraft is the payload for creating a new entry. The backend assigns
// the id and puts the entry into the draft state.
type EntryDraft struct {
	Name         string    `json:"name"`
	Responsible  string    `json:"responsible,omitempty"`
	Datetime     time.Time `json:"datetime"`
	VisitGoalIDs []string  `json:"visit_goal_ids"`
}

// EntryDetails is the draft-only field-edit payload.
type EntryDetails struct {
	Name         string   `json:"name"`
	Responsible  string   `json:"responsible,omitempty"`
	VisitGoalIDs []string `json:"visit_goal_ids"`
}

// TokenPair is an access/refresh credential pair. The refresh credential
// rotates on every use.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Client is the command surface of the backend. Every mutating call returns
// the authoritative updated entry; the caller applies it to the local store
// only after the backend confirms.
type Client interface {
	FetchSnapshot(ctx context.Context) (models.Snapshot, error)
	CreateEntry(ctx context.Context, draft EntryDraft) (models.Entry, error)
	UpdateDetails(ctx context.Context, id string, details EntryDetails) (models.Entry, error)
	MoveEntry(ctx context.Context, id string, datetime time.Time) (models.Entry, error)
	SetCompleted(ctx context.Context, id string, completed bool) (models.Entry, error)
	SetCancelled(ctx context.Context, id string, cancelled bool) (models.Entry, error)
	SetResult(ctx context.Context, id string, state models.State, reasonID string) (models.Entry, error)
	RollbackResult(ctx context.Context, id string) (models.Entry, error)
	OrderPass(ctx context.Context, id string) (models.Entry, error)
	RevokePass(ctx context.Context, id string) (models.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	Reasons(ctx context.Context, state models.State) ([]models.Reason, error)
	ResponsibleSuggestions(ctx context.Context, query string) ([]string, error)
}

// AuthClient is the session-establishment surface. These calls carry no
// bearer token.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (TokenPair, *models.User, error)
	RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error)
}

// TokenSource supplies bearer tokens for authenticated calls. The session
// implements it; Refresh must be single-flight.
type TokenSource interface {
	// AccessToken returns a token believed valid, refreshing first if the
	// current one is expired or missing.
	AccessToken(ctx context.Context) (string, error)

	// Refresh forces a token rotation after the backend rejected the
	// current token. Concurrent callers join one in-flight attempt.
	Refresh(ctx context.Context) (string, error)
}
