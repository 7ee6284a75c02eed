package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/common"
	"github.com/underflow1/ce-guests-front-sub000/internal/logging"
)

type fakeTokens struct {
	token      string
	refreshed  string
	refreshes  int
	refreshErr error
}

func (f *fakeTokens) AccessToken(ctx context.Context) (string, error) {
	return f.token, nil
}

func (f *fakeTokens) Refresh(ctx context.Context) (string, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	return f.refreshed, nil
}

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *fakeTokens) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, logging.NewDiscard())
	tokens := &fakeTokens{token: "t1", refreshed: "t2"}
	c.UseTokens(tokens)
	return c, tokens
}

func TestFetchSnapshot(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/entries", r.URL.Path)
		require.Equal(t, "Bearer t1", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(models.Snapshot{
			Entries:        []models.Entry{{ID: "e1", Name: "Alice", State: models.StateDraft}},
			ReferenceDates: models.ReferenceDates{NextWorkday: "2024-03-08"},
		})
	}))

	snap, err := c.FetchSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Entries, 1)
	require.Equal(t, "2024-03-08", snap.ReferenceDates.NextWorkday)
}

func TestCreateEntry_VisitGoalsRoundTrip(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/entries", r.URL.Path)

		var draft EntryDraft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))

		_ = json.NewEncoder(w).Encode(models.Entry{
			ID:           "e1",
			Name:         draft.Name,
			Datetime:     draft.Datetime,
			State:        models.StateDraft,
			VisitGoalIDs: draft.VisitGoalIDs,
		})
	}))

	created, err := c.CreateEntry(context.Background(), EntryDraft{
		Name:         "Alice",
		Datetime:     time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC),
		VisitGoalIDs: []string{"g1", "g2"},
	})
	require.NoError(t, err)
	require.Equal(t, models.StateDraft, created.State)
	require.ElementsMatch(t, []string{"g1", "g2"}, created.VisitGoalIDs)
}

func TestDo_RefreshesOnceOn401(t *testing.T) {
	calls := 0
	c, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer t2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(models.Entry{ID: "e1", State: models.StateArrived})
	}))

	e, err := c.SetCompleted(context.Background(), "e1", true)
	require.NoError(t, err)
	require.Equal(t, models.StateArrived, e.State)
	require.Equal(t, 1, tokens.refreshes)
	require.Equal(t, 2, calls)
}

func TestDo_SecondUnauthorizedIsSessionExpired(t *testing.T) {
	c, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.SetCompleted(context.Background(), "e1", true)
	require.ErrorIs(t, err, common.ErrSessionExpired)
	require.Equal(t, 1, tokens.refreshes)
}

func TestDo_RefreshFailurePropagates(t *testing.T) {
	c, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	tokens.refreshErr = common.ErrSessionExpired

	_, err := c.FetchSnapshot(context.Background())
	require.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestDo_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, common.ErrForbidden},
		{http.StatusNotFound, common.ErrNotFound},
		{http.StatusBadRequest, common.ErrValidation},
		{http.StatusConflict, common.ErrValidation},
		{http.StatusUnprocessableEntity, common.ErrValidation},
		{http.StatusInternalServerError, common.ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))

			_, err := c.RollbackResult(context.Background(), "e1")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDo_ValidationMessagePassthrough(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "entry already cancelled"})
	}))

	_, err := c.SetCancelled(context.Background(), "e1", true)
	require.ErrorIs(t, err, common.ErrValidation)
	require.Contains(t, err.Error(), "entry already cancelled")
}

func TestDo_NetworkErrorIsUnavailable(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", logging.NewDiscard())
	c.UseTokens(&fakeTokens{token: "t1"})

	_, err := c.FetchSnapshot(context.Background())
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestMoveEntry_SendsDatetime(t *testing.T) {
	target := time.Date(2024, 3, 8, 14, 0, 0, 0, time.UTC)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/entries/e1/move", r.URL.Path)

		var body struct {
			Datetime time.Time `json:"datetime"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.True(t, body.Datetime.Equal(target))

		_ = json.NewEncoder(w).Encode(models.Entry{ID: "e1", Datetime: target, State: models.StateDraft})
	}))

	e, err := c.MoveEntry(context.Background(), "e1", target)
	require.NoError(t, err)
	require.True(t, e.Datetime.Equal(target))
}

func TestReasons_PathUsesNumericState(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/states/40/reasons", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reasons": []models.Reason{{ID: "r1", Name: "No match"}},
		})
	}))

	reasons, err := c.Reasons(context.Background(), models.StateRejected)
	require.NoError(t, err)
	require.Len(t, reasons, 1)
	require.Equal(t, "No match", reasons[0].Name)
}

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))

		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "desk", body.Username)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "a1",
			"refresh_token": "r1",
			"user":          models.User{ID: "u1", Name: "Desk", IsAdmin: false},
		})
	}))

	pair, user, err := c.Login(context.Background(), "desk", "secret")
	require.NoError(t, err)
	require.Equal(t, "a1", pair.AccessToken)
	require.Equal(t, "r1", pair.RefreshToken)
	require.Equal(t, "u1", user.ID)
}

func TestLogin_BadCredentials(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, _, err := c.Login(context.Background(), "desk", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestRefreshTokens_RejectedMeansSessionExpired(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.RefreshTokens(context.Background(), "stale")
	require.ErrorIs(t, err, common.ErrSessionExpired)
	require.False(t, errors.Is(err, common.ErrUnauthorized))
}
