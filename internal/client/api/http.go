package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/common"
	"github.com/underflow1/ce-guests-front-sub000/internal/logging"
)

const requestTimeout = 12 * time.Second

// HTTPClient implements Client and AuthClient over the backend's JSON API.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
	log     logging.Logger
}

func NewHTTPClient(baseURL string, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: requestTimeout},
		log:     log,
	}
}

// UseTokens attaches the token source once the session exists. The auth
// endpoints work without it; everything else requires it.
func (c *HTTPClient) UseTokens(ts TokenSource) { c.tokens = ts }

// BaseURL exposes the configured API root; the sync channel derives its
// websocket URL from it.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// apiError is the backend's JSON error envelope.
type apiError struct {
	Message string `json:"message"`
}

// do sends one authenticated JSON request. On a 401 it forces a single
// token refresh and retries once; a second 401 terminates the session
// upstream via ErrSessionExpired.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	status, err := c.send(ctx, method, path, token, body, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		token, err = c.tokens.Refresh(ctx)
		if err != nil {
			return err
		}
		status, err = c.send(ctx, method, path, token, body, out)
		if err != nil {
			return err
		}
	}
	if status == 0 {
		return nil
	}
	return c.mapStatus(status)
}

// send performs the HTTP exchange. It returns (0, nil) on success with out
// decoded, or (status, nil) for an API-level failure already logged; the
// caller decides whether the status warrants a retry.
func (c *HTTPClient) send(ctx context.Context, method, path, token string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthHeaderName, "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return 0, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, fmt.Errorf("decoding response: %w", err)
		}
		return 0, nil
	}

	var apiErr apiError
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Message != "" {
		c.log.Debug(ctx, "api error", "method", method, "path", path,
			"status", resp.StatusCode, "message", apiErr.Message)
		if resp.StatusCode == http.StatusBadRequest ||
			resp.StatusCode == http.StatusUnprocessableEntity ||
			resp.StatusCode == http.StatusConflict {
			return 0, fmt.Errorf("%w: %s", common.ErrValidation, apiErr.Message)
		}
	}
	return resp.StatusCode, nil
}

func (c *HTTPClient) mapStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return common.ErrSessionExpired
	case http.StatusForbidden:
		return common.ErrForbidden
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return common.ErrValidation
	default:
		return fmt.Errorf("%w: status %d", common.ErrUnavailable, status)
	}
}

func (c *HTTPClient) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.do(ctx, http.MethodGet, "/entries", nil, &snap); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

func (c *HTTPClient) CreateEntry(ctx context.Context, draft EntryDraft) (models.Entry, error) {
	var e models.Entry
	if err := c.do(ctx, http.MethodPost, "/entries", draft, &e); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

func (c *HTTPClient) UpdateDetails(ctx context.Context, id string, details EntryDetails) (models.Entry, error) {
	var e models.Entry
	if err := c.do(ctx, http.MethodPatch, "/entries/"+id+"/details", details, &e); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

func (c *HTTPClient) MoveEntry(ctx context.Context, id string, datetime time.Time) (models.Entry, error) {
	body := struct {
		Datetime time.Time `json:"datetime"`
	}{Datetime: datetime}

	var e models.Entry
	if err := c.do(ctx, http.MethodPatch, "/entries/"+id+"/move", body, &e); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

func (c *HTTPClient) SetCompleted(ctx context.Context, id string, completed bool) (models.Entry, error) {
	body := struct {
		Completed bool `json:"completed"`
	}{Completed: completed}

	var e models.Entry
	if err := c.do(ctx, http.MethodPatch, "/entries/"+id+"/completed", body, &e); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

func (c *HTTPClient) SetCancelled(ctx context.Context, id string, cancelled bool) (models.Entry, error) {
	body := struct {
		Cancelled bool `json:"cancelled"`
	}{Cancelled: cancelled}

	var e models.Entry
	if err := c.do(ctx, http.MethodPatch, "/entries/"+id+"/cancelled", body, &e); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

func (c *HTTPClient) SetResult(ctx context.Context, id string, state models.State, reasonID string) (models.Entry, error) {
	body := struct {
		State    models.State `json:"state"`
		ReasonID string       `json:"reason_id,omitempty"`
	}{State: state, ReasonID: reasonID}

	var e models.Entry
	if err := c.do(ctx, http.MethodPatch, "/entries/"+id+"/result", body, &e); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

func (c *HTTPClient) RollbackResult(ctx context.Context, id string) (models.Entry, error) {
	var e models.Entry
	if err := c.do(ctx, http.MethodPatch, "/entries/"+id+"/result/rollback", nil, &e); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

func (c *HTTPClient) OrderPass(ctx context.Context, id string) (models.Entry, error) {
	var e models.Entry
	if err := c.do(ctx, http.MethodPut, "/entries/"+id+"/pass", nil, &e); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

func (c *HTTPClient) RevokePass(ctx context.Context, id string) (models.Entry, error) {
	var e models.Entry
	if err := c.do(ctx, http.MethodDelete, "/entries/"+id+"/pass", nil, &e); err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

func (c *HTTPClient) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/entries/"+id, nil, nil)
}

func (c *HTTPClient) Reasons(ctx context.Context, state models.State) ([]models.Reason, error) {
	var resp struct {
		Reasons []models.Reason `json:"reasons"`
	}
	path := fmt.Sprintf("/states/%d/reasons", int(state))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reasons, nil
}

func (c *HTTPClient) ResponsibleSuggestions(ctx context.Context, query string) ([]string, error) {
	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	path := "/entries/responsible-autocomplete?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (TokenPair, *models.User, error) {
	body := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}

	var resp struct {
		TokenPair
		User *models.User `json:"user"`
	}
	status, err := c.send(ctx, http.MethodPost, "/auth/login", "", body, &resp)
	if err != nil {
		return TokenPair{}, nil, err
	}
	if status != 0 {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return TokenPair{}, nil, common.ErrUnauthorized
		}
		return TokenPair{}, nil, c.mapStatus(status)
	}
	return resp.TokenPair, resp.User, nil
}

func (c *HTTPClient) RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error) {
	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	var pair TokenPair
	status, err := c.send(ctx, http.MethodPost, "/auth/refresh", "", body, &pair)
	if err != nil {
		return TokenPair{}, err
	}
	if status != 0 {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return TokenPair{}, common.ErrSessionExpired
		}
		return TokenPair{}, c.mapStatus(status)
	}
	return pair, nil
}
