// Package stationapi provides the typed HTTP client the tracker uses to
// talk to the station API. It is the single place where wire encodings are
// translated to domain values; nothing above it sees raw boundary strings.
package stationapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dearxcorex/MakeItFast/internal/api/models"
	"github.com/dearxcorex/MakeItFast/internal/auth"
	"github.com/dearxcorex/MakeItFast/internal/resilience"
	"github.com/dearxcorex/MakeItFast/internal/station"
)

const (
	// DefaultBaseURL is the station API base URL for local development.
	DefaultBaseURL = "http://localhost:8080"
)

// ClientConfig holds configuration for the station API client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// TokenProvider returns the current access token. It is consulted per
	// request so token refresh takes effect without rebuilding the client.
	// A nil provider (or empty token) sends unauthenticated requests.
	TokenProvider func() string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a station API client.
type Client struct {
	baseURL       string
	tokenProvider func() string
	httpClient    HTTPDoer
}

// NewClient creates a new station API client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            "stationapi",
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		})
	}

	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		tokenProvider: cfg.TokenProvider,
		httpClient:    httpClient,
	}
}

// BoundaryError is a non-2xx response from the station API, carrying the
// structured problem fields so callers can branch on the stable code.
type BoundaryError struct {
	Status  int
	Code    string
	Message string
	Detail  string
	Hint    string
}

// Error implements the error interface.
func (e *BoundaryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("station api: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("station api: %s (status %d)", e.Message, e.Status)
}

// NotFound reports whether the error is a missing-resource response.
func (e *BoundaryError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// ReadOnly reports whether the server rejected a write because read-only
// mode is active.
func (e *BoundaryError) ReadOnly() bool {
	return e.Code == models.CodeReadOnlyMode
}

// List retrieves all stations, ordered by name.
func (c *Client) List(ctx context.Context) ([]*station.Station, error) {
	var result models.StationListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/stations", nil, &result, true); err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	return toDomainList(result.Items), nil
}

// Get retrieves a single station by id.
func (c *Client) Get(ctx context.Context, id int64) (*station.Station, error) {
	var result models.Station
	path := "/v1/stations/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &result, true); err != nil {
		return nil, fmt.Errorf("get station %d: %w", id, err)
	}
	return toDomain(&result), nil
}

// Patch applies a partial update to a station and returns the updated
// record as the server persisted it.
func (c *Client) Patch(ctx context.Context, id int64, patch station.Patch) (*station.Station, error) {
	var result models.Station
	path := "/v1/stations/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPatch, path, toWirePatch(patch), &result, true); err != nil {
		return nil, fmt.Errorf("patch station %d: %w", id, err)
	}
	return toDomain(&result), nil
}

// RecentlyChanged retrieves stations updated within the given window.
func (c *Client) RecentlyChanged(ctx context.Context, window time.Duration) ([]*station.Station, error) {
	var result models.StationListResponse
	path := "/v1/stations/recent?since=" + strconv.FormatInt(int64(window.Seconds()), 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &result, true); err != nil {
		return nil, fmt.Errorf("recently changed stations: %w", err)
	}
	return toDomainList(result.Items), nil
}

// FlagEnabled reads a runtime flag from the API. Unknown flags and
// transport failures report false, so callers degrade to the conservative
// path instead of erroring.
func (c *Client) FlagEnabled(ctx context.Context, key string) bool {
	var result models.Flag
	if err := c.do(ctx, http.MethodGet, "/v1/flags/"+key, nil, &result, false); err != nil {
		return false
	}
	return result.Enabled
}

// Login exchanges operator credentials for API tokens.
func (c *Client) Login(ctx context.Context, operatorID, key string) (*auth.TokenResponse, error) {
	body := &auth.LoginRequest{OperatorID: operatorID, Key: key}
	var result auth.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", body, &result, false); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &result, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*auth.TokenResponse, error) {
	body := &auth.RefreshTokenRequest{RefreshToken: refreshToken}
	var result auth.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", body, &result, false); err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return &result, nil
}

// do executes one API request. body and out may be nil; authed controls
// whether the bearer token is attached.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed && c.tokenProvider != nil {
		if token := c.tokenProvider(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into a BoundaryError. Bodies that are
// not problem documents still yield a usable error from the status line.
func decodeError(resp *http.Response) error {
	be := &BoundaryError{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	var problem models.Problem
	if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil {
		if problem.Title != "" {
			be.Message = problem.Title
		}
		be.Code = problem.Code
		be.Detail = problem.Detail
		be.Hint = problem.Hint
	}

	return be
}

// toDomain converts a wire station to the domain model. All historical
// encodings funnel through the station parsers here.
func toDomain(w *models.Station) *station.Station {
	st := &station.Station{
		ID:            w.ID,
		Name:          w.Name,
		Frequency:     w.Frequency,
		Latitude:      w.Latitude,
		Longitude:     w.Longitude,
		City:          w.City,
		Province:      w.Province,
		Genre:         w.Genre,
		Description:   w.Description,
		OnAir:         w.OnAir,
		Inspection:    station.ParseInspectionStatus(w.Inspection.String()),
		Details:       w.Details,
		Unwanted:      w.Unwanted,
		SubmitRequest: station.ParseSubmitDecision(w.SubmitRequest.String()),
		CreatedAt:     w.CreatedAt.Time(),
		UpdatedAt:     w.UpdatedAt.Time(),
	}
	if w.DateInspected != nil {
		d := w.DateInspected.Time()
		st.DateInspected = &d
	}
	return st
}

func toDomainList(items []models.Station) []*station.Station {
	stations := make([]*station.Station, 0, len(items))
	for i := range items {
		stations = append(stations, toDomain(&items[i]))
	}
	return stations
}

// toWirePatch converts a domain patch to the wire request. Canonical values
// go out; the server re-normalizes on its side regardless.
func toWirePatch(p station.Patch) *models.StationPatchRequest {
	req := &models.StationPatchRequest{
		OnAir:    p.OnAir,
		Details:  p.Details,
		Unwanted: p.Unwanted,
	}
	if p.Inspection != nil {
		ts := models.TriState(*p.Inspection)
		req.Inspection = &ts
	}
	if p.SubmitRequest != nil {
		ts := models.TriState(*p.SubmitRequest)
		req.SubmitRequest = &ts
	}
	return req
}
