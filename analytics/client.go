package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"learnscope/api/models"
)

// Query mirrors the optional filters of GET /api/analytics/clickstream.
type Query struct {
	UserID    string
	Page      string
	StartDate string
	EndDate   string
}

// Client fetches filtered events from the analytics endpoint and
// aggregates them locally, the way the dashboard views consume the
// pipeline. The server only ever serves raw filtered events; all derived
// statistics are recomputed on the consuming side.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

type eventsResponse struct {
	Success bool                      `json:"success"`
	Data    []models.InteractionEvent `json:"data"`
	Count   int                       `json:"count"`
}

// FetchEvents retrieves the events matching the query.
func (c *Client) FetchEvents(ctx context.Context, q Query) ([]models.InteractionEvent, error) {
	params := url.Values{}
	if q.UserID != "" {
		params.Set("userId", q.UserID)
	}
	if q.Page != "" {
		params.Set("page", q.Page)
	}
	if q.StartDate != "" {
		params.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("endDate", q.EndDate)
	}

	u := c.baseURL + "/api/analytics/clickstream"
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build analytics request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analytics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analytics request failed with status %d", resp.StatusCode)
	}

	var body eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode analytics response: %w", err)
	}
	return body.Data, nil
}

// FetchDashboard retrieves one user's events and builds their dashboard.
func (c *Client) FetchDashboard(ctx context.Context, userID string, now time.Time) (Dashboard, error) {
	events, err := c.FetchEvents(ctx, Query{UserID: userID})
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(events, now), nil
}
