package twinsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Twinline HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	BearerToken string
	ActorID     string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

// Context is the organisation context a state is built from. Nil fields take server
// defaults.
type Context struct {
	Maturity  *MaturityInput  `json:"maturity,omitempty"`
	Financial *FinancialInput `json:"financial,omitempty"`
	Risk      *RiskInput      `json:"risk,omitempty"`
}

type MaturityInput struct {
	DataMaturityIndex *float64 `json:"data_maturity_index,omitempty"`
	AIMaturityScore   *float64 `json:"ai_maturity_score,omitempty"`
}

type FinancialInput struct {
	Revenue   *float64 `json:"revenue,omitempty"`
	MarginPct *float64 `json:"margin_pct,omitempty"`
	Valuation *float64 `json:"valuation,omitempty"`
}

type RiskInput struct {
	Score *float64 `json:"score,omitempty"`
	Level string   `json:"level,omitempty"`
}

// State is the API twin state (partial).
type State struct {
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"label"`
	Maturity  struct {
		DataMaturityIndex float64 `json:"data_maturity_index"`
		DataMaturityStage int     `json:"data_maturity_stage"`
		AIMaturityScore   float64 `json:"ai_maturity_score"`
		AIMaturityStage   int     `json:"ai_maturity_stage"`
	} `json:"maturity"`
	Financial struct {
		Revenue   float64 `json:"revenue"`
		Profit    float64 `json:"profit"`
		MarginPct float64 `json:"margin_pct"`
		Valuation float64 `json:"valuation"`
	} `json:"financial"`
	Risk struct {
		Score float64 `json:"score"`
		Level string  `json:"level"`
	} `json:"risk"`
}

type Snapshot struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	StateTS   string `json:"state_ts"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
	State     State  `json:"state"`
}

// SnapshotSummary is the list view of a snapshot.
type SnapshotSummary struct {
	ID                string  `json:"id"`
	Label             string  `json:"label"`
	StateTS           string  `json:"state_ts"`
	CreatedAt         string  `json:"created_at"`
	DataMaturityIndex float64 `json:"data_maturity_index"`
	AIMaturityScore   float64 `json:"ai_maturity_score"`
	RiskScore         float64 `json:"risk_score"`
	Revenue           float64 `json:"revenue"`
}

type BuildResult struct {
	State    State     `json:"state"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

type Intervention struct {
	ID             string  `json:"id,omitempty"`
	Type           string  `json:"type"`
	Target         string  `json:"target"`
	Intensity      float64 `json:"intensity"`
	DurationMonths int     `json:"duration_months,omitempty"`
}

type Simulation struct {
	ID            string `json:"id"`
	SnapshotID    string `json:"snapshot_id"`
	HorizonMonths int    `json:"horizon_months"`
	Result        struct {
		State                State          `json:"state"`
		FutureTimestamp      time.Time      `json:"future_timestamp"`
		MonthsAhead          int            `json:"months_ahead"`
		InterventionsApplied []Intervention `json:"interventions_applied"`
		ConfidenceInterval   struct {
			Low  float64 `json:"low"`
			High float64 `json:"high"`
		} `json:"confidence_interval"`
	} `json:"result"`
}

type Goal struct {
	Type          string  `json:"type"`
	TargetValue   float64 `json:"target_value,omitempty"`
	HorizonMonths int     `json:"horizon_months,omitempty"`
	MinimizeRisk  bool    `json:"minimize_risk,omitempty"`
}

type Action struct {
	Intervention Intervention `json:"intervention"`
	StartMonth   int          `json:"start_month"`
	EndMonth     int          `json:"end_month"`
}

type Plan struct {
	ID   string `json:"id"`
	Plan struct {
		Goal                Goal     `json:"goal"`
		Actions             []Action `json:"actions"`
		TotalDurationMonths int      `json:"total_duration_months"`
		ConfidenceScore     float64  `json:"confidence_score"`
		TradeOffs           []string `json:"trade_offs"`
		Risks               []string `json:"risks"`
	} `json:"plan"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	OrgID      string         `json:"org_id"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// APIError wraps non-2xx responses. Code and Message come from the error envelope when the
// body carries one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// BuildState builds a state from c and makes it current on the server.
func (c *Client) BuildState(ctx context.Context, in Context, label string, save bool) (BuildResult, error) {
	body := map[string]any{"context": in, "label": label, "save": save}
	var resp BuildResult
	err := c.do(ctx, http.MethodPost, "states", body, &resp)
	return resp, err
}

// CurrentState returns the server's current state.
func (c *Client) CurrentState(ctx context.Context) (State, error) {
	var resp State
	err := c.do(ctx, http.MethodGet, "states/current", nil, &resp)
	return resp, err
}

// Simulate projects the current state, or snapshotID when set, horizonMonths ahead.
func (c *Client) Simulate(ctx context.Context, snapshotID string, horizonMonths int, ivs []Intervention) (Simulation, error) {
	body := map[string]any{"horizon_months": horizonMonths}
	if snapshotID != "" {
		body["snapshot_id"] = snapshotID
	}
	if len(ivs) > 0 {
		body["interventions"] = ivs
	}
	var resp Simulation
	err := c.do(ctx, http.MethodPost, "simulate", body, &resp)
	return resp, err
}

// Optimize plans towards goal from the current state, or snapshotID when set.
func (c *Client) Optimize(ctx context.Context, snapshotID string, goal Goal) (Plan, error) {
	body := map[string]any{"goal": goal}
	if snapshotID != "" {
		body["snapshot_id"] = snapshotID
	}
	var resp Plan
	err := c.do(ctx, http.MethodPost, "optimize", body, &resp)
	return resp, err
}

// Snapshots lists saved snapshots, newest first.
func (c *Client) Snapshots(ctx context.Context, limit int) ([]SnapshotSummary, error) {
	endpoint := "snapshots"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Items []SnapshotSummary `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// Snapshot fetches one snapshot with its full state.
func (c *Client) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	var resp Snapshot
	err := c.do(ctx, http.MethodGet, "snapshots/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(endpoint), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) endpoint(p string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if bp := strings.Trim(c.BasePath, "/"); bp != "" {
		base += "/" + bp
	}
	return base + "/" + strings.TrimLeft(p, "/")
}
