package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/stefanpenner/pomo/pkg/budget"
)

// DefaultBaseURL is the API root of a locally running backend.
const DefaultBaseURL = "http://localhost:8000/api"

// DefaultTimeout bounds each request when no other timeout is configured.
const DefaultTimeout = 10 * time.Second

// SpentUnit is the unit the backend uses for time_spent.
type SpentUnit string

const (
	SpentHours   SpentUnit = "hours"
	SpentSeconds SpentUnit = "seconds"
)

// ParseSpentUnit validates a configured unit name.
func ParseSpentUnit(s string) (SpentUnit, error) {
	switch SpentUnit(strings.ToLower(s)) {
	case SpentHours, "":
		return SpentHours, nil
	case SpentSeconds:
		return SpentSeconds, nil
	}
	return "", &ValidationError{Field: "time_spent_unit", Message: `must be "hours" or "seconds"`}
}

// Client talks to the task API over HTTP/JSON.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	credential oauth2.TokenSource
	timeout    time.Duration
	unit       SpentUnit
	logger     *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient uses hc as the underlying client. It is copied, not mutated.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithCredential attaches an Authorization header from src to every request.
func WithCredential(src oauth2.TokenSource) ClientOption {
	return func(c *Client) { c.credential = src }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithSpentUnit sets the unit used for time_spent on the wire.
func WithSpentUnit(u SpentUnit) ClientOption {
	return func(c *Client) { c.unit = u }
}

// WithLogger logs each request at debug level.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client for the API rooted at baseURL
// (e.g. "http://localhost:8000/api").
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}

	c := &Client{base: u, timeout: DefaultTimeout, unit: SpentHours}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	hc := &http.Client{}
	if c.httpClient != nil {
		*hc = *c.httpClient
	}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	if c.credential != nil {
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc.Transport = &oauth2.Transport{Source: c.credential, Base: base}
	}
	c.httpClient = hc
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.base.String(), "/")
}

type wireTask struct {
	ID             int        `json:"id"`
	Title          string     `json:"title"`
	Status         Status     `json:"status"`
	AllocatedHours flexFloat  `json:"allocated_hours"`
	TimeSpent      flexFloat  `json:"time_spent"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// flexFloat accepts JSON numbers and numeric strings (decimal fields are
// often serialized as strings).
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("decoding number %s: %w", b, err)
	}
	*f = flexFloat(v)
	return nil
}

func (c *Client) toTask(w wireTask) Task {
	spent := float64(w.TimeSpent)
	if c.unit == SpentHours {
		spent *= budget.SecondsPerHour
	}
	t := Task{
		ID:     w.ID,
		Title:  w.Title,
		Status: w.Status,
		Budget: budget.New(float64(w.AllocatedHours), spent),
	}
	if w.CreatedAt != nil {
		t.CreatedAt = *w.CreatedAt
	}
	if w.UpdatedAt != nil {
		t.UpdatedAt = *w.UpdatedAt
	}
	return t
}

func (c *Client) toTasks(ws []wireTask) []Task {
	out := make([]Task, 0, len(ws))
	for _, w := range ws {
		out = append(out, c.toTask(w))
	}
	return out
}

// List fetches every task.
func (c *Client) List(ctx context.Context) ([]Task, error) {
	var ws []wireTask
	if err := c.do(ctx, OpList, 0, http.MethodGet, "tasks/", nil, nil, &ws); err != nil {
		return nil, err
	}
	return c.toTasks(ws), nil
}

// Create adds a todo task with the given allocation.
func (c *Client) Create(ctx context.Context, title string, allocatedHours float64) (Task, error) {
	if err := ValidateNewTask(title, allocatedHours); err != nil {
		return Task{}, err
	}
	body := map[string]any{
		"title":           strings.TrimSpace(title),
		"allocated_hours": allocatedHours,
		"status":          StatusTodo,
	}
	var w wireTask
	if err := c.do(ctx, OpCreate, 0, http.MethodPost, "tasks/", nil, body, &w); err != nil {
		return Task{}, err
	}
	return c.toTask(w), nil
}

// Search finds tasks whose title contains query.
func (c *Client) Search(ctx context.Context, query string) ([]Task, error) {
	var ws []wireTask
	q := url.Values{"q": {query}}
	if err := c.do(ctx, OpSearch, 0, http.MethodGet, "tasks/search/", q, nil, &ws); err != nil {
		return nil, err
	}
	return c.toTasks(ws), nil
}

// SetStatus changes a task's status.
func (c *Client) SetStatus(ctx context.Context, id int, status Status) (Task, error) {
	if err := validateStatus(status); err != nil {
		return Task{}, err
	}
	var w wireTask
	path := fmt.Sprintf("tasks/%d/change_status/", id)
	if err := c.do(ctx, OpStatus, id, http.MethodPost, path, nil, map[string]any{"status": status}, &w); err != nil {
		return Task{}, err
	}
	return c.toTask(w), nil
}

// AddElapsedSeconds asks the server to add seconds to the task's spent time.
func (c *Client) AddElapsedSeconds(ctx context.Context, id int, seconds int) (Task, error) {
	if err := validateSeconds(seconds); err != nil {
		return Task{}, err
	}
	var w wireTask
	path := fmt.Sprintf("tasks/%d/update_time/", id)
	if err := c.do(ctx, OpAccrue, id, http.MethodPost, path, nil, map[string]any{"seconds": seconds}, &w); err != nil {
		return Task{}, err
	}
	return c.toTask(w), nil
}

// Delete removes a task.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, OpDelete, id, http.MethodDelete, fmt.Sprintf("tasks/%d/", id), nil, nil, nil)
}

// Statistics fetches the server-side summary.
func (c *Client) Statistics(ctx context.Context) (Statistics, error) {
	var st Statistics
	if err := c.do(ctx, OpStats, 0, http.MethodGet, "tasks/statistics/", nil, nil, &st); err != nil {
		return Statistics{}, err
	}
	if c.unit == SpentSeconds {
		st.TotalHoursSpent = roundTo(st.TotalHoursSpent/budget.SecondsPerHour, 2)
	}
	return st, nil
}

func (c *Client) do(ctx context.Context, op Op, id int, method, path string, query url.Values, body, out any) error {
	u := c.base.JoinPath(path)
	// The API routes require the trailing slash.
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &StoreError{Op: op, TaskID: id, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &StoreError{Op: op, TaskID: id, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", u.Path, "err", err)
		return &StoreError{Op: op, TaskID: id, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("request", "method", method, "path", u.Path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StoreError{Op: op, TaskID: id, StatusCode: resp.StatusCode, Err: errorFromBody(resp.Body, resp.StatusCode)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &StoreError{Op: op, TaskID: id, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// errorFromBody extracts the server's message from an {"error": ...} or
// {"detail": ...} body.
func errorFromBody(r io.Reader, code int) error {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return errors.New(payload.Error)
		}
		if payload.Detail != "" {
			return errors.New(payload.Detail)
		}
	}
	if code == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}
