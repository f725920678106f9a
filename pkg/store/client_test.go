package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

// setupTestServer starts a backend stand-in that records every request and
// replies with the handler's status and body.
func setupTestServer(t *testing.T, reply func(r *http.Request) (int, string)) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		mu.Lock()
		reqs = append(reqs, rec)
		mu.Unlock()

		code, body := reply(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

const taskJSON = `{"id": 3, "title": "Write Essay", "status": "in-progress",
	"allocated_hours": 4, "time_spent": 1.5,
	"created_at": "2026-02-08T10:00:00.123456Z", "updated_at": "2026-02-08T11:00:00Z"}`

func TestClientList(t *testing.T) {
	srv, reqs := setupTestServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, "[" + taskJSON + "]"
	})

	c, err := NewClient(srv.URL + "/api")
	require.NoError(t, err)

	tasks, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Equal(t, 3, task.ID)
	assert.Equal(t, StatusInProgress, task.Status)
	assert.Equal(t, 4.0, task.Budget.AllocatedHours)
	assert.Equal(t, 5400.0, task.Budget.SpentSeconds)
	assert.Equal(t, time.Date(2026, 2, 8, 11, 0, 0, 0, time.UTC), task.UpdatedAt.UTC())

	require.Len(t, reqs(), 1)
	assert.Equal(t, http.MethodGet, reqs()[0].Method)
	assert.Equal(t, "/api/tasks/", reqs()[0].Path)
	assert.Empty(t, reqs()[0].Auth)
}

func TestClientSpentSecondsUnit(t *testing.T) {
	srv, _ := setupTestServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{"id": 1, "title": "t", "status": "todo", "allocated_hours": "2.50", "time_spent": 90}`
	})

	c, err := NewClient(srv.URL, WithSpentUnit(SpentSeconds))
	require.NoError(t, err)

	task, err := c.AddElapsedSeconds(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, task.Budget.AllocatedHours)
	assert.Equal(t, 90.0, task.Budget.SpentSeconds)
}

func TestClientRequests(t *testing.T) {
	srv, reqs := setupTestServer(t, func(r *http.Request) (int, string) {
		switch {
		case r.Method == http.MethodDelete:
			return http.StatusNoContent, ""
		case r.URL.Path == "/api/tasks/search/":
			return http.StatusOK, "[]"
		case r.Method == http.MethodPost && r.URL.Path == "/api/tasks/":
			return http.StatusCreated, taskJSON
		}
		return http.StatusOK, taskJSON
	})

	c, err := NewClient(srv.URL + "/api/")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Create(ctx, "Write Essay", 4)
	require.NoError(t, err)
	_, err = c.Search(ctx, "math & physics")
	require.NoError(t, err)
	_, err = c.SetStatus(ctx, 3, StatusCompleted)
	require.NoError(t, err)
	_, err = c.AddElapsedSeconds(ctx, 3, 1)
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, 3))

	got := reqs()
	require.Len(t, got, 5)

	assert.Equal(t, "/api/tasks/", got[0].Path)
	assert.Equal(t, map[string]any{"title": "Write Essay", "allocated_hours": 4.0, "status": "todo"}, got[0].Body)

	assert.Equal(t, "/api/tasks/search/", got[1].Path)
	assert.Equal(t, "q=math+%26+physics", got[1].Query)

	assert.Equal(t, http.MethodPost, got[2].Method)
	assert.Equal(t, "/api/tasks/3/change_status/", got[2].Path)
	assert.Equal(t, map[string]any{"status": "completed"}, got[2].Body)

	assert.Equal(t, "/api/tasks/3/update_time/", got[3].Path)
	assert.Equal(t, map[string]any{"seconds": 1.0}, got[3].Body)

	assert.Equal(t, http.MethodDelete, got[4].Method)
	assert.Equal(t, "/api/tasks/3/", got[4].Path)
}

func TestClientValidatesBeforeSending(t *testing.T) {
	srv, reqs := setupTestServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, taskJSON
	})
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Create(ctx, "", 1)
	assert.True(t, IsValidation(err))
	_, err = c.SetStatus(ctx, 1, Status("blocked"))
	assert.True(t, IsValidation(err))
	_, err = c.AddElapsedSeconds(ctx, 1, -1)
	assert.True(t, IsValidation(err))

	assert.Empty(t, reqs())
}

func TestClientCredentialHeader(t *testing.T) {
	srv, reqs := setupTestServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, "[]"
	})

	basic, err := NewCredential(SchemeBasic, "", "admin", "s3cret")
	require.NoError(t, err)
	c, err := NewClient(srv.URL, WithCredential(basic))
	require.NoError(t, err)
	_, err = c.List(context.Background())
	require.NoError(t, err)

	token, err := NewCredential(SchemeToken, "abc123", "", "")
	require.NoError(t, err)
	c, err = NewClient(srv.URL, WithCredential(token))
	require.NoError(t, err)
	_, err = c.List(context.Background())
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:s3cret"))
	assert.Equal(t, want, reqs()[0].Auth)
	assert.Equal(t, "Token abc123", reqs()[1].Auth)
}

func TestNewCredential(t *testing.T) {
	src, err := NewCredential("", "", "", "")
	require.NoError(t, err)
	assert.Nil(t, src)

	_, err = NewCredential(SchemeBearer, "", "", "")
	assert.True(t, IsValidation(err))

	_, err = NewCredential("digest", "x", "", "")
	assert.True(t, IsValidation(err))

	src, err = NewCredential(SchemeBearer, "tok", "", "")
	require.NoError(t, err)
	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.Type())
}

func TestClientErrorResponses(t *testing.T) {
	srv, _ := setupTestServer(t, func(r *http.Request) (int, string) {
		if r.URL.Path == "/tasks/9/change_status/" {
			return http.StatusBadRequest, `{"error": "Invalid status"}`
		}
		return http.StatusNotFound, `{"detail": "Not found."}`
	})
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.SetStatus(ctx, 9, StatusTodo)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, OpStatus, se.Op)
	assert.Contains(t, err.Error(), "Invalid status")

	err = c.Delete(ctx, 9)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Not found.")
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.List(context.Background())
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Zero(t, se.StatusCode)
}

func TestClientStatistics(t *testing.T) {
	srv, reqs := setupTestServer(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{"total_hours_spent": 7200, "total_tasks": 3, "completed_tasks": 1, "in_progress_tasks": 1, "todo_tasks": 1}`
	})
	c, err := NewClient(srv.URL, WithSpentUnit(SpentSeconds))
	require.NoError(t, err)

	st, err := c.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/tasks/statistics/", reqs()[0].Path)
	assert.Equal(t, 2.0, st.TotalHoursSpent)
	assert.Equal(t, 3, st.TotalTasks)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	assert.Error(t, err)

	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestParseSpentUnit(t *testing.T) {
	u, err := ParseSpentUnit("")
	require.NoError(t, err)
	assert.Equal(t, SpentHours, u)

	u, err = ParseSpentUnit("Seconds")
	require.NoError(t, err)
	assert.Equal(t, SpentSeconds, u)

	_, err = ParseSpentUnit("minutes")
	assert.True(t, IsValidation(err))
}
