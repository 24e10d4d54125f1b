package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) AccessToken(context.Context) (string, error) {
	return "", errors.New("session expired")
}

func newBackend(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL).WithTokens(staticToken("tok-1")), &hits
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_NoTokenSendsNothing(t *testing.T) {
	c, hits := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		client *Client
	}{
		{"no token source", New(c.http.BaseURL)},
		{"token error", c.WithTokens(failingToken{})},
		{"empty token", c.WithTokens(staticToken(""))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.client.GetProfile(ctx, "s1")
			assert.ErrorIs(t, err, ErrUnauthenticated)

			_, err = tc.client.Upload(ctx, File{Name: "a.csv", Size: 1, Body: strings.NewReader("a")}, nil)
			assert.ErrorIs(t, err, ErrUnauthenticated)

			_, err = tc.client.DownloadFile(ctx, "s1")
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestClient_UploadStreamsMultipart(t *testing.T) {
	content := strings.Repeat("a,b,c\n1,2,3\n", 20000)

	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "data.csv", hdr.Filename)
		assert.Equal(t, "text/csv", hdr.Header.Get("Content-Type"))
		assert.Equal(t, len(content), len(data))

		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"session_id": "sess-9",
			"preview":    []map[string]any{{"a": 1, "b": 2, "c": 3}},
			"columns":    []string{"a", "b", "c"},
			"rows":       40000,
		})
	})

	var seen []int
	res, err := c.Upload(context.Background(), File{
		Name:        "data.csv",
		Size:        int64(len(content)),
		ContentType: "text/csv",
		Body:        strings.NewReader(content),
	}, func(p int) { seen = append(seen, p) })

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "sess-9", res.SessionID)
	assert.Equal(t, 40000, res.Rows)
	require.Len(t, res.Preview, 1)
	assert.Equal(t, []string{"a", "b", "c"}, res.Preview[0].Keys())

	require.NotEmpty(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1], "progress must increase")
	}
}

func TestClient_ErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", 400, `{"detail":"Only CSV or Excel files allowed"}`, "Only CSV or Excel files allowed"},
		{"structured detail", 422, `{"detail":[{"loc":["body"],"msg":"field required"}]}`, `[{"loc":["body"],"msg":"field required"}]`},
		{"error field", 500, `{"success":false,"error":"Internal server error"}`, "Internal server error"},
		{"no body", 404, ``, "profile failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetProfile(context.Background(), "s1")
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestClient_NoResponse(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url).WithTokens(staticToken("tok"))
	_, err := c.GetAudit(context.Background(), "s1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoResponse)
	assert.Equal(t, "no response from server", err.Error())
}

func TestClient_CleanSendsOptions(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/clean", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"session_id":      "s1",
			"impute_missing":  true,
			"remove_outliers": false,
			"deduplicate":     true,
		}, body)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    [][]any{{1, "x"}, {2, "y"}},
			"summary": map[string]any{
				"rows_processed":  3,
				"rows_cleaned":    2,
				"transformations": []map[string]any{{"column": "a", "action": "impute", "details": "mean"}},
			},
		})
	})

	res, err := c.CleanData(context.Background(), "s1", CleanOptions{ImputeMissing: true, Deduplicate: true})
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
	assert.Equal(t, 3, res.Summary.RowsProcessed)
	assert.Equal(t, 2, res.Summary.RowsCleaned)
	assert.Equal(t, Text("mean"), res.Summary.Transformations[0].Details)
}

func TestClient_AuditAndDownload(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/audit/s1":
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"logs": []map[string]any{
					{"timestamp": "2024-03-01T10:00:00Z", "action": "upload", "details": "file.csv"},
					{"created_at": "2024-03-01T10:05:00Z", "action": "clean", "details": map[string]any{"rows": 2}},
				},
			})
		case "/download/s1":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = io.WriteString(w, "a,b\n1,2\n")
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	logs, err := c.GetAudit(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "2024-03-01T10:05:00Z", logs[1].Timestamp)
	assert.Equal(t, Text(`{"rows":2}`), logs[1].Details)

	body, err := c.DownloadFile(ctx, "s1")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestClient_DownloadError(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Session not found"})
	})

	_, err := c.DownloadFile(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, "Session not found", err.Error())
}

func TestClient_Features(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"suggestions": []map[string]any{
				{"column": "signup", "type": "datetime_decomposition", "parts": []string{"year", "month"}, "reason": "datetime"},
				{"type": "ratio", "columns": []string{"a", "b"}, "reason": "both numeric"},
			},
		})
	})

	res, err := c.GetFeatures(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 2)
	assert.Equal(t, "signup", res.Suggestions[0].Target())
	assert.Equal(t, "a, b", res.Suggestions[1].Target())
}

func TestPercent(t *testing.T) {
	tests := []struct {
		loaded, total int64
		want          int
	}{
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 67},
		{5, 1000, 1},
		{100, 100, 100},
		{120, 100, 100},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.loaded, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.loaded, tt.total, got, tt.want)
		}
	}
}
