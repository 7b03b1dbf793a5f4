package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweater-ventures/roster/query"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", srv.Client())
}

func TestResourcePath(t *testing.T) {
	assert.Equal(t, "/users", ResourcePath("users", ""))
	assert.Equal(t, "/users/abc", ResourcePath("users", "abc"))
	assert.Equal(t, "/users/a%2Fb", ResourcePath("users", "a/b"))
}

func TestListPath(t *testing.T) {
	assert.Equal(t, "/users", ListPath("users", query.New()))
	q := query.New().WithFilter("role", query.String("admin")).WithPage(1, 20)
	assert.Equal(t, "/users?role=admin&_page=1&_limit=20", ListPath("users", q))
}

func TestRequest_SendsJSONBody(t *testing.T) {
	var gotBody map[string]any
	var gotMethod, gotPath, gotContentType string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"1","name":"Jane"}}`))
	})

	raw, err := c.Request(context.Background(), http.MethodPost, "/users", map[string]any{"name": "Jane"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/users", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Jane", gotBody["name"])

	var resp Response[map[string]string]
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, "1", resp.Data["id"])
}

func TestRequest_NoContentYieldsEmptyObject(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	raw, err := c.Request(context.Background(), http.MethodDelete, "/users/1", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestRequest_Errors(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
		expectedDetails string
		notFound        bool
	}{
		{"error field used", http.StatusNotFound, `{"error":"Not found"}`, "Not found", "", true},
		{"details kept", http.StatusBadRequest, `{"error":"Invalid data","details":"email: Invalid email format"}`, "Invalid data", "email: Invalid email format", false},
		{"json without error field", http.StatusConflict, `{"message":"nope"}`, "Request failed", "", false},
		{"non json body", http.StatusBadGateway, `<html>bad gateway</html>`, "HTTP 502", "", false},
		{"empty body", http.StatusInternalServerError, ``, "HTTP 500", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Request(context.Background(), http.MethodGet, "/users/1", nil)
			require.Error(t, err)

			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.status, reqErr.StatusCode)
			assert.Equal(t, tt.expectedMessage, reqErr.Message)
			assert.Equal(t, tt.expectedDetails, reqErr.Details)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))
		})
	}
}

func TestRequest_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := New(srv.URL, srv.Client())
	srv.Close()

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /users")
	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr))
}

func TestRequest_InvalidJSONSuccessBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := c.Request(context.Background(), http.MethodGet, "/users", nil)
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestWithHeader(t *testing.T) {
	var got string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Roster-Origin")
		w.WriteHeader(http.StatusNoContent)
	})

	tagged := c.WithHeader("X-Roster-Origin", "console-1")
	_, err := tagged.Request(context.Background(), http.MethodDelete, "/users/1", nil)
	require.NoError(t, err)
	assert.Equal(t, "console-1", got)

	_, err = c.Request(context.Background(), http.MethodDelete, "/users/1", nil)
	require.NoError(t, err)
	assert.Empty(t, got, "original client must be unchanged")
}
