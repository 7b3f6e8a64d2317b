package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/accessfit/accessfit-gateway/internal/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do_decodesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exercises", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Seated Row"},{"name":"Arm Circles"}]`))
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, srv.Client())

	var out []struct {
		Name string `json:"name"`
	}
	err := client.Do(context.Background(), http.MethodGet, "/exercises", nil, nil, &out)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Seated Row", out[0].Name)
}

func TestClient_Do_sendsQueryAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, srv.Client())

	query := url.Values{}
	query.Set("limit", "5")
	reqBody := map[string]any{"weight": 81.5}

	var out struct {
		OK bool `json:"ok"`
	}
	err := client.Do(context.Background(), http.MethodPost, "/health-metrics/user/3", query, reqBody, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestClient_Do_structuredErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"exercise already exists"}`))
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, srv.Client())

	err := client.Do(context.Background(), http.MethodPost, "/exercises", nil, nil, nil)
	require.Error(t, err)

	var reqErr *backend.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusConflict, reqErr.StatusCode)
	assert.Equal(t, "exercise already exists", reqErr.Message)
}

func TestClient_Do_messageErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid progress score"}`))
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, srv.Client())

	err := client.Do(context.Background(), http.MethodPost, "/progress", nil, nil, nil)
	var reqErr *backend.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "invalid progress score", reqErr.Message)
}

func TestClient_Do_plainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("database is on fire\n"))
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, srv.Client())

	err := client.Do(context.Background(), http.MethodGet, "/exercises", nil, nil, nil)
	var reqErr *backend.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "database is on fire", reqErr.Message)
}

func TestClient_Do_emptyBodyFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, srv.Client())

	err := client.Do(context.Background(), http.MethodGet, "/exercises/777", nil, nil, nil)
	var reqErr *backend.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusNotFound), reqErr.Message)
}

func TestClient_Do_transportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // dead on arrival

	client := backend.NewClient(srv.URL, http.DefaultClient)

	err := client.Do(context.Background(), http.MethodGet, "/exercises", nil, nil, nil)
	require.Error(t, err)

	var reqErr *backend.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 0, reqErr.StatusCode)
	assert.NotEmpty(t, reqErr.Message)
}

func TestClient_Do_noBodyExpected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, srv.Client())

	var out map[string]any
	err := client.Do(context.Background(), http.MethodDelete, "/exercises/7", nil, nil, &out)
	require.NoError(t, err)
	assert.Nil(t, out)
}
