package aggregator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-jobqueue/internal/adapters/httpclient"
	"github.com/target/mmk-jobqueue/internal/domain/model"
)

func TestClient_TaskIDs_Paginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/task_ids", r.URL.Path)
		assert.Equal(t, "Bearer agg-token", r.Header.Get("Authorization"))
		assert.Equal(t, MediaType, r.Header.Get("Accept"))
		switch r.URL.Query().Get("pagination_token") {
		case "":
			_, _ = w.Write([]byte(`{"task_ids":["a","b"],"pagination_token":"p2"}`))
		case "p2":
			_, _ = w.Write([]byte(`{"task_ids":["c"],"pagination_token":null}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/api", "agg-token", srv.Client())
	require.NoError(t, err)

	ids, err := c.TaskIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestClient_TaskIDs_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "t", srv.Client())
	require.NoError(t, err)

	_, err = c.TaskIDs(context.Background())
	var se *httpclient.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestClient_DeleteTask(t *testing.T) {
	var (
		mu      sync.Mutex
		deleted []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		mu.Lock()
		deleted = append(deleted, r.URL.EscapedPath())
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "t", srv.Client())
	require.NoError(t, err)

	require.NoError(t, c.DeleteTask(context.Background(), "task-1"))
	require.Error(t, c.DeleteTask(context.Background(), ""))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/tasks/task-1"}, deleted)
}

func TestFactory_ForAggregator(t *testing.T) {
	f := NewFactory(0)
	assert.NotNil(t, f.HTTP)

	api, err := f.ForAggregator(&model.Aggregator{ID: "agg-1", APIURL: "https://agg.example.com"}, "tok")
	require.NoError(t, err)
	assert.NotNil(t, api)

	_, err = f.ForAggregator(&model.Aggregator{ID: "agg-2", APIURL: "https://agg.example.com"}, "")
	require.Error(t, err)

	_, err = f.ForAggregator(&model.Aggregator{ID: "agg-3", APIURL: "not a url"}, "tok")
	require.Error(t, err)

	_, err = f.ForAggregator(nil, "tok")
	require.Error(t, err)
}
