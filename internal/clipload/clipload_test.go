package clipload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchReturnsBodyOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("clip-bytes"))
	}))
	defer srv.Close()

	f := NewFetcher(2 * time.Second)
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "clip-bytes", string(body))
}

func TestFetchReturnsErrorOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(2 * time.Second)
	f.client.SetRetryCount(0)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestFetchReturnsErrorOnUnreachableHost(t *testing.T) {
	f := NewFetcher(200 * time.Millisecond)
	f.client.SetRetryCount(0)
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
}
