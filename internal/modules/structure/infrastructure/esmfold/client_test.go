package esmfold

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "MKT", string(body))
		_, _ = w.Write([]byte("HEADER\nATOM      1  N   MET A   1\nEND\n"))
	}))
	defer srv.Close()

	pdb, err := NewClient(srv.URL, time.Second).Fold(context.Background(), "MKT")

	require.NoError(t, err)
	assert.Contains(t, pdb, "ATOM")
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sequence too long", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Fold(context.Background(), "MKT")

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Equal(t, "sequence too long", upstream.Body)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient(srv.URL, 50*time.Millisecond).Fold(context.Background(), "MKT")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", 0)
	assert.Equal(t, DefaultEndpoint, c.endpoint)
	assert.Equal(t, 60*time.Second, c.http.Timeout)
	assert.Equal(t, int64(MaxPDBBytes), c.maxBody)
}

func TestClient_OversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ATOM      1  N   MET A   1\nATOM      2  CA  MET A   1\nEND\n"))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)
	c.maxBody = 16

	_, err := c.Fold(context.Background(), "MKT")

	assert.ErrorContains(t, err, "exceeds 16 bytes")
	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
}
