package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMux_HealthEndpoint(t *testing.T) {
	mux := buildMux(context.Background(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMux_QuotaEndpoint_NilTracker(t *testing.T) {
	mux := buildMux(context.Background(), nil)

	req := httptest.NewRequest(http.MethodGet, "/quota", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Contains(t, body, "providers")
	assert.EqualValues(t, 0, body["persist_failures"])
}

func TestBuildMux_WebhookRun_Valid_NilPipeline(t *testing.T) {
	// With a nil pipeline, the goroutine skips the run gracefully.
	mux := buildMux(context.Background(), nil)

	payload := map[string]any{
		"vertical":    "HVAC contractor",
		"region":      "Springfield, IL",
		"max_results": 25,
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/webhook/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, "HVAC contractor", resp["vertical"])

	// Give the goroutine time to execute the nil check path.
	time.Sleep(10 * time.Millisecond)
}

func TestBuildMux_WebhookRun_MissingFields(t *testing.T) {
	mux := buildMux(context.Background(), nil)

	body, _ := json.Marshal(map[string]string{"region": "Springfield, IL"})

	req := httptest.NewRequest(http.MethodPost, "/webhook/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "vertical and region are required")
}

func TestBuildMux_WebhookRun_InvalidBody(t *testing.T) {
	mux := buildMux(context.Background(), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook/run", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestAwaitShutdown_DrainsInFlightRequests(t *testing.T) {
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}),
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)

	reqErr := make(chan error, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			resp.Body.Close()
		}
		reqErr <- err
	}()
	time.Sleep(10 * time.Millisecond) // let the request reach the handler

	// An already-cancelled parent must not cut the drain short.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, awaitShutdown(ctx, srv))
	require.NoError(t, <-reqErr)
}
