package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/celrisk/internal/config"
	"github.com/aristath/celrisk/internal/di"
	"github.com/aristath/celrisk/internal/events"
)

func newTestServer(t *testing.T) (*Server, *di.Container) {
	t.Helper()
	cfg := &config.Config{
		DataDir:           t.TempDir(),
		DefaultPartitions: 1000,
		Workers:           2,
		RetentionDays:     30,
		CleanupSchedule:   "@daily",
		Archive:           &config.ArchiveConfig{Schedule: "@hourly", BatchSize: 10},
	}
	container, _, err := di.Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	srv := New(Config{
		Log:       zerolog.Nop(),
		Port:      0,
		DevMode:   true,
		DataDir:   cfg.DataDir,
		Version:   "test",
		Container: container,
	})
	return srv, container
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, "celrisk", body["service"])
}

func TestAnalyzeAndFetchRun(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{
		"planning_horizon": 3,
		"num_simulations": 2000,
		"wacc_distribution": {"min": 0.05, "mode": 0.10, "max": 0.20},
		"initial_investment_distribution": {"low": 90e6, "high": 120e6},
		"period_cashflow_distribution": {"min": 40e6, "mode": 50e6, "max": 55e6},
		"seed": 7
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/risk/npv/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var analyzed struct {
		Data struct {
			ID         string `json:"id"`
			Status     string `json:"status"`
			Partitions int    `json:"partitions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analyzed))
	require.NotEmpty(t, analyzed.Data.ID)
	assert.Equal(t, "computed", analyzed.Data.Status)
	assert.Equal(t, 1000, analyzed.Data.Partitions)

	req = httptest.NewRequest(http.MethodGet, "/api/risk/npv/runs/"+analyzed.Data.ID, nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.EqualValues(t, 1, status.StoredRuns)
}

func TestEventsStream(t *testing.T) {
	srv, container := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events/stream?types=RUN_FAILED", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readData := func() map[string]interface{} {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if payload, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
				var msg map[string]interface{}
				require.NoError(t, json.Unmarshal([]byte(payload), &msg))
				return msg
			}
		}
	}

	assert.Equal(t, "connected", readData()["type"])

	// Filtered out by the types query
	container.EventBus.Publish(&events.RunsPrunedData{Deleted: 1})
	container.EventBus.Publish(&events.RunFailedData{Stage: "sampling", Error: "boom"})

	msg := readData()
	assert.Equal(t, "RUN_FAILED", msg["type"])
	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sampling", data["stage"])
}

func TestEventsWebsocket(t *testing.T) {
	srv, container := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var connected map[string]interface{}
	require.NoError(t, wsjson.Read(ctx, conn, &connected))
	assert.Equal(t, "connected", connected["type"])

	container.EventBus.Publish(&events.RunsArchivedData{Count: 3, Bucket: "reports"})

	var msg map[string]interface{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "RUNS_ARCHIVED", msg["type"])
	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 3, data["count"])

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
}

func TestParseEventTypes(t *testing.T) {
	assert.Equal(t, events.AllEventTypes, parseEventTypes(""))
	assert.Equal(t,
		[]events.EventType{events.RunCompleted, events.RunFailed},
		parseEventTypes("RUN_COMPLETED, RUN_FAILED,"))
}
