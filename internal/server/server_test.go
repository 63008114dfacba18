package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leowly/TickTock-Tribe/internal/codec"
	"github.com/Leowly/TickTock-Tribe/internal/config"
	"github.com/Leowly/TickTock-Tribe/internal/sim"
	"github.com/Leowly/TickTock-Tribe/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ticker := sim.New(sim.NoopUpdater{}, 5*time.Millisecond, time.Minute)
	t.Cleanup(ticker.Shutdown)

	ts := httptest.NewServer(New(config.Default(), st, ticker).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func generateBody(name string, w, h int) map[string]any {
	return map[string]any{
		"name":   name,
		"world":  map[string]any{"width": w, "height": h},
		"forest": map[string]any{"seed_prob": 0.2, "iterations": 2, "birth_threshold": 4},
		"water":  map[string]any{"density": 0.01, "turn_prob": 0.1, "stop_prob": 0.2, "height_influence": 5.0},
		"seed":   12345,
	}
}

func createMap(t *testing.T, ts *httptest.Server, name string, w, h int) uint64 {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/generate_map", generateBody(name, w, h))
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %v", body)
	require.Equal(t, true, body["success"])
	return uint64(body["map_id"].(float64))
}

func TestGenerateAndFetchMap(t *testing.T) {
	ts := newTestServer(t)
	id := createMap(t, ts, "testworld", 20, 15)

	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/maps/%d", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(20), body["width"])
	assert.Equal(t, float64(15), body["height"])

	packed, err := base64.StdEncoding.DecodeString(body["tiles_base64"].(string))
	require.NoError(t, err)
	assert.Len(t, packed, codec.PackedLen(20*15))

	tiles, err := codec.Unpack(packed, 20*15)
	require.NoError(t, err)
	for _, tile := range tiles {
		assert.LessOrEqual(t, uint8(tile), uint8(2), "fresh maps hold plain/forest/water only")
	}
}

func TestGenerateMapRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing name", func(b map[string]any) { delete(b, "name") }},
		{"missing world", func(b map[string]any) { delete(b, "world") }},
		{"missing forest", func(b map[string]any) { delete(b, "forest") }},
		{"missing water", func(b map[string]any) { delete(b, "water") }},
		{"zero width", func(b map[string]any) { b["world"] = map[string]any{"width": 0, "height": 5} }},
		{"oversize", func(b map[string]any) { b["world"] = map[string]any{"width": 5000, "height": 5000} }},
		{"bad seed_prob", func(b map[string]any) {
			b["forest"] = map[string]any{"seed_prob": 2.0, "iterations": 1, "birth_threshold": 4}
		}},
	}
	for _, c := range cases {
		body := generateBody("bad", 10, 10)
		c.mutate(body)
		resp, decoded := doJSON(t, http.MethodPost, ts.URL+"/api/generate_map", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%s: %v", c.name, decoded)
		assert.Contains(t, decoded, "error", c.name)
	}
}

func TestListMaps(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/maps")
	require.NoError(t, err)
	var maps []store.MapMeta
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&maps))
	resp.Body.Close()
	assert.Empty(t, maps)

	createMap(t, ts, "one", 10, 10)
	createMap(t, ts, "two", 10, 10)

	resp, err = http.Get(ts.URL + "/api/maps")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&maps))
	resp.Body.Close()
	require.Len(t, maps, 2)
}

func TestMapNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/maps/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/maps/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/maps/999/start_simulation", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/debug/map_stats/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteMap(t *testing.T) {
	ts := newTestServer(t)
	id := createMap(t, ts, "doomed", 10, 10)

	resp, _ := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/maps/%d", ts.URL, id), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/maps/%d", ts.URL, id), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSimulationLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := createMap(t, ts, "simworld", 10, 10)

	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/maps/%d/simulation_status", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["is_running"])

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/maps/%d/start_simulation", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		_, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/maps/%d/simulation_status", ts.URL, id), nil)
		return body["is_running"] == true && body["current_tick"].(float64) > 0
	}, 2*time.Second, 10*time.Millisecond, "simulation never ticked")

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/maps/%d/stop_simulation", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/maps/%d/simulation_status", ts.URL, id), nil)
	assert.Equal(t, false, body["is_running"])
}

func TestMapStats(t *testing.T) {
	ts := newTestServer(t)
	id := createMap(t, ts, "stats", 16, 16)

	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/debug/map_stats/%d", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(256), body["total_tiles"])

	stats := body["stats"].(map[string]any)
	sum := 0.0
	for v := 0; v < 8; v++ {
		sum += stats[fmt.Sprintf("%d", v)].(float64)
	}
	assert.Equal(t, 256.0, sum, "histogram must cover every tile")

	readable := body["readable_stats"].(map[string]any)
	assert.Contains(t, readable, "PLAIN (0)")
	assert.Contains(t, readable, "FARM_MATURE (4)")
}

func TestConfigEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, section := range []string{"world", "forest", "water", "view", "time"} {
		assert.Contains(t, body, section)
	}
}
