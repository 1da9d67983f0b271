package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"handsim/internal/config"
	"handsim/internal/sim"
)

// testRouter builds a router with a fresh registry and a rate limit high
// enough that tests never trip it.
func testRouter(t *testing.T, maxMatches int, duration float64) (*httptest.Server, *Registry) {
	t.Helper()
	registry := NewRegistry(maxMatches)
	router := NewRouter(RouterConfig{
		Registry: registry,
		Sim: config.SimConfig{
			TickDT:       0.05,
			Duration:     duration,
			DefaultSkill: 60,
		},
		DisableLogging: true,
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 10000,
			Burst:             10000,
			CleanupInterval:   time.Minute,
		},
	})
	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		for _, e := range registry.List() {
			e.Cancel()
			if e.Hub != nil {
				e.Hub.Stop()
			}
		}
		ts.Close()
	})
	return ts, registry
}

func createMatch(t *testing.T, ts *httptest.Server, body string) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/matches", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var out struct {
		MatchID string `json:"matchId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.MatchID == "" {
		t.Fatal("empty matchId")
	}
	return out.MatchID
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func waitForResult(t *testing.T, ts *httptest.Server, id string) sim.MatchResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		var result sim.MatchResult
		if code := getJSON(t, ts.URL+"/api/matches/"+id+"/result", &result); code == http.StatusOK {
			return result
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("match did not finish in time")
	return sim.MatchResult{}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := testRouter(t, 4, 60)

	var out map[string]interface{}
	if code := getJSON(t, ts.URL+"/api/health", &out); code != http.StatusOK {
		t.Fatalf("health status = %d", code)
	}
	if out["status"] != "ok" {
		t.Errorf("health body = %v", out)
	}
}

func TestRequestMetricsRecorded(t *testing.T) {
	ts, _ := testRouter(t, 4, 60)

	before := testutil.ToFloat64(requestTotal.WithLabelValues("GET", "/api/health", "200"))
	if code := getJSON(t, ts.URL+"/api/health", nil); code != http.StatusOK {
		t.Fatalf("health status = %d", code)
	}
	after := testutil.ToFloat64(requestTotal.WithLabelValues("GET", "/api/health", "200"))
	if after < before+1 {
		t.Errorf("request counter %.0f -> %.0f, want an increment", before, after)
	}
}

func TestCreateAndFinishMatch(t *testing.T) {
	ts, _ := testRouter(t, 4, 60)

	id := createMatch(t, ts, `{"generate":{"homeName":"HC Alpha","awayName":"HC Beta"},"seed":7,"duration":60}`)

	// While running (or just after), the snapshot endpoint serves state.
	var snap sim.MatchSnapshot
	if code := getJSON(t, ts.URL+"/api/matches/"+id, &snap); code != http.StatusOK {
		t.Fatalf("snapshot status = %d", code)
	}

	result := waitForResult(t, ts, id)
	if result.IsAborted {
		t.Error("short match reported aborted")
	}
	if result.Home.Stats.Goals != result.Home.Score {
		t.Error("result stats inconsistent with score")
	}

	// Listing includes the finished match.
	var list []map[string]interface{}
	if code := getJSON(t, ts.URL+"/api/matches", &list); code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list status %d, %d entries", code, len(list))
	}
	if list[0]["matchId"] != id {
		t.Errorf("listed id = %v", list[0]["matchId"])
	}

	// Events endpoint paginates by sequence.
	var events []sim.Event
	if code := getJSON(t, ts.URL+"/api/matches/"+id+"/events", &events); code != http.StatusOK {
		t.Fatalf("events status = %d", code)
	}
	if len(events) == 0 {
		t.Fatal("no events for a finished match")
	}
	last := events[len(events)-1].Sequence
	var tail []sim.Event
	getJSON(t, ts.URL+"/api/matches/"+id+"/events?after="+jsonNumber(last), &tail)
	if len(tail) != 0 {
		t.Errorf("events after the last sequence: %d", len(tail))
	}
}

func TestCreateMatchValidation(t *testing.T) {
	ts, _ := testRouter(t, 4, 60)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body", `{}`, http.StatusBadRequest},
		{"not json", `{{{`, http.StatusBadRequest},
		{"generate missing names", `{"generate":{"homeName":"A"}}`, http.StatusBadRequest},
		{"bad tick", `{"generate":{"homeName":"A","awayName":"B"},"tickDt":0.9}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/matches", "application/json", bytes.NewBufferString(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestResultConflictWhileRunning(t *testing.T) {
	ts, _ := testRouter(t, 4, 3600)
	id := createMatch(t, ts, `{"generate":{"homeName":"A","awayName":"B"},"seed":9}`)

	if code := getJSON(t, ts.URL+"/api/matches/"+id+"/result", nil); code != http.StatusConflict {
		t.Errorf("result while running = %d, want 409", code)
	}

	// Aborting removes the entry entirely.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/matches/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if code := getJSON(t, ts.URL+"/api/matches/"+id, nil); code != http.StatusNotFound {
		t.Errorf("snapshot after delete = %d, want 404", code)
	}
}

func TestMatchNotFound(t *testing.T) {
	ts, _ := testRouter(t, 4, 60)

	for _, path := range []string{
		"/api/matches/nope",
		"/api/matches/nope/result",
		"/api/matches/nope/events",
		"/api/matches/nope/frame",
	} {
		if code := getJSON(t, ts.URL+path, nil); code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, code)
		}
	}

	resp, err := http.Post(ts.URL+"/api/matches/nope/timeout", "application/json",
		bytes.NewBufferString(`{"side":"home"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("timeout on missing match = %d", resp.StatusCode)
	}
}

func TestTimeoutEndpoint(t *testing.T) {
	ts, _ := testRouter(t, 4, 60)
	id := createMatch(t, ts, `{"generate":{"homeName":"A","awayName":"B"},"seed":3,"duration":60}`)

	// Bad side name.
	resp, err := http.Post(ts.URL+"/api/matches/"+id+"/timeout", "application/json",
		bytes.NewBufferString(`{"side":"neutral"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad side status = %d", resp.StatusCode)
	}

	waitForResult(t, ts, id)

	// Requests against a finished match conflict.
	resp, err = http.Post(ts.URL+"/api/matches/"+id+"/timeout", "application/json",
		bytes.NewBufferString(`{"side":"home"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("timeout on finished match = %d, want 409", resp.StatusCode)
	}
}

func TestMatchLimit(t *testing.T) {
	ts, _ := testRouter(t, 1, 3600)
	createMatch(t, ts, `{"generate":{"homeName":"A","awayName":"B"},"seed":1}`)

	resp, err := http.Post(ts.URL+"/api/matches", "application/json",
		bytes.NewBufferString(`{"generate":{"homeName":"C","awayName":"D"},"seed":2}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("over-limit create = %d, want 503", resp.StatusCode)
	}
}

func TestFrameEndpoint(t *testing.T) {
	ts, _ := testRouter(t, 4, 3600)
	id := createMatch(t, ts, `{"generate":{"homeName":"A","awayName":"B"},"seed":4}`)

	resp, err := http.Get(ts.URL + "/api/matches/" + id + "/frame")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("frame status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}

	// PNG magic bytes.
	buf := make([]byte, 8)
	if _, err := resp.Body.Read(buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}) {
		t.Errorf("response is not a PNG: % x", buf)
	}
}

func jsonNumber(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
