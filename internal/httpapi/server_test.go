// internal/httpapi/server_test.go
package httpapi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/lcrmeter/internal/fault"
	"github.com/tamzrod/lcrmeter/internal/measure"
	"github.com/tamzrod/lcrmeter/internal/poller"
	"github.com/tamzrod/lcrmeter/internal/status"
)

func record(seq uint64, kind measure.Kind, v float32) *measure.Record {
	return &measure.Record{Seq: seq, At: time.Unix(1700000000+int64(seq), 0), Kind: kind, Primary: v, Circuit: "S", RangeIndex: 3}
}

// session mimics the sampler's published view for the given values.
func session(kind measure.Kind, values ...float32) *measure.Session {
	s := &measure.Session{Kind: kind, Filled: len(values), Size: 30}
	for i, v := range values {
		s.History = append(s.History, measure.Point{At: time.Unix(1700000000+int64(i), 0), Value: v})
	}
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestLatestAndHistory(t *testing.T) {
	b := NewBoard()
	s := New(":0", nil, b, nil, zerolog.Nop())

	_ = b.Write(poller.CycleResult{Record: record(1, measure.R, 10), Session: session(measure.R, 10)})
	_ = b.Write(poller.CycleResult{Record: record(2, measure.R, 11), Session: session(measure.R, 10, 11), Estimate: &measure.Estimate{Kind: measure.R, Mean: 10.5, Count: 2}})
	_ = b.Write(poller.CycleResult{Record: record(3, measure.R, 12), Session: session(measure.R, 11, 12)})
	b.SetStatus(status.Snapshot{Health: status.HealthOK, Cycles: 3})

	w := do(t, s, http.MethodGet, "/api/latest", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var latest Latest
	if err := json.Unmarshal(w.Body.Bytes(), &latest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if latest.Record == nil || latest.Record.Seq != 3 || latest.Record.Unit != "Ohm" {
		t.Fatalf("unexpected record %+v", latest.Record)
	}
	if latest.Estimate == nil || latest.Estimate.Mean != 10.5 {
		t.Fatalf("expected last estimate kept, got %+v", latest.Estimate)
	}
	if latest.Health != "ok" || latest.Cycles != 3 {
		t.Fatalf("unexpected status %+v", latest)
	}
	if p := latest.Population; p == nil || p.Kind != "R" || p.Filled != 2 || p.Size != 30 {
		t.Fatalf("unexpected population %+v", latest.Population)
	}

	w = do(t, s, http.MethodGet, "/api/history", "")
	var hist struct {
		Kind   string `json:"kind"`
		Points []struct {
			Value float32 `json:"value"`
		} `json:"points"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hist.Kind != "R" || len(hist.Points) != 2 || hist.Points[0].Value != 11 {
		t.Fatalf("unexpected history %+v", hist)
	}
}

func TestBoard_KindSwitch(t *testing.T) {
	b := NewBoard()
	_ = b.Write(poller.CycleResult{Record: record(1, measure.R, 10), Session: session(measure.R, 10), Estimate: &measure.Estimate{}})
	_ = b.Write(poller.CycleResult{Record: record(2, measure.C, 1e-9), Session: session(measure.C, 1e-9)})

	kind, pts := b.History()
	if kind != "C" || len(pts) != 1 {
		t.Fatalf("expected fresh C history, got %s %d", kind, len(pts))
	}
	if b.Snapshot().Estimate != nil {
		t.Fatalf("expected stale estimate dropped")
	}
}

func TestLatest_NonFiniteValuesAreNull(t *testing.T) {
	b := NewBoard()
	s := New(":0", nil, b, nil, zerolog.Nop())

	nan := float32(math.NaN())
	rec := record(1, measure.R, nan)
	rec.Tangent = float32(math.Inf(1))
	_ = b.Write(poller.CycleResult{
		Record:   rec,
		Session:  session(measure.R, 10, nan),
		Estimate: &measure.Estimate{Kind: measure.R, Mean: math.NaN(), StdDev: math.Inf(-1), Count: 2},
	})

	w := do(t, s, http.MethodGet, "/api/latest", "")
	var latest map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &latest); err != nil {
		t.Fatalf("expected JSON body, got %q: %v", w.Body.String(), err)
	}
	recJSON := latest["record"].(map[string]any)
	if recJSON["primary"] != nil || recJSON["tangent"] != nil {
		t.Fatalf("expected null primary and tangent, got %v", recJSON)
	}
	if recJSON["seq"] != float64(1) {
		t.Fatalf("expected finite fields kept, got %v", recJSON)
	}
	if est := latest["estimate"].(map[string]any); est["mean"] != nil || est["stddev"] != nil {
		t.Fatalf("expected null estimate fields, got %v", est)
	}

	w = do(t, s, http.MethodGet, "/api/history", "")
	var hist struct {
		Points []struct {
			Value *float32 `json:"value"`
		} `json:"points"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("expected JSON body, got %q: %v", w.Body.String(), err)
	}
	if len(hist.Points) != 2 || hist.Points[0].Value == nil || *hist.Points[0].Value != 10 || hist.Points[1].Value != nil {
		t.Fatalf("unexpected history %s", w.Body.String())
	}
}

func TestHealth_ReflectsStatus(t *testing.T) {
	b := NewBoard()
	s := New(":0", nil, b, nil, zerolog.Nop())

	b.SetStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 3})
	_ = b.Write(poller.CycleResult{Aborted: true, Step: poller.StateReadStatus, Err: fault.New(fault.NoResponse, nil)})

	w := do(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if latest := b.Snapshot(); latest.LastStep != "status" || latest.ErrorCode != 3 {
		t.Fatalf("unexpected latest %+v", latest)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(":0", nil, NewBoard(), nil, zerolog.Nop())
	_ = do(t, s, http.MethodGet, "/health", "")

	w := do(t, s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "lcrmeter_http_requests_total") {
		t.Fatalf("expected metrics output, got %d", w.Code)
	}
}

func TestWrite_QueuedToPollLoop(t *testing.T) {
	writes := make(chan poller.WriteRequest)
	s := New(":0", nil, NewBoard(), writes, zerolog.Nop())

	go func() {
		req := <-writes
		if req.Register != 300 || req.Value != 0 {
			req.Result <- errors.New("unexpected request")
			return
		}
		req.Result <- nil
	}()

	w := do(t, s, http.MethodPost, "/api/write", `{"register":300,"value":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestWrite_Validation(t *testing.T) {
	s := New(":0", nil, NewBoard(), make(chan poller.WriteRequest), zerolog.Nop())
	if w := do(t, s, http.MethodPost, "/api/write", `{"register":1}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	disabled := New(":0", nil, NewBoard(), nil, zerolog.Nop())
	if w := do(t, disabled, http.MethodPost, "/api/write", `{"register":1,"value":2}`); w.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", w.Code)
	}
}
