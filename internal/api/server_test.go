package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/pihub/internal/cache"
	"github.com/nerrad567/pihub/internal/hardware"
	"github.com/nerrad567/pihub/internal/infrastructure/config"
	"github.com/nerrad567/pihub/internal/infrastructure/logging"
	"github.com/nerrad567/pihub/internal/relay"
	"github.com/nerrad567/pihub/internal/sensor"
)

// newTestServer wires a server against simulated hardware: one DHT22
// unit, one relay, real cache.
func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	c := cache.New("dht22", "ds18b20", "relays")

	agg := sensor.NewAggregator("dht22", time.Minute, c)
	sim := hardware.NewSimSensor(21.0, 45.0)
	if _, err := agg.AddUnit(context.Background(), sensor.Config{
		Key:      "4",
		Name:     "living_room",
		Location: "downstairs",
		Interval: time.Minute,
	}, sim, sim); err != nil {
		t.Fatalf("AddUnit: %v", err)
	}
	agg.Aggregate()

	relays := relay.NewRegistry(hardware.NewSimGPIO(), c)
	if err := relays.AddRelay(context.Background(), relay.Config{
		ID:         "relay_17",
		Pin:        17,
		Name:       "heater",
		ActiveHigh: false,
		Initial:    false,
	}); err != nil {
		t.Fatalf("AddRelay: %v", err)
	}

	srv, err := New(Deps{
		Config:      config.APIConfig{},
		Logger:      logging.Default(),
		Cache:       c,
		Relays:      relays,
		Aggregators: map[string]*sensor.Aggregator{"dht22": agg},
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return srv, srv.buildRouter()
}

func TestHealth(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestListSensors(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sensors", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	for _, family := range []string{"dht22", "ds18b20", "relays"} {
		if _, ok := body[family]; !ok {
			t.Errorf("missing family %q in response", family)
		}
	}
	if _, ok := body["dht22"]["4"]; !ok {
		t.Errorf("dht22 family missing unit 4: %v", body["dht22"])
	}
}

func TestGetFamily(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sensors/dht22", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sensors/nonsense", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown family: status = %d, want 404", rec.Code)
	}
}

func TestUpdateSensorMeta(t *testing.T) {
	_, router := newTestServer(t)

	body := bytes.NewBufferString(`{"name":"kitchen","location":"upstairs"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/sensors/dht22/4", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}

	// Republish happens immediately; the cache should reflect the
	// rename.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sensors/dht22", nil))

	var entries map[string]struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if entries["4"].Name != "kitchen" || entries["4"].Location != "upstairs" {
		t.Errorf("metadata not updated: %+v", entries["4"])
	}
}

func TestUpdateSensorMetaErrors(t *testing.T) {
	_, router := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown family", "/api/sensors/ds18b20x/4", `{"name":"x"}`, http.StatusNotFound},
		{"unknown unit", "/api/sensors/dht22/99", `{"name":"x"}`, http.StatusNotFound},
		{"bad json", "/api/sensors/dht22/4", `{`, http.StatusBadRequest},
		{"empty patch", "/api/sensors/dht22/4", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestListRelays(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/relays", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var relays map[string]relay.State
	if err := json.Unmarshal(rec.Body.Bytes(), &relays); err != nil {
		t.Fatal(err)
	}
	r, ok := relays["relay_17"]
	if !ok {
		t.Fatalf("relay_17 missing: %v", relays)
	}
	if r.Pin != 17 || r.Name != "heater" || r.State {
		t.Errorf("unexpected state: %+v", r)
	}
}

func TestSetRelayState(t *testing.T) {
	srv, router := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"on token", `{"relay_id":"relay_17","state":"on"}`, http.StatusNoContent},
		{"off token", `{"relay_id":"relay_17","state":"off"}`, http.StatusNoContent},
		{"uppercase", `{"relay_id":"relay_17","state":"ON"}`, http.StatusNoContent},
		{"id alias", `{"id":"relay_17","state":"off"}`, http.StatusNoContent},
		{"boolean", `{"relay_id":"relay_17","state":true}`, http.StatusNoContent},
		{"relay_id wins over alias", `{"relay_id":"relay_17","id":"relay_99","state":true}`, http.StatusNoContent},
		{"unknown id", `{"relay_id":"relay_99","state":"on"}`, http.StatusNotFound},
		{"unknown id alias", `{"id":"relay_99","state":"on"}`, http.StatusNotFound},
		{"bad token", `{"relay_id":"relay_17","state":"blink"}`, http.StatusBadRequest},
		{"numeric state", `{"relay_id":"relay_17","state":1}`, http.StatusBadRequest},
		{"missing id", `{"state":"on"}`, http.StatusBadRequest},
		{"missing state", `{"relay_id":"relay_17"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/relay/state", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	// Last successful command in the table was state=true.
	state, err := srv.relays.Get("relay_17")
	if err != nil {
		t.Fatal(err)
	}
	if !state.State {
		t.Error("relay should be on after final command")
	}
}

func TestRequestIDHeader(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing generated X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied" {
		t.Errorf("X-Request-ID = %q, want client-supplied", got)
	}
}

func TestParseStateToken(t *testing.T) {
	tests := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{`"on"`, true, false},
		{`"OFF"`, false, false},
		{`true`, true, false},
		{`false`, false, false},
		{`"maybe"`, false, true},
		{`1`, false, true},
		{`null`, false, true},
		{``, false, true},
	}

	for _, tt := range tests {
		got, err := parseStateToken(json.RawMessage(tt.raw))
		if (err != nil) != tt.wantErr {
			t.Errorf("parseStateToken(%s): err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseStateToken(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
