package eventbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/blockout/internal/config"
	"github.com/kingrea/blockout/internal/selection"
)

func TestSettingsFromConfigHonorsEnv(t *testing.T) {
	t.Setenv("BLOCKOUT_BRIDGE_PORT", "9001")
	t.Setenv("BLOCKOUT_BRIDGE_HOST", "0.0.0.0")
	t.Setenv("BLOCKOUT_BRIDGE_ENABLED", "false")
	cfg := &config.Config{}
	settings := SettingsFromConfig(cfg)
	if settings.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", settings.Port)
	}
	if settings.Host != "0.0.0.0" {
		t.Fatalf("expected host override, got %s", settings.Host)
	}
	if settings.Enabled {
		t.Fatalf("expected enabled=false from env override")
	}
}

func TestSettingsFromConfigUsesBridgeSection(t *testing.T) {
	disabled := false
	cfg := &config.Config{}
	cfg.Project.Bridge = config.BridgeConfig{Enabled: &disabled, Host: "localhost", Port: 9100}
	settings := SettingsFromConfig(cfg)
	if settings.Enabled || settings.Host != "localhost" || settings.Port != 9100 {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if settings.URL() != "http://localhost:9100" {
		t.Fatalf("url = %s", settings.URL())
	}
}

func TestSettingsIgnoreInvalidEnvPort(t *testing.T) {
	t.Setenv("BLOCKOUT_BRIDGE_PORT", "70000")
	cfg := &config.Config{}
	cfg.Project.Bridge = config.BridgeConfig{Port: 9100}
	if settings := SettingsFromConfig(cfg); settings.Port != 9100 || !settings.Enabled {
		t.Fatalf("unexpected settings %+v", settings)
	}
}

func TestEventValidate(t *testing.T) {
	value := 40.0
	cases := []struct {
		name  string
		event Event
		ok    bool
	}{
		{"document changed", Event{Version: 1, EventID: "a", Type: TypeDocumentChanged}, true},
		{"slider", Event{Version: 1, EventID: "b", Type: TypeSliderEdited, Attribute: "chamfer_weight", Value: &value}, true},
		{"slider without value", Event{Version: 1, EventID: "c", Type: TypeSliderEdited, Attribute: "chamfer_weight"}, false},
		{"operator", Event{Version: 1, EventID: "d", Type: TypeOperator, Payload: json.RawMessage(`{"operation":"smart_mirror"}`)}, true},
		{"operator without payload", Event{Version: 1, EventID: "e", Type: TypeOperator}, false},
		{"unknown type", Event{Version: 1, EventID: "f", Type: "model_response"}, false},
		{"bad version", Event{Version: 99, EventID: "g", Type: TypeDocumentChanged}, false},
		{"missing id", Event{Version: 1, Type: TypeDocumentChanged}, false},
	}
	for _, tc := range cases {
		err := tc.event.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: expected valid, got %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func startServer(t *testing.T, maxBody int64, opts ...Option) *Server {
	t.Helper()
	srv := NewServer(Settings{Enabled: true, Host: "127.0.0.1", Port: 0, MaxBodyBytes: maxBody, Timeout: time.Second}, opts...)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	return srv
}

func postEvent(t *testing.T, srv *Server, body []byte) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.BaseURL()+"/events", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post event: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestServerReturnsRevisionAndScene(t *testing.T) {
	t.Parallel()
	fixed := time.Unix(1730000000, 0).UTC()
	recorded := make(chan Event, 1)
	srv := startServer(t, 1024,
		WithClock(func() time.Time { return fixed }),
		WithScene(func() Scene { return Scene{Active: "Cube", Mode: "EDIT", Selected: 2} }),
		WithProcessor(EventProcessorFunc(func(e Event) error {
			recorded <- e
			return nil
		})))

	resp, err := http.Get(srv.BaseURL() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.StatusCode)
	}

	value := 55.0
	buf, err := json.Marshal(Event{EventID: "evt-1", Type: " Slider_Edited ", Attribute: "fillet_weighted", Value: &value})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	resp, data := postEvent(t, srv, buf)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	var result EventResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Revision != 1 || result.EventID != "evt-1" || result.Type != TypeSliderEdited {
		t.Fatalf("result = %+v", result)
	}
	if result.Scene == nil || result.Scene.Active != "Cube" || result.Scene.Selected != 2 {
		t.Fatalf("scene = %+v", result.Scene)
	}
	select {
	case evt := <-recorded:
		if !evt.ServerTime.Equal(fixed) {
			t.Fatalf("expected server time %s, got %s", fixed, evt.ServerTime)
		}
		if evt.Version != EventSchemaVersion {
			t.Fatalf("event not normalized: %+v", evt)
		}
	default:
		t.Fatalf("event not forwarded to processor")
	}

	op, _ := json.Marshal(Event{EventID: "evt-2", Type: TypeOperator, Payload: json.RawMessage(`{"operation":"smart_mirror"}`)})
	_, data = postEvent(t, srv, op)
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Revision != 2 || result.Operation != "smart_mirror" || srv.Revision() != 2 {
		t.Fatalf("result = %+v", result)
	}
}

func TestServerMapsProcessorErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("set edge attribute: %w", selection.ErrNoSelection), http.StatusUnprocessableEntity, "no_selection"},
		{fmt.Errorf("%w: unknown operation %q", ErrBadRequest, "explode"), http.StatusBadRequest, "bad_request"},
		{errors.Join(errors.New("other"), selection.ErrNotMesh), http.StatusUnprocessableEntity, "no_active_mesh"},
		{errors.New("disk full"), http.StatusInternalServerError, "processing_failed"},
	}
	srv := startServer(t, 1024, WithProcessor(EventProcessorFunc(func(e Event) error {
		var i int
		if _, err := fmt.Sscanf(e.EventID, "e%d", &i); err != nil {
			return err
		}
		return cases[i].err
	})))
	for i, tc := range cases {
		body := fmt.Sprintf(`{"event_id":"e%d","type":"document_changed"}`, i)
		resp, data := postEvent(t, srv, []byte(body))
		if resp.StatusCode != tc.status {
			t.Fatalf("%v: status %d, want %d", tc.err, resp.StatusCode, tc.status)
		}
		var rejected EventError
		if err := json.Unmarshal(data, &rejected); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if rejected.Code != tc.code || rejected.EventID != fmt.Sprintf("e%d", i) {
			t.Fatalf("%v: body = %+v", tc.err, rejected)
		}
	}
	if srv.Revision() != 0 {
		t.Fatalf("failed events bumped the revision to %d", srv.Revision())
	}
}

func TestServerRejectsInvalidEvents(t *testing.T) {
	t.Parallel()
	srv := startServer(t, 1024)
	resp, _ := postEvent(t, srv, []byte(`{"event_id":"x","type":"slider_edited"}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestServerEnforcesPayloadLimit(t *testing.T) {
	t.Parallel()
	srv := startServer(t, 64)
	payload := map[string]any{
		"version":  EventSchemaVersion,
		"event_id": "evt",
		"type":     TypeOperator,
		"payload":  map[string]string{"operation": strings.Repeat("a", 512)},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, _ := postEvent(t, srv, buf)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestServerMountsMetrics(t *testing.T) {
	t.Parallel()
	srv := startServer(t, 1024, WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "blockout_operations_total 0\n")
	})))
	resp, err := http.Get(srv.BaseURL() + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "blockout_operations_total") {
		t.Fatalf("metrics body = %q", body)
	}
}

func TestDisabledServerDoesNotStart(t *testing.T) {
	srv := NewServer(Settings{Enabled: false})
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected disabled error")
	}
}

func TestNewServerFillsZeroLimits(t *testing.T) {
	srv := NewServer(Settings{Enabled: true})
	if srv.settings.MaxBodyBytes != DefaultMaxBodyBytes || srv.settings.Timeout != DefaultTimeout || srv.settings.Host != DefaultHost {
		t.Fatalf("settings = %+v", srv.settings)
	}
}
