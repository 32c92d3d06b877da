package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ledkeys/ledkeys/internal/device"
	"github.com/ledkeys/ledkeys/internal/lighting"
	"github.com/ledkeys/ledkeys/internal/pipeline"
)

type fakeLister struct{}

func (fakeLister) Devices() []device.Info {
	return []device.Info{{Path: "/dev/input/event3", Name: "USB Keyboard"}}
}

func (fakeLister) Failures() []device.OpenFailure {
	return []device.OpenFailure{{Path: "/dev/input/event4", Failures: 2, LastErr: "permission denied"}}
}

func newTestServer(t *testing.T, lister DeviceLister) (*Broadcaster, *httptest.Server) {
	t.Helper()
	logger := zap.NewNop().Sugar()
	b := NewBroadcaster(lighting.DefaultState(), lister, logger)
	srv := httptest.NewServer(NewServer(b, logger).Handler())
	t.Cleanup(func() {
		b.CloseAll()
		srv.Close()
	})
	return b, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads one message and decodes its payload into payload.
func readMessage(t *testing.T, conn *websocket.Conn, payload interface{}) MessageType {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var raw struct {
		Type    MessageType     `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := conn.ReadJSON(&raw); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(raw.Payload, payload); err != nil {
		t.Fatalf("decode %s payload: %v", raw.Type, err)
	}
	return raw.Type
}

func waitForClients(t *testing.T, b *Broadcaster, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", b.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketSnapshotThenEvents(t *testing.T) {
	b, srv := newTestServer(t, fakeLister{})
	conn := dial(t, srv)

	var snap SnapshotPayload
	if typ := readMessage(t, conn, &snap); typ != MsgSnapshot {
		t.Fatalf("first message type = %s, want snapshot", typ)
	}
	if snap.PresetID != "sunset-up" || len(snap.Devices) != 1 || snap.Devices[0].Name != "USB Keyboard" {
		t.Errorf("snapshot = %+v", snap)
	}
	waitForClients(t, b, 1)

	s := lighting.State{Direction: lighting.In, Effect: lighting.Power, Preset: "sunset"}
	b.Observe(pipeline.Event{Type: pipeline.EventState, Symbol: "c", Device: "/dev/input/event3", State: s, Desc: "Direction set to: in"})

	var st StatePayload
	if typ := readMessage(t, conn, &st); typ != MsgState {
		t.Fatalf("message type = %s, want state", typ)
	}
	if st.Key != "c" || st.PresetID != "sunset-in" || st.State != s {
		t.Errorf("state payload = %+v", st)
	}

	res := lighting.Result{Kind: lighting.ResultStatus, Effect: "power", PresetID: "sunset-in", Status: 500, Body: "boom"}
	b.Observe(pipeline.Event{Type: pipeline.EventNotify, Symbol: "c", State: s, Result: &res})

	var np struct {
		Key    string `json:"key"`
		Result struct {
			Kind   string `json:"kind"`
			Status int    `json:"status"`
		} `json:"result"`
	}
	if typ := readMessage(t, conn, &np); typ != MsgNotify {
		t.Fatalf("message type = %s, want notify", typ)
	}
	if np.Key != "c" || np.Result.Kind != "status" || np.Result.Status != 500 {
		t.Errorf("notify payload = %+v", np)
	}
}

func TestAPIState(t *testing.T) {
	b, srv := newTestServer(t, nil)

	s := lighting.State{Direction: lighting.Down, Effect: lighting.ScanMulti, Preset: "rtb"}
	res := lighting.Result{Kind: lighting.ResultOK, Effect: "scan_multi", PresetID: "rtb-down", Status: 200}
	b.Observe(pipeline.Event{Type: pipeline.EventNotify, Symbol: "l", State: s, Result: &res})

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got struct {
		State      lighting.State `json:"state"`
		PresetID   string         `json:"presetId"`
		Devices    []device.Info  `json:"devices"`
		LastResult *struct {
			Kind string `json:"kind"`
		} `json:"lastResult"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.State != s || got.PresetID != "rtb-down" {
		t.Errorf("state = %+v %q", got.State, got.PresetID)
	}
	if got.Devices == nil || len(got.Devices) != 0 {
		t.Errorf("devices = %v, want empty list", got.Devices)
	}
	if got.LastResult == nil || got.LastResult.Kind != "ok" {
		t.Errorf("lastResult = %+v", got.LastResult)
	}
}

func TestAPIDevices(t *testing.T) {
	_, srv := newTestServer(t, fakeLister{})

	resp, err := http.Get(srv.URL + "/api/devices")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got struct {
		Devices  []device.Info        `json:"devices"`
		Failures []device.OpenFailure `json:"failures"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Devices) != 1 || got.Devices[0].Path != "/dev/input/event3" {
		t.Errorf("devices = %+v", got.Devices)
	}
	if len(got.Failures) != 1 || got.Failures[0].Failures != 2 {
		t.Errorf("failures = %+v", got.Failures)
	}
}

func TestAPIRejectsWrites(t *testing.T) {
	_, srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/state", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/state = %d, want 405", resp.StatusCode)
	}
}

func TestSecurityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	securityHeaders(inner).ServeHTTP(rec, req)

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'self'",
	}
	for header, expected := range want {
		if got := rec.Header().Get(header); got != expected {
			t.Errorf("header %s = %q, want %q", header, got, expected)
		}
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"http://[::1]:8080", true},
		{"http://status.example:8899", true},
		{"http://evil.example", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Host = "status.example:8899"
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := checkOrigin(req); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, "127.0.0.1", 0, http.NotFoundHandler(), zap.NewNop().Sugar())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe() did not return after cancel")
	}
}
