package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kotakee/kotakee-core/internal/action"
	"github.com/kotakee/kotakee-core/internal/home"
	"github.com/kotakee/kotakee-core/internal/infrastructure/config"
	"github.com/kotakee/kotakee-core/internal/infrastructure/logging"
	"github.com/kotakee/kotakee-core/internal/rules"
)

// stubClient satisfies home.DeviceClient without touching the network.
type stubClient struct {
	toggles  int
	virtuals int
}

func (c *stubClient) StateToggle(context.Context, string, action.ID, int) error {
	c.toggles++
	return nil
}

func (c *stubClient) StateVirtualToggle(context.Context, string, action.ID, int) error {
	c.virtuals++
	return nil
}

func (c *stubClient) StateGet(context.Context, string, action.ID) error { return nil }

func (c *stubClient) PushCapabilities(context.Context, string, home.Capabilities) error {
	return nil
}

// newTestServer builds a server over a two-room home and returns it with the
// device stub and its in-memory HTTP listener.
func newTestServer(t *testing.T) (*Server, *home.Home, *stubClient, *httptest.Server) {
	t.Helper()

	client := &stubClient{}
	mod1 := home.NewModule("bed-1", 2, "10.0.0.21", false,
		[]action.ID{50, 350, 5050, 5250}, nil, client, nil)
	mod2 := home.NewModule("liv-1", 1, "10.0.0.11", false,
		[]action.ID{50, 1000}, nil, client, nil)

	room1, err := home.NewRoom(2, "bedroom", []*home.Module{mod1}, nil)
	if err != nil {
		t.Fatalf("NewRoom() error = %v", err)
	}
	room2, err := home.NewRoom(1, "living", []*home.Module{mod2}, nil)
	if err != nil {
		t.Fatalf("NewRoom() error = %v", err)
	}

	h := home.NewHome([]*home.Room{room1, room2}, nil)
	h.SetEngine(rules.NewEngine(h, h, nil, nil))

	srv, err := New(Deps{
		Config:  config.APIConfig{Port: 8080},
		WS:      config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 10},
		Logger:  logging.Default(),
		Home:    h,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)
	return srv, h, client, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestNew_MissingDeps(t *testing.T) {
	if _, err := New(Deps{Logger: logging.Default()}); err == nil {
		t.Error("New() without home should fail")
	}
	if _, err := New(Deps{Home: &home.Home{}}); err == nil {
		t.Error("New() without logger should fail")
	}
}

func TestHandleHealth(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleActionToggle(t *testing.T) {
	_, h, _, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/actions/toggle", toggleRequest{
		RoomID: 2, ActionID: 50, ToState: 1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if state, ok := h.ActionState(2, 50); !ok || state != 1 {
		t.Errorf("ActionState(2, 50) = %d, %v, want 1, true", state, ok)
	}
}

func TestHandleActionToggle_Virtual(t *testing.T) {
	_, h, client, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/actions/toggle", toggleRequest{
		RoomID: 2, ActionID: 50, ToState: 1, Virtual: true,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// Recorded without actuating: the no-op endpoint carries the state.
	if client.virtuals != 1 || client.toggles != 0 {
		t.Errorf("virtuals = %d, toggles = %d, want 1/0", client.virtuals, client.toggles)
	}
	if state, _ := h.ActionState(2, 50); state != 1 {
		t.Errorf("ActionState(2, 50) = %d, want 1", state)
	}
}

func TestHandleActionToggle_UnknownRoom(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/actions/toggle", toggleRequest{
		RoomID: 99, ActionID: 50, ToState: 1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleActionToggle_MalformedBody(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/actions/toggle", "application/json",
		bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleActionToggle_ServerDisabled(t *testing.T) {
	_, h, _, ts := newTestServer(t)
	h.SetServerDisabled(true)

	resp := postJSON(t, ts.URL+"/api/v1/actions/toggle", toggleRequest{
		RoomID: 2, ActionID: 50, ToState: 1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestHandleActionSwitch(t *testing.T) {
	_, h, _, ts := newTestServer(t)

	// Seed the multi-state switch at its first stable state.
	if err := h.ModuleStateUpdate(2, 350, 20); err != nil {
		t.Fatalf("ModuleStateUpdate() error = %v", err)
	}

	resp := postJSON(t, ts.URL+"/api/v1/actions/switch", switchRequest{
		RoomID: 2, ActionID: 350,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if state, _ := h.ActionState(2, 350); state != 22 {
		t.Errorf("ActionState(2, 350) = %d, want 22", state)
	}
}

func TestHandleActionSwitch_Settling(t *testing.T) {
	_, h, _, ts := newTestServer(t)

	// Transitional state 21 means the switch is mid-travel.
	if err := h.ModuleStateUpdate(2, 350, 21); err != nil {
		t.Fatalf("ModuleStateUpdate() error = %v", err)
	}

	resp := postJSON(t, ts.URL+"/api/v1/actions/switch", switchRequest{
		RoomID: 2, ActionID: 350,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestHandleInput_Numeric(t *testing.T) {
	_, h, _, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/input", map[string]any{
		"roomId": 2, "actionId": 5050, "value": 1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if state, _ := h.ActionState(2, 5050); state != 1 {
		t.Errorf("ActionState(2, 5050) = %d, want 1", state)
	}
}

func TestHandleInput_Reading(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/input", map[string]any{
		"roomId": 2, "actionId": 5250, "value": "21.40_48.20",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleInput_MalformedReading(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/input", map[string]any{
		"roomId": 2, "actionId": 5250, "value": "garbage",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleUpdateRules(t *testing.T) {
	_, h, _, ts := newTestServer(t)

	table := `{
		"5050": {
			"function": "timeout",
			"states": {
				"1": {
					"start": {"50": {"toState": 1}},
					"timeout": {"50": {"duration": 60000, "toState": 0}}
				}
			}
		}
	}`

	req, err := http.NewRequest(http.MethodPut,
		ts.URL+"/api/v1/rooms/2/rules", bytes.NewReader([]byte(table)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT rules: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	room, err := h.Room(2)
	if err != nil {
		t.Fatalf("Room(2) error = %v", err)
	}
	if len(room.InputRules()) != 1 {
		t.Errorf("rules = %v, want one entry", room.InputRules())
	}
}

func TestHandleUpdateRules_InvalidTable(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	// Non-input key 50 must be rejected.
	table := `{"50": {"function": "timeout", "states": {}}}`

	req, err := http.NewRequest(http.MethodPut,
		ts.URL+"/api/v1/rooms/2/rules", bytes.NewReader([]byte(table)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT rules: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleKillSwitches(t *testing.T) {
	_, h, _, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/server/disabled", disabledRequest{Disabled: true})
	resp.Body.Close()
	if !h.ServerDisabled() {
		t.Error("server disabled flag not set")
	}

	resp = postJSON(t, ts.URL+"/api/v1/input/disabled", disabledRequest{Disabled: true})
	resp.Body.Close()
	if !h.InputDisabled() {
		t.Error("input disabled flag not set")
	}

	// Re-enabling the server clears the input kill switch too.
	resp = postJSON(t, ts.URL+"/api/v1/server/disabled", disabledRequest{Disabled: false})
	resp.Body.Close()
	if h.InputDisabled() {
		t.Error("input disabled flag should clear when server is re-enabled")
	}
}

func TestHandleHomeStatus_LongPoll(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	// First poll with since=0 always has data (boot counts as a change).
	resp, err := http.Get(ts.URL + "/api/v1/home/status?since=0")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var payload home.StatusPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.ModulesCount != 2 || payload.LastUpdate == 0 {
		t.Errorf("payload = %+v", payload)
	}

	// Polling again with the returned timestamp yields 204.
	resp2, err := http.Get(fmt.Sprintf("%s/api/v1/home/status?since=%d", ts.URL, payload.LastUpdate))
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp2.StatusCode)
	}
}

func TestHandleHomeActions_LongPoll(t *testing.T) {
	_, h, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/home/actions?since=0")
	if err != nil {
		t.Fatalf("GET actions: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var payload home.StatesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}

	since := payload.LastUpdate

	// No change yet: 204.
	resp2, err := http.Get(fmt.Sprintf("%s/api/v1/home/actions?since=%d", ts.URL, since))
	if err != nil {
		t.Fatalf("GET actions: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp2.StatusCode)
	}

	// A state report advances the timestamp and unblocks the poll.
	if err := h.ModuleStateUpdate(1, 50, 1); err != nil {
		t.Fatalf("ModuleStateUpdate() error = %v", err)
	}

	resp3, err := http.Get(fmt.Sprintf("%s/api/v1/home/actions?since=%d", ts.URL, since))
	if err != nil {
		t.Fatalf("GET actions: %v", err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp3.StatusCode)
	}

	var updated home.StatesPayload
	if err := json.NewDecoder(resp3.Body).Decode(&updated); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if updated.Rooms[1][50] != 1 {
		t.Errorf("rooms = %v, want room 1 action 50 = 1", updated.Rooms)
	}
}

func TestHandleHomeStatus_BadSince(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/home/status?since=abc")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleHistoryActions_NoStore(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/history/actions")
	if err != nil {
		t.Fatalf("GET history: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

// =============================================================================
// Device Protocol Tests
// =============================================================================

func TestHandleModuleStateUpdate(t *testing.T) {
	_, h, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/moduleStateUpdate/2/50/1")
	if err != nil {
		t.Fatalf("GET moduleStateUpdate: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if state, _ := h.ActionState(2, 50); state != 1 {
		t.Errorf("ActionState(2, 50) = %d, want 1", state)
	}
}

func TestHandleModuleStateUpdate_LandsWhileDisabled(t *testing.T) {
	_, h, _, ts := newTestServer(t)
	h.SetServerDisabled(true)

	resp, err := http.Get(ts.URL + "/moduleStateUpdate/2/50/1")
	if err != nil {
		t.Fatalf("GET moduleStateUpdate: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// Self-reports are ground truth and land even when the server is disabled.
	if state, _ := h.ActionState(2, 50); state != 1 {
		t.Errorf("ActionState(2, 50) = %d, want 1", state)
	}
}

func TestHandleModuleInput_Numeric(t *testing.T) {
	_, h, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/moduleInput/2/5050/1")
	if err != nil {
		t.Fatalf("GET moduleInput: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if state, _ := h.ActionState(2, 5050); state != 1 {
		t.Errorf("ActionState(2, 5050) = %d, want 1", state)
	}
}

func TestHandleModuleInput_Reading(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/moduleInput/2/5250/21.40_48.20")
	if err != nil {
		t.Fatalf("GET moduleInput: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleModuleInput_UnknownAction(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	// 50 is not an input band action.
	resp, err := http.Get(ts.URL + "/moduleInput/2/50/1")
	if err != nil {
		t.Fatalf("GET moduleInput: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleModuleInput_AckedWhileDisabled(t *testing.T) {
	_, h, _, ts := newTestServer(t)
	h.SetServerDisabled(true)

	resp, err := http.Get(ts.URL + "/moduleInput/2/5050/1")
	if err != nil {
		t.Fatalf("GET moduleInput: %v", err)
	}
	defer resp.Body.Close()

	// Acknowledged but dropped: firmware must not retry.
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if state, _ := h.ActionState(2, 5050); state == 1 {
		t.Error("input should have been dropped while disabled")
	}
}

func TestHandleModuleUpdate(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/moduleUpdate/10.0.0.21")
	if err != nil {
		t.Fatalf("GET moduleUpdate: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleModuleUpdate_UnknownAddress(t *testing.T) {
	_, _, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/moduleUpdate/10.9.9.9")
	if err != nil {
		t.Fatalf("GET moduleUpdate: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
