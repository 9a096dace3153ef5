package handlers

import (
	"net/http"
	"strings"
	"testing"
)

const (
	runningID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	stoppedID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	missingID = "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"
)

func seedDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	d := newFakeDaemon(t)
	d.add(runningID, fakeCtr{Name: "web", Image: "nginx:alpine", State: "running", HostPort: 18080})
	d.add(stoppedID, fakeCtr{Name: "worker", Image: "alpine", State: "exited"})
	return d
}

type listResponse struct {
	Server     string `json:"server"`
	Containers []struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		State        string `json:"state"`
		HostPorts    []int  `json:"host_ports"`
		ReachableURL string `json:"reachable_url"`
	} `json:"containers"`
}

func TestListContainers(t *testing.T) {
	d := seedDaemon(t)
	setup(t, d.endpoint())

	// Pre-warm the reachability cache so the running container gets its URL
	// on the fast path instead of a scheduled probe.
	Reach.Store(runningID, "http://127.0.0.1:18080/")

	w := doRequest(t, http.MethodGet, "/api/containers", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp listResponse
	decodeBody(t, w, &resp)
	if resp.Server != "local" {
		t.Errorf("server = %q, want local", resp.Server)
	}
	if len(resp.Containers) != 2 {
		t.Fatalf("containers = %d, want 2", len(resp.Containers))
	}

	byID := map[string]int{}
	for i, c := range resp.Containers {
		byID[c.ID] = i
	}
	running := resp.Containers[byID[runningID]]
	if running.Name != "web" || running.State != "running" {
		t.Errorf("running container = %+v", running)
	}
	if len(running.HostPorts) != 1 || running.HostPorts[0] != 18080 {
		t.Errorf("host_ports = %v, want [18080]", running.HostPorts)
	}
	if running.ReachableURL != "http://127.0.0.1:18080/" {
		t.Errorf("reachable_url = %q", running.ReachableURL)
	}
	stopped := resp.Containers[byID[stoppedID]]
	if stopped.ReachableURL != "" {
		t.Errorf("stopped container must carry no reachable_url, got %q", stopped.ReachableURL)
	}
}

func TestListContainers_DaemonDown(t *testing.T) {
	setup(t, "tcp://127.0.0.1:1")

	w := doRequest(t, http.MethodGet, "/api/containers", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["detail"] == "" {
		t.Error("error response missing detail")
	}
}

func TestGetContainer(t *testing.T) {
	d := seedDaemon(t)
	setup(t, d.endpoint())

	w := doRequest(t, http.MethodGet, "/api/containers/"+runningID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var attrs map[string]interface{}
	decodeBody(t, w, &attrs)
	if attrs["Id"] != runningID {
		t.Errorf("Id = %v", attrs["Id"])
	}
}

func TestGetContainer_NotFound(t *testing.T) {
	d := seedDaemon(t)
	setup(t, d.endpoint())

	w := doRequest(t, http.MethodGet, "/api/containers/"+missingID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	want := "Container " + missingID[:12] + " not found"
	if body["detail"] != want {
		t.Errorf("detail = %q, want %q", body["detail"], want)
	}
}

func TestContainerLogs(t *testing.T) {
	d := seedDaemon(t)
	d.logs = frame(1, "2026-08-26T10:00:00Z listening on :80\n")
	setup(t, d.endpoint())

	w := doRequest(t, http.MethodGet, "/api/containers/"+runningID+"/logs?tail=50", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if !strings.Contains(body["logs"], "listening on :80") {
		t.Errorf("logs = %q", body["logs"])
	}
}

func TestContainerLogs_EmptyPlaceholder(t *testing.T) {
	d := seedDaemon(t)
	setup(t, d.endpoint())

	w := doRequest(t, http.MethodGet, "/api/containers/"+runningID+"/logs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["logs"] != "(empty)" {
		t.Errorf("logs = %q, want placeholder", body["logs"])
	}
}

// frame wraps a payload in Docker's multiplexed stream header.
func frame(stream byte, payload string) []byte {
	n := len(payload)
	header := []byte{stream, 0, 0, 0, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	return append(header, payload...)
}

func TestBatchAction_PartialFailure(t *testing.T) {
	d := seedDaemon(t)
	setup(t, d.endpoint())

	body := `{"action":"stop","ids":["` + runningID + `","` + missingID + `"]}`
	w := doRequest(t, http.MethodPost, "/api/containers/action", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Action       string   `json:"action"`
		SuccessCount int      `json:"success_count"`
		Errors       []string `json:"errors"`
	}
	decodeBody(t, w, &resp)
	if resp.SuccessCount != 1 {
		t.Errorf("success_count = %d, want 1", resp.SuccessCount)
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0], missingID[:12]+" not found") {
		t.Errorf("errors = %v", resp.Errors)
	}

	acted := d.recorded()
	if len(acted) != 1 || acted[0] != "stop "+runningID {
		t.Errorf("daemon actions = %v, want single stop", acted)
	}
}

func TestBatchAction_Remove(t *testing.T) {
	d := seedDaemon(t)
	setup(t, d.endpoint())

	body := `{"action":"remove","ids":["` + stoppedID + `"]}`
	w := doRequest(t, http.MethodPost, "/api/containers/action", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	acted := d.recorded()
	if len(acted) != 1 || acted[0] != "remove "+stoppedID {
		t.Errorf("daemon actions = %v, want single remove", acted)
	}
}

func TestBatchAction_Validation(t *testing.T) {
	d := seedDaemon(t)
	setup(t, d.endpoint())

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"no ids", `{"action":"stop","ids":[]}`},
		{"unknown action", `{"action":"explode","ids":["` + runningID + `"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, http.MethodPost, "/api/containers/action", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
	if len(d.recorded()) != 0 {
		t.Errorf("invalid requests must not reach the daemon, got %v", d.recorded())
	}
}
