package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lightdock/lightdock/internal/config"
	"github.com/lightdock/lightdock/internal/logging"
	"github.com/lightdock/lightdock/internal/reachability"
)

type reachableResponse struct {
	Reachable *string `json:"reachable"`
	Cached    bool    `json:"cached"`
	Scheduled bool    `json:"scheduled,omitempty"`
}

// GetReachable answers a container's reachability from the cache. It never
// performs a blocking network call: on a cache miss, port discovery and the
// probe itself run in the background and the response reports "unknown".
func GetReachable(w http.ResponseWriter, r *http.Request) {
	containerID := chi.URLParam(r, "containerId")

	if url, ok := Reach.Lookup(containerID); ok {
		resp := reachableResponse{Cached: true}
		if url != "" {
			resp.Reachable = &url
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	go discoverAndProbe(containerID)
	writeJSON(w, http.StatusOK, reachableResponse{Scheduled: true})
}

// discoverAndProbe resolves a container's published ports and schedules a
// probe for them. It runs detached from the request; failures are logged at
// informational level and otherwise dropped.
func discoverAndProbe(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), config.Cfg.ConnectTimeout)
	defer cancel()

	client, server, err := dockerClient(ctx, true)
	if err != nil {
		log.Printf("Reachability discovery skipped for %s: %v", logging.Sanitize(shortID(containerID)), err)
		return
	}
	handle, err := client.Container(ctx, containerID)
	if err != nil {
		return
	}
	Probes.Schedule(containerID, probeHost(server), handle.PortCandidates())
}

// SweepReachability re-schedules probes for every running container whose
// cache entry has gone stale. The cron job runs it periodically so the
// dashboard's fast path stays warm.
func SweepReachability() {
	ctx, cancel := context.WithTimeout(context.Background(), config.Cfg.ConnectTimeout)
	defer cancel()

	client, server, err := dockerClient(ctx, true)
	if err != nil {
		log.Printf("Reachability sweep skipped: %v", err)
		return
	}
	containers, err := client.List(ctx, false)
	if err != nil {
		log.Printf("Reachability sweep skipped: %v", err)
		return
	}

	scheduled := 0
	for _, c := range containers {
		if _, ok := Reach.Lookup(c.ID); ok {
			continue
		}
		if Probes.Schedule(c.ID, probeHost(server), c.HostPorts) {
			scheduled++
		}
	}
	if scheduled > 0 {
		log.Printf("Reachability sweep: %d probes scheduled", scheduled)
	}
}

type probeRequest struct {
	Host    string  `json:"host"`
	Ports   []int   `json:"ports"`
	Timeout float64 `json:"timeout"`
}

// ProbeNow performs a synchronous, bounded probe of an explicit host and port
// list. Unlike GetReachable it blocks until an answer is known; 404 means no
// port responded.
func ProbeNow(w http.ResponseWriter, r *http.Request) {
	var req probeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Host == "" || len(req.Ports) == 0 {
		writeError(w, http.StatusBadRequest, "host and ports are required")
		return
	}

	timeout := config.Cfg.ProbeTimeout
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout * float64(time.Second))
	}

	url, found := reachability.ProbeSync(r.Context(), req.Host, req.Ports, timeout)
	if !found {
		writeError(w, http.StatusNotFound, "no reachable port")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reachable": url})
}
