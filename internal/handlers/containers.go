package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lightdock/lightdock/internal/config"
	"github.com/lightdock/lightdock/internal/database"
	"github.com/lightdock/lightdock/internal/logging"
	"github.com/lightdock/lightdock/internal/runtime"
)

// containerItem is one row of the dashboard list: a container summary plus
// its reachability fast-path result.
type containerItem struct {
	runtime.ContainerSummary
	ReachableURL string `json:"reachable_url,omitempty"`
}

// ListContainers returns all containers on the active endpoint. Each running
// container's reachability is answered from the cache; on a miss a background
// probe is scheduled so the response is never blocked on the network.
func ListContainers(w http.ResponseWriter, r *http.Request) {
	client, server, err := dockerClient(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	containers, err := client.List(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	items := make([]containerItem, 0, len(containers))
	for _, c := range containers {
		item := containerItem{ContainerSummary: c}
		if c.State == "running" {
			if url, ok := Reach.Lookup(c.ID); ok {
				item.ReachableURL = url
			} else {
				Probes.Schedule(c.ID, probeHost(server), c.HostPorts)
			}
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"server":     serverInfo(server),
		"containers": items,
	})
}

func serverInfo(server *database.Server) string {
	if server == nil {
		return "local"
	}
	return server.Label()
}

// GetContainer returns the inspect data for one container.
func GetContainer(w http.ResponseWriter, r *http.Request) {
	client, _, err := dockerClient(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	handle, err := client.Container(r.Context(), id)
	if err != nil {
		if runtime.IsNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Container %s not found", shortID(id)))
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, handle.Attrs())
}

// ContainerLogs returns the tail of a container's log with timestamps.
func ContainerLogs(w http.ResponseWriter, r *http.Request) {
	client, _, err := dockerClient(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	tail := config.Cfg.LogTailLines
	if v := r.URL.Query().Get("tail"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			tail = n
		}
	}

	handle, err := client.Container(r.Context(), id)
	if err != nil {
		if runtime.IsNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Container %s not found", shortID(id)))
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	raw, err := handle.Logs(r.Context(), tail, true)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Error fetching logs: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"logs": runtime.DecodeOutput(raw, "(empty)"),
	})
}

type batchRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

type batchResponse struct {
	Action       string   `json:"action"`
	SuccessCount int      `json:"success_count"`
	Errors       []string `json:"errors"`
}

// BatchAction applies start/stop/restart/remove to a set of containers. A
// failure on one container never aborts the batch; per-id errors are
// accumulated and the success count reported.
func BatchAction(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "No containers selected")
		return
	}

	actions := map[string]func(*http.Request, *runtime.ContainerHandle) error{
		"start":   func(r *http.Request, h *runtime.ContainerHandle) error { return h.Start(r.Context()) },
		"stop":    func(r *http.Request, h *runtime.ContainerHandle) error { return h.Stop(r.Context()) },
		"restart": func(r *http.Request, h *runtime.ContainerHandle) error { return h.Restart(r.Context()) },
		"remove":  func(r *http.Request, h *runtime.ContainerHandle) error { return h.Remove(r.Context(), true) },
	}
	apply, ok := actions[req.Action]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid action %q", req.Action))
		return
	}

	client, _, err := dockerClient(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	resp := batchResponse{Action: req.Action, Errors: []string{}}
	for _, id := range req.IDs {
		handle, err := client.Container(r.Context(), id)
		if err != nil {
			if runtime.IsNotFound(err) {
				resp.Errors = append(resp.Errors, fmt.Sprintf("Container %s not found", shortID(id)))
			} else {
				resp.Errors = append(resp.Errors, fmt.Sprintf("Container %s: %v", shortID(id), err))
			}
			continue
		}
		if err := apply(r, handle); err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("Container %s: %v", shortID(id), err))
			continue
		}
		resp.SuccessCount++
	}

	log.Printf("Batch %s: %d succeeded, %d failed", logging.Sanitize(req.Action), resp.SuccessCount, len(resp.Errors))
	writeJSON(w, http.StatusOK, resp)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
