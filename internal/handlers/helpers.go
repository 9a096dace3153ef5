package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lightdock/lightdock/internal/config"
	"github.com/lightdock/lightdock/internal/conncache"
	"github.com/lightdock/lightdock/internal/database"
	"github.com/lightdock/lightdock/internal/reachability"
	"github.com/lightdock/lightdock/internal/runtime"
)

// Shared components, set from main.go during init.
var (
	Conns  *conncache.Cache[*runtime.Client]
	Reach  *reachability.Cache
	Probes *reachability.Prober
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// activeEndpoint resolves the Docker connection URL from the active server
// record, honoring the DOCKER_HOST override.
func activeEndpoint() (string, *database.Server, error) {
	server, err := database.GetActiveServer()
	if err != nil {
		return "", nil, err
	}
	if config.Cfg.DockerHost != "" {
		return config.Cfg.DockerHost, server, nil
	}
	if server == nil {
		return "unix:///var/run/docker.sock", nil, nil
	}
	return server.Endpoint(), server, nil
}

// dockerClient returns a live client for the active endpoint plus the server
// record it was resolved from.
func dockerClient(ctx context.Context, useCache bool) (*runtime.Client, *database.Server, error) {
	endpoint, server, err := activeEndpoint()
	if err != nil {
		return nil, nil, err
	}
	client, err := Conns.Get(ctx, endpoint, useCache)
	if err != nil {
		return nil, server, err
	}
	return client, server, nil
}

// probeHost is the host reachability probes target: the active server's
// configured host when one is set, the loopback address for local-socket
// endpoints. Container-reported bind addresses are never used.
func probeHost(server *database.Server) string {
	if server != nil && server.Host != "" {
		return server.Host
	}
	return "127.0.0.1"
}
