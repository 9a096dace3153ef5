package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lightdock/lightdock/internal/compose"
	"github.com/lightdock/lightdock/internal/config"
	"github.com/lightdock/lightdock/internal/crypto"
	"github.com/lightdock/lightdock/internal/database"
	"github.com/lightdock/lightdock/internal/logging"
	"github.com/lightdock/lightdock/internal/sshrun"
)

// composeBaseDir is where compose projects are written on the remote host.
const composeBaseDir = "/opt/lightdock/compose"

// ListServers returns every configured server and which one is active.
func ListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := database.ListServers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	type serverItem struct {
		database.Server
		Label string `json:"label"`
	}
	items := make([]serverItem, len(servers))
	for i, s := range servers {
		items[i] = serverItem{Server: s, Label: s.Label()}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"servers": items})
}

type createServerRequest struct {
	DisplayName string `json:"display_name"`
	Host        string `json:"host"`
	Port        string `json:"port"`
	SSHUser     string `json:"ssh_user"`
	SSHPassword string `json:"ssh_password"`
}

// CreateServer adds a server record. The first server becomes active; every
// configuration change invalidates the connection cache.
func CreateServer(w http.ResponseWriter, r *http.Request) {
	var req createServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}
	if req.Port != "" {
		if _, err := strconv.Atoi(req.Port); err != nil {
			writeError(w, http.StatusBadRequest, "port must be a number")
			return
		}
	}

	encrypted, err := crypto.Encrypt(req.SSHPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	server := &database.Server{
		DisplayName: req.DisplayName,
		Host:        req.Host,
		Port:        req.Port,
		SSHUser:     req.SSHUser,
		SSHPassword: encrypted,
	}
	if err := database.CreateServer(server); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	Conns.Invalidate()
	log.Printf("Server added: %s", logging.Sanitize(server.DisplayName))
	writeJSON(w, http.StatusCreated, server)
}

// SelectServer switches the active endpoint.
func SelectServer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	server, err := database.SetActiveServer(uint(id))
	if err != nil {
		writeError(w, http.StatusNotFound, "Server not found")
		return
	}

	Conns.Invalidate()
	log.Printf("Active server changed: %s", logging.Sanitize(server.DisplayName))
	writeJSON(w, http.StatusOK, server)
}

// DeleteServer removes a server record. Deleting the active server promotes
// any remaining one.
func DeleteServer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	if err := database.DeleteServer(uint(id)); err != nil {
		writeError(w, http.StatusNotFound, "Server not found")
		return
	}

	Conns.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ComposeDeploy renders a compose project from the request body and brings it
// up on the server host over SSH using the stored credentials.
func ComposeDeploy(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid server ID")
		return
	}

	var server database.Server
	if err := database.DB.First(&server, id).Error; err != nil {
		writeError(w, http.StatusNotFound, "Server not found")
		return
	}
	if server.Host == "" || server.SSHUser == "" {
		writeError(w, http.StatusBadRequest, "Server has no SSH access configured")
		return
	}

	var project compose.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := project.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rendered, err := project.Render()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("render compose file: %v", err))
		return
	}

	password, err := crypto.Decrypt(server.SSHPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cmd := project.DeployCommand(composeBaseDir, rendered)
	output, err := sshrun.Run(r.Context(), server.Host, server.SSHUser, password, cmd, config.Cfg.SSHTimeout)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("deploy failed: %v", err))
		return
	}

	log.Printf("Compose project %s deployed to %s", logging.Sanitize(project.Name), logging.Sanitize(server.Host))
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "deployed",
		"output": output,
	})
}
