package handlers

import (
	"net/http"
	"strconv"

	"github.com/lightdock/lightdock/internal/config"
	"github.com/lightdock/lightdock/internal/logging"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ServerLogs returns the tail of the dashboard's own log file.
func ServerLogs(w http.ResponseWriter, r *http.Request) {
	lines := config.Cfg.LogTailLines
	if v := r.URL.Query().Get("lines"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lines = n
		}
	}

	tail, err := logging.ReadTail(lines)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"logs": tail})
}
