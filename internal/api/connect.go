package api

import (
	"net/http"

	"github.com/querygenie/querygenie/internal/config"
	"github.com/querygenie/querygenie/internal/dbexec/postgres"
)

type connectRequest struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

func handleConnect(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var request connectRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, nil)
		return
	}
	if request.Host == "" || request.Database == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "FIELDS_REQUIRED", "host and database are required", false, nil)
		return
	}
	if request.Port == 0 {
		request.Port = 5432
	}

	if _, err := deps.Connections.Connect(r.Context(), targetConfig(deps.Target, request)); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "CONNECT_FAILED", "Database connection failed: "+err.Error(), false, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Database connected successfully"})
}

func handleDisconnect(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Connections.Disconnect() {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Database disconnected successfully"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "No database connection to disconnect"})
}

func targetConfig(defaults config.TargetConfig, request connectRequest) postgres.Config {
	return postgres.Config{
		Host:            request.Host,
		Port:            request.Port,
		User:            request.User,
		Password:        request.Password,
		Database:        request.Database,
		SSLMode:         defaults.SSLMode,
		MaxOpenConns:    defaults.MaxOpenConns,
		MaxIdleConns:    defaults.MaxIdleConns,
		ConnMaxIdleTime: defaults.ConnMaxIdleTime,
		ConnMaxLifetime: defaults.ConnMaxLifetime,
	}
}
