// Package http serves health and status for local widgets.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dtroode/appblock/internal/controller"
	"github.com/dtroode/appblock/internal/logger"
)

// StatusReader exposes the daemon status.
type StatusReader interface {
	Status(ctx context.Context) controller.Status
}

type statusResponse struct {
	BlockEnabled    bool   `json:"block_enabled"`
	EmailRegistered bool   `json:"email_registered"`
	PermissionStep  string `json:"permission_step"`
	BridgeAttached  bool   `json:"bridge_attached"`
}

func NewRouter(status StatusReader, logger *logger.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "ok"); err != nil {
			logger.Debug("HTTP: failed to write health response", "error", err.Error())
		}
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/status", statusHandler(status, logger)).Methods(http.MethodGet)
	return r
}

func statusHandler(status StatusReader, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := status.Status(r.Context())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(statusResponse{
			BlockEnabled:    st.BlockEnabled,
			EmailRegistered: st.EmailRegistered,
			PermissionStep:  st.PermissionStep.String(),
			BridgeAttached:  st.BridgeAttached,
		})
		if err != nil {
			logger.Debug("HTTP: failed to write status response", "error", err.Error())
		}
	}
}
