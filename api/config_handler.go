// Package api — configuration endpoint.
package api

import (
	"net/http"
)

// handleGetConfig returns the current (running) configuration. The
// CurveWatch config carries no credentials, so it is returned as-is.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.cfg,
	})
}
