package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/internal/plugin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// PluginStatus describes a loaded plugin.
type PluginStatus struct {
	ID        string            `json:"id"`
	Info      models.PluginInfo `json:"info"`
	State     plugin.State      `json:"state"`
	Enabled   bool              `json:"enabled"`
	Ready     bool              `json:"ready"`
	LastError *string           `json:"last_error"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func sendError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	sendJSON(w, statusFor(kind), ErrorResponse{
		Error: ErrorDetail{
			Code:      kind.String(),
			Message:   err.Error(),
			RequestID: middleware.GetReqID(r.Context()),
		},
	})
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.NotFound:
		return http.StatusNotFound
	case errs.InvalidArgument, errs.ParseError, errs.ConfigurationError:
		return http.StatusBadRequest
	case errs.PermissionDenied, errs.PermissionRequired:
		return http.StatusForbidden
	case errs.NotSupported, errs.UnavailableFeature, errs.ApiUnavailable:
		return http.StatusNotImplemented
	case errs.Timeout:
		return http.StatusGatewayTimeout
	case errs.ResourceExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// snapshot returns the latest snapshot, or takes one when none exists or
// fresh=1 is given.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("fresh") != "1" {
		if snap, ok := s.snaps.Latest(); ok {
			sendJSON(w, http.StatusOK, snap)
			return
		}
	}
	sendJSON(w, http.StatusOK, s.snaps.Collect(r.Context()))
}

func (s *Server) listPlugins(w http.ResponseWriter, r *http.Request) {
	infos := []models.PluginInfo{}
	if s.discover != nil {
		infos = s.discover()
	}
	sendJSON(w, http.StatusOK, infos)
}

func (s *Server) loadedPlugins(w http.ResponseWriter, r *http.Request) {
	out := []PluginStatus{}
	if s.plugins != nil {
		for _, p := range s.plugins.Plugins() {
			out = append(out, status(p, false))
		}
	}
	sendJSON(w, http.StatusOK, out)
}

func (s *Server) pluginDetail(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if s.plugins == nil {
		sendError(w, r, errs.Errorf(errs.NotFound, "server.plugin", "plugin %q is not loaded", name))
		return
	}
	p, ok := s.plugins.Get(name)
	if !ok {
		sendError(w, r, errs.Errorf(errs.NotFound, "server.plugin", "plugin %q is not loaded", name))
		return
	}
	sendJSON(w, http.StatusOK, status(p, true))
}

func status(p *plugin.Plugin, withFields bool) PluginStatus {
	st := PluginStatus{
		ID:      p.ID().String(),
		Info:    p.Info(),
		State:   p.State(),
		Enabled: p.IsEnabled(),
		Ready:   p.IsReady(),
	}
	if msg, ok := p.LastError(); ok {
		st.LastError = &msg
	}
	if withFields {
		if fields, err := p.Fields(); err == nil {
			st.Fields = fields
		}
	}
	return st
}
