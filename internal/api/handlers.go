package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/UnknownOlympus/scout/internal/geocoding"
	"github.com/UnknownOlympus/scout/internal/models"
	"github.com/UnknownOlympus/scout/internal/service"
)

// settingsView is what the wizard sees of the saved settings. Keys are never echoed.
type settingsView struct {
	Provider             string `json:"provider"`
	LocationIQConfigured bool   `json:"locationIqConfigured"`
	GoogleConfigured     bool   `json:"googleMapsConfigured"`
}

type settingsUpdate struct {
	Provider      string `json:"provider"`
	LocationIQKey string `json:"locationIqKey"`
	GoogleKey     string `json:"googleMapsKey"`
}

func (s *Server) handleCounties(w http.ResponseWriter, r *http.Request) {
	var req service.CountiesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.geocoder.ResolveCounties(r.Context(), req)
	if err != nil {
		s.fail(w, r, "counties", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTowns(w http.ResponseWriter, r *http.Request) {
	var req service.TownsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.geocoder.EnumerateTowns(r.Context(), req)
	if err != nil {
		s.fail(w, r, "towns", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.LoadGeocodingSettings(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "Failed to load geocoding settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(settings))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var upd settingsUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	provider := strings.ToLower(strings.TrimSpace(upd.Provider))
	if provider != "" && !geocoding.ProviderType(provider).Known() {
		writeError(w, http.StatusBadRequest, "unknown provider: "+upd.Provider)
		return
	}

	// Keys are never sent back to the wizard, so a blank key keeps the saved one.
	settings, err := s.settings.LoadGeocodingSettings(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "Failed to load geocoding settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	settings.Provider = provider
	if upd.LocationIQKey != "" {
		settings.LocationIQKey = upd.LocationIQKey
	}
	if upd.GoogleKey != "" {
		settings.GoogleKey = upd.GoogleKey
	}

	if err = s.settings.SaveGeocodingSettings(r.Context(), settings); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to save geocoding settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	s.log.InfoContext(r.Context(), "Geocoding settings saved", "provider", provider)
	writeJSON(w, http.StatusOK, viewOf(settings))
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	if errors.Is(err, service.ErrPrecondition) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.ErrorContext(r.Context(), "Request failed", "operation", operation, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func viewOf(settings models.GeocodingSettings) settingsView {
	return settingsView{
		Provider:             settings.Provider,
		LocationIQConfigured: settings.LocationIQKey != "",
		GoogleConfigured:     settings.GoogleKey != "",
	}
}
