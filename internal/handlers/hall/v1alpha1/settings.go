package v1alpha1

import (
	"net/http"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/orchestrators/challenge"
	"github.com/KirkDiggler/hall-runner/internal/services/strategy"
)

// GetSettings returns an account's hall settings, defaults when none are stored
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	accountID := r.PathValue("account")

	out, err := h.service.GetSettings(r.Context(), &challenge.GetSettingsInput{AccountID: accountID})
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{
		AccountID: accountID,
		Settings:  out.Settings,
		Defaulted: out.Defaulted,
	})
}

// SaveSettings validates and stores an account's hall settings
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var settings hall.AccountSettings
	if err := decodeJSON(w, r, &settings); err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	out, err := h.service.SaveSettings(r.Context(), &challenge.SaveSettingsInput{
		AccountID: r.PathValue("account"),
		Settings:  &settings,
	})
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	resp := SaveSettingsResponse{Success: true, Plans: make([]PlanSummary, 0, len(out.Plans))}
	for _, p := range out.Plans {
		resp.Plans = append(resp.Plans, PlanSummary{Hall: p.Hall.String(), Strategy: strategy.Format(p.Strategy)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ValidateStrategy parses one strategy string without storing anything
func (h *Handler) ValidateStrategy(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	parsed, err := strategy.Parse(req.Strategy)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	directives := parsed.Directives
	if directives == nil {
		directives = []hall.FloorDirective{}
	}
	writeJSON(w, http.StatusOK, ValidateResponse{
		Valid:      true,
		Canonical:  strategy.Format(parsed),
		Directives: directives,
	})
}
