package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angkorcare/hospital-assistant/internal/availability"
)

// ProvidersHandler serves read-only views of the availability store.
type ProvidersHandler struct {
	store *availability.Store
}

// NewProvidersHandler creates the provider listing handler.
func NewProvidersHandler(store *availability.Store) *ProvidersHandler {
	return &ProvidersHandler{store: store}
}

type providerView struct {
	ID                 string   `json:"id"`
	Specialization     string   `json:"specialization"`
	Languages          []string `json:"languages"`
	EmergencyAvailable bool     `json:"emergency_available"`
}

// List returns every provider with its profile, without schedules.
func (h *ProvidersHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := h.store.ListProviders()
	out := make([]providerView, 0, len(ids))
	for _, id := range ids {
		p, err := h.store.Get(id)
		if err != nil {
			continue
		}
		out = append(out, providerView{
			ID:                 p.ID,
			Specialization:     p.Specialization,
			Languages:          p.Languages,
			EmergencyAvailable: p.EmergencyAvailable,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": out})
}

// Availability returns a provider's open dates and slots. The provider path
// segment tolerates the usual honorific and case variants.
func (h *ProvidersHandler) Availability(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "provider")
	id, err := h.store.Resolve(token)
	if err != nil {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	p, err := h.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider":      p.ID,
		"working_hours": p.WorkingHours,
	})
}

// AdminAvailabilityHandler replaces provider schedules. It sits behind the
// static admin token middleware.
type AdminAvailabilityHandler struct {
	store *availability.Store
}

// NewAdminAvailabilityHandler creates the schedule maintenance handler.
func NewAdminAvailabilityHandler(store *availability.Store) *AdminAvailabilityHandler {
	return &AdminAvailabilityHandler{store: store}
}

// SetSchedule replaces (or creates) a provider's schedule wholesale.
func (h *AdminAvailabilityHandler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	var p availability.Provider
	if err := decodeProvider(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.store.SetSchedule(p)
	writeJSON(w, http.StatusOK, map[string]string{"provider": p.ID, "status": "updated"})
}

func decodeProvider(r *http.Request, p *availability.Provider) error {
	if err := decodeJSON(r, p); err != nil {
		return err
	}
	if p.ID == "" {
		return errors.New("provider id is required")
	}
	return nil
}
