package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/angkorcare/hospital-assistant/internal/booking"
	"github.com/angkorcare/hospital-assistant/internal/session"
	"github.com/angkorcare/hospital-assistant/pkg/logging"
)

// BookingHandler exposes the appointment conversation over HTTP.
type BookingHandler struct {
	engine *booking.Engine
	logger *logging.Logger
}

// NewBookingHandler creates the booking endpoint handler.
func NewBookingHandler(engine *booking.Engine, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{engine: engine, logger: logger}
}

type bookingRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Doctor    string `json:"doctor"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type bookingResponse struct {
	SessionID    string           `json:"session_id,omitempty"`
	Message      string           `json:"message"`
	Confirmation string           `json:"confirmation,omitempty"`
	Document     string           `json:"document,omitempty"`
	Booking      *booking.Booking `json:"booking,omitempty"`
}

// BookAppointment advances the conversation by one turn. An empty or missing
// session_id starts a new conversation.
func (h *BookingHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.engine.Advance(r.Context(), req.SessionID, booking.TurnInput{
		Name:   req.Name,
		Doctor: req.Doctor,
		Date:   req.Date,
		Time:   req.Time,
	})

	var turnErr *booking.TurnError
	switch {
	case errors.As(err, &turnErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			SessionID: turnErr.SessionID,
			Error:     turnErr.Prompt,
		})
		return
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
		return
	case err != nil:
		h.logger.Error("booking turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := bookingResponse{
		SessionID:    res.SessionID,
		Message:      res.Message,
		Confirmation: res.Confirmation,
		Document:     res.Document,
		Booking:      res.Booking,
	}
	writeJSON(w, http.StatusOK, resp)
}
