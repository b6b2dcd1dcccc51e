package donation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lifelink-health/platform/pkg/common/logger"
	"github.com/lifelink-health/platform/pkg/donor"
	"github.com/lifelink-health/platform/pkg/matching"
	"github.com/lifelink-health/platform/pkg/notification"
	"github.com/lifelink-health/platform/pkg/request"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type availabilityBody struct {
	Available *bool `json:"available"`
}

type acceptBody struct {
	DonorID        string `json:"donor_id"`
	NotificationID string `json:"notification_id"`
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/donors", h.handleRegisterDonor).Methods(http.MethodPost)
	router.HandleFunc("/donors", h.handleListDonors).Methods(http.MethodGet)
	router.HandleFunc("/donors/{id}/availability", h.handleSetAvailability).Methods(http.MethodPatch)
	router.HandleFunc("/donors/{id}/notifications", h.handleDonorInbox).Methods(http.MethodGet)
	router.HandleFunc("/requests", h.handleSubmitRequest).Methods(http.MethodPost)
	router.HandleFunc("/requests", h.handleListRequests).Methods(http.MethodGet)
	router.HandleFunc("/requests/{id}", h.handleRequestStatus).Methods(http.MethodGet)
	router.HandleFunc("/requests/{id}/matches", h.handleMatches).Methods(http.MethodGet)
	router.HandleFunc("/requests/{id}/rematch", h.handleRematch).Methods(http.MethodPost)
	router.HandleFunc("/requests/{id}/accept", h.handleAccept).Methods(http.MethodPost)
	router.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleRegisterDonor(w http.ResponseWriter, r *http.Request) {
	var in RegisterDonorInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.Log.WithError(err).Warn("invalid donor payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := h.service.RegisterDonor(r.Context(), in)
	if err != nil {
		writeError(w, err, "failed to register donor")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *HTTPHandler) handleListDonors(w http.ResponseWriter, r *http.Request) {
	donors, err := h.service.ListDonors(r.Context())
	if err != nil {
		writeError(w, err, "failed to list donors")
		return
	}
	writeJSON(w, http.StatusOK, donors)
}

func (h *HTTPHandler) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	var body availabilityBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Available == nil {
		http.Error(w, "available required", http.StatusBadRequest)
		return
	}

	rec, err := h.service.SetDonorAvailability(r.Context(), mux.Vars(r)["id"], *body.Available)
	if err != nil {
		writeError(w, err, "failed to update donor availability")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *HTTPHandler) handleDonorInbox(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.DonorInbox(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "failed to load donor notifications")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *HTTPHandler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var in SubmitRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.Log.WithError(err).Warn("invalid donation request payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.SubmitRequest(r.Context(), in)
	if err != nil {
		writeError(w, err, "failed to submit donation request")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *HTTPHandler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListRequests(r.Context())
	if err != nil {
		writeError(w, err, "failed to list requests")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *HTTPHandler) handleRequestStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RequestStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "failed to load request status")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) handleMatches(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Matches(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "failed to load matches")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *HTTPHandler) handleRematch(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RematchRequest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "failed to rematch request")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) handleAccept(w http.ResponseWriter, r *http.Request) {
	var body acceptBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.DonorID == "" || body.NotificationID == "" {
		http.Error(w, "donor_id and notification_id required", http.StatusBadRequest)
		return
	}

	match, err := h.service.AcceptNotification(r.Context(), body.DonorID, mux.Vars(r)["id"], body.NotificationID)
	if err != nil {
		writeError(w, err, "failed to accept request")
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *HTTPHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, err, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case matching.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, request.ErrNotFound),
		errors.Is(err, donor.ErrNotFound),
		errors.Is(err, notification.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, request.ErrRequestClosed),
		errors.Is(err, notification.ErrAlreadyAccepted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.Log.WithError(err).Error(msg)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
