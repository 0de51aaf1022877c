package resources

import (
	"net/http"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// EventHandlers encapsulates the event-related HTTP handlers
type EventHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List events
// @Description Filter bounds are inclusive
// @Tags events
// @Produce json
// @Param sensor_id query int false "Sensor ID"
// @Param temperature_min query number false "Minimum temperature"
// @Param temperature_max query number false "Maximum temperature"
// @Param humidity_min query number false "Minimum humidity"
// @Param humidity_max query number false "Maximum humidity"
// @Param ordering query string false "created_at, temperature, humidity or id, prefixed with - for descending"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} models.ListResult[models.Event]
// @Failure 400 {object} errors.APIError
// @Router /events/ [get]
// @Security BearerAuth
func (h *EventHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.EventFilters
	if err := decodeQuery(&filters, r); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	result, err := h.hubservice.ListEvents(r.Context(), filters)
	if err != nil {
		respondWithServiceError(w, err, "failed to list events", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Param event body models.Event true "Event details"
// @Success 201 {object} models.Event
// @Failure 400 {object} errors.APIError
// @Router /events/ [post]
// @Security BearerAuth
func (h *EventHandlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var event models.Event
	if err := decodeBody(&event, r); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	if err := h.hubservice.CreateEvent(r.Context(), &event); err != nil {
		respondWithServiceError(w, err, "failed to create event", requestID)
		return
	}

	respondWithJSON(w, http.StatusCreated, event)
}

// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} errors.APIError
// @Router /events/{id}/ [get]
// @Security BearerAuth
func (h *EventHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := pathID(r, "event")
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	event, err := h.hubservice.GetEvent(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "failed to get event", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, event)
}

// @Summary Replace an event
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param event body models.Event true "Event details"
// @Success 200 {object} models.Event
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /events/{id}/ [put]
// @Security BearerAuth
func (h *EventHandlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := pathID(r, "event")
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	var event models.Event
	if err := decodeBody(&event, r); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	updated, err := h.hubservice.UpdateEvent(r.Context(), id, &event)
	if err != nil {
		respondWithServiceError(w, err, "failed to update event", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// @Summary Partially update an event
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param event body models.EventPatch true "Fields to change"
// @Success 200 {object} models.Event
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /events/{id}/ [patch]
// @Security BearerAuth
func (h *EventHandlers) PatchEvent(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := pathID(r, "event")
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	var patch models.EventPatch
	if err := decodeBody(&patch, r); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	updated, err := h.hubservice.PatchEvent(r.Context(), id, patch)
	if err != nil {
		respondWithServiceError(w, err, "failed to update event", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// @Summary Delete an event
// @Tags events
// @Param id path int true "Event ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.APIError
// @Router /events/{id}/ [delete]
// @Security BearerAuth
func (h *EventHandlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := pathID(r, "event")
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	if err := h.hubservice.DeleteEvent(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "failed to delete event", requestID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
