package resources

import (
	"net/http"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// SensorHandlers encapsulates the sensor-related HTTP handlers
type SensorHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List sensors
// @Description Get a paginated list of sensors
// @Tags sensors
// @Produce json
// @Param search query string false "Case-insensitive substring of the name"
// @Param ordering query string false "id, name or created_at, prefixed with - for descending"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} models.ListResult[models.Sensor]
// @Failure 400 {object} errors.APIError
// @Router /sensors/ [get]
// @Security BearerAuth
func (h *SensorHandlers) ListSensors(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.SensorFilters
	if err := decodeQuery(&filters, r); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	result, err := h.hubservice.ListSensors(r.Context(), filters)
	if err != nil {
		respondWithServiceError(w, err, "failed to list sensors", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Create a new sensor
// @Tags sensors
// @Accept json
// @Produce json
// @Param sensor body models.Sensor true "Sensor details"
// @Success 201 {object} models.Sensor
// @Failure 400 {object} errors.APIError
// @Router /sensors/ [post]
// @Security BearerAuth
func (h *SensorHandlers) CreateSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var sensor models.Sensor
	if err := decodeBody(&sensor, r); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	if err := h.hubservice.CreateSensor(r.Context(), &sensor); err != nil {
		respondWithServiceError(w, err, "failed to create sensor", requestID)
		return
	}

	respondWithJSON(w, http.StatusCreated, sensor)
}

// @Summary Get a sensor by ID
// @Tags sensors
// @Produce json
// @Param id path int true "Sensor ID"
// @Success 200 {object} models.Sensor
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/ [get]
// @Security BearerAuth
func (h *SensorHandlers) GetSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := pathID(r, "sensor")
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	sensor, err := h.hubservice.GetSensor(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "failed to get sensor", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, sensor)
}

// @Summary Replace a sensor
// @Tags sensors
// @Accept json
// @Produce json
// @Param id path int true "Sensor ID"
// @Param sensor body models.Sensor true "Sensor details"
// @Success 200 {object} models.Sensor
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/ [put]
// @Security BearerAuth
func (h *SensorHandlers) UpdateSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := pathID(r, "sensor")
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	var sensor models.Sensor
	if err := decodeBody(&sensor, r); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	updated, err := h.hubservice.UpdateSensor(r.Context(), id, &sensor)
	if err != nil {
		respondWithServiceError(w, err, "failed to update sensor", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// @Summary Partially update a sensor
// @Tags sensors
// @Accept json
// @Produce json
// @Param id path int true "Sensor ID"
// @Param sensor body models.SensorPatch true "Fields to change"
// @Success 200 {object} models.Sensor
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/ [patch]
// @Security BearerAuth
func (h *SensorHandlers) PatchSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := pathID(r, "sensor")
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	var patch models.SensorPatch
	if err := decodeBody(&patch, r); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	updated, err := h.hubservice.PatchSensor(r.Context(), id, patch)
	if err != nil {
		respondWithServiceError(w, err, "failed to update sensor", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// @Summary Delete a sensor
// @Description Delete a sensor and all of its events
// @Tags sensors
// @Param id path int true "Sensor ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/ [delete]
// @Security BearerAuth
func (h *SensorHandlers) DeleteSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := pathID(r, "sensor")
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	if err := h.hubservice.DeleteSensor(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "failed to delete sensor", requestID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary List the events of a sensor
// @Description Newest first
// @Tags sensors
// @Produce json
// @Param id path int true "Sensor ID"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} models.ListResult[models.Event]
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/events/ [get]
// @Security BearerAuth
func (h *SensorHandlers) ListSensorEvents(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id, apiErr := pathID(r, "sensor")
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	var page models.Page
	if err := decodeQuery(&page, r); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	result, err := h.hubservice.ListSensorEvents(r.Context(), id, page)
	if err != nil {
		respondWithServiceError(w, err, "failed to list sensor events", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
