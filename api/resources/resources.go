package resources

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/ingest"
	"github.com/swaggo/swag"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Sensors     *SensorHandlers
	Events      *EventHandlers
	Ingest      *IngestHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *hubservice.HubService, ingester *ingest.Ingester, maxUploadSize int64) *Resources {
	return &Resources{
		Sensors: &SensorHandlers{hubservice: svc},
		Events:  &EventHandlers{hubservice: svc},
		Ingest:  &IngestHandlers{ingester: ingester, maxUploadSize: maxUploadSize},
		HealthCheck: func(w http.ResponseWriter, r *http.Request) {
			respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": nuts.GetVersion()})
		},
		Metrics: func(w http.ResponseWriter, r *http.Request) {
			respondWithJSON(w, http.StatusOK, map[string]int64{})
		},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}

// SwaggerDoc serves the registered swagger document.
func (r *Resources) SwaggerDoc(w http.ResponseWriter, req *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		respondWithError(w, errors.NewInternalError("swagger document unavailable", err).WithRequestID(nuts.NID("req", 12)))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// decodeQuery fills dst from the query string.
func decodeQuery(dst interface{}, r *http.Request) *errors.APIError {
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		fields := errors.FieldErrors{}
		if multi, ok := err.(schema.MultiError); ok {
			for key, fieldErr := range multi {
				fields.Add(key, fieldErr.Error())
			}
		} else {
			fields.Add("query", err.Error())
		}
		return errors.NewValidationError("invalid query parameters", err).WithDetails(fields)
	}
	return nil
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(dst interface{}, r *http.Request) *errors.APIError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", err).WithDetails(errors.FieldErrors{"body": {err.Error()}})
	}
	return nil
}

// pathID reads the numeric {id} route variable. Values that do not fit an int64
// cannot name a stored row.
func pathID(r *http.Request, resource string) (int64, *errors.APIError) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewNotFoundError(resource+" not found", err)
	}
	return id, nil
}

// respondWithServiceError passes APIErrors through and wraps anything else as internal.
func respondWithServiceError(w http.ResponseWriter, err error, msg, requestID string) {
	apiErr, ok := errors.As(err)
	if !ok {
		apiErr = errors.NewInternalError(msg, err)
	}
	respondWithError(w, apiErr.WithRequestID(requestID))
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	if err.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", err.Error())
		return
	}
	nuts.L.Infof("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
