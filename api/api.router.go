package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/w4b_v3/server/sensorhub/api/middleware"
	"github.com/itsatony/w4b_v3/server/sensorhub/api/resources"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.BearerMiddleware
	resources *resources.Resources
}

func NewRouter(res *resources.Resources, authConfig middleware.BearerConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewBearerMiddleware(authConfig),
		resources: res,
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Public routes
	r.router.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)

	// Protected routes
	protected := r.router.NewRoute().Subrouter()
	protected.Use(r.auth.Authenticate)

	protected.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)
	protected.HandleFunc("/swagger/doc.json", r.resources.SwaggerDoc).Methods(http.MethodGet)

	// Sensors
	sensors := r.resources.Sensors
	route(protected, "/sensors", sensors.ListSensors, http.MethodGet)
	route(protected, "/sensors", sensors.CreateSensor, http.MethodPost)
	route(protected, "/sensors/{id:[0-9]+}", sensors.GetSensor, http.MethodGet)
	route(protected, "/sensors/{id:[0-9]+}", sensors.UpdateSensor, http.MethodPut)
	route(protected, "/sensors/{id:[0-9]+}", sensors.PatchSensor, http.MethodPatch)
	route(protected, "/sensors/{id:[0-9]+}", sensors.DeleteSensor, http.MethodDelete)
	route(protected, "/sensors/{id:[0-9]+}/events", sensors.ListSensorEvents, http.MethodGet)

	// Events
	events := r.resources.Events
	route(protected, "/events", events.ListEvents, http.MethodGet)
	route(protected, "/events", events.CreateEvent, http.MethodPost)
	route(protected, "/events/{id:[0-9]+}", events.GetEvent, http.MethodGet)
	route(protected, "/events/{id:[0-9]+}", events.UpdateEvent, http.MethodPut)
	route(protected, "/events/{id:[0-9]+}", events.PatchEvent, http.MethodPatch)
	route(protected, "/events/{id:[0-9]+}", events.DeleteEvent, http.MethodDelete)

	// Bulk ingestion
	route(protected, "/load-events", r.resources.Ingest.LoadEvents, http.MethodPost)
}

// route registers h for path with and without a trailing slash.
func route(r *mux.Router, path string, h http.HandlerFunc, method string) {
	r.HandleFunc(path, h).Methods(method)
	r.HandleFunc(path+"/", h).Methods(method)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
