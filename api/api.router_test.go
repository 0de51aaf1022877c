package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/itsatony/w4b_v3/server/sensorhub/api/middleware"
	"github.com/itsatony/w4b_v3/server/sensorhub/api/resources"
	_ "github.com/itsatony/w4b_v3/server/sensorhub/docs"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/database"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/hubservice"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/ingest"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository/postgres"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/testutil"
	"go.uber.org/zap/zaptest"
)

type testAPI struct {
	srv   *httptest.Server
	db    database.DB
	token string
}

func newTestAPI(t *testing.T, token string, maxUpload int64) *testAPI {
	t.Helper()
	db := testutil.SetupDB(t)
	sensors := postgres.NewSensorRepository(db)
	events := postgres.NewEventRepository(db, 100)

	svc := hubservice.New(sensors, events)
	svc.Logger = zaptest.NewLogger(t).Sugar()
	ingester := ingest.New(ingest.NewLookupResolver(sensors), ingest.NewWriter(events),
		ingest.WithLogger(zaptest.NewLogger(t).Sugar()))

	res := resources.NewResources(svc, ingester, maxUpload)
	srv := httptest.NewServer(NewRouter(res, middleware.BearerConfig{Token: token}))
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, db: db, token: token}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.send(t, req)
}

func (a *testAPI) upload(t *testing.T, field, filename, content string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write([]byte(content))
	} else {
		mw.WriteField("other", "value")
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/load-events/", &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.send(t, req)
}

func (a *testAPI) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decode(t *testing.T, data []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, dst); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
}

func wantStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s status = %d, want %d (body %s)", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

type apiError struct {
	Type    string              `json:"type"`
	Code    int                 `json:"code"`
	Details map[string][]string `json:"details"`
}

type sensorBody struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	SensorType int    `json:"sensor_type"`
}

type eventBody struct {
	ID          int64    `json:"id"`
	Sensor      int64    `json:"sensor"`
	Name        string   `json:"name"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// --- Sensors ---

func TestSensors_CRUD(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)

	resp, body := a.do(t, http.MethodPost, "/sensors/", map[string]interface{}{"name": " kitchen ", "sensor_type": 2})
	wantStatus(t, resp, body, http.StatusCreated)
	var created sensorBody
	decode(t, body, &created)
	if created.ID == 0 || created.Name != "kitchen" || created.SensorType != 2 {
		t.Fatalf("created = %+v", created)
	}
	path := fmt.Sprintf("/sensors/%d/", created.ID)

	resp, body = a.do(t, http.MethodGet, "/sensors", nil)
	wantStatus(t, resp, body, http.StatusOK)
	var list struct {
		Count   int64        `json:"count"`
		Results []sensorBody `json:"results"`
	}
	decode(t, body, &list)
	if list.Count != 1 || len(list.Results) != 1 {
		t.Errorf("list = %+v, want one sensor", list)
	}

	resp, body = a.do(t, http.MethodPatch, path, map[string]interface{}{"name": "pantry"})
	wantStatus(t, resp, body, http.StatusOK)
	var patched sensorBody
	decode(t, body, &patched)
	if patched.Name != "pantry" || patched.SensorType != 2 {
		t.Errorf("patched = %+v", patched)
	}

	resp, body = a.do(t, http.MethodPut, strings.TrimSuffix(path, "/"), map[string]interface{}{"name": "cellar", "sensor_type": 3})
	wantStatus(t, resp, body, http.StatusOK)

	resp, body = a.do(t, http.MethodGet, path, nil)
	wantStatus(t, resp, body, http.StatusOK)
	var got sensorBody
	decode(t, body, &got)
	if got.Name != "cellar" || got.SensorType != 3 {
		t.Errorf("got = %+v, want cellar type 3", got)
	}

	resp, body = a.do(t, http.MethodDelete, path, nil)
	wantStatus(t, resp, body, http.StatusNoContent)

	resp, body = a.do(t, http.MethodGet, path, nil)
	wantStatus(t, resp, body, http.StatusNotFound)
}

func TestSensors_ValidationErrors(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)

	resp, body := a.do(t, http.MethodPost, "/sensors/", map[string]interface{}{"name": "", "sensor_type": 9})
	wantStatus(t, resp, body, http.StatusBadRequest)
	var apiErr apiError
	decode(t, body, &apiErr)
	if apiErr.Type != "validation" || len(apiErr.Details["name"]) == 0 || len(apiErr.Details["sensor_type"]) == 0 {
		t.Errorf("error = %+v, want field errors for name and sensor_type", apiErr)
	}

	resp, body = a.do(t, http.MethodGet, "/sensors/?limit=abc", nil)
	wantStatus(t, resp, body, http.StatusBadRequest)
}

func TestSensors_SearchOrderingPagination(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)
	for _, name := range []string{"Alpha", "beta", "ALPHABET", "gamma"} {
		resp, body := a.do(t, http.MethodPost, "/sensors/", map[string]interface{}{"name": name, "sensor_type": 1})
		wantStatus(t, resp, body, http.StatusCreated)
	}

	resp, body := a.do(t, http.MethodGet, "/sensors/?search=alpha&ordering=-name&limit=1", nil)
	wantStatus(t, resp, body, http.StatusOK)
	var list struct {
		Count   int64        `json:"count"`
		Results []sensorBody `json:"results"`
	}
	decode(t, body, &list)
	if list.Count != 2 || len(list.Results) != 1 {
		t.Fatalf("list = %+v, want count 2 with one result", list)
	}
	if list.Results[0].Name != "Alpha" {
		t.Errorf("first result = %q, want Alpha", list.Results[0].Name)
	}
}

func TestSensorEvents_UnknownSensor(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)
	resp, body := a.do(t, http.MethodGet, "/sensors/12/events/", nil)
	wantStatus(t, resp, body, http.StatusNotFound)
}

// --- Events ---

func TestEvents_CreateFilterAndDelete(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)
	testutil.SeedSensors(t, a.db, 1, 2)

	for _, e := range []map[string]interface{}{
		{"sensor": 1, "name": "cold", "temperature": -5},
		{"sensor": 1, "name": "warm", "temperature": 25, "humidity": 40},
		{"sensor": 2, "name": "humid", "humidity": 90},
	} {
		resp, body := a.do(t, http.MethodPost, "/events/", e)
		wantStatus(t, resp, body, http.StatusCreated)
	}

	var list struct {
		Count   int64       `json:"count"`
		Results []eventBody `json:"results"`
	}
	resp, body := a.do(t, http.MethodGet, "/events/?sensor_id=1&temperature_min=0", nil)
	wantStatus(t, resp, body, http.StatusOK)
	decode(t, body, &list)
	if list.Count != 1 || list.Results[0].Name != "warm" {
		t.Errorf("filtered = %+v, want only warm", list)
	}

	resp, body = a.do(t, http.MethodGet, "/sensors/1/events", nil)
	wantStatus(t, resp, body, http.StatusOK)
	decode(t, body, &list)
	if list.Count != 2 {
		t.Errorf("sensor events count = %d, want 2", list.Count)
	}

	id := list.Results[0].ID
	resp, body = a.do(t, http.MethodPatch, fmt.Sprintf("/events/%d/", id), map[string]interface{}{"humidity": 10})
	wantStatus(t, resp, body, http.StatusOK)

	resp, body = a.do(t, http.MethodDelete, fmt.Sprintf("/events/%d", id), nil)
	wantStatus(t, resp, body, http.StatusNoContent)
	if n := testutil.CountEvents(t, a.db); n != 2 {
		t.Errorf("events left = %d, want 2", n)
	}
}

func TestEvents_ValidationErrors(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)
	testutil.SeedSensors(t, a.db, 1)

	cases := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"unknown sensor", map[string]interface{}{"sensor": 9, "name": "e", "humidity": 1}, "sensor"},
		{"no readings", map[string]interface{}{"sensor": 1, "name": "e"}, "non_field_errors"},
		{"too hot", map[string]interface{}{"sensor": 1, "name": "e", "temperature": 201}, "temperature"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := a.do(t, http.MethodPost, "/events/", tc.body)
			wantStatus(t, resp, body, http.StatusBadRequest)
			var apiErr apiError
			decode(t, body, &apiErr)
			if len(apiErr.Details[tc.field]) == 0 {
				t.Errorf("details = %v, want an error for %s", apiErr.Details, tc.field)
			}
		})
	}
}

// --- Bulk ingestion ---

type reportBody struct {
	TotalInput   int      `json:"total_input"`
	ValidEvents  int      `json:"valid_events"`
	Created      int      `json:"created"`
	Skipped      int      `json:"skipped_events_to_missing_sensor"`
	ParseErrors  int      `json:"parse_errors"`
	ErrorDetails []string `json:"error_details"`
}

func TestLoadEvents_Created(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)
	testutil.SeedSensors(t, a.db, 1)

	resp, body := a.upload(t, "json_file", "events.json", `[{"sensor_id":1,"name":"E1","temperature":25.5}]`)
	wantStatus(t, resp, body, http.StatusCreated)
	var report reportBody
	decode(t, body, &report)
	if report.Created != 1 || report.TotalInput != 1 || report.ErrorDetails == nil {
		t.Errorf("report = %+v", report)
	}
}

func TestLoadEvents_NothingCreated(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)

	resp, body := a.upload(t, "json_file", "EVENTS.JSON", `[{"sensor_id":99,"name":"E2","humidity":50}]`)
	wantStatus(t, resp, body, http.StatusBadRequest)
	var report reportBody
	decode(t, body, &report)
	if report.Skipped != 1 || report.ErrorDetails[0] != "Sensor ID 99 does not exist. Event 'E2' skipped." {
		t.Errorf("report = %+v", report)
	}
}

func TestLoadEvents_InvalidJSON(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)

	resp, body := a.upload(t, "json_file", "events.json", `invalid json content`)
	wantStatus(t, resp, body, http.StatusBadRequest)
	var detail map[string]string
	decode(t, body, &detail)
	if !strings.HasPrefix(detail["detail"], "invalid JSON") {
		t.Errorf("detail = %q, want invalid JSON message", detail["detail"])
	}
}

func TestLoadEvents_FileChecks(t *testing.T) {
	a := newTestAPI(t, "", 64)

	cases := []struct {
		name     string
		field    string
		filename string
		content  string
	}{
		{"missing file", "", "", ""},
		{"wrong extension", "json_file", "events.csv", `[]`},
		{"too large", "json_file", "events.json", `[` + strings.Repeat(`{"sensor_id":1},`, 10) + `{}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := a.upload(t, tc.field, tc.filename, tc.content)
			wantStatus(t, resp, body, http.StatusBadRequest)
			var apiErr apiError
			decode(t, body, &apiErr)
			if apiErr.Type != "validation" || len(apiErr.Details["json_file"]) == 0 {
				t.Errorf("error = %+v, want json_file field error", apiErr)
			}
		})
	}
}

// --- Routing ---

func TestAuth_ProtectsResourcesButNotHealth(t *testing.T) {
	a := newTestAPI(t, "secret", 5<<20)

	resp, err := http.Get(a.srv.URL + "/sensors/")
	if err != nil {
		t.Fatalf("GET /sensors/: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	resp, err = http.Get(a.srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	r, body := a.do(t, http.MethodGet, "/sensors/", nil)
	wantStatus(t, r, body, http.StatusOK)
}

func TestRouting_MethodNotAllowed(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)
	resp, body := a.do(t, http.MethodGet, "/load-events/", nil)
	wantStatus(t, resp, body, http.StatusMethodNotAllowed)
}

func TestSwaggerDoc(t *testing.T) {
	a := newTestAPI(t, "", 5<<20)
	resp, body := a.do(t, http.MethodGet, "/swagger/doc.json", nil)
	wantStatus(t, resp, body, http.StatusOK)

	var doc struct {
		Paths map[string]interface{} `json:"paths"`
	}
	decode(t, body, &doc)
	if _, ok := doc.Paths["/load-events/"]; !ok {
		t.Errorf("swagger paths = %v, want /load-events/", doc.Paths)
	}
}
