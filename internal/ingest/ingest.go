// Package ingest implements the bulk event upload pipeline: parse the JSON
// array, validate each element, resolve sensors, insert the events in bulk and
// report what happened to every element.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sort"
	"time"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/logging"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/models"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/repository"
)

// ErrInternal is returned for every failure that is neither a ParseError nor a
// per-record problem. Details are only logged.
var ErrInternal = errors.New("internal error")

// Metric names recorded by the Ingester.
const (
	MetricUploads       = "ingest_uploads_total"
	MetricParseFailures = "ingest_parse_failures_total"
	MetricInternal      = "ingest_internal_errors_total"
	MetricCreated       = "ingest_events_created_total"
	MetricInvalid       = "ingest_records_invalid_total"
	MetricSkipped       = "ingest_events_skipped_total"
)

// Metrics is the counter sink used by the Ingester.
type Metrics interface {
	Add(name string, delta int64)
}

// Upload is one uploaded file.
type Upload struct {
	Filename   string
	RequestID  string
	Body       io.Reader
	ReceivedAt time.Time
}

// Report is the outcome of one ingestion.
type Report struct {
	TotalInput                   int      `json:"total_input"`
	ValidEvents                  int      `json:"valid_events"`
	Created                      int      `json:"created"`
	SkippedEventsToMissingSensor int      `json:"skipped_events_to_missing_sensor"`
	ParseErrors                  int      `json:"parse_errors"`
	ErrorDetails                 []string `json:"error_details"`
}

// Succeeded reports whether at least one event was created.
func (r *Report) Succeeded() bool {
	return r.Created > 0
}

// Ingester runs the pipeline for one upload at a time. It holds no per-request
// state and is safe for concurrent use.
type Ingester struct {
	resolver SensorResolver
	writer   *Writer
	archive  repository.UploadArchive
	metrics  Metrics
	logger   logging.Logger
}

type Option func(*Ingester)

// WithArchive stores every raw upload before it is parsed.
func WithArchive(a repository.UploadArchive) Option {
	return func(i *Ingester) { i.archive = a }
}

func WithMetrics(m Metrics) Option {
	return func(i *Ingester) { i.metrics = m }
}

func WithLogger(l logging.Logger) Option {
	return func(i *Ingester) { i.logger = l }
}

func New(resolver SensorResolver, writer *Writer, opts ...Option) *Ingester {
	i := &Ingester{resolver: resolver, writer: writer, logger: logging.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest returns a report, a *ParseError, or ErrInternal.
func (i *Ingester) Ingest(ctx context.Context, upload Upload) (report *Report, err error) {
	log := logging.WithRequestID(i.logger, upload.RequestID)

	defer func() {
		if p := recover(); p != nil {
			log.Errorf("[Ingest] panic while ingesting %q: %v\n%s", upload.Filename, p, debug.Stack())
			i.count(MetricInternal, 1)
			report, err = nil, ErrInternal
		}
	}()

	i.count(MetricUploads, 1)

	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return nil, i.internal(log, "read upload", err)
	}

	i.archiveUpload(ctx, log, upload, data)

	records, problems, err := ParseBytes(data)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			log.Warnf("[Ingest] Rejected %q: %s", upload.Filename, parseErr.Msg)
			i.count(MetricParseFailures, 1)
			return nil, parseErr
		}
		return nil, i.internal(log, "parse upload", err)
	}

	sensors := map[int64]*models.Sensor{}
	if ids := distinctSensorIDs(records); len(ids) > 0 {
		sensors, err = i.resolver.Resolve(ctx, ids)
		if err != nil {
			return nil, i.internal(log, "resolve sensors", err)
		}
	}

	created, missing, err := i.writer.Write(ctx, records, sensors)
	if err != nil {
		return nil, i.internal(log, "write events", err)
	}

	details := make([]string, 0, len(problems)+len(missing))
	details = append(details, problems...)
	details = append(details, missing...)

	report = &Report{
		TotalInput:                   len(records) + len(problems),
		ValidEvents:                  len(records),
		Created:                      created,
		SkippedEventsToMissingSensor: len(missing),
		ParseErrors:                  len(problems),
		ErrorDetails:                 details,
	}

	i.count(MetricCreated, int64(report.Created))
	i.count(MetricInvalid, int64(report.ParseErrors))
	i.count(MetricSkipped, int64(report.SkippedEventsToMissingSensor))

	log.Infof("[Ingest] %q: %s", upload.Filename, report)
	return report, nil
}

func (i *Ingester) internal(log logging.Logger, step string, err error) error {
	log.Errorf("[Ingest] %s failed: %v", step, err)
	i.count(MetricInternal, 1)
	return ErrInternal
}

// archiveUpload is best effort; a failing archive never fails the ingestion.
func (i *Ingester) archiveUpload(ctx context.Context, log logging.Logger, upload Upload, data []byte) {
	if i.archive == nil {
		return
	}
	received := upload.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}
	archived := &models.ArchivedUpload{
		RequestID:  upload.RequestID,
		Filename:   upload.Filename,
		Data:       data,
		ReceivedAt: received,
	}
	if err := i.archive.Store(ctx, archived); err != nil {
		log.Warnf("[Ingest] Failed to archive %q: %v", upload.Filename, err)
		return
	}
	log.Infof("[Ingest] Archived %q at %s", upload.Filename, archived.Location)
}

func (i *Ingester) count(name string, delta int64) {
	if i.metrics != nil && delta != 0 {
		i.metrics.Add(name, delta)
	}
}

// distinctSensorIDs returns the referenced sensor ids in ascending order.
func distinctSensorIDs(records []Record) []int64 {
	seen := make(map[int64]struct{}, len(records))
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.SensorID]; ok {
			continue
		}
		seen[rec.SensorID] = struct{}{}
		ids = append(ids, rec.SensorID)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

// String renders the report counters for log lines.
func (r *Report) String() string {
	return fmt.Sprintf("total=%d valid=%d created=%d skipped=%d invalid=%d",
		r.TotalInput, r.ValidEvents, r.Created, r.SkippedEventsToMissingSensor, r.ParseErrors)
}
