// Package ingest accepts line-delimited JSON over HTTP and hands each
// document to a Sink.
package ingest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gojson "github.com/goccy/go-json"

	"github.com/ldjson-stream/ldjson/pkg/ldjson"
	"github.com/ldjson-stream/ldjson/pkg/source"
)

// Response is the body of every ingest reply.
type Response struct {
	Documents int64  `json:"documents"`
	Errors    int64  `json:"errors"`
	Bytes     int64  `json:"bytes"`
	Error     string `json:"error,omitempty"`
}

// Handler decodes POSTed NDJSON bodies.
type Handler struct {
	opts ldjson.Options
	log  *slog.Logger
	sink Sink

	set          *metrics.Set
	requests     *metrics.Counter
	documents    *metrics.Counter
	decodeErrors *metrics.Counter
	limitErrors  *metrics.Counter
	duration     *metrics.Histogram
}

// New creates a Handler. opts are the server-wide limits; a request may
// tighten them with the maxBytes and maxDocLength query parameters but never
// loosen them.
func New(opts ldjson.Options, logger *slog.Logger, sink Sink) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = Discard
	}
	set := metrics.NewSet()
	return &Handler{
		opts:         opts,
		log:          logger,
		sink:         sink,
		set:          set,
		requests:     set.NewCounter("ldjson_ingest_requests_total"),
		documents:    set.NewCounter("ldjson_ingest_documents_total"),
		decodeErrors: set.NewCounter("ldjson_ingest_decode_errors_total"),
		limitErrors:  set.NewCounter("ldjson_ingest_limit_errors_total"),
		duration:     set.NewHistogram("ldjson_ingest_request_duration_seconds"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.reply(w, http.StatusMethodNotAllowed, Response{Error: "method not allowed"})
		return
	}

	h.requests.Inc()
	defer h.duration.UpdateDuration(startTime)

	log := h.log.With("request_id", middleware.GetReqID(r.Context()), "remote_addr", r.RemoteAddr)

	opts, err := h.requestOptions(r.URL.Query())
	if err != nil {
		h.reply(w, http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	body, err := source.Decompress(r.Body, r.Header.Get("Content-Encoding"))
	if err != nil {
		status := http.StatusBadRequest
		var ue *source.UnsupportedEncodingError
		if errors.As(err, &ue) {
			status = http.StatusUnsupportedMediaType
		}
		h.reply(w, status, Response{Error: err.Error()})
		return
	}
	defer body.Close()

	rd := ldjson.NewReader(body, ldjson.WithOptions(opts), ldjson.WithLogger(log))

	var (
		resp   Response
		status = http.StatusOK
	)
	for v, err := range rd.All() {
		if err == nil {
			if err := h.sink.Accept(r.Context(), v); err != nil {
				log.Error("sink rejected document", "line", rd.Lines(), "error", err)
				status = http.StatusInternalServerError
				resp.Error = err.Error()
				break
			}
			resp.Documents++
			continue
		}
		switch {
		case ldjson.IsDecodeError(err):
			resp.Errors++
		case ldjson.IsFatal(err):
			h.limitErrors.Inc()
			status = http.StatusRequestEntityTooLarge
			resp.Error = err.Error()
		default:
			log.Warn("failed to read request body", "error", err)
			status = http.StatusBadRequest
			resp.Error = err.Error()
		}
	}
	resp.Bytes = rd.BytesRead()

	h.documents.Add(int(resp.Documents))
	h.decodeErrors.Add(int(resp.Errors))
	log.Info("ingested", "documents", resp.Documents, "errors", resp.Errors, "bytes", resp.Bytes, "status", status)

	h.reply(w, status, resp)
}

// requestOptions applies the query parameter limits on top of the server's.
func (h *Handler) requestOptions(q url.Values) (ldjson.Options, error) {
	m := make(map[string]any)
	for _, key := range []string{"maxBytes", "maxDocLength"} {
		if q.Has(key) {
			m[key] = json.Number(q.Get(key))
		}
	}
	req, err := ldjson.ParseOptions(m)
	if err != nil {
		return ldjson.Options{}, err
	}

	o := h.opts
	o.MaxBytes = tighter(o.MaxBytes, req.MaxBytes)
	o.MaxDocLength = int(tighter(int64(o.MaxDocLength), int64(req.MaxDocLength)))
	return o, nil
}

// tighter returns the smaller of two limits where 0 means unbounded.
func tighter(a, b int64) int64 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	default:
		return min(a, b)
	}
}

func (h *Handler) reply(w http.ResponseWriter, status int, resp Response) {
	out, err := gojson.Marshal(&resp)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Warn("unable to jsonify response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(out, '\n')); err != nil {
		h.log.Warn("unable to write response", "error", err)
	}
}

// WriteMetrics writes the handler's metrics in Prometheus text format.
func (h *Handler) WriteMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	h.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if _, err := w.Write([]byte("ok\n")); err != nil {
		h.log.Warn("unable to write response", "error", err)
	}
}

// Routes mounts the handler on a router:
//
//	POST /ingest   decode the body
//	GET  /metrics  Prometheus metrics
//	GET  /healthz  liveness
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle("/ingest", h)
	r.Get("/metrics", h.WriteMetrics)
	r.Get("/healthz", h.Healthz)

	return r
}
