// Package web exposes the pipeline and the stored runs over an HTTP
// JSON API.
package web

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/mux"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/airtime"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/epc"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/frame"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/metrics"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/pipeline"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/storage"
)

type Server struct {
	appName string
	logger  log.Logger
	store   storage.Store
	config  Config

	// Now supplies run timestamps; defaults to time.Now.
	Now func() time.Time
}

type Config struct {
	// Params is the default modulation, used when a request leaves the
	// parameters unset.
	Params airtime.Params

	// MinMatch is the default clustering threshold.
	MinMatch int
}

func NewServer(appName string, logger log.Logger, store storage.Store, cfg Config) *Server {
	return &Server{
		appName: appName,
		logger:  log.With(logger, "component", "web"),
		store:   store,
		config:  cfg,
	}
}

// RunRequest is the POST /api/runs body.
type RunRequest struct {
	Tags         []string `json:"tags"`
	SpreadFactor int      `json:"spread_factor,omitempty"`
	BandwidthKHz int      `json:"bandwidth_khz,omitempty"`
	CodingRate   int      `json:"coding_rate,omitempty"`
	MinMatch     int      `json:"min_match,omitempty"`
}

// RunResponse is the POST /api/runs reply.
type RunResponse struct {
	ID     uint64           `json:"id"`
	Time   time.Time        `json:"time"`
	Report *pipeline.Report `json:"report"`
}

// CreateRun runs the pipeline on the posted tags and persists the run.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	span := s.startSpan("/api/runs", r)
	defer span.Finish()

	w.Header().Set("Content-Type", "application/json")

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.clientError(w, "can't decode run request", err)
		return
	}

	params := s.config.Params
	if req.SpreadFactor != 0 {
		params.SpreadFactor = req.SpreadFactor
	}
	if req.BandwidthKHz != 0 {
		params.BandwidthKHz = req.BandwidthKHz
	}
	if req.CodingRate != 0 {
		params.CodingRate = req.CodingRate
	}
	minMatch := s.config.MinMatch
	if req.MinMatch > 0 {
		minMatch = req.MinMatch
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}
	t := now()

	proc, err := pipeline.New(s.logger, params, pipeline.Config{
		MinMatch: minMatch,
		Events:   pipeline.MultiEvents(pipeline.LogEvents{Logger: s.logger}, pipeline.MetricsEvents{}),
	})
	if err != nil {
		s.clientError(w, "can't build pipeline", err)
		return
	}

	rep, err := proc.Process(req.Tags)
	if err != nil {
		if errors.Is(err, epc.ErrEmptyInput) {
			s.clientError(w, "no valid tags in request", err)
			return
		}
		level.Error(s.logger).Log("msg", "run failed", "error", err)
		metrics.ErrorCounter.Inc()
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}

	metrics.TagsValidatedCounter.Add(float64(rep.ValidTags))
	metrics.TagsRejectedCounter.Add(float64(len(rep.RejectedTags)))
	metrics.RunsProcessedCounter.Inc()

	run := storage.RunFromReport(t, params, rep)
	if err := s.store.StoreRun(run); err != nil {
		level.Error(s.logger).Log("msg", "can't store run", "error", err)
		metrics.ErrorCounter.Inc()
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}

	s.writeJSON(w, RunResponse{ID: run.ID, Time: run.Time, Report: rep})
}

// RunsQuery lists stored runs, newest first.
func (s *Server) RunsQuery(w http.ResponseWriter, r *http.Request) {
	span := s.startSpan("/api/runs", r)
	defer span.Finish()

	w.Header().Set("Content-Type", "application/json")

	count := 20
	if c := r.URL.Query().Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			s.clientError(w, "bad count", err)
			return
		}
		count = n
	}

	runs, err := s.store.Runs(count)
	if err != nil {
		level.Error(s.logger).Log("msg", "can't list runs", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	s.writeJSON(w, runs)
}

// RunQuery returns one full run by id.
func (s *Server) RunQuery(w http.ResponseWriter, r *http.Request) {
	span := s.startSpan("/api/runs/{id}", r)
	defer span.Finish()

	w.Header().Set("Content-Type", "application/json")

	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, run)
}

// DeleteRun removes one stored run by id.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	span := s.startSpan("/api/runs/{id}", r)
	defer span.Finish()

	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		s.clientError(w, "bad run id", err)
		return
	}

	if err := s.store.DeleteRun(id); errors.Is(err, storage.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(err.Error()))
		return
	} else if err != nil {
		level.Error(s.logger).Log("msg", "can't delete run", "id", id, "error", err)
		metrics.ErrorCounter.Inc()
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FrameView is one stored frame, decoded for inspection.
type FrameView struct {
	Index       int      `json:"index"`
	PayloadHex  string   `json:"payload_hex"`
	Seq         uint8    `json:"seq"`
	MemberCount uint8    `json:"member_count"`
	Timestamp   uint16   `json:"timestamp"`
	Members     []string `json:"members"`
}

// FramesQuery returns the decoded frames of one run.
func (s *Server) FramesQuery(w http.ResponseWriter, r *http.Request) {
	span := s.startSpan("/api/runs/{id}/frames", r)
	defer span.Finish()

	w.Header().Set("Content-Type", "application/json")

	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	views := make([]FrameView, 0, len(run.Frames))
	for i, payload := range run.Frames {
		d, err := frame.Decode(payload)
		if err != nil {
			level.Error(s.logger).Log("msg", "can't decode stored frame", "run", run.ID, "index", i, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}
		members := make([]string, len(d.Members))
		for j, m := range d.Members {
			members[j] = string(m)
		}
		views = append(views, FrameView{
			Index:       i,
			PayloadHex:  hex.EncodeToString(payload),
			Seq:         d.Seq,
			MemberCount: d.MemberCount,
			Timestamp:   d.Timestamp,
			Members:     members,
		})
	}
	s.writeJSON(w, views)
}

// AirtimeQuery computes on-air figures for ad hoc parameters.
func (s *Server) AirtimeQuery(w http.ResponseWriter, r *http.Request) {
	span := s.startSpan("/api/airtime", r)
	defer span.Finish()

	w.Header().Set("Content-Type", "application/json")

	params, err := s.queryParams(r)
	if err != nil {
		s.clientError(w, "bad modulation parameters", err)
		return
	}
	payload := params.MaxPayload()
	if pb := r.URL.Query().Get("payload"); pb != "" {
		payload, err = strconv.Atoi(pb)
		if err != nil {
			s.clientError(w, "bad payload size", err)
			return
		}
	}

	res, err := airtime.Compute(params, payload)
	if err != nil {
		s.clientError(w, "can't compute airtime", err)
		return
	}
	s.writeJSON(w, res)
}

// PlanQuery computes a transmission plan for ad hoc parameters.
func (s *Server) PlanQuery(w http.ResponseWriter, r *http.Request) {
	span := s.startSpan("/api/plan", r)
	defer span.Finish()

	w.Header().Set("Content-Type", "application/json")

	params, err := s.queryParams(r)
	if err != nil {
		s.clientError(w, "bad modulation parameters", err)
		return
	}

	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil {
		s.clientError(w, "bad member count", err)
		return
	}

	plan, err := airtime.PlanBatch(count, params)
	if err != nil {
		s.clientError(w, "can't compute plan", err)
		return
	}
	s.writeJSON(w, plan)
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*storage.Run, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		s.clientError(w, "bad run id", err)
		return nil, false
	}

	run, err := s.store.GetRun(id)
	if errors.Is(err, storage.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(err.Error()))
		return nil, false
	}
	if err != nil {
		level.Error(s.logger).Log("msg", "can't read run", "id", id, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return nil, false
	}
	return run, true
}

func (s *Server) queryParams(r *http.Request) (airtime.Params, error) {
	params := s.config.Params
	q := r.URL.Query()

	if v := q.Get("sf"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, err
		}
		params.SpreadFactor = n
	}
	if v := q.Get("bw"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, err
		}
		params.BandwidthKHz = n
	}
	if v := q.Get("cr"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, err
		}
		params.CodingRate = n
	}
	return params, params.Validate()
}

func (s *Server) clientError(w http.ResponseWriter, msg string, err error) {
	level.Debug(s.logger).Log("msg", msg, "error", err)
	w.WriteHeader(http.StatusBadRequest)
	w.Write([]byte(err.Error()))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		level.Error(s.logger).Log("msg", "can't marshal json", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Write(b)
}

func (s *Server) startSpan(operationName string, r *http.Request) opentracing.Span {
	wireContext, err := opentracing.GlobalTracer().Extract(
		opentracing.HTTPHeaders,
		opentracing.HTTPHeadersCarrier(r.Header))
	if err != nil {
		level.Debug(s.logger).Log("msg", "can't find a span", "error", err)
	}
	return opentracing.StartSpan(operationName, ext.RPCServerOption(wireContext))
}
