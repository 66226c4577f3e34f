package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/spboyer/topsis/internal/models"
	"github.com/spboyer/topsis/internal/reporting"
	"github.com/spboyer/topsis/internal/statistics"
	"github.com/spboyer/topsis/internal/topsis"
	"github.com/spboyer/topsis/internal/validation"
)

// Version is set at build time or defaults to dev.
var Version = "dev"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store       ResultStore
	sensitivity statistics.Options
	memo        *reportMemo
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandlers creates a new Handlers with the given store. sensitivity holds
// the defaults for POST /api/sensitivity.
func NewHandlers(store ResultStore, sensitivity statistics.Options, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:       store,
		sensitivity: sensitivity,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleRank ranks the problem in the request body. Query parameters:
// weighting overrides the problem's weighting method, explain=true adds the
// intermediate steps and save=true persists the outcome.
func (h *Handlers) HandleRank(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	p, err := models.ParseProblem(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, KindBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	if wm := q.Get("weighting"); wm != "" {
		method, err := models.ParseWeightingMethod(wm)
		if err != nil {
			writeError(w, http.StatusBadRequest, KindBadRequest, err.Error())
			return
		}
		p.Weighting = method
	}

	outcome, err := models.RankProblem(p, h.now())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	resp := RankResponse{RankingOutcome: outcome}
	if queryBool(q.Get("explain")) {
		if resp.Analysis, err = p.Analyze(); err != nil {
			writeEngineError(w, err)
			return
		}
	}
	if queryBool(q.Get("save")) {
		if err := h.store.Save(outcome); err != nil {
			h.logger.Error("failed to save outcome", "id", outcome.ID, "error", err)
			writeError(w, http.StatusInternalServerError, KindInternal, err.Error())
			return
		}
		resp.Saved = true
		h.logger.Debug("outcome saved", "id", outcome.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleValidate runs schema and ranking checks on the request body. An
// invalid problem is a successful request with valid=false.
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	errs := validation.ValidateProblemBytes(body)
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: len(errs) == 0, Errors: errs})
}

// HandleSensitivity runs a weight sensitivity analysis.
func (h *Handlers) HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req SensitivityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, KindBadRequest, err.Error())
		return
	}
	if len(req.Problem) == 0 {
		writeError(w, http.StatusBadRequest, KindBadRequest, "problem is required")
		return
	}
	p, err := models.ParseProblem(req.Problem)
	if err != nil {
		writeError(w, http.StatusBadRequest, KindBadRequest, err.Error())
		return
	}

	opts := h.sensitivity
	if req.Iterations != 0 {
		opts.Iterations = req.Iterations
	}
	if req.Spread != nil {
		opts.Spread = *req.Spread
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if opts.Iterations < 0 || opts.Iterations > statistics.MaxIterations {
		writeError(w, http.StatusBadRequest, KindBadRequest,
			fmt.Sprintf("iterations must be in [1, %d]", statistics.MaxIterations))
		return
	}
	if opts.Spread < 0 || opts.Spread >= 1 {
		writeError(w, http.StatusBadRequest, KindBadRequest, "spread must be in [0, 1)")
		return
	}

	key, memoized := h.memo.key(p, opts)
	if memoized {
		if report, ok := h.memo.get(key); ok {
			w.Header().Set(CacheHeader, "hit")
			writeJSON(w, http.StatusOK, report)
			return
		}
	}

	report, err := statistics.WeightSensitivity(r.Context(), p, opts)
	if err != nil {
		if r.Context().Err() != nil {
			h.logger.Debug("sensitivity request canceled", "error", err)
			return
		}
		writeEngineError(w, err)
		return
	}
	if memoized {
		h.memo.add(key, report)
		w.Header().Set(CacheHeader, "miss")
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleResults lists saved outcomes, with optional sort/order query params.
func (h *Handlers) HandleResults(w http.ResponseWriter, r *http.Request) {
	sortField := r.URL.Query().Get("sort")
	order := r.URL.Query().Get("order")

	switch sortField {
	case "", "timestamp", "name", "top_score":
	default:
		writeError(w, http.StatusBadRequest, KindBadRequest,
			fmt.Sprintf("unsupported sort field %q: must be timestamp, name or top_score", sortField))
		return
	}

	results, err := h.store.List(sortField, order)
	if err != nil {
		writeError(w, http.StatusInternalServerError, KindInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleResultDetail returns a saved outcome.
func (h *Handlers) HandleResultDetail(w http.ResponseWriter, r *http.Request) {
	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// HandleResultExport renders a saved outcome in the format given by the
// format query parameter (default markdown) with an optional precision.
func (h *Handlers) HandleResultExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := reporting.FormatMarkdown
	if f := q.Get("format"); f != "" {
		var err error
		if format, err = reporting.ParseFormat(f); err != nil {
			writeError(w, http.StatusBadRequest, KindBadRequest, err.Error())
			return
		}
	}
	precision := reporting.DefaultPrecision
	if ps := q.Get("precision"); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil || n < 0 || n > 15 {
			writeError(w, http.StatusBadRequest, KindBadRequest, "precision must be an integer in [0, 15]")
			return
		}
		precision = n
	}

	o, ok := h.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	if err := reporting.Export(w, o, format, precision); err != nil {
		h.logger.Error("export failed", "id", o.ID, "format", format, "error", err)
	}
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*models.RankingOutcome, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, KindBadRequest, "result id is required")
		return nil, false
	}
	o, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, ErrResultNotFound) {
			writeError(w, http.StatusNotFound, KindNotFound, "result not found")
		} else {
			writeError(w, http.StatusInternalServerError, KindInternal, err.Error())
		}
		return nil, false
	}
	return o, true
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("POST /api/rank", h.HandleRank)
	mux.HandleFunc("POST /api/validate", h.HandleValidate)
	mux.HandleFunc("POST /api/sensitivity", h.HandleSensitivity)
	mux.HandleFunc("GET /api/results", h.HandleResults)
	mux.HandleFunc("GET /api/results/{id}", h.HandleResultDetail)
	mux.HandleFunc("GET /api/results/{id}/export", h.HandleResultExport)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, KindBadRequest, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, KindBadRequest, err.Error())
		}
		return nil, false
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, KindBadRequest, "request body is required")
		return nil, false
	}
	return body, true
}

func queryBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func contentType(f reporting.Format) string {
	switch f {
	case reporting.FormatJSON:
		return "application/json"
	case reporting.FormatCSV:
		return "text/csv; charset=utf-8"
	case reporting.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case reporting.FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code, Kind: kind})
}

// writeEngineError reports a problem the ranking rejected as 422.
func writeEngineError(w http.ResponseWriter, err error) {
	kind := KindInvalidInput
	if errors.Is(err, topsis.ErrDegenerateColumn) {
		kind = KindDegenerateColumn
	}
	writeError(w, http.StatusUnprocessableEntity, kind, err.Error())
}
