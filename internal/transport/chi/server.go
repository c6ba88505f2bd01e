package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/request"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/result"
	healthuc "github.com/rooibos-labs/corpsearch/internal/usecase/health"
	searchuc "github.com/rooibos-labs/corpsearch/internal/usecase/search"
)

// Error kinds surfaced in the error field of a failure response.
const (
	ErrorKindBadRequest          = "BadRequest"
	ErrorKindInvalidFilterSyntax = "InvalidFilterSyntax"
	ErrorKindLocationNotFound    = "LocationNotFound"
	ErrorKindCompanyNotFound     = "CompanyNotFound"
	ErrorKindSearchFailed        = "Search failed"
	ErrorKindInternalError       = "InternalError"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search engine over HTTP.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	limits        request.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	limits request.Limits,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search: search,
		health: health,
		limits: limits,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidFilterSyntax, http.StatusBadRequest, ErrorKindInvalidFilterSyntax),
		sentinelHandler(domain.ErrLocationNotFound, http.StatusNotFound, ErrorKindLocationNotFound),
		sentinelHandler(domain.ErrCompanyNotFound, http.StatusNotFound, ErrorKindCompanyNotFound),
		sentinelHandler(domain.ErrDataSource, http.StatusInternalServerError, ErrorKindSearchFailed),
	}
	return s
}

// Routes mounts the API onto a chi router.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/api/corpsearch", s.SearchCompanies)
	r.Get("/api/corpsearch/{id}/financials", s.FinancialHistory)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// searchResponse is the success envelope of the search endpoint.
type searchResponse struct {
	Success  bool          `json:"success"`
	Data     []result.Item `json:"data"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Pages    int           `json:"pages"`
	Query    request.Spec  `json:"query"`
}

// errorResponse is the failure envelope. Clients branch on success without
// needing to distinguish transport status codes.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SearchCompanies handles GET /api/corpsearch.
func (s *Server) SearchCompanies(w http.ResponseWriter, r *http.Request) {
	raw, err := rawFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorKindBadRequest, err.Error())
		return
	}

	spec, err := request.Parse(raw, s.limits)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	page, err := s.search.Search(r.Context(), spec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := page.Items
	if items == nil {
		items = []result.Item{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Success:  true,
		Data:     items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Pages:    page.PageCount,
		Query:    page.Echo,
	})
}

// FinancialHistory handles GET /api/corpsearch/{id}/financials.
func (s *Server) FinancialHistory(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, ErrorKindBadRequest, "company id is required")
		return
	}

	records, err := s.search.FinancialHistory(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.FinancialRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    records,
		"total":   len(records),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// rawFromQuery maps URL query parameters onto the loosely-typed request.
// The nested filter object travels as a URL-encoded JSON string and stays
// undecoded here; the parser owns its syntax.
func rawFromQuery(r *http.Request) (request.Raw, error) {
	q := r.URL.Query()

	raw := request.Raw{
		ID:          strings.TrimSpace(q.Get("id")),
		Query:       q.Get("query"),
		UserID:      q.Get("user_id"),
		FiltersJSON: q.Get("filters"),
	}

	if cats := q.Get("query_categories"); cats != "" {
		raw.QueryCategories = strings.Split(cats, ",")
	}

	var err error
	if raw.Latitude, err = floatParam(q.Get("latitude"), "latitude"); err != nil {
		return request.Raw{}, err
	}
	if raw.Longitude, err = floatParam(q.Get("longitude"), "longitude"); err != nil {
		return request.Raw{}, err
	}
	if raw.UserLatitude, err = floatParam(q.Get("user_latitude"), "user_latitude"); err != nil {
		return request.Raw{}, err
	}
	if raw.UserLongitude, err = floatParam(q.Get("user_longitude"), "user_longitude"); err != nil {
		return request.Raw{}, err
	}
	if raw.Page, err = intParam(q.Get("page"), "page"); err != nil {
		return request.Raw{}, err
	}
	if raw.PageSize, err = intParam(q.Get("page_size"), "page_size"); err != nil {
		return request.Raw{}, err
	}

	return raw, nil
}

func floatParam(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New(name + " must be a number")
	}
	return &v, nil
}

func intParam(s, name string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Error:   kind,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidFilterSyntax,
		domain.ErrLocationNotFound,
		domain.ErrCompanyNotFound,
		domain.ErrDataSource,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, kind string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, kind, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorKindInternalError, "internal error")
}
