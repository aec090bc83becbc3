package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reelstack/moviecatalog/internal/repository"
	"github.com/reelstack/moviecatalog/internal/service"
	"github.com/reelstack/moviecatalog/pkg/httputil"
	"github.com/reelstack/moviecatalog/pkg/pagination"
	"github.com/reelstack/moviecatalog/pkg/validator"
)

// MovieHandler handles HTTP requests for movie endpoints.
type MovieHandler struct {
	service *service.MovieService
	logger  *slog.Logger
}

// NewMovieHandler creates a new movie HTTP handler.
func NewMovieHandler(svc *service.MovieService, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateMovieRequest is the JSON request body for creating a movie.
type CreateMovieRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Genre       string `json:"genre" validate:"max=100"`
	ReleaseYear *int   `json:"release_year" validate:"omitempty,gte=1888,lte=2100"`
}

// UpdateMovieRequest is the JSON request body for updating a movie.
type UpdateMovieRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Genre       *string `json:"genre" validate:"omitempty,max=100"`
	ReleaseYear *int    `json:"release_year" validate:"omitempty,gte=1888,lte=2100"`
}

// --- Handlers ---

// ListMovies handles GET /api/v1/movies
func (h *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.MovieFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	if v := r.URL.Query().Get("genre"); v != "" {
		filter.Genre = &v
	}
	if v := r.URL.Query().Get("release_year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "release_year must be a valid integer"},
			})
			return
		}
		filter.ReleaseYear = &year
	}

	movies, total, err := h.service.ListMovies(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(movies, total, params))
}

// GetMovie handles GET /api/v1/movies/{id}
func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	movie, err := h.service.GetMovie(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: movie})
}

// CreateMovie handles POST /api/v1/movies
func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateMovieInput{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		ReleaseYear: req.ReleaseYear,
	}

	movie, err := h.service.CreateMovie(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: movie})
}

// UpdateMovie handles PUT /api/v1/movies/{id}
func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateMovieInput{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		ReleaseYear: req.ReleaseYear,
	}

	movie, err := h.service.UpdateMovie(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: movie})
}

// DeleteMovie handles DELETE /api/v1/movies/{id}
func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteMovie(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id.String(), "status": "deleted"}})
}
