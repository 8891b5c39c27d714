package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/swfilms/swfilms-go/internal/model"
	"github.com/swfilms/swfilms-go/internal/service"
)

// MovieHandler handles HTTP requests for movie operations.
type MovieHandler struct {
	service *service.MovieService
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(svc *service.MovieService) *MovieHandler {
	return &MovieHandler{service: svc}
}

// HandleList handles GET /movies requests.
func (h *MovieHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.FindAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, movies)
}

// HandleGet handles GET /movies/{id} requests.
func (h *MovieHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	movie, err := h.service.FindOne(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// HandleCreateFromAPI handles POST /movies requests.
func (h *MovieHandler) HandleCreateFromAPI(w http.ResponseWriter, r *http.Request) {
	var req model.CreateMovieFromAPIRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	movie, err := h.service.CreateFromAPI(r.Context(), *req.EpisodeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, movie)
}

// HandleCreate handles POST /movies/new requests.
func (h *MovieHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreateMovieRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	movie, err := h.service.CreateManual(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, movie)
}

// HandleUpdate handles PUT /movies/{id} requests. Only fields present in
// the body are changed.
func (h *MovieHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req model.UpdateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	movie, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// HandleDelete handles DELETE /movies/{id} requests and returns the removed movie.
func (h *MovieHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(w, r)
	if !ok {
		return
	}

	movie, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// HandleSync handles POST /movies/sync requests.
func (h *MovieHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.SyncFromAPI(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
