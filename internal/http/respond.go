package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/douglascorrea/todo-api/internal/logging"
	"github.com/douglascorrea/todo-api/internal/service"
	"github.com/douglascorrea/todo-api/internal/store"
)

// dataEnvelope wraps single resources.
type dataEnvelope struct {
	Data any `json:"data"`
}

// pageEnvelope wraps collections.
type pageEnvelope struct {
	Skip    int `json:"skip"`
	Take    int `json:"take"`
	Total   int `json:"total"`
	Results any `json:"results"`
}

type errorBody struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

func respondData(w http.ResponseWriter, status int, v any) {
	respondJSON(w, status, dataEnvelope{Data: v})
}

func respondPage(w http.ResponseWriter, page store.Page, total int, results any) {
	respondJSON(w, http.StatusOK, pageEnvelope{
		Skip:    page.Skip,
		Take:    page.Take,
		Total:   total,
		Results: results,
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps domain errors to HTTP statuses: validation failures to
// 400 with field details, missing or foreign resources to 404, conflicts to
// 409. Everything else is a logged 500 with a generic body.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, errorBody{
			Status:  "error",
			Message: "validation failed",
			Errors:  verr.Fields,
		})
	case errors.Is(err, store.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Status: "error", Message: "resource not found"})
	case errors.Is(err, store.ErrConflict):
		respondJSON(w, http.StatusConflict, errorBody{Status: "error", Message: "resource already exists"})
	default:
		logger := logging.WithComponent("http")
		logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		respondJSON(w, http.StatusInternalServerError, errorBody{Status: "error", Message: "internal server error"})
	}
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Status: "error", Message: message})
}

// decodeBody strictly decodes a JSON request body.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
