package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "github.com/QTest-hq/codescope/internal/errors"
	"github.com/QTest-hq/codescope/internal/lang"
	"github.com/QTest-hq/codescope/internal/swagger"
)

// SwaggerRequest is the request body for parse-swagger
type SwaggerRequest struct {
	SwaggerContent string `json:"swagger_content"`
	Format         string `json:"format"`
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, apperrors.InternalError, "report storage is not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "reportID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, apperrors.InputError, "invalid report ID")
		return
	}

	report, err := s.store.GetReport(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if report == nil {
		respondError(w, http.StatusNotFound, apperrors.InputError, "report not found")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) parseSwagger(w http.ResponseWriter, r *http.Request) {
	var req SwaggerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	format, err := swagger.ParseFormat(req.Format)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	doc, err := swagger.Normalize(req.SwaggerContent, format)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) supportedLanguages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"languages": lang.Supported()})
}
