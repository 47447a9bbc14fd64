package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/app"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/buildinfo"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/httpjson"
)

const defaultRequestTimeout = 30 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}

// writeServiceError traduit les erreurs des services en statut HTTP.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var coded *app.CodedError
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &coded):
		status := http.StatusBadRequest
		if errors.Is(err, app.ErrNotFound) {
			status = http.StatusNotFound
		}
		httpjson.WriteCodedError(w, status, coded.Code, coded.Error(), nil)
	case errors.As(err, &verr):
		httpjson.WriteCodedError(w, http.StatusBadRequest, "validation_failed", verr.Error(), verr.Result.Errors)
	case errors.Is(err, app.ErrNotFound):
		httpjson.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrLocked):
		httpjson.WriteCodedError(w, http.StatusConflict, "locked", err.Error(), nil)
	case errors.Is(err, app.ErrConflict):
		httpjson.WriteCodedError(w, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func queryLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}
