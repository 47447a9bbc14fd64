package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/app"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/httpjson"
)

type StationsHandler struct {
	stations *app.StationService
}

func NewStationsHandler(stations *app.StationService) *StationsHandler {
	return &StationsHandler{stations: stations}
}

func (h *StationsHandler) Routes(r chi.Router) {
	r.Route("/stations", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/by-call-sign/{callSign}", h.getByCallSign)
		r.Get("/{oid}", h.get)
		r.Patch("/{oid}", h.rename)
		r.Delete("/{oid}", h.delete)
	})
}

type stationRequest struct {
	CallSign    string `json:"callSign"`
	StationName string `json:"stationName"`
}

func (h *StationsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	st, err := h.stations.Create(r.Context(), req.CallSign, req.StationName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, st)
}

func (h *StationsHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.stations.List(r.Context(), queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

func (h *StationsHandler) get(w http.ResponseWriter, r *http.Request) {
	st, err := h.stations.Get(r.Context(), chi.URLParam(r, "oid"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, st)
}

func (h *StationsHandler) getByCallSign(w http.ResponseWriter, r *http.Request) {
	st, err := h.stations.GetByCallSign(r.Context(), chi.URLParam(r, "callSign"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, st)
}

func (h *StationsHandler) rename(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	st, err := h.stations.Rename(r.Context(), chi.URLParam(r, "oid"), req.StationName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, st)
}

func (h *StationsHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.stations.Delete(r.Context(), chi.URLParam(r, "oid")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
