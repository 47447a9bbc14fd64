package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/app"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/httpjson"
)

type SchedulesHandler struct {
	schedules *app.ScheduleService
	programs  *app.ProgramService
	planner   *app.ProgramPlanner
}

func NewSchedulesHandler(schedules *app.ScheduleService, programs *app.ProgramService, planner *app.ProgramPlanner) *SchedulesHandler {
	return &SchedulesHandler{schedules: schedules, programs: programs, planner: planner}
}

func (h *SchedulesHandler) Routes(r chi.Router) {
	r.Route("/schedules", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{oid}", h.get)
		r.Delete("/{oid}", h.delete)
		if h.programs != nil {
			r.Get("/{oid}/programs", h.programsOf)
		}
		if h.planner != nil {
			r.Post("/{oid}/plan", h.plan)
		}
	})
}

func (h *SchedulesHandler) create(w http.ResponseWriter, r *http.Request) {
	var in app.ScheduleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sc, err := h.schedules.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, sc)
}

func (h *SchedulesHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.schedules.List(r.Context(), r.URL.Query().Get("weekDay"), queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

func (h *SchedulesHandler) get(w http.ResponseWriter, r *http.Request) {
	sc, err := h.schedules.Get(r.Context(), chi.URLParam(r, "oid"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, sc)
}

func (h *SchedulesHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.schedules.Delete(r.Context(), chi.URLParam(r, "oid")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SchedulesHandler) programsOf(w http.ResponseWriter, r *http.Request) {
	oid := chi.URLParam(r, "oid")
	if _, err := h.schedules.Entity(r.Context(), oid); err != nil {
		writeServiceError(w, r, err)
		return
	}
	list, err := h.programs.BySchedule(r.Context(), oid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

func (h *SchedulesHandler) plan(w http.ResponseWriter, r *http.Request) {
	res, err := h.planner.PlanOne(r.Context(), chi.URLParam(r, "oid"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}
