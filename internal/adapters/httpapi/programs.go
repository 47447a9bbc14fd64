package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/app"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/httpjson"
)

// Fenêtre par défaut de GET /programs sans bornes.
const defaultProgramWindow = 7 * 24 * time.Hour

type ProgramsHandler struct {
	programs *app.ProgramService
}

func NewProgramsHandler(programs *app.ProgramService) *ProgramsHandler {
	return &ProgramsHandler{programs: programs}
}

func (h *ProgramsHandler) Routes(r chi.Router) {
	r.Route("/programs", func(r chi.Router) {
		r.Post("/", h.reserve)
		r.Get("/", h.between)
		r.Post("/expire", h.expire)
		r.Get("/{oid}", h.get)
		r.Put("/{oid}/status", h.setStatus)
		r.Post("/{oid}/listened", h.listened)
		r.Delete("/{oid}", h.delete)
	})
}

func (h *ProgramsHandler) reserve(w http.ResponseWriter, r *http.Request) {
	var in app.ReserveInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.programs.Reserve(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, p)
}

// between: ?from=&to= en RFC3339; par défaut [maintenant, maintenant+7j].
func (h *ProgramsHandler) between(w http.ResponseWriter, r *http.Request) {
	from := time.Now()
	to := from.Add(defaultProgramWindow)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpjson.WriteCodedError(w, http.StatusBadRequest, "invalid_params", "invalid from", nil)
			return
		}
		from = t
		if r.URL.Query().Get("to") == "" {
			to = from.Add(defaultProgramWindow)
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpjson.WriteCodedError(w, http.StatusBadRequest, "invalid_params", "invalid to", nil)
			return
		}
		to = t
	}
	list, err := h.programs.Between(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

func (h *ProgramsHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.programs.Get(r.Context(), chi.URLParam(r, "oid"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

type statusRequest struct {
	ListenStatus string `json:"listenStatus"`
}

func (h *ProgramsHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.programs.SetListenStatus(r.Context(), chi.URLParam(r, "oid"), req.ListenStatus)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *ProgramsHandler) listened(w http.ResponseWriter, r *http.Request) {
	p, err := h.programs.MarkListened(r.Context(), chi.URLParam(r, "oid"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *ProgramsHandler) expire(w http.ResponseWriter, r *http.Request) {
	n, err := h.programs.ExpireOverdue(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int{"expired": n})
}

func (h *ProgramsHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.programs.Delete(r.Context(), chi.URLParam(r, "oid")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
