package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"haulcore/mission"
	"haulcore/points"
	"haulcore/workflow"
)

func (h *Handlers) apiSubmitMission(w http.ResponseWriter, r *http.Request) {
	var req mission.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m, err := h.engine.Missions().Submit(req)
	if err != nil {
		switch {
		case errors.Is(err, mission.ErrRobotBusy), errors.Is(err, mission.ErrDestinationOccupied):
			h.jsonError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, mission.ErrUnknownRobot), errors.Is(err, points.ErrNotFound), errors.Is(err, workflow.ErrTemplate):
			h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	h.jsonCreated(w, m)
}

func (h *Handlers) apiListMissions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	missions, err := h.engine.Missions().List(status, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, missions)
}

func (h *Handlers) apiActiveMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := h.engine.Missions().Active()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, missions)
}

func (h *Handlers) apiGetMission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := h.engine.Missions().Get(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, m)
}

func (h *Handlers) apiMissionHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.engine.DB().ListMissionHistory(id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, entries)
}

func (h *Handlers) apiCancelMission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	if err := h.engine.Missions().Cancel(id, body.Reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.jsonOK(w, map[string]string{"status": "cancelled"})
}

func (h *Handlers) apiClearCompleted(w http.ResponseWriter, r *http.Request) {
	n, err := h.engine.Missions().ClearCompleted()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]int64{"removed": n})
}

func (h *Handlers) apiListTemplates(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Catalog().List())
}
