package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"haulcore/points"
	"haulcore/store"
)

func (h *Handlers) apiListRobots(w http.ResponseWriter, r *http.Request) {
	robots, err := h.engine.DB().ListRobots()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, robots)
}

func (h *Handlers) apiCreateRobot(w http.ResponseWriter, r *http.Request) {
	var robot store.Robot
	if err := json.NewDecoder(r.Body).Decode(&robot); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if robot.SN == "" || robot.BaseURL == "" {
		h.jsonError(w, "sn and base_url are required", http.StatusBadRequest)
		return
	}
	robot.Enabled = true
	if err := h.engine.DB().CreateRobot(&robot); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.Pool().Register(robot.SN, robot.BaseURL)
	h.jsonCreated(w, robot)
}

func (h *Handlers) apiSetRobotEnabled(w http.ResponseWriter, r *http.Request) {
	sn := chi.URLParam(r, "sn")
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.engine.DB().SetRobotEnabled(sn, body.Enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.engine.RefreshPool(); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"sn": sn, "enabled": body.Enabled})
}

func (h *Handlers) apiListPoints(w http.ResponseWriter, r *http.Request) {
	floor := r.URL.Query().Get("floor")
	if floor != "" {
		h.jsonOK(w, h.engine.Registry().FloorPoints(floor))
		return
	}
	var all []points.Point
	for _, f := range h.engine.Registry().Floors() {
		all = append(all, h.engine.Registry().FloorPoints(f)...)
	}
	h.jsonOK(w, all)
}

// apiSyncPoints replaces one floor's point map, persisting it and
// swapping the in-memory registry. Docking invariant violations are
// reported but do not reject the sync.
func (h *Handlers) apiSyncPoints(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FloorID string         `json:"floor_id"`
		Points  []points.Point `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.FloorID == "" {
		h.jsonError(w, "floor_id is required", http.StatusBadRequest)
		return
	}
	for i := range body.Points {
		body.Points[i].FloorID = body.FloorID
	}

	if err := h.engine.DB().SyncPoints(body.FloorID, body.Points); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.engine.Registry().ReplaceFloor(body.FloorID, body.Points)

	var warnings []string
	for _, err := range h.engine.Registry().Validate() {
		warnings = append(warnings, err.Error())
	}
	h.jsonOK(w, map[string]any{
		"synced":   len(body.Points),
		"warnings": warnings,
	})
}

func (h *Handlers) apiHealth(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, map[string]any{
		"status":    "ok",
		"messaging": h.engine.MsgClient().IsConnected(),
		"robots":    h.engine.Pool().SNs(),
	})
}
