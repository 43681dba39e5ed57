package www

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handlers) apiListOccupancy(w http.ResponseWriter, r *http.Request) {
	recs, err := h.engine.Occupancy().List()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, recs)
}

func (h *Handlers) apiGetOccupancy(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")
	rec, err := h.engine.Occupancy().Status(location)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, rec)
}

// apiClearOccupancy records a bin removed outside mission flow, e.g.
// taken from the drop-off station by hand.
func (h *Handlers) apiClearOccupancy(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")
	var body struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	if body.Reason == "" {
		body.Reason = "operator"
	}

	if err := h.engine.Occupancy().Clear(location, body.Reason); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]string{"status": "cleared"})
}
