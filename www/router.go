package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"haulcore/engine"
)

type Handlers struct {
	engine *engine.Engine
}

// NewRouter builds the HTTP surface. Reads are open on the factory
// LAN; anything that moves a robot or mutates state requires the API
// key.
func NewRouter(eng *engine.Engine) http.Handler {
	h := &Handlers{engine: eng}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealth)
		r.Get("/missions", h.apiListMissions)
		r.Get("/missions/active", h.apiActiveMissions)
		r.Get("/missions/{id}", h.apiGetMission)
		r.Get("/missions/{id}/history", h.apiMissionHistory)
		r.Get("/templates", h.apiListTemplates)
		r.Get("/points", h.apiListPoints)
		r.Get("/occupancy", h.apiListOccupancy)
		r.Get("/occupancy/{location}", h.apiGetOccupancy)
		r.Get("/robots", h.apiListRobots)

		r.Group(func(r chi.Router) {
			r.Use(h.requireKey)
			r.Post("/missions", h.apiSubmitMission)
			r.Post("/missions/{id}/cancel", h.apiCancelMission)
			r.Delete("/missions/completed", h.apiClearCompleted)
			r.Post("/occupancy/{location}/clear", h.apiClearOccupancy)
			r.Post("/robots", h.apiCreateRobot)
			r.Post("/robots/{sn}/enabled", h.apiSetRobotEnabled)
			r.Post("/points/sync", h.apiSyncPoints)
			r.Put("/config/messaging", h.apiUpdateMessaging)
		})
	})

	return r
}
