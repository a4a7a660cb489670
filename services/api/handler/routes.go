package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ramiqadoumi/go-drive-quest/internal/cache"
	"github.com/ramiqadoumi/go-drive-quest/services/api/middleware"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// RankingPath changes with every points update; the worker invalidates it.
const RankingPath = "/api/v1/progress/ranking"

// Routes builds the HTTP router. Public catalog reads go through the
// response cache when store is non-nil; everything under the auth group
// needs a valid access token.
func (h *REST) Routes(store cache.Store, cacheTTL time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(h.Logger))
	r.Use(middleware.MaxBodySize(MaxBodyBytes))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	cached := func(r chi.Router) {
		if store != nil {
			r.Use(middleware.Cache(store, cacheTTL, h.Logger))
		}
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/register", h.Register)
		r.Post("/users/login", h.Login)

		r.Group(func(r chi.Router) {
			cached(r)
			r.Get("/tasks", h.ListTasks)
			r.Get("/tasks/{id}", h.GetTask)
			r.Get("/levels", h.ListLevels)
			r.Get("/levels/{id}", h.GetLevel)
			r.Get("/missions", h.ListMissions)
			r.Get("/missions/level/{levelId}", h.LevelMissions)
			r.Get("/missions/{levelId}/{missionId}", h.GetMission)
			r.Get("/progress/ranking", h.Ranking)
			r.Get("/features", h.ListFeatures)
			r.Get("/features/featured", h.FeaturedFeatures)
			r.Get("/features/category/{category}", h.FeaturesByCategory)
			r.Get("/features/{id}", h.GetFeature)
			r.Get("/game/levels", h.GameLevels)
			r.Get("/glossary", h.Glossary)
			r.Get("/glossary/{id}", h.GlossaryTerm)
			r.Get("/warnings", h.Warnings)
			r.Get("/warnings/{id}", h.Warning)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.Tokens))
			r.Get("/users/profile", h.Profile)
			r.Post("/users/streak", h.CheckIn)
			r.Get("/tasks/today", h.TodayBoard)
			r.Post("/tasks/{id}/complete", h.CompleteTask)
			r.Get("/progress", h.Progress)
			r.Post("/progress/missions/complete", h.CompleteMission)
			r.Get("/progress/summary", h.Summary)
			r.Get("/progress/recent", h.Recent)
			r.Get("/rewards", h.ListRewards)
			r.Post("/rewards/{id}/claim", h.ClaimReward)
			r.Post("/game/sessions", h.StartGame)
			r.Get("/game/sessions/{id}", h.GetGame)
			r.Post("/game/sessions/{id}/taps", h.Tap)
		})
	})
	return r
}
