package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/tabroom/docs"
	"github.com/Dosada05/tabroom/handlers"
	"github.com/Dosada05/tabroom/middleware"
	"github.com/Dosada05/tabroom/models"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Tabulation *handlers.TabulationHandler
	Roster     *handlers.RosterHandler
	WebSocket  *handlers.WebSocketHandler
}

type Options struct {
	AllowedOrigins []string
	Auth           *middleware.Authenticator
	Logger         *slog.Logger
}

// SetupRoutes mounts the API on router. Reads are public; every mutation
// needs a tab director or admin token.
func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	staff := func(r chi.Router) {
		r.Use(opts.Auth.Authenticate)
		r.Use(middleware.Authorize(models.RoleTabDirector, models.RoleAdmin))
	}

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Get("/teams", h.Roster.ListTeams)
		r.Get("/judges", h.Roster.ListJudges)
		r.Get("/conflicts", h.Roster.ListConflicts)
		r.Get("/pairings", h.Tabulation.ListPairings)
		r.Get("/standings", h.Tabulation.GetStandings)
		r.Get("/settings", h.Tabulation.GetSettings)

		r.Group(func(r chi.Router) {
			staff(r)

			r.Post("/teams", h.Roster.CreateTeam)
			r.Patch("/teams/{teamID}", h.Roster.SetTeamActive)
			r.Post("/judges", h.Roster.CreateJudge)
			r.Put("/judges/{judgeID}/availability", h.Roster.UpdateJudgeAvailability)
			r.Post("/conflicts", h.Roster.CreateConflict)
			r.Delete("/conflicts/{conflictID}", h.Roster.DeleteConflict)

			r.Put("/settings", h.Tabulation.UpdateSettings)
			r.Post("/rounds/{round}/draw", h.Tabulation.GenerateDraw)
			r.Post("/rounds/{round}/allocations", h.Tabulation.ProposeAllocation)
			r.Post("/rounds/{round}/allocations/{proposalID}/commit", h.Tabulation.CommitAllocation)
			r.Post("/pairings/{stage}/{uid}/result", h.Tabulation.RecordResult)
			r.Post("/bracket", h.Tabulation.BuildBracket)
			r.Post("/standings/publish", h.Tabulation.PublishStandings)
		})
	})
}
