package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/smash-arena/handlers"
	"github.com/Dosada05/smash-arena/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Arena     *handlers.ArenaHandler
	Team      *handlers.TeamHandler
	Match     *handlers.MatchHandler
	Standings *handlers.StandingsHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, auth *middleware.Authenticator, h Handlers, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handlers.ScorerPINHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// The websocket stays outside the timeout middleware.
	router.Get("/ws/arenas/{arenaID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(auth.Authenticate).Get("/me", h.Auth.Me)
		})

		r.Route("/arenas", func(r chi.Router) {
			r.Get("/", h.Arena.ListArenas)
			r.Get("/code/{code}", h.Arena.GetArenaByCode)
			r.With(auth.Authenticate).Post("/", h.Arena.CreateArena)

			r.Route("/{arenaID}", func(r chi.Router) {
				r.Get("/", h.Arena.GetArena)
				r.Get("/pool", h.Arena.ListPool)
				r.Get("/teams", h.Team.ListTeams)
				r.Get("/matches", h.Match.ListMatches)
				r.Get("/matches/{matchID}", h.Match.GetMatch)
				r.Get("/matches/{matchID}/events", h.Match.ListScoreEvents)
				r.Get("/standings", h.Standings.GetStandings)
				r.Get("/standings/snapshot", h.Standings.GetSnapshot)
				r.Get("/exports/{export}", h.Standings.DownloadExport)

				r.Group(func(r chi.Router) {
					r.Use(auth.Authenticate)

					r.Delete("/", h.Arena.DeleteArena)
					r.Post("/join", h.Arena.JoinArena)
					r.Get("/join-requests", h.Arena.ListJoinRequests)
					r.Put("/join-requests/{requestID}", h.Arena.ResolveJoinRequest)
					r.Post("/lock", h.Arena.LockArena)
					r.Put("/scorer-pin", h.Arena.UpdateScorerPIN)
					r.Put("/ranking-criteria", h.Arena.UpdateRankingCriteria)
					r.Post("/ranking-criteria/move", h.Arena.MoveRankingCriterion)

					r.Post("/pool", h.Arena.AddPoolPlayer)
					r.Post("/pool/import", h.Arena.ImportPool)
					r.Delete("/pool/{playerID}", h.Arena.RemovePoolPlayer)

					r.Post("/teams", h.Team.CreateTeam)
					r.Delete("/teams/{teamID}", h.Team.DeleteTeam)

					r.Post("/matches", h.Match.ScheduleMatch)
					r.Post("/matches/round-robin", h.Match.GenerateRoundRobin)
					r.Delete("/matches/{matchID}", h.Match.DeleteMatch)
					r.Post("/matches/{matchID}/points", h.Match.ApplyPoint)
					r.Put("/matches/{matchID}/score", h.Match.SubmitScore)
					r.Post("/matches/{matchID}/undo", h.Match.UndoLastPoint)

					r.Post("/exports/{export}", h.Standings.PublishExport)
				})
			})
		})
	})
}
