package routes

import (
	"net/http"

	"github.com/Dosada05/court-flow/handlers"
	"github.com/Dosada05/court-flow/middleware"
	"github.com/Dosada05/court-flow/models"
	"github.com/Dosada05/court-flow/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Dependencies struct {
	AuthHandler       *handlers.AuthHandler
	BoardHandler      *handlers.BoardHandler
	AutomationHandler *handlers.AutomationHandler
	WebSocketHandler  *handlers.WebSocketHandler
	Gate              services.PrivilegeGate
	JWTSecret         string
	AllowedOrigins    []string
}

func SetupRoutes(router chi.Router, deps Dependencies) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Публичные маршруты: просмотр доски и регистрация игроков
	router.Post("/auth/admin/login", deps.AuthHandler.Login)
	router.Get("/board", deps.BoardHandler.GetBoard)
	router.Get("/ws/board", deps.WebSocketHandler.ServeWs)
	router.Post("/queue", deps.BoardHandler.CheckIn)

	// Только в режиме администратора
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.JWTSecret))
		r.Use(middleware.Authorize(models.RoleAdmin))
		r.Use(middleware.RequireElevated(deps.Gate))

		r.Post("/auth/admin/logout", deps.AuthHandler.Logout)

		r.Post("/queue/{playerID}/ready", deps.BoardHandler.MoveToReady)
		r.Delete("/queue/{playerID}", deps.BoardHandler.CancelFromQueue)
		r.Post("/ready/{playerID}/queue", deps.BoardHandler.MoveBackToQueue)
		r.Delete("/ready/{playerID}", deps.BoardHandler.CancelFromReady)

		r.Route("/courts", func(r chi.Router) {
			r.Post("/", deps.BoardHandler.AddCourt)
			r.Delete("/last", deps.BoardHandler.RemoveLastCourt)
			r.Delete("/{courtID}", deps.BoardHandler.RemoveCourt)
			r.Post("/{courtID}/assign", deps.BoardHandler.AssignReadyToCourt)
			r.Post("/{courtID}/end", deps.BoardHandler.EndMatch)
		})

		r.Post("/schedule/clear", deps.BoardHandler.ClearTodaySchedule)

		r.Get("/automation", deps.AutomationHandler.GetFlags)
		r.Put("/automation", deps.AutomationHandler.SetFlags)
	})
}
