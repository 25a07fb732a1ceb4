package api

import (
	"log/slog"
	"net/http"
	"time"

	"voice_motto/internal/api/handler"
	"voice_motto/internal/api/middleware"
	"voice_motto/internal/app/service"
	"voice_motto/internal/common"
	"voice_motto/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/cors"
)

type RouterOptions struct {
	MinAppVersion  string
	MaxUploadBytes int64
	AccessLog      bool
}

func NewRouter(
	logger *slog.Logger,
	opts RouterOptions,
	tokens *security.TokenService,
	authService *service.AuthService,
	profileService *service.ProfileService,
	submissionService *service.SubmissionService,
	statusService *service.StatusService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if opts.AccessLog {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RequireAppVersion(opts.MinAppVersion))

	// Puts verified claims in the context; Authenticator enforces them per route.
	r.Use(jwtauth.Verifier(tokens.JWTAuth()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(profileService)
	transcriptionHandler := handler.NewTranscriptionHandler(submissionService, statusService, opts.MaxUploadBytes, logger)

	mount := func(api chi.Router) {
		api.Get("/", index)
		authHandler.RegisterRoutes(api)
		userHandler.RegisterRoutes(api)
		transcriptionHandler.RegisterRoutes(api)
	}

	// Existing clients call the bare paths.
	r.Group(mount)
	r.Route("/api/v1", mount)

	return r
}

func index(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string]int{"status": http.StatusOK})
}
