package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/govhealth/fieldsurvey/internal/access"
	"github.com/govhealth/fieldsurvey/internal/audit"
	"github.com/govhealth/fieldsurvey/internal/auth"
	"github.com/govhealth/fieldsurvey/internal/config"
	"github.com/govhealth/fieldsurvey/internal/domain"
	"github.com/govhealth/fieldsurvey/internal/httpx"
	"github.com/govhealth/fieldsurvey/internal/httpx/middleware"
	"github.com/govhealth/fieldsurvey/internal/response"
	"github.com/govhealth/fieldsurvey/internal/scope"
	"github.com/govhealth/fieldsurvey/internal/survey"
	"github.com/govhealth/fieldsurvey/internal/user"
)

// New wires repositories, services and handlers into the full HTTP
// surface.
func New(cfg *config.Config, pool *pgxpool.Pool, cache *redis.Client) http.Handler {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	auditService := audit.NewService(audit.NewRepository(pool))
	scopeService := scope.NewService(scope.NewRepository(pool), auditService)
	userService := user.NewService(user.NewRepository(pool), auditService, jwtManager)
	accessService := access.NewService(access.NewRepository(pool), auditService, cache)
	surveyService := survey.NewService(survey.NewRepository(pool), auditService, accessService, cache)
	responseService := response.NewService(response.NewRepository(pool), accessService, surveyService)

	auditHandler := audit.NewHandler(auditService)
	scopeHandler := scope.NewHandler(scopeService)
	userHandler := user.NewHandler(userService)
	accessHandler := access.NewHandler(accessService)
	surveyHandler := survey.NewHandler(surveyService)
	responseHandler := response.NewHandler(responseService)

	publicLimiter := middleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.IPRateLimit(publicLimiter))
		userHandler.RegisterAuthRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(jwtManager))
		r.Use(middleware.UserRateLimit(authLimiter))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRoles(domain.RoleAdmin, domain.RoleGovernorateAdmin))

			scopeHandler.RegisterRoutes(r)
			userHandler.RegisterRoutes(r)
			surveyHandler.RegisterAdminRoutes(r)
			accessHandler.RegisterAdminRoutes(r)
			responseHandler.RegisterAdminRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(domain.RoleAdmin))
				auditHandler.RegisterRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(domain.RoleEmployee))

			accessHandler.RegisterEmployeeRoutes(r)
			surveyHandler.RegisterEmployeeRoutes(r)
			responseHandler.RegisterEmployeeRoutes(r)
		})
	})

	return r
}
