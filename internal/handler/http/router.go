package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reelstack/moviecatalog/internal/auth"
	"github.com/reelstack/moviecatalog/internal/domain"
	"github.com/reelstack/moviecatalog/internal/service"
	"github.com/reelstack/moviecatalog/pkg/health"
	"github.com/reelstack/moviecatalog/pkg/middleware"
)

// NewRouter creates a chi router with all catalog routes registered.
func NewRouter(
	searchService *service.SearchService,
	movieService *service.MovieService,
	reviewService *service.ReviewService,
	userService *service.UserService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
	pprofAllowedCIDRs []string,
	authRateLimitRPS, authRateLimitBurst int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("moviecatalog"))
	r.Use(middleware.RequestLogger(logger))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Debug endpoints, restricted by source IP.
	middleware.RegisterPprof(r, pprofAllowedCIDRs, logger)

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		}, nil
	}

	// Auth endpoints
	authHandler := NewAuthHandler(userService, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		// Per-IP throttle on credential endpoints to slow brute-force attempts.
		r.Use(middleware.RateLimit(authRateLimitRPS, authRateLimitBurst, logger))

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Get("/me", authHandler.Me)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Post("/cleanup-tokens", authHandler.CleanupTokens)
			})
		})
	})

	// Movie and search endpoints. Reads are public, writes are admin-only.
	searchHandler := NewSearchHandler(searchService, logger)
	movieHandler := NewMovieHandler(movieService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)

	r.Route("/api/v1/movies", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", movieHandler.ListMovies)
		r.Get("/search", searchHandler.Search)
		r.Get("/{id}", movieHandler.GetMovie)
		r.Get("/{movieId}/reviews", reviewHandler.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/{movieId}/reviews", reviewHandler.CreateReview)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))

				r.Post("/", movieHandler.CreateMovie)
				r.Put("/{id}", movieHandler.UpdateMovie)
				r.Delete("/{id}", movieHandler.DeleteMovie)
			})
		})
	})

	// Review endpoints. Reads are public; edits require auth, with
	// ownership enforced in the service.
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/{id}", reviewHandler.GetReview)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Put("/{id}", reviewHandler.UpdateReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
		})
	})

	return r
}
