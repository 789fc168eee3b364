package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/selorg/ops-api/internal/application/auth"
	"github.com/selorg/ops-api/internal/application/otp"
	"github.com/selorg/ops-api/internal/config"
	"github.com/selorg/ops-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/selorg/ops-api/internal/infrastructure/jwt"
	"github.com/selorg/ops-api/internal/security"
	"github.com/selorg/ops-api/internal/sms"
	"github.com/selorg/ops-api/internal/transport/http/handler"
	appmiddleware "github.com/selorg/ops-api/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	OTPRepo     *dynamo.OTPRepo
	Dispatcher  *sms.Dispatcher
	JWTProvider *jwtinfra.Provider
	Lockouts    *security.LockoutStore
	Blocklist   *security.BlocklistStore
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider, deps.Blocklist)

	// 5 requests/second, burst of 10 — applied to the OTP and login endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	otpSvc := otp.NewService(deps.OTPRepo, cfg.OTP.TTLMinutes, nil)
	authSvc := auth.NewService(
		deps.UserRepo, otpSvc, deps.Dispatcher, deps.JWTProvider,
		deps.Lockouts, deps.Blocklist, cfg.OTP,
	)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	sessionH := handler.NewSessionHandler(authSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/otp/send", authH.SendOTP)
		r.With(sensitiveRL.Limit).Post("/auth/otp/resend", authH.ResendOTP)
		r.With(sensitiveRL.Limit).Post("/auth/otp/verify", authH.VerifyOTP)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/sessions/logout", sessionH.Logout)
		})
	})

	return r
}
