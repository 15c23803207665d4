package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-ticket-auth/internal/application/enrollment"
	"github.com/go-ticket-auth/internal/application/identity"
	"github.com/go-ticket-auth/internal/application/login"
	"github.com/go-ticket-auth/internal/application/ticket"
	"github.com/go-ticket-auth/internal/application/user"
	"github.com/go-ticket-auth/internal/config"
	"github.com/go-ticket-auth/internal/infrastructure/dynamo"
	s3infra "github.com/go-ticket-auth/internal/infrastructure/s3"
	"github.com/go-ticket-auth/internal/infrastructure/sns"
	"github.com/go-ticket-auth/internal/infrastructure/speaker"
	"github.com/go-ticket-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-ticket-auth/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	TicketRepo  *dynamo.TicketRepo
	ProfileRepo *dynamo.ProfileRepo
	S3Store     *s3infra.Store // optional: enrollment audio retention
	SMSSender   sns.SMSSender  // optional: voice-login alerts
	Speaker     *speaker.Client
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	ticketSvc := ticket.NewService(deps.TicketRepo, cfg.TicketTTL)
	loginSvc := login.NewService(deps.UserRepo, ticketSvc)
	userSvc := user.NewService(deps.UserRepo)
	var retainer enrollment.AudioRetainer
	if deps.S3Store != nil {
		retainer = deps.S3Store
	}
	enrollSvc := enrollment.NewService(deps.Speaker, deps.ProfileRepo, retainer, cfg.EnrollRejectedCounts)
	identitySvc := identity.NewService(deps.Speaker, deps.ProfileRepo, deps.UserRepo, ticketSvc, deps.SMSSender, cfg.ConfidenceThreshold)

	healthH := handler.NewHealthHandler()
	loginH := handler.NewLoginHandler(loginSvc, identitySvc)
	checkH := handler.NewCheckHandler(ticketSvc)
	profileH := handler.NewProfileHandler(enrollSvc, identitySvc)
	userH := handler.NewUserHandler(userSvc)

	ticketAuth := appmiddleware.TicketAuth(ticketSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/login/text", loginH.Text)
		r.Post("/login/speech", loginH.Speech)
		r.Get("/auth/check", checkH.Check)
		r.Post("/users", userH.Register)

		// ── Ticket-authenticated routes ──────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(ticketAuth)

			r.Post("/profiles", profileH.Create)
			r.Get("/profiles", profileH.List)
			r.Post("/profiles/{id}/enrollments", profileH.Enroll)
			r.Post("/profiles/{id}/verify", profileH.Verify)
		})
	})

	return r
}
