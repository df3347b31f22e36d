package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/nextwallet-vault/internal/application/auth"
	"github.com/nextwallet-vault/internal/application/guard"
	"github.com/nextwallet-vault/internal/application/notification"
	"github.com/nextwallet-vault/internal/application/otp"
	"github.com/nextwallet-vault/internal/application/session"
	"github.com/nextwallet-vault/internal/application/stepup"
	"github.com/nextwallet-vault/internal/application/vault"
	"github.com/nextwallet-vault/internal/config"
	jwtinfra "github.com/nextwallet-vault/internal/infrastructure/jwt"
	"github.com/nextwallet-vault/internal/transport/http/handler"
	appmiddleware "github.com/nextwallet-vault/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	SessionRepo SessionRepository
	LedgerRepo  LedgerRepository
	PinRepo     PinRepository
	WalletRepo  WalletRepository
	Attempts    AttemptCounter
	LocalState  LocalState
	Mailer      CodeSender
	JWTProvider *jwtinfra.Provider
	Notifier    notification.Service
	PinHasher   stepup.Hasher
	Platform    stepup.PlatformAuthenticator
	Now         func() time.Time
	// Probes are the readiness checks for remote backends, keyed by name.
	Probes map[string]Probe
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	// 5 requests/second, burst of 10, per client IP.
	signInRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:    deps.UserRepo,
		SessionRepo: deps.SessionRepo,
		JWTProvider: deps.JWTProvider,
		LocalState:  deps.LocalState,
		Now:         now,
	})
	stepUpSvc := stepup.NewService(stepup.ServiceDeps{
		PinRepo:     deps.PinRepo,
		Hasher:      deps.PinHasher,
		Attempts:    deps.Attempts,
		MaxAttempts: cfg.PinMaxAttempts,
		Lockout:     cfg.PinLockout,
		Preferences: deps.LocalState,
		Platform:    deps.Platform,
		Tokens:      stepup.NewRegistry(cfg.StepUpTokenTTL, now),
		Now:         now,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		Identity:   sessionSvc,
		LedgerRepo: deps.LedgerRepo,
		LocalState: deps.LocalState,
		Mailer:     deps.Mailer,
		StepUp:     stepUpSvc,
		TOTPIssuer: cfg.TOTPIssuer,
		Now:        now,
	})
	otpSvc := otp.NewService(otp.ServiceDeps{
		LedgerRepo:  deps.LedgerRepo,
		Identity:    sessionSvc,
		LocalState:  deps.LocalState,
		Attempts:    deps.Attempts,
		MaxAttempts: cfg.OTPMaxAttempts,
		Notifier:    deps.Notifier,
		Now:         now,
	})
	guardSvc := guard.NewService(guard.ServiceDeps{
		Identity:   sessionSvc,
		LedgerRepo: deps.LedgerRepo,
		LocalState: deps.LocalState,
		VerifyPath: appmiddleware.VerifyPath,
		Now:        now,
	})
	vaultSvc := vault.NewService(vault.ServiceDeps{
		StepUp:     stepUpSvc,
		WalletRepo: deps.WalletRepo,
		LocalState: deps.LocalState,
		Now:        now,
	})

	probes := map[string]handler.Probe{
		"local_state": func(ctx context.Context) error {
			_, err := deps.LocalState.BiometricEnabled(ctx)
			return err
		},
	}
	for name, p := range deps.Probes {
		probes[name] = p
	}
	healthH := handler.NewHealthHandler(probes)
	sessionH := handler.NewSessionHandler(authSvc)
	verifyH := handler.NewVerifyHandler(otpSvc)
	pinH := handler.NewPinHandler(stepUpSvc, deps.LocalState)
	vaultH := handler.NewVaultHandler(vaultSvc)
	totpH := handler.NewTOTPHandler(authSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(signInRL.Limit).Post("/sign-in", sessionH.SignIn)
		r.Post("/sign-out", sessionH.SignOut)

		// ── Guarded routes ───────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Guard(guardSvc))

			// The guard always lets these through.
			r.Get("/verify", verifyH.Screen)
			r.Get("/verify/countdown", verifyH.Countdown)
			r.With(appmiddleware.RequireSession).Post("/verify", verifyH.Submit)

			r.Get("/me", sessionH.Me)
			r.Get("/pin", pinH.Status)
			r.Post("/pin", pinH.Create)
			r.Put("/pin", pinH.Rotate)
			r.Post("/step-up/pin", pinH.Verify)
			r.Post("/step-up/biometric", pinH.Biometric)
			r.Put("/preferences/biometric", pinH.SetBiometric)
			r.Post("/wallets", vaultH.CreateWallet)
			r.Post("/local-data/wipe", vaultH.WipeLocalData)
			r.Post("/totp/enroll", totpH.Enroll)
			r.Post("/totp/confirm", totpH.Confirm)
		})
	})

	return r
}
