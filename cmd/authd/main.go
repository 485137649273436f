package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/tendant/simple-auth/pkg/config"
	"github.com/tendant/simple-auth/pkg/mfa"
	mfaapi "github.com/tendant/simple-auth/pkg/mfa/api"
	"github.com/tendant/simple-auth/pkg/mfasettings"
	"github.com/tendant/simple-auth/pkg/notification"
	"github.com/tendant/simple-auth/pkg/oauth2client"
	oauth2clientapi "github.com/tendant/simple-auth/pkg/oauth2client/api"
	"github.com/tendant/simple-auth/pkg/recoverycodes"
	"github.com/tendant/simple-auth/pkg/signin"
	signinapi "github.com/tendant/simple-auth/pkg/signin/api"
	"github.com/tendant/simple-auth/pkg/tokengenerator"
	"github.com/tendant/simple-auth/pkg/tokenverifier"
	"github.com/tendant/simple-auth/pkg/totp"
	"github.com/tendant/simple-auth/pkg/user"
	userapi "github.com/tendant/simple-auth/pkg/user/api"
)

// repositories bundles the persistence layer selected by AUTH_PERSISTENCE.
type repositories struct {
	users    user.UserRepository
	settings mfasettings.MfaSettingsRepository
	codes    recoverycodes.RecoveryCodeRepository
	tokens   tokenverifier.TokenRepository
	clients  oauth2client.ClientRepository
}

func main() {
	godotenv.Load()

	cfg := config.AppConfig{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed reading config from env", "err", err)
		os.Exit(-1)
	}

	repos, err := buildRepositories(cfg)
	if err != nil {
		slog.Error("Failed initializing persistence", "type", cfg.PersistenceType, "err", err)
		os.Exit(-1)
	}

	users := user.NewUserService(repos.users)
	settings := mfasettings.NewStore(repos.settings)
	recovery := recoverycodes.NewManager(repos.codes)
	keys := totp.NewKeyProvider(users, cfg.Totp.Issuer)
	verifier := tokenverifier.NewVerifier(repos.tokens)
	clients := oauth2client.NewClientService(repos.clients)

	notifier, err := buildNotificationManager(cfg)
	if err != nil {
		slog.Error("Failed initializing notification manager", "err", err)
		os.Exit(-1)
	}

	jwtService := tokengenerator.NewJwtService(
		tokengenerator.NewJwtTokenGenerator(cfg.Jwt.Secret, cfg.Jwt.Issuer, cfg.Jwt.Audience),
		tokengenerator.WithAccessTokenExpiry(parseDuration(cfg.Jwt.AccessTokenExpiry)),
		tokengenerator.WithRefreshTokenExpiry(parseDuration(cfg.Jwt.RefreshTokenExpiry)),
		tokengenerator.WithTempTokenExpiry(parseDuration(cfg.Jwt.TempTokenExpiry)),
	)
	cookies := tokengenerator.NewCookieSetter(cfg.Jwt.CookieHttpOnly, cfg.Jwt.CookieSecure)

	coordinator := signin.NewCoordinator(users, settings, keys, recovery, jwtService, notifier)
	orchestrator := mfa.NewOrchestrator(users, settings, keys, recovery)

	tokenAuth := jwtauth.New("HS256", []byte(cfg.Jwt.Secret), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})

	userHandler := userapi.NewHandler(users, verifier, notifier, cfg.BaseURL)
	r.Mount("/auth", signinapi.NewHandler(coordinator, cookies).Routes())
	r.Mount("/users", userHandler.PublicRoutes())

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Mount("/mfa", mfaapi.NewHandler(orchestrator).Routes())
		r.Mount("/account", userHandler.Routes())
		r.Mount("/clients", oauth2clientapi.NewHandler(clients).Routes())
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	slog.Info("Starting auth service", "addr", addr, "persistence", cfg.PersistenceType)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(-1)
	}
}

func buildRepositories(cfg config.AppConfig) (repositories, error) {
	switch cfg.PersistenceType {
	case "postgres":
		pool, err := pgxpool.New(context.Background(), cfg.Database.ToDatabaseURL())
		if err != nil {
			return repositories{}, fmt.Errorf("failed creating dbpool: %w", err)
		}
		return repositories{
			users:    user.NewPostgresUserRepository(pool),
			settings: mfasettings.NewPostgresMfaSettingsRepository(pool),
			codes:    recoverycodes.NewPostgresRecoveryCodeRepository(pool),
			tokens:   tokenverifier.NewPostgresTokenRepository(pool),
			clients:  oauth2client.NewPostgresClientRepository(pool),
		}, nil

	case "file":
		userRepo, err := user.NewFileUserRepository(cfg.DataDir)
		if err != nil {
			return repositories{}, err
		}
		settingsRepo, err := mfasettings.NewFileMfaSettingsRepository(cfg.DataDir)
		if err != nil {
			return repositories{}, err
		}
		codeRepo, err := recoverycodes.NewFileRecoveryCodeRepository(cfg.DataDir)
		if err != nil {
			return repositories{}, err
		}
		tokenRepo, err := tokenverifier.NewFileTokenRepository(cfg.DataDir)
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			users:    userRepo,
			settings: settingsRepo,
			codes:    codeRepo,
			tokens:   tokenRepo,
			clients:  oauth2client.NewInMemoryClientRepository(),
		}, nil

	default:
		return repositories{}, fmt.Errorf("unknown persistence type: %s", cfg.PersistenceType)
	}
}

func buildNotificationManager(cfg config.AppConfig) (*notification.NotificationManager, error) {
	return notification.NewNotificationManager(cfg.BaseURL,
		notification.WithSMTP(notification.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			TLS:      cfg.Email.TLS,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}),
		notification.WithAllEmailTemplates(),
	)
}

func parseDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in config, using service default", "value", value)
		return 0
	}
	return d
}
