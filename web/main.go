package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	gorilla "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	samlauth "github.com/ferndale-labs/gatehouse/internal/auth/saml"
	"github.com/ferndale-labs/gatehouse/internal/config"
	"github.com/ferndale-labs/gatehouse/internal/domain/services"
	"github.com/ferndale-labs/gatehouse/internal/infrastructure/database/postgres"
	"github.com/ferndale-labs/gatehouse/internal/pkg/logger"
	"github.com/ferndale-labs/gatehouse/web/internal/handlers"
	"github.com/ferndale-labs/gatehouse/web/internal/middleware"
	"github.com/ferndale-labs/gatehouse/web/internal/render"
	"github.com/ferndale-labs/gatehouse/web/internal/session"
)

// setupWebLogging configures the global logger for the web service
func setupWebLogging(logLevel, logFormat string) error {
	cfg := logger.Config{
		Level:       logger.ParseLevel(logLevel),
		LogToStderr: true, // Web service always logs to stderr
		Format:      logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	// Set as default logger so all slog.Info/Warn/Error calls use our configured logger
	slog.SetDefault(globalLogger)

	return nil
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "text", "log format (text, json)")
	templatesPath := flag.String("templates", "web/templates", "path to HTML templates")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging (must be done before any logging calls)
	if err = setupWebLogging(*logLevel, *logFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	log := slog.Default().With("component", "web")
	log.Info("starting gatehouse web service")

	// Load templates
	templates, err := render.LoadTemplates(*templatesPath)
	if err != nil {
		log.Error("failed to load templates", slog.Any("error", err))
		os.Exit(1)
	}
	render.LogTemplateNames(templates, log)

	// Connect to the database and bring the schema up to date
	conn, err := postgres.NewConnection(cfg.Database.Postgres.ConnectionString())
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer conn.Close()

	if err := conn.RunMigrations(); err != nil {
		log.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Stores
	users := postgres.NewUserStore(conn.DB)
	roles := postgres.NewRoleStore(conn.DB)
	memberships := postgres.NewMembershipStore(conn.DB)

	// Services
	provisioner := services.NewProvisioner(users, services.ProvisionPolicy{
		Provider:                    cfg.SAML.Provider,
		AutoEnableUsers:             cfg.Provisioning.AutoEnableUsers,
		AttachSessionClaimOnFailure: cfg.Provisioning.AttachSessionClaimOnFailure,
	}, log)
	admin := services.NewAdmin(users, roles, memberships, log)
	directory := services.NewDirectory(users, roles, memberships, log)

	// SAML service provider
	entityID := cfg.SAML.EntityID
	if entityID == "" {
		entityID = cfg.Server.RootURL + "/saml/metadata"
	}
	sp, err := samlauth.NewServiceProvider(context.Background(), samlauth.ServiceProviderOptions{
		EntityID:        entityID,
		RootURL:         cfg.Server.RootURL,
		CertificateFile: cfg.SAML.CertificateFile,
		KeyFile:         cfg.SAML.KeyFile,
		IDPMetadataURL:  cfg.SAML.IDPMetadataURL,
		IDPMetadataFile: cfg.SAML.IDPMetadataFile,
	})
	if err != nil {
		log.Error("failed to configure SAML service provider", slog.Any("error", err))
		os.Exit(1)
	}

	// Session cookies carry a signed principal token
	signingKey := sessionKey(cfg, log)
	tokens := session.NewTokenManager(signingKey, cfg.Session.Lifetime)
	sessionMgr := session.NewManager(signingKey, tokens, session.Options{
		CookieName: cfg.Session.CookieName,
		Lifetime:   cfg.Session.Lifetime,
		Secure:     cfg.Session.Secure,
	})

	authMw := middleware.NewAuthMiddleware(sessionMgr, log)
	h := handlers.New(sessionMgr, memberships, provisioner, admin, directory,
		templates, sp, cfg.SAML.Provider, log)

	router := createRouter(h, authMw, cfg.Authz.AdminRole, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("listening", slog.String("address", addr))

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Error("failed to start server", slog.Any("error", err))
		os.Exit(1)
	}
}

// sessionKey resolves the token signing key, generating a throwaway one
// for local development when nothing is configured
func sessionKey(cfg *config.Config, log *slog.Logger) []byte {
	if cfg.Session.SigningKey != "" {
		if key, err := base64.StdEncoding.DecodeString(cfg.Session.SigningKey); err == nil {
			return key
		}
		// Not base64; use the raw bytes
		return []byte(cfg.Session.SigningKey)
	}

	log.Warn("no session signing key configured, generating random one (sessions won't survive restarts)")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Error("failed to generate session key", slog.Any("error", err))
		os.Exit(1)
	}
	return key
}

// createRouter sets up the HTTP router with all routes and middleware
func createRouter(h *handlers.Handler, authMw *middleware.AuthMiddleware, adminRole string, log *slog.Logger) http.Handler {
	router := mux.NewRouter()

	// Static assets
	router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	// Health check and metrics endpoints (no auth required)
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public routes
	router.HandleFunc("/", h.Home).Methods("GET")
	router.HandleFunc("/login", h.Login).Methods("GET")
	router.HandleFunc("/logout", h.Logout).Methods("GET", "POST")

	// SAML endpoints
	router.HandleFunc("/saml/login", h.SAMLLogin).Methods("POST")
	router.HandleFunc("/saml/acs", h.ACS).Methods("GET", "POST")
	router.HandleFunc("/saml/metadata", h.Metadata).Methods("GET")

	// Signed-in routes
	router.Handle("/account/claims", authMw.RequireAuth(http.HandlerFunc(h.Claims))).Methods("GET")

	// Admin routes: session plus the administrator role
	adminOnly := func(next http.HandlerFunc) http.Handler {
		return authMw.RequireAuth(authMw.RequireRole(adminRole, next))
	}
	router.Handle("/admin/users", adminOnly(h.UsersList)).Methods("GET")
	router.Handle("/admin/users/{id}", adminOnly(h.UserDetails)).Methods("GET")
	router.Handle("/admin/users/{id}/roles", adminOnly(h.UserRolesSave)).Methods("POST")
	router.Handle("/admin/roles", adminOnly(h.RolesList)).Methods("GET")
	router.Handle("/admin/roles", adminOnly(h.RoleCreate)).Methods("POST")
	router.Handle("/admin/roles/{id}", adminOnly(h.RoleDetails)).Methods("GET")
	router.Handle("/admin/roles/{id}/delete", adminOnly(h.RoleDelete)).Methods("POST")
	router.Handle("/admin/roles/{id}/members", adminOnly(h.RoleMembersSave)).Methods("POST")

	// Outermost: proxy header resolution, gzip, panic recovery, logging
	var handler http.Handler = router
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.LogRequest(log, handler)
	handler = gorilla.CompressHandler(handler)
	handler = gorilla.ProxyHeaders(handler)
	handler = gorilla.RecoveryHandler(gorilla.PrintRecoveryStack(true))(handler)
	return handler
}
