package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saintvisionai/platform/internal/adapter/azureai"
	"github.com/saintvisionai/platform/internal/adapter/cloudflare"
	"github.com/saintvisionai/platform/internal/adapter/ghl"
	apihttp "github.com/saintvisionai/platform/internal/adapter/http"
	svnats "github.com/saintvisionai/platform/internal/adapter/nats"
	"github.com/saintvisionai/platform/internal/adapter/openai"
	"github.com/saintvisionai/platform/internal/adapter/postgres"
	"github.com/saintvisionai/platform/internal/adapter/ristretto"
	"github.com/saintvisionai/platform/internal/adapter/twilio"
	"github.com/saintvisionai/platform/internal/adapter/ws"
	"github.com/saintvisionai/platform/internal/config"
	"github.com/saintvisionai/platform/internal/domain/brand"
	"github.com/saintvisionai/platform/internal/domain/plan"
	"github.com/saintvisionai/platform/internal/logger"
	"github.com/saintvisionai/platform/internal/middleware"
	"github.com/saintvisionai/platform/internal/resilience"
	"github.com/saintvisionai/platform/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"platform_domain", cfg.Platform.Domain,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := svnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	cache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cache.Close()

	// --- Providers ---

	newBreaker := func() *resilience.Breaker {
		return resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	}

	gpt := openai.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey)
	gpt.SetBreaker(newBreaker())

	var azure service.AzureProvider
	if cfg.AzureAI.Endpoint != "" {
		c := azureai.NewClient(cfg.AzureAI.Endpoint, cfg.AzureAI.APIKey, cfg.AzureAI.Deployment)
		c.SetBreaker(newBreaker())
		azure = c
	}

	var dns service.DNSProvider
	if cfg.Cloudflare.APIToken != "" {
		c := cloudflare.NewClient("", cfg.Cloudflare.APIToken, cfg.Cloudflare.ZoneID)
		c.SetBreaker(newBreaker())
		dns = c
	}

	var voice service.VoiceProvider
	if cfg.Twilio.AccountSID != "" {
		c := twilio.NewClient("", cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
		c.SetBreaker(newBreaker())
		voice = c
	}

	var crm service.CRMRegistrar
	if cfg.GHL.APIKey != "" {
		c := ghl.NewClient("", cfg.GHL.APIKey, cfg.GHL.LocationID)
		c.SetBreaker(newBreaker())
		crm = ghlRegistrar{client: c}
	}

	// --- Services ---

	registry := brand.DefaultRegistry()
	matrix := plan.DefaultMatrix()
	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	bridge, err := ws.StartBridge(ctx, queue, hub)
	if err != nil {
		return fmt.Errorf("event bridge: %w", err)
	}
	defer bridge.Stop()

	accessSvc := service.NewAccessService(store, matrix, cfg.Platform.UpgradeURL)
	agentSvc := service.NewAgentService(store, queue, hub, accessSvc, gpt, dns, voice, crm,
		cfg.Platform.Domain, cfg.OpenAI.Model)
	escalationSvc := service.NewEscalationService(store, queue, hub, gpt, cfg.OpenAI.Model)
	chatSvc := service.NewChatService(store, matrix, escalationSvc, gpt, azure, cfg.OpenAI.Model)
	billingSvc := service.NewBillingService(store, queue, cache)
	crmSvc := service.NewCRMService(crm)

	handlers := apihttp.NewHandlers(agentSvc, chatSvc, escalationSvc, billingSvc, crmSvc, registry, hub)

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(matrix, cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()

	r.Use(apihttp.CORS(cfg.Server.CORSOrigin))
	r.Use(apihttp.SecurityHeaders)
	r.Use(apihttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.Brand(registry))
	r.Use(middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.InternalAPIKey, billingSvc.TierFor))
	r.Use(limiter.Handler)

	r.Get("/health", healthHandler(pool, queue))

	apihttp.MountRoutes(r, handlers, cfg)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// ghlRegistrar adapts the GoHighLevel client to the service-layer CRM port.
type ghlRegistrar struct {
	client *ghl.Client
}

func (g ghlRegistrar) UpsertContact(ctx context.Context, contact service.Contact) (string, error) {
	return g.client.UpsertContact(ctx, ghl.Contact{
		Email: contact.Email,
		Name:  contact.Name,
		Tags:  contact.Tags,
	})
}

// healthHandler reports liveness of the service and its backing stores.
func healthHandler(pool *pgxpool.Pool, queue *svnats.Queue) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Postgres: "up", NATS: "up"}

		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			status.Status = "degraded"
			status.Postgres = "down"
		}
		if !queue.Connected() {
			status.Status = "degraded"
			status.NATS = "down"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
