package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lionix-portal/config"
	"lionix-portal/internal/adapter/gateway"
	adapterhandler "lionix-portal/internal/adapter/handler"
	"lionix-portal/internal/i18n"
	"lionix-portal/internal/infrastructure/store"
	"lionix-portal/internal/session"
	"lionix-portal/internal/signup"
	"lionix-portal/internal/usecase"
	appmiddleware "lionix-portal/middleware"
	"lionix-portal/utils/logger"
	"lionix-portal/utils/otel"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
	}

	// Initialize structured logger
	logger.Init(otelCfg.Enabled)

	// Load configuration. Missing backend parameters are fatal: the portal
	// must not start without its identity provider connection.
	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"supabase_url", cfg.SupabaseURL,
		"port", cfg.Port,
		"visitor_ttl", cfg.VisitorTTL)

	// Shared HTTP client for all per-visitor gateways
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout, Transport: transport}

	profileGateway := gateway.NewProfileGateway(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.RequestTimeout)

	// Per-visitor auth state: one identity-provider client, one session
	// manager and one signup flow per browser visitor
	visitors := store.NewVisitorStore(cfg.VisitorTTL, func(id string) *store.Visitor {
		provider := gateway.NewGoTrueGatewayWithClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.RequestTimeout, httpClient)
		sessions := session.NewManager(provider, slog.Default(), cfg.InitTimeout)
		flow := signup.NewFlow(provider, sessions, slog.Default(), signup.Config{
			ResendCooldown:  cfg.ResendCooldown,
			JoinTimeout:     cfg.JoinTimeout,
			EmailRedirectTo: cfg.SiteURL + "/",
		})
		return &store.Visitor{ID: id, Sessions: sessions, Flow: flow}
	})

	// Usecases
	getProfileUC := usecase.NewGetProfile(profileGateway, slog.Default())
	updateProfileUC := usecase.NewUpdateProfile(profileGateway, slog.Default())
	createProfileUC := usecase.NewCreateProfile(profileGateway, slog.Default())

	// Handlers
	resolver := i18n.NewResolver()
	authHandler := adapterhandler.NewAuthHandler(createProfileUC, resolver, slog.Default())
	profileHandler := adapterhandler.NewProfileHandler(getProfileUC, updateProfileUC)
	i18nHandler := adapterhandler.NewI18nHandler(resolver)
	healthHandler := adapterhandler.NewHealthHandler()

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Security middleware
	e.Use(appmiddleware.SecurityHeaders())

	// OpenTelemetry tracing
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	// Rate limiters per endpoint group: credentials, code guessing, and
	// resend each get their own budget
	loginRL := appmiddleware.NewRateLimiter(10.0/60.0, 5)   // 10 req/min
	signupRL := appmiddleware.NewRateLimiter(5.0/60.0, 3)   // 5 req/min
	verifyRL := appmiddleware.NewRateLimiter(10.0/60.0, 5)  // 10 req/min
	sessionRL := appmiddleware.NewRateLimiter(60.0/60.0, 10) // 60 req/min

	// API routes: every route below carries per-visitor auth state
	api := e.Group("/api", appmiddleware.Visitor(visitors))

	api.POST("/auth/login", authHandler.Login, loginRL.Middleware())
	api.POST("/auth/signup", authHandler.Signup, signupRL.Middleware())
	api.POST("/auth/verify", authHandler.Verify, verifyRL.Middleware())
	api.POST("/auth/resend", authHandler.Resend, verifyRL.Middleware())
	api.POST("/auth/restart", authHandler.Restart)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/session", authHandler.Session, sessionRL.Middleware())

	// Profile area, gated on session presence
	profileGroup := api.Group("/profile", appmiddleware.RouteGuard("/connexion"))
	profileGroup.GET("", profileHandler.Get)
	profileGroup.PATCH("", profileHandler.Update)

	api.GET("/translations/:lang", i18nHandler.Translations)
	api.PUT("/language", i18nHandler.SetLanguage)

	e.GET("/health", healthHandler.Handle)

	// Start server with errgroup for graceful shutdown
	address := fmt.Sprintf(":%s", cfg.Port)
	slog.InfoContext(ctx, "starting lionix-portal server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited properly")
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8888"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
