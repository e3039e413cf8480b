package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/TakenPilot/cloudflare-workers/api/handler"
	apiMiddleware "github.com/TakenPilot/cloudflare-workers/api/middleware"
	"github.com/TakenPilot/cloudflare-workers/api/routes"
	"github.com/TakenPilot/cloudflare-workers/config"
	"github.com/TakenPilot/cloudflare-workers/internal/queue"
	"github.com/TakenPilot/cloudflare-workers/internal/repository"
	"github.com/TakenPilot/cloudflare-workers/internal/service"
	"github.com/TakenPilot/cloudflare-workers/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run one HTTP service",
}

var serveNewslettersCmd = &cobra.Command{
	Use:   "newsletters",
	Short: "Subscribe, unsubscribe and confirm newsletter emails",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(config.ServiceNewsletters)
		if err != nil {
			return err
		}
		db, err := config.ConnectionDb(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if auto, _ := cmd.Flags().GetBool("migrate"); auto {
			if err := config.Migrate(db); err != nil {
				return err
			}
		}

		var notifier service.ConfirmationNotifier
		switch {
		case cfg.AMQPURL != "":
			publisher := queue.NewPublisher(cfg.AMQPURL, logger)
			defer publisher.Close()
			notifier = publisher
		case cfg.ResendAPIKey != "" && cfg.EmailFrom != "":
			notifier = service.NewResendEmailSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.ConfirmBaseURL)
		default:
			logger.Warn("no RABBITMQ_URL or RESEND_API_KEY, confirmation emails are disabled")
		}

		clock := service.RealClock{}
		tokens := service.NewTokenManager(
			repository.NewSubscriptionTokenRepository(db),
			service.RandomIDGenerator{},
			clock,
			service.TokenConfig{Window: cfg.TokenWindow},
		)
		subscriptions := service.NewSubscriptionService(
			repository.NewSubscriptionRepository(db),
			repository.NewHostnameConfigRepository(db),
			repository.NewListConfigRepository(db),
			repository.NewSubscriptionEventRepository(db),
			tokens,
			notifier,
			clock,
			logger,
			service.SubscriptionConfig{},
		)

		var jwtManager *utils.JWTManager
		if cfg.JWTSecret != "" {
			jwtManager = &utils.JWTManager{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer, TokenTTL: cfg.AdminTokenTTL}
		} else {
			logger.Warn("no JWT_SECRET, subscriber export is disabled")
		}

		health := &handler.HealthHandler{Checks: map[string]handler.HealthCheck{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		}}

		app := newEcho(logger)
		routes.NewRouter(app, health).RegisterNewsletters(routes.NewsletterRoutes{
			Handler:        handler.NewNewsletterHandler(subscriptions, validator.New()),
			AuthMiddleware: apiMiddleware.AuthMiddleware{JWT: jwtManager},
			RatePerSecond:  cfg.RateLimitPerSecond,
			RateBurst:      cfg.RateLimitBurst,
		})
		return run(app, cfg.HTTPAddr, logger)
	},
}

var serveApiKeysCmd = &cobra.Command{
	Use:   "api-keys",
	Short: "Store and serve API key records",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(config.ServiceApiKeys)
		if err != nil {
			return err
		}
		client, err := config.NewRedisClient(cmd.Context(), cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		keys := service.NewApiKeyService(repository.NewApiKeyRepository(client), service.ApiKeyConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			AuthKeys:       cfg.AuthKeys,
			HashedAuthKeys: cfg.HashedAuthKeys,
		})
		health := &handler.HealthHandler{Checks: map[string]handler.HealthCheck{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}}

		app := newEcho(logger)
		routes.NewRouter(app, health).RegisterApiKeys(handler.NewApiKeyHandler(keys), keys)
		return run(app, cfg.HTTPAddr, logger)
	},
}

var serveStaticSitesCmd = &cobra.Command{
	Use:   "static-sites",
	Short: "Serve tenant sites from the object bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(config.ServiceStaticSites)
		if err != nil {
			return err
		}
		client, err := config.NewRedisClient(cmd.Context(), cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		bucket, err := config.NewS3Client(cfg.S3)
		if err != nil {
			return err
		}

		sites := service.NewStaticSiteService(
			repository.NewSiteObjectRepository(bucket, cfg.S3.Bucket),
			repository.NewRedirectRepository(client),
			repository.NewResponseCacheRepository(client),
			logger,
			service.StaticSiteConfig{PurgeToken: cfg.PurgeToken, MaxCachedBody: cfg.StaticCacheMaxBody},
		)
		health := &handler.HealthHandler{Checks: map[string]handler.HealthCheck{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}}

		app := newEcho(logger)
		routes.NewRouter(app, health).RegisterStaticSites(handler.NewStaticHandler(sites))
		return run(app, cfg.HTTPAddr, logger)
	},
}

func init() {
	serveNewslettersCmd.Flags().Bool("migrate", false, "Run migrations before serving")
	serveCmd.AddCommand(serveNewslettersCmd)
	serveCmd.AddCommand(serveApiKeysCmd)
	serveCmd.AddCommand(serveStaticSitesCmd)
}

func newEcho(logger *logrus.Logger) *echo.Echo {
	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.HTTPErrorHandler = handler.HTTPErrorHandler(logger)
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogHost:     true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"host":   v.Host,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))
	return app
}

// run serves until SIGINT or SIGTERM, then drains for up to ten seconds.
func run(app *echo.Echo, addr string, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("server started")
		errs <- app.StartServer(server)
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
