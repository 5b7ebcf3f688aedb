package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jwillz7667/dank-deals-delivery-sub001/auth"
	"github.com/jwillz7667/dank-deals-delivery-sub001/config"
	"github.com/jwillz7667/dank-deals-delivery-sub001/dispatch"
	"github.com/jwillz7667/dank-deals-delivery-sub001/events"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/middleware"
	"github.com/jwillz7667/dank-deals-delivery-sub001/notify"
	"github.com/jwillz7667/dank-deals-delivery-sub001/payments"
	"github.com/jwillz7667/dank-deals-delivery-sub001/pricing"
	"github.com/jwillz7667/dank-deals-delivery-sub001/ratelimit"
	"github.com/jwillz7667/dank-deals-delivery-sub001/routes"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/cart"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/catalog"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/checkout"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/order"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/profile"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/review"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/tracking"
	"github.com/jwillz7667/dank-deals-delivery-sub001/telemetry"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	cfg, err := config.Load("configs", os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Init(logging.Options{Service: cfg.App.Name, Level: cfg.App.LogLevel, File: cfg.App.LogFile})
	logger.Info("starting application", "env", cfg.App.Env, "addr", cfg.App.HTTPAddr, "db", cfg.Database.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.Telemetry, cfg.App.Name, cfg.App.Env)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("close failed", "err", err)
			}
		}
	}()

	apiLimiter, checkoutLimiter, closeLimiter := initRateLimiters(ctx, cfg, logger)
	closers = append(closers, closeLimiter)

	publisher, closePublisher, err := initPublisher(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, closePublisher)

	notifier, err := initNotifier(cfg)
	if err != nil {
		return err
	}

	// ─────────── Services ───────────
	pricingCfg, err := cfg.PricingConfig()
	if err != nil {
		return err
	}
	calc := pricing.NewCalculator(pricingCfg)
	profiles := profile.NewService(st.profiles)
	carts := cart.NewService(st.carts, calc)
	orders := order.NewService(st.orders, carts, profiles,
		order.WithPublisher(publisher),
		order.WithNotifier(notifier),
	)
	products := catalog.NewService(st.products)
	reviews := review.NewService(st.reviews, st.products)
	checkouts := checkout.NewService(checkout.Config{
		MinAmount:         cfg.MinAmount(),
		MinimumAge:        cfg.Payments.MinimumAge,
		IdentityReturnURL: cfg.Payments.IdentityReturnURL,
	}, orders, profiles, payments.NewClient(cfg.Payments.Client))

	var source tracking.LocationSource = tracking.NewSimulatedSource(tracking.Location{Lat: cfg.Tracking.StoreLat, Lng: cfg.Tracking.StoreLng}).WithOrders(orders)
	if cfg.Tracking.Mode == "persisted" {
		source = tracking.NewPersistedSource(orders)
	}
	tracker := tracking.NewService(orders, tracking.NewFeed(source, cfg.Tracking.Interval, cfg.Tracking.MaxTicks))

	sessions := auth.NewSessions(cfg.Auth.Session)
	verifier, err := initVerifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	login := auth.NewLogin(verifier, sessions, profiles, cfg.Auth.Admins...)

	// ─────────── Dispatch consumer ───────────
	if cfg.Kafka.Enabled {
		group, err := dispatch.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			return err
		}
		closers = append(closers, group.Close)
		consumer := dispatch.NewConsumer(group, []string{cfg.Kafka.Topic}, dispatch.Apply(orders))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error("dispatch consumer stopped", "err", err)
			}
		}()
	}

	// ─────────── HTTP ───────────
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Telemetry.Enabled {
		r.Use(otelgin.Middleware(cfg.App.Name))
	}
	r.Use(middleware.Logging(logger), middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", "X-Webhook-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, routes.Dependencies{
		Sessions:        sessions,
		Login:           login,
		Carts:           carts,
		Orders:          orders,
		Checkout:        checkouts,
		Tracking:        tracker,
		Profiles:        profiles,
		Reviews:         reviews,
		Catalog:         products,
		APILimiter:      apiLimiter,
		CheckoutLimiter: checkoutLimiter,
		AdminAPIKey:     cfg.Admin.APIKey,
		Webhooks: routes.WebhookSecrets{
			Payments:  cfg.Payments.WebhookSecret,
			Identity:  cfg.Payments.IdentityWebhookSecret,
			Tolerance: cfg.Payments.SignatureTolerance,
		},
		Ready: st.ready,
	})

	srv := &http.Server{
		Addr:              cfg.App.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", cfg.App.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.App.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initRateLimiters(ctx context.Context, cfg config.Config, logger *slog.Logger) (api, checkout ratelimit.Limiter, closeFn func() error) {
	if !cfg.Redis.Enabled {
		return ratelimit.NewMemory(cfg.RateLimit.API, nil), ratelimit.NewMemory(cfg.RateLimit.Checkout, nil), func() error { return nil }
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		// The limiter fails open, so an unreachable redis only disables limiting.
		logger.Warn("redis ping failed", "addr", cfg.Redis.Addr, "err", err)
	}
	return ratelimit.NewRedis(rdb, cfg.RateLimit.API), ratelimit.NewRedis(rdb, cfg.RateLimit.Checkout), rdb.Close
}

func initPublisher(cfg config.Config) (events.Publisher, func() error, error) {
	if !cfg.RabbitMQ.Enabled {
		return events.Nop{}, func() error { return nil }, nil
	}
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	pub, err := events.NewRabbitPublisher(ch, cfg.RabbitMQ.Exchange)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return pub, conn.Close, nil
}

func initNotifier(cfg config.Config) (notify.Notifier, error) {
	var out notify.Multi
	if cfg.Notify.Email.Enabled {
		out = append(out, notify.NewEmail(cfg.Notify.Email.SMTP))
	}
	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		out = append(out, tg)
	}
	if len(out) == 0 {
		return notify.Nop{}, nil
	}
	return out, nil
}

func initVerifier(ctx context.Context, cfg config.Config, logger *slog.Logger) (auth.IdentityVerifier, error) {
	if cfg.Auth.Firebase.ProjectID == "" {
		logger.Warn("firebase is not configured, login is disabled")
		return auth.DisabledVerifier(errors.New("login is not configured")), nil
	}
	return auth.NewFirebaseVerifier(ctx, cfg.Auth.Firebase)
}
