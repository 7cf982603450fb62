package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	consulapi "github.com/hashicorp/consul/api"

	"storefront-service/handlers"
	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/checkout"
	"storefront-service/internal/config"
	"storefront-service/internal/consul"
	"storefront-service/internal/orders"
	"storefront-service/internal/payments"
	"storefront-service/internal/querycache"
	"storefront-service/internal/storeapi"
	"storefront-service/internal/stores/kafka"
	"storefront-service/middleware"
	"storefront-service/pkg/logkey"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})))
	if err := startApp(); err != nil {
		slog.Error("storefront service stopped", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	keys, err := auth.LoadKeys(cfg.PublicKeyPath)
	if err != nil {
		return err
	}

	var consulClient *consulapi.Client
	if cfg.ConsulAddr != "" {
		consulClient, err = consul.NewClient(cfg.ConsulAddr)
		if err != nil {
			return err
		}
	}

	store, err := storeapi.New(storeapi.Config{
		BaseURL:     cfg.BackendURL,
		ServiceName: cfg.BackendService,
		PathPrefix:  cfg.BackendPathPrefix,
		Timeout:     cfg.BackendTimeout,
	}, consulClient)
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	cache, err := querycache.New(cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return err
	}

	var events orders.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		k, err := kafka.NewConf(cfg.KafkaBrokers, cfg.ServiceName)
		if err != nil {
			return err
		}
		defer k.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := k.Ping(pingCtx); err != nil {
			slog.Warn("kafka is not reachable yet, events will be retried by the client", slog.String(logkey.ERROR, err.Error()))
		}
		cancel()
		events = k
	} else {
		slog.Info("KAFKA_BROKERS not set, order activity events are disabled")
	}

	var gateway checkout.PaymentGateway
	var webhookParser handlers.WebhookParser
	if cfg.StripeKey != "" {
		p, err := payments.NewConf(payments.Options{
			SecretKey:     cfg.StripeKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			SuccessURL:    cfg.StripeSuccessURL,
			CancelURL:     cfg.StripeCancelURL,
		})
		if err != nil {
			return err
		}
		gateway, webhookParser = p, p
	} else {
		slog.Info("STRIPE_TEST_KEY not set, only cash on delivery is accepted")
	}

	cartConf, err := cart.NewConf(store, cache)
	if err != nil {
		return err
	}
	workflow, err := orders.NewWorkflow(store, cache, events)
	if err != nil {
		return err
	}
	checkoutConf, err := checkout.NewConf(cartConf, store, workflow, gateway, events)
	if err != nil {
		return err
	}

	h, err := handlers.NewHandler(handlers.Conf{
		Cart:           cartConf,
		Orders:         workflow,
		Checkout:       checkoutConf,
		Search:         store,
		Webhook:        webhookParser,
		ServiceSession: serviceSession(keys, cfg.BackendServiceToken),
		SuggestLimit:   cfg.SuggestLimit,
		RegistrySize:   cfg.CacheSize,
	})
	if err != nil {
		return err
	}
	m, err := middleware.NewMid(keys)
	if err != nil {
		return err
	}

	api := &http.Server{
		Addr:         ":" + cfg.AppPort,
		ReadTimeout:  8 * time.Second,
		WriteTimeout: 800 * time.Second,
		IdleTimeout:  800 * time.Second,
		Handler:      handlers.API(cfg.EndpointPrefix, cfg.GinMode, m, h),
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("storefront service listening", slog.String("Port", cfg.AppPort))
		serverErrors <- api.ListenAndServe()
	}()

	var serviceID string
	if consulClient != nil {
		serviceID = register(consulClient, cfg)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.Info("graceful shutdown", slog.String("Signal", sig.String()))
		if serviceID != "" {
			if err := consul.DeregisterService(consulClient, serviceID); err != nil {
				slog.Warn("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.Shutdown(ctx); err != nil {
			_ = api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}

// serviceSession verifies the storefront's own backend token. Payment webhooks can only
// confirm orders when it carries the admin role.
func serviceSession(keys *auth.Keys, token string) *auth.Session {
	if token == "" {
		slog.Info("BACKEND_SERVICE_TOKEN not set, payment webhooks cannot confirm orders")
		return nil
	}
	claims, err := keys.ValidateToken(token)
	if err != nil {
		slog.Warn("BACKEND_SERVICE_TOKEN is not valid", slog.String(logkey.ERROR, err.Error()))
		return nil
	}
	if !claims.HasRole(auth.RoleAdmin) {
		slog.Warn("BACKEND_SERVICE_TOKEN lacks the admin role", slog.String(logkey.UserID, claims.Subject))
	}
	return auth.NewSession(token, claims)
}

func register(client *consulapi.Client, cfg config.Config) string {
	port, err := strconv.Atoi(cfg.AppPort)
	if err != nil {
		slog.Warn("skipping consul registration, APP_PORT is not numeric", slog.String("Port", cfg.AppPort))
		return ""
	}
	host, err := os.Hostname()
	if err != nil {
		slog.Warn("skipping consul registration", slog.String(logkey.ERROR, err.Error()))
		return ""
	}
	id := cfg.ServiceName + "-" + uuid.NewString()
	if err := consul.RegisterService(client, id, cfg.ServiceName, host, port); err != nil {
		slog.Warn("consul registration failed", slog.String(logkey.ERROR, err.Error()))
		return ""
	}
	return id
}
