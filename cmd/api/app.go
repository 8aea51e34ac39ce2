package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/mediahub/service/internal/auth"
	"github.com/mediahub/service/internal/config"
	"github.com/mediahub/service/internal/event"
	"github.com/mediahub/service/internal/media"
	appMiddleware "github.com/mediahub/service/internal/middleware"
	"github.com/mediahub/service/internal/storage"
)

const (
	metricsNamespace = "media"
	notifyTimeout    = 10 * time.Second
)

// newApp wires storage → service → handler and returns the root router.
func newApp(ctx context.Context, cfg *config.Config, reg *prometheus.Registry) (http.Handler, error) {
	store, objects, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage init failed: %w", err)
	}

	observer, err := storage.NewPrometheusObserver(metricsNamespace+"_storage", reg)
	if err != nil {
		return nil, err
	}
	store = storage.WithObserver(store, observer)

	notifier := event.NewHTTPNotifier(cfg.EventGatewayURL, &http.Client{Timeout: notifyTimeout})

	svc, err := media.NewService(store, notifier, auth.ClaimsAuthorizer{}, media.IssuerOptions{
		Expiration:    cfg.PathExpiration,
		ProxyPath:     cfg.ProxyPath,
		RewriteDomain: cfg.RewriteDomain,
	})
	if err != nil {
		return nil, err
	}
	mediaHandler := media.NewHandler(svc, cfg.MaxUploadBytes)

	httpMetrics, err := appMiddleware.NewHTTPMetrics(metricsNamespace, reg)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(httpMetrics.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	// Swagger UI at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// The in-memory store serves its own presigned URLs in place of the reverse proxy.
	if objects != nil {
		if cfg.ProxyPath == "" {
			slog.Warn("memory storage without PROXY_PATH; issued URLs will not be reachable")
		} else {
			r.Handle(cfg.ProxyPath+"/*", http.StripPrefix(cfg.ProxyPath, objects))
		}
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.Authenticate(cfg.JWTSecret))
		r.Mount("/media", mediaHandler.Routes())
	})

	return r, nil
}

// openStorage returns the configured store. For the memory driver the second
// result is the handler serving its presigned URLs.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, http.Handler, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, nil, err
		}
		mem, err := storage.NewMemoryStorage(cfg.StorageBucket, "http://"+cfg.StorageEndpoint, secret)
		if err != nil {
			return nil, nil, err
		}
		slog.Warn("using in-memory object storage; uploads are lost on restart")
		return mem, mem, nil
	default:
		s, err := storage.NewMinioStorage(ctx, storage.MinioOptions{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			Region:    cfg.StorageRegion,
			UseSSL:    cfg.StorageUseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	}
}
