package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/commsvc/call-routing-backend/handlers"
	"github.com/commsvc/call-routing-backend/internal/acs"
	"github.com/commsvc/call-routing-backend/internal/config"
	"github.com/commsvc/call-routing-backend/internal/events"
	"github.com/commsvc/call-routing-backend/internal/registry"
	"github.com/commsvc/call-routing-backend/internal/secrets"
	"github.com/commsvc/call-routing-backend/pkg/logger"
	"github.com/commsvc/call-routing-backend/pkg/metrics"
	"github.com/commsvc/call-routing-backend/pkg/middleware"
)

var startTime = time.Now()

// noRedirector stands in for call automation when the service runs against
// the local dev issuer without platform credentials.
type noRedirector struct{}

func (noRedirector) RedirectCall(ctx context.Context, incomingCallContext, targetRawID string) error {
	return fmt.Errorf("call automation not configured (local issuer mode)")
}

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded:\n%s", cfg.Summary())

	ctx := context.Background()

	// Resolve the platform connection string through the Dapr secret store
	// when one is configured; local runs take it straight from the env.
	if cfg.Secrets.StoreName != "" {
		provider := secrets.NewProvider(cfg.Secrets.DaprPort, cfg.Secrets.StoreName)
		conn, err := provider.GetSecret(ctx, "COMMUNICATION_SERVICES_CONNECTION_STRING")
		if err != nil {
			logger.Fatalf("failed to resolve connection string from secret store %s: %v", cfg.Secrets.StoreName, err)
		}
		cfg.ACS.ConnectionString = conn

		// startup diagnostics: list available secret names (never values)
		if logger.LevelString() == "debug" {
			if bulk, err := provider.GetBulkSecret(ctx); err == nil {
				names := make([]string, 0, len(bulk))
				for name := range bulk {
					names = append(names, name)
				}
				sort.Strings(names)
				logger.Debugf("secret store %s keys: %v", cfg.Secrets.StoreName, names)
			}
		}
	}

	// Wire the identity issuer and the call redirector
	var issuer registry.Issuer
	var redirector events.Redirector = noRedirector{}
	if cfg.ACS.ConnectionString != "" {
		cs, err := acs.ParseConnectionString(cfg.ACS.ConnectionString)
		if err != nil {
			logger.Fatalf("invalid connection string: %v", err)
		}
		issuer = acs.NewIdentityClient(cs)
		redirector = acs.NewCallAutomationClient(cs)
	}
	if cfg.ACS.LocalIssuer {
		logger.Warn("using local dev issuer instead of the platform identity API")
		issuer = acs.NewLocalIssuer(cfg.ACS.LocalIssuerSecret)
	}
	if issuer == nil {
		logger.Fatalf("no identity issuer available; check credentials configuration")
	}

	// User registry: bootstrap an empty file on first run, then construct.
	// Load failures after bootstrap (e.g. a corrupt file) are fatal.
	if err := registry.Bootstrap(cfg.Registry.FilePath); err != nil {
		logger.Fatalf("failed to bootstrap registry file: %v", err)
	}
	store, err := registry.NewStore(cfg.Registry.FilePath, cfg.Registry.LockTimeout, issuer)
	if err != nil {
		logger.Fatalf("failed to load user registry: %v", err)
	}

	router := events.NewRouter(redirector, cfg.Routing.RedirectTarget, cfg.Routing.NativePrefix)

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate-limiter can use it when configured
	var importedRedis *redis.Client
	if cfg.Redis.Host != "" {
		importedRedis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password})
		if err := importedRedis.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			importedRedis = nil
		} else {
			logger.Infof("connected to Redis for rate limiting: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	// Optional global rate limiter (per client IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && importedRedis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(importedRedis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["registry"] = store != nil
		deps["issuer"] = issuer != nil

		// Redis readiness only matters when the limiter depends on it
		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = importedRedis != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// API routes
	handlers.RegisterRoot(r)
	handlers.RegisterSwagger(r)
	handlers.NewUserHandler(store).Register(r.Group("/"))
	handlers.NewEventsHandler(router).Register(r.Group("/"))

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting call-routing backend on %s (redirect target %s)", addr, cfg.Routing.RedirectTarget)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
