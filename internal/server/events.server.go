package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"events-service/internal/config"
	"events-service/internal/events"
	"events-service/internal/handler"
	"events-service/internal/repository"
	"events-service/internal/repository/cached"
	"events-service/internal/repository/memstore"
	"events-service/internal/repository/postgres"
	"events-service/internal/router"
	"events-service/internal/service"
	"events-service/internal/usecase"
	"events-service/pkg/auth/jwtutil"
	"events-service/pkg/cache"
	"events-service/pkg/middleware"
)

const serviceName = "events-service"

type Server struct {
	HTTP   *http.Server
	GRPC   *grpc.Server
	health *health.Server
	logger *zap.Logger

	db        repository.Database
	rdb       *redis.Client
	publisher events.Publisher
}

// NewLogger builds the process logger: development output for APP_ENV
// development, JSON otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func NewServer(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*Server, error) {
	// --- Store ---
	db, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// --- Redis client ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, rate limiting and result cache degrade to pass-through",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancel()
	rc := cache.FromClient(rdb)

	// --- Publisher ---
	publisher := newPublisher(cfg, rdb, logger)

	// --- Usecase ---
	opts := []usecase.Option{usecase.WithPublisher(publisher)}
	if cfg.ResultCacheTTL > 0 {
		opts = append(opts, usecase.WithResults(func(next repository.EventResultRepository) repository.EventResultRepository {
			return cached.NewResults(next, rc, cfg.ResultCacheTTL, logger)
		}))
	}
	uc := usecase.NewRegistrationUsecase(db, cfg.Limits, logger, opts...)

	// --- Auth ---
	verifier, err := jwtutil.LoadVerifier(jwtutil.JWTConfig{
		PubPath:  cfg.JWTPublicKeyPath,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		KeyPaths: cfg.JWTKeyPaths,
	})
	if err != nil {
		db.Close()
		_ = rdb.Close()
		return nil, err
	}
	auth := middleware.NewAuthMiddleware(verifier, logger)

	// --- HTTP router ---
	h := handler.NewEventsHandler(uc, logger)
	r := router.SetupRoutes(chi.NewRouter(), h, auth, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   middleware.RateLimiter(rc, cfg.RateLimitPerMinute, time.Minute, "events:ratelimit", logger),
		TrustProxy:  cfg.TrustProxy,
		Logger:      logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- gRPC server ---
	grpcSrv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, hs)
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	// enable reflection for grpcurl / evans
	reflection.Register(grpcSrv)

	return &Server{
		HTTP:      httpSrv,
		GRPC:      grpcSrv,
		health:    hs,
		logger:    logger,
		db:        db,
		rdb:       rdb,
		publisher: publisher,
	}, nil
}

// OpenStore picks the storage backend from STORE_DRIVER. The memory store is
// seeded from SEED_FILE when that file exists.
func OpenStore(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (repository.Database, error) {
	switch cfg.StoreDriver {
	case "memory":
		db := memstore.New()
		if _, err := os.Stat(cfg.SeedFile); err == nil {
			f, err := service.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				return nil, err
			}
			if err := service.NewSeeder(db, logger).Apply(ctx, f); err != nil {
				return nil, fmt.Errorf("seed memory store: %w", err)
			}
		}
		logger.Info("using in-memory store")
		return db, nil
	case "postgres", "":
		pool, err := config.ConnectDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func newPublisher(cfg config.AppConfig, rdb *redis.Client, logger *zap.Logger) events.Publisher {
	switch cfg.EventsBackend {
	case "kafka":
		logger.Info("publishing registration events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger), logger)
	case "redis":
		logger.Info("publishing registration events to redis", zap.String("channel", cfg.RedisChannel))
		return events.NewRedisPublisher(rdb, cfg.RedisChannel, logger)
	default:
		return events.Noop{}
	}
}

// StartGRPC runs the gRPC server on grpcAddr.
func (s *Server) StartGRPC(grpcAddr string) error {
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return err
	}
	s.logger.Info("events gRPC service listening", zap.String("addr", grpcAddr))
	return s.GRPC.Serve(lis)
}

func (s *Server) StartHTTP() error {
	s.logger.Info("events HTTP service listening", zap.String("addr", s.HTTP.Addr))
	if err := s.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains both servers and releases the store, redis and publisher.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()
	if err := s.HTTP.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shutdown HTTP server", zap.Error(err))
	}
	s.GRPC.GracefulStop()

	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("failed to close publisher", zap.Error(err))
	}
	if err := s.rdb.Close(); err != nil {
		s.logger.Warn("failed to close redis client", zap.Error(err))
	}
	s.db.Close()
}
