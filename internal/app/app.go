package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ray-SDJ/comparison/internal/cache"
	"github.com/ray-SDJ/comparison/internal/config"
	dom "github.com/ray-SDJ/comparison/internal/domain"
	"github.com/ray-SDJ/comparison/internal/handlers"
	"github.com/ray-SDJ/comparison/internal/middleware"
	"github.com/ray-SDJ/comparison/internal/repo"
	"github.com/ray-SDJ/comparison/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    config.Config
	db     *pgxpool.Pool
	redis  *redis.Client
	router *gin.Engine
}

// New connects to Postgres, applies migrations, connects to Redis when
// configured and builds the router. Storage errors wrap
// domain.ErrStorageUnavailable.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{cfg: cfg}

	db, err := newPostgres(ctx, cfg.PG)
	if err != nil {
		return nil, err
	}
	a.db = db

	if err := repo.Migrate(ctx, db); err != nil {
		a.db.Close()
		return nil, err
	}

	var userCache *cache.UserCache
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			a.db.Close()
			return nil, err
		}
		a.redis = rdb
		userCache = cache.NewUserCache(rdb, cfg.Redis.DefaultTTL.Duration())
	} else {
		log.Printf("REDIS_ADDR not set, user cache disabled")
	}

	userRepo := repo.NewPGUserRepo(db)
	userSvc := service.NewUserService(userRepo, userCache)
	a.router = newRouter(cfg, userSvc, userRepo)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Run serves HTTP until ctx is cancelled, then shuts the server down
// gracefully within HTTP_SHUTDOWN_TIMEOUT.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         a.cfg.HTTP.Addr(),
		Handler:      a.router,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: a.cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  a.cfg.HTTP.IdleTimeout.Duration(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the Redis client and the Postgres pool.
func (a *App) Close() error {
	var err error
	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil {
			err = fmt.Errorf("redis close: %w", cerr)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	return err
}

func newPostgres(ctx context.Context, cfg config.PGConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: pg parse config: %v", dom.ErrStorageUnavailable, err)
	}
	pcfg.MaxConns = cfg.MaxConns
	pcfg.MinConns = cfg.MinConns
	pcfg.MaxConnIdleTime = 5 * time.Minute
	pcfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("%w: pg connect: %v", dom.ErrStorageUnavailable, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pg ping: %v", dom.ErrStorageUnavailable, err)
	}

	return pool, nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opt := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func newRouter(cfg config.Config, users handlers.UserService, db Pinger) *gin.Engine {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORSHeaders())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, users, db)
	return r
}
