// Package app assembles the services from configuration. It is shared by
// the HTTP server and the operator CLI so both run the same wiring.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/api"
	"github.com/ignite/mailing-admin/internal/auth"
	"github.com/ignite/mailing-admin/internal/config"
	"github.com/ignite/mailing-admin/internal/pkg/cache"
	"github.com/ignite/mailing-admin/internal/pkg/distlock"
	"github.com/ignite/mailing-admin/internal/pkg/metrics"
	"github.com/ignite/mailing-admin/internal/repository/postgres"
	"github.com/ignite/mailing-admin/internal/service/client"
	"github.com/ignite/mailing-admin/internal/service/mailing"
	"github.com/ignite/mailing-admin/internal/service/message"
	"github.com/ignite/mailing-admin/internal/service/sending"
	"github.com/ignite/mailing-admin/internal/service/stats"
	"github.com/ignite/mailing-admin/internal/service/user"
	"github.com/ignite/mailing-admin/internal/storage"
	"github.com/ignite/mailing-admin/internal/transport"
)

// mediaPrefix is where locally stored avatars are served from.
const mediaPrefix = "/media/"

// avatarStore is both written by the user service and probed by /health.
type avatarStore interface {
	user.AvatarStore
	api.ObjectStore
}

// App holds the wired services and the connections they share.
type App struct {
	Config *config.Config
	DB     *sql.DB
	// Redis is nil when no address is configured.
	Redis   *redis.Client
	Metrics *metrics.Metrics
	// Tokens is nil when no JWT secret is configured.
	Tokens *auth.TokenManager

	Users      *user.Service
	Clients    *client.Service
	Messages   *message.Service
	Mailings   *mailing.Service
	Stats      *stats.Service
	Dispatcher *sending.Dispatcher

	avatars  avatarStore
	mediaDir string
	log      *zap.Logger
}

// New connects to the database (and Redis when configured) and builds every
// service. reg receives the application metrics.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, log *zap.Logger) (*App, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: db, Metrics: metrics.New(reg), log: log}

	var statsCache stats.Cache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		rc, err := cache.Connect(ctx, cache.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			db.Close()
			return nil, err
		}
		a.Redis = rc
		statsCache = cache.NewRedis(rc)
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Warn("redis not configured, using in-process stats cache")
	}

	if cfg.Auth.JWTSecret != "" {
		a.Tokens, err = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	if a.avatars, err = a.newAvatarStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	clientRepo := postgres.NewClientRepo(db)
	messageRepo := postgres.NewMessageRepo(db)
	mailingRepo := postgres.NewMailingRepo(db)

	a.Stats = stats.NewService(postgres.NewStatsRepo(db), statsCache, cfg.Cache.StatsTTL(), log)
	a.Users = user.NewService(postgres.NewUserRepo(db), a.avatars, log)
	a.Clients = client.NewService(clientRepo, a.Stats, log)
	a.Messages = message.NewService(messageRepo, a.Stats, log)
	a.Mailings = mailing.NewService(mailingRepo, mailingRepo, messageRepo, clientRepo,
		mailing.WithInvalidator(a.Stats),
		mailing.WithLogger(log),
	)

	mailer, err := newTransport(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	opts := []sending.Option{
		sending.WithLogger(log),
		sending.WithMetrics(a.Metrics),
		sending.WithSendTimeout(cfg.Mail.Timeout()),
	}
	if cfg.Mail.Personalize {
		opts = append(opts, sending.WithRenderer(transport.NewLiquid()))
	}
	if cfg.Dispatch.LockEnabled {
		opts = append(opts, sending.WithLocks(distlock.NewFactory(a.Redis, db, cfg.Dispatch.LockTTL())))
	}
	a.Dispatcher = sending.NewDispatcher(mailingRepo, messageRepo, mailingRepo, mailer, cfg.Mail.From, opts...)

	return a, nil
}

// newTransport picks the mail transport named by mail.provider.
func newTransport(ctx context.Context, cfg *config.Config, log *zap.Logger) (sending.Transport, error) {
	switch strings.ToLower(cfg.Mail.Provider) {
	case "ses":
		return transport.NewSES(ctx, transport.SESOptions{
			Region:    cfg.SES.Region,
			AccessKey: cfg.SES.AccessKey,
			SecretKey: cfg.SES.SecretKey,
		}, log)
	case "log":
		return transport.NewLog(log), nil
	}
	return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
}

// newAvatarStore uses S3 when a bucket is configured and the local media
// directory otherwise.
func (a *App) newAvatarStore(ctx context.Context) (avatarStore, error) {
	sc := a.Config.Storage
	if sc.S3Bucket != "" {
		return storage.NewS3Store(ctx, sc.S3Bucket, sc.AWSRegion, sc.PublicBaseURL)
	}
	base := sc.PublicBaseURL
	if base == "" {
		base = strings.TrimSuffix(mediaPrefix, "/")
	}
	a.mediaDir = sc.LocalDir
	return storage.NewLocalStore(sc.LocalDir, base)
}

// Router builds the HTTP handler for the API.
func (a *App) Router(gatherer prometheus.Gatherer) *chi.Mux {
	r := api.NewRouter(api.Deps{
		Clients:        a.Clients,
		Messages:       a.Messages,
		Mailings:       a.Mailings,
		Dispatcher:     a.Dispatcher,
		Stats:          a.Stats,
		Profiles:       a.Users,
		Tokens:         a.Tokens,
		Health:         api.NewHealthChecker(a.DB, a.Redis, a.avatars),
		Metrics:        a.Metrics,
		Gatherer:       gatherer,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		Log:            a.log,
	})
	if a.mediaDir != "" {
		r.Handle(mediaPrefix+"*", http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(a.mediaDir))))
	}
	return r
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
