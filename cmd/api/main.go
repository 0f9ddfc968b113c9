package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rosadoagency/appointment-api/internal/config"
	gateway "github.com/rosadoagency/appointment-api/internal/gateways"
	"github.com/rosadoagency/appointment-api/internal/handlers"
	"github.com/rosadoagency/appointment-api/internal/idempotency"
	"github.com/rosadoagency/appointment-api/internal/model"
	"github.com/rosadoagency/appointment-api/internal/repository"
	"github.com/rosadoagency/appointment-api/internal/scheduler"
	"github.com/rosadoagency/appointment-api/internal/services"
	xhttp "github.com/rosadoagency/appointment-api/pkg/http"
	"github.com/rosadoagency/appointment-api/pkg/logger"
	"github.com/rosadoagency/appointment-api/pkg/pg"
	"github.com/rosadoagency/appointment-api/pkg/prom"
	"github.com/rosadoagency/appointment-api/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer logger.Sync()

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	loc := cfg.Location()
	logger.Info("starting appointment api", "version", version, "commit", commit, "date", date, "timezone", loc.String())

	// transport
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.UseDefaultChain(xhttp.ChainOption{
		CorsAllowOrigin: cfg.HttpCorsAllowOrigin,
		RequestTimeout:  cfg.HttpRequestTimeout,
		// sends and sweeps are bounded by NOTIFIER_TIMEOUT and SWEEP_TIMEOUT
		TimeoutExempt: []string{cfg.HttpBaseRequestUrl + "/reminders/"},
		CompressLevel: 6,
	})

	readConf := pg.Config{
		User:     cfg.PostgresReadUser,
		Host:     cfg.PostgresReadHost,
		Port:     cfg.PostgresReadPort,
		Password: cfg.PostgresReadPassword,
		Database: cfg.PostgresReadDatabase,
		SSLMode:  cfg.PostgresSSLMode,
	}
	writeConf := pg.Config{
		User:     cfg.PostgresWriteUser,
		Host:     cfg.PostgresWriteHost,
		Port:     cfg.PostgresWritePort,
		Password: cfg.PostgresWritePassword,
		Database: cfg.PostgresWriteDatabase,
		SSLMode:  cfg.PostgresSSLMode,
	}

	db, err := pg.CreateReadWrite(readConf, writeConf, pg.DefaultPoolConfig, cfg.AppEnv == "dev")
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	// the dispatch lock is shared between replicas only when redis is configured
	var (
		locker    idempotency.Locker = idempotency.NewLocalLocker()
		redisAdap redis.RedisAdapter
	)
	if cfg.RedisAddr != "" {
		redisAdap, err = redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{cfg.RedisAddr},
			ClientName: cfg.AppName,
			DB:         cfg.RedisDatabase,
			Username:   cfg.RedisUsername,
			Password:   cfg.RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		lockCfg := idempotency.DefaultConfig()
		lockCfg.LockTTL = cfg.DispatchLockTTL
		locker = idempotency.NewRedisLocker(redisAdap, lockCfg)
	} else {
		logger.Warn("REDIS_ADDR is not set, reminder dispatch lock is process local")
	}

	notifier, closeNotifier, err := newNotifier(cfg)
	if err != nil {
		logger.Error("failed creating notifier", "error", err)
		return
	}

	if cfg.AppDebugMetricsAddr != "" {
		if err = prom.Create(cfg.HttpListenAddr, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Error("failed registering metrics", "error", err)
		}
	}

	appointmentRepo := repository.NewAppointmentRepository(db)

	// services
	appointmentService := services.NewAppointmentService(appointmentRepo, model.NewValidator(), loc)
	reminderService := services.NewReminderService(appointmentRepo, notifier, notifier, locker, services.ReminderConfig{
		Message: services.MessageConfig{
			From:        cfg.NotifierEmailFrom,
			AgencyName:  cfg.AgencyName,
			AgencyPhone: cfg.AgencyPhone,
			Location:    loc,
		},
		ChannelTimeout: cfg.NotifierTimeout,
	})
	sweepService := services.NewSweepService(appointmentRepo, reminderService, services.SweepConfig{
		Location:    loc,
		Concurrency: cfg.SweepConcurrency,
		Timeout:     cfg.SweepTimeout,
	})
	healthService := services.NewHealthService(db, cfg.AgencyName)
	if redisAdap != nil {
		healthService.WithRedis(redisAdap)
	}

	g := s.Router.Group(cfg.HttpBaseRequestUrl)
	handlers.RegisterAppointmentRoutes(g, handlers.NewAppointmentHandler(appointmentService))
	handlers.RegisterReminderRoutes(g, handlers.NewReminderHandler(reminderService, sweepService))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(healthService))

	var sched *scheduler.ReminderScheduler
	if cfg.ReminderEnabled {
		sched = scheduler.NewReminderScheduler(sweepService, cfg.ReminderCron, loc, cfg.SweepTimeout)
		if err = sched.Start(); err != nil {
			logger.Error("failed starting reminder scheduler", "error", err)
			return
		}
	}

	var metrics *xhttp.Engine
	if cfg.AppDebugMetricsAddr != "" {
		metrics = prom.NewServer(cfg.AppDebugMetricsURI)
		go func() {
			if err := metrics.ListenAndServe(cfg.AppDebugMetricsAddr); err != nil {
				logger.Error("error in running metrics server", "error", err)
			}
		}()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe(cfg.HttpListenAddr)
	}()

	select {
	case sig := <-c:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err = <-errCh:
		logger.Error("error in running http-server", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HttpShutdownTimeout)
	defer cancel()

	if err = s.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}
	if metrics != nil {
		_ = metrics.Shutdown(ctx)
	}
	if sched != nil {
		sched.Stop(ctx)
	}
	if err = closeNotifier(); err != nil {
		logger.Error("notifier close", "error", err)
	}
	if redisAdap != nil {
		_ = redisAdap.Close()
	}
	if err = db.Close(); err != nil {
		logger.Error("pg close", "error", err)
	}
	logger.Info("shutdown complete")
}

func newNotifier(cfg *config.Config) (gateway.Notifier, func() error, error) {
	switch strings.ToLower(cfg.NotifierDriver) {
	case config.NotifierDriverHTTP:
		client, err := gateway.NewClient(gateway.DefaultConfig(cfg.NotifierProviderUrl, cfg.NotifierFallbackUrl, cfg.NotifierTimeout))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using http notifier", "primary", cfg.NotifierProviderUrl, "fallback", cfg.NotifierFallbackUrl)
		return client, client.Close, nil
	default:
		logger.Info("using log notifier, reminders are not delivered")
		return gateway.NewLogNotifier(), func() error { return nil }, nil
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
