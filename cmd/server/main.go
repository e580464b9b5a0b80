package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"churchadmin/docs" // swagger docs
	"churchadmin/internal/archive"
	"churchadmin/internal/auth"
	"churchadmin/internal/cache"
	"churchadmin/internal/config"
	"churchadmin/internal/db"
	"churchadmin/internal/handler"
	"churchadmin/internal/logger"
	"churchadmin/internal/model"
	"churchadmin/internal/notify"
	"churchadmin/internal/repository"
	"churchadmin/internal/router"
	"churchadmin/internal/service"
)

// @title Church Administration API
// @version 1.0
// @description Members, ministries, events, announcements, messaging and church finances with role-based access control.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.WithError(err).Fatal("database init")
	}

	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
		models := model.AllModels()
		for i := len(models) - 1; i >= 0; i-- {
			if err := gormDB.Migrator().DropTable(models[i]); err != nil {
				log.WithError(err).Warn("failed to drop table (may not exist)")
			}
		}
	}

	if err := gormDB.AutoMigrate(model.AllModels()...); err != nil {
		log.WithError(err).Fatal("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("redis unreachable, caching and rate limiting degrade to pass-through")
	}
	cancelPing()

	publisher := newPublisher(cfg.Notify, log)
	if closer, ok := publisher.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	uploader := newUploader(cfg.Archive, log)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	roleRepo := repository.NewRoleRepository(gormDB)
	ministryRepo := repository.NewMinistryRepository(gormDB)
	eventRepo := repository.NewEventRepository(gormDB)
	announcementRepo := repository.NewAnnouncementRepository(gormDB)
	messageRepo := repository.NewMessageRepository(gormDB)
	contributionRepo := repository.NewContributionRepository(gormDB)
	donationRepo := repository.NewDonationRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	now := time.Now
	identityService := service.NewIdentityService(userRepo, cacheClient, 0)
	authService := service.NewAuthService(userRepo, roleRepo, jwtService, tokenStore, cfg.BcryptCost)
	userService := service.NewUserService(userRepo, roleRepo, ministryRepo, identityService, cfg.BcryptCost)
	ministryService := service.NewMinistryService(ministryRepo, userRepo, now)
	eventService := service.NewEventService(eventRepo, userRepo, publisher, now)
	announcementService := service.NewAnnouncementService(announcementRepo, now)
	messageService := service.NewMessageService(messageRepo, userRepo, ministryRepo, publisher, now)
	financeService := service.NewFinanceService(
		contributionRepo, donationRepo, userRepo, ministryRepo,
		publisher, uploader,
		service.FinanceOptions{AllowConfirmedEdits: cfg.AllowConfirmedEdits},
		now,
	)
	dashboardService := service.NewDashboardService(service.DashboardDeps{
		Users:         userRepo,
		Events:        eventRepo,
		Ministries:    ministryRepo,
		Announcements: announcementRepo,
		Messages:      messageRepo,
		Contributions: contributionRepo,
		Finance:       financeService,
	}, now)

	// Initialize handlers
	pager := handler.Pager{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}

	e := echo.New()
	router.Register(e, cfg, router.Deps{
		JWT:         jwtService,
		Revocations: tokenStore,
		Identities:  identityService,
		Redis:       cacheClient.Redis(),
		Log:         log,
	}, router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService, financeService, pager),
		Ministry:     handler.NewMinistryHandler(ministryService, financeService, pager),
		Event:        handler.NewEventHandler(eventService, pager),
		Announcement: handler.NewAnnouncementHandler(announcementService, pager),
		Message:      handler.NewMessageHandler(messageService, pager),
		Finance:      handler.NewFinanceHandler(financeService, pager),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		log.WithField("addr", addr).Info("server starting, swagger at /swagger/index.html")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server start")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
}

func newPublisher(cfg config.NotifyConfig, log *logrus.Logger) notify.Publisher {
	if cfg.URL == "" {
		log.Info("AMQP_URL not set, domain events are discarded")
		return notify.Noop{}
	}
	p, err := notify.NewAMQPPublisher(cfg.URL, cfg.Queue, cfg.BufferSize, log)
	if err != nil {
		log.WithError(err).Warn("notification broker unavailable, domain events are discarded")
		return notify.Noop{}
	}
	return p
}

func newUploader(cfg config.ArchiveConfig, log *logrus.Logger) archive.Uploader {
	if cfg.Bucket == "" {
		return archive.Disabled{}
	}
	u, err := archive.NewS3Uploader(context.Background(), cfg.Bucket, cfg.Prefix, cfg.Region)
	if err != nil {
		log.WithError(err).Warn("report archive unavailable")
		return archive.Disabled{}
	}
	return u
}
