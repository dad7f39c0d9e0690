package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/linemk/perfume-shop/internal/app"
	"github.com/linemk/perfume-shop/internal/config"
	security "github.com/linemk/perfume-shop/internal/jwt-new"
	"github.com/linemk/perfume-shop/internal/lib/logger"
	"github.com/linemk/perfume-shop/internal/notify"
	"github.com/linemk/perfume-shop/internal/service"
	"github.com/linemk/perfume-shop/internal/storage"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	// слой хранения
	accountRepo := storage.NewAccountRepository(application.DB)
	profileRepo := storage.NewProfileRepository(application.DB)
	catalogRepo := storage.NewCatalogRepository(application.DB)
	offerRepo := storage.NewOfferRepository(application.DB)
	reviewRepo := storage.NewReviewRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	tokens, err := security.NewTokenIssuer(
		cfg.JWT.Secret,
		cfg.JWT.AccessTTL(),
		cfg.JWT.RefreshLifetime(),
		cfg.JWT.RememberMeLifetime(),
	)
	if err != nil {
		panic(errors.Wrap(err, "failed to create token issuer"))
	}

	// письма уходят в фоне и не блокируют ответ
	dispatcher := notify.NewAsyncDispatcher(
		log,
		notify.NewRenderer(cfg.Mail.SiteURL),
		newMailSender(log, cfg.Mail),
		cfg.Mail.QueueSize,
	)

	provisioner := service.NewProvisioner(log, accountRepo, profileRepo)
	services := Services{
		Accounts: service.NewAccountService(log, application.DB, accountRepo, profileRepo, tokens, dispatcher),
		Catalog:  service.NewCatalogService(log, catalogRepo, reviewRepo, accountRepo),
		Offers:   service.NewOfferService(log, offerRepo, catalogRepo, accountRepo, profileRepo, dispatcher),
		Reviews:  service.NewReviewService(log, reviewRepo, catalogRepo, offerRepo, accountRepo),
		Orders:   service.NewOrderService(log, application.DB, accountRepo, orderRepo, provisioner, dispatcher),
	}

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      NewRouter(log, cfg.JWT.Secret, services),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	// дописываем письма, которые уже в очереди
	if err := dispatcher.Close(ctx); err != nil {
		log.Error("mail queue was not drained", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}

func newMailSender(log *slog.Logger, cfg config.MailConfig) notify.Sender {
	if cfg.Transport == "smtp" {
		return notify.NewSMTPSender(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.From)
	}
	return notify.NewLogSender(log)
}
