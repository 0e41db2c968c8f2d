package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"checkout/pkg/auth"
	"checkout/pkg/config"
	"checkout/pkg/domain/service"
	"checkout/pkg/gateway/razorpay"
	"checkout/pkg/infrastructure/event"
	"checkout/pkg/infrastructure/mysql"
	"checkout/pkg/notifier"
	"checkout/transport"
)

const appID = "checkout"

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	app := &cli.App{
		Name:  appID,
		Usage: "order/payment reconciliation service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: runMigrations,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("application failed")
	}
}

func serve(_ *cli.Context) error {
	cfg, err := config.Parse(appID)
	if err != nil {
		return err
	}

	db, err := sqlx.Open("mysql", cfg.DatabaseDSN)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return errors.Wrap(err, "ping database")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
	defer redisClient.Close()

	repo := mysql.NewOrderRepository(db)
	dispatcher := event.LogDispatcher{}
	gateway := razorpay.NewClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)

	server := transport.NewServer(
		service.NewOrderService(repo, gateway, dispatcher, cfg.RazorpayKeyID, cfg.Currency),
		service.NewPaymentService(repo, dispatcher, cfg.RazorpayKeySecret),
		auth.NewTokenManager(cfg.AuthSecret),
		notifier.NewPublisher(notifier.NewRedisChannel(redisClient)),
	)

	killSignalChan := getKillSignalChan()
	srv := startServer(cfg.ServeRESTAddress, server.Router())

	waitForKillSignal(killSignalChan)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runMigrations(_ *cli.Context) error {
	cfg, err := config.Parse(appID)
	if err != nil {
		return err
	}
	if err := mysql.Migrate(cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}

func startServer(address string, handler http.Handler) *http.Server {
	log.WithFields(log.Fields{"url": address}).Info("Starting server")
	srv := &http.Server{Addr: address, Handler: handler}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()
	return srv
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func waitForKillSignal(killSignalChan <-chan os.Signal) {
	killSignal := <-killSignalChan
	switch killSignal {
	case os.Interrupt:
		log.Info("Got SIGINT...")
	case syscall.SIGTERM:
		log.Info("Got SIGTERM...")
	}
}
