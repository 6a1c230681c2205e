package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thenamerahulkr/cems/internal/api"
	"github.com/thenamerahulkr/cems/internal/config"
	"github.com/thenamerahulkr/cems/internal/db"
	"github.com/thenamerahulkr/cems/internal/logger"
	"github.com/thenamerahulkr/cems/internal/mailer"
	"github.com/thenamerahulkr/cems/internal/notify"
	"github.com/thenamerahulkr/cems/internal/outbox"
	"github.com/thenamerahulkr/cems/internal/payment"
	"github.com/thenamerahulkr/cems/internal/qr"
	"github.com/thenamerahulkr/cems/internal/storage"
	"github.com/thenamerahulkr/cems/internal/worker"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer zap.L().Sync() //nolint:errcheck

	postgresDB, err := OpenDatabase(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	banners, err := storage.NewCloudinary(conf.Cloudinary.URL, conf.Cloudinary.BannerFolder)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage -> %w", err)
	}

	loc, err := time.LoadLocation(conf.Reminder.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load reminder timezone -> %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub()
	s := api.NewServer(conf, postgresDB, api.Integrations{
		Hub:     hub,
		Gateway: payment.NewRazorpay(conf.Razorpay.KeyID, conf.Razorpay.KeySecret),
		Tickets: qr.NewIssuer(conf.QR.SigningKey, conf.QR.Grace, conf.QR.Size),
		Storage: banners,
	})

	if err = s.EnsureAdmin(ctx); err != nil {
		return fmt.Errorf("failed to create the admin account -> %w", err)
	}

	transport, closeTransport, err := newTransport(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize mail transport -> %w", err)
	}
	defer closeTransport()

	relay := outbox.NewRelay(s.Outbox(), transport, conf.Outbox.PollInterval, conf.Outbox.BatchSize, conf.Outbox.MaxAttempts)

	var wg sync.WaitGroup
	background := func(run func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(ctx)
		}()
	}

	background(hub.Run)
	background(relay.Run)

	if conf.Reminder.Enabled {
		job, err := worker.NewReminderJob(s.Reminders(loc), conf.Reminder.Schedule, loc)
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("failed to schedule reminders -> %w", err)
		}
		background(job.Start)
	}

	srv := &http.Server{
		Addr:              ":" + conf.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		stop()
		wg.Wait()
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.API.ShutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("graceful shutdown failed", zap.Error(err))
	}
	wg.Wait()

	return nil
}

// OpenDatabase prefers DATABASE_URL over the postgres block.
func OpenDatabase(conf *config.AppConfig) (*gorm.DB, error) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return db.OpenPostgresWithURL(dbURL)
	}

	return db.OpenPostgres(conf.Postgres)
}

// newTransport publishes mail to Kafka for cmd/mailer when enabled and
// sends it in process otherwise.
func newTransport(conf *config.AppConfig) (outbox.Transport, func(), error) {
	if conf.Kafka.Enabled {
		t := outbox.NewKafkaTransport(conf.Kafka)
		return t, func() {
			if err := t.Close(); err != nil {
				zap.L().Warn("failed to close kafka writer", zap.Error(err))
			}
		}, nil
	}

	renderer, err := mailer.NewRenderer()
	if err != nil {
		return nil, nil, err
	}

	return outbox.NewMailTransport(renderer, mailer.New(conf.Mail)), func() {}, nil
}
