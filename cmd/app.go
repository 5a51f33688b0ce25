package cmd

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/recurrent-payments/internal"
	"github.com/frahmantamala/recurrent-payments/internal/billing"
	billingpostgres "github.com/frahmantamala/recurrent-payments/internal/billing/postgres"
	"github.com/frahmantamala/recurrent-payments/internal/consumer"
	consumerpostgres "github.com/frahmantamala/recurrent-payments/internal/consumer/postgres"
	"github.com/frahmantamala/recurrent-payments/internal/core/events"
	"github.com/frahmantamala/recurrent-payments/internal/jobs"
	jobspostgres "github.com/frahmantamala/recurrent-payments/internal/jobs/postgres"
	"github.com/frahmantamala/recurrent-payments/internal/notification"
	notificationpostgres "github.com/frahmantamala/recurrent-payments/internal/notification/postgres"
	"github.com/frahmantamala/recurrent-payments/internal/payment"
	paymentpostgres "github.com/frahmantamala/recurrent-payments/internal/payment/postgres"
	"github.com/frahmantamala/recurrent-payments/internal/paymentcontext"
	contextpostgres "github.com/frahmantamala/recurrent-payments/internal/paymentcontext/postgres"
	"github.com/frahmantamala/recurrent-payments/internal/paymentgateway"
	"github.com/frahmantamala/recurrent-payments/internal/recurrent"
	recurrentpostgres "github.com/frahmantamala/recurrent-payments/internal/recurrent/postgres"
	"github.com/frahmantamala/recurrent-payments/internal/worker"
	"github.com/frahmantamala/recurrent-payments/pkg/logger"
)

// App holds every long lived component shared by the server, worker and run commands.
type App struct {
	Config   *internal.Config
	Logger   *slog.Logger
	SQL      *sqlx.DB
	DB       *gorm.DB
	Pool     *worker.Pool
	Jobs     *jobs.Service
	Attempts *recurrent.StateMachine
	Payments *payment.Service
}

func newApp(configDir string) (*App, error) {
	config, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	sqlDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	contextRepo := contextpostgres.NewContextRepository(db)
	consumers := consumer.NewService(consumerpostgres.NewConsumerRepository(db), log)
	contexts := paymentcontext.NewService(contextRepo, log)
	payments := payment.NewService(paymentpostgres.NewPaymentRepository(db), log)
	bills := billing.NewService(billingpostgres.NewReceiptRepository(db), consumers, payments, log)
	attemptRepo := recurrentpostgres.NewRecurrentPaymentRepository(db)

	bus := events.NewEventBus(log)
	dispatcher := notification.NewDispatcher(
		notificationpostgres.NewMessageRepository(db), contextRepo, consumers, log,
		notification.Config{ServerURL: config.Notification.ServerURL})
	notification.NewEventHandler(dispatcher, log).RegisterEventHandlers(bus)

	rc := config.Recurrent
	pool := worker.NewPool(worker.Config{
		MaxWorkers:   rc.MaxWorkers,
		JobQueueSize: rc.JobQueueSize,
		UnitTimeout:  rc.UnitTimeout,
	}, log)

	machine := recurrent.NewStateMachine(attemptRepo, bus, log, recurrent.Config{
		RetryCount:    rc.RetryCount,
		ReadyLookback: rc.ReadyLookback,
	})

	service := jobs.NewService(jobs.Dependencies{
		Contexts:  contexts,
		Bills:     bills,
		Machine:   machine,
		Registrar: recurrent.NewRegistrar(contexts, bills, paymentgateway.NewRegistrar(consumers, payments, log), attemptRepo, log),
		Gateway:   paymentgateway.NewClient(paymentgateway.Config{RequestTimeout: config.Gateway.RequestTimeout}, log),
		Notifier:  dispatcher,
		Cursors:   jobspostgres.NewCursorRepository(db),
		Runner:    pool,
	}, jobs.Config{PageSize: rc.PageSize, RemindDaysAhead: rc.RemindDaysAhead}, log)

	return &App{
		Config:   config,
		Logger:   log,
		SQL:      sqlDB,
		DB:       db,
		Pool:     pool,
		Jobs:     service,
		Attempts: machine,
		Payments: payments,
	}, nil
}

func (a *App) ping(ctx context.Context) error {
	return a.SQL.PingContext(ctx)
}

func (a *App) Close() {
	a.Pool.Shutdown()
	if err := a.SQL.Close(); err != nil {
		a.Logger.Error("database close error", "error", err)
	}
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
