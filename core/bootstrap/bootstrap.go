// Package bootstrap builds the infrastructure shared by the bot handlers.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/damagebot/core/agent"
	coreconfig "github.com/m3rciful/damagebot/core/config"
	coredatabase "github.com/m3rciful/damagebot/core/database"
	"github.com/m3rciful/damagebot/core/logger"
	"github.com/m3rciful/damagebot/core/session"
)

// Options controls Run. Nil hooks fall back to the real implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result holds what Run built.
type Result struct {
	// DB is nil when no journal database is configured.
	DB       *sqlx.DB
	Journal  coredatabase.Journal
	Sessions *session.Store
	Agent    *agent.Client
}

// Close releases the database handle, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, opens the optional journal database, applies
// its migrations and builds the session store and backend client.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{
		Journal:  coredatabase.NopJournal{},
		Sessions: session.NewStore(),
		Agent: agent.New(agent.Options{
			BaseURL: cfg.Agent.BaseURL,
			Timeout: time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
		}),
	}

	if !cfg.Database.Enabled() {
		logger.DB.Info("journal disabled",
			slog.String("event", "db.journal"),
			slog.String("status", "skip"),
		)
		return res, nil
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	res.DB = db
	res.Journal = coredatabase.NewJournal(db)
	return res, nil
}
