package cli

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tgienger/todo/internal/api"
	"github.com/tgienger/todo/internal/config"
	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/localstore"
	"github.com/tgienger/todo/internal/logging"
	"github.com/tgienger/todo/internal/session"
	"github.com/tgienger/todo/internal/store"
)

// env is everything a client-side command needs
type env struct {
	cfg     *config.Config
	logger  *log.Logger
	db      *db.DB
	client  *api.Client
	session *session.Session
	store   *store.Store
	closers []func() error
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openEnv loads config and opens the local database, the session and the
// store. The store is empty until load is called.
func openEnv(cmd *cobra.Command, logToFile bool) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}
	if logToFile {
		logger, f, err := logging.NewFile(cfg.LogPath(), cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to open log: %w", err)
		}
		e.logger = logger
		e.closers = append(e.closers, f.Close)
	} else {
		e.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	}

	e.db, err = db.New(cfg.ClientDBPath())
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	e.closers = append(e.closers, e.db.Close)

	e.client = api.NewClient(cfg.APIURL, nil)
	e.session, err = session.New(e.db, e.client, e.logger)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.client.SetTokenSource(e.session)

	e.store = store.New(
		localstore.New(e.db, cfg.StorageKey),
		store.NewRemote(e.client, e.logger),
		e.session,
		store.WithLogger(e.logger),
	)
	return e, nil
}

// load reads the list from the active backend
func (e *env) load(cmd *cobra.Command) error {
	if err := e.store.Reload(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load todos: %w", err)
	}
	return nil
}

// Close releases everything in reverse order of opening
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
