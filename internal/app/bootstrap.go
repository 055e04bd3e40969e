package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/config"
	"github.com/teemow/taskcal/internal/google"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/session"
	"github.com/teemow/taskcal/internal/storage"
	"github.com/teemow/taskcal/internal/task"
)

// Deps are the collaborators a host supplies to Open.
type Deps struct {
	Notifier Notifier
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
}

// Open builds an App from cfg: it opens the storage backend, loads the task
// snapshot and restores the stored credential. A failed read of either leaves
// that part empty and is logged, so task management still starts.
func Open(ctx context.Context, cfg config.Config, deps Deps) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger := logging.OrDiscard(deps.Logger)

	backend, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	store := task.NewStore(backend, cfg.Storage.Key, logger)
	if _, err := store.Load(ctx); err != nil {
		logger.WarnContext(ctx, "starting with an empty task list", logging.Backend(backend.Name()), logging.Err(err))
		deps.Metrics.RecordPersistenceFailure(ctx, instrumentation.OperationLoad, backend.Name())
	}

	sess := session.New(backend, logger)
	if err := sess.Restore(ctx); err != nil {
		logger.WarnContext(ctx, "starting signed out", logging.Err(err))
	}

	var oauthConf *oauth2.Config
	if cfg.Google.ClientID != "" {
		oauthConf = google.NewOAuthConfig(cfg.OAuthOptions())
	}

	cal := calendar.New(sess, calendar.Options{
		CalendarID:    cfg.Google.CalendarID,
		Location:      loc,
		EventDuration: cfg.EventDuration,
		APIKey:        cfg.Google.APIKey,
		Endpoint:      cfg.Google.Endpoint,
		OAuthConfig:   oauthConf,
		Metrics:       deps.Metrics,
		Logger:        logger,
	})

	return New(Options{
		Store:       store,
		Session:     sess,
		Calendar:    cal,
		OAuthConfig: oauthConf,
		Notifier:    deps.Notifier,
		Metrics:     deps.Metrics,
		Logger:      logger,
		SyncTimeout: cfg.SyncTimeout,
		Location:    loc,
		Closer:      backend.Close,
	}), nil
}
