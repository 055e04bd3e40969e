package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/oauth2"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/google"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/session"
	"github.com/teemow/taskcal/internal/task"
)

// Notification messages.
const (
	MsgTaskAdded          = "Task added!"
	MsgTaskNotAdded       = "Could not add task"
	MsgTaskNotSaved       = "Task saved in memory but could not be persisted"
	MsgTaskToggled        = "Task updated"
	MsgTasksCleared       = "All tasks cleared"
	MsgEventCreated       = "Task added to Google Calendar"
	MsgEventNotCreated    = "Could not add task to Google Calendar"
	MsgEventsUnavailable  = "Could not load calendar events"
	MsgSignedIn           = "Signed in with Google"
	MsgSignInFailed       = "Google sign-in failed"
	MsgSignedOut          = "Signed out"
	MsgCredentialNotSaved = "Signed in but the credential could not be saved"
)

// ErrTaskNotFound is returned by ToggleTask for an unknown ID.
var ErrTaskNotFound = errors.New("task not found")

// Options wires an App. Store and Session are required.
type Options struct {
	Store    *task.Store
	Session  *session.Session
	Calendar *calendar.Adapter

	// OAuthConfig is used by AuthURL and SignIn. Nil disables the code flow.
	OAuthConfig *oauth2.Config

	Notifier Notifier
	Metrics  *instrumentation.Metrics
	Logger   *slog.Logger

	// SyncTimeout bounds a background event creation. Zero means no limit.
	SyncTimeout time.Duration

	// Location is the time zone "today" is computed in (default: time.Local).
	Location *time.Location

	// Now overrides the clock, for tests.
	Now func() time.Time

	// Closer is called by Close, typically the storage backend.
	Closer func() error
}

// App is the Application Context.
type App struct {
	store    *task.Store
	session  *session.Session
	calendar *calendar.Adapter
	oauth    *oauth2.Config
	notifier Notifier
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
	timeout  time.Duration
	loc      *time.Location
	now      func() time.Time
	closer   func() error

	syncs sync.WaitGroup
}

// New creates an App.
func New(opts Options) *App {
	logger := logging.OrDiscard(opts.Logger)
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &App{
		store:    opts.Store,
		session:  opts.Session,
		calendar: opts.Calendar,
		oauth:    opts.OAuthConfig,
		notifier: notifier,
		metrics:  opts.Metrics,
		logger:   logger,
		timeout:  opts.SyncTimeout,
		loc:      loc,
		now:      now,
		closer:   opts.Closer,
	}
}

// Store returns the task store.
func (a *App) Store() *task.Store { return a.store }

// Session returns the sign-in session.
func (a *App) Session() *session.Session { return a.session }

// Calendar returns the calendar adapter, nil when calendar sync is not configured.
func (a *App) Calendar() *calendar.Adapter { return a.calendar }

// Today returns the current date in the configured time zone.
func (a *App) Today() civil.Date {
	return civil.DateOf(a.now().In(a.loc))
}

// AddTask stores a new task and returns it without waiting for calendar sync.
// A *task.ValidationError leaves the store unchanged. A *task.PersistenceError is
// returned together with the task, which stays in memory and is still synced.
func (a *App) AddTask(ctx context.Context, draft task.Draft) (task.Task, error) {
	t, err := a.store.Add(ctx, draft)
	var validation *task.ValidationError
	switch {
	case errors.As(err, &validation):
		a.metrics.RecordTaskOperation(ctx, instrumentation.OperationAdd, instrumentation.StatusError)
		a.notifier.Failure(ctx, MsgTaskNotAdded, err)
		return task.Task{}, err
	case err != nil:
		a.persistFailed(ctx, instrumentation.OperationAdd, err)
	default:
		a.metrics.RecordTaskOperation(ctx, instrumentation.OperationAdd, instrumentation.StatusSuccess)
		a.notifier.Success(ctx, MsgTaskAdded)
	}

	if t.HasSchedule() && a.calendarAvailable() {
		a.syncEvent(ctx, t)
	}
	return t, err
}

// ToggleTask flips the completed flag of id. An unknown id returns ErrTaskNotFound
// and writes nothing.
func (a *App) ToggleTask(ctx context.Context, id int64) (task.Task, error) {
	t, found, err := a.store.ToggleComplete(ctx, id)
	if !found {
		a.metrics.RecordTaskOperation(ctx, instrumentation.OperationToggle, instrumentation.StatusError)
		return task.Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	if err != nil {
		a.persistFailed(ctx, instrumentation.OperationToggle, err)
		return t, err
	}
	a.metrics.RecordTaskOperation(ctx, instrumentation.OperationToggle, instrumentation.StatusSuccess)
	a.notifier.Success(ctx, MsgTaskToggled)
	return t, nil
}

// Clear removes every task.
func (a *App) Clear(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		a.persistFailed(ctx, instrumentation.OperationClear, err)
		return err
	}
	a.metrics.RecordTaskOperation(ctx, instrumentation.OperationClear, instrumentation.StatusSuccess)
	a.notifier.Success(ctx, MsgTasksCleared)
	return nil
}

// Tasks returns the tasks visible on date, or all tasks when date is nil.
func (a *App) Tasks(date *civil.Date) []task.Task {
	return task.VisibleOn(a.store.All(), date)
}

// Progress returns the completion summary.
func (a *App) Progress() task.Progress {
	return a.store.Progress()
}

// Events lists the calendar events on date. The slice is never nil: without a
// session it is empty and no call is made; on a remote failure it is empty, the
// failure is sent to the Notifier and also returned so hosts can show the cause.
func (a *App) Events(ctx context.Context, date civil.Date) ([]calendar.Event, error) {
	if !a.calendarAvailable() {
		return []calendar.Event{}, nil
	}
	events, err := a.calendar.ListEvents(ctx, date)
	if err != nil {
		a.logger.WarnContext(ctx, "failed to list calendar events", logging.Date(date), logging.Err(err))
		a.notifier.Failure(ctx, MsgEventsUnavailable, err)
		return []calendar.Event{}, err
	}
	return events, nil
}

// AuthURL returns the Google consent URL for state.
func (a *App) AuthURL(state string) (string, error) {
	if a.oauth == nil {
		return "", google.ErrNoClientID
	}
	return google.AuthURL(a.oauth, state)
}

// SignIn exchanges an authorization code and moves the session to its outcome.
func (a *App) SignIn(ctx context.Context, code string) error {
	return a.signInOutcome(ctx, google.Exchange(ctx, a.oauth, code, a.session))
}

// SignInWithToken accepts an access token obtained elsewhere.
func (a *App) SignInWithToken(ctx context.Context, accessToken string) error {
	tok := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	return a.signInOutcome(ctx, a.session.SignInSucceeded(ctx, tok))
}

// SignOut forgets the credential.
func (a *App) SignOut(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	a.notifier.Success(ctx, MsgSignedOut)
	return nil
}

// signInOutcome reports a finished sign-in. An error while the session is
// Authenticated means only the credential write failed.
func (a *App) signInOutcome(ctx context.Context, err error) error {
	if !a.session.IsAuthenticated() {
		a.metrics.RecordSignIn(ctx, instrumentation.SignInFailure)
		a.notifier.Failure(ctx, MsgSignInFailed, err)
		return err
	}
	a.metrics.RecordSignIn(ctx, instrumentation.SignInSuccess)
	a.notifier.Success(ctx, MsgSignedIn)
	if err != nil {
		a.notifier.Failure(ctx, MsgCredentialNotSaved, err)
	}
	return err
}

// Status is a snapshot of the application state.
type Status struct {
	Session           string        `json:"session"`
	CalendarAvailable bool          `json:"calendarAvailable"`
	CalendarID        string        `json:"calendarId,omitempty"`
	Backend           string        `json:"backend"`
	Progress          task.Progress `json:"progress"`
}

// Status reports the session state, storage backend and progress.
func (a *App) Status() Status {
	st := Status{
		Session:           a.session.State().String(),
		CalendarAvailable: a.calendarAvailable(),
		Backend:           a.store.Backend().Name(),
		Progress:          a.store.Progress(),
	}
	if a.calendar != nil {
		st.CalendarID = a.calendar.CalendarID()
	}
	return st
}

// Wait blocks until every background sync has settled or ctx is done.
func (a *App) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.syncs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close waits for background syncs and releases the storage backend.
func (a *App) Close(ctx context.Context) error {
	waitErr := a.Wait(ctx)
	if a.closer == nil {
		return waitErr
	}
	return errors.Join(waitErr, a.closer())
}

func (a *App) calendarAvailable() bool {
	return a.calendar != nil && a.session.IsAuthenticated() && a.calendar.IsAvailable()
}

// syncEvent creates the calendar event for t in the background. The outcome is
// reported through the Notifier only.
func (a *App) syncEvent(parent context.Context, t task.Task) {
	a.syncs.Add(1)
	a.metrics.SyncStarted(parent)

	go func() {
		ctx := context.WithoutCancel(parent)
		defer func() {
			a.metrics.SyncFinished(ctx)
			a.syncs.Done()
		}()

		if a.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}

		if _, err := a.calendar.CreateEvent(ctx, t); err != nil {
			a.logger.WarnContext(ctx, "calendar sync failed", logging.TaskID(t.ID), logging.Err(err))
			a.notifier.Failure(ctx, MsgEventNotCreated, err)
			return
		}
		a.notifier.Success(ctx, MsgEventCreated)
	}()
}

func (a *App) persistFailed(ctx context.Context, op string, err error) {
	a.metrics.RecordTaskOperation(ctx, op, instrumentation.StatusError)
	a.metrics.RecordPersistenceFailure(ctx, op, a.store.Backend().Name())
	a.notifier.Failure(ctx, MsgTaskNotSaved, err)
}
