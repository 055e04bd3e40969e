package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"

	taskcal "github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/calendar/calendartest"
	"github.com/teemow/taskcal/internal/config"
	"github.com/teemow/taskcal/internal/session"
	"github.com/teemow/taskcal/internal/storage"
	"github.com/teemow/taskcal/internal/task"
)

type failingBackend struct {
	*storage.Memory
	putErr error
}

func (b *failingBackend) Put(ctx context.Context, key string, value []byte) error {
	if b.putErr != nil && key == task.DefaultStorageKey {
		return b.putErr
	}
	return b.Memory.Put(ctx, key, value)
}

type fixture struct {
	app      *App
	srv      *calendartest.Server
	notifier *RecordingNotifier
	backend  *failingBackend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := calendartest.NewServer()
	t.Cleanup(srv.Close)

	backend := &failingBackend{Memory: storage.NewMemory()}
	sess := session.New(backend, nil)
	notifier := NewRecordingNotifier(nil)
	cal := taskcal.New(sess, taskcal.Options{
		Endpoint:      srv.Endpoint(),
		Location:      time.UTC,
		EventDuration: 30 * time.Minute,
	})
	a := New(Options{
		Store:    task.NewStore(backend, task.DefaultStorageKey, nil),
		Session:  sess,
		Calendar: cal,
		Notifier: notifier,
	})
	return &fixture{app: a, srv: srv, notifier: notifier, backend: backend}
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, f.app.SignInWithToken(context.Background(), "ya29.test"))
}

func (f *fixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.app.Wait(ctx))
}

func scheduledDraft(t *testing.T) task.Draft {
	t.Helper()
	d, err := task.ParseDate("2024-01-10")
	require.NoError(t, err)
	at := task.NewTimeOfDay(14, 30)
	return task.Draft{Description: "dentist", Priority: task.PriorityHigh, Date: d, Time: &at}
}

func messages(items []Notification) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Message)
	}
	return out
}

func TestAddTask_SyncsScheduledTask(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	created, err := f.app.AddTask(context.Background(), scheduledDraft(t))
	require.NoError(t, err)
	f.wait(t)

	assert.Equal(t, []task.Task{created}, f.app.Tasks(nil))
	inserted := f.srv.Inserted()
	require.Len(t, inserted, 1)
	assert.Equal(t, "dentist", inserted[0].Summary)
	assert.Equal(t, "Priority: High", inserted[0].Description)
	assert.Equal(t, "Bearer ya29.test", f.srv.Requests()[0].Auth)
	assert.Contains(t, messages(f.notifier.Notifications()), MsgEventCreated)
}

func TestAddTask_SyncFailureKeepsTask(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.srv.Fail(http.StatusForbidden, "calendar access denied")

	created, err := f.app.AddTask(context.Background(), scheduledDraft(t))
	require.NoError(t, err)
	f.wait(t)

	requests := f.srv.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)

	tasks := f.app.Tasks(nil)
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)
	assert.False(t, tasks[0].Completed)

	failures := f.notifier.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, MsgEventNotCreated, failures[0].Message)
	var syncErr *taskcal.RemoteSyncError
	require.ErrorAs(t, failures[0].Err, &syncErr)
	assert.Equal(t, "calendar access denied", syncErr.Message)
}

func TestAddTask_ReturnsBeforeSyncSettles(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	release := f.srv.Block()
	t.Cleanup(release)

	created, err := f.app.AddTask(context.Background(), scheduledDraft(t))
	require.NoError(t, err)
	assert.Equal(t, []task.Task{created}, f.app.Tasks(nil))
	assert.NotContains(t, messages(f.notifier.Notifications()), MsgEventCreated)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.app.Wait(ctx), context.DeadlineExceeded)

	release()
	f.wait(t)
	assert.Len(t, f.srv.Inserted(), 1)
}

func TestAddTask_SyncOutlivesCallerContext(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	release := f.srv.Block()
	t.Cleanup(release)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.app.AddTask(ctx, scheduledDraft(t))
	require.NoError(t, err)
	cancel()

	release()
	f.wait(t)
	assert.Len(t, f.srv.Inserted(), 1)
	assert.Empty(t, f.notifier.Failures())
}

func TestAddTask_NoSync(t *testing.T) {
	date, err := task.ParseDate("2024-01-10")
	require.NoError(t, err)

	tests := []struct {
		name     string
		signedIn bool
		draft    task.Draft
	}{
		{name: "signed out", draft: scheduledDraft(t)},
		{name: "undated", signedIn: true, draft: task.Draft{Description: "read"}},
		{name: "date without time", signedIn: true, draft: task.Draft{Description: "read", Date: date}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.signedIn {
				f.signIn(t)
			}
			_, err := f.app.AddTask(context.Background(), tt.draft)
			require.NoError(t, err)
			f.wait(t)

			assert.Empty(t, f.srv.Requests())
			assert.Len(t, f.app.Tasks(nil), 1)
		})
	}
}

func TestAddTask_Validation(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	_, err := f.app.AddTask(context.Background(), task.Draft{Description: "   "})
	var validation *task.ValidationError
	require.ErrorAs(t, err, &validation)

	f.wait(t)
	assert.Empty(t, f.app.Tasks(nil))
	assert.Empty(t, f.srv.Requests())
	failures := f.notifier.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, MsgTaskNotAdded, failures[0].Message)
}

func TestAddTask_PersistenceFailureKeepsTask(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.backend.putErr = errors.New("quota exceeded")

	created, err := f.app.AddTask(context.Background(), scheduledDraft(t))
	var persistErr *task.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "dentist", created.Description)
	f.wait(t)

	assert.Len(t, f.app.Tasks(nil), 1)
	assert.Len(t, f.srv.Inserted(), 1)
	assert.Equal(t, []string{MsgTaskNotSaved}, messages(f.notifier.Failures()))
}

func TestToggleTask(t *testing.T) {
	f := newFixture(t)
	created, err := f.app.AddTask(context.Background(), task.Draft{Description: "read"})
	require.NoError(t, err)

	toggled, err := f.app.ToggleTask(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	assert.Equal(t, task.Progress{Completed: 1, Total: 1, Percent: 100}, f.app.Progress())

	_, err = f.app.ToggleTask(context.Background(), created.ID+100)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTasks_FiltersByDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day, err := task.ParseDate("2024-01-10")
	require.NoError(t, err)
	start, err := task.ParseDate("2024-01-15")
	require.NoError(t, err)
	until, err := task.ParseDate("2024-01-20")
	require.NoError(t, err)

	_, err = f.app.AddTask(ctx, task.Draft{Description: "once", Date: day})
	require.NoError(t, err)
	recurring, err := f.app.AddTask(ctx, task.Draft{Description: "daily", Date: start, IsRecurring: true, RecurringUntil: until})
	require.NoError(t, err)

	selected := civil.Date{Year: 2024, Month: 1, Day: 18}
	assert.Equal(t, []task.Task{recurring}, f.app.Tasks(&selected))
	assert.Len(t, f.app.Tasks(nil), 2)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.AddTask(context.Background(), task.Draft{Description: "read"})
	require.NoError(t, err)

	require.NoError(t, f.app.Clear(context.Background()))
	assert.Empty(t, f.app.Tasks(nil))
	assert.Contains(t, messages(f.notifier.Notifications()), MsgTasksCleared)
}

func TestEvents(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 1, Day: 10}

	t.Run("signed out", func(t *testing.T) {
		f := newFixture(t)
		events, err := f.app.Events(context.Background(), date)
		require.NoError(t, err)
		assert.NotNil(t, events)
		assert.Empty(t, events)
		assert.Empty(t, f.srv.Requests())
	})

	t.Run("lists events", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)
		f.srv.SetEvents(&calendar.Event{
			Id:      "ev1",
			Summary: "standup",
			Start:   &calendar.EventDateTime{DateTime: "2024-01-10T09:00:00Z"},
			End:     &calendar.EventDateTime{DateTime: "2024-01-10T09:15:00Z"},
		})

		events, err := f.app.Events(context.Background(), date)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "standup", events[0].Summary)
	})

	t.Run("remote failure degrades to empty", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)
		f.srv.Fail(http.StatusInternalServerError, "backend error")

		events, err := f.app.Events(context.Background(), date)
		var syncErr *taskcal.RemoteSyncError
		assert.ErrorAs(t, err, &syncErr)
		assert.NotNil(t, events)
		assert.Empty(t, events)
		assert.Equal(t, []string{MsgEventsUnavailable}, messages(f.notifier.Failures()))
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("empty token fails", func(t *testing.T) {
		f := newFixture(t)
		err := f.app.SignInWithToken(ctx, "")
		var authErr *session.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, session.AuthFailed, f.app.Session().State())
		assert.Equal(t, []string{MsgSignInFailed}, messages(f.notifier.Failures()))
	})

	t.Run("code flow without client ID fails", func(t *testing.T) {
		f := newFixture(t)
		require.Error(t, f.app.SignIn(ctx, "4/code"))
		assert.Equal(t, session.AuthFailed, f.app.Session().State())

		_, err := f.app.AuthURL("state")
		assert.Error(t, err)
	})

	t.Run("sign out", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)
		assert.True(t, f.app.Status().CalendarAvailable)

		require.NoError(t, f.app.SignOut(ctx))
		st := f.app.Status()
		assert.Equal(t, "unauthenticated", st.Session)
		assert.False(t, st.CalendarAvailable)
	})
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	_, err := f.app.AddTask(context.Background(), task.Draft{Description: "read"})
	require.NoError(t, err)

	st := f.app.Status()
	assert.Equal(t, "authenticated", st.Session)
	assert.True(t, st.CalendarAvailable)
	assert.Equal(t, taskcal.DefaultCalendarID, st.CalendarID)
	assert.Equal(t, storage.TypeMemory, st.Backend)
	assert.Equal(t, 1, st.Progress.Total)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Timezone = "UTC"

	first, err := Open(ctx, cfg, Deps{})
	require.NoError(t, err)
	_, err = first.AddTask(ctx, task.Draft{Description: "persisted"})
	require.NoError(t, err)
	require.NoError(t, first.SignInWithToken(ctx, "ya29.saved"))
	require.NoError(t, first.Close(ctx))

	second, err := Open(ctx, cfg, Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close(ctx) })

	tasks := second.Tasks(nil)
	require.Len(t, tasks, 1)
	assert.Equal(t, "persisted", tasks[0].Description)
	assert.True(t, second.Session().IsAuthenticated())
	assert.Equal(t, storage.TypeFile, second.Status().Backend)
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "floppy"
	_, err := Open(context.Background(), cfg, Deps{})
	assert.Error(t, err)
}

func TestWriterNotifier(t *testing.T) {
	var out, errOut bytes.Buffer
	n := NewWriterNotifier(&out, &errOut)

	n.Success(context.Background(), MsgTaskAdded)
	n.Failure(context.Background(), MsgEventNotCreated, errors.New("boom"))

	assert.Equal(t, "✓ Task added!\n", out.String())
	assert.Equal(t, "✗ Could not add task to Google Calendar: boom\n", errOut.String())
}

func TestRecordingNotifier_Forwards(t *testing.T) {
	var out bytes.Buffer
	n := NewRecordingNotifier(NewWriterNotifier(&out, nil))

	n.Failure(context.Background(), MsgSignInFailed, nil)

	assert.Equal(t, "✗ Google sign-in failed\n", out.String())
	assert.Len(t, n.Failures(), 1)
}

func TestToday(t *testing.T) {
	// 23:30 UTC on 2024-01-10 is already the 11th in Tokyo and still the 10th in São Paulo.
	instant := time.Date(2024, 1, 10, 23, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		zone string
		want civil.Date
	}{
		{name: "utc", zone: "UTC", want: civil.Date{Year: 2024, Month: time.January, Day: 10}},
		{name: "ahead of utc", zone: "Asia/Tokyo", want: civil.Date{Year: 2024, Month: time.January, Day: 11}},
		{name: "behind utc", zone: "America/Sao_Paulo", want: civil.Date{Year: 2024, Month: time.January, Day: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := time.LoadLocation(tt.zone)
			require.NoError(t, err)
			backend := storage.NewMemory()
			a := New(Options{
				Store:    task.NewStore(backend, task.DefaultStorageKey, nil),
				Session:  session.New(backend, nil),
				Location: loc,
				Now:      func() time.Time { return instant },
			})
			assert.Equal(t, tt.want, a.Today())
		})
	}
}

func TestOpen_TodayUsesConfiguredTimezone(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Backend = storage.TypeMemory
	cfg.Timezone = "Pacific/Kiritimati"

	a, err := Open(ctx, cfg, Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })

	loc, err := time.LoadLocation("Pacific/Kiritimati")
	require.NoError(t, err)
	assert.Equal(t, civil.DateOf(time.Now().In(loc)), a.Today())
}
