package reschedule_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/project"
	"github.com/projectpulse/pulse/core/reschedule"
	"github.com/projectpulse/pulse/core/user"
	inmemdb "github.com/projectpulse/pulse/storage/database/inmem"
	"github.com/projectpulse/pulse/tests"
)

var now = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	logs []reschedule.Log
	prjs []project.Project
	err  error
}

func (n *recordingNotifier) DeadlineRescheduled(_ context.Context, lg reschedule.Log, prj project.Project, _ user.User) error {
	n.logs = append(n.logs, lg)
	n.prjs = append(n.prjs, prj)
	return n.err
}

// failingLogs refuses to append.
type failingLogs struct {
	reschedule.Repository
}

func (*failingLogs) CreateRescheduleLog(context.Context, reschedule.Log) (reschedule.Log, error) {
	return reschedule.Log{}, errors.New("disk full")
}

type env struct {
	svc      *reschedule.Service
	db       *inmemdb.DB
	repo     reschedule.Repository
	projects project.Repository
	notifier *recordingNotifier

	member, leader, manager, admin user.User
	prj                            project.Project
}

func setup(t *testing.T) *env {
	t.Cleanup(reschedule.SetNow(func() time.Time { return now }))

	db := inmemdb.Open()
	users := inmemdb.NewUserRepository(db)
	e := &env{
		db:       db,
		repo:     inmemdb.NewRescheduleRepository(db),
		projects: inmemdb.NewProjectRepository(db),
		notifier: &recordingNotifier{},
	}
	validate, _ := testutil.NewValidator()
	e.svc = reschedule.NewService(db, e.repo, e.projects, validate, testutil.NewLogger(), e.notifier)

	e.member = testutil.CreateUser(t, users, "Mia Member", "mia@test.io", user.RoleMember, true)
	e.leader = testutil.CreateUser(t, users, "Lea Leader", "lea@test.io", user.RoleLeader, true)
	e.manager = testutil.CreateUser(t, users, "Max Manager", "max@test.io", user.RoleManager, true)
	e.admin = testutil.CreateUser(t, users, "Ada Admin", "ada@test.io", user.RoleAdmin, true)
	e.prj = testutil.CreateProject(t, e.projects, project.Project{Name: "Apollo", EndDate: testutil.Date(t, "2024-03-15")})
	return e
}

// plainLogs is a repository implemented on a value type.
type plainLogs struct {
	reschedule.Repository
}

func TestNewService(t *testing.T) {
	db := inmemdb.Open()
	validate, _ := testutil.NewValidator()
	projects := inmemdb.NewProjectRepository(db)

	assert.NotPanics(t, func() {
		reschedule.NewService(db, plainLogs{inmemdb.NewRescheduleRepository(db)}, projects, validate, testutil.NewLogger(), nil)
	})
	assert.Panics(t, func() {
		reschedule.NewService(db, nil, projects, validate, testutil.NewLogger(), nil)
	})
}

func (e *env) endDate(t *testing.T) string {
	prj, err := e.projects.GetProject(context.Background(), e.prj.ID)
	require.NoError(t, err)
	return prj.EndDate.Format(core.DateLayout)
}

func TestService_Reschedule(t *testing.T) {
	t.Run("extends the deadline and logs it", func(t *testing.T) {
		e := setup(t)

		lg, err := e.svc.Reschedule(context.Background(), e.leader, e.prj.ID, reschedule.Reschedule{
			NewDeadline: testutil.Date(t, "2024-04-01"),
			Reason:      "  Client added scope ",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, lg.ID)
		assert.Equal(t, e.prj.ID, lg.ProjectID)
		assert.Equal(t, "2024-03-15", lg.OldDeadline.Format(core.DateLayout))
		assert.Equal(t, "2024-04-01", lg.NewDeadline.Format(core.DateLayout))
		assert.Equal(t, "Client added scope", lg.Reason)
		assert.Equal(t, e.leader.ID, lg.RescheduledByID)
		assert.Equal(t, now, lg.CreatedAt)
		assert.Equal(t, reschedule.ChangeExtended, lg.Change())
		assert.Equal(t, "2024-04-01", e.endDate(t))

		require.Len(t, e.notifier.prjs, 1)
		assert.Equal(t, "2024-04-01", e.notifier.prjs[0].EndDate.Format(core.DateLayout))
	})

	t.Run("history chains", func(t *testing.T) {
		e := setup(t)
		ctx := context.Background()

		for _, d := range []string{"2024-04-01", "2024-03-20", "2024-03-20"} {
			_, err := e.svc.Reschedule(ctx, e.manager, e.prj.ID, reschedule.Reschedule{NewDeadline: testutil.Date(t, d), Reason: "replan"})
			require.NoError(t, err)
		}

		logs, err := e.svc.ListLogs(ctx, e.member, e.prj.ID)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		for i := 1; i < len(logs); i++ {
			assert.Equal(t, logs[i-1].NewDeadline, logs[i].OldDeadline)
		}
		assert.Equal(t, []reschedule.Change{
			reschedule.ChangeExtended, reschedule.ChangeMovedEarlier, reschedule.ChangeUnchanged,
		}, []reschedule.Change{logs[0].Change(), logs[1].Change(), logs[2].Change()})
		assert.Equal(t, "2024-03-20", e.endDate(t))
	})

	t.Run("invalid input", func(t *testing.T) {
		e := setup(t)
		valid := reschedule.Reschedule{NewDeadline: testutil.Date(t, "2024-04-01"), Reason: "scope"}

		tests := []struct {
			name    string
			actor   user.User
			prjID   string
			rs      reschedule.Reschedule
			wantErr func(error) bool
		}{
			{name: "member", actor: e.member, prjID: e.prj.ID, rs: valid, wantErr: core.IsAuthorization},
			{name: "admin", actor: e.admin, prjID: e.prj.ID, rs: valid, wantErr: core.IsAuthorization},
			{name: "no deadline", actor: e.leader, prjID: e.prj.ID, rs: reschedule.Reschedule{Reason: "scope"}, wantErr: core.IsValidation},
			{name: "blank reason", actor: e.leader, prjID: e.prj.ID, rs: reschedule.Reschedule{NewDeadline: valid.NewDeadline, Reason: "   "}, wantErr: core.IsValidation},
			{name: "unknown project", actor: e.leader, prjID: "nope", rs: valid, wantErr: core.IsNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := e.svc.Reschedule(context.Background(), tt.actor, tt.prjID, tt.rs)
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
			})
		}
		assert.Equal(t, "2024-03-15", e.endDate(t))
		assert.Empty(t, e.notifier.logs)
	})

	t.Run("a failed log append rolls the deadline back", func(t *testing.T) {
		e := setup(t)
		validate, _ := testutil.NewValidator()
		svc := reschedule.NewService(e.db, &failingLogs{e.repo}, e.projects, validate, testutil.NewLogger(), e.notifier)

		_, err := svc.Reschedule(context.Background(), e.leader, e.prj.ID, reschedule.Reschedule{
			NewDeadline: testutil.Date(t, "2024-04-01"), Reason: "scope",
		})
		assert.EqualError(t, err, "appending reschedule log: disk full")
		assert.Equal(t, "2024-03-15", e.endDate(t))
		assert.Empty(t, e.notifier.logs)
	})

	t.Run("notifier failures do not fail the reschedule", func(t *testing.T) {
		e := setup(t)
		e.notifier.err = errors.New("smtp down")

		_, err := e.svc.Reschedule(context.Background(), e.leader, e.prj.ID, reschedule.Reschedule{
			NewDeadline: testutil.Date(t, "2024-04-01"), Reason: "scope",
		})
		require.NoError(t, err)
		assert.Equal(t, "2024-04-01", e.endDate(t))
	})
}

func TestService_ListLogs(t *testing.T) {
	e := setup(t)

	logs, err := e.svc.ListLogs(context.Background(), e.admin, e.prj.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = e.svc.ListLogs(context.Background(), e.admin, "nope")
	assert.True(t, core.IsNotFound(err))

	_, err = e.svc.ListLogs(context.Background(), user.User{}, e.prj.ID)
	assert.True(t, core.IsAuthorization(err))
}

func TestLog_MarshalJSON(t *testing.T) {
	lg := reschedule.Log{
		ID:          "l1",
		OldDeadline: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		NewDeadline: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(lg)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Moved Earlier", got["change"])
	assert.Equal(t, "l1", got["id"])
	assert.Equal(t, "2024-03-20T00:00:00Z", got["newDeadline"])
}
