package database_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/projectpulse/pulse/core"
	"github.com/projectpulse/pulse/core/extension"
	"github.com/projectpulse/pulse/core/project"
	"github.com/projectpulse/pulse/core/report"
	"github.com/projectpulse/pulse/core/reschedule"
	"github.com/projectpulse/pulse/core/user"
	"github.com/projectpulse/pulse/storage/database"
	gormdb "github.com/projectpulse/pulse/storage/database/gorm"
	"github.com/projectpulse/pulse/tests"
)

var base = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func openStore(t *testing.T, conf core.Config) *database.Store {
	store, err := database.OpenStore(&conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_memory(t *testing.T) {
	conf := *core.Conf
	conf.Database.Engine = database.EngineMemory
	testStore(t, openStore(t, conf))
}

func TestStore_sqlite(t *testing.T) {
	conf := *core.Conf
	conf.Database.Engine = database.EngineSQLite
	conf.Database.Path = gormdb.MemoryPath
	testStore(t, openStore(t, conf))
}

func TestStore_postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	conf := *core.Conf
	conf.Database = core.DatabaseConfig{
		Engine:        database.EnginePostgres,
		Host:          host,
		Port:          port.Port(),
		Name:          "pulse_test",
		User:          "pulse",
		Password:      "pul'se",
		AdminUser:     "postgres",
		AdminPassword: "postgres",
		DisableTLS:    true,
	}
	testStore(t, openStore(t, conf))
}

func TestOpenStore_unknownEngine(t *testing.T) {
	conf := *core.Conf
	conf.Database.Engine = "oracle"
	_, err := database.OpenStore(&conf)
	assert.EqualError(t, err, `unknown database engine "oracle"`)
}

// testStore runs the repository contract against one engine.
// Every subtest owns its rows so the engines can share one database.
func testStore(t *testing.T, store *database.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, store) })
	t.Run("projects", func(t *testing.T) { testProjects(t, store) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, store) })
	t.Run("extensions", func(t *testing.T) { testExtensions(t, store) })
	t.Run("reschedules", func(t *testing.T) { testReschedules(t, store) })
	t.Run("reports", func(t *testing.T) { testReports(t, store) })
	t.Run("concurrent writes", func(t *testing.T) { testConcurrentWrites(t, store) })
}

func assertSameTime(t *testing.T, want, got time.Time, field string) {
	t.Helper()
	assert.True(t, want.Equal(got), "%s: want %s, got %s", field, want, got)
}

func newUser(t *testing.T, store *database.Store, role string) user.User {
	usr, err := store.Users.CreateUser(context.Background(), user.User{
		Name:         "User " + role,
		Email:        uuid.NewString() + "@test.io",
		Role:         role,
		PasswordHash: []byte("hash"),
		IsActive:     true,
		CreatedAt:    base,
		UpdatedAt:    base,
	})
	require.NoError(t, err)
	return usr
}

func newProject(t *testing.T, store *database.Store, owner user.User) project.Project {
	prj, err := store.Projects.CreateProject(context.Background(), project.Project{
		Name:      "Apollo",
		Status:    "active",
		StartDate: base.Truncate(24 * time.Hour),
		EndDate:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		CreatedBy: owner.ID,
		CreatedAt: base,
	})
	require.NoError(t, err)
	return prj
}

func newTask(t *testing.T, store *database.Store, prj project.Project, title string, createdAt time.Time) project.Task {
	task, err := store.Projects.CreateTask(context.Background(), project.Task{
		Title:        title,
		Status:       project.StatusInProgress,
		Priority:     "medium",
		ProjectID:    prj.ID,
		StartDate:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Dependencies: []string{},
		CreatedAt:    createdAt,
	})
	require.NoError(t, err)
	return task
}

func testUsers(t *testing.T, store *database.Store) {
	ctx := context.Background()
	usr := newUser(t, store, user.RoleLeader)
	require.NotEmpty(t, usr.ID)

	byID, err := store.Users.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr.Email, byID.Email)
	assert.Equal(t, user.RoleLeader, byID.Role)
	assert.True(t, byID.IsActive)

	byEmail, err := store.Users.GetUserByEmail(ctx, usr.Email)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, byEmail.ID)

	_, err = store.Users.CreateUser(ctx, user.User{Name: "Dup", Email: usr.Email, Role: user.RoleMember, CreatedAt: base, UpdatedAt: base})
	assert.Equal(t, user.ErrEmailExists, errors.Cause(err))

	_, err = store.Users.GetUserByID(ctx, uuid.NewString())
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	_, err = store.Users.GetUserByEmail(ctx, "nobody@test.io")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))

	leaders, err := store.Users.QueryUsers(ctx, user.QueryFilter{Roles: []string{user.RoleLeader}})
	require.NoError(t, err)
	found := false
	for _, l := range leaders {
		assert.Equal(t, user.RoleLeader, l.Role)
		found = found || l.ID == usr.ID
	}
	assert.True(t, found, "leader %s missing from query", usr.ID)
}

func testProjects(t *testing.T, store *database.Store) {
	ctx := context.Background()
	owner := newUser(t, store, user.RoleManager)
	prj := newProject(t, store, owner)

	got, err := store.Projects.GetProject(ctx, prj.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apollo", got.Name)
	assertSameTime(t, prj.EndDate, got.EndDate, "endDate")

	moved := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Projects.UpdateProjectEndDate(ctx, prj.ID, moved))
	got, err = store.Projects.GetProject(ctx, prj.ID)
	require.NoError(t, err)
	assertSameTime(t, moved, got.EndDate, "endDate")

	assert.Equal(t, project.ErrProjectNotFound, errors.Cause(store.Projects.UpdateProjectEndDate(ctx, uuid.NewString(), moved)))
	_, err = store.Projects.GetProject(ctx, uuid.NewString())
	assert.Equal(t, project.ErrProjectNotFound, errors.Cause(err))

	second := newTask(t, store, prj, "second", base.Add(time.Minute))
	first := newTask(t, store, prj, "first", base)

	completed := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	third, err := store.Projects.CreateTask(ctx, project.Task{
		Title:         "third",
		Status:        project.StatusCompleted,
		Priority:      "high",
		AssigneeID:    owner.ID,
		ProjectID:     prj.ID,
		DueDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CompletedDate: &completed,
		DelayReason:   "Vendor outage",
		Dependencies:  []string{first.ID, second.ID},
		CreatedAt:     base.Add(2 * time.Minute),
	})
	require.NoError(t, err)

	tasks, err := store.Projects.QueryTasksByProject(ctx, prj.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{tasks[0].Title, tasks[1].Title, tasks[2].Title})

	got3 := tasks[2]
	assert.Equal(t, third.ID, got3.ID)
	assert.Equal(t, project.StatusCompleted, got3.Status)
	assert.Equal(t, owner.ID, got3.AssigneeID)
	assert.Equal(t, "Vendor outage", got3.DelayReason)
	assert.Equal(t, []string{first.ID, second.ID}, got3.Dependencies)
	require.NotNil(t, got3.CompletedDate)
	assertSameTime(t, completed, *got3.CompletedDate, "completedDate")
	assert.True(t, got3.CompletedLate())

	due := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Projects.UpdateTaskDueDate(ctx, first.ID, due))
	gotFirst, err := store.Projects.GetTask(ctx, first.ID)
	require.NoError(t, err)
	assertSameTime(t, due, gotFirst.DueDate, "dueDate")
	assertSameTime(t, first.StartDate, gotFirst.StartDate, "startDate")

	assert.Equal(t, project.ErrTaskNotFound, errors.Cause(store.Projects.UpdateTaskDueDate(ctx, uuid.NewString(), due)))
	_, err = store.Projects.GetTask(ctx, uuid.NewString())
	assert.Equal(t, project.ErrTaskNotFound, errors.Cause(err))

	none, err := store.Projects.QueryTasksByProject(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testTransactions(t *testing.T, store *database.Store) {
	ctx := context.Background()
	owner := newUser(t, store, user.RoleManager)
	prj := newProject(t, store, owner)
	task := newTask(t, store, prj, "rollback", base)

	var created project.Project
	errBoom := errors.New("boom")
	err := store.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if created, err = store.Projects.CreateProject(ctx, project.Project{Name: "Ghost", Status: "active", EndDate: prj.EndDate, CreatedAt: base}); err != nil {
			return err
		}
		if err = store.Projects.UpdateTaskDueDate(ctx, task.ID, prj.EndDate); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return store.Tx.RunInTx(ctx, func(ctx context.Context) error {
			if _, err := store.Projects.GetProject(ctx, created.ID); err != nil {
				return err
			}
			return errBoom
		})
	})
	assert.Equal(t, errBoom, errors.Cause(err))

	_, err = store.Projects.GetProject(ctx, created.ID)
	assert.Equal(t, project.ErrProjectNotFound, errors.Cause(err))
	got, err := store.Projects.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assertSameTime(t, task.DueDate, got.DueDate, "dueDate")

	err = store.Tx.RunInTx(ctx, func(ctx context.Context) error {
		return store.Projects.UpdateTaskDueDate(ctx, task.ID, prj.EndDate)
	})
	require.NoError(t, err)
	got, err = store.Projects.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assertSameTime(t, prj.EndDate, got.DueDate, "dueDate")
}

func testExtensions(t *testing.T, store *database.Store) {
	ctx := context.Background()
	member := newUser(t, store, user.RoleMember)
	leader := newUser(t, store, user.RoleLeader)
	prj := newProject(t, store, leader)
	task := newTask(t, store, prj, "extend me", base)

	submit := func(at time.Time) extension.Request {
		req, err := store.Extensions.CreateExtensionRequest(ctx, extension.Request{
			TaskID:         task.ID,
			ProjectID:      prj.ID,
			RequesterID:    member.ID,
			AdditionalDays: 7,
			Reason:         "Blocked by vendor API outage",
			Status:         extension.StatusPending,
			CreatedAt:      at,
		})
		require.NoError(t, err)
		return req
	}
	older := submit(base)
	newer := submit(base.Add(time.Hour))

	got, err := store.Extensions.GetExtensionRequest(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, extension.StatusPending, got.Status)
	assert.Equal(t, 7, got.AdditionalDays)
	assert.Nil(t, got.RespondedAt)
	_, err = store.Extensions.GetExtensionRequest(ctx, uuid.NewString())
	assert.Equal(t, extension.ErrNotFound, errors.Cause(err))

	pending, err := store.Extensions.QueryExtensionRequests(ctx, extension.QueryFilter{ProjectID: prj.ID, Status: extension.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, newer.ID, pending[0].ID)
	assert.Equal(t, older.ID, pending[1].ID)

	// concurrent responders: exactly one wins
	respondedAt := base.Add(2 * time.Hour)
	const responders = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < responders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolved := older
			resolved.Status = extension.StatusApproved
			resolved.ResponseMessage = "approved"
			resolved.ResponderID = leader.ID
			resolved.RespondedAt = &respondedAt
			_, err := store.Extensions.ResolveExtensionRequest(ctx, resolved)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Cause(err) == extension.ErrNotPending:
				conflicts++
			default:
				t.Errorf("ResolveExtensionRequest() unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, responders-1, conflicts)

	got, err = store.Extensions.GetExtensionRequest(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, extension.StatusApproved, got.Status)
	assert.Equal(t, leader.ID, got.ResponderID)
	require.NotNil(t, got.RespondedAt)
	assertSameTime(t, respondedAt, *got.RespondedAt, "respondedAt")

	mine, err := store.Extensions.QueryExtensionRequests(ctx, extension.QueryFilter{RequesterID: member.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	approved, err := store.Extensions.QueryExtensionRequests(ctx, extension.QueryFilter{ProjectID: prj.ID, Status: extension.StatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, older.ID, approved[0].ID)
}

func testReschedules(t *testing.T, store *database.Store) {
	ctx := context.Background()
	leader := newUser(t, store, user.RoleLeader)
	prj := newProject(t, store, leader)

	dates := []time.Time{
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
	}
	for i := 1; i < len(dates); i++ {
		_, err := store.Reschedules.CreateRescheduleLog(ctx, reschedule.Log{
			ProjectID:       prj.ID,
			OldDeadline:     dates[i-1],
			NewDeadline:     dates[i],
			Reason:          "Scope change",
			RescheduledByID: leader.ID,
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	logs, err := store.Reschedules.QueryRescheduleLogs(ctx, prj.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, reschedule.ChangeExtended, logs[0].Change())
	assert.Equal(t, reschedule.ChangeMovedEarlier, logs[1].Change())
	assertSameTime(t, dates[1], logs[1].OldDeadline, "oldDeadline")
	assertSameTime(t, dates[2], logs[1].NewDeadline, "newDeadline")
	assert.Equal(t, leader.ID, logs[1].RescheduledByID)

	none, err := store.Reschedules.QueryRescheduleLogs(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testReports(t *testing.T, store *database.Store) {
	ctx := context.Background()
	leader := newUser(t, store, user.RoleLeader)
	prj := newProject(t, store, leader)

	generate := func(at time.Time) report.WeeklyReport {
		rpt, err := store.Reports.CreateWeeklyReport(ctx, report.WeeklyReport{
			ProjectID:             prj.ID,
			WeekStartDate:         time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			WeekEndDate:           time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			ProjectDueDate:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			CurrentProjectEndDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			Reschedules: []report.RescheduleEntry{{
				OldDate:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
				NewDate:        time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
				Reason:         "Scope change",
				RescheduleDate: base,
			}},
			DelayCount:    1,
			DelayDetails:  []report.DelayDetail{{TaskID: "t1", TaskTitle: "Wire telemetry", DelayDays: 5, Reason: "No reason provided"}},
			GeneratedByID: leader.ID,
			GeneratedAt:   at,
		})
		require.NoError(t, err)
		return rpt
	}
	first := generate(base)
	second := generate(base.Add(time.Hour))

	got, err := store.Reports.GetWeeklyReport(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, prj.ID, got.ProjectID)
	assert.Equal(t, 1, got.DelayCount)
	assert.Equal(t, first.DelayDetails, got.DelayDetails)
	require.Len(t, got.Reschedules, 1)
	assert.Equal(t, "Scope change", got.Reschedules[0].Reason)
	assertSameTime(t, base, got.Reschedules[0].RescheduleDate, "rescheduleDate")
	assertSameTime(t, first.ProjectDueDate, got.ProjectDueDate, "projectDueDate")
	assertSameTime(t, first.CurrentProjectEndDate, got.CurrentProjectEndDate, "currentProjectEndDate")

	_, err = store.Reports.GetWeeklyReport(ctx, uuid.NewString())
	assert.Equal(t, report.ErrNotFound, errors.Cause(err))

	rpts, err := store.Reports.QueryWeeklyReports(ctx, prj.ID)
	require.NoError(t, err)
	require.Len(t, rpts, 2)
	assert.Equal(t, second.ID, rpts[0].ID)
	assert.Equal(t, first.ID, rpts[1].ID)

	all, err := store.Reports.QueryWeeklyReports(ctx, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 2)
}

// testConcurrentWrites runs deadline writers side by side through the services.
// Each one must see the value committed by the previous one.
func testConcurrentWrites(t *testing.T, store *database.Store) {
	ctx := context.Background()
	validate, _ := testutil.NewValidator()
	leader := newUser(t, store, user.RoleLeader)
	member := newUser(t, store, user.RoleMember)

	t.Run("reschedules chain", func(t *testing.T) {
		svc := reschedule.NewService(store.Tx, store.Reschedules, store.Projects, validate, testutil.NewLogger(), nil)
		prj := newProject(t, store, leader)

		const writers = 6
		var wg sync.WaitGroup
		for i := 1; i <= writers; i++ {
			wg.Add(1)
			go func(days int) {
				defer wg.Done()
				_, err := svc.Reschedule(ctx, leader, prj.ID, reschedule.Reschedule{
					NewDeadline: prj.EndDate.AddDate(0, 0, days),
					Reason:      "Parallel replanning",
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		logs, err := store.Reschedules.QueryRescheduleLogs(ctx, prj.ID)
		require.NoError(t, err)
		require.Len(t, logs, writers)

		olds := make(map[int64]bool, writers)
		news := make(map[int64]bool, writers)
		for _, lg := range logs {
			olds[lg.OldDeadline.Unix()] = true
			news[lg.NewDeadline.Unix()] = true
		}
		// a lost update shows up as two logs sharing an old deadline
		assert.Len(t, olds, writers, "old deadlines")
		assert.True(t, olds[prj.EndDate.Unix()], "first log starts from the original deadline")

		got, err := store.Projects.GetProject(ctx, prj.ID)
		require.NoError(t, err)
		assert.True(t, news[got.EndDate.Unix()], "end date is a logged deadline")
		assert.False(t, olds[got.EndDate.Unix()], "end date was moved again")
		for _, lg := range logs {
			if !lg.OldDeadline.Equal(prj.EndDate) {
				assert.True(t, news[lg.OldDeadline.Unix()], "old deadline %s was never logged as new", lg.OldDeadline)
			}
		}
	})

	t.Run("approvals add up", func(t *testing.T) {
		svc := extension.NewService(store.Tx, store.Extensions, store.Projects, validate, testutil.NewLogger(), nil)
		prj := newProject(t, store, leader)
		task := newTask(t, store, prj, "extend in parallel", base)

		var (
			reqs  []extension.Request
			total int
		)
		for days := 1; days <= 5; days++ {
			req, err := store.Extensions.CreateExtensionRequest(ctx, extension.Request{
				TaskID:         task.ID,
				ProjectID:      prj.ID,
				RequesterID:    member.ID,
				AdditionalDays: days,
				Reason:         "Blocked by vendor API outage",
				Status:         extension.StatusPending,
				CreatedAt:      base.Add(time.Duration(days) * time.Minute),
			})
			require.NoError(t, err)
			reqs = append(reqs, req)
			total += days
		}

		var wg sync.WaitGroup
		for _, req := range reqs {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := svc.Respond(ctx, leader, id, extension.Response{
					Status:          extension.StatusApproved,
					ResponseMessage: "go ahead",
				})
				assert.NoError(t, err)
			}(req.ID)
		}
		wg.Wait()

		got, err := store.Projects.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assertSameTime(t, task.DueDate.AddDate(0, 0, total), got.DueDate, "dueDate")
	})
}
