package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectpulse/pulse/core/reschedule"
	"github.com/projectpulse/pulse/tests"
)

func Test_projectApi_rescheduleDeadline(t *testing.T) {
	e := setup(t)
	f := newFixture(t, e)
	path := func(id string) string { return "/api/projects/" + id + "/reschedule-deadline" }
	valid := []byte(`{"newDeadline":"2024-04-01","reason":"Client added scope"}`)

	tests := []httpTest{
		{name: "Auth required", path: path(f.prj.ID), body: valid, wantCode: http.StatusUnauthorized},
		{name: "Member forbidden", path: path(f.prj.ID), body: valid, token: getToken(t, f.member), wantCode: http.StatusForbidden},
		{name: "Admin forbidden", path: path(f.prj.ID), body: valid, token: getToken(t, f.admin), wantCode: http.StatusForbidden},
		{
			name: "Invalid date", path: path(f.prj.ID), token: getToken(t, f.leader),
			body:     []byte(`{"newDeadline":"01/04/2024","reason":"Client added scope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"newDeadline": "invalid date, expected YYYY-MM-DD or RFC3339"}),
		},
		{
			name: "Missing fields", path: path(f.prj.ID), token: getToken(t, f.leader), body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"newDeadline": "this field is required", "reason": "this field is required"}),
		},
		{
			name: "Unknown project", path: path("nope"), body: valid, token: getToken(t, f.leader),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "project not found"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPatch
	}
	runHTTPTests(t, e.app, tests)

	t.Run("Extended", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path(f.prj.ID), getToken(t, f.manager), valid)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got map[string]interface{}
		decode(t, rec, &got)
		assert.Equal(t, "Extended", got["change"])
		assert.Equal(t, "2024-03-15T00:00:00Z", got["oldDeadline"])
		assert.Equal(t, "2024-04-01T00:00:00Z", got["newDeadline"])
		assert.Equal(t, f.manager.ID, got["rescheduledById"])

		prj, err := e.prjRepo.GetProject(context.Background(), f.prj.ID)
		require.NoError(t, err)
		assert.Equal(t, "2024-04-01", prj.EndDate.Format("2006-01-02"))

		// the leader is told, the acting manager is not
		msgs := e.mailSvc.Messages()
		require.Len(t, msgs, 1)
		require.Len(t, msgs[0].To, 1)
		assert.Equal(t, f.leader.Email, msgs[0].To[0].Address)
	})
}

func Test_projectApi_rescheduleLogs(t *testing.T) {
	e := setup(t)
	f := newFixture(t, e)
	ctx := context.Background()

	lg1, err := e.rsRepo.CreateRescheduleLog(ctx, reschedule.Log{
		ProjectID: f.prj.ID, OldDeadline: f.prj.EndDate, NewDeadline: testutil.Date(t, "2024-04-01"),
		Reason: "scope", RescheduledByID: f.leader.ID, CreatedAt: testutil.Date(t, "2024-03-01"),
	})
	require.NoError(t, err)
	lg2, err := e.rsRepo.CreateRescheduleLog(ctx, reschedule.Log{
		ProjectID: f.prj.ID, OldDeadline: testutil.Date(t, "2024-04-01"), NewDeadline: testutil.Date(t, "2024-03-20"),
		Reason: "descoped", RescheduledByID: f.manager.ID, CreatedAt: testutil.Date(t, "2024-03-05"),
	})
	require.NoError(t, err)

	path := func(id string) string { return "/api/projects/" + id + "/reschedule-logs" }
	runHTTPTests(t, e.app, []httpTest{
		{name: "Auth required", method: http.MethodGet, path: path(f.prj.ID), wantCode: http.StatusUnauthorized},
		{
			name: "Oldest first", method: http.MethodGet, path: path(f.prj.ID), token: getToken(t, f.member),
			wantData: marshalObj(t, []reschedule.Log{lg1, lg2}),
		},
		{name: "Unknown project", method: http.MethodGet, path: path("nope"), token: getToken(t, f.member), wantCode: http.StatusNotFound},
	})
}
