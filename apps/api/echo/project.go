package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core/reschedule"
	"github.com/projectpulse/pulse/core/user"
)

type projectApi struct {
	svc *reschedule.Service
}

func registerProjectAPI(g *echo.Group, svc *reschedule.Service) {
	api := projectApi{svc: svc}

	pg := g.Group("/projects/:id")
	pg.PATCH("/reschedule-deadline", api.rescheduleDeadline, roleMiddleware(user.ApproverRoles...))
	pg.GET("/reschedule-logs", api.rescheduleLogs)
}

// Handlers

func (api *projectApi) rescheduleDeadline(ctx echo.Context) error {
	var data RescheduleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RescheduleRequest")
	}
	rs, err := data.Reschedule()
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	lg, err := api.svc.Reschedule(ctx.Request().Context(), actor, ctx.Param("id"), rs)
	if err != nil {
		return errors.Wrap(err, "rescheduling project deadline")
	}
	return ctx.JSON(http.StatusOK, lg)
}

func (api *projectApi) rescheduleLogs(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	logs, err := api.svc.ListLogs(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing reschedule logs")
	}
	return ctx.JSON(http.StatusOK, logs)
}
