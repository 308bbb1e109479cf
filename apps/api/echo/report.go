package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core/report"
	"github.com/projectpulse/pulse/core/user"
)

const csvContentType = "text/csv; charset=utf-8"

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(g *echo.Group, svc *report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/weekly-reports")
	rg.POST("/generate", api.generate, roleMiddleware(user.ApproverRoles...))
	rg.GET("", api.list, roleMiddleware(user.SupervisorRoles...))
	rg.GET("/project/:projectId", api.listByProject, roleMiddleware(user.SupervisorRoles...))
	rg.GET("/:id", api.retrieve, roleMiddleware(user.SupervisorRoles...))
	rg.GET("/:id/export/csv", api.exportCSV, roleMiddleware(user.ApproverRoles...))
}

// Handlers

func (api *reportApi) generate(ctx echo.Context) error {
	var data GenerateReportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateReportRequest")
	}
	nr, err := data.NewReport()
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	rpt, err := api.svc.Generate(ctx.Request().Context(), actor, nr)
	if err != nil {
		return errors.Wrap(err, "generating weekly report")
	}
	return ctx.JSON(http.StatusCreated, rpt)
}

func (api *reportApi) list(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	rpts, err := api.svc.List(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "listing weekly reports")
	}
	return ctx.JSON(http.StatusOK, rpts)
}

func (api *reportApi) listByProject(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	rpts, err := api.svc.ListByProject(ctx.Request().Context(), actor, ctx.Param("projectId"))
	if err != nil {
		return errors.Wrap(err, "listing project weekly reports")
	}
	return ctx.JSON(http.StatusOK, rpts)
}

func (api *reportApi) retrieve(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	rpt, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting weekly report")
	}
	return ctx.JSON(http.StatusOK, rpt)
}

func (api *reportApi) exportCSV(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	exp, err := api.svc.ExportCSV(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "exporting weekly report")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exp.Filename))
	return ctx.Blob(http.StatusOK, csvContentType, exp.Content)
}
