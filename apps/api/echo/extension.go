package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/projectpulse/pulse/core/extension"
	"github.com/projectpulse/pulse/core/user"
)

type extensionApi struct {
	svc *extension.Service
}

func registerExtensionAPI(g *echo.Group, svc *extension.Service) {
	api := extensionApi{svc: svc}

	eg := g.Group("/extension-requests")
	eg.POST("", api.submit, roleMiddleware(user.RoleMember))
	eg.GET("", api.list, roleMiddleware(user.SupervisorRoles...))
	eg.GET("/pending", api.listPending, roleMiddleware(user.SupervisorRoles...))
	eg.GET("/mine", api.listMine)
	eg.GET("/project/:projectId", api.listByProject)
	eg.PATCH("/:id/respond", api.respond, roleMiddleware(user.ApproverRoles...))
}

// Handlers

func (api *extensionApi) submit(ctx echo.Context) error {
	var data extension.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	req, err := api.svc.Submit(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "submitting extension request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *extensionApi) respond(ctx echo.Context) error {
	var data extension.Response
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Response")
	}
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	req, err := api.svc.Respond(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "responding to extension request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *extensionApi) list(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	reqs, err := api.svc.List(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "listing extension requests")
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *extensionApi) listPending(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	reqs, err := api.svc.ListPending(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "listing pending extension requests")
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *extensionApi) listMine(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	reqs, err := api.svc.ListMine(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "listing own extension requests")
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *extensionApi) listByProject(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	reqs, err := api.svc.ListByProject(ctx.Request().Context(), actor, ctx.Param("projectId"))
	if err != nil {
		return errors.Wrap(err, "listing project extension requests")
	}
	return ctx.JSON(http.StatusOK, reqs)
}
