package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infort/rh/core/meeting"
	"github.com/infort/rh/core/request"
)

type meetingApi struct {
	svc      *meeting.Service
	validate *validator.Validate
}

func registerMeetingAPI(g *echo.Group, auth, hrOnly echo.MiddlewareFunc, svc *meeting.Service, validate *validator.Validate) {
	api := meetingApi{svc: svc, validate: validate}

	mg := g.Group("/meetings", auth)
	mg.GET("", api.query)
	mg.POST("", api.create)
	mg.GET("/me", api.queryOwn)
	mg.PUT("/:id/status", api.updateStatus, hrOnly)
}

// Handlers

func (api *meetingApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data meeting.NewRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	req, err := api.svc.Submit(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "submitting meeting request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *meetingApi) query(ctx echo.Context) error {
	filter, err := bindRequestFilter(ctx)
	if err != nil {
		return err
	}

	reqs, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying meeting requests")
	}
	if reqs == nil {
		reqs = []meeting.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *meetingApi) queryOwn(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reqs, err := api.svc.ListFor(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying own meeting requests")
	}
	if reqs == nil {
		reqs = []meeting.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *meetingApi) updateStatus(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data request.Decision
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Decision")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	req, err := api.svc.UpdateStatus(ctx.Request().Context(), id, data.Status)
	if err != nil {
		return errors.Wrap(err, "updating meeting request status")
	}
	return ctx.JSON(http.StatusOK, req)
}
