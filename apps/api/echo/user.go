package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infort/rh/core/user"
)

type userApi struct {
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, auth, hrOnly echo.MiddlewareFunc, svc *user.Service, validate *validator.Validate) {
	api := userApi{svc: svc, validate: validate}

	ug := g.Group("/users", auth, hrOnly)
	ug.GET("", api.query)
	ug.POST("", api.create)
	ug.PUT("/:id/status", api.updateStatus)
	ug.POST("/:id/reset-password", api.resetPassword)
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewEmployee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEmployee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.RegisterEmployee(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering employee")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if err := filter.Validate(api.validate); err != nil {
		return err
	}

	users, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) updateStatus(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateStatus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.SetStatus(ctx.Request().Context(), ctxUsr, id, data.Status)
	if err != nil {
		return errors.Wrap(err, "updating user status")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	usr, err := api.svc.ResetPassword(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, usr)
}
