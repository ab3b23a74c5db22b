package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infort/rh/core/event"
)

type eventApi struct {
	svc      *event.Service
	validate *validator.Validate
}

func registerEventAPI(g *echo.Group, auth, hrOnly echo.MiddlewareFunc, svc *event.Service, validate *validator.Validate) {
	api := eventApi{svc: svc, validate: validate}

	eg := g.Group("/events", auth)
	eg.GET("", api.query, hrOnly)
	eg.POST("", api.create, hrOnly)
	eg.GET("/me", api.queryOwn)
}

// Handlers

func (api *eventApi) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	evt, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *eventApi) query(ctx echo.Context) error {
	evts, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if evts == nil {
		evts = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, evts)
}

// queryOwn lists the caller's events, date ascending. `?upcoming=true` drops past events.
func (api *eventApi) queryOwn(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	upcoming, _ := strconv.ParseBool(ctx.QueryParam("upcoming"))

	evts, err := api.svc.ListFor(ctx.Request().Context(), usr.ID, upcoming)
	if err != nil {
		return errors.Wrap(err, "querying own events")
	}
	if evts == nil {
		evts = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, evts)
}
