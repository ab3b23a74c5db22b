package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infort/rh/core/event"
	"github.com/infort/rh/core/meeting"
	"github.com/infort/rh/core/notification"
	"github.com/infort/rh/core/payslip"
	"github.com/infort/rh/core/timeoff"
)

// meApi serves the routes scoped to the authenticated caller.
type meApi struct {
	payslipSvc      *payslip.Service
	timeOffSvc      *timeoff.Service
	meetingSvc      *meeting.Service
	eventSvc        *event.Service
	notificationSvc *notification.Service
}

func registerMeAPI(g *echo.Group, auth echo.MiddlewareFunc, api meApi) {
	mg := g.Group("/me", auth)
	mg.GET("", api.profile)
	mg.GET("/payslips", api.payslips)
	mg.GET("/timeoff-requests", api.timeOffRequests)
	mg.GET("/meetings", api.meetings)
	mg.GET("/events", api.events)
	mg.GET("/notifications", api.notifications)
	mg.POST("/notifications/mark-as-read", api.markRead)
	mg.GET("/notifications/unread-count", api.unreadCount)
}

// Handlers

func (api *meApi) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr.Profile())
}

func (api *meApi) payslips(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	payslips, err := api.payslipSvc.ListFor(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying own payslips")
	}
	if payslips == nil {
		payslips = []payslip.Payslip{}
	}
	return ctx.JSON(http.StatusOK, payslips)
}

func (api *meApi) timeOffRequests(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqs, err := api.timeOffSvc.ListFor(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying own time-off requests")
	}
	if reqs == nil {
		reqs = []timeoff.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *meApi) meetings(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqs, err := api.meetingSvc.ListFor(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying own meeting requests")
	}
	if reqs == nil {
		reqs = []meeting.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *meApi) events(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	upcoming, _ := strconv.ParseBool(ctx.QueryParam("upcoming"))

	evts, err := api.eventSvc.ListFor(ctx.Request().Context(), usr.ID, upcoming)
	if err != nil {
		return errors.Wrap(err, "querying own events")
	}
	if evts == nil {
		evts = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, evts)
}

func (api *meApi) notifications(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	notifs, err := api.notificationSvc.ListFor(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

// markRead marks the given notifications read, or every unread one when none are given.
func (api *meApi) markRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data notification.MarkRead
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRead")
	}

	updated, err := api.notificationSvc.MarkRead(ctx.Request().Context(), usr.ID, data.IDs)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, MarkReadResponse{Updated: updated})
}

func (api *meApi) unreadCount(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	count, err := api.notificationSvc.UnreadCount(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

type (
	MarkReadResponse struct {
		Updated int64 `json:"updated"`
	}

	UnreadCountResponse struct {
		Count int `json:"count"`
	}
)
