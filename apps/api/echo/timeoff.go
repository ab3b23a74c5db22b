package echoapi

import (
	"bytes"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infort/rh/core/request"
	"github.com/infort/rh/core/timeoff"
)

const (
	mimeXLSX       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFilename = "solicitacoes-de-folga.xlsx"
)

type timeOffApi struct {
	svc      *timeoff.Service
	validate *validator.Validate
	uploads  uploadRules
}

func registerTimeOffAPI(
	g *echo.Group,
	auth, hrOnly echo.MiddlewareFunc,
	svc *timeoff.Service,
	validate *validator.Validate,
	uploads uploadRules,
) {
	api := timeOffApi{
		svc:      svc,
		validate: validate,
		uploads:  uploads,
	}

	tg := g.Group("/timeoff-requests", auth)
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.GET("/me", api.queryOwn)
	tg.GET("/export", api.export, hrOnly)
	tg.PUT("/:id/status", api.updateStatus, hrOnly)

	g.GET("/downloads/medical-certificate/:id", api.downloadCertificate, auth)
}

// Handlers

func (api *timeOffApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data timeoff.NewRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	cert, err := api.uploads.file(ctx, "medicalCertificate", certificateTypes...)
	if err != nil {
		return err
	}
	defer cert.Close()

	req, err := api.svc.Submit(ctx.Request().Context(), usr, data, cert.Ref())
	if err != nil {
		return errors.Wrap(err, "submitting time-off request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

// query lists every request for HR and only the caller's own for employees.
func (api *timeOffApi) query(ctx echo.Context) error {
	filter, err := bindRequestFilter(ctx)
	if err != nil {
		return err
	}

	reqs, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying time-off requests")
	}
	if reqs == nil {
		reqs = []timeoff.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *timeOffApi) queryOwn(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reqs, err := api.svc.ListFor(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying own time-off requests")
	}
	if reqs == nil {
		reqs = []timeoff.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *timeOffApi) updateStatus(ctx echo.Context) error {
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
		return errors.Wrap(err, "updating time-off request status")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *timeOffApi) export(ctx echo.Context) error {
	filter, err := bindRequestFilter(ctx)
	if err != nil {
		return err
	}

	var buff bytes.Buffer
	if err = api.svc.Export(ctx.Request().Context(), filter, &buff); err != nil {
		return errors.Wrap(err, "exporting time-off requests")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exportFilename+`"`)
	return ctx.Blob(http.StatusOK, mimeXLSX, buff.Bytes())
}

func (api *timeOffApi) downloadCertificate(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	rc, filename, err := api.svc.OpenCertificate(ctx.Request().Context(), usr, id)
	if err != nil {
		return errors.Wrap(err, "opening medical certificate")
	}
	return sendFile(ctx, rc, filename)
}

// bindRequestFilter binds the userId & status query params. Employees are always scoped to
// their own requests.
func bindRequestFilter(ctx echo.Context) (request.ListFilter, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return request.ListFilter{}, errors.Wrap(err, "getting context user")
	}

	var filter request.ListFilter
	if err = ctx.Bind(&filter); err != nil {
		return request.ListFilter{}, errors.Wrap(err, "binding to ListFilter")
	}
	if !usr.IsHR() {
		filter.UserID = usr.ID
	}
	return filter, nil
}
