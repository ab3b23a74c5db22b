package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infort/rh/core/payslip"
)

type payslipApi struct {
	svc      *payslip.Service
	validate *validator.Validate
	uploads  uploadRules
}

func registerPayslipAPI(
	g *echo.Group,
	auth, hrOnly echo.MiddlewareFunc,
	svc *payslip.Service,
	validate *validator.Validate,
	uploads uploadRules,
) {
	api := payslipApi{
		svc:      svc,
		validate: validate,
		uploads:  uploads,
	}

	pg := g.Group("/payslips", auth)
	pg.GET("", api.query)
	pg.POST("", api.create, hrOnly)
	pg.GET("/me", api.queryOwn)
	pg.GET("/:id/download", api.download)

	g.GET("/downloads/payslip/:id", api.download, auth)
}

// Handlers

func (api *payslipApi) create(ctx echo.Context) error {
	var data payslip.NewPayslip
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayslip")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	file, err := api.uploads.file(ctx, "file", pdfTypes...)
	if err != nil {
		return err
	}
	if file == nil {
		return fieldError("file", "this field is required")
	}
	defer file.Close()

	ps, err := api.svc.Upload(ctx.Request().Context(), data, file.Upload)
	if err != nil {
		return errors.Wrap(err, "uploading payslip")
	}
	return ctx.JSON(http.StatusCreated, ps)
}

// query lists the payslips of any (or every) employee for HR, and the caller's own otherwise.
func (api *payslipApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var filter payslip.ListFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to ListFilter")
	}
	if !usr.IsHR() {
		filter.UserID = usr.ID
	}

	payslips, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying payslips")
	}
	if payslips == nil {
		payslips = []payslip.Payslip{}
	}
	return ctx.JSON(http.StatusOK, payslips)
}

func (api *payslipApi) queryOwn(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	payslips, err := api.svc.ListFor(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying own payslips")
	}
	if payslips == nil {
		payslips = []payslip.Payslip{}
	}
	return ctx.JSON(http.StatusOK, payslips)
}

func (api *payslipApi) download(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	rc, filename, err := api.svc.Open(ctx.Request().Context(), usr, id)
	if err != nil {
		return errors.Wrap(err, "opening payslip")
	}
	return sendFile(ctx, rc, filename)
}
