package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infort/rh/core/announcement"
)

type announcementApi struct {
	svc      *announcement.Service
	validate *validator.Validate
	uploads  uploadRules
}

func registerAnnouncementAPI(
	g *echo.Group,
	auth, hrOnly echo.MiddlewareFunc,
	svc *announcement.Service,
	validate *validator.Validate,
	uploads uploadRules,
) {
	api := announcementApi{
		svc:      svc,
		validate: validate,
		uploads:  uploads,
	}

	ag := g.Group("/announcements", auth)
	ag.GET("", api.query)
	ag.POST("", api.create, hrOnly)
}

// Handlers

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	image, err := api.uploads.file(ctx, "image", imageTypes...)
	if err != nil {
		return err
	}
	defer image.Close()

	ann, err := api.svc.Publish(ctx.Request().Context(), data, image.Ref())
	if err != nil {
		return errors.Wrap(err, "publishing announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announcementApi) query(ctx echo.Context) error {
	anns, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}
