package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/user"
)

const contextUserKey = "user"

// authMiddleware authenticates the bearer token and stores its (active) owner in the context.
func authMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, ok := bearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return errMissingToken
			}
			usr, err := svc.VerifyToken(ctx.Request().Context(), token)
			if err != nil {
				return errors.Wrap(err, "verifying token")
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// roleMiddleware only lets through users holding one of roles. It must run after authMiddleware.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			for _, role := range roles {
				if usr.Role == role {
					return next(ctx)
				}
			}
			return core.ErrPermissionDenied
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

type authApi struct {
	svc      *user.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, rateLimit echo.MiddlewareFunc, svc *user.Service, validate *validator.Validate) {
	api := authApi{svc: svc, validate: validate}

	ag := g.Group("/auth", rateLimit)
	ag.POST("/login", api.login)
	ag.POST("/setup-password", api.setupPassword)
}

func (api *authApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	if res.NeedsPasswordSetup {
		return ctx.JSON(http.StatusOK, PasswordSetupResponse{
			NeedsPasswordSetup: true,
			UserID:             res.UserID,
			Email:              res.Email,
		})
	}
	return ctx.JSON(http.StatusOK, res.Session)
}

func (api *authApi) setupPassword(ctx echo.Context) error {
	var data user.SetupPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetupPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.SetupPassword(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting up password")
	}
	return ctx.JSON(http.StatusOK, sess)
}

type PasswordSetupResponse struct {
	NeedsPasswordSetup bool   `json:"needsPasswordSetup"`
	UserID             int    `json:"userId"`
	Email              string `json:"email"`
}
