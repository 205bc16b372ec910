package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
)

// accountApi serves the endpoints shared by students and teachers.
type accountApi[T account.Record] struct {
	srv  *Server
	svc  *account.Service[T]
	kind string
}

func registerAccountAPI[T account.Record](
	g *echo.Group,
	api *accountApi[T],
	jwt, admin, loginLimit echo.MiddlewareFunc,
) *echo.Group {
	// un-authed endpoints
	g.POST("/login", api.login, loginLimit)

	// admin endpoints
	ag := g.Group("", jwt, admin)
	ag.GET("", api.query)
	ag.DELETE("/:id", api.destroy)
	ag.POST("/:id/reset-password", api.resetPassword)
	return ag
}

func registerStudentAPI(g *echo.Group, s *Server, jwt, admin, loginLimit echo.MiddlewareFunc) {
	api := &accountApi[account.Student]{srv: s, svc: s.StudentSvc, kind: KindStudent}
	ag := registerAccountAPI(g.Group("/students"), api, jwt, admin, loginLimit)
	ag.POST("/upload", s.uploadStudents, s.uploadLimit())
}

// Handlers

func (api *accountApi[T]) login(ctx echo.Context) error {
	var data account.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.srv.Validate); err != nil {
		return err
	}

	rec, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	token, err := api.srv.auth.token(rec.Info().Principal(), api.kind)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Account: rec})
}

func (api *accountApi[T]) query(ctx echo.Context) error {
	var filter account.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []T{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	recs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	if recs == nil {
		recs = []T{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *accountApi[T]) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountApi[T]) resetPassword(ctx echo.Context) error {
	if _, err := api.svc.ResetPassword(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password reset to username"})
}
