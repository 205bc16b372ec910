package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
)

type teacherApi struct {
	*accountApi[account.Teacher]
	teacherSvc *account.TeacherService
}

func registerTeacherAPI(g *echo.Group, s *Server, jwt, admin, loginLimit echo.MiddlewareFunc) {
	api := &teacherApi{
		accountApi: &accountApi[account.Teacher]{srv: s, svc: s.TeacherSvc.Service, kind: KindTeacher},
		teacherSvc: s.TeacherSvc,
	}
	ag := registerAccountAPI(g.Group("/teachers"), api.accountApi, jwt, admin, loginLimit)
	ag.POST("", api.create)
	ag.PUT("/:id", api.update)
	ag.POST("/upload", s.uploadTeachers, s.uploadLimit())
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data account.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}

	t, err := api.teacherSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data account.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}

	t, err := api.teacherSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}
