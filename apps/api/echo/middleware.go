package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, ok := contextClaims(ctx)
			if !ok {
				return errors.Wrap(errUnauthorized, "getting context claims")
			}
			if claims.Kind == KindAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
