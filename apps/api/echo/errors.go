package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/roster"
)

// importFailure wraps an infrastructure error that stopped an import.
type importFailure struct {
	err error
}

func (f *importFailure) Error() string { return f.err.Error() }

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case roster.SheetError, *roster.MissingColumnsError, *account.ConflictError, *account.DataError:
			code = http.StatusBadRequest
			message = origErr.Error()
		case *roster.NoAccountsError:
			errs := origErr.Errors
			if errs == nil {
				errs = []string{}
			}
			code = http.StatusBadRequest
			message = echo.Map{"error": origErr.Error(), "errors": errs}
		case *importFailure:
			code = http.StatusInternalServerError
			message = echo.Map{"error": "Error processing file", "message": origErr.Error()}
			logger.Error("import failed", errors.Wrap(origErr.err, "importing roster"), principal(ctx))
		default:
			switch cause {
			case account.ErrNotFound:
				code = http.StatusNotFound
				message = errHttpNotFound.Message
			case account.ErrInvalidCredentials:
				code = http.StatusUnauthorized
				message = errInvalidCredentials.Message
			case account.ErrAccountDeactivated:
				code = http.StatusForbidden
				message = errAccountDeactivated.Message
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg), principal(ctx))

				if ctx.Echo().Debug {
					message = err.Error()
				}
				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// principal returns the acting account, if the request carried a valid token.
func principal(ctx echo.Context) core.Principal {
	if claims, ok := contextClaims(ctx); ok {
		return claims.Principal()
	}
	return core.Principal{}
}
