package echoapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

const (
	KindAdmin   = "admin"
	KindStudent = "student"
	KindTeacher = "teacher"

	audience        = "Shule"
	adminID         = "admin"
	tokenContextKey = "accountToken"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "account not authenticated")
	errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Kind     string `json:"kind"` // -> ADMIN | STUDENT | TEACHER PORTAL
}

func (c Claims) Principal() core.Principal {
	return core.Principal{ID: c.Subject, Username: c.Username, Email: c.Email}
}

type authenticator struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

// NewClaims returns the claims of a fresh token for p.
func NewClaims(conf *core.Config, p core.Principal, kind string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   p.ID,
			Audience:  audience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: p.Username,
		Email:    p.Email,
		Kind:     kind,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) token(p core.Principal, kind string) (string, error) {
	return GenerateToken(a.conf, NewClaims(a.conf, p, kind))
}

// checkAdmin validates the admin credentials held in the configuration.
func (a *authenticator) checkAdmin(uname, pwd string) error {
	hash := a.conf.Admin.PasswordHash
	if hash == "" {
		return errInvalidCredentials
	}
	sameUser := subtle.ConstantTimeCompare([]byte(uname), []byte(a.conf.Admin.Username)) == 1
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pwd)); err != nil || !sameUser {
		return errInvalidCredentials
	}
	return nil
}

func contextClaims(ctx echo.Context) (Claims, bool) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, true
		}
	}
	return Claims{}, false
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token   string      `json:"token"`
		Account interface{} `json:"account,omitempty"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (s *Server) adminLogin(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Username = core.CleanString(data.Username)
	if err := s.Validate.Struct(&data); err != nil {
		return err
	}

	if err := s.auth.checkAdmin(data.Username, data.Password); err != nil {
		return err
	}
	token, err := s.auth.token(core.Principal{ID: adminID, Username: s.Conf.Admin.Username}, KindAdmin)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}
