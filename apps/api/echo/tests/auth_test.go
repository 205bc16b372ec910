package tests

import (
	"net/http"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
)

func parseToken(t *testing.T, conf *core.Config, token string) *Claims {
	t.Helper()
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(conf.SecretKey), nil
	})
	require.NoError(t, err)
	return claims
}

func Test_home(t *testing.T) {
	fx := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	fx.serve(req, rec)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Shule API!", rec.Body.String())
}

func Test_adminLogin(t *testing.T) {
	fx := setup(t)
	path := "/v1/admin/login"
	invalidCreds := marchallObj(t, httpErr{Error: "invalid credentials"})

	tests := []httpTest{
		{
			name: "required fields", method: http.MethodPost, path: path, body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: path,
			body:     marchallObj(t, LoginRequest{Username: "admin", Password: "nope"}),
			wantCode: http.StatusUnauthorized, wantData: invalidCreds,
		},
		{
			name: "wrong username", method: http.MethodPost, path: path,
			body:     marchallObj(t, LoginRequest{Username: "root", Password: adminPassword}),
			wantCode: http.StatusUnauthorized, wantData: invalidCreds,
		},
	}
	runHTTPTests(t, fx, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, path, marchallObj(t, LoginRequest{Username: " admin ", Password: adminPassword}))
		fx.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LoginResponse
		require.NoError(t, jsonUnmarshal(rec.Body.Bytes(), &resp))
		claims := parseToken(t, fx.conf, resp.Token)
		assert.Equal(t, KindAdmin, claims.Kind)
		assert.Equal(t, "admin", claims.Username)
		assert.Equal(t, "Shule", claims.Audience)
		assert.Nil(t, resp.Account)
	})

	t.Run("no configured hash", func(t *testing.T) {
		fx.conf.Admin.PasswordHash = ""
		defer func() { fx.conf.Admin.PasswordHash = string(adminHash) }()

		req, rec := newRequest(http.MethodPost, path, marchallObj(t, LoginRequest{Username: "admin", Password: adminPassword}))
		fx.serve(req, rec)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: invalidCreds}, rec)
	})
}

func Test_loginRateLimit(t *testing.T) {
	fx := setup(t, func(conf *core.Config, _ *ServerDeps) {
		conf.Server.LoginRateLimit = 2
	})
	body := marchallObj(t, LoginRequest{Username: "admin", Password: "nope"})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, rec := newRequest(http.MethodPost, "/v1/admin/login", body)
		fx.serve(req, rec)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func Test_adminRequired(t *testing.T) {
	fx := setup(t)
	studentToken := getToken(t, fx.conf, core.Principal{ID: "s1", Username: "joann007"}, KindStudent)
	teacherToken := getToken(t, fx.conf, core.Principal{ID: "t1", Username: "marysmemp0"}, KindTeacher)

	tests := []httpTest{
		{name: "students: auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "students: student token", path: "/v1/students", token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "teachers: teacher token", path: "/v1/teachers", token: teacherToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "upload: teacher token", method: http.MethodPost, path: "/v1/teachers/upload", token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "bad signature", path: "/v1/students", token: studentToken + "x",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
	}
	runHTTPTests(t, fx, tests)
}
