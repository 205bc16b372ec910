package tests

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/tests"
)

const studentPwd = "aB3@xY9#"

func Test_studentApi_query(t *testing.T) {
	fx := setup(t)
	adminToken := fx.adminToken(t)

	path := func(search, class, ordering string, createdFrom, createdTo time.Time, isActive *bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if class != "" {
			v.Add("class", class)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		if !createdFrom.IsZero() {
			v.Add("created_from", createdFrom.Format(time.RFC3339))
		}
		if !createdTo.IsZero() {
			v.Add("created_to", createdTo.Format(time.RFC3339))
		}
		return "/v1/students?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now().Truncate(time.Second)
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)
	t3 := now.Add(3 * time.Hour)

	jo := testutil.CreateStudent(t, fx.students, "Jo Ann", "joann007", "jo@school.cd", "STU0001", studentPwd, "5A", true, now)
	bob := testutil.CreateStudent(t, fx.students, "Bob Marley", "bobmar012", "bob@school.cd", "STU0002", studentPwd, "5B", true, t1)
	kim := testutil.CreateStudent(t, fx.students, "Kim Lee", "kimlee003", "kim@school.cd", "STU0003", studentPwd, "5a", false, t2)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Get all", path: "/v1/students", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, kim, bob, jo)},
		{name: "search (unknown)", path: path("lol", "", "", time.Time{}, time.Time{}, nil), token: adminToken, wantCode: http.StatusOK, wantData: empty},
		{
			name: "search=MAR", path: path("MAR", "", "", time.Time{}, time.Time{}, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, bob),
		},
		{
			name: "search by student id", path: path("stu0001", "", "", time.Time{}, time.Time{}, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, jo),
		},
		{
			name: "class (case-insensitive)", path: path("", "5A", "", time.Time{}, time.Time{}, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, kim, jo),
		},
		{
			name: "is_active=false", path: path("", "", "", time.Time{}, time.Time{}, bPtr(false)),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, kim),
		},
		{
			name: "created_from - created_to", path: path("", "", "", t1, t2, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, kim, bob),
		},
		{
			name: "created_from (empty)", path: path("", "", "", t3, time.Time{}, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: empty,
		},
		{
			name: "order by created_at", path: path("", "", "created_at", time.Time{}, time.Time{}, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, jo, bob, kim),
		},
		{
			name: "order by name", path: path("", "", "name", time.Time{}, time.Time{}, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, bob, jo, kim),
		},
		{
			name: "order by -is_active,username", path: path("", "", "-is_active,username", time.Time{}, time.Time{}, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, bob, jo, kim),
		},
		{
			name: "order by -student_id", path: path("", "", "-student_id", time.Time{}, time.Time{}, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, kim, bob, jo),
		},
		{
			name: "unknown order fields fall back to newest first", path: path("", "", "password_hash,-bogus", time.Time{}, time.Time{}, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, kim, bob, jo),
		},
		{
			name: "unknown order fields are skipped", path: path("", "", "bogus, NAME", time.Time{}, time.Time{}, nil),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, bob, jo, kim),
		},
	}
	runHTTPTests(t, fx, tests)
}

func Test_studentApi_destroy(t *testing.T) {
	fx := setup(t)
	adminToken := fx.adminToken(t)
	jo := testutil.CreateStudent(t, fx.students, "Jo Ann", "joann007", "jo@school.cd", "STU0001", studentPwd, "5A", true)
	notFound := marchallObj(t, httpErr{Error: "not found"})

	tests := []httpTest{
		{name: "invalid id", method: http.MethodDelete, path: "/v1/students/1", token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "unknown id", method: http.MethodDelete, path: "/v1/students/" + uuid.NewString(), token: adminToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "success", method: http.MethodDelete, path: "/v1/students/" + jo.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "already gone", method: http.MethodDelete, path: "/v1/students/" + jo.ID, token: adminToken, wantCode: http.StatusNotFound, wantData: notFound},
	}
	runHTTPTests(t, fx, tests)

	_, err := fx.students.Get(context.Background(), account.GetFilter{ID: jo.ID})
	assert.Equal(t, account.ErrNotFound, err)
}

func Test_studentApi_resetPassword(t *testing.T) {
	fx := setup(t)
	adminToken := fx.adminToken(t)
	jo := testutil.CreateStudent(t, fx.students, "Jo Ann", "joann007", "jo@school.cd", "STU0001", studentPwd, "5A", true)

	tests := []httpTest{
		{
			name: "unknown id", method: http.MethodPost, path: "/v1/students/" + uuid.NewString() + "/reset-password",
			token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "success", method: http.MethodPost, path: "/v1/students/" + jo.ID + "/reset-password",
			token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: "Password reset to username"}),
		},
	}
	runHTTPTests(t, fx, tests)

	stored, err := fx.students.Get(context.Background(), account.GetFilter{ID: jo.ID})
	require.NoError(t, err)
	assert.NoError(t, stored.CheckPassword("joann007"))
}

func Test_studentApi_login(t *testing.T) {
	fx := setup(t)
	path := "/v1/students/login"
	jo := testutil.CreateStudent(t, fx.students, "Jo Ann", "joann007", "jo@school.cd", "STU0001", studentPwd, "5A", true)
	testutil.CreateStudent(t, fx.students, "Kim Lee", "kimlee003", "kim@school.cd", "STU0003", studentPwd, "5A", false)
	invalidCreds := marchallObj(t, httpErr{Error: "invalid credentials"})

	tests := []httpTest{
		{
			name: "username or email required", method: http.MethodPost, path: path,
			body: marchallObj(t, account.LoginRequest{Password: studentPwd}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "one of username or email is required",
				"email":    "one of username or email is required",
			}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: path,
			body:     marchallObj(t, account.LoginRequest{Username: "joann007", Password: "nope"}),
			wantCode: http.StatusUnauthorized, wantData: invalidCreds,
		},
		{
			name: "unknown account", method: http.MethodPost, path: path,
			body:     marchallObj(t, account.LoginRequest{Username: "ghost", Password: studentPwd}),
			wantCode: http.StatusUnauthorized, wantData: invalidCreds,
		},
		{
			name: "deactivated", method: http.MethodPost, path: path,
			body:     marchallObj(t, account.LoginRequest{Username: "kimlee003", Password: studentPwd}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	runHTTPTests(t, fx, tests)

	for name, req := range map[string]account.LoginRequest{
		"username": {Username: "JoAnn007", Password: studentPwd},
		"email":    {Email: "jo@school.cd", Password: studentPwd},
	} {
		t.Run(name, func(t *testing.T) {
			r, rec := newRequest(http.MethodPost, path, marchallObj(t, req))
			fx.serve(r, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp struct {
				Token   string          `json:"token"`
				Account account.Student `json:"account"`
			}
			require.NoError(t, jsonUnmarshal(rec.Body.Bytes(), &resp))
			claims := parseToken(t, fx.conf, resp.Token)
			assert.Equal(t, KindStudent, claims.Kind)
			assert.Equal(t, jo.ID, claims.Subject)
			assert.Equal(t, jo.ID, resp.Account.ID)
			assert.Equal(t, "5A", resp.Account.Class)
			assert.NotNil(t, resp.Account.LastLogin)
		})
	}

	t.Run("student token cannot reach admin routes", func(t *testing.T) {
		r, rec := newRequest(http.MethodPost, path, marchallObj(t, account.LoginRequest{Username: "joann007", Password: studentPwd}))
		fx.serve(r, rec)
		var resp LoginResponse
		require.NoError(t, jsonUnmarshal(rec.Body.Bytes(), &resp))

		r, rec = newAuthRequest(http.MethodGet, "/v1/students", resp.Token)
		fx.serve(r, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
