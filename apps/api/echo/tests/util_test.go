package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/roster"
	emailsvc "github.com/trezcool/shule/services/email"
	metricsvc "github.com/trezcool/shule/services/metrics"
	sheetsvc "github.com/trezcool/shule/services/spreadsheet"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	"github.com/trezcool/shule/tests"
)

const (
	adminPassword = "s3cret-Admin"
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	adminHash []byte

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func init() {
	adminHash, _ = bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
}

type fixture struct {
	conf     *core.Config
	app      *Server
	db       *inmemdb.DB
	students account.StudentRepository
	teachers account.TeacherRepository
	mailSvc  *emailsvc.ConsoleServiceMock
}

type option func(conf *core.Config, deps *ServerDeps)

// withStudentRepository swaps the student store the services write through.
func withStudentRepository(repo account.StudentRepository) option {
	return func(_ *core.Config, deps *ServerDeps) {
		deps.StudentSvc = account.NewStudentService(repo)
	}
}

func setup(t *testing.T, opts ...option) *fixture {
	t.Helper()
	conf := testutil.Config(t)
	conf.Admin.PasswordHash = string(adminHash)
	conf.Server.LoginRateLimit = 1000
	logger := testutil.Logger(conf)
	core.ParseEmailTemplates(conf, logger)

	validate := validator.New()
	translator, _ := ut.New(en.New()).GetTranslator("en")
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	account.LoadCommonPasswords(logger)

	db := inmemdb.Open()
	fx := &fixture{
		conf:     conf,
		db:       db,
		students: inmemdb.NewStudentRepository(db),
		teachers: inmemdb.NewTeacherRepository(db),
		mailSvc:  emailsvc.NewConsoleServiceMock(conf, logger),
	}

	deps := ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		StudentSvc:     account.NewStudentService(fx.students),
		TeacherSvc:     account.NewTeacherService(fx.teachers, validate),
		MetricsHandler: metricsvc.Handler(),
		DisableReqLogs: true,
	}
	for _, opt := range opts {
		opt(conf, &deps)
	}
	deps.Importer = roster.NewImporter(conf, sheetsvc.NewExcelCodec(), logger, metricsvc.NewPrometheusRecorder(), fx.mailSvc)
	fx.app = NewServer(deps)
	return fx
}

func (fx *fixture) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	fx.app.ServeHTTP(rec, req)
}

func (fx *fixture) adminToken(t *testing.T) string {
	t.Helper()
	return getToken(t, fx.conf, core.Principal{ID: "admin", Username: fx.conf.Admin.Username}, KindAdmin)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest posts content as a multipart file part. An empty field sends a form without a file.
func newUploadRequest(
	t *testing.T,
	path, token, field, filename, contentType string,
	content []byte,
) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
		if _, err = part.Write(content); err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
	} else if err := mw.WriteField("note", "no file"); err != nil {
		t.Fatalf("newUploadRequest() failed: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("newUploadRequest() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, conf *core.Config, p core.Principal, kind string) string {
	t.Helper()
	token, err := GenerateToken(conf, NewClaims(conf, p, kind))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		assert.Empty(t, rec.Body.String())
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, fx *fixture, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			fx.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
