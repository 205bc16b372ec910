package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/roster"
)

const (
	studentsFileField = "studentsFile"
	teachersFileField = "teachersFile"

	headerImportFailed = "X-Import-Failed"

	// room for the multipart envelope around the file
	multipartSlack = 1 << 20
)

var (
	errNoFile   = echo.NewHTTPError(http.StatusBadRequest, "No file uploaded. Please select an Excel file.")
	errNotExcel = echo.NewHTTPError(http.StatusBadRequest, "Only .xlsx files are allowed!")
)

func errFileTooBig(maxSize int64) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("File size too large. Maximum size is %dMB.", maxSize>>20))
}

// uploadLimit caps the request body of upload routes.
func (s *Server) uploadLimit() echo.MiddlewareFunc {
	maxSize := s.Conf.Import.MaxUploadSize
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			if req.ContentLength > maxSize+multipartSlack {
				return errFileTooBig(maxSize)
			}
			req.Body = http.MaxBytesReader(ctx.Response(), req.Body, maxSize+multipartSlack)
			return next(ctx)
		}
	}
}

func (s *Server) uploadStudents(ctx echo.Context) error {
	return upload(ctx, s, studentsFileField, roster.Students(), s.StudentSvc.Repository())
}

func (s *Server) uploadTeachers(ctx echo.Context) error {
	return upload(ctx, s, teachersFileField, roster.Teachers(), s.TeacherSvc.Repository())
}

func upload[T account.Record](ctx echo.Context, s *Server, field string, v roster.Variant[T], store roster.Store[T]) error {
	maxSize := s.Conf.Import.MaxUploadSize

	fh, err := ctx.FormFile(field)
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return errFileTooBig(maxSize)
		case errors.Is(err, http.ErrMissingFile):
			return errNoFile
		default:
			return errors.Wrap(errNoFile, err.Error())
		}
	}
	if fh.Size > maxSize {
		return errFileTooBig(maxSize)
	}
	isXlsx := strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") ||
		fh.Header.Get(echo.HeaderContentType) == roster.ReportContentType
	if !isXlsx {
		return errNotExcel
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	// the import outlives the request
	ictx := context.WithoutCancel(ctx.Request().Context())
	out, err := roster.Import(ictx, s.Importer, v, store, f)
	if err != nil {
		if isStructural(err) {
			return err
		}
		return &importFailure{err: err}
	}

	rep, err := s.Importer.NewReport(out)
	if err != nil {
		var none *roster.NoAccountsError
		if errors.As(err, &none) {
			return none
		}
		return &importFailure{err: err}
	}
	defer rep.Close()

	rf, err := rep.Open()
	if err != nil {
		return &importFailure{err: errors.Wrap(err, "opening report")}
	}
	defer rf.Close()

	hdr := ctx.Response().Header()
	hdr.Set(echo.HeaderContentDisposition, "attachment; filename="+rep.Filename)
	hdr.Set(headerImportFailed, strconv.Itoa(len(out.Failures)))
	return ctx.Stream(http.StatusOK, roster.ReportContentType, rf)
}

func isStructural(err error) bool {
	var sheetErr roster.SheetError
	var colsErr *roster.MissingColumnsError
	return errors.As(err, &sheetErr) || errors.As(err, &colsErr)
}
