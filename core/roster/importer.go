package roster

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

const (
	maxUsernameAttempts = 10000
	maxInsertAttempts   = 5

	// Recorder results
	ResultProvisioned = "provisioned"
	ResultFailed      = "failed"
	ResultSkipped     = "skipped"
	ResultRejected    = "rejected" // structural error, nothing provisioned
	ResultCompleted   = "completed"
	ResultAborted     = "aborted" // infrastructure error mid-batch
)

// Store is the part of an account repository the importer writes through.
type Store[T account.Record] interface {
	Exists(ctx context.Context, field account.Field, value string) (bool, error)
	Create(ctx context.Context, rec T) (T, error)
}

// Recorder receives import metrics.
type Recorder interface {
	RowProcessed(kind account.Kind, result string)
	ImportFinished(kind account.Kind, result string, elapsed time.Duration)
}

// Importer runs roster imports. It holds no per-run state and is safe for concurrent use.
type Importer struct {
	codec      Codec
	logger     core.Logger
	recorder   Recorder
	mailSvc    core.EmailService // nil: no welcome emails
	uploadsDir string
}

func NewImporter(conf *core.Config, codec Codec, logger core.Logger, recorder Recorder, mailSvc core.EmailService) *Importer {
	imp := &Importer{
		codec:      codec,
		logger:     logger,
		recorder:   recorder,
		uploadsDir: conf.Import.UploadsDir,
	}
	if conf.Import.Notify {
		imp.mailSvc = mailSvc
	}
	return imp
}

// run carries the per-import counters.
type run struct {
	seq int // 0-based; synthesized ids use seq+1
}

// rowError rejects a single row.
type rowError struct {
	msg string
}

func (err *rowError) Error() string { return err.msg }

// Import decodes r, validates its columns and provisions one account per row.
// Structural problems abort before any row is inspected. Row failures are collected
// in the Outcome. Any other error is an infrastructure failure: rows provisioned
// before it stay persisted.
func Import[T account.Record](ctx context.Context, imp *Importer, v Variant[T], store Store[T], r io.Reader) (Outcome, error) {
	start := time.Now()
	out := Outcome{Kind: v.Kind, sheetName: v.SheetName, columns: v.ReportColumns}

	sheet, err := imp.codec.Decode(r)
	if err != nil {
		imp.recorder.ImportFinished(v.Kind, ResultRejected, time.Since(start))
		return out, err
	}
	if missing := sheet.MissingColumns(v.RequiredColumns); len(missing) > 0 {
		imp.recorder.ImportFinished(v.Kind, ResultRejected, time.Since(start))
		return out, &MissingColumnsError{Columns: missing}
	}

	rn := new(run)
	for _, row := range sheet.Rows {
		cred, err := provision(ctx, v, store, rn, row)
		var rErr *rowError
		switch {
		case err == nil && cred == nil:
			out.Skipped++
			imp.recorder.RowProcessed(v.Kind, ResultSkipped)
		case err == nil:
			out.Credentials = append(out.Credentials, *cred)
			imp.recorder.RowProcessed(v.Kind, ResultProvisioned)
		case errors.As(err, &rErr):
			out.Failures = append(out.Failures, RowFailure{Row: row.Number, Message: rErr.msg})
			imp.recorder.RowProcessed(v.Kind, ResultFailed)
		default:
			imp.recorder.ImportFinished(v.Kind, ResultAborted, time.Since(start))
			imp.logger.Error(
				fmt.Sprintf("%s import aborted at row %d after %d accounts", v.Kind, row.Number, len(out.Credentials)),
				err,
			)
			return out, errors.Wrapf(err, "provisioning row %d", row.Number)
		}
	}

	imp.recorder.ImportFinished(v.Kind, ResultCompleted, time.Since(start))
	imp.logger.Info(fmt.Sprintf(
		"%s import: %d provisioned, %d failed, %d skipped",
		v.Kind, len(out.Credentials), len(out.Failures), out.Skipped,
	))
	imp.notify(out)
	return out, nil
}

func provision[T account.Record](ctx context.Context, v Variant[T], store Store[T], rn *run, row Row) (*Credential, error) {
	name := core.CleanString(row.Get("Name"))
	email := core.CleanString(row.Get("Email"), true /* lower */)
	if name == "" || email == "" {
		return nil, nil
	}
	if err := v.checkLimits(row); err != nil {
		return nil, err
	}

	// external id
	extID := row.Get(v.IDColumn)
	synthesized := extID == ""
	if synthesized {
		for {
			extID = externalID(v.IDPrefix, rn.seq)
			taken, err := store.Exists(ctx, account.FieldExternalID, extID)
			if err != nil {
				return nil, errors.Wrap(err, "checking external id")
			}
			if !taken {
				break
			}
			rn.seq++
		}
	} else {
		taken, err := store.Exists(ctx, account.FieldExternalID, extID)
		if err != nil {
			return nil, errors.Wrap(err, "checking external id")
		}
		if taken {
			return nil, conflictRowError(v.Kind, account.FieldExternalID, extID)
		}
	}

	// username
	base := core.CleanString(row.Get(v.UsernameColumn), true /* lower */)
	if base == "" {
		base = deriveUsername(name, v.usernameSuffix(row, extID))
	}

	taken, err := store.Exists(ctx, account.FieldEmail, email)
	if err != nil {
		return nil, errors.Wrap(err, "checking email")
	}
	if taken {
		return nil, conflictRowError(v.Kind, account.FieldEmail, email)
	}

	uname, counter, err := freeUsername(ctx, store, base, 0)
	if err != nil {
		return nil, err
	}

	pwd, err := GeneratePassword()
	if err != nil {
		return nil, errors.Wrap(err, "generating password")
	}
	now := core.NowFunc()
	acc := account.Account{
		ID:         uuid.NewString(),
		ExternalID: extID,
		Name:       name,
		Email:      email,
		Username:   uname,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = acc.SetPassword(pwd); err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}

	var created T
	for attempt := 1; ; attempt++ {
		created, err = store.Create(ctx, v.build(row, acc))
		if err == nil {
			break
		}
		var conflict *account.ConflictError
		var dataErr *account.DataError
		switch {
		case errors.As(err, &conflict):
			// lost a race on the username: move on to the next free suffix
			if conflict.Field == account.FieldUsername && attempt < maxInsertAttempts {
				if acc.Username, counter, err = freeUsername(ctx, store, base, counter+1); err != nil {
					return nil, err
				}
				continue
			}
			return nil, &rowError{msg: conflict.Error()}
		case errors.As(err, &dataErr):
			return nil, &rowError{msg: dataErr.Error()}
		default:
			return nil, errors.Wrap(err, "creating account")
		}
	}

	if synthesized {
		rn.seq++
	}
	info := created.Info()
	return &Credential{
		ExternalID: info.ExternalID,
		Name:       info.Name,
		Email:      info.Email,
		Username:   info.Username,
		Password:   pwd,
		Extra:      v.reportExtra(created),
	}, nil
}

// freeUsername returns the first untaken candidate starting at counter:
// base itself for 0, then base1, base2, ...
func freeUsername[T account.Record](ctx context.Context, store Store[T], base string, counter int) (string, int, error) {
	for ; counter < maxUsernameAttempts; counter++ {
		candidate := base
		if counter > 0 {
			candidate = base + strconv.Itoa(counter)
		}
		taken, err := store.Exists(ctx, account.FieldUsername, candidate)
		if err != nil {
			return "", counter, errors.Wrap(err, "checking username")
		}
		if !taken {
			return candidate, counter, nil
		}
	}
	return "", counter, &rowError{msg: fmt.Sprintf("No free username found for %s", base)}
}

func conflictRowError(kind account.Kind, field account.Field, value string) error {
	return &rowError{msg: (&account.ConflictError{Kind: kind, Field: field, Value: value}).Error()}
}

type welcomeData struct {
	Name     string
	Username string
}

// notify sends a welcome email to every provisioned account. Passwords are never mailed.
func (imp *Importer) notify(out Outcome) {
	if imp.mailSvc == nil || len(out.Credentials) == 0 {
		return
	}
	msgs := make([]*core.EmailMessage, 0, len(out.Credentials))
	for _, c := range out.Credentials {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: c.Name, Address: c.Email}},
			Subject:      "Your account is ready",
			TemplateName: "account_welcome",
			TemplateData: welcomeData{Name: c.Name, Username: c.Username},
		})
	}
	imp.mailSvc.SendMessages(msgs...)
}
