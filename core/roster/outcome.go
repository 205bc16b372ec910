package roster

import (
	"fmt"

	"github.com/trezcool/shule/core/account"
)

// Credential is one line of the credentials report.
// Password is the only place the plaintext ever lives, for the duration of the request.
type Credential struct {
	ExternalID string
	Name       string
	Email      string
	Username   string
	Password   string
	Extra      []string // variant columns
}

func (c Credential) cells() []string {
	cells := make([]string, 0, 5+len(c.Extra))
	cells = append(cells, c.ExternalID, c.Name, c.Email, c.Username, c.Password)
	return append(cells, c.Extra...)
}

// RowFailure is a row that was rejected without aborting the batch.
type RowFailure struct {
	Row     int
	Message string
}

func (f RowFailure) String() string {
	return fmt.Sprintf("Row %d: %s", f.Row, f.Message)
}

type Outcome struct {
	Kind        account.Kind
	Credentials []Credential
	Failures    []RowFailure
	Skipped     int

	sheetName string
	columns   []string
}

// Errors returns the row failures formatted as "Row N: message".
func (o Outcome) Errors() []string {
	errs := make([]string, 0, len(o.Failures))
	for _, f := range o.Failures {
		errs = append(errs, f.String())
	}
	return errs
}

// NoAccountsError is returned when an import provisioned nothing.
type NoAccountsError struct {
	Kind   account.Kind
	Errors []string
}

func (err *NoAccountsError) Error() string {
	return fmt.Sprintf("No %s were processed. Check your file format.", err.Kind.Plural())
}
