package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

var orderingParam = "ordering"

// Ordering binds ?ordering=-created_at,name to account sort fields.
// Unknown and repeated fields are dropped.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	seen := make(map[string]bool)
	for _, field := range strings.Split(val, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		col, ok := account.OrderField(field)
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: col, Ascending: !descending})
	}
}
