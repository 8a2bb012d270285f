package echoapi

import (
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/edlabs/academia/core"
)

var (
	orderingParam = "ordering"
	identRegex    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Ordering binds the "ordering" query param; "field1,-field2" sorts by
// field1 ascending then field2 descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		// ordering values end up in an ORDER BY clause; only plain
		// column identifiers get through
		if !identRegex.MatchString(field) {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
