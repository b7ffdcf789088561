package postgres

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// listQuery appends the filters, order and paging of opts to base, which must
// already contain a WHERE clause. timeCol is the column Since/Until apply to.
func listQuery(base, timeCol string, opts domain.ListOpts) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(base)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.Outcome != "" {
		sb.WriteString(" AND outcome = " + arg(string(opts.Outcome)))
	}
	if opts.Since != nil {
		sb.WriteString(" AND " + timeCol + " >= " + arg(*opts.Since))
	}
	if opts.Until != nil {
		sb.WriteString(" AND " + timeCol + " <= " + arg(*opts.Until))
	}
	sb.WriteString(" ORDER BY " + timeCol + " DESC")
	if opts.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(opts.Limit))
	}
	if opts.Offset > 0 {
		sb.WriteString(" OFFSET " + arg(opts.Offset))
	}
	return sb.String(), args
}
