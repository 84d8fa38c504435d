package crud

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// ListQuery is the list SELECT handed to a controller before it runs.
// Controllers may add ordering or conditions; paging is applied after.
type ListQuery struct {
	Request domain.PageRequest
	builder sq.SelectBuilder
}

// HasDirection reports whether the request asked for an explicit sort.
func (q *ListQuery) HasDirection() bool {
	return q.Request.Direction != ""
}

// OrderBy appends ORDER BY expressions.
func (q *ListQuery) OrderBy(exprs ...string) {
	q.builder = q.builder.OrderBy(exprs...)
}

// Where adds a condition, see squirrel.SelectBuilder.Where.
func (q *ListQuery) Where(pred any, args ...any) {
	q.builder = q.builder.Where(pred, args...)
}

// SQL renders the query.
func (q *ListQuery) SQL() (string, []any, error) {
	return q.builder.ToSql()
}

// baseSelect builds the FROM and JOIN part shared by the list and count queries.
func baseSelect(d ResourceDescriptor) sq.SelectBuilder {
	b := sq.StatementBuilder.Select().From(d.Table)
	for _, rel := range d.Relations {
		b = b.LeftJoin(rel.Clause())
	}
	return b
}

// applyFilters adds the conditions of the declared filters present in params.
// Parameters matching no declared filter are ignored.
func applyFilters(b sq.SelectBuilder, filters []QueryFilter, params map[string]string) (sq.SelectBuilder, error) {
	for _, f := range filters {
		if !pkg.ValidFieldName(f.Name) {
			return b, fmt.Errorf("invalid filter column %q", f.Name)
		}
		switch f.Type {
		case FilterDateRange:
			if from := params[f.Name+"__from"]; from != "" {
				b = b.Where(sq.GtOrEq{f.Name: from})
			}
			if to := params[f.Name+"__to"]; to != "" {
				b = b.Where(sq.LtOrEq{f.Name: to})
			}
		default:
			v, ok := params[f.Name]
			if !ok || v == "" {
				continue
			}
			if strings.EqualFold(f.Operator, "like") {
				b = b.Where(sq.Like{f.Name: "%" + v + "%"})
			} else {
				b = b.Where(sq.Eq{f.Name: v})
			}
		}
	}
	return b, nil
}

// sortExpr returns the ORDER BY expression of an explicit sort request, or
// "" when the requested column is unknown or not sortable.
func sortExpr(d ResourceDescriptor, columns ColumnSpec, req domain.PageRequest) string {
	if req.Active == "" || req.Direction == "" || !pkg.ValidFieldName(req.Active) {
		return ""
	}
	col, ok := columns.Lookup(req.Active)
	if !ok || !col.Sortable {
		return ""
	}
	return d.ColumnRef(col.Key) + " " + strings.ToUpper(req.Direction)
}
