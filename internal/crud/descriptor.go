package crud

import (
	"errors"
	"fmt"

	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// Relation is a LEFT JOIN from the resource table to a related table.
type Relation struct {
	Table      string
	Alias      string
	LocalKey   string
	Operator   string
	ForeignKey string
}

// Clause renders the join clause, e.g. "users AS author ON orders.author = author.id".
func (r Relation) Clause() string {
	return fmt.Sprintf("%s AS %s ON %s %s %s", r.Table, r.Alias, r.LocalKey, r.Operator, r.ForeignKey)
}

// ResourceDescriptor is the static description of a CRUD resource.
type ResourceDescriptor struct {
	Namespace   string
	Table       string
	Model       string
	Relations   []Relation
	Picks       map[string][]string
	Permissions domain.Permissions
}

var joinOperators = map[string]struct{}{
	"=": {}, "!=": {}, "<": {}, ">": {}, "<=": {}, ">=": {},
}

// Validate checks the descriptor. Relation aliases must be unique and
// every pick must name a declared alias.
func (d ResourceDescriptor) Validate() error {
	if d.Namespace == "" {
		return errors.New("descriptor: namespace is required")
	}
	if !pkg.ValidFieldName(d.Table) {
		return fmt.Errorf("descriptor %s: invalid table %q", d.Namespace, d.Table)
	}

	aliases := make(map[string]struct{}, len(d.Relations))
	for _, rel := range d.Relations {
		if !pkg.ValidFieldName(rel.Table) || !pkg.ValidFieldName(rel.Alias) {
			return fmt.Errorf("descriptor %s: invalid relation %q AS %q", d.Namespace, rel.Table, rel.Alias)
		}
		if rel.Alias == d.Table {
			return fmt.Errorf("descriptor %s: alias %q shadows the resource table", d.Namespace, rel.Alias)
		}
		if _, dup := aliases[rel.Alias]; dup {
			return fmt.Errorf("descriptor %s: duplicate relation alias %q", d.Namespace, rel.Alias)
		}
		aliases[rel.Alias] = struct{}{}
		if _, ok := joinOperators[rel.Operator]; !ok {
			return fmt.Errorf("descriptor %s: invalid join operator %q", d.Namespace, rel.Operator)
		}
		if !pkg.ValidFieldName(rel.LocalKey) || !pkg.ValidFieldName(rel.ForeignKey) {
			return fmt.Errorf("descriptor %s: invalid join keys for %q", d.Namespace, rel.Alias)
		}
	}

	for alias, cols := range d.Picks {
		if _, ok := aliases[alias]; !ok {
			return fmt.Errorf("descriptor %s: pick references unknown alias %q", d.Namespace, alias)
		}
		for _, col := range cols {
			if !pkg.ValidFieldName(col) {
				return fmt.Errorf("descriptor %s: invalid pick %q.%q", d.Namespace, alias, col)
			}
		}
	}
	return nil
}

// Projection lists the selected columns: every column of the resource
// table, then each picked column as "<alias>_<column>" in relation order.
func (d ResourceDescriptor) Projection() []string {
	cols := []string{d.Table + ".*"}
	for _, rel := range d.Relations {
		for _, col := range d.Picks[rel.Alias] {
			cols = append(cols, fmt.Sprintf("%s.%s AS %s_%s", rel.Alias, col, rel.Alias, col))
		}
	}
	return cols
}

// ColumnRef resolves a list column key to a qualified column reference:
// picked columns map back to "<alias>.<column>", anything else belongs to
// the resource table.
func (d ResourceDescriptor) ColumnRef(key string) string {
	for _, rel := range d.Relations {
		for _, col := range d.Picks[rel.Alias] {
			if key == rel.Alias+"_"+col {
				return rel.Alias + "." + col
			}
		}
	}
	return d.Table + "." + key
}
