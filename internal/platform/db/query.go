package db

import (
	"fmt"
	"strings"
)

// Filter accumulates WHERE conditions with positional arguments so the
// count and page queries of a listing share one clause.
type Filter struct {
	conds []string
	args  []any
}

// Add appends cond, replacing every %s with the placeholder bound to arg.
func (f *Filter) Add(cond string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.ReplaceAll(cond, "%s", fmt.Sprintf("$%d", len(f.args))))
}

// AddRaw appends a condition without arguments.
func (f *Filter) AddRaw(cond string) {
	f.conds = append(f.conds, cond)
}

// Where renders the clause with a leading space, or "" when empty.
func (f *Filter) Where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// Args returns the bound arguments.
func (f *Filter) Args() []any {
	return append([]any(nil), f.args...)
}

// Page renders LIMIT/OFFSET placeholders after the filter arguments and
// returns the full argument list.
func (f *Filter) Page(limit, offset int) (string, []any) {
	n := len(f.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), append(f.Args(), limit, offset)
}

// Contains builds an ILIKE pattern matching term anywhere, with LIKE
// metacharacters escaped.
func Contains(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// Direction normalises a sort direction; anything but "asc" sorts descending.
func Direction(dir string) string {
	if strings.EqualFold(dir, "asc") {
		return "ASC"
	}
	return "DESC"
}
