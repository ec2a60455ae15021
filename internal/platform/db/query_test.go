package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterPlaceholders(t *testing.T) {
	var f Filter
	require.Equal(t, "", f.Where())

	f.Add("store_id::text = %s", "s1")
	f.Add("(name ILIKE %s OR sku ILIKE %s)", Contains("50%_off"))
	f.AddRaw("is_active")

	require.Equal(t, " WHERE store_id::text = $1 AND (name ILIKE $2 OR sku ILIKE $2) AND is_active", f.Where())
	require.Equal(t, []any{"s1", `%50\%\_off%`}, f.Args())

	clause, args := f.Page(20, 40)
	require.Equal(t, " LIMIT $3 OFFSET $4", clause)
	require.Equal(t, []any{"s1", `%50\%\_off%`, 20, 40}, args)
	require.Len(t, f.Args(), 2)
}

func TestDirection(t *testing.T) {
	require.Equal(t, "ASC", Direction("asc"))
	require.Equal(t, "ASC", Direction("ASC"))
	require.Equal(t, "DESC", Direction(""))
	require.Equal(t, "DESC", Direction("sideways"))
}
