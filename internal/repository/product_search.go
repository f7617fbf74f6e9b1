package repository

import (
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildSearchQuery ANDs every set predicate. Brand and color are matched as
// case-insensitive substrings; empty strings are ignored.
func buildSearchQuery(filter model.SearchFilter) (string, pgx.NamedArgs) {
	var (
		conds []string
		args  = pgx.NamedArgs{}
	)

	if filter.Brand != nil && *filter.Brand != "" {
		conds = append(conds, `brand ILIKE @brand ESCAPE '\'`)
		args["brand"] = containsPattern(*filter.Brand)
	}
	if filter.Color != nil && *filter.Color != "" {
		conds = append(conds, `color ILIKE @color ESCAPE '\'`)
		args["color"] = containsPattern(*filter.Color)
	}
	if filter.MinPrice != nil {
		conds = append(conds, `price >= @min_price`)
		args["min_price"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		conds = append(conds, `price <= @max_price`)
		args["max_price"] = *filter.MaxPrice
	}

	var b strings.Builder
	b.WriteString("SELECT " + productColumns + " FROM products")
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY id")

	return b.String(), args
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
