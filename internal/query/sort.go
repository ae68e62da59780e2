package query

import (
	"fmt"
	"strings"

	"chatflow-service/internal/apperr"
	"chatflow-service/internal/model"
)

// Direction of a sort field
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// SortField is one parsed orderBy entry, still in attribute (API) terms
type SortField struct {
	Attribute string
	Direction Direction
}

// ParseOrderBy parses an orderBy query parameter of the form
// "column[:direction][,column[:direction]...]". Direction defaults to
// ascending and is case-insensitive.
func ParseOrderBy(raw string) []SortField {
	if raw == "" {
		return nil
	}
	var fields []SortField
	for _, param := range strings.Split(raw, ",") {
		parts := strings.SplitN(param, ":", 2)
		field := SortField{Attribute: parts[0], Direction: Asc}
		if len(parts) > 1 && strings.EqualFold(parts[1], "desc") {
			field.Direction = Desc
		}
		fields = append(fields, field)
	}
	return fields
}

// OrderClause translates parsed sort fields into an ORDER BY expression using
// the descriptor's sortable allow-list. Attributes outside the allow-list are
// a validation failure; column names never come from the request, so the
// resulting clause is safe to interpolate.
func OrderClause(fields []SortField, desc model.Descriptor) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := desc.SortColumn(f.Attribute)
		if !ok {
			return "", apperr.Validationf("The query parameters [%s] are not valid", f.Attribute)
		}
		parts = append(parts, fmt.Sprintf("%q %s", col, f.Direction))
	}
	return strings.Join(parts, ", "), nil
}
