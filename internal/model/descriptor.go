package model

// FilterType is the coercion applied to a raw query-string filter value
// before it reaches a query
type FilterType int

const (
	FilterString FilterType = iota
	FilterInt
	FilterFloat
	FilterBool
)

// FilterField describes one filterable attribute: the database column it
// resolves to and the type its value is coerced to
type FilterField struct {
	Column string
	Type   FilterType
}

// Descriptor is the static capability table for one entity type, consumed by
// the generic repository and controller instead of runtime reflection. The
// attribute maps translate API attribute names (camelCase, as they appear in
// query strings and request bodies) to database columns; they double as
// allow-lists, so an attribute absent from a map is rejected before it can
// reach a query.
type Descriptor struct {
	// Name is the singular entity name used in logs and metrics
	Name string
	// HasEnterprise reports whether rows carry an enterprise reference and
	// therefore must be tenant-scoped
	HasEnterprise bool
	// UniqueColumns are the database columns checked against active rows
	// before every insert; columns of composite groups are listed (and
	// checked) individually
	UniqueColumns []string
	// Filterable maps attribute -> column and value type for query-string
	// equality filters
	Filterable map[string]FilterField
	// Sortable maps attribute -> column for orderBy
	Sortable map[string]string
	// Updatable maps attribute -> column for create and update bodies; a
	// body key outside this map is rejected
	Updatable map[string]string
}

// Filter resolves a filterable attribute
func (d Descriptor) Filter(attr string) (FilterField, bool) {
	f, ok := d.Filterable[attr]
	return f, ok
}

// SortColumn resolves a sortable attribute to its column
func (d Descriptor) SortColumn(attr string) (string, bool) {
	col, ok := d.Sortable[attr]
	return col, ok
}

// UpdateColumn resolves an updatable attribute to its column
func (d Descriptor) UpdateColumn(attr string) (string, bool) {
	col, ok := d.Updatable[attr]
	return col, ok
}
