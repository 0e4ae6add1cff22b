package query

// Operator selects how a Filter compares a field against its value.
type Operator string

const (
	OpContains   Operator = "contains"   // case-insensitive substring
	OpEquals     Operator = "equals"     // exact; case-insensitive only on CaseInsensitive fields
	OpStartsWith Operator = "startsWith" // case-insensitive prefix
	OpEndsWith   Operator = "endsWith"   // case-insensitive suffix
	OpEmpty      Operator = "empty"      // null or empty string; Value is ignored
)

// Valid reports whether o is one of the recognized operators.
func (o Operator) Valid() bool {
	switch o {
	case OpContains, OpEquals, OpStartsWith, OpEndsWith, OpEmpty:
		return true
	}
	return false
}

// matchesText reports whether the operator is a string-pattern match,
// which is only meaningful on text fields.
func (o Operator) matchesText() bool {
	return o == OpContains || o == OpStartsWith || o == OpEndsWith
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter is a single field/operator/value predicate. Filters in a Params
// value are combined with logical AND.
type Filter struct {
	ID       string   `json:"id"`
	Value    string   `json:"value"`
	Operator Operator `json:"operator"`
}

// Params are the caller-supplied table query parameters. Every field is
// optional; the zero value asks for the first page at the default page
// size, in default order, unfiltered.
//
// Sort is the legacy spelling of SortBy. When both are set SortBy wins.
type Params struct {
	Limit         *int      `json:"limit,omitempty"`
	Offset        *int      `json:"offset,omitempty"`
	SortBy        string    `json:"sortBy,omitempty"`
	Sort          string    `json:"sort,omitempty"`
	SortDirection Direction `json:"sortDirection,omitempty"`
	Filters       []Filter  `json:"filters,omitempty"`
}

// Int returns a pointer to v, for building Params literals.
func Int(v int) *int {
	return &v
}

// Condition is a validated Filter bound to its schema field. Arg holds the
// value parsed for the field's kind (the raw string for text fields).
type Condition struct {
	Field    Field
	Operator Operator
	Value    string
	Arg      any
}

// Sort is the resolved ordering handed to a Backend: the primary field and
// the stable tie-break key, both in Direction.
type Sort struct {
	Field     Field
	Key       Field
	Direction Direction
}
