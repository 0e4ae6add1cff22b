package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the storage type of a schema field.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindTime
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Field describes one queryable attribute of a collection's records.
type Field struct {
	Name            string // Name used in Params (sortBy, filter id).
	Column          string // Storage column; defaults to Name.
	Kind            Kind
	CaseInsensitive bool // equals and ordering fold ASCII case.
}

// ColumnName returns the storage column for the field.
func (f Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// Parse converts a filter value to the Go type matching the field's kind.
// Times accept RFC 3339 or a plain 2006-01-02 date.
func (f Field) Parse(value string) (any, error) {
	switch f.Kind {
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", value)
		}
		return n, nil
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", value)
		}
		return b, nil
	case KindTime:
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t.UTC(), nil
		}
		t, err := time.Parse(time.DateOnly, value)
		if err != nil {
			return nil, fmt.Errorf("%q is not an RFC 3339 timestamp or date", value)
		}
		return t.UTC(), nil
	default:
		return value, nil
	}
}

// Schema describes a collection so that sort keys and filter ids can be
// validated without reflecting over the record type.
type Schema struct {
	Collection  string // Name used in logs and metrics.
	Key         string // Unique field used to break sort ties.
	DefaultSort string // Sort field when the caller names none.
	Fields      []Field
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the queryable field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks that the schema is internally consistent.
func (s Schema) Validate() error {
	if s.Collection == "" {
		return fmt.Errorf("schema: collection name is required")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %s: no fields", s.Collection)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %s: field with empty name", s.Collection)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema %s: duplicate field %q", s.Collection, f.Name)
		}
		seen[f.Name] = true
	}
	if !seen[s.Key] {
		return fmt.Errorf("schema %s: key %q is not a field", s.Collection, s.Key)
	}
	if !seen[s.DefaultSort] {
		return fmt.Errorf("schema %s: default sort %q is not a field", s.Collection, s.DefaultSort)
	}
	return nil
}
