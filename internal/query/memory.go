package query

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Getter returns the value of the named field on a record. Supported value
// types are string, the integer types, bool, time.Time, pointers to those
// (nil meaning null) and untyped nil.
type Getter[T any] func(record T, field string) any

// Compile-time interface guard.
var _ Backend[struct{}] = (*MemoryCollection[struct{}])(nil)

// MemoryCollection is an in-memory Backend. It applies the same filter and
// ordering semantics as the SQLite collection and is meant for tests and
// small static data sets.
type MemoryCollection[T any] struct {
	mu      sync.RWMutex
	records []T
	get     Getter[T]
}

// NewMemoryCollection returns a collection holding a copy of records.
func NewMemoryCollection[T any](get Getter[T], records ...T) *MemoryCollection[T] {
	return &MemoryCollection[T]{records: slices.Clone(records), get: get}
}

// Add appends records.
func (c *MemoryCollection[T]) Add(records ...T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
}

// Len returns the number of stored records.
func (c *MemoryCollection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *MemoryCollection[T]) Count(ctx context.Context, conds []Condition) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, rec := range c.records {
		if c.matchAll(rec, conds) {
			n++
		}
	}
	return n, nil
}

func (c *MemoryCollection[T]) Fetch(ctx context.Context, conds []Condition, sort Sort, offset, limit int) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	matched := make([]T, 0, len(c.records))
	for _, rec := range c.records {
		if c.matchAll(rec, conds) {
			matched = append(matched, rec)
		}
	}
	c.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b T) int {
		n := compareValues(sort.Field, c.get(a, sort.Field.Name), c.get(b, sort.Field.Name))
		if n == 0 {
			n = compareValues(sort.Key, c.get(a, sort.Key.Name), c.get(b, sort.Key.Name))
		}
		if sort.Direction == Desc {
			return -n
		}
		return n
	})

	if offset >= len(matched) {
		return []T{}, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (c *MemoryCollection[T]) matchAll(rec T, conds []Condition) bool {
	for _, cond := range conds {
		if !matchValue(cond, c.get(rec, cond.Field.Name)) {
			return false
		}
	}
	return true
}

// deref unwraps supported pointer types, mapping nil pointers to nil.
func deref(v any) any {
	switch p := v.(type) {
	case *string:
		if p == nil {
			return nil
		}
		return *p
	case *int:
		if p == nil {
			return nil
		}
		return int64(*p)
	case *int64:
		if p == nil {
			return nil
		}
		return *p
	case *bool:
		if p == nil {
			return nil
		}
		return *p
	case *time.Time:
		if p == nil {
			return nil
		}
		return *p
	case int:
		return int64(p)
	case int32:
		return int64(p)
	}
	return v
}

func matchValue(cond Condition, raw any) bool {
	v := deref(raw)

	if cond.Operator == OpEmpty {
		if v == nil {
			return true
		}
		s, ok := v.(string)
		return ok && s == ""
	}
	if v == nil {
		return false
	}

	switch cond.Operator {
	case OpContains, OpStartsWith, OpEndsWith:
		s, ok := v.(string)
		if !ok {
			return false
		}
		s, needle := strings.ToLower(s), strings.ToLower(cond.Value)
		switch cond.Operator {
		case OpContains:
			return strings.Contains(s, needle)
		case OpStartsWith:
			return strings.HasPrefix(s, needle)
		default:
			return strings.HasSuffix(s, needle)
		}
	case OpEquals:
		return equalValue(cond, v)
	}
	return false
}

func equalValue(cond Condition, v any) bool {
	switch x := v.(type) {
	case string:
		want, _ := cond.Arg.(string)
		if cond.Field.CaseInsensitive {
			return strings.EqualFold(x, want)
		}
		return x == want
	case int64:
		want, ok := cond.Arg.(int64)
		return ok && x == want
	case bool:
		want, ok := cond.Arg.(bool)
		return ok && x == want
	case time.Time:
		want, ok := cond.Arg.(time.Time)
		return ok && x.Equal(want)
	}
	return false
}

// compareValues orders two field values. Null sorts before any value, as
// it does in SQLite.
func compareValues(f Field, a, b any) int {
	a, b = deref(a), deref(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch x := a.(type) {
	case string:
		y, _ := b.(string)
		if f.CaseInsensitive {
			return cmp.Compare(strings.ToLower(x), strings.ToLower(y))
		}
		return cmp.Compare(x, y)
	case int64:
		y, _ := b.(int64)
		return cmp.Compare(x, y)
	case bool:
		y, _ := b.(bool)
		return cmp.Compare(boolRank(x), boolRank(y))
	case time.Time:
		y, _ := b.(time.Time)
		return x.Compare(y)
	}
	return cmp.Compare(stringify(a), stringify(b))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return ""
}
