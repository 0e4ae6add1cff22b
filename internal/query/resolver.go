// Package query resolves table query parameters (limit, offset, sort,
// filters) against a persisted collection and returns a paginated result
// envelope.
//
// A Resolver validates Params against a Schema, then asks its Backend for
// the filtered total and for one sorted page. The two backend reads are
// independent: under concurrent writes Total may be momentarily stale
// relative to Records. Ordering always ends with the schema key, so a
// static collection pages without skips or duplicates.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Defaults applied when a Resolver is built without options.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultTimeout  = 5 * time.Second
)

// Backend is the persistence collaborator a Resolver reads through.
// Implementations must not mutate the collection.
type Backend[T any] interface {
	// Count returns the number of records matching every condition.
	Count(ctx context.Context, conds []Condition) (int, error)

	// Fetch returns at most limit matching records in sort order, after
	// skipping offset of them.
	Fetch(ctx context.Context, conds []Condition, sort Sort, offset, limit int) ([]T, error)
}

// Observer receives one call per Resolve. code is "ok" or a failure Code.
type Observer interface {
	ObserveQuery(collection, code string, elapsed time.Duration)
}

type options struct {
	logger      *zap.Logger
	pageSize    int
	maxPageSize int
	timeout     time.Duration
	observer    Observer
}

// Option configures a Resolver.
type Option func(*options)

// WithLogger sets the logger used for backend failures and sort alias
// conflicts.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPageSize sets the page size used when Params.Limit is absent.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithMaxPageSize caps Params.Limit. Larger limits are clamped, not rejected.
func WithMaxPageSize(n int) Option {
	return func(o *options) { o.maxPageSize = n }
}

// WithTimeout bounds each Resolve call's backend work.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithObserver registers a metrics observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Resolver answers table queries for one collection. It holds no mutable
// state and is safe for concurrent use.
type Resolver[T any] struct {
	schema  Schema
	backend Backend[T]
	opts    options
}

// NewResolver validates the schema and options and returns a Resolver.
func NewResolver[T any](schema Schema, backend Backend[T], opts ...Option) (*Resolver[T], error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("resolver %s: nil backend", schema.Collection)
	}

	o := options{
		pageSize:    DefaultPageSize,
		maxPageSize: MaxPageSize,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.maxPageSize <= 0 {
		return nil, fmt.Errorf("resolver %s: max page size must be positive", schema.Collection)
	}
	if o.pageSize <= 0 || o.pageSize > o.maxPageSize {
		return nil, fmt.Errorf("resolver %s: page size %d outside 1..%d", schema.Collection, o.pageSize, o.maxPageSize)
	}
	if o.timeout <= 0 {
		return nil, fmt.Errorf("resolver %s: timeout must be positive", schema.Collection)
	}

	return &Resolver[T]{schema: schema, backend: backend, opts: o}, nil
}

// Schema returns the collection schema the resolver validates against.
func (r *Resolver[T]) Schema() Schema {
	return r.schema
}

// plan is a validated query ready for the backend.
type plan struct {
	conds    []Condition
	sort     Sort
	offset   int
	pageSize int
}

// Resolve runs a query. It never panics and never returns a partially
// filled envelope: on any failure Data is nil and Error says why.
func (r *Resolver[T]) Resolve(ctx context.Context, params Params) (res Result[T]) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.opts.logger.Error("query backend panicked",
				zap.String("collection", r.schema.Collection),
				zap.Any("panic", rec),
			)
			res = Result[T]{Error: backendUnavailable()}
		}
		if r.opts.observer != nil {
			code := "ok"
			if res.Error != nil {
				code = string(res.Error.Code)
			}
			r.opts.observer.ObserveQuery(r.schema.Collection, code, time.Since(start))
		}
	}()

	p, fail := r.plan(params)
	if fail != nil {
		return Result[T]{Error: fail}
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.timeout)
	defer cancel()

	total, err := r.backend.Count(ctx, p.conds)
	if err != nil {
		return r.unavailable(ctx, "count", err)
	}

	records, err := r.backend.Fetch(ctx, p.conds, p.sort, p.offset, p.pageSize)
	if err != nil {
		return r.unavailable(ctx, "fetch", err)
	}
	if len(records) > p.pageSize {
		records = records[:p.pageSize]
	}
	if records == nil {
		records = []T{}
	}

	pageCount := 0
	if total > 0 {
		pageCount = (total + p.pageSize - 1) / p.pageSize
	}

	return Result[T]{Data: &Page[T]{
		Records:   records,
		Total:     total,
		PageCount: pageCount,
		PageSize:  p.pageSize,
		PageIndex: p.offset / p.pageSize,
	}}
}

func (r *Resolver[T]) unavailable(ctx context.Context, step string, err error) Result[T] {
	fields := []zap.Field{
		zap.String("collection", r.schema.Collection),
		zap.String("step", step),
		zap.Error(err),
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		fields = append(fields, zap.Duration("timeout", r.opts.timeout))
	}
	r.opts.logger.Error("query backend failed", fields...)
	return Result[T]{Error: backendUnavailable()}
}

// plan validates params in a fixed order: limit, offset, direction, sort
// field, then each filter.
func (r *Resolver[T]) plan(params Params) (plan, *Failure) {
	p := plan{pageSize: r.opts.pageSize}

	if params.Limit != nil {
		if *params.Limit <= 0 {
			return plan{}, invalidParameter("limit must be a positive integer, got %d", *params.Limit)
		}
		p.pageSize = min(*params.Limit, r.opts.maxPageSize)
	}

	if params.Offset != nil {
		if *params.Offset < 0 {
			return plan{}, invalidParameter("offset must be a non-negative integer, got %d", *params.Offset)
		}
		p.offset = *params.Offset
	}

	dir := params.SortDirection
	switch dir {
	case "":
		dir = Asc
	case Asc, Desc:
	default:
		return plan{}, invalidParameter("sortDirection must be %q or %q, got %q", Asc, Desc, dir)
	}

	sortName := r.sortField(params)
	field, ok := r.schema.Field(sortName)
	if !ok {
		return plan{}, unknownField("cannot sort %s by unknown field %q", r.schema.Collection, sortName)
	}
	key, _ := r.schema.Field(r.schema.Key)
	p.sort = Sort{Field: field, Key: key, Direction: dir}

	if len(params.Filters) > 0 {
		p.conds = make([]Condition, 0, len(params.Filters))
	}
	for i, f := range params.Filters {
		if !f.Operator.Valid() {
			return plan{}, invalidParameter("filter %d: unknown operator %q", i, f.Operator)
		}
		field, ok := r.schema.Field(f.ID)
		if !ok {
			return plan{}, unknownField("filter %d: %s has no field %q", i, r.schema.Collection, f.ID)
		}
		cond := Condition{Field: field, Operator: f.Operator, Value: f.Value}
		switch {
		case f.Operator == OpEmpty:
		case f.Operator.matchesText() && field.Kind != KindText:
			return plan{}, invalidParameter("filter %d: operator %q needs a text field, %q is %s", i, f.Operator, f.ID, field.Kind)
		default:
			arg, err := field.Parse(f.Value)
			if err != nil {
				return plan{}, invalidParameter("filter %d: %v", i, err)
			}
			cond.Arg = arg
		}
		p.conds = append(p.conds, cond)
	}

	return p, nil
}

// sortField applies the alias precedence: sortBy, then the legacy sort,
// then the schema default.
func (r *Resolver[T]) sortField(params Params) string {
	switch {
	case params.SortBy != "" && params.Sort != "" && params.SortBy != params.Sort:
		r.opts.logger.Warn("conflicting sort parameters, using sortBy",
			zap.String("collection", r.schema.Collection),
			zap.String("sortBy", params.SortBy),
			zap.String("sort", params.Sort),
		)
		return params.SortBy
	case params.SortBy != "":
		return params.SortBy
	case params.Sort != "":
		return params.Sort
	}
	return r.schema.DefaultSort
}
