// Package resource offers the typed collection proxy callers query
// against. Fluent calls accumulate an expression tree; a terminal call
// translates it once, renders the request, executes it and applies the
// recorded client-side reduction to the decoded result set.
//
//	invoices := resource.NewCollection[Invoice](conn)
//	paid, err := invoices.
//	    Where(q.Eq(q.Field("Status"), q.Value("PAID"))).
//	    OrderByDescending("Date").
//	    Fetch(ctx)
package resource

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/manojoshi/restorm/driver"
	"github.com/manojoshi/restorm/entity"
	"github.com/manojoshi/restorm/internal"
	"github.com/manojoshi/restorm/query"
	"github.com/manojoshi/restorm/scan"
)

const defaultPageSize = 100

// Option configures a Collection.
type Option func(*settings)

type settings struct {
	pageSize int
}

// WithPageSize sets the page size the proxy assumes when following
// pages; values below 1 are clamped.
func WithPageSize(n int) Option {
	return func(s *settings) { s.pageSize = internal.Max(n, 1) }
}

// Collection is a queryable proxy for one element type, bound to an
// executor. Fluent calls mutate the receiver and return it, so one
// Collection describes one query composition.
type Collection[T any] struct {
	exec     driver.Executor
	schema   *entity.Schema
	expr     query.Expr
	pageSize int
	err      error // sticky metadata failure, surfaced at the terminal
}

// NewCollection builds a proxy for T's element type.
func NewCollection[T any](exec driver.Executor, opts ...Option) *Collection[T] {
	s := settings{pageSize: defaultPageSize}
	for _, o := range opts {
		o(&s)
	}

	var model T
	schema, err := entity.Describe(model)
	c := &Collection[T]{
		exec:     exec,
		schema:   schema,
		pageSize: s.pageSize,
		err:      err,
	}
	if err == nil {
		c.expr = query.Source(schema)
	}
	return c
}

// -------------------------------------------------------------------
// fluent composition
// -------------------------------------------------------------------

// Where appends a filter predicate.
func (c *Collection[T]) Where(pred query.Expr) *Collection[T] {
	c.expr = query.Invoke(c.expr, "Where", pred)
	return c
}

// OrderBy appends an ascending ordering on a field.
func (c *Collection[T]) OrderBy(field string) *Collection[T] {
	c.expr = query.Invoke(c.expr, "OrderBy", query.Field(field))
	return c
}

// OrderByDescending appends a descending ordering on a field.
func (c *Collection[T]) OrderByDescending(field string) *Collection[T] {
	c.expr = query.Invoke(c.expr, "OrderByDescending", query.Field(field))
	return c
}

// ThenBy appends a subordinate ascending ordering.
func (c *Collection[T]) ThenBy(field string) *Collection[T] {
	c.expr = query.Invoke(c.expr, "ThenBy", query.Field(field))
	return c
}

// ThenByDescending appends a subordinate descending ordering.
func (c *Collection[T]) ThenByDescending(field string) *Collection[T] {
	c.expr = query.Invoke(c.expr, "ThenByDescending", query.Field(field))
	return c
}

// Skip offsets the result window.
func (c *Collection[T]) Skip(n int) *Collection[T] {
	c.expr = query.Invoke(c.expr, "Skip", query.Value(n))
	return c
}

// -------------------------------------------------------------------
// terminals
// -------------------------------------------------------------------

// Fetch materializes the composed query and returns every match.
func (c *Collection[T]) Fetch(ctx context.Context) ([]T, error) {
	items, _, err := c.run(ctx, c.expr)
	return items, err
}

// First returns the first match; it is an error when nothing matches.
// An optional predicate behaves like a trailing Where.
func (c *Collection[T]) First(ctx context.Context, pred ...query.Expr) (T, error) {
	return c.reduce(ctx, "First", pred)
}

// FirstOrDefault returns the first match, or the zero value when
// nothing matches.
func (c *Collection[T]) FirstOrDefault(ctx context.Context, pred ...query.Expr) (T, error) {
	return c.reduce(ctx, "FirstOrDefault", pred)
}

// Single returns the only match; any other multiplicity is an error.
func (c *Collection[T]) Single(ctx context.Context, pred ...query.Expr) (T, error) {
	return c.reduce(ctx, "Single", pred)
}

// SingleOrDefault returns the only match, the zero value when nothing
// matches, and an error when more than one matches.
func (c *Collection[T]) SingleOrDefault(ctx context.Context, pred ...query.Expr) (T, error) {
	return c.reduce(ctx, "SingleOrDefault", pred)
}

// Count returns the number of matches. The service has no server-side
// count, so the proxy fetches and counts locally. An optional predicate
// is appended as a trailing Where so it lands in the filter section; the
// Count operator itself never changes the active section.
func (c *Collection[T]) Count(ctx context.Context, pred ...query.Expr) (int, error) {
	root := c.expr
	if len(pred) > 0 {
		root = query.Invoke(root, "Where", pred...)
	}
	items, _, err := c.run(ctx, query.Invoke(root, "Count"))
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// reduce runs the query with a first/single aggregate appended and
// applies the reduction the Description recorded.
func (c *Collection[T]) reduce(ctx context.Context, op string, pred []query.Expr) (T, error) {
	var zero T
	items, desc, err := c.run(ctx, query.Invoke(c.expr, op, pred...))
	if err != nil {
		return zero, err
	}

	switch desc.Aggregate() {
	case query.AggregateFirst:
		if len(items) == 0 {
			return zero, fmt.Errorf("resource: no matching %s", c.schema.Name)
		}
		return items[0], nil
	case query.AggregateFirstOrDefault:
		if len(items) == 0 {
			return zero, nil
		}
		return items[0], nil
	case query.AggregateSingle:
		if len(items) != 1 {
			return zero, fmt.Errorf("resource: expected exactly one %s, got %d",
				c.schema.Name, len(items))
		}
		return items[0], nil
	case query.AggregateSingleOrDefault:
		if len(items) > 1 {
			return zero, fmt.Errorf("resource: expected at most one %s, got %d",
				c.schema.Name, len(items))
		}
		if len(items) == 0 {
			return zero, nil
		}
		return items[0], nil
	}
	return zero, fmt.Errorf("resource: no client-side reduction recorded for %s", op)
}

// run translates, renders, executes and decodes one composed query.
func (c *Collection[T]) run(ctx context.Context, root query.Expr) ([]T, *query.Description, error) {
	if c.err != nil {
		return nil, nil, c.err
	}

	desc, err := query.Translate(root)
	if err != nil {
		return nil, nil, err
	}

	endpoint := c.schema.Plural
	if id, ok := desc.ElementID(); ok {
		endpoint += "/" + url.PathEscape(id)
	}
	params := Render(desc)

	items, err := c.fetch(ctx, endpoint, params, desc)
	if err != nil {
		return nil, nil, err
	}
	return items, desc, nil
}

// fetch issues the GET and follows pages until a short page. First/single
// reductions stop after one page: the first page already decides them.
func (c *Collection[T]) fetch(ctx context.Context, endpoint string, params url.Values, desc *query.Description) ([]T, error) {
	singlePage := false
	switch desc.Aggregate() {
	case query.AggregateFirst, query.AggregateFirstOrDefault,
		query.AggregateSingle, query.AggregateSingleOrDefault:
		singlePage = true
	}

	offset := 0
	if s := desc.Section(query.SectionSkip); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("resource: malformed offset section %q: %w", s, err)
		}
		offset = n
	}

	var all []T
	for {
		if offset > 0 {
			params.Set("offset", strconv.Itoa(offset))
		}
		body, err := c.exec.Get(ctx, endpoint, params)
		if err != nil {
			return nil, err
		}
		batch, err := scan.DecodeSlice[T](body, c.schema.Plural)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if singlePage || len(batch) < c.pageSize {
			return all, nil
		}
		offset += len(batch)
	}
}
