package query

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/manojoshi/restorm/entity"
)

// evaluate folds a subexpression to a concrete value: constants are taken
// as-is, member accesses are read off the evaluated target by reflection,
// construct nodes build their value from evaluated components. This is
// how closure-captured variables and inline object construction resolve
// to literals before rendering.
func evaluate(e Expr) (any, error) {
	switch n := e.(type) {
	case *constant:
		if _, ok := n.value.(*source); ok {
			return nil, &UnsupportedConstantError{Value: n.value}
		}
		return n.value, nil

	case *unary:
		// wrappers are transparent to evaluation
		return evaluate(n.x)

	case *member:
		base, err := evaluate(n.on)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(base)
		for rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil, &UnsupportedMemberAccessError{Name: n.name}
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil, &UnsupportedMemberAccessError{Name: n.name}
		}
		fv := rv.FieldByName(n.name)
		if !fv.IsValid() {
			return nil, &UnsupportedMemberAccessError{Name: n.name}
		}
		return fv.Interface(), nil

	case *construct:
		return evaluateConstruct(n)
	}
	return nil, &UnsupportedConstantError{Value: e}
}

func evaluateConstruct(n *construct) (any, error) {
	vals := make([]any, len(n.args))
	for i, a := range n.args {
		v, err := evaluate(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	switch n.kind {
	case entity.KindDateTime:
		parts := make([]int, len(vals))
		for i, v := range vals {
			iv, ok := toInt(v)
			if !ok {
				return nil, &UnsupportedLiteralTypeError{Kind: n.kind, Value: v}
			}
			parts[i] = iv
		}
		switch len(parts) {
		case 3:
			return time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC), nil
		case 6:
			return time.Date(parts[0], time.Month(parts[1]), parts[2],
				parts[3], parts[4], parts[5], 0, time.UTC), nil
		}
		return nil, &UnsupportedLiteralTypeError{Kind: n.kind, Value: vals}

	case entity.KindGuid:
		if len(vals) == 1 {
			if s, ok := vals[0].(string); ok {
				g, err := uuid.Parse(s)
				if err != nil {
					return nil, &UnsupportedLiteralTypeError{Kind: n.kind, Value: s}
				}
				return g, nil
			}
		}
		return nil, &UnsupportedLiteralTypeError{Kind: n.kind, Value: vals}
	}
	return nil, &UnsupportedLiteralTypeError{Kind: n.kind, Value: vals}
}

// writeLiteral renders an evaluated value in the grammar's literal forms,
// dispatching on the value's static kind (falling back to the dynamic
// type when the expression carried no kind).
func (t *translator) writeLiteral(v any, kind entity.Kind) error {
	if kind == entity.KindUnknown {
		kind = entity.KindOf(reflect.TypeOf(v))
	}
	v = deref(v)

	switch kind {
	case entity.KindDateTime:
		ts, ok := v.(time.Time)
		if !ok {
			return &UnsupportedLiteralTypeError{Kind: kind, Value: v}
		}
		if h, m, s := ts.Clock(); h == 0 && m == 0 && s == 0 {
			t.write(fmt.Sprintf("DateTime(%d,%d,%d)", ts.Year(), int(ts.Month()), ts.Day()))
		} else {
			t.write(fmt.Sprintf("DateTime(%d,%d,%d,%d,%d,%d)",
				ts.Year(), int(ts.Month()), ts.Day(), h, m, s))
		}
		return nil

	case entity.KindGuid:
		g, ok := v.(uuid.UUID)
		if !ok {
			return &UnsupportedLiteralTypeError{Kind: kind, Value: v}
		}
		if g == uuid.Nil {
			t.write("Guid.Empty")
		} else {
			t.write(`Guid("` + g.String() + `")`)
		}
		return nil

	case entity.KindString:
		if v == nil {
			t.write("null")
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return &UnsupportedLiteralTypeError{Kind: kind, Value: v}
		}
		t.write(`"` + s + `"`)
		return nil

	case entity.KindInt32, entity.KindInt64:
		// the service quotes numeric filter operands
		t.write(`"` + fmt.Sprint(v) + `"`)
		return nil
	}
	return &UnsupportedLiteralTypeError{Kind: kind, Value: v}
}

// -------------------------------------------------------------------
// small value helpers
// -------------------------------------------------------------------

// fieldKind resolves the static kind of a struct field at capture time.
func fieldKind(owner any, field string) entity.Kind {
	rt := reflect.TypeOf(owner)
	if rt == nil {
		return entity.KindUnknown
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return entity.KindUnknown
	}
	if f, ok := rt.FieldByName(field); ok {
		return entity.KindOf(f.Type)
	}
	return entity.KindUnknown
}

// deref unwraps pointer values; a nil pointer becomes a nil interface so
// null checks stay uniform.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func isNilValue(v any) bool { return deref(v) == nil }

// stringify is the diverted-field form: the evaluated value's plain
// string representation (canonical form for identifiers).
func stringify(v any) string {
	v = deref(v)
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func toInt(v any) (int, bool) {
	switch n := deref(v).(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	}
	return 0, false
}

func isPrimitive(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
